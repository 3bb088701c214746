package dialect

import (
	"strconv"
	"strings"
)

// Offset-only row limits for products whose LIMIT clause cannot be omitted
// when OFFSET is present.
const (
	sqliteNoLimit = "-1"
	mysqlNoLimit  = "18446744073709551615"
	hanaNoLimit   = "2147483647"
)

// Context is the dialect information handed to BuildSelect.
type Context struct {
	Product Product

	// CaseSensitive quotes table and column names so the backend keeps
	// their case.
	CaseSensitive bool
}

// NativeSkip reports whether rows are skipped by the SQL statement itself.
// When false the caller must skip rows with the cursor.
func (c Context) NativeSkip() bool {
	switch c.Product.Paging() {
	case LimitOffset, OffsetFetch:
		return true
	}
	return false
}

// Prefix returns the clause placed between SELECT and the column list.
func (c Context) Prefix(skip, top int) string {
	if c.Product.Paging() != TopPrefix || top <= 0 {
		return ""
	}
	// Skipped rows are still fetched and discarded by the cursor.
	return "TOP " + strconv.Itoa(max(skip, 0)+top)
}

// Suffix returns the clause appended after ORDER BY.
func (c Context) Suffix(skip, top int) string {
	switch c.Product.Paging() {
	case LimitOffset:
		return c.limitOffset(skip, top)
	case OffsetFetch:
		var parts []string
		if skip > 0 {
			parts = append(parts, "OFFSET "+strconv.Itoa(skip)+" ROWS")
		}
		if top > 0 {
			if skip > 0 {
				parts = append(parts, "FETCH NEXT "+strconv.Itoa(top)+" ROWS ONLY")
			} else {
				parts = append(parts, "FETCH FIRST "+strconv.Itoa(top)+" ROWS ONLY")
			}
		}
		return strings.Join(parts, " ")
	default:
		return ""
	}
}

func (c Context) limitOffset(skip, top int) string {
	switch {
	case top > 0 && skip > 0:
		return "LIMIT " + strconv.Itoa(top) + " OFFSET " + strconv.Itoa(skip)
	case top > 0:
		return "LIMIT " + strconv.Itoa(top)
	case skip > 0:
		switch c.Product {
		case SQLite:
			return "LIMIT " + sqliteNoLimit + " OFFSET " + strconv.Itoa(skip)
		case MySQL:
			return "LIMIT " + mysqlNoLimit + " OFFSET " + strconv.Itoa(skip)
		case HANA:
			return "LIMIT " + hanaNoLimit + " OFFSET " + strconv.Itoa(skip)
		default:
			return "OFFSET " + strconv.Itoa(skip)
		}
	}
	return ""
}

// Quote returns ident double-quoted when the context is case sensitive and
// unchanged otherwise. Embedded quotes are doubled.
func (c Context) Quote(ident string) string {
	if !c.CaseSensitive {
		return ident
	}
	return `"` + strings.ReplaceAll(ident, `"`, `""`) + `"`
}

// Rebind rewrites ? markers into the product's placeholder style. Markers
// inside quoted literals or identifiers are left alone.
func (c Context) Rebind(query string) string {
	if c.Product.Placeholder() != Dollar {
		return query
	}

	var b strings.Builder
	b.Grow(len(query) + 8)
	n := 0
	var quote rune
	for _, r := range query {
		switch {
		case quote != 0:
			if r == quote {
				quote = 0
			}
		case r == '\'' || r == '"':
			quote = r
		case r == '?':
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}
