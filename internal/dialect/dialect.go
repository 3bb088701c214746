package dialect

import (
	"strings"
)

// Product identifies a database backend.
type Product int

const (
	Unknown Product = iota
	PostgreSQL
	MySQL
	SQLite
	HANA
	SQLServer
	Derby
	H2
	Sybase
)

var productNames = [...]string{
	Unknown:    "unknown",
	PostgreSQL: "postgresql",
	MySQL:      "mysql",
	SQLite:     "sqlite",
	HANA:       "hana",
	SQLServer:  "sqlserver",
	Derby:      "derby",
	H2:         "h2",
	Sybase:     "sybase",
}

// String returns the canonical lower-case product name.
func (p Product) String() string {
	if p < 0 || int(p) >= len(productNames) {
		return productNames[Unknown]
	}
	return productNames[p]
}

// Products returns every known product except Unknown.
func Products() []Product {
	return []Product{PostgreSQL, MySQL, SQLite, HANA, SQLServer, Derby, H2, Sybase}
}

// ParseProduct maps a product or driver name, as reported by connection
// metadata or written in configuration, to a Product. Unrecognised names
// map to Unknown.
func ParseProduct(name string) Product {
	n := strings.ToLower(strings.TrimSpace(name))
	switch {
	case n == "":
		return Unknown
	case strings.Contains(n, "postgres"), n == "pgx", n == "pg":
		return PostgreSQL
	case strings.Contains(n, "mysql"), strings.Contains(n, "mariadb"):
		return MySQL
	case strings.Contains(n, "sqlite"):
		return SQLite
	case n == "hdb", strings.Contains(n, "hana"):
		return HANA
	case strings.Contains(n, "sql server"), n == "sqlserver", n == "mssql":
		return SQLServer
	case strings.Contains(n, "derby"):
		return Derby
	case n == "h2":
		return H2
	case strings.Contains(n, "adaptive server"), strings.Contains(n, "sybase"), n == "ase":
		return Sybase
	default:
		return Unknown
	}
}

// Paging is the row-limiting syntax of a product.
type Paging int

const (
	// ClientPaging leaves both skip and top to the cursor.
	ClientPaging Paging = iota
	// LimitOffset appends LIMIT/OFFSET.
	LimitOffset
	// TopPrefix prefixes the column list with TOP; skip stays on the client.
	TopPrefix
	// OffsetFetch appends OFFSET ... ROWS FETCH NEXT ... ROWS ONLY.
	OffsetFetch
)

// Paging returns the row-limiting style of p.
func (p Product) Paging() Paging {
	switch p {
	case PostgreSQL, MySQL, SQLite, HANA, H2:
		return LimitOffset
	case SQLServer, Sybase:
		return TopPrefix
	case Derby:
		return OffsetFetch
	default:
		return ClientPaging
	}
}

// Placeholder is the bind-marker style a driver expects.
type Placeholder int

const (
	// Question markers: ?, ?, ?
	Question Placeholder = iota
	// Dollar markers: $1, $2, $3
	Dollar
)

// Placeholder returns the marker style of p.
func (p Product) Placeholder() Placeholder {
	if p == PostgreSQL {
		return Dollar
	}
	return Question
}
