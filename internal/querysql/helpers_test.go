package querysql

import (
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/roach88/edmsql/internal/binding"
	"github.com/roach88/edmsql/internal/dialect"
	"github.com/roach88/edmsql/internal/ir"
	"github.com/roach88/edmsql/internal/queryir"
	"github.com/roach88/edmsql/internal/testutil"
)

var (
	sqliteCtx  = dialect.Context{Product: dialect.SQLite}
	pgCtx      = dialect.Context{Product: dialect.PostgreSQL}
	mssqlCtx   = dialect.Context{Product: dialect.SQLServer}
	genericCtx = dialect.Context{Product: dialect.Unknown}
)

type shop struct {
	cat        *binding.Catalog
	orders     *ir.EntitySet
	customers  *ir.EntitySet
	orderLines *ir.EntitySet
}

func newShop(t *testing.T) shop {
	t.Helper()
	cat := testutil.ShopCatalog(t)
	return shop{
		cat:        cat,
		orders:     testutil.MustSet(t, cat, "Orders"),
		customers:  testutil.MustSet(t, cat, "Customers"),
		orderLines: testutil.MustSet(t, cat, "OrderLines"),
	}
}

// build compiles q for dc, failing the test on error.
func build(t *testing.T, q *Query, dc dialect.Context) string {
	t.Helper()
	sql, err := q.BuildSelect(dc)
	require.NoError(t, err)
	return sql
}

// inline substitutes ? markers with the formatted args in order, so a
// test can check that placeholders and parameters line up.
func inline(sql string, args []any) string {
	var b strings.Builder
	i := 0
	for _, r := range sql {
		if r == '?' && i < len(args) {
			fmt.Fprintf(&b, "<%v>", args[i])
			i++
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

// lit wraps a Go value as a filter literal.
func lit(v any) queryir.Literal {
	val, err := ir.FromAny(v)
	if err != nil {
		panic(err)
	}
	return queryir.Lit(val)
}
