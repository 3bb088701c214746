package store

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/roach88/edmsql/internal/queryir"
	"github.com/roach88/edmsql/internal/testutil"
)

// openShop opens an in-memory SQLite store seeded with orders orders.
func openShop(t *testing.T, orders int, opts ...Option) *Store {
	t.Helper()
	opts = append([]Option{WithIDGenerator(testutil.NewFixedIDGenerator("q-test"))}, opts...)
	s, err := Open("sqlite3", ":memory:", testutil.ShopCatalog(t), opts...)
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	require.NoError(t, testutil.SeedShop(s.DB(), orders))
	return s
}

func parseRequest(t *testing.T, doc string) *queryir.Request {
	t.Helper()
	req, err := queryir.ParseRequest([]byte(doc))
	require.NoError(t, err)
	return req
}

// rootIDs returns the Id of the root entity of every row.
func rootIDs(rows []Row) []int64 {
	out := make([]int64, len(rows))
	for i, r := range rows {
		out[i] = r["T0"]["Id"].(int64)
	}
	return out
}
