package store

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/edmsql/internal/dialect"
	"github.com/roach88/edmsql/internal/querysql"
	"github.com/roach88/edmsql/internal/testutil"
)

const pagedOrders = `
entity_set: Orders
select: [Date, Total]
filter: {eq: [{member: CustomerId}, C1]}
orderby: ["Date desc"]
skip: 20
top: 10
`

// C1 holds orders 1, 4, ..., 100; dates grow with the id.
var pagedOrdersIDs = []int64{40, 37, 34, 31, 28, 25, 22, 19, 16, 13}

func TestFetch_SQLiteNativePaging(t *testing.T) {
	s := openShop(t, 100)

	res, err := s.Fetch(context.Background(), parseRequest(t, pagedOrders))
	require.NoError(t, err)

	assert.Equal(t,
		"SELECT T0.ID AS ID_T0, T0.ORDER_DATE AS ORDER_DATE_T0, T0.TOTAL AS TOTAL_T0 FROM ORDERS T0 "+
			"WHERE T0.CUSTOMER_ID = ? ORDER BY T0.ORDER_DATE desc LIMIT 10 OFFSET 20",
		res.SQL)
	assert.Equal(t, []any{"C1"}, res.Args)
	assert.Equal(t, "q-test", res.QueryID)
	assert.Equal(t, pagedOrdersIDs, rootIDs(res.Rows))
	assert.Equal(t, "2024-02-09", res.Rows[0]["T0"]["Date"])
	assert.EqualValues(t, 400, res.Rows[0]["T0"]["Total"])
}

func TestFetch_ClientSidePagingMatchesNative(t *testing.T) {
	s := openShop(t, 100, WithFetchSize(7))
	// no LIMIT/OFFSET: rows are skipped and capped on the cursor
	s.dc = dialect.Context{Product: dialect.Unknown}

	res, err := s.Fetch(context.Background(), parseRequest(t, pagedOrders))
	require.NoError(t, err)

	assert.NotContains(t, res.SQL, "LIMIT")
	assert.Equal(t, pagedOrdersIDs, rootIDs(res.Rows))
}

func TestFetch_ClientSideSkipPastEnd(t *testing.T) {
	s := openShop(t, 10)
	s.dc = dialect.Context{Product: dialect.Unknown}

	res, err := s.Fetch(context.Background(), parseRequest(t, "entity_set: Orders\nskip: 50\ntop: 5"))
	require.NoError(t, err)
	assert.Empty(t, res.Rows)
	assert.NotNil(t, res.Rows)
}

func TestFetch_EmptyLeadingKeysMatchNothing(t *testing.T) {
	s := openShop(t, 10)

	res, err := s.Fetch(context.Background(), parseRequest(t, `
entity_set: Orders
leading: {property: CustomerId, ids: []}
`))
	require.NoError(t, err)
	assert.Contains(t, res.SQL, "WHERE T0.CUSTOMER_ID IN ()")
	assert.Empty(t, res.Rows)
}

func TestFetch_LeadingKeys(t *testing.T) {
	s := openShop(t, 10)

	res, err := s.Fetch(context.Background(), parseRequest(t, `
entity_set: Orders
select: [Total]
leading: {property: CustomerId, ids: [C2, C3]}
orderby: [Id]
top: 3
`))
	require.NoError(t, err)
	assert.Equal(t, []int64{2, 3, 5}, rootIDs(res.Rows))
}

func TestFetch_ExpandDecodesPerAlias(t *testing.T) {
	s := openShop(t, 10)

	res, err := s.Fetch(context.Background(), parseRequest(t, `
entity_set: Orders
select: [Total]
expand: [Customer]
filter: {le: [{member: Id}, 3]}
orderby: [Id]
`))
	require.NoError(t, err)
	require.Len(t, res.Rows, 3)

	names := make([]any, len(res.Rows))
	for i, r := range res.Rows {
		names[i] = r["T1"]["Name"]
	}
	assert.Equal(t, []any{"Alice", "Bob", "Carol"}, names)
	assert.Equal(t, "Berlin", res.Rows[0]["T1"]["City"])
	assert.NotContains(t, res.Rows[0]["T0"], "CustomerId")
}

func TestFetch_NavigationFilter(t *testing.T) {
	s := openShop(t, 9)

	res, err := s.Fetch(context.Background(), parseRequest(t, `
entity_set: Orders
select: [Id]
filter: {eq: [{member: Customer/City}, Paris]}
orderby: [Id]
`))
	require.NoError(t, err)
	assert.Equal(t, []int64{2, 5, 8}, rootIDs(res.Rows))
}

func TestFetch_NullAndLike(t *testing.T) {
	s := openShop(t, 30)

	res, err := s.Fetch(context.Background(), parseRequest(t, `
entity_set: Orders
select: [Note]
filter: {eq: [{member: Note}, {null: true}]}
orderby: [Id]
`))
	require.NoError(t, err)
	assert.Equal(t, []int64{10, 20, 30}, rootIDs(res.Rows))
	assert.Nil(t, res.Rows[0]["T0"]["Note"])

	res, err = s.Fetch(context.Background(), parseRequest(t, `
entity_set: Orders
select: [Note]
filter: {endswith: [{member: Note}, "note 7"]}
`))
	require.NoError(t, err)
	assert.Equal(t, []int64{7}, rootIDs(res.Rows))
}

func TestFetch_CaseSensitiveIdentifiers(t *testing.T) {
	s := openShop(t, 3, WithCaseSensitive(true))

	res, err := s.Fetch(context.Background(), parseRequest(t, "entity_set: Orders\nselect: [Total]\norderby: [Id]"))
	require.NoError(t, err)
	assert.Contains(t, res.SQL, `FROM "ORDERS" T0`)
	assert.Equal(t, []int64{1, 2, 3}, rootIDs(res.Rows))
}

func TestFetch_CompileErrorIsReturnedUnchanged(t *testing.T) {
	s := openShop(t, 1)

	_, err := s.Fetch(context.Background(), parseRequest(t, "entity_set: Orders\nselect: ['*']"))
	require.Error(t, err)
	assert.True(t, querysql.IsUnimplemented(err))
}

func TestFetch_RejectsCountRequest(t *testing.T) {
	s := openShop(t, 1)
	_, err := s.Fetch(context.Background(), parseRequest(t, "entity_set: Orders\ncount: true"))
	assert.Error(t, err)
}

func TestCount(t *testing.T) {
	s := openShop(t, 100)

	n, err := s.Count(context.Background(), parseRequest(t, pagedOrders))
	require.NoError(t, err)
	assert.Equal(t, int64(34), n)
}

func TestExecute_SQLServerWithMock(t *testing.T) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherEqual))
	require.NoError(t, err)
	defer db.Close()

	rows := sqlmock.NewRows([]string{"ID_T0", "ORDER_DATE_T0", "TOTAL_T0"})
	for i := int64(1); i <= 30; i++ {
		rows.AddRow(i, "2024-01-01", i*10)
	}
	mock.ExpectQuery("SELECT TOP 30 T0.ID AS ID_T0, T0.ORDER_DATE AS ORDER_DATE_T0, T0.TOTAL AS TOTAL_T0 FROM ORDERS T0 " +
		"WHERE T0.CUSTOMER_ID = ? ORDER BY T0.ORDER_DATE desc").
		WithArgs("C1").
		WillReturnRows(rows)

	s := OpenDB(db, testutil.ShopCatalog(t),
		WithProduct(dialect.SQLServer),
		WithIDGenerator(testutil.NewFixedIDGenerator("q-mock")))

	res, err := s.Fetch(context.Background(), parseRequest(t, pagedOrders))
	require.NoError(t, err)

	assert.Equal(t, []int64{21, 22, 23, 24, 25, 26, 27, 28, 29, 30}, rootIDs(res.Rows))
	assert.Equal(t, "q-mock", res.QueryID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestExecute_PostgresPlaceholders(t *testing.T) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherEqual))
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery("SELECT T0.ID AS ID_T0, T0.ORDER_DATE AS ORDER_DATE_T0, T0.TOTAL AS TOTAL_T0 FROM ORDERS T0 " +
		"WHERE T0.CUSTOMER_ID = $1 ORDER BY T0.ORDER_DATE desc LIMIT 10 OFFSET 20").
		WithArgs("C1").
		WillReturnRows(sqlmock.NewRows([]string{"ID_T0", "ORDER_DATE_T0", "TOTAL_T0"}).AddRow(int64(40), "2024-02-09", int64(400)))

	s := OpenDB(db, testutil.ShopCatalog(t), WithProduct(dialect.PostgreSQL))

	res, err := s.Fetch(context.Background(), parseRequest(t, pagedOrders))
	require.NoError(t, err)
	assert.Equal(t, []int64{40}, rootIDs(res.Rows))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestExecute_MySQLBytesBecomeStrings(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery("SELECT").
		WillReturnRows(sqlmock.NewRows([]string{"ID_T0", "NAME_T0", "CITY_T0"}).AddRow(int64(1), []byte("Alice"), []byte("Berlin")))

	s := OpenDB(db, testutil.ShopCatalog(t), WithProduct(dialect.MySQL))
	res, err := s.Fetch(context.Background(), parseRequest(t, "entity_set: Customers"))
	require.NoError(t, err)
	require.Len(t, res.Rows, 1)
	assert.Equal(t, "Alice", res.Rows[0]["T0"]["Name"])
}

func TestExecute_WrapsDriverErrors(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	boom := errors.New("relation does not exist")
	mock.ExpectQuery("SELECT").WillReturnError(boom)

	s := OpenDB(db, testutil.ShopCatalog(t), WithIDGenerator(testutil.NewFixedIDGenerator("q-err")))
	_, err = s.Fetch(context.Background(), parseRequest(t, "entity_set: Orders"))
	require.Error(t, err)
	assert.ErrorIs(t, err, boom)
	assert.Contains(t, err.Error(), "q-err")
}

func TestExecute_LogsQueryID(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, nil))
	s := openShop(t, 3, WithLogger(logger))

	_, err := s.Fetch(context.Background(), parseRequest(t, "entity_set: Orders"))
	require.NoError(t, err)

	assert.Contains(t, buf.String(), `"msg":"query executed"`)
	assert.Contains(t, buf.String(), `"query_id":"q-test"`)
	assert.Contains(t, buf.String(), `"rows":3`)
}

func TestExecute_SameStatementTwice(t *testing.T) {
	tests := []struct {
		name    string
		product dialect.Product
		doc     string
		want    []int64
	}{
		{
			name:    "native paging",
			product: dialect.SQLite,
			doc:     "entity_set: Orders\norderby: [Id]\ntop: 3",
			want:    []int64{1, 2, 3},
		},
		{
			name:    "client side paging",
			product: dialect.Unknown,
			doc:     "entity_set: Orders\norderby: [Id]\nskip: 2\ntop: 3",
			want:    []int64{3, 4, 5},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := openShop(t, 10)
			s.dc = dialect.Context{Product: tt.product}

			stmt, err := s.Compile(parseRequest(t, tt.doc))
			require.NoError(t, err)

			first, err := s.Execute(context.Background(), stmt)
			require.NoError(t, err)
			second, err := s.Execute(context.Background(), stmt)
			require.NoError(t, err)

			assert.Equal(t, tt.want, rootIDs(first.Rows))
			assert.Equal(t, tt.want, rootIDs(second.Rows))
		})
	}
}
