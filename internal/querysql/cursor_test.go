package querysql

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/edmsql/internal/dialect"
	"github.com/roach88/edmsql/internal/testutil"
)

// pagedQuery returns an Orders query with the given paging, built for dc.
func pagedQuery(t *testing.T, dc dialect.Context, skip, top int, opts ...Option) *Query {
	t.Helper()
	s := newShop(t)
	q := New(s.cat, opts...)
	require.NoError(t, q.Select(s.orders, sel("Id"), nil, skip, top))
	build(t, q, dc)
	return q
}

func TestSetOffset_ScrollCursorJumpsWithinFetchBlocks(t *testing.T) {
	q := pagedQuery(t, genericCtx, 250, 0)
	c := testutil.NewScrollCursor(300)

	require.NoError(t, q.SetOffset(c))
	assert.Equal(t, []int{99, 99, 49}, c.RelativeCalls)
	assert.Equal(t, 3, c.NextCalls)
	assert.Equal(t, 250, c.Position)
	assert.Equal(t, 250, q.RowCounter())
}

func TestSetOffset_CustomFetchSize(t *testing.T) {
	q := pagedQuery(t, genericCtx, 25, 0, WithFetchSize(10))
	c := testutil.NewScrollCursor(100)

	require.NoError(t, q.SetOffset(c))
	assert.Equal(t, []int{9, 9, 4}, c.RelativeCalls)
	assert.Equal(t, 25, c.Position)
}

func TestSetOffset_ForwardOnlyCursorFallsBackToNext(t *testing.T) {
	q := pagedQuery(t, mssqlCtx, 20, 10)
	c := testutil.NewFakeCursor(100)

	require.NoError(t, q.SetOffset(c))
	assert.Equal(t, 20, c.NextCalls)
	assert.Equal(t, 20, c.Position)
}

func TestSetOffset_StopsWhenExhausted(t *testing.T) {
	q := pagedQuery(t, genericCtx, 50, 0)
	c := testutil.NewScrollCursor(5)

	require.NoError(t, q.SetOffset(c))
	assert.Equal(t, 5, q.RowCounter())
	assert.False(t, q.Next(c))
}

func TestSetOffset_ForwardOnlyCursorCountsRowsBeforeEnd(t *testing.T) {
	q := pagedQuery(t, mssqlCtx, 20, 10)
	c := testutil.NewFakeCursor(7)

	require.NoError(t, q.SetOffset(c))
	assert.Equal(t, 7, q.RowCounter())
	assert.False(t, q.Next(c))
}

func TestSetOffset_StartsNewCursorRun(t *testing.T) {
	q := pagedQuery(t, mssqlCtx, 2, 3)

	for run := 0; run < 2; run++ {
		c := testutil.NewFakeCursor(10)
		require.NoError(t, q.SetOffset(c), "run %d", run)
		assert.Equal(t, 2, q.RowCounter(), "run %d", run)
		for i := 0; i < 3; i++ {
			require.True(t, q.Next(c), "run %d row %d", run, i)
		}
		assert.False(t, q.Next(c), "run %d", run)
		assert.Equal(t, 5, c.Position, "run %d", run)
	}
}

func TestSetOffset_ResetsCounterWithNativePaging(t *testing.T) {
	q := pagedQuery(t, sqliteCtx, 0, 2)

	for run := 0; run < 2; run++ {
		c := testutil.NewFakeCursor(10)
		require.NoError(t, q.SetOffset(c))
		assert.True(t, q.Next(c), "run %d", run)
		assert.True(t, q.Next(c), "run %d", run)
		assert.False(t, q.Next(c), "run %d", run)
	}
}

func TestSetOffset_NoopWhenNative(t *testing.T) {
	q := pagedQuery(t, pgCtx, 20, 10)
	c := testutil.NewFakeCursor(100)

	require.NoError(t, q.SetOffset(c))
	assert.Zero(t, c.NextCalls)
	assert.Zero(t, q.RowCounter())
}

func TestSetOffset_NoopWithoutSkip(t *testing.T) {
	q := pagedQuery(t, genericCtx, 0, 10)
	c := testutil.NewFakeCursor(100)

	require.NoError(t, q.SetOffset(c))
	assert.Zero(t, c.NextCalls)
}

func TestSetOffset_ReturnsCursorError(t *testing.T) {
	q := pagedQuery(t, genericCtx, 5, 0)
	c := testutil.NewFakeCursor(100)
	boom := errors.New("connection reset")
	c.FailWith(boom)

	err := q.SetOffset(c)
	assert.ErrorIs(t, err, boom)
}

func TestNext_CapsAtTopAfterClientSkip(t *testing.T) {
	q := pagedQuery(t, mssqlCtx, 20, 10)
	c := testutil.NewFakeCursor(30)

	require.NoError(t, q.SetOffset(c))
	for i := 0; i < 10; i++ {
		require.True(t, q.Next(c), "row %d", i)
	}
	callsBefore := c.NextCalls
	assert.False(t, q.Next(c))
	assert.Equal(t, callsBefore, c.NextCalls, "capped Next must not touch the cursor")
	assert.Equal(t, 31, q.RowCounter())
}

func TestNext_CapsAtTopWithNativePaging(t *testing.T) {
	q := pagedQuery(t, sqliteCtx, 20, 3)
	c := testutil.NewFakeCursor(10)

	require.NoError(t, q.SetOffset(c))
	assert.True(t, q.Next(c))
	assert.True(t, q.Next(c))
	assert.True(t, q.Next(c))
	assert.False(t, q.Next(c))
}

func TestNext_UnboundedFollowsCursor(t *testing.T) {
	q := pagedQuery(t, sqliteCtx, 0, 0)
	c := testutil.NewFakeCursor(2)

	assert.True(t, q.Next(c))
	assert.True(t, q.Next(c))
	assert.False(t, q.Next(c))
	assert.Equal(t, 3, q.RowCounter())
}
