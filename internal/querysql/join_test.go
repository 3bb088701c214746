package querysql

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/edmsql/internal/ir"
	"github.com/roach88/edmsql/internal/queryir"
)

func TestJoin_ForwardColumn(t *testing.T) {
	s := newShop(t)
	q := New(s.cat)

	edge, err := q.Join(s.orders.EntityType, s.customers.EntityType)
	require.NoError(t, err)
	assert.Equal(t, "LEFT JOIN CUSTOMERS T1 ON T0.CUSTOMER_ID = T1.ID", edge.Clause)
	assert.True(t, q.IsJoined(s.customers.EntityType))
	assert.False(t, q.IsJoined(s.orders.EntityType))
}

func TestJoin_ReverseColumn(t *testing.T) {
	s := newShop(t)
	q := New(s.cat)

	edge, err := q.Join(s.customers.EntityType, s.orders.EntityType)
	require.NoError(t, err)
	assert.Equal(t, "LEFT JOIN ORDERS T1 ON T1.CUSTOMER_ID = T0.ID", edge.Clause)
}

func TestJoin_Idempotent(t *testing.T) {
	s := newShop(t)
	q := New(s.cat)

	first, err := q.Join(s.orders.EntityType, s.customers.EntityType)
	require.NoError(t, err)
	second, err := q.Join(s.orders.EntityType, s.customers.EntityType)
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Len(t, q.Joins(), 1)
	assert.Equal(t, 2, q.Aliases().Len())
}

func TestJoin_NoColumnIsBindingError(t *testing.T) {
	s := newShop(t)
	q := New(s.cat)

	_, err := q.Join(s.customers.EntityType, s.orderLines.EntityType)
	require.Error(t, err)
	assert.True(t, IsBindingError(err))
	f, _ := FeatureOf(err)
	assert.Equal(t, FeatureJoin, f)
	assert.Empty(t, q.Joins())
	assert.Zero(t, q.Aliases().Len())

	edge, err := q.Join(s.orders.EntityType, s.customers.EntityType)
	require.NoError(t, err)
	assert.Equal(t, "LEFT JOIN CUSTOMERS T1 ON T0.CUSTOMER_ID = T1.ID", edge.Clause)
}

func TestJoin_SelfJoinUnimplemented(t *testing.T) {
	s := newShop(t)
	q := New(s.cat)

	_, err := q.Join(s.orders.EntityType, s.orders.EntityType)
	assert.True(t, IsUnimplemented(err))
}

func TestJoin_SecondOccurrenceUnimplemented(t *testing.T) {
	s := newShop(t)
	q := New(s.cat)
	require.NoError(t, q.Select(s.customers, sel("Id"), []queryir.ExpandPath{{"Orders"}}, 0, 0))

	// back to the root table
	_, err := q.Join(s.orders.EntityType, s.customers.EntityType)
	assert.True(t, IsUnimplemented(err))

	// Orders again, this time from its lines
	_, err = q.Join(s.orderLines.EntityType, s.orders.EntityType)
	assert.True(t, IsUnimplemented(err))
	assert.Len(t, q.Joins(), 1)
}

func TestJoin_NilType(t *testing.T) {
	s := newShop(t)
	_, err := New(s.cat).Join(nil, s.orders.EntityType)
	assert.True(t, IsIllegalUsage(err))
}

func TestJoinPath(t *testing.T) {
	s := newShop(t)
	q := New(s.cat)

	orders, err := s.cat.Navigation(s.customers, "Orders")
	require.NoError(t, err)
	lines, err := s.cat.Navigation(s.orders, "Lines")
	require.NoError(t, err)

	require.NoError(t, q.JoinPath(s.customers, s.orderLines, []ir.NavigationSegment{orders, lines}))

	joins := q.Joins()
	require.Len(t, joins, 2)
	assert.Equal(t, "LEFT JOIN ORDERS T1 ON T1.CUSTOMER_ID = T0.ID", joins[0].Clause)
	assert.Equal(t, "LEFT JOIN ORDER_LINES T2 ON T2.ORDER_ID = T1.ID", joins[1].Clause)
}

func TestJoinPath_WrongTarget(t *testing.T) {
	s := newShop(t)
	q := New(s.cat)

	orders, err := s.cat.Navigation(s.customers, "Orders")
	require.NoError(t, err)

	err = q.JoinPath(s.customers, s.orderLines, []ir.NavigationSegment{orders})
	assert.True(t, IsIllegalUsage(err))
}

func TestJoin_RenderedInsertionOrder(t *testing.T) {
	s := newShop(t)
	q := New(s.cat)
	require.NoError(t, q.Select(s.orderLines, sel("Id"), nil, 0, 0))

	_, err := q.Join(s.orderLines.EntityType, s.orders.EntityType)
	require.NoError(t, err)
	_, err = q.Join(s.orders.EntityType, s.customers.EntityType)
	require.NoError(t, err)

	assert.Equal(t,
		"SELECT T0.ID AS ID_T0 FROM ORDER_LINES T0 "+
			"LEFT JOIN ORDERS T1 ON T0.ORDER_ID = T1.ID "+
			"LEFT JOIN CUSTOMERS T2 ON T1.CUSTOMER_ID = T2.ID",
		build(t, q, sqliteCtx))
}
