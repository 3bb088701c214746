package binding

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_CUEFile(t *testing.T) {
	c, err := Load("testdata/shop.cue")
	require.NoError(t, err)

	orders, err := c.EntitySet("Orders")
	require.NoError(t, err)
	info, err := c.ColumnInfo(orders.EntityType, "CustomerId")
	require.NoError(t, err)
	assert.Equal(t, "CUSTOMER_ID", info.Column)

	customers, _ := c.EntitySet("Customers")
	assert.True(t, c.HasJoinColumn(orders.EntityType, customers.EntityType))
}

func TestLoad_CUEDirectory(t *testing.T) {
	c, err := Load("testdata/cuedir")
	require.NoError(t, err)
	assert.Len(t, c.EntitySets(), 2)
}

func TestLoad_CUERejectsUnknownField(t *testing.T) {
	_, err := Load("testdata/bad_field.cue")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "colour")
}

func TestLoad_Missing(t *testing.T) {
	_, err := Load("testdata/nope.yaml")
	assert.Error(t, err)
}

func TestParseYAML_UnknownField(t *testing.T) {
	_, err := ParseYAML([]byte("entities: []\nschema: x\n"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "schema")
}

func TestParseYAML_Empty(t *testing.T) {
	_, err := ParseYAML(nil)
	assert.Error(t, err)
}

func TestParseCUE_CompileError(t *testing.T) {
	_, err := ParseCUE([]byte("catalog: {"), "broken.cue")
	assert.Error(t, err)
}
