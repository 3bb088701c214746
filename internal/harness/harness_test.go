package harness

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/edmsql/internal/queryir"
	"github.com/roach88/edmsql/internal/querysql"
)

func shopScenario(t *testing.T, request string) *Scenario {
	t.Helper()
	req, err := queryir.ParseRequest([]byte(request))
	require.NoError(t, err)
	return &Scenario{
		Name:        "inline",
		Description: "inline scenario",
		Catalog:     "testdata/catalogs/shop.yaml",
		Dialects:    []string{"sqlite"},
		Request:     req,
	}
}

func TestRun_CompilesEveryDialect(t *testing.T) {
	s := shopScenario(t, "entity_set: Customers\nselect: [Name]\ntop: 2\n")
	s.Dialects = []string{"postgresql", "sqlserver", "h2"}

	result, err := Run(s)
	require.NoError(t, err)
	assert.True(t, result.Pass, "errors: %v", result.Errors)
	require.Len(t, result.Statements, 3)

	assert.Equal(t, Statement{Product: "postgresql", SQL: "SELECT T0.ID AS ID_T0, T0.NAME AS NAME_T0 FROM CUSTOMERS T0 LIMIT 2", Args: []any{}}, result.Statements[0])
	assert.Equal(t, "SELECT TOP 2 T0.ID AS ID_T0, T0.NAME AS NAME_T0 FROM CUSTOMERS T0", result.Statements[1].SQL)
	assert.Equal(t, "h2", result.Statements[2].Product)
}

func TestRun_ArgsMismatch(t *testing.T) {
	s := shopScenario(t, "entity_set: Orders\nfilter: {eq: [{member: Qty}, 3]}\n")
	s.Expect = &ExpectClause{Args: []any{4}}

	result, err := Run(s)
	require.NoError(t, err)
	assert.False(t, result.Pass)
	require.Len(t, result.Errors, 1)
	assert.Contains(t, result.Errors[0], "args = [3], expected [4]")
}

func TestRun_ArgsMatchAcrossIntegerTypes(t *testing.T) {
	s := shopScenario(t, "entity_set: Orders\nfilter: {eq: [{member: Qty}, 3]}\n")
	s.Expect = &ExpectClause{Args: []any{3}}

	result, err := Run(s)
	require.NoError(t, err)
	assert.True(t, result.Pass, "errors: %v", result.Errors)
}

func TestRun_UnexpectedError(t *testing.T) {
	s := shopScenario(t, "entity_set: Orders\nfilter: {eq: [{member: Colour}, red]}\n")

	result, err := Run(s)
	require.NoError(t, err)
	assert.False(t, result.Pass)
	assert.Equal(t, "BINDING(property)", result.Statements[0].Error)
	assert.Contains(t, result.Errors[0], "sqlite: unexpected error")
}

func TestRun_ExpectedErrorNotRaised(t *testing.T) {
	s := shopScenario(t, "entity_set: Orders\n")
	s.Expect = &ExpectClause{Error: "UNIMPLEMENTED(star_select)"}

	result, err := Run(s)
	require.NoError(t, err)
	assert.False(t, result.Pass)
	assert.Contains(t, result.Errors[0], "expected UNIMPLEMENTED(star_select), compiled")
}

func TestRun_WrongError(t *testing.T) {
	s := shopScenario(t, "entity_set: Orders\nselect: ['*']\n")
	s.Expect = &ExpectClause{Error: "BINDING(property)"}

	result, err := Run(s)
	require.NoError(t, err)
	assert.False(t, result.Pass)
	assert.Equal(t, []string{"sqlite: error = UNIMPLEMENTED(star_select), expected BINDING(property)"}, result.Errors)
}

func TestRun_ExecuteKeys(t *testing.T) {
	s := shopScenario(t, "entity_set: Orders\nselect: [Id]\nfilter: {eq: [{member: Customer/City}, Paris]}\norderby: [Id]\n")
	s.Execute = &ExecuteClause{Seed: 9, Keys: []any{2, 5, 8}}

	result, err := Run(s)
	require.NoError(t, err)
	assert.True(t, result.Pass, "errors: %v", result.Errors)
	assert.Equal(t, []any{int64(2), int64(5), int64(8)}, result.Keys)
}

func TestRun_ExecuteKeysMismatch(t *testing.T) {
	s := shopScenario(t, "entity_set: Orders\norderby: [Id]\ntop: 2\n")
	s.Execute = &ExecuteClause{Seed: 5, Keys: []any{2, 1}}

	result, err := Run(s)
	require.NoError(t, err)
	assert.False(t, result.Pass)
	assert.Equal(t, []string{"execute: keys = [1 2], expected [2 1]"}, result.Errors)
}

func TestRun_ExecuteCount(t *testing.T) {
	s := shopScenario(t, "entity_set: Orders\ncount: true\n")
	want := int64(6)
	s.Execute = &ExecuteClause{Seed: 5, Count: &want}

	result, err := Run(s)
	require.NoError(t, err)
	assert.False(t, result.Pass)
	require.NotNil(t, result.Count)
	assert.Equal(t, int64(5), *result.Count)
	assert.Equal(t, []string{"execute: count = 5, expected 6"}, result.Errors)
}

func TestRun_SkipsExecuteWhenCompileFails(t *testing.T) {
	s := shopScenario(t, "entity_set: Orders\nselect: ['*']\n")
	s.Execute = &ExecuteClause{Seed: 1, Keys: []any{}}

	result, err := Run(s)
	require.NoError(t, err)
	assert.False(t, result.Pass)
	assert.Nil(t, result.Keys)
}

func TestRun_MissingCatalog(t *testing.T) {
	s := shopScenario(t, "entity_set: Orders\n")
	s.Catalog = "testdata/catalogs/none.yaml"

	_, err := Run(s)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to load catalog")
}

func TestErrorLabel(t *testing.T) {
	ce := &querysql.CompileError{Code: querysql.ErrCodeIllegalUsage, Feature: querysql.FeaturePaging, Message: "negative"}
	assert.Equal(t, "ILLEGAL_USAGE(paging)", errorLabel(ce))
	assert.Equal(t, "boom", errorLabel(errors.New("boom")))
}

func TestSameValues(t *testing.T) {
	assert.True(t, sameValues([]any{int64(1), "C1"}, []any{1, "C1"}))
	assert.True(t, sameValues([]any{}, []any{}))
	assert.False(t, sameValues([]any{int64(1)}, []any{1, 2}))
	assert.False(t, sameValues([]any{"1.0"}, []any{1}))
}

func TestResult_AddError(t *testing.T) {
	r := NewResult()
	assert.True(t, r.Pass)
	r.AddError("boom")
	assert.False(t, r.Pass)
	assert.Equal(t, []string{"boom"}, r.Errors)
}
