package cli

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const pagedOrdersSQL = "SELECT T0.ID AS ID_T0, T0.ORDER_DATE AS ORDER_DATE_T0, T0.TOTAL AS TOTAL_T0 FROM ORDERS T0 " +
	"WHERE T0.CUSTOMER_ID = $1 ORDER BY T0.ORDER_DATE desc LIMIT 10 OFFSET 20"

func TestCompile_TextOutput(t *testing.T) {
	e := newEnv(t)

	out, _, err := execute(t, "compile", "--catalog", e.catalog(), "--dialect", "postgresql", e.path("orders_paged.yaml"))
	require.NoError(t, err)
	assert.Equal(t, pagedOrdersSQL+"\n-- args: [\"C1\"]\n", out)
}

func TestCompile_JSONOutput(t *testing.T) {
	e := newEnv(t)

	out, _, err := execute(t, "compile", "--format", "json", "--catalog", e.catalog(), "--driver", "pgx", e.path("orders_paged.yaml"))
	require.NoError(t, err)

	var resp struct {
		Status string            `json:"status"`
		Data   CompilationResult `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, "ok", resp.Status)
	assert.Equal(t, pagedOrdersSQL, resp.Data.SQL)
	assert.Equal(t, []any{"C1"}, resp.Data.Args)
	assert.Equal(t, "postgresql", resp.Data.Product)
}

func TestCompile_DialectFromConfigFile(t *testing.T) {
	e := newEnv(t)
	e.writeFile(t, "edmsql.yaml", "dialect: sqlserver\ncatalog: "+e.catalog()+"\n")

	out, _, err := execute(t, "compile", e.path("orders_paged.yaml"))
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(out, "SELECT TOP 30 T0.ID AS ID_T0"), out)
	assert.Contains(t, out, "WHERE T0.CUSTOMER_ID = ? ORDER BY T0.ORDER_DATE desc\n")
}

func TestCompile_DialectFromEnvironment(t *testing.T) {
	e := newEnv(t)
	t.Setenv("EDMSQL_DIALECT", "derby")
	t.Setenv("EDMSQL_CATALOG", e.catalog())

	out, _, err := execute(t, "compile", e.path("orders_paged.yaml"))
	require.NoError(t, err)
	assert.Contains(t, out, "ORDER BY T0.ORDER_DATE desc OFFSET 20 ROWS FETCH NEXT 10 ROWS ONLY\n")
}

func TestCompile_FromStdin(t *testing.T) {
	e := newEnv(t)

	cmd := NewRootCommand()
	out := &strings.Builder{}
	cmd.SetOut(out)
	cmd.SetErr(&strings.Builder{})
	cmd.SetIn(strings.NewReader("entity_set: Customers\nselect: [Name]\n"))
	cmd.SetArgs([]string{"compile", "--catalog", e.catalog(), "--dialect", "sqlite", "-"})
	require.NoError(t, cmd.Execute())

	assert.Equal(t, "SELECT T0.ID AS ID_T0, T0.NAME AS NAME_T0 FROM CUSTOMERS T0\n-- args: []\n", out.String())
}

func TestCompile_OutputToFile(t *testing.T) {
	e := newEnv(t)
	outputFile := filepath.Join(e.dir, "orders.sql")

	out, _, err := execute(t, "compile", "--catalog", e.catalog(), "--dialect", "pg", "-o", outputFile, e.path("orders_paged.yaml"))
	require.NoError(t, err)
	assert.Contains(t, out, "Wrote SQL to "+outputFile)

	data, err := os.ReadFile(outputFile)
	require.NoError(t, err)
	assert.Equal(t, pagedOrdersSQL+"\n", string(data))
}

func TestCompile_Errors(t *testing.T) {
	tests := []struct {
		name     string
		args     func(e *cliEnv) []string
		wantCode string
	}{
		{
			name:     "no catalog",
			args:     func(e *cliEnv) []string { return []string{e.path("orders_paged.yaml")} },
			wantCode: ErrCodeConfig,
		},
		{
			name: "catalog not found",
			args: func(e *cliEnv) []string {
				return []string{"--catalog", filepath.Join(e.dir, "missing.yaml"), e.path("orders_paged.yaml")}
			},
			wantCode: ErrCodeNotFound,
		},
		{
			name:     "request not found",
			args:     func(e *cliEnv) []string { return []string{"--catalog", e.catalog(), filepath.Join(e.dir, "nope.yaml")} },
			wantCode: ErrCodeNotFound,
		},
		{
			name: "malformed request",
			args: func(e *cliEnv) []string {
				return []string{"--catalog", e.catalog(), e.writeFile(t, "bad.yaml", "entity_set: Orders\nlimit: 3\n")}
			},
			wantCode: ErrCodeInvalidRequest,
		},
		{
			name:     "unknown dialect",
			args:     func(e *cliEnv) []string { return []string{"--catalog", e.catalog(), "--dialect", "dbase", e.path("orders_paged.yaml")} },
			wantCode: ErrCodeConfig,
		},
		{
			name:     "unimplemented",
			args:     func(e *cliEnv) []string { return []string{"--catalog", e.catalog(), e.path("wildcard.yaml")} },
			wantCode: ErrCodeUnimplemented,
		},
		{
			name:     "binding",
			args:     func(e *cliEnv) []string { return []string{"--catalog", e.catalog(), e.path("unknown_property.yaml")} },
			wantCode: ErrCodeBinding,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := newEnv(t)
			args := append([]string{"compile", "--format", "json"}, tt.args(e)...)
			out, _, err := execute(t, args...)
			require.Error(t, err)
			assert.Equal(t, ExitCommandError, GetExitCode(err))

			var resp CLIResponse
			require.NoError(t, json.Unmarshal([]byte(out), &resp))
			assert.Equal(t, "error", resp.Status)
			require.NotNil(t, resp.Error)
			assert.Equal(t, tt.wantCode, resp.Error.Code, resp.Error.Message)
		})
	}
}
