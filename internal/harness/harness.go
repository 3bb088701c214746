package harness

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/roach88/edmsql/internal/binding"
	"github.com/roach88/edmsql/internal/dialect"
	"github.com/roach88/edmsql/internal/querysql"
	"github.com/roach88/edmsql/internal/store"
	"github.com/roach88/edmsql/internal/testutil"
)

// queryID is the id every executed scenario query is logged with.
const queryID = "harness-query"

// Harness is the scenario execution engine.
type Harness struct {
	catalog *binding.Catalog
	ids     *testutil.FixedIDGenerator
	logger  *slog.Logger
}

// Run executes a scenario and returns the result.
//
// Execution flow:
//  1. Load the binding catalog
//  2. Compile the request for every dialect and check expect
//  3. Run the request on a fresh in-memory SQLite database, if requested
//
// The returned error is reserved for infrastructure failures (catalog or
// database); scenario mismatches are reported through Result.
func Run(scenario *Scenario) (*Result, error) {
	cat, err := binding.Load(scenario.Catalog)
	if err != nil {
		return nil, fmt.Errorf("failed to load catalog: %w", err)
	}

	h := &Harness{
		catalog: cat,
		ids:     testutil.NewFixedIDGenerator(queryID),
		logger:  slog.New(slog.NewTextHandler(io.Discard, nil)), // Suppress logs in tests
	}

	result := NewResult()
	for _, name := range scenario.Dialects {
		h.compile(scenario, dialect.ParseProduct(name), result)
	}

	if scenario.Execute != nil && result.Pass {
		if err := h.execute(context.Background(), scenario, result); err != nil {
			return nil, err
		}
	}

	return result, nil
}

// compile compiles the scenario request for one product and checks the
// outcome against expect.
func (h *Harness) compile(scenario *Scenario, product dialect.Product, result *Result) {
	dc := dialect.Context{Product: product, CaseSensitive: scenario.CaseSensitive}
	stmt, err := querysql.Compile(h.catalog, scenario.Request, dc, querysql.WithLogger(h.logger))

	var expectErr string
	var expectArgs []any
	if scenario.Expect != nil {
		expectErr = scenario.Expect.Error
		expectArgs = scenario.Expect.Args
	}

	if err != nil {
		got := errorLabel(err)
		result.AddStatement(Statement{Product: product.String(), Error: got})
		switch {
		case expectErr == "":
			result.AddError(fmt.Sprintf("%s: unexpected error: %v", product, err))
		case got != expectErr:
			result.AddError(fmt.Sprintf("%s: error = %s, expected %s", product, got, expectErr))
		}
		return
	}

	result.AddStatement(Statement{Product: product.String(), SQL: stmt.SQL, Args: stmt.Args})
	if expectErr != "" {
		result.AddError(fmt.Sprintf("%s: expected %s, compiled %q", product, expectErr, stmt.SQL))
		return
	}
	if expectArgs != nil && !sameValues(stmt.Args, expectArgs) {
		result.AddError(fmt.Sprintf("%s: args = %v, expected %v", product, stmt.Args, expectArgs))
	}
}

// execute runs the request on a seeded SQLite shop database.
func (h *Harness) execute(ctx context.Context, scenario *Scenario, result *Result) error {
	st, err := store.Open("sqlite3", ":memory:", h.catalog,
		store.WithCaseSensitive(scenario.CaseSensitive),
		store.WithIDGenerator(h.ids),
		store.WithLogger(h.logger))
	if err != nil {
		return fmt.Errorf("failed to create in-memory store: %w", err)
	}
	defer st.Close()

	if err := testutil.SeedShop(st.DB(), scenario.Execute.Seed); err != nil {
		return err
	}

	if scenario.Request.Count {
		n, err := st.Count(ctx, scenario.Request)
		if err != nil {
			result.AddError(fmt.Sprintf("execute: %v", err))
			return nil
		}
		result.Count = &n
		if want := *scenario.Execute.Count; n != want {
			result.AddError(fmt.Sprintf("execute: count = %d, expected %d", n, want))
		}
		return nil
	}

	res, err := st.Fetch(ctx, scenario.Request)
	if err != nil {
		result.AddError(fmt.Sprintf("execute: %v", err))
		return nil
	}

	// The root key is always the first projected column.
	root := res.Columns[0]
	keys := make([]any, 0, len(res.Rows))
	for _, row := range res.Rows {
		keys = append(keys, row[root.Alias][root.Property.Name])
	}
	result.Keys = keys
	if !sameValues(keys, scenario.Execute.Keys) {
		result.AddError(fmt.Sprintf("execute: keys = %v, expected %v", keys, scenario.Execute.Keys))
	}
	return nil
}

// errorLabel renders a compile error as CODE(feature).
func errorLabel(err error) string {
	var ce *querysql.CompileError
	if errors.As(err, &ce) {
		return fmt.Sprintf("%s(%s)", ce.Code, ce.Feature)
	}
	return err.Error()
}

// sameValues compares two value lists by their printed form, so YAML
// ints match driver int64s.
func sameValues(got, want []any) bool {
	if len(got) != len(want) {
		return false
	}
	for i := range got {
		if fmt.Sprint(got[i]) != fmt.Sprint(want[i]) {
			return false
		}
	}
	return true
}

// render formats the statements of a result for golden comparison.
func render(result *Result) string {
	var b strings.Builder
	for i, s := range result.Statements {
		if i > 0 {
			b.WriteByte('\n')
		}
		fmt.Fprintf(&b, "-- %s\n", s.Product)
		if s.Error != "" {
			fmt.Fprintf(&b, "error: %s\n", s.Error)
			continue
		}
		b.WriteString(s.SQL)
		b.WriteByte('\n')
		if len(s.Args) > 0 {
			fmt.Fprintf(&b, "-- args: %v\n", s.Args)
		}
	}
	return b.String()
}
