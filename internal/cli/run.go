package cli

import (
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/roach88/edmsql/internal/config"
	"github.com/roach88/edmsql/internal/dialect"
	"github.com/roach88/edmsql/internal/store"
)

// RunOptions holds flags for the run command.
type RunOptions struct {
	*RootOptions

	// IDGenerator allows overriding the query id generator (for testing).
	// If nil, the store's UUIDv7 generator is used.
	IDGenerator store.IDGenerator
}

// RunResult is the JSON payload of the run command.
type RunResult struct {
	QueryID string      `json:"query_id,omitempty"`
	SQL     string      `json:"sql,omitempty"`
	Args    []any       `json:"args,omitempty"`
	Columns []string    `json:"columns,omitempty"`
	Rows    []store.Row `json:"rows,omitempty"`
	Count   *int64      `json:"count,omitempty"`
}

// NewRunCommand creates the run command.
func NewRunCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &RunOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "run <request.yaml>",
		Short: "Compile a request and run it against a database",
		Long: `Compile an entity-set request for the configured database and print
the rows it returns. A request with count: true prints the row count.

Example:
  edmsql run --driver sqlite3 --dsn ./shop.db --catalog shop.yaml orders.yaml
  edmsql run --format json orders.yaml`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRequest(opts, args[0], cmd)
		},
	}

	return cmd
}

func runRequest(opts *RunOptions, requestPath string, cmd *cobra.Command) error {
	formatter := newFormatter(opts.RootOptions, cmd.OutOrStdout(), cmd.ErrOrStderr())

	cfg, err := opts.LoadConfig()
	if err != nil {
		return formatter.Fail(ExitCommandError, ErrCodeConfig, err)
	}
	if err := cfg.RequireDatabase(); err != nil {
		return formatter.Fail(ExitCommandError, ErrCodeConfig, err)
	}
	if err := cfg.RequireCatalog(); err != nil {
		return formatter.Fail(ExitCommandError, ErrCodeConfig, err)
	}

	cat, err := LoadCatalog(cfg.Catalog)
	if err != nil {
		return formatter.Fail(ExitCommandError, compileErrorCode(err), err)
	}
	req, err := LoadRequest(requestPath, cmd.InOrStdin())
	if err != nil {
		return formatter.Fail(ExitCommandError, compileErrorCode(err), err)
	}

	ctx, cancel := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	slog.Debug("opening database", "driver", cfg.Driver)
	st, err := store.Open(cfg.Driver, cfg.DSN, cat, storeOptions(opts, cfg)...)
	if err != nil {
		return formatter.Fail(ExitFailure, ErrCodeDatabase, err)
	}
	defer st.Close()
	formatter.VerboseLog("Connected to %s", st.Dialect().Product)

	if req.Count {
		n, err := st.Count(ctx, req)
		if err != nil {
			return failExecution(formatter, err)
		}
		return outputCount(formatter, n)
	}

	result, err := st.Fetch(ctx, req)
	if err != nil {
		return failExecution(formatter, err)
	}
	return outputRows(formatter, result)
}

func storeOptions(opts *RunOptions, cfg *config.Config) []store.Option {
	storeOpts := []store.Option{
		store.WithCaseSensitive(cfg.CaseSensitive),
		store.WithFetchSize(cfg.FetchSize),
		store.WithLogger(slog.Default()),
	}
	if p, err := cfg.Product(); err == nil && p != dialect.Unknown {
		storeOpts = append(storeOpts, store.WithProduct(p))
	}
	if opts.IDGenerator != nil {
		storeOpts = append(storeOpts, store.WithIDGenerator(opts.IDGenerator))
	}
	return storeOpts
}

// failExecution reports a compile error as a command error and anything
// else as a failed execution.
func failExecution(formatter *OutputFormatter, err error) error {
	code := compileErrorCode(err)
	if code != ErrCodeGeneric {
		return formatter.Fail(ExitCommandError, code, err)
	}
	return formatter.Fail(ExitFailure, ErrCodeDatabase, err)
}

func outputCount(formatter *OutputFormatter, n int64) error {
	if formatter.Format == "json" {
		return formatter.Success(RunResult{Count: &n})
	}
	fmt.Fprintln(formatter.Writer, n)
	return nil
}

func outputRows(formatter *OutputFormatter, result *store.Result) error {
	headers := make([]string, len(result.Columns))
	for i, col := range result.Columns {
		headers[i] = col.Alias + "." + col.Property.Name
	}

	if formatter.Format == "json" {
		return formatter.Success(RunResult{
			QueryID: result.QueryID,
			SQL:     result.SQL,
			Args:    result.Args,
			Columns: headers,
			Rows:    result.Rows,
		})
	}

	w := formatter.Writer
	fmt.Fprintln(w, strings.Join(headers, "\t"))
	cells := make([]string, len(result.Columns))
	for _, row := range result.Rows {
		for i, col := range result.Columns {
			cells[i] = formatCell(row[col.Alias][col.Property.Name])
		}
		fmt.Fprintln(w, strings.Join(cells, "\t"))
	}
	fmt.Fprintf(w, "(%d rows)\n", len(result.Rows))
	return nil
}

func formatCell(v any) string {
	if v == nil {
		return "NULL"
	}
	return fmt.Sprint(v)
}
