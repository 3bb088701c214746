package cli

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/roach88/edmsql/internal/querysql"
)

// CompileOptions holds flags for the compile command.
type CompileOptions struct {
	*RootOptions
	Output string // output file path
}

// CompilationResult is a compiled request.
type CompilationResult struct {
	SQL     string `json:"sql"`
	Args    []any  `json:"args"`
	Product string `json:"product"`
}

// NewCompileCommand creates the compile command.
func NewCompileCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &CompileOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "compile <request.yaml>",
		Short: "Compile a request to SQL",
		Long: `Compile an entity-set request to parameterized SQL without touching a
database. The dialect comes from --dialect, else from --driver.

Use "-" to read the request from stdin.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true, // Don't print usage on errors - we handle our own error output
		SilenceErrors: true, // Don't print errors - we handle our own error output
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCompile(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVarP(&opts.Output, "output", "o", "", "write the SQL to this file")

	return cmd
}

func runCompile(opts *CompileOptions, requestPath string, cmd *cobra.Command) error {
	formatter := newFormatter(opts.RootOptions, cmd.OutOrStdout(), cmd.ErrOrStderr())

	cfg, err := opts.LoadConfig()
	if err != nil {
		return formatter.Fail(ExitCommandError, ErrCodeConfig, err)
	}
	if err := cfg.RequireCatalog(); err != nil {
		return formatter.Fail(ExitCommandError, ErrCodeConfig, err)
	}
	dc, err := dialectContext(cfg)
	if err != nil {
		return formatter.Fail(ExitCommandError, ErrCodeConfig, err)
	}

	cat, err := LoadCatalog(cfg.Catalog)
	if err != nil {
		return formatter.Fail(ExitCommandError, compileErrorCode(err), err)
	}
	formatter.VerboseLog("Loaded catalog %s (%d entity sets)", cfg.Catalog, len(cat.EntitySets()))

	req, err := LoadRequest(requestPath, cmd.InOrStdin())
	if err != nil {
		return formatter.Fail(ExitCommandError, compileErrorCode(err), err)
	}

	stmt, err := querysql.Compile(cat, req, dc)
	if err != nil {
		return formatter.Fail(ExitCommandError, compileErrorCode(err), err)
	}
	formatter.VerboseLog("Compiled %s for %s", req.EntitySet, dc.Product)

	if opts.Output != "" {
		if err := os.WriteFile(opts.Output, []byte(stmt.SQL+"\n"), 0o644); err != nil {
			return formatter.Fail(ExitCommandError, ErrCodeWriteFailed, fmt.Errorf("writing output file: %w", err))
		}
	}

	result := CompilationResult{
		SQL:     stmt.SQL,
		Args:    stmt.Args,
		Product: dc.Product.String(),
	}
	if result.Args == nil {
		result.Args = []any{}
	}
	return outputCompileSuccess(formatter, result, opts.Output)
}

// outputCompileSuccess prints the SQL followed by its arguments.
func outputCompileSuccess(formatter *OutputFormatter, result CompilationResult, outputFile string) error {
	if formatter.Format == "json" {
		return formatter.Success(result)
	}

	fmt.Fprintln(formatter.Writer, result.SQL)
	args, err := json.Marshal(result.Args)
	if err != nil {
		return err
	}
	fmt.Fprintf(formatter.Writer, "-- args: %s\n", args)
	if outputFile != "" {
		fmt.Fprintf(formatter.Writer, "Wrote SQL to %s\n", outputFile)
	}
	return nil
}
