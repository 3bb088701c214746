package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/edmsql/internal/queryir"
	"github.com/roach88/edmsql/internal/querysql"
)

// ValidationResult holds validation results.
type ValidationResult struct {
	Valid       bool     `json:"valid"`
	Errors      []string `json:"errors,omitempty"`
	Unsupported []string `json:"unsupported,omitempty"`
}

// NewValidateCommand creates the validate command.
func NewValidateCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "validate <request.yaml>",
		Short: "Validate a request without generating SQL",
		Long: `Validate an entity-set request.

Checks the request structure and reports features the compiler does not
implement. When a catalog is configured, property names, navigations and
literal conversions are resolved against it as well.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true, // Don't print usage on errors
		SilenceErrors: true, // Don't print errors - we handle our own error output
		RunE: func(cmd *cobra.Command, args []string) error {
			return runValidate(rootOpts, args[0], cmd)
		},
	}

	return cmd
}

func runValidate(opts *RootOptions, requestPath string, cmd *cobra.Command) error {
	formatter := newFormatter(opts, cmd.OutOrStdout(), cmd.ErrOrStderr())

	cfg, err := opts.LoadConfig()
	if err != nil {
		return formatter.Fail(ExitCommandError, ErrCodeConfig, err)
	}

	req, err := LoadRequest(requestPath, cmd.InOrStdin())
	if err != nil {
		return formatter.Fail(ExitCommandError, compileErrorCode(err), err)
	}

	vr := queryir.Validate(req)
	result := ValidationResult{Errors: vr.Errors, Unsupported: vr.Unsupported}

	// Resolving names needs the catalog; skip it when the request is
	// already known not to compile.
	if vr.OK() && cfg.Catalog != "" {
		cat, err := LoadCatalog(cfg.Catalog)
		if err != nil {
			return formatter.Fail(ExitCommandError, compileErrorCode(err), err)
		}
		formatter.VerboseLog("Resolving %s against %s", req.EntitySet, cfg.Catalog)
		if _, err := querysql.Prepare(cat, req, querysql.WithCaseSensitive(cfg.CaseSensitive)); err != nil {
			if querysql.IsUnimplemented(err) {
				result.Unsupported = append(result.Unsupported, err.Error())
			} else {
				result.Errors = append(result.Errors, err.Error())
			}
		}
	}

	result.Valid = len(result.Errors) == 0 && len(result.Unsupported) == 0
	if !result.Valid {
		return outputValidationErrors(formatter, result)
	}
	return outputValidateSuccess(formatter, req)
}

// outputValidateSuccess outputs successful validation.
func outputValidateSuccess(formatter *OutputFormatter, req *queryir.Request) error {
	if formatter.Format == "json" {
		return formatter.Success(ValidationResult{Valid: true})
	}
	fmt.Fprintf(formatter.Writer, "✓ Request for %s is valid\n", req.EntitySet)
	return nil
}

// outputValidationErrors outputs the findings and returns exit code 1.
func outputValidationErrors(formatter *OutputFormatter, result ValidationResult) error {
	code := ErrCodeInvalidRequest
	if len(result.Errors) == 0 {
		code = ErrCodeUnsupported
	}

	if formatter.Format == "json" {
		if err := formatter.Error(code, "request is not valid", result); err != nil {
			return err
		}
	} else {
		fmt.Fprintf(formatter.Writer, "✗ Request is not valid\n\n")
		for _, e := range result.Errors {
			fmt.Fprintf(formatter.Writer, "  [%s] %s\n", ErrCodeInvalidRequest, e)
		}
		for _, u := range result.Unsupported {
			fmt.Fprintf(formatter.Writer, "  [%s] unsupported: %s\n", ErrCodeUnsupported, u)
		}
	}

	return NewExitError(ExitFailure, fmt.Sprintf("%d error(s), %d unsupported feature(s)",
		len(result.Errors), len(result.Unsupported)))
}
