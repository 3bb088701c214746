package cli

import (
	"fmt"
	"io"
	"log/slog"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/roach88/edmsql/internal/config"
	"github.com/roach88/edmsql/internal/dialect"
)

// RootOptions holds global flags for all commands.
type RootOptions struct {
	Verbose    bool
	Format     string // "json" | "text"
	ConfigPath string

	viper *viper.Viper
}

// ValidFormats defines the allowed output formats.
var ValidFormats = []string{"text", "json"}

// Persistent flags that map onto config keys.
var configFlags = map[string]string{
	"driver":         "driver",
	"dsn":            "dsn",
	"dialect":        "dialect",
	"case-sensitive": "case_sensitive",
	"fetch-size":     "fetch_size",
	"catalog":        "catalog",
}

// NewRootCommand creates the root command for the edmsql CLI.
func NewRootCommand() *cobra.Command {
	opts := &RootOptions{viper: config.New()}

	cmd := &cobra.Command{
		Use:   "edmsql",
		Short: "edmsql - entity queries to SQL",
		Long: `Compile entity-set queries (select, filter, expand, order, paging)
against a table binding catalog into parameterized SQL for PostgreSQL,
MySQL, SQLite, HANA, SQL Server, Derby, H2 and Sybase, and run them.`,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if !isValidFormat(opts.Format) {
				return fmt.Errorf("invalid format %q: must be one of %v", opts.Format, ValidFormats)
			}
			configureLogging(cmd.ErrOrStderr(), opts.Verbose)
			return nil
		},
	}

	// Global flags
	flags := cmd.PersistentFlags()
	flags.BoolVarP(&opts.Verbose, "verbose", "v", false, "verbose output")
	flags.StringVar(&opts.Format, "format", "text", "output format (json|text)")
	flags.StringVar(&opts.ConfigPath, "config", "", "config file (default: edmsql.yaml in the working directory or a parent)")
	flags.String("driver", "", "database/sql driver: postgres, pgx, mysql, sqlite3, sqlite")
	flags.String("dsn", "", "data source name")
	flags.String("dialect", "", "SQL dialect, overrides the driver's product")
	flags.Bool("case-sensitive", false, "quote table and column names")
	flags.Int("fetch-size", 100, "rows per cursor jump when skipping client side")
	flags.String("catalog", "", "binding catalog: YAML file, CUE file or CUE package directory")

	for flag, key := range configFlags {
		_ = opts.viper.BindPFlag(key, flags.Lookup(flag))
	}

	cmd.AddCommand(NewCompileCommand(opts))
	cmd.AddCommand(NewValidateCommand(opts))
	cmd.AddCommand(NewRunCommand(opts))

	return cmd
}

// LoadConfig resolves flags, environment and config file.
func (o *RootOptions) LoadConfig() (*config.Config, error) {
	if o.viper == nil {
		o.viper = config.New()
	}
	cfg, path, err := config.Load(o.viper, o.ConfigPath)
	if err != nil {
		return nil, err
	}
	if path != "" {
		slog.Debug("config loaded", "path", path)
	}
	return cfg, nil
}

// dialectContext picks the dialect for compiling without a connection:
// the configured dialect, else the product of the configured driver.
func dialectContext(cfg *config.Config) (dialect.Context, error) {
	p, err := cfg.Product()
	if err != nil {
		return dialect.Context{}, err
	}
	if p == dialect.Unknown && cfg.Driver != "" {
		p = dialect.FromDriverName(cfg.Driver)
	}
	return dialect.Context{Product: p, CaseSensitive: cfg.CaseSensitive}, nil
}

// configureLogging installs a text handler on w, at debug level when
// verbose.
func configureLogging(w io.Writer, verbose bool) {
	logLevel := slog.LevelInfo
	if verbose {
		logLevel = slog.LevelDebug
	}
	handler := slog.NewTextHandler(w, &slog.HandlerOptions{
		Level: logLevel,
	})
	slog.SetDefault(slog.New(handler))
}

// isValidFormat checks if the format is one of the allowed values.
func isValidFormat(format string) bool {
	for _, f := range ValidFormats {
		if f == format {
			return true
		}
	}
	return false
}
