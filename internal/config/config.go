// Package config loads edmsql settings from a config file, the
// environment and a .env file.
//
// Precedence, highest first: bound command-line flags, EDMSQL_* environment
// variables (including those loaded from .env), the config file, defaults.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/roach88/edmsql/internal/dialect"
)

const (
	maxWalkDepth = 25
	envPrefix    = "EDMSQL"
)

// Config files looked up when no explicit path is given.
var configNames = []string{"edmsql.yaml", "edmsql.yml"}

// Config represents the edmsql configuration from edmsql.yaml.
type Config struct {
	// Driver is the database/sql driver name: postgres, pgx, mysql,
	// sqlite3 or sqlite.
	Driver string `mapstructure:"driver"`
	DSN    string `mapstructure:"dsn"`

	// Dialect overrides the product detected from the driver.
	Dialect string `mapstructure:"dialect"`

	CaseSensitive bool `mapstructure:"case_sensitive"`
	FetchSize     int  `mapstructure:"fetch_size"`

	// Catalog is the binding catalog: a YAML file, a CUE file or a CUE
	// package directory.
	Catalog string `mapstructure:"catalog"`
}

// New returns a viper instance with defaults and environment binding set
// up. Callers bind their flags to it before calling Load.
func New() *viper.Viper {
	v := viper.New()
	setDefaults(v)
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()
	return v
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("driver", "")
	v.SetDefault("dsn", "")
	v.SetDefault("dialect", "")
	v.SetDefault("case_sensitive", false)
	v.SetDefault("fetch_size", 100)
	v.SetDefault("catalog", "")
}

// Load reads .env from the working directory when present, then the
// config file, and unmarshals the result.
//
// Returns the loaded config, the path to the config file (empty if none found),
// and any error encountered.
func Load(v *viper.Viper, explicitConfigPath string) (*Config, string, error) {
	if err := loadDotEnv(".env"); err != nil {
		return nil, "", err
	}

	configPath, err := findConfigFile(explicitConfigPath)
	if err != nil {
		return nil, "", err
	}

	if configPath != "" {
		v.SetConfigFile(configPath)
		if err := v.ReadInConfig(); err != nil {
			return nil, configPath, fmt.Errorf("reading config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, configPath, fmt.Errorf("unmarshaling config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, configPath, err
	}
	return &cfg, configPath, nil
}

// loadDotEnv loads path into the process environment without overriding
// variables that are already set. A missing file is not an error.
func loadDotEnv(path string) error {
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err := godotenv.Load(path); err != nil {
		return fmt.Errorf("loading %s: %w", path, err)
	}
	return nil
}

// findConfigFile finds the config file to use.
// If explicitPath is provided, it validates the file exists.
// Otherwise, it walks up from cwd looking for edmsql.yaml or edmsql.yml,
// stopping at a .git directory or after maxWalkDepth levels.
func findConfigFile(explicitPath string) (string, error) {
	if explicitPath != "" {
		if _, err := os.Stat(explicitPath); err != nil {
			return "", fmt.Errorf("config file not found: %s", explicitPath)
		}
		return explicitPath, nil
	}

	cwd, err := os.Getwd()
	if err != nil {
		return "", fmt.Errorf("getting cwd: %w", err)
	}

	dir := cwd
	for i := 0; i < maxWalkDepth; i++ {
		for _, name := range configNames {
			path := filepath.Join(dir, name)
			if _, err := os.Stat(path); err == nil {
				return path, nil
			}
		}

		if _, err := os.Stat(filepath.Join(dir, ".git")); err == nil {
			break
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}

	return "", nil
}

// Validate checks field values that viper cannot.
func (c *Config) Validate() error {
	if c.FetchSize < 1 {
		return fmt.Errorf("fetch_size must be positive, got %d", c.FetchSize)
	}
	if c.Dialect != "" {
		if _, err := c.Product(); err != nil {
			return err
		}
	}
	return nil
}

// Product returns the configured dialect override, or dialect.Unknown
// when none is set.
func (c *Config) Product() (dialect.Product, error) {
	if c.Dialect == "" {
		return dialect.Unknown, nil
	}
	p := dialect.ParseProduct(c.Dialect)
	if p == dialect.Unknown {
		return dialect.Unknown, fmt.Errorf("unknown dialect %q (known: %s)", c.Dialect, knownDialects())
	}
	return p, nil
}

func knownDialects() string {
	products := dialect.Products()
	names := make([]string, len(products))
	for i, p := range products {
		names[i] = p.String()
	}
	return strings.Join(names, ", ")
}

// RequireDatabase reports an error when no database is configured.
func (c *Config) RequireDatabase() error {
	if c.Driver == "" {
		return errors.New("driver is required (flag --driver, EDMSQL_DRIVER or config file)")
	}
	if c.DSN == "" {
		return errors.New("dsn is required (flag --dsn, EDMSQL_DSN or config file)")
	}
	return nil
}

// RequireCatalog reports an error when no catalog is configured.
func (c *Config) RequireCatalog() error {
	if c.Catalog == "" {
		return errors.New("catalog is required (flag --catalog, EDMSQL_CATALOG or config file)")
	}
	return nil
}
