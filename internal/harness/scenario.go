package harness

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"

	"gopkg.in/yaml.v3"

	"github.com/roach88/edmsql/internal/dialect"
	"github.com/roach88/edmsql/internal/queryir"
)

// Scenario defines a compile scenario: one request compiled for several
// dialects, optionally executed against the seeded shop database.
type Scenario struct {
	// Name uniquely identifies this scenario and names its golden file.
	Name string `yaml:"name"`

	// Description explains what this scenario validates.
	Description string `yaml:"description"`

	// Catalog is the binding catalog path, relative to the scenario file.
	Catalog string `yaml:"catalog"`

	// Dialects lists the products to compile for, by name.
	Dialects []string `yaml:"dialects"`

	// CaseSensitive quotes identifiers in every dialect.
	CaseSensitive bool `yaml:"case_sensitive,omitempty"`

	// Request is the query under test.
	Request *queryir.Request `yaml:"request"`

	// Expect holds checks applied to every dialect's compile outcome.
	Expect *ExpectClause `yaml:"expect,omitempty"`

	// Execute runs the request against an in-memory SQLite database.
	Execute *ExecuteClause `yaml:"execute,omitempty"`
}

// ExpectClause specifies the expected compile outcome.
type ExpectClause struct {
	// Error is the expected error as CODE(feature). When set, every
	// dialect must fail with it.
	Error string `yaml:"error,omitempty"`

	// Args are the expected bound arguments, compared by their printed
	// form.
	Args []any `yaml:"args,omitempty"`
}

// ExecuteClause runs the request on SQLite and checks what comes back.
type ExecuteClause struct {
	// Seed is the number of orders inserted into the shop database.
	Seed int `yaml:"seed"`

	// Keys are the expected root key values in result order.
	Keys []any `yaml:"keys,omitempty"`

	// Count is the expected row count of a count request.
	Count *int64 `yaml:"count,omitempty"`
}

var expectedErrorPattern = regexp.MustCompile(`^(UNIMPLEMENTED|BINDING|ILLEGAL_USAGE)\([a-z_]+\)$`)

// LoadScenario reads and parses a scenario YAML file.
// Returns an error if the file doesn't exist, is malformed,
// contains unknown fields (typos), or is missing required fields.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}

	// Parse YAML with strict field validation (catches typos like "dialect:" vs "dialects:")
	var scenario Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&scenario); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	// Resolve the catalog path relative to the scenario BEFORE validation
	if scenario.Catalog != "" && !filepath.IsAbs(scenario.Catalog) {
		scenario.Catalog = filepath.Join(filepath.Dir(path), scenario.Catalog)
	}

	if err := validateScenario(&scenario); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}

	return &scenario, nil
}

// LoadScenarios loads every *.yaml scenario in dir, sorted by file name.
func LoadScenarios(dir string) ([]*Scenario, error) {
	paths, err := filepath.Glob(filepath.Join(dir, "*.yaml"))
	if err != nil {
		return nil, err
	}
	sort.Strings(paths)

	scenarios := make([]*Scenario, 0, len(paths))
	seen := make(map[string]string, len(paths))
	for _, p := range paths {
		s, err := LoadScenario(p)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", filepath.Base(p), err)
		}
		if prev, ok := seen[s.Name]; ok {
			return nil, fmt.Errorf("%s: scenario name %q already used by %s", filepath.Base(p), s.Name, prev)
		}
		seen[s.Name] = filepath.Base(p)
		scenarios = append(scenarios, s)
	}
	return scenarios, nil
}

// validateScenario checks that required fields are present and valid.
func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}

	if s.Description == "" {
		return fmt.Errorf("description is required")
	}

	if s.Catalog == "" {
		return fmt.Errorf("catalog is required")
	}
	if _, err := os.Stat(s.Catalog); os.IsNotExist(err) {
		return fmt.Errorf("catalog file not found: %s", s.Catalog)
	}

	if len(s.Dialects) == 0 {
		return fmt.Errorf("dialects list is required and must be non-empty")
	}
	for i, name := range s.Dialects {
		if dialect.ParseProduct(name) == dialect.Unknown {
			return fmt.Errorf("dialects[%d]: unknown dialect %q", i, name)
		}
	}

	if s.Request == nil {
		return fmt.Errorf("request is required")
	}

	if s.Expect != nil && s.Expect.Error != "" {
		if !expectedErrorPattern.MatchString(s.Expect.Error) {
			return fmt.Errorf("expect.error: want CODE(feature), got %q", s.Expect.Error)
		}
		if s.Expect.Args != nil {
			return fmt.Errorf("expect.error and expect.args cannot be combined")
		}
		if s.Execute != nil {
			return fmt.Errorf("execute cannot be combined with expect.error")
		}
	}

	if s.Execute != nil {
		if err := validateExecute(s.Execute, s.Request.Count); err != nil {
			return err
		}
	}

	return nil
}

func validateExecute(e *ExecuteClause, count bool) error {
	if e.Seed < 1 {
		return fmt.Errorf("execute.seed must be positive, got %d", e.Seed)
	}
	switch {
	case count && e.Count == nil:
		return fmt.Errorf("execute.count is required for a count request")
	case count && e.Keys != nil:
		return fmt.Errorf("execute.keys cannot be checked on a count request")
	case !count && e.Keys == nil:
		return fmt.Errorf("execute.keys is required (use an empty list for no rows)")
	case !count && e.Count != nil:
		return fmt.Errorf("execute.count requires a count request")
	}
	return nil
}
