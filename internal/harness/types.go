package harness

// Statement is the outcome of compiling the scenario request for one
// dialect. Exactly one of SQL and Error is set.
type Statement struct {
	Product string `json:"product"`
	SQL     string `json:"sql,omitempty"`
	Args    []any  `json:"args,omitempty"`
	Error   string `json:"error,omitempty"`
}

// Result is the outcome of a scenario run.
type Result struct {
	// Pass indicates overall test success.
	// True if all expect clauses match.
	Pass bool `json:"pass"`

	// Statements holds one entry per scenario dialect, in scenario order.
	Statements []Statement `json:"statements"`

	// Keys are the root key values returned by the execute step, in
	// result order.
	Keys []any `json:"keys,omitempty"`

	// Count is set when the execute step ran a count request.
	Count *int64 `json:"count,omitempty"`

	// Errors contains validation error messages.
	// Empty if Pass is true.
	Errors []string `json:"errors,omitempty"`
}

// NewResult creates a new passing result.
// Used as the starting point for test execution.
func NewResult() *Result {
	return &Result{
		Pass:       true,
		Statements: []Statement{},
		Errors:     []string{},
	}
}

// AddError adds a validation error and marks the result as failed.
func (r *Result) AddError(err string) {
	r.Errors = append(r.Errors, err)
	r.Pass = false
}

// AddStatement records the compile outcome for one dialect.
func (r *Result) AddStatement(s Statement) {
	r.Statements = append(r.Statements, s)
}
