package queryir

import (
	"fmt"
	"strings"
)

// ValidationResult reports structural problems of a request and the
// features it uses that the SQL compiler does not implement.
type ValidationResult struct {
	// Errors are structural defects; a request with errors cannot be
	// compiled at all.
	Errors []string

	// Unsupported lists features the compiler rejects with an
	// unimplemented error (wildcard select, navigation select, ordering by
	// an expression). The request is well formed but will not compile.
	Unsupported []string
}

// OK reports whether the request is well formed and uses only supported
// features.
func (r ValidationResult) OK() bool {
	return len(r.Errors) == 0 && len(r.Unsupported) == 0
}

// Validate checks a request without consulting any metadata.
//
// Property names are not resolved here; that needs the entity model and
// happens during compilation.
//
// Validate is a pure function with no side effects.
func Validate(req *Request) ValidationResult {
	v := &validator{}
	if req == nil {
		v.addError("nil request")
		return v.result()
	}

	if strings.TrimSpace(req.EntitySet) == "" {
		v.addError("entity_set is required")
	}
	if req.Skip < 0 {
		v.addError("skip must be non-negative, got %d", req.Skip)
	}
	if req.Top < 0 {
		v.addError("top must be non-negative, got %d", req.Top)
	}

	for i, item := range req.Select {
		switch {
		case item.Star:
			v.addUnsupported("select[%d]: wildcard select", i)
		case len(item.Path) == 0 || hasEmptySegment(item.Path):
			v.addError("select[%d]: empty property path", i)
		case item.IsNavigation():
			v.addUnsupported("select[%d]: navigation path %s", i, strings.Join(item.Path, "/"))
		}
	}

	for i, p := range req.Expand {
		if len(p) == 0 || hasEmptySegment(p) {
			v.addError("expand[%d]: empty navigation path", i)
		}
	}

	if req.Filter != nil {
		v.validateExpr("filter", req.Filter)
	}

	for i, term := range req.OrderBy {
		where := fmt.Sprintf("orderby[%d]", i)
		if term.Expr == nil {
			v.addError("%s: missing expression", where)
			continue
		}
		if _, ok := term.Expr.(Member); !ok {
			v.addUnsupported("%s: ordering by %T", where, term.Expr)
		}
		v.validateExpr(where, term.Expr)
	}

	if req.Leading != nil {
		if strings.TrimSpace(req.Leading.Property) == "" {
			v.addError("leading.property is required")
		}
		if req.Count {
			v.addError("leading keys cannot be combined with count")
		}
	}

	return v.result()
}

// validator accumulates findings during traversal.
type validator struct {
	errors      []string
	unsupported []string
}

func (v *validator) addError(format string, args ...any) {
	v.errors = append(v.errors, fmt.Sprintf(format, args...))
}

func (v *validator) addUnsupported(format string, args ...any) {
	v.unsupported = append(v.unsupported, fmt.Sprintf(format, args...))
}

func (v *validator) result() ValidationResult {
	return ValidationResult{Errors: v.errors, Unsupported: v.unsupported}
}

// validateExpr recursively checks an expression node.
func (v *validator) validateExpr(where string, e Expression) {
	switch expr := e.(type) {
	case nil:
		v.addError("%s: missing operand", where)
	case Member:
		if len(expr.Path) == 0 || hasEmptySegment(expr.Path) {
			v.addError("%s: empty member path", where)
		}
	case Literal:
		if expr.Value == nil {
			v.addError("%s: literal without value", where)
		}
	case Binary:
		if !expr.Op.IsLogical() && !expr.Op.IsComparison() && !expr.Op.IsArithmetic() {
			v.addError("%s: unknown operator %q", where, expr.Op)
		}
		v.validateExpr(where, expr.Left)
		v.validateExpr(where, expr.Right)
	case Unary:
		if expr.Op != OpNot && expr.Op != OpMinus {
			v.addError("%s: unknown unary operator %q", where, expr.Op)
		}
		v.validateExpr(where, expr.Operand)
	case Method:
		if expr.Name == "" {
			v.addError("%s: method without name", where)
		}
		if !IsSupportedMethod(expr.Name) {
			v.addUnsupported("%s: method %s", where, expr.Name)
		}
		for _, a := range expr.Args {
			v.validateExpr(where, a)
		}
	default:
		v.addError("%s: unknown expression type %T", where, e)
	}
}

func hasEmptySegment(path []string) bool {
	for _, s := range path {
		if s == "" {
			return true
		}
	}
	return false
}

// Methods the SQL compiler can translate, with their arity.
var supportedMethods = map[string]int{
	"contains":   2,
	"startswith": 2,
	"endswith":   2,
	"tolower":    1,
	"toupper":    1,
}

// IsSupportedMethod reports whether the compiler translates name.
func IsSupportedMethod(name string) bool {
	_, ok := supportedMethods[name]
	return ok
}

// MethodArity returns the argument count of a supported method.
func MethodArity(name string) (int, bool) {
	n, ok := supportedMethods[name]
	return n, ok
}
