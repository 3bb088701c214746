package querysql

import (
	"errors"
	"fmt"
)

// ErrorCode categorizes compile errors.
type ErrorCode string

const (
	// ErrCodeUnimplemented marks a query feature the compiler does not
	// translate (wildcard select, ordering by an expression, ...).
	ErrCodeUnimplemented ErrorCode = "UNIMPLEMENTED"

	// ErrCodeBinding marks metadata that does not cover the query: an
	// unmapped property, a missing join column, an unknown entity set.
	ErrCodeBinding ErrorCode = "BINDING"

	// ErrCodeIllegalUsage marks a call sequence or parameter the compiler
	// refuses: BuildSelect before Select, an unsupported conversion.
	ErrCodeIllegalUsage ErrorCode = "ILLEGAL_USAGE"
)

// Feature names the construct a CompileError is about.
type Feature string

const (
	FeatureStarSelect         Feature = "star_select"
	FeatureNavigationSelect   Feature = "navigation_select"
	FeatureComplexProperty    Feature = "complex_property"
	FeatureOrderByExpression  Feature = "order_by_expression"
	FeatureFilterMethod       Feature = "filter_method"
	FeatureFilterExpression   Feature = "filter_expression"
	FeatureParamConversion    Feature = "param_conversion"
	FeatureJoin               Feature = "join"
	FeatureProperty           Feature = "property"
	FeatureEntitySet          Feature = "entity_set"
	FeatureSelect             Feature = "select"
	FeatureBuild              Feature = "build"
	FeaturePaging             Feature = "paging"
	FeatureIdentifierQuoting  Feature = "identifier_quoting"
	FeatureNavigationProperty Feature = "navigation_property"
)

// CompileError is returned by every Query operation that rejects its input.
// None of these errors are transient; retrying the same call fails again.
type CompileError struct {
	Code    ErrorCode
	Feature Feature
	Message string

	// Err is the underlying cause, typically a *binding.MappingError.
	Err error
}

// Error implements the error interface.
func (e *CompileError) Error() string {
	msg := fmt.Sprintf("%s(%s): %s", e.Code, e.Feature, e.Message)
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

// Unwrap returns the underlying cause.
func (e *CompileError) Unwrap() error { return e.Err }

// IsUnimplemented reports whether err is an unimplemented-feature error.
func IsUnimplemented(err error) bool { return hasCode(err, ErrCodeUnimplemented) }

// IsBindingError reports whether err is a binding-metadata error.
func IsBindingError(err error) bool { return hasCode(err, ErrCodeBinding) }

// IsIllegalUsage reports whether err is an illegal-usage error.
func IsIllegalUsage(err error) bool { return hasCode(err, ErrCodeIllegalUsage) }

// FeatureOf returns the feature of a *CompileError in err's chain.
func FeatureOf(err error) (Feature, bool) {
	var ce *CompileError
	if errors.As(err, &ce) {
		return ce.Feature, true
	}
	return "", false
}

func hasCode(err error, code ErrorCode) bool {
	var ce *CompileError
	if errors.As(err, &ce) {
		return ce.Code == code
	}
	return false
}

func unimplemented(f Feature, format string, args ...any) *CompileError {
	return &CompileError{Code: ErrCodeUnimplemented, Feature: f, Message: fmt.Sprintf(format, args...)}
}

func illegalUsage(f Feature, format string, args ...any) *CompileError {
	return &CompileError{Code: ErrCodeIllegalUsage, Feature: f, Message: fmt.Sprintf(format, args...)}
}

func bindingError(f Feature, cause error, format string, args ...any) *CompileError {
	return &CompileError{Code: ErrCodeBinding, Feature: f, Message: fmt.Sprintf(format, args...), Err: cause}
}
