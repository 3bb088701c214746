package ir

import (
	"fmt"
	"time"
)

// IRValue is a sealed interface representing literal values in filter trees.
// Only the types in this file implement it.
type IRValue interface {
	irValue() // Sealed - only these types implement it
}

// IRNull represents the null literal.
type IRNull struct{}

func (IRNull) irValue() {}

// IRString represents a string literal.
type IRString string

func (IRString) irValue() {}

// IRInt represents an integer literal. Always int64.
type IRInt int64

func (IRInt) irValue() {}

// IRFloat represents a floating point or decimal literal.
type IRFloat float64

func (IRFloat) irValue() {}

// IRBool represents a boolean literal.
type IRBool bool

func (IRBool) irValue() {}

// IRDate is a calendar date literal. Only the year, month and day are used.
type IRDate time.Time

func (IRDate) irValue() {}

// IRTimeOfDay is a time-of-day literal. Only the clock fields are used.
type IRTimeOfDay time.Time

func (IRTimeOfDay) irValue() {}

// IRTimestamp is a point-in-time literal.
type IRTimestamp time.Time

func (IRTimestamp) irValue() {}

// LiteralKind returns the EDM primitive kind of a literal.
// IRNull has no kind and returns "".
func LiteralKind(v IRValue) PrimitiveKind {
	switch v.(type) {
	case IRString:
		return EdmString
	case IRInt:
		return EdmInt64
	case IRFloat:
		return EdmDouble
	case IRBool:
		return EdmBoolean
	case IRDate:
		return EdmDate
	case IRTimeOfDay:
		return EdmTimeOfDay
	case IRTimestamp:
		return EdmDateTimeOffset
	default:
		return ""
	}
}

// Native converts an IRValue to the Go value bound as a driver argument.
func Native(v IRValue) (any, error) {
	switch val := v.(type) {
	case nil, IRNull:
		return nil, nil
	case IRString:
		return string(val), nil
	case IRInt:
		return int64(val), nil
	case IRFloat:
		return float64(val), nil
	case IRBool:
		return bool(val), nil
	case IRDate:
		return time.Time(val), nil
	case IRTimeOfDay:
		return time.Time(val), nil
	case IRTimestamp:
		return time.Time(val), nil
	default:
		return nil, fmt.Errorf("unsupported IRValue type: %T", v)
	}
}

// FromAny converts a decoded YAML/JSON scalar into an IRValue.
// Nested arrays and maps are rejected: literals are scalars.
func FromAny(v any) (IRValue, error) {
	switch val := v.(type) {
	case nil:
		return IRNull{}, nil
	case IRValue:
		return val, nil
	case string:
		return IRString(val), nil
	case int:
		return IRInt(val), nil
	case int64:
		return IRInt(val), nil
	case int32:
		return IRInt(val), nil
	case uint64:
		return IRInt(int64(val)), nil
	case float64:
		return IRFloat(val), nil
	case float32:
		return IRFloat(val), nil
	case bool:
		return IRBool(val), nil
	case time.Time:
		return IRTimestamp(val), nil
	case []any, map[string]any:
		return nil, fmt.Errorf("literal must be a scalar, got %T", v)
	default:
		return nil, fmt.Errorf("unsupported literal type: %T", v)
	}
}
