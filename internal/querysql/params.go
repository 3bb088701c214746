package querysql

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
)

// TemporalKind selects how a temporal parameter is bound.
type TemporalKind int

const (
	TemporalNone TemporalKind = iota
	TemporalDate
	TemporalTime
	TemporalTimestamp
)

// String returns the SQL spelling of the kind.
func (k TemporalKind) String() string {
	switch k {
	case TemporalDate:
		return "DATE"
	case TemporalTime:
		return "TIME"
	case TemporalTimestamp:
		return "TIMESTAMP"
	default:
		return ""
	}
}

// Param is one bound value of a compiled statement.
type Param struct {
	// Value is the Go value; nil binds SQL NULL.
	Value any

	// SQLType is the declared type of the column the value is compared
	// with, set when the value needs converting before it is bound.
	SQLType string

	// Temporal is set for date and time values.
	Temporal TemporalKind
}

// Layouts accepted for temporal parameters given as strings.
var (
	dateLayouts      = []string{time.DateOnly, time.RFC3339Nano, time.DateTime}
	timeLayouts      = []string{time.TimeOnly, "15:04:05.999999999", "15:04"}
	timestampLayouts = []string{time.RFC3339Nano, time.DateTime, "2006-01-02T15:04:05", time.DateOnly}
)

// BindParams returns the driver arguments for the accumulated parameters.
// Argument i binds placeholder i+1.
func (q *Query) BindParams() ([]any, error) {
	params := q.Params()
	args := make([]any, len(params))
	for i, p := range params {
		v, err := bindValue(p)
		if err != nil {
			return nil, fmt.Errorf("parameter %d: %w", i+1, err)
		}
		args[i] = v
	}
	q.log.Debug("params bound", "count", len(args))
	return args, nil
}

func bindValue(p Param) (any, error) {
	if p.Value == nil {
		return nil, nil
	}
	if p.Temporal != TemporalNone {
		return bindTemporal(p)
	}
	if p.SQLType != "" {
		return convertDeclared(p.Value, p.SQLType)
	}
	return p.Value, nil
}

// bindTemporal coerces the value to the calendar representation of its
// kind: midnight for DATE, 1970-01-01 for TIME, the instant for TIMESTAMP.
func bindTemporal(p Param) (any, error) {
	var t time.Time
	switch v := p.Value.(type) {
	case time.Time:
		t = v
	case string:
		var err error
		t, err = parseTemporal(p.Temporal, v)
		if err != nil {
			return nil, illegalUsage(FeatureParamConversion, "cannot convert %q to %s", v, p.Temporal)
		}
	default:
		return nil, illegalUsage(FeatureParamConversion, "cannot convert %T to %s", p.Value, p.Temporal)
	}

	switch p.Temporal {
	case TemporalDate:
		y, m, d := t.Date()
		return time.Date(y, m, d, 0, 0, 0, 0, t.Location()), nil
	case TemporalTime:
		return time.Date(1970, time.January, 1, t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), t.Location()), nil
	default:
		return t, nil
	}
}

func parseTemporal(kind TemporalKind, s string) (time.Time, error) {
	layouts := timestampLayouts
	switch kind {
	case TemporalDate:
		layouts = dateLayouts
	case TemporalTime:
		layouts = timeLayouts
	}
	var firstErr error
	for _, layout := range layouts {
		t, err := time.Parse(layout, strings.TrimSpace(s))
		if err == nil {
			return t, nil
		}
		if firstErr == nil {
			firstErr = err
		}
	}
	return time.Time{}, firstErr
}

// Declared SQL types with an implemented conversion.
var (
	numericTypes = map[string]bool{
		"NUMERIC": true, "DECIMAL": true, "INTEGER": true, "INT": true, "BIGINT": true, "SMALLINT": true,
	}
	characterTypes = map[string]bool{
		"VARCHAR": true, "CHAR": true, "NVARCHAR": true, "NCHAR": true, "TEXT": true, "CLOB": true,
	}
)

// baseType strips a length or precision suffix: "DECIMAL(10,2)" -> "DECIMAL".
func baseType(sqlType string) string {
	t := strings.ToUpper(strings.TrimSpace(sqlType))
	if i := strings.IndexByte(t, '('); i >= 0 {
		t = strings.TrimSpace(t[:i])
	}
	return t
}

// convertDeclared converts v for a column of the declared type. Only the
// numeric family (to int64) and the character family (to string) are
// supported; any other declared type is an error rather than a silent
// pass-through.
func convertDeclared(v any, sqlType string) (any, error) {
	base := baseType(sqlType)
	switch {
	case numericTypes[base]:
		return toInt64(v, sqlType)
	case characterTypes[base]:
		switch s := v.(type) {
		case string:
			return s, nil
		case int64:
			return strconv.FormatInt(s, 10), nil
		case int:
			return strconv.Itoa(s), nil
		}
		return nil, illegalUsage(FeatureParamConversion, "cannot convert %T to %s", v, sqlType)
	default:
		return nil, illegalUsage(FeatureParamConversion, "conversion to %s is not implemented", sqlType)
	}
}

func toInt64(v any, sqlType string) (any, error) {
	switch n := v.(type) {
	case int64:
		return n, nil
	case int:
		return int64(n), nil
	case int32:
		return int64(n), nil
	case float64:
		if n != math.Trunc(n) || math.IsInf(n, 0) {
			return nil, illegalUsage(FeatureParamConversion, "cannot convert %v to %s", n, sqlType)
		}
		return int64(n), nil
	case string:
		i, err := strconv.ParseInt(strings.TrimSpace(n), 10, 64)
		if err != nil {
			return nil, illegalUsage(FeatureParamConversion, "cannot convert %q to %s", n, sqlType)
		}
		return i, nil
	default:
		return nil, illegalUsage(FeatureParamConversion, "cannot convert %T to %s", v, sqlType)
	}
}
