package querysql

import (
	"strings"
)

// WhereExpression is a predicate fragment plus the parameters its
// placeholders bind, in placeholder order.
//
// The zero value is the empty expression. Combining with an empty
// expression is a no-op on either side.
type WhereExpression struct {
	clause string
	params []Param
}

// NewWhereExpression wraps a rendered predicate and its parameters.
func NewWhereExpression(clause string, params ...Param) WhereExpression {
	return WhereExpression{clause: strings.TrimSpace(clause), params: params}
}

// IsEmpty reports whether w holds no predicate.
func (w WhereExpression) IsEmpty() bool { return w.clause == "" }

// Clause returns the rendered predicate.
func (w WhereExpression) Clause() string { return w.clause }

// Params returns a copy of the parameters.
func (w WhereExpression) Params() []Param {
	out := make([]Param, len(w.params))
	copy(out, w.params)
	return out
}

// And returns w AND other.
func (w WhereExpression) And(other WhereExpression) WhereExpression {
	return w.combine("AND", other)
}

// Or returns w OR other.
func (w WhereExpression) Or(other WhereExpression) WhereExpression {
	return w.combine("OR", other)
}

func (w WhereExpression) combine(op string, other WhereExpression) WhereExpression {
	if other.IsEmpty() {
		return w
	}
	if w.IsEmpty() {
		return other
	}
	params := make([]Param, 0, len(w.params)+len(other.params))
	params = append(params, w.params...)
	params = append(params, other.params...)
	return WhereExpression{
		clause: "(" + w.clause + ") " + op + " (" + other.clause + ")",
		params: params,
	}
}

// InList builds "column IN (?, ...)" with one parameter per id, each typed
// with the column's declared SQL type.
//
// An empty id list renders "column IN ()". Most backends reject that
// syntax and SQLite matches nothing; callers that want an explicit empty
// result must check for it themselves.
func InList(column, sqlType string, ids []any) WhereExpression {
	marks := make([]string, len(ids))
	params := make([]Param, len(ids))
	for i, id := range ids {
		marks[i] = "?"
		params[i] = Param{Value: id, SQLType: sqlType}
	}
	return WhereExpression{
		clause: column + " IN (" + strings.Join(marks, ", ") + ")",
		params: params,
	}
}
