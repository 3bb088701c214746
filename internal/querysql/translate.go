package querysql

import (
	"strings"

	"github.com/roach88/edmsql/internal/ir"
	"github.com/roach88/edmsql/internal/queryir"
)

// operand is a translated filter sub-expression.
type operand struct {
	sql    string
	params []Param

	// column is set when the operand is a bare property reference.
	column *columnRef

	// literal is set when the operand is a single bound value.
	literal bool

	// null is set for the null literal, which is rendered inline.
	null bool
}

var comparisonSQL = map[queryir.BinaryOp]string{
	queryir.OpEq: "=",
	queryir.OpNe: "<>",
	queryir.OpGt: ">",
	queryir.OpGe: ">=",
	queryir.OpLt: "<",
	queryir.OpLe: "<=",
}

var arithmeticSQL = map[queryir.BinaryOp]string{
	queryir.OpAdd: "+",
	queryir.OpSub: "-",
	queryir.OpMul: "*",
	queryir.OpDiv: "/",
	queryir.OpMod: "%",
}

// Filter translates expr against the entity type of set and ANDs it into
// the accumulated predicate. Property paths through navigation properties
// join the related types. A nil expression is a no-op.
func (q *Query) Filter(set *ir.EntitySet, expr queryir.Expression) error {
	if expr == nil {
		return nil
	}
	if set == nil || set.EntityType == nil {
		return illegalUsage(FeatureFilterExpression, "nil entity set")
	}
	q.aliasFor(set.EntityType)

	q.inFilter = true
	op, err := q.translate(set.EntityType, expr)
	q.inFilter = false
	if err != nil {
		return err
	}
	q.where = q.where.And(NewWhereExpression(op.sql, op.params...))
	q.log.Debug("filter added", "set", set.Name, "params", len(op.params))
	return nil
}

// FilterByKeys ANDs "column IN (ids...)" for a property of t, typically the
// foreign key holding already-resolved keys of a leading entity. An empty
// ids list is kept as "IN ()".
func (q *Query) FilterByKeys(t ir.StructuralType, property string, ids []ir.IRValue) error {
	info, err := q.SQLTableColumnInfo(t, property)
	if err != nil {
		return err
	}
	values := make([]any, len(ids))
	for i, id := range ids {
		v, err := ir.Native(id)
		if err != nil {
			return illegalUsage(FeatureParamConversion, "key %d: %v", i, err)
		}
		values[i] = v
	}
	q.where = q.where.And(InList(info.Expression, info.SQLType, values))
	q.log.Debug("key filter added", "column", info.Expression, "keys", len(ids))
	return nil
}

func (q *Query) translate(t ir.StructuralType, e queryir.Expression) (operand, error) {
	switch x := e.(type) {
	case queryir.Member:
		ref, err := q.resolveMember(t, x.Path)
		if err != nil {
			return operand{}, err
		}
		return operand{sql: ref.expr, column: &ref}, nil

	case queryir.Literal:
		if _, isNull := x.Value.(ir.IRNull); isNull || x.Value == nil {
			return operand{sql: "NULL", null: true}, nil
		}
		v, err := ir.Native(x.Value)
		if err != nil {
			return operand{}, illegalUsage(FeatureFilterExpression, "%v", err)
		}
		return operand{
			sql:     "?",
			params:  []Param{{Value: v, Temporal: literalTemporal(x.Value)}},
			literal: true,
		}, nil

	case queryir.Binary:
		return q.translateBinary(t, x)

	case queryir.Unary:
		inner, err := q.translate(t, x.Operand)
		if err != nil {
			return operand{}, err
		}
		switch x.Op {
		case queryir.OpNot:
			return operand{sql: "NOT (" + inner.sql + ")", params: inner.params}, nil
		case queryir.OpMinus:
			return operand{sql: "-(" + inner.sql + ")", params: inner.params}, nil
		}
		return operand{}, unimplemented(FeatureFilterExpression, "unary operator %q", x.Op)

	case queryir.Method:
		return q.translateMethod(t, x)

	default:
		return operand{}, unimplemented(FeatureFilterExpression, "expression %T", e)
	}
}

func (q *Query) translateBinary(t ir.StructuralType, b queryir.Binary) (operand, error) {
	l, err := q.translate(t, b.Left)
	if err != nil {
		return operand{}, err
	}
	r, err := q.translate(t, b.Right)
	if err != nil {
		return operand{}, err
	}

	switch {
	case b.Op.IsLogical():
		return operand{
			sql:    "(" + l.sql + " " + strings.ToUpper(string(b.Op)) + " " + r.sql + ")",
			params: concatParams(l.params, r.params),
		}, nil

	case b.Op.IsComparison():
		if l.null || r.null {
			return nullComparison(b.Op, l, r)
		}
		coerceLiteral(&l, r)
		coerceLiteral(&r, l)
		return operand{
			sql:    l.sql + " " + comparisonSQL[b.Op] + " " + r.sql,
			params: concatParams(l.params, r.params),
		}, nil

	case b.Op.IsArithmetic():
		coerceLiteral(&l, r)
		coerceLiteral(&r, l)
		return operand{
			sql:    "(" + l.sql + " " + arithmeticSQL[b.Op] + " " + r.sql + ")",
			params: concatParams(l.params, r.params),
		}, nil
	}
	return operand{}, unimplemented(FeatureFilterExpression, "binary operator %q", b.Op)
}

// nullComparison renders eq/ne against the null literal as IS [NOT] NULL.
func nullComparison(op queryir.BinaryOp, l, r operand) (operand, error) {
	subject := l
	if l.null {
		subject = r
	}
	switch op {
	case queryir.OpEq:
		return operand{sql: subject.sql + " IS NULL", params: subject.params}, nil
	case queryir.OpNe:
		return operand{sql: subject.sql + " IS NOT NULL", params: subject.params}, nil
	}
	return operand{}, unimplemented(FeatureFilterExpression, "operator %s against null", op)
}

// coerceLiteral types a bound literal after the column it is compared with:
// a temporal column makes it a temporal parameter of the column's kind, and
// a string compared with a numeric column carries the column's SQL type so
// the binder converts it.
func coerceLiteral(lit *operand, other operand) {
	if !lit.literal || other.column == nil || len(lit.params) != 1 {
		return
	}
	kind := other.column.prop.Type
	p := &lit.params[0]
	switch {
	case kind.IsTemporal():
		p.Temporal = primitiveTemporal(kind)
	case kind.IsNumeric():
		if _, isString := p.Value.(string); isString {
			p.SQLType = other.column.sqlType
		}
	}
}

func (q *Query) translateMethod(t ir.StructuralType, m queryir.Method) (operand, error) {
	name := strings.ToLower(m.Name)
	arity, ok := queryir.MethodArity(name)
	if !ok {
		return operand{}, unimplemented(FeatureFilterMethod, "method %s", m.Name)
	}
	if len(m.Args) != arity {
		return operand{}, illegalUsage(FeatureFilterMethod, "%s takes %d arguments, got %d", m.Name, arity, len(m.Args))
	}

	switch name {
	case "tolower", "toupper":
		arg, err := q.translate(t, m.Args[0])
		if err != nil {
			return operand{}, err
		}
		fn := "LOWER"
		if name == "toupper" {
			fn = "UPPER"
		}
		return operand{sql: fn + "(" + arg.sql + ")", params: arg.params}, nil
	}

	subject, err := q.translate(t, m.Args[0])
	if err != nil {
		return operand{}, err
	}
	lit, ok := m.Args[1].(queryir.Literal)
	if !ok {
		return operand{}, unimplemented(FeatureFilterMethod, "%s needs a string literal pattern", m.Name)
	}
	s, ok := lit.Value.(ir.IRString)
	if !ok {
		return operand{}, unimplemented(FeatureFilterMethod, "%s needs a string literal pattern", m.Name)
	}

	var pattern string
	switch name {
	case "contains":
		pattern = "%" + string(s) + "%"
	case "startswith":
		pattern = string(s) + "%"
	default:
		pattern = "%" + string(s)
	}
	return operand{
		sql:    subject.sql + " LIKE ?",
		params: concatParams(subject.params, []Param{{Value: pattern}}),
	}, nil
}

func concatParams(a, b []Param) []Param {
	out := make([]Param, 0, len(a)+len(b))
	out = append(out, a...)
	return append(out, b...)
}

func literalTemporal(v ir.IRValue) TemporalKind {
	switch v.(type) {
	case ir.IRDate:
		return TemporalDate
	case ir.IRTimeOfDay:
		return TemporalTime
	case ir.IRTimestamp:
		return TemporalTimestamp
	}
	return TemporalNone
}

func primitiveTemporal(k ir.PrimitiveKind) TemporalKind {
	switch k {
	case ir.EdmDate:
		return TemporalDate
	case ir.EdmTimeOfDay:
		return TemporalTime
	case ir.EdmDateTime, ir.EdmDateTimeOffset:
		return TemporalTimestamp
	}
	return TemporalNone
}
