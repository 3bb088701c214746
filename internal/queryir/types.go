package queryir

import (
	"strings"

	"github.com/roach88/edmsql/internal/ir"
)

// Expression represents a node of a filter or order-by tree.
//
// This is a sealed interface - only types in this package implement it.
type Expression interface {
	exprNode() // Marker method - seals interface to this package
}

// BinaryOp is the operator of a Binary expression.
type BinaryOp string

// Binary operators, spelled as in OData.
const (
	OpAnd BinaryOp = "and"
	OpOr  BinaryOp = "or"
	OpEq  BinaryOp = "eq"
	OpNe  BinaryOp = "ne"
	OpGt  BinaryOp = "gt"
	OpGe  BinaryOp = "ge"
	OpLt  BinaryOp = "lt"
	OpLe  BinaryOp = "le"
	OpAdd BinaryOp = "add"
	OpSub BinaryOp = "sub"
	OpMul BinaryOp = "mul"
	OpDiv BinaryOp = "div"
	OpMod BinaryOp = "mod"
)

// IsLogical reports whether op combines boolean operands.
func (op BinaryOp) IsLogical() bool { return op == OpAnd || op == OpOr }

// IsComparison reports whether op compares two operands.
func (op BinaryOp) IsComparison() bool {
	switch op {
	case OpEq, OpNe, OpGt, OpGe, OpLt, OpLe:
		return true
	}
	return false
}

// IsArithmetic reports whether op is a numeric operator.
func (op BinaryOp) IsArithmetic() bool {
	switch op {
	case OpAdd, OpSub, OpMul, OpDiv, OpMod:
		return true
	}
	return false
}

// UnaryOp is the operator of a Unary expression.
type UnaryOp string

// Unary operators.
const (
	OpNot   UnaryOp = "not"
	OpMinus UnaryOp = "minus"
)

// Member references a property of the current entity type.
//
// Path holds the segments in order; all but the last must be navigation
// properties. Member{Path: []string{"Customer", "Name"}} reads the Name of
// the related Customer and makes the compiler join the two types.
type Member struct {
	Path []string
}

func (Member) exprNode() {}

// String returns the path joined with "/".
func (m Member) String() string { return strings.Join(m.Path, "/") }

// Prop is shorthand for a Member path.
func Prop(path ...string) Member { return Member{Path: path} }

// Literal is a constant operand.
type Literal struct {
	Value ir.IRValue
}

func (Literal) exprNode() {}

// Lit wraps a value as a Literal.
func Lit(v ir.IRValue) Literal { return Literal{Value: v} }

// Binary applies Op to Left and Right.
type Binary struct {
	Op    BinaryOp
	Left  Expression
	Right Expression
}

func (Binary) exprNode() {}

// Unary applies Op to Operand.
type Unary struct {
	Op      UnaryOp
	Operand Expression
}

func (Unary) exprNode() {}

// Method is a function call such as contains(Name,'x').
type Method struct {
	Name string
	Args []Expression
}

func (Method) exprNode() {}

// And builds a conjunction of two expressions.
func And(l, r Expression) Binary { return Binary{Op: OpAnd, Left: l, Right: r} }

// Or builds a disjunction of two expressions.
func Or(l, r Expression) Binary { return Binary{Op: OpOr, Left: l, Right: r} }

// Eq builds an equality comparison.
func Eq(l, r Expression) Binary { return Binary{Op: OpEq, Left: l, Right: r} }

// OrderTerm is one entry of an ordering.
type OrderTerm struct {
	Expr       Expression
	Descending bool
}

// SelectItem is one entry of a projection.
//
// Star selects every property. Path names a property through navigation
// segments (its length is greater than one). Both are representable but
// rejected by the compiler.
type SelectItem struct {
	Star bool
	Path []string
}

// Property returns the last path segment.
func (s SelectItem) Property() string {
	if len(s.Path) == 0 {
		return ""
	}
	return s.Path[len(s.Path)-1]
}

// IsNavigation reports whether the item reaches through a navigation.
func (s SelectItem) IsNavigation() bool { return len(s.Path) > 1 }

// ExpandPath names navigation properties to follow from the entity set.
type ExpandPath []string
