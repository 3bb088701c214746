package queryir

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/roach88/edmsql/internal/ir"
)

// Request is one entity-set query as handed over by a front end.
type Request struct {
	EntitySet string
	Select    []SelectItem
	Expand    []ExpandPath
	Filter    Expression
	OrderBy   []OrderTerm
	Skip      int
	Top       int
	Count     bool
	Distinct  bool
	Leading   *Leading
}

// Leading restricts a request to the already-resolved keys of a parent
// (leading) entity. Property names the column compared against IDs.
type Leading struct {
	Property string
	IDs      []ir.IRValue
}

// ParseRequest decodes a YAML request document.
func ParseRequest(data []byte) (*Request, error) {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	var req Request
	if err := dec.Decode(&req); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("empty request document")
		}
		return nil, fmt.Errorf("parse request: %w", err)
	}
	return &req, nil
}

var requestFields = map[string]bool{
	"entity_set": true,
	"select":     true,
	"expand":     true,
	"filter":     true,
	"orderby":    true,
	"skip":       true,
	"top":        true,
	"count":      true,
	"distinct":   true,
	"leading":    true,
}

// UnmarshalYAML implements yaml.Unmarshaler.
//
// Unknown keys are rejected so a misspelt option fails loudly instead of
// being dropped from the query.
func (r *Request) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind != yaml.MappingNode {
		return fmt.Errorf("line %d: request must be a mapping", node.Line)
	}
	for i := 0; i < len(node.Content); i += 2 {
		key := node.Content[i].Value
		if !requestFields[key] {
			return fmt.Errorf("line %d: unknown request field %q", node.Content[i].Line, key)
		}
	}

	var raw struct {
		EntitySet string    `yaml:"entity_set"`
		Select    []string  `yaml:"select"`
		Expand    []string  `yaml:"expand"`
		Filter    yaml.Node `yaml:"filter"`
		OrderBy   yaml.Node `yaml:"orderby"`
		Skip      int       `yaml:"skip"`
		Top       int       `yaml:"top"`
		Count     bool      `yaml:"count"`
		Distinct  bool      `yaml:"distinct"`
		Leading   *struct {
			Property string      `yaml:"property"`
			IDs      []yaml.Node `yaml:"ids"`
		} `yaml:"leading"`
	}
	if err := node.Decode(&raw); err != nil {
		return err
	}

	r.EntitySet = raw.EntitySet
	r.Skip = raw.Skip
	r.Top = raw.Top
	r.Count = raw.Count
	r.Distinct = raw.Distinct

	for _, s := range raw.Select {
		r.Select = append(r.Select, ParseSelectItem(s))
	}
	for _, e := range raw.Expand {
		r.Expand = append(r.Expand, ExpandPath(splitPath(e)))
	}

	if raw.Filter.Kind != 0 {
		expr, err := DecodeExpression(&raw.Filter)
		if err != nil {
			return fmt.Errorf("filter: %w", err)
		}
		r.Filter = expr
	}

	if raw.OrderBy.Kind != 0 {
		terms, err := decodeOrderBy(&raw.OrderBy)
		if err != nil {
			return fmt.Errorf("orderby: %w", err)
		}
		r.OrderBy = terms
	}

	if raw.Leading != nil {
		l := &Leading{Property: raw.Leading.Property, IDs: []ir.IRValue{}}
		for i := range raw.Leading.IDs {
			v, err := decodeScalar(&raw.Leading.IDs[i])
			if err != nil {
				return fmt.Errorf("leading.ids[%d]: %w", i, err)
			}
			l.IDs = append(l.IDs, v)
		}
		r.Leading = l
	}
	return nil
}

// ParseSelectItem parses one $select entry: "*", "Name" or "Customer/Name".
func ParseSelectItem(s string) SelectItem {
	s = strings.TrimSpace(s)
	if s == "*" {
		return SelectItem{Star: true}
	}
	return SelectItem{Path: splitPath(s)}
}

func splitPath(s string) []string {
	parts := strings.Split(strings.TrimSpace(s), "/")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		out = append(out, strings.TrimSpace(p))
	}
	return out
}

// decodeOrderBy accepts a list of "Path [asc|desc]" strings or
// {expr: <expression>, desc: bool} mappings.
func decodeOrderBy(node *yaml.Node) ([]OrderTerm, error) {
	if node.Kind != yaml.SequenceNode {
		return nil, fmt.Errorf("line %d: expected a list", node.Line)
	}
	terms := make([]OrderTerm, 0, len(node.Content))
	for _, item := range node.Content {
		switch item.Kind {
		case yaml.ScalarNode:
			term, err := ParseOrderTerm(item.Value)
			if err != nil {
				return nil, fmt.Errorf("line %d: %w", item.Line, err)
			}
			terms = append(terms, term)
		case yaml.MappingNode:
			var raw struct {
				Expr yaml.Node `yaml:"expr"`
				Desc bool      `yaml:"desc"`
			}
			if err := item.Decode(&raw); err != nil {
				return nil, err
			}
			if raw.Expr.Kind == 0 {
				return nil, fmt.Errorf("line %d: order term needs expr", item.Line)
			}
			expr, err := DecodeExpression(&raw.Expr)
			if err != nil {
				return nil, err
			}
			terms = append(terms, OrderTerm{Expr: expr, Descending: raw.Desc})
		default:
			return nil, fmt.Errorf("line %d: unsupported order term", item.Line)
		}
	}
	return terms, nil
}

// ParseOrderTerm parses "Date desc", "Customer/Name" or "Id asc".
func ParseOrderTerm(s string) (OrderTerm, error) {
	fields := strings.Fields(s)
	switch len(fields) {
	case 1:
		return OrderTerm{Expr: Member{Path: splitPath(fields[0])}}, nil
	case 2:
		switch strings.ToLower(fields[1]) {
		case "asc":
			return OrderTerm{Expr: Member{Path: splitPath(fields[0])}}, nil
		case "desc":
			return OrderTerm{Expr: Member{Path: splitPath(fields[0])}, Descending: true}, nil
		}
		return OrderTerm{}, fmt.Errorf("invalid direction %q", fields[1])
	default:
		return OrderTerm{}, fmt.Errorf("invalid order term %q", s)
	}
}

var binaryOps = map[string]BinaryOp{
	"and": OpAnd, "or": OpOr,
	"eq": OpEq, "ne": OpNe, "gt": OpGt, "ge": OpGe, "lt": OpLt, "le": OpLe,
	"add": OpAdd, "sub": OpSub, "mul": OpMul, "div": OpDiv, "mod": OpMod,
}

// DecodeExpression decodes a filter node.
//
// Mappings carry exactly one key:
//
//	{member: Customer/Name}
//	{string: C1} {int: 3} {float: 1.5} {bool: true} {null: true}
//	{date: 2024-01-31} {time: "10:30:00"} {timestamp: 2024-01-31T10:30:00Z}
//	{eq: [<expr>, <expr>]} and the other binary operators
//	{not: <expr>} {minus: <expr>}
//	{contains: [<expr>, ...]} any other key with a list is a method call
//
// A bare scalar is a literal typed by its YAML tag.
func DecodeExpression(node *yaml.Node) (Expression, error) {
	switch node.Kind {
	case yaml.ScalarNode:
		v, err := decodeScalar(node)
		if err != nil {
			return nil, err
		}
		return Literal{Value: v}, nil
	case yaml.MappingNode:
	default:
		return nil, fmt.Errorf("line %d: expression must be a mapping or scalar", node.Line)
	}

	if len(node.Content) != 2 {
		return nil, fmt.Errorf("line %d: expression must have exactly one key", node.Line)
	}
	key, val := node.Content[0].Value, node.Content[1]

	switch key {
	case "member":
		if val.Kind != yaml.ScalarNode || strings.TrimSpace(val.Value) == "" {
			return nil, fmt.Errorf("line %d: member needs a property path", val.Line)
		}
		return Member{Path: splitPath(val.Value)}, nil
	case "not", "minus":
		operand, err := DecodeExpression(val)
		if err != nil {
			return nil, err
		}
		return Unary{Op: UnaryOp(key), Operand: operand}, nil
	}

	if v, ok, err := decodeTypedLiteral(key, val); ok || err != nil {
		if err != nil {
			return nil, err
		}
		return Literal{Value: v}, nil
	}

	args, err := decodeArgs(val)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", key, err)
	}
	if op, ok := binaryOps[key]; ok {
		if len(args) != 2 {
			return nil, fmt.Errorf("line %d: %s takes two operands, got %d", val.Line, key, len(args))
		}
		return Binary{Op: op, Left: args[0], Right: args[1]}, nil
	}
	return Method{Name: key, Args: args}, nil
}

func decodeArgs(node *yaml.Node) ([]Expression, error) {
	if node.Kind != yaml.SequenceNode {
		return nil, fmt.Errorf("line %d: expected a list of operands", node.Line)
	}
	args := make([]Expression, 0, len(node.Content))
	for _, n := range node.Content {
		e, err := DecodeExpression(n)
		if err != nil {
			return nil, err
		}
		args = append(args, e)
	}
	return args, nil
}

// decodeTypedLiteral handles the {kind: value} literal forms. ok is false
// when key is not a literal kind.
func decodeTypedLiteral(key string, val *yaml.Node) (v ir.IRValue, ok bool, err error) {
	switch key {
	case "string":
		return ir.IRString(val.Value), true, nil
	case "int":
		var i int64
		if err := val.Decode(&i); err != nil {
			return nil, true, err
		}
		return ir.IRInt(i), true, nil
	case "float":
		var f float64
		if err := val.Decode(&f); err != nil {
			return nil, true, err
		}
		return ir.IRFloat(f), true, nil
	case "bool":
		var b bool
		if err := val.Decode(&b); err != nil {
			return nil, true, err
		}
		return ir.IRBool(b), true, nil
	case "null":
		return ir.IRNull{}, true, nil
	case "date":
		t, err := time.Parse(time.DateOnly, val.Value)
		if err != nil {
			return nil, true, fmt.Errorf("line %d: %w", val.Line, err)
		}
		return ir.IRDate(t), true, nil
	case "time":
		t, err := time.Parse(time.TimeOnly, val.Value)
		if err != nil {
			return nil, true, fmt.Errorf("line %d: %w", val.Line, err)
		}
		return ir.IRTimeOfDay(t), true, nil
	case "timestamp":
		t, err := time.Parse(time.RFC3339Nano, val.Value)
		if err != nil {
			return nil, true, fmt.Errorf("line %d: %w", val.Line, err)
		}
		return ir.IRTimestamp(t), true, nil
	}
	return nil, false, nil
}

func decodeScalar(node *yaml.Node) (ir.IRValue, error) {
	if node.Kind == yaml.MappingNode && len(node.Content) == 2 {
		v, ok, err := decodeTypedLiteral(node.Content[0].Value, node.Content[1])
		if ok || err != nil {
			return v, err
		}
	}
	if node.Kind != yaml.ScalarNode {
		return nil, fmt.Errorf("line %d: literal must be a scalar", node.Line)
	}
	switch node.ShortTag() {
	case "!!null":
		return ir.IRNull{}, nil
	case "!!str", "!!timestamp":
		return ir.IRString(node.Value), nil
	}
	var v any
	if err := node.Decode(&v); err != nil {
		return nil, err
	}
	return ir.FromAny(v)
}
