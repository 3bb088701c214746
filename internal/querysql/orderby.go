package querysql

import (
	"strings"

	"github.com/roach88/edmsql/internal/ir"
	"github.com/roach88/edmsql/internal/queryir"
)

// OrderByExpression is an ordered list of column/direction pairs.
type OrderByExpression struct {
	terms []orderColumn
}

type orderColumn struct {
	column     string
	descending bool
}

// IsEmpty reports whether there is nothing to order by.
func (o OrderByExpression) IsEmpty() bool { return len(o.terms) == 0 }

// Render returns "T0.A asc, T1.B desc"; empty when there are no terms.
func (o OrderByExpression) Render() string {
	parts := make([]string, len(o.terms))
	for i, t := range o.terms {
		dir := "asc"
		if t.descending {
			dir = "desc"
		}
		parts[i] = t.column + " " + dir
	}
	return strings.Join(parts, ", ")
}

// OrderBy sets the ordering of the query. Every term must be a property
// path of t; a term of any other shape fails the whole call before any
// column is resolved. Paths through navigation properties join the
// related types.
func (q *Query) OrderBy(terms []queryir.OrderTerm, t ir.StructuralType) error {
	for i, term := range terms {
		if _, ok := term.Expr.(queryir.Member); !ok {
			return unimplemented(FeatureOrderByExpression, "order term %d is %T, only property paths are supported", i, term.Expr)
		}
	}

	var ob OrderByExpression
	for _, term := range terms {
		ref, err := q.resolveMember(t, term.Expr.(queryir.Member).Path)
		if err != nil {
			return err
		}
		ob.terms = append(ob.terms, orderColumn{column: ref.expr, descending: term.Descending})
	}
	q.orderBy = ob
	return nil
}
