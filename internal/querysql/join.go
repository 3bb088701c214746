package querysql

import (
	"github.com/roach88/edmsql/internal/ir"
)

// JoinEdge is one rendered join between two structural types.
type JoinEdge struct {
	From   ir.StructuralType
	To     ir.StructuralType
	Clause string
}

// joinBuilder keeps join clauses in insertion order. Edges added only to
// translate a filter are tracked so ClearFilter can drop them.
type joinBuilder struct {
	edges      []JoinEdge
	joined     map[string]bool
	filterOnly map[string]bool
}

func newJoinBuilder() *joinBuilder {
	return &joinBuilder{joined: make(map[string]bool), filterOnly: make(map[string]bool)}
}

// find returns the edge rendered as clause, if any.
func (b *joinBuilder) find(clause string) (JoinEdge, bool) {
	for _, e := range b.edges {
		if e.Clause == clause {
			return e, true
		}
	}
	return JoinEdge{}, false
}

func (b *joinBuilder) add(e JoinEdge, forFilter bool) {
	b.edges = append(b.edges, e)
	b.joined[ir.TypeKey(e.To)] = true
	if forFilter {
		b.filterOnly[e.Clause] = true
	}
}

// dropFilterOnly removes the edges no projection or ordering needs and
// returns how many were removed.
func (b *joinBuilder) dropFilterOnly() int {
	if len(b.filterOnly) == 0 {
		return 0
	}
	kept := b.edges[:0]
	joined := make(map[string]bool, len(b.joined))
	for _, e := range b.edges {
		if b.filterOnly[e.Clause] {
			continue
		}
		kept = append(kept, e)
		joined[ir.TypeKey(e.To)] = true
	}
	dropped := len(b.edges) - len(kept)
	b.edges = kept
	b.joined = joined
	b.filterOnly = make(map[string]bool)
	return dropped
}

// isJoined reports whether t is the target of a join.
func (b *joinBuilder) isJoined(t ir.StructuralType) bool {
	return b.joined[ir.TypeKey(t)]
}

func (b *joinBuilder) clauses() []string {
	out := make([]string, len(b.edges))
	for i, e := range b.edges {
		out[i] = e.Clause
	}
	return out
}

// Join joins to onto from. The foreign key is looked up on from's table
// first and on to's table second:
//
//	LEFT JOIN CUSTOMERS T1 ON T0.CUSTOMER_ID = T1.ID   (from holds the key)
//	LEFT JOIN ORDERS T1 ON T1.CUSTOMER_ID = T0.ID      (to holds the key)
//
// Joining the same pair again returns the existing edge. Edges first added
// while translating a filter are dropped by ClearFilter unless a later
// projection, expand or ordering joins the same pair. Reaching a type
// that is already in the FROM list along a different edge is a self join
// and is rejected.
func (q *Query) Join(from, to ir.StructuralType) (JoinEdge, error) {
	if from == nil || to == nil {
		return JoinEdge{}, illegalUsage(FeatureJoin, "join needs two types")
	}
	if ir.SameType(from, to) {
		return JoinEdge{}, unimplemented(FeatureJoin, "self join of %s needs a second alias", from.FullQualifiedName())
	}

	toTable, err := q.provider.TableName(to)
	if err != nil {
		return JoinEdge{}, bindingError(FeatureJoin, err, "no table for %s", to.FullQualifiedName())
	}

	// Resolve the key pair before allocating aliases so a failed join
	// leaves the alias sequence untouched.
	var fk, pk string
	forward := q.provider.HasJoinColumn(from, to)
	switch {
	case forward:
		fk, err = q.provider.JoinColumn(from, to)
		if err == nil {
			pk, err = q.provider.PrimaryKey(to)
		}
	case q.provider.HasJoinColumn(to, from):
		fk, err = q.provider.JoinColumn(to, from)
		if err == nil {
			pk, err = q.provider.PrimaryKey(from)
		}
	default:
		return JoinEdge{}, bindingError(FeatureJoin, nil, "no join column between %s and %s", from.FullQualifiedName(), to.FullQualifiedName())
	}
	if err != nil {
		return JoinEdge{}, bindingError(FeatureJoin, err, "join %s -> %s", from.FullQualifiedName(), to.FullQualifiedName())
	}

	fromAlias := q.aliasFor(from)
	toAlias := q.aliasFor(to)
	on := toAlias + "." + q.quote(fk) + " = " + fromAlias + "." + q.quote(pk)
	if forward {
		on = fromAlias + "." + q.quote(fk) + " = " + toAlias + "." + q.quote(pk)
	}

	clause := "LEFT JOIN " + q.quote(toTable) + " " + toAlias + " ON " + on
	if edge, ok := q.joins.find(clause); ok {
		if !q.inFilter {
			delete(q.joins.filterOnly, clause)
		}
		return edge, nil
	}
	if q.inFromList(to) {
		return JoinEdge{}, unimplemented(FeatureJoin, "%s already appears as %s, a second occurrence needs its own alias", to.FullQualifiedName(), toAlias)
	}

	edge := JoinEdge{From: from, To: to, Clause: clause}
	q.joins.add(edge, q.inFilter)
	q.log.Debug("join added", "from", from.FullQualifiedName(), "to", to.FullQualifiedName(), "clause", clause)
	return edge, nil
}

// inFromList reports whether t is the root table or a join target.
func (q *Query) inFromList(t ir.StructuralType) bool {
	if q.joins.isJoined(t) {
		return true
	}
	root, ok := q.aliases.TypeFor("T0")
	return ok && ir.SameType(root, t)
}

// JoinPath joins along navigation segments starting at start. The last
// segment must lead to target.
func (q *Query) JoinPath(start, target *ir.EntitySet, segments []ir.NavigationSegment) error {
	if start == nil || target == nil {
		return illegalUsage(FeatureJoin, "join path needs start and target sets")
	}
	cur := start.EntityType
	for i, seg := range segments {
		if seg.Property == nil || !seg.Property.IsNavigation() {
			return illegalUsage(FeatureJoin, "segment %d is not a navigation", i)
		}
		next := seg.Property.Target
		if seg.Target != nil {
			next = seg.Target.EntityType
		}
		if _, err := q.Join(cur, next); err != nil {
			return err
		}
		cur = next
	}
	if !ir.SameType(cur, target.EntityType) {
		return illegalUsage(FeatureJoin, "path from %s ends at %s, not %s", start.Name, cur.FullQualifiedName(), target.EntityType.FullQualifiedName())
	}
	return nil
}

// Joins returns the join edges in insertion order.
func (q *Query) Joins() []JoinEdge {
	out := make([]JoinEdge, len(q.joins.edges))
	copy(out, q.joins.edges)
	return out
}

// IsJoined reports whether t was joined into the query.
func (q *Query) IsJoined(t ir.StructuralType) bool { return q.joins.isJoined(t) }
