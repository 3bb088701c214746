package querysql

import (
	"strings"

	"github.com/roach88/edmsql/internal/binding"
	"github.com/roach88/edmsql/internal/dialect"
	"github.com/roach88/edmsql/internal/ir"
	"github.com/roach88/edmsql/internal/queryir"
)

// Column is one projected column.
type Column struct {
	// Alias is the table alias the column is read from.
	Alias    string
	Type     ir.StructuralType
	Property *ir.Property

	// Expr is the qualified column, e.g. T0.CUSTOMER_ID.
	Expr string

	// Label is the result column name, e.g. CUSTOMER_ID_T0.
	Label   string
	SQLType string
}

// SelectExpression is the projection of a query and its paging bounds.
type SelectExpression struct {
	root     *ir.EntitySet
	columns  []Column
	count    bool
	distinct bool
	skip     int
	top      int
}

// Root returns the queried entity set.
func (s *SelectExpression) Root() *ir.EntitySet { return s.root }

// IsCount reports whether the statement counts rows instead of
// projecting columns.
func (s *SelectExpression) IsCount() bool { return s.count }

// Skip returns the number of leading rows to drop.
func (s *SelectExpression) Skip() int { return s.skip }

// Top returns the row cap; 0 means unbounded.
func (s *SelectExpression) Top() int { return s.top }

// Distinct reports whether duplicate rows are removed.
func (s *SelectExpression) Distinct() bool { return s.distinct }

func (s *SelectExpression) prefix(dc dialect.Context) string {
	if s.count {
		return "COUNT(*)"
	}
	var parts []string
	if s.distinct {
		parts = append(parts, "DISTINCT")
	}
	if p := dc.Prefix(s.skip, s.top); p != "" {
		parts = append(parts, p)
	}
	return strings.Join(parts, " ")
}

func (s *SelectExpression) suffix(dc dialect.Context) string {
	if s.count {
		return ""
	}
	return dc.Suffix(s.skip, s.top)
}

func (s *SelectExpression) columnList(quote func(string) string) string {
	if s.count {
		return ""
	}
	parts := make([]string, len(s.columns))
	for i, c := range s.columns {
		parts[i] = c.Expr + " AS " + quote(c.Label)
	}
	return strings.Join(parts, ", ")
}

// Select sets the projection. It must be called once, before BuildSelect.
//
// Without items every simple property of the entity type is projected in
// declaration order. With items the key properties come first, then the
// selected properties; keys are never dropped. Each expand path joins along
// its navigation properties and projects every simple property of each type
// it reaches.
//
// Wildcard items, navigation paths and complex properties are rejected.
func (q *Query) Select(set *ir.EntitySet, items []queryir.SelectItem, expand []queryir.ExpandPath, skip, top int) error {
	if q.sel != nil {
		return illegalUsage(FeatureSelect, "Select called twice")
	}
	if set == nil || set.EntityType == nil {
		return illegalUsage(FeatureSelect, "nil entity set")
	}
	if skip < 0 || top < 0 {
		return illegalUsage(FeaturePaging, "skip and top must be non-negative (skip=%d, top=%d)", skip, top)
	}
	for i, item := range items {
		switch {
		case item.Star:
			return unimplemented(FeatureStarSelect, "wildcard select on %s", set.Name)
		case item.IsNavigation():
			return unimplemented(FeatureNavigationSelect, "select of navigation path %s", strings.Join(item.Path, "/"))
		case item.Property() == "":
			return illegalUsage(FeatureSelect, "select item %d has no property", i)
		}
	}

	et := set.EntityType
	q.aliasFor(et)

	sel := &SelectExpression{root: set, skip: skip, top: top}
	seen := make(map[string]bool)
	add := func(t ir.StructuralType, p *ir.Property) error {
		ref, err := q.columnRef(t, p.Name)
		if err != nil {
			return err
		}
		key := ref.alias + "." + p.Name
		if seen[key] {
			return nil
		}
		seen[key] = true
		sel.columns = append(sel.columns, Column{
			Alias:    ref.alias,
			Type:     t,
			Property: p,
			Expr:     ref.expr,
			Label:    ref.column + "_" + ref.alias,
			SQLType:  ref.sqlType,
		})
		return nil
	}

	if len(items) == 0 {
		if err := addSimple(et, add); err != nil {
			return err
		}
	} else {
		for _, k := range et.KeyProperties() {
			if err := add(et, k); err != nil {
				return err
			}
		}
		for _, item := range items {
			p, ok := et.Property(item.Property())
			if !ok {
				return bindingError(FeatureProperty,
					&binding.MappingError{Type: et.FullQualifiedName(), Property: item.Property(), Message: "no such property"},
					"cannot select %s", item.Property())
			}
			switch p.Kind {
			case ir.PropertyNavigation:
				return unimplemented(FeatureNavigationSelect, "select of navigation property %s", p.Name)
			case ir.PropertyComplex:
				return unimplemented(FeatureComplexProperty, "select of complex property %s", p.Name)
			}
			if err := add(et, p); err != nil {
				return err
			}
		}
	}

	for _, path := range expand {
		var cur ir.StructuralType = et
		for _, seg := range path {
			p, ok := cur.Property(seg)
			if !ok {
				return bindingError(FeatureNavigationProperty,
					&binding.MappingError{Type: cur.FullQualifiedName(), Property: seg, Message: "no such property"},
					"cannot expand %s", strings.Join(path, "/"))
			}
			if !p.IsNavigation() {
				return illegalUsage(FeatureNavigationProperty, "cannot expand %s: %s is not a navigation property", strings.Join(path, "/"), seg)
			}
			if _, err := q.Join(cur, p.Target); err != nil {
				return err
			}
			cur = p.Target
			if err := addSimple(cur, add); err != nil {
				return err
			}
		}
	}

	q.sel = sel
	q.log.Debug("select set", "set", set.Name, "columns", len(sel.columns), "skip", skip, "top", top)
	return nil
}

// addSimple calls add for every simple property of t.
func addSimple(t ir.StructuralType, add func(ir.StructuralType, *ir.Property) error) error {
	for _, p := range t.Properties() {
		if !p.IsSimple() {
			continue
		}
		if err := add(t, p); err != nil {
			return err
		}
	}
	return nil
}

// SelectCount sets a row-count projection: SELECT COUNT(*). Ordering and
// paging are not rendered.
func (q *Query) SelectCount(set *ir.EntitySet) error {
	if q.sel != nil {
		return illegalUsage(FeatureSelect, "Select called twice")
	}
	if set == nil || set.EntityType == nil {
		return illegalUsage(FeatureSelect, "nil entity set")
	}
	q.aliasFor(set.EntityType)
	q.sel = &SelectExpression{root: set, count: true}
	q.log.Debug("count select set", "set", set.Name)
	return nil
}

// SetDistinct toggles DISTINCT on the projection.
func (q *Query) SetDistinct(on bool) error {
	if q.sel == nil {
		return illegalUsage(FeatureSelect, "SetDistinct called before Select")
	}
	q.sel.distinct = on
	return nil
}
