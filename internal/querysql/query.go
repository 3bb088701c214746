package querysql

import (
	"log/slog"
	"strings"

	"github.com/roach88/edmsql/internal/binding"
	"github.com/roach88/edmsql/internal/dialect"
	"github.com/roach88/edmsql/internal/ir"
)

// Query accumulates one compiled SELECT: its aliases, joins, predicate,
// ordering and projection, plus the cursor state used while iterating the
// result.
//
// A Query is not safe for concurrent use and is not reused across logical
// queries.
type Query struct {
	provider binding.Provider
	log      *slog.Logger

	caseSensitive bool
	fetchSize     int

	aliases *AliasAllocator
	joins   *joinBuilder
	where   WhereExpression
	orderBy OrderByExpression
	sel     *SelectExpression

	// inFilter is set while Filter translates an expression.
	inFilter bool

	// Cursor state, see Next and SetOffset.
	nativeSkip bool
	rowCounter int
	skipped    int
}

// Option configures a Query.
type Option func(*Query)

// WithCaseSensitive quotes table and column names.
func WithCaseSensitive(on bool) Option {
	return func(q *Query) { q.caseSensitive = on }
}

// WithLogger sets the logger for compile diagnostics.
func WithLogger(l *slog.Logger) Option {
	return func(q *Query) {
		if l != nil {
			q.log = l
		}
	}
}

// WithFetchSize sets the number of rows skipped per cursor jump in
// SetOffset. Values below 1 keep the default.
func WithFetchSize(n int) Option {
	return func(q *Query) {
		if n > 0 {
			q.fetchSize = n
		}
	}
}

// New returns an empty Query resolving metadata through p.
func New(p binding.Provider, opts ...Option) *Query {
	q := &Query{
		provider:  p,
		log:       slog.Default(),
		fetchSize: FetchSize,
		aliases:   NewAliasAllocator(),
		joins:     newJoinBuilder(),
	}
	for _, opt := range opts {
		opt(q)
	}
	return q
}

// Aliases returns the alias allocator of the query.
func (q *Query) Aliases() *AliasAllocator { return q.aliases }

// Params returns the parameters in placeholder order.
func (q *Query) Params() []Param { return q.where.Params() }

// Where returns the accumulated predicate.
func (q *Query) Where() WhereExpression { return q.where }

// Selection returns the projection, or nil before Select.
func (q *Query) Selection() *SelectExpression { return q.sel }

// Columns returns the projected columns in result order.
func (q *Query) Columns() []Column {
	if q.sel == nil {
		return nil
	}
	out := make([]Column, len(q.sel.columns))
	copy(out, q.sel.columns)
	return out
}

// ClearFilter drops the accumulated predicate and the joins that only the
// predicate needed. Joins shared with the projection, expands or ordering
// stay. Aliases are never released, so later joins keep their numbering.
func (q *Query) ClearFilter() {
	q.where = WhereExpression{}
	if n := q.joins.dropFilterOnly(); n > 0 {
		q.log.Debug("filter joins dropped", "joins", n)
	}
}

// BuildSelect renders the statement:
//
//	SELECT [prefix] columns FROM table alias [joins] [WHERE ...] [ORDER BY ...] [suffix]
//
// Runs of whitespace are collapsed. Placeholders are rewritten to the
// product's marker style. The dialect decides prefix and suffix only; the
// clause order is the same for every product.
func (q *Query) BuildSelect(dc dialect.Context) (string, error) {
	if q.sel == nil {
		return "", illegalUsage(FeatureBuild, "BuildSelect called before Select")
	}
	if dc.CaseSensitive != q.caseSensitive {
		return "", illegalUsage(FeatureIdentifierQuoting, "query compiled with case sensitivity %t, dialect context has %t", q.caseSensitive, dc.CaseSensitive)
	}

	root := q.sel.root.EntityType
	table, err := q.provider.TableName(root)
	if err != nil {
		return "", bindingError(FeatureEntitySet, err, "no table for %s", q.sel.root.Name)
	}

	parts := []string{"SELECT", q.sel.prefix(dc), q.sel.columnList(q.quote), "FROM", q.quote(table), q.aliasFor(root)}
	parts = append(parts, q.joins.clauses()...)
	if !q.where.IsEmpty() {
		parts = append(parts, "WHERE", q.where.Clause())
	}
	if !q.orderBy.IsEmpty() && !q.sel.count {
		parts = append(parts, "ORDER BY", q.orderBy.Render())
	}
	parts = append(parts, q.sel.suffix(dc))

	sql := dc.Rebind(strings.Join(strings.Fields(strings.Join(parts, " ")), " "))

	q.nativeSkip = dc.NativeSkip()
	q.log.Debug("select built",
		"product", dc.Product.String(),
		"sql", sql,
		"params", len(q.where.params),
		"joins", len(q.joins.edges))
	return sql, nil
}

// ColumnInfo is a resolved column expression with its declared SQL type.
type ColumnInfo struct {
	Expression string
	SQLType    string
}

// columnRef is a resolved simple property.
type columnRef struct {
	owner   ir.StructuralType
	prop    *ir.Property
	alias   string
	column  string
	expr    string
	sqlType string
}

// SQLTableColumn returns the qualified column of a simple property, e.g.
// T0.CUSTOMER_ID.
func (q *Query) SQLTableColumn(t ir.StructuralType, property string) (string, error) {
	ref, err := q.columnRef(t, property)
	if err != nil {
		return "", err
	}
	return ref.expr, nil
}

// SQLTableColumnInfo returns the qualified column and its declared type.
func (q *Query) SQLTableColumnInfo(t ir.StructuralType, property string) (ColumnInfo, error) {
	ref, err := q.columnRef(t, property)
	if err != nil {
		return ColumnInfo{}, err
	}
	return ColumnInfo{Expression: ref.expr, SQLType: ref.sqlType}, nil
}

// SQLTableColumnAlias returns the result label of a simple property, e.g.
// CUSTOMER_ID_T0. Labels stay unique when two joined tables share a
// column name.
func (q *Query) SQLTableColumnAlias(t ir.StructuralType, property string) (string, error) {
	ref, err := q.columnRef(t, property)
	if err != nil {
		return "", err
	}
	return ref.column + "_" + ref.alias, nil
}

func (q *Query) columnRef(t ir.StructuralType, property string) (columnRef, error) {
	if t == nil {
		return columnRef{}, illegalUsage(FeatureProperty, "nil structural type")
	}
	p, ok := t.Property(property)
	if !ok {
		return columnRef{}, bindingError(FeatureProperty,
			&binding.MappingError{Type: t.FullQualifiedName(), Property: property, Message: "no such property"},
			"cannot resolve %s", property)
	}
	switch p.Kind {
	case ir.PropertyComplex:
		return columnRef{}, unimplemented(FeatureComplexProperty, "%s.%s is a complex property", t.FullQualifiedName(), property)
	case ir.PropertyNavigation:
		return columnRef{}, unimplemented(FeatureNavigationProperty, "%s.%s is a navigation property", t.FullQualifiedName(), property)
	}

	info, err := q.provider.ColumnInfo(t, property)
	if err != nil {
		return columnRef{}, bindingError(FeatureProperty, err, "cannot map %s.%s", t.FullQualifiedName(), property)
	}
	alias := q.aliasFor(t)
	return columnRef{
		owner:   t,
		prop:    p,
		alias:   alias,
		column:  info.Column,
		expr:    alias + "." + q.quote(info.Column),
		sqlType: info.SQLType,
	}, nil
}

// resolveMember resolves a property path starting at t. Every segment but
// the last must be a navigation property; each one joins its target.
func (q *Query) resolveMember(t ir.StructuralType, path []string) (columnRef, error) {
	if len(path) == 0 {
		return columnRef{}, illegalUsage(FeatureProperty, "empty property path")
	}
	cur := t
	for _, seg := range path[:len(path)-1] {
		p, ok := cur.Property(seg)
		if !ok {
			return columnRef{}, bindingError(FeatureProperty,
				&binding.MappingError{Type: cur.FullQualifiedName(), Property: seg, Message: "no such property"},
				"cannot resolve %s", strings.Join(path, "/"))
		}
		switch p.Kind {
		case ir.PropertyComplex:
			return columnRef{}, unimplemented(FeatureComplexProperty, "path %s crosses complex property %s", strings.Join(path, "/"), seg)
		case ir.PropertySimple:
			return columnRef{}, illegalUsage(FeatureProperty, "path %s continues after simple property %s", strings.Join(path, "/"), seg)
		}
		if _, err := q.Join(cur, p.Target); err != nil {
			return columnRef{}, err
		}
		cur = p.Target
	}
	return q.columnRef(cur, path[len(path)-1])
}

func (q *Query) aliasFor(t ir.StructuralType) string {
	known := q.aliases.Has(t)
	alias := q.aliases.AliasFor(t)
	if !known {
		q.log.Debug("alias allocated", "alias", alias, "type", t.FullQualifiedName())
	}
	return alias
}

func (q *Query) quote(ident string) string {
	return dialect.Context{CaseSensitive: q.caseSensitive}.Quote(ident)
}
