// Package querysql compiles entity queries into dialect-correct,
// parameterized SQL.
//
// One Query is built per logical query and is used from a single goroutine:
//
//	q := querysql.New(catalog)
//	q.Select(set, items, expand, skip, top)   // exactly once
//	q.Filter(set, expr)                       // zero or more
//	q.OrderBy(terms, set.EntityType)
//	sql, err := q.BuildSelect(dc)
//	args, err := q.BindParams()
//	rows, err := db.QueryContext(ctx, sql, args...)
//	q.SetOffset(rows)
//	for q.Next(rows) { ... }
//
// Every structural type referenced by a query gets one table alias (T0,
// T1, ...). Navigation properties used by select, filter or order-by become
// LEFT JOINs, each rendered once. All values are bound as parameters; the
// Nth placeholder of the built statement corresponds to the Nth Param.
//
// Capability gaps and caller mistakes are reported as *CompileError before
// any SQL is returned.
package querysql
