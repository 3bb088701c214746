package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/roach88/edmsql/internal/queryir"
	"github.com/roach88/edmsql/internal/querysql"
)

// Row is one result row grouped by table alias, then property name.
type Row map[string]map[string]any

// Result is the outcome of one executed request.
type Result struct {
	QueryID string
	SQL     string
	Args    []any
	Columns []querysql.Column
	Rows    []Row
}

// Compile compiles req for the store's dialect without executing it.
func (s *Store) Compile(req *queryir.Request) (*querysql.Statement, error) {
	return querysql.Compile(s.meta, req, s.dc, s.queryOptions()...)
}

// Fetch compiles and runs req and returns its rows.
//
// Returns an empty Rows slice (not nil) when nothing matches.
func (s *Store) Fetch(ctx context.Context, req *queryir.Request) (*Result, error) {
	if req != nil && req.Count {
		return nil, fmt.Errorf("fetch: request for %s is a count, use Count", req.EntitySet)
	}
	stmt, err := s.Compile(req)
	if err != nil {
		return nil, err
	}
	return s.Execute(ctx, stmt)
}

// Execute runs a compiled statement, skipping and capping rows on the
// cursor where the dialect could not do it in SQL. A statement can be
// executed any number of times.
func (s *Store) Execute(ctx context.Context, stmt *querysql.Statement) (*Result, error) {
	id := s.ids.Generate()
	start := time.Now()

	rows, err := s.db.QueryContext(ctx, stmt.SQL, stmt.Args...)
	if err != nil {
		return nil, fmt.Errorf("query %s: %w", id, err)
	}
	defer rows.Close()

	q := stmt.Query
	if err := q.SetOffset(rows); err != nil {
		return nil, fmt.Errorf("skip rows %s: %w", id, err)
	}

	columns := q.Columns()
	result := &Result{
		QueryID: id,
		SQL:     stmt.SQL,
		Args:    stmt.Args,
		Columns: columns,
		Rows:    []Row{},
	}
	for q.Next(rows) {
		row, err := scanRow(rows, columns)
		if err != nil {
			return nil, fmt.Errorf("scan %s: %w", id, err)
		}
		result.Rows = append(result.Rows, row)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate %s: %w", id, err)
	}

	s.log.Info("query executed",
		"query_id", id,
		"product", s.dc.Product.String(),
		"rows", len(result.Rows),
		"duration", time.Since(start))
	return result, nil
}

// Count runs req as a row count. Paging, ordering and selection of req
// are ignored.
func (s *Store) Count(ctx context.Context, req *queryir.Request) (int64, error) {
	if req == nil {
		return 0, errors.New("count: nil request")
	}
	countReq := *req
	countReq.Count = true
	countReq.Select = nil
	countReq.Expand = nil
	countReq.OrderBy = nil
	countReq.Distinct = false

	stmt, err := s.Compile(&countReq)
	if err != nil {
		return 0, err
	}

	id := s.ids.Generate()
	var n int64
	if err := s.db.QueryRowContext(ctx, stmt.SQL, stmt.Args...).Scan(&n); err != nil {
		return 0, fmt.Errorf("count %s: %w", id, err)
	}
	s.log.Info("count executed", "query_id", id, "product", s.dc.Product.String(), "count", n)
	return n, nil
}

func (s *Store) queryOptions() []querysql.Option {
	opts := []querysql.Option{querysql.WithLogger(s.log)}
	if s.fetchSize > 0 {
		opts = append(opts, querysql.WithFetchSize(s.fetchSize))
	}
	return opts
}

// scanRow reads the current row of rows into a Row keyed by the alias and
// property of each projected column.
func scanRow(rows *sql.Rows, columns []querysql.Column) (Row, error) {
	values := make([]any, len(columns))
	ptrs := make([]any, len(columns))
	for i := range values {
		ptrs[i] = &values[i]
	}
	if err := rows.Scan(ptrs...); err != nil {
		return nil, err
	}

	row := make(Row)
	for i, col := range columns {
		entity, ok := row[col.Alias]
		if !ok {
			entity = make(map[string]any)
			row[col.Alias] = entity
		}
		entity[col.Property.Name] = normalize(values[i])
	}
	return row, nil
}

// normalize converts driver byte slices to strings; MySQL returns text
// columns as []byte.
func normalize(v any) any {
	if b, ok := v.([]byte); ok {
		return string(b)
	}
	return v
}
