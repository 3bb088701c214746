package querysql

import (
	"github.com/roach88/edmsql/internal/binding"
	"github.com/roach88/edmsql/internal/dialect"
	"github.com/roach88/edmsql/internal/ir"
	"github.com/roach88/edmsql/internal/queryir"
)

// Metadata is a Provider that also resolves entity sets by name.
type Metadata interface {
	binding.Provider
	EntitySet(name string) (*ir.EntitySet, error)
}

// Prepare drives a request through the Query mutators: Select (or
// SelectCount), Filter, the leading-key filter, then OrderBy.
func Prepare(meta Metadata, req *queryir.Request, opts ...Option) (*Query, error) {
	if req == nil {
		return nil, illegalUsage(FeatureSelect, "nil request")
	}
	set, err := meta.EntitySet(req.EntitySet)
	if err != nil {
		return nil, bindingError(FeatureEntitySet, err, "unknown entity set %q", req.EntitySet)
	}

	q := New(meta, opts...)
	if req.Count {
		err = q.SelectCount(set)
	} else {
		err = q.Select(set, req.Select, req.Expand, req.Skip, req.Top)
	}
	if err != nil {
		return nil, err
	}
	if req.Distinct && !req.Count {
		if err := q.SetDistinct(true); err != nil {
			return nil, err
		}
	}

	if err := q.Filter(set, req.Filter); err != nil {
		return nil, err
	}
	if req.Leading != nil {
		if err := q.FilterByKeys(set.EntityType, req.Leading.Property, req.Leading.IDs); err != nil {
			return nil, err
		}
	}
	if len(req.OrderBy) > 0 && !req.Count {
		if err := q.OrderBy(req.OrderBy, set.EntityType); err != nil {
			return nil, err
		}
	}
	return q, nil
}

// Statement is a compiled request ready for execution.
type Statement struct {
	SQL   string
	Args  []any
	Query *Query
}

// Compile prepares req, builds its SQL for dc and binds its parameters.
// Case sensitivity is taken from dc.
func Compile(meta Metadata, req *queryir.Request, dc dialect.Context, opts ...Option) (*Statement, error) {
	opts = append([]Option{WithCaseSensitive(dc.CaseSensitive)}, opts...)
	q, err := Prepare(meta, req, opts...)
	if err != nil {
		return nil, err
	}
	sql, err := q.BuildSelect(dc)
	if err != nil {
		return nil, err
	}
	args, err := q.BindParams()
	if err != nil {
		return nil, err
	}
	return &Statement{SQL: sql, Args: args, Query: q}, nil
}
