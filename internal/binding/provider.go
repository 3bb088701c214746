// Package binding maps the entity model onto physical tables and columns.
//
// The SQL compiler consumes the Provider interface only. Catalog is the
// file-backed implementation shipped with this module; it is loaded from
// YAML or CUE documents.
package binding

import (
	"errors"
	"fmt"

	"github.com/roach88/edmsql/internal/ir"
)

// ColumnInfo is the physical column of a simple property.
type ColumnInfo struct {
	Column  string
	SQLType string
}

// Provider resolves structural types and their properties to physical
// database objects.
type Provider interface {
	// TableName returns the table backing an entity type.
	TableName(t ir.StructuralType) (string, error)

	// PrimaryKey returns the primary-key column of an entity type.
	PrimaryKey(t ir.StructuralType) (string, error)

	// HasJoinColumn reports whether from's table holds a column
	// referencing to's primary key.
	HasJoinColumn(from, to ir.StructuralType) bool

	// JoinColumn returns that column.
	JoinColumn(from, to ir.StructuralType) (string, error)

	// ColumnInfo returns the column and declared SQL type of a simple
	// property.
	ColumnInfo(t ir.StructuralType, property string) (ColumnInfo, error)

	// IsPropertyMapped reports whether property has a column.
	IsPropertyMapped(t ir.StructuralType, property string) bool
}

// MappingError reports metadata that does not cover a requested type or
// property.
type MappingError struct {
	Type     string
	Property string
	Message  string
}

func (e *MappingError) Error() string {
	if e.Property != "" {
		return fmt.Sprintf("binding: %s.%s: %s", e.Type, e.Property, e.Message)
	}
	return fmt.Sprintf("binding: %s: %s", e.Type, e.Message)
}

// IsMappingError reports whether err is or wraps a *MappingError.
func IsMappingError(err error) bool {
	var me *MappingError
	return errors.As(err, &me)
}

func typeName(t ir.StructuralType) string {
	if t == nil {
		return "<nil>"
	}
	return t.FullQualifiedName()
}
