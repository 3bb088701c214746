package ir

import (
	"fmt"
	"strings"

	"golang.org/x/text/unicode/norm"
)

// TypeKind distinguishes entity types from complex types.
type TypeKind int

const (
	// KindEntity is a keyed type backed by its own table.
	KindEntity TypeKind = iota
	// KindComplex is an unkeyed structured value embedded in an entity.
	KindComplex
)

// String returns the EDM spelling of the kind.
func (k TypeKind) String() string {
	switch k {
	case KindEntity:
		return "EntityType"
	case KindComplex:
		return "ComplexType"
	default:
		return fmt.Sprintf("TypeKind(%d)", int(k))
	}
}

// PropertyKind classifies a property of a structural type.
type PropertyKind int

const (
	// PropertySimple maps to exactly one column.
	PropertySimple PropertyKind = iota
	// PropertyComplex holds a complex type value.
	PropertyComplex
	// PropertyNavigation relates two entity types.
	PropertyNavigation
)

// PrimitiveKind is the EDM primitive type of a simple property.
type PrimitiveKind string

// Supported EDM primitive kinds.
const (
	EdmString         PrimitiveKind = "Edm.String"
	EdmBoolean        PrimitiveKind = "Edm.Boolean"
	EdmByte           PrimitiveKind = "Edm.Byte"
	EdmInt16          PrimitiveKind = "Edm.Int16"
	EdmInt32          PrimitiveKind = "Edm.Int32"
	EdmInt64          PrimitiveKind = "Edm.Int64"
	EdmDecimal        PrimitiveKind = "Edm.Decimal"
	EdmDouble         PrimitiveKind = "Edm.Double"
	EdmSingle         PrimitiveKind = "Edm.Single"
	EdmGuid           PrimitiveKind = "Edm.Guid"
	EdmDate           PrimitiveKind = "Edm.Date"
	EdmTimeOfDay      PrimitiveKind = "Edm.TimeOfDay"
	EdmDateTime       PrimitiveKind = "Edm.DateTime"
	EdmDateTimeOffset PrimitiveKind = "Edm.DateTimeOffset"
)

// IsNumeric reports whether values of this kind are numbers.
func (k PrimitiveKind) IsNumeric() bool {
	switch k {
	case EdmByte, EdmInt16, EdmInt32, EdmInt64, EdmDecimal, EdmDouble, EdmSingle:
		return true
	}
	return false
}

// IsTemporal reports whether values of this kind are dates or times.
func (k PrimitiveKind) IsTemporal() bool {
	switch k {
	case EdmDate, EdmTimeOfDay, EdmDateTime, EdmDateTimeOffset:
		return true
	}
	return false
}

// StructuralType is an opaque handle to an entity or complex type.
//
// Identity is the fully-qualified name. Implementations must be immutable.
type StructuralType interface {
	// FullQualifiedName returns "Namespace.Name".
	FullQualifiedName() string

	// Kind reports entity or complex.
	Kind() TypeKind

	// Property looks up a declared property by name.
	Property(name string) (*Property, bool)

	// Properties returns all declared properties in declaration order.
	Properties() []*Property
}

// Property is a named, typed attribute of a structural type.
type Property struct {
	Name string       `json:"name"`
	Kind PropertyKind `json:"kind"`

	// Type is set for simple properties.
	Type PrimitiveKind `json:"type,omitempty"`

	// Complex is set for complex properties.
	Complex *ComplexType `json:"-"`

	// Target is set for navigation properties.
	Target *EntityType `json:"-"`
}

// IsSimple reports whether the property maps to a single column.
func (p *Property) IsSimple() bool { return p != nil && p.Kind == PropertySimple }

// IsNavigation reports whether the property is a navigation property.
func (p *Property) IsNavigation() bool { return p != nil && p.Kind == PropertyNavigation }

// EntityType is a keyed structural type.
type EntityType struct {
	Namespace string
	Name      string
	Props     []*Property
	Key       []string
}

// FullQualifiedName implements StructuralType.
func (t *EntityType) FullQualifiedName() string { return qualify(t.Namespace, t.Name) }

// Kind implements StructuralType.
func (t *EntityType) Kind() TypeKind { return KindEntity }

// Property implements StructuralType.
func (t *EntityType) Property(name string) (*Property, bool) { return findProperty(t.Props, name) }

// Properties implements StructuralType.
func (t *EntityType) Properties() []*Property { return t.Props }

// KeyProperties returns the key properties in key order.
// Key names that do not resolve to a declared property are skipped.
func (t *EntityType) KeyProperties() []*Property {
	keys := make([]*Property, 0, len(t.Key))
	for _, name := range t.Key {
		if p, ok := t.Property(name); ok {
			keys = append(keys, p)
		}
	}
	return keys
}

// IsKey reports whether name is part of the entity key.
func (t *EntityType) IsKey(name string) bool {
	for _, k := range t.Key {
		if k == name {
			return true
		}
	}
	return false
}

// ComplexType is an unkeyed structural type.
type ComplexType struct {
	Namespace string
	Name      string
	Props     []*Property
}

// FullQualifiedName implements StructuralType.
func (t *ComplexType) FullQualifiedName() string { return qualify(t.Namespace, t.Name) }

// Kind implements StructuralType.
func (t *ComplexType) Kind() TypeKind { return KindComplex }

// Property implements StructuralType.
func (t *ComplexType) Property(name string) (*Property, bool) { return findProperty(t.Props, name) }

// Properties implements StructuralType.
func (t *ComplexType) Properties() []*Property { return t.Props }

// EntitySet is a named collection of entities of one type.
type EntitySet struct {
	Name       string
	EntityType *EntityType
}

// NavigationSegment is one hop along a navigation property.
type NavigationSegment struct {
	Property *Property
	Source   *EntitySet
	Target   *EntitySet
}

// SameType reports whether a and b denote the same structural type.
// Comparison is by normalized fully-qualified name.
func SameType(a, b StructuralType) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return TypeKey(a) == TypeKey(b)
}

// TypeKey returns the identity key of a structural type: its fully-qualified
// name in Unicode NFC form.
func TypeKey(t StructuralType) string {
	return NormalizeName(t.FullQualifiedName())
}

// NormalizeName returns s in NFC form with surrounding space removed.
func NormalizeName(s string) string {
	return norm.NFC.String(strings.TrimSpace(s))
}

func qualify(namespace, name string) string {
	if namespace == "" {
		return name
	}
	return namespace + "." + name
}

func findProperty(props []*Property, name string) (*Property, bool) {
	for _, p := range props {
		if p.Name == name {
			return p, true
		}
	}
	return nil, false
}
