package binding

import (
	"fmt"
	"strings"

	"github.com/roach88/edmsql/internal/ir"
)

// Document is the on-disk shape of a catalog.
type Document struct {
	Namespace    string       `json:"namespace,omitempty" yaml:"namespace"`
	Entities     []EntityDoc  `json:"entities" yaml:"entities"`
	ComplexTypes []ComplexDoc `json:"complexTypes,omitempty" yaml:"complexTypes"`
}

// EntityDoc declares an entity type, its set and its table.
type EntityDoc struct {
	Name        string          `json:"name" yaml:"name"`
	Set         string          `json:"set,omitempty" yaml:"set"`
	Table       string          `json:"table" yaml:"table"`
	Key         []string        `json:"key" yaml:"key"`
	Properties  []PropertyDoc   `json:"properties" yaml:"properties"`
	Navigations []NavigationDoc `json:"navigations,omitempty" yaml:"navigations"`
}

// PropertyDoc declares a simple or complex property.
//
// Complex names a complex type; such a property has no column. For simple
// properties Column defaults to the upper-cased name and SQLType to the
// usual SQL type of the EDM type.
type PropertyDoc struct {
	Name    string `json:"name" yaml:"name"`
	Type    string `json:"type,omitempty" yaml:"type"`
	Column  string `json:"column,omitempty" yaml:"column"`
	SQLType string `json:"sqlType,omitempty" yaml:"sqlType"`
	Complex string `json:"complex,omitempty" yaml:"complex"`
}

// NavigationDoc declares a navigation property. JoinColumn is set when this
// entity's table holds the foreign key to the target; it is left empty on
// the side that is referenced.
type NavigationDoc struct {
	Name       string `json:"name" yaml:"name"`
	Target     string `json:"target" yaml:"target"`
	JoinColumn string `json:"joinColumn,omitempty" yaml:"joinColumn"`
}

// ComplexDoc declares a complex type.
type ComplexDoc struct {
	Name       string        `json:"name" yaml:"name"`
	Properties []PropertyDoc `json:"properties" yaml:"properties"`
}

// Catalog is an in-memory Provider built from a Document.
type Catalog struct {
	namespace string
	sets      []*ir.EntitySet
	setByName map[string]*ir.EntitySet
	setByType map[string]*ir.EntitySet
	tables    map[string]string
	columns   map[string]map[string]ColumnInfo
	joins     map[[2]string]string
}

var _ Provider = (*Catalog)(nil)

// defaultSQLTypes maps EDM primitive kinds to the SQL type assumed when a
// property declares none.
var defaultSQLTypes = map[ir.PrimitiveKind]string{
	ir.EdmString:         "VARCHAR",
	ir.EdmBoolean:        "BOOLEAN",
	ir.EdmByte:           "SMALLINT",
	ir.EdmInt16:          "SMALLINT",
	ir.EdmInt32:          "INTEGER",
	ir.EdmInt64:          "BIGINT",
	ir.EdmDecimal:        "DECIMAL",
	ir.EdmDouble:         "DOUBLE",
	ir.EdmSingle:         "REAL",
	ir.EdmGuid:           "VARCHAR",
	ir.EdmDate:           "DATE",
	ir.EdmTimeOfDay:      "TIME",
	ir.EdmDateTime:       "TIMESTAMP",
	ir.EdmDateTimeOffset: "TIMESTAMP",
}

// NewCatalog validates doc and builds the entity model it describes.
func NewCatalog(doc *Document) (*Catalog, error) {
	c := &Catalog{
		namespace: doc.Namespace,
		setByName: make(map[string]*ir.EntitySet),
		setByType: make(map[string]*ir.EntitySet),
		tables:    make(map[string]string),
		columns:   make(map[string]map[string]ColumnInfo),
		joins:     make(map[[2]string]string),
	}

	complexes := make(map[string]*ir.ComplexType, len(doc.ComplexTypes))
	for _, cd := range doc.ComplexTypes {
		name := ir.NormalizeName(cd.Name)
		if name == "" {
			return nil, fmt.Errorf("complex type without name")
		}
		if _, dup := complexes[name]; dup {
			return nil, fmt.Errorf("duplicate complex type %q", name)
		}
		complexes[name] = &ir.ComplexType{Namespace: doc.Namespace, Name: name}
	}
	for _, cd := range doc.ComplexTypes {
		ct := complexes[ir.NormalizeName(cd.Name)]
		props, err := c.buildProperties(ct, cd.Properties, complexes)
		if err != nil {
			return nil, err
		}
		ct.Props = props
	}

	entities := make(map[string]*ir.EntityType, len(doc.Entities))
	for _, ed := range doc.Entities {
		name := ir.NormalizeName(ed.Name)
		if name == "" {
			return nil, fmt.Errorf("entity without name")
		}
		if _, dup := entities[name]; dup {
			return nil, fmt.Errorf("duplicate entity %q", name)
		}
		if len(ed.Key) == 0 {
			return nil, fmt.Errorf("entity %s: key is required", name)
		}
		et := &ir.EntityType{Namespace: doc.Namespace, Name: name, Key: ed.Key}
		props, err := c.buildProperties(et, ed.Properties, complexes)
		if err != nil {
			return nil, err
		}
		et.Props = props
		for _, k := range ed.Key {
			p, ok := et.Property(k)
			if !ok || !p.IsSimple() {
				return nil, fmt.Errorf("entity %s: key %q is not a simple property", name, k)
			}
		}
		entities[name] = et

		table := strings.TrimSpace(ed.Table)
		if table == "" {
			table = strings.ToUpper(name)
		}
		c.tables[ir.TypeKey(et)] = table

		setName := strings.TrimSpace(ed.Set)
		if setName == "" {
			setName = name
		}
		if _, dup := c.setByName[setName]; dup {
			return nil, fmt.Errorf("duplicate entity set %q", setName)
		}
		set := &ir.EntitySet{Name: setName, EntityType: et}
		c.sets = append(c.sets, set)
		c.setByName[setName] = set
		c.setByType[ir.TypeKey(et)] = set
	}

	for _, ed := range doc.Entities {
		et := entities[ir.NormalizeName(ed.Name)]
		for _, nd := range ed.Navigations {
			target, ok := entities[ir.NormalizeName(nd.Target)]
			if !ok {
				return nil, fmt.Errorf("entity %s: navigation %q targets unknown entity %q", et.Name, nd.Name, nd.Target)
			}
			if _, dup := et.Property(nd.Name); dup {
				return nil, fmt.Errorf("entity %s: duplicate property %q", et.Name, nd.Name)
			}
			et.Props = append(et.Props, &ir.Property{Name: nd.Name, Kind: ir.PropertyNavigation, Target: target})
			if col := strings.TrimSpace(nd.JoinColumn); col != "" {
				key := [2]string{ir.TypeKey(et), ir.TypeKey(target)}
				if _, exists := c.joins[key]; !exists {
					c.joins[key] = col
				}
			}
		}
	}

	return c, nil
}

func (c *Catalog) buildProperties(owner ir.StructuralType, docs []PropertyDoc, complexes map[string]*ir.ComplexType) ([]*ir.Property, error) {
	ownerKey := ir.TypeKey(owner)
	cols := make(map[string]ColumnInfo, len(docs))
	props := make([]*ir.Property, 0, len(docs))
	seen := make(map[string]bool, len(docs))

	for _, pd := range docs {
		if pd.Name == "" {
			return nil, fmt.Errorf("%s: property without name", owner.FullQualifiedName())
		}
		if seen[pd.Name] {
			return nil, fmt.Errorf("%s: duplicate property %q", owner.FullQualifiedName(), pd.Name)
		}
		seen[pd.Name] = true

		if pd.Complex != "" {
			ct, ok := complexes[ir.NormalizeName(pd.Complex)]
			if !ok {
				return nil, fmt.Errorf("%s.%s: unknown complex type %q", owner.FullQualifiedName(), pd.Name, pd.Complex)
			}
			props = append(props, &ir.Property{Name: pd.Name, Kind: ir.PropertyComplex, Complex: ct})
			continue
		}

		kind := ir.PrimitiveKind(pd.Type)
		if kind == "" {
			kind = ir.EdmString
		}
		sqlType, known := defaultSQLTypes[kind]
		if !known {
			return nil, fmt.Errorf("%s.%s: unknown primitive type %q", owner.FullQualifiedName(), pd.Name, pd.Type)
		}
		if pd.SQLType != "" {
			sqlType = strings.ToUpper(pd.SQLType)
		}
		column := pd.Column
		if column == "" {
			column = strings.ToUpper(pd.Name)
		}
		props = append(props, &ir.Property{Name: pd.Name, Kind: ir.PropertySimple, Type: kind})
		cols[pd.Name] = ColumnInfo{Column: column, SQLType: sqlType}
	}

	c.columns[ownerKey] = cols
	return props, nil
}

// Namespace returns the catalog namespace.
func (c *Catalog) Namespace() string { return c.namespace }

// EntitySets returns every entity set in declaration order.
func (c *Catalog) EntitySets() []*ir.EntitySet { return c.sets }

// EntitySet looks up an entity set by name.
func (c *Catalog) EntitySet(name string) (*ir.EntitySet, error) {
	if s, ok := c.setByName[strings.TrimSpace(name)]; ok {
		return s, nil
	}
	return nil, &MappingError{Type: name, Message: "unknown entity set"}
}

// SetOf returns the entity set holding entities of t.
func (c *Catalog) SetOf(t ir.StructuralType) (*ir.EntitySet, bool) {
	s, ok := c.setByType[ir.TypeKey(t)]
	return s, ok
}

// Navigation resolves one navigation hop from set.
func (c *Catalog) Navigation(set *ir.EntitySet, name string) (ir.NavigationSegment, error) {
	p, ok := set.EntityType.Property(name)
	if !ok || !p.IsNavigation() {
		return ir.NavigationSegment{}, &MappingError{Type: typeName(set.EntityType), Property: name, Message: "not a navigation property"}
	}
	target, ok := c.SetOf(p.Target)
	if !ok {
		return ir.NavigationSegment{}, &MappingError{Type: typeName(p.Target), Message: "no entity set"}
	}
	return ir.NavigationSegment{Property: p, Source: set, Target: target}, nil
}

// TableName implements Provider.
func (c *Catalog) TableName(t ir.StructuralType) (string, error) {
	if t == nil || t.Kind() != ir.KindEntity {
		return "", &MappingError{Type: typeName(t), Message: "only entity types have tables"}
	}
	table, ok := c.tables[ir.TypeKey(t)]
	if !ok {
		return "", &MappingError{Type: typeName(t), Message: "unknown entity type"}
	}
	return table, nil
}

// PrimaryKey implements Provider. Composite keys report their first column.
func (c *Catalog) PrimaryKey(t ir.StructuralType) (string, error) {
	et, ok := c.entityType(t)
	if !ok {
		return "", &MappingError{Type: typeName(t), Message: "unknown entity type"}
	}
	keys := et.KeyProperties()
	if len(keys) == 0 {
		return "", &MappingError{Type: typeName(t), Message: "no key"}
	}
	info, err := c.ColumnInfo(et, keys[0].Name)
	if err != nil {
		return "", err
	}
	return info.Column, nil
}

// HasJoinColumn implements Provider.
func (c *Catalog) HasJoinColumn(from, to ir.StructuralType) bool {
	if from == nil || to == nil {
		return false
	}
	_, ok := c.joins[[2]string{ir.TypeKey(from), ir.TypeKey(to)}]
	return ok
}

// JoinColumn implements Provider.
func (c *Catalog) JoinColumn(from, to ir.StructuralType) (string, error) {
	if from != nil && to != nil {
		if col, ok := c.joins[[2]string{ir.TypeKey(from), ir.TypeKey(to)}]; ok {
			return col, nil
		}
	}
	return "", &MappingError{Type: typeName(from), Message: fmt.Sprintf("no join column to %s", typeName(to))}
}

// ColumnInfo implements Provider.
func (c *Catalog) ColumnInfo(t ir.StructuralType, property string) (ColumnInfo, error) {
	if t == nil {
		return ColumnInfo{}, &MappingError{Type: typeName(t), Property: property, Message: "nil type"}
	}
	cols, ok := c.columns[ir.TypeKey(t)]
	if !ok {
		return ColumnInfo{}, &MappingError{Type: typeName(t), Message: "unknown type"}
	}
	info, ok := cols[property]
	if !ok {
		return ColumnInfo{}, &MappingError{Type: typeName(t), Property: property, Message: "property is not mapped to a column"}
	}
	return info, nil
}

// IsPropertyMapped implements Provider.
func (c *Catalog) IsPropertyMapped(t ir.StructuralType, property string) bool {
	_, err := c.ColumnInfo(t, property)
	return err == nil
}

func (c *Catalog) entityType(t ir.StructuralType) (*ir.EntityType, bool) {
	if t == nil {
		return nil, false
	}
	s, ok := c.setByType[ir.TypeKey(t)]
	if !ok {
		return nil, false
	}
	return s.EntityType, true
}
