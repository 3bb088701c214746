package querysql

import (
	"strconv"

	"github.com/roach88/edmsql/internal/ir"
)

// AliasEntry pairs a table alias with the type it stands for.
type AliasEntry struct {
	Alias string
	Type  ir.StructuralType
}

// AliasAllocator hands out one table alias per structural type.
//
// Types are identified by normalized fully-qualified name, so two distinct
// handles for the same type share an alias. Aliases are T0, T1, ... in
// allocation order and are never released.
type AliasAllocator struct {
	byKey   map[string]string
	byAlias map[string]int
	entries []AliasEntry
}

// NewAliasAllocator returns an empty allocator.
func NewAliasAllocator() *AliasAllocator {
	return &AliasAllocator{
		byKey:   make(map[string]string),
		byAlias: make(map[string]int),
	}
}

// AliasFor returns the alias of t, allocating the next one on first use.
func (a *AliasAllocator) AliasFor(t ir.StructuralType) string {
	key := ir.TypeKey(t)
	if alias, ok := a.byKey[key]; ok {
		return alias
	}
	alias := "T" + strconv.Itoa(len(a.entries))
	a.byKey[key] = alias
	a.byAlias[alias] = len(a.entries)
	a.entries = append(a.entries, AliasEntry{Alias: alias, Type: t})
	return alias
}

// Has reports whether t already has an alias.
func (a *AliasAllocator) Has(t ir.StructuralType) bool {
	_, ok := a.byKey[ir.TypeKey(t)]
	return ok
}

// TypeFor returns the type an alias was allocated for.
func (a *AliasAllocator) TypeFor(alias string) (ir.StructuralType, bool) {
	i, ok := a.byAlias[alias]
	if !ok {
		return nil, false
	}
	return a.entries[i].Type, true
}

// Entries returns all (alias, type) pairs in allocation order.
func (a *AliasAllocator) Entries() []AliasEntry {
	out := make([]AliasEntry, len(a.entries))
	copy(out, a.entries)
	return out
}

// Len returns the number of allocated aliases.
func (a *AliasAllocator) Len() int { return len(a.entries) }
