// Package queryir provides the abstract query description the SQL compiler
// consumes.
//
// QueryIR is the abstraction boundary between whatever front end parses a
// client request (URL query options, a YAML file, a test table) and the
// compiler in package querysql. The front end builds these values; the
// compiler never sees query strings.
//
// ARCHITECTURE:
//
//	[front end] → [Request / Expression] → [querysql.Query] → SQL + params
//
// EXPRESSIONS:
//
// Expression is a sealed interface using the marker method pattern. Only
// types in this package implement it:
//
//   - Member: a property path, optionally through navigation properties
//   - Literal: a constant (ir.IRValue)
//   - Binary: logical, comparison and arithmetic operators
//   - Unary: not, negation
//   - Method: function calls (contains, startswith, tolower, ...)
//
// This enables exhaustive type switches in the translator:
//
//	switch e := expr.(type) {
//	case Member:
//	    // column reference
//	case Literal:
//	    // bound parameter
//	...
//	}
//
// ORDERING AND PROJECTION:
//
// OrderTerm pairs an expression with a direction. The compiler only accepts
// Member expressions there; everything else is reported as unimplemented.
// SelectItem names a selected property; wildcards and navigation paths are
// representable so the compiler can reject them with a typed error rather
// than the front end silently dropping them.
package queryir
