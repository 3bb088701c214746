// Package ir provides the entity data model handles the compiler works against.
//
// This package contains type definitions only. All other internal packages
// import ir; ir imports nothing internal. This keeps the model as the
// foundational layer with no circular dependencies.
//
// Key design constraints:
//   - Structural types are identified by fully-qualified name, never by
//     pointer identity. Two handles with equal names denote the same type.
//   - Types and properties are immutable once built. The compiler reads them
//     and never creates or owns them.
//   - Literal values are a sealed family (IRValue) so translators can use
//     exhaustive type switches.
package ir
