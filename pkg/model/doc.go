// Package model holds the typed view of the registry that the resolver works
// on: core versions, extensions ("items") and their per-version dependency
// maps, plus the [Index] that orders versions and resolves aliases.
//
// # Ownership
//
// The [Index] owns the canonical version sequence and the name to item
// table. Everything else borrows from it. During resolution the index is
// read-only; each [Item] only has its own [DependencyMap] written.
//
// # Aliases and promotion
//
// An extension's promotedto attribute names either another extension or a
// core version:
//
//   - another extension: the item is an alias. It gets no output index of its
//     own, and every reference to it is rewritten to the canonical target.
//   - a version: the item became core at that version. The range finalizer
//     marks that version and every later one with [PromotedMarker].
//
// When promotedto is absent, obsoletedby is consulted the same way.
package model
