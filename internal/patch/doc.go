// Package patch applies idempotent, anchor-based edits to a project's
// bootstrap source file.
//
// Two independent insertions are made: an import of the generated auth
// package, and a call that wires the provider into the designated
// initialization routine. Each insertion walks an ordered list of anchor
// strategies from most to least specific and lands at the first match; the
// final fallback is chosen so the edit never produces invalid syntax, even
// when correct placement cannot be guaranteed for an unrecognized file
// shape.
//
// The patcher is idempotent: when the registration symbol is already present
// anywhere in the file it reports modified=false and leaves the file alone,
// unless force is set, in which case a duplicate insertion is accepted as
// the cost of forcing.
package patch
