// Package engine provides the record store used by the object layer.
//
// A [Store] keeps the cross-reference table of a classic PDF file and
// materializes objects from it on demand. Objects are parsed lazily, one at
// a time, at the offset recorded in the table; nothing is read eagerly
// beyond the header and the cross-reference chain.
//
// Objects committed through [Store.Commit] override the file contents.
// [Store.Save] writes a complete, self-contained file with a fresh
// cross-reference table, so incremental updates are folded into one
// revision.
//
// Cross-reference streams and object streams (PDF 1.5+) are not supported.
package engine
