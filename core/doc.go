// Package core provides the PDF object model and the low-level syntax used
// to read and write it.
//
// # Object Types
//
// Every value satisfies the [Object] interface:
//
//   - [Null], [Bool], [Int], [Real], [String] and [Name] are plain values
//   - [Array] and [Dict] are containers and are always used by pointer, so
//     every holder of a container observes the same elements
//   - [Stream] pairs a dictionary with raw data
//   - [Ref] names an indirect object by number and generation
//
// Dictionaries preserve key insertion order, and that order is kept when the
// dictionary is serialized.
//
// # Parsing
//
// The [Lexer] tokenizes PDF syntax and the [Parser] builds objects from the
// tokens. [Parser.ParseIndirectObject] reads a complete "N G obj ... endobj"
// definition, including stream data. A [ReferenceResolver] supplies stream
// lengths given as indirect references.
//
// # Cross-Reference Tables
//
// [XRefParser] locates and parses classic cross-reference tables, following
// /Prev links to earlier revisions. [WriteXRef] emits a table for a freshly
// serialized file.
//
// # Serialization
//
// [WriteObject] and [WriteIndirect] produce canonical PDF syntax for an
// object. Stream /Length entries are always recomputed from the data.
//
// # Errors
//
// The sentinel errors declared in this package, such as [ErrTypeMismatch]
// and [ErrUseAfterFinish], form the error taxonomy for the whole module.
// Match them with errors.Is.
package core
