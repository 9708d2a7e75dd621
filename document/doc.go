// Package document implements the mutable object graph of a PDF document.
//
// A [Document] hands out a [Handle] per object. Indirect objects are
// materialized one at a time, on first access, and resolving the same
// reference twice returns the same handle:
//
//	doc, err := document.Open("in.pdf")
//	root, err := doc.Root()
//	catalog, err := root.AsDictionary()
//	pages, err := catalog.Get("Pages") // resolves "2 0 R"
//
// # Views
//
// [Handle.AsDictionary] and [Handle.AsArray] return views bound to the
// handle. Reads through a view resolve references transparently; GetRaw
// and AtRaw return the stored value unresolved. Mutations are rejected
// with core.ErrImmutableViolation while the object is immutable, and mark
// the owning indirect object dirty on success.
//
// # Lifetime
//
// Every handle and view is tracked by the document. [Document.Finish]
// invalidates all of them at once; any later use fails with
// core.ErrUseAfterFinish.
//
// # Writing
//
// [Document.Save] numbers new objects, commits dirty ones and writes a
// complete file. [Document.SaveFile] and [Handle.WriteFile] serialize
// synchronously and write the file in the background, reporting the
// outcome through a [Pending] and optional callbacks.
package document
