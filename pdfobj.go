// Package pdfobj provides a fluent API for reading values out of the object
// graph of a PDF file.
//
// Basic usage:
//
//	count, err := pdfobj.Open("document.pdf").Key("Pages", "Count").Int()
//	if err != nil {
//	    // handle error
//	}
//
// Paths start at the document catalog unless Object selects another
// object:
//
//	kind, err := pdfobj.Open("report.pdf").
//	    Key("Pages", "Kids").
//	    Index(0).
//	    Key("Type").
//	    Name()
//
// For editing, and for everything else the fluent API does not cover, use
// the document package directly.
package pdfobj

import (
	"github.com/tsawler/pdfobj/document"
)

// Open returns a Query over the PDF file at filename. The file is opened by
// the first terminal operation and closed when it returns.
//
// Example:
//
//	ver, err := pdfobj.Open("document.pdf").Key("Version").Name()
func Open(filename string) *Query {
	return &Query{
		filename: filename,
		options:  defaultOptions(),
	}
}

// FromDocument returns a Query over an already-open document. The caller
// remains responsible for closing it.
//
// Example:
//
//	doc, err := document.Open("document.pdf")
//	if err != nil {
//	    // handle error
//	}
//	defer doc.Close()
//	title, err := pdfobj.FromDocument(doc).Object(7).Key("Title").Text()
func FromDocument(doc *document.Document) *Query {
	return &Query{
		doc:       doc,
		ownsDoc:   false,
		docOpened: true,
		options:   defaultOptions(),
	}
}

// Must is a helper that wraps a call to a function returning (T, error)
// and panics if the error is non-nil. It is intended for use in scripts
// or tests where error handling would be cumbersome.
//
// Example:
//
//	count := pdfobj.Must(pdfobj.Open("document.pdf").Key("Pages", "Count").Int())
func Must[T any](val T, err error) T {
	if err != nil {
		panic(err)
	}
	return val
}
