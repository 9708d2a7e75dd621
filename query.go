package pdfobj

import (
	"fmt"
	"slices"
	"strings"

	"github.com/cockroachdb/errors"

	"github.com/tsawler/pdfobj/core"
	"github.com/tsawler/pdfobj/document"
)

// step is one hop of a query path: a dictionary key or an array index.
type step struct {
	key   string
	index int
}

func (s step) String() string {
	if s.key != "" {
		return "/" + s.key
	}
	return fmt.Sprintf("[%d]", s.index)
}

// Query describes a path through the object graph of a document. Each
// configuration method returns a new Query, making it safe to share a
// partially built Query and to branch from it.
type Query struct {
	// Source
	filename string
	doc      *document.Document

	// Lifecycle
	ownsDoc   bool // true if we opened the document and should close it
	docOpened bool

	// Configuration
	options queryOptions
	object  int // 0 means the catalog
	path    []step

	// Accumulated error (fail-fast)
	err error
}

// clone creates a shallow copy of the Query with its own path.
func (q *Query) clone() *Query {
	return &Query{
		filename:  q.filename,
		doc:       q.doc,
		ownsDoc:   q.ownsDoc,
		docOpened: q.docOpened,
		options:   q.options,
		object:    q.object,
		path:      slices.Clone(q.path),
		err:       q.err,
	}
}

// ensureDocument opens the document if not already open.
func (q *Query) ensureDocument() error {
	if q.docOpened {
		return nil
	}
	if q.filename == "" {
		return errors.New("no filename specified")
	}
	doc, err := document.Open(q.filename, q.options.documentOptions()...)
	if err != nil {
		return errors.Wrapf(err, "failed to open %s", q.filename)
	}
	q.doc = doc
	q.ownsDoc = true
	q.docOpened = true
	return nil
}

// Close releases the document if the Query opened it. It is safe to call
// Close multiple times.
func (q *Query) Close() error {
	if q.ownsDoc && q.doc != nil {
		err := q.doc.Close()
		q.doc = nil
		q.ownsDoc = false
		q.docOpened = false
		return err
	}
	return nil
}

// ============================================================================
// Configuration Methods (return new Query instance)
// ============================================================================

// Object starts the path at object num instead of the catalog. It resets
// any path built so far.
//
// Example:
//
//	title, err := pdfobj.Open("doc.pdf").Object(12).Key("Title").Text()
func (q *Query) Object(num int) *Query {
	nq := q.clone()
	if num <= 0 && nq.err == nil {
		nq.err = errors.Wrapf(core.ErrInvalidReference, "object number %d", num)
	}
	nq.object = num
	nq.path = nil
	return nq
}

// Key descends through one or more dictionary keys. Streams are descended
// through their dictionary.
//
// Example:
//
//	n, err := pdfobj.Open("doc.pdf").Key("Pages", "Count").Int()
func (q *Query) Key(keys ...string) *Query {
	nq := q.clone()
	for _, k := range keys {
		if k == "" && nq.err == nil {
			nq.err = errors.New("empty dictionary key")
		}
		nq.path = append(nq.path, step{key: k})
	}
	return nq
}

// Index descends into element i of an array.
//
// Example:
//
//	first, err := pdfobj.Open("doc.pdf").Key("Pages", "Kids").Index(0).Ref()
func (q *Query) Index(i int) *Query {
	nq := q.clone()
	if i < 0 && nq.err == nil {
		nq.err = &core.IndexError{Index: i}
	}
	nq.path = append(nq.path, step{index: i})
	return nq
}

// ReadOnly opens the document with every object locked. It has no effect
// on a Query created with FromDocument.
func (q *Query) ReadOnly() *Query {
	nq := q.clone()
	nq.options.readOnly = true
	return nq
}

// Logger sets the logger used when the Query opens its document.
func (q *Query) Logger(l document.Logger) *Query {
	nq := q.clone()
	nq.options.logger = l
	return nq
}

// MaxDepth bounds the nesting of direct containers followed by Reachable.
func (q *Query) MaxDepth(depth int) *Query {
	nq := q.clone()
	nq.options.maxDepth = depth
	return nq
}

// Path renders the query path, e.g. "/Root/Pages/Kids[0]".
func (q *Query) Path() string {
	return q.pathTo(len(q.path))
}

func (q *Query) pathTo(n int) string {
	var b strings.Builder
	if q.object > 0 {
		fmt.Fprintf(&b, "%d 0 obj", q.object)
	} else {
		b.WriteString("/Root")
	}
	for _, s := range q.path[:n] {
		b.WriteString(s.String())
	}
	return b.String()
}

// resolve follows the path and returns the handle it ends at.
func (q *Query) resolve() (*document.Handle, error) {
	var h *document.Handle
	var err error
	if q.object > 0 {
		h, err = q.doc.ObjectAt(q.object)
	} else {
		h, err = q.doc.Root()
	}
	if err != nil {
		return nil, errors.Wrapf(err, "at %s", q.pathTo(0))
	}
	for i, s := range q.path {
		if s.key != "" {
			var d *document.DictView
			if d, err = h.AsDictionary(); err == nil {
				h, err = d.Get(s.key)
			}
		} else {
			var a *document.ArrayView
			if a, err = h.AsArray(); err == nil {
				h, err = a.At(s.index)
			}
		}
		if err != nil {
			return nil, errors.Wrapf(err, "at %s", q.pathTo(i+1))
		}
	}
	return h, nil
}

// run opens the document, resolves the path and hands the handle to fn.
// A document the Query opened is closed before run returns.
func (q *Query) run(fn func(*document.Handle) error) error {
	if q.err != nil {
		return q.err
	}
	if err := q.ensureDocument(); err != nil {
		return err
	}
	defer q.Close()

	h, err := q.resolve()
	if err != nil {
		return err
	}
	return fn(h)
}

// ============================================================================
// Terminal Operations (resolve the path and return results)
// ============================================================================

// Do resolves the path and calls fn with the handle it ends at. The handle
// is only valid during fn when the Query opened the document itself.
//
// Example:
//
//	err := pdfobj.Open("doc.pdf").Key("Pages").Do(func(h *document.Handle) error {
//	    fmt.Println(h)
//	    return nil
//	})
func (q *Query) Do(fn func(*document.Handle) error) error {
	return q.run(fn)
}

// Value returns the object at the end of the path. Containers are returned
// by pointer and stay usable after the document is closed.
func (q *Query) Value() (core.Object, error) {
	var v core.Object
	err := q.run(func(h *document.Handle) (err error) {
		v, err = h.Value()
		return err
	})
	return v, err
}

// Syntax returns the canonical PDF syntax of the object at the end of the
// path.
//
// Example:
//
//	s, err := pdfobj.Open("doc.pdf").Key("Pages", "MediaBox").Syntax()
//	// s == "[0 0 612 792]"
func (q *Query) Syntax() (string, error) {
	v, err := q.Value()
	if err != nil {
		return "", err
	}
	var b strings.Builder
	if err := core.WriteObject(&b, v); err != nil {
		return "", err
	}
	return b.String(), nil
}

// Ref returns the reference of the object at the end of the path, or the
// zero Ref if it is a direct value.
func (q *Query) Ref() (core.Ref, error) {
	var r core.Ref
	err := q.run(func(h *document.Handle) error {
		r = h.Ref()
		return nil
	})
	return r, err
}

// Int returns the integer at the end of the path.
func (q *Query) Int() (int, error) {
	var n int
	err := q.run(func(h *document.Handle) (err error) {
		n, err = h.AsInt()
		return err
	})
	return n, err
}

// Number returns the integer or real at the end of the path.
func (q *Query) Number() (float64, error) {
	var f float64
	err := q.run(func(h *document.Handle) (err error) {
		f, err = h.AsNumber()
		return err
	})
	return f, err
}

// Name returns the name at the end of the path, without its slash.
func (q *Query) Name() (string, error) {
	var s string
	err := q.run(func(h *document.Handle) (err error) {
		s, err = h.AsName()
		return err
	})
	return s, err
}

// Text returns the text string at the end of the path, decoded.
func (q *Query) Text() (string, error) {
	var s string
	err := q.run(func(h *document.Handle) (err error) {
		s, err = h.AsText()
		return err
	})
	return s, err
}

// Keys returns the keys of the dictionary at the end of the path, in
// order.
func (q *Query) Keys() ([]string, error) {
	var keys []string
	err := q.run(func(h *document.Handle) error {
		d, err := h.AsDictionary()
		if err != nil {
			return err
		}
		seq, err := d.Keys()
		if err != nil {
			return err
		}
		keys = slices.Collect(seq)
		return nil
	})
	return keys, err
}

// Len returns the number of entries of the dictionary or array at the end
// of the path.
func (q *Query) Len() (int, error) {
	var n int
	err := q.run(func(h *document.Handle) error {
		typ, err := h.Type()
		if err != nil {
			return err
		}
		if typ == core.ObjArray {
			a, err := h.AsArray()
			if err != nil {
				return err
			}
			n, err = a.Len()
			return err
		}
		d, err := h.AsDictionary()
		if err != nil {
			return err
		}
		n, err = d.Len()
		return err
	})
	return n, err
}

// StreamData returns the decoded data of the stream at the end of the
// path.
func (q *Query) StreamData() ([]byte, error) {
	var data []byte
	err := q.run(func(h *document.Handle) (err error) {
		data, err = h.StreamData()
		return err
	})
	return data, err
}

// Reachable lists every indirect object reachable from the end of the
// path, in breadth-first order, starting with the object itself. The path
// must end at an indirect object.
func (q *Query) Reachable() ([]core.Ref, error) {
	var refs []core.Ref
	err := q.run(func(h *document.Handle) error {
		if !h.IsIndirect() {
			return errors.Wrapf(core.ErrInvalidReference, "%s is a direct value", q.Path())
		}
		return q.doc.Walk(h.Ref(), func(o *document.Handle) error {
			refs = append(refs, o.Ref())
			return nil
		})
	})
	return refs, err
}
