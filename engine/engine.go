package engine

import (
	"io"

	"github.com/tsawler/pdfobj/core"
)

// Engine is the record store beneath the object layer. It owns the
// cross-reference table and the on-disk layout; callers only see objects.
type Engine interface {
	// MaterializeObject returns the object stored under num. A number that
	// is absent, free, or stored under another generation reports
	// core.ErrObjectNotFound.
	MaterializeObject(num, gen int) (core.Object, error)
	// SerializeObject writes the canonical representation of obj to w.
	SerializeObject(w io.Writer, ref core.Ref, obj core.Object) error
	// AllocateObjectNumber reserves a fresh identity.
	AllocateObjectNumber() core.Ref
	// Generation returns the current generation of an in-use object.
	Generation(num int) (int, bool)
	// Commit replaces the stored value of ref.
	Commit(ref core.Ref, obj core.Object)
	// Objects lists the in-use objects in ascending number order.
	Objects() []core.Ref
	// Trailer returns the live trailer dictionary.
	Trailer() *core.Dict
	// Save writes a complete file holding every in-use object.
	Save(w io.Writer, trailer *core.Dict) error
	Close() error
}

var _ Engine = (*Store)(nil)
