package document

import (
	"bytes"
	"io"
	"sync/atomic"

	"github.com/cockroachdb/errors"

	"github.com/tsawler/pdfobj/core"
	"github.com/tsawler/pdfobj/registry"
)

// Handle is bound to one object of a document. Indirect objects have one
// handle per document session; values embedded directly in a container
// get a handle whose owner is the enclosing indirect object, and
// immutability and dirtiness are always those of the owner.
//
// A handle is invalidated by Document.Finish; every method that reads or
// writes the object then fails with core.ErrUseAfterFinish.
type Handle struct {
	doc *Document
	// ref is zero for anonymous objects and for direct values.
	ref core.Ref
	obj core.Object
	// parent is set for direct values.
	parent *Handle
	locked bool
	// mods counts mutations and saved the count last written out; the
	// object is dirty while they differ. Both are atomic because a
	// background file write marks the object clean once it lands.
	mods  atomic.Uint64
	saved atomic.Uint64
	token registry.Token

	dict *DictView
	arr  *ArrayView
}

// Invalidate implements registry.Invalidator.
func (h *Handle) Invalidate() {
	h.obj = nil
	h.dict = nil
	h.arr = nil
}

func (h *Handle) owner() *Handle {
	for h.parent != nil {
		h = h.parent
	}
	return h
}

// diagRef is the reference reported in errors: the handle's own, or its
// owner's for direct values.
func (h *Handle) diagRef() core.Ref {
	return h.owner().ref
}

func (h *Handle) check() error {
	if h == nil {
		return errors.New("pdfobj: nil handle")
	}
	if !h.doc.reg.Alive(h.token) {
		return &core.FinishedError{Ref: h.diagRef()}
	}
	return nil
}

func (h *Handle) checkMutable(op string) error {
	if err := h.check(); err != nil {
		return err
	}
	if h.owner().locked {
		return errors.Wrapf(core.ErrImmutableViolation, "%s on object %s", errors.Safe(op), h.diagRef())
	}
	return nil
}

func (h *Handle) markDirty() {
	h.owner().mods.Add(1)
}

// markClean records that the state as of mutation count at was written.
// A later mutation keeps the object dirty.
func (h *Handle) markClean(at uint64) {
	for {
		cur := h.saved.Load()
		if cur >= at || h.saved.CompareAndSwap(cur, at) {
			return
		}
	}
}

func (h *Handle) mismatch(want string) error {
	return &core.TypeMismatchError{Ref: h.diagRef(), Want: want, Got: h.obj.Type()}
}

// Ref returns the object's reference. It is zero for direct values and
// for anonymous objects that have not been numbered yet. The reference is
// the handle's identity and stays readable after Finish.
func (h *Handle) Ref() core.Ref {
	return h.ref
}

// IsIndirect reports whether the handle is bound to a numbered object.
// Like Ref it stays readable after Finish.
func (h *Handle) IsIndirect() bool {
	return h.ref.IsIndirect()
}

// IsDirect reports whether the handle is bound to a value embedded in a
// container.
func (h *Handle) IsDirect() bool {
	return h.parent != nil
}

// Immutable reports whether mutations are rejected. It reads the lock
// flag kept by the handle, which Finish leaves as it was; after Finish
// every mutation fails with core.ErrUseAfterFinish regardless.
func (h *Handle) Immutable() bool {
	return h.owner().locked
}

// SetImmutable locks or unlocks the object for every handle and view that
// shares it.
func (h *Handle) SetImmutable(locked bool) error {
	if err := h.check(); err != nil {
		return err
	}
	h.owner().locked = locked
	return nil
}

// Dirty reports whether the object changed since it was last written. It
// is bookkeeping kept by the handle and stays readable after Finish, so a
// caller can still learn that unsaved changes were dropped.
func (h *Handle) Dirty() bool {
	o := h.owner()
	return o.mods.Load() != o.saved.Load()
}

// Type returns the variant of the object.
func (h *Handle) Type() (core.ObjectType, error) {
	if err := h.check(); err != nil {
		return core.ObjNull, err
	}
	return h.obj.Type(), nil
}

// Value returns the underlying object. Containers are returned by pointer;
// mutating them directly bypasses immutability and dirty tracking.
func (h *Handle) Value() (core.Object, error) {
	if err := h.check(); err != nil {
		return nil, err
	}
	return h.obj, nil
}

// AsBool returns the value of a boolean.
func (h *Handle) AsBool() (bool, error) {
	if err := h.check(); err != nil {
		return false, err
	}
	b, ok := h.obj.(core.Bool)
	if !ok {
		return false, h.mismatch("Bool")
	}
	return bool(b), nil
}

// AsNumber returns the value of an integer or real.
func (h *Handle) AsNumber() (float64, error) {
	if err := h.check(); err != nil {
		return 0, err
	}
	f, ok := core.Number(h.obj)
	if !ok {
		return 0, h.mismatch("Number")
	}
	return f, nil
}

// AsInt returns the value of an integer.
func (h *Handle) AsInt() (int, error) {
	if err := h.check(); err != nil {
		return 0, err
	}
	i, ok := h.obj.(core.Int)
	if !ok {
		return 0, h.mismatch("Int")
	}
	return int(i), nil
}

// AsName returns a name without its leading slash.
func (h *Handle) AsName() (string, error) {
	if err := h.check(); err != nil {
		return "", err
	}
	n, ok := h.obj.(core.Name)
	if !ok {
		return "", h.mismatch("Name")
	}
	return string(n), nil
}

// AsString returns the raw bytes of a string.
func (h *Handle) AsString() (string, error) {
	if err := h.check(); err != nil {
		return "", err
	}
	s, ok := h.obj.(core.String)
	if !ok {
		return "", h.mismatch("String")
	}
	return string(s), nil
}

// AsText decodes a text string.
func (h *Handle) AsText() (string, error) {
	if err := h.check(); err != nil {
		return "", err
	}
	s, ok := h.obj.(core.String)
	if !ok {
		return "", h.mismatch("String")
	}
	return core.DecodeText(s)
}

// AsRef returns a reference value.
func (h *Handle) AsRef() (core.Ref, error) {
	if err := h.check(); err != nil {
		return core.Ref{}, err
	}
	r, ok := h.obj.(core.Ref)
	if !ok {
		return core.Ref{}, h.mismatch("Ref")
	}
	return r, nil
}

// HasStream reports whether the object is a stream.
func (h *Handle) HasStream() (bool, error) {
	if err := h.check(); err != nil {
		return false, err
	}
	_, ok := h.obj.(*core.Stream)
	return ok, nil
}

// StreamLength returns the length of the raw stream data.
func (h *Handle) StreamLength() (int, error) {
	s, err := h.stream()
	if err != nil {
		return 0, err
	}
	return s.Len(), nil
}

// AsRawData returns the raw, still-encoded stream data.
func (h *Handle) AsRawData() ([]byte, error) {
	s, err := h.stream()
	if err != nil {
		return nil, err
	}
	return s.Data, nil
}

// StreamData returns the stream data with its filters applied.
func (h *Handle) StreamData() ([]byte, error) {
	s, err := h.stream()
	if err != nil {
		return nil, err
	}
	data, err := s.Decode()
	if err != nil {
		return nil, errors.Wrapf(err, "decoding stream %s", h.diagRef())
	}
	return data, nil
}

// SetStreamData replaces the stream data, compressing it with Flate when
// compress is set.
func (h *Handle) SetStreamData(data []byte, compress bool) error {
	if err := h.checkMutable("SetStreamData"); err != nil {
		return err
	}
	s, ok := h.obj.(*core.Stream)
	if !ok {
		return h.mismatch("Stream")
	}
	if compress {
		if err := s.SetFlateData(data); err != nil {
			return err
		}
	} else {
		s.Data = data
		s.Dict.Delete("Filter")
		s.Dict.Delete("DecodeParms")
		s.Dict.Set("Length", core.Int(len(data)))
	}
	h.markDirty()
	return nil
}

func (h *Handle) stream() (*core.Stream, error) {
	if err := h.check(); err != nil {
		return nil, err
	}
	s, ok := h.obj.(*core.Stream)
	if !ok {
		return nil, h.mismatch("Stream")
	}
	return s, nil
}

// AsDictionary returns a view over a dictionary, or over the dictionary of
// a stream. The view is bound to this handle, not to a copy.
func (h *Handle) AsDictionary() (*DictView, error) {
	if err := h.check(); err != nil {
		return nil, err
	}
	switch h.obj.(type) {
	case *core.Dict, *core.Stream:
	default:
		return nil, h.mismatch("Dict")
	}
	if h.dict == nil {
		h.dict = &DictView{h: h, ref: h.diagRef()}
		h.dict.token = h.doc.reg.Track(h.dict)
	}
	return h.dict, nil
}

// AsArray returns a view over an array. The view is bound to this handle,
// not to a copy.
func (h *Handle) AsArray() (*ArrayView, error) {
	if err := h.check(); err != nil {
		return nil, err
	}
	if _, ok := h.obj.(*core.Array); !ok {
		return nil, h.mismatch("Array")
	}
	if h.arr == nil {
		h.arr = &ArrayView{h: h, ref: h.diagRef()}
		h.arr.token = h.doc.reg.Track(h.arr)
	}
	return h.arr, nil
}

// Clear resets the object to the empty value of its variant and marks it
// dirty. Containers are emptied in place, so every alias observes the
// change. A direct scalar is a copy of the value in its container; clearing
// it does not change the container.
func (h *Handle) Clear() error {
	if err := h.checkMutable("Clear"); err != nil {
		return err
	}
	switch v := h.obj.(type) {
	case *core.Dict:
		v.Clear()
	case *core.Array:
		v.Clear()
	case *core.Stream:
		if v.Dict == nil {
			v.Dict = core.NewDict()
		}
		v.Dict.Clear()
		v.Data = nil
	case core.Bool:
		h.obj = core.Bool(false)
	case core.Int:
		h.obj = core.Int(0)
	case core.Real:
		h.obj = core.Real(0)
	case core.String:
		h.obj = core.String("")
	case core.Name:
		h.obj = core.Name("")
	case core.Ref:
		h.obj = core.Ref{}
	}
	h.markDirty()
	return nil
}

// Write serializes the object to w. An indirect object is written as a
// complete "N G obj" definition and committed to the engine, which clears
// its dirty flag; an anonymous object is numbered first. A direct value is
// written as bare syntax. Engine errors are returned unchanged and leave
// the object dirty.
func (h *Handle) Write(w io.Writer) error {
	at, err := h.serialize(w)
	if err != nil {
		return err
	}
	h.markClean(at)
	return nil
}

// serialize writes the object to w and commits it to the engine. It
// returns the mutation count the written state corresponds to; the caller
// marks the object clean once the bytes have landed.
func (h *Handle) serialize(w io.Writer) (uint64, error) {
	if err := h.check(); err != nil {
		return 0, err
	}
	eng := h.doc.eng
	if h.parent != nil {
		return 0, eng.SerializeObject(w, core.Ref{}, h.obj)
	}
	if !h.ref.IsIndirect() {
		h.doc.adopt(h)
	}
	at := h.mods.Load()
	if err := eng.SerializeObject(w, h.ref, h.obj); err != nil {
		return 0, err
	}
	eng.Commit(h.ref, h.obj)
	return at, nil
}

// WriteFile writes the object to path in the background. The object is
// serialized before WriteFile returns and the file is replaced atomically.
// The object is marked clean only once the file is in place, so a failed
// write leaves it dirty as a failed Write does. Callbacks run on the
// writing goroutine and observe the same error as Pending.Wait.
func (h *Handle) WriteFile(path string, callbacks ...func(error)) *Pending {
	var buf bytes.Buffer
	at, err := h.serialize(&buf)
	if err != nil {
		return failed(err, callbacks)
	}
	return h.doc.writeFile(path, buf.Bytes(), func() { h.markClean(at) }, callbacks)
}

// String implements fmt.Stringer.
func (h *Handle) String() string {
	if h == nil || h.obj == nil {
		return "<finished>"
	}
	if h.ref.IsIndirect() {
		return h.ref.String() + " " + h.obj.String()
	}
	return h.obj.String()
}
