package document

import (
	"io"

	"github.com/tsawler/pdfobj/core"
	"github.com/tsawler/pdfobj/registry"
)

// ArrayView is a guarded, double-ended view over the array of a handle.
// Like DictView it holds the handle, not a copy.
type ArrayView struct {
	h     *Handle
	ref   core.Ref
	token registry.Token
}

// Invalidate implements registry.Invalidator.
func (v *ArrayView) Invalidate() {
	v.h = nil
}

func (v *ArrayView) check() error {
	if v.h == nil || !v.h.doc.reg.Alive(v.token) {
		return &core.FinishedError{Ref: v.ref}
	}
	return v.h.check()
}

func (v *ArrayView) array() *core.Array {
	return v.h.obj.(*core.Array)
}

func (v *ArrayView) outOfRange(i, n int) error {
	return &core.IndexError{Ref: v.ref, Index: i, Len: n}
}

// Handle returns the handle the view is bound to.
func (v *ArrayView) Handle() *Handle {
	return v.h
}

// Len returns the number of elements.
func (v *ArrayView) Len() (int, error) {
	if err := v.check(); err != nil {
		return 0, err
	}
	return v.array().Len(), nil
}

// At returns element i, resolving a reference to the handle of the object
// it names.
func (v *ArrayView) At(i int) (*Handle, error) {
	val, err := v.AtRaw(i)
	if err != nil {
		return nil, err
	}
	return v.h.doc.resolveValue(v.h, val)
}

// AtRaw returns element i without resolving references.
func (v *ArrayView) AtRaw(i int) (core.Object, error) {
	if err := v.check(); err != nil {
		return nil, err
	}
	a := v.array()
	if i < 0 || i >= a.Len() {
		return nil, v.outOfRange(i, a.Len())
	}
	return a.Get(i), nil
}

// IsIndirect reports whether element i is a reference.
func (v *ArrayView) IsIndirect(i int) (bool, error) {
	val, err := v.AtRaw(i)
	if err != nil {
		return false, err
	}
	_, ok := val.(core.Ref)
	return ok, nil
}

func (v *ArrayView) checkMutable(op string) error {
	if err := v.check(); err != nil {
		return err
	}
	return v.h.checkMutable(op)
}

// Set replaces element i.
func (v *ArrayView) Set(i int, val core.Object) error {
	if err := v.checkMutable("Set"); err != nil {
		return err
	}
	a := v.array()
	if val == nil {
		val = core.Null{}
	}
	if !a.Set(i, val) {
		return v.outOfRange(i, a.Len())
	}
	v.h.markDirty()
	return nil
}

// SetHandle replaces element i with the object of h, stored as
// DictView.SetHandle stores it.
func (v *ArrayView) SetHandle(i int, h *Handle) error {
	if err := v.checkMutable("Set"); err != nil {
		return err
	}
	a := v.array()
	if i < 0 || i >= a.Len() {
		return v.outOfRange(i, a.Len())
	}
	val, err := v.h.doc.binding(h)
	if err != nil {
		return err
	}
	a.Set(i, val)
	v.h.markDirty()
	return nil
}

// Push appends val at the tail.
func (v *ArrayView) Push(val core.Object) error {
	if err := v.checkMutable("Push"); err != nil {
		return err
	}
	if val == nil {
		val = core.Null{}
	}
	v.array().Append(val)
	v.h.markDirty()
	return nil
}

// PushHandle appends the object of h at the tail.
func (v *ArrayView) PushHandle(h *Handle) error {
	if err := v.checkMutable("Push"); err != nil {
		return err
	}
	val, err := v.h.doc.binding(h)
	if err != nil {
		return err
	}
	v.array().Append(val)
	v.h.markDirty()
	return nil
}

// Unshift inserts val at the head.
func (v *ArrayView) Unshift(val core.Object) error {
	if err := v.checkMutable("Unshift"); err != nil {
		return err
	}
	if val == nil {
		val = core.Null{}
	}
	v.array().Prepend(val)
	v.h.markDirty()
	return nil
}

// UnshiftHandle inserts the object of h at the head.
func (v *ArrayView) UnshiftHandle(h *Handle) error {
	if err := v.checkMutable("Unshift"); err != nil {
		return err
	}
	val, err := v.h.doc.binding(h)
	if err != nil {
		return err
	}
	v.array().Prepend(val)
	v.h.markDirty()
	return nil
}

// Pop removes the tail element and returns it resolved. The element is
// resolved before it is removed, so a failed resolution leaves the array
// unchanged: a dangling reference, or the null reference 0 0 R, cannot be
// popped and has to be removed with Set or Clear. On an empty array Pop
// reports index -1.
func (v *ArrayView) Pop() (*Handle, error) {
	if err := v.checkMutable("Pop"); err != nil {
		return nil, err
	}
	a := v.array()
	n := a.Len()
	if n == 0 {
		return nil, v.outOfRange(-1, 0)
	}
	h, err := v.take(a.Get(n - 1))
	if err != nil {
		return nil, err
	}
	a.RemoveLast()
	v.h.markDirty()
	return h, nil
}

// Shift removes the head element and returns it resolved. Like Pop, it
// leaves the array unchanged when the element cannot be resolved.
func (v *ArrayView) Shift() (*Handle, error) {
	if err := v.checkMutable("Shift"); err != nil {
		return nil, err
	}
	a := v.array()
	if a.Len() == 0 {
		return nil, v.outOfRange(0, 0)
	}
	h, err := v.take(a.Get(0))
	if err != nil {
		return nil, err
	}
	a.RemoveFirst()
	v.h.markDirty()
	return h, nil
}

// take resolves an element that is about to be removed. A direct value
// leaves its container, so its handle becomes a free-standing anonymous
// object.
func (v *ArrayView) take(val core.Object) (*Handle, error) {
	if ref, ok := val.(core.Ref); ok {
		return v.h.doc.GetObject(ref)
	}
	return v.h.doc.detached(v.h.owner(), val), nil
}

// Clear removes every element.
func (v *ArrayView) Clear() error {
	if err := v.checkMutable("Clear"); err != nil {
		return err
	}
	v.array().Clear()
	v.h.markDirty()
	return nil
}

// Write serializes the underlying object, as Handle.Write does.
func (v *ArrayView) Write(w io.Writer) error {
	if err := v.check(); err != nil {
		return err
	}
	return v.h.Write(w)
}
