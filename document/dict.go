package document

import (
	"io"
	"iter"

	"github.com/cockroachdb/errors"

	"github.com/tsawler/pdfobj/core"
	"github.com/tsawler/pdfobj/registry"
)

// DictView is a guarded view over the dictionary of a handle (or the
// dictionary of a stream). It holds the handle, not a copy, so every view
// of the same object observes every change.
type DictView struct {
	h     *Handle
	ref   core.Ref
	token registry.Token
}

// Invalidate implements registry.Invalidator.
func (v *DictView) Invalidate() {
	v.h = nil
}

func (v *DictView) check() error {
	if v.h == nil || !v.h.doc.reg.Alive(v.token) {
		return &core.FinishedError{Ref: v.ref}
	}
	return v.h.check()
}

func (v *DictView) dict() *core.Dict {
	switch obj := v.h.obj.(type) {
	case *core.Dict:
		return obj
	case *core.Stream:
		if obj.Dict == nil {
			obj.Dict = core.NewDict()
		}
		return obj.Dict
	}
	// Unreachable: a handle never changes variant.
	return core.NewDict()
}

func (v *DictView) keyNotFound(key string) error {
	return errors.Wrapf(core.ErrKeyNotFound, "object %s: key %q", v.ref, key)
}

// Handle returns the handle the view is bound to.
func (v *DictView) Handle() *Handle {
	return v.h
}

// Get returns the value bound to key. A reference is resolved to the
// handle of the object it names.
func (v *DictView) Get(key string) (*Handle, error) {
	if err := v.check(); err != nil {
		return nil, err
	}
	val := v.dict().Get(key)
	if val == nil {
		return nil, v.keyNotFound(key)
	}
	return v.h.doc.resolveValue(v.h, val)
}

// GetRaw returns the value bound to key without resolving references.
func (v *DictView) GetRaw(key string) (core.Object, error) {
	if err := v.check(); err != nil {
		return nil, err
	}
	val := v.dict().Get(key)
	if val == nil {
		return nil, v.keyNotFound(key)
	}
	return val, nil
}

// IsIndirect reports whether key is bound to a reference.
func (v *DictView) IsIndirect(key string) (bool, error) {
	val, err := v.GetRaw(key)
	if err != nil {
		return false, err
	}
	_, ok := val.(core.Ref)
	return ok, nil
}

// Has reports whether key is bound. It never fails; a finished view has no
// keys.
func (v *DictView) Has(key string) bool {
	if v.check() != nil {
		return false
	}
	return v.dict().Has(key)
}

// Set binds key to val, replacing an existing binding in place or
// appending a new one.
func (v *DictView) Set(key string, val core.Object) error {
	if err := v.check(); err != nil {
		return err
	}
	if err := v.h.checkMutable("Set"); err != nil {
		return err
	}
	if val == nil {
		val = core.Null{}
	}
	v.dict().Set(key, val)
	v.h.markDirty()
	return nil
}

// SetHandle binds key to the object of h: by reference if h is indirect or
// anonymous (numbering it), by value if h is direct.
func (v *DictView) SetHandle(key string, h *Handle) error {
	if err := v.check(); err != nil {
		return err
	}
	if err := v.h.checkMutable("Set"); err != nil {
		return err
	}
	val, err := v.h.doc.binding(h)
	if err != nil {
		return err
	}
	v.dict().Set(key, val)
	v.h.markDirty()
	return nil
}

// Delete removes keys. Deleting a missing key is logged, not an error.
// With no keys, every binding is removed.
func (v *DictView) Delete(keys ...string) error {
	if err := v.check(); err != nil {
		return err
	}
	if err := v.h.checkMutable("Delete"); err != nil {
		return err
	}
	d := v.dict()
	if len(keys) == 0 {
		if d.Len() > 0 {
			d.Clear()
			v.h.markDirty()
		}
		return nil
	}
	for _, key := range keys {
		if !d.Delete(key) {
			v.h.doc.logger.Infof("object %s: delete of missing key %q", v.ref, key)
			continue
		}
		v.h.markDirty()
	}
	return nil
}

// Clear removes every binding.
func (v *DictView) Clear() error {
	if err := v.check(); err != nil {
		return err
	}
	if err := v.h.checkMutable("Clear"); err != nil {
		return err
	}
	v.dict().Clear()
	v.h.markDirty()
	return nil
}

// Keys returns the keys in insertion order. The key set is captured when
// Keys is called; the sequence may be ranged over any number of times.
func (v *DictView) Keys() (iter.Seq[string], error) {
	if err := v.check(); err != nil {
		return nil, err
	}
	snapshot := v.dict().Keys()
	return func(yield func(string) bool) {
		for _, k := range snapshot {
			if !yield(k) {
				return
			}
		}
	}, nil
}

// Len returns the number of bindings.
func (v *DictView) Len() (int, error) {
	if err := v.check(); err != nil {
		return 0, err
	}
	return v.dict().Len(), nil
}

// Write serializes the underlying object, as Handle.Write does.
func (v *DictView) Write(w io.Writer) error {
	if err := v.check(); err != nil {
		return err
	}
	return v.h.Write(w)
}
