package document

import (
	"bytes"
	"io"
	"time"

	"github.com/cockroachdb/errors"

	"github.com/tsawler/pdfobj/core"
	"github.com/tsawler/pdfobj/engine"
	"github.com/tsawler/pdfobj/registry"
	"github.com/tsawler/pdfobj/resolver"
)

// SkipChildren is returned by a Walk callback to skip the references
// nested in the object just visited.
var SkipChildren = errors.New("skip children")

// Document is the object graph of one PDF file. It is not safe for
// concurrent use; only the background part of WriteFile and SaveFile runs
// on another goroutine, over a snapshot.
type Document struct {
	opts    *Options
	logger  Logger
	metrics *metrics
	eng     engine.Engine
	res     *resolver.Resolver[*Handle]
	reg     *registry.Registry
	// anon holds objects created by NewObject that have no number yet.
	anon []*Handle
	// lockAll marks every materialized object immutable.
	lockAll bool
}

// New returns an empty document backed by an in-memory store.
func New(opts ...Option) *Document {
	return NewWithEngine(engine.New(), opts...)
}

// Open opens the PDF file at path. Objects are materialized on demand, so
// the file stays open until Close.
func Open(path string, opts ...Option) (*Document, error) {
	store, err := engine.Open(path)
	if err != nil {
		return nil, err
	}
	return NewWithEngine(store, opts...), nil
}

// Load reads a document from the size bytes of r, which must remain
// readable for the document's lifetime.
func Load(r io.ReaderAt, size int64, opts ...Option) (*Document, error) {
	store, err := engine.Load(r, size)
	if err != nil {
		return nil, err
	}
	return NewWithEngine(store, opts...), nil
}

// NewWithEngine returns a document over eng.
func NewWithEngine(eng engine.Engine, opts ...Option) *Document {
	o := &Options{}
	for _, opt := range opts {
		opt(o)
	}
	o = o.EnsureDefaults()

	d := &Document{
		opts:    o,
		logger:  o.Logger,
		metrics: newMetrics(o.Registerer),
		eng:     eng,
		lockAll: o.ReadOnly,
	}
	d.res = resolver.New(eng, d.wrap,
		resolver.WithCapacity(o.CacheCapacity),
		resolver.WithMetrics(d.metrics.resolverHits, d.metrics.resolverMisses))
	d.reg = registry.New(
		registry.WithTrackedGauge(d.metrics.tracked),
		registry.WithFinishCounter(d.metrics.finishes))

	if eng.Trailer().Has("Encrypt") {
		d.lockAll = true
		d.logger.Infof("document is encrypted; all objects are read-only")
	}
	return d
}

// wrap builds the handle for a freshly materialized object.
func (d *Document) wrap(ref core.Ref, obj core.Object) *Handle {
	h := &Handle{doc: d, ref: ref, obj: obj, locked: d.lockAll}
	h.token = d.reg.Track(h)
	d.metrics.materialized.Inc()
	return h
}

// child builds the handle for a value embedded directly in parent.
func (d *Document) child(parent *Handle, obj core.Object) *Handle {
	h := &Handle{doc: d, obj: obj, parent: parent}
	h.token = d.reg.Track(h)
	return h
}

// detached builds a handle for a value removed from its container. It
// keeps the lock state of its former owner.
func (d *Document) detached(owner *Handle, obj core.Object) *Handle {
	h := &Handle{doc: d, obj: obj, locked: owner.locked}
	h.token = d.reg.Track(h)
	return h
}

func (d *Document) checkOpen(ref core.Ref) error {
	if d.reg.Finished() {
		return &core.FinishedError{Ref: ref}
	}
	return nil
}

// GetObject resolves ref into its handle. Resolving an equal reference
// again returns the same handle.
func (d *Document) GetObject(ref core.Ref) (*Handle, error) {
	if err := d.checkOpen(ref); err != nil {
		return nil, err
	}
	return d.res.Resolve(ref)
}

// ObjectAt returns the handle of object num under its current generation.
func (d *Document) ObjectAt(num int) (*Handle, error) {
	if err := d.checkOpen(core.Ref{Number: num}); err != nil {
		return nil, err
	}
	gen, ok := d.eng.Generation(num)
	if !ok {
		return nil, errors.Wrapf(core.ErrObjectNotFound, "object %d", errors.Safe(num))
	}
	return d.GetObject(core.Ref{Number: num, Generation: gen})
}

// resolveValue turns a value read from a container owned by parent into a
// handle, resolving references.
func (d *Document) resolveValue(parent *Handle, v core.Object) (*Handle, error) {
	if ref, ok := v.(core.Ref); ok {
		return d.GetObject(ref)
	}
	return d.child(parent, v), nil
}

// NewObject creates an anonymous object holding v. It receives an object
// number when it is first stored by reference, written, or saved.
func (d *Document) NewObject(v core.Object) (*Handle, error) {
	if err := d.checkOpen(core.Ref{}); err != nil {
		return nil, err
	}
	if v == nil {
		v = core.Null{}
	}
	h := &Handle{doc: d, obj: v}
	h.markDirty()
	h.token = d.reg.Track(h)
	d.anon = append(d.anon, h)
	return h, nil
}

// NewDictionary creates an anonymous empty dictionary.
func (d *Document) NewDictionary() (*Handle, error) {
	return d.NewObject(core.NewDict())
}

// NewArray creates an anonymous empty array.
func (d *Document) NewArray() (*Handle, error) {
	return d.NewObject(core.NewArray())
}

// NewStream creates an anonymous stream holding raw data.
func (d *Document) NewStream(data []byte) (*Handle, error) {
	return d.NewObject(core.NewStream(data))
}

// adopt gives an anonymous top-level handle an object number.
func (d *Document) adopt(h *Handle) {
	h.ref = d.eng.AllocateObjectNumber()
	h.markDirty()
	d.res.Add(h.ref, h)
}

// binding returns how h is stored inside a container: an indirect handle
// by reference, a direct one by value. Anonymous handles are numbered
// first.
func (d *Document) binding(h *Handle) (core.Object, error) {
	if err := h.check(); err != nil {
		return nil, err
	}
	if h.doc != d {
		return nil, errors.Wrap(core.ErrInvalidReference, "handle belongs to another document")
	}
	if h.parent != nil {
		return h.obj, nil
	}
	if !h.ref.IsIndirect() {
		d.adopt(h)
	}
	return h.ref, nil
}

// Root returns the document catalog named by the trailer.
func (d *Document) Root() (*Handle, error) {
	if err := d.checkOpen(core.Ref{}); err != nil {
		return nil, err
	}
	ref, ok := d.eng.Trailer().GetRef("Root")
	if !ok {
		return nil, errors.Wrap(core.ErrKeyNotFound, "trailer has no /Root")
	}
	return d.GetObject(ref)
}

// SetRoot makes h the document catalog.
func (d *Document) SetRoot(h *Handle) error {
	if err := h.check(); err != nil {
		return err
	}
	if h.parent != nil {
		return errors.Wrap(core.ErrInvalidReference, "the catalog must be an indirect object")
	}
	ref, err := d.binding(h)
	if err != nil {
		return err
	}
	d.eng.Trailer().Set("Root", ref)
	return nil
}

// Trailer returns the live trailer dictionary.
func (d *Document) Trailer() *core.Dict {
	return d.eng.Trailer()
}

// Objects lists the references of every in-use object.
func (d *Document) Objects() []core.Ref {
	return d.eng.Objects()
}

// Encrypted reports whether the document carries an encryption dictionary.
func (d *Document) Encrypted() bool {
	return d.eng.Trailer().Has("Encrypt")
}

// Walk visits ref and every indirect object reachable from it, breadth
// first, each exactly once. Cycles are cut by reference identity. fn may
// return SkipChildren to prune; any other error stops the walk.
func (d *Document) Walk(ref core.Ref, fn func(*Handle) error) error {
	visited := make(map[core.Ref]bool)
	queue := []core.Ref{ref}
	for len(queue) > 0 {
		next := queue[0]
		queue = queue[1:]
		if visited[next] {
			continue
		}
		visited[next] = true

		h, err := d.GetObject(next)
		if err != nil {
			return err
		}
		if err := fn(h); err != nil {
			if errors.Is(err, SkipChildren) {
				continue
			}
			return err
		}
		refs, err := resolver.References(h.obj, d.opts.MaxWalkDepth)
		if err != nil {
			return errors.Wrapf(err, "object %s", next)
		}
		for _, r := range refs {
			if r.IsIndirect() && !visited[r] {
				queue = append(queue, r)
			}
		}
	}
	return nil
}

// commit numbers pending anonymous objects and hands every dirty object to
// the engine. The returned func marks them clean; it is called once the
// serialized document has been written out.
func (d *Document) commit() (done func()) {
	for _, h := range d.anon {
		if !h.ref.IsIndirect() && d.reg.Alive(h.token) {
			d.adopt(h)
		}
	}
	d.anon = nil

	type mark struct {
		h  *Handle
		at uint64
	}
	var marks []mark
	d.res.All(func(ref core.Ref, h *Handle) bool {
		if h.Dirty() {
			marks = append(marks, mark{h: h, at: h.mods.Load()})
			d.eng.Commit(ref, h.obj)
		}
		return true
	})
	return func() {
		for _, m := range marks {
			m.h.markClean(m.at)
		}
	}
}

// save commits every change and writes the complete document to w. The
// returned func marks the committed objects clean.
func (d *Document) save(w io.Writer) (func(), error) {
	if err := d.checkOpen(core.Ref{}); err != nil {
		return nil, err
	}
	done := d.commit()
	if err := d.eng.Save(w, nil); err != nil {
		return nil, err
	}
	return done, nil
}

// Save commits every change and writes the complete document to w. On
// failure every changed object stays dirty.
func (d *Document) Save(w io.Writer) error {
	done, err := d.save(w)
	if err != nil {
		return err
	}
	done()
	return nil
}

// SaveFile saves the document to path in the background. The document is
// serialized before SaveFile returns; only the file write is deferred, and
// it replaces path atomically. Changed objects are marked clean once the
// file is in place. Callbacks run on the writing goroutine and observe the
// same error as Pending.Wait.
func (d *Document) SaveFile(path string, callbacks ...func(error)) *Pending {
	var buf bytes.Buffer
	done, err := d.save(&buf)
	if err != nil {
		return failed(err, callbacks)
	}
	return d.writeFile(path, buf.Bytes(), done, callbacks)
}

// writeFile writes data to path in the background and calls written once
// the file is in place.
func (d *Document) writeFile(
	path string, data []byte, written func(), callbacks []func(error),
) *Pending {
	return start(func() error {
		defer func(begin time.Time) {
			d.metrics.writeDuration.Observe(time.Since(begin).Seconds())
		}(time.Now())
		if err := writeFileAtomic(path, data); err != nil {
			d.logger.Errorf("writing %s: %v", path, err)
			return err
		}
		written()
		return nil
	}, callbacks)
}

// TrackChild records x so that Finish invalidates it. Every handle and
// view the document hands out is tracked already.
func (d *Document) TrackChild(x registry.Invalidator) registry.Token {
	return d.reg.Track(x)
}

// Alive reports whether tok, issued by TrackChild, is still valid.
func (d *Document) Alive(tok registry.Token) bool {
	return d.reg.Alive(tok)
}

// Finish invalidates every handle and view handed out so far. Later use of
// any of them fails with core.ErrUseAfterFinish. Finish is idempotent.
func (d *Document) Finish() {
	if d.reg.Finished() {
		return
	}
	d.reg.Finish()
	d.res.Reset()
	d.anon = nil
}

// Close finishes the document and releases its engine.
func (d *Document) Close() error {
	d.Finish()
	return d.eng.Close()
}
