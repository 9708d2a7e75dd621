package resolver

import (
	"github.com/cockroachdb/errors"
	"github.com/cockroachdb/swiss"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/tsawler/pdfobj/core"
)

// Source materializes objects by number and generation.
type Source interface {
	MaterializeObject(num, gen int) (core.Object, error)
}

// Resolver maps references to handles. The first resolution of a reference
// materializes the object and wraps it; later resolutions of an equal
// reference return the same handle.
type Resolver[H any] struct {
	src      Source
	wrap     func(core.Ref, core.Object) H
	capacity int
	hits     prometheus.Counter
	misses   prometheus.Counter
	cache    swiss.Map[core.Ref, H]
}

// Option configures the resolver
type Option func(*options)

type options struct {
	capacity int
	hits     prometheus.Counter
	misses   prometheus.Counter
}

// WithCapacity sizes the identity cache up front (default: 64).
func WithCapacity(n int) Option {
	return func(o *options) {
		o.capacity = n
	}
}

// WithMetrics counts cache hits and misses.
func WithMetrics(hits, misses prometheus.Counter) Option {
	return func(o *options) {
		o.hits = hits
		o.misses = misses
	}
}

// New creates a resolver over src. wrap builds the handle for a freshly
// materialized object.
func New[H any](src Source, wrap func(core.Ref, core.Object) H, opts ...Option) *Resolver[H] {
	o := options{capacity: 64}
	for _, opt := range opts {
		opt(&o)
	}
	r := &Resolver[H]{
		src:      src,
		wrap:     wrap,
		capacity: o.capacity,
		hits:     o.hits,
		misses:   o.misses,
	}
	r.cache.Init(r.capacity)
	return r
}

// Resolve returns the handle for ref, materializing the object on the first
// call. Only the targeted object is materialized; references nested in it
// stay unresolved. Failures are not cached.
func (r *Resolver[H]) Resolve(ref core.Ref) (H, error) {
	var zero H
	if !ref.IsIndirect() {
		return zero, errors.Wrapf(core.ErrInvalidReference, "cannot resolve %s", ref)
	}
	if h, ok := r.cache.Get(ref); ok {
		if r.hits != nil {
			r.hits.Inc()
		}
		return h, nil
	}
	if r.misses != nil {
		r.misses.Inc()
	}
	obj, err := r.src.MaterializeObject(ref.Number, ref.Generation)
	if err != nil {
		return zero, errors.Wrapf(err, "failed to resolve reference %s", ref)
	}
	h := r.wrap(ref, obj)
	r.cache.Put(ref, h)
	return h, nil
}

// Lookup returns the cached handle for ref without materializing.
func (r *Resolver[H]) Lookup(ref core.Ref) (H, bool) {
	return r.cache.Get(ref)
}

// Add registers h as the handle for ref, typically a freshly allocated
// reference whose object never came from the source.
func (r *Resolver[H]) Add(ref core.Ref, h H) {
	r.cache.Put(ref, h)
}

// Len returns the number of cached handles.
func (r *Resolver[H]) Len() int {
	return r.cache.Len()
}

// All calls fn for every cached handle until fn returns false. The order is
// unspecified.
func (r *Resolver[H]) All(fn func(core.Ref, H) bool) {
	r.cache.All(fn)
}

// Reset drops every cached handle. Handles already handed out keep working
// but are no longer returned by Resolve.
func (r *Resolver[H]) Reset() {
	r.cache.Close()
	r.cache.Init(r.capacity)
}

// References returns the references nested directly inside obj, in
// encounter order, without following any of them. Arrays, dictionaries and
// stream dictionaries are descended at most maxDepth levels deep.
func References(obj core.Object, maxDepth int) ([]core.Ref, error) {
	var refs []core.Ref
	var walk func(obj core.Object, depth int) error
	walk = func(obj core.Object, depth int) error {
		if depth > maxDepth {
			return errors.Newf("maximum recursion depth (%d) exceeded", errors.Safe(maxDepth))
		}
		switch v := obj.(type) {
		case core.Ref:
			refs = append(refs, v)
		case *core.Array:
			for i := 0; i < v.Len(); i++ {
				if err := walk(v.Get(i), depth+1); err != nil {
					return err
				}
			}
		case *core.Dict:
			for _, key := range v.Keys() {
				if err := walk(v.Get(key), depth+1); err != nil {
					return errors.Wrapf(err, "key %s", errors.Safe(key))
				}
			}
		case *core.Stream:
			return walk(v.Dict, depth)
		}
		return nil
	}
	if err := walk(obj, 0); err != nil {
		return nil, err
	}
	return refs, nil
}
