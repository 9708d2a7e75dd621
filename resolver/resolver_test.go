package resolver

import (
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"

	"github.com/tsawler/pdfobj/core"
)

// mockSource is a Source backed by a map, counting materializations.
type mockSource struct {
	objects map[core.Ref]core.Object
	calls   int
}

func newMockSource() *mockSource {
	return &mockSource{objects: make(map[core.Ref]core.Object)}
}

func (m *mockSource) add(num int, obj core.Object) {
	m.objects[core.Ref{Number: num}] = obj
}

func (m *mockSource) MaterializeObject(num, gen int) (core.Object, error) {
	m.calls++
	obj, ok := m.objects[core.Ref{Number: num, Generation: gen}]
	if !ok {
		return nil, errors.Wrapf(core.ErrObjectNotFound, "object %d", num)
	}
	return obj, nil
}

type handle struct {
	ref core.Ref
	obj core.Object
}

func wrap(ref core.Ref, obj core.Object) *handle {
	return &handle{ref: ref, obj: obj}
}

func TestResolveIdentity(t *testing.T) {
	src := newMockSource()
	src.add(5, core.String("hello"))
	r := New(src, wrap)

	h1, err := r.Resolve(core.Ref{Number: 5})
	require.NoError(t, err)
	h2, err := r.Resolve(core.Ref{Number: 5})
	require.NoError(t, err)
	require.Same(t, h1, h2)
	require.Equal(t, 1, src.calls)
	require.Equal(t, core.String("hello"), h1.obj)
	require.Equal(t, 1, r.Len())
}

func TestResolveInvalidReference(t *testing.T) {
	r := New(newMockSource(), wrap)
	for _, ref := range []core.Ref{{}, {Number: -2}, {Number: 3, Generation: -1}} {
		_, err := r.Resolve(ref)
		require.True(t, errors.Is(err, core.ErrInvalidReference), "%s", ref)
	}
}

func TestResolveNotFoundIsNotCached(t *testing.T) {
	src := newMockSource()
	r := New(src, wrap)

	_, err := r.Resolve(core.Ref{Number: 9})
	require.True(t, errors.Is(err, core.ErrObjectNotFound))
	require.Equal(t, 0, r.Len())

	src.add(9, core.Int(1))
	h, err := r.Resolve(core.Ref{Number: 9})
	require.NoError(t, err)
	require.Equal(t, core.Int(1), h.obj)
}

func TestResolveIsShallow(t *testing.T) {
	src := newMockSource()
	d := core.NewDict()
	d.Set("Next", core.Ref{Number: 2})
	src.add(1, d)
	back := core.NewDict()
	back.Set("Prev", core.Ref{Number: 1})
	src.add(2, back)

	r := New(src, wrap)
	h, err := r.Resolve(core.Ref{Number: 1})
	require.NoError(t, err)
	require.Equal(t, 1, src.calls)
	_, cached := r.Lookup(core.Ref{Number: 2})
	require.False(t, cached)

	// Following the cycle comes back to the same handle.
	next, err := r.Resolve(h.obj.(*core.Dict).Get("Next").(core.Ref))
	require.NoError(t, err)
	prev, err := r.Resolve(next.obj.(*core.Dict).Get("Prev").(core.Ref))
	require.NoError(t, err)
	require.Same(t, h, prev)
	require.Equal(t, 2, src.calls)
}

func TestAddAndReset(t *testing.T) {
	src := newMockSource()
	src.add(1, core.Int(1))
	r := New(src, wrap, WithCapacity(4))

	fresh := &handle{ref: core.Ref{Number: 7}, obj: core.Bool(true)}
	r.Add(fresh.ref, fresh)
	got, err := r.Resolve(core.Ref{Number: 7})
	require.NoError(t, err)
	require.Same(t, fresh, got)
	require.Equal(t, 0, src.calls)

	h1, err := r.Resolve(core.Ref{Number: 1})
	require.NoError(t, err)

	seen := 0
	r.All(func(core.Ref, *handle) bool {
		seen++
		return true
	})
	require.Equal(t, 2, seen)

	r.Reset()
	require.Equal(t, 0, r.Len())
	h2, err := r.Resolve(core.Ref{Number: 1})
	require.NoError(t, err)
	require.NotSame(t, h1, h2)
}

func TestMetrics(t *testing.T) {
	hits := prometheus.NewCounter(prometheus.CounterOpts{Name: "hits"})
	misses := prometheus.NewCounter(prometheus.CounterOpts{Name: "misses"})
	src := newMockSource()
	src.add(1, core.Null{})
	r := New(src, wrap, WithMetrics(hits, misses))

	for i := 0; i < 3; i++ {
		_, err := r.Resolve(core.Ref{Number: 1})
		require.NoError(t, err)
	}
	require.Equal(t, 2.0, testutil.ToFloat64(hits))
	require.Equal(t, 1.0, testutil.ToFloat64(misses))
}

func TestReferences(t *testing.T) {
	inner := core.NewDict()
	inner.Set("Font", core.Ref{Number: 9})
	page := core.NewDict()
	page.Set("Parent", core.Ref{Number: 2})
	page.Set("Resources", inner)
	page.Set("Contents", core.NewArray(core.Ref{Number: 4}, core.Ref{Number: 5}))
	stream := core.NewStream(nil)
	stream.Dict.Set("Length", core.Ref{Number: 6})

	tests := []struct {
		name string
		obj  core.Object
		want []core.Ref
	}{
		{"primitive", core.Int(3), nil},
		{"ref", core.Ref{Number: 3}, []core.Ref{{Number: 3}}},
		{"dict", page, []core.Ref{{Number: 2}, {Number: 9}, {Number: 4}, {Number: 5}}},
		{"stream", stream, []core.Ref{{Number: 6}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			refs, err := References(tt.obj, 10)
			require.NoError(t, err)
			require.Equal(t, tt.want, refs)
		})
	}
}

func TestReferencesMaxDepth(t *testing.T) {
	deep := core.Object(core.Ref{Number: 1})
	for i := 0; i < 5; i++ {
		deep = core.NewArray(deep)
	}
	_, err := References(deep, 3)
	require.Error(t, err)
	refs, err := References(deep, 5)
	require.NoError(t, err)
	require.Len(t, refs, 1)
}
