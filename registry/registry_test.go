package registry

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"
)

type entry struct {
	invalidated int
}

func (e *entry) Invalidate() { e.invalidated++ }

func TestTrackAndFinish(t *testing.T) {
	r := New()
	a, b := &entry{}, &entry{}
	ta := r.Track(a)
	tb := r.Track(b)
	require.NotEqual(t, ta, tb)
	require.True(t, r.Alive(ta))
	require.True(t, r.Alive(tb))
	require.False(t, r.Alive(Token{}))
	require.True(t, Token{}.IsZero())
	require.Equal(t, 2, r.Len())

	r.Finish()
	require.True(t, r.Finished())
	require.False(t, r.Alive(ta))
	require.False(t, r.Alive(tb))
	require.Equal(t, 1, a.invalidated)
	require.Equal(t, 1, b.invalidated)
	require.Equal(t, 0, r.Len())

	// Idempotent.
	r.Finish()
	require.Equal(t, 1, a.invalidated)
}

func TestTrackAfterFinish(t *testing.T) {
	r := New()
	r.Finish()
	late := &entry{}
	tok := r.Track(late)
	require.True(t, tok.IsZero())
	require.False(t, r.Alive(tok))
	require.Equal(t, 1, late.invalidated)
}

func TestMetrics(t *testing.T) {
	tracked := prometheus.NewGauge(prometheus.GaugeOpts{Name: "tracked"})
	finishes := prometheus.NewCounter(prometheus.CounterOpts{Name: "finishes"})
	r := New(WithTrackedGauge(tracked), WithFinishCounter(finishes))
	for i := 0; i < 3; i++ {
		r.Track(&entry{})
	}
	require.Equal(t, 3.0, testutil.ToFloat64(tracked))
	r.Finish()
	r.Finish()
	require.Equal(t, 0.0, testutil.ToFloat64(tracked))
	require.Equal(t, 1.0, testutil.ToFloat64(finishes))
}
