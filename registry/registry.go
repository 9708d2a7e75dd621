// Package registry tracks the wrappers a document hands out so they can be
// invalidated together.
//
// A [Registry] is an append-only arena. [Registry.Track] records an entry
// and returns a [Token]; holders check the token with [Registry.Alive]
// before touching their backing storage. [Registry.Finish] invalidates
// every entry once, after which no token is alive again.
package registry

import "github.com/prometheus/client_golang/prometheus"

// Invalidator is implemented by anything a registry can track.
// Invalidate releases the entry's binding to backing storage.
type Invalidator interface {
	Invalidate()
}

// Token addresses one registry entry. The zero Token is never alive.
type Token struct {
	slot int
}

// IsZero reports whether t was never issued by a live registry.
func (t Token) IsZero() bool { return t.slot == 0 }

// Registry is a per-document arena of tracked entries. It is not safe for
// concurrent use.
type Registry struct {
	entries  []Invalidator
	finished bool
	tracked  prometheus.Gauge
	finishes prometheus.Counter
}

// Option configures a Registry.
type Option func(*Registry)

// WithTrackedGauge reports the number of live entries on g.
func WithTrackedGauge(g prometheus.Gauge) Option {
	return func(r *Registry) {
		r.tracked = g
	}
}

// WithFinishCounter counts finish calls that invalidated entries.
func WithFinishCounter(c prometheus.Counter) Option {
	return func(r *Registry) {
		r.finishes = c
	}
}

// New returns an empty registry.
func New(opts ...Option) *Registry {
	r := &Registry{}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Track records x and returns its token. Tracking into a finished registry
// invalidates x immediately and returns the zero Token.
func (r *Registry) Track(x Invalidator) Token {
	if r.finished {
		x.Invalidate()
		return Token{}
	}
	r.entries = append(r.entries, x)
	if r.tracked != nil {
		r.tracked.Inc()
	}
	return Token{slot: len(r.entries)}
}

// Alive reports whether t still addresses a valid entry.
func (r *Registry) Alive(t Token) bool {
	return !r.finished && t.slot > 0 && t.slot <= len(r.entries)
}

// Finish invalidates every tracked entry and releases the arena. Calling
// it again is a no-op.
func (r *Registry) Finish() {
	if r.finished {
		return
	}
	r.finished = true
	for i, x := range r.entries {
		x.Invalidate()
		r.entries[i] = nil
	}
	if r.tracked != nil {
		r.tracked.Sub(float64(len(r.entries)))
	}
	if r.finishes != nil {
		r.finishes.Inc()
	}
	r.entries = nil
}

// Finished reports whether Finish has been called.
func (r *Registry) Finished() bool {
	return r.finished
}

// Len returns the number of tracked entries.
func (r *Registry) Len() int {
	return len(r.entries)
}
