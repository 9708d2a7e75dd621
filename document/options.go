package document

import "github.com/prometheus/client_golang/prometheus"

const (
	defaultCacheCapacity = 64
	defaultMaxWalkDepth  = 100
)

// Options holds the optional parameters for a Document.
type Options struct {
	// Logger receives warnings such as deletes of missing keys and failed
	// background writes. Defaults to DefaultLogger.
	Logger Logger

	// ReadOnly marks every materialized object immutable.
	ReadOnly bool

	// Registerer, if set, receives the document's metrics. Collectors that
	// are already registered are shared.
	Registerer prometheus.Registerer

	// CacheCapacity sizes the resolver's identity cache up front.
	CacheCapacity int

	// MaxWalkDepth bounds the nesting of direct arrays and dictionaries
	// inside a single object during Walk.
	MaxWalkDepth int
}

// EnsureDefaults fills in default values for unset fields.
func (o *Options) EnsureDefaults() *Options {
	if o == nil {
		o = &Options{}
	}
	if o.Logger == nil {
		o.Logger = DefaultLogger
	}
	if o.CacheCapacity <= 0 {
		o.CacheCapacity = defaultCacheCapacity
	}
	if o.MaxWalkDepth <= 0 {
		o.MaxWalkDepth = defaultMaxWalkDepth
	}
	return o
}

// Option configures a Document.
type Option func(*Options)

// WithLogger sets the logger.
func WithLogger(l Logger) Option {
	return func(o *Options) {
		o.Logger = l
	}
}

// WithReadOnly marks every materialized object immutable.
func WithReadOnly() Option {
	return func(o *Options) {
		o.ReadOnly = true
	}
}

// WithMetrics registers the document's metrics on reg.
func WithMetrics(reg prometheus.Registerer) Option {
	return func(o *Options) {
		o.Registerer = reg
	}
}

// WithCacheCapacity sizes the resolver cache (default: 64).
func WithCacheCapacity(n int) Option {
	return func(o *Options) {
		o.CacheCapacity = n
	}
}

// WithMaxWalkDepth sets the maximum direct nesting depth followed by Walk
// (default: 100).
func WithMaxWalkDepth(depth int) Option {
	return func(o *Options) {
		o.MaxWalkDepth = depth
	}
}
