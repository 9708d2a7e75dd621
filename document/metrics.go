package document

import (
	"github.com/cockroachdb/errors"
	"github.com/prometheus/client_golang/prometheus"
)

// metrics holds the collectors of one document. Without a registerer they
// are private to the document.
type metrics struct {
	resolverHits   prometheus.Counter
	resolverMisses prometheus.Counter
	materialized   prometheus.Counter
	tracked        prometheus.Gauge
	finishes       prometheus.Counter
	writeDuration  prometheus.Histogram
}

func newMetrics(reg prometheus.Registerer) *metrics {
	m := &metrics{
		resolverHits: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "pdfobj",
			Subsystem: "resolver",
			Name:      "hits_total",
			Help:      "Reference resolutions served from the identity cache.",
		}),
		resolverMisses: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "pdfobj",
			Subsystem: "resolver",
			Name:      "misses_total",
			Help:      "Reference resolutions that materialized an object.",
		}),
		materialized: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "pdfobj",
			Name:      "objects_materialized_total",
			Help:      "Indirect objects wrapped in a handle.",
		}),
		tracked: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "pdfobj",
			Subsystem: "registry",
			Name:      "tracked",
			Help:      "Handles and views tracked by unfinished documents.",
		}),
		finishes: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "pdfobj",
			Subsystem: "registry",
			Name:      "finishes_total",
			Help:      "Documents finished.",
		}),
		writeDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "pdfobj",
			Name:      "write_duration_seconds",
			Help:      "Time spent serializing documents and objects to files.",
			Buckets:   prometheus.ExponentialBuckets(0.0005, 4, 8),
		}),
	}
	if reg != nil {
		m.resolverHits = register(reg, m.resolverHits)
		m.resolverMisses = register(reg, m.resolverMisses)
		m.materialized = register(reg, m.materialized)
		m.tracked = register(reg, m.tracked)
		m.finishes = register(reg, m.finishes)
		m.writeDuration = register(reg, m.writeDuration)
	}
	return m
}

// register registers c, reusing the existing collector when an identical
// one is already registered. Any other failure leaves c unregistered.
func register[C prometheus.Collector](reg prometheus.Registerer, c C) C {
	err := reg.Register(c)
	if err == nil {
		return c
	}
	var are prometheus.AlreadyRegisteredError
	if errors.As(err, &are) {
		if existing, ok := are.ExistingCollector.(C); ok {
			return existing
		}
	}
	return c
}
