// Package metrics defines the minimal instrumentation surface the binning
// pipeline emits into. The core code depends only on this package; concrete
// backends (Datadog in internal/metrics/datadog) register themselves at
// startup when configured.
//
// When no backend is set every call is a cheap no-op, so instrumentation
// never needs to be guarded at call sites.
package metrics

import "sync/atomic"

// Labels attach low-cardinality dimensions to a metric observation.
type Labels map[string]string

// Backend receives metric observations. Implementations must be safe for
// concurrent use.
type Backend interface {
	// IncCounter adds delta to a named counter.
	IncCounter(name string, delta float64, labels Labels)

	// ObserveHistogram records one sample of a named distribution.
	ObserveHistogram(name string, value float64, labels Labels)

	// Flush submits buffered observations.
	Flush() error

	// Close flushes and releases backend resources.
	Close() error
}

// holder wraps the interface so atomic.Value always stores one concrete
// type regardless of which Backend implementation is active.
type holder struct{ b Backend }

var backend atomic.Value // stores holder

// SetBackend installs b as the process-wide metrics sink. Passing nil
// restores the no-op default.
func SetBackend(b Backend) {
	if b == nil {
		b = nopBackend{}
	}
	backend.Store(holder{b: b})
}

func active() Backend {
	if h, ok := backend.Load().(holder); ok {
		return h.b
	}
	return nopBackend{}
}

// IncCounter adds delta to a counter on the active backend.
func IncCounter(name string, delta float64, labels Labels) {
	active().IncCounter(name, delta, labels)
}

// ObserveHistogram records a sample on the active backend.
func ObserveHistogram(name string, value float64, labels Labels) {
	active().ObserveHistogram(name, value, labels)
}

// Flush submits buffered observations on the active backend.
func Flush() error { return active().Flush() }

// Close closes the active backend and restores the no-op default.
func Close() error {
	b := active()
	backend.Store(holder{b: nopBackend{}})
	return b.Close()
}

type nopBackend struct{}

func (nopBackend) IncCounter(string, float64, Labels)       {}
func (nopBackend) ObserveHistogram(string, float64, Labels) {}
func (nopBackend) Flush() error                             { return nil }
func (nopBackend) Close() error                             { return nil }
