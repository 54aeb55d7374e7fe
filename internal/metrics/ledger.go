// Package metrics exposes ledger activity as Prometheus metrics.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/heartmarshall/gearledger/internal/domain"
)

const namespace = "gearledger"

// Ledger counts recorded, rejected and failed events. It satisfies the
// ledger service's observer.
type Ledger struct {
	registry *prometheus.Registry

	recorded *prometheus.CounterVec
	rejected *prometheus.CounterVec
	failures *prometheus.CounterVec
	duration prometheus.Histogram
}

// NewLedger creates the ledger metrics on a fresh registry that also
// carries the Go runtime and process collectors.
func NewLedger() *Ledger {
	l := &Ledger{registry: prometheus.NewRegistry()}

	l.recorded = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "events_recorded_total",
		Help:      "Events appended to the ledger, by kind",
	}, []string{"kind"})
	l.rejected = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "events_rejected_total",
		Help:      "Candidate events refused by ledger rules, by kind and reason",
	}, []string{"kind", "reason"})
	l.failures = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "storage_failures_total",
		Help:      "Store or transaction failures, by operation",
	}, []string{"op"})
	l.duration = prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "record_duration_seconds",
		Help:      "Time spent recording an accepted event",
		Buckets:   prometheus.DefBuckets,
	})

	l.registry.MustRegister(
		l.recorded, l.rejected, l.failures, l.duration,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return l
}

func (l *Ledger) Recorded(kind domain.EventKind, elapsed time.Duration) {
	l.recorded.WithLabelValues(kind.String()).Inc()
	l.duration.Observe(elapsed.Seconds())
}

func (l *Ledger) Rejected(kind domain.EventKind, reason domain.RejectionKind) {
	l.rejected.WithLabelValues(kind.String(), reason.String()).Inc()
}

func (l *Ledger) StorageFailed(op string) {
	l.failures.WithLabelValues(op).Inc()
}

// Registry returns the registry the ledger metrics live in.
func (l *Ledger) Registry() *prometheus.Registry { return l.registry }

// Handler serves the registry in the Prometheus exposition format.
func (l *Ledger) Handler() http.Handler {
	return promhttp.HandlerFor(l.registry, promhttp.HandlerOpts{Registry: l.registry})
}

// Nop discards ledger activity. It is used when metrics are disabled.
type Nop struct{}

func (Nop) Recorded(domain.EventKind, time.Duration)        {}
func (Nop) Rejected(domain.EventKind, domain.RejectionKind) {}
func (Nop) StorageFailed(string)                            {}
