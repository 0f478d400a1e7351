package service

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	dom "zaplens/internal/services/ingest/domain"
)

const (
	outcomeOK     = "ok"
	outcomeFailed = "failed"
)

// Metrics are the ingestion collectors. A nil *Metrics records nothing
type Metrics struct {
	batches   *prometheus.CounterVec
	merged    prometheus.Counter
	dropped   *prometheus.CounterVec
	exhaust   prometheus.Counter
	duration  prometheus.Histogram
	completed prometheus.Counter
}

// NewMetrics registers the ingestion collectors on reg
func NewMetrics(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		batches: f.NewCounterVec(prometheus.CounterOpts{
			Name: "zaplens_ingest_batches_total",
			Help: "Receipt pages fetched by outcome",
		}, []string{"outcome"}),
		merged: f.NewCounter(prometheus.CounterOpts{
			Name: "zaplens_ingest_receipts_added_total",
			Help: "New unique receipts merged into the store",
		}),
		dropped: f.NewCounterVec(prometheus.CounterOpts{
			Name: "zaplens_ingest_receipts_dropped_total",
			Help: "Malformed receipts dropped by reason",
		}, []string{"reason"}),
		exhaust: f.NewCounter(prometheus.CounterOpts{
			Name: "zaplens_ingest_autoload_exhausted_total",
			Help: "Times auto loading was disabled by the failure threshold",
		}),
		duration: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "zaplens_ingest_batch_duration_seconds",
			Help:    "Receipt page latency",
			Buckets: prometheus.ExponentialBuckets(0.05, 2, 10),
		}),
		completed: f.NewCounter(prometheus.CounterOpts{
			Name: "zaplens_ingest_windows_completed_total",
			Help: "Batches that completed coverage of their window",
		}),
	}
}

func (m *Metrics) batch(outcome string, r dom.BatchResult) {
	if m == nil {
		return
	}
	m.batches.WithLabelValues(outcome).Inc()
	m.duration.Observe(r.Duration.Seconds())
	m.merged.Add(float64(r.Added))
	if r.Complete {
		m.completed.Inc()
	}
}

func (m *Metrics) malformed(reason string, n int) {
	if m == nil {
		return
	}
	m.dropped.WithLabelValues(reason).Add(float64(n))
}

func (m *Metrics) exhausted() {
	if m == nil {
		return
	}
	m.exhaust.Inc()
}
