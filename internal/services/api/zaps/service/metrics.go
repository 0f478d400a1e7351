package service

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics are the session collectors. A nil *Metrics records nothing
type Metrics struct {
	live    prometheus.Gauge
	opened  prometheus.Counter
	latency prometheus.Histogram
}

// NewMetrics registers the session collectors on reg
func NewMetrics(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		live: f.NewGauge(prometheus.GaugeOpts{
			Name: "zaplens_sessions_open",
			Help: "Viewing sessions currently open",
		}),
		opened: f.NewCounter(prometheus.CounterOpts{
			Name: "zaplens_sessions_opened_total",
			Help: "Viewing sessions opened",
		}),
		latency: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "zaplens_snapshot_seconds",
			Help:    "Time to enrich and aggregate one snapshot",
			Buckets: prometheus.ExponentialBuckets(0.005, 2, 12),
		}),
	}
}

func (m *Metrics) open(n int) {
	if m == nil {
		return
	}
	m.opened.Inc()
	m.live.Set(float64(n))
}

func (m *Metrics) closed(n int) {
	if m == nil {
		return
	}
	m.live.Set(float64(n))
}

func (m *Metrics) snapshot(d time.Duration) {
	if m == nil {
		return
	}
	m.latency.Observe(d.Seconds())
}
