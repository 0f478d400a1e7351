package relay

import (
	"time"

	perr "zaplens/internal/platform/errors"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	outcomeOK          = "ok"
	outcomeRateLimited = "rate_limited"
	outcomeUnavailable = "unavailable"
	outcomeTimeout     = "timeout"
	outcomeUpstream    = "upstream"
	outcomeDecode      = "decode"
)

// Metrics are the relay client collectors. A nil *Metrics records nothing
type Metrics struct {
	queries  *prometheus.CounterVec
	duration prometheus.Histogram
	received prometheus.Counter
}

// NewMetrics registers the relay collectors on reg
func NewMetrics(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		queries: f.NewCounterVec(prometheus.CounterOpts{
			Name: "zaplens_relay_queries_total",
			Help: "Relay queries by outcome",
		}, []string{"outcome"}),
		duration: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "zaplens_relay_query_duration_seconds",
			Help:    "Relay query latency including retries",
			Buckets: prometheus.ExponentialBuckets(0.05, 2, 10),
		}),
		received: f.NewCounter(prometheus.CounterOpts{
			Name: "zaplens_relay_events_received_total",
			Help: "Events returned by the relay",
		}),
	}
}

func (m *Metrics) observe(outcome string, d time.Duration) {
	if m == nil {
		return
	}
	m.queries.WithLabelValues(outcome).Inc()
	m.duration.Observe(d.Seconds())
}

func (m *Metrics) events(n int) {
	if m == nil {
		return
	}
	m.received.Add(float64(n))
}

func outcomeOf(err error) string {
	switch perr.CodeOf(err) {
	case perr.ErrorCodeTooManyRequests:
		return outcomeRateLimited
	case perr.ErrorCodeTimeout:
		return outcomeTimeout
	case perr.ErrorCodeUpstream:
		return outcomeUpstream
	default:
		return outcomeUnavailable
	}
}
