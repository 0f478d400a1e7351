package service

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	passContent = "content"
	passProfile = "profile"

	outcomeOK     = "ok"
	outcomeFailed = "failed"
)

// Metrics are the enrichment collectors. A nil *Metrics records nothing
type Metrics struct {
	chunks *prometheus.CounterVec
	hits   *prometheus.CounterVec
	misses *prometheus.CounterVec
}

// NewMetrics registers the enrichment collectors on reg
func NewMetrics(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		chunks: f.NewCounterVec(prometheus.CounterOpts{
			Name: "zaplens_enrich_chunks_total",
			Help: "Enrichment lookup chunks by pass and outcome",
		}, []string{"pass", "outcome"}),
		hits: f.NewCounterVec(prometheus.CounterOpts{
			Name: "zaplens_enrich_cache_hits_total",
			Help: "Ids served from the enrichment caches",
		}, []string{"pass"}),
		misses: f.NewCounterVec(prometheus.CounterOpts{
			Name: "zaplens_enrich_cache_misses_total",
			Help: "Ids that needed a lookup",
		}, []string{"pass"}),
	}
}

func (m *Metrics) chunk(pass, outcome string) {
	if m == nil {
		return
	}
	m.chunks.WithLabelValues(pass, outcome).Inc()
}

func (m *Metrics) cache(pass string, hits, misses int) {
	if m == nil {
		return
	}
	m.hits.WithLabelValues(pass).Add(float64(hits))
	m.misses.WithLabelValues(pass).Add(float64(misses))
}
