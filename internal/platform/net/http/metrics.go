package http

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// MountMetrics exposes a Prometheus scrape endpoint at path when enabled.
// A nil gatherer means the default registry
func MountMetrics(r Router, path string, enabled bool, g prometheus.Gatherer) {
	if !enabled {
		return
	}
	if g == nil {
		g = prometheus.DefaultGatherer
	}
	r.Handle(path, promhttp.HandlerFor(g, promhttp.HandlerOpts{}))
}
