package modkit

import (
	"zaplens/internal/adapters/relay"
	"zaplens/internal/platform/config"
	"zaplens/internal/platform/logger"

	"github.com/prometheus/client_golang/prometheus"
)

// Deps holds core dependencies passed to modules
type Deps struct {
	Log logger.Logger
	Cfg config.Conf

	// Relay answers receipt, content and profile queries
	Relay relay.Querier

	// Metrics is where modules register collectors; nil means the default registerer
	Metrics prometheus.Registerer
}

// Registerer returns Metrics or the process default
func (d Deps) Registerer() prometheus.Registerer {
	if d.Metrics == nil {
		return prometheus.DefaultRegisterer
	}
	return d.Metrics
}
