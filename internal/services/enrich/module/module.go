// Package module wires the enrichment service and exposes its port
package module

import (
	"zaplens/internal/modkit"
	"zaplens/internal/modkit/httpkit"
	dom "zaplens/internal/services/enrich/domain"
	"zaplens/internal/services/enrich/service"
)

// Ports holds the ports exposed by the enrich module
type Ports struct {
	Enricher dom.Enricher
}

// Module defines the enrich module
type Module struct {
	deps  modkit.Deps
	ports Ports
}

// New constructs the enrich module. Non-zero override fields win over config
func New(deps modkit.Deps, overrides Options) *Module {
	opts := FromConfig(deps.Cfg)
	if overrides.ContentChunk != 0 {
		opts.ContentChunk = overrides.ContentChunk
	}
	if overrides.ProfileChunk != 0 {
		opts.ProfileChunk = overrides.ProfileChunk
	}
	if overrides.Concurrency != 0 {
		opts.Concurrency = overrides.Concurrency
	}
	if overrides.Pause != 0 {
		opts.Pause = overrides.Pause
	}

	svc := service.New(deps.Relay, opts, service.NewMetrics(deps.Registerer()))
	return &Module{deps: deps, ports: Ports{Enricher: svc}}
}

// Ports returns the module ports (Enricher)
func (m *Module) Ports() any { return m.ports }

// Name returns the module name
func (m *Module) Name() string { return "enrich" }

// MountRoutes returns no HTTP routes
func (m *Module) MountRoutes(_ httpkit.Router) {}
