// Package module wires the ingestion engine and exposes its ports
package module

import (
	"context"

	"zaplens/internal/modkit"
	"zaplens/internal/modkit/httpkit"
	dom "zaplens/internal/services/ingest/domain"
	"zaplens/internal/services/ingest/service"
	"zaplens/internal/services/ingest/store"
)

// Ports holds the ports exposed by the ingest module
type Ports struct {
	Loaders dom.LoaderFactory
	Store   *store.Store
}

// Module defines the ingest worker module
type Module struct {
	deps  modkit.Deps
	ports Ports
}

// New constructs the ingest module. Non-zero override fields win over config
func New(ctx context.Context, deps modkit.Deps, overrides Options) *Module {
	opts := FromConfig(deps.Cfg)
	if overrides.InitialBatch != 0 {
		opts.InitialBatch = overrides.InitialBatch
	}
	if overrides.AutoBatch != 0 {
		opts.AutoBatch = overrides.AutoBatch
	}
	if overrides.FailureThreshold != 0 {
		opts.FailureThreshold = overrides.FailureThreshold
	}
	if overrides.BoundaryTolerance != 0 {
		opts.BoundaryTolerance = overrides.BoundaryTolerance
	}
	if overrides.InitialDelay != 0 {
		opts.InitialDelay = overrides.InitialDelay
	}
	if overrides.InterBatchDelay != 0 {
		opts.InterBatchDelay = overrides.InterBatchDelay
	}

	eng := service.New(ctx, nil, deps.Relay, opts, service.NewMetrics(deps.Registerer()))
	return &Module{deps: deps, ports: Ports{Loaders: eng, Store: eng.Store()}}
}

// Ports returns the module ports (Loaders, Store)
func (m *Module) Ports() any { return m.ports }

// Name returns the module name
func (m *Module) Name() string { return "ingest" }

// MountRoutes returns no HTTP routes
func (m *Module) MountRoutes(_ httpkit.Router) {}
