// Package module wires zaps sessions into the API using modkit
package module

import (
	"context"

	"zaplens/internal/core/aggregate"
	"zaplens/internal/modkit"
	"zaplens/internal/modkit/httpkit"
	zhttp "zaplens/internal/services/api/zaps/http"
	zsvc "zaplens/internal/services/api/zaps/service"
	enrich "zaplens/internal/services/enrich/domain"
	ingest "zaplens/internal/services/ingest/domain"
)

// Ports declares the ports this module needs injected from ingest and enrich
type Ports struct {
	Loaders  ingest.LoaderFactory
	Enricher enrich.Enricher
}

// Module implements the zaps API module
type Module struct {
	modkit.Routed
	deps modkit.Deps
	svc  *zsvc.Service
}

// New constructs the zaps module. ctx bounds the session sweeper; when it ends every session closes
func New(ctx context.Context, deps modkit.Deps, opts ...modkit.Option) *Module {
	b := modkit.Build(append([]modkit.Option{
		modkit.WithName("zaps"),
		modkit.WithPrefix("/zaps"),
	}, opts...)...)

	injected, _ := b.Ports.(Ports)
	if injected.Loaders == nil || injected.Enricher == nil {
		panic("zaps API module requires Loaders (from ingest) and Enricher (from enrich) ports")
	}

	cfg := FromConfig(deps.Cfg)
	svc := zsvc.New(injected.Loaders, injected.Enricher, zsvc.Options{
		TTL: cfg.SessionTTL,
		Analytics: aggregate.Options{
			Location:       cfg.Location,
			WhaleThreshold: cfg.WhaleThreshold,
		},
	}, zsvc.NewMetrics(deps.Registerer()))
	go svc.Run(ctx)

	zhttp.Docs(b.Prefix)
	m := &Module{deps: deps, svc: svc}
	m.Routed = modkit.RoutedFrom(b, func(r httpkit.Router) { zhttp.Register(r, svc) })
	return m
}

// Ports exposes the session manager
func (m *Module) Ports() any { return m.svc }

// Sessions returns the number of open viewing sessions
func (m *Module) Sessions() int { return m.svc.Len() }
