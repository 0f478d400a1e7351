// Package api provides the HTTP API for the application
package api

import (
	"context"
	"time"

	"zaplens/internal/adapters/relay"
	"zaplens/internal/platform/config"
	"zaplens/internal/platform/logger"
	phttp "zaplens/internal/platform/net/http"

	"zaplens/internal/modkit"
	"zaplens/internal/modkit/httpkit"
	"zaplens/internal/modkit/module"
	"zaplens/internal/modkit/swaggerkit"

	metamod "zaplens/internal/services/api/meta/module"
	zapsmod "zaplens/internal/services/api/zaps/module"

	// Worker side modules (own the Loaders and Enricher ports)
	enrichmod "zaplens/internal/services/enrich/module"
	ingestmod "zaplens/internal/services/ingest/module"

	"github.com/prometheus/client_golang/prometheus"
)

// Options are the API options
type Options struct {
	// Config is the root view; modules apply their own prefixes
	Config config.Conf
	Logger *logger.Logger
	Relay  relay.Querier

	// Registry receives every module collector and backs /metrics; nil uses the process default
	Registry *prometheus.Registry

	EnableSwagger  bool
	EnableProfiler bool
	EnableMetrics  bool
	Slow           time.Duration
	Timeout        time.Duration
	Origins        []string
}

// Mount mounts the API service onto the given router. ctx bounds background loading and session sweeps
func Mount(ctx context.Context, r phttp.Router, opt Options) {
	deps := modkit.Deps{
		Cfg:   opt.Config,
		Relay: opt.Relay,
	}
	if opt.Logger != nil {
		deps.Log = *opt.Logger
	}
	var gatherer prometheus.Gatherer
	if opt.Registry != nil {
		deps.Metrics = opt.Registry
		gatherer = opt.Registry
	}

	// worker side modules first; their ports feed the zaps API module
	ingest := ingestmod.New(ctx, deps, ingestmod.Options{})
	enrich := enrichmod.New(deps, enrichmod.Options{})
	loaders := module.MustPortsOf[ingestmod.Ports](ingest).Loaders
	enricher := module.MustPortsOf[enrichmod.Ports](enrich).Enricher

	zaps := zapsmod.New(ctx, deps, modkit.WithPorts(zapsmod.Ports{
		Loaders:  loaders,
		Enricher: enricher,
	}))
	meta := metamod.New(deps, modkit.WithPorts(metamod.Ports{Sessions: zaps.Sessions}))

	mods := []module.Module{
		meta,
		ingest, // include workers so their ports are registered
		enrich,
		zaps,
	}

	// swagger, profiler and metrics sit outside the versioned API stack
	swaggerkit.Mount(r, opt.EnableSwagger)
	phttp.MountProfiler(r, "/debug", opt.EnableProfiler)
	phttp.MountMetrics(r, "/metrics", opt.EnableMetrics, gatherer)

	// versioned API with a common middleware stack
	stack := httpkit.CommonStack(httpkit.StackOptions{Slow: opt.Slow, Timeout: opt.Timeout, Origins: opt.Origins})
	httpkit.MountAPIV1(r, stack, func(api httpkit.Router) {
		for _, m := range mods {
			// register each module's ports under its own name (for cross-module lookups)
			module.Register(m.Name(), m.Ports())

			// mount module routes under its prefix
			m.MountRoutes(api)
		}
	})
}
