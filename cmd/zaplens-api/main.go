// @title         Zaplens API
// @version       0.1.0
// @description   Progressive zap receipt loading and analytics sessions

package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"zaplens/internal/adapters/relay"
	"zaplens/internal/platform/config"
	"zaplens/internal/platform/logger"
	phttp "zaplens/internal/platform/net/http"

	"zaplens/internal/services/api"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

func main() {
	// service-scoped config for HTTP etc (CORE_API_*); modules read their own prefixes off root
	root := config.New()
	apiCfg := root.Prefix("CORE_API_")

	// bring up logging early
	l := logger.Get()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	// relay gateway client (SERVICE_RELAY_*)
	ropts := relay.FromConfig(root)
	ropts.Metrics = relay.NewMetrics(reg)
	rc := relay.NewClient(ropts)

	// http server (reads CORE_API_API_PORT and timeouts)
	srv := phttp.NewServer(apiCfg)

	// mount our API
	api.Mount(ctx, srv.Router(), api.Options{
		Config:         root,
		Logger:         l,
		Relay:          rc,
		Registry:       reg,
		EnableSwagger:  apiCfg.MayBool("SWAGGER", true),
		EnableProfiler: apiCfg.MayBool("PROFILER", false),
		EnableMetrics:  apiCfg.MayBool("METRICS", true),
		Slow:           apiCfg.MayDuration("SLOW", 500*time.Millisecond),
		Timeout:        apiCfg.MayDuration("TIMEOUT", 0),
		Origins:        splitCSV(apiCfg.MayString("CORS_ORIGINS", "")),
	})

	// run
	if err := srv.Run(ctx); err != nil {
		l.Panic().Err(err).Msg("http server stopped")
	}
}
