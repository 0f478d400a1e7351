// Command zaplens-backfill pages one user's zap receipts for a window until the
// window is complete, then prints the enriched snapshot as JSON
package main

import (
	"context"
	"encoding/json"
	"flag"
	"os"
	"os/signal"
	"syscall"
	"time"

	"zaplens/internal/adapters/relay"
	"zaplens/internal/core/aggregate"
	"zaplens/internal/modkit"
	"zaplens/internal/modkit/module"
	"zaplens/internal/platform/config"
	"zaplens/internal/platform/logger"

	zapsdom "zaplens/internal/services/api/zaps/domain"
	zapsmod "zaplens/internal/services/api/zaps/module"
	enrichmod "zaplens/internal/services/enrich/module"
	ingestmod "zaplens/internal/services/ingest/module"
)

func main() {
	var (
		fUser    = flag.String("user", "", "hex pubkey whose received zaps to load")
		fRange   = flag.String("range", "7d", "24h | 7d | 30d | 90d | 1y | all | custom")
		fSince   = flag.Int64("since", 0, "unix seconds, with -range custom")
		fUntil   = flag.Int64("until", 0, "unix seconds, with -range custom")
		fBatches = flag.Int("max-batches", 500, "stop after this many batches even if incomplete")
		fPretty  = flag.Bool("pretty", false, "indent the JSON output")
	)
	flag.Parse()

	root := config.New()
	l := logger.Get()
	if *fUser == "" {
		l.Fatal().Msg("must provide -user")
	}

	var since, until *int64
	if *fSince != 0 || *fUntil != 0 {
		since, until = fSince, fUntil
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Shared deps for modules; collectors go to a throwaway registry
	deps := modkit.Deps{
		Cfg:   root,
		Log:   *l,
		Relay: relay.NewClient(relay.FromConfig(root)),
	}

	ing := ingestmod.New(ctx, deps, ingestmod.Options{})
	enr := enrichmod.New(deps, enrichmod.Options{})
	zm := zapsmod.New(ctx, deps, modkit.WithPorts(zapsmod.Ports{
		Loaders:  module.MustPortsOf[ingestmod.Ports](ing).Loaders,
		Enricher: module.MustPortsOf[enrichmod.Ports](enr).Enricher,
	}))
	sessions := module.MustPortsOf[zapsdom.ServicePort](zm)

	sess, err := sessions.Open(ctx, zapsdom.OpenInput{User: *fUser, Range: *fRange, Since: since, Until: until})
	if err != nil {
		l.Fatal().Err(err).Msg("bad window")
	}
	// drive pages by hand; the background chain would race the loop below
	if sess.State.AutoLoadEnabled {
		if _, err := sessions.ToggleAutoLoad(ctx, sess.ID); err != nil {
			l.Fatal().Err(err).Msg("pause auto load")
		}
	}

	threshold := ingestmod.FromConfig(root).FailureThreshold
	retry := ingestmod.FromConfig(root).RetryBase
	for i := 0; i < *fBatches && ctx.Err() == nil; i++ {
		out, err := sessions.Load(ctx, sess.ID)
		if err != nil {
			l.Fatal().Err(err).Msg("load")
		}
		st := out.State
		l.Info().Int("batch", st.BatchesFetched).Int("received", out.Batch.Received).Int("added", out.Batch.Added).
			Int("cached", st.Cached).Int("detected_limit", st.DetectedLimit).Str("error", out.Error).Msg("batch")
		if st.IsComplete {
			break
		}
		if st.ConsecutiveFailures >= threshold {
			l.Warn().Int("failures", st.ConsecutiveFailures).Msg("giving up; snapshot is partial")
			break
		}
		if out.Error != "" {
			sleep(ctx, retry<<uint(st.ConsecutiveFailures-1))
		}
	}

	snap, err := sessions.Snapshot(ctx, sess.ID)
	if err != nil {
		l.Fatal().Err(err).Msg("snapshot")
	}
	_ = sessions.Close(ctx, sess.ID)

	enc := json.NewEncoder(os.Stdout)
	if *fPretty {
		enc.SetIndent("", "  ")
	}
	if err := enc.Encode(snap); err != nil {
		l.Fatal().Err(err).Msg("encode snapshot")
	}
	summary(l, snap.Snapshot)
}

func summary(l *logger.Logger, s aggregate.Snapshot) {
	l.Info().Int64("amount", s.Totals.Amount).Int64("count", s.Totals.Count).Int("actors", s.Totals.Actors).
		Str("granularity", string(s.Granularity)).Msg("snapshot ready")
}

func sleep(ctx context.Context, d time.Duration) {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
	case <-t.C:
	}
}
