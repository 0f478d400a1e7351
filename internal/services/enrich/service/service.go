// Package service resolves the content and profiles receipts point at.
// Lookups run in fixed size chunks with bounded concurrency; a failed chunk
// is logged and skipped so enrichment degrades instead of failing
package service

import (
	"context"
	"sync"
	"time"

	"zaplens/internal/adapters/relay"
	"zaplens/internal/core/receipt"
	"zaplens/internal/platform/logger"
	str "zaplens/internal/platform/strings"
	"zaplens/internal/services/enrich/cache"
	dom "zaplens/internal/services/enrich/domain"
	"zaplens/internal/services/ingest/guardrails"

	"golang.org/x/sync/errgroup"
)

// Config controls chunking and concurrency
type Config struct {
	ContentChunk   int
	ProfileChunk   int
	Concurrency    int
	Pause          time.Duration
	ContentTimeout time.Duration
	ProfileTimeout time.Duration
	MaxContent     int
	MaxProfiles    int
}

// DefaultConfig returns the stock tuning
func DefaultConfig() Config {
	return Config{
		ContentChunk:   150,
		ProfileChunk:   100,
		Concurrency:    3,
		Pause:          100 * time.Millisecond,
		ContentTimeout: 15 * time.Second,
		ProfileTimeout: 12 * time.Second,
		MaxContent:     50_000,
		MaxProfiles:    50_000,
	}
}

// Svc implements domain.Enricher
type Svc struct {
	src      relay.Querier
	cfg      Config
	contents *cache.ContentCache
	profiles *cache.ProfileCache
	metrics  *Metrics
	log      logger.Logger
	sleep    func(context.Context, time.Duration) error
}

var _ dom.Enricher = (*Svc)(nil)

// New constructs the service with fresh caches
func New(src relay.Querier, cfg Config, m *Metrics) *Svc {
	d := DefaultConfig()
	if cfg.ContentChunk <= 0 {
		cfg.ContentChunk = d.ContentChunk
	}
	if cfg.ProfileChunk <= 0 {
		cfg.ProfileChunk = d.ProfileChunk
	}
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = d.Concurrency
	}
	return &Svc{
		src:      src,
		cfg:      cfg,
		contents: cache.New[receipt.Content](cfg.MaxContent),
		profiles: cache.New[receipt.Profile](cfg.MaxProfiles),
		metrics:  m,
		log:      *logger.Named("enrich"),
		sleep:    pause,
	}
}

// Contents exposes the content cache
func (s *Svc) Contents() *cache.ContentCache { return s.contents }

// Profiles exposes the profile cache
func (s *Svc) Profiles() *cache.ProfileCache { return s.profiles }

// Join implements domain.Enricher. Content resolves first so its authors join the profile pass
func (s *Svc) Join(ctx context.Context, rs []receipt.Receipt) ([]receipt.Record, dom.Stats) {
	var st dom.Stats

	contentIDs := make([]string, 0, len(rs))
	for _, r := range rs {
		if r.TargetEventID != "" {
			contentIDs = append(contentIDs, r.TargetEventID)
		}
	}
	contentIDs = str.Distinct(contentIDs)
	contents, failed := s.ResolveContent(ctx, contentIDs)
	st.ContentRequested, st.ContentResolved = len(contentIDs), len(contents)
	st.FailedChunks += failed

	actorIDs := make([]string, 0, len(rs)+len(contents))
	for _, r := range rs {
		if id := receipt.ActorID(r); id != receipt.Anonymous {
			actorIDs = append(actorIDs, id)
		}
	}
	for _, id := range contentIDs {
		if c, ok := contents[id]; ok && c.Author != "" {
			actorIDs = append(actorIDs, c.Author)
		}
	}
	actorIDs = str.Distinct(actorIDs)
	profiles, failed := s.ResolveProfiles(ctx, actorIDs)
	st.ProfilesRequested, st.ProfilesResolved = len(actorIDs), len(profiles)
	st.FailedChunks += failed

	out := make([]receipt.Record, len(rs))
	for i, r := range rs {
		rec := receipt.Record{Receipt: r}
		if c, ok := contents[r.TargetEventID]; ok {
			rec.Content = &c
		}
		id := receipt.ActorID(r)
		if p, ok := profiles[id]; ok {
			rec.Actor = receipt.NewActor(id, &p)
		} else {
			rec.Actor = receipt.NewActor(id, nil)
		}
		out[i] = rec
	}
	return out, st
}

// ResolveContent looks up events by id and returns what resolved plus the failed chunk count
func (s *Svc) ResolveContent(ctx context.Context, ids []string) (map[string]receipt.Content, int) {
	return resolve(ctx, s, passContent, ids, s.cfg.ContentChunk,
		guardrails.Timeouts{Content: s.cfg.ContentTimeout}, guardrails.ForContent, s.contents,
		func(ctx context.Context, chunk []string) (map[string]receipt.Content, error) {
			evs, err := s.src.Query(ctx, relay.Filter{IDs: chunk, Limit: len(chunk)})
			if err != nil {
				return nil, err
			}
			got := make(map[string]receipt.Content, len(evs))
			for _, ev := range evs {
				got[ev.ID] = receipt.ContentFromEvent(ev)
			}
			return got, nil
		})
}

// ResolveProfiles looks up the newest kind 0 event per pubkey
func (s *Svc) ResolveProfiles(ctx context.Context, pubkeys []string) (map[string]receipt.Profile, int) {
	return resolve(ctx, s, passProfile, pubkeys, s.cfg.ProfileChunk,
		guardrails.Timeouts{Profile: s.cfg.ProfileTimeout}, guardrails.ForProfile, s.profiles,
		func(ctx context.Context, chunk []string) (map[string]receipt.Profile, error) {
			evs, err := s.src.Query(ctx, relay.Filter{Authors: chunk, Kinds: []int{receipt.KindProfile}, Limit: len(chunk)})
			if err != nil {
				return nil, err
			}
			newest := map[string]receipt.Event{}
			for _, ev := range evs {
				if ev.Kind != receipt.KindProfile {
					continue
				}
				if cur, ok := newest[ev.PubKey]; !ok || ev.CreatedAt > cur.CreatedAt {
					newest[ev.PubKey] = ev
				}
			}
			got := make(map[string]receipt.Profile, len(newest))
			for pk, ev := range newest {
				got[pk] = receipt.ProfileFromEvent(ev)
			}
			return got, nil
		})
}

type boundFn func(context.Context, guardrails.Timeouts) (context.Context, context.CancelFunc)

// resolve runs one pass: cache hits first, then the misses in chunks with at most
// Concurrency lookups in flight and Pause between launches
func resolve[V any](
	ctx context.Context,
	s *Svc,
	pass string,
	ids []string,
	chunkSize int,
	budget guardrails.Timeouts,
	bound boundFn,
	c *cache.Cache[V],
	lookup func(context.Context, []string) (map[string]V, error),
) (map[string]V, int) {
	out := make(map[string]V, len(ids))
	for _, id := range ids {
		if v, ok := c.Get(id); ok {
			out[id] = v
		}
	}
	missing := c.Missing(ids)
	s.metrics.cache(pass, len(out), len(missing))
	if len(missing) == 0 || s.src == nil {
		return out, 0
	}

	var (
		mu     sync.Mutex
		failed int
		g      errgroup.Group
	)
	g.SetLimit(s.cfg.Concurrency)
	for i, chunk := range str.Chunk(missing, chunkSize) {
		if i > 0 && s.cfg.Pause > 0 {
			if err := s.sleep(ctx, s.cfg.Pause); err != nil {
				break
			}
		}
		if ctx.Err() != nil {
			break
		}
		g.Go(func() error {
			cctx, cancel := bound(ctx, budget)
			defer cancel()
			got, err := lookup(cctx, chunk)
			if err != nil {
				mu.Lock()
				failed++
				mu.Unlock()
				s.metrics.chunk(pass, outcomeFailed)
				logger.C(ctx).Warn().Err(err).Str("pass", pass).Int("ids", len(chunk)).Msg("enrichment chunk failed; skipping")
				return nil
			}
			s.metrics.chunk(pass, outcomeOK)
			mu.Lock()
			for id, v := range got {
				out[id] = v
				c.Put(id, v)
			}
			mu.Unlock()
			return nil
		})
	}
	_ = g.Wait()

	s.log.Debug().Str("pass", pass).Int("requested", len(ids)).Int("resolved", len(out)).Int("failed_chunks", failed).
		Msg("enrichment pass done")
	return out, failed
}

func pause(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
