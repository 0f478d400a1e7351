package service

import (
	"context"

	"zaplens/internal/platform/logger"
	dom "zaplens/internal/services/ingest/domain"
	"zaplens/internal/services/ingest/store"
)

// Engine creates session loaders over one shared receipt store
type Engine struct {
	ctx     context.Context
	store   *store.Store
	src     dom.Source
	cfg     dom.Config
	metrics *Metrics
	clock   Clock
}

// New constructs the engine. ctx bounds every fetch any loader makes
func New(ctx context.Context, st *store.Store, src dom.Source, cfg dom.Config, m *Metrics) *Engine {
	cfg = cfg.Normalize()
	if st == nil {
		st = store.New(cfg.MaxUsers, store.WithEvictHook(func(id string) {
			logger.Named("ingest").Debug().Str("user_id", id).Msg("evicted cached receipts")
		}))
	}
	return &Engine{ctx: ctx, store: st, src: src, cfg: cfg, metrics: m, clock: realClock{}}
}

// WithClock swaps the scheduler clock for loaders created afterwards
func (e *Engine) WithClock(c Clock) *Engine {
	e.clock = c
	return e
}

// Store exposes the shared receipt store
func (e *Engine) Store() *store.Store { return e.store }

// Config returns the normalized tuning
func (e *Engine) Config() dom.Config { return e.cfg }

// NewLoader implements domain.LoaderFactory
func (e *Engine) NewLoader() dom.Loader { return e.NewScheduler() }

// NewScheduler returns a concrete loader for callers that need the scheduler surface
func (e *Engine) NewScheduler() *Scheduler {
	return NewScheduler(e.ctx, NewController(e.store, e.src, e.cfg, e.metrics), e.clock)
}
