// Package service manages viewing sessions: one loader per session, snapshots
// assembled on demand from the session's cached receipts
package service

import (
	"context"
	"sync"
	"time"

	"zaplens/internal/core/aggregate"
	"zaplens/internal/core/window"
	perr "zaplens/internal/platform/errors"
	"zaplens/internal/platform/logger"
	"zaplens/internal/services/api/zaps/domain"
	enrich "zaplens/internal/services/enrich/domain"
	ingest "zaplens/internal/services/ingest/domain"

	"github.com/google/uuid"
)

// Options tunes the session manager
type Options struct {
	// TTL closes sessions idle for this long
	TTL       time.Duration
	Analytics aggregate.Options
}

// Service is the session manager
type Service struct {
	loaders  ingest.LoaderFactory
	enricher enrich.Enricher
	opt      Options
	metrics  *Metrics

	mu       sync.Mutex
	sessions map[string]*session

	now   func() time.Time
	newID func() string
}

type session struct {
	id      string
	loader  ingest.Loader
	touched time.Time
}

var _ domain.ServicePort = (*Service)(nil)

// New constructs the manager
func New(loaders ingest.LoaderFactory, enricher enrich.Enricher, opt Options, m *Metrics) *Service {
	if loaders == nil {
		panic("zaps: session manager requires a LoaderFactory")
	}
	if enricher == nil {
		panic("zaps: session manager requires an Enricher")
	}
	if opt.TTL <= 0 {
		opt.TTL = 30 * time.Minute
	}
	return &Service{
		loaders:  loaders,
		enricher: enricher,
		opt:      opt,
		metrics:  m,
		sessions: map[string]*session{},
		now:      time.Now,
		newID:    uuid.NewString,
	}
}

// Open implements domain.ServicePort
func (s *Service) Open(ctx context.Context, in domain.OpenInput) (domain.SessionView, error) {
	w, err := window.Resolve(in.Range, in.Since, in.Until, s.now())
	if err != nil {
		return domain.SessionView{}, err
	}

	l := s.loaders.NewLoader()
	l.Activate(in.User, w)
	ss := &session{id: s.newID(), loader: l, touched: s.now()}

	s.mu.Lock()
	s.sessions[ss.id] = ss
	n := len(s.sessions)
	s.mu.Unlock()
	s.metrics.open(n)

	logger.C(logger.WithSession(ctx, ss.id, in.User)).Info().Str("window", w.Key()).Msg("session opened")
	return s.view(ss), nil
}

// Get implements domain.ServicePort
func (s *Service) Get(_ context.Context, id string) (domain.SessionView, error) {
	ss, err := s.lookup(id)
	if err != nil {
		return domain.SessionView{}, err
	}
	return s.view(ss), nil
}

// Close implements domain.ServicePort
func (s *Service) Close(ctx context.Context, id string) error {
	s.mu.Lock()
	ss, ok := s.sessions[id]
	delete(s.sessions, id)
	n := len(s.sessions)
	s.mu.Unlock()
	if !ok {
		return perr.NotFoundf("session %s not found", id)
	}
	ss.loader.Close()
	s.metrics.closed(n)
	logger.C(logger.WithSession(ctx, id, "")).Info().Msg("session closed")
	return nil
}

// SetUser implements domain.ServicePort
func (s *Service) SetUser(ctx context.Context, id string, in domain.UserInput) (domain.SessionView, error) {
	ss, err := s.lookup(id)
	if err != nil {
		return domain.SessionView{}, err
	}
	ss.loader.Activate(in.User, ss.loader.Window())
	logger.C(logger.WithSession(ctx, id, in.User)).Info().Msg("session user switched")
	return s.view(ss), nil
}

// SetWindow implements domain.ServicePort
func (s *Service) SetWindow(_ context.Context, id string, in domain.WindowInput) (domain.SessionView, error) {
	ss, err := s.lookup(id)
	if err != nil {
		return domain.SessionView{}, err
	}
	w, err := window.Resolve(in.Range, in.Since, in.Until, s.now())
	if err != nil {
		return domain.SessionView{}, err
	}
	ss.loader.Activate(ss.loader.State().UserID, w)
	return s.view(ss), nil
}

// Load implements domain.ServicePort. A fetch already in flight makes this a no-op
func (s *Service) Load(ctx context.Context, id string) (domain.LoadOutput, error) {
	ss, err := s.lookup(id)
	if err != nil {
		return domain.LoadOutput{}, err
	}
	res, ferr := ss.loader.LoadMore(ctx)
	out := domain.LoadOutput{Batch: res, State: ss.loader.State()}
	if ferr != nil {
		out.Error = ferr.Error()
	}
	return out, nil
}

// ToggleAutoLoad implements domain.ServicePort
func (s *Service) ToggleAutoLoad(_ context.Context, id string) (domain.SessionView, error) {
	ss, err := s.lookup(id)
	if err != nil {
		return domain.SessionView{}, err
	}
	ss.loader.ToggleAutoLoad()
	return s.view(ss), nil
}

// RestartAutoLoad implements domain.ServicePort
func (s *Service) RestartAutoLoad(_ context.Context, id string) (domain.SessionView, error) {
	ss, err := s.lookup(id)
	if err != nil {
		return domain.SessionView{}, err
	}
	ss.loader.RestartAutoLoad()
	return s.view(ss), nil
}

// Snapshot implements domain.ServicePort. The snapshot covers whatever is cached
// now; State says whether more is coming
func (s *Service) Snapshot(ctx context.Context, id string) (domain.SnapshotView, error) {
	ss, err := s.lookup(id)
	if err != nil {
		return domain.SnapshotView{}, err
	}
	start := s.now()
	// state and records are read together so the view describes the data it aggregates
	w, state, raw := ss.loader.Window(), ss.loader.State(), ss.loader.Records()
	records, stats := s.enricher.Join(ctx, raw)
	snap := aggregate.Build(records, w, s.now(), s.opt.Analytics)
	s.metrics.snapshot(s.now().Sub(start))

	return domain.SnapshotView{
		SessionID:  id,
		State:      state,
		Enrichment: stats,
		Snapshot:   snap,
	}, nil
}

// Sweep closes sessions idle past the TTL and returns how many it closed
func (s *Service) Sweep() int {
	cutoff := s.now().Add(-s.opt.TTL)
	var stale []*session
	s.mu.Lock()
	for id, ss := range s.sessions {
		if ss.touched.Before(cutoff) {
			stale = append(stale, ss)
			delete(s.sessions, id)
		}
	}
	n := len(s.sessions)
	s.mu.Unlock()

	for _, ss := range stale {
		ss.loader.Close()
	}
	if len(stale) > 0 {
		s.metrics.closed(n)
		logger.Named("zaps").Debug().Int("closed", len(stale)).Int("open", n).Msg("expired sessions swept")
	}
	return len(stale)
}

// Run sweeps expired sessions until ctx ends, then closes every session
func (s *Service) Run(ctx context.Context) {
	every := s.opt.TTL / 2
	if every < time.Second {
		every = time.Second
	}
	t := time.NewTicker(every)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			s.closeAll()
			return
		case <-t.C:
			s.Sweep()
		}
	}
}

// Len returns the number of open sessions
func (s *Service) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sessions)
}

func (s *Service) closeAll() {
	s.mu.Lock()
	all := s.sessions
	s.sessions = map[string]*session{}
	s.mu.Unlock()
	for _, ss := range all {
		ss.loader.Close()
	}
	s.metrics.closed(0)
}

// lookup returns a live session and refreshes its idle clock
func (s *Service) lookup(id string) (*session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	ss, ok := s.sessions[id]
	if !ok {
		return nil, perr.WithField(perr.NotFoundf("session %s not found", id), "id")
	}
	ss.touched = s.now()
	return ss, nil
}

func (s *Service) view(ss *session) domain.SessionView {
	s.mu.Lock()
	touched := ss.touched
	s.mu.Unlock()
	return domain.SessionView{
		ID:        ss.id,
		Window:    ss.loader.Window(),
		State:     ss.loader.State(),
		ExpiresAt: touched.Add(s.opt.TTL),
	}
}
