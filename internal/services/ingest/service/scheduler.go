package service

import (
	"context"
	"sync"
	"time"

	"zaplens/internal/core/receipt"
	"zaplens/internal/core/window"
	"zaplens/internal/platform/logger"
	dom "zaplens/internal/services/ingest/domain"
)

// Scheduler chains automatic fetches for one session. It owns at most one
// pending timer; every schedule or cancel bumps gen so a timer that fires
// after being superseded does nothing
type Scheduler struct {
	ctrl  *Controller
	cfg   dom.Config
	clock Clock
	log   logger.Logger

	mu      sync.Mutex
	gen     uint64
	pending Timer
	// rearm asks the fetch in flight to schedule for the new window when it lands
	rearm   bool
	parent  context.Context
	userCtx context.Context
	cancel  context.CancelFunc
	closed  bool
	running sync.WaitGroup
}

// NewScheduler wraps ctrl; parent bounds every fetch the session makes
func NewScheduler(parent context.Context, ctrl *Controller, clock Clock) *Scheduler {
	if clock == nil {
		clock = realClock{}
	}
	ctx, cancel := context.WithCancel(parent)
	return &Scheduler{
		ctrl:    ctrl,
		cfg:     ctrl.cfg,
		clock:   clock,
		log:     *logger.Named("ingest"),
		parent:  parent,
		userCtx: ctx,
		cancel:  cancel,
	}
}

// Activate implements domain.Loader
func (s *Scheduler) Activate(userID string, w window.Window) {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.cancelLocked()
	s.rearm = false
	if userID != s.ctrl.User() {
		// reset first so the aborted fetch sees a stale epoch, then abort it
		s.ctrl.SetWindow(w)
		s.ctrl.Reset(userID)
		s.cancel()
		s.userCtx, s.cancel = context.WithCancel(s.parent)
		s.log.Debug().Str("user_id", userID).Str("window", w.Key()).Msg("session user activated")
	} else {
		s.ctrl.SetWindow(w)
		s.rearm = s.ctrl.Fetching()
	}
	if s.ctrl.WantsAuto() {
		s.scheduleLocked(s.cfg.InitialDelay)
	}
	s.mu.Unlock()
}

// Schedule arms the next automatic fetch after d, replacing any pending one
func (s *Scheduler) Schedule(d time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.closed {
		s.scheduleLocked(d)
	}
}

// Cancel drops the pending automatic fetch
func (s *Scheduler) Cancel() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cancelLocked()
}

// Pending reports whether an automatic fetch is armed
func (s *Scheduler) Pending() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.pending != nil
}

func (s *Scheduler) scheduleLocked(d time.Duration) {
	s.cancelLocked()
	g := s.gen
	s.pending = s.clock.AfterFunc(max(d, 0), func() { s.fire(g) })
}

func (s *Scheduler) cancelLocked() {
	s.gen++
	if s.pending != nil {
		s.pending.Stop()
		s.pending = nil
	}
}

// fire runs an automatic fetch for generation g and decides what comes next
func (s *Scheduler) fire(g uint64) {
	s.mu.Lock()
	if g != s.gen || s.closed {
		s.mu.Unlock()
		return
	}
	s.pending = nil
	ctx := s.userCtx
	s.running.Add(1)
	s.mu.Unlock()
	defer s.running.Done()

	res, err := s.ctrl.FetchNext(ctx, s.ctrl.Window(), true)

	s.mu.Lock()
	defer s.mu.Unlock()
	if g != s.gen || s.closed || res.Skipped != "" {
		s.landedLocked()
		return
	}
	if err != nil {
		st := s.ctrl.State()
		if st.AutoLoadEnabled && st.ConsecutiveFailures < s.cfg.FailureThreshold {
			s.scheduleLocked(s.retryDelay(st.ConsecutiveFailures))
		}
		return
	}
	if res.Substantial && !res.Complete {
		s.scheduleLocked(s.cfg.InterBatchDelay)
	}
}

// retryDelay is RetryBase doubled per consecutive failure, capped
func (s *Scheduler) retryDelay(failures int) time.Duration {
	if failures < 1 {
		failures = 1
	}
	d := s.cfg.RetryBase << uint(failures-1)
	if d <= 0 || d > s.cfg.MaxRetryDelay {
		return s.cfg.MaxRetryDelay
	}
	return d
}

// LoadMore implements domain.Loader. The fetch stops when either ctx or the session's user context ends
func (s *Scheduler) LoadMore(ctx context.Context) (dom.BatchResult, error) {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return dom.BatchResult{Skipped: dom.SkipNoUser}, nil
	}
	fctx, cancel := context.WithCancel(s.userCtx)
	s.mu.Unlock()
	defer cancel()
	stop := context.AfterFunc(ctx, cancel)
	defer stop()

	res, err := s.ctrl.FetchNext(fctx, s.ctrl.Window(), false)
	if res.Skipped == "" {
		s.mu.Lock()
		s.landedLocked()
		s.mu.Unlock()
	}
	return res, err
}

// landedLocked schedules for a window that changed while a fetch was in flight
func (s *Scheduler) landedLocked() {
	if !s.rearm || s.closed {
		return
	}
	s.rearm = false
	if s.pending == nil && s.ctrl.WantsAuto() {
		s.scheduleLocked(s.cfg.InitialDelay)
	}
}

// ToggleAutoLoad implements domain.Loader
func (s *Scheduler) ToggleAutoLoad() dom.LoadingState {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.ctrl.ToggleAutoLoad() {
		if s.ctrl.WantsAuto() {
			s.scheduleLocked(s.cfg.InitialDelay)
		}
	} else {
		s.cancelLocked()
	}
	return s.stateLocked()
}

// RestartAutoLoad implements domain.Loader
func (s *Scheduler) RestartAutoLoad() dom.LoadingState {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ctrl.RestartAutoLoad()
	s.cancelLocked()
	if s.ctrl.WantsAuto() {
		s.scheduleLocked(0)
	}
	return s.stateLocked()
}

// State implements domain.Loader
func (s *Scheduler) State() dom.LoadingState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stateLocked()
}

func (s *Scheduler) stateLocked() dom.LoadingState {
	st := s.ctrl.State()
	st.AutoLoadPending = s.pending != nil
	return st
}

// Records implements domain.Loader
func (s *Scheduler) Records() []receipt.Receipt {
	user, w := s.ctrl.User(), s.ctrl.Window()
	if user == "" {
		return nil
	}
	return s.ctrl.store.FilterForWindow(user, w)
}

// Window implements domain.Loader
func (s *Scheduler) Window() window.Window { return s.ctrl.Window() }

// Close cancels timers and in flight fetches and waits for running automatic fetches
func (s *Scheduler) Close() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.closed = true
	s.cancelLocked()
	s.cancel()
	s.mu.Unlock()
	s.running.Wait()
}
