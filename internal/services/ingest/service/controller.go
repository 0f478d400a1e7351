// Package service implements progressive receipt ingestion: the pagination
// controller, the auto load scheduler and the loader factory that wires them
package service

import (
	"context"
	"sync"
	"time"

	"zaplens/internal/adapters/relay"
	"zaplens/internal/core/receipt"
	"zaplens/internal/core/window"
	perr "zaplens/internal/platform/errors"
	"zaplens/internal/platform/logger"
	dom "zaplens/internal/services/ingest/domain"
	"zaplens/internal/services/ingest/guardrails"
	"zaplens/internal/services/ingest/store"
)

// Controller pages one user's receipts backwards in time into the shared store.
// All state changes go through apply
type Controller struct {
	mu      sync.Mutex
	store   *store.Store
	src     dom.Source
	cfg     dom.Config
	metrics *Metrics
	now     func() time.Time

	user   string
	win    window.Window
	epoch  uint64
	phase  dom.Phase
	st     counters
	auto   bool
	lastEr string
}

type counters struct {
	batches       int
	total         int
	detectedLimit int
	failures      int
	// lastFull is set when the previous page filled its request
	lastFull bool
}

// NewController builds a controller with no active user
func NewController(st *store.Store, src dom.Source, cfg dom.Config, m *Metrics) *Controller {
	return &Controller{
		store:   st,
		src:     src,
		cfg:     cfg.Normalize(),
		metrics: m,
		now:     time.Now,
		phase:   dom.PhaseIdle,
		auto:    true,
	}
}

// apply runs one phase transition. Caller holds mu
func (c *Controller) apply(ev event) bool {
	to, ok := next(c.phase, ev)
	if !ok {
		return false
	}
	c.phase = to
	return true
}

// Reset switches to userID with fresh state
func (c *Controller) Reset(userID string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.apply(event{kind: evReset})
	c.user = userID
	c.epoch++
	c.st = counters{}
	c.auto = true
	c.lastEr = ""
	if !c.win.Since.IsZero() {
		c.apply(event{kind: evRetarget, complete: c.coveredLocked(c.win)})
	}
}

// coveredLocked reports whether the store already spans w. Caller holds mu
func (c *Controller) coveredLocked(w window.Window) bool {
	return c.store.Covers(c.user, w, c.now(), c.cfg.BoundaryTolerance)
}

// SetWindow retargets the controller without touching progress counters
func (c *Controller) SetWindow(w window.Window) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.win = w
	if c.user == "" {
		return
	}
	c.apply(event{kind: evRetarget, complete: c.coveredLocked(w)})
}

// Window returns the active window
func (c *Controller) Window() window.Window {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.win
}

// User returns the active user
func (c *Controller) User() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.user
}

// ToggleAutoLoad flips auto loading; failures are kept
func (c *Controller) ToggleAutoLoad() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.auto = !c.auto
	return c.auto
}

// RestartAutoLoad clears failures and enables auto loading
func (c *Controller) RestartAutoLoad() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.st.failures = 0
	c.auto = true
	c.lastEr = ""
}

// WantsAuto reports whether an automatic fetch would pass its preconditions
func (c *Controller) WantsAuto() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.skipLocked(true) == ""
}

// Fetching reports whether a fetch is in flight
func (c *Controller) Fetching() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.phase == dom.PhaseFetching
}

// State snapshots the loading state
func (c *Controller) State() dom.LoadingState {
	c.mu.Lock()
	defer c.mu.Unlock()
	s := dom.LoadingState{
		UserID:              c.user,
		Phase:               c.phase,
		IsFetching:          c.phase == dom.PhaseFetching,
		IsComplete:          c.phase == dom.PhaseComplete,
		BatchesFetched:      c.st.batches,
		TotalFetched:        c.st.total,
		DetectedLimit:       c.st.detectedLimit,
		ConsecutiveFailures: c.st.failures,
		AutoLoadEnabled:     c.auto,
		LastError:           c.lastEr,
	}
	if c.user != "" {
		s.Cached = c.store.Len(c.user)
	}
	s.CanLoadMore = c.user != "" && !s.IsFetching && !s.IsComplete
	return s
}

// skipLocked returns why a fetch may not start, or "". Caller holds mu
func (c *Controller) skipLocked(automatic bool) string {
	switch {
	case c.user == "":
		return dom.SkipNoUser
	case c.phase == dom.PhaseFetching:
		return dom.SkipInFlight
	case c.phase == dom.PhaseComplete:
		return dom.SkipComplete
	case automatic && !c.auto:
		return dom.SkipAutoDisabled
	case automatic && c.st.failures >= c.cfg.FailureThreshold:
		return dom.SkipExhausted
	}
	return ""
}

// batchSize picks the page size for the next request. After a full page the
// request doubles so a limit detected on a short page can be raised. Caller holds mu
func (c *Controller) batchSize(automatic bool) int {
	size := c.cfg.InitialBatch
	if c.st.detectedLimit > 0 {
		size = c.st.detectedLimit
		if c.st.lastFull {
			size *= 2
		}
	}
	size = min(size, c.cfg.MaxBatch)
	if automatic && c.st.batches > 0 {
		size = min(size, c.cfg.AutoBatch)
	}
	return max(size, c.cfg.MinBatch)
}

// observeLimit updates the detected limit from one page. Caller holds mu
func (c *Controller) observeLimit(requested, received int) {
	c.st.lastFull = received > 0 && received >= requested
	switch {
	case c.st.detectedLimit == 0 && received < requested:
		c.st.detectedLimit = max(received, c.cfg.MinBatch)
	case c.st.detectedLimit > 0 && received > c.st.detectedLimit:
		c.st.detectedLimit = min(received, c.cfg.MaxBatch)
	}
}

// gap returns the newest unscanned range of w. until is nil while the range
// still reaches now on an open window. Caller holds mu
func (c *Controller) gap(w window.Window, now time.Time) (since time.Time, until *time.Time, ok bool) {
	top := w.End(now)
	if top.After(now) {
		top = now
	}
	lo, hi, ok := c.store.Gap(c.user, w.Since, top)
	if !ok {
		return time.Time{}, nil, false
	}
	if w.Until != nil || hi.Before(top.Truncate(time.Second)) {
		until = &hi
	}
	return lo, until, true
}

// FetchNext runs one page against the source for w. Failed preconditions
// return a skipped result and no error. Batch failures are returned after
// being counted
func (c *Controller) FetchNext(ctx context.Context, w window.Window, automatic bool) (dom.BatchResult, error) {
	c.mu.Lock()
	if w.Key() != c.win.Key() {
		c.win = w
		if c.phase != dom.PhaseFetching && c.user != "" {
			c.apply(event{kind: evRetarget, complete: c.coveredLocked(w)})
		}
	}
	if reason := c.skipLocked(automatic); reason != "" {
		c.mu.Unlock()
		return dom.BatchResult{Skipped: reason}, nil
	}
	user, epoch := c.user, c.epoch
	release, ok := c.store.Claim(user)
	if !ok {
		c.mu.Unlock()
		return dom.BatchResult{Skipped: dom.SkipInFlight}, nil
	}
	defer release()

	start := c.now()
	res := dom.BatchResult{Requested: c.batchSize(automatic)}
	gapSince, gapUntil, open := c.gap(w, start)
	if !open {
		// every second of w has been scanned already
		c.apply(event{kind: evStart})
		c.apply(event{kind: evSucceed, complete: true})
		c.mu.Unlock()
		res.Complete = true
		return res, nil
	}
	res.Cursor = gapUntil
	since := gapSince.Unix()
	filter := relay.Filter{
		Kinds: c.cfg.Kinds,
		PTags: []string{user},
		Limit: res.Requested,
		Since: &since,
	}
	scanTop := start
	if gapUntil != nil {
		u := gapUntil.Unix()
		filter.Until = &u
		scanTop = *gapUntil
	}
	c.apply(event{kind: evStart})
	c.mu.Unlock()

	log := logger.C(ctx).With().Str("component", "ingest").Str("user_id", user).Logger()
	bctx, cancel := guardrails.ForBatch(ctx, guardrails.Timeouts{Batch: c.cfg.BatchTimeout})
	events, err := c.src.Query(bctx, filter)
	cancel()
	res.Duration = c.now().Sub(start)

	if err == nil {
		res.Received = len(events)
		valid, dropped := receipt.ParseAll(events)
		res.Valid = len(valid)
		for reason, n := range dropped {
			res.Dropped += n
			c.metrics.malformed(reason, n)
			log.Trace().Str("reason", reason).Int("count", n).Msg("dropped malformed receipts")
		}
		res.Added = c.store.Merge(user, valid)
		// an empty page, or one the relay answered outside the cursor, exhausts the gap
		scanned := gapSince
		if oldest := oldestEvent(events); !oldest.IsZero() && !oldest.After(scanTop) {
			scanned = oldest
		}
		c.store.Scanned(user, scanned, scanTop)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if epoch != c.epoch {
		// user switched mid flight; merged data stays in the store for that user
		res.Skipped = dom.SkipStale
		return res, err
	}

	if err != nil {
		c.apply(event{kind: evFail})
		c.st.failures++
		c.lastEr = err.Error()
		exhausted := c.st.failures >= c.cfg.FailureThreshold
		if exhausted && c.auto {
			c.auto = false
			c.metrics.exhausted()
			log.Warn().Int("failures", c.st.failures).Msg("auto load disabled after repeated failures")
		}
		c.metrics.batch(outcomeFailed, res)
		log.Warn().Err(err).
			Int("requested", res.Requested).
			Int("failures", c.st.failures).
			Bool("retryable", perr.Retryable(err)).
			Msg("batch failed")
		return res, err
	}

	c.st.failures = 0
	c.lastEr = ""
	c.st.batches++
	c.st.total += res.Added
	c.observeLimit(res.Requested, res.Received)

	res.Complete = c.coveredLocked(c.win)
	res.Substantial = !res.Complete && (float64(res.Received) >= c.cfg.SubstantialRatio*float64(res.Requested) ||
		res.Received >= c.cfg.SubstantialMin)

	c.apply(event{kind: evSucceed, complete: res.Complete})
	c.metrics.batch(outcomeOK, res)
	log.Debug().
		Int("requested", res.Requested).
		Int("received", res.Received).
		Int("added", res.Added).
		Int("detected_limit", c.st.detectedLimit).
		Bool("complete", res.Complete).
		Bool("automatic", automatic).
		Msg("batch fetched")
	return res, nil
}

func oldestEvent(events []receipt.Event) time.Time {
	var oldest int64
	for _, ev := range events {
		if ev.CreatedAt > 0 && (oldest == 0 || ev.CreatedAt < oldest) {
			oldest = ev.CreatedAt
		}
	}
	if oldest == 0 {
		return time.Time{}
	}
	return time.Unix(oldest, 0).UTC()
}
