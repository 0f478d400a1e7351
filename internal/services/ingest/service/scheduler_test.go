package service

import (
	"context"
	"testing"
	"time"

	"zaplens/internal/core/window"
	kit "zaplens/internal/platform/testkit"
	dom "zaplens/internal/services/ingest/domain"
)

func newLoader(t *testing.T, src *fakeRelay) (*Scheduler, *manualClock) {
	t.Helper()
	clk := &manualClock{}
	l := New(context.Background(), nil, src, dom.DefaultConfig(), nil).WithClock(clk).NewScheduler()
	t.Cleanup(l.Close)
	return l, clk
}

func TestScheduler_ChainStopsOnSmallResult(t *testing.T) {
	// 40 receipts: a single short page that is not substantial
	src := newFakeRelay(40, 1000, now, time.Hour)
	l, clk := newLoader(t, src)
	w := openWindow(now.Add(-30 * 24 * time.Hour))
	l.Activate("user", w)

	fired := clk.Drain(10)
	if len(fired) != 1 || fired[0] != dom.DefaultConfig().InitialDelay {
		t.Fatalf("fired %v", fired)
	}
	st := l.State()
	if st.IsComplete || st.AutoLoadPending || !st.CanLoadMore || st.TotalFetched != 40 {
		t.Fatalf("chain should stop short of completion: %+v", st)
	}

	res, err := l.LoadMore(context.Background())
	if err != nil || !res.Complete {
		t.Fatalf("manual continuation: %+v %v", res, err)
	}
}

func TestScheduler_BackoffThenExhausted(t *testing.T) {
	src := newFakeRelay(10, 1000, now, time.Minute)
	src.failAll = true
	l, clk := newLoader(t, src)
	l.Activate("user", openWindow(now.Add(-24*time.Hour)))

	fired := clk.Drain(10)
	cfg := dom.DefaultConfig()
	want := []time.Duration{cfg.InitialDelay, cfg.RetryBase, 2 * cfg.RetryBase}
	if len(fired) != len(want) {
		t.Fatalf("fired %v, want %v", fired, want)
	}
	for i := range want {
		if fired[i] != want[i] {
			t.Fatalf("fired %v, want %v", fired, want)
		}
	}
	st := l.State()
	if st.AutoLoadEnabled || st.ConsecutiveFailures != 3 || st.AutoLoadPending {
		t.Fatalf("state %+v", st)
	}

	src.failAll = false
	st = l.RestartAutoLoad()
	if !st.AutoLoadEnabled || st.ConsecutiveFailures != 0 || !st.AutoLoadPending {
		t.Fatalf("restart %+v", st)
	}
	if d, ok := clk.FireNext(); !ok || d != 0 {
		t.Fatalf("restart should fire immediately, got %v %v", d, ok)
	}
	if got := l.State(); got.TotalFetched != 10 {
		t.Fatalf("after restart %+v", got)
	}
}

func TestScheduler_RetryDelayCapped(t *testing.T) {
	l, _ := newLoader(t, newFakeRelay(0, 1, now, time.Minute))
	if d := l.retryDelay(1); d != 2*time.Second {
		t.Fatalf("first retry %v", d)
	}
	if d := l.retryDelay(3); d != 8*time.Second {
		t.Fatalf("third retry %v", d)
	}
	if d := l.retryDelay(10); d != time.Minute {
		t.Fatalf("cap %v", d)
	}
}

func TestScheduler_ToggleAndCancel(t *testing.T) {
	src := newFakeRelay(10, 1000, now, time.Minute)
	l, clk := newLoader(t, src)
	l.Activate("user", openWindow(now.Add(-24*time.Hour)))
	if !l.Pending() {
		t.Fatalf("expected pending fetch")
	}

	st := l.ToggleAutoLoad()
	if st.AutoLoadEnabled || st.AutoLoadPending {
		t.Fatalf("toggle off %+v", st)
	}
	if fired := clk.Drain(5); len(fired) != 0 || src.callCount() != 0 {
		t.Fatalf("cancelled timer fired %v", fired)
	}

	st = l.ToggleAutoLoad()
	if !st.AutoLoadEnabled || !st.AutoLoadPending {
		t.Fatalf("toggle on %+v", st)
	}
	l.Cancel()
	if l.Pending() {
		t.Fatalf("cancel left a pending fetch")
	}
}

func TestScheduler_WindowSwitchClearsTimersKeepsProgress(t *testing.T) {
	src := newFakeRelay(100, 1000, now, time.Hour)
	l, clk := newLoader(t, src)
	narrow := openWindow(now.Add(-24 * time.Hour))
	l.Activate("user", narrow)
	clk.Drain(5)
	if !l.State().IsComplete {
		t.Fatalf("narrow window should complete")
	}

	wide, _ := window.FromRange("30d", now)
	l.Activate("user", wide)
	st := l.State()
	if st.BatchesFetched != 1 || st.IsComplete || !st.AutoLoadPending {
		t.Fatalf("widening %+v", st)
	}

	// switching back drops the timer scheduled for the wide window
	l.Activate("user", narrow)
	if l.Pending() {
		t.Fatalf("covered window should not schedule")
	}
	if fired := clk.Drain(5); len(fired) != 0 {
		t.Fatalf("stale timer fired %v", fired)
	}
}

func TestScheduler_UserSwitchAbortsInFlight(t *testing.T) {
	src := newFakeRelay(10, 1000, now, time.Minute)
	src.block = make(chan struct{})
	src.started = make(chan struct{}, 1)
	l, _ := newLoader(t, src)
	w := openWindow(now.Add(-24 * time.Hour))
	l.Activate("alice", w)

	type out struct {
		res dom.BatchResult
		err error
	}
	done := make(chan out, 1)
	go func() {
		res, err := l.LoadMore(context.Background())
		done <- out{res, err}
	}()
	<-src.started

	l.Activate("bob", w)
	var got out
	kit.Eventually(t, 2*time.Second, func() bool {
		select {
		case got = <-done:
			return true
		default:
			return false
		}
	}, "in flight fetch aborted")

	if got.err == nil || got.res.Skipped != dom.SkipStale {
		t.Fatalf("aborted fetch %+v %v", got.res, got.err)
	}
	st := l.State()
	if st.UserID != "bob" || st.ConsecutiveFailures != 0 || st.BatchesFetched != 0 {
		t.Fatalf("new user state %+v", st)
	}
}

func TestScheduler_CloseIsFinal(t *testing.T) {
	l, clk := newLoader(t, newFakeRelay(10, 1000, now, time.Minute))
	l.Activate("user", openWindow(now.Add(-time.Hour)))
	l.Close()
	if fired := clk.Drain(3); len(fired) != 0 {
		t.Fatalf("timer fired after close %v", fired)
	}
	l.Activate("user", openWindow(now.Add(-2*time.Hour)))
	if l.Pending() {
		t.Fatalf("closed loader scheduled work")
	}
}
