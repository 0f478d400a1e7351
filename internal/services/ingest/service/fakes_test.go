package service

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"zaplens/internal/adapters/relay"
	"zaplens/internal/core/receipt"
	perr "zaplens/internal/platform/errors"
)

// fakeRelay serves one user's receipts newest first, truncating pages at a hidden limit
type fakeRelay struct {
	mu      sync.Mutex
	events  []receipt.Event
	limit   int
	fail    int  // fail this many upcoming queries
	failAll bool // fail every query
	block   chan struct{}
	started chan struct{}
	calls   []relay.Filter
}

func newFakeRelay(n, limit int, newest time.Time, step time.Duration) *fakeRelay {
	f := &fakeRelay{limit: limit}
	for i := range n {
		f.events = append(f.events, zapEvent(fmt.Sprintf("z%04d", i), newest.Add(-time.Duration(i)*step), int64(i%50+1)))
	}
	return f
}

func zapEvent(id string, at time.Time, sats int64) receipt.Event {
	desc := fmt.Sprintf(`{"pubkey":"sender%d","kind":9734,"tags":[["amount","%d"]],"content":""}`, sats%7, sats*1000)
	return receipt.Event{
		ID: id, Kind: receipt.KindZapReceipt, CreatedAt: at.Unix(), PubKey: "wallet",
		Tags: [][]string{{"p", "user"}, {"description", desc}},
	}
}

func (f *fakeRelay) Query(ctx context.Context, flt relay.Filter) ([]receipt.Event, error) {
	f.mu.Lock()
	f.calls = append(f.calls, flt)
	block, started := f.block, f.started
	failing := f.failAll || f.fail > 0
	if f.fail > 0 {
		f.fail--
	}
	f.mu.Unlock()

	if started != nil {
		started <- struct{}{}
	}
	if block != nil {
		select {
		case <-block:
		case <-ctx.Done():
			return nil, perr.Wrap(ctx.Err(), perr.ErrorCodeUnavailable, "fake relay cancelled")
		}
	}
	if failing {
		return nil, perr.Unavailablef("fake relay down")
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	var out []receipt.Event
	for _, ev := range f.events {
		if flt.Since != nil && ev.CreatedAt < *flt.Since {
			continue
		}
		if flt.Until != nil && ev.CreatedAt > *flt.Until {
			continue
		}
		out = append(out, ev)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt > out[j].CreatedAt })
	n := min(len(out), flt.Limit, f.limit)
	return out[:n], nil
}

func (f *fakeRelay) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

func (f *fakeRelay) total() int64 {
	var sum int64
	for _, ev := range f.events {
		r, err := receipt.Parse(ev)
		if err == nil {
			sum += r.Amount
		}
	}
	return sum
}

// manualClock fires timers only when told to
type manualClock struct {
	mu     sync.Mutex
	timers []*manualTimer
}

type manualTimer struct {
	c    *manualClock
	d    time.Duration
	f    func()
	dead bool
}

func (c *manualClock) AfterFunc(d time.Duration, f func()) Timer {
	c.mu.Lock()
	defer c.mu.Unlock()
	t := &manualTimer{c: c, d: d, f: f}
	c.timers = append(c.timers, t)
	return t
}

func (t *manualTimer) Stop() bool {
	t.c.mu.Lock()
	defer t.c.mu.Unlock()
	was := !t.dead
	t.dead = true
	return was
}

// FireNext runs the oldest live timer and returns its delay
func (c *manualClock) FireNext() (time.Duration, bool) {
	c.mu.Lock()
	var next *manualTimer
	for _, t := range c.timers {
		if !t.dead {
			next = t
			break
		}
	}
	if next == nil {
		c.mu.Unlock()
		return 0, false
	}
	next.dead = true
	c.mu.Unlock()
	next.f()
	return next.d, true
}

// Drain fires timers until none are left or limit is reached
func (c *manualClock) Drain(limit int) (fired []time.Duration) {
	for range limit {
		d, ok := c.FireNext()
		if !ok {
			return fired
		}
		fired = append(fired, d)
	}
	return fired
}
