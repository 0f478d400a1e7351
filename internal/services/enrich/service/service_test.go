package service

import (
	"context"
	"fmt"
	"slices"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"zaplens/internal/adapters/relay"
	"zaplens/internal/core/receipt"
	perr "zaplens/internal/platform/errors"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

// fakeRelay answers id and author lookups from fixed maps
type fakeRelay struct {
	mu       sync.Mutex
	notes    map[string]receipt.Event
	profiles []receipt.Event
	poison   string // any chunk containing this id fails
	delay    time.Duration
	calls    int
	inflight atomic.Int32
	peak     atomic.Int32
}

func (f *fakeRelay) Query(ctx context.Context, flt relay.Filter) ([]receipt.Event, error) {
	n := f.inflight.Add(1)
	defer f.inflight.Add(-1)
	for {
		p := f.peak.Load()
		if n <= p || f.peak.CompareAndSwap(p, n) {
			break
		}
	}
	f.mu.Lock()
	f.calls++
	f.mu.Unlock()

	if f.delay > 0 {
		select {
		case <-time.After(f.delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if f.poison != "" && (slices.Contains(flt.IDs, f.poison) || slices.Contains(flt.Authors, f.poison)) {
		return nil, perr.Unavailablef("relay hiccup")
	}

	var out []receipt.Event
	for _, id := range flt.IDs {
		if ev, ok := f.notes[id]; ok {
			out = append(out, ev)
		}
	}
	for _, ev := range f.profiles {
		if slices.Contains(flt.Authors, ev.PubKey) {
			out = append(out, ev)
		}
	}
	return out, nil
}

func (f *fakeRelay) Calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

func note(id, author string) receipt.Event {
	return receipt.Event{ID: id, PubKey: author, Kind: receipt.KindNote, Content: "gm #nostr", CreatedAt: 1_700_000_000}
}

func profile(pk, display string, at int64) receipt.Event {
	return receipt.Event{
		ID: "p-" + pk, PubKey: pk, Kind: receipt.KindProfile, CreatedAt: at,
		Content: fmt.Sprintf(`{"display_name":%q,"nip05":"%s@example.com"}`, display, pk),
	}
}

func newSvc(f *fakeRelay, cfg Config) *Svc {
	s := New(f, cfg, nil)
	s.sleep = func(context.Context, time.Duration) error { return nil }
	return s
}

func TestJoin_ResolvesContentAndActors(t *testing.T) {
	f := &fakeRelay{
		notes: map[string]receipt.Event{"n1": note("n1", "author1")},
		profiles: []receipt.Event{
			profile("alice", "old alice", 100),
			profile("alice", "Alice", 200),
			profile("author1", "Author", 100),
		},
	}
	s := newSvc(f, Config{})

	rs := []receipt.Receipt{
		{ID: "r1", Sender: "alice", TargetEventID: "n1", Amount: 21},
		{ID: "r2", Amount: 5},
		{ID: "r3", Sender: "bob", TargetEventID: "gone", Amount: 1},
	}
	recs, st := s.Join(context.Background(), rs)

	if len(recs) != 3 {
		t.Fatalf("records %d", len(recs))
	}
	if recs[0].Content == nil || recs[0].Content.Author != "author1" {
		t.Fatalf("content not joined: %+v", recs[0].Content)
	}
	if recs[0].Actor.Name == nil || *recs[0].Actor.Name != "Alice" {
		t.Fatalf("newest profile should win: %+v", recs[0].Actor)
	}
	if recs[1].Actor.ID != receipt.Anonymous || recs[1].Actor.Name != nil {
		t.Fatalf("anonymous actor %+v", recs[1].Actor)
	}
	if recs[2].Content != nil || recs[2].Actor.ID != "bob" || recs[2].Actor.Name != nil {
		t.Fatalf("unresolved record %+v", recs[2])
	}
	if st.ContentRequested != 2 || st.ContentResolved != 1 {
		t.Fatalf("content stats %+v", st)
	}
	// alice, bob, author1
	if st.ProfilesRequested != 3 || st.ProfilesResolved != 2 || st.FailedChunks != 0 {
		t.Fatalf("profile stats %+v", st)
	}
	if _, ok := s.Profiles().Get("author1"); !ok {
		t.Fatalf("content author profile should be cached")
	}
}

func TestResolveContent_FailedChunkIsSkipped(t *testing.T) {
	f := &fakeRelay{notes: map[string]receipt.Event{}, poison: "id03"}
	var ids []string
	for i := range 10 {
		id := fmt.Sprintf("id%02d", i)
		ids = append(ids, id)
		f.notes[id] = note(id, "a")
	}
	reg := prometheus.NewRegistry()
	s := New(f, Config{ContentChunk: 2}, NewMetrics(reg))
	s.sleep = func(context.Context, time.Duration) error { return nil }

	got, failed := s.ResolveContent(context.Background(), ids)
	if failed != 1 {
		t.Fatalf("failed chunks = %d", failed)
	}
	if len(got) != 8 {
		t.Fatalf("resolved %d, want 8", len(got))
	}
	if _, ok := got["id02"]; ok {
		t.Fatalf("id02 shared the poisoned chunk")
	}
	if v := testutil.ToFloat64(s.metrics.chunks.WithLabelValues(passContent, outcomeFailed)); v != 1 {
		t.Fatalf("failed chunk metric %v", v)
	}
	if v := testutil.ToFloat64(s.metrics.chunks.WithLabelValues(passContent, outcomeOK)); v != 4 {
		t.Fatalf("ok chunk metric %v", v)
	}
}

func TestResolveContent_CacheReuse(t *testing.T) {
	f := &fakeRelay{notes: map[string]receipt.Event{"a": note("a", "x"), "b": note("b", "x")}}
	s := newSvc(f, Config{})

	if got, _ := s.ResolveContent(context.Background(), []string{"a", "b"}); len(got) != 2 {
		t.Fatalf("first pass %d", len(got))
	}
	before := f.Calls()
	if got, _ := s.ResolveContent(context.Background(), []string{"a", "b"}); len(got) != 2 {
		t.Fatalf("second pass %d", len(got))
	}
	if f.Calls() != before {
		t.Fatalf("cached ids hit the relay again")
	}
}

func TestResolve_BoundedConcurrency(t *testing.T) {
	f := &fakeRelay{delay: 20 * time.Millisecond}
	var pks []string
	for i := range 40 {
		pks = append(pks, fmt.Sprintf("pk%02d", i))
	}
	s := newSvc(f, Config{ProfileChunk: 2, Concurrency: 3})

	_, failed := s.ResolveProfiles(context.Background(), pks)
	if failed != 0 {
		t.Fatalf("failed %d", failed)
	}
	if f.Calls() != 20 {
		t.Fatalf("calls %d, want 20", f.Calls())
	}
	if p := f.peak.Load(); p > 3 {
		t.Fatalf("peak concurrency %d exceeds 3", p)
	}
}

func TestResolve_PausesBetweenChunks(t *testing.T) {
	f := &fakeRelay{}
	s := New(f, Config{ProfileChunk: 1, Pause: time.Second}, nil)
	var pauses int
	s.sleep = func(_ context.Context, d time.Duration) error {
		if d != time.Second {
			t.Errorf("pause %v", d)
		}
		pauses++
		return nil
	}
	s.ResolveProfiles(context.Background(), []string{"a", "b", "c"})
	if pauses != 2 {
		t.Fatalf("pauses %d, want 2", pauses)
	}
}

func TestResolve_CancelledStopsLaunching(t *testing.T) {
	f := &fakeRelay{}
	s := New(f, Config{ProfileChunk: 1, Pause: time.Second}, nil)
	ctx, cancel := context.WithCancel(context.Background())
	s.sleep = func(context.Context, time.Duration) error {
		cancel()
		return context.Canceled
	}
	s.ResolveProfiles(ctx, []string{"a", "b", "c"})
	if f.Calls() != 1 {
		t.Fatalf("calls %d, want 1", f.Calls())
	}
}

func TestJoin_NilSourceDegrades(t *testing.T) {
	s := New(nil, Config{}, nil)
	recs, st := s.Join(context.Background(), []receipt.Receipt{{ID: "r", Sender: "s", TargetEventID: "e"}})
	if len(recs) != 1 || recs[0].Content != nil || recs[0].Actor.ID != "s" {
		t.Fatalf("records %+v", recs)
	}
	if st.ContentResolved != 0 || st.ProfilesResolved != 0 {
		t.Fatalf("stats %+v", st)
	}
}
