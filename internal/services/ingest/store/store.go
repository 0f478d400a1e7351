// Package store is the process wide per user cache of validated receipts.
// Receipts only ever accumulate: merges are set unions by id and a user's
// set is kept sorted newest first
package store

import (
	"slices"
	"sync"
	"time"

	"zaplens/internal/core/receipt"
	"zaplens/internal/core/window"
)

// Store holds receipts per user. The zero value is not usable, call New
type Store struct {
	mu       sync.Mutex
	users    map[string]*entry
	maxUsers int
	tick     uint64
	onEvict  func(userID string)
}

type entry struct {
	receipts []receipt.Receipt
	ids      map[string]struct{}
	// spans are the disjoint created_at ranges fully scanned, oldest first
	spans   []span
	touched uint64
	claimed bool
}

// span is an inclusive, second granular range of created_at the relay has been scanned over
type span struct{ lo, hi time.Time }

// Option configures a Store
type Option func(*Store)

// WithEvictHook is called, outside the lock, for every evicted user
func WithEvictHook(fn func(userID string)) Option {
	return func(s *Store) { s.onEvict = fn }
}

// New creates a Store holding at most maxUsers users; maxUsers < 1 means unbounded
func New(maxUsers int, opts ...Option) *Store {
	s := &Store{users: map[string]*entry{}, maxUsers: maxUsers}
	for _, o := range opts {
		o(s)
	}
	return s
}

// get returns the user's entry, creating it and evicting others when needed. Caller holds mu
func (s *Store) get(userID string) (*entry, []string) {
	s.tick++
	if e, ok := s.users[userID]; ok {
		e.touched = s.tick
		return e, nil
	}
	e := &entry{ids: map[string]struct{}{}, touched: s.tick}
	s.users[userID] = e
	return e, s.evictLocked(userID)
}

// evictLocked drops least recently touched users over capacity, never one with a fetch in flight
func (s *Store) evictLocked(keep string) []string {
	if s.maxUsers < 1 {
		return nil
	}
	var evicted []string
	for len(s.users) > s.maxUsers {
		victim := ""
		var oldest uint64
		for id, e := range s.users {
			if id == keep || e.claimed {
				continue
			}
			if victim == "" || e.touched < oldest {
				victim, oldest = id, e.touched
			}
		}
		if victim == "" {
			break
		}
		delete(s.users, victim)
		evicted = append(evicted, victim)
	}
	return evicted
}

func (s *Store) notify(evicted []string) {
	if s.onEvict == nil {
		return
	}
	for _, id := range evicted {
		s.onEvict(id)
	}
}

// newer orders receipts newest first, then by id for a stable order
func newer(a, b receipt.Receipt) int {
	if c := b.CreatedAt.Compare(a.CreatedAt); c != 0 {
		return c
	}
	switch {
	case a.ID < b.ID:
		return -1
	case a.ID > b.ID:
		return 1
	}
	return 0
}

// Merge unions rs into the user's set and returns how many ids were new.
// Existing ids are never overwritten. Empty or overlapping input is safe
func (s *Store) Merge(userID string, rs []receipt.Receipt) int {
	s.mu.Lock()
	e, evicted := s.get(userID)

	fresh := make([]receipt.Receipt, 0, len(rs))
	for _, r := range rs {
		if r.ID == "" {
			continue
		}
		if _, dup := e.ids[r.ID]; dup {
			continue
		}
		e.ids[r.ID] = struct{}{}
		fresh = append(fresh, r)
	}
	if len(fresh) > 0 {
		slices.SortFunc(fresh, newer)
		e.receipts = mergeSorted(e.receipts, fresh)
	}
	s.mu.Unlock()

	s.notify(evicted)
	return len(fresh)
}

// mergeSorted merges two newest first slices into a new slice
func mergeSorted(a, b []receipt.Receipt) []receipt.Receipt {
	out := make([]receipt.Receipt, 0, len(a)+len(b))
	i, j := 0, 0
	for i < len(a) && j < len(b) {
		if newer(a[i], b[j]) <= 0 {
			out = append(out, a[i])
			i++
		} else {
			out = append(out, b[j])
			j++
		}
	}
	out = append(out, a[i:]...)
	return append(out, b[j:]...)
}

// Scanned records that every receipt created in [lo, hi] has been returned by the
// relay, malformed ones included. Overlapping and touching ranges coalesce
func (s *Store) Scanned(userID string, lo, hi time.Time) {
	if lo.IsZero() || hi.Before(lo) {
		return
	}
	s.mu.Lock()
	e, evicted := s.get(userID)
	e.spans = addSpan(e.spans, span{lo: lo.Truncate(time.Second), hi: hi.Truncate(time.Second)})
	s.mu.Unlock()
	s.notify(evicted)
}

// addSpan inserts n into the sorted disjoint set ss
func addSpan(ss []span, n span) []span {
	out := make([]span, 0, len(ss)+1)
	i := 0
	for ; i < len(ss) && ss[i].hi.Add(time.Second).Before(n.lo); i++ {
		out = append(out, ss[i])
	}
	for ; i < len(ss) && !ss[i].lo.After(n.hi.Add(time.Second)); i++ {
		if ss[i].lo.Before(n.lo) {
			n.lo = ss[i].lo
		}
		if ss[i].hi.After(n.hi) {
			n.hi = ss[i].hi
		}
	}
	out = append(out, n)
	return append(out, ss[i:]...)
}

// Gap returns the newest range inside [since, top] that no scan has reached.
// ok is false when [since, top] is fully scanned
func (s *Store) Gap(userID string, since, top time.Time) (lo, hi time.Time, ok bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	lo, hi = since, top.Truncate(time.Second)
	if e, found := s.users[userID]; found {
		for i := len(e.spans) - 1; i >= 0; i-- {
			sp := e.spans[i]
			if sp.lo.After(hi) {
				continue
			}
			if !sp.hi.Before(hi) {
				hi = sp.lo.Add(-time.Second)
				continue
			}
			if b := sp.hi.Add(time.Second); b.After(lo) {
				lo = b
			}
			break
		}
	}
	if hi.Before(since) {
		return time.Time{}, time.Time{}, false
	}
	return lo, hi, true
}

// FilterForWindow returns a copy of the user's receipts inside w, newest first
func (s *Store) FilterForWindow(userID string, w window.Window) []receipt.Receipt {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.users[userID]
	if !ok {
		return nil
	}
	out := make([]receipt.Receipt, 0, len(e.receipts))
	for _, r := range e.receipts {
		if r.CreatedAt.Before(w.Since) {
			// sorted newest first, nothing further can match
			break
		}
		if w.Contains(r.CreatedAt) {
			out = append(out, r)
		}
	}
	return out
}

// Oldest returns the created_at of the user's oldest cached receipt
func (s *Store) Oldest(userID string) (time.Time, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.users[userID]
	if !ok || len(e.receipts) == 0 {
		return time.Time{}, false
	}
	return e.receipts[len(e.receipts)-1].CreatedAt, true
}

// Covers reports whether one scanned range spans w as seen at now. The ends
// may fall short by tol, except that at most half the window is forgiven
func (s *Store) Covers(userID string, w window.Window, now time.Time, tol time.Duration) bool {
	top := w.End(now)
	if top.After(now) {
		top = now
	}
	if top.Before(w.Since) {
		return true
	}
	tol = min(tol, top.Sub(w.Since)/2)

	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.users[userID]
	if !ok {
		return false
	}
	for _, sp := range e.spans {
		if !sp.lo.After(w.Since.Add(tol)) && !sp.hi.Before(top.Add(-tol)) {
			return true
		}
	}
	return false
}

// Len returns the number of cached receipts for the user
func (s *Store) Len(userID string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	if e, ok := s.users[userID]; ok {
		return len(e.receipts)
	}
	return 0
}

// Users returns how many users are cached
func (s *Store) Users() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.users)
}

// Claim reserves the user's single fetch slot. ok is false when another fetch
// holds it. release is idempotent
func (s *Store) Claim(userID string) (release func(), ok bool) {
	s.mu.Lock()
	e, evicted := s.get(userID)
	if e.claimed {
		s.mu.Unlock()
		s.notify(evicted)
		return func() {}, false
	}
	e.claimed = true
	s.mu.Unlock()
	s.notify(evicted)

	var once sync.Once
	return func() {
		once.Do(func() {
			s.mu.Lock()
			e.claimed = false
			s.mu.Unlock()
		})
	}, true
}

// Evict drops a user's cache unless a fetch is in flight for them
func (s *Store) Evict(userID string) bool {
	s.mu.Lock()
	e, ok := s.users[userID]
	if !ok || e.claimed {
		s.mu.Unlock()
		return false
	}
	delete(s.users, userID)
	s.mu.Unlock()
	s.notify([]string{userID})
	return true
}
