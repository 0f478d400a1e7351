// Package aggregate turns an enriched record set into analytic views.
// Everything here is pure: the same records, window, clock and options
// always produce the same Snapshot
package aggregate

import (
	"time"

	"zaplens/internal/core/receipt"
	"zaplens/internal/core/window"
)

// DefaultWhaleThreshold is the lifetime total at which an actor becomes a whale
const DefaultWhaleThreshold int64 = 10_000

// Options tunes aggregation
type Options struct {
	// Location buckets hours, weekdays and periods; UTC when nil
	Location       *time.Location
	WhaleThreshold int64
}

func (o Options) withDefaults() Options {
	if o.Location == nil {
		o.Location = time.UTC
	}
	if o.WhaleThreshold <= 0 {
		o.WhaleThreshold = DefaultWhaleThreshold
	}
	return o
}

// Totals are grand totals over the window
type Totals struct {
	Amount  int64   `json:"amount"`
	Count   int64   `json:"count"`
	Actors  int     `json:"actors"`
	Average float64 `json:"average"`
	Max     int64   `json:"max"`
}

// Snapshot holds every derived view
type Snapshot struct {
	GeneratedAt time.Time          `json:"generated_at"`
	Window      window.Window      `json:"window"`
	Granularity window.Granularity `json:"granularity"`
	Totals      Totals             `json:"totals"`
	Hourly      []Bucket           `json:"hourly"`
	Weekday     []Bucket           `json:"weekday"`
	Periods     []Period           `json:"periods"`
	Contents    []ContentStat      `json:"contents"`
	Kinds       []KindStat         `json:"kinds"`
	Actors      []ActorStat        `json:"actors"`
	Loyalty     Loyalty            `json:"loyalty"`
	Performance []Performance      `json:"performance"`
	Tags        []TagStat          `json:"tags"`
}

// Build computes a Snapshot over the records that fall inside w
func Build(records []receipt.Record, w window.Window, now time.Time, opt Options) Snapshot {
	opt = opt.withDefaults()
	in := make([]receipt.Record, 0, len(records))
	for _, r := range records {
		if w.Contains(r.CreatedAt) {
			in = append(in, r)
		}
	}

	g := window.GranularityFor(w.Span(now))
	return Snapshot{
		GeneratedAt: now.UTC(),
		Window:      w,
		Granularity: g,
		Totals:      BuildTotals(in),
		Hourly:      ByHour(in, opt.Location),
		Weekday:     ByWeekday(in, opt.Location),
		Periods:     ByPeriod(in, g, opt.Location),
		Contents:    ByContent(in),
		Kinds:       ByKind(in),
		Actors:      ByActor(in),
		Loyalty:     Segment(in, opt.WhaleThreshold),
		Performance: ContentPerformance(in),
		Tags:        ByTag(in),
	}
}

// BuildTotals sums amounts and counts distinct actors
func BuildTotals(in []receipt.Record) Totals {
	var t Totals
	actors := map[string]struct{}{}
	for _, r := range in {
		t.Amount += r.Amount
		t.Count++
		t.Max = max(t.Max, r.Amount)
		actors[actorID(r)] = struct{}{}
	}
	t.Actors = len(actors)
	t.Average = ratio(t.Amount, t.Count)
	return t
}

func actorID(r receipt.Record) string {
	if r.Actor.ID != "" {
		return r.Actor.ID
	}
	return receipt.ActorID(r.Receipt)
}

func ratio(num, den int64) float64 {
	if den == 0 {
		return 0
	}
	return float64(num) / float64(den)
}

func percent(part, whole int64) float64 {
	if whole == 0 {
		return 0
	}
	return float64(part) * 100 / float64(whole)
}
