package aggregate

import (
	"sort"
	"time"

	"zaplens/internal/core/receipt"
)

// SegmentName labels an actor's engagement pattern
type SegmentName string

// Segments
const (
	OneTime    SegmentName = "one-time"
	Occasional SegmentName = "occasional"
	Regular    SegmentName = "regular"
	Whale      SegmentName = "whale"
)

const (
	regularMinCount    = 5
	frequentMinCount   = 3
	frequentMaxGapDays = 7.0
)

// Supporter is one actor's loyalty profile
type Supporter struct {
	ActorID    string      `json:"actor_id"`
	Segment    SegmentName `json:"segment"`
	Count      int64       `json:"count"`
	Total      int64       `json:"total"`
	First      time.Time   `json:"first"`
	Last       time.Time   `json:"last"`
	AvgGapDays float64     `json:"avg_gap_days"`
}

// Loyalty is the segmentation summary
type Loyalty struct {
	Segments          map[SegmentName]int `json:"segments"`
	New               int                 `json:"new"`
	Returning         int                 `json:"returning"`
	RegularSupporters int                 `json:"regular_supporters"`
	AvgLifetimeValue  float64             `json:"avg_lifetime_value"`
	Supporters        []Supporter         `json:"supporters"`
}

// Classify applies the segment rules to one actor
func Classify(count, total int64, avgGapDays float64, whaleThreshold int64) SegmentName {
	switch {
	case count == 1:
		return OneTime
	case total >= whaleThreshold:
		return Whale
	case count >= regularMinCount, count >= frequentMinCount && avgGapDays <= frequentMaxGapDays:
		return Regular
	default:
		return Occasional
	}
}

// Segment classifies every identified actor. Anonymous zaps count toward the
// lifetime value average but are not segmented
func Segment(in []receipt.Record, whaleThreshold int64) Loyalty {
	times := map[string][]time.Time{}
	totals := map[string]int64{}
	var grand int64
	for _, r := range in {
		id := actorID(r)
		grand += r.Amount
		totals[id] += r.Amount
		times[id] = append(times[id], r.CreatedAt)
	}

	l := Loyalty{
		Segments: map[SegmentName]int{OneTime: 0, Occasional: 0, Regular: 0, Whale: 0},
	}
	if n := len(totals); n > 0 {
		l.AvgLifetimeValue = float64(grand) / float64(n)
	}

	for id, ts := range times {
		if id == receipt.Anonymous {
			continue
		}
		sort.Slice(ts, func(a, b int) bool { return ts[a].Before(ts[b]) })
		s := Supporter{
			ActorID:    id,
			Count:      int64(len(ts)),
			Total:      totals[id],
			First:      ts[0],
			Last:       ts[len(ts)-1],
			AvgGapDays: avgGapDays(ts),
		}
		s.Segment = Classify(s.Count, s.Total, s.AvgGapDays, whaleThreshold)
		l.Segments[s.Segment]++
		if s.Segment == OneTime {
			l.New++
		} else {
			l.Returning++
		}
		if s.Segment == Regular {
			l.RegularSupporters++
		}
		l.Supporters = append(l.Supporters, s)
	}
	sort.Slice(l.Supporters, func(a, b int) bool {
		x, y := l.Supporters[a], l.Supporters[b]
		if x.Total != y.Total {
			return x.Total > y.Total
		}
		return x.ActorID < y.ActorID
	})
	return l
}

// avgGapDays is the mean spacing between consecutive sorted times, in days
func avgGapDays(ts []time.Time) float64 {
	if len(ts) < 2 {
		return 0
	}
	return ts[len(ts)-1].Sub(ts[0]).Hours() / 24 / float64(len(ts)-1)
}
