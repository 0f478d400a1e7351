package aggregate

import (
	"sort"
	"time"

	"zaplens/internal/core/hashtag"
	"zaplens/internal/core/receipt"
)

// PeakWindows are the candidate engagement windows, shortest first
var PeakWindows = []struct {
	Label string
	Span  time.Duration
}{
	{"1h", time.Hour},
	{"6h", 6 * time.Hour},
	{"24h", 24 * time.Hour},
	{"72h", 72 * time.Hour},
}

const viralSpan = time.Hour

// Performance scores one resolved piece of content
type Performance struct {
	ID        string    `json:"id"`
	Kind      int       `json:"kind"`
	CreatedAt time.Time `json:"created_at"`
	Total     int64     `json:"total"`
	Count     int64     `json:"count"`
	AvgAmount float64   `json:"avg_amount"`
	// TimeToFirstEngagement is in seconds
	TimeToFirstEngagement int64   `json:"time_to_first_engagement"`
	LongevityDays         float64 `json:"longevity_days"`
	ViralityScore         float64 `json:"virality_score"`
	PeakWindow            string  `json:"peak_window"`
}

// TagStat is hashtag performance across the content that carries it
type TagStat struct {
	Tag       string  `json:"tag"`
	PostCount int     `json:"post_count"`
	ZapCount  int64   `json:"zap_count"`
	Total     int64   `json:"total"`
	AvgAmount float64 `json:"avg_amount"`
	// AvgTimeToFirstEngagement is in seconds, averaged over records
	AvgTimeToFirstEngagement float64 `json:"avg_time_to_first_engagement"`
}

// MinTagZaps drops tags seen on fewer records
const MinTagZaps = 2

// sinceCreation is a record's delay after its content was published, floored at zero
func sinceCreation(r receipt.Record) time.Duration {
	return max(r.CreatedAt.Sub(r.Content.CreatedAt), 0)
}

// ContentPerformance scores each resolved content, ranked by total
func ContentPerformance(in []receipt.Record) []Performance {
	groups := map[string][]receipt.Record{}
	var order []string
	for _, r := range in {
		if r.Content == nil || r.Content.ID == "" {
			continue
		}
		if _, ok := groups[r.Content.ID]; !ok {
			order = append(order, r.Content.ID)
		}
		groups[r.Content.ID] = append(groups[r.Content.ID], r)
	}

	out := make([]Performance, 0, len(order))
	for _, id := range order {
		out = append(out, score(groups[id]))
	}
	sort.Slice(out, func(a, b int) bool {
		if out[a].Total != out[b].Total {
			return out[a].Total > out[b].Total
		}
		return out[a].ID < out[b].ID
	})
	return out
}

func score(rs []receipt.Record) Performance {
	c := rs[0].Content
	p := Performance{ID: c.ID, Kind: c.Kind, CreatedAt: c.CreatedAt}

	first, last := rs[0].CreatedAt, rs[0].CreatedAt
	var viral int64
	windows := make([]int64, len(PeakWindows))
	for _, r := range rs {
		p.Total += r.Amount
		p.Count++
		if r.CreatedAt.Before(first) {
			first = r.CreatedAt
		}
		if r.CreatedAt.After(last) {
			last = r.CreatedAt
		}
		d := sinceCreation(r)
		if d <= viralSpan {
			viral++
		}
		for i, w := range PeakWindows {
			if d <= w.Span {
				windows[i] += r.Amount
			}
		}
	}

	p.AvgAmount = ratio(p.Total, p.Count)
	p.TimeToFirstEngagement = int64(max(first.Sub(c.CreatedAt), 0) / time.Second)
	p.LongevityDays = last.Sub(first).Hours() / 24
	p.ViralityScore = percent(viral, p.Count)

	// shortest window reaching the largest cumulative amount
	best := 0
	for i := range windows {
		if windows[i] > windows[best] {
			best = i
		}
	}
	p.PeakWindow = PeakWindows[best].Label
	return p
}

// ByTag aggregates hashtags found in resolved content bodies
func ByTag(in []receipt.Record) []TagStat {
	type acc struct {
		posts map[string]struct{}
		zaps  int64
		total int64
		tte   time.Duration
	}
	tags := map[string]*acc{}
	bodyTags := map[string][]string{}

	for _, r := range in {
		if r.Content == nil {
			continue
		}
		ts, ok := bodyTags[r.Content.ID]
		if !ok {
			ts = hashtag.Extract(r.Content.Body)
			bodyTags[r.Content.ID] = ts
		}
		for _, t := range ts {
			a := tags[t]
			if a == nil {
				a = &acc{posts: map[string]struct{}{}}
				tags[t] = a
			}
			a.posts[r.Content.ID] = struct{}{}
			a.zaps++
			a.total += r.Amount
			a.tte += sinceCreation(r)
		}
	}

	var out []TagStat
	for t, a := range tags {
		if a.zaps < MinTagZaps {
			continue
		}
		out = append(out, TagStat{
			Tag:                      t,
			PostCount:                len(a.posts),
			ZapCount:                 a.zaps,
			Total:                    a.total,
			AvgAmount:                ratio(a.total, a.zaps),
			AvgTimeToFirstEngagement: a.tte.Seconds() / float64(a.zaps),
		})
	}
	sort.Slice(out, func(a, b int) bool {
		if out[a].Total != out[b].Total {
			return out[a].Total > out[b].Total
		}
		return out[a].Tag < out[b].Tag
	})
	return out
}
