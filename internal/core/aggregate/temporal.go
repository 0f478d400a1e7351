package aggregate

import (
	"sort"
	"time"

	"zaplens/internal/core/receipt"
	"zaplens/internal/core/window"
)

// Bucket is one hour of day (0-23) or day of week (0 is Sunday)
type Bucket struct {
	Key     int     `json:"key"`
	Total   int64   `json:"total"`
	Count   int64   `json:"count"`
	Average float64 `json:"average"`
}

// Period is one populated bucket of the period series
type Period struct {
	Start time.Time `json:"start"`
	Label string    `json:"label"`
	Total int64     `json:"total"`
	Count int64     `json:"count"`
}

// ByHour returns 24 zero filled hour of day buckets
func ByHour(in []receipt.Record, loc *time.Location) []Bucket {
	return fixedBuckets(in, 24, func(t time.Time) int { return t.In(loc).Hour() })
}

// ByWeekday returns 7 zero filled day of week buckets
func ByWeekday(in []receipt.Record, loc *time.Location) []Bucket {
	return fixedBuckets(in, 7, func(t time.Time) int { return int(t.In(loc).Weekday()) })
}

func fixedBuckets(in []receipt.Record, n int, key func(time.Time) int) []Bucket {
	out := make([]Bucket, n)
	for i := range out {
		out[i].Key = i
	}
	for _, r := range in {
		b := &out[key(r.CreatedAt)]
		b.Total += r.Amount
		b.Count++
	}
	for i := range out {
		out[i].Average = ratio(out[i].Total, out[i].Count)
	}
	return out
}

// ByPeriod groups records into buckets of granularity g, ascending by start
func ByPeriod(in []receipt.Record, g window.Granularity, loc *time.Location) []Period {
	idx := map[int64]int{}
	var out []Period
	for _, r := range in {
		start := g.Truncate(r.CreatedAt, loc)
		k := start.Unix()
		i, ok := idx[k]
		if !ok {
			i = len(out)
			idx[k] = i
			out = append(out, Period{Start: start, Label: g.Label(start)})
		}
		out[i].Total += r.Amount
		out[i].Count++
	}
	sort.Slice(out, func(a, b int) bool { return out[a].Start.Before(out[b].Start) })
	return out
}
