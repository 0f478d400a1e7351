package aggregate

import (
	"testing"
	"time"

	"zaplens/internal/core/receipt"
)

func TestClassify_Boundaries(t *testing.T) {
	cases := []struct {
		name   string
		count  int64
		total  int64
		gap    float64
		expect SegmentName
	}{
		{"single record", 1, 50_000, 0, OneTime},
		{"exactly whale threshold", 2, DefaultWhaleThreshold, 100, Whale},
		{"just under whale", 2, DefaultWhaleThreshold - 1, 100, Occasional},
		{"five records large gaps", 5, 10, 60, Regular},
		{"three frequent", 3, 10, 7, Regular},
		{"three sparse", 3, 10, 7.01, Occasional},
		{"four sparse", 4, 10, 30, Occasional},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			if got := Classify(c.count, c.total, c.gap, DefaultWhaleThreshold); got != c.expect {
				t.Fatalf("Classify = %s, want %s", got, c.expect)
			}
		})
	}
}

func TestSegment(t *testing.T) {
	day := 24 * time.Hour
	var recs []receipt.Record
	// regular: five zaps thirty days apart
	for i := range 5 {
		recs = append(recs, rec("r"+string(rune('a'+i)), "reg", 10, base.Add(-time.Duration(i)*30*day), nil))
	}
	recs = append(recs,
		rec("w1", "whale", 9_000, base, nil),
		rec("w2", "whale", 1_000, base.Add(-90*day), nil),
		rec("o1", "once", 5, base, nil),
		rec("s1", "sometimes", 5, base, nil),
		rec("s2", "sometimes", 5, base.Add(-40*day), nil),
		rec("anon", "", 100, base, nil),
	)

	l := Segment(recs, DefaultWhaleThreshold)
	if l.Segments[Regular] != 1 || l.Segments[Whale] != 1 || l.Segments[OneTime] != 1 || l.Segments[Occasional] != 1 {
		t.Fatalf("segments %v", l.Segments)
	}
	if l.New != 1 || l.Returning != 3 || l.RegularSupporters != 1 {
		t.Fatalf("new=%d returning=%d regular=%d", l.New, l.Returning, l.RegularSupporters)
	}
	// 50 + 10000 + 5 + 10 + 100 over five distinct actors including anonymous
	if l.AvgLifetimeValue != 10_165.0/5 {
		t.Fatalf("avg lifetime value %f", l.AvgLifetimeValue)
	}
	if len(l.Supporters) != 4 || l.Supporters[0].ActorID != "whale" {
		t.Fatalf("supporters %+v", l.Supporters)
	}
	for _, s := range l.Supporters {
		if s.ActorID == "reg" && (s.AvgGapDays != 30 || !s.Last.Equal(base)) {
			t.Fatalf("regular profile %+v", s)
		}
	}
}
