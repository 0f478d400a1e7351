package aggregate

import (
	"testing"
	"time"

	"zaplens/internal/core/receipt"
)

func TestContentPerformance_Scores(t *testing.T) {
	post := note("n1", "gm", base)
	recs := []receipt.Record{
		rec("a", "x", 100, base.Add(-5*time.Minute), post), // clock skew floors to zero
		rec("b", "y", 100, base.Add(30*time.Minute), post),
		rec("c", "z", 50, base.Add(5*time.Hour), post),
		rec("d", "z", 50, base.Add(48*time.Hour), post),
	}
	ps := ContentPerformance(recs)
	if len(ps) != 1 {
		t.Fatalf("performance %+v", ps)
	}
	p := ps[0]
	if p.TimeToFirstEngagement != 0 {
		t.Fatalf("tte %d", p.TimeToFirstEngagement)
	}
	if p.ViralityScore != 50 {
		t.Fatalf("virality %f", p.ViralityScore)
	}
	wantLongevity := (48*time.Hour + 5*time.Minute).Hours() / 24
	if p.LongevityDays != wantLongevity {
		t.Fatalf("longevity %f want %f", p.LongevityDays, wantLongevity)
	}
	if p.PeakWindow != "72h" || p.AvgAmount != 75 || p.Total != 300 {
		t.Fatalf("scores %+v", p)
	}

	early := note("n2", "", base)
	ps = ContentPerformance([]receipt.Record{rec("e", "x", 10, base.Add(10*time.Minute), early)})
	if ps[0].PeakWindow != "1h" || ps[0].LongevityDays != 0 || ps[0].TimeToFirstEngagement != 600 {
		t.Fatalf("single early zap %+v", ps[0])
	}
}

func TestByTag_BitcoinScenario(t *testing.T) {
	btc := note("n1", "stacking #bitcoin today", base)
	lonely := note("n2", "trying #lightning", base)
	recs := []receipt.Record{
		rec("a", "x", 100, base.Add(time.Minute), btc),
		rec("b", "y", 300, base.Add(3*time.Minute), btc),
		rec("c", "z", 50, base.Add(time.Hour), lonely),
	}
	tags := ByTag(recs)
	if len(tags) != 1 {
		t.Fatalf("tags %+v", tags)
	}
	tg := tags[0]
	if tg.Tag != "bitcoin" || tg.PostCount != 1 || tg.ZapCount != 2 || tg.Total != 400 {
		t.Fatalf("bitcoin %+v", tg)
	}
	if tg.AvgTimeToFirstEngagement != 120 {
		t.Fatalf("avg tte %f", tg.AvgTimeToFirstEngagement)
	}
}
