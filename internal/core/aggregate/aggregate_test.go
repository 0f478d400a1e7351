package aggregate

import (
	"fmt"
	"testing"
	"time"

	"zaplens/internal/core/receipt"
	"zaplens/internal/core/window"
)

var base = time.Date(2024, 5, 6, 10, 0, 0, 0, time.UTC) // Monday

func rec(id, actor string, amount int64, at time.Time, content *receipt.Content) receipt.Record {
	r := receipt.Record{
		Receipt: receipt.Receipt{ID: id, CreatedAt: at, Amount: amount, Sender: actor},
		Content: content,
		Actor:   receipt.Actor{ID: actor},
	}
	if actor == "" {
		r.Actor.ID = receipt.Anonymous
	}
	if content != nil {
		r.TargetEventID = content.ID
	}
	return r
}

func note(id, body string, at time.Time) *receipt.Content {
	return &receipt.Content{ID: id, Kind: receipt.KindNote, Author: "me", Body: body, CreatedAt: at}
}

func TestBuild_GrandTotalIndependentOfGranularity(t *testing.T) {
	var recs []receipt.Record
	var sum int64
	for i := range 200 {
		amt := int64(i%17 + 1)
		sum += amt
		recs = append(recs, rec(fmt.Sprintf("r%d", i), fmt.Sprintf("a%d", i%9), amt, base.Add(-time.Duration(i)*7*time.Hour), nil))
	}
	now := base.Add(time.Minute)
	for _, rng := range []string{"24h", "7d", "90d", "1y", "all"} {
		w, err := window.FromRange(rng, now)
		if err != nil {
			t.Fatalf("range %s: %v", rng, err)
		}
		s := Build(recs, w, now, Options{})

		var want int64
		for _, r := range recs {
			if w.Contains(r.CreatedAt) {
				want += r.Amount
			}
		}
		if s.Totals.Amount != want {
			t.Fatalf("%s: total %d, want %d", rng, s.Totals.Amount, want)
		}
		var periods, hours, days int64
		for _, p := range s.Periods {
			periods += p.Total
		}
		for _, b := range s.Hourly {
			hours += b.Total
		}
		for _, b := range s.Weekday {
			days += b.Total
		}
		if periods != want || hours != want || days != want {
			t.Fatalf("%s: periods=%d hours=%d days=%d want %d", rng, periods, hours, days, want)
		}
		for i := 1; i < len(s.Periods); i++ {
			if !s.Periods[i-1].Start.Before(s.Periods[i].Start) {
				t.Fatalf("%s: periods not ascending at %d", rng, i)
			}
		}
	}
	w, _ := window.FromRange("all", now)
	if got := Build(recs, w, now, Options{}).Totals.Amount; got != sum {
		t.Fatalf("all total %d, want %d", got, sum)
	}
}

func TestTemporalBuckets_ZeroFilled(t *testing.T) {
	recs := []receipt.Record{rec("a", "x", 10, base, nil), rec("b", "x", 30, base.Add(30*time.Minute), nil)}
	hours := ByHour(recs, time.UTC)
	days := ByWeekday(recs, time.UTC)
	if len(hours) != 24 || len(days) != 7 {
		t.Fatalf("bucket sizes %d %d", len(hours), len(days))
	}
	if hours[10].Total != 40 || hours[10].Count != 2 || hours[10].Average != 20 {
		t.Fatalf("hour 10 = %+v", hours[10])
	}
	if hours[3].Count != 0 || hours[3].Key != 3 {
		t.Fatalf("hour 3 = %+v", hours[3])
	}
	if days[int(time.Monday)].Total != 40 {
		t.Fatalf("monday = %+v", days[1])
	}

	berlin := time.FixedZone("CET", 2*3600)
	if ByHour(recs, berlin)[12].Total != 40 {
		t.Fatalf("location not applied")
	}
}

func TestByPeriod_WeeksStartMonday(t *testing.T) {
	sunday := base.Add(-11 * time.Hour) // Sunday 23:00
	recs := []receipt.Record{rec("a", "x", 1, base, nil), rec("b", "x", 2, sunday, nil)}
	ps := ByPeriod(recs, window.Week, time.UTC)
	if len(ps) != 2 || ps[0].Total != 2 || ps[1].Total != 1 {
		t.Fatalf("periods %+v", ps)
	}
	if ps[1].Start.Weekday() != time.Monday {
		t.Fatalf("week start %v", ps[1].Start)
	}
}

func TestRankingsAndKinds(t *testing.T) {
	n1 := note("n1", "", base)
	art := &receipt.Content{ID: "art", Kind: receipt.KindLongForm, CreatedAt: base}
	recs := []receipt.Record{
		rec("a", "alice", 100, base, n1),
		rec("b", "bob", 50, base, n1),
		rec("c", "bob", 300, base, art),
		rec("d", "carol", 50, base, nil),
	}
	cs := ByContent(recs)
	if len(cs) != 2 || cs[0].ID != "art" || cs[1].Total != 150 {
		t.Fatalf("contents %+v", cs)
	}
	as := ByActor(recs)
	if as[0].Actor.ID != "bob" || as[0].Total != 350 || as[1].Actor.ID != "alice" {
		t.Fatalf("actors %+v", as)
	}
	tied := ByActor([]receipt.Record{rec("1", "zed", 5, base, nil), rec("2", "amy", 5, base, nil)})
	if tied[0].Actor.ID != "amy" {
		t.Fatalf("ties should order by id: %+v", tied)
	}

	ks := ByKind(recs)
	var pct float64
	got := map[string]float64{}
	for _, k := range ks {
		pct += k.Percent
		got[k.Kind] = k.Percent
	}
	if got[KindArticle] != 60 || got[KindNote] != 30 || got[KindProfile] != 10 {
		t.Fatalf("kind shares %v", got)
	}
	if pct < 99.999 || pct > 100.001 {
		t.Fatalf("shares sum to %f", pct)
	}
	if len(ByKind(nil)) != 0 {
		t.Fatalf("empty input")
	}
	zero := ByKind([]receipt.Record{{Receipt: receipt.Receipt{ID: "z"}}})
	if zero[0].Percent != 0 {
		t.Fatalf("zero total must not divide by zero: %+v", zero)
	}
}

func TestKindOf_AddressAndUnresolved(t *testing.T) {
	r := receipt.Record{Receipt: receipt.Receipt{TargetAddr: "30023:pk:slug"}}
	if KindOf(r) != KindArticle {
		t.Fatalf("addr kind %s", KindOf(r))
	}
	r = receipt.Record{Receipt: receipt.Receipt{TargetEventID: "missing"}}
	if KindOf(r) != KindUnresolved {
		t.Fatalf("unresolved kind %s", KindOf(r))
	}
}
