package module

import (
	"context"
	"testing"
	"time"

	"zaplens/internal/core/receipt"
	"zaplens/internal/modkit"
	"zaplens/internal/modkit/module"
	"zaplens/internal/platform/config"

	"github.com/prometheus/client_golang/prometheus"
)

func TestFromConfig(t *testing.T) {
	t.Setenv("CORE_ENRICH_CONTENT_CHUNK", "75")
	t.Setenv("CORE_ENRICH_PAUSE", "250ms")

	o := FromConfig(config.New())
	if o.ContentChunk != 75 || o.Pause != 250*time.Millisecond {
		t.Fatalf("options %+v", o)
	}
	if o.ProfileChunk != 100 || o.Concurrency != 3 {
		t.Fatalf("defaults lost %+v", o)
	}
}

func TestNew_ExposesEnricher(t *testing.T) {
	deps := modkit.Deps{Cfg: config.New(), Metrics: prometheus.NewRegistry()}
	m := New(deps, Options{})
	p := module.MustPortsOf[Ports](m)
	if p.Enricher == nil {
		t.Fatalf("nil enricher")
	}
	recs, st := p.Enricher.Join(context.Background(), []receipt.Receipt{{ID: "r"}})
	if len(recs) != 1 || recs[0].Actor.ID != receipt.Anonymous || st.FailedChunks != 0 {
		t.Fatalf("join without relay: %+v %+v", recs, st)
	}
	if m.Name() != "enrich" {
		t.Fatalf("name %q", m.Name())
	}
}
