package module

import (
	"testing"

	phttp "zaplens/internal/platform/net/http"
	kit "zaplens/internal/platform/testkit"
)

type loader interface{ Load() int }
type snapshotter interface{ Snapshot() string }

type fakeLoader struct{}

func (fakeLoader) Load() int { return 1 }

type portSet struct {
	Loader loader
	Label  string
}

type stubModule struct{ ports any }

func (s stubModule) MountRoutes(phttp.Router) {}
func (s stubModule) Ports() any               { return s.ports }
func (s stubModule) Name() string             { return "stub" }

func TestPortsOf(t *testing.T) {
	direct := stubModule{ports: fakeLoader{}}
	if v, ok := PortsOf[loader](direct); !ok || v.Load() != 1 {
		t.Fatalf("direct port lookup failed")
	}

	viaField := stubModule{ports: portSet{Loader: fakeLoader{}, Label: "x"}}
	if _, ok := PortsOf[loader](viaField); !ok {
		t.Fatalf("struct field lookup failed")
	}
	viaPtr := stubModule{ports: &portSet{Loader: fakeLoader{}}}
	if _, ok := PortsOf[loader](viaPtr); !ok {
		t.Fatalf("pointer struct lookup failed")
	}

	if _, ok := PortsOf[snapshotter](viaField); ok {
		t.Fatalf("unexpected port found")
	}
	if _, ok := PortsOf[loader](stubModule{}); ok {
		t.Fatalf("nil ports should not match")
	}
	kit.MustPanic(t, func() { _ = MustPortsOf[snapshotter](viaField) })
}

func TestRegistry(t *testing.T) {
	kit.Serial(t)
	Reset()
	t.Cleanup(Reset)

	Register("ingest", portSet{Label: "ingest"})
	got, ok := PortsAs[portSet]("ingest")
	if !ok || got.Label != "ingest" {
		t.Fatalf("PortsAs mismatch: %+v %v", got, ok)
	}
	if _, ok := PortsAs[int]("ingest"); ok {
		t.Fatalf("wrong type should not assert")
	}
	if _, ok := PortsAs[portSet]("missing"); ok {
		t.Fatalf("missing name should not resolve")
	}
}
