package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"zaplens/internal/adapters/relay"
	"zaplens/internal/core/receipt"
	"zaplens/internal/modkit/module"
	"zaplens/internal/platform/config"
	phttp "zaplens/internal/platform/net/http"
	kit "zaplens/internal/platform/testkit"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
)

const pk = "3bf0c63fcb93463407af97a5e5ee64fa883d107ef9e558472c4eb9aaaefa459d"

func zap(id string, at time.Time, msats int64) receipt.Event {
	desc := `{"pubkey":"sender1","kind":9734,"tags":[["amount","` + itoa(msats) + `"]],"content":""}`
	return receipt.Event{
		ID: id, Kind: receipt.KindZapReceipt, CreatedAt: at.Unix(), PubKey: "wallet",
		Tags: [][]string{{"p", pk}, {"description", desc}},
	}
}

func itoa(n int64) string {
	b, _ := json.Marshal(n)
	return string(b)
}

func TestMount_EndToEnd(t *testing.T) {
	kit.Serial(t)
	module.Reset()
	t.Cleanup(module.Reset)

	now := time.Now()
	events := []receipt.Event{zap("z1", now.Add(-time.Hour), 21000), zap("z2", now.Add(-2*time.Hour), 5000)}
	src := relay.QuerierFunc(func(_ context.Context, f relay.Filter) ([]receipt.Event, error) {
		if len(f.PTags) == 0 {
			return nil, nil // enrichment lookups resolve nothing
		}
		var out []receipt.Event
		for _, ev := range events {
			if f.Since != nil && ev.CreatedAt < *f.Since {
				continue
			}
			if f.Until != nil && ev.CreatedAt > *f.Until {
				continue
			}
			out = append(out, ev)
		}
		return out, nil
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	root := phttp.AdaptChi(chi.NewRouter())
	Mount(ctx, root, Options{
		Config:        config.New(),
		Relay:         src,
		Registry:      prometheus.NewRegistry(),
		EnableMetrics: true,
		EnableSwagger: true,
	})

	call := func(method, path, body string) (int, map[string]any) {
		t.Helper()
		rec := httptest.NewRecorder()
		root.Mux().ServeHTTP(rec, httptest.NewRequest(method, path, strings.NewReader(body)))
		var env struct {
			Data map[string]any `json:"data"`
		}
		if strings.HasPrefix(rec.Header().Get("Content-Type"), "application/json") && rec.Body.Len() > 0 {
			_ = json.Unmarshal(rec.Body.Bytes(), &env)
		}
		return rec.Code, env.Data
	}

	code, data := call(http.MethodPost, "/api/v1/zaps/sessions", `{"user":"`+pk+`","range":"7d"}`)
	if code != http.StatusCreated {
		t.Fatalf("open status %d", code)
	}
	id, _ := data["id"].(string)
	if id == "" {
		t.Fatalf("no session id in %v", data)
	}

	// first page returns both receipts, the next one comes back empty and completes the window
	complete := false
	for range 3 {
		code, data = call(http.MethodPost, "/api/v1/zaps/sessions/"+id+"/load", "")
		if code != http.StatusOK {
			t.Fatalf("load status %d", code)
		}
		state, _ := data["state"].(map[string]any)
		if complete = state["is_complete"] == true; complete {
			break
		}
	}
	if !complete {
		t.Fatalf("window never completed: %v", data)
	}

	code, data = call(http.MethodGet, "/api/v1/zaps/sessions/"+id+"/snapshot", "")
	if code != http.StatusOK {
		t.Fatalf("snapshot status %d", code)
	}
	snap, _ := data["snapshot"].(map[string]any)
	totals, _ := snap["totals"].(map[string]any)
	if totals["amount"] != float64(26) || totals["count"] != float64(2) {
		t.Fatalf("totals %v", totals)
	}

	if code, _ = call(http.MethodGet, "/api/v1/meta/health", ""); code != http.StatusOK {
		t.Fatalf("health status %d", code)
	}
	if code, _ = call(http.MethodGet, "/api/v1/zaps/sessions/missing", ""); code != http.StatusNotFound {
		t.Fatalf("missing session status %d", code)
	}
	if code, _ = call(http.MethodGet, "/api/docs/doc.json", ""); code != http.StatusOK {
		t.Fatalf("doc.json status %d", code)
	}

	rec := httptest.NewRecorder()
	root.Mux().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	kit.MustContain(t, rec.Body.String(), "zaplens_sessions_open")
	kit.MustContain(t, rec.Body.String(), "zaplens_ingest_batches_total")

	if _, ok := module.PortsAs[any]("zaps"); !ok {
		t.Fatalf("zaps ports not registered")
	}
}
