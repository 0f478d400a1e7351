// Package http provides meta endpoints
package http

import (
	stdctx "context"
	"net/http"
	"time"

	"zaplens/internal/core/version"
	"zaplens/internal/modkit/httpkit"
	"zaplens/internal/modkit/swaggerkit"
)

// Pinger is satisfied by adapters that expose Ping
type Pinger interface {
	Ping(stdctx.Context) error
}

// Deps are the handler dependencies
type Deps struct {
	ServiceName string
	StartedAt   time.Time
	// Relay is checked by /ready when it implements Pinger
	Relay any
	// Sessions reports open viewing sessions; nil omits the count
	Sessions func() int
}

type handlers struct {
	deps Deps
	now  func() time.Time
}

// Register mounts the meta routes
func Register(r httpkit.Router, d Deps) {
	h := &handlers{deps: d, now: time.Now}

	httpkit.Get(r, "/health", h.health)
	httpkit.Get(r, "/ready", h.ready)
	httpkit.Get(r, "/version", h.version)
	httpkit.Get(r, "/service", h.service)
}

// Docs registers the meta operations with swaggerkit
func Docs(prefix string) {
	swaggerkit.Register(
		swaggerkit.Operation{Method: http.MethodGet, Path: prefix + "/health", Tag: "meta", Summary: "Health check"},
		swaggerkit.Operation{Method: http.MethodGet, Path: prefix + "/ready", Tag: "meta", Summary: "Readiness with relay check"},
		swaggerkit.Operation{Method: http.MethodGet, Path: prefix + "/version", Tag: "meta", Summary: "Build and version info"},
		swaggerkit.Operation{Method: http.MethodGet, Path: prefix + "/service", Tag: "meta", Summary: "Service info and uptime"},
	)
}

//
// Swagger DTOs and route docs
//

// HealthResponse is the health payload
// swagger:model
type HealthResponse struct {
	OK      bool   `json:"ok"       example:"true"`
	Service string `json:"service"  example:"zaplens-api"`
	Started string `json:"started"  example:"2026-03-10T13:00:00Z"`
	Now     string `json:"now"      example:"2026-03-10T13:05:00Z"`
}

// ReadyCheck describes a single dependency check
type ReadyCheck struct {
	Name   string `json:"name"   example:"relay"`
	Status string `json:"status" example:"ok"` // ok fail skipped unknown
	Error  string `json:"error,omitempty" example:"relay query: dial tcp 127.0.0.1:7777: connect: connection refused"`
}

// ReadyResponse summarizes readiness
type ReadyResponse struct {
	Status string       `json:"status" example:"ok"` // ok degraded fail
	Checks []ReadyCheck `json:"checks"`
	Now    string       `json:"now"    example:"2026-03-10T13:05:00Z"`
}

// ServiceResponse describes service info
type ServiceResponse struct {
	Name     string `json:"name"    example:"zaplens-api"`
	Started  string `json:"started" example:"2026-03-10T13:00:00Z"`
	Uptime   int64  `json:"uptime"  example:"300"`
	Sessions *int   `json:"sessions,omitempty" example:"4"`
}

// swagger:route GET /meta/health Meta metaHealth
// @Summary Health check
// @Tags Meta
// @Produce json
// @Success 200 type HealthResponse ok
// @Router /meta/health [get]
func (h *handlers) health(_ *http.Request) (any, error) {
	return HealthResponse{
		OK:      true,
		Service: h.deps.ServiceName,
		Started: h.deps.StartedAt.UTC().Format(time.RFC3339),
		Now:     h.now().UTC().Format(time.RFC3339),
	}, nil
}

// swagger:route GET /meta/ready Meta metaReady
// @Summary Readiness probe with dependency checks
// @Tags Meta
// @Produce json
// @Success 200 type ReadyResponse ok
// @Router /meta/ready [get]
func (h *handlers) ready(r *http.Request) (any, error) {
	ctx, cancel := stdctx.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	check := func(name string, c any) ReadyCheck {
		if c == nil {
			return ReadyCheck{Name: name, Status: "skipped"}
		}
		if p, ok := c.(Pinger); ok {
			if err := p.Ping(ctx); err != nil {
				return ReadyCheck{Name: name, Status: "fail", Error: err.Error()}
			}
			return ReadyCheck{Name: name, Status: "ok"}
		}
		return ReadyCheck{Name: name, Status: "unknown"}
	}

	relay := check("relay", h.deps.Relay)

	// a down relay degrades rather than fails: cached sessions still answer
	overall := "ok"
	if relay.Status != "ok" {
		overall = "degraded"
	}

	return ReadyResponse{
		Status: overall,
		Checks: []ReadyCheck{relay},
		Now:    h.now().UTC().Format(time.RFC3339),
	}, nil
}

// swagger:route GET /meta/version Meta metaVersion
// @Summary Build and version info
// @Tags Meta
// @Produce json
// @Success 200 type version.BuildInfo ok
// @Router /meta/version [get]
func (h *handlers) version(_ *http.Request) (any, error) {
	return version.Info(), nil
}

// swagger:route GET /meta/service Meta metaService
// @Summary Service info and uptime
// @Tags Meta
// @Produce json
// @Success 200 type ServiceResponse ok
// @Router /meta/service [get]
func (h *handlers) service(_ *http.Request) (any, error) {
	out := ServiceResponse{
		Name:    h.deps.ServiceName,
		Started: h.deps.StartedAt.UTC().Format(time.RFC3339),
		Uptime:  int64(h.now().Sub(h.deps.StartedAt) / time.Second),
	}
	if h.deps.Sessions != nil {
		n := h.deps.Sessions()
		out.Sessions = &n
	}
	return out, nil
}
