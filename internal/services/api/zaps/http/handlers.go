// Package http provides http transport for zaps sessions
package http

import (
	stdhttp "net/http"

	"zaplens/internal/modkit/httpkit"
	"zaplens/internal/modkit/swaggerkit"
	"zaplens/internal/services/api/zaps/domain"
)

// Register mounts the router
func Register(r httpkit.Router, s domain.ServicePort) {
	h := &handlers{svc: s}
	httpkit.PostJSON[domain.OpenInput](r, "/sessions", h.open)
	httpkit.Get(r, "/sessions/{id}", h.get)
	httpkit.Delete(r, "/sessions/{id}", h.close)
	httpkit.PutJSON[domain.UserInput](r, "/sessions/{id}/user", h.setUser)
	httpkit.PutJSON[domain.WindowInput](r, "/sessions/{id}/window", h.setWindow)
	httpkit.Post(r, "/sessions/{id}/load", h.load)
	httpkit.Post(r, "/sessions/{id}/autoload/toggle", h.toggle)
	httpkit.Post(r, "/sessions/{id}/autoload/restart", h.restart)
	httpkit.Get(r, "/sessions/{id}/snapshot", h.snapshot)
}

type handlers struct{ svc domain.ServicePort }

// swagger:route POST /zaps/sessions Zaps zapsOpen
// @Summary Open a viewing session for a user and window
// @Tags zaps
// @Accept json
// @Produce json
// @Param payload body domain.OpenInput true "Open"
// @Success 201 {object} domain.SessionView "created"
// @Failure 400 {object} httpkit.Envelope "invalid window"
// @Router /zaps/sessions [post]
func (h *handlers) open(r *stdhttp.Request, in domain.OpenInput) (any, error) {
	v, err := h.svc.Open(r.Context(), in)
	if err != nil {
		return nil, err
	}
	return httpkit.Created(v), nil
}

// swagger:route GET /zaps/sessions/{id} Zaps zapsGet
// @Summary Session window and loading state
// @Tags zaps
// @Produce json
// @Param id path string true "Session id"
// @Success 200 {object} domain.SessionView "ok"
// @Failure 404 {object} httpkit.Envelope "not found"
// @Router /zaps/sessions/{id} [get]
func (h *handlers) get(r *stdhttp.Request) (any, error) {
	return h.svc.Get(r.Context(), httpkit.Param(r, "id"))
}

// swagger:route DELETE /zaps/sessions/{id} Zaps zapsClose
// @Summary Close a session and stop its loader
// @Tags zaps
// @Param id path string true "Session id"
// @Success 204 "closed"
// @Failure 404 {object} httpkit.Envelope "not found"
// @Router /zaps/sessions/{id} [delete]
func (h *handlers) close(r *stdhttp.Request) (any, error) {
	if err := h.svc.Close(r.Context(), httpkit.Param(r, "id")); err != nil {
		return nil, err
	}
	return httpkit.NoContent(), nil
}

// swagger:route PUT /zaps/sessions/{id}/user Zaps zapsUser
// @Summary Switch the session to another user
// @Tags zaps
// @Accept json
// @Produce json
// @Param id path string true "Session id"
// @Param payload body domain.UserInput true "User"
// @Success 200 {object} domain.SessionView "ok"
// @Router /zaps/sessions/{id}/user [put]
func (h *handlers) setUser(r *stdhttp.Request, in domain.UserInput) (any, error) {
	return h.svc.SetUser(r.Context(), httpkit.Param(r, "id"), in)
}

// swagger:route PUT /zaps/sessions/{id}/window Zaps zapsWindow
// @Summary Change the session window; cached receipts are reused
// @Tags zaps
// @Accept json
// @Produce json
// @Param id path string true "Session id"
// @Param payload body domain.WindowInput true "Window"
// @Success 200 {object} domain.SessionView "ok"
// @Router /zaps/sessions/{id}/window [put]
func (h *handlers) setWindow(r *stdhttp.Request, in domain.WindowInput) (any, error) {
	return h.svc.SetWindow(r.Context(), httpkit.Param(r, "id"), in)
}

// swagger:route POST /zaps/sessions/{id}/load Zaps zapsLoad
// @Summary Fetch one more batch now
// @Tags zaps
// @Produce json
// @Param id path string true "Session id"
// @Success 200 {object} domain.LoadOutput "ok"
// @Router /zaps/sessions/{id}/load [post]
func (h *handlers) load(r *stdhttp.Request) (any, error) {
	return h.svc.Load(r.Context(), httpkit.Param(r, "id"))
}

// swagger:route POST /zaps/sessions/{id}/autoload/toggle Zaps zapsToggle
// @Summary Pause or resume automatic loading
// @Tags zaps
// @Produce json
// @Param id path string true "Session id"
// @Success 200 {object} domain.SessionView "ok"
// @Router /zaps/sessions/{id}/autoload/toggle [post]
func (h *handlers) toggle(r *stdhttp.Request) (any, error) {
	return h.svc.ToggleAutoLoad(r.Context(), httpkit.Param(r, "id"))
}

// swagger:route POST /zaps/sessions/{id}/autoload/restart Zaps zapsRestart
// @Summary Clear the failure counter and resume automatic loading
// @Tags zaps
// @Produce json
// @Param id path string true "Session id"
// @Success 200 {object} domain.SessionView "ok"
// @Router /zaps/sessions/{id}/autoload/restart [post]
func (h *handlers) restart(r *stdhttp.Request) (any, error) {
	return h.svc.RestartAutoLoad(r.Context(), httpkit.Param(r, "id"))
}

// swagger:route GET /zaps/sessions/{id}/snapshot Zaps zapsSnapshot
// @Summary Enriched analytics over the cached receipts in the session window
// @Tags zaps
// @Produce json
// @Param id path string true "Session id"
// @Success 200 {object} domain.SnapshotView "ok"
// @Router /zaps/sessions/{id}/snapshot [get]
func (h *handlers) snapshot(r *stdhttp.Request) (any, error) {
	return h.svc.Snapshot(r.Context(), httpkit.Param(r, "id"))
}

// Docs registers the zaps operations and request schemas with swaggerkit
func Docs(prefix string) {
	windowProps := map[string]any{
		"range": map[string]any{"type": "string", "enum": []any{"24h", "7d", "30d", "90d", "1y", "all", "custom"}},
		"since": map[string]any{"type": "integer", "format": "int64", "description": "unix seconds, custom only"},
		"until": map[string]any{"type": "integer", "format": "int64", "description": "unix seconds, custom only"},
	}
	user := map[string]any{"type": "string", "pattern": "^[0-9a-fA-F]{64}$"}

	openProps := map[string]any{"user": user}
	for k, v := range windowProps {
		openProps[k] = v
	}
	swaggerkit.RegisterSchema("OpenInput", map[string]any{
		"type": "object", "required": []any{"user", "range"}, "properties": openProps,
	})
	swaggerkit.RegisterSchema("UserInput", map[string]any{
		"type": "object", "required": []any{"user"}, "properties": map[string]any{"user": user},
	})
	swaggerkit.RegisterSchema("WindowInput", map[string]any{
		"type": "object", "required": []any{"range"}, "properties": windowProps,
	})

	p := prefix + "/sessions"
	id := p + "/{id}"
	swaggerkit.Register(
		swaggerkit.Operation{Method: stdhttp.MethodPost, Path: p, Tag: "zaps", Summary: "Open a viewing session", Body: "OpenInput"},
		swaggerkit.Operation{Method: stdhttp.MethodGet, Path: id, Tag: "zaps", Summary: "Session window and loading state"},
		swaggerkit.Operation{Method: stdhttp.MethodDelete, Path: id, Tag: "zaps", Summary: "Close a session"},
		swaggerkit.Operation{Method: stdhttp.MethodPut, Path: id + "/user", Tag: "zaps", Summary: "Switch user", Body: "UserInput"},
		swaggerkit.Operation{Method: stdhttp.MethodPut, Path: id + "/window", Tag: "zaps", Summary: "Change window", Body: "WindowInput"},
		swaggerkit.Operation{Method: stdhttp.MethodPost, Path: id + "/load", Tag: "zaps", Summary: "Fetch one more batch"},
		swaggerkit.Operation{Method: stdhttp.MethodPost, Path: id + "/autoload/toggle", Tag: "zaps", Summary: "Pause or resume auto loading"},
		swaggerkit.Operation{Method: stdhttp.MethodPost, Path: id + "/autoload/restart", Tag: "zaps", Summary: "Restart auto loading"},
		swaggerkit.Operation{Method: stdhttp.MethodGet, Path: id + "/snapshot", Tag: "zaps", Summary: "Analytics snapshot"},
	)
}
