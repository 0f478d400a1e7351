// Package module wires meta endpoints into the API using a tiny module
package module

import (
	"time"

	"zaplens/internal/modkit"
	"zaplens/internal/modkit/httpkit"

	metahttp "zaplens/internal/services/api/meta/http"
)

// Ports optionally injects a session counter for /service
type Ports struct {
	Sessions func() int
}

// Module implements the modkit.Module interface
type Module struct {
	modkit.Routed
	startedAt time.Time
}

// New constructs a meta module with the provided dependencies and options
func New(deps modkit.Deps, opts ...modkit.Option) *Module {
	b := modkit.Build(append([]modkit.Option{
		modkit.WithName("meta"),
		modkit.WithPrefix("/meta"),
	}, opts...)...)

	injected, _ := b.Ports.(Ports)
	m := &Module{startedAt: time.Now()}

	var relay any
	if deps.Relay != nil {
		relay = deps.Relay
	}
	metahttp.Docs(b.Prefix)
	m.Routed = modkit.RoutedFrom(b, func(r httpkit.Router) {
		metahttp.Register(r, metahttp.Deps{
			ServiceName: "zaplens-api",
			StartedAt:   m.startedAt,
			Relay:       relay,
			Sessions:    injected.Sessions,
		})
	})
	return m
}

// Ports implements the modkit.Module interface
func (m *Module) Ports() any { return nil }
