// Package modkit defines the module contract the API and workers are composed from
package modkit

import (
	"net/http"

	"zaplens/internal/modkit/httpkit"
	str "zaplens/internal/platform/strings"
)

// Module is the common surface for modules that can mount routes and expose ports
type Module interface {
	// MountRoutes mounts HTTP routes under the provided router seam
	MountRoutes(r httpkit.Router)
	// Ports returns a module specific port set for cross wiring
	Ports() any
	// Name returns the module name
	Name() string
}

// Builder constructs a Module from shared deps and options
type Builder func(Deps, ...Option) Module

// Routed is embedded by HTTP modules: it mounts Register under Prefix with the module middlewares
type Routed struct {
	ModName   string
	ModPrefix string
	Mw        []func(http.Handler) http.Handler
	Register  func(httpkit.Router)
}

// RoutedFrom copies the routing fields out of a Built
func RoutedFrom(b Built, register func(httpkit.Router)) Routed {
	ext := b.Register
	return Routed{
		ModName:   b.Name,
		ModPrefix: b.Prefix,
		Mw:        b.Mw,
		Register: func(r httpkit.Router) {
			register(r)
			if ext != nil {
				ext(r)
			}
		},
	}
}

// MountRoutes implements Module
func (m Routed) MountRoutes(r httpkit.Router) {
	httpkit.MountUnder(r, str.MustPrefix(m.ModPrefix), m.Mw, m.Register)
}

// Name implements Module
func (m Routed) Name() string { return str.MustString(m.ModName, "module name") }
