// Package module holds the registry and port lookups used while composing modules in main
package module

import (
	phttp "zaplens/internal/platform/net/http"
)

// Module is the sibling of modkit.Module kept here so port lookups do not import modkit
type Module interface {
	MountRoutes(r phttp.Router)
	Ports() any
	Name() string
}
