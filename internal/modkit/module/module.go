// Package module holds the module contract and the bootstrap port registry
package module

import (
	phttp "armvalidator/internal/platform/net/http"
)

// Module is what the API mounts; it lives apart from modkit so port types
// can be shared without import cycles
type Module interface {
	MountRoutes(r phttp.Router)
	Ports() any
	Name() string
}
