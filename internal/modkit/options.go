package modkit

import (
	"net/http"

	"armvalidator/internal/modkit/httpkit"
)

// Built is what a module constructor reads back from its options
type Built struct {
	Name   string
	Prefix string
	Mw     []func(http.Handler) http.Handler
	// Extra routes mounted next to the module's own, mostly for tests
	Extra func(httpkit.Router)
}

// Option adjusts how a module is named and mounted
type Option func(*Built)

// WithName sets the module name used in logs and the port registry
func WithName(name string) Option {
	return func(b *Built) { b.Name = name }
}

// WithPrefix mounts the module under prefix; "" or "/" means the router root
func WithPrefix(prefix string) Option {
	return func(b *Built) { b.Prefix = prefix }
}

// WithMiddlewares appends per module middleware in order
func WithMiddlewares(mw ...func(http.Handler) http.Handler) Option {
	return func(b *Built) { b.Mw = append(b.Mw, mw...) }
}

// WithExtraRoutes registers fn after the module's own routes, inside its scope
func WithExtraRoutes(fn func(httpkit.Router)) Option {
	return func(b *Built) { b.Extra = fn }
}

// Build applies opts in order; later options win for scalar fields
func Build(opts ...Option) Built {
	var b Built
	for _, o := range opts {
		o(&b)
	}
	b.Mw = append([]func(http.Handler) http.Handler(nil), b.Mw...)
	return b
}

// Mount attaches routes under the built prefix with the built middlewares
func (b Built) Mount(r httpkit.Router, routes func(httpkit.Router)) {
	httpkit.MountUnder(r, b.Prefix, b.Mw, func(sub httpkit.Router) {
		routes(sub)
		if b.Extra != nil {
			b.Extra(sub)
		}
	})
}
