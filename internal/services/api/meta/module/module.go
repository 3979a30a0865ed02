// Package module wires meta endpoints into the API using a tiny module
package module

import (
	"time"

	"armvalidator/internal/core/version"
	"armvalidator/internal/modkit"
	"armvalidator/internal/modkit/httpkit"
	str "armvalidator/internal/platform/strings"

	metahttp "armvalidator/internal/services/api/meta/http"
)

// Module implements modkit.Module for /meta
type Module struct {
	b    modkit.Built
	deps metahttp.Deps
}

// New constructs a meta module; checks are extra readiness probes
func New(deps modkit.Deps, checks []metahttp.Check, opts ...modkit.Option) modkit.Module {
	b := modkit.Build(append([]modkit.Option{
		modkit.WithName("meta"),
		modkit.WithPrefix("/meta"),
		modkit.WithMiddlewares(httpkit.Bounded(5 * time.Second)),
	}, opts...)...)

	d := metahttp.Deps{
		ServiceName: version.Info().Service,
		StartedAt:   time.Now(),
		Checks:      checks,
	}
	// fakes in tests may not ping; the check then reads skipped
	if p, ok := deps.PG.(metahttp.Pinger); ok {
		d.PG = p
	}
	return &Module{b: b, deps: d}
}

// MountRoutes mounts the meta routes under the module prefix
func (m *Module) MountRoutes(r httpkit.Router) {
	m.b.Mount(r, func(rr httpkit.Router) { metahttp.Register(rr, m.deps) })
}

// Name implements modkit.Module
func (m *Module) Name() string { return str.MustString(m.b.Name, "meta") }

// Prefix is where the routes live
func (m *Module) Prefix() string { return str.MustPrefix(m.b.Prefix) }

// Ports is nil; meta exposes nothing to other modules
func (m *Module) Ports() any { return nil }
