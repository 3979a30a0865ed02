// Package api provides the HTTP API for the application
package api

import (
	"armvalidator/internal/platform/config"
	"armvalidator/internal/platform/logger"
	phttp "armvalidator/internal/platform/net/http"
	"armvalidator/internal/platform/store"

	"armvalidator/internal/modkit"
	"armvalidator/internal/modkit/httpkit"
	"armvalidator/internal/modkit/module"
	"armvalidator/internal/modkit/swaggerkit"

	metamod "armvalidator/internal/services/api/meta/module"
	templatesmod "armvalidator/internal/services/api/templates/module"
)

// Options are the API options
type Options struct {
	Config        config.Conf
	Store         *store.Store
	Logger        *logger.Logger
	EnableSwagger bool
	// CORSOrigins limits cross-origin callers; empty allows any
	CORSOrigins []string
	// ProfilerToken gates /debug/pprof; empty keeps it unmounted
	ProfilerToken string
}

// Mount mounts the API service onto the given router
// Module ports are registered by module name; the templates Lifecycle is
// looked up by callers that own process start and drain
func Mount(r phttp.Router, opt Options) {
	deps := modkit.Deps{Cfg: opt.Config}
	if opt.Store != nil {
		deps.PG = opt.Store.PG
	}

	// templates first: meta readiness reports its checks
	templates := templatesmod.New(deps)
	checks := module.MustPortsOf[templatesmod.Ports](templates).Checks

	mods := []module.Module{
		templates,
		metamod.New(deps, checks),
	}

	swaggerkit.Mount(r, opt.EnableSwagger)
	phttp.MountProfiler(r, "/debug", opt.ProfilerToken)

	names := make([]string, 0, len(mods))
	r.Group(func(api httpkit.Router) {
		api.Use(httpkit.CommonStack(opt.CORSOrigins...)...)
		for _, m := range mods {
			// register each module's ports under its own name (for cross-module lookups)
			module.Register(m.Name(), m.Ports())
			m.MountRoutes(api)
			names = append(names, m.Name())
		}
	})

	log := opt.Logger
	if log == nil {
		log = logger.Named("api")
	}
	log.Info().
		Strs("modules", names).
		Bool("ledger", deps.HasLedger()).
		Bool("swagger", opt.EnableSwagger).
		Bool("profiler", opt.ProfilerToken != "").
		Msg("api mounted")
}
