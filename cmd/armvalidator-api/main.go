// @title         armvalidator API
// @version       1.0
// @description   Validates and deploys ARM templates against Azure

package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"armvalidator/internal/core/version"
	"armvalidator/internal/modkit/module"
	"armvalidator/internal/platform/config"
	"armvalidator/internal/platform/logger"
	phttp "armvalidator/internal/platform/net/http"
	"armvalidator/internal/platform/store"

	"armvalidator/internal/services/api"
	templatesmod "armvalidator/internal/services/api/templates/module"
)

func main() {
	// service-scoped config for HTTP etc (CORE_API_*)
	root := config.New()
	apiCfg := root.Prefix("CORE_API_")

	// bring up logging early
	logOpts := logger.FromEnv()
	if logOpts.Service == "" {
		logOpts.Service = version.Service
	}
	logOpts.Version = version.Info().Version
	logger.Init(logOpts)
	l := logger.Get()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// the run ledger is optional (SERVICE_PGSQL_*)
	st, err := store.Open(ctx, store.FromConf(version.Info().Service, root), store.WithLogger(*l))
	if err != nil {
		l.Panic().Err(err).Msg("store.Open failed")
	}
	defer func() {
		if err := st.Close(context.Background()); err != nil {
			l.Error().Err(err).Msg("failed to close store")
		}
	}()

	// http server (reads CORE_API_PORT)
	srv := phttp.NewServer(root.Prefix("CORE_"))

	api.Mount(
		srv.Router(),
		api.Options{
			Config:        root,
			Store:         st,
			Logger:        l,
			EnableSwagger: apiCfg.MayBool("SWAGGER", true),
			CORSOrigins:   apiCfg.MayCSV("CORS_ORIGINS", nil),
			ProfilerToken: apiCfg.MayString("PROFILER_TOKEN", ""),
		},
	)

	tpl, ok := module.PortsAs[templatesmod.Ports]("templates")
	if !ok {
		l.Panic().Msg("templates module not registered")
	}
	if err := tpl.Lifecycle.Start(ctx); err != nil {
		l.Panic().Err(err).Msg("templates start failed")
	}

	l.Info().Str("version", version.Info().Version).Str("addr", srv.Addr()).Msg("armvalidator up")

	// run until signalled; Run returns once in-flight streams have drained
	if err := srv.Run(ctx); err != nil {
		l.Error().Err(err).Msg("http server stopped")
	}

	// deployments and their resource group deletions outlive the grace period
	dctx, cancel := context.WithTimeout(context.Background(), apiCfg.MayDuration("DRAIN_TIMEOUT", 5*time.Minute))
	defer cancel()
	if err := tpl.Lifecycle.Drain(dctx); err != nil {
		l.Warn().Err(err).Msg("resource group cleanup incomplete")
	}
}
