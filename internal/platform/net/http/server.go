package http

import (
	"context"
	"errors"
	"net"
	stdhttp "net/http"
	"sync/atomic"
	"time"

	"armvalidator/internal/platform/config"
	"armvalidator/internal/platform/logger"

	"github.com/go-chi/chi/v5"
)

// Server owns the chi mux and the listener
type Server struct {
	addr  string
	bound atomic.Pointer[string]
	grace time.Duration
	mux   *chi.Mux
	srv   *stdhttp.Server
}

// NewServer reads API_PORT (":4000" or "host:port"), SHUTDOWN_GRACE and
// READ_TIMEOUT from cfg. opts see the mux before any route is added.
//
// There is no WriteTimeout: /deploy holds its response open for as long as the
// provisioning call runs
func NewServer(cfg config.Conf, opts ...func(*chi.Mux)) *Server {
	m := chi.NewRouter()
	for _, o := range opts {
		o(m)
	}
	s := &Server{
		addr:  cfg.MayString("API_PORT", ":4000"),
		grace: cfg.MayDuration("SHUTDOWN_GRACE", 30*time.Second),
		mux:   m,
	}
	s.srv = &stdhttp.Server{
		Handler:           m,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       cfg.MayDuration("READ_TIMEOUT", time.Minute),
		IdleTimeout:       2 * time.Minute,
	}
	return s
}

// Router returns the Router facade over the mux
func (s *Server) Router() Router { return AdaptChi(s.mux) }

// Addr is the bound address once Run is listening, the configured one before
func (s *Server) Addr() string {
	if b := s.bound.Load(); b != nil {
		return *b
	}
	return s.addr
}

// Run listens and serves until ctx is cancelled, then stops accepting and
// waits up to the grace period for in-flight requests, streamed deploys
// included. A clean stop returns nil
func (s *Server) Run(ctx context.Context) error {
	log := logger.Named("http")

	ln, err := net.Listen("tcp", s.addr)
	if err != nil {
		return err
	}
	bound := ln.Addr().String()
	s.bound.Store(&bound)

	drained := make(chan struct{})
	stopWatch := context.AfterFunc(ctx, func() {
		defer close(drained)
		sctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.grace)
		defer cancel()
		if err := s.srv.Shutdown(sctx); err != nil {
			log.Warn().Err(err).Dur("grace", s.grace).Msg("graceful shutdown incomplete")
		}
	})

	log.Info().Str("addr", bound).Msg("http listening")
	err = s.srv.Serve(ln)
	if !stopWatch() {
		// Serve returns as soon as Shutdown starts
		<-drained
	}
	if errors.Is(err, stdhttp.ErrServerClosed) {
		return nil
	}
	return err
}

// Shutdown stops the server gracefully
func (s *Server) Shutdown(ctx context.Context) error { return s.srv.Shutdown(ctx) }
