// Package http serves the /meta endpoints
package http

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"time"

	"armvalidator/internal/core/version"
	"armvalidator/internal/modkit/httpkit"
)

// Pinger is the ledger's liveness seam
type Pinger interface {
	Ping(context.Context) error
}

// Check is a named readiness probe
type Check struct {
	Name  string
	Probe func(context.Context) error
}

// Check statuses
const (
	StatusOK       = "ok"
	StatusFail     = "fail"
	StatusTimeout  = "timeout"
	StatusSkipped  = "skipped"
	StatusDegraded = "degraded"
)

// Deps are the handler dependencies
type Deps struct {
	ServiceName string
	StartedAt   time.Time
	// PG is nil without a ledger; its check then reports skipped
	PG     Pinger
	Checks []Check
	// ReadyTimeout bounds all probes together; default 2s
	ReadyTimeout time.Duration
}

type handlers struct {
	deps Deps
}

// Register mounts the meta routes
func Register(r httpkit.Router, d Deps) {
	h := &handlers{deps: d}
	httpkit.Get(r, "/health", h.health)
	httpkit.Get(r, "/ready", h.ready)
	httpkit.Get(r, "/version", h.version)
	httpkit.Get(r, "/service", h.service)
}

// HealthResponse is the liveness payload
type HealthResponse struct {
	OK      bool   `json:"ok"       example:"true"`
	Service string `json:"service"  example:"armvalidator-api"`
	Started string `json:"started"  example:"2026-10-15T13:00:00Z"`
	Now     string `json:"now"      example:"2026-10-15T13:05:00Z"`
}

// ReadyCheck is one probe result
type ReadyCheck struct {
	Name   string `json:"name"   example:"az"`
	Status string `json:"status" example:"ok"` // ok fail timeout skipped
	Error  string `json:"error,omitempty" example:"exec: \"az\": executable file not found in $PATH"`
	Millis int64  `json:"ms"     example:"3"`
}

// ReadyResponse summarizes readiness
type ReadyResponse struct {
	Status string       `json:"status" example:"ok"` // ok degraded fail
	Checks []ReadyCheck `json:"checks"`
	Now    string       `json:"now"    example:"2026-10-15T13:05:00Z"`
}

// ServiceResponse is name and uptime
type ServiceResponse struct {
	Name    string `json:"name"    example:"armvalidator-api"`
	Started string `json:"started" example:"2026-10-15T13:00:00Z"`
	Uptime  int64  `json:"uptime"  example:"300"`
}

// @Summary Liveness
// @Tags Meta
// @Produce json
// @Success 200 type HealthResponse ok
// @Router /meta/health [get]
func (h *handlers) health(_ *http.Request) (any, error) {
	return HealthResponse{
		OK:      true,
		Service: h.deps.ServiceName,
		Started: h.deps.StartedAt.UTC().Format(time.RFC3339),
		Now:     time.Now().UTC().Format(time.RFC3339),
	}, nil
}

// @Summary Readiness with dependency checks; 503 when any check fails
// @Tags Meta
// @Produce json
// @Success 200 type ReadyResponse ok
// @Failure 503 type ReadyResponse fail
// @Router /meta/ready [get]
func (h *handlers) ready(r *http.Request) (any, error) {
	timeout := h.deps.ReadyTimeout
	if timeout <= 0 {
		timeout = 2 * time.Second
	}
	ctx, cancel := context.WithTimeout(r.Context(), timeout)
	defer cancel()

	all := make([]Check, 0, len(h.deps.Checks)+1)
	pg := Check{Name: "pg"}
	if h.deps.PG != nil {
		pg.Probe = h.deps.PG.Ping
	}
	all = append(append(all, pg), h.deps.Checks...)

	out := ReadyResponse{Checks: runChecks(ctx, all), Now: time.Now().UTC().Format(time.RFC3339)}
	out.Status = overall(out.Checks)
	if out.Status == StatusFail {
		return httpkit.Response{Status: http.StatusServiceUnavailable, Body: out}, nil
	}
	return out, nil
}

// runChecks probes concurrently; results keep the order of checks
func runChecks(ctx context.Context, checks []Check) []ReadyCheck {
	res := make([]ReadyCheck, len(checks))
	var wg sync.WaitGroup
	for i, c := range checks {
		wg.Go(func() { res[i] = probe(ctx, c) })
	}
	wg.Wait()
	return res
}

func probe(ctx context.Context, c Check) ReadyCheck {
	if c.Probe == nil {
		return ReadyCheck{Name: c.Name, Status: StatusSkipped}
	}
	start := time.Now()
	err := c.Probe(ctx)
	rc := ReadyCheck{Name: c.Name, Status: StatusOK, Millis: time.Since(start).Milliseconds()}
	switch {
	case err == nil:
	case errors.Is(err, context.DeadlineExceeded):
		rc.Status, rc.Error = StatusTimeout, err.Error()
	default:
		rc.Status, rc.Error = StatusFail, err.Error()
	}
	return rc
}

// overall is fail on any failure, degraded on a timeout, else ok. A skipped
// optional dependency does not count
func overall(checks []ReadyCheck) string {
	status := StatusOK
	for _, c := range checks {
		switch c.Status {
		case StatusFail:
			return StatusFail
		case StatusTimeout:
			status = StatusDegraded
		}
	}
	return status
}

// @Summary Build and version info
// @Tags Meta
// @Produce json
// @Success 200 type version.BuildInfo ok
// @Router /meta/version [get]
func (h *handlers) version(_ *http.Request) (any, error) {
	return version.Info(), nil
}

// @Summary Service name and uptime
// @Tags Meta
// @Produce json
// @Success 200 type ServiceResponse ok
// @Router /meta/service [get]
func (h *handlers) service(_ *http.Request) (any, error) {
	return ServiceResponse{
		Name:    h.deps.ServiceName,
		Started: h.deps.StartedAt.UTC().Format(time.RFC3339),
		Uptime:  int64(time.Since(h.deps.StartedAt) / time.Second),
	}, nil
}
