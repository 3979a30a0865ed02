// Package http provides http transport for template validation and deployment
package http

import (
	stdhttp "net/http"
	"strconv"
	"time"

	"armvalidator/internal/modkit/httpkit"
	perr "armvalidator/internal/platform/errors"
	"armvalidator/internal/platform/logger"
	"armvalidator/internal/services/api/templates/domain"
)

// Config controls the transport
type Config struct {
	// MaxBodyBytes caps request bodies; templates can be large
	MaxBodyBytes int64
	// KeepAlive is the heartbeat interval of /deploy
	KeepAlive time.Duration
}

// Register mounts the template endpoints on the given router
func Register(r httpkit.Router, s domain.ServicePort, cfg Config) {
	h := &handlers{svc: s, cfg: cfg}

	r.With(httpkit.JSONOnly()).Post("/validate", httpkit.Handle(h.validate))
	r.With(httpkit.JSONOnly()).Post("/deploy", h.deploy)
	r.With(httpkit.Compressed()).Get("/runs", httpkit.Handle(h.runs))
}

type handlers struct {
	svc domain.ServicePort
	cfg Config
}

func (h *handlers) bindOpts() httpkit.BindOptions {
	// ARM documents carry fields we do not model
	return httpkit.BindOptions{MaxBytes: h.cfg.MaxBodyBytes, DisallowUnknown: false}
}

// swagger:route POST /validate Templates templatesValidate
// @Summary Validate a template against ARM without deploying it
// @Tags Templates
// @Accept json
// @Produce json
// @Param payload body domain.ValidationRequest true "Template and parameters"
// @Success 200 {object} domain.ResultBody "Template Valid"
// @Failure 400 {object} httpkit.ErrorBody "invalid body or validation failure"
// @Router /validate [post]
func (h *handlers) validate(r *stdhttp.Request) httpkit.Response {
	in, err := httpkit.Bind[domain.ValidationRequest](r, h.bindOpts())
	if err != nil {
		return httpkit.BareError(stdhttp.StatusBadRequest, err)
	}
	if err := h.svc.Validate(r.Context(), in); err != nil {
		return httpkit.BareError(stdhttp.StatusBadRequest, err)
	}
	return httpkit.Bare(stdhttp.StatusOK, domain.ResultBody{Result: domain.ResultValid})
}

// swagger:route POST /deploy Templates templatesDeploy
// @Summary Test deploy a template into a throwaway resource group
// @Description The response is streamed: a 200 is committed at once, single spaces
// @Description are sent as keep-alive bytes and the final JSON document closes it
// @Tags Templates
// @Accept json
// @Produce json
// @Param payload body domain.DeploymentRequest true "Template, parameters and optional pull request"
// @Success 200 {object} domain.ResultBody "Deployment Successful, or domain.FailureBody on failure"
// @Failure 400 {object} httpkit.ErrorBody "invalid body"
// @Router /deploy [post]
func (h *handlers) deploy(w stdhttp.ResponseWriter, r *stdhttp.Request) {
	in, err := httpkit.Bind[domain.DeploymentRequest](r, h.bindOpts())
	if err != nil {
		httpkit.WriteJSON(w, stdhttp.StatusBadRequest, httpkit.ErrorBody{Error: perr.Message(err)})
		return
	}

	log := logger.C(r.Context())
	k := httpkit.NewKeepAlive(w, h.cfg.KeepAlive, log)
	k.Begin()
	start := time.Now()
	res := h.svc.Deploy(r.Context(), in, k)

	evt := log.Info()
	if res.Kind == domain.Failed {
		evt = log.Warn().Str("reason", res.Reason)
	}
	evt.Str("outcome", res.Kind.String()).
		Int("pull_request", int(in.PullRequest)).
		Int("heartbeats", k.Beats()).
		Dur("elapsed", time.Since(start)).
		Msg("deploy finished")
}

// swagger:route GET /runs Templates templatesRuns
// @Summary Recent validation and deployment runs, newest first
// @Tags Templates
// @Produce json
// @Param limit query int false "1..200, default 50"
// @Success 200 {array} domain.Run "ok"
// @Router /runs [get]
func (h *handlers) runs(r *stdhttp.Request) httpkit.Response {
	in, err := parseRunsInput(r)
	if err != nil {
		return httpkit.Error(err)
	}
	runs, err := h.svc.Runs(r.Context(), in.Limit)
	if err != nil {
		return httpkit.Error(err)
	}
	return httpkit.List(runs, len(runs), in.Limit, len(runs))
}

func parseRunsInput(r *stdhttp.Request) (domain.RunsInput, error) {
	in := domain.RunsInput{Limit: 50}
	raw := r.URL.Query().Get("limit")
	if raw == "" {
		return in, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 1 || n > 200 {
		return in, perr.WithField(perr.Newf(perr.ErrorCodeValidation, "limit must be between 1 and 200"), "limit")
	}
	in.Limit = n
	return in, nil
}
