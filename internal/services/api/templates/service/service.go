// Package service runs the template validation and test deployment pipelines
package service

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"armvalidator/internal/core/params"
	"armvalidator/internal/core/rawlinks"
	"armvalidator/internal/platform/artifact"
	perr "armvalidator/internal/platform/errors"
	"armvalidator/internal/platform/logger"
	"armvalidator/internal/services/api/templates/domain"

	"github.com/google/uuid"
)

// Service defines the service contract for templates
type Service interface{ domain.ServicePort }

// Config controls the pipelines
type Config struct {
	// ResourceGroupPrefix is prepended to a uuid for every test deployment
	ResourceGroupPrefix string
	// GitHubRepo is owner/name of the repository whose master links get rewritten
	GitHubRepo string
	Params     params.Config
	// DeleteTimeout bounds one background resource group deletion; 0 means none
	DeleteTimeout time.Duration
	// RecordTimeout bounds one ledger write
	RecordTimeout time.Duration
}

// Deps are the collaborators of Svc. Links and Ledger may be nil
type Deps struct {
	Artifacts   domain.Artifacts
	Validator   domain.Validator
	Provisioner domain.Provisioner
	Links       domain.LinkResolver
	Ledger      domain.Ledger
}

// Svc implements Service
type Svc struct {
	cfg       Config
	sanitizer *params.Sanitizer
	rewriter  *rawlinks.Rewriter

	files  domain.Artifacts
	valid  domain.Validator
	prov   domain.Provisioner
	ledger domain.Ledger

	// background resource group deletions
	wg sync.WaitGroup

	newID func() string
	now   func() time.Time
}

// New constructs the service; it panics on missing required deps
func New(cfg Config, d Deps) *Svc {
	if d.Artifacts == nil {
		panic("templates.Service requires an artifact store")
	}
	if d.Validator == nil || d.Provisioner == nil {
		panic("templates.Service requires a validator and a provisioner")
	}
	if cfg.RecordTimeout <= 0 {
		cfg.RecordTimeout = 5 * time.Second
	}
	var links rawlinks.LinkResolver
	if d.Links != nil {
		links = d.Links
	}
	return &Svc{
		cfg:       cfg,
		sanitizer: params.New(cfg.Params),
		rewriter:  rawlinks.New(cfg.GitHubRepo, links),
		files:     d.Artifacts,
		valid:     d.Validator,
		prov:      d.Provisioner,
		ledger:    d.Ledger,
		newID:     uuid.NewString,
		now:       time.Now,
	}
}

// Validate writes the request as given and asks the validator about it. The
// files are removed before it returns, panics included
func (s *Svc) Validate(ctx context.Context, in domain.ValidationRequest) (err error) {
	run := s.startRun(domain.RunValidate, "", 0)
	ctx = logger.WithRun(ctx, run.ID, "")
	h := s.files.NewHandle()

	defer func() {
		if r := recover(); r != nil {
			logger.C(ctx).Error().Interface("panic", r).Msg("validation panicked")
			err = perr.PanicErrf("validation crashed: %v", r)
		}
		s.files.Cleanup(ctx, h)
		s.record(ctx, run, err)
	}()

	if err = s.files.Write(h, in.Template, in.Parameters); err != nil {
		return err
	}
	logger.C(ctx).Debug().RawJSON("template", in.Template).Str("file", h.TemplatePath).Msg("wrote template")
	return s.valid.ValidateTemplate(ctx, h)
}

// state is what a deployment has produced so far; failures report it back
type state struct {
	rg       string
	params   params.Document
	template json.RawMessage
}

// Deploy runs sanitize, link rewrite, write and test deployment, then delivers
// exactly one payload through out. Once the payload is out the artifacts are
// removed and the resource group deletion is started in the background.
// Client cancellation is ignored: ctx is detached before any work starts
// Wait covers the whole call, not just the deletion it starts
func (s *Svc) Deploy(ctx context.Context, in domain.DeploymentRequest, out domain.Responder) (res domain.Outcome) {
	s.wg.Add(1)
	// registered first so it runs last, after deleteGroup holds its own count
	defer s.wg.Done()

	st := &state{rg: s.cfg.ResourceGroupPrefix + s.newID(), template: in.Template}
	if in.Parameters != nil {
		st.params = *in.Parameters
	}
	run := s.startRun(domain.RunDeploy, st.rg, int(in.PullRequest))

	ctx = logger.WithRun(context.WithoutCancel(ctx), run.ID, st.rg)
	log := logger.C(ctx)
	h := s.files.NewHandle()

	// deferred in reverse: recover, respond, clean up
	defer func() {
		s.files.Cleanup(ctx, h)
		s.deleteGroup(ctx, st.rg)
		s.record(ctx, run, res.Err)
	}()
	defer func() {
		if err := out.Terminate(res.Payload()); err != nil {
			log.Warn().Err(err).Msg("terminal payload not delivered")
		}
	}()
	defer func() {
		if r := recover(); r != nil {
			log.Error().Interface("panic", r).Msg("deployment pipeline panicked")
			res = s.failed(perr.PanicErrf("deployment crashed: %v", r), st)
		}
	}()

	if err := s.deploy(ctx, in, h, st); err != nil {
		log.Debug().Err(err).Msg("deployment not successful")
		return s.failed(err, st)
	}
	log.Debug().Msg("deployment successful")
	return domain.Outcome{Kind: domain.DeploymentSucceeded}
}

func (s *Svc) deploy(ctx context.Context, in domain.DeploymentRequest, h artifact.Handle, st *state) error {
	log := logger.C(ctx)

	st.params = s.sanitizer.SanitizeDocument(st.params)

	log.Debug().Int("pull_request", int(in.PullRequest)).Msg("pull request number")
	if in.PullRequest.Present() {
		tpl, err := s.rewriter.Rewrite(ctx, st.template, int(in.PullRequest))
		if err != nil {
			return err
		}
		st.template = tpl
		log.Debug().RawJSON("template", tpl).Str("replaced", s.rewriter.Prefix()).Msg("modified template")
	}

	if err := s.files.Write(h, st.template, st.params); err != nil {
		return err
	}
	log.Debug().RawJSON("template", st.template).Interface("parameters", st.params).Msg("deploying template")

	return s.prov.TestTemplate(ctx, h, st.rg)
}

func (s *Svc) failed(err error, st *state) domain.Outcome {
	p, merr := json.Marshal(st.params)
	if merr != nil {
		p = nil
	}
	return domain.Outcome{
		Kind:   domain.Failed,
		Err:    err,
		Reason: perr.Message(err),
		Diag: &domain.Diagnostics{
			ResourceGroup: st.rg,
			Parameters:    p,
			Template:      st.template,
		},
	}
}

// deleteGroup starts the single deletion attempt for rg. Its result is logged
// here and nowhere else
func (s *Svc) deleteGroup(ctx context.Context, rg string) {
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		dctx := ctx
		if s.cfg.DeleteTimeout > 0 {
			var cancel context.CancelFunc
			dctx, cancel = context.WithTimeout(ctx, s.cfg.DeleteTimeout)
			defer cancel()
		}
		log := logger.C(ctx)
		defer func() {
			if r := recover(); r != nil {
				log.Error().Interface("panic", r).Msg("resource group deletion panicked")
			}
		}()
		if err := s.prov.DeleteGroup(dctx, rg); err != nil {
			log.Error().Err(err).Stringer("code", perr.CodeOf(err)).Msg("failed to delete resource group")
			return
		}
		log.Debug().Msg("cleaned up resource group")
	}()
}

// Wait blocks until in-flight deployments and their resource group deletions
// finish, or ctx is done
func (s *Svc) Wait(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return perr.Unavailablef("deployments or resource group deletions still running: %v", ctx.Err())
	}
}

// Runs lists recent runs newest first; empty without a ledger
func (s *Svc) Runs(ctx context.Context, limit int) ([]domain.Run, error) {
	if s.ledger == nil {
		return []domain.Run{}, nil
	}
	return s.ledger.Recent(ctx, limit)
}

func (s *Svc) startRun(kind domain.RunKind, rg string, pr int) domain.Run {
	return domain.Run{
		ID:            s.newID(),
		Kind:          kind,
		ResourceGroup: rg,
		PullRequest:   pr,
		StartedAt:     s.now().UTC(),
	}
}

// record never fails the request
func (s *Svc) record(ctx context.Context, run domain.Run, err error) {
	if s.ledger == nil {
		return
	}
	run.FinishedAt = s.now().UTC()
	run.Status = domain.RunSucceeded
	if err != nil {
		run.Status = domain.RunFailed
		run.Error = perr.Message(err)
	}
	rctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.cfg.RecordTimeout)
	defer cancel()
	if rerr := s.ledger.Record(rctx, run); rerr != nil {
		logger.C(ctx).Warn().Err(rerr).Stringer("code", perr.CodeOf(rerr)).Str("kind", string(run.Kind)).Msg("run not recorded")
	}
}
