// Package module wires template validation and deployment into the API via modkit
package module

import (
	"context"
	"fmt"
	"os"
	"os/exec"

	"armvalidator/internal/adapters/azure"
	"armvalidator/internal/adapters/github"
	"armvalidator/internal/core/params"
	"armvalidator/internal/modkit"
	"armvalidator/internal/modkit/httpkit"
	"armvalidator/internal/modkit/swaggerkit"
	"armvalidator/internal/platform/artifact"
	"armvalidator/internal/platform/logger"
	str "armvalidator/internal/platform/strings"
	metahttp "armvalidator/internal/services/api/meta/http"
	"armvalidator/internal/services/api/templates/domain"
	tplhttp "armvalidator/internal/services/api/templates/http"
	"armvalidator/internal/services/api/templates/repo"
	"armvalidator/internal/services/api/templates/service"

	"golang.org/x/sync/errgroup"
)

// Module implements the templates module
type Module struct {
	b     modkit.Built
	ports Ports

	opts   Options
	svc    *service.Svc
	az     *azure.Client
	files  *artifact.Store
	ledger *repo.Ledger
}

// New constructs the templates module from env. Routes mount at the root
func New(deps modkit.Deps, opts ...modkit.Option) modkit.Module {
	return NewWith(deps, FromConfig(deps.Cfg), opts...)
}

// NewWith constructs the module from explicit options
// It panics when the artifact directory or the GitHub settings are unusable
func NewWith(deps modkit.Deps, o Options, opts ...modkit.Option) *Module {
	b := modkit.Build(append([]modkit.Option{modkit.WithName("templates"), modkit.WithPrefix("/")}, opts...)...)

	files, err := artifact.New(o.ArtifactDir)
	if err != nil {
		panic(fmt.Errorf("templates: artifact store: %w", err))
	}

	az := azure.NewClient(azure.Options{
		Bin:             o.AzureBin,
		Subscription:    o.AzureSubscription,
		ValidationGroup: o.AzureValidationGroup,
		Location:        o.AzureLocation,
		TenantID:        o.AzureTenantID,
		ClientID:        o.AzureClientID,
		ClientSecret:    o.AzureClientSecret,
		Runner:          o.AzureRunner,
	})

	sd := service.Deps{Artifacts: files, Validator: az, Provisioner: az}
	if o.GitHubRepo != "" {
		ghc, err := github.NewClient(github.Options{
			Repo:    o.GitHubRepo,
			Token:   o.GitHubToken,
			BaseURL: o.GitHubAPIURL,
			Timeout: o.GitHubTimeout,
		})
		if err != nil {
			panic(fmt.Errorf("templates: github: %w", err))
		}
		sd.Links = ghc
	}

	var ledger *repo.Ledger
	if deps.HasLedger() {
		ledger = repo.NewLedger(deps.PG, o.LedgerTimeout)
		sd.Ledger = ledger
	}

	svc := service.New(service.Config{
		ResourceGroupPrefix: o.ResourceGroupPrefix,
		GitHubRepo:          o.GitHubRepo,
		Params: params.Config{
			SSHKeyIndicator:   o.SSHKeyIndicator,
			SSHPublicKey:      o.SSHPublicKey,
			PasswordIndicator: o.PasswordIndicator,
		},
		DeleteTimeout: o.DeleteTimeout,
	}, sd)

	m := &Module{
		b:      b,
		opts:   o,
		svc:    svc,
		az:     az,
		files:  files,
		ledger: ledger,
	}
	m.ports = Ports{Service: svc, Lifecycle: m, Checks: m.Checks()}

	swaggerkit.Register(func(spec map[string]any) {
		spec["x-keepalive-interval"] = o.KeepAlive.String()
	})
	return m
}

// Start signs the CLI in and makes sure the ledger table exists, concurrently
func (m *Module) Start(ctx context.Context) error {
	log := logger.Named("templates")
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return m.az.Login(gctx) })
	if m.ledger != nil {
		g.Go(func() error { return m.ledger.EnsureSchema(gctx) })
	}
	if err := g.Wait(); err != nil {
		return err
	}
	log.Info().
		Str("artifact_dir", m.files.Dir()).
		Str("github_repo", m.opts.GitHubRepo).
		Bool("ledger", m.ledger != nil).
		Dur("keepalive", m.opts.KeepAlive).
		Msg("templates module started")
	return nil
}

// Drain waits for running deployments and their resource group deletions
func (m *Module) Drain(ctx context.Context) error { return m.svc.Wait(ctx) }

// Checks are the readiness probes this module contributes to /meta/ready
func (m *Module) Checks() []metahttp.Check {
	return []metahttp.Check{
		{Name: "az", Probe: func(context.Context) error {
			_, err := exec.LookPath(m.opts.AzureBin)
			return err
		}},
		{Name: "artifacts", Probe: func(context.Context) error {
			fi, err := os.Stat(m.files.Dir())
			if err != nil {
				return err
			}
			if !fi.IsDir() {
				return fmt.Errorf("%s is not a directory", m.files.Dir())
			}
			return nil
		}},
	}
}

// MountRoutes mounts the module routes on the given router
func (m *Module) MountRoutes(r httpkit.Router) {
	m.b.Mount(r, func(rr httpkit.Router) {
		tplhttp.Register(rr, m.svc, tplhttp.Config{MaxBodyBytes: m.opts.MaxBodyBytes, KeepAlive: m.opts.KeepAlive})
	})
}

// Name is the module name
func (m *Module) Name() string { return str.MustString(m.b.Name, "module name") }

// Prefix is the module route prefix; "/" means the router root
func (m *Module) Prefix() string {
	if m.b.Prefix == "" || m.b.Prefix == "/" {
		return "/"
	}
	return str.MustPrefix(m.b.Prefix)
}

// Ports returns the module ports
func (m *Module) Ports() any { return m.ports }

var (
	_ domain.ServicePort = (*service.Svc)(nil)
	_ modkit.Lifecycle   = (*Module)(nil)
)
