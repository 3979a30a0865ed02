package domain

import (
	"context"
	"encoding/json"

	"armvalidator/internal/platform/artifact"
)

// Validator checks a written template against ARM without deploying it
type Validator interface {
	ValidateTemplate(ctx context.Context, h artifact.Handle) error
}

// Provisioner runs a test deployment into a fresh resource group and removes it
type Provisioner interface {
	TestTemplate(ctx context.Context, h artifact.Handle, rg string) error
	DeleteGroup(ctx context.Context, rg string) error
}

// LinkResolver maps a pull request to its raw content base link
type LinkResolver interface {
	PullRequestBaseLink(ctx context.Context, pr int) (string, error)
}

// Artifacts owns the per request files
type Artifacts interface {
	NewHandle() artifact.Handle
	Write(h artifact.Handle, template json.RawMessage, parameters any) error
	Cleanup(ctx context.Context, h artifact.Handle)
}

// Responder delivers the single terminal payload of a deployment
type Responder interface {
	Terminate(payload any) error
}

// Ledger stores run history. Optional
type Ledger interface {
	Record(ctx context.Context, run Run) error
	Recent(ctx context.Context, limit int) ([]Run, error)
}

// ServicePort is the templates service contract
type ServicePort interface {
	Validate(ctx context.Context, in ValidationRequest) error
	Deploy(ctx context.Context, in DeploymentRequest, out Responder) Outcome
	Runs(ctx context.Context, limit int) ([]Run, error)
}
