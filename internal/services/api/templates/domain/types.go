package domain

import (
	"bytes"
	"encoding/json"
	"time"
)

// OutcomeKind is the terminal state of one pipeline run
type OutcomeKind int

const (
	// Valid means the validator accepted the template
	Valid OutcomeKind = iota + 1
	// DeploymentSucceeded means the test deployment completed
	DeploymentSucceeded
	// Failed carries a reason and, for deployments, diagnostics
	Failed
)

func (k OutcomeKind) String() string {
	switch k {
	case Valid:
		return "valid"
	case DeploymentSucceeded:
		return "deployment_succeeded"
	case Failed:
		return "failed"
	}
	return "unknown"
}

// Diagnostics is what a failed deployment reports back
type Diagnostics struct {
	ResourceGroup string
	Parameters    json.RawMessage
	Template      json.RawMessage
}

// Outcome is the result of a pipeline run
type Outcome struct {
	Kind   OutcomeKind
	Err    error
	Reason string
	Diag   *Diagnostics
}

// Payload renders the outcome as the terminal response body
func (o Outcome) Payload() any {
	switch o.Kind {
	case Valid:
		return ResultBody{Result: ResultValid}
	case DeploymentSucceeded:
		return ResultBody{Result: ResultDeployed}
	}
	fb := FailureBody{Error: o.Reason}
	if o.Diag != nil {
		fb.ResourceGroup = o.Diag.ResourceGroup
		fb.Command = ReproCommand
		fb.Parameters = compactString(o.Diag.Parameters)
		fb.Template = compactString(o.Diag.Template)
	}
	return fb
}

// compactString mirrors JSON.stringify: compact text, or the raw bytes when
// they are not JSON at all
func compactString(raw json.RawMessage) string {
	if len(raw) == 0 {
		return ""
	}
	var buf bytes.Buffer
	if err := json.Compact(&buf, raw); err != nil {
		return string(raw)
	}
	return buf.String()
}

// RunKind names the route a run came from
type RunKind string

// RunStatus is the stored outcome of a run
type RunStatus string

const (
	RunValidate RunKind = "validate"
	RunDeploy   RunKind = "deploy"

	RunSucceeded RunStatus = "succeeded"
	RunFailed    RunStatus = "failed"
)

// Run is one ledger row
type Run struct {
	ID            string    `json:"id"                       example:"3f0c8f5e-8a7b-4d47-9e0c-1b6c2d1a9e11"`
	Kind          RunKind   `json:"kind"                     example:"deploy"`
	ResourceGroup string    `json:"resource_group,omitempty" example:"ci-3f0c8f5e"`
	PullRequest   int       `json:"pull_request,omitempty"   example:"1234"`
	Status        RunStatus `json:"status"                   example:"failed"`
	Error         string    `json:"error,omitempty"`
	StartedAt     time.Time `json:"started_at"`
	FinishedAt    time.Time `json:"finished_at"`
}

// RunsInput is the query of GET /runs
type RunsInput struct {
	Limit int `json:"limit,omitempty" validate:"omitempty,min=1,max=200" example:"50"`
}
