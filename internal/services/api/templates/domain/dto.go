// Package domain holds the template validation and deployment contracts
package domain

import (
	"bytes"
	"encoding/json"
	"strconv"
	"strings"

	"armvalidator/internal/core/params"
	perr "armvalidator/internal/platform/errors"
)

const (
	// ResultValid is the success body text of a validation
	ResultValid = "Template Valid"
	// ResultDeployed is the success body text of a deployment
	ResultDeployed = "Deployment Successful"

	// ReproCommand tells the caller how to rerun a failed deployment by hand
	ReproCommand = "az deployment group create --resource-group (your_group_name) " +
		"--template-file azuredeploy.json --parameters @azuredeploy.parameters.json"
)

// ValidationRequest is the body of POST /validate. Parameters are passed to
// the validator untouched
type ValidationRequest struct {
	Template   json.RawMessage `json:"template"   validate:"required,json_object" swaggertype:"object"`
	Parameters json.RawMessage `json:"parameters" validate:"required,json_object" swaggertype:"object"`
}

// DeploymentRequest is the body of POST /deploy
type DeploymentRequest struct {
	Template    json.RawMessage  `json:"template"     validate:"required,json_object" swaggertype:"object"`
	Parameters  *params.Document `json:"parameters"   validate:"required"`
	PullRequest PullRequest      `json:"pull_request,omitempty" example:"1234"`
}

// PullRequest is a pull request number. It decodes from a JSON number or a
// numeric string; 0, "" and null mean no pull request
type PullRequest int

// Present reports whether a pull request was given
func (p PullRequest) Present() bool { return p > 0 }

// UnmarshalJSON accepts 42, "42", "", null
func (p *PullRequest) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if bytes.Equal(b, []byte("null")) {
		*p = 0
		return nil
	}
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		b = []byte(strings.TrimSpace(s))
		if len(b) == 0 {
			*p = 0
			return nil
		}
	}
	n, err := strconv.Atoi(string(b))
	if err != nil || n < 0 {
		return perr.Newf(perr.ErrorCodeValidation, "pull_request must be a positive number, got %s", b)
	}
	*p = PullRequest(n)
	return nil
}

// ResultBody is the success shape of both routes
type ResultBody struct {
	Result string `json:"result" example:"Deployment Successful"`
}

// FailureBody is the terminal payload of a failed deployment. Parameters and
// Template are JSON encoded strings of what was actually submitted
type FailureBody struct {
	Error         string `json:"error"      example:"InvalidTemplateDeployment: ..."`
	ResourceGroup string `json:"_rgName"    example:"ci-4b1c..."`
	Command       string `json:"command"`
	Parameters    string `json:"parameters"`
	Template      string `json:"template"`
}
