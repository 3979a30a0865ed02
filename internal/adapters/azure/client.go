// Package azure drives ARM validation and test deployments through the az CLI
package azure

import (
	"bytes"
	"context"
	"os/exec"
	"slices"
	"strings"
	"time"

	"armvalidator/internal/platform/artifact"
	perr "armvalidator/internal/platform/errors"
	"armvalidator/internal/platform/logger"
)

const (
	defaultBin      = "az"
	defaultLocation = "westus"
)

// Runner executes one command and returns what it wrote to stdout and stderr
type Runner func(ctx context.Context, bin string, args ...string) (stdout, stderr []byte, err error)

// ExecRunner runs bin through os/exec
func ExecRunner(ctx context.Context, bin string, args ...string) ([]byte, []byte, error) {
	cmd := exec.CommandContext(ctx, bin, args...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	err := cmd.Run()
	return stdout.Bytes(), stderr.Bytes(), err
}

// Options configures the Client
type Options struct {
	// Bin is the az executable, "az" when empty
	Bin string
	// Subscription is appended as --subscription when set
	Subscription string
	// ValidationGroup is the existing resource group validations run against
	ValidationGroup string
	// Location for test resource groups
	Location string

	// service principal login, all three or none
	TenantID     string
	ClientID     string
	ClientSecret string

	Runner Runner
}

// Client implements template validation, test deployment and group deletion.
// No call is retried
type Client struct {
	o   Options
	run Runner
	log *logger.Logger
}

// NewClient fills defaults; it never touches the CLI
func NewClient(o Options) *Client {
	if o.Bin == "" {
		o.Bin = defaultBin
	}
	if o.Location == "" {
		o.Location = defaultLocation
	}
	run := o.Runner
	if run == nil {
		run = ExecRunner
	}
	return &Client{o: o, run: run, log: logger.Named("azure")}
}

// Login signs the CLI in with the configured service principal. Without
// credentials it is a no-op and the ambient az login is used
func (c *Client) Login(ctx context.Context) error {
	if c.o.TenantID == "" || c.o.ClientID == "" || c.o.ClientSecret == "" {
		return nil
	}
	c.log.Info().Str("client_id", c.o.ClientID).Msg("az login with service principal")
	_, err := c.exec(ctx, "login",
		"--service-principal",
		"--username", c.o.ClientID,
		"--password", c.o.ClientSecret,
		"--tenant", c.o.TenantID,
		"--output", "none",
	)
	return err
}

// ValidateTemplate asks ARM whether the template and parameters would deploy
// into the validation resource group
func (c *Client) ValidateTemplate(ctx context.Context, h artifact.Handle) error {
	if c.o.ValidationGroup == "" {
		return perr.InvalidArgf("validation resource group is not configured")
	}
	_, err := c.exec(ctx, "deployment", "group", "validate",
		"--resource-group", c.o.ValidationGroup,
		"--template-file", h.TemplatePath,
		"--parameters", "@"+h.ParametersPath,
	)
	return err
}

// TestTemplate creates resource group rg and deploys the template into it,
// blocking until ARM reports a terminal state
func (c *Client) TestTemplate(ctx context.Context, h artifact.Handle, rg string) error {
	if _, err := c.exec(ctx, "group", "create",
		"--name", rg,
		"--location", c.o.Location,
		"--output", "none",
	); err != nil {
		return err
	}
	_, err := c.exec(ctx, "deployment", "group", "create",
		"--resource-group", rg,
		"--template-file", h.TemplatePath,
		"--parameters", "@"+h.ParametersPath,
		"--output", "none",
	)
	return err
}

// DeleteGroup deletes rg and everything in it
func (c *Client) DeleteGroup(ctx context.Context, rg string) error {
	_, err := c.exec(ctx, "group", "delete", "--name", rg, "--yes")
	return err
}

// exec runs one az command. A failure becomes an External error whose message
// is the trimmed stderr of the command
func (c *Client) exec(ctx context.Context, args ...string) ([]byte, error) {
	if c.o.Subscription != "" && !hasFlag(args, "--subscription") {
		args = append(args, "--subscription", c.o.Subscription)
	}
	if !hasFlag(args, "--only-show-errors") {
		args = append(args, "--only-show-errors")
	}

	start := time.Now()
	stdout, stderr, err := c.run(ctx, c.o.Bin, args...)
	evt := c.log.Debug().Str("cmd", describe(args)).Dur("elapsed", time.Since(start))
	if err == nil {
		evt.Msg("az ok")
		return stdout, nil
	}

	msg := strings.TrimSpace(string(stderr))
	if msg == "" {
		msg = err.Error()
	}
	evt.Err(err).Msg("az failed")
	return stdout, perr.WithOp(perr.External(err, msg), args[0]+" "+args[1])
}

func hasFlag(args []string, flag string) bool {
	return slices.ContainsFunc(args, func(a string) bool {
		return a == flag || strings.HasPrefix(a, flag+"=")
	})
}

// describe renders a command for logs with secrets masked
func describe(args []string) string {
	out := make([]string, 0, len(args)+1)
	out = append(out, defaultBin)
	for i, a := range args {
		if i > 0 && args[i-1] == "--password" {
			a = "***"
		}
		out = append(out, a)
	}
	return strings.Join(out, " ")
}
