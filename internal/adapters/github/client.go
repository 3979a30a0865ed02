// Package github resolves pull request source branches to raw content links
// using the GitHub REST API
package github

import (
	"context"
	"net/http"
	"net/url"
	"strings"
	"time"

	perr "armvalidator/internal/platform/errors"
	"armvalidator/internal/platform/logger"

	gh "github.com/google/go-github/v57/github"
)

const (
	defaultTimeout = 10 * time.Second
	defaultUA      = "armvalidator"
	rawBase        = "https://raw.githubusercontent.com"
)

// Options configures the Client
type Options struct {
	// Repo is the owner/name of the repository pull requests are opened against
	Repo string
	// Token is optional; tokenless calls get a very low quota
	Token string
	// BaseURL points at a GitHub Enterprise API, e.g. https://ghe.example.com/api/v3/
	BaseURL   string
	UserAgent string
	Timeout   time.Duration
}

// Client looks up pull requests. It never retries: a failed lookup fails the deploy
type Client struct {
	gh    *gh.Client
	owner string
	name  string
	log   *logger.Logger
}

// NewClient builds a Client; it fails when Repo is not owner/name or BaseURL is invalid
func NewClient(o Options) (*Client, error) {
	owner, name, ok := splitRepo(o.Repo)
	if !ok {
		return nil, perr.InvalidArgf("github repo %q must be owner/name", o.Repo)
	}
	if o.Timeout <= 0 {
		o.Timeout = defaultTimeout
	}
	if o.UserAgent == "" {
		o.UserAgent = defaultUA
	}

	c := gh.NewClient(&http.Client{Timeout: o.Timeout})
	c.UserAgent = o.UserAgent
	if o.Token != "" {
		c = c.WithAuthToken(o.Token)
	}
	if o.BaseURL != "" {
		u, err := url.Parse(o.BaseURL)
		if err != nil || !u.IsAbs() {
			return nil, perr.InvalidArgf("github base url %q is not absolute", o.BaseURL)
		}
		if !strings.HasSuffix(u.Path, "/") {
			u.Path += "/"
		}
		c.BaseURL = u
	}

	return &Client{gh: c, owner: owner, name: name, log: logger.Named("github")}, nil
}

// PullRequestBaseLink returns https://raw.githubusercontent.com/<head repo>/<head branch>
// for pull request pr, so links follow forks as well as same-repo branches
func (c *Client) PullRequestBaseLink(ctx context.Context, pr int) (string, error) {
	start := time.Now()
	p, resp, err := c.gh.PullRequests.Get(ctx, c.owner, c.name, pr)
	c.logResponse(pr, resp, time.Since(start))
	if err != nil {
		return "", perr.LinkLookupf(err, "get pull request %d of %s/%s", pr, c.owner, c.name)
	}

	head := p.GetHead()
	fullName := head.GetRepo().GetFullName()
	ref := head.GetRef()
	if fullName == "" || ref == "" {
		// the head repository is gone when a fork was deleted
		return "", perr.LinkLookupf(nil, "pull request %d has no head repository or branch", pr)
	}
	return rawBase + "/" + fullName + "/" + ref, nil
}

func (c *Client) logResponse(pr int, resp *gh.Response, lat time.Duration) {
	evt := c.log.Debug().Int("pull_request", pr).Dur("latency", lat)
	if resp != nil {
		evt = evt.Int("status", resp.StatusCode).
			Int("rate_remaining", resp.Rate.Remaining).
			Time("rate_reset", resp.Rate.Reset.Time)
	}
	evt.Msg("github pull request lookup")
}

func splitRepo(repo string) (owner, name string, ok bool) {
	repo = strings.Trim(strings.TrimSpace(repo), "/")
	owner, name, ok = strings.Cut(repo, "/")
	if !ok || owner == "" || name == "" || strings.Contains(name, "/") {
		return "", "", false
	}
	return owner, name, true
}
