// Package github streams commit history from the GitHub REST API.
package github

import (
	"context"
	"errors"
	"fmt"
	"iter"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/go-github/v57/github"
	"github.com/huangsam/osshealth/internal/contract"
	"github.com/huangsam/osshealth/schema"
	"golang.org/x/time/rate"
)

// pageSize is the number of commits requested per API page.
const pageSize = 100

// Client wraps the GitHub API client with rate limiting and per-request timeouts.
type Client struct {
	client         *github.Client
	rateLimiter    *rate.Limiter
	requestTimeout time.Duration
}

var _ contract.CommitSource = &Client{} // Compile-time check

// Options configures a Client.
type Options struct {
	Token          string
	BaseURL        string        // API root, e.g. for GitHub Enterprise or tests
	RateLimit      float64       // requests per second, 0 disables pacing
	RequestTimeout time.Duration // 0 disables the per-request timeout
	HTTPClient     *http.Client
}

// NewClient creates a new GitHub client with rate limiting.
func NewClient(opts Options) (*Client, error) {
	client := github.NewClient(opts.HTTPClient)
	if opts.Token != "" {
		client = client.WithAuthToken(opts.Token)
	}
	if opts.BaseURL != "" {
		base, err := url.Parse(strings.TrimRight(opts.BaseURL, "/") + "/")
		if err != nil {
			return nil, fmt.Errorf("invalid GitHub base URL %q: %w", opts.BaseURL, err)
		}
		client.BaseURL = base
	}

	limit := rate.Inf
	if opts.RateLimit > 0 {
		limit = rate.Limit(opts.RateLimit)
	}

	return &Client{
		client:         client,
		rateLimiter:    rate.NewLimiter(limit, 1),
		requestTimeout: opts.RequestTimeout,
	}, nil
}

// Commits streams the commits of repo ("owner/name") reachable from branch,
// newest first. Pages are requested lazily as the consumer advances.
func (c *Client) Commits(ctx context.Context, repo, branch string) iter.Seq2[schema.Commit, error] {
	return func(yield func(schema.Commit, error) bool) {
		owner, name, ok := strings.Cut(repo, "/")
		if !ok || owner == "" || name == "" {
			yield(schema.Commit{}, fmt.Errorf("invalid repository %q", repo))
			return
		}

		opts := &github.CommitsListOptions{
			SHA:         branch,
			ListOptions: github.ListOptions{PerPage: pageSize},
		}
		for {
			commits, resp, err := c.listPage(ctx, owner, name, opts)
			if err != nil {
				yield(schema.Commit{}, c.classify(ctx, repo, branch, err))
				return
			}

			for _, commit := range commits {
				if !yield(toCommit(commit), nil) {
					return
				}
			}

			if resp.NextPage == 0 {
				return
			}
			opts.Page = resp.NextPage
		}
	}
}

// listPage fetches one page under the rate limiter and request timeout.
func (c *Client) listPage(ctx context.Context, owner, name string, opts *github.CommitsListOptions) ([]*github.RepositoryCommit, *github.Response, error) {
	if err := c.rateLimiter.Wait(ctx); err != nil {
		return nil, nil, fmt.Errorf("rate limiter: %w", err)
	}

	reqCtx := ctx
	if c.requestTimeout > 0 {
		var cancel context.CancelFunc
		reqCtx, cancel = context.WithTimeout(ctx, c.requestTimeout)
		defer cancel()
	}
	return c.client.Repositories.ListCommits(reqCtx, owner, name, opts)
}

// classify maps API failures onto the sentinel errors the builder understands.
func (c *Client) classify(ctx context.Context, repo, branch string, err error) error {
	// Caller cancellation is never a fetch timeout
	if ctxErr := ctx.Err(); ctxErr != nil {
		return ctxErr
	}

	var errResp *github.ErrorResponse
	if errors.As(err, &errResp) && errResp.Response != nil {
		switch errResp.Response.StatusCode {
		case http.StatusNotFound, http.StatusUnprocessableEntity:
			return fmt.Errorf("%s@%s: %w", repo, branch, schema.ErrBranchNotFound)
		case http.StatusConflict:
			// Empty repositories answer 409
			return fmt.Errorf("%s@%s is empty: %w", repo, branch, schema.ErrBranchNotFound)
		}
	}

	var netErr net.Error
	if errors.Is(err, context.DeadlineExceeded) || (errors.As(err, &netErr) && netErr.Timeout()) {
		return fmt.Errorf("%s@%s: %w: %v", repo, branch, schema.ErrFetchTimeout, err)
	}
	return fmt.Errorf("fetch commits for %s@%s: %w", repo, branch, err)
}

// toCommit converts an API commit. The committer date is preferred because
// it reflects when the commit landed on the branch.
func toCommit(commit *github.RepositoryCommit) schema.Commit {
	ts := commit.GetCommit().GetCommitter().GetDate().Time
	if ts.IsZero() {
		ts = commit.GetCommit().GetAuthor().GetDate().Time
	}

	author := schema.NoAuthor
	if login := commit.GetAuthor().GetLogin(); login != "" {
		author = login
	}
	return schema.Commit{SHA: commit.GetSHA(), Timestamp: ts.UTC(), Author: author}
}
