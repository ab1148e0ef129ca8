// Package ghclient wraps go-github for the CI scripts and for testing.
package ghclient

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"

	"github.com/google/go-github/github"
	"golang.org/x/oauth2"
	"k8s.io/klog/v2"
)

// TokenEnv is the environment variable holding the GitHub token.
const TokenEnv = "GITHUB_TOKEN"

// These are possible State entries for a Status.
const (
	Pending = "pending"
	Success = "success"
	Error   = "error"
	Failure = "failure"
)

// Status is used to set a commit status line.
type Status struct {
	State       string
	TargetURL   string
	Description string
	Context     string
}

// Validate checks the status state.
func (s Status) Validate() error {
	switch s.State {
	case Pending, Success, Error, Failure:
		return nil
	default:
		return fmt.Errorf("invalid status state %q (must be one of %s, %s, %s, %s)", s.State, Pending, Success, Error, Failure)
	}
}

// PullRequest is an open pull request with the data needed to judge it.
type PullRequest struct {
	*github.PullRequest
	Labels  []*github.Label
	Reviews []*github.PullRequestReview
}

type Client struct {
	cl  *github.Client
	dry bool
}

// NewClient creates a new fully operational GitHub client.
func NewClient(httpClient *http.Client) *Client {
	return &Client{cl: github.NewClient(httpClient)}
}

// NewDryRunClient creates a new client that will not perform mutating actions
// such as setting statuses, but it will still query GitHub.
func NewDryRunClient(httpClient *http.Client) *Client {
	return &Client{cl: github.NewClient(httpClient), dry: true}
}

// NewFromEnv creates a client authenticated with the token in GITHUB_TOKEN.
func NewFromEnv(ctx context.Context, dry bool) (*Client, error) {
	token := os.Getenv(TokenEnv)
	if len(token) == 0 {
		return nil, errors.New(":-( I need you to set GITHUB_TOKEN env variable in order to be able to talk to Github")
	}
	httpClient := oauth2.NewClient(ctx, oauth2.StaticTokenSource(&oauth2.Token{AccessToken: token}))
	if dry {
		return NewDryRunClient(httpClient), nil
	}
	return NewClient(httpClient), nil
}

func logRateLimit(desc string, resp *github.Response) {
	if resp == nil {
		return
	}
	klog.V(4).Infof("GitHub API Tokens: %d/%d (resets at %v) (%s)", resp.Remaining, resp.Limit, resp.Reset, desc)
}

// CreateStatus creates or updates the status of a commit.
func (c *Client) CreateStatus(ctx context.Context, owner, repo, ref string, s Status) error {
	if err := s.Validate(); err != nil {
		return err
	}
	if c.dry {
		klog.Infof("Dry run: would set %s status %q on %s/%s@%s", s.Context, s.State, owner, repo, ref)
		return nil
	}
	_, resp, err := c.cl.Repositories.CreateStatus(ctx, owner, repo, ref, &github.RepoStatus{
		State:       github.String(s.State),
		TargetURL:   github.String(s.TargetURL),
		Description: github.String(s.Description),
		Context:     github.String(s.Context),
	})
	if err != nil {
		return err
	}
	logRateLimit("CreateStatus", resp)
	return nil
}

// ListOpenPullRequests lists the open pull requests of a repository together
// with their labels and reviews.
func (c *Client) ListOpenPullRequests(ctx context.Context, owner, repo string) ([]PullRequest, error) {
	var pulls []*github.PullRequest
	opts := &github.PullRequestListOptions{State: "open", ListOptions: github.ListOptions{PerPage: 100}}
	for {
		page, resp, err := c.cl.PullRequests.List(ctx, owner, repo, opts)
		if err != nil {
			return nil, err
		}
		logRateLimit("ListPullRequests", resp)
		pulls = append(pulls, page...)
		if resp.NextPage == 0 {
			break
		}
		opts.Page = resp.NextPage
	}

	result := make([]PullRequest, 0, len(pulls))
	for _, pr := range pulls {
		labels, err := c.listLabels(ctx, owner, repo, pr.GetNumber())
		if err != nil {
			return nil, fmt.Errorf("unable to list labels of %s/%s#%d: %w", owner, repo, pr.GetNumber(), err)
		}
		reviews, err := c.listReviews(ctx, owner, repo, pr.GetNumber())
		if err != nil {
			return nil, fmt.Errorf("unable to list reviews of %s/%s#%d: %w", owner, repo, pr.GetNumber(), err)
		}
		result = append(result, PullRequest{PullRequest: pr, Labels: labels, Reviews: reviews})
	}
	return result, nil
}

func (c *Client) listLabels(ctx context.Context, owner, repo string, number int) ([]*github.Label, error) {
	var labels []*github.Label
	opts := &github.ListOptions{PerPage: 100}
	for {
		page, resp, err := c.cl.Issues.ListLabelsByIssue(ctx, owner, repo, number, opts)
		if err != nil {
			return nil, err
		}
		logRateLimit("ListLabelsByIssue", resp)
		labels = append(labels, page...)
		if resp.NextPage == 0 {
			return labels, nil
		}
		opts.Page = resp.NextPage
	}
}

func (c *Client) listReviews(ctx context.Context, owner, repo string, number int) ([]*github.PullRequestReview, error) {
	var reviews []*github.PullRequestReview
	opts := &github.ListOptions{PerPage: 100}
	for {
		page, resp, err := c.cl.PullRequests.ListReviews(ctx, owner, repo, number, opts)
		if err != nil {
			return nil, err
		}
		logRateLimit("ListReviews", resp)
		reviews = append(reviews, page...)
		if resp.NextPage == 0 {
			return reviews, nil
		}
		opts.Page = resp.NextPage
	}
}
