// Package publish delivers approved issue drafts to GitHub.
package publish

import (
	"context"
	"fmt"
	"unicode/utf8"

	"github.com/ghosthub/ghosthub/internal/models"
	"github.com/google/go-github/v68/github"
	"golang.org/x/oauth2"
)

// maxTitleLen is GitHub's practical issue title limit.
const maxTitleLen = 256

// issuesService abstracts the go-github issues API, enabling test mocks.
type issuesService interface {
	Create(ctx context.Context, owner, repo string, issue *github.IssueRequest) (*github.Issue, *github.Response, error)
}

// GitHub publishes issue drafts to one repository.
type GitHub struct {
	issues issuesService
	owner  string
	repo   string
}

// GitHubOpts holds parameters for creating a GitHub publisher.
type GitHubOpts struct {
	Owner string
	Repo  string
	Token string
	// Issues injects a mock issues API. For testing.
	Issues issuesService
}

// NewGitHub creates a GitHub publisher authenticated with a static token.
func NewGitHub(ctx context.Context, opts GitHubOpts) (*GitHub, error) {
	if opts.Owner == "" || opts.Repo == "" {
		return nil, fmt.Errorf("publish: github owner and repo are required")
	}

	g := &GitHub{owner: opts.Owner, repo: opts.Repo}
	if opts.Issues != nil {
		g.issues = opts.Issues
		return g, nil
	}

	if opts.Token == "" {
		return nil, fmt.Errorf("publish: github token is required")
	}
	ts := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: opts.Token})
	tc := oauth2.NewClient(ctx, ts)
	g.issues = github.NewClient(tc).Issues
	return g, nil
}

// Publish creates a GitHub issue from the draft and returns its URL. The
// sink does not retry; the caller surfaces errors to the user unchanged.
func (g *GitHub) Publish(ctx context.Context, draft *models.IssueDraft) (string, error) {
	if draft == nil {
		return "", fmt.Errorf("publish: draft is required")
	}
	labels, err := draft.LabelSet()
	if err != nil {
		return "", fmt.Errorf("publish: decode labels: %w", err)
	}

	title := draft.Title
	if utf8.RuneCountInString(title) > maxTitleLen {
		title = string([]rune(title)[:maxTitleLen])
	}

	req := &github.IssueRequest{
		Title:  github.Ptr(title),
		Body:   github.Ptr(draft.Description),
		Labels: &labels,
	}
	issue, _, err := g.issues.Create(ctx, g.owner, g.repo, req)
	if err != nil {
		return "", fmt.Errorf("publish: create issue: %w", err)
	}
	return issue.GetHTMLURL(), nil
}
