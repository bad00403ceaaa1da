package github

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/go-github/v57/github"
	"github.com/maxbolgarin/errm"
	"github.com/maxbolgarin/logze/v2"
	"github.com/vulnbench/vulnbench/internal/model"
	"golang.org/x/oauth2"
)

const defaultBaseURL = "https://api.github.com"

var _ model.ChangeRequestLookup = (*Lookup)(nil)

// Config represents GitHub lookup configuration
type Config struct {
	BaseURL string
	Token   string
	Project string // owner/repo
}

// Lookup resolves the pull request that introduced a commit via the GitHub API.
type Lookup struct {
	client *github.Client
	owner  string
	repo   string
	log    logze.Logger
}

// New creates a new GitHub change-request lookup
func New(cfg Config) (*Lookup, error) {
	if cfg.Token == "" {
		return nil, errm.New("GitHub token is required")
	}

	parts := strings.SplitN(cfg.Project, "/", 2)
	if len(parts) != 2 {
		return nil, errm.Errorf("invalid GitHub project: %s", cfg.Project)
	}

	// Create OAuth2 token source
	ts := oauth2.StaticTokenSource(
		&oauth2.Token{AccessToken: cfg.Token},
	)
	tc := oauth2.NewClient(context.Background(), ts)

	client := github.NewClient(tc)

	// Set base URL if provided (for GitHub Enterprise)
	if cfg.BaseURL != "" && cfg.BaseURL != defaultBaseURL {
		var err error
		client, err = github.NewClient(tc).WithEnterpriseURLs(cfg.BaseURL, cfg.BaseURL)
		if err != nil {
			return nil, errm.Wrap(err, "failed to create GitHub Enterprise client")
		}
	}

	return &Lookup{
		client: client,
		owner:  parts[0],
		repo:   parts[1],
		log:    logze.With("provider", "github", "component", "changereq"),
	}, nil
}

// FindForCommit returns "PR-<number>" for the first pull request containing
// the commit, or "" when the commit reached the branch without one.
func (l *Lookup) FindForCommit(ctx context.Context, commitHash string) (string, error) {
	prs, _, err := l.client.PullRequests.ListPullRequestsWithCommit(ctx, l.owner, l.repo, commitHash, &github.ListOptions{PerPage: 1})
	if err != nil {
		return "", errm.Wrap(err, "list pull requests for commit")
	}
	if len(prs) == 0 {
		return "", nil
	}

	return fmt.Sprintf("PR-%d", prs[0].GetNumber()), nil
}
