package gitlab

import (
	"context"
	"fmt"

	"github.com/maxbolgarin/errm"
	"github.com/maxbolgarin/logze/v2"
	"github.com/vulnbench/vulnbench/internal/model"
	gitlab "gitlab.com/gitlab-org/api/client-go"
)

const defaultBaseURL = "https://gitlab.com"

var _ model.ChangeRequestLookup = (*Lookup)(nil)

// Config represents GitLab lookup configuration
type Config struct {
	BaseURL string
	Token   string
	Project string // path with namespace or numeric id
}

// Lookup resolves the merge request that introduced a commit via the GitLab API.
type Lookup struct {
	client  *gitlab.Client
	project string
	log     logze.Logger
}

// New creates a new GitLab change-request lookup
func New(cfg Config) (*Lookup, error) {
	if cfg.Token == "" {
		return nil, errm.New("GitLab token is required")
	}

	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = defaultBaseURL
	}

	client, err := gitlab.NewClient(cfg.Token, gitlab.WithBaseURL(baseURL))
	if err != nil {
		return nil, errm.Wrap(err, "failed to create GitLab client")
	}

	return &Lookup{
		client:  client,
		project: cfg.Project,
		log:     logze.With("provider", "gitlab", "component", "changereq"),
	}, nil
}

// FindForCommit returns "MR-<iid>" for the first merge request containing
// the commit, or "" when the commit reached the branch without one.
func (l *Lookup) FindForCommit(ctx context.Context, commitHash string) (string, error) {
	mrs, _, err := l.client.Commits.ListMergeRequestsByCommit(l.project, commitHash, gitlab.WithContext(ctx))
	if err != nil {
		return "", errm.Wrap(err, "list merge requests for commit")
	}
	if len(mrs) == 0 {
		return "", nil
	}

	return fmt.Sprintf("MR-%d", mrs[0].IID), nil
}
