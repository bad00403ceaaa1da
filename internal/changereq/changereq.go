// Package changereq resolves the change request (pull/merge request) that
// introduced a commit on the hosting platform, supplying the human-meaningful
// vulnerability identifier for ground truth records.
package changereq

import (
	"context"

	"github.com/maxbolgarin/erro"
	"github.com/vulnbench/vulnbench/internal/changereq/github"
	"github.com/vulnbench/vulnbench/internal/changereq/gitlab"
	"github.com/vulnbench/vulnbench/internal/model"
)

// NewLookup creates a change-request lookup based on the configuration.
// Type "none" yields a lookup that resolves nothing: vulnerability ids are
// then always synthesized from origin commit hashes.
func NewLookup(cfg Config) (model.ChangeRequestLookup, error) {
	if err := cfg.PrepareAndValidate(); err != nil {
		return nil, erro.Wrap(err, "validate config")
	}

	switch cfg.Type {
	case GitHub:
		return github.New(github.Config{
			BaseURL: cfg.BaseURL,
			Token:   cfg.Token,
			Project: cfg.Project,
		})
	case GitLab:
		return gitlab.New(gitlab.Config{
			BaseURL: cfg.BaseURL,
			Token:   cfg.Token,
			Project: cfg.Project,
		})
	case None:
		return noopLookup{}, nil
	default:
		return nil, erro.New("unsupported change request provider type: %s", cfg.Type)
	}
}

type noopLookup struct{}

func (noopLookup) FindForCommit(_ context.Context, _ string) (string, error) {
	return "", nil
}
