// Package origin resolves the historical commit that introduced the lines
// a security fix later remediated.
package origin

import (
	"context"

	"github.com/maxbolgarin/errm"
	"github.com/maxbolgarin/logze/v2"
	"github.com/vulnbench/vulnbench/internal/model"
)

// ErrNoOrigin is returned when none of the changed lines carry a prior
// history: every attributed line was introduced by the fix itself.
var ErrNoOrigin = errm.New("no origin commit for changed lines")

// Resolver resolves the origin commit of a file's soon-to-be-fixed lines by
// running line-level history attribution on the parent revision.
type Resolver struct {
	vcs      model.VersionControlProvider
	tieBreak TieBreakStrategy
	log      logze.Logger
}

// NewResolver creates a new origin resolver using the given tie-break strategy.
func NewResolver(vcs model.VersionControlProvider, tieBreak TieBreakStrategy) *Resolver {
	return &Resolver{
		vcs:      vcs,
		tieBreak: tieBreak,
		log:      logze.With("component", "origin"),
	}
}

// Resolve attributes the changed lines of path at the parent revision and
// selects the single origin commit. Lines attributed to the fixing commit
// itself are excluded: such a line did not exist before the fix and carries
// no prior origin. Returns ErrNoOrigin when the attributed set is empty.
func (r *Resolver) Resolve(ctx context.Context, fix model.FixingCommit, path string, lines *model.OrderedSet[int]) (model.OriginCommit, error) {
	if lines.IsEmpty() {
		return model.OriginCommit{}, ErrNoOrigin
	}

	attributions, err := r.vcs.Blame(ctx, fix.ParentHash, path, lines.Values())
	if err != nil {
		return model.OriginCommit{}, errm.Wrap(err, "blame parent revision")
	}

	candidates := model.NewOrderedSet[string]()
	for _, attr := range attributions {
		if attr.CommitHash == "" || attr.CommitHash == fix.Hash {
			continue
		}
		candidates.Add(attr.CommitHash)
	}

	if candidates.IsEmpty() {
		return model.OriginCommit{}, ErrNoOrigin
	}

	hash, err := r.tieBreak.Select(ctx, candidates.Values())
	if err != nil {
		return model.OriginCommit{}, errm.Wrap(err, "select origin among candidates")
	}

	if candidates.Len() > 1 {
		r.log.Debug("ambiguous attribution resolved",
			"file", path,
			"candidates", candidates.Len(),
			"strategy", r.tieBreak.Name(),
			"selected", hash,
		)
	}

	message, err := r.vcs.CommitMessage(ctx, hash)
	if err != nil {
		return model.OriginCommit{}, errm.Wrap(err, "read origin commit message")
	}

	return model.OriginCommit{Hash: hash, Message: message}, nil
}
