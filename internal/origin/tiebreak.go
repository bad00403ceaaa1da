package origin

import (
	"context"
	"sort"
	"time"

	"github.com/maxbolgarin/errm"
	"github.com/vulnbench/vulnbench/internal/model"
)

// TieBreakStrategy selects one representative commit when a changed-line set
// attributes to several distinct historical commits. Attribution sets with
// more than one member are common, and the chosen representative directly
// determines ground truth accuracy, so the policy is a named, pluggable
// decision instead of an incidental ordering effect. Every strategy must be
// deterministic for a given attribution set, independent of listing order.
type TieBreakStrategy interface {
	Name() string
	Select(ctx context.Context, candidates []string) (string, error)
}

const (
	// TieBreakEarliest selects the candidate with the earliest commit time,
	// falling back to ascending hash order among equal timestamps. This is
	// the default: the earliest attributed commit is the closest thing to
	// "the change that introduced the vulnerability".
	TieBreakEarliest = "earliest"

	// TieBreakLexical selects the lexically greatest commit hash. It carries
	// no chronological meaning and exists for reproducing older benchmark
	// runs that used it.
	TieBreakLexical = "lexical"
)

// CommitTimeSource provides commit timestamps for the earliest strategy.
type CommitTimeSource interface {
	CommitTime(ctx context.Context, hash string) (time.Time, error)
}

// NewTieBreak creates the named strategy.
func NewTieBreak(name string, times CommitTimeSource) (TieBreakStrategy, error) {
	switch name {
	case TieBreakEarliest, "":
		return &earliestTieBreak{times: times}, nil
	case TieBreakLexical:
		return &lexicalTieBreak{}, nil
	default:
		return nil, errm.Errorf("unknown tie-break strategy: %s", name)
	}
}

type earliestTieBreak struct {
	times CommitTimeSource
}

func (s *earliestTieBreak) Name() string { return TieBreakEarliest }

func (s *earliestTieBreak) Select(ctx context.Context, candidates []string) (string, error) {
	if len(candidates) == 0 {
		return "", errm.New("no candidates")
	}

	type dated struct {
		hash string
		when time.Time
	}
	commits := make([]dated, 0, len(candidates))
	for _, hash := range candidates {
		when, err := s.times.CommitTime(ctx, hash)
		if err != nil {
			return "", errm.Wrap(err, "resolve commit time")
		}
		commits = append(commits, dated{hash: hash, when: when})
	}

	sort.Slice(commits, func(i, j int) bool {
		if !commits[i].when.Equal(commits[j].when) {
			return commits[i].when.Before(commits[j].when)
		}
		return commits[i].hash < commits[j].hash
	})

	return commits[0].hash, nil
}

type lexicalTieBreak struct{}

func (s *lexicalTieBreak) Name() string { return TieBreakLexical }

func (s *lexicalTieBreak) Select(_ context.Context, candidates []string) (string, error) {
	if len(candidates) == 0 {
		return "", errm.New("no candidates")
	}
	max := candidates[0]
	for _, hash := range candidates[1:] {
		if hash > max {
			max = hash
		}
	}
	return max, nil
}

var _ TieBreakStrategy = (*earliestTieBreak)(nil)
var _ TieBreakStrategy = (*lexicalTieBreak)(nil)
var _ CommitTimeSource = (model.VersionControlProvider)(nil)
