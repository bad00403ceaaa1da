package bench

import (
	"context"
	"errors"

	"github.com/maxbolgarin/abstract"
	"github.com/maxbolgarin/errm"
	"github.com/maxbolgarin/lang"
	"github.com/maxbolgarin/logze/v2"

	"github.com/vulnbench/vulnbench/internal/diffscan"
	"github.com/vulnbench/vulnbench/internal/groundtruth"
	"github.com/vulnbench/vulnbench/internal/model"
	"github.com/vulnbench/vulnbench/internal/origin"
)

// ExtractReport summarizes one extraction run.
type ExtractReport struct {
	CommitsScanned int
	FixesFound     int
	Records        int
}

// Extractor walks repository history, finds security-fixing commits and
// materializes ground-truth records from them. Failures on a single commit
// or file are logged and skipped, never fatal: one unreadable unit must not
// abort mining the rest of the history.
type Extractor struct {
	vcs        model.VersionControlProvider
	classifier model.SecurityMessageClassifier
	diff       *diffscan.Analyzer
	origins    *origin.Resolver
	builder    *groundtruth.Builder
	log        logze.Logger
}

// NewExtractor creates an extractor.
func NewExtractor(
	vcs model.VersionControlProvider,
	classifier model.SecurityMessageClassifier,
	diff *diffscan.Analyzer,
	origins *origin.Resolver,
	builder *groundtruth.Builder,
) *Extractor {
	return &Extractor{
		vcs:        vcs,
		classifier: classifier,
		diff:       diff,
		origins:    origins,
		builder:    builder,
		log:        logze.With("component", "extractor"),
	}
}

// Run walks the history newest first, capped at limit when limit > 0, and
// builds ground truth for every commit classified as a security fix.
func (e *Extractor) Run(ctx context.Context, limit int) (ExtractReport, error) {
	timer := abstract.StartTimer()

	commits, err := e.vcs.Log(ctx, limit)
	if err != nil {
		return ExtractReport{}, errm.Wrap(err, "read commit log")
	}

	report := ExtractReport{CommitsScanned: len(commits)}
	for _, commit := range commits {
		records, err := e.processCommit(ctx, commit)
		if err != nil {
			e.log.Err(err, "commit skipped", "commit", lang.TruncateString(commit.Hash, 8))
			continue
		}
		if records > 0 {
			report.FixesFound++
			report.Records += records
		}
	}

	e.log.Info("extraction finished",
		"commits", report.CommitsScanned,
		"fixes", report.FixesFound,
		"records", report.Records,
		"elapsed", timer.ElapsedTime().String(),
	)

	return report, nil
}

// processCommit classifies one commit and, for a security fix, resolves the
// origin of every remediated file and builds its records. Returns how many
// records it produced.
func (e *Extractor) processCommit(ctx context.Context, commit model.FixingCommit) (int, error) {
	cls, err := e.classifier.Classify(ctx, commit.Message)
	if err != nil {
		return 0, errm.Wrap(err, "classify commit message")
	}
	if !cls.SecurityRelated || len(cls.CWEIDs) == 0 {
		return 0, nil
	}

	log := e.log.WithFields("commit", lang.TruncateString(commit.Hash, 8))
	log.Debug("security fix found", "cwes", cls.CWEIDs)

	files, err := e.vcs.ChangedFiles(ctx, commit.Hash, commit.ParentHash)
	if err != nil {
		return 0, errm.Wrap(err, "list changed files")
	}

	origins := make(map[string]model.OriginCommit, len(files))
	for _, file := range files {
		originCommit, ok := e.resolveFile(ctx, commit, file, log)
		if ok {
			origins[file] = originCommit
		}
	}
	if len(origins) == 0 {
		log.Debug("no file with a resolvable origin, skipping fix")
		return 0, nil
	}

	records, err := e.builder.Build(ctx, commit, cls, origins)
	if err != nil {
		return 0, errm.Wrap(err, "build ground truth")
	}
	return len(records), nil
}

// resolveFile finds the added lines of one file in the fix and blames them
// at the pre-fix state. A file without added lines or without a resolvable
// origin is skipped.
func (e *Extractor) resolveFile(ctx context.Context, commit model.FixingCommit, file string, log logze.Logger) (model.OriginCommit, bool) {
	diff, err := e.vcs.Diff(ctx, commit.Hash, commit.ParentHash, file)
	if err != nil {
		log.Err(err, "file skipped: diff failed", "file", file)
		return model.OriginCommit{}, false
	}

	lines := e.diff.AddedLines(diff)
	if lines.IsEmpty() {
		return model.OriginCommit{}, false
	}

	originCommit, err := e.origins.Resolve(ctx, commit, file, lines)
	if err != nil {
		if errors.Is(err, origin.ErrNoOrigin) {
			log.Debug("file skipped: no origin beyond the fix itself", "file", file)
		} else {
			log.Err(err, "file skipped: origin resolution failed", "file", file)
		}
		return model.OriginCommit{}, false
	}

	return originCommit, true
}
