package detector

import (
	"context"
	"sync"

	"github.com/maxbolgarin/errm"
	"github.com/vulnbench/vulnbench/internal/model"
)

// StaticDetector runs the external static analyzer and maps its issues to
// the uniform Detection shape. The analyzer scans a whole checkout at once,
// so the detector scans each revision a single time and serves per-file
// targets from that scan.
type StaticDetector struct {
	scanner model.StaticAnalysisProvider
	vcs     model.VersionControlProvider
	norm    *Normalizer

	mu       sync.Mutex
	revision string
	byFile   map[string][]model.StaticIssue
}

// NewStaticDetector creates a static-analysis-backed detector.
func NewStaticDetector(scanner model.StaticAnalysisProvider, vcs model.VersionControlProvider, norm *Normalizer) *StaticDetector {
	return &StaticDetector{
		scanner: scanner,
		vcs:     vcs,
		norm:    norm,
	}
}

// Kind implements model.Detector.
func (d *StaticDetector) Kind() model.DetectorKind {
	return model.DetectorStatic
}

// Detect implements model.Detector. The first target at a revision checks
// the work tree out at that revision and triggers a full scan; subsequent
// targets at the same revision reuse the scan result.
func (d *StaticDetector) Detect(ctx context.Context, target model.DetectTarget) (model.Detection, error) {
	issues, err := d.issuesAt(ctx, target.Revision, target.FilePath)
	if err != nil {
		return model.Detection{}, err
	}

	return model.Detection{
		Findings: d.norm.FromStatic(ctx, target.FilePath, issues),
	}, nil
}

func (d *StaticDetector) issuesAt(ctx context.Context, revision, filePath string) ([]model.StaticIssue, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.revision != revision {
		if err := d.vcs.Checkout(ctx, revision); err != nil {
			return nil, errm.Wrap(err, "checkout revision", "revision", revision)
		}
		issues, err := d.scanner.Scan(ctx, revision)
		if err != nil {
			return nil, errm.Wrap(err, "scan revision", "revision", revision)
		}

		d.byFile = make(map[string][]model.StaticIssue, len(issues))
		for _, issue := range issues {
			path := ComponentPath(issue.FilePath)
			d.byFile[path] = append(d.byFile[path], issue)
		}
		d.revision = revision
	}

	return d.byFile[filePath], nil
}
