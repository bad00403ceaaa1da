package bench

import (
	"fmt"

	"github.com/vulnbench/vulnbench/internal/model"
)

// Engine scores one detection against one ground-truth record. It is
// stateless: classifying the same pair always yields the same verdict, and
// it never looks at which detector produced the detection.
type Engine struct{}

// Classify produces the verdict for one (record, detection) pair.
//
// Precedence: an inconclusive detection is SKIPPED regardless of any
// findings it carries; otherwise a finding matching the expected CWE makes
// a true positive; otherwise any finding at all makes a false positive,
// with the first reported finding as representative; no findings is a miss.
func (Engine) Classify(record model.GroundTruthRecord, detection model.Detection) model.Verdict {
	verdict := model.Verdict{
		VulnerabilityID:    record.VulnerabilityID,
		FilePath:           record.FilePath,
		CWEID:              record.CWEID,
		FixCommitHash:      record.FixCommitHash,
		OriginalCommitHash: record.OriginalCommitHash,
		VulnerabilityType:  record.VulnerabilityType,
	}

	if detection.Inconclusive {
		verdict.Result = model.VerdictSkipped
		verdict.Rationale = "analysis inconclusive: " + detection.Cause
		return verdict
	}

	for _, finding := range detection.Findings {
		if model.CWEEqual(record.CWEID, finding.CWEID) {
			verdict.Result = model.VerdictTruePositive
			verdict.Rationale = fmt.Sprintf("detector reported %s in %s, matching ground truth",
				record.CWEID, record.FilePath)
			verdict.DetectedLines = finding.Lines
			return verdict
		}
	}

	if len(detection.Findings) > 0 {
		first := detection.Findings[0]
		verdict.Result = model.VerdictFalsePositive
		verdict.Rationale = fmt.Sprintf("detector reported %s, expected %s",
			reportedCWE(first), record.CWEID)
		verdict.DetectedLines = first.Lines
		return verdict
	}

	verdict.Result = model.VerdictFalseNegative
	verdict.Rationale = fmt.Sprintf("detector reported no findings for %s in %s",
		record.CWEID, record.FilePath)
	return verdict
}

func reportedCWE(f model.Finding) string {
	if f.CWEID == "" {
		return "an unclassified issue"
	}
	return f.CWEID
}
