package bench_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/vulnbench/vulnbench/internal/bench"
	"github.com/vulnbench/vulnbench/internal/model"
)

var record = model.GroundTruthRecord{
	VulnerabilityID:    "PR-7",
	FilePath:           "db.go",
	CWEID:              "CWE-89",
	FixCommitHash:      "f1x0000",
	OriginalCommitHash: "abc123",
	VulnerabilityType:  "sql_injection",
}

func TestClassifyTruePositive(t *testing.T) {
	var engine bench.Engine

	verdict := engine.Classify(record, model.Detection{Findings: []model.Finding{
		{CWEID: "CWE-89", FilePath: "db.go", Lines: []int{40, 45}},
	}})

	assert.Equal(t, model.VerdictTruePositive, verdict.Result)
	assert.Equal(t, []int{40, 45}, verdict.DetectedLines)
	assert.Equal(t, record.VulnerabilityID, verdict.VulnerabilityID)
	assert.Contains(t, verdict.Rationale, "CWE-89")
}

func TestClassifyMatchesNormalizedCWE(t *testing.T) {
	var engine bench.Engine

	// detector reports the bare numeric form
	verdict := engine.Classify(record, model.Detection{Findings: []model.Finding{
		{CWEID: "89", Lines: []int{40}},
	}})

	assert.Equal(t, model.VerdictTruePositive, verdict.Result)
}

func TestClassifyMatchAnywhereInFindings(t *testing.T) {
	var engine bench.Engine

	verdict := engine.Classify(record, model.Detection{Findings: []model.Finding{
		{CWEID: "CWE-20", Lines: []int{1}},
		{CWEID: "CWE-89", Lines: []int{42}},
	}})

	assert.Equal(t, model.VerdictTruePositive, verdict.Result)
	assert.Equal(t, []int{42}, verdict.DetectedLines)
}

func TestClassifyFalsePositiveCitesFirstFinding(t *testing.T) {
	var engine bench.Engine

	verdict := engine.Classify(record, model.Detection{Findings: []model.Finding{
		{CWEID: "CWE-79", Lines: []int{12}},
		{CWEID: "CWE-20", Lines: []int{30}},
	}})

	assert.Equal(t, model.VerdictFalsePositive, verdict.Result)
	assert.Equal(t, []int{12}, verdict.DetectedLines)
	assert.Contains(t, verdict.Rationale, "CWE-79", "rationale cites what was reported")
	assert.Contains(t, verdict.Rationale, "CWE-89", "rationale cites what was expected")
}

func TestClassifyFalseNegative(t *testing.T) {
	var engine bench.Engine

	verdict := engine.Classify(record, model.Detection{})

	assert.Equal(t, model.VerdictFalseNegative, verdict.Result)
	assert.Contains(t, verdict.Rationale, "CWE-89")
	assert.Contains(t, verdict.Rationale, "db.go")
}

func TestClassifySkippedBeatsEverything(t *testing.T) {
	var engine bench.Engine

	// even a matching finding does not rescue an inconclusive detection
	verdict := engine.Classify(record, model.Detection{
		Inconclusive: true,
		Cause:        "model resource limit",
		Findings:     []model.Finding{{CWEID: "CWE-89", Lines: []int{40}}},
	})

	assert.Equal(t, model.VerdictSkipped, verdict.Result)
	assert.Contains(t, verdict.Rationale, "model resource limit")
	assert.Empty(t, verdict.DetectedLines)
}

func TestClassifyIsIdempotent(t *testing.T) {
	var engine bench.Engine

	detection := model.Detection{Findings: []model.Finding{{CWEID: "CWE-79", Lines: []int{12}}}}

	first := engine.Classify(record, detection)
	second := engine.Classify(record, detection)

	assert.Equal(t, first, second)
}
