package store_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vulnbench/vulnbench/internal/model"
	"github.com/vulnbench/vulnbench/internal/store"
)

func newTestStore(t *testing.T) *store.SQLite {
	t.Helper()
	db, err := store.New(t.Context(), ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

func testRecord(file, cwe string) model.GroundTruthRecord {
	return model.GroundTruthRecord{
		VulnerabilityID:       "PR-7",
		FilePath:              file,
		CWEID:                 cwe,
		FixCommitHash:         "f1x0000",
		FixCommitMessage:      "fix sql injection",
		OriginalCommitHash:    "abc123",
		OriginalCommitMessage: "add query builder",
		VulnerabilityType:     "sql_injection",
	}
}

func TestGroundTruthUpsert(t *testing.T) {
	db := newTestStore(t)

	record := testRecord("db.go", "CWE-89")
	require.NoError(t, db.UpsertGroundTruth(t.Context(), record))

	// same natural key updates in place
	record.OriginalCommitMessage = "rewritten message"
	require.NoError(t, db.UpsertGroundTruth(t.Context(), record))

	records, err := db.ListGroundTruth(t.Context())
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "rewritten message", records[0].OriginalCommitMessage)
}

func TestGroundTruthListOrdering(t *testing.T) {
	db := newTestStore(t)

	require.NoError(t, db.UpsertGroundTruth(t.Context(), testRecord("handler.go", "CWE-79")))
	require.NoError(t, db.UpsertGroundTruth(t.Context(), testRecord("db.go", "CWE-89")))

	records, err := db.ListGroundTruth(t.Context())
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, "db.go", records[0].FilePath)
	assert.Equal(t, "handler.go", records[1].FilePath)
}

func TestVerdictsArePerDetector(t *testing.T) {
	db := newTestStore(t)

	verdict := model.Verdict{
		VulnerabilityID:    "PR-7",
		FilePath:           "db.go",
		CWEID:              "CWE-89",
		FixCommitHash:      "f1x0000",
		OriginalCommitHash: "abc123",
		VulnerabilityType:  "sql_injection",
		Result:             model.VerdictTruePositive,
		Rationale:          "detector reported CWE-89 in db.go, matching ground truth",
		DetectedLines:      []int{40, 45},
	}
	require.NoError(t, db.UpsertVerdict(t.Context(), model.DetectorAI, verdict))

	verdict.Result = model.VerdictFalseNegative
	verdict.DetectedLines = nil
	require.NoError(t, db.UpsertVerdict(t.Context(), model.DetectorStatic, verdict))

	aiVerdicts, err := db.ListVerdicts(t.Context(), model.DetectorAI)
	require.NoError(t, err)
	require.Len(t, aiVerdicts, 1)
	assert.Equal(t, model.VerdictTruePositive, aiVerdicts[0].Result)
	assert.Equal(t, []int{40, 45}, aiVerdicts[0].DetectedLines)

	staticVerdicts, err := db.ListVerdicts(t.Context(), model.DetectorStatic)
	require.NoError(t, err)
	require.Len(t, staticVerdicts, 1)
	assert.Equal(t, model.VerdictFalseNegative, staticVerdicts[0].Result)
}

func TestVerdictUpsertOverwrites(t *testing.T) {
	db := newTestStore(t)

	verdict := model.Verdict{
		VulnerabilityID: "PR-7", FilePath: "db.go", CWEID: "CWE-89",
		Result: model.VerdictFalseNegative, Rationale: "no findings",
	}
	require.NoError(t, db.UpsertVerdict(t.Context(), model.DetectorAI, verdict))

	verdict.Result = model.VerdictTruePositive
	verdict.DetectedLines = []int{40}
	require.NoError(t, db.UpsertVerdict(t.Context(), model.DetectorAI, verdict))

	verdicts, err := db.ListVerdicts(t.Context(), model.DetectorAI)
	require.NoError(t, err)
	require.Len(t, verdicts, 1)
	assert.Equal(t, model.VerdictTruePositive, verdicts[0].Result)
}

func TestSummaryCounts(t *testing.T) {
	db := newTestStore(t)

	results := []model.VerdictResult{
		model.VerdictTruePositive,
		model.VerdictTruePositive,
		model.VerdictFalsePositive,
		model.VerdictFalseNegative,
		model.VerdictSkipped,
	}
	for i, result := range results {
		require.NoError(t, db.UpsertVerdict(t.Context(), model.DetectorAI, model.Verdict{
			VulnerabilityID: "PR-7",
			FilePath:        "db.go",
			CWEID:           model.CanonicalCWE(string(rune('1'+i))),
			Result:          result,
		}))
	}

	summary, err := db.Summary(t.Context(), model.DetectorAI)
	require.NoError(t, err)

	assert.Equal(t, model.DetectorAI, summary.Detector)
	assert.Equal(t, 2, summary.TruePositive)
	assert.Equal(t, 1, summary.FalsePositive)
	assert.Equal(t, 1, summary.FalseNegative)
	assert.Equal(t, 1, summary.Skipped)
}

func TestSummaryEmpty(t *testing.T) {
	db := newTestStore(t)

	summary, err := db.Summary(t.Context(), model.DetectorStatic)
	require.NoError(t, err)
	assert.Equal(t, model.DetectorSummary{Detector: model.DetectorStatic}, summary)
}

func TestUnknownDetectorRejected(t *testing.T) {
	db := newTestStore(t)

	_, err := db.ListVerdicts(t.Context(), model.DetectorKind("sast2"))
	assert.Error(t, err)
}
