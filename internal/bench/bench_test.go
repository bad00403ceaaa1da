package bench_test

import (
	"context"
	"errors"
	"sort"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vulnbench/vulnbench/internal/bench"
	"github.com/vulnbench/vulnbench/internal/diffscan"
	"github.com/vulnbench/vulnbench/internal/groundtruth"
	"github.com/vulnbench/vulnbench/internal/model"
	"github.com/vulnbench/vulnbench/internal/origin"
)

// fakeVCS is a two-commit history: abc123 introduced db.go, f1x fixed it.
type fakeVCS struct {
	commits    []model.FixingCommit
	diffs      map[string]string         // "commit|file" -> unified diff
	files      map[string][]string       // commit -> changed files
	blames     map[string]map[int]string // "rev|file" -> line -> owner
	messages   map[string]string
	times      map[string]time.Time
	contents   map[string]string // "rev|file" -> content
	contentErr error             // returned by FileContent when set
}

func (f *fakeVCS) Log(context.Context, int) ([]model.FixingCommit, error) {
	return f.commits, nil
}

func (f *fakeVCS) Diff(_ context.Context, commit, _, path string) (string, error) {
	return f.diffs[commit+"|"+path], nil
}

func (f *fakeVCS) ChangedFiles(_ context.Context, commit, _ string) ([]string, error) {
	return f.files[commit], nil
}

func (f *fakeVCS) Blame(_ context.Context, revision, path string, lines []int) ([]model.LineAttribution, error) {
	owners := f.blames[revision+"|"+path]
	attrs := make([]model.LineAttribution, 0, len(lines))
	for _, line := range lines {
		attrs = append(attrs, model.LineAttribution{Line: line, CommitHash: owners[line]})
	}
	return attrs, nil
}

func (f *fakeVCS) CommitMessage(_ context.Context, hash string) (string, error) {
	return f.messages[hash], nil
}

func (f *fakeVCS) CommitTime(_ context.Context, hash string) (time.Time, error) {
	return f.times[hash], nil
}

func (f *fakeVCS) FileContent(_ context.Context, revision, path string) (string, error) {
	if f.contentErr != nil {
		return "", f.contentErr
	}
	return f.contents[revision+"|"+path], nil
}

func (f *fakeVCS) Checkout(context.Context, string) error { return nil }

type memStore struct {
	groundTruth map[string]model.GroundTruthRecord
	verdicts    map[model.DetectorKind]map[string]model.Verdict
}

func newMemStore() *memStore {
	return &memStore{
		groundTruth: make(map[string]model.GroundTruthRecord),
		verdicts:    make(map[model.DetectorKind]map[string]model.Verdict),
	}
}

func key(id, file, cwe string) string { return id + "|" + file + "|" + cwe }

func (m *memStore) UpsertGroundTruth(_ context.Context, r model.GroundTruthRecord) error {
	m.groundTruth[key(r.VulnerabilityID, r.FilePath, r.CWEID)] = r
	return nil
}

func (m *memStore) ListGroundTruth(context.Context) ([]model.GroundTruthRecord, error) {
	keys := make([]string, 0, len(m.groundTruth))
	for k := range m.groundTruth {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	out := make([]model.GroundTruthRecord, 0, len(keys))
	for _, k := range keys {
		out = append(out, m.groundTruth[k])
	}
	return out, nil
}

func (m *memStore) UpsertVerdict(_ context.Context, detector model.DetectorKind, v model.Verdict) error {
	if m.verdicts[detector] == nil {
		m.verdicts[detector] = make(map[string]model.Verdict)
	}
	m.verdicts[detector][key(v.VulnerabilityID, v.FilePath, v.CWEID)] = v
	return nil
}

func (m *memStore) ListVerdicts(_ context.Context, detector model.DetectorKind) ([]model.Verdict, error) {
	out := make([]model.Verdict, 0, len(m.verdicts[detector]))
	for _, v := range m.verdicts[detector] {
		out = append(out, v)
	}
	return out, nil
}

func (m *memStore) Summary(_ context.Context, detector model.DetectorKind) (model.DetectorSummary, error) {
	summary := model.DetectorSummary{Detector: detector}
	for _, v := range m.verdicts[detector] {
		switch v.Result {
		case model.VerdictTruePositive:
			summary.TruePositive++
		case model.VerdictFalsePositive:
			summary.FalsePositive++
		case model.VerdictFalseNegative:
			summary.FalseNegative++
		case model.VerdictSkipped:
			summary.Skipped++
		}
	}
	return summary, nil
}

type tableClassifier struct{}

func (tableClassifier) Classify(_ context.Context, message string) (model.MessageClassification, error) {
	if message == "fix sql injection in report query" {
		return model.MessageClassification{
			SecurityRelated:    true,
			CWEIDs:             []string{"CWE-89"},
			VulnerabilityTypes: []string{"sql_injection"},
		}, nil
	}
	return model.MessageClassification{}, nil
}

func (tableClassifier) InferCWE(context.Context, string) (string, error) { return "", nil }

// fakeDetector returns a fixed detection, or err when set, for every target.
type fakeDetector struct {
	kind      model.DetectorKind
	detection model.Detection
	err       error
	targets   []model.DetectTarget
}

func (f *fakeDetector) Kind() model.DetectorKind { return f.kind }

func (f *fakeDetector) Detect(_ context.Context, target model.DetectTarget) (model.Detection, error) {
	f.targets = append(f.targets, target)
	return f.detection, f.err
}

func historyFixture() *fakeVCS {
	fixDiff := `--- a/db.go
+++ b/db.go
@@ -40,3 +40,3 @@ func report(name string) {
 	q := "SELECT * FROM reports WHERE name = "
-	q += name
+	q += escape(name)
 	rows := db.Query(q)
`
	return &fakeVCS{
		commits: []model.FixingCommit{
			{Hash: "f1x9999", ParentHash: "abc123", Message: "fix sql injection in report query"},
			{Hash: "abc123", ParentHash: "0000000", Message: "add report query"},
		},
		files: map[string][]string{"f1x9999": {"db.go"}},
		diffs: map[string]string{"f1x9999|db.go": fixDiff},
		blames: map[string]map[int]string{
			"abc123|db.go": {40: "abc123", 41: "abc123", 42: "abc123"},
		},
		messages: map[string]string{"abc123": "add report query"},
		times:    map[string]time.Time{"abc123": time.Unix(1000, 0)},
		contents: map[string]string{"abc123|db.go": "package db\n"},
	}
}

func newExtractor(vcs *fakeVCS, db *memStore, t *testing.T) *bench.Extractor {
	t.Helper()
	tieBreak, err := origin.NewTieBreak(origin.TieBreakEarliest, vcs)
	require.NoError(t, err)
	return bench.NewExtractor(
		vcs,
		tableClassifier{},
		diffscan.NewAnalyzer(),
		origin.NewResolver(vcs, tieBreak),
		groundtruth.NewBuilder(db, nil),
	)
}

func TestExtractorBuildsGroundTruth(t *testing.T) {
	vcs := historyFixture()
	db := newMemStore()

	report, err := newExtractor(vcs, db, t).Run(t.Context(), 0)
	require.NoError(t, err)

	assert.Equal(t, 2, report.CommitsScanned)
	assert.Equal(t, 1, report.FixesFound)
	assert.Equal(t, 1, report.Records)

	records, err := db.ListGroundTruth(t.Context())
	require.NoError(t, err)
	require.Len(t, records, 1)

	record := records[0]
	assert.Equal(t, "VULN-abc123", record.VulnerabilityID)
	assert.Equal(t, "db.go", record.FilePath)
	assert.Equal(t, "CWE-89", record.CWEID)
	assert.Equal(t, "f1x9999", record.FixCommitHash)
	assert.Equal(t, "abc123", record.OriginalCommitHash)
	assert.Equal(t, "add report query", record.OriginalCommitMessage)
	assert.Equal(t, "sql_injection", record.VulnerabilityType)
}

func TestExtractorSkipsNonSecurityCommits(t *testing.T) {
	vcs := historyFixture()
	vcs.commits = []model.FixingCommit{
		{Hash: "abc123", ParentHash: "0000000", Message: "add report query"},
	}
	db := newMemStore()

	report, err := newExtractor(vcs, db, t).Run(t.Context(), 0)
	require.NoError(t, err)

	assert.Zero(t, report.FixesFound)
	assert.Empty(t, db.groundTruth)
}

func TestExtractorSkipsFixOnlyLines(t *testing.T) {
	vcs := historyFixture()
	// every remediated line is owned by the fix itself at the parent
	vcs.blames["abc123|db.go"] = map[int]string{40: "f1x9999", 41: "f1x9999", 42: "f1x9999"}
	db := newMemStore()

	report, err := newExtractor(vcs, db, t).Run(t.Context(), 0)
	require.NoError(t, err)

	assert.Zero(t, report.Records)
	assert.Empty(t, db.groundTruth)
}

func TestEvaluatorWritesVerdicts(t *testing.T) {
	vcs := historyFixture()
	db := newMemStore()

	_, err := newExtractor(vcs, db, t).Run(t.Context(), 0)
	require.NoError(t, err)

	detector := &fakeDetector{
		kind: model.DetectorAI,
		detection: model.Detection{Findings: []model.Finding{
			{CWEID: "CWE-89", FilePath: "db.go", Lines: []int{40, 45}},
		}},
	}

	evaluator, err := bench.NewEvaluator(vcs, db, []model.Detector{detector}, 2)
	require.NoError(t, err)
	defer evaluator.Close()

	summaries, err := evaluator.Run(t.Context())
	require.NoError(t, err)
	require.Len(t, summaries, 1)
	assert.Equal(t, 1, summaries[0].TruePositive)

	require.Len(t, detector.targets, 1)
	assert.Equal(t, "abc123", detector.targets[0].Revision, "detector sees the pre-fix revision")
	assert.Equal(t, "package db\n", detector.targets[0].Content)

	verdicts, err := db.ListVerdicts(t.Context(), model.DetectorAI)
	require.NoError(t, err)
	require.Len(t, verdicts, 1)
	assert.Equal(t, model.VerdictTruePositive, verdicts[0].Result)
	assert.Equal(t, []int{40, 45}, verdicts[0].DetectedLines)
}

func TestEvaluatorInconclusiveBecomesSkipped(t *testing.T) {
	vcs := historyFixture()
	db := newMemStore()

	_, err := newExtractor(vcs, db, t).Run(t.Context(), 0)
	require.NoError(t, err)

	detector := &fakeDetector{
		kind:      model.DetectorStatic,
		detection: model.Detection{Inconclusive: true, Cause: "scan timeout"},
	}

	evaluator, err := bench.NewEvaluator(vcs, db, []model.Detector{detector}, 1)
	require.NoError(t, err)
	defer evaluator.Close()

	summaries, err := evaluator.Run(t.Context())
	require.NoError(t, err)
	require.Len(t, summaries, 1)
	assert.Equal(t, 1, summaries[0].Skipped)
	assert.Zero(t, summaries[0].FalseNegative, "inconclusive analysis never counts as a miss")
}

func TestEvaluatorContentFailureBecomesSkipped(t *testing.T) {
	vcs := historyFixture()
	db := newMemStore()

	_, err := newExtractor(vcs, db, t).Run(t.Context(), 0)
	require.NoError(t, err)

	vcs.contentErr = errors.New("object not found")
	detector := &fakeDetector{
		kind: model.DetectorAI,
		detection: model.Detection{Findings: []model.Finding{
			{CWEID: "CWE-89", FilePath: "db.go", Lines: []int{41}},
		}},
	}

	evaluator, err := bench.NewEvaluator(vcs, db, []model.Detector{detector}, 1)
	require.NoError(t, err)
	defer evaluator.Close()

	summaries, err := evaluator.Run(t.Context())
	require.NoError(t, err)
	require.Len(t, summaries, 1)
	assert.Equal(t, 1, summaries[0].Skipped)
	assert.Empty(t, detector.targets, "unreadable file never reaches the detector")

	verdicts, err := db.ListVerdicts(t.Context(), model.DetectorAI)
	require.NoError(t, err)
	require.Len(t, verdicts, 1)
	assert.Equal(t, model.VerdictSkipped, verdicts[0].Result)
	assert.Contains(t, verdicts[0].Rationale, "object not found")
}

func TestEvaluatorDetectorErrorBecomesSkipped(t *testing.T) {
	vcs := historyFixture()
	db := newMemStore()

	_, err := newExtractor(vcs, db, t).Run(t.Context(), 0)
	require.NoError(t, err)

	detector := &fakeDetector{
		kind: model.DetectorStatic,
		err:  errors.New("scan service unavailable"),
	}

	evaluator, err := bench.NewEvaluator(vcs, db, []model.Detector{detector}, 1)
	require.NoError(t, err)
	defer evaluator.Close()

	summaries, err := evaluator.Run(t.Context())
	require.NoError(t, err)
	require.Len(t, summaries, 1)
	assert.Equal(t, 1, summaries[0].Skipped)
	assert.Zero(t, summaries[0].FalseNegative)

	verdicts, err := db.ListVerdicts(t.Context(), model.DetectorStatic)
	require.NoError(t, err)
	require.Len(t, verdicts, 1)
	assert.Equal(t, model.VerdictSkipped, verdicts[0].Result)
	assert.Contains(t, verdicts[0].Rationale, "scan service unavailable")
}

func TestEvaluatorAnalyzesEachFileOnce(t *testing.T) {
	vcs := historyFixture()
	db := newMemStore()

	_, err := newExtractor(vcs, db, t).Run(t.Context(), 0)
	require.NoError(t, err)

	// second CWE for the same file at the same origin
	require.NoError(t, db.UpsertGroundTruth(t.Context(), model.GroundTruthRecord{
		VulnerabilityID:    "VULN-abc123",
		FilePath:           "db.go",
		CWEID:              "CWE-20",
		FixCommitHash:      "f1x9999",
		OriginalCommitHash: "abc123",
	}))

	detector := &fakeDetector{kind: model.DetectorAI}
	evaluator, err := bench.NewEvaluator(vcs, db, []model.Detector{detector}, 2)
	require.NoError(t, err)
	defer evaluator.Close()

	summaries, err := evaluator.Run(t.Context())
	require.NoError(t, err)

	assert.Len(t, detector.targets, 1, "one detector call serves both records of the file")
	require.Len(t, summaries, 1)
	assert.Equal(t, 2, summaries[0].FalseNegative)
}
