package model

import (
	"context"
	"time"
)

// LineAttribution maps one line of a file at some revision to the commit
// that last modified it.
type LineAttribution struct {
	Line       int
	CommitHash string
}

// VersionControlProvider defines the operations the benchmark needs from the
// mined repository's history. Implementations must serialize revision
// switches: the checked-out working tree is a shared resource.
type VersionControlProvider interface {
	// Log returns commits reachable from HEAD, newest first, capped at limit
	// when limit > 0. Root commits (no parent) are excluded: a fix needs a
	// pre-fix state to compare against.
	Log(ctx context.Context, limit int) ([]FixingCommit, error)

	// Diff returns the unified diff of one file between a commit and its
	// parent. An empty string means the file did not change textually.
	Diff(ctx context.Context, commitHash, parentHash, path string) (string, error)

	// ChangedFiles lists the non-binary file paths touched by a commit
	// relative to its parent.
	ChangedFiles(ctx context.Context, commitHash, parentHash string) ([]string, error)

	// Blame attributes the given line numbers of a file at a revision to the
	// commits that last modified them.
	Blame(ctx context.Context, revision, path string, lines []int) ([]LineAttribution, error)

	// CommitMessage returns the full message of a commit.
	CommitMessage(ctx context.Context, hash string) (string, error)

	// CommitTime returns the committer timestamp of a commit.
	CommitTime(ctx context.Context, hash string) (time.Time, error)

	// FileContent returns the content of a file as it existed at a revision,
	// without moving the working tree.
	FileContent(ctx context.Context, revision, path string) (string, error)

	// Checkout moves the working tree to a revision. Callers must not hold
	// readers on the tree across this call.
	Checkout(ctx context.Context, revision string) error
}

// MessageClassification is the security classification of a commit message.
type MessageClassification struct {
	SecurityRelated    bool
	CWEIDs             []string
	VulnerabilityTypes []string
}

// SecurityMessageClassifier decides whether a commit message describes a
// security fix and which CWEs it maps to.
type SecurityMessageClassifier interface {
	Classify(ctx context.Context, message string) (MessageClassification, error)

	// InferCWE infers a single CWE from free-form text when pattern matching
	// yields none. Returns "" when no identifier can be inferred.
	InferCWE(ctx context.Context, text string) (string, error)
}

// ChangeRequestLookup resolves the change request (PR/MR) that introduced a
// commit, yielding a human-meaningful vulnerability identifier.
type ChangeRequestLookup interface {
	// FindForCommit returns an identifier such as "PR-42" or "MR-17",
	// or "" when the commit is not associated with any change request.
	FindForCommit(ctx context.Context, commitHash string) (string, error)
}

// StaticIssue is one issue reported by the static-analysis service.
type StaticIssue struct {
	FilePath string
	RuleID   string
	CWEID    string // may be empty, the normalizer infers one from Message
	Message  string
	Line     int
}

// StaticAnalysisProvider triggers a scan of the checked-out revision and
// returns the reported issues.
type StaticAnalysisProvider interface {
	Scan(ctx context.Context, revision string) ([]StaticIssue, error)
}

// DetectTarget identifies one unit of detector work: one file pinned at the
// origin revision, with the file content already retrieved.
type DetectTarget struct {
	Revision string
	FilePath string
	Content  string
}

// Detector runs one vulnerability detector against a target and returns the
// normalized detection. The classification engine never branches on which
// detector produced a Detection.
type Detector interface {
	Kind() DetectorKind
	Detect(ctx context.Context, target DetectTarget) (Detection, error)
}

// DetectorSummary aggregates verdict counts for one detector.
type DetectorSummary struct {
	Detector      DetectorKind `json:"detector"`
	TruePositive  int          `json:"true_positive"`
	FalsePositive int          `json:"false_positive"`
	FalseNegative int          `json:"false_negative"`
	Skipped       int          `json:"skipped"`
}

// Store persists ground truth and verdicts. All writes are upserts by
// natural key, so reruns are idempotent and conflicts cannot occur.
type Store interface {
	UpsertGroundTruth(ctx context.Context, record GroundTruthRecord) error
	ListGroundTruth(ctx context.Context) ([]GroundTruthRecord, error)
	UpsertVerdict(ctx context.Context, detector DetectorKind, verdict Verdict) error
	ListVerdicts(ctx context.Context, detector DetectorKind) ([]Verdict, error)
	Summary(ctx context.Context, detector DetectorKind) (DetectorSummary, error)
}
