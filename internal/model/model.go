package model

import (
	"strings"
)

// FixingCommit represents a historical commit whose message indicates a security remediation.
type FixingCommit struct {
	Hash       string
	ParentHash string
	Message    string
}

// OriginCommit represents the historical commit that introduced the lines later remediated.
type OriginCommit struct {
	Hash    string
	Message string
}

// ChangedLineSet maps a file path to the ordered set of line numbers added by a fix.
type ChangedLineSet map[string]*OrderedSet[int]

// GroundTruthRecord is the authoritative record of one real historical vulnerability,
// derived from a fixing commit and its originating commit. One record exists per
// (file, CWE) pair; the natural key is (VulnerabilityID, FilePath, CWEID).
type GroundTruthRecord struct {
	VulnerabilityID       string
	FilePath              string
	CWEID                 string
	FixCommitHash         string
	FixCommitMessage      string
	OriginalCommitHash    string
	OriginalCommitMessage string
	VulnerabilityType     string
}

// VerdictResult is the classification outcome of comparing detector findings to ground truth.
type VerdictResult string

const (
	VerdictTruePositive  VerdictResult = "TP"
	VerdictFalsePositive VerdictResult = "FP"
	VerdictFalseNegative VerdictResult = "FN"
	VerdictSkipped       VerdictResult = "SKIPPED"
)

// Verdict is the scored outcome for one (GroundTruthRecord, detector) pair.
// Exactly one verdict exists per pair; re-running a benchmark overwrites it.
type Verdict struct {
	VulnerabilityID    string
	FilePath           string
	CWEID              string
	FixCommitHash      string
	OriginalCommitHash string
	VulnerabilityType  string
	Result             VerdictResult
	Rationale          string
	DetectedLines      []int
}

// DetectorKind identifies a benchmarked detector. Each detector owns its own results table.
type DetectorKind string

const (
	DetectorAI     DetectorKind = "ai"
	DetectorStatic DetectorKind = "static"
)

// Finding is a detector's reported potential vulnerability for one file at one commit,
// normalized from the detector-specific output shape.
type Finding struct {
	CWEID       string
	FilePath    string
	Lines       []int
	Description string
}

// Detection is the normalized result of running one detector on one file.
// Inconclusive marks a resource or context limit signaled by the detector:
// it is not an empty finding list and it never counts as a missed detection.
type Detection struct {
	Findings     []Finding
	Inconclusive bool
	Cause        string
}

// NormalizeCWE reduces a CWE identifier to a comparable form: case-insensitive,
// prefix-stripped, leading zeros removed. "CWE-79", "cwe-79" and "079" all
// normalize to "79". An empty or non-identifier input normalizes to "".
func NormalizeCWE(id string) string {
	s := strings.ToUpper(strings.TrimSpace(id))
	s = strings.TrimPrefix(s, "CWE-")
	s = strings.TrimPrefix(s, "CWE")
	s = strings.TrimLeft(s, "0")
	for _, r := range s {
		if r < '0' || r > '9' {
			return ""
		}
	}
	return s
}

// CWEEqual reports whether two CWE identifiers refer to the same weakness
// after normalization. Two empty identifiers are never equal.
func CWEEqual(a, b string) bool {
	na, nb := NormalizeCWE(a), NormalizeCWE(b)
	return na != "" && na == nb
}

// CanonicalCWE renders an identifier in the "CWE-<n>" display form, or ""
// if the input does not normalize to a numeric identifier.
func CanonicalCWE(id string) string {
	n := NormalizeCWE(id)
	if n == "" {
		return ""
	}
	return "CWE-" + n
}
