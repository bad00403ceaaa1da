// Package store persists ground truth and verdicts in SQLite. Every write is
// an upsert by natural key, so re-running a benchmark phase updates rows in
// place and never duplicates them.
package store

import (
	"context"
	"database/sql"
	"encoding/json"

	_ "github.com/mattn/go-sqlite3"
	"github.com/maxbolgarin/errm"
	"github.com/maxbolgarin/logze/v2"

	"github.com/vulnbench/vulnbench/internal/model"
)

const schema = `
CREATE TABLE IF NOT EXISTS ground_truth (
	vulnerability_id        TEXT NOT NULL,
	file_path               TEXT NOT NULL,
	cwe_id                  TEXT NOT NULL,
	fix_commit_hash         TEXT NOT NULL,
	fix_commit_message      TEXT NOT NULL,
	original_commit_hash    TEXT NOT NULL,
	original_commit_message TEXT NOT NULL,
	vulnerability_type      TEXT NOT NULL,
	PRIMARY KEY (vulnerability_id, file_path, cwe_id)
);

CREATE TABLE IF NOT EXISTS ai_results (
	vulnerability_id     TEXT NOT NULL,
	file_path            TEXT NOT NULL,
	cwe_id               TEXT NOT NULL,
	fix_commit_hash      TEXT NOT NULL,
	original_commit_hash TEXT NOT NULL,
	vulnerability_type   TEXT NOT NULL,
	result               TEXT NOT NULL,
	rationale            TEXT NOT NULL,
	detected_lines       TEXT NOT NULL,
	PRIMARY KEY (vulnerability_id, file_path, cwe_id)
);

CREATE TABLE IF NOT EXISTS static_results (
	vulnerability_id     TEXT NOT NULL,
	file_path            TEXT NOT NULL,
	cwe_id               TEXT NOT NULL,
	fix_commit_hash      TEXT NOT NULL,
	original_commit_hash TEXT NOT NULL,
	vulnerability_type   TEXT NOT NULL,
	result               TEXT NOT NULL,
	rationale            TEXT NOT NULL,
	detected_lines       TEXT NOT NULL,
	PRIMARY KEY (vulnerability_id, file_path, cwe_id)
);
`

// SQLite implements model.Store on a local SQLite database.
type SQLite struct {
	db  *sql.DB
	log logze.Logger
}

// New opens (or creates) the database at path and bootstraps the schema.
// Use ":memory:" for an ephemeral store.
func New(ctx context.Context, path string) (*SQLite, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, errm.Wrap(err, "open database", "path", path)
	}

	// The sqlite3 driver is not safe for concurrent writers on one file.
	db.SetMaxOpenConns(1)

	if _, err := db.ExecContext(ctx, schema); err != nil {
		db.Close()
		return nil, errm.Wrap(err, "bootstrap schema")
	}

	return &SQLite{
		db:  db,
		log: logze.With("component", "store"),
	}, nil
}

// Close closes the underlying database.
func (s *SQLite) Close() error {
	return s.db.Close()
}

// UpsertGroundTruth implements model.Store.
func (s *SQLite) UpsertGroundTruth(ctx context.Context, r model.GroundTruthRecord) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO ground_truth (
			vulnerability_id, file_path, cwe_id,
			fix_commit_hash, fix_commit_message,
			original_commit_hash, original_commit_message,
			vulnerability_type
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (vulnerability_id, file_path, cwe_id) DO UPDATE SET
			fix_commit_hash = excluded.fix_commit_hash,
			fix_commit_message = excluded.fix_commit_message,
			original_commit_hash = excluded.original_commit_hash,
			original_commit_message = excluded.original_commit_message,
			vulnerability_type = excluded.vulnerability_type`,
		r.VulnerabilityID, r.FilePath, r.CWEID,
		r.FixCommitHash, r.FixCommitMessage,
		r.OriginalCommitHash, r.OriginalCommitMessage,
		r.VulnerabilityType,
	)
	if err != nil {
		return errm.Wrap(err, "upsert ground truth", "vulnerability", r.VulnerabilityID)
	}
	return nil
}

// ListGroundTruth implements model.Store.
func (s *SQLite) ListGroundTruth(ctx context.Context) ([]model.GroundTruthRecord, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT vulnerability_id, file_path, cwe_id,
			fix_commit_hash, fix_commit_message,
			original_commit_hash, original_commit_message,
			vulnerability_type
		FROM ground_truth
		ORDER BY vulnerability_id, file_path, cwe_id`)
	if err != nil {
		return nil, errm.Wrap(err, "list ground truth")
	}
	defer rows.Close()

	var records []model.GroundTruthRecord
	for rows.Next() {
		var r model.GroundTruthRecord
		if err := rows.Scan(
			&r.VulnerabilityID, &r.FilePath, &r.CWEID,
			&r.FixCommitHash, &r.FixCommitMessage,
			&r.OriginalCommitHash, &r.OriginalCommitMessage,
			&r.VulnerabilityType,
		); err != nil {
			return nil, errm.Wrap(err, "scan ground truth row")
		}
		records = append(records, r)
	}
	if err := rows.Err(); err != nil {
		return nil, errm.Wrap(err, "iterate ground truth rows")
	}
	return records, nil
}

// UpsertVerdict implements model.Store. Each detector writes to its own
// results table, keyed the same way as ground truth.
func (s *SQLite) UpsertVerdict(ctx context.Context, detector model.DetectorKind, v model.Verdict) error {
	table, err := resultsTable(detector)
	if err != nil {
		return err
	}

	lines, err := json.Marshal(v.DetectedLines)
	if err != nil {
		return errm.Wrap(err, "marshal detected lines")
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO `+table+` (
			vulnerability_id, file_path, cwe_id,
			fix_commit_hash, original_commit_hash, vulnerability_type,
			result, rationale, detected_lines
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (vulnerability_id, file_path, cwe_id) DO UPDATE SET
			fix_commit_hash = excluded.fix_commit_hash,
			original_commit_hash = excluded.original_commit_hash,
			vulnerability_type = excluded.vulnerability_type,
			result = excluded.result,
			rationale = excluded.rationale,
			detected_lines = excluded.detected_lines`,
		v.VulnerabilityID, v.FilePath, v.CWEID,
		v.FixCommitHash, v.OriginalCommitHash, v.VulnerabilityType,
		string(v.Result), v.Rationale, string(lines),
	)
	if err != nil {
		return errm.Wrap(err, "upsert verdict",
			"detector", detector, "vulnerability", v.VulnerabilityID)
	}
	return nil
}

// ListVerdicts implements model.Store.
func (s *SQLite) ListVerdicts(ctx context.Context, detector model.DetectorKind) ([]model.Verdict, error) {
	table, err := resultsTable(detector)
	if err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT vulnerability_id, file_path, cwe_id,
			fix_commit_hash, original_commit_hash, vulnerability_type,
			result, rationale, detected_lines
		FROM `+table+`
		ORDER BY vulnerability_id, file_path, cwe_id`)
	if err != nil {
		return nil, errm.Wrap(err, "list verdicts", "detector", detector)
	}
	defer rows.Close()

	var verdicts []model.Verdict
	for rows.Next() {
		var (
			v      model.Verdict
			result string
			lines  string
		)
		if err := rows.Scan(
			&v.VulnerabilityID, &v.FilePath, &v.CWEID,
			&v.FixCommitHash, &v.OriginalCommitHash, &v.VulnerabilityType,
			&result, &v.Rationale, &lines,
		); err != nil {
			return nil, errm.Wrap(err, "scan verdict row")
		}
		v.Result = model.VerdictResult(result)
		if err := json.Unmarshal([]byte(lines), &v.DetectedLines); err != nil {
			return nil, errm.Wrap(err, "unmarshal detected lines", "vulnerability", v.VulnerabilityID)
		}
		verdicts = append(verdicts, v)
	}
	if err := rows.Err(); err != nil {
		return nil, errm.Wrap(err, "iterate verdict rows")
	}
	return verdicts, nil
}

// Summary implements model.Store.
func (s *SQLite) Summary(ctx context.Context, detector model.DetectorKind) (model.DetectorSummary, error) {
	table, err := resultsTable(detector)
	if err != nil {
		return model.DetectorSummary{}, err
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT result, COUNT(*) FROM `+table+` GROUP BY result`)
	if err != nil {
		return model.DetectorSummary{}, errm.Wrap(err, "summarize verdicts", "detector", detector)
	}
	defer rows.Close()

	summary := model.DetectorSummary{Detector: detector}
	for rows.Next() {
		var (
			result string
			count  int
		)
		if err := rows.Scan(&result, &count); err != nil {
			return model.DetectorSummary{}, errm.Wrap(err, "scan summary row")
		}
		switch model.VerdictResult(result) {
		case model.VerdictTruePositive:
			summary.TruePositive = count
		case model.VerdictFalsePositive:
			summary.FalsePositive = count
		case model.VerdictFalseNegative:
			summary.FalseNegative = count
		case model.VerdictSkipped:
			summary.Skipped = count
		}
	}
	if err := rows.Err(); err != nil {
		return model.DetectorSummary{}, errm.Wrap(err, "iterate summary rows")
	}
	return summary, nil
}

// resultsTable maps a detector to its results table. The name is taken from
// a closed set, never from input, so it is safe to splice into SQL.
func resultsTable(detector model.DetectorKind) (string, error) {
	switch detector {
	case model.DetectorAI:
		return "ai_results", nil
	case model.DetectorStatic:
		return "static_results", nil
	default:
		return "", errm.New("unknown detector kind: " + string(detector))
	}
}

var _ model.Store = (*SQLite)(nil)
