// Package groundtruth turns classified fixing commits and their resolved
// origins into the authoritative vulnerability records the benchmark scores
// detectors against.
package groundtruth

import (
	"context"
	"sort"

	"github.com/maxbolgarin/errm"
	"github.com/maxbolgarin/logze/v2"
	"github.com/vulnbench/vulnbench/internal/model"
)

// Builder materializes ground-truth records. One record exists per
// (file, CWE) pair of a fixing commit; re-building the same fix updates
// records in place instead of duplicating them.
type Builder struct {
	store  model.Store
	lookup model.ChangeRequestLookup
	log    logze.Logger
}

// NewBuilder creates a ground-truth builder.
func NewBuilder(store model.Store, lookup model.ChangeRequestLookup) *Builder {
	return &Builder{
		store:  store,
		lookup: lookup,
		log:    logze.With("component", "groundtruth"),
	}
}

// Build creates one record per (file, CWE) pair and upserts each into the
// store. Origins maps each changed file to the commit that introduced its
// remediated lines; files without a resolved origin are skipped by the
// caller and never reach the builder.
func (b *Builder) Build(ctx context.Context, fix model.FixingCommit, cls model.MessageClassification, origins map[string]model.OriginCommit) ([]model.GroundTruthRecord, error) {
	if !cls.SecurityRelated || len(cls.CWEIDs) == 0 || len(origins) == 0 {
		return nil, nil
	}

	vulnID := b.vulnerabilityID(ctx, fix)

	files := make([]string, 0, len(origins))
	for file := range origins {
		files = append(files, file)
	}
	sort.Strings(files)

	records := make([]model.GroundTruthRecord, 0, len(files)*len(cls.CWEIDs))
	for _, file := range files {
		origin := origins[file]
		for i, cwe := range cls.CWEIDs {
			canonical := model.CanonicalCWE(cwe)
			if canonical == "" {
				continue
			}

			var vulnType string
			if i < len(cls.VulnerabilityTypes) {
				vulnType = cls.VulnerabilityTypes[i]
			}

			record := model.GroundTruthRecord{
				VulnerabilityID:       b.recordID(vulnID, origin),
				FilePath:              file,
				CWEID:                 canonical,
				FixCommitHash:         fix.Hash,
				FixCommitMessage:      fix.Message,
				OriginalCommitHash:    origin.Hash,
				OriginalCommitMessage: origin.Message,
				VulnerabilityType:     vulnType,
			}
			if err := b.store.UpsertGroundTruth(ctx, record); err != nil {
				return nil, errm.Wrap(err, "upsert ground truth",
					"vulnerability", record.VulnerabilityID, "file", file, "cwe", canonical)
			}
			records = append(records, record)
		}
	}

	b.log.Debug("ground truth built", "fix", fix.Hash, "records", len(records))

	return records, nil
}

// vulnerabilityID resolves the shared identifier of a fix: the change
// request that merged it when a lookup is configured and finds one, empty
// otherwise. An empty result falls back to per-record synthesis.
func (b *Builder) vulnerabilityID(ctx context.Context, fix model.FixingCommit) string {
	if b.lookup == nil {
		return ""
	}
	id, err := b.lookup.FindForCommit(ctx, fix.Hash)
	if err != nil {
		b.log.Err(err, "change request lookup failed", "commit", fix.Hash)
		return ""
	}
	return id
}

// recordID returns the record's vulnerability identifier, synthesizing one
// from the origin commit when no change request was found. Synthesis keeps
// identifiers stable across runs: the same origin always yields the same id.
func (b *Builder) recordID(shared string, origin model.OriginCommit) string {
	if shared != "" {
		return shared
	}
	hash := origin.Hash
	if len(hash) > 12 {
		hash = hash[:12]
	}
	return "VULN-" + hash
}
