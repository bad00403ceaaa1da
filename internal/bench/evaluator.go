package bench

import (
	"context"
	"sync"

	"github.com/maxbolgarin/abstract"
	"github.com/maxbolgarin/errm"
	"github.com/maxbolgarin/lang"
	"github.com/maxbolgarin/logze/v2"
	"github.com/panjf2000/ants/v2"

	"github.com/vulnbench/vulnbench/internal/model"
)

// Evaluator runs every configured detector over the stored ground truth and
// persists one verdict per (record, detector) pair. Detection happens at the
// origin revision of each record: the detector sees the code as it was when
// the vulnerability was introduced, not after the fix.
type Evaluator struct {
	vcs       model.VersionControlProvider
	store     model.Store
	detectors []model.Detector
	engine    Engine
	pool      *ants.Pool
	log       logze.Logger
}

// NewEvaluator creates an evaluator with a worker pool bounding parallel
// per-file detector calls.
func NewEvaluator(vcs model.VersionControlProvider, store model.Store, detectors []model.Detector, concurrency int) (*Evaluator, error) {
	pool, err := ants.NewPool(concurrency)
	if err != nil {
		return nil, errm.Wrap(err, "create worker pool")
	}

	return &Evaluator{
		vcs:       vcs,
		store:     store,
		detectors: detectors,
		pool:      pool,
		log:       logze.With("component", "evaluator"),
	}, nil
}

// Close releases the worker pool.
func (e *Evaluator) Close() {
	e.pool.Release()
}

// Run evaluates all detectors against all stored ground truth and returns
// the per-detector verdict summaries. Failures on a single file are logged
// and leave that record without a verdict; they never abort the run.
func (e *Evaluator) Run(ctx context.Context) ([]model.DetectorSummary, error) {
	records, err := e.store.ListGroundTruth(ctx)
	if err != nil {
		return nil, errm.Wrap(err, "list ground truth")
	}
	if len(records) == 0 {
		e.log.Warn("no ground truth to evaluate, run extraction first")
		return nil, nil
	}

	revisions, byRevision := groupByRevision(records)

	summaries := make([]model.DetectorSummary, 0, len(e.detectors))
	for _, detector := range e.detectors {
		summary, err := e.runDetector(ctx, detector, revisions, byRevision)
		if err != nil {
			return nil, errm.Wrap(err, "run detector", "detector", detector.Kind())
		}
		summaries = append(summaries, summary)
	}

	return summaries, nil
}

// runDetector scores one detector. Each file of a revision is analyzed once
// and the detection is shared by every record of that file, so a file fixed
// for two CWEs costs one detector call, not two.
func (e *Evaluator) runDetector(ctx context.Context, detector model.Detector, revisions []string, byRevision map[string][]model.GroundTruthRecord) (model.DetectorSummary, error) {
	timer := abstract.StartTimer()
	kind := detector.Kind()
	log := e.log.WithFields("detector", kind)

	detections := abstract.NewSafeMap[string, model.Detection]()

	for _, revision := range revisions {
		e.detectRevision(ctx, detector, revision, byRevision[revision], detections, log)
	}

	var written int
	for _, revision := range revisions {
		for _, record := range byRevision[revision] {
			detection, ok := detections.Lookup(targetKey(revision, record.FilePath))
			if !ok {
				continue
			}
			verdict := e.engine.Classify(record, detection)
			if err := e.store.UpsertVerdict(ctx, kind, verdict); err != nil {
				return model.DetectorSummary{}, errm.Wrap(err, "upsert verdict",
					"vulnerability", record.VulnerabilityID)
			}
			written++
		}
	}

	summary, err := e.store.Summary(ctx, kind)
	if err != nil {
		return model.DetectorSummary{}, errm.Wrap(err, "summarize verdicts")
	}

	log.Info("detector evaluated",
		"verdicts", written,
		"tp", summary.TruePositive,
		"fp", summary.FalsePositive,
		"fn", summary.FalseNegative,
		"skipped", summary.Skipped,
		"elapsed", timer.ElapsedTime().String(),
	)

	return summary, nil
}

// detectRevision runs the detector over the unique files of one revision,
// fanning per-file calls out to the worker pool. A failed file is logged and
// recorded as an inconclusive detection so its records still end up SKIPPED.
func (e *Evaluator) detectRevision(ctx context.Context, detector model.Detector, revision string, records []model.GroundTruthRecord, detections *abstract.SafeMap[string, model.Detection], log logze.Logger) {
	files := model.NewOrderedSet[string]()
	for _, record := range records {
		files.Add(record.FilePath)
	}

	var wg sync.WaitGroup
	for _, file := range files.Values() {
		wg.Add(1)
		err := e.pool.Submit(func() {
			defer wg.Done()
			e.detectFile(ctx, detector, revision, file, detections, log)
		})
		if err != nil {
			wg.Done()
			log.Err(err, "submit detection task", "file", file)
			detections.Set(targetKey(revision, file), model.Detection{
				Inconclusive: true,
				Cause:        err.Error(),
			})
		}
	}
	wg.Wait()
}

func (e *Evaluator) detectFile(ctx context.Context, detector model.Detector, revision, file string, detections *abstract.SafeMap[string, model.Detection], log logze.Logger) {
	content, err := e.vcs.FileContent(ctx, revision, file)
	if err != nil {
		log.Err(err, "file skipped: content read failed",
			"revision", lang.TruncateString(revision, 8), "file", file)
		detections.Set(targetKey(revision, file), model.Detection{
			Inconclusive: true,
			Cause:        err.Error(),
		})
		return
	}

	detection, err := detector.Detect(ctx, model.DetectTarget{
		Revision: revision,
		FilePath: file,
		Content:  content,
	})
	if err != nil {
		log.Err(err, "file skipped: detection failed",
			"revision", lang.TruncateString(revision, 8), "file", file)
		detections.Set(targetKey(revision, file), model.Detection{
			Inconclusive: true,
			Cause:        err.Error(),
		})
		return
	}

	detections.Set(targetKey(revision, file), detection)
}

// groupByRevision buckets records by origin revision, preserving first-seen
// order so evaluation walks each revision exactly once.
func groupByRevision(records []model.GroundTruthRecord) ([]string, map[string][]model.GroundTruthRecord) {
	revisions := model.NewOrderedSet[string]()
	byRevision := make(map[string][]model.GroundTruthRecord)
	for _, record := range records {
		revisions.Add(record.OriginalCommitHash)
		byRevision[record.OriginalCommitHash] = append(byRevision[record.OriginalCommitHash], record)
	}
	return revisions.Values(), byRevision
}

func targetKey(revision, file string) string {
	return revision + "::" + file
}
