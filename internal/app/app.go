// Package app wires the components together and runs the benchmark phases.
package app

import (
	"context"

	"github.com/maxbolgarin/contem"
	"github.com/maxbolgarin/errm"
	"github.com/maxbolgarin/logze/v2"

	"github.com/vulnbench/vulnbench/internal/agent"
	"github.com/vulnbench/vulnbench/internal/bench"
	"github.com/vulnbench/vulnbench/internal/changereq"
	"github.com/vulnbench/vulnbench/internal/classifier"
	"github.com/vulnbench/vulnbench/internal/config"
	"github.com/vulnbench/vulnbench/internal/detector"
	"github.com/vulnbench/vulnbench/internal/diffscan"
	"github.com/vulnbench/vulnbench/internal/gitrepo"
	"github.com/vulnbench/vulnbench/internal/groundtruth"
	"github.com/vulnbench/vulnbench/internal/model"
	"github.com/vulnbench/vulnbench/internal/origin"
	"github.com/vulnbench/vulnbench/internal/server"
	"github.com/vulnbench/vulnbench/internal/staticscan"
	"github.com/vulnbench/vulnbench/internal/store"
)

// VulnBench is the main service that orchestrates all components. The heavy
// collaborators are created lazily per phase: serving results must not
// require an AI API key or a reachable scan service.
type VulnBench struct {
	cfg config.Config
	log logze.Logger

	store *store.SQLite
	repo  *gitrepo.Repository
	agent *agent.Agent
}

// New creates the benchmark service and opens the results store.
func New(ctx contem.Context, cfg config.Config) (*VulnBench, error) {
	if err := cfg.Validate(); err != nil {
		return nil, errm.Wrap(err, "invalid config")
	}

	db, err := store.New(ctx, cfg.DatabasePath)
	if err != nil {
		return nil, errm.Wrap(err, "open results store")
	}
	ctx.Add(func(context.Context) error { return db.Close() })

	return &VulnBench{
		cfg:   cfg,
		log:   logze.With("component", "app"),
		store: db,
	}, nil
}

// RunExtract mines the repository history and builds ground truth.
func (s *VulnBench) RunExtract(ctx context.Context) error {
	repo, err := s.ensureRepo(ctx)
	if err != nil {
		return err
	}

	cls, err := s.ensureClassifier(ctx)
	if err != nil {
		return err
	}

	tieBreak, err := origin.NewTieBreak(s.cfg.Bench.TieBreak, repo)
	if err != nil {
		return errm.Wrap(err, "create tie-break strategy")
	}

	lookup, err := changereq.NewLookup(s.cfg.ChangeRequest)
	if err != nil {
		return errm.Wrap(err, "create change request lookup")
	}

	extractor := bench.NewExtractor(
		repo,
		cls,
		diffscan.NewAnalyzer(),
		origin.NewResolver(repo, tieBreak),
		groundtruth.NewBuilder(s.store, lookup),
	)

	report, err := extractor.Run(ctx, s.cfg.Bench.CommitLimit)
	if err != nil {
		return errm.Wrap(err, "run extraction")
	}

	s.log.Info("ground truth ready",
		"commits", report.CommitsScanned, "fixes", report.FixesFound, "records", report.Records)
	return nil
}

// RunDetect evaluates the configured detectors against stored ground truth.
func (s *VulnBench) RunDetect(ctx context.Context) error {
	repo, err := s.ensureRepo(ctx)
	if err != nil {
		return err
	}

	detectors, err := s.buildDetectors(ctx, repo)
	if err != nil {
		return err
	}

	evaluator, err := bench.NewEvaluator(repo, s.store, detectors, s.cfg.Bench.Concurrency)
	if err != nil {
		return errm.Wrap(err, "create evaluator")
	}
	defer evaluator.Close()

	summaries, err := evaluator.Run(ctx)
	if err != nil {
		return errm.Wrap(err, "run evaluation")
	}

	for _, summary := range summaries {
		s.log.Info("benchmark summary",
			"detector", summary.Detector,
			"tp", summary.TruePositive,
			"fp", summary.FalsePositive,
			"fn", summary.FalseNegative,
			"skipped", summary.Skipped,
		)
	}
	return nil
}

// RunServe starts the results server.
func (s *VulnBench) RunServe(ctx contem.Context) error {
	srv, err := server.New(s.cfg.Server, s.store)
	if err != nil {
		return errm.Wrap(err, "create results server")
	}
	ctx.Add(srv.Stop)

	if err := srv.Start(ctx); err != nil {
		return errm.Wrap(err, "start results server")
	}

	<-ctx.Done()
	return nil
}

func (s *VulnBench) ensureRepo(ctx context.Context) (*gitrepo.Repository, error) {
	if s.repo != nil {
		return s.repo, nil
	}
	if err := s.cfg.Repo.PrepareAndValidate(); err != nil {
		return nil, errm.Wrap(err, "invalid repo config")
	}
	repo, err := gitrepo.Open(ctx, s.cfg.Repo)
	if err != nil {
		return nil, errm.Wrap(err, "open repository")
	}
	s.repo = repo
	return repo, nil
}

func (s *VulnBench) ensureAgent(ctx context.Context) (*agent.Agent, error) {
	if s.agent != nil {
		return s.agent, nil
	}
	if err := s.cfg.Agent.PrepareAndValidate(); err != nil {
		return nil, errm.Wrap(err, "invalid agent config")
	}
	ag, err := agent.New(ctx, s.cfg.Agent)
	if err != nil {
		return nil, errm.Wrap(err, "create AI agent")
	}
	s.agent = ag
	return ag, nil
}

func (s *VulnBench) ensureClassifier(ctx context.Context) (*classifier.Classifier, error) {
	ag, err := s.ensureAgent(ctx)
	if err != nil {
		return nil, err
	}
	return classifier.New(ag), nil
}

// buildDetectors creates the detectors selected by config.
func (s *VulnBench) buildDetectors(ctx context.Context, repo *gitrepo.Repository) ([]model.Detector, error) {
	wantAI := s.cfg.Bench.Detector == bench.DetectorAll || s.cfg.Bench.Detector == string(model.DetectorAI)
	wantStatic := s.cfg.Bench.Detector == bench.DetectorAll || s.cfg.Bench.Detector == string(model.DetectorStatic)

	cls, err := s.ensureClassifier(ctx)
	if err != nil {
		return nil, err
	}
	norm := detector.NewNormalizer(cls)

	var detectors []model.Detector
	if wantAI {
		ag, err := s.ensureAgent(ctx)
		if err != nil {
			return nil, err
		}
		detectors = append(detectors, detector.NewAIDetector(ag, norm))
	}
	if wantStatic {
		if err := s.cfg.StaticScan.PrepareAndValidate(); err != nil {
			return nil, errm.Wrap(err, "invalid static scan config")
		}
		workTree, err := repo.WorkTreePath()
		if err != nil {
			return nil, errm.Wrap(err, "resolve work tree")
		}
		scanner, err := staticscan.New(s.cfg.StaticScan, workTree)
		if err != nil {
			return nil, errm.Wrap(err, "create static scan client")
		}
		detectors = append(detectors, detector.NewStaticDetector(scanner, repo, norm))
	}
	return detectors, nil
}
