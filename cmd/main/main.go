package main

import (
	"github.com/alecthomas/kingpin/v2"
	"github.com/maxbolgarin/contem"
	"github.com/maxbolgarin/erro"
	"github.com/maxbolgarin/logze/v2"

	"github.com/vulnbench/vulnbench/internal/app"
)

var (
	Version, Branch, Commit, BuildDate string
)

var (
	configPath = kingpin.Flag("config", "path to config file").Short('c').String()
	repo       = kingpin.Flag("repo", "path or URL of the repository to benchmark").String()
	limit      = kingpin.Flag("limit", "max commits to scan, 0 means full history").Int()
	detectorFl = kingpin.Flag("detector", "detector to evaluate: ai, static or all").String()

	extractCmd = kingpin.Command("extract", "mine the repository history and build ground truth")
	detectCmd  = kingpin.Command("detect", "run detectors against stored ground truth")
	serveCmd   = kingpin.Command("serve", "serve stored benchmark results over HTTP")
	runCmd     = kingpin.Command("run", "extract then detect in one go").Default()
)

func main() {
	command := kingpin.Parse()

	var err error
	ctx := contem.New(contem.WithLogger(logze.DefaultPtr()), contem.Exit(&err))
	defer ctx.Shutdown()

	err = run(ctx, command)
	if err != nil {
		logze.DefaultPtr().Error("cannot run", "error", err)
	}
}

func run(ctx contem.Context, command string) error {
	cfg, err := app.LoadConfig(*configPath)
	if err != nil {
		return erro.Wrap(err, "load config")
	}
	logze.Init(logze.C().WithConsole().WithLevel(logze.LevelDebug))

	// CLI flags win over file and environment values
	if *repo != "" {
		cfg.Repo.Locator = *repo
	}
	if *limit > 0 {
		cfg.Bench.CommitLimit = *limit
	}
	if *detectorFl != "" {
		cfg.Bench.Detector = *detectorFl
	}

	vulnbench, err := app.New(ctx, cfg)
	if err != nil {
		return erro.Wrap(err, "new service")
	}

	switch command {
	case extractCmd.FullCommand():
		return vulnbench.RunExtract(ctx)

	case detectCmd.FullCommand():
		return vulnbench.RunDetect(ctx)

	case serveCmd.FullCommand():
		return vulnbench.RunServe(ctx)

	case runCmd.FullCommand():
		if err := vulnbench.RunExtract(ctx); err != nil {
			return erro.Wrap(err, "extract phase")
		}
		if err := vulnbench.RunDetect(ctx); err != nil {
			return erro.Wrap(err, "detect phase")
		}
		return nil

	default:
		return erro.New("unknown command: %s", command)
	}
}
