package bench

import (
	"slices"

	"github.com/maxbolgarin/erro"
	"github.com/maxbolgarin/lang"
)

const (
	defaultConcurrency = 4

	// DetectorAll selects every configured detector.
	DetectorAll = "all"
)

var supportedDetectors = []string{DetectorAll, "ai", "static"}

// Config represents benchmark run configuration.
type Config struct {
	// CommitLimit caps how many commits the extraction phase walks, newest
	// first. Zero means the full history.
	CommitLimit int `yaml:"commit_limit" env:"BENCH_COMMIT_LIMIT"`

	// Concurrency bounds parallel per-file detector calls inside one
	// pinned revision.
	Concurrency int `yaml:"concurrency" env:"BENCH_CONCURRENCY"`

	// Detector selects which detectors the evaluation phase runs:
	// "ai", "static" or "all".
	Detector string `yaml:"detector" env:"BENCH_DETECTOR"`

	// TieBreak names the strategy for picking one origin commit when blame
	// attributes the remediated lines to several: "earliest" or "lexical".
	TieBreak string `yaml:"tie_break" env:"BENCH_TIE_BREAK"`
}

func (c *Config) PrepareAndValidate() error {
	c.Concurrency = lang.Check(c.Concurrency, defaultConcurrency)
	c.Detector = lang.Check(c.Detector, DetectorAll)

	if !slices.Contains(supportedDetectors, c.Detector) {
		return erro.New("invalid detector: %s", c.Detector)
	}
	if c.CommitLimit < 0 {
		return erro.New("commit limit must not be negative: %d", c.CommitLimit)
	}

	return nil
}
