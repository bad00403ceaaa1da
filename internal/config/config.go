// Package config aggregates the configuration of every component behind one
// struct loadable from a YAML file and environment variables.
package config

import (
	"github.com/vulnbench/vulnbench/internal/agent"
	"github.com/vulnbench/vulnbench/internal/bench"
	"github.com/vulnbench/vulnbench/internal/changereq"
	"github.com/vulnbench/vulnbench/internal/gitrepo"
	"github.com/vulnbench/vulnbench/internal/server"
	"github.com/vulnbench/vulnbench/internal/staticscan"
)

const defaultDatabasePath = "vulnbench.db"

// Config represents the main application configuration
type Config struct {
	Repo          gitrepo.Config    `yaml:"repo"`
	Agent         agent.Config      `yaml:"agent"`
	StaticScan    staticscan.Config `yaml:"static_scan"`
	ChangeRequest changereq.Config  `yaml:"change_request"`
	Bench         bench.Config      `yaml:"bench"`
	Server        server.Config     `yaml:"server"`

	DatabasePath string `yaml:"database_path" env:"DATABASE_PATH"`
}

// Validate validates the parts of the configuration every phase needs.
// Component configs get their own PrepareAndValidate when the component is
// actually constructed: the serve phase must not require an agent API key.
func (c *Config) Validate() error {
	if c.Repo.Locator == "" {
		return ErrMissingRepoLocator
	}
	if c.DatabasePath == "" {
		c.DatabasePath = defaultDatabasePath
	}
	if err := c.Bench.PrepareAndValidate(); err != nil {
		return err
	}
	return nil
}
