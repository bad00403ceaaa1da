package gitrepo

import (
	"github.com/maxbolgarin/erro"
	"github.com/maxbolgarin/lang"
)

const defaultWorkDirPattern = "vulnbench-repo-*"

// Config represents mined-repository configuration. Locator is either a path
// to an existing local clone or a URL to clone from.
type Config struct {
	Locator string `yaml:"locator" env:"REPO_LOCATOR"`
	WorkDir string `yaml:"work_dir" env:"REPO_WORK_DIR"`
	Branch  string `yaml:"branch" env:"REPO_BRANCH"`
	Token   string `yaml:"token" env:"REPO_TOKEN"`
}

func (c *Config) PrepareAndValidate() error {
	if c.Locator == "" {
		return erro.New("repository locator is required")
	}
	c.WorkDir = lang.Check(c.WorkDir, "")
	return nil
}
