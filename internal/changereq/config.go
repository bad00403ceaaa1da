package changereq

import (
	"slices"
	"strings"

	"github.com/maxbolgarin/erro"
)

// ProviderType represents the type of source-hosting platform
type ProviderType string

const (
	GitHub ProviderType = "github"
	GitLab ProviderType = "gitlab"
	None   ProviderType = "none"
)

var supportedProviderTypes = []ProviderType{GitHub, GitLab, None}

// Config represents change-request lookup configuration. Project is the
// platform-side identifier of the mined repository ("owner/repo" for GitHub,
// path or numeric id for GitLab).
type Config struct {
	Type    ProviderType `yaml:"type" env:"CHANGE_REQUEST_TYPE"`
	BaseURL string       `yaml:"base_url" env:"CHANGE_REQUEST_BASE_URL"`
	Token   string       `yaml:"token" env:"CHANGE_REQUEST_TOKEN"`
	Project string       `yaml:"project" env:"CHANGE_REQUEST_PROJECT"`
}

func (c *Config) PrepareAndValidate() error {
	if c.Type == "" {
		c.Type = None
	}
	if !slices.Contains(supportedProviderTypes, c.Type) {
		return erro.New("invalid change request provider type: %s", c.Type)
	}
	if c.Type == None {
		return nil
	}

	if c.Token == "" {
		return erro.New("%s token is required", c.Type)
	}
	if c.Project == "" {
		return erro.New("%s project is required", c.Type)
	}
	if c.Type == GitHub && len(strings.Split(c.Project, "/")) != 2 {
		return erro.New("github project must be in owner/repo form: %s", c.Project)
	}

	return nil
}
