package staticscan

import (
	"time"

	"github.com/maxbolgarin/erro"
	"github.com/maxbolgarin/lang"
)

const (
	defaultPollInterval   = 5 * time.Second
	defaultScanTimeout    = 15 * time.Minute
	defaultRequestTimeout = 30 * time.Second
	defaultProjectKey     = "vulnbench"
)

// Config represents static-analysis service configuration
type Config struct {
	BaseURL        string        `yaml:"base_url" env:"STATIC_SCAN_BASE_URL"`
	Token          string        `yaml:"token" env:"STATIC_SCAN_TOKEN"`
	ProjectKey     string        `yaml:"project_key" env:"STATIC_SCAN_PROJECT_KEY"`
	PollInterval   time.Duration `yaml:"poll_interval" env:"STATIC_SCAN_POLL_INTERVAL"`
	ScanTimeout    time.Duration `yaml:"scan_timeout" env:"STATIC_SCAN_TIMEOUT"`
	RequestTimeout time.Duration `yaml:"request_timeout" env:"STATIC_SCAN_REQUEST_TIMEOUT"`
}

func (c *Config) PrepareAndValidate() error {
	if c.BaseURL == "" {
		return erro.New("static-analysis service base url is required")
	}

	c.ProjectKey = lang.Check(c.ProjectKey, defaultProjectKey)
	c.PollInterval = lang.Check(c.PollInterval, defaultPollInterval)
	c.ScanTimeout = lang.Check(c.ScanTimeout, defaultScanTimeout)
	c.RequestTimeout = lang.Check(c.RequestTimeout, defaultRequestTimeout)

	return nil
}
