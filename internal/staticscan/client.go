// Package staticscan is the client for the static-analysis service. The
// service scans a checked-out working tree and reports issues per file; the
// client triggers a scan for a revision and polls until it completes.
package staticscan

import (
	"context"
	"time"

	"github.com/maxbolgarin/cliex"
	"github.com/maxbolgarin/errm"
	"github.com/maxbolgarin/logze/v2"
	"github.com/vulnbench/vulnbench/internal/model"
)

var _ model.StaticAnalysisProvider = (*Client)(nil)

// Client implements StaticAnalysisProvider over the service's REST API.
type Client struct {
	cli      *cliex.HTTP
	cfg      Config
	workTree string
	log      logze.Logger
}

// New creates a new static-analysis client. workTree is the path the service
// scans; callers must have checked out the target revision before Scan.
func New(cfg Config, workTree string) (*Client, error) {
	if err := cfg.PrepareAndValidate(); err != nil {
		return nil, errm.Wrap(err, "validate config")
	}

	cli, err := cliex.NewWithConfig(cliex.Config{
		BaseURL:        cfg.BaseURL,
		RequestTimeout: cfg.RequestTimeout,
	})
	if err != nil {
		return nil, errm.Wrap(err, "failed to create HTTP client")
	}
	if cfg.Token != "" {
		cli.C().SetAuthToken(cfg.Token)
	}

	return &Client{
		cli:      cli,
		cfg:      cfg,
		workTree: workTree,
		log:      logze.With("component", "staticscan"),
	}, nil
}

// Scan triggers a scan of the working tree at the given revision and blocks
// until the service reports completion, then returns the issues.
func (c *Client) Scan(ctx context.Context, revision string) ([]model.StaticIssue, error) {
	scan, err := c.trigger(ctx, revision)
	if err != nil {
		return nil, err
	}

	scan, err = c.await(ctx, scan.ID)
	if err != nil {
		return nil, err
	}

	issues := make([]model.StaticIssue, 0, len(scan.Issues))
	for _, issue := range scan.Issues {
		issues = append(issues, model.StaticIssue{
			FilePath: issue.Component,
			RuleID:   issue.Rule,
			CWEID:    issue.CWE,
			Message:  issue.Message,
			Line:     issue.Line,
		})
	}

	c.log.Debug("scan completed", "revision", revision, "issues", len(issues))

	return issues, nil
}

func (c *Client) trigger(ctx context.Context, revision string) (*scanResponse, error) {
	req := scanRequest{
		ProjectKey: c.cfg.ProjectKey,
		Path:       c.workTree,
		Revision:   revision,
	}

	var resp scanResponse
	_, err := c.cli.Post(ctx, "/api/v1/scans", req, &resp)
	if err != nil {
		return nil, errm.Wrap(err, "failed to trigger scan")
	}
	if resp.ID == "" {
		return nil, errm.New("scan service returned no scan id")
	}

	return &resp, nil
}

func (c *Client) await(ctx context.Context, scanID string) (*scanResponse, error) {
	deadline := time.NewTimer(c.cfg.ScanTimeout)
	defer deadline.Stop()
	tick := time.NewTicker(c.cfg.PollInterval)
	defer tick.Stop()

	for {
		var resp scanResponse
		_, err := c.cli.Get(ctx, "/api/v1/scans/"+scanID, &resp)
		if err != nil {
			return nil, errm.Wrap(err, "failed to poll scan")
		}

		switch resp.Status {
		case scanStatusCompleted:
			return &resp, nil
		case scanStatusFailed:
			return nil, errm.Errorf("scan failed: %s", resp.Message)
		}

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-deadline.C:
			return nil, errm.Errorf("scan did not complete within %s", c.cfg.ScanTimeout)
		case <-tick.C:
		}
	}
}
