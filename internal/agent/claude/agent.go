package claude

import (
	"context"
	"strings"
	"time"

	"github.com/maxbolgarin/cliex"
	"github.com/maxbolgarin/errm"
	"github.com/maxbolgarin/lang"
	"github.com/vulnbench/vulnbench/internal/model"
)

const (
	defaultModel   = "claude-sonnet-4-20250514"
	defaultBaseURL = "https://api.anthropic.com/v1/messages"
)

var _ model.AgentAPI = (*Agent)(nil)

// Agent implements the AgentAPI interface using the Claude API
type Agent struct {
	cfg model.ModelConfig
	cli *cliex.HTTP
}

// New creates a new Claude agent
func New(ctx context.Context, cli *cliex.HTTP, cfg model.ModelConfig) (*Agent, error) {
	if cfg.APIKey == "" {
		return nil, errm.New("Claude API key is required")
	}
	cfg.Model = lang.Check(cfg.Model, defaultModel)
	cfg.URL = lang.Check(cfg.URL, defaultBaseURL)

	cli.C().SetHeader("x-api-key", cfg.APIKey)
	cli.C().SetHeader("anthropic-version", "2023-06-01")

	agent := &Agent{
		cfg: cfg,
		cli: cli,
	}

	// Test connection
	if cfg.IsTest {
		if err := agent.testConnection(ctx); err != nil {
			return nil, errm.Wrap(err, "failed to connect to Claude API")
		}
	}

	return agent, nil
}

// CallAPI makes a request to the Claude API
func (a *Agent) CallAPI(ctx context.Context, req model.APIRequest) (model.APIResponse, error) {
	reqBody := messagesRequest{
		Model:       a.cfg.Model,
		System:      req.SystemPrompt,
		MaxTokens:   req.MaxTokens,
		Temperature: req.Temperature,
		Messages: []message{
			{
				Role:    "user",
				Content: req.Prompt,
			},
		},
	}

	var respBody messagesResponse
	_, err := a.cli.Post(ctx, a.cfg.URL, reqBody, &respBody)
	if err != nil {
		return model.APIResponse{}, errm.Wrap(err, "failed to make API request")
	}

	// Check for API errors
	if respBody.Error != nil {
		return model.APIResponse{}, errm.Errorf("Claude API error: %s", respBody.Error.Message)
	}

	// Extract response
	if len(respBody.Content) == 0 {
		return model.APIResponse{}, errm.New("no content in response")
	}

	var responseText strings.Builder
	for _, c := range respBody.Content {
		if c.Type == "text" {
			responseText.WriteString(c.Text)
		}
	}

	content := strings.TrimSpace(responseText.String())
	out := model.APIResponse{
		CreateTime:       time.Now(),
		Content:          content,
		PromptTokens:     respBody.Usage.InputTokens,
		CompletionTokens: respBody.Usage.OutputTokens,
		TotalTokens:      respBody.Usage.InputTokens + respBody.Usage.OutputTokens,
		Truncated:        respBody.StopReason == "max_tokens",
	}

	return out, nil
}

// testConnection tests the connection to the Claude API
func (a *Agent) testConnection(ctx context.Context) error {
	testPrompt := "Respond with 'OK' if you can understand this message."

	_, err := a.CallAPI(ctx, model.APIRequest{
		Prompt:      testPrompt,
		MaxTokens:   10,
		Temperature: 0.5,
	})
	if err != nil {
		return errm.Wrap(err, "connection test failed")
	}
	return nil
}
