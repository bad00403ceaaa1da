// Package agent is the AI detector boundary: a factory over LLM backends
// plus the two operations the benchmark needs, file vulnerability analysis
// and single-CWE inference from a fix message.
package agent

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/maxbolgarin/cliex"
	"github.com/maxbolgarin/errm"
	"github.com/maxbolgarin/lang"
	"github.com/maxbolgarin/logze/v2"
	"github.com/vulnbench/vulnbench/internal/agent/claude"
	"github.com/vulnbench/vulnbench/internal/agent/gemini"
	"github.com/vulnbench/vulnbench/internal/agent/openai"
	"github.com/vulnbench/vulnbench/internal/agent/prompts"
	"github.com/vulnbench/vulnbench/internal/model"
)

// ErrInconclusive marks an analysis the model could not complete because of
// a token or context limit. Absence of a result is not evidence of a missed
// detection, so callers turn this into a skip, never into a false negative.
var ErrInconclusive = errm.New("analysis inconclusive: model resource limit")

type Agent struct {
	cfg    Config
	logger logze.Logger
	pb     *prompts.Builder
	api    model.AgentAPI
}

func New(ctx context.Context, cfg Config) (*Agent, error) {
	if err := cfg.PrepareAndValidate(); err != nil {
		return nil, errm.Wrap(err, "validate config")
	}
	cli, err := cliex.NewWithConfig(cliex.Config{
		BaseURL:        cfg.BaseURL,
		UserAgent:      cfg.UserAgent,
		ProxyAddress:   cfg.ProxyURL,
		RequestTimeout: cfg.Timeout,
	})
	if err != nil {
		return nil, errm.Wrap(err, "failed to create HTTP client")
	}

	agent := &Agent{
		cfg:    cfg,
		logger: logze.With("component", "agent"),
		pb:     prompts.NewBuilder(),
	}

	modelCfg := model.ModelConfig{
		APIKey:   cfg.APIKey,
		Model:    cfg.Model,
		URL:      cfg.BaseURL,
		ProxyURL: cfg.ProxyURL,
		IsTest:   cfg.IsTest,
	}

	switch cfg.Type {
	case Gemini:
		agent.api, err = gemini.New(ctx, modelCfg)
	case OpenAI:
		agent.api, err = openai.New(ctx, cli, modelCfg)
	case Claude:
		agent.api, err = claude.New(ctx, cli, modelCfg)
	default:
		return nil, errm.Errorf("unsupported agent type: %s", cfg.Type)
	}
	if err != nil {
		return nil, errm.Wrap(err, "failed to create agent")
	}

	return agent, nil
}

// AnalyzeFile asks the model to audit one file and returns its structured
// findings. Returns ErrInconclusive when the model hit a resource limit.
func (a *Agent) AnalyzeFile(ctx context.Context, filename, content string) (*model.AIAnalysis, error) {
	response, err := a.apiCall(ctx, a.pb.BuildAnalysisPrompt(filename, content), true)
	if err != nil {
		return nil, errm.Wrap(err, "failed to call API for file analysis")
	}

	result, err := unmarshal[model.AIAnalysis](response)
	if err != nil {
		return nil, errm.Wrap(err, "failed to parse analysis response as JSON")
	}

	return &result, nil
}

// InferCWE infers the single CWE best matching a fix description.
// Returns "" when the model cannot determine one.
func (a *Agent) InferCWE(ctx context.Context, text string) (string, error) {
	response, err := a.apiCall(ctx, a.pb.BuildInferencePrompt(text), true)
	if err != nil {
		return "", errm.Wrap(err, "failed to call API for cwe inference")
	}

	result, err := unmarshal[model.CWEInference](response)
	if err != nil {
		return "", errm.Wrap(err, "failed to parse inference response as JSON")
	}

	return result.CWEID, nil
}

func (a *Agent) apiCall(ctx context.Context, prompt model.Prompt, isJSON bool) (string, error) {
	response, err := a.api.CallAPI(ctx, model.APIRequest{
		Prompt:       prompt.UserPrompt,
		SystemPrompt: prompt.SystemPrompt,
		MaxTokens:    a.cfg.MaxTokens,
		Temperature:  a.cfg.Temperature,
		ResponseType: lang.If(isJSON, "application/json", "text/plain"),
	})
	if err != nil {
		if isResourceLimitError(err) {
			return "", ErrInconclusive
		}
		return "", errm.Wrap(err, "failed to call API")
	}

	if response.Truncated {
		return "", ErrInconclusive
	}
	if response.Content == "" {
		return "", errm.New("empty response from API")
	}

	return response.Content, nil
}

// isResourceLimitError recognizes backend errors caused by prompt size
// rather than by the service or the request being broken.
func isResourceLimitError(err error) bool {
	msg := strings.ToLower(err.Error())
	for _, marker := range []string{
		"context length",
		"context window",
		"maximum context",
		"token limit",
		"too many tokens",
		"input token count",
		"prompt is too long",
	} {
		if strings.Contains(msg, marker) {
			return true
		}
	}
	return false
}

func unmarshal[T any](response string) (T, error) {
	var result T

	// Clean up response
	response = strings.TrimSpace(response)
	response = strings.TrimPrefix(response, "```")
	response = strings.TrimPrefix(response, "json")
	response = strings.TrimSuffix(response, "```")

	// Find JSON boundaries
	start := strings.Index(response, "{")
	end := strings.LastIndex(response, "}")

	if start == -1 || end == -1 || end <= start {
		return result, errm.New("no valid JSON found in response")
	}

	jsonStr := response[start : end+1]

	if err := json.Unmarshal([]byte(jsonStr), &result); err != nil {
		return result, errm.Wrap(err, "failed to parse JSON response")
	}

	return result, nil
}
