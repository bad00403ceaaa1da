package model

import (
	"context"
	"time"
)

// ModelConfig represents model-specific configuration
type ModelConfig struct {
	APIKey   string
	Model    string
	URL      string
	ProxyURL string
	IsTest   bool
}

// APIRequest represents a request to an LLM API
type APIRequest struct {
	Prompt       string
	SystemPrompt string
	MaxTokens    int
	Temperature  float32
	URL          string
	ResponseType string
}

// APIResponse represents a response from an LLM API. Truncated is set when
// the backend stopped generating because of a token or context limit.
type APIResponse struct {
	CreateTime       time.Time
	Content          string
	PromptTokens     int
	CompletionTokens int
	TotalTokens      int
	Truncated        bool
}

// Prompt represents a structured prompt for LLM
type Prompt struct {
	SystemPrompt string
	UserPrompt   string
}

// AgentAPI is the backend boundary shared by all LLM providers.
type AgentAPI interface {
	CallAPI(ctx context.Context, req APIRequest) (APIResponse, error)
}

// AIAnalysis is the structured result of an AI vulnerability analysis of one file.
type AIAnalysis struct {
	Vulnerabilities []AIVulnerability `json:"vulnerabilities"`
}

// AIVulnerability is one vulnerability reported by the AI detector.
type AIVulnerability struct {
	CWEID       string `json:"cwe_id"`
	Lines       []int  `json:"line_numbers"`
	Description string `json:"description"`
}

// CWEInference is the structured result of single-CWE message inference.
type CWEInference struct {
	CWEID string `json:"cwe_id"`
}
