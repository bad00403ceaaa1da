// Package prompts builds the prompts the benchmark sends to LLM backends.
package prompts

import (
	"fmt"

	"github.com/vulnbench/vulnbench/internal/model"
)

var analysisSystemPrompt = `
You are an expert application security auditor performing static review of source code.

Your task is to analyze a single source file and report every security vulnerability you find.

CORE PRINCIPLES:
- Report only real, exploitable weaknesses, not style issues or hypothetical hardening
- Classify every finding with the most specific CWE identifier that applies
- Reference the exact 1-based line numbers where the vulnerable code lives
- Keep each description to one or two sentences focused on the weakness itself
- If the file contains no vulnerabilities, return an empty list

OUTPUT FORMAT:
Respond with a single JSON object and nothing else:
{
  "vulnerabilities": [
    {
      "cwe_id": "CWE-89",
      "line_numbers": [42, 43],
      "description": "User input is concatenated into the SQL query without parameterization."
    }
  ]
}
`

var analysisUserPromptTemplate = `Analyze the following file for security vulnerabilities.

File: %s

Content:
%s
`

var inferenceSystemPrompt = `
You are an expert in software vulnerability taxonomy.

Given the description of a security fix, identify the single CWE identifier that best
matches the weakness being fixed.

OUTPUT FORMAT:
Respond with a single JSON object and nothing else:
{
  "cwe_id": "CWE-89"
}

If no CWE can be determined, respond with:
{
  "cwe_id": ""
}
`

var inferenceUserPromptTemplate = `Identify the CWE for the weakness fixed by this change:

%s
`

// Builder builds prompts for the agent operations.
type Builder struct{}

// NewBuilder creates a new prompt builder.
func NewBuilder() *Builder {
	return &Builder{}
}

// BuildAnalysisPrompt builds the vulnerability analysis prompt for one file.
func (b *Builder) BuildAnalysisPrompt(filename, content string) model.Prompt {
	return model.Prompt{
		SystemPrompt: analysisSystemPrompt,
		UserPrompt:   fmt.Sprintf(analysisUserPromptTemplate, filename, content),
	}
}

// BuildInferencePrompt builds the single-CWE inference prompt for a fix message.
func (b *Builder) BuildInferencePrompt(text string) model.Prompt {
	return model.Prompt{
		SystemPrompt: inferenceSystemPrompt,
		UserPrompt:   fmt.Sprintf(inferenceUserPromptTemplate, text),
	}
}
