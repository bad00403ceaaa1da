// Package detector unifies the heterogeneous detector outputs behind the
// Finding representation and adapts each detector to the Detector interface,
// so the classification engine never branches on detector identity.
package detector

import (
	"context"
	"strings"

	"github.com/maxbolgarin/logze/v2"
	"github.com/vulnbench/vulnbench/internal/model"
)

// Normalizer maps detector-specific output shapes into ordered Finding
// sequences with comparable CWE identifiers.
type Normalizer struct {
	classifier model.SecurityMessageClassifier
	log        logze.Logger
}

// NewNormalizer creates a normalizer. The classifier supplies single-CWE
// inference for static issues that carry no CWE of their own.
func NewNormalizer(classifier model.SecurityMessageClassifier) *Normalizer {
	return &Normalizer{
		classifier: classifier,
		log:        logze.With("component", "normalizer"),
	}
}

// FromAI maps an AI analysis to Findings, preserving the reported order.
func (n *Normalizer) FromAI(filePath string, analysis *model.AIAnalysis) []model.Finding {
	if analysis == nil {
		return nil
	}
	findings := make([]model.Finding, 0, len(analysis.Vulnerabilities))
	for _, vuln := range analysis.Vulnerabilities {
		findings = append(findings, model.Finding{
			CWEID:       model.CanonicalCWE(vuln.CWEID),
			FilePath:    filePath,
			Lines:       vuln.Lines,
			Description: vuln.Description,
		})
	}
	return findings
}

// FromStatic maps the issues of one file to Findings, preserving the
// reported order. Issues without a CWE go through single-CWE inference on
// their message; an issue the classifier cannot map keeps an empty CWE, so
// it can still represent a false positive but never a match.
func (n *Normalizer) FromStatic(ctx context.Context, filePath string, issues []model.StaticIssue) []model.Finding {
	findings := make([]model.Finding, 0, len(issues))
	for _, issue := range issues {
		cwe := model.CanonicalCWE(issue.CWEID)
		if cwe == "" && issue.Message != "" {
			inferred, err := n.classifier.InferCWE(ctx, issue.Message)
			if err != nil {
				n.log.Err(err, "cwe inference for static issue failed", "file", filePath, "rule", issue.RuleID)
			} else {
				cwe = model.CanonicalCWE(inferred)
			}
		}

		var lines []int
		if issue.Line > 0 {
			lines = []int{issue.Line}
		}

		findings = append(findings, model.Finding{
			CWEID:       cwe,
			FilePath:    filePath,
			Lines:       lines,
			Description: issue.Message,
		})
	}
	return findings
}

// ComponentPath strips the static analyzer's project prefix from an issue
// component ("project:dir/file.go" -> "dir/file.go").
func ComponentPath(component string) string {
	if idx := strings.LastIndex(component, ":"); idx >= 0 {
		return component[idx+1:]
	}
	return component
}
