// Package classifier decides whether a commit message describes a security
// fix and maps it to CWE identifiers.
package classifier

import (
	"context"
	"regexp"
	"strings"

	"github.com/maxbolgarin/errm"
	"github.com/maxbolgarin/logze/v2"
	"github.com/vulnbench/vulnbench/internal/model"
)

var _ model.SecurityMessageClassifier = (*Classifier)(nil)

var explicitCWERegex = regexp.MustCompile(`(?i)\bCWE[-_ ]?(\d{1,5})\b`)

// CWEInferrer infers a single CWE identifier from free-form text. The AI
// agent implements it; the classifier falls back to it when a message is
// security-related but pattern matching yields no CWE.
type CWEInferrer interface {
	InferCWE(ctx context.Context, text string) (string, error)
}

// Classifier classifies commit messages using an ordered indicator table,
// with an optional inference fallback for messages the table cannot map.
type Classifier struct {
	inferrer CWEInferrer
	log      logze.Logger
}

// New creates a classifier. The inferrer may be nil; without it, messages
// that are security-related but unmapped yield zero CWEs.
func New(inferrer CWEInferrer) *Classifier {
	return &Classifier{
		inferrer: inferrer,
		log:      logze.With("component", "classifier"),
	}
}

// Classify inspects a fix message. Explicit CWE references win; otherwise
// the indicator table accumulates CWEs in table order; otherwise a message
// that still looks security-related goes through single-CWE inference.
func (c *Classifier) Classify(ctx context.Context, message string) (model.MessageClassification, error) {
	lower := strings.ToLower(message)

	cwes := model.NewOrderedSet[string]()
	types := model.NewOrderedSet[string]()

	for _, match := range explicitCWERegex.FindAllStringSubmatch(message, -1) {
		cwes.Add(model.CanonicalCWE(match[1]))
	}

	for _, ind := range indicators {
		for _, keyword := range ind.keywords {
			if strings.Contains(lower, keyword) {
				cwes.Add(ind.cweID)
				types.Add(ind.vulnType)
				break
			}
		}
	}

	securityRelated := !cwes.IsEmpty()
	if !securityRelated {
		for _, keyword := range securityKeywords {
			if strings.Contains(lower, keyword) {
				securityRelated = true
				break
			}
		}
	}

	if securityRelated && cwes.IsEmpty() && c.inferrer != nil {
		inferred, err := c.InferCWE(ctx, message)
		if err != nil {
			// Inference failure means no record for this fix, not a failed run.
			c.log.Err(err, "cwe inference fallback failed")
		} else if inferred != "" {
			cwes.Add(inferred)
		}
	}

	return model.MessageClassification{
		SecurityRelated:    securityRelated,
		CWEIDs:             cwes.Values(),
		VulnerabilityTypes: types.Values(),
	}, nil
}

// InferCWE delegates single-CWE inference to the configured inferrer and
// canonicalizes the result.
func (c *Classifier) InferCWE(ctx context.Context, text string) (string, error) {
	if c.inferrer == nil {
		return "", nil
	}
	raw, err := c.inferrer.InferCWE(ctx, text)
	if err != nil {
		return "", errm.Wrap(err, "infer cwe")
	}
	return model.CanonicalCWE(raw), nil
}
