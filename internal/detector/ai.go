package detector

import (
	"context"
	"errors"

	"github.com/maxbolgarin/errm"
	"github.com/vulnbench/vulnbench/internal/agent"
	"github.com/vulnbench/vulnbench/internal/model"
)

// AIDetector runs the model-backed analyzer over a single file and maps its
// output to the uniform Detection shape. A resource-limit answer from the
// model is reported as inconclusive rather than as an empty result, so the
// file is skipped instead of counted as a miss.
type AIDetector struct {
	agent *agent.Agent
	norm  *Normalizer
}

// NewAIDetector creates an AI-backed detector.
func NewAIDetector(ag *agent.Agent, norm *Normalizer) *AIDetector {
	return &AIDetector{agent: ag, norm: norm}
}

// Kind implements model.Detector.
func (d *AIDetector) Kind() model.DetectorKind {
	return model.DetectorAI
}

// Detect implements model.Detector.
func (d *AIDetector) Detect(ctx context.Context, target model.DetectTarget) (model.Detection, error) {
	analysis, err := d.agent.AnalyzeFile(ctx, target.FilePath, target.Content)
	if err != nil {
		if errors.Is(err, agent.ErrInconclusive) {
			return model.Detection{
				Inconclusive: true,
				Cause:        err.Error(),
			}, nil
		}
		return model.Detection{}, errm.Wrap(err, "analyze file", "file", target.FilePath)
	}

	return model.Detection{
		Findings: d.norm.FromAI(target.FilePath, analysis),
	}, nil
}
