package pipeline

import (
	"context"
	"log/slog"

	"github.com/couchcryptid/storm-dashboard/internal/domain"
)

// RainTransformer implements Transformer with the domain classifier.
type RainTransformer struct {
	logger *slog.Logger
}

// NewTransformer creates a RainTransformer.
func NewTransformer(logger *slog.Logger) *RainTransformer {
	return &RainTransformer{logger: logger}
}

func (t *RainTransformer) Transform(_ context.Context, env domain.RainEnvelope) ([]domain.ClassifiedRainFeature, error) {
	if env.Skipped > 0 {
		t.logger.Debug("rain samples skipped", "skipped", env.Skipped)
	}
	return domain.Classify(env.Samples), nil
}
