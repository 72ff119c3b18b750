// Package pipeline runs the rain grid feed: extract the realtime grid,
// classify it, and load the features into the map layer.
package pipeline

import (
	"context"
	"errors"
	"log/slog"
	"strconv"
	"sync/atomic"
	"time"

	"github.com/couchcryptid/storm-dashboard/internal/domain"
	"github.com/couchcryptid/storm-dashboard/internal/observability"
	"github.com/jonboulle/clockwork"
)

// Extractor fetches and decodes one rain grid.
type Extractor interface {
	Extract(ctx context.Context) (domain.RainEnvelope, error)
}

// Transformer classifies a decoded grid.
type Transformer interface {
	Transform(ctx context.Context, env domain.RainEnvelope) ([]domain.ClassifiedRainFeature, error)
}

// Loader hands classified features to the map.
type Loader interface {
	Load(ctx context.Context, features []domain.ClassifiedRainFeature) error
}

// Option configures a Pipeline.
type Option func(*Pipeline)

// WithClock sets the refresh ticker's clock.
func WithClock(c clockwork.Clock) Option {
	return func(p *Pipeline) {
		p.clock = c
	}
}

// Pipeline orchestrates the rain extract-transform-load cycle.
type Pipeline struct {
	extractor   Extractor
	transformer Transformer
	loader      Loader
	logger      *slog.Logger
	metrics     *observability.Metrics
	clock       clockwork.Clock
	interval    time.Duration
	ready       atomic.Bool
}

// New creates a Pipeline. An interval of 0 runs a single cycle.
func New(e Extractor, t Transformer, l Loader, logger *slog.Logger, metrics *observability.Metrics, interval time.Duration, opts ...Option) *Pipeline {
	p := &Pipeline{
		extractor:   e,
		transformer: t,
		loader:      l,
		logger:      logger,
		metrics:     metrics,
		clock:       clockwork.NewRealClock(),
		interval:    interval,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// CheckReadiness returns nil once a grid has been loaded.
func (p *Pipeline) CheckReadiness(_ context.Context) error {
	if !p.ready.Load() {
		return errors.New("rain grid has not been loaded yet")
	}
	return nil
}

// Run executes one cycle immediately, then one per interval until the
// context is cancelled. A failed cycle is not retried before the next tick.
func (p *Pipeline) Run(ctx context.Context) error {
	p.logger.Info("rain pipeline started", "refresh_interval", p.interval)
	p.metrics.RainPipelineRunning.Set(1)
	defer p.metrics.RainPipelineRunning.Set(0)

	p.runCycle(ctx)
	if p.interval <= 0 {
		p.logger.Info("rain pipeline finished", "reason", "refresh disabled")
		return nil
	}

	ticker := p.clock.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			p.logger.Info("rain pipeline stopping", "reason", ctx.Err())
			return nil
		case <-ticker.Chan():
			p.runCycle(ctx)
		}
	}
}

// runCycle runs one extract-transform-load pass. It reports whether the
// features were loaded.
func (p *Pipeline) runCycle(ctx context.Context) bool {
	start := time.Now()

	env, err := p.extractor.Extract(ctx)
	if err != nil {
		if ctx.Err() != nil {
			return false
		}
		p.metrics.RainFetches.WithLabelValues("error").Inc()
		p.logger.Error("extract rain grid failed", "error", err)
		return false
	}

	features, err := p.transformer.Transform(ctx, env)
	if err != nil {
		p.metrics.RainFetches.WithLabelValues("error").Inc()
		p.logger.Error("transform rain grid failed", "error", err)
		return false
	}
	p.recordBuckets(features)

	if err := p.loader.Load(ctx, features); err != nil {
		p.metrics.RainFetches.WithLabelValues("error").Inc()
		p.logger.Error("load rain features failed", "error", err, "features", len(features))
		return false
	}

	p.metrics.RainFetches.WithLabelValues("success").Inc()
	p.ready.Store(true)
	p.logger.Info("rain grid loaded",
		"timestamp", env.Timestamp,
		"original_points", env.OriginalPoints,
		"interpolated_points", env.InterpolatedPoints,
		"features", len(features),
		"skipped", env.Skipped,
		"duration", time.Since(start),
	)
	return true
}

func (p *Pipeline) recordBuckets(features []domain.ClassifiedRainFeature) {
	counts := map[float64]int{
		domain.BucketNone:  0,
		domain.BucketLight: 0,
		domain.BucketHeavy: 0,
	}
	for _, f := range features {
		counts[f.Bucket]++
	}
	for bucket, n := range counts {
		p.metrics.RainFeatures.WithLabelValues(strconv.FormatFloat(bucket, 'g', -1, 64)).Set(float64(n))
	}
}
