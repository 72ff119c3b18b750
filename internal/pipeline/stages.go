package pipeline

import (
	"context"

	"github.com/couchcryptid/storm-dashboard/internal/domain"
)

// RainGridSource fetches the raw realtime rain map body.
type RainGridSource interface {
	FetchRainGrid(ctx context.Context, gridSize, density int) ([]byte, error)
}

// GridExtractor implements Extractor over a RainGridSource.
type GridExtractor struct {
	source   RainGridSource
	gridSize int
	density  int
}

// NewGridExtractor creates an extractor requesting a gridSize × gridSize
// grid at the given density.
func NewGridExtractor(source RainGridSource, gridSize, density int) *GridExtractor {
	return &GridExtractor{source: source, gridSize: gridSize, density: density}
}

func (e *GridExtractor) Extract(ctx context.Context) (domain.RainEnvelope, error) {
	body, err := e.source.FetchRainGrid(ctx, e.gridSize, e.density)
	if err != nil {
		return domain.RainEnvelope{}, err
	}
	return domain.ParseRainEnvelope(body)
}

// LayerUpdater receives classified features. maplayer.Manager implements it.
type LayerUpdater interface {
	Update(features []domain.ClassifiedRainFeature) error
}

// LayerLoader implements Loader by updating the map layer.
type LayerLoader struct {
	layer LayerUpdater
}

// NewLayerLoader creates a loader for layer.
func NewLayerLoader(layer LayerUpdater) *LayerLoader {
	return &LayerLoader{layer: layer}
}

func (l *LayerLoader) Load(_ context.Context, features []domain.ClassifiedRainFeature) error {
	return l.layer.Update(features)
}
