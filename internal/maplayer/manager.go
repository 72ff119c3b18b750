package maplayer

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/couchcryptid/storm-dashboard/internal/domain"
	"github.com/couchcryptid/storm-dashboard/internal/observability"
)

// Surface is the rendering engine capability the manager drives. It is not
// safe for interleaved source mutations; the manager serializes all calls.
type Surface interface {
	HasSource(id string) bool
	AddSource(id string, data FeatureCollection) error
	SetSourceData(id string, data FeatureCollection) error
	AddLayer(layer Layer) error
}

// Manager creates the rain source/layer once and updates it in place.
type Manager struct {
	surface Surface
	layer   Layer
	logger  *slog.Logger
	metrics *observability.Metrics

	// mu is held for the whole of every surface mutation.
	mu         sync.Mutex
	ready      bool
	layerAdded bool
	latest     *FeatureCollection
}

// NewManager creates a Manager for the intensity layer on surface.
func NewManager(surface Surface, logger *slog.Logger, metrics *observability.Metrics) *Manager {
	return &Manager{
		surface: surface,
		layer:   IntensityLayer(),
		logger:  logger,
		metrics: metrics,
	}
}

// Update records a new classified feature set and applies it if the surface
// is ready. Before readiness the data is held and only the latest set is
// applied when [Manager.MarkReady] fires.
func (m *Manager) Update(features []domain.ClassifiedRainFeature) error {
	fc := NewFeatureCollection(features)

	m.mu.Lock()
	defer m.mu.Unlock()

	m.latest = &fc
	if !m.ready {
		m.metrics.LayerApplications.WithLabelValues("deferred").Inc()
		m.logger.Debug("map surface not ready, deferring rain layer update", "features", len(fc.Features))
		return nil
	}
	return m.apply(fc)
}

// MarkReady is the surface's one-time ready signal. Calls after the first
// are ignored.
func (m *Manager) MarkReady() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.ready {
		return nil
	}
	m.ready = true
	m.logger.Info("map surface ready")
	if m.latest == nil {
		return nil
	}
	return m.apply(*m.latest)
}

// Features returns the most recent classified collection, applied or not.
// The returned features must not be modified.
func (m *Manager) Features() FeatureCollection {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.latest == nil {
		return EmptyFeatureCollection()
	}
	return *m.latest
}

// Applied reports whether the layer exists on the surface.
func (m *Manager) Applied() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.layerAdded
}

// CheckReadiness returns nil once the layer is on the surface.
func (m *Manager) CheckReadiness(_ context.Context) error {
	if !m.Applied() {
		return errors.New("rain layer has not been applied yet")
	}
	return nil
}

// apply must be called with mu held.
func (m *Manager) apply(fc FeatureCollection) error {
	if m.surface.HasSource(m.layer.Source) {
		if err := m.surface.SetSourceData(m.layer.Source, fc); err != nil {
			return fmt.Errorf("update source %s: %w", m.layer.Source, err)
		}
		m.metrics.LayerApplications.WithLabelValues("update").Inc()
		m.logger.Debug("rain layer updated", "features", len(fc.Features))
	} else {
		if err := m.surface.AddSource(m.layer.Source, fc); err != nil {
			return fmt.Errorf("add source %s: %w", m.layer.Source, err)
		}
		m.metrics.LayerApplications.WithLabelValues("create").Inc()
		m.logger.Info("rain layer source created", "features", len(fc.Features))
	}

	if !m.layerAdded {
		if err := m.surface.AddLayer(m.layer); err != nil {
			return fmt.Errorf("add layer %s: %w", m.layer.ID, err)
		}
		m.layerAdded = true
	}
	return nil
}
