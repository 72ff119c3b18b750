package maplayer

import (
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"

	"github.com/couchcryptid/storm-dashboard/internal/domain"
	"github.com/couchcryptid/storm-dashboard/internal/observability"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// --- fake surface ---

type fakeSurface struct {
	mu       sync.Mutex
	sources  map[string]FeatureCollection
	layers   []Layer
	adds     int
	sets     int
	inFlight int
	overlap  bool
	addErr   error
}

func newFakeSurface() *fakeSurface {
	return &fakeSurface{sources: make(map[string]FeatureCollection)}
}

func (s *fakeSurface) enter() {
	s.mu.Lock()
	s.inFlight++
	if s.inFlight > 1 {
		s.overlap = true
	}
	s.mu.Unlock()
}

func (s *fakeSurface) leave() {
	s.mu.Lock()
	s.inFlight--
	s.mu.Unlock()
}

func (s *fakeSurface) HasSource(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.sources[id]
	return ok
}

func (s *fakeSurface) AddSource(id string, data FeatureCollection) error {
	s.enter()
	defer s.leave()
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.sources[id]; ok {
		return errors.New("source exists")
	}
	s.sources[id] = data
	s.adds++
	return nil
}

func (s *fakeSurface) SetSourceData(id string, data FeatureCollection) error {
	s.enter()
	defer s.leave()
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sources[id] = data
	s.sets++
	return nil
}

func (s *fakeSurface) AddLayer(layer Layer) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.addErr != nil {
		err := s.addErr
		s.addErr = nil
		return err
	}
	s.layers = append(s.layers, layer)
	return nil
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestManager(s Surface) *Manager {
	return NewManager(s, discardLogger(), observability.NewMetricsForTesting())
}

func samples(rains ...float64) []domain.ClassifiedRainFeature {
	raw := make([]domain.RainSample, len(rains))
	for i, r := range rains {
		raw[i] = domain.RainSample{Lon: -100 + float64(i), Lat: 20, Rain: r}
	}
	return domain.Classify(raw)
}

// --- tests ---

func TestManager_CreatesOnceThenUpdatesInPlace(t *testing.T) {
	surface := newFakeSurface()
	m := newTestManager(surface)
	require.NoError(t, m.MarkReady())

	require.NoError(t, m.Update(samples(0, 0.5)))
	require.NoError(t, m.Update(samples(1.5, 3, 0)))

	assert.Equal(t, 1, surface.adds)
	assert.Equal(t, 1, surface.sets)
	require.Len(t, surface.layers, 1)
	assert.Equal(t, LayerID, surface.layers[0].ID)
	assert.Len(t, surface.sources[SourceID].Features, 3)
	assert.True(t, m.Applied())
}

func TestManager_IdempotentOnIdenticalInput(t *testing.T) {
	surface := newFakeSurface()
	m := newTestManager(surface)
	require.NoError(t, m.MarkReady())

	features := samples(0, 1, 2)
	require.NoError(t, m.Update(features))
	require.NoError(t, m.Update(features))

	assert.Len(t, surface.sources, 1)
	assert.Len(t, surface.layers, 1)
	assert.Len(t, surface.sources[SourceID].Features, 3)
}

func TestManager_DefersUntilReadyWithLatestData(t *testing.T) {
	surface := newFakeSurface()
	m := newTestManager(surface)

	require.NoError(t, m.Update(samples(0)))
	require.NoError(t, m.Update(samples(0, 1, 2, 3)))
	assert.Zero(t, surface.adds, "nothing applied before ready")
	assert.False(t, m.Applied())

	require.NoError(t, m.MarkReady())
	assert.Equal(t, 1, surface.adds)
	assert.Zero(t, surface.sets)
	assert.Len(t, surface.sources[SourceID].Features, 4, "latest data wins")

	// The ready signal is one-time.
	require.NoError(t, m.MarkReady())
	assert.Equal(t, 1, surface.adds)
	assert.Zero(t, surface.sets)
}

func TestManager_ReadyWithoutData(t *testing.T) {
	surface := newFakeSurface()
	m := newTestManager(surface)

	require.NoError(t, m.MarkReady())
	assert.Zero(t, surface.adds)
	assert.Empty(t, m.Features().Features)

	require.NoError(t, m.Update(samples(0.2)))
	assert.Equal(t, 1, surface.adds)
}

func TestManager_RecoversFromLayerFailure(t *testing.T) {
	surface := newFakeSurface()
	surface.addErr = errors.New("style not loaded")
	m := newTestManager(surface)
	require.NoError(t, m.MarkReady())

	require.Error(t, m.Update(samples(0)))
	assert.Empty(t, surface.layers)

	require.NoError(t, m.Update(samples(1)))
	assert.Equal(t, 1, surface.adds, "source is not recreated")
	assert.Len(t, surface.layers, 1)
}

func TestManager_SerializesSurfaceMutations(t *testing.T) {
	surface := newFakeSurface()
	m := newTestManager(surface)
	require.NoError(t, m.MarkReady())

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			_ = m.Update(samples(float64(n % 3)))
		}(i)
	}
	wg.Wait()

	assert.False(t, surface.overlap, "surface mutations overlapped")
	assert.Equal(t, 1, surface.adds)
	assert.Equal(t, 19, surface.sets)
}

func TestManager_FeaturesExposeRampUnit(t *testing.T) {
	m := newTestManager(newFakeSurface())
	require.NoError(t, m.Update(samples(0, 0.5, 1.5, 5)))

	fc := m.Features()
	require.Len(t, fc.Features, 4)
	got := make([]float64, len(fc.Features))
	for i, f := range fc.Features {
		got[i] = f.Properties.Intensity
		assert.Equal(t, i, f.ID)
	}
	assert.Equal(t, []float64{0, 1, 2, 2}, got)
	assert.Equal(t, [2]float64{-100, 20}, fc.Features[0].Geometry.Coordinates)
}
