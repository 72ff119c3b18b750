package mapbox

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/couchcryptid/storm-dashboard/internal/maplayer"
)

// ErrStyleNotLoaded is returned by source and layer mutations before the
// base style has loaded.
var ErrStyleNotLoaded = errors.New("map style not loaded")

// DefaultBounds is the default rain region as [[west, south], [east, north]].
var DefaultBounds = [2][2]float64{{-118, 14.5}, {-86.5, 32.75}}

const maxStyleBytes = 4 << 20

// Surface is an in-memory GL style document. It implements
// maplayer.Surface and renders the merged style for map clients.
type Surface struct {
	styleURL   string
	httpClient *http.Client
	logger     *slog.Logger

	mu      sync.RWMutex
	loaded  bool
	base    map[string]any
	sources map[string]maplayer.FeatureCollection
	order   []string
	layers  []maplayer.Layer
	onLoad  []func()
}

// NewSurface creates a surface whose base style is fetched from styleURL.
func NewSurface(styleURL string, timeout time.Duration, logger *slog.Logger) *Surface {
	return &Surface{
		styleURL: styleURL,
		httpClient: &http.Client{
			Timeout: timeout,
		},
		logger:  logger,
		sources: make(map[string]maplayer.FeatureCollection),
	}
}

// Load fetches the base style and fires the load listeners. An empty style
// URL loads a blank style.
func (s *Surface) Load(ctx context.Context) error {
	if s.styleURL == "" {
		s.LoadBlank()
		return nil
	}
	base, err := s.fetchStyle(ctx)
	if err != nil {
		return err
	}
	s.markLoaded(base)
	s.logger.Info("map style loaded", "url", s.styleURL, "layers", len(baseLayers(base)))
	return nil
}

// LoadBlank loads an empty version 8 style.
func (s *Surface) LoadBlank() {
	s.markLoaded(blankStyle())
	s.logger.Info("blank map style loaded")
}

// Loaded reports whether the style has loaded.
func (s *Surface) Loaded() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.loaded
}

// OnLoad registers fn to run once when the style loads. If it already has,
// fn runs immediately.
func (s *Surface) OnLoad(fn func()) {
	s.mu.Lock()
	if !s.loaded {
		s.onLoad = append(s.onLoad, fn)
		s.mu.Unlock()
		return
	}
	s.mu.Unlock()
	fn()
}

func (s *Surface) markLoaded(base map[string]any) {
	s.mu.Lock()
	if s.loaded {
		s.mu.Unlock()
		return
	}
	s.loaded = true
	s.base = base
	listeners := s.onLoad
	s.onLoad = nil
	s.mu.Unlock()

	// Listeners call back into the surface.
	for _, fn := range listeners {
		fn()
	}
}

// HasSource reports whether a source with id exists.
func (s *Surface) HasSource(id string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.sources[id]
	return ok
}

// AddSource adds a GeoJSON source. The id must be new.
func (s *Surface) AddSource(id string, data maplayer.FeatureCollection) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.loaded {
		return ErrStyleNotLoaded
	}
	if _, ok := s.sources[id]; ok {
		return fmt.Errorf("source %q already exists", id)
	}
	s.sources[id] = data
	s.order = append(s.order, id)
	return nil
}

// SetSourceData replaces the data of an existing source.
func (s *Surface) SetSourceData(id string, data maplayer.FeatureCollection) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.loaded {
		return ErrStyleNotLoaded
	}
	if _, ok := s.sources[id]; !ok {
		return fmt.Errorf("source %q does not exist", id)
	}
	s.sources[id] = data
	return nil
}

// AddLayer appends a layer bound to an existing source.
func (s *Surface) AddLayer(layer maplayer.Layer) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.loaded {
		return ErrStyleNotLoaded
	}
	if _, ok := s.sources[layer.Source]; !ok {
		return fmt.Errorf("layer %q: source %q does not exist", layer.ID, layer.Source)
	}
	for _, l := range s.layers {
		if l.ID == layer.ID {
			return fmt.Errorf("layer %q already exists", layer.ID)
		}
	}
	s.layers = append(s.layers, layer)
	return nil
}

// StyleDocument renders the base style merged with the added sources and
// layers. Added layers draw above the base layers.
func (s *Surface) StyleDocument() ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if !s.loaded {
		return nil, ErrStyleNotLoaded
	}

	doc := make(map[string]any, len(s.base)+3)
	for k, v := range s.base {
		doc[k] = v
	}

	sources := make(map[string]any)
	if base, ok := s.base["sources"].(map[string]any); ok {
		for k, v := range base {
			sources[k] = v
		}
	}
	for _, id := range s.order {
		sources[id] = geoJSONSource{Type: "geojson", Data: s.sources[id]}
	}
	doc["sources"] = sources

	layers := append([]any{}, baseLayers(s.base)...)
	for _, l := range s.layers {
		layers = append(layers, l)
	}
	doc["layers"] = layers

	metadata := make(map[string]any)
	if base, ok := s.base["metadata"].(map[string]any); ok {
		for k, v := range base {
			metadata[k] = v
		}
	}
	metadata["storm-dashboard:max-bounds"] = DefaultBounds
	doc["metadata"] = metadata

	return json.Marshal(doc)
}

func (s *Surface) fetchStyle(ctx context.Context) (map[string]any, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.styleURL, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("style request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("style server error: status %d: %s", resp.StatusCode, body)
	}

	var style map[string]any
	if err := json.NewDecoder(io.LimitReader(resp.Body, maxStyleBytes)).Decode(&style); err != nil {
		return nil, fmt.Errorf("decode style: %w", err)
	}
	if style == nil {
		return nil, errors.New("decode style: not a JSON object")
	}
	if _, ok := style["version"]; !ok {
		style["version"] = 8
	}
	return style, nil
}

type geoJSONSource struct {
	Type string                     `json:"type"`
	Data maplayer.FeatureCollection `json:"data"`
}

func blankStyle() map[string]any {
	return map[string]any{
		"version": 8,
		"name":    "blank",
		"sources": map[string]any{},
		"layers":  []any{},
	}
}

func baseLayers(style map[string]any) []any {
	layers, _ := style["layers"].([]any)
	return layers
}
