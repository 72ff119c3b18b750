package maplayer

import "github.com/couchcryptid/storm-dashboard/internal/domain"

// FeatureCollection is a GeoJSON FeatureCollection of rain points.
type FeatureCollection struct {
	Type     string    `json:"type"`
	Features []Feature `json:"features"`
}

// Feature is a GeoJSON point feature.
type Feature struct {
	Type       string     `json:"type"`
	ID         int        `json:"id"`
	Geometry   Point      `json:"geometry"`
	Properties Properties `json:"properties"`
}

// Point is a GeoJSON point geometry; Coordinates are [lon, lat].
type Point struct {
	Type        string     `json:"type"`
	Coordinates [2]float64 `json:"coordinates"`
}

// Properties are the per-feature values the layer style reads.
type Properties struct {
	Intensity float64 `json:"intensity"`
	Bucket    float64 `json:"bucket"`
	Rain      float64 `json:"rain"`
	ID        int     `json:"id"`
}

// NewFeatureCollection wraps classified rain features as GeoJSON points.
func NewFeatureCollection(features []domain.ClassifiedRainFeature) FeatureCollection {
	fc := FeatureCollection{Type: "FeatureCollection", Features: make([]Feature, len(features))}
	for i, f := range features {
		fc.Features[i] = Feature{
			Type: "Feature",
			ID:   f.ID,
			Geometry: Point{
				Type:        "Point",
				Coordinates: [2]float64{f.Lon, f.Lat},
			},
			Properties: Properties{
				Intensity: f.Intensity(),
				Bucket:    f.Bucket,
				Rain:      f.Rain,
				ID:        f.ID,
			},
		}
	}
	return fc
}

// EmptyFeatureCollection returns a collection with no features.
func EmptyFeatureCollection() FeatureCollection {
	return FeatureCollection{Type: "FeatureCollection", Features: []Feature{}}
}
