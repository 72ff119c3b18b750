package domain

import (
	"bytes"
	"encoding/json"
	"math"
)

// Intensity buckets emitted by [ClassifyRain].
const (
	BucketNone  = 0.0
	BucketLight = 0.5
	BucketHeavy = 1.0
)

// RampScale converts a bucket into the [0, 2] domain of the map style ramps.
const RampScale = 2.0

// RainSample is one point of the interpolated rainfall grid.
type RainSample struct {
	Lon  float64 `json:"lon"`
	Lat  float64 `json:"lat"`
	Rain float64 `json:"rain"`
}

// ClassifiedRainFeature is a sample with its intensity bucket. ID is the
// sample's position in one classification pass and is not stable across passes.
type ClassifiedRainFeature struct {
	RainSample
	ID     int
	Bucket float64
}

// Intensity returns the ramp input for the feature: Bucket × RampScale.
func (f ClassifiedRainFeature) Intensity() float64 {
	return f.Bucket * RampScale
}

// ClassifyRain buckets a rainfall amount. Values above 2 clamp to the top
// bucket. Negative and NaN amounts count as no rain.
func ClassifyRain(rain float64) float64 {
	switch {
	case math.IsNaN(rain) || rain <= 0:
		return BucketNone
	case rain <= 1:
		return BucketLight
	default:
		return BucketHeavy
	}
}

// Classify buckets every sample, preserving order and length.
func Classify(samples []RainSample) []ClassifiedRainFeature {
	out := make([]ClassifiedRainFeature, len(samples))
	for i, s := range samples {
		out[i] = ClassifiedRainFeature{RainSample: s, ID: i, Bucket: ClassifyRain(s.Rain)}
	}
	return out
}

// RainEnvelope is the decoded realtime rain map response.
type RainEnvelope struct {
	Timestamp          string
	OriginalPoints     int
	InterpolatedPoints int
	Samples            []RainSample
	Skipped            int
}

// ParseRainEnvelope decodes the realtime rain map response. Samples that
// are not objects are dropped and counted in Skipped; missing coordinates or
// rain default to 0. A body that is not an object, or a "data" value that is
// not an array, is a *MalformedInputError.
func ParseRainEnvelope(body []byte) (RainEnvelope, error) {
	var top map[string]json.RawMessage
	if err := json.Unmarshal(body, &top); err != nil {
		return RainEnvelope{}, &MalformedInputError{Reason: "rain envelope", Err: err}
	}
	if top == nil {
		return RainEnvelope{}, &MalformedInputError{Reason: "rain envelope", Err: ErrNotObject}
	}

	var env RainEnvelope
	decodeLenient(top["timestamp"], &env.Timestamp)
	decodeLenient(top["original_points"], &env.OriginalPoints)
	decodeLenient(top["interpolated_points"], &env.InterpolatedPoints)

	var raw []json.RawMessage
	if data := top["data"]; len(data) > 0 && !isJSONNull(data) {
		if err := json.Unmarshal(data, &raw); err != nil {
			return RainEnvelope{}, &MalformedInputError{Reason: "rain envelope data", Err: err}
		}
	}

	env.Samples = make([]RainSample, 0, len(raw))
	for _, el := range raw {
		el = bytes.TrimSpace(el)
		if len(el) == 0 || el[0] != '{' {
			env.Skipped++
			continue
		}
		var fields map[string]json.RawMessage
		if json.Unmarshal(el, &fields) != nil {
			env.Skipped++
			continue
		}
		env.Samples = append(env.Samples, RainSample{
			Lon:  number(fields["lon"]),
			Lat:  number(fields["lat"]),
			Rain: number(fields["rain"]),
		})
	}
	return env, nil
}
