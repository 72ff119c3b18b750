package maplayer

import (
	"encoding/json"
	"fmt"
	"math"
	"sort"
)

// Identifiers of the rain source and layer on the surface.
const (
	SourceID = "intensity-data"
	LayerID  = "intensity-blur"

	intensityProperty = "intensity"
)

// RGBA is a color with 8-bit channels and a fractional alpha.
type RGBA struct {
	R, G, B uint8
	A       float64
}

func (c RGBA) String() string {
	return fmt.Sprintf("rgba(%d, %d, %d, %g)", c.R, c.G, c.B, c.A)
}

// MarshalJSON encodes the color as a CSS rgba() string.
func (c RGBA) MarshalJSON() ([]byte, error) {
	return json.Marshal(c.String())
}

// SizeStop maps an intensity breakpoint to a circle radius in pixels.
type SizeStop struct {
	Input  float64
	Radius float64
}

// ColorStop maps an intensity breakpoint to a color.
type ColorStop struct {
	Input float64
	Color RGBA
}

// SizeRamp linearly interpolates circle radius over intensity.
type SizeRamp []SizeStop

// ColorRamp linearly interpolates color over intensity.
type ColorRamp []ColorStop

// At evaluates the ramp at v. Values outside the breakpoints clamp to the ends.
func (r SizeRamp) At(v float64) float64 {
	if len(r) == 0 {
		return 0
	}
	i, t := locate(len(r), func(i int) float64 { return r[i].Input }, v)
	if t == 0 {
		return r[i].Radius
	}
	return lerp(r[i].Radius, r[i+1].Radius, t)
}

// At evaluates the ramp at v, interpolating each RGBA channel.
func (r ColorRamp) At(v float64) RGBA {
	if len(r) == 0 {
		return RGBA{}
	}
	i, t := locate(len(r), func(i int) float64 { return r[i].Input }, v)
	if t == 0 {
		return r[i].Color
	}
	a, b := r[i].Color, r[i+1].Color
	return RGBA{
		R: uint8(math.Round(lerp(float64(a.R), float64(b.R), t))),
		G: uint8(math.Round(lerp(float64(a.G), float64(b.G), t))),
		B: uint8(math.Round(lerp(float64(a.B), float64(b.B), t))),
		A: lerp(a.A, b.A, t),
	}
}

// MarshalJSON renders the ramp as a GL "interpolate" expression.
func (r SizeRamp) MarshalJSON() ([]byte, error) {
	expr := interpolateExpr(len(r))
	for _, s := range r {
		expr = append(expr, s.Input, s.Radius)
	}
	return json.Marshal(expr)
}

// MarshalJSON renders the ramp as a GL "interpolate" expression.
func (r ColorRamp) MarshalJSON() ([]byte, error) {
	expr := interpolateExpr(len(r))
	for _, s := range r {
		expr = append(expr, s.Input, s.Color)
	}
	return json.Marshal(expr)
}

func interpolateExpr(stops int) []any {
	expr := make([]any, 0, 3+2*stops)
	return append(expr, "interpolate", []string{"linear"}, []string{"get", intensityProperty})
}

// locate finds the segment [i, i+1] containing v and the fraction t along
// it. t is 0 when v is clamped to a single stop.
func locate(n int, input func(int) float64, v float64) (int, float64) {
	if math.IsNaN(v) || v <= input(0) {
		return 0, 0
	}
	if v >= input(n-1) {
		return n - 1, 0
	}
	i := sort.Search(n, func(i int) bool { return input(i) > v }) - 1
	lo, hi := input(i), input(i+1)
	return i, (v - lo) / (hi - lo)
}

func lerp(a, b, t float64) float64 {
	return a + (b-a)*t
}

// CirclePaint is the paint block of a GL circle layer.
type CirclePaint struct {
	Radius  SizeRamp  `json:"circle-radius"`
	Color   ColorRamp `json:"circle-color"`
	Opacity float64   `json:"circle-opacity"`
	Blur    float64   `json:"circle-blur"`
}

// Layer is a declarative GL style layer bound to a source.
type Layer struct {
	ID     string      `json:"id"`
	Type   string      `json:"type"`
	Source string      `json:"source"`
	Paint  CirclePaint `json:"paint"`
}

// IntensityLayer returns the rain circle layer: radius 5→10→15 pixels and
// green→yellow→red over intensity 0→1→2.
func IntensityLayer() Layer {
	return Layer{
		ID:     LayerID,
		Type:   "circle",
		Source: SourceID,
		Paint: CirclePaint{
			Radius: SizeRamp{
				{Input: 0, Radius: 5},
				{Input: 1, Radius: 10},
				{Input: 2, Radius: 15},
			},
			Color: ColorRamp{
				{Input: 0, Color: RGBA{R: 0, G: 200, B: 0, A: 0.8}},
				{Input: 1, Color: RGBA{R: 255, G: 255, B: 0, A: 0.9}},
				{Input: 2, Color: RGBA{R: 200, G: 0, B: 0, A: 0.9}},
			},
			Opacity: 0.3,
			Blur:    0.2,
		},
	}
}
