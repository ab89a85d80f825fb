// Package lighting describes the light reference rig: key, fill and rim
// spot lights placed on a sphere around the model, plus ambient light.
package lighting

import (
	"fmt"
	"math"

	"pose-studio/internal/mathutil"
)

// ID names one of the rig's spot lights.
type ID int

const (
	Key ID = iota
	Fill
	Rim
)

// IDs lists the spot lights in display order.
var IDs = []ID{Key, Fill, Rim}

func (id ID) String() string {
	switch id {
	case Key:
		return "key"
	case Fill:
		return "fill"
	case Rim:
		return "rim"
	}
	return fmt.Sprintf("ID(%d)", int(id))
}

// Parse resolves a light name.
func Parse(name string) (ID, error) {
	for _, id := range IDs {
		if id.String() == name {
			return id, nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownLight, name)
}

// Adjustable ranges.
var (
	AzimuthRange   = [2]float64{-180, 180}
	ElevationRange = [2]float64{0, 90}
	DistanceRange  = [2]float64{2, 15}
	IntensityRange = [2]float64{0, 3}
)

// Position places a light on a sphere around the model. Angles are in
// degrees: azimuth 0 is in front of the model, 90 to its left.
type Position struct {
	Azimuth   float64 `json:"azimuth" yaml:"azimuth"`
	Elevation float64 `json:"elevation" yaml:"elevation"`
	Distance  float64 `json:"distance" yaml:"distance"`
}

// Cartesian returns the light position with +Y up and +Z towards the front.
func (p Position) Cartesian() mathutil.Vec3 {
	az := mathutil.Deg2Rad(p.Azimuth)
	el := mathutil.Deg2Rad(p.Elevation)
	return mathutil.Vec3{
		p.Distance * math.Cos(el) * math.Sin(az),
		p.Distance * math.Sin(el),
		p.Distance * math.Cos(el) * math.Cos(az),
	}
}

// Spot is one light of the rig.
type Spot struct {
	Position  Position `json:"position" yaml:"position"`
	Color     string   `json:"color" yaml:"color"`
	Intensity float64  `json:"intensity" yaml:"intensity"`
	Enabled   bool     `json:"enabled" yaml:"enabled"`
}

// Clamped wraps the azimuth into (-180, 180] and limits the other values
// to their ranges.
func (s Spot) Clamped() Spot {
	s.Position.Azimuth = wrapDegrees(s.Position.Azimuth)
	s.Position.Elevation = clamp(s.Position.Elevation, ElevationRange)
	s.Position.Distance = clamp(s.Position.Distance, DistanceRange)
	s.Intensity = clamp(s.Intensity, IntensityRange)
	return s
}

// Ambient is the uniform fill light.
type Ambient struct {
	Color     string  `json:"color" yaml:"color"`
	Intensity float64 `json:"intensity" yaml:"intensity"`
}

// Lights holds the three spot lights.
type Lights struct {
	Key  Spot `json:"key" yaml:"key"`
	Fill Spot `json:"fill" yaml:"fill"`
	Rim  Spot `json:"rim" yaml:"rim"`
}

// Rig is the complete lighting state of a light reference session.
type Rig struct {
	Lights  Lights  `json:"lights"`
	Ambient Ambient `json:"ambient"`
	// Preset is the name of the last applied preset.
	Preset string `json:"currentPreset"`
}

// Default returns the studio preset.
func Default() Rig {
	p, _ := PresetByName(DefaultPreset)
	return p.Rig()
}

// Light returns the spot light id.
func (r Rig) Light(id ID) Spot {
	switch id {
	case Fill:
		return r.Lights.Fill
	case Rim:
		return r.Lights.Rim
	}
	return r.Lights.Key
}

// WithLight returns r with light id replaced by s, clamped.
func (r Rig) WithLight(id ID, s Spot) Rig {
	s = s.Clamped()
	switch id {
	case Fill:
		r.Lights.Fill = s
	case Rim:
		r.Lights.Rim = s
	default:
		r.Lights.Key = s
	}
	return r
}

// Validate checks every colour of the rig.
func (r Rig) Validate() error {
	for _, id := range IDs {
		if _, err := ParseColor(r.Light(id).Color); err != nil {
			return fmt.Errorf("%s light: %w", id, err)
		}
	}
	if _, err := ParseColor(r.Ambient.Color); err != nil {
		return fmt.Errorf("ambient: %w", err)
	}
	return nil
}

func clamp(v float64, r [2]float64) float64 {
	if math.IsNaN(v) {
		return r[0]
	}
	return math.Max(r[0], math.Min(r[1], v))
}

func wrapDegrees(d float64) float64 {
	if math.IsNaN(d) || math.IsInf(d, 0) {
		return 0
	}
	d = math.Mod(d, 360)
	if d > 180 {
		d -= 360
	}
	if d <= -180 {
		d += 360
	}
	return d
}
