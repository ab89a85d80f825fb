package raster

import (
	"fmt"
	"math"

	"pose-studio/internal/lighting"
	"pose-studio/internal/mathutil"
)

// Light is a directional light in view space (camera looks down -Z, +Y up).
type Light struct {
	// Dir is the unit vector towards the light.
	Dir mathutil.Vec3
	// Color is linear, with the intensity applied.
	Color [3]float64
}

// LightConfig is the light rig used while rasterizing. The first light
// carries the specular highlight.
type LightConfig struct {
	Lights   []Light
	Ambient  [3]float64
	Hemi     float64
	SpecInt  float64
	SpecPow  float64
	Exposure float64
	InvGamma float64
}

// DefaultLightConfig returns the key-from-upper-right, rim-from-behind rig
// used for pose thumbnails.
func DefaultLightConfig() LightConfig {
	return LightConfig{
		Lights: []Light{
			{Dir: mathutil.Vec3{0.45, 0.65, 0.6}.Normalize(), Color: [3]float64{1.2, 1.2, 1.2}},
			{Dir: mathutil.Vec3{-0.5, 0.4, -0.75}.Normalize(), Color: [3]float64{0.45, 0.45, 0.45}},
		},
		Ambient:  [3]float64{0.35, 0.35, 0.35},
		Hemi:     0.35,
		SpecInt:  0.25,
		SpecPow:  16,
		Exposure: 1.0,
		InvGamma: 1.0 / 2.2,
	}
}

// RigLights converts a light reference rig into view-space lights. view is
// the camera rotation applied to world positions; disabled lights are left
// out.
func RigLights(r lighting.Rig, view mathutil.Mat3) (LightConfig, error) {
	lc := LightConfig{
		SpecInt:  0.25,
		SpecPow:  16,
		Exposure: 1.0,
		InvGamma: 1.0 / 2.2,
	}
	for _, id := range lighting.IDs {
		s := r.Light(id)
		if !s.Enabled {
			continue
		}
		c, err := lighting.ParseColor(s.Color)
		if err != nil {
			return LightConfig{}, fmt.Errorf("raster: %s light: %w", id, err)
		}
		dir := view.MulVec3(s.Position.Cartesian()).Normalize()
		if dir == (mathutil.Vec3{}) {
			continue
		}
		lc.Lights = append(lc.Lights, Light{Dir: dir, Color: c.Linear().Scale(s.Intensity)})
	}
	amb, err := lighting.ParseColor(r.Ambient.Color)
	if err != nil {
		return LightConfig{}, fmt.Errorf("raster: ambient: %w", err)
	}
	lc.Ambient = amb.Linear().Scale(r.Ambient.Intensity)
	return lc, nil
}

// Shade returns the linear light reaching a face with unit view-space
// normal n, per channel. Faces are lit from both sides.
func (lc *LightConfig) Shade(n mathutil.Vec3) [3]float64 {
	// sky above, ground bounce below
	hemi := (n[1]*0.5 + 0.5) * lc.Hemi
	out := [3]float64{lc.Ambient[0] + hemi, lc.Ambient[1] + hemi, lc.Ambient[2] + hemi}

	for _, l := range lc.Lights {
		ndl := math.Abs(n.Dot(l.Dir))
		for c := range out {
			out[c] += ndl * l.Color[c]
		}
	}
	if len(lc.Lights) > 0 && lc.SpecInt > 0 {
		half := lc.Lights[0].Dir.Add(mathutil.Vec3{0, 0, 1}).Normalize()
		specular := math.Pow(math.Abs(n.Dot(half)), lc.SpecPow) * lc.SpecInt
		for c := range out {
			out[c] += specular
		}
	}
	return out
}

// Encode tone maps a lit linear channel value into an 8-bit sRGB value.
func (lc *LightConfig) Encode(linear float64) uint8 {
	return clamp255(math.Pow(ACESTonemap(linear*lc.Exposure), lc.InvGamma) * 255)
}

// ACESTonemap applies ACES Filmic tone mapping to a linear value.
func ACESTonemap(x float64) float64 {
	return (x * (2.51*x + 0.03)) / (x*(2.43*x+0.59) + 0.14)
}

func clamp255(v float64) uint8 {
	if v < 0 {
		return 0
	}
	if v > 255 {
		return 255
	}
	return uint8(v + 0.5)
}
