package studio

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"pose-studio/internal/lighting"
	"pose-studio/internal/loader"
	"pose-studio/internal/mathutil"
	"pose-studio/internal/raster"
	"pose-studio/internal/state"
)

// LightReference is the lighting study session. It owns the body model
// catalogue, including poses exported from the pose creator, and the light
// rig the model is studied under.
type LightReference struct {
	*library

	// guarded by library.mu
	lights lighting.Rig
}

// NewLightReference returns a session with the default body selected under
// the studio preset. Call Restore to load persisted state.
func NewLightReference(d Deps) *LightReference {
	d = d.withDefaults()
	return &LightReference{
		library: newLibrary(d, loader.LightModels(d.ModelsDir), state.DefaultLightModel,
			state.LightReferenceCustom, state.LightReferenceModel, state.LightReferenceTransform),
		lights: lighting.Default(),
	}
}

// Restore loads the persisted session and starts loading the selected model.
// A stored rig with unreadable colours is replaced by the default.
func (lr *LightReference) Restore(ctx context.Context) {
	rig := state.LightReferenceLights.Load(ctx, lr.deps.KV, lr.deps.Log)
	if err := rig.Validate(); err != nil {
		lr.deps.Log.Warn("light rig invalid, using defaults", zap.Error(err))
		rig = lighting.Default()
	}
	for _, id := range lighting.IDs {
		rig = rig.WithLight(id, rig.Light(id))
	}

	lr.mu.Lock()
	lr.lights = rig
	lr.mu.Unlock()

	lr.library.restore(ctx)
}

// Persist writes the whole session.
func (lr *LightReference) Persist(ctx context.Context) error {
	if err := state.LightReferenceLights.Save(ctx, lr.deps.KV, lr.Lights()); err != nil {
		return err
	}
	return lr.library.persist(ctx)
}

// Lights returns the light rig.
func (lr *LightReference) Lights() lighting.Rig {
	lr.mu.Lock()
	defer lr.mu.Unlock()
	return lr.lights
}

// ApplyLightPreset replaces the rig with a built-in preset and records it as
// the current preset.
func (lr *LightReference) ApplyLightPreset(ctx context.Context, name string) (lighting.Rig, error) {
	p, ok := lighting.PresetByName(name)
	if !ok {
		return lr.Lights(), fmt.Errorf("%w: %s", lighting.ErrUnknownPreset, name)
	}
	return lr.setLights(ctx, func(lighting.Rig) lighting.Rig { return p.Rig() })
}

// SetLight replaces one spot light. Values are clamped to their ranges; an
// unparseable colour is rejected.
func (lr *LightReference) SetLight(ctx context.Context, id lighting.ID, s lighting.Spot) (lighting.Rig, error) {
	if _, err := lighting.ParseColor(s.Color); err != nil {
		return lr.Lights(), err
	}
	return lr.setLights(ctx, func(r lighting.Rig) lighting.Rig { return r.WithLight(id, s) })
}

// ToggleLight switches one spot light on or off.
func (lr *LightReference) ToggleLight(ctx context.Context, id lighting.ID) (lighting.Rig, error) {
	return lr.setLights(ctx, func(r lighting.Rig) lighting.Rig {
		s := r.Light(id)
		s.Enabled = !s.Enabled
		return r.WithLight(id, s)
	})
}

// SetAmbient replaces the ambient light. Intensity is clamped like the
// spot lights.
func (lr *LightReference) SetAmbient(ctx context.Context, a lighting.Ambient) (lighting.Rig, error) {
	if _, err := lighting.ParseColor(a.Color); err != nil {
		return lr.Lights(), err
	}
	a.Intensity = max(lighting.IntensityRange[0], min(lighting.IntensityRange[1], a.Intensity))
	return lr.setLights(ctx, func(r lighting.Rig) lighting.Rig {
		r.Ambient = a
		return r
	})
}

// ResetLights restores the default rig.
func (lr *LightReference) ResetLights(ctx context.Context) (lighting.Rig, error) {
	return lr.setLights(ctx, func(lighting.Rig) lighting.Rig { return lighting.Default() })
}

func (lr *LightReference) setLights(ctx context.Context, fn func(lighting.Rig) lighting.Rig) (lighting.Rig, error) {
	lr.mu.Lock()
	lr.lights = fn(lr.lights)
	rig := lr.lights
	lr.mu.Unlock()
	return rig, state.LightReferenceLights.Save(ctx, lr.deps.KV, rig)
}

// Preview renders the loaded model, or the placeholder figure when loading
// failed, under the light rig as a size×size WebP image. The thumbnail camera
// is turned by the model transform's rotation.
func (lr *LightReference) Preview(size int) ([]byte, error) {
	res, ok := lr.Current()
	if !ok {
		return nil, ErrNoModel
	}
	lc, err := raster.RigLights(lr.Lights(), mathutil.ThumbnailView)
	if err != nil {
		return nil, err
	}
	yaw := mathutil.RotY(mathutil.Deg2Rad(lr.ModelTransform().Rotation))
	view := mathutil.Mat3Mul(mathutil.ThumbnailView, yaw)
	return raster.Preview(res.Root.Clone(), view, size, lr.deps.Supersample, &lc)
}
