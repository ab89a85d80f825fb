package studio

import (
	"context"
	"fmt"
	"slices"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"pose-studio/internal/compose"
	"pose-studio/internal/joint"
	"pose-studio/internal/loader"
	"pose-studio/internal/pose"
	"pose-studio/internal/raster"
	"pose-studio/internal/scene"
	"pose-studio/internal/skin"
	"pose-studio/internal/state"
)

// PoseCreator is the posing session: the editable pose, saved poses, the
// posable model catalogue and GLB export. Safe for concurrent use.
type PoseCreator struct {
	*library
	compositor *compose.Compositor

	mu     sync.Mutex
	model  *pose.Model
	saved  []state.SavedPose
	export exportState
}

// NewPoseCreator returns a session at the rest pose with the default model
// selected. Call Restore to load persisted state.
func NewPoseCreator(d Deps) *PoseCreator {
	d = d.withDefaults()
	return &PoseCreator{
		library: newLibrary(d, loader.PoseModels(d.ModelsDir, d.Corrections), state.DefaultPoseModel,
			state.PoseCreatorCustom, state.PoseCreatorModel, state.PoseCreatorTransform),
		compositor: compose.New(d.Corrections),
		model:      pose.NewModel(),
	}
}

// Restore loads the persisted session and starts loading the selected
// model. Missing or corrupted keys fall back to defaults.
func (pc *PoseCreator) Restore(ctx context.Context) {
	p := state.PoseCreatorPose.Load(ctx, pc.deps.KV, pc.deps.Log)
	saved := state.PoseCreatorSaved.Load(ctx, pc.deps.KV, pc.deps.Log)

	pc.mu.Lock()
	pc.model.Set(p)
	pc.saved = saved
	pc.mu.Unlock()

	pc.library.restore(ctx)
}

// Persist writes the whole session.
func (pc *PoseCreator) Persist(ctx context.Context) error {
	pc.mu.Lock()
	p := pc.model.Pose()
	saved := slices.Clone(pc.saved)
	pc.mu.Unlock()

	if err := state.PoseCreatorPose.Save(ctx, pc.deps.KV, p); err != nil {
		return err
	}
	if err := state.PoseCreatorSaved.Save(ctx, pc.deps.KV, saved); err != nil {
		return err
	}
	return pc.library.persist(ctx)
}

// Pose returns the current pose.
func (pc *PoseCreator) Pose() pose.Pose {
	pc.mu.Lock()
	defer pc.mu.Unlock()
	return pc.model.Pose()
}

// SetAxis sets one axis of a joint, clamped; it returns the stored value.
func (pc *PoseCreator) SetAxis(id joint.ID, a joint.Axis, v float64) float64 {
	pc.mu.Lock()
	defer pc.mu.Unlock()
	return pc.model.SetAxis(id, a, v)
}

// SetJoint sets all axes of a joint, clamped.
func (pc *PoseCreator) SetJoint(id joint.ID, e joint.Euler) {
	pc.mu.Lock()
	defer pc.mu.Unlock()
	pc.model.SetJoint(id, e)
}

// ResetJoint restores one joint to rest.
func (pc *PoseCreator) ResetJoint(id joint.ID) {
	pc.mu.Lock()
	defer pc.mu.Unlock()
	pc.model.ResetJoint(id)
}

// ResetAll restores the rest pose.
func (pc *PoseCreator) ResetAll() {
	pc.mu.Lock()
	defer pc.mu.Unlock()
	pc.model.ResetAll()
}

// LoadPose replaces the pose from a joint-name keyed map.
func (pc *PoseCreator) LoadPose(in map[string]joint.Euler) {
	pc.mu.Lock()
	defer pc.mu.Unlock()
	pc.model.Load(in)
}

// Mirror swaps the left and right sides of the pose.
func (pc *PoseCreator) Mirror() {
	pc.mu.Lock()
	defer pc.mu.Unlock()
	pc.model.Mirror()
}

// ApplyPreset replaces the pose with a built-in preset.
func (pc *PoseCreator) ApplyPreset(id string) error {
	pr, ok := pose.PresetByID(id)
	if !ok {
		return fmt.Errorf("%w: %s", ErrPresetNotFound, id)
	}
	pc.mu.Lock()
	defer pc.mu.Unlock()
	pc.model.Set(pr.Pose)
	return nil
}

// CurrentPreset reports which preset, if any, the pose matches.
func (pc *PoseCreator) CurrentPreset() (pose.Preset, bool) {
	return pose.MatchPreset(pc.Pose())
}

// Tick composes the current pose onto the loaded rig. It returns the
// number of bones that mapped to a joint; 0 while nothing posable is loaded.
func (pc *PoseCreator) Tick() int {
	res, ok := pc.Current()
	if !ok || res.Fallback {
		return 0
	}
	pc.mu.Lock()
	defer pc.mu.Unlock()
	return pc.compositor.Pose(res.Root, pc.model.Pose())
}

// SavedPoses returns the saved poses, oldest first.
func (pc *PoseCreator) SavedPoses() []state.SavedPose {
	pc.mu.Lock()
	defer pc.mu.Unlock()
	return slices.Clone(pc.saved)
}

// SavePose stores the current pose under name with a rendered thumbnail
// when a model is loaded.
func (pc *PoseCreator) SavePose(ctx context.Context, name string) (state.SavedPose, error) {
	pc.mu.Lock()
	if name == "" {
		name = fmt.Sprintf("Pose %d", len(pc.saved)+1)
	}
	sp := state.SavedPose{
		ID:        "pose-" + uuid.NewString(),
		Name:      name,
		Pose:      pc.model.Pose(),
		CreatedAt: pc.deps.Now(),
	}
	pc.mu.Unlock()

	if baked, _, err := pc.bake(sp.Pose); err == nil {
		if webp, err := raster.Thumbnail(baked, pc.deps.ThumbnailSize, pc.deps.Supersample); err == nil {
			sp.Thumbnail = raster.DataURL(webp)
		} else {
			pc.deps.Log.Warn("pose thumbnail skipped", zap.String("pose", sp.ID), zap.Error(err))
		}
	}

	pc.mu.Lock()
	pc.saved = append(pc.saved, sp)
	saved := slices.Clone(pc.saved)
	pc.mu.Unlock()

	if err := state.PoseCreatorSaved.Save(ctx, pc.deps.KV, saved); err != nil {
		return sp, err
	}
	return sp, nil
}

// DeletePose removes a saved pose.
func (pc *PoseCreator) DeletePose(ctx context.Context, id string) error {
	pc.mu.Lock()
	i := slices.IndexFunc(pc.saved, func(s state.SavedPose) bool { return s.ID == id })
	if i < 0 {
		pc.mu.Unlock()
		return fmt.Errorf("%w: %s", ErrPoseNotFound, id)
	}
	pc.saved = slices.Delete(pc.saved, i, i+1)
	saved := slices.Clone(pc.saved)
	pc.mu.Unlock()

	return state.PoseCreatorSaved.Save(ctx, pc.deps.KV, saved)
}

// ApplySavedPose replaces the pose with a saved one.
func (pc *PoseCreator) ApplySavedPose(id string) error {
	pc.mu.Lock()
	defer pc.mu.Unlock()
	for _, s := range pc.saved {
		if s.ID == id {
			pc.model.Set(s.Pose)
			return nil
		}
	}
	return fmt.Errorf("%w: %s", ErrPoseNotFound, id)
}

// bake poses a copy of the loaded rig with p and bakes it into the export
// group. The loaded rig is never modified.
func (pc *PoseCreator) bake(p pose.Pose) (*scene.Node, skin.Report, error) {
	res, ok := pc.Current()
	if !ok || res.Fallback {
		return nil, skin.Report{}, ErrNoModel
	}
	// Tick mutates the loaded rig under mu.
	pc.mu.Lock()
	rig := res.Root.Clone()
	pc.mu.Unlock()

	pc.compositor.Pose(rig, p)
	baked, rep := skin.Bake(rig, pc.deps.Log)
	if len(rep.Baked) == 0 {
		return nil, rep, ErrNothingToExport
	}
	return skin.ExportGroup(baked), rep, nil
}
