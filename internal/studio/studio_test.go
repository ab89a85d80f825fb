package studio

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/qmuntal/gltf"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"pose-studio/internal/glb"
	"pose-studio/internal/joint"
	"pose-studio/internal/lighting"
	"pose-studio/internal/modelstore"
	"pose-studio/internal/pose"
	"pose-studio/internal/scene"
	"pose-studio/internal/skin"
	"pose-studio/internal/state"
	"pose-studio/internal/storage/sqlite"
)

var fixedNow = time.Date(2026, 3, 14, 9, 26, 53, 0, time.UTC)

func newDeps(t *testing.T) Deps {
	t.Helper()
	db, err := sqlite.Open(filepath.Join(t.TempDir(), "studio.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return Deps{
		KV:            db,
		Models:        modelstore.New(db, 0, nil),
		ModelsDir:     t.TempDir(),
		ThumbnailSize: 32,
		Supersample:   1,
		Now:           func() time.Time { return fixedNow },
	}
}

func newPoseCreator(t *testing.T, d Deps) *PoseCreator {
	t.Helper()
	pc := NewPoseCreator(d)
	t.Cleanup(pc.Close)
	pc.Restore(context.Background())
	pc.WaitLoaded()
	return pc
}

func withMannequin(t *testing.T, pc *PoseCreator) {
	t.Helper()
	_, err := pc.SelectModel(context.Background(), "mannequin")
	require.NoError(t, err)
	pc.WaitLoaded()
	res, ok := pc.Current()
	require.True(t, ok)
	require.False(t, res.Fallback)
}

func TestRestoreDefaults(t *testing.T) {
	pc := newPoseCreator(t, newDeps(t))

	assert.Equal(t, state.DefaultPoseModel, pc.Selected().ID)
	assert.Equal(t, pose.Rest(), pc.Pose())
	assert.Equal(t, state.DefaultModelTransform(), pc.ModelTransform())

	// no rigged-human.glb in the models dir
	res, ok := pc.Current()
	require.True(t, ok)
	assert.True(t, res.Fallback)
	assert.Zero(t, pc.Tick())
}

func TestCorruptedPoseFallsBackToRest(t *testing.T) {
	ctx := context.Background()
	d := newDeps(t)
	require.NoError(t, d.KV.PutValue(ctx, state.PoseCreatorPose.Name, []byte("{not json")))

	core, logs := observer.New(zap.WarnLevel)
	d.Log = zap.New(core)
	pc := newPoseCreator(t, d)

	assert.Equal(t, pose.Rest(), pc.Pose())
	assert.Equal(t, 1, logs.FilterMessage("state corrupted, using defaults").Len())
}

func TestPoseEditsPersist(t *testing.T) {
	ctx := context.Background()
	d := newDeps(t)
	pc := newPoseCreator(t, d)

	lim, _ := joint.LimitsFor(joint.LeftForeArm)
	got := pc.SetAxis(joint.LeftForeArm, joint.Z, 500)
	assert.Equal(t, lim.Z.Max, got)
	assert.Zero(t, pc.SetAxis(joint.Unknown, joint.X, 10))
	require.NoError(t, pc.SetModelTransform(ctx, state.ModelTransform{Rotation: 45, Scale: 0}))
	require.NoError(t, pc.Persist(ctx))

	again := newPoseCreator(t, d)
	assert.Equal(t, lim.Z.Max, again.Pose().Get(joint.LeftForeArm).Z)
	assert.Equal(t, state.ModelTransform{Rotation: 45, Scale: 1}, again.ModelTransform())

	again.ResetJoint(joint.LeftForeArm)
	assert.Equal(t, joint.RestOf(joint.LeftForeArm), again.Pose().Get(joint.LeftForeArm))
}

func TestSelectModel(t *testing.T) {
	ctx := context.Background()
	d := newDeps(t)
	pc := newPoseCreator(t, d)

	info, err := pc.SelectModel(ctx, "does-not-exist")
	require.NoError(t, err)
	assert.Equal(t, state.DefaultPoseModel, info.ID)

	withMannequin(t, pc)
	assert.Equal(t, joint.Count, pc.Tick())

	// the selection survives a restart
	again := newPoseCreator(t, d)
	assert.Equal(t, "mannequin", again.Selected().ID)
}

func TestTickPosesLoadedRig(t *testing.T) {
	pc := newPoseCreator(t, newDeps(t))
	withMannequin(t, pc)

	res, _ := pc.Current()
	hand := res.Root.Find(joint.LeftHand.BoneName())
	require.NotNil(t, hand)

	pc.Tick()
	before := hand.World().MulPoint([3]float64{})
	pc.SetAxis(joint.Spine, joint.Y, 30)
	pc.Tick()
	after := hand.World().MulPoint([3]float64{})
	assert.NotEqual(t, before, after)
}

func TestSavedPoses(t *testing.T) {
	ctx := context.Background()
	d := newDeps(t)
	pc := newPoseCreator(t, d)
	withMannequin(t, pc)

	pc.SetAxis(joint.Head, joint.Y, 30)
	sp, err := pc.SavePose(ctx, "Look left")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(sp.ID, "pose-"))
	assert.Equal(t, fixedNow, sp.CreatedAt)
	assert.True(t, strings.HasPrefix(sp.Thumbnail, "data:image/webp;base64,"))

	unnamed, err := pc.SavePose(ctx, "")
	require.NoError(t, err)
	assert.Equal(t, "Pose 2", unnamed.Name)

	pc.ResetAll()
	require.NoError(t, pc.ApplySavedPose(sp.ID))
	assert.Equal(t, 30.0, pc.Pose().Get(joint.Head).Y)
	assert.ErrorIs(t, pc.ApplySavedPose("pose-missing"), ErrPoseNotFound)

	require.NoError(t, pc.DeletePose(ctx, unnamed.ID))
	assert.ErrorIs(t, pc.DeletePose(ctx, unnamed.ID), ErrPoseNotFound)

	again := newPoseCreator(t, d)
	saved := again.SavedPoses()
	require.Len(t, saved, 1)
	assert.Equal(t, "Look left", saved[0].Name)
	assert.True(t, pose.Matches(sp.Pose, saved[0].Pose, pose.DefaultTolerance))
}

func TestSavePoseWithoutModelHasNoThumbnail(t *testing.T) {
	pc := newPoseCreator(t, newDeps(t))
	sp, err := pc.SavePose(context.Background(), "Blank")
	require.NoError(t, err)
	assert.Empty(t, sp.Thumbnail)
}

func TestPresetsAndMirror(t *testing.T) {
	pc := newPoseCreator(t, newDeps(t))

	pr, ok := pc.CurrentPreset()
	require.True(t, ok)
	assert.Equal(t, "tPose", pr.ID)

	require.NoError(t, pc.ApplyPreset("standing"))
	pr, ok = pc.CurrentPreset()
	require.True(t, ok)
	assert.Equal(t, "standing", pr.ID)

	assert.ErrorIs(t, pc.ApplyPreset("cartwheel"), ErrPresetNotFound)

	pc.ResetAll()
	pc.SetAxis(joint.LeftArm, joint.Y, 20)
	pc.Mirror()
	assert.Equal(t, -20.0, pc.Pose().Get(joint.RightArm).Y)
	assert.Zero(t, pc.Pose().Get(joint.LeftArm).Y)
	_, ok = pc.CurrentPreset()
	assert.False(t, ok)
}

func TestExportWithoutModelFails(t *testing.T) {
	ctx := context.Background()
	core, logs := observer.New(zap.ErrorLevel)
	d := newDeps(t)
	d.Log = zap.New(core)
	pc := newPoseCreator(t, d)

	_, err := pc.Export(ctx, "")
	assert.ErrorIs(t, err, ErrNoModel)
	status, serr := pc.ExportStatus()
	assert.Equal(t, ExportFailed, status)
	assert.ErrorIs(t, serr, ErrNoModel)
	assert.Equal(t, 1, logs.FilterMessage("export failed").Len())

	// loading a posable model and retrying succeeds
	withMannequin(t, pc)
	out, err := pc.Retry(ctx)
	require.NoError(t, err)
	assert.Equal(t, DefaultExportName, out.Name)
	status, _ = pc.ExportStatus()
	assert.Equal(t, ExportDone, status)

	_, err = pc.Retry(ctx)
	assert.ErrorIs(t, err, ErrNothingToRetry)

	pc.ResetExport()
	status, _ = pc.ExportStatus()
	assert.Equal(t, ExportIdle, status)
}

func TestExportToFile(t *testing.T) {
	ctx := context.Background()
	pc := newPoseCreator(t, newDeps(t))
	withMannequin(t, pc)
	require.NoError(t, pc.ApplyPreset("forwardReach"))

	res, _ := pc.Current()
	before := map[string][3]float64{}
	for _, b := range res.Root.Bones() {
		before[b.Name] = b.Rotation
	}

	dir := t.TempDir()
	out, err := pc.ExportToFile(ctx, dir, "reach / v2")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "reach-v2-1773480413000.glb"), out.Path)
	assert.Len(t, out.Report.Baked, 4)
	assert.Empty(t, out.Report.Skipped)
	assert.Equal(t, out, pc.LastExport())

	data, err := os.ReadFile(out.Path)
	require.NoError(t, err)
	assert.Equal(t, glb.Magic, data[:4])

	root, err := glb.Decode(data)
	require.NoError(t, err)
	baked := root.Find(skin.GroupName)
	require.NotNil(t, baked)
	assert.Len(t, baked.Meshes(), 4)
	assert.Empty(t, root.Bones())
	for _, m := range root.Meshes() {
		assert.False(t, m.Mesh.Geometry.HasSkinAttributes(), m.Name)
	}

	// exporting never poses the live rig
	for _, b := range res.Root.Bones() {
		assert.Equal(t, before[b.Name], [3]float64(b.Rotation), b.Name)
	}
}

func TestSaveToLightReference(t *testing.T) {
	ctx := context.Background()
	d := newDeps(t)
	pc := newPoseCreator(t, d)
	withMannequin(t, pc)

	lr := NewLightReference(d)
	t.Cleanup(lr.Close)
	lr.Restore(ctx)
	lr.WaitLoaded()
	assert.Equal(t, state.DefaultLightModel, lr.Selected().ID)

	out, err := pc.SaveToLightReference(ctx, lr, "")
	require.NoError(t, err)
	require.NotNil(t, out.Model)
	rec := *out.Model
	assert.True(t, strings.HasPrefix(rec.ID, "posed-"))
	assert.Equal(t, "Custom Pose 1773480413000", rec.Name)
	assert.Equal(t, state.SourcePoseCreator, rec.Source)
	assert.NotEmpty(t, rec.Thumbnail)

	stored, err := d.Models.Get(ctx, rec.ID)
	require.NoError(t, err)
	assert.Equal(t, out.Data, stored)

	info := lr.ModelByID(rec.ID)
	assert.True(t, info.Custom)
	assert.Equal(t, "custom", info.Category)

	_, err = lr.SelectModel(ctx, rec.ID)
	require.NoError(t, err)
	lr.WaitLoaded()
	res, _ := lr.Current()
	assert.False(t, res.Fallback)
	assert.Len(t, res.Root.Meshes(), 4)
	assert.Zero(t, d.Models.Live())

	require.NoError(t, lr.RemoveModel(ctx, rec.ID))
	assert.Equal(t, state.DefaultLightModel, lr.Selected().ID)
	stored, err = d.Models.Get(ctx, rec.ID)
	require.NoError(t, err)
	assert.Nil(t, stored)

	assert.ErrorIs(t, lr.RemoveModel(ctx, rec.ID), ErrModelNotFound)
	assert.ErrorIs(t, lr.RemoveModel(ctx, "female-body"), ErrBuiltInModel)
}

func TestImportModel(t *testing.T) {
	ctx := context.Background()
	d := newDeps(t)
	lr := NewLightReference(d)
	t.Cleanup(lr.Close)
	lr.Restore(ctx)

	box, err := glb.Encode(scene.NewMesh("box", &scene.Mesh{Geometry: scene.Box(1, 2, 1), Material: scene.DefaultMaterial()}))
	require.NoError(t, err)

	rec, err := lr.ImportModel(ctx, "uploads/figure.glb", box)
	require.NoError(t, err)
	assert.Equal(t, "figure", rec.Name)
	assert.Equal(t, state.SourceUpload, rec.Source)
	assert.Equal(t, int64(len(box)), rec.Size)
	assert.NotEmpty(t, rec.Thumbnail)

	_, err = lr.ImportModel(ctx, "figure.fbx", box)
	assert.ErrorIs(t, err, modelstore.ErrUnsupportedFormat)

	models := lr.Models()
	require.Len(t, models, 3)
	assert.Equal(t, rec.ID, models[2].ID)

	again := NewLightReference(d)
	t.Cleanup(again.Close)
	again.Restore(ctx)
	assert.Equal(t, rec.ID, again.ModelByID(rec.ID).ID)
}

func TestRestoreDropsRecordsWithoutBytes(t *testing.T) {
	ctx := context.Background()
	d := newDeps(t)
	require.NoError(t, state.LightReferenceCustom.Save(ctx, d.KV, []state.CustomModel{
		{ID: "custom-gone", Name: "gone", Category: "custom", Source: state.SourceUpload},
	}))
	require.NoError(t, state.LightReferenceModel.Save(ctx, d.KV, "custom-gone"))

	lr := NewLightReference(d)
	t.Cleanup(lr.Close)
	lr.Restore(ctx)
	lr.WaitLoaded()

	assert.Len(t, lr.Models(), 2)
	assert.Equal(t, state.DefaultLightModel, lr.Selected().ID)
	assert.Empty(t, state.LightReferenceCustom.Load(ctx, d.KV, nil))
}

func TestImportModelWithNegativeIndices(t *testing.T) {
	ctx := context.Background()
	d := newDeps(t)
	lr := NewLightReference(d)
	t.Cleanup(lr.Close)
	lr.Restore(ctx)

	box, err := glb.Encode(scene.NewMesh("box", &scene.Mesh{Geometry: scene.Box(1, 2, 1), Material: scene.DefaultMaterial()}))
	require.NoError(t, err)
	doc := new(gltf.Document)
	require.NoError(t, gltf.NewDecoder(bytes.NewReader(box)).Decode(doc))
	doc.Meshes[0].Primitives[0].Material = gltf.Index(-1)
	doc.Meshes[0].Primitives[0].Indices = gltf.Index(-1)
	var buf bytes.Buffer
	enc := gltf.NewEncoder(&buf)
	enc.AsBinary = true
	require.NoError(t, enc.Encode(doc))

	var rec state.CustomModel
	require.NotPanics(t, func() { rec, err = lr.ImportModel(ctx, "odd.glb", buf.Bytes()) })
	require.NoError(t, err)

	_, err = lr.SelectModel(ctx, rec.ID)
	require.NoError(t, err)
	require.NotPanics(t, lr.WaitLoaded)
	res, ok := lr.Current()
	require.True(t, ok)
	assert.False(t, res.Fallback)

	sceneless := []byte(`{"asset":{"version":"2.0"},"scene":-1,"scenes":[{"nodes":[0]}],"nodes":[{"name":"n"}]}`)
	require.NotPanics(t, func() { _, err = lr.ImportModel(ctx, "odd.gltf", sceneless) })
	require.NoError(t, err)
	assert.Len(t, lr.Models(), 4)
}

// failingKV refuses writes to one key.
type failingKV struct {
	state.KV
	key string
}

func (f failingKV) PutValue(ctx context.Context, key string, value []byte) error {
	if key == f.key {
		return errors.New("disk full")
	}
	return f.KV.PutValue(ctx, key, value)
}

// stickyBlobs refuses deletes.
type stickyBlobs struct {
	*sqlite.Store
}

func (stickyBlobs) DeleteBlob(context.Context, string) error {
	return errors.New("read-only")
}

func TestSaveToLightReferenceRollback(t *testing.T) {
	ctx := context.Background()
	d := newDeps(t)
	db := d.KV.(*sqlite.Store)
	pc := newPoseCreator(t, d)
	withMannequin(t, pc)

	ld := d
	ld.KV = failingKV{KV: db, key: state.LightReferenceCustom.Name}
	lr := NewLightReference(ld)
	t.Cleanup(lr.Close)

	_, err := pc.SaveToLightReference(ctx, lr, "rolled back")
	require.Error(t, err)
	ids, err := d.Models.IDs(ctx)
	require.NoError(t, err)
	assert.Empty(t, ids)

	core, logs := observer.New(zap.WarnLevel)
	sd := d
	sd.Log = zap.New(core)
	sd.Models = modelstore.New(stickyBlobs{db}, 0, sd.Log)
	sticky := newPoseCreator(t, sd)
	withMannequin(t, sticky)

	_, err = sticky.SaveToLightReference(ctx, lr, "kept")
	require.Error(t, err)
	ids, err = sd.Models.IDs(ctx)
	require.NoError(t, err)
	assert.Len(t, ids, 1)
	assert.Equal(t, 1, logs.FilterMessage("exported model left in store").Len())
}

func newLightReference(t *testing.T, d Deps) *LightReference {
	t.Helper()
	lr := NewLightReference(d)
	t.Cleanup(lr.Close)
	lr.Restore(context.Background())
	lr.WaitLoaded()
	return lr
}

func TestLightRigDefaultsToStudio(t *testing.T) {
	lr := newLightReference(t, newDeps(t))

	rig := lr.Lights()
	assert.Equal(t, lighting.Default(), rig)
	assert.Equal(t, "studio", rig.Preset)
	assert.Equal(t, 1.5, rig.Lights.Key.Intensity)
}

func TestApplyLightPresetPersists(t *testing.T) {
	ctx := context.Background()
	d := newDeps(t)
	lr := newLightReference(t, d)

	rig, err := lr.ApplyLightPreset(ctx, "rembrandt")
	require.NoError(t, err)
	assert.Equal(t, "rembrandt", rig.Preset)
	assert.Equal(t, "#fff5e6", rig.Lights.Key.Color)
	assert.Equal(t, 60.0, rig.Lights.Key.Position.Azimuth)

	_, err = lr.ApplyLightPreset(ctx, "candlelight")
	assert.ErrorIs(t, err, lighting.ErrUnknownPreset)
	assert.Equal(t, "rembrandt", lr.Lights().Preset)

	again := newLightReference(t, d)
	assert.Equal(t, rig, again.Lights())

	rig, err = again.ResetLights(ctx)
	require.NoError(t, err)
	assert.Equal(t, lighting.Default(), rig)
	assert.Equal(t, rig, newLightReference(t, d).Lights())
}

func TestSetLightClampsAndValidates(t *testing.T) {
	ctx := context.Background()
	d := newDeps(t)
	lr := newLightReference(t, d)

	rig, err := lr.SetLight(ctx, lighting.Fill, lighting.Spot{
		Position:  lighting.Position{Azimuth: 270, Elevation: 120, Distance: 1},
		Color:     "#f80",
		Intensity: 9,
		Enabled:   true,
	})
	require.NoError(t, err)
	fill := rig.Lights.Fill
	assert.Equal(t, -90.0, fill.Position.Azimuth)
	assert.Equal(t, 90.0, fill.Position.Elevation)
	assert.Equal(t, 2.0, fill.Position.Distance)
	assert.Equal(t, 3.0, fill.Intensity)
	assert.Equal(t, "studio", rig.Preset)
	assert.Equal(t, lighting.Default().Lights.Key, rig.Lights.Key)

	_, err = lr.SetLight(ctx, lighting.Key, lighting.Spot{Color: "orange"})
	assert.ErrorIs(t, err, lighting.ErrInvalidColor)
	assert.Equal(t, lighting.Default().Lights.Key, lr.Lights().Lights.Key)

	rig, err = lr.ToggleLight(ctx, lighting.Rim)
	require.NoError(t, err)
	assert.False(t, rig.Lights.Rim.Enabled)

	rig, err = lr.SetAmbient(ctx, lighting.Ambient{Color: "#202020", Intensity: -1})
	require.NoError(t, err)
	assert.Equal(t, lighting.Ambient{Color: "#202020", Intensity: 0}, rig.Ambient)
	_, err = lr.SetAmbient(ctx, lighting.Ambient{Color: "#12"})
	assert.ErrorIs(t, err, lighting.ErrInvalidColor)

	assert.Equal(t, rig, newLightReference(t, d).Lights())
}

func TestCorruptedLightRigFallsBack(t *testing.T) {
	ctx := context.Background()
	d := newDeps(t)
	require.NoError(t, d.KV.PutValue(ctx, state.LightReferenceLights.Name,
		[]byte(`{"lights":{"key":{"color":"teal","intensity":1}},"currentPreset":"mine"}`)))

	core, logs := observer.New(zap.WarnLevel)
	d.Log = zap.New(core)
	lr := newLightReference(t, d)
	assert.Equal(t, lighting.Default(), lr.Lights())
	assert.Equal(t, 1, logs.FilterMessage("light rig invalid, using defaults").Len())

	require.NoError(t, d.KV.PutValue(ctx, state.LightReferenceLights.Name,
		[]byte(`{"lights":{"rim":{"position":{"azimuth":540,"elevation":45,"distance":40},"color":"#fff","intensity":1,"enabled":true}}}`)))
	rig := newLightReference(t, d).Lights()
	assert.Equal(t, 180.0, rig.Lights.Rim.Position.Azimuth)
	assert.Equal(t, 15.0, rig.Lights.Rim.Position.Distance)
	assert.Equal(t, lighting.Default().Lights.Key, rig.Lights.Key)
}

func TestLightPreview(t *testing.T) {
	ctx := context.Background()
	d := newDeps(t)

	idle := NewLightReference(d)
	t.Cleanup(idle.Close)
	_, err := idle.Preview(32)
	assert.ErrorIs(t, err, ErrNoModel)

	pc := newPoseCreator(t, d)
	withMannequin(t, pc)
	lr := newLightReference(t, d)
	out, err := pc.SaveToLightReference(ctx, lr, "lit")
	require.NoError(t, err)
	_, err = lr.SelectModel(ctx, out.Model.ID)
	require.NoError(t, err)
	lr.WaitLoaded()

	studio, err := lr.Preview(32)
	require.NoError(t, err)
	assert.Equal(t, []byte("WEBP"), studio[8:12])

	for _, id := range lighting.IDs {
		s := lr.Lights().Light(id)
		s.Enabled = false
		_, err = lr.SetLight(ctx, id, s)
		require.NoError(t, err)
	}
	_, err = lr.SetAmbient(ctx, lighting.Ambient{Color: "#000000"})
	require.NoError(t, err)
	dark, err := lr.Preview(32)
	require.NoError(t, err)
	assert.NotEqual(t, studio, dark)
}
