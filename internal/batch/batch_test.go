package batch

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pose-studio/internal/glb"
	"pose-studio/internal/joint"
	"pose-studio/internal/pose"
	"pose-studio/internal/rig"
	"pose-studio/internal/scene"
	"pose-studio/internal/state"
)

func config(t *testing.T) Config {
	t.Helper()
	corr := joint.DefaultCorrections()
	return Config{
		Rig:           rig.Mannequin(corr),
		Corrections:   corr,
		OutputDir:     t.TempDir(),
		ThumbnailSize: 24,
		Supersample:   1,
		Workers:       3,
	}
}

func TestRunPresets(t *testing.T) {
	cfg := config(t)
	jobs := PresetJobs()
	require.Len(t, jobs, len(pose.Presets()))

	results := Run(context.Background(), cfg, jobs)
	require.Len(t, results, len(jobs))
	for i, r := range results {
		require.True(t, r.Success, r.Error)
		assert.Equal(t, jobs[i].Name, r.Name)
		assert.Equal(t, 4, r.Baked)

		root, err := glb.Load(filepath.Join(cfg.OutputDir, r.Model))
		require.NoError(t, err)
		assert.Len(t, root.Meshes(), 4)
		assert.FileExists(t, filepath.Join(cfg.OutputDir, r.Thumbnail))
	}
	assert.Equal(t, "T-Pose.glb", results[0].Model)

	// the template rig is never posed
	assert.Equal(t, rig.Mannequin(cfg.Corrections).Bones()[1].Rotation, cfg.Rig.Bones()[1].Rotation)
}

func TestRunDuplicateNamesAndManifest(t *testing.T) {
	cfg := config(t)
	cfg.ThumbnailSize = 0
	saved := []state.SavedPose{
		{Name: "Wave", Pose: pose.Rest()},
		{Name: "Wave", Pose: pose.Rest().Mirror()},
		{Name: "Wave-2", Pose: pose.Rest()},
	}

	results := Run(context.Background(), cfg, SavedJobs(saved))
	require.True(t, results[0].Success)
	require.True(t, results[1].Success)
	require.True(t, results[2].Success)
	assert.Equal(t, "Wave.glb", results[0].Model)
	assert.Equal(t, "Wave-2.glb", results[1].Model)
	assert.Equal(t, "Wave-2-2.glb", results[2].Model)
	assert.Empty(t, results[1].Thumbnail)

	results = append(results, Result{Name: "broken", Error: "boom"})
	require.NoError(t, WriteManifest(cfg.OutputDir, results))

	data, err := os.ReadFile(filepath.Join(cfg.OutputDir, "manifest.json"))
	require.NoError(t, err)
	var entries []ManifestEntry
	require.NoError(t, json.Unmarshal(data, &entries))
	require.Len(t, entries, 3)
	assert.Equal(t, "Wave-2.glb", entries[1].Model)
	assert.Equal(t, "Wave-2-2.glb", entries[2].Model)
}

func TestUniqueSlugsNeverRepeat(t *testing.T) {
	slugs := uniqueSlugs([]Job{{Name: "a"}, {Name: "a"}, {Name: "a-2"}, {Name: "a"}})
	assert.Equal(t, []string{"a", "a-2", "a-2-2", "a-3"}, slugs)
}

func TestSavedJobsClampPoses(t *testing.T) {
	jobs := SavedJobs([]state.SavedPose{{Name: "zero"}})
	require.Len(t, jobs, 1)
	assert.Equal(t, pose.Pose{}.Clamped(), jobs[0].Pose)
	lim, ok := joint.LimitsFor(joint.LeftShoulder)
	require.True(t, ok)
	assert.Equal(t, lim.X.Min, jobs[0].Pose[joint.LeftShoulder].X)
}

func TestRunWithoutSkinnedMeshes(t *testing.T) {
	cfg := config(t)
	cfg.Rig = scene.Placeholder()
	results := Run(context.Background(), cfg, []Job{{Name: "x", Pose: pose.Rest()}})
	assert.False(t, results[0].Success)
	assert.Equal(t, "no skinned meshes to bake", results[0].Error)
}

func TestRunCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	results := Run(ctx, config(t), PresetJobs())
	for _, r := range results {
		assert.False(t, r.Success)
		assert.Equal(t, context.Canceled.Error(), r.Error)
	}
}
