package state

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"pose-studio/internal/joint"
	"pose-studio/internal/pose"
	"pose-studio/internal/storage/sqlite"
)

func openTempStore(t *testing.T) *sqlite.Store {
	t.Helper()
	s, err := sqlite.Open(filepath.Join(t.TempDir(), "state.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestDefaultsWhenMissing(t *testing.T) {
	ctx := context.Background()
	kv := openTempStore(t)

	assert.Equal(t, pose.Rest(), PoseCreatorPose.Load(ctx, kv, nil))
	assert.Empty(t, PoseCreatorSaved.Load(ctx, kv, nil))
	assert.Equal(t, DefaultPoseModel, PoseCreatorModel.Load(ctx, kv, nil))
	assert.Equal(t, DefaultLightModel, LightReferenceModel.Load(ctx, kv, nil))
	assert.Equal(t, 1.0, LightReferenceTransform.Load(ctx, kv, nil).Scale)
}

func TestSaveLoad(t *testing.T) {
	ctx := context.Background()
	kv := openTempStore(t)

	p := pose.Rest()
	p[joint.Neck].Y = 20
	require.NoError(t, PoseCreatorPose.Save(ctx, kv, p))
	assert.Equal(t, p, PoseCreatorPose.Load(ctx, kv, nil))

	tr := ModelTransform{Rotation: 45, Scale: 1.5, Position: Vec3{X: 1}}
	require.NoError(t, PoseCreatorTransform.Save(ctx, kv, tr))
	assert.Equal(t, tr, PoseCreatorTransform.Load(ctx, kv, nil))
	assert.Equal(t, DefaultModelTransform(), LightReferenceTransform.Load(ctx, kv, nil))

	require.NoError(t, PoseCreatorTransform.Clear(ctx, kv))
	assert.Equal(t, DefaultModelTransform(), PoseCreatorTransform.Load(ctx, kv, nil))
}

func TestCorruptedFallsBack(t *testing.T) {
	ctx := context.Background()
	kv := openTempStore(t)
	core, logs := observer.New(zap.WarnLevel)

	require.NoError(t, kv.PutValue(ctx, PoseCreatorSaved.Name, []byte("{not json")))
	assert.Empty(t, PoseCreatorSaved.Load(ctx, kv, zap.New(core)))
	assert.Equal(t, 1, logs.FilterMessage("state corrupted, using defaults").Len())
}

type failingKV struct{}

func (failingKV) GetValue(context.Context, string) ([]byte, error) { return nil, errors.New("disk gone") }
func (failingKV) PutValue(context.Context, string, []byte) error   { return errors.New("disk gone") }
func (failingKV) DeleteValue(context.Context, string) error        { return errors.New("disk gone") }

func TestStoreFailure(t *testing.T) {
	ctx := context.Background()
	assert.Equal(t, DefaultPoseModel, PoseCreatorModel.Load(ctx, failingKV{}, nil))
	assert.Error(t, PoseCreatorModel.Save(ctx, failingKV{}, "x"))
	assert.Error(t, PoseCreatorModel.Clear(ctx, failingKV{}))
}

func TestSavedPoseWithoutPoseIsRest(t *testing.T) {
	ctx := context.Background()
	kv := openTempStore(t)
	require.NoError(t, kv.PutValue(ctx, PoseCreatorSaved.Name, []byte(`[{"id":"a","name":"x"},{"id":"b","name":"y","pose":null}]`)))

	saved := PoseCreatorSaved.Load(ctx, kv, nil)
	require.Len(t, saved, 2)
	assert.Equal(t, "a", saved[0].ID)
	assert.Equal(t, pose.Rest(), saved[0].Pose)
	assert.Equal(t, pose.Rest(), saved[1].Pose)
}
