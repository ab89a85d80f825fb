package rig

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pose-studio/internal/compose"
	"pose-studio/internal/joint"
	"pose-studio/internal/pose"
	"pose-studio/internal/skin"
)

func TestMannequinStructure(t *testing.T) {
	m := Mannequin(joint.DefaultCorrections())
	bones := m.Bones()
	require.Len(t, bones, joint.Count)
	for _, b := range bones {
		assert.True(t, joint.Parse(b.Name).Valid(), b.Name)
	}
	meshes := m.Meshes()
	require.Len(t, meshes, len(MeshNames))
	for i, n := range meshes {
		assert.Equal(t, MeshNames[i], n.Name)
		assert.True(t, n.Mesh.Geometry.HasSkinAttributes())
		assert.Len(t, n.Mesh.Skin.Joints, joint.Count)
	}
}

func TestRestPoseBakesToBindShape(t *testing.T) {
	corr := joint.DefaultCorrections()
	m := Mannequin(corr)
	compose.New(corr).Pose(m, pose.Rest())

	baked, rep := skin.Bake(m, nil)
	require.Empty(t, rep.Skipped)
	for i, src := range m.Meshes() {
		got := baked.Children[i].Mesh.Geometry.Positions
		for vi, p := range src.Mesh.Geometry.Positions {
			for k := range p {
				require.InDelta(t, p[k], got[vi][k], 1e-4)
			}
		}
	}
}

func TestPosingMovesOnlyInfluencedVertices(t *testing.T) {
	corr := joint.DefaultCorrections()
	m := Mannequin(corr)

	p := pose.Rest()
	p[joint.LeftForeArm].Z = 90
	compose.New(corr).Pose(m, p)
	baked, _ := skin.Bake(m, nil)

	src := m.Find("Skin").Mesh.Geometry
	out := baked.Find("Skin").Mesh.Geometry
	moved := map[uint16]bool{}
	for vi := range src.Positions {
		if src.Positions[vi] != out.Positions[vi] {
			d := 0.0
			for k := 0; k < 3; k++ {
				x := float64(src.Positions[vi][k] - out.Positions[vi][k])
				d += x * x
			}
			if d > 1e-8 {
				moved[src.Joints[vi][0]] = true
			}
		}
	}
	assert.Equal(t, map[uint16]bool{
		uint16(joint.LeftForeArm): true,
		uint16(joint.LeftHand):    true,
	}, moved)

	body := baked.Find("Body").Mesh.Geometry
	assert.Equal(t, m.Find("Body").Mesh.Geometry.VertexCount(), body.VertexCount())
}
