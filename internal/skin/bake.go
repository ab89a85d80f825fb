// Package skin bakes linear blend skinning into static geometry.
package skin

import (
	"github.com/sourcegraph/conc/iter"
	"go.uber.org/zap"

	"pose-studio/internal/mathutil"
	"pose-studio/internal/scene"
)

const (
	// GroupName names the group holding baked meshes.
	GroupName = "baked-model"
	// ExportName names the oriented export root.
	ExportName = "export"
)

// Report lists the skinned meshes that were baked and those skipped for
// missing joint indices or weights.
type Report struct {
	Baked   []string
	Skipped []string
}

// Bake resolves every skinned mesh under root at its current pose and
// returns a group of static meshes with no skeleton dependency. Meshes
// without skin attributes are skipped with a warning. root is not modified
// beyond refreshing its world matrices.
func Bake(root *scene.Node, log *zap.Logger) (*scene.Node, Report) {
	if log == nil {
		log = zap.NewNop()
	}
	root.UpdateWorld()

	var skinned []*scene.Node
	for _, n := range root.Meshes() {
		if n.Mesh.Skinned() {
			skinned = append(skinned, n)
		}
	}

	baked := iter.Map(skinned, func(n **scene.Node) *scene.Node {
		return bakeMesh(*n)
	})

	group := scene.NewGroup(GroupName)
	var rep Report
	for i, n := range skinned {
		if baked[i] == nil {
			log.Warn("skinned mesh missing skin data", zap.String("mesh", n.Name))
			rep.Skipped = append(rep.Skipped, n.Name)
			continue
		}
		group.Add(baked[i])
		rep.Baked = append(rep.Baked, baked[i].Name)
	}
	group.UpdateWorld()

	log.Debug("bake complete",
		zap.Int("baked", len(rep.Baked)),
		zap.Int("skipped", len(rep.Skipped)))
	return group, rep
}

// bakeMesh returns nil when n lacks skin attributes.
func bakeMesh(n *scene.Node) *scene.Node {
	g := n.Mesh.Geometry
	if !g.HasSkinAttributes() {
		return nil
	}
	s := n.Mesh.Skin

	mats := make([]mathutil.Mat4, len(s.Joints))
	valid := make([]bool, len(s.Joints))
	for i := range s.Joints {
		mats[i], valid[i] = s.JointMatrix(i)
	}

	out := g.Clone()
	for vi, p := range g.Positions {
		v := s.BindMatrix.MulPoint(mathutil.V3(p))
		var acc mathutil.Vec3
		for k := 0; k < 4; k++ {
			w := float64(g.Weights[vi][k])
			j := int(g.Joints[vi][k])
			if w <= 0 || j >= len(mats) || !valid[j] {
				continue
			}
			acc = acc.Add(mats[j].MulPoint(v).Scale(w))
		}
		out.Positions[vi] = s.BindMatrixInverse.MulPoint(acc).F32()
	}
	out.ComputeVertexNormals()
	out.StripSkinAttributes()

	name := n.Name
	if name == "" {
		name = "baked-mesh"
	}
	static := scene.NewMesh(name, &scene.Mesh{Geometry: out, Material: n.Mesh.Material.Clone()})
	static.SetTransform(n.World())
	return static
}

// ExportGroup wraps baked in the export root carrying the fixed axis
// correction of the source rigs.
func ExportGroup(baked *scene.Node) *scene.Node {
	root := scene.NewGroup(ExportName)
	root.Rotation = mathutil.ExportOrientation
	root.Add(baked)
	root.UpdateWorld()
	return root
}
