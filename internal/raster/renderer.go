// Package raster renders scene graphs to small images with a software
// rasterizer. It is used for saved-pose and custom-model thumbnails and
// for light reference previews.
package raster

import (
	"image"
	"math"

	"pose-studio/internal/mathutil"
	"pose-studio/internal/scene"
)

// margin is the empty border, in output pixels, left around the figure.
const margin = 6

// Render draws every mesh under root, in world space, from view, fitted
// orthographically into a size×size image. Skinned meshes are drawn in
// their bind shape; bake first to draw a pose.
func Render(root *scene.Node, view mathutil.Mat3, size int, lc *LightConfig) *image.NRGBA {
	fb := NewFrameBuffer(size)
	if root == nil || size <= 0 {
		return fb.Image()
	}
	root.UpdateWorld()

	type part struct {
		verts []mathutil.Vec3
		mesh  *scene.Mesh
	}
	var parts []part
	lo := mathutil.Vec3{math.Inf(1), math.Inf(1), math.Inf(1)}
	hi := mathutil.Vec3{math.Inf(-1), math.Inf(-1), math.Inf(-1)}

	for _, n := range root.Meshes() {
		if n.Mesh.Geometry.VertexCount() == 0 {
			continue
		}
		world := n.World()
		verts := make([]mathutil.Vec3, len(n.Mesh.Geometry.Positions))
		for i, p := range n.Mesh.Geometry.Positions {
			v := view.MulVec3(world.MulPoint(mathutil.V3(p)))
			verts[i] = v
			lo = lo.Min(v)
			hi = hi.Max(v)
		}
		parts = append(parts, part{verts, n.Mesh})
	}
	if len(parts) == 0 {
		return fb.Image()
	}

	center := lo.Add(hi).Scale(0.5)
	span := math.Max(hi[0]-lo[0], hi[1]-lo[1])
	if span < 1e-3 {
		span = 1e-3
	}
	m := margin * size / 128
	scale := float64(size-2*m) / span
	half := float64(size) / 2

	if lc == nil {
		def := DefaultLightConfig()
		lc = &def
	}
	for _, pt := range parts {
		col := colorOf(pt.mesh.Material)
		n := len(pt.verts)
		pt.mesh.Geometry.Triangles(func(i, j, k int) {
			if i >= n || j >= n || k >= n {
				return
			}
			a, b, c := pt.verts[i], pt.verts[j], pt.verts[k]
			normal := b.Sub(a).Cross(c.Sub(a)).Normalize()
			if normal == (mathutil.Vec3{}) {
				return
			}
			var screen [3]mathutil.Vec3
			for q, v := range [3]mathutil.Vec3{a, b, c} {
				screen[q] = mathutil.Vec3{
					half + (v[0]-center[0])*scale,
					half - (v[1]-center[1])*scale,
					v[2],
				}
			}
			RasterizeTriangle(fb, screen, normal, col, lc)
		})
	}
	return fb.Image()
}

func colorOf(m *scene.Material) Color {
	if m == nil {
		m = scene.DefaultMaterial()
	}
	return Color(m.Color)
}
