package scene

import "pose-studio/internal/mathutil"

// Geometry is an indexed or non-indexed triangle list. Skinned geometry
// carries up to four joint influences per vertex.
type Geometry struct {
	Positions [][3]float32
	Normals   [][3]float32
	UVs       [][2]float32
	Indices   []uint32

	Joints  [][4]uint16
	Weights [][4]float32
}

// VertexCount returns the number of vertices.
func (g *Geometry) VertexCount() int {
	if g == nil {
		return 0
	}
	return len(g.Positions)
}

// HasSkinAttributes reports whether every vertex has joint indices and weights.
func (g *Geometry) HasSkinAttributes() bool {
	n := g.VertexCount()
	return n > 0 && len(g.Joints) == n && len(g.Weights) == n
}

// StripSkinAttributes drops joint indices and weights.
func (g *Geometry) StripSkinAttributes() {
	g.Joints = nil
	g.Weights = nil
}

// Triangles calls fn with the vertex indices of every triangle.
func (g *Geometry) Triangles(fn func(a, b, c int)) {
	if len(g.Indices) > 0 {
		for i := 0; i+2 < len(g.Indices); i += 3 {
			fn(int(g.Indices[i]), int(g.Indices[i+1]), int(g.Indices[i+2]))
		}
		return
	}
	for i := 0; i+2 < len(g.Positions); i += 3 {
		fn(i, i+1, i+2)
	}
}

// ComputeVertexNormals derives normals from the triangles. Indexed geometry
// gets area-weighted smooth normals; non-indexed geometry gets flat normals.
func (g *Geometry) ComputeVertexNormals() {
	n := len(g.Positions)
	acc := make([]mathutil.Vec3, n)
	g.Triangles(func(a, b, c int) {
		if a >= n || b >= n || c >= n {
			return
		}
		pa, pb, pc := mathutil.V3(g.Positions[a]), mathutil.V3(g.Positions[b]), mathutil.V3(g.Positions[c])
		face := pc.Sub(pb).Cross(pa.Sub(pb))
		acc[a] = acc[a].Add(face)
		acc[b] = acc[b].Add(face)
		acc[c] = acc[c].Add(face)
	})
	g.Normals = make([][3]float32, n)
	for i, v := range acc {
		g.Normals[i] = v.Normalize().F32()
	}
}

// Bounds returns the axis-aligned box of the positions. ok is false when
// there are none.
func (g *Geometry) Bounds() (lo, hi mathutil.Vec3, ok bool) {
	if g.VertexCount() == 0 {
		return lo, hi, false
	}
	lo = mathutil.V3(g.Positions[0])
	hi = lo
	for _, p := range g.Positions[1:] {
		v := mathutil.V3(p)
		lo = lo.Min(v)
		hi = hi.Max(v)
	}
	return lo, hi, true
}

// Clone deep-copies every attribute.
func (g *Geometry) Clone() *Geometry {
	if g == nil {
		return nil
	}
	return &Geometry{
		Positions: append([][3]float32(nil), g.Positions...),
		Normals:   append([][3]float32(nil), g.Normals...),
		UVs:       append([][2]float32(nil), g.UVs...),
		Indices:   append([]uint32(nil), g.Indices...),
		Joints:    append([][4]uint16(nil), g.Joints...),
		Weights:   append([][4]float32(nil), g.Weights...),
	}
}

// WorldBounds returns the axis-aligned box of every mesh under root in
// world space. World matrices must be current.
func WorldBounds(root *Node) (lo, hi mathutil.Vec3, ok bool) {
	for _, n := range root.Meshes() {
		w := n.World()
		for _, p := range n.Mesh.Geometry.Positions {
			v := w.MulPoint(mathutil.V3(p))
			if !ok {
				lo, hi, ok = v, v, true
				continue
			}
			lo = lo.Min(v)
			hi = hi.Max(v)
		}
	}
	return lo, hi, ok
}

// Transform applies m to positions and its rotation part to normals.
func (g *Geometry) Transform(m mathutil.Mat4) {
	for i, p := range g.Positions {
		g.Positions[i] = m.MulPoint(mathutil.V3(p)).F32()
	}
	for i, n := range g.Normals {
		g.Normals[i] = m.MulDir(mathutil.V3(n)).Normalize().F32()
	}
}

// Merge concatenates geometries into one indexed geometry. Optional
// attributes survive only when every part carries them.
func Merge(parts ...*Geometry) *Geometry {
	out := &Geometry{}
	normals, uvs, skin := true, true, true
	for _, p := range parts {
		n := len(p.Positions)
		normals = normals && len(p.Normals) == n
		uvs = uvs && len(p.UVs) == n
		skin = skin && p.HasSkinAttributes()
	}
	for _, p := range parts {
		base := uint32(len(out.Positions))
		out.Positions = append(out.Positions, p.Positions...)
		if normals {
			out.Normals = append(out.Normals, p.Normals...)
		}
		if uvs {
			out.UVs = append(out.UVs, p.UVs...)
		}
		if skin {
			out.Joints = append(out.Joints, p.Joints...)
			out.Weights = append(out.Weights, p.Weights...)
		}
		if len(p.Indices) > 0 {
			for _, i := range p.Indices {
				out.Indices = append(out.Indices, base+i)
			}
		} else {
			for i := range p.Positions {
				out.Indices = append(out.Indices, base+uint32(i))
			}
		}
	}
	return out
}
