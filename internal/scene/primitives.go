package scene

import (
	"math"

	"pose-studio/internal/mathutil"
)

// lathe revolves a (radius, height) profile around Y into an indexed
// triangle mesh, rings ordered bottom to top.
func lathe(profile [][2]float64, radial int) *Geometry {
	g := &Geometry{}
	cols := radial + 1
	for i, p := range profile {
		for j := 0; j <= radial; j++ {
			theta := float64(j) / float64(radial) * 2 * math.Pi
			g.Positions = append(g.Positions, [3]float32{
				float32(p[0] * math.Sin(theta)),
				float32(p[1]),
				float32(p[0] * math.Cos(theta)),
			})
			g.UVs = append(g.UVs, [2]float32{
				float32(j) / float32(radial),
				float32(i) / float32(len(profile)-1),
			})
		}
	}
	for i := 0; i+1 < len(profile); i++ {
		for j := 0; j < radial; j++ {
			a := uint32(i*cols + j)
			b := a + uint32(cols)
			g.Indices = append(g.Indices, a, a+1, b, a+1, b+1, b)
		}
	}
	g.ComputeVertexNormals()
	return g
}

// Sphere returns a UV sphere centred on the origin.
func Sphere(radius float64, widthSegments, heightSegments int) *Geometry {
	widthSegments = max(widthSegments, 3)
	heightSegments = max(heightSegments, 2)
	profile := make([][2]float64, heightSegments+1)
	for i := range profile {
		phi := -math.Pi/2 + float64(i)/float64(heightSegments)*math.Pi
		profile[i] = [2]float64{radius * math.Cos(phi), radius * math.Sin(phi)}
	}
	return lathe(profile, widthSegments)
}

// Capsule returns a cylinder of the given length capped by hemispheres,
// centred on the origin along Y.
func Capsule(radius, length float64, capSegments, radialSegments int) *Geometry {
	capSegments = max(capSegments, 1)
	radialSegments = max(radialSegments, 3)
	half := length / 2
	var profile [][2]float64
	for i := 0; i <= capSegments; i++ {
		phi := -math.Pi/2 + float64(i)/float64(capSegments)*math.Pi/2
		profile = append(profile, [2]float64{radius * math.Cos(phi), radius*math.Sin(phi) - half})
	}
	for i := 0; i <= capSegments; i++ {
		phi := float64(i) / float64(capSegments) * math.Pi / 2
		profile = append(profile, [2]float64{radius * math.Cos(phi), radius*math.Sin(phi) + half})
	}
	return lathe(profile, radialSegments)
}

// Box returns an axis-aligned box centred on the origin with flat faces.
func Box(width, height, depth float64) *Geometry {
	hx, hy, hz := width/2, height/2, depth/2
	faces := []struct{ n, u, v mathutil.Vec3 }{
		{mathutil.Vec3{1, 0, 0}, mathutil.Vec3{0, 0, -1}, mathutil.Vec3{0, 1, 0}},
		{mathutil.Vec3{-1, 0, 0}, mathutil.Vec3{0, 0, 1}, mathutil.Vec3{0, 1, 0}},
		{mathutil.Vec3{0, 1, 0}, mathutil.Vec3{1, 0, 0}, mathutil.Vec3{0, 0, -1}},
		{mathutil.Vec3{0, -1, 0}, mathutil.Vec3{1, 0, 0}, mathutil.Vec3{0, 0, 1}},
		{mathutil.Vec3{0, 0, 1}, mathutil.Vec3{1, 0, 0}, mathutil.Vec3{0, 1, 0}},
		{mathutil.Vec3{0, 0, -1}, mathutil.Vec3{-1, 0, 0}, mathutil.Vec3{0, 1, 0}},
	}
	half := mathutil.Vec3{hx, hy, hz}
	scale := func(v mathutil.Vec3) mathutil.Vec3 {
		return mathutil.Vec3{v[0] * half[0], v[1] * half[1], v[2] * half[2]}
	}
	g := &Geometry{}
	for _, f := range faces {
		base := uint32(len(g.Positions))
		c, u, v := scale(f.n), scale(f.u), scale(f.v)
		corners := []mathutil.Vec3{
			c.Sub(u).Sub(v), c.Add(u).Sub(v), c.Add(u).Add(v), c.Sub(u).Add(v),
		}
		uvs := [][2]float32{{0, 0}, {1, 0}, {1, 1}, {0, 1}}
		for i, p := range corners {
			g.Positions = append(g.Positions, p.F32())
			g.Normals = append(g.Normals, f.n.F32())
			g.UVs = append(g.UVs, uvs[i])
		}
		g.Indices = append(g.Indices, base, base+1, base+2, base, base+2, base+3)
	}
	return g
}

// Placeholder is the stand-in figure shown when a model cannot be loaded:
// a capsule body and a sphere head, neither skinned.
func Placeholder() *Node {
	root := NewGroup("placeholder")

	body := NewMesh("placeholder-body", &Mesh{Geometry: Capsule(0.2, 1, 8, 16), Material: DefaultMaterial()})
	body.Position = mathutil.Vec3{0, 0.8, 0}

	head := NewMesh("placeholder-head", &Mesh{Geometry: Sphere(0.2, 16, 16), Material: DefaultMaterial()})
	head.Position = mathutil.Vec3{0, 1.5, 0}

	root.Add(body, head)
	root.UpdateWorld()
	return root
}
