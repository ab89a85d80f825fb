// Package rig builds the procedural mannequin: a rigidly skinned humanoid
// whose bones carry the canonical rig names, usable when no model file is
// available.
package rig

import (
	"math"

	"pose-studio/internal/compose"
	"pose-studio/internal/joint"
	"pose-studio/internal/mathutil"
	"pose-studio/internal/pose"
	"pose-studio/internal/scene"
)

// Name is the root node name of a mannequin.
const Name = "mannequin"

// T-pose joint positions in metres, Y up, facing +Z. Left is -X.
var restPosition = [joint.Count]mathutil.Vec3{
	joint.Hips:          {0, 0.95, 0},
	joint.Spine:         {0, 1.10, 0},
	joint.Spine1:        {0, 1.26, 0},
	joint.Spine2:        {0, 1.42, 0},
	joint.Neck:          {0, 1.58, 0},
	joint.Head:          {0, 1.68, 0},
	joint.LeftShoulder:  {-0.05, 1.52, 0},
	joint.LeftArm:       {-0.18, 1.52, 0},
	joint.LeftForeArm:   {-0.46, 1.52, 0},
	joint.LeftHand:      {-0.72, 1.52, 0},
	joint.RightShoulder: {0.05, 1.52, 0},
	joint.RightArm:      {0.18, 1.52, 0},
	joint.RightForeArm:  {0.46, 1.52, 0},
	joint.RightHand:     {0.72, 1.52, 0},
	joint.LeftUpLeg:     {-0.1, 0.90, 0},
	joint.LeftLeg:       {-0.1, 0.50, 0},
	joint.LeftFoot:      {-0.1, 0.09, 0},
	joint.LeftToeBase:   {-0.1, 0.03, 0.12},
	joint.RightUpLeg:    {0.1, 0.90, 0},
	joint.RightLeg:      {0.1, 0.50, 0},
	joint.RightFoot:     {0.1, 0.09, 0},
	joint.RightToeBase:  {0.1, 0.03, 0.12},
}

type part struct {
	bone joint.ID
	geom func() *scene.Geometry
}

func limb(from, to joint.ID, radius float64) func() *scene.Geometry {
	return func() *scene.Geometry {
		a, b := restPosition[from], restPosition[to]
		d := b.Sub(a)
		g := scene.Capsule(radius, math.Max(d.Len()-radius, 0.01), 4, 12)
		g.Transform(mathutil.FromMat3Translation(mathutil.AlignY(d), a.Add(b).Scale(0.5)))
		return g
	}
}

func block(at mathutil.Vec3, w, h, d float64) func() *scene.Geometry {
	return func() *scene.Geometry {
		g := scene.Box(w, h, d)
		g.Transform(mathutil.FromMat3Translation(mathutil.Mat3Identity(), at))
		return g
	}
}

func ball(at mathutil.Vec3, r float64) func() *scene.Geometry {
	return func() *scene.Geometry {
		g := scene.Sphere(r, 16, 12)
		g.Transform(mathutil.FromMat3Translation(mathutil.Mat3Identity(), at))
		return g
	}
}

var bodyParts = map[string][]part{
	"Body": {
		{joint.Hips, block(mathutil.Vec3{0, 0.97, 0}, 0.34, 0.2, 0.2)},
		{joint.Spine, block(mathutil.Vec3{0, 1.17, 0}, 0.3, 0.18, 0.18)},
		{joint.Spine1, block(mathutil.Vec3{0, 1.33, 0}, 0.34, 0.16, 0.2)},
		{joint.Spine2, block(mathutil.Vec3{0, 1.48, 0}, 0.38, 0.14, 0.2)},
	},
	"Skin": {
		{joint.Neck, limb(joint.Neck, joint.Head, 0.05)},
		{joint.Head, ball(mathutil.Vec3{0, 1.8, 0.01}, 0.11)},
		{joint.LeftShoulder, limb(joint.LeftShoulder, joint.LeftArm, 0.05)},
		{joint.LeftArm, limb(joint.LeftArm, joint.LeftForeArm, 0.045)},
		{joint.LeftForeArm, limb(joint.LeftForeArm, joint.LeftHand, 0.04)},
		{joint.LeftHand, ball(mathutil.Vec3{-0.78, 1.52, 0}, 0.05)},
		{joint.RightShoulder, limb(joint.RightShoulder, joint.RightArm, 0.05)},
		{joint.RightArm, limb(joint.RightArm, joint.RightForeArm, 0.045)},
		{joint.RightForeArm, limb(joint.RightForeArm, joint.RightHand, 0.04)},
		{joint.RightHand, ball(mathutil.Vec3{0.78, 1.52, 0}, 0.05)},
	},
	"Legs": {
		{joint.LeftUpLeg, limb(joint.LeftUpLeg, joint.LeftLeg, 0.07)},
		{joint.LeftLeg, limb(joint.LeftLeg, joint.LeftFoot, 0.055)},
		{joint.RightUpLeg, limb(joint.RightUpLeg, joint.RightLeg, 0.07)},
		{joint.RightLeg, limb(joint.RightLeg, joint.RightFoot, 0.055)},
	},
	"Shoes": {
		{joint.LeftFoot, block(mathutil.Vec3{-0.1, 0.04, 0.03}, 0.09, 0.08, 0.16)},
		{joint.LeftToeBase, block(mathutil.Vec3{-0.1, 0.03, 0.15}, 0.09, 0.06, 0.07)},
		{joint.RightFoot, block(mathutil.Vec3{0.1, 0.04, 0.03}, 0.09, 0.08, 0.16)},
		{joint.RightToeBase, block(mathutil.Vec3{0.1, 0.03, 0.15}, 0.09, 0.06, 0.07)},
	},
}

// MeshNames lists the mannequin's sub-meshes in build order.
var MeshNames = []string{"Body", "Skin", "Legs", "Shoes"}

var palette = map[string]*scene.Material{
	"Body":  {Name: "shirt", Color: srgb(0x4a5568), Roughness: 0.6},
	"Skin":  {Name: "skin", Color: srgb(0xe0c8b0), Roughness: 0.8},
	"Legs":  {Name: "pants", Color: srgb(0x2d3748), Roughness: 0.7},
	"Shoes": {Name: "shoe", Color: srgb(0x1a202c), Roughness: 0.8},
}

// Mannequin builds a skinned humanoid bound so that, under corr, the rest
// pose reproduces its T-pose exactly. Each vertex follows a single bone.
func Mannequin(corr joint.CorrectionOffsets) *scene.Node {
	root := scene.NewGroup(Name)
	bones := buildSkeleton(corr)
	root.Add(bones[joint.Hips])
	root.UpdateWorld()

	ibm := make([]mathutil.Mat4, joint.Count)
	for i, b := range bones {
		ibm[i] = b.World().Inverse()
	}

	for _, name := range MeshNames {
		var parts []*scene.Geometry
		for _, p := range bodyParts[name] {
			g := p.geom()
			g.Joints = make([][4]uint16, len(g.Positions))
			g.Weights = make([][4]float32, len(g.Positions))
			for i := range g.Positions {
				g.Joints[i] = [4]uint16{uint16(p.bone)}
				g.Weights[i] = [4]float32{1}
			}
			parts = append(parts, g)
		}
		mesh := scene.NewMesh(name, &scene.Mesh{
			Geometry: scene.Merge(parts...),
			Material: palette[name].Clone(),
			Skin:     scene.NewSkin(bones[:], ibm, mathutil.Mat4Identity()),
		})
		root.Add(mesh)
	}
	root.UpdateWorld()
	return root
}

// buildSkeleton lays the bones out at their T-pose positions with the
// rest rotation the compositor will apply, expressing each offset in the
// parent's rotated frame.
func buildSkeleton(corr joint.CorrectionOffsets) [joint.Count]*scene.Node {
	c := compose.New(corr)
	rest := pose.Rest()

	var bones [joint.Count]*scene.Node
	var worldRot [joint.Count]mathutil.Mat3
	joint.Walk(func(id joint.ID, _ int) {
		b := scene.NewBone(id.BoneName())
		b.Rotation = compose.Radians(c.Rotation(rest, id))
		local := mathutil.EulerXYZ(b.Rotation)

		def, _ := joint.Def(id)
		if p := def.Parent; p.Valid() {
			offset := restPosition[id].Sub(restPosition[p])
			b.Position = worldRot[p].Transpose().MulVec3(offset)
			worldRot[id] = mathutil.Mat3Mul(worldRot[p], local)
			bones[p].Add(b)
		} else {
			b.Position = restPosition[id]
			worldRot[id] = local
		}
		bones[id] = b
	})
	return bones
}

func srgb(hex uint32) [4]float64 {
	lin := func(c uint32) float64 {
		v := float64(c&0xff) / 255
		if v <= 0.04045 {
			return v / 12.92
		}
		return math.Pow((v+0.055)/1.055, 2.4)
	}
	return [4]float64{lin(hex >> 16), lin(hex >> 8), lin(hex), 1}
}
