// Package compose turns a user pose plus the rig's correction offsets into
// the local rotations of a loaded skeleton.
package compose

import (
	"pose-studio/internal/joint"
	"pose-studio/internal/mathutil"
	"pose-studio/internal/pose"
	"pose-studio/internal/scene"
)

// Rotation returns correction + pose for id, added per axis in degrees.
// Unknown joints get zero.
func Rotation(corr joint.CorrectionOffsets, p pose.Pose, id joint.ID) joint.Euler {
	if !id.Valid() {
		return joint.Euler{}
	}
	return corr.Offset(id).Add(p.Get(id))
}

// Radians converts a degree Euler into the radian vector used by scene nodes.
func Radians(e joint.Euler) mathutil.Vec3 {
	return mathutil.Vec3{mathutil.Deg2Rad(e.X), mathutil.Deg2Rad(e.Y), mathutil.Deg2Rad(e.Z)}
}

// Compositor applies poses onto rigs using a fixed correction table.
type Compositor struct {
	corr joint.CorrectionOffsets
}

// New returns a compositor for corr. A nil table means no corrections.
func New(corr joint.CorrectionOffsets) *Compositor {
	if corr == nil {
		corr = joint.CorrectionOffsets{}
	}
	return &Compositor{corr: corr}
}

// Rotation is Rotation with the compositor's table.
func (c *Compositor) Rotation(p pose.Pose, id joint.ID) joint.Euler {
	return Rotation(c.corr, p, id)
}

// Apply sets the local rotation of every bone from p. A bone whose name is
// not a known joint is reset to zero rotation; joints with no bone are
// simply not applied. It returns how many bones mapped to a joint.
func (c *Compositor) Apply(p pose.Pose, bones []*scene.Node) int {
	matched := 0
	for _, b := range bones {
		id := joint.Parse(b.Name)
		if id.Valid() {
			matched++
		}
		b.Rotation = Radians(c.Rotation(p, id))
		b.Matrix = nil
	}
	return matched
}

// Pose applies p to every bone under root and refreshes world matrices.
func (c *Compositor) Pose(root *scene.Node, p pose.Pose) int {
	n := c.Apply(p, root.Bones())
	root.UpdateWorld()
	return n
}
