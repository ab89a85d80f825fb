// Package pose holds the user-authored joint rotations of a posing session.
package pose

import (
	"encoding/json"
	"fmt"

	"pose-studio/internal/joint"
	"pose-studio/internal/mathutil"
)

// DefaultTolerance is the per-axis difference, in degrees, under which two
// poses are considered the same.
const DefaultTolerance = 1.0

// Pose is one rotation delta per known joint, in degrees. Being a fixed
// array it always holds exactly the topology's joints.
type Pose [joint.Count]joint.Euler

// Rest returns the default pose: zero everywhere except the rest bias.
func Rest() Pose {
	var p Pose
	for i := range p {
		p[i] = joint.RestOf(joint.ID(i))
	}
	return p
}

// FromMap builds a pose from a name-keyed map. Keys may be canonical or rig
// bone names. Unknown keys are dropped, missing joints take their rest
// value and every value is clamped.
func FromMap(in map[string]joint.Euler) Pose {
	p := Rest()
	for name, e := range in {
		id := joint.Parse(name)
		if !id.Valid() {
			continue
		}
		l, _ := joint.LimitsFor(id)
		p[id] = l.Clamp(e)
	}
	return p
}

// Get returns the rotation of id, zero for Unknown.
func (p Pose) Get(id joint.ID) joint.Euler {
	if !id.Valid() {
		return joint.Euler{}
	}
	return p[id]
}

// Map returns the pose keyed by canonical joint name.
func (p Pose) Map() map[string]joint.Euler {
	m := make(map[string]joint.Euler, joint.Count)
	for i, e := range p {
		m[joint.ID(i).String()] = e
	}
	return m
}

// Clamped returns p with every joint clamped to its limits.
func (p Pose) Clamped() Pose {
	for i := range p {
		l, _ := joint.LimitsFor(joint.ID(i))
		p[i] = l.Clamp(p[i])
	}
	return p
}

// Matches reports whether every joint axis of a and b differs by at most tol.
func Matches(a, b Pose, tol float64) bool {
	for i := range a {
		for _, ax := range []joint.Axis{joint.X, joint.Y, joint.Z} {
			if !mathutil.ApproxEqual(a[i].Get(ax), b[i].Get(ax), tol) {
				return false
			}
		}
	}
	return true
}

// Mirror swaps every left/right joint pair, negating Y and Z so the pose
// reads the same in a mirror. Centre joints are unchanged.
func (p Pose) Mirror() Pose {
	var out Pose
	for i := range p {
		id := joint.ID(i)
		src := p[id.Mirror()]
		if id.Mirror() == id {
			out[i] = src
			continue
		}
		l, _ := joint.LimitsFor(id)
		out[i] = l.Clamp(joint.Euler{X: src.X, Y: -src.Y, Z: -src.Z})
	}
	return out
}

func (p Pose) MarshalJSON() ([]byte, error) {
	return json.Marshal(p.Map())
}

func (p *Pose) UnmarshalJSON(data []byte) error {
	var m map[string]joint.Euler
	if err := json.Unmarshal(data, &m); err != nil {
		return fmt.Errorf("pose: decode: %w", err)
	}
	*p = FromMap(m)
	return nil
}
