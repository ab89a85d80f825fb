package pose

import "pose-studio/internal/joint"

// Model is the editable pose of a session. Every mutation clamps against the
// joint limits and unknown joints are ignored. Not safe for concurrent use.
type Model struct {
	pose     Pose
	onChange func(Pose)
}

// NewModel returns a model at the rest pose.
func NewModel() *Model {
	return &Model{pose: Rest()}
}

// OnChange registers fn to be called with the new pose after each mutation.
func (m *Model) OnChange(fn func(Pose)) {
	m.onChange = fn
}

// Pose returns a copy of the current pose.
func (m *Model) Pose() Pose {
	return m.pose
}

// Get returns the current rotation of id.
func (m *Model) Get(id joint.ID) joint.Euler {
	return m.pose.Get(id)
}

// SetAxis clamps v into the joint's axis range and stores it. It returns the
// stored value; for an unknown joint it does nothing and returns 0.
func (m *Model) SetAxis(id joint.ID, a joint.Axis, v float64) float64 {
	l, ok := joint.LimitsFor(id)
	if !ok {
		return 0
	}
	v = l.Axis(a).Clamp(v)
	m.pose[id] = m.pose[id].With(a, v)
	m.changed()
	return v
}

// SetJoint clamps all three axes independently and stores them.
func (m *Model) SetJoint(id joint.ID, e joint.Euler) {
	l, ok := joint.LimitsFor(id)
	if !ok {
		return
	}
	m.pose[id] = l.Clamp(e)
	m.changed()
}

// ResetJoint restores id to its rest value.
func (m *Model) ResetJoint(id joint.ID) {
	if !id.Valid() {
		return
	}
	m.pose[id] = joint.RestOf(id)
	m.changed()
}

// ResetAll restores the rest pose.
func (m *Model) ResetAll() {
	m.pose = Rest()
	m.changed()
}

// Load replaces the whole pose from a name-keyed map; see FromMap.
func (m *Model) Load(in map[string]joint.Euler) {
	m.pose = FromMap(in)
	m.changed()
}

// Set replaces the whole pose, clamping every joint.
func (m *Model) Set(p Pose) {
	m.pose = p.Clamped()
	m.changed()
}

// Mirror swaps the left and right sides of the current pose.
func (m *Model) Mirror() {
	m.pose = m.pose.Mirror()
	m.changed()
}

// Matches compares the current pose with other at DefaultTolerance.
func (m *Model) Matches(other Pose) bool {
	return Matches(m.pose, other, DefaultTolerance)
}

func (m *Model) changed() {
	if m.onChange != nil {
		m.onChange(m.pose)
	}
}
