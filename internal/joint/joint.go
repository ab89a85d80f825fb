// Package joint describes the fixed humanoid skeleton: joint identifiers,
// display labels, hierarchy, per-axis rotation limits and the correction
// offsets of the source rig.
package joint

import "strings"

// ID identifies one joint of the humanoid skeleton.
type ID int

// Unknown is returned for any name that does not resolve to a joint.
const Unknown ID = -1

const (
	Hips ID = iota
	Spine
	Spine1
	Spine2
	Neck
	Head
	LeftShoulder
	LeftArm
	LeftForeArm
	LeftHand
	RightShoulder
	RightArm
	RightForeArm
	RightHand
	LeftUpLeg
	LeftLeg
	LeftFoot
	LeftToeBase
	RightUpLeg
	RightLeg
	RightFoot
	RightToeBase

	// Count is the number of known joints.
	Count = int(RightToeBase) + 1
)

// BonePrefix is the naming prefix of the source rig's bones.
const BonePrefix = "mixamorig"

var names = [Count]string{
	"hips", "spine", "spine1", "spine2", "neck", "head",
	"leftShoulder", "leftArm", "leftForeArm", "leftHand",
	"rightShoulder", "rightArm", "rightForeArm", "rightHand",
	"leftUpLeg", "leftLeg", "leftFoot", "leftToeBase",
	"rightUpLeg", "rightLeg", "rightFoot", "rightToeBase",
}

var byName = func() map[string]ID {
	m := make(map[string]ID, Count*2)
	for i, n := range names {
		id := ID(i)
		m[n] = id
		m[BonePrefix+upperFirst(n)] = id
	}
	return m
}()

// Valid reports whether id names a known joint.
func (id ID) Valid() bool {
	return id >= 0 && int(id) < Count
}

// String returns the canonical camelCase name, or "unknown".
func (id ID) String() string {
	if !id.Valid() {
		return "unknown"
	}
	return names[id]
}

// BoneName returns the rig bone name, e.g. mixamorigLeftForeArm.
func (id ID) BoneName() string {
	if !id.Valid() {
		return ""
	}
	return BonePrefix + upperFirst(names[id])
}

// Parse resolves a canonical joint name ("leftForeArm"), a rig bone name
// ("mixamorigLeftForeArm") or the colon form ("mixamorig:LeftForeArm").
// Anything else is Unknown.
func Parse(name string) ID {
	if id, ok := byName[name]; ok {
		return id
	}
	if rest, ok := strings.CutPrefix(name, BonePrefix+":"); ok {
		if id, ok := byName[BonePrefix+rest]; ok {
			return id
		}
	}
	return Unknown
}

// Mirror returns the joint on the opposite side of the body. Centre joints
// map to themselves.
func (id ID) Mirror() ID {
	switch {
	case id >= LeftShoulder && id <= LeftHand:
		return id + (RightShoulder - LeftShoulder)
	case id >= RightShoulder && id <= RightHand:
		return id - (RightShoulder - LeftShoulder)
	case id >= LeftUpLeg && id <= LeftToeBase:
		return id + (RightUpLeg - LeftUpLeg)
	case id >= RightUpLeg && id <= RightToeBase:
		return id - (RightUpLeg - LeftUpLeg)
	}
	return id
}

func upperFirst(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
