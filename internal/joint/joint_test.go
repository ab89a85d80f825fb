package joint

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse(t *testing.T) {
	assert.Equal(t, LeftForeArm, Parse("leftForeArm"))
	assert.Equal(t, LeftForeArm, Parse("mixamorigLeftForeArm"))
	assert.Equal(t, LeftForeArm, Parse("mixamorig:LeftForeArm"))
	assert.Equal(t, Spine1, Parse("mixamorigSpine1"))
	assert.Equal(t, Unknown, Parse("nonexistentJoint"))
	assert.Equal(t, Unknown, Parse("mixamorig:"))
	assert.Equal(t, Unknown, Parse(""))
}

func TestNamesRoundTrip(t *testing.T) {
	for i := 0; i < Count; i++ {
		id := ID(i)
		assert.Equal(t, id, Parse(id.String()))
		assert.Equal(t, id, Parse(id.BoneName()))
	}
	assert.Equal(t, "unknown", Unknown.String())
	assert.Empty(t, Unknown.BoneName())
}

func TestLimitsFor(t *testing.T) {
	l, ok := LimitsFor(LeftForeArm)
	require.True(t, ok)
	assert.Equal(t, Range{0, 145}, l.Z)

	_, ok = LimitsFor(Unknown)
	assert.False(t, ok)
}

func TestRestWithinLimits(t *testing.T) {
	for _, d := range All() {
		assert.Equal(t, d.Rest, d.Limits.Clamp(d.Rest), d.Name)
	}
	assert.Equal(t, Euler{90, 0, -90}, RestOf(LeftShoulder))
	assert.Equal(t, Euler{}, RestOf(Head))
}

func TestRangeClamp(t *testing.T) {
	rg := Range{-30, 30}
	assert.Equal(t, -30.0, rg.Clamp(-100))
	assert.Equal(t, 30.0, rg.Clamp(100))
	assert.Equal(t, 12.5, rg.Clamp(12.5))
	assert.Equal(t, -30.0, rg.Clamp(math.NaN()))

	toe, _ := LimitsFor(LeftToeBase)
	assert.True(t, toe.Y.Locked())
	assert.False(t, toe.X.Locked())
	assert.Equal(t, 0.0, toe.Y.Clamp(15))
}

func TestHierarchy(t *testing.T) {
	assert.Equal(t, []ID{Hips}, Roots())
	assert.Equal(t, []ID{Spine, LeftUpLeg, RightUpLeg}, ChildrenOf(Hips))
	assert.Equal(t, []ID{Neck, LeftShoulder, RightShoulder}, ChildrenOf(Spine2))
	assert.Empty(t, ChildrenOf(Head))
	assert.Nil(t, ChildrenOf(Unknown))

	var order []ID
	depth := map[ID]int{}
	Walk(func(id ID, d int) {
		order = append(order, id)
		depth[id] = d
	})
	require.Len(t, order, Count)
	assert.Equal(t, Hips, order[0])
	assert.Equal(t, Spine, order[1])
	assert.Equal(t, 0, depth[Hips])
	assert.Equal(t, 7, depth[LeftHand])
}

func TestMirror(t *testing.T) {
	assert.Equal(t, RightForeArm, LeftForeArm.Mirror())
	assert.Equal(t, LeftToeBase, RightToeBase.Mirror())
	assert.Equal(t, Neck, Neck.Mirror())
	for i := 0; i < Count; i++ {
		assert.Equal(t, ID(i), ID(i).Mirror().Mirror())
	}
}

func TestCorrections(t *testing.T) {
	c := DefaultCorrections()
	assert.Equal(t, Euler{X: 180}, c.Offset(Hips))
	assert.Equal(t, Euler{X: 180, Y: 180}, c.Offset(RightUpLeg))
	assert.Equal(t, Euler{}, c.Offset(Head))
	assert.Equal(t, Euler{}, c.Offset(Unknown))
}

func TestAxis(t *testing.T) {
	a, err := ParseAxis("Z")
	require.NoError(t, err)
	assert.Equal(t, Z, a)
	_, err = ParseAxis("w")
	assert.Error(t, err)

	e := Euler{}.With(Y, 5)
	assert.Equal(t, 5.0, e.Get(Y))
	assert.Equal(t, Euler{1, 7, 3}, Euler{1, 2, 3}.Add(Euler{0, 5, 0}))
}
