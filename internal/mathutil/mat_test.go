package mathutil

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

const tol = 1e-9

func assertVec(t *testing.T, want, got Vec3) {
	t.Helper()
	for i := range want {
		assert.InDelta(t, want[i], got[i], tol, "component %d: want %v got %v", i, want, got)
	}
}

func assertMat3(t *testing.T, want, got Mat3) {
	t.Helper()
	for i := range want {
		assert.InDelta(t, want[i], got[i], tol, "element %d", i)
	}
}

func TestEulerXYZMatchesQuat(t *testing.T) {
	e := Vec3{Deg2Rad(30), Deg2Rad(-45), Deg2Rad(60)}
	assertMat3(t, EulerXYZ(e), QuatToMat3(EulerToQuat(e[0], e[1], e[2])))
}

func TestEulerFromMat3RoundTrip(t *testing.T) {
	for _, e := range []Vec3{
		{0, 0, 0},
		{Deg2Rad(10), Deg2Rad(20), Deg2Rad(30)},
		{Deg2Rad(-120), Deg2Rad(45), Deg2Rad(170)},
	} {
		assertVec(t, e, EulerFromMat3(EulerXYZ(e)))
	}
}

func TestRotZQuarterTurn(t *testing.T) {
	assertVec(t, Vec3{0, 1, 0}, RotZ(math.Pi/2).MulVec3(Vec3{1, 0, 0}))
}

func TestMat4InverseAndCompose(t *testing.T) {
	m := Compose(Vec3{1, 2, 3}, EulerXYZ(Vec3{0.3, -0.2, 0.9}), Vec3{2, 2, 2})
	assert.True(t, Mat4Mul(m, m.Inverse()).IsIdentity())

	p := Vec3{0.5, -1, 4}
	assertVec(t, p, m.Inverse().MulPoint(m.MulPoint(p)))
}

func TestMat4SingularInverseIsIdentity(t *testing.T) {
	assert.True(t, Mat4{}.Inverse().IsIdentity())
}

func TestDecompose(t *testing.T) {
	rot := EulerXYZ(Vec3{0.1, 0.2, 0.3})
	tr, r, s := Compose(Vec3{4, 5, 6}, rot, Vec3{1, 3, 0.5}).Decompose()
	assertVec(t, Vec3{4, 5, 6}, tr)
	assertVec(t, Vec3{1, 3, 0.5}, s)
	assertMat3(t, rot, r)
}

func TestColumnMajorRoundTrip(t *testing.T) {
	m := Compose(Vec3{7, 8, 9}, RotY(0.4), Vec3{1, 1, 1})
	cm := m.ColumnMajor()
	assert.Equal(t, 7.0, cm[12])
	assert.Equal(t, m, Mat4FromColumnMajor(cm))
}

func TestMulDirIgnoresTranslation(t *testing.T) {
	m := FromMat3Translation(Mat3Identity(), Vec3{10, 10, 10})
	assertVec(t, Vec3{1, 0, 0}, m.MulDir(Vec3{1, 0, 0}))
}

func TestAlignY(t *testing.T) {
	for _, d := range []Vec3{{1, 0, 0}, {0, 0, -2}, {0, -1, 0}, {0, 1, 0}, {1, 1, 1}} {
		assertVec(t, d.Normalize(), AlignY(d).MulVec3(Vec3{0, 1, 0}))
	}
}
