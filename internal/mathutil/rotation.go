package mathutil

import "math"

// RotX returns a 3×3 rotation matrix around the X axis. Angle in radians.
func RotX(a float64) Mat3 {
	c, s := math.Cos(a), math.Sin(a)
	return Mat3{
		1, 0, 0,
		0, c, -s,
		0, s, c,
	}
}

// RotY returns a 3×3 rotation matrix around the Y axis.
func RotY(a float64) Mat3 {
	c, s := math.Cos(a), math.Sin(a)
	return Mat3{
		c, 0, s,
		0, 1, 0,
		-s, 0, c,
	}
}

// RotZ returns a 3×3 rotation matrix around the Z axis.
func RotZ(a float64) Mat3 {
	c, s := math.Cos(a), math.Sin(a)
	return Mat3{
		c, -s, 0,
		s, c, 0,
		0, 0, 1,
	}
}

// EulerXYZ returns RotX(x) × RotY(y) × RotZ(z), the intrinsic XYZ order
// used for every joint local rotation. Angles in radians.
func EulerXYZ(e Vec3) Mat3 {
	return Mat3Mul(Mat3Mul(RotX(e[0]), RotY(e[1])), RotZ(e[2]))
}

// Deg2Rad converts degrees to radians.
func Deg2Rad(d float64) float64 {
	return d * math.Pi / 180
}

// AlignY returns the rotation taking +Y onto the direction d.
func AlignY(d Vec3) Mat3 {
	d = d.Normalize()
	y := Vec3{0, 1, 0}
	c := y.Dot(d)
	if c > 1-1e-12 {
		return Mat3Identity()
	}
	if c < -1+1e-12 {
		return RotX(math.Pi)
	}
	// Rodrigues about y × d.
	k := y.Cross(d).Normalize()
	s := math.Sqrt(1 - c*c)
	t := 1 - c
	return Mat3{
		t*k[0]*k[0] + c, t*k[0]*k[1] - s*k[2], t*k[0]*k[2] + s*k[1],
		t*k[0]*k[1] + s*k[2], t*k[1]*k[1] + c, t*k[1]*k[2] - s*k[0],
		t*k[0]*k[2] - s*k[1], t*k[1]*k[2] + s*k[0], t*k[2]*k[2] + c,
	}
}
