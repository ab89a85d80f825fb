package joint

import (
	"fmt"
	"math"
)

// Axis selects one component of an Euler rotation.
type Axis int

const (
	X Axis = iota
	Y
	Z
)

func (a Axis) String() string {
	switch a {
	case X:
		return "x"
	case Y:
		return "y"
	case Z:
		return "z"
	}
	return fmt.Sprintf("Axis(%d)", int(a))
}

// ParseAxis accepts "x", "y" or "z" in either case.
func ParseAxis(s string) (Axis, error) {
	switch s {
	case "x", "X":
		return X, nil
	case "y", "Y":
		return Y, nil
	case "z", "Z":
		return Z, nil
	}
	return 0, fmt.Errorf("joint: unknown axis %q", s)
}

// Euler is a rotation in degrees, applied in XYZ order.
type Euler struct {
	X float64 `json:"x" yaml:"x"`
	Y float64 `json:"y" yaml:"y"`
	Z float64 `json:"z" yaml:"z"`
}

// Get returns the component for axis a.
func (e Euler) Get(a Axis) float64 {
	switch a {
	case Y:
		return e.Y
	case Z:
		return e.Z
	}
	return e.X
}

// With returns a copy of e with axis a set to v.
func (e Euler) With(a Axis, v float64) Euler {
	switch a {
	case X:
		e.X = v
	case Y:
		e.Y = v
	case Z:
		e.Z = v
	}
	return e
}

// Add is per-axis addition.
func (e Euler) Add(o Euler) Euler {
	return Euler{e.X + o.X, e.Y + o.Y, e.Z + o.Z}
}

// Range is an inclusive [Min, Max] interval in degrees.
type Range struct {
	Min float64
	Max float64
}

// Clamp returns v limited to the range. NaN clamps to Min.
func (r Range) Clamp(v float64) float64 {
	if math.IsNaN(v) || v < r.Min {
		return r.Min
	}
	if v > r.Max {
		return r.Max
	}
	return v
}

// Locked reports a degenerate [0,0] range: the axis is not adjustable.
func (r Range) Locked() bool {
	return r.Min == 0 && r.Max == 0
}

// Limits holds one Range per axis.
type Limits struct {
	X, Y, Z Range
}

// Axis returns the range for a.
func (l Limits) Axis(a Axis) Range {
	switch a {
	case Y:
		return l.Y
	case Z:
		return l.Z
	}
	return l.X
}

// Clamp clamps every axis of e independently.
func (l Limits) Clamp(e Euler) Euler {
	return Euler{l.X.Clamp(e.X), l.Y.Clamp(e.Y), l.Z.Clamp(e.Z)}
}
