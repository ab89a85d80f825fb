package mathutil

import "math"

// Fixed orientation corrections for the posed-model pipeline.
var (
	// ExportOrientation is the Euler rotation (radians) applied to the export root:
	// Rx(90°), compensating the Z-up convention of the source rigs.
	ExportOrientation = Vec3{math.Pi / 2, 0, 0}

	// ThumbnailView is the thumbnail camera: a slightly elevated three-quarter view.
	// Rx(15°) @ Ry(-30°)
	ThumbnailView = Mat3Mul(RotX(Deg2Rad(15)), RotY(Deg2Rad(-30)))
)

// ApproxEqual reports whether a and b differ by at most tol.
func ApproxEqual(a, b, tol float64) bool {
	return math.Abs(a-b) <= tol
}
