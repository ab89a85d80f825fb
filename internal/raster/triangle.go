package raster

import (
	"math"

	"pose-studio/internal/mathutil"
)

// Color is a linear RGBA colour with components in [0, 1].
type Color [4]float64

// RasterizeTriangle fills one flat-shaded triangle given in screen space
// (x right, y down, z larger nearer) with depth testing. normal is the
// face's unit view-space normal.
//
// Hot path: no allocation inside the pixel loop.
func RasterizeTriangle(fb *FrameBuffer, p [3]mathutil.Vec3, normal mathutil.Vec3, col Color, lc *LightConfig) {
	alpha := clamp255(col[3] * 255)
	if alpha < 8 {
		return
	}
	shade := lc.Shade(normal)
	r := lc.Encode(col[0] * shade[0])
	g := lc.Encode(col[1] * shade[1])
	b := lc.Encode(col[2] * shade[2])

	x0, y0, z0 := p[0][0], p[0][1], p[0][2]
	x1, y1, z1 := p[1][0], p[1][1], p[1][2]
	x2, y2, z2 := p[2][0], p[2][1], p[2][2]

	size := fb.Size
	minX := max(int(math.Floor(min(x0, x1, x2))), 0)
	maxX := min(int(math.Ceil(max(x0, x1, x2))), size-1)
	minY := max(int(math.Floor(min(y0, y1, y2))), 0)
	maxY := min(int(math.Ceil(max(y0, y1, y2))), size-1)
	if minX > maxX || minY > maxY {
		return
	}

	det := (y1-y2)*(x0-x2) + (x2-x1)*(y0-y2)
	if math.Abs(det) < 1e-8 {
		return
	}
	invDet := 1.0 / det

	dy12 := y1 - y2
	dx21 := x2 - x1
	dy20 := y2 - y0
	dx02 := x0 - x2

	for sy := minY; sy <= maxY; sy++ {
		// sample at pixel centres
		dsy := float64(sy) + 0.5 - y2
		rowOff := sy * size
		for sx := minX; sx <= maxX; sx++ {
			dsx := float64(sx) + 0.5 - x2
			w0 := (dy12*dsx + dx21*dsy) * invDet
			w1 := (dy20*dsx + dx02*dsy) * invDet
			w2 := 1.0 - w0 - w1
			if w0 < -0.001 || w1 < -0.001 || w2 < -0.001 {
				continue
			}

			z := w0*z0 + w1*z1 + w2*z2
			idx := rowOff + sx
			if z <= fb.Depth[idx] {
				continue
			}
			fb.Depth[idx] = z

			px := idx * 4
			fb.Color[px] = r
			fb.Color[px+1] = g
			fb.Color[px+2] = b
			fb.Color[px+3] = alpha
		}
	}
}
