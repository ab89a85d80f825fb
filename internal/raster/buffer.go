package raster

import (
	"image"
	"math"
)

// FrameBuffer holds a square render target as flat slices.
type FrameBuffer struct {
	Size  int
	Color []uint8   // RGBA interleaved, len = Size*Size*4
	Depth []float64 // per pixel, larger is nearer; starts at -inf
}

// NewFrameBuffer allocates a transparent colour buffer and an empty depth buffer.
func NewFrameBuffer(size int) *FrameBuffer {
	n := size * size
	depth := make([]float64, n)
	for i := range depth {
		depth[i] = math.Inf(-1)
	}
	return &FrameBuffer{
		Size:  size,
		Color: make([]uint8, n*4),
		Depth: depth,
	}
}

// Image copies the colour buffer into an NRGBA image.
func (fb *FrameBuffer) Image() *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, fb.Size, fb.Size))
	copy(img.Pix, fb.Color)
	return img
}

// Coverage returns the fraction of pixels with non-zero alpha.
func (fb *FrameBuffer) Coverage() float64 {
	if fb.Size == 0 {
		return 0
	}
	var n int
	for i := 3; i < len(fb.Color); i += 4 {
		if fb.Color[i] != 0 {
			n++
		}
	}
	return float64(n) / float64(fb.Size*fb.Size)
}
