package raster

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"image"

	"github.com/HugoSmits86/nativewebp"
	"golang.org/x/image/draw"

	"pose-studio/internal/mathutil"
	"pose-studio/internal/scene"
)

// Thumbnail renders root from the thumbnail camera with the default lights.
func Thumbnail(root *scene.Node, size, supersample int) ([]byte, error) {
	return Preview(root, mathutil.ThumbnailView, size, supersample, nil)
}

// Preview renders root under view and lc at size×supersample and reduces it
// to a size×size WebP image. A nil lc uses the default lights.
func Preview(root *scene.Node, view mathutil.Mat3, size, supersample int, lc *LightConfig) ([]byte, error) {
	if supersample < 1 {
		supersample = 1
	}
	img := Render(root, view, size*supersample, lc)
	if supersample > 1 {
		img = Downsample(img, size)
	}
	return EncodeThumbnail(img)
}

// EncodeThumbnail encodes img as lossless WebP.
func EncodeThumbnail(img image.Image) ([]byte, error) {
	var buf bytes.Buffer
	if err := nativewebp.Encode(&buf, img, nil); err != nil {
		return nil, fmt.Errorf("raster: webp encode: %w", err)
	}
	return buf.Bytes(), nil
}

// DataURL embeds a WebP thumbnail in a data URL for persisted records.
func DataURL(webp []byte) string {
	return "data:image/webp;base64," + base64.StdEncoding.EncodeToString(webp)
}

// Downsample reduces img to targetSize with premultiplied-alpha CatmullRom
// filtering so transparent edges do not darken.
func Downsample(img *image.NRGBA, targetSize int) *image.NRGBA {
	b := img.Bounds()
	if b.Dx() <= targetSize && b.Dy() <= targetSize {
		return img
	}

	premul := image.NewRGBA(b)
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			si := img.PixOffset(x, y)
			di := premul.PixOffset(x, y)
			a := float64(img.Pix[si+3]) / 255.0
			premul.Pix[di] = uint8(float64(img.Pix[si])*a + 0.5)
			premul.Pix[di+1] = uint8(float64(img.Pix[si+1])*a + 0.5)
			premul.Pix[di+2] = uint8(float64(img.Pix[si+2])*a + 0.5)
			premul.Pix[di+3] = img.Pix[si+3]
		}
	}

	dst := image.NewRGBA(image.Rect(0, 0, targetSize, targetSize))
	draw.CatmullRom.Scale(dst, dst.Bounds(), premul, premul.Bounds(), draw.Src, nil)

	out := image.NewNRGBA(dst.Bounds())
	for i := 0; i < len(dst.Pix); i += 4 {
		a := float64(dst.Pix[i+3])
		if a > 1 {
			inv := 255.0 / a
			out.Pix[i] = clamp255(float64(dst.Pix[i]) * inv)
			out.Pix[i+1] = clamp255(float64(dst.Pix[i+1]) * inv)
			out.Pix[i+2] = clamp255(float64(dst.Pix[i+2]) * inv)
		}
		out.Pix[i+3] = dst.Pix[i+3]
	}
	return out
}
