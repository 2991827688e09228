// Package score compares a rendered canvas with a reference image.
package score

import (
	"errors"
	"fmt"
	"image"
	"image/color"
	_ "image/png"
	"math"
	"os"

	_ "golang.org/x/image/bmp"
	"golang.org/x/image/draw"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"

	"blocode/pkg/grid"
)

// DistanceWeight scales the summed per-pixel distance into score points.
const DistanceWeight = 0.005

// ErrSizeMismatch is returned when the two images differ in size.
var ErrSizeMismatch = errors.New("image sizes differ")

// Load decodes a reference image. PNG, BMP, TIFF and WebP are recognised.
func Load(path string) (image.Image, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	img, _, err := image.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return img, nil
}

// Distance is round(DistanceWeight * Σ sqrt(Δr²+Δg²+Δb²+Δa²)) over all
// pixels, on straight-alpha 8-bit values.
func Distance(ref, img image.Image) (int, error) {
	sum, err := walk(ref, img, nil)
	if err != nil {
		return 0, err
	}
	return int(math.Round(sum * DistanceWeight)), nil
}

// Total is the similarity score: program cost plus image distance.
func Total(cost, distance int) int {
	return cost + distance
}

// Heatmap paints every pixel with tint at an alpha of half the pixel
// distance, so identical pixels are transparent.
func Heatmap(ref, img image.Image, tint color.NRGBA) (*image.NRGBA, error) {
	b := ref.Bounds()
	out := image.NewNRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	_, err := walk(ref, img, func(x, y int, d float64) {
		a := math.Round(d / 2)
		if a > 255 {
			a = 255
		}
		out.SetNRGBA(x, y, color.NRGBA{R: tint.R, G: tint.G, B: tint.B, A: uint8(a)})
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// walk visits every pixel pair and returns the summed distance.
func walk(ref, img image.Image, visit func(x, y int, d float64)) (float64, error) {
	rb, ib := ref.Bounds(), img.Bounds()
	if rb.Dx() != ib.Dx() || rb.Dy() != ib.Dy() {
		return 0, fmt.Errorf("%w: reference %dx%d, canvas %dx%d", ErrSizeMismatch, rb.Dx(), rb.Dy(), ib.Dx(), ib.Dy())
	}
	p, q := straight(ref), straight(img)
	cols := rb.Dx()
	var sum float64
	for i := 0; i < len(p.Pix)/4; i++ {
		x, y := grid.GetGridCoords(i, cols)
		a, b := p.Pix[p.PixOffset(x, y):], q.Pix[q.PixOffset(x, y):]
		var sq float64
		for c := 0; c < 4; c++ {
			d := float64(a[c]) - float64(b[c])
			sq += d * d
		}
		d := math.Sqrt(sq)
		sum += d
		if visit != nil {
			visit(x, y, d)
		}
	}
	return sum, nil
}

// straight returns img as a zero-origin NRGBA without touching stored bytes
// when it already is one.
func straight(img image.Image) *image.NRGBA {
	if n, ok := img.(*image.NRGBA); ok && n.Rect.Min == (image.Point{}) {
		return n
	}
	b := img.Bounds()
	n := image.NewNRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(n, n.Bounds(), img, b.Min, draw.Src)
	return n
}
