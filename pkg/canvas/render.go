package canvas

import (
	"image"
	"image/color"
	"image/png"
	"io"
	"os"

	"golang.org/x/image/draw"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"

	"blocode/pkg/grid"
)

// Render composes every block of s into a top-down image of the canvas.
// Areas not covered by any block stay fully transparent.
func Render(s *State) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, s.Width, s.Height))
	for _, id := range s.IDs() {
		b := s.Blocks[id]
		top, _ := grid.RowSpan(b.Y, b.Height, s.Height)
		drawBlock(img, b.X, top, b)
	}
	return img
}

// RenderOverlay draws the outline and id of every block of s on a copy of
// base, which must be a rendering of a canvas of the same size.
func RenderOverlay(s *State, base image.Image, ink color.Color) *image.NRGBA {
	img := image.NewNRGBA(base.Bounds())
	draw.Draw(img, img.Bounds(), base, base.Bounds().Min, draw.Src)
	src := image.NewUniform(ink)
	for _, id := range s.IDs() {
		b := s.Blocks[id]
		top, bottom := grid.RowSpan(b.Y, b.Height, s.Height)
		outline(img, image.Rect(b.X, top, b.X+b.Width, bottom), src)

		d := &font.Drawer{
			Dst:  img,
			Src:  src,
			Face: basicfont.Face7x13,
			Dot:  fixed.P(b.X+2, bottom-2),
		}
		d.DrawString(string(id))
	}
	return img
}

func outline(img draw.Image, r image.Rectangle, src image.Image) {
	edges := []image.Rectangle{
		image.Rect(r.Min.X, r.Min.Y, r.Max.X, r.Min.Y+1),
		image.Rect(r.Min.X, r.Max.Y-1, r.Max.X, r.Max.Y),
		image.Rect(r.Min.X, r.Min.Y, r.Min.X+1, r.Max.Y),
		image.Rect(r.Max.X-1, r.Min.Y, r.Max.X, r.Max.Y),
	}
	for _, e := range edges {
		draw.Draw(img, e, src, image.Point{}, draw.Src)
	}
}

// Scale enlarges img by an integer factor with nearest-neighbour sampling.
func Scale(img image.Image, factor int) image.Image {
	if factor <= 1 {
		return img
	}
	b := img.Bounds()
	dst := image.NewNRGBA(image.Rect(0, 0, b.Dx()*factor, b.Dy()*factor))
	draw.NearestNeighbor.Scale(dst, dst.Bounds(), img, b, draw.Src, nil)
	return dst
}

// EncodePNG writes img to w as PNG.
func EncodePNG(w io.Writer, img image.Image) error {
	return png.Encode(w, img)
}

// SavePNG encodes img as a PNG and writes it to filename.
func SavePNG(filename string, img image.Image) error {
	f, err := os.Create(filename)
	if err != nil {
		return err
	}
	if err := png.Encode(f, img); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
