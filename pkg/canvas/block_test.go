package canvas

import (
	"image"
	"testing"
)

var (
	red        = RGBA{255, 0, 0, 255}
	blue       = RGBA{0, 0, 255, 255}
	seeThrough = RGBA{10, 20, 30, 0}
)

func TestSliceSolid(t *testing.T) {
	b := NewSolidBlock(100, 50, 40, 20, red)
	s := b.Slice(10, 5, 30, 15)
	if s.X != 110 || s.Y != 55 || s.Width != 30 || s.Height != 15 {
		t.Fatalf("Slice rect = (%d,%d %dx%d); want (110,55 30x15)", s.X, s.Y, s.Width, s.Height)
	}
	if c, ok := s.Solid(); !ok || c != red {
		t.Errorf("Slice of a solid block = %v, %v; want solid %v", c, ok, red)
	}
}

func TestJoinKeepsBothHalves(t *testing.T) {
	left := NewSolidBlock(0, 0, 2, 3, red)
	right := NewSolidBlock(2, 0, 2, 3, blue)
	j := Join(image.Rect(0, 0, 4, 3), left, right)

	if _, ok := j.Solid(); ok {
		t.Fatal("joining different colours must materialise pixels")
	}
	for y := 0; y < 3; y++ {
		for x := 0; x < 4; x++ {
			want := red
			if x >= 2 {
				want = blue
			}
			if got := j.At(x, y); got != want {
				t.Errorf("At(%d,%d) = %v; want %v", x, y, got, want)
			}
		}
	}
}

func TestJoinVerticalOrientation(t *testing.T) {
	bottom := NewSolidBlock(5, 0, 3, 2, red)
	top := NewSolidBlock(5, 2, 3, 4, blue)
	j := Join(image.Rect(5, 0, 8, 6), bottom, top)

	if got := j.At(0, 0); got != red {
		t.Errorf("bottom-left pixel = %v; want %v", got, red)
	}
	if got := j.At(0, 5); got != blue {
		t.Errorf("top-left pixel = %v; want %v", got, blue)
	}
	img := j.Image()
	// image row 0 is the top of the block
	if got := img.NRGBAAt(0, 0); got != blue.NRGBA() {
		t.Errorf("image top row = %v; want %v", got, blue)
	}
	if got := img.NRGBAAt(0, 5); got != red.NRGBA() {
		t.Errorf("image bottom row = %v; want %v", got, red)
	}
}

func TestJoinSameColourStaysSolid(t *testing.T) {
	j := Join(image.Rect(0, 0, 4, 4), NewSolidBlock(0, 0, 4, 2, red), NewSolidBlock(0, 2, 4, 2, red))
	if c, ok := j.Solid(); !ok || c != red {
		t.Errorf("Join of equal fills = %v, %v; want solid %v", c, ok, red)
	}
}

func TestSliceOfPixels(t *testing.T) {
	j := Join(image.Rect(0, 0, 4, 4), NewSolidBlock(0, 0, 4, 1, red), NewSolidBlock(0, 1, 4, 3, blue))
	lower := j.Slice(1, 0, 2, 2)
	if lower.X != 1 || lower.Y != 0 {
		t.Fatalf("origin = (%d,%d); want (1,0)", lower.X, lower.Y)
	}
	if got := lower.At(0, 0); got != red {
		t.Errorf("lower.At(0,0) = %v; want %v", got, red)
	}
	if got := lower.At(1, 1); got != blue {
		t.Errorf("lower.At(1,1) = %v; want %v", got, blue)
	}
}

func TestPaintReplaceKeepsAlphaBytes(t *testing.T) {
	b := NewSolidBlock(0, 0, 2, 2, red)
	b.Paint(seeThrough, ColorReplace)
	if c, ok := b.Solid(); !ok || c != seeThrough {
		t.Errorf("Paint(replace) = %v, %v; want solid %v", c, ok, seeThrough)
	}
}

func TestPaintReplaceDropsPixels(t *testing.T) {
	b := Join(image.Rect(0, 0, 2, 1), NewSolidBlock(0, 0, 1, 1, red), NewSolidBlock(1, 0, 1, 1, blue))
	b.Paint(White, ColorReplace)
	if c, ok := b.Solid(); !ok || c != White {
		t.Errorf("Paint(replace) = %v, %v; want solid white", c, ok)
	}
}

func TestPaintOver(t *testing.T) {
	tests := []struct {
		name string
		dst  RGBA
		src  RGBA
		want RGBA
	}{
		{"opaque source wins", red, blue, blue},
		{"transparent source is a no-op", red, seeThrough, red},
		{"onto transparent", RGBA{}, blue, blue},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			b := NewSolidBlock(0, 0, 1, 1, tc.dst)
			b.Paint(tc.src, ColorOver)
			if got := b.At(0, 0); got != tc.want {
				t.Errorf("got %v; want %v", got, tc.want)
			}
		})
	}
}

func TestPaintOverPixels(t *testing.T) {
	b := Join(image.Rect(0, 0, 2, 1), NewSolidBlock(0, 0, 1, 1, red), NewSolidBlock(1, 0, 1, 1, blue))
	shared := b.pix
	b.Paint(RGBA{0, 255, 0, 255}, ColorOver)
	if got := b.At(1, 0); got != (RGBA{0, 255, 0, 255}) {
		t.Errorf("At(1,0) = %v; want opaque green", got)
	}
	if got := shared.NRGBAAt(1, 0); got != blue.NRGBA() {
		t.Errorf("painting mutated the previous pixel buffer: %v", got)
	}
}

func TestImageIsACopy(t *testing.T) {
	b := NewSolidBlock(0, 0, 1, 1, red)
	img := b.Image()
	img.Pix[0] = 0
	if got := b.At(0, 0); got != red {
		t.Errorf("block changed through Image(): %v", got)
	}
}
