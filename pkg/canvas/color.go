package canvas

import (
	"encoding/json"
	"fmt"
	"image"
	"image/color"

	"golang.org/x/image/draw"
)

// RGBA is a straight (non-premultiplied) 8-bit colour.
type RGBA struct {
	R, G, B, A uint8
}

// White is the fill of the default canvas.
var White = RGBA{255, 255, 255, 255}

// NRGBA converts c to the image/color representation with the same bytes.
func (c RGBA) NRGBA() color.NRGBA {
	return color.NRGBA{R: c.R, G: c.G, B: c.B, A: c.A}
}

func (c RGBA) String() string {
	return fmt.Sprintf("%d,%d,%d,%d", c.R, c.G, c.B, c.A)
}

// MarshalJSON encodes c as a four element array, the shape used by
// initial-canvas descriptors and command JSON.
func (c RGBA) MarshalJSON() ([]byte, error) {
	return json.Marshal([4]int{int(c.R), int(c.G), int(c.B), int(c.A)})
}

func (c *RGBA) UnmarshalJSON(data []byte) error {
	var v [4]int
	if err := json.Unmarshal(data, &v); err != nil {
		return fmt.Errorf("color: %w", err)
	}
	for i, x := range v {
		if x < 0 || x > 255 {
			return fmt.Errorf("color component %d out of range 0..255: %d", i, x)
		}
	}
	*c = RGBA{uint8(v[0]), uint8(v[1]), uint8(v[2]), uint8(v[3])}
	return nil
}

// ColorMode selects how a color command treats the previous content.
type ColorMode string

const (
	// ColorReplace writes the colour bytes verbatim, alpha included.
	ColorReplace ColorMode = "replace"
	// ColorOver composites the colour over the previous content (source-over).
	ColorOver ColorMode = "over"
)

// ParseColorMode accepts "replace", "over" or "" (replace).
func ParseColorMode(s string) (ColorMode, error) {
	switch ColorMode(s) {
	case "", ColorReplace:
		return ColorReplace, nil
	case ColorOver:
		return ColorOver, nil
	}
	return "", fmt.Errorf("unknown color mode %q (want %q or %q)", s, ColorReplace, ColorOver)
}

// blendOver returns src composited over dst.
func blendOver(dst, src RGBA) RGBA {
	px := image.NewNRGBA(image.Rect(0, 0, 1, 1))
	px.SetNRGBA(0, 0, dst.NRGBA())
	draw.Draw(px, px.Bounds(), image.NewUniform(src.NRGBA()), image.Point{}, draw.Over)
	c := px.NRGBAAt(0, 0)
	return RGBA{c.R, c.G, c.B, c.A}
}
