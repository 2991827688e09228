package canvas

import (
	"image"

	"golang.org/x/image/draw"

	"blocode/pkg/grid"
)

// BlockID names a block: an integer followed by zero or more ".n" segments,
// e.g. "0.1.3". Merges produce plain integers.
type BlockID string

// Block is a rectangle of the canvas together with its pixel content.
//
// Content is either a solid fill or a top-down pixel buffer. Pixel buffers are
// never written after they are attached to a block, so copies of a Block may
// share them.
type Block struct {
	X, Y          int // bottom-left corner, canvas coordinates
	Width, Height int

	fill RGBA
	pix  *image.NRGBA // nil when the block is a solid fill
}

// NewSolidBlock returns a w×h block at (x, y) filled with c.
func NewSolidBlock(x, y, w, h int, c RGBA) *Block {
	return &Block{X: x, Y: y, Width: w, Height: h, fill: c}
}

// NewImageBlock returns a block at (x, y) showing a copy of img, whose
// top-left pixel becomes the block's top-left pixel.
func NewImageBlock(x, y int, img image.Image) *Block {
	b := img.Bounds()
	pix := image.NewNRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(pix, pix.Bounds(), img, b.Min, draw.Src)
	return &Block{X: x, Y: y, Width: b.Dx(), Height: b.Dy(), pix: pix}
}

func (b *Block) Area() int { return b.Width * b.Height }

// Rect returns the block rectangle in canvas coordinates.
func (b *Block) Rect() image.Rectangle {
	return image.Rect(b.X, b.Y, b.X+b.Width, b.Y+b.Height)
}

// Solid reports the fill colour when the block has uniform symbolic content.
func (b *Block) Solid() (RGBA, bool) {
	if b.pix != nil {
		return RGBA{}, false
	}
	return b.fill, true
}

// At returns the colour at block-local canvas coordinates (y up).
func (b *Block) At(lx, ly int) RGBA {
	if b.pix == nil {
		return b.fill
	}
	c := b.pix.NRGBAAt(lx, grid.FlipY(ly, b.Height))
	return RGBA{c.R, c.G, c.B, c.A}
}

// Image returns a fresh top-down copy of the block content.
func (b *Block) Image() *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, b.Width, b.Height))
	drawBlock(img, 0, 0, b)
	return img
}

func (b *Block) clone() *Block {
	c := *b
	return &c
}

// Slice returns the part of b covering the block-local rectangle with
// bottom-left (lx, ly) and size w×h, positioned on the canvas.
func (b *Block) Slice(lx, ly, w, h int) *Block {
	if b.pix == nil {
		return NewSolidBlock(b.X+lx, b.Y+ly, w, h, b.fill)
	}
	top, _ := grid.RowSpan(ly, h, b.Height)
	pix := image.NewNRGBA(image.Rect(0, 0, w, h))
	copyRegion(pix, 0, 0, b.pix, lx, top, w, h)
	return &Block{X: b.X + lx, Y: b.Y + ly, Width: w, Height: h, pix: pix}
}

// Join returns a block covering r (canvas coordinates) with first drawn and
// then second drawn on top of it. Both must lie inside r.
func Join(r image.Rectangle, first, second *Block) *Block {
	if c1, ok := first.Solid(); ok {
		if c2, ok := second.Solid(); ok && c1 == c2 {
			return NewSolidBlock(r.Min.X, r.Min.Y, r.Dx(), r.Dy(), c1)
		}
	}
	pix := image.NewNRGBA(image.Rect(0, 0, r.Dx(), r.Dy()))
	for _, blk := range []*Block{first, second} {
		top, _ := grid.RowSpan(blk.Y-r.Min.Y, blk.Height, r.Dy())
		drawBlock(pix, blk.X-r.Min.X, top, blk)
	}
	return &Block{X: r.Min.X, Y: r.Min.Y, Width: r.Dx(), Height: r.Dy(), pix: pix}
}

// Paint applies a color command to b.
func (b *Block) Paint(c RGBA, mode ColorMode) {
	if mode != ColorOver {
		b.fill, b.pix = c, nil
		return
	}
	if b.pix == nil {
		b.fill = blendOver(b.fill, c)
		return
	}
	pix := image.NewNRGBA(b.pix.Rect)
	copy(pix.Pix, b.pix.Pix)
	draw.Draw(pix, pix.Bounds(), image.NewUniform(c.NRGBA()), image.Point{}, draw.Over)
	b.pix = pix
}

// drawBlock writes the content of b into dst with its top-left pixel at
// image position (x, top). Bytes are copied verbatim so straight alpha
// survives unchanged.
func drawBlock(dst *image.NRGBA, x, top int, b *Block) {
	if b.pix != nil {
		copyRegion(dst, x, top, b.pix, 0, 0, b.Width, b.Height)
		return
	}
	px := [4]uint8{b.fill.R, b.fill.G, b.fill.B, b.fill.A}
	for row := top; row < top+b.Height; row++ {
		off := dst.PixOffset(x, row)
		line := dst.Pix[off : off+b.Width*4]
		for i := 0; i < len(line); i += 4 {
			copy(line[i:i+4], px[:])
		}
	}
}

func copyRegion(dst *image.NRGBA, dx, dy int, src *image.NRGBA, sx, sy, w, h int) {
	for row := 0; row < h; row++ {
		d := dst.PixOffset(dx, dy+row)
		s := src.PixOffset(sx, sy+row)
		copy(dst.Pix[d:d+w*4], src.Pix[s:s+w*4])
	}
}
