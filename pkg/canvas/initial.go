package canvas

import (
	"encoding/json"
	"fmt"
	"os"
)

// Default canvas used when no descriptor is available.
const (
	DefaultWidth  = 400
	DefaultHeight = 400
)

// BlockSpec is one block of an initial-canvas descriptor.
type BlockSpec struct {
	BlockID    string `json:"blockId"`
	BottomLeft [2]int `json:"bottomLeft"`
	TopRight   [2]int `json:"topRight"`
	Color      RGBA   `json:"color"`
}

// Initial is the JSON initial-canvas descriptor shipped next to a problem.
type Initial struct {
	Width  int         `json:"width"`
	Height int         `json:"height"`
	Blocks []BlockSpec `json:"blocks"`
}

// DefaultInitial is a single opaque white block "0" covering w×h.
func DefaultInitial(w, h int) *Initial {
	return &Initial{
		Width:  w,
		Height: h,
		Blocks: []BlockSpec{{
			BlockID:    "0",
			BottomLeft: [2]int{0, 0},
			TopRight:   [2]int{w, h},
			Color:      White,
		}},
	}
}

func ParseInitial(data []byte) (*Initial, error) {
	var in Initial
	if err := json.Unmarshal(data, &in); err != nil {
		return nil, fmt.Errorf("decode initial canvas: %w", err)
	}
	if err := in.Validate(); err != nil {
		return nil, err
	}
	return &in, nil
}

func LoadInitial(path string) (*Initial, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	in, err := ParseInitial(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return in, nil
}

// Validate checks that every block is a non-empty rectangle inside the
// canvas and that ids are unique. Coverage of the canvas is not checked.
func (in *Initial) Validate() error {
	if in.Width <= 0 || in.Height <= 0 {
		return fmt.Errorf("invalid canvas size %dx%d", in.Width, in.Height)
	}
	seen := make(map[string]bool, len(in.Blocks))
	for _, b := range in.Blocks {
		if b.BlockID == "" {
			return fmt.Errorf("block with empty id")
		}
		if seen[b.BlockID] {
			return fmt.Errorf("duplicate block id %q", b.BlockID)
		}
		seen[b.BlockID] = true
		x0, y0, x1, y1 := b.BottomLeft[0], b.BottomLeft[1], b.TopRight[0], b.TopRight[1]
		if x0 < 0 || y0 < 0 || x1 > in.Width || y1 > in.Height || x1 <= x0 || y1 <= y0 {
			return fmt.Errorf("block %q: rectangle [%d,%d]-[%d,%d] is empty or outside the %dx%d canvas",
				b.BlockID, x0, y0, x1, y1, in.Width, in.Height)
		}
	}
	return nil
}
