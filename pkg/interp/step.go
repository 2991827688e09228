package interp

import (
	"bytes"
	"encoding/json"

	"blocode/pkg/canvas"
	"blocode/pkg/lang"
)

// BlockResult is the per-block part of a step result. Solid blocks carry
// Color; blocks with pixel content carry Pixels, a PNG of the block.
type BlockResult struct {
	ID     canvas.BlockID `json:"id"`
	X      int            `json:"x"`
	Y      int            `json:"y"`
	Width  int            `json:"width"`
	Height int            `json:"height"`
	Color  *canvas.RGBA   `json:"color,omitempty"`
	Pixels []byte         `json:"pixels,omitempty"`
}

type stepJSON struct {
	Command  lang.Command  `json:"command"`
	Blocks   []BlockResult `json:"blocks"`
	StepCost int           `json:"stepCost"`
}

// Blocks lists the blocks of the step's snapshot in id order.
func (s ExecutionStep) Blocks() ([]BlockResult, error) {
	ids := s.State.IDs()
	out := make([]BlockResult, 0, len(ids))
	for _, id := range ids {
		b := s.State.Blocks[id]
		r := BlockResult{ID: id, X: b.X, Y: b.Y, Width: b.Width, Height: b.Height}
		if c, ok := b.Solid(); ok {
			r.Color = &c
		} else {
			var buf bytes.Buffer
			if err := canvas.EncodePNG(&buf, b.Image()); err != nil {
				return nil, err
			}
			r.Pixels = buf.Bytes()
		}
		out = append(out, r)
	}
	return out, nil
}

func (s ExecutionStep) MarshalJSON() ([]byte, error) {
	blocks, err := s.Blocks()
	if err != nil {
		return nil, err
	}
	return json.Marshal(stepJSON{Command: s.Command, Blocks: blocks, StepCost: s.Cost})
}

func (r *Result) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Steps     []ExecutionStep `json:"steps"`
		TotalCost int             `json:"totalCost"`
	}{r.Steps, r.TotalCost})
}
