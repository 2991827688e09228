package lang

import (
	"encoding/json"
	"fmt"
	"strings"

	"blocode/pkg/canvas"
)

// Kind names a command variant. The values double as the "type" field of
// the command JSON.
type Kind string

const (
	KindCutPoint Kind = "cut-point"
	KindCutLine  Kind = "cut-line"
	KindColor    Kind = "color"
	KindSwap     Kind = "swap"
	KindMerge    Kind = "merge"
	KindComment  Kind = "comment"
)

// Axis is the orientation of a line cut.
type Axis string

const (
	AxisX Axis = "x"
	AxisY Axis = "y"
)

// Point is an absolute canvas position.
type Point struct {
	X, Y int
}

func (p Point) MarshalJSON() ([]byte, error) {
	return json.Marshal([2]int{p.X, p.Y})
}

func (p *Point) UnmarshalJSON(data []byte) error {
	var v [2]int
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	p.X, p.Y = v[0], v[1]
	return nil
}

// Command is one program line. The variants are CutPoint, CutLine, Color,
// Swap, Merge and Comment.
//
// String renders the command in program syntax; parsing that text yields an
// equal command.
type Command interface {
	Kind() Kind
	String() string
	isCommand()
}

type CutPoint struct {
	Block canvas.BlockID
	Point Point
}

type CutLine struct {
	Block  canvas.BlockID
	Axis   Axis
	Offset int
}

type Color struct {
	Block canvas.BlockID
	Color canvas.RGBA
}

type Swap struct {
	Block1, Block2 canvas.BlockID
}

type Merge struct {
	Block1, Block2 canvas.BlockID
}

// Comment holds the text following '#'.
type Comment struct {
	Text string
}

func (CutPoint) Kind() Kind { return KindCutPoint }
func (CutLine) Kind() Kind  { return KindCutLine }
func (Color) Kind() Kind    { return KindColor }
func (Swap) Kind() Kind     { return KindSwap }
func (Merge) Kind() Kind    { return KindMerge }
func (Comment) Kind() Kind  { return KindComment }

func (CutPoint) isCommand() {}
func (CutLine) isCommand()  {}
func (Color) isCommand()    {}
func (Swap) isCommand()     {}
func (Merge) isCommand()    {}
func (Comment) isCommand()  {}

func (c CutPoint) String() string {
	return fmt.Sprintf("cut [%s] [%d,%d]", c.Block, c.Point.X, c.Point.Y)
}

func (c CutLine) String() string {
	return fmt.Sprintf("cut [%s] [%s] [%d]", c.Block, c.Axis, c.Offset)
}

func (c Color) String() string {
	return fmt.Sprintf("color [%s] [%s]", c.Block, c.Color)
}

func (c Swap) String() string {
	return fmt.Sprintf("swap [%s] [%s]", c.Block1, c.Block2)
}

func (c Merge) String() string {
	return fmt.Sprintf("merge [%s] [%s]", c.Block1, c.Block2)
}

func (c Comment) String() string {
	return "#" + c.Text
}

// Format renders a program, one command per line.
func Format(cmds []Command) string {
	var b strings.Builder
	for _, c := range cmds {
		b.WriteString(c.String())
		b.WriteByte('\n')
	}
	return b.String()
}

// commandJSON is the wire shape: {"type": ..., fields}. Field names follow
// the reference host.
type commandJSON struct {
	Type   Kind           `json:"type"`
	Block  canvas.BlockID `json:"block,omitempty"`
	Point  *Point         `json:"point,omitempty"`
	Dir    Axis           `json:"dir,omitempty"`
	Num    *int           `json:"num,omitempty"`
	Color  *canvas.RGBA   `json:"color,omitempty"`
	Block1 canvas.BlockID `json:"block1,omitempty"`
	Block2 canvas.BlockID `json:"block2,omitempty"`
	Text   *string        `json:"text,omitempty"`
}

func (c CutPoint) MarshalJSON() ([]byte, error) {
	return json.Marshal(commandJSON{Type: KindCutPoint, Block: c.Block, Point: &c.Point})
}

func (c CutLine) MarshalJSON() ([]byte, error) {
	return json.Marshal(commandJSON{Type: KindCutLine, Block: c.Block, Dir: c.Axis, Num: &c.Offset})
}

func (c Color) MarshalJSON() ([]byte, error) {
	return json.Marshal(commandJSON{Type: KindColor, Block: c.Block, Color: &c.Color})
}

func (c Swap) MarshalJSON() ([]byte, error) {
	return json.Marshal(commandJSON{Type: KindSwap, Block1: c.Block1, Block2: c.Block2})
}

func (c Merge) MarshalJSON() ([]byte, error) {
	return json.Marshal(commandJSON{Type: KindMerge, Block1: c.Block1, Block2: c.Block2})
}

func (c Comment) MarshalJSON() ([]byte, error) {
	return json.Marshal(commandJSON{Type: KindComment, Text: &c.Text})
}

// UnmarshalCommand decodes the JSON produced by a command's MarshalJSON.
func UnmarshalCommand(data []byte) (Command, error) {
	var w commandJSON
	if err := json.Unmarshal(data, &w); err != nil {
		return nil, fmt.Errorf("decode command: %w", err)
	}
	missing := func(field string) error {
		return fmt.Errorf("decode command: %s without %q", w.Type, field)
	}
	switch w.Type {
	case KindCutPoint:
		if w.Point == nil {
			return nil, missing("point")
		}
		return CutPoint{Block: w.Block, Point: *w.Point}, nil
	case KindCutLine:
		if w.Num == nil {
			return nil, missing("num")
		}
		if w.Dir != AxisX && w.Dir != AxisY {
			return nil, fmt.Errorf("decode command: bad cut direction %q", w.Dir)
		}
		return CutLine{Block: w.Block, Axis: w.Dir, Offset: *w.Num}, nil
	case KindColor:
		if w.Color == nil {
			return nil, missing("color")
		}
		return Color{Block: w.Block, Color: *w.Color}, nil
	case KindSwap:
		return Swap{Block1: w.Block1, Block2: w.Block2}, nil
	case KindMerge:
		return Merge{Block1: w.Block1, Block2: w.Block2}, nil
	case KindComment:
		if w.Text == nil {
			return nil, missing("text")
		}
		return Comment{Text: *w.Text}, nil
	}
	return nil, fmt.Errorf("decode command: unknown type %q", w.Type)
}
