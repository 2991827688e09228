package lang

import (
	"encoding/json"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"blocode/pkg/canvas"
)

var sampleProgram = []Command{
	Comment{Text: " split the canvas"},
	CutPoint{Block: "0", Point: Point{X: 200, Y: 200}},
	CutLine{Block: "0.3", Axis: AxisX, Offset: 50},
	Color{Block: "0.3.1", Color: canvas.RGBA{R: 12, G: 34, B: 56, A: 255}},
	Swap{Block1: "0.0", Block2: "0.2"},
	Merge{Block1: "0.0", Block2: "0.1"},
}

func TestFormatParsesBack(t *testing.T) {
	text := Format(sampleProgram)
	got, err := Parse(text)
	require.NoError(t, err)
	if diff := cmp.Diff(sampleProgram, got); diff != "" {
		t.Errorf("Parse(Format(p)) mismatch (-want +got):\n%s", diff)
	}
}

func TestCommandString(t *testing.T) {
	tests := []struct {
		cmd  Command
		want string
	}{
		{CutPoint{Block: "1", Point: Point{X: 3, Y: 4}}, "cut [1] [3,4]"},
		{CutLine{Block: "1.0", Axis: AxisY, Offset: 9}, "cut [1.0] [y] [9]"},
		{Color{Block: "2", Color: canvas.White}, "color [2] [255,255,255,255]"},
		{Swap{Block1: "0", Block2: "1"}, "swap [0] [1]"},
		{Merge{Block1: "0", Block2: "1"}, "merge [0] [1]"},
		{Comment{Text: "note"}, "#note"},
	}
	for _, tt := range tests {
		if got := tt.cmd.String(); got != tt.want {
			t.Errorf("%#v.String() = %q; want %q", tt.cmd, got, tt.want)
		}
	}
}

func TestCommandJSON(t *testing.T) {
	tests := []struct {
		cmd  Command
		want string
	}{
		{CutPoint{Block: "0", Point: Point{X: 1, Y: 2}}, `{"type":"cut-point","block":"0","point":[1,2]}`},
		{CutLine{Block: "0", Axis: AxisX, Offset: 0}, `{"type":"cut-line","block":"0","dir":"x","num":0}`},
		{Color{Block: "0", Color: canvas.RGBA{A: 255}}, `{"type":"color","block":"0","color":[0,0,0,255]}`},
		{Swap{Block1: "0", Block2: "1"}, `{"type":"swap","block1":"0","block2":"1"}`},
		{Merge{Block1: "0", Block2: "1"}, `{"type":"merge","block1":"0","block2":"1"}`},
		{Comment{Text: ""}, `{"type":"comment","text":""}`},
	}
	for _, tt := range tests {
		data, err := json.Marshal(tt.cmd)
		require.NoError(t, err)
		assert.JSONEq(t, tt.want, string(data))

		back, err := UnmarshalCommand(data)
		require.NoError(t, err)
		assert.Equal(t, tt.cmd, back)
	}
}

func TestUnmarshalCommandErrors(t *testing.T) {
	for _, in := range []string{
		`{"type":"rotate"}`,
		`{"type":"cut-point","block":"0"}`,
		`{"type":"cut-line","block":"0","dir":"z","num":1}`,
		`{"type":"color","block":"0","color":[0,0,0,300]}`,
		`not json`,
	} {
		_, err := UnmarshalCommand([]byte(in))
		assert.Error(t, err, in)
	}
}
