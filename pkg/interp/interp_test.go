package interp

import (
	"context"
	"encoding/json"
	"errors"
	"image"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"blocode/pkg/canvas"
	"blocode/pkg/lang"
)

var (
	black = canvas.RGBA{A: 255}
	red   = canvas.RGBA{R: 255, A: 255}
)

func defaultState(t *testing.T) *canvas.State {
	t.Helper()
	s, err := canvas.NewState(canvas.DefaultInitial(canvas.DefaultWidth, canvas.DefaultHeight))
	require.NoError(t, err)
	return s
}

func run(t *testing.T, src string, opts Options) (*Result, error) {
	t.Helper()
	program, err := lang.Parse(src)
	require.NoError(t, err)
	return New(defaultState(t), opts).Run(context.Background(), program)
}

func rect(t *testing.T, s *canvas.State, id canvas.BlockID) image.Rectangle {
	t.Helper()
	b, ok := s.Get(id)
	require.True(t, ok, "block %s missing; have %v", id, s.IDs())
	return b.Rect()
}

func TestColorWholeCanvas(t *testing.T) {
	res, err := run(t, "color [0] [0,0,0,255]\n", Options{})
	require.NoError(t, err)
	require.Len(t, res.Steps, 2)
	assert.Equal(t, 5, res.Steps[1].Cost)
	assert.Equal(t, 5, res.TotalCost)

	final := res.Final()
	assert.Equal(t, []canvas.BlockID{"0"}, final.IDs())
	c, ok := final.Blocks["0"].Solid()
	assert.True(t, ok)
	assert.Equal(t, black, c)
}

func TestInitialStep(t *testing.T) {
	res, err := run(t, "", Options{})
	require.NoError(t, err)
	require.Len(t, res.Steps, 1)
	assert.Equal(t, lang.Comment{Text: InitialComment}, res.Steps[0].Command)
	assert.Equal(t, 0, res.Steps[0].Cost)
	assert.Equal(t, 0, res.TotalCost)
}

func TestLineCut(t *testing.T) {
	res, err := run(t, "cut [0] [x] [200]\n", Options{})
	require.NoError(t, err)
	assert.Equal(t, 7, res.TotalCost)

	final := res.Final()
	assert.Equal(t, []canvas.BlockID{"0.0", "0.1"}, final.IDs())
	assert.Equal(t, image.Rect(0, 0, 200, 400), rect(t, final, "0.0"))
	assert.Equal(t, image.Rect(200, 0, 400, 400), rect(t, final, "0.1"))
}

func TestLineCutY(t *testing.T) {
	res, err := run(t, "cut [0] [Y] [150]", Options{})
	require.NoError(t, err)
	final := res.Final()
	assert.Equal(t, image.Rect(0, 0, 400, 150), rect(t, final, "0.0"))
	assert.Equal(t, image.Rect(0, 150, 400, 400), rect(t, final, "0.1"))
}

func TestPointCutOnCorner(t *testing.T) {
	res, err := run(t, "cut [0] [0,0]\n", Options{})
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrOutOfRangeCut))

	var ierr *Error
	require.True(t, errors.As(err, &ierr))
	assert.Equal(t, 1, ierr.Ordinal)
	assert.Contains(t, ierr.Msg, "x dimension")
	assert.Len(t, res.Steps, 1, "only the initial state is recorded")
	assert.Equal(t, []canvas.BlockID{"0"}, res.Final().IDs())
}

func TestPointCutYChecked(t *testing.T) {
	_, err := run(t, "cut [0] [10,400]", Options{})
	var ierr *Error
	require.True(t, errors.As(err, &ierr))
	assert.Contains(t, ierr.Msg, "y dimension")
}

func TestMergeAfterLineCut(t *testing.T) {
	res, err := run(t, "cut [0] [x] [200]\nmerge [0.0] [0.1]\n", Options{})
	require.NoError(t, err)
	require.Len(t, res.Steps, 3)
	assert.Equal(t, 2, res.Steps[2].Cost)
	assert.Equal(t, 9, res.TotalCost)

	final := res.Final()
	assert.Equal(t, []canvas.BlockID{"1"}, final.IDs())
	assert.Equal(t, image.Rect(0, 0, 400, 400), rect(t, final, "1"))
	assert.Equal(t, 2, final.Counter)
}

func TestCutThenMergeRestoresRectangle(t *testing.T) {
	tests := []string{
		"cut [0] [x] [1]\nmerge [0.1] [0.0]",
		"cut [0] [y] [399]\nmerge [0.0] [0.1]",
		"cut [0] [100,100]\ncut [0.2] [x] [250]\nmerge [0.2.0] [0.2.1]",
	}
	for _, src := range tests {
		program, err := lang.Parse(src)
		require.NoError(t, err)
		in := New(defaultState(t), Options{})
		var before image.Rectangle
		for i, cmd := range program {
			if i == len(program)-1 {
				m := cmd.(lang.Merge)
				before = rect(t, in.state, m.Block1).Union(rect(t, in.state, m.Block2))
			}
			_, err := in.Step(cmd)
			require.NoError(t, err, src)
		}
		merged := in.State().IDs()
		last := merged[len(merged)-1]
		assert.Equal(t, before, rect(t, in.state, last), src)
	}
}

func TestPointCutTilesParent(t *testing.T) {
	res, err := run(t, "cut [0] [x] [100]\ncut [0.1] [250,120]", Options{})
	require.NoError(t, err)
	final := res.Final()

	parent := image.Rect(100, 0, 400, 400)
	want := map[canvas.BlockID]image.Rectangle{
		"0.1.0": image.Rect(100, 0, 250, 120),
		"0.1.1": image.Rect(250, 0, 400, 120),
		"0.1.2": image.Rect(250, 120, 400, 400),
		"0.1.3": image.Rect(100, 120, 250, 400),
	}
	area := 0
	for id, r := range want {
		got := rect(t, final, id)
		assert.Equal(t, r, got, "block %s", id)
		assert.True(t, got.In(parent))
		area += got.Dx() * got.Dy()
		for other, r2 := range want {
			if other != id {
				assert.True(t, got.Intersect(r2).Empty(), "%s overlaps %s", id, other)
			}
		}
	}
	assert.Equal(t, parent.Dx()*parent.Dy(), area)
	assert.Len(t, final.Blocks, 5)
}

func TestFullCanvasCostIsBaseCost(t *testing.T) {
	for kind, base := range BaseCost {
		assert.Equal(t, base, Cost(kind, 160000, 160000), kind)
	}
	assert.Equal(t, 2, Cost(lang.KindMerge, 160000, 80000))
	assert.Equal(t, 0, Cost(lang.KindComment, 160000, 1))
	// 5 * 400*400 / (3*400) = 666.67
	assert.Equal(t, 667, Cost(lang.KindColor, 160000, 1200))
}

func TestSwapTwiceIsIdentity(t *testing.T) {
	res, err := run(t, "cut [0] [x] [200]\ncolor [0.0] [255,0,0,255]\nswap [0.0] [0.1]\nswap [0.0] [0.1]", Options{})
	require.NoError(t, err)

	afterCut := res.Steps[2].State
	swapped := res.Steps[3].State
	final := res.Final()
	assert.Equal(t, image.Rect(200, 0, 400, 400), rect(t, swapped, "0.0"))
	assert.Equal(t, image.Rect(0, 0, 200, 400), rect(t, swapped, "0.1"))
	for _, id := range []canvas.BlockID{"0.0", "0.1"} {
		assert.Equal(t, rect(t, afterCut, id), rect(t, final, id))
	}
	c, _ := swapped.Blocks["0.0"].Solid()
	assert.Equal(t, red, c, "content travels with the block")
	assert.Equal(t, 6, res.Steps[3].Cost, "swap of a half canvas block")
}

func TestMergeDrawsBothBlocks(t *testing.T) {
	res, err := run(t, "cut [0] [y] [100]\ncolor [0.0] [255,0,0,255]\nmerge [0.1] [0.0]", Options{})
	require.NoError(t, err)
	b := res.Final().Blocks["1"]
	require.NotNil(t, b)
	_, solid := b.Solid()
	assert.False(t, solid)
	assert.Equal(t, red, b.At(5, 5))
	assert.Equal(t, canvas.White, b.At(5, 300))
}

func TestMergeCostPolicy(t *testing.T) {
	src := "cut [0] [x] [100]\nmerge [0.0] [0.1]"
	res, err := run(t, src, Options{})
	require.NoError(t, err)
	// 160000/120000 → 1; 160000/40000 → 4
	assert.Equal(t, 1, res.Steps[2].Cost)

	res, err = run(t, src, Options{MergeCost: MergeCostMax})
	require.NoError(t, err)
	assert.Equal(t, 4, res.Steps[2].Cost)
}

func TestInterpreterErrors(t *testing.T) {
	tests := []struct {
		name    string
		src     string
		kind    error
		ordinal int
		steps   int
	}{
		{"Unknown Block", "# only a comment\ncut [9] [x] [1]", ErrUnknownBlock, 1, 2},
		{"Unknown Second Block", "swap [0] [7]", ErrUnknownBlock, 1, 1},
		{"Cut Offset Outside", "cut [0] [x] [400]", ErrOutOfRangeCut, 1, 1},
		{"Cut Relative To Block", "cut [0] [x] [200]\ncut [0.1] [x] [100]", ErrOutOfRangeCut, 2, 2},
		{"Swap Shapes", "cut [0] [x] [100]\nswap [0.0] [0.1]", ErrShapeMismatch, 2, 2},
		{"Merge Height Differs", "cut [0] [x] [100]\ncut [0.1] [y] [200]\nmerge [0.0] [0.1.0]", ErrShapeMismatch, 3, 3},
		{"Merge Width Differs", "cut [0] [y] [100]\ncut [0.1] [x] [200]\nmerge [0.0] [0.1.0]", ErrShapeMismatch, 3, 3},
		{"Merge With Itself", "color [0] [1,2,3,4]\n#\nmerge [0] [0]", ErrNotAdjacent, 2, 3},
		{"Merge Not Adjacent", "cut [0] [x] [100]\ncut [0.1] [x] [200]\nmerge [0.0] [0.1.1]", ErrNotAdjacent, 3, 3},
		{"Merge Diagonal", "cut [0] [200,200]\nmerge [0.0] [0.2]", ErrNotAligned, 2, 2},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := run(t, tt.src, Options{})
			require.Error(t, err)
			assert.True(t, errors.Is(err, tt.kind), "error %v is not %v", err, tt.kind)
			var ierr *Error
			require.True(t, errors.As(err, &ierr))
			assert.Equal(t, tt.ordinal, ierr.Ordinal)
			assert.Len(t, res.Steps, tt.steps)
		})
	}
}

func TestErrorText(t *testing.T) {
	_, err := run(t, "cut [9] [x] [1]", Options{})
	require.Error(t, err)
	assert.Equal(t, `No such block: 9 in command 1: {"type":"cut-line","block":"9","dir":"x","num":1}`, err.Error())
}

func TestHaltedInterpreterRefusesCommands(t *testing.T) {
	in := New(defaultState(t), Options{})
	_, err := in.Step(lang.Swap{Block1: "0", Block2: "1"})
	require.Error(t, err)
	require.Error(t, in.Halted())

	_, err = in.Step(lang.Color{Block: "0", Color: black})
	assert.True(t, errors.Is(err, ErrHalted))
	assert.True(t, errors.Is(err, ErrUnknownBlock))
	assert.Empty(t, in.History())
}

func TestRunStopsWhenCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	program, err := lang.Parse("color [0] [0,0,0,255]")
	require.NoError(t, err)
	res, err := New(defaultState(t), Options{}).Run(ctx, program)
	assert.True(t, errors.Is(err, context.Canceled))
	assert.Len(t, res.Steps, 1)
}

func TestSnapshotsAreIndependent(t *testing.T) {
	in := New(defaultState(t), Options{})
	first, err := in.Step(lang.CutLine{Block: "0", Axis: lang.AxisX, Offset: 200})
	require.NoError(t, err)
	_, err = in.Step(lang.Color{Block: "0.0", Color: red})
	require.NoError(t, err)
	_, err = in.Step(lang.Swap{Block1: "0.0", Block2: "0.1"})
	require.NoError(t, err)

	c, _ := first.State.Blocks["0.0"].Solid()
	assert.Equal(t, canvas.White, c)
	assert.Equal(t, 0, first.State.Blocks["0.0"].X)

	live := in.State()
	live.Blocks["0.0"].X = 50
	assert.Equal(t, 200, in.State().Blocks["0.0"].X)
}

func TestHistoryIsACopy(t *testing.T) {
	in := New(defaultState(t), Options{})
	_, err := in.Step(lang.CutLine{Block: "0", Axis: lang.AxisX, Offset: 200})
	require.NoError(t, err)

	h := in.History()
	require.Len(t, h, 1)
	h[0].Cost = 1000
	h[0].Command = lang.Comment{Text: "rewritten"}
	_ = append(h, ExecutionStep{Cost: 5})

	again := in.History()
	require.Len(t, again, 1)
	assert.Equal(t, 7, again[0].Cost)
	assert.Equal(t, lang.CutLine{Block: "0", Axis: lang.AxisX, Offset: 200}, again[0].Command)
	assert.Equal(t, 7, in.TotalCost())
}

func TestUndo(t *testing.T) {
	in := New(defaultState(t), Options{})
	assert.False(t, in.Undo())

	for _, cmd := range []lang.Command{
		lang.CutLine{Block: "0", Axis: lang.AxisX, Offset: 200},
		lang.Merge{Block1: "0.0", Block2: "0.1"},
	} {
		_, err := in.Step(cmd)
		require.NoError(t, err)
	}
	assert.Equal(t, 9, in.TotalCost())

	require.True(t, in.Undo())
	assert.Equal(t, 7, in.TotalCost())
	assert.Equal(t, []canvas.BlockID{"0.0", "0.1"}, in.State().IDs())
	assert.Equal(t, 1, in.State().Counter)

	_, err := in.Step(lang.Swap{Block1: "0", Block2: "0.1"})
	require.Error(t, err)
	require.True(t, in.Undo(), "undo clears a halt")
	assert.NoError(t, in.Halted())

	_, err = in.Step(lang.Merge{Block1: "0.1", Block2: "0.0"})
	require.NoError(t, err)
	assert.Equal(t, []canvas.BlockID{"1"}, in.State().IDs())
}

func TestRenderSteps(t *testing.T) {
	res, err := run(t, "cut [0] [x] [200]\ncolor [0.0] [255,0,0,255]", Options{RenderSteps: true})
	require.NoError(t, err)
	for _, st := range res.Steps {
		require.NotNil(t, st.Raster)
		assert.Equal(t, image.Rect(0, 0, 400, 400), st.Raster.Bounds())
	}
	px := res.Final().Blocks["0.0"]
	assert.Equal(t, red, px.At(0, 0))
	r, g, b, a := res.Steps[2].Raster.At(10, 10).RGBA()
	assert.Equal(t, [4]uint32{0xffff, 0, 0, 0xffff}, [4]uint32{r, g, b, a})
}

func TestColorOver(t *testing.T) {
	res, err := run(t, "color [0] [255,0,0,128]", Options{ColorMode: canvas.ColorOver})
	require.NoError(t, err)
	c, ok := res.Final().Blocks["0"].Solid()
	require.True(t, ok)
	assert.Equal(t, uint8(255), c.R)
	assert.Equal(t, uint8(255), c.A)
	assert.InDelta(t, 127, int(c.G), 2)

	res, err = run(t, "color [0] [255,0,0,128]", Options{})
	require.NoError(t, err)
	c, _ = res.Final().Blocks["0"].Solid()
	assert.Equal(t, canvas.RGBA{R: 255, A: 128}, c)
}

func TestStepJSON(t *testing.T) {
	res, err := run(t, "cut [0] [y] [100]\ncolor [0.1] [0,0,0,255]\nmerge [0.0] [0.1]", Options{})
	require.NoError(t, err)

	data, err := json.Marshal(res.Steps[2])
	require.NoError(t, err)
	assert.JSONEq(t, `{
		"command": {"type":"color","block":"0.1","color":[0,0,0,255]},
		"blocks": [
			{"id":"0.0","x":0,"y":0,"width":400,"height":100,"color":[255,255,255,255]},
			{"id":"0.1","x":0,"y":100,"width":400,"height":300,"color":[0,0,0,255]}
		],
		"stepCost": 7
	}`, string(data))

	var decoded struct {
		Steps []struct {
			Blocks []BlockResult `json:"blocks"`
		} `json:"steps"`
		TotalCost int `json:"totalCost"`
	}
	data, err = json.Marshal(res)
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, res.TotalCost, decoded.TotalCost)
	merged := decoded.Steps[3].Blocks
	require.Len(t, merged, 1)
	assert.Nil(t, merged[0].Color)
	assert.NotEmpty(t, merged[0].Pixels)
}

func TestExecute(t *testing.T) {
	initial := canvas.DefaultInitial(canvas.DefaultWidth, canvas.DefaultHeight)
	res, err := Execute(context.Background(), initial, "color [0] [0,0,0,255]\n", Options{})
	require.NoError(t, err)
	assert.Equal(t, 5, res.TotalCost)

	res, err = Execute(context.Background(), initial, "color [0]\n", Options{})
	assert.Nil(t, res)
	var perr *lang.ParseError
	assert.True(t, errors.As(err, &perr))
}

func TestParseMergeCost(t *testing.T) {
	p, err := ParseMergeCost("")
	require.NoError(t, err)
	assert.Equal(t, MergeCostMin, p)
	_, err = ParseMergeCost("avg")
	assert.Error(t, err)
}
