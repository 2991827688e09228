// Package interp executes parsed programs against a canvas state.
package interp

import (
	"context"
	"fmt"
	"image"
	"slices"

	"blocode/pkg/canvas"
	"blocode/pkg/lang"
	"blocode/pkg/logging"
)

// Options tune the interpreter. The zero value reproduces the reference
// behaviour: merge charged the cheaper cost, color overwrites, no rasters.
type Options struct {
	MergeCost   MergeCost
	ColorMode   canvas.ColorMode
	RenderSteps bool // attach a rendered raster to every ExecutionStep
}

// ExecutionStep is the outcome of one command.
type ExecutionStep struct {
	Command lang.Command
	State   *canvas.State // snapshot after the command, owned by the step
	Cost    int
	Raster  *image.NRGBA // nil unless Options.RenderSteps
}

// Result is what Run hands to hosts. Steps[0] is the initial state, recorded
// as the comment "Initial state" with zero cost.
type Result struct {
	Steps     []ExecutionStep
	TotalCost int
}

// Final returns the state after the last recorded step.
func (r *Result) Final() *canvas.State {
	return r.Steps[len(r.Steps)-1].State
}

// InitialComment is the command text of the step recorded for the start state.
const InitialComment = "Initial state"

// Interpreter applies commands one at a time to a state it owns. It is not
// safe for concurrent use.
type Interpreter struct {
	opts       Options
	state      *canvas.State
	initial    ExecutionStep
	canvasArea int
	applied    int // non-comment commands applied
	total      int
	history    []ExecutionStep
	halt       *Error
}

// New returns an interpreter starting from a copy of start.
func New(start *canvas.State, opts Options) *Interpreter {
	in := &Interpreter{
		opts:       opts,
		state:      start.Clone(),
		canvasArea: start.Area(),
	}
	in.initial = in.snapshot(lang.Comment{Text: InitialComment}, 0)
	return in
}

// Step applies exactly one command. On failure the state is left as it was
// before the command, nothing is recorded and the interpreter halts: every
// later call returns an error wrapping ErrHalted.
func (in *Interpreter) Step(cmd lang.Command) (*ExecutionStep, error) {
	if in.halt != nil {
		return nil, fmt.Errorf("%w: %w", ErrHalted, in.halt)
	}
	cost, err := in.apply(cmd)
	if err != nil {
		in.halt = &Error{Msg: err.Error(), Ordinal: in.applied + 1, Command: cmd}
		if f, ok := err.(*failure); ok {
			in.halt.Kind = f.kind
		}
		logging.Logger().Warn("program halted", "ordinal", in.halt.Ordinal, "command", cmd.String(), "error", err)
		return nil, in.halt
	}
	if cmd.Kind() != lang.KindComment {
		in.applied++
	}
	in.total += cost
	in.history = append(in.history, in.snapshot(cmd, cost))
	logging.Logger().Debug("applied command", "ordinal", in.applied, "command", cmd.String(), "cost", cost, "total", in.total)
	return &in.history[len(in.history)-1], nil
}

// Run applies program in order until it ends, a command fails or ctx is
// done. ctx is only checked between commands. The result holds the initial
// step and every step recorded so far, also when an error is returned.
func (in *Interpreter) Run(ctx context.Context, program []lang.Command) (*Result, error) {
	var err error
	for _, cmd := range program {
		if err = ctx.Err(); err != nil {
			break
		}
		if _, err = in.Step(cmd); err != nil {
			break
		}
	}
	res := in.Result()
	logging.Logger().Info("run finished", "steps", len(res.Steps)-1, "total_cost", res.TotalCost, "error", err)
	return res, err
}

// Result returns the initial step followed by the recorded history.
func (in *Interpreter) Result() *Result {
	steps := make([]ExecutionStep, 0, len(in.history)+1)
	steps = append(steps, in.initial)
	steps = append(steps, in.history...)
	return &Result{Steps: steps, TotalCost: in.total}
}

// Undo drops the effect of the most recent step. After a failure it only
// clears the halt. It reports false when there is nothing to undo.
func (in *Interpreter) Undo() bool {
	if in.halt != nil {
		in.halt = nil
		return true
	}
	n := len(in.history)
	if n == 0 {
		return false
	}
	last := in.history[n-1]
	in.history = in.history[:n-1]
	in.total -= last.Cost
	if last.Command.Kind() != lang.KindComment {
		in.applied--
	}
	prev := in.initial
	if n > 1 {
		prev = in.history[n-2]
	}
	in.state = prev.State.Clone()
	return true
}

// State returns a copy of the live state.
func (in *Interpreter) State() *canvas.State { return in.state.Clone() }

// History returns the recorded steps, oldest first. The slice is a copy;
// appending to it or overwriting its elements leaves the interpreter as is.
func (in *Interpreter) History() []ExecutionStep { return slices.Clone(in.history) }

func (in *Interpreter) TotalCost() int { return in.total }

// Halted returns the error that stopped the interpreter, or nil.
func (in *Interpreter) Halted() error {
	if in.halt == nil {
		return nil
	}
	return in.halt
}

func (in *Interpreter) snapshot(cmd lang.Command, cost int) ExecutionStep {
	st := ExecutionStep{Command: cmd, State: in.state.Clone(), Cost: cost}
	if in.opts.RenderSteps {
		st.Raster = canvas.Render(st.State)
	}
	return st
}

func (in *Interpreter) cost(kind lang.Kind, b *canvas.Block) int {
	return Cost(kind, in.canvasArea, b.Area())
}

func (in *Interpreter) block(id canvas.BlockID) (*canvas.Block, error) {
	b, ok := in.state.Get(id)
	if !ok {
		return nil, fail(ErrUnknownBlock, "No such block: %s", id)
	}
	return b, nil
}

// apply checks cmd against the state and then performs it. The state is only
// touched once every check has passed.
func (in *Interpreter) apply(cmd lang.Command) (int, error) {
	switch c := cmd.(type) {
	case lang.CutLine:
		return in.cutLine(c)
	case lang.CutPoint:
		return in.cutPoint(c)
	case lang.Color:
		return in.color(c)
	case lang.Swap:
		return in.swap(c)
	case lang.Merge:
		return in.merge(c)
	case lang.Comment:
		return 0, nil
	}
	return 0, fmt.Errorf("unsupported command %T", cmd)
}

func child(id canvas.BlockID, n int) canvas.BlockID {
	return canvas.BlockID(fmt.Sprintf("%s.%d", id, n))
}

func (in *Interpreter) cutLine(c lang.CutLine) (int, error) {
	b, err := in.block(c.Block)
	if err != nil {
		return 0, err
	}
	var local, size int
	switch c.Axis {
	case lang.AxisX:
		local, size = c.Offset-b.X, b.Width
	case lang.AxisY:
		local, size = c.Offset-b.Y, b.Height
	default:
		return 0, fail(ErrOutOfRangeCut, "Unknown cut direction %q for block %s", c.Axis, c.Block)
	}
	if local <= 0 || local >= size {
		return 0, fail(ErrOutOfRangeCut, "Point %d is on block border or outside of block %s in %s dimension", c.Offset, c.Block, c.Axis)
	}

	blocks := in.state.Blocks
	delete(blocks, c.Block)
	if c.Axis == lang.AxisX {
		blocks[child(c.Block, 0)] = b.Slice(0, 0, local, b.Height)
		blocks[child(c.Block, 1)] = b.Slice(local, 0, b.Width-local, b.Height)
	} else {
		blocks[child(c.Block, 0)] = b.Slice(0, 0, b.Width, local)
		blocks[child(c.Block, 1)] = b.Slice(0, local, b.Width, b.Height-local)
	}
	return in.cost(lang.KindCutLine, b), nil
}

func (in *Interpreter) cutPoint(c lang.CutPoint) (int, error) {
	b, err := in.block(c.Block)
	if err != nil {
		return 0, err
	}
	x, y := c.Point.X-b.X, c.Point.Y-b.Y
	if x <= 0 || x >= b.Width {
		return 0, fail(ErrOutOfRangeCut, "Point %d,%d is on block border or outside of block %s in x dimension", c.Point.X, c.Point.Y, c.Block)
	}
	if y <= 0 || y >= b.Height {
		return 0, fail(ErrOutOfRangeCut, "Point %d,%d is on block border or outside of block %s in y dimension", c.Point.X, c.Point.Y, c.Block)
	}

	blocks := in.state.Blocks
	delete(blocks, c.Block)
	blocks[child(c.Block, 0)] = b.Slice(0, 0, x, y)
	blocks[child(c.Block, 1)] = b.Slice(x, 0, b.Width-x, y)
	blocks[child(c.Block, 2)] = b.Slice(x, y, b.Width-x, b.Height-y)
	blocks[child(c.Block, 3)] = b.Slice(0, y, x, b.Height-y)
	return in.cost(lang.KindCutPoint, b), nil
}

func (in *Interpreter) color(c lang.Color) (int, error) {
	b, err := in.block(c.Block)
	if err != nil {
		return 0, err
	}
	b.Paint(c.Color, in.opts.ColorMode)
	return in.cost(lang.KindColor, b), nil
}

func (in *Interpreter) swap(c lang.Swap) (int, error) {
	b1, err := in.block(c.Block1)
	if err != nil {
		return 0, err
	}
	b2, err := in.block(c.Block2)
	if err != nil {
		return 0, err
	}
	if b1.Width != b2.Width || b1.Height != b2.Height {
		return 0, fail(ErrShapeMismatch, "Block shapes are incompatible for %s and %s", c.Block1, c.Block2)
	}
	b1.X, b2.X = b2.X, b1.X
	b1.Y, b2.Y = b2.Y, b1.Y
	return in.cost(lang.KindSwap, b1), nil
}

func (in *Interpreter) merge(c lang.Merge) (int, error) {
	b1, err := in.block(c.Block1)
	if err != nil {
		return 0, err
	}
	b2, err := in.block(c.Block2)
	if err != nil {
		return 0, err
	}
	switch {
	case b1.X == b2.X:
		if b1.Width != b2.Width {
			return 0, fail(ErrShapeMismatch, "Blocks %s and %s are not compatible for merge: width differs", c.Block1, c.Block2)
		}
		if b2.Y-b1.Y != b1.Height && b1.Y-b2.Y != b2.Height {
			return 0, fail(ErrNotAdjacent, "Blocks %s and %s are not adjacent", c.Block1, c.Block2)
		}
	case b1.Y == b2.Y:
		if b1.Height != b2.Height {
			return 0, fail(ErrShapeMismatch, "Blocks %s and %s are not compatible for merge: height differs", c.Block1, c.Block2)
		}
		if b2.X-b1.X != b1.Width && b1.X-b2.X != b2.Width {
			return 0, fail(ErrNotAdjacent, "Blocks %s and %s are not adjacent", c.Block1, c.Block2)
		}
	default:
		return 0, fail(ErrNotAligned, "Blocks to be merged are not aligned")
	}

	cost := in.opts.MergeCost.pick(in.cost(lang.KindMerge, b1), in.cost(lang.KindMerge, b2))
	merged := canvas.Join(b1.Rect().Union(b2.Rect()), b1, b2)
	delete(in.state.Blocks, c.Block1)
	delete(in.state.Blocks, c.Block2)
	in.state.Blocks[in.state.NextID()] = merged
	return cost, nil
}
