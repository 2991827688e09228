package interp

import (
	"context"

	"blocode/pkg/canvas"
	"blocode/pkg/lang"
)

// Execute parses src and runs it from initial. Lex and parse errors are
// returned with a nil result; interpreter errors come with the steps that
// were recorded before the failure.
func Execute(ctx context.Context, initial *canvas.Initial, src string, opts Options) (*Result, error) {
	program, err := lang.Parse(src)
	if err != nil {
		return nil, err
	}
	start, err := canvas.NewState(initial)
	if err != nil {
		return nil, err
	}
	return New(start, opts).Run(ctx, program)
}
