package interp

import (
	"encoding/json"
	"errors"
	"fmt"

	"blocode/pkg/lang"
)

// Kinds of interpreter failure, matchable with errors.Is.
var (
	ErrUnknownBlock  = errors.New("unknown block")
	ErrOutOfRangeCut = errors.New("cut on block border or outside of block")
	ErrShapeMismatch = errors.New("block shapes differ")
	ErrNotAdjacent   = errors.New("blocks not adjacent")
	ErrNotAligned    = errors.New("blocks not aligned")

	// ErrHalted is returned by Step once a command has failed.
	ErrHalted = errors.New("interpreter halted")
)

// Error reports the command that stopped a run.
type Error struct {
	Kind    error
	Msg     string
	Ordinal int // 1-based, comments not counted
	Command lang.Command
}

func (e *Error) Error() string {
	data, err := json.Marshal(e.Command)
	if err != nil {
		data = []byte(e.Command.String())
	}
	return fmt.Sprintf("%s in command %d: %s", e.Msg, e.Ordinal, data)
}

func (e *Error) Unwrap() error { return e.Kind }

// failure is the error a command handler returns; Step completes it with the
// ordinal and the command.
type failure struct {
	kind error
	msg  string
}

func (f *failure) Error() string { return f.msg }

func fail(kind error, format string, args ...any) *failure {
	return &failure{kind: kind, msg: fmt.Sprintf(format, args...)}
}
