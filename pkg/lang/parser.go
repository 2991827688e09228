package lang

import (
	"fmt"
	"strings"

	"blocode/pkg/canvas"
	"blocode/pkg/logging"
)

// The parser is a canonical LR(1) automaton for this grammar:
//
//	Program     = ProgramLine %eof | ProgramLine newline Program
//	ProgramLine = ε | comment | Move
//	Move        = color Block Color
//	            | cut Block lb orientation rb lb number rb
//	            | cut Block Point
//	            | merge Block Block
//	            | swap Block Block
//	Block       = lb BlockId rb
//	BlockId     = number | number dot BlockId
//	Point       = lb number comma number rb
//	Color       = lb number comma number comma number comma number rb
//
// The tables below were generated from the grammar once and are kept as data.

const (
	numStates       = 46
	numNonterminals = 7
)

type nonterminal int

const (
	ntMove nonterminal = iota
	ntProgram
	ntProgramLine
	ntBlock
	ntColor
	ntPoint
	ntBlockID
)

type production struct {
	lhs  nonterminal
	size int // right-hand side length
	name string
}

var productions = [...]production{
	{ntProgram, 2, "Program -> ProgramLine %eof"},
	{ntProgram, 3, "Program -> ProgramLine newline Program"},
	{ntProgramLine, 0, "ProgramLine -> "},
	{ntProgramLine, 1, "ProgramLine -> comment"},
	{ntProgramLine, 1, "ProgramLine -> Move"},
	{ntMove, 3, "Move -> color Block Color"},
	{ntMove, 8, "Move -> cut Block lb orientation rb lb number rb"},
	{ntMove, 3, "Move -> cut Block Point"},
	{ntMove, 3, "Move -> merge Block Block"},
	{ntMove, 3, "Move -> swap Block Block"},
	{ntBlock, 3, "Block -> lb BlockId rb"},
	{ntBlockID, 1, "BlockId -> number"},
	{ntBlockID, 3, "BlockId -> number dot BlockId"},
	{ntPoint, 5, "Point -> lb number comma number rb"},
	{ntColor, 9, "Color -> lb number comma number comma number comma number rb"},
}

// action is an ACTION table entry: 1..numStates-1 shift to that state,
// negative values reduce by production -a-1.
type action int8

const (
	__  action = 0
	acc action = 127
)

const (
	r0 action = -1 - iota
	r1
	r2
	r3
	r4
	r5
	r6
	r7
	r8
	r9
	r10
	r11
	r12
	r13
	r14
)

var actionTable = [numStates][numTerminals]action{
	//   %eof newline comment comma dot orient lb rb number swap merge cut color
	/*  0 */ {r2, r2, 6, __, __, __, __, __, __, 19, 16, 7, 3},
	/*  1 */ {acc, __, __, __, __, __, __, __, __, __, __, __, __},
	/*  2 */ {1, __, __, __, __, __, __, __, __, __, __, __, __},
	/*  3 */ {__, __, __, __, __, __, 41, __, __, __, __, __, __},
	/*  4 */ {__, __, __, __, __, __, 33, __, __, __, __, __, __},
	/*  5 */ {r5, r5, __, __, __, __, __, __, __, __, __, __, __},
	/*  6 */ {r3, r3, __, __, __, __, __, __, __, __, __, __, __},
	/*  7 */ {__, __, __, __, __, __, 41, __, __, __, __, __, __},
	/*  8 */ {__, __, __, __, __, __, __, __, 10, __, __, __, __},
	/*  9 */ {__, __, __, __, __, 11, __, __, 28, __, __, __, __},
	/* 10 */ {__, __, __, __, __, __, __, 12, __, __, __, __, __},
	/* 11 */ {__, __, __, __, __, __, __, 13, __, __, __, __, __},
	/* 12 */ {r6, r6, __, __, __, __, __, __, __, __, __, __, __},
	/* 13 */ {__, __, __, __, __, __, 8, __, __, __, __, __, __},
	/* 14 */ {__, __, __, __, __, __, 9, __, __, __, __, __, __},
	/* 15 */ {r7, r7, __, __, __, __, __, __, __, __, __, __, __},
	/* 16 */ {__, __, __, __, __, __, 41, __, __, __, __, __, __},
	/* 17 */ {__, __, __, __, __, __, 41, __, __, __, __, __, __},
	/* 18 */ {r8, r8, __, __, __, __, __, __, __, __, __, __, __},
	/* 19 */ {__, __, __, __, __, __, 41, __, __, __, __, __, __},
	/* 20 */ {__, __, __, __, __, __, 41, __, __, __, __, __, __},
	/* 21 */ {r9, r9, __, __, __, __, __, __, __, __, __, __, __},
	/* 22 */ {r0, __, __, __, __, __, __, __, __, __, __, __, __},
	/* 23 */ {22, 24, __, __, __, __, __, __, __, __, __, __, __},
	/* 24 */ {r2, r2, 6, __, __, __, __, __, __, 19, 16, 7, 3},
	/* 25 */ {r1, __, __, __, __, __, __, __, __, __, __, __, __},
	/* 26 */ {__, __, __, __, __, __, __, __, 27, __, __, __, __},
	/* 27 */ {__, __, __, __, __, __, __, 29, __, __, __, __, __},
	/* 28 */ {__, __, __, 26, __, __, __, __, __, __, __, __, __},
	/* 29 */ {r13, r13, __, __, __, __, __, __, __, __, __, __, __},
	/* 30 */ {__, __, __, __, __, __, __, __, 34, __, __, __, __},
	/* 31 */ {__, __, __, __, __, __, __, __, 35, __, __, __, __},
	/* 32 */ {__, __, __, __, __, __, __, __, 36, __, __, __, __},
	/* 33 */ {__, __, __, __, __, __, __, __, 37, __, __, __, __},
	/* 34 */ {__, __, __, __, __, __, __, 38, __, __, __, __, __},
	/* 35 */ {__, __, __, 30, __, __, __, __, __, __, __, __, __},
	/* 36 */ {__, __, __, 31, __, __, __, __, __, __, __, __, __},
	/* 37 */ {__, __, __, 32, __, __, __, __, __, __, __, __, __},
	/* 38 */ {r14, r14, __, __, __, __, __, __, __, __, __, __, __},
	/* 39 */ {__, __, __, __, 44, __, __, r11, __, __, __, __, __},
	/* 40 */ {r4, r4, __, __, __, __, __, __, __, __, __, __, __},
	/* 41 */ {__, __, __, __, __, __, __, __, 39, __, __, __, __},
	/* 42 */ {r10, r10, __, __, __, __, r10, __, __, __, __, __, __},
	/* 43 */ {__, __, __, __, __, __, __, 42, __, __, __, __, __},
	/* 44 */ {__, __, __, __, __, __, __, __, 39, __, __, __, __},
	/* 45 */ {__, __, __, __, __, __, __, r12, __, __, __, __, __},
}

var gotoTable = [numStates][numNonterminals]int8{
	//   Move Program ProgramLine Block Color Point BlockId
	/*  0 */ {40, 2, 23, 0, 0, 0, 0},
	/*  1 */ {0, 0, 0, 0, 0, 0, 0},
	/*  2 */ {0, 0, 0, 0, 0, 0, 0},
	/*  3 */ {0, 0, 0, 4, 0, 0, 0},
	/*  4 */ {0, 0, 0, 0, 5, 0, 0},
	/*  5 */ {0, 0, 0, 0, 0, 0, 0},
	/*  6 */ {0, 0, 0, 0, 0, 0, 0},
	/*  7 */ {0, 0, 0, 14, 0, 0, 0},
	/*  8 */ {0, 0, 0, 0, 0, 0, 0},
	/*  9 */ {0, 0, 0, 0, 0, 0, 0},
	/* 10 */ {0, 0, 0, 0, 0, 0, 0},
	/* 11 */ {0, 0, 0, 0, 0, 0, 0},
	/* 12 */ {0, 0, 0, 0, 0, 0, 0},
	/* 13 */ {0, 0, 0, 0, 0, 0, 0},
	/* 14 */ {0, 0, 0, 0, 0, 15, 0},
	/* 15 */ {0, 0, 0, 0, 0, 0, 0},
	/* 16 */ {0, 0, 0, 17, 0, 0, 0},
	/* 17 */ {0, 0, 0, 18, 0, 0, 0},
	/* 18 */ {0, 0, 0, 0, 0, 0, 0},
	/* 19 */ {0, 0, 0, 20, 0, 0, 0},
	/* 20 */ {0, 0, 0, 21, 0, 0, 0},
	/* 21 */ {0, 0, 0, 0, 0, 0, 0},
	/* 22 */ {0, 0, 0, 0, 0, 0, 0},
	/* 23 */ {0, 0, 0, 0, 0, 0, 0},
	/* 24 */ {40, 25, 23, 0, 0, 0, 0},
	/* 25 */ {0, 0, 0, 0, 0, 0, 0},
	/* 26 */ {0, 0, 0, 0, 0, 0, 0},
	/* 27 */ {0, 0, 0, 0, 0, 0, 0},
	/* 28 */ {0, 0, 0, 0, 0, 0, 0},
	/* 29 */ {0, 0, 0, 0, 0, 0, 0},
	/* 30 */ {0, 0, 0, 0, 0, 0, 0},
	/* 31 */ {0, 0, 0, 0, 0, 0, 0},
	/* 32 */ {0, 0, 0, 0, 0, 0, 0},
	/* 33 */ {0, 0, 0, 0, 0, 0, 0},
	/* 34 */ {0, 0, 0, 0, 0, 0, 0},
	/* 35 */ {0, 0, 0, 0, 0, 0, 0},
	/* 36 */ {0, 0, 0, 0, 0, 0, 0},
	/* 37 */ {0, 0, 0, 0, 0, 0, 0},
	/* 38 */ {0, 0, 0, 0, 0, 0, 0},
	/* 39 */ {0, 0, 0, 0, 0, 0, 0},
	/* 40 */ {0, 0, 0, 0, 0, 0, 0},
	/* 41 */ {0, 0, 0, 0, 0, 0, 43},
	/* 42 */ {0, 0, 0, 0, 0, 0, 0},
	/* 43 */ {0, 0, 0, 0, 0, 0, 0},
	/* 44 */ {0, 0, 0, 0, 0, 0, 45},
	/* 45 */ {0, 0, 0, 0, 0, 0, 0},
}

// stateSymbols is the grammar symbol shifted or reduced to enter each state.
var stateSymbols = [numStates]string{
	".", "%eof", "Program", "color", "Block", "Color", "comment", "cut", "lb", "lb",
	"number", "orientation", "rb", "rb", "Block", "Point", "merge", "Block", "Block", "swap",
	"Block", "Block", "%eof", "ProgramLine", "newline", "Program", "comma", "number", "number", "rb",
	"comma", "comma", "comma", "lb", "number", "number", "number", "number", "rb", "number",
	"Move", "lb", "rb", "BlockId", "dot", "BlockId",
}

// expectedSymbols lists what may legally follow in each state.
var expectedSymbols = [numStates][]string{
	{"Program"}, {"%eof"}, {"%eof"}, {"Block"}, {"Color"},
	{"%eof", "newline"}, {"%eof", "newline"}, {"Block", "Block"}, {"number"}, {"orientation", "number"},
	{"rb"}, {"rb"}, {"%eof", "newline"}, {"lb"}, {"lb", "Point"},
	{"%eof", "newline"}, {"Block"}, {"Block"}, {"%eof", "newline"}, {"Block"},
	{"Block"}, {"%eof", "newline"}, {"%eof"}, {"%eof", "newline"}, {"Program"},
	{"%eof"}, {"number"}, {"rb"}, {"comma"}, {"%eof", "newline"},
	{"number"}, {"number"}, {"number"}, {"number"}, {"rb"},
	{"comma"}, {"comma"}, {"comma"}, {"%eof", "newline"}, {"rb", "dot"},
	{"%eof", "newline"}, {"BlockId"}, {"%eof", "lb", "newline"}, {"rb"}, {"BlockId"},
	{"rb"},
}

// TokenSource yields tokens one at a time. After the end of input it must
// keep returning EOF.
type TokenSource interface {
	Next() (Token, error)
}

type sliceSource struct {
	tokens []Token
	pos    int
}

func (s *sliceSource) Next() (Token, error) {
	if s.pos >= len(s.tokens) {
		line := 1
		if n := len(s.tokens); n > 0 {
			line = s.tokens[n-1].Line
		}
		return Token{Type: EOF, Line: line}, nil
	}
	tok := s.tokens[s.pos]
	if tok.Type != EOF {
		s.pos++
	}
	return tok, nil
}

type valueKind uint8

const (
	vNone valueKind = iota
	vToken
	vID
	vPoint
	vColor
	vCommand
	vList
)

// value is the semantic value attached to a stack entry.
type value struct {
	kind  valueKind
	tok   Token
	id    string
	point Point
	color canvas.RGBA
	cmd   Command
	list  []Command // in reverse program order until accept
}

type frame struct {
	state int
	val   value
}

// Parse lexes and parses a whole program. A lexical error aborts before any
// parsing happens.
func Parse(src string) ([]Command, error) {
	tokens, err := Lex(src)
	if err != nil {
		return nil, err
	}
	return ParseTokens(&sliceSource{tokens: tokens})
}

// ParseTokens runs the automaton over ts. It returns one Command per
// non-empty line, or the first error; there is no recovery and no partial
// result.
func ParseTokens(ts TokenSource) ([]Command, error) {
	log := logging.Logger()
	var stack []frame
	top := func() int {
		if len(stack) == 0 {
			return 0
		}
		return stack[len(stack)-1].state
	}

	la, err := ts.Next()
	if err != nil {
		return nil, err
	}
	for {
		act := actionTable[top()][la.Type]
		switch {
		case act == acc:
			prog := stack[len(stack)-2].val.list
			for i, j := 0, len(prog)-1; i < j; i, j = i+1, j-1 {
				prog[i], prog[j] = prog[j], prog[i]
			}
			return prog, nil

		case act == __:
			return nil, reject(stack, top(), la)

		case act > 0:
			log.Debug("shift", "state", int(act), "token", la.Type)
			stack = append(stack, frame{state: int(act), val: value{kind: vToken, tok: la}})
			if la, err = ts.Next(); err != nil {
				return nil, err
			}

		default:
			p := productions[-act-1]
			log.Debug("reduce", "production", p.name)
			rhs := stack[len(stack)-p.size:]
			v, err := reduce(int(-act-1), rhs)
			if err != nil {
				return nil, err
			}
			stack = stack[:len(stack)-p.size]
			next := gotoTable[top()][p.lhs]
			if next == 0 {
				return nil, fmt.Errorf("parser: no goto from state %d on %s", top(), p.name)
			}
			stack = append(stack, frame{state: int(next), val: v})
		}
	}
}

// reduce builds the semantic value of production p from its right-hand side.
func reduce(p int, rhs []frame) (value, error) {
	tok := func(i int) Token { return rhs[i].val.tok }
	id := func(i int) canvas.BlockID { return canvas.BlockID(rhs[i].val.id) }
	command := func(c Command) value { return value{kind: vCommand, cmd: c} }

	switch p {
	case 0: // Program -> ProgramLine %eof
		return value{kind: vList, list: appendLine(nil, rhs[0].val)}, nil
	case 1: // Program -> ProgramLine newline Program
		return value{kind: vList, list: appendLine(rhs[2].val.list, rhs[0].val)}, nil
	case 2: // ProgramLine -> ε
		return value{kind: vNone}, nil
	case 3: // ProgramLine -> comment
		return command(Comment{Text: tok(0).Text}), nil
	case 4: // ProgramLine -> Move
		return rhs[0].val, nil
	case 5:
		return command(Color{Block: id(1), Color: rhs[2].val.color}), nil
	case 6:
		return command(CutLine{Block: id(1), Axis: Axis(tok(3).Text), Offset: tok(6).Num}), nil
	case 7:
		return command(CutPoint{Block: id(1), Point: rhs[2].val.point}), nil
	case 8:
		return command(Merge{Block1: id(1), Block2: id(2)}), nil
	case 9:
		return command(Swap{Block1: id(1), Block2: id(2)}), nil
	case 10: // Block -> lb BlockId rb
		return rhs[1].val, nil
	case 11: // BlockId -> number
		return value{kind: vID, id: fmt.Sprint(tok(0).Num)}, nil
	case 12: // BlockId -> number dot BlockId
		return value{kind: vID, id: fmt.Sprintf("%d.%s", tok(0).Num, rhs[2].val.id)}, nil
	case 13: // Point -> lb number comma number rb
		return value{kind: vPoint, point: Point{X: tok(1).Num, Y: tok(3).Num}}, nil
	case 14: // Color -> lb number comma number comma number comma number rb
		var c [4]uint8
		for i := range c {
			t := tok(1 + 2*i)
			if t.Num > 255 {
				return value{}, &ParseError{
					Line:   t.Line,
					Token:  t,
					Reason: fmt.Sprintf("color component %d out of range 0..255", t.Num),
				}
			}
			c[i] = uint8(t.Num)
		}
		return value{kind: vColor, color: canvas.RGBA{R: c[0], G: c[1], B: c[2], A: c[3]}}, nil
	}
	return value{}, fmt.Errorf("parser: unknown production %d", p)
}

func appendLine(list []Command, line value) []Command {
	if line.kind != vCommand {
		return list
	}
	return append(list, line.cmd)
}

func reject(stack []frame, state int, la Token) *ParseError {
	consumed := make([]string, 0, len(stack)+1)
	consumed = append(consumed, stateSymbols[0])
	for _, f := range stack {
		consumed = append(consumed, stateSymbols[f.state])
	}
	return &ParseError{
		Line:     la.Line,
		State:    state,
		Consumed: consumed,
		Expected: expectedSymbols[state],
		Token:    la,
	}
}

// ParseError reports a token the automaton cannot accept, or a well-formed
// construct with an invalid value (Reason set).
type ParseError struct {
	Line     int
	State    int
	Consumed []string // grammar symbols recognised so far, starting with "."
	Expected []string
	Token    Token
	Reason   string
}

func (e *ParseError) Error() string {
	if e.Reason != "" {
		return fmt.Sprintf("line %d: %s", e.Line, e.Reason)
	}
	return fmt.Sprintf("line %d: rejection state reached after parsing %q, when encountered symbol %q (%q) in state %d. Expected %q",
		e.Line, strings.Join(e.Consumed, " "), e.Token.Type.String(), e.Token.Lexeme, e.State, strings.Join(e.Expected, "/"))
}
