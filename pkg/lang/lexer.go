package lang

import (
	"fmt"
	"strconv"
	"strings"

	"blocode/pkg/logging"
)

// lexState is a state of the scanner automaton. Keyword prefixes get their
// own states so that "c" may continue to "color" or "cut" and is otherwise
// rejected.
type lexState int

const (
	lsDead lexState = iota
	lsStart
	lsNewline
	lsSpace
	lsComment
	lsComma
	lsDot
	lsOrientation
	lsLBracket
	lsRBracket
	lsNumber
	lsC
	lsCo
	lsCol
	lsColo
	lsColor
	lsCu
	lsCut
	lsM
	lsMe
	lsMer
	lsMerg
	lsMerge
	lsS
	lsSw
	lsSwa
	lsSwap
)

// skip marks an accepting state whose lexeme produces no token.
const skip TokenType = -1

// accepting maps accepting states to the token they produce.
var accepting = map[lexState]TokenType{
	lsNewline:     NEWLINE,
	lsSpace:       skip,
	lsComment:     COMMENT,
	lsComma:       COMMA,
	lsDot:         DOT,
	lsOrientation: ORIENTATION,
	lsLBracket:    LBRACKET,
	lsRBracket:    RBRACKET,
	lsNumber:      NUMBER,
	lsColor:       COLOR,
	lsCut:         CUT,
	lsMerge:       MERGE,
	lsSwap:        SWAP,
}

// keywordEdges spells out the keyword branches: state → (char → next state).
var keywordEdges = map[lexState]map[byte]lexState{
	lsC:    {'o': lsCo, 'u': lsCu},
	lsCo:   {'l': lsCol},
	lsCol:  {'o': lsColo},
	lsColo: {'r': lsColor},
	lsCu:   {'t': lsCut},
	lsM:    {'e': lsMe},
	lsMe:   {'r': lsMer},
	lsMer:  {'g': lsMerg},
	lsMerg: {'e': lsMerge},
	lsS:    {'w': lsSw},
	lsSw:   {'a': lsSwa},
	lsSwa:  {'p': lsSwap},
}

func transition(st lexState, ch byte) lexState {
	switch st {
	case lsStart:
		switch {
		case ch == '\n':
			return lsNewline
		case ch == ' ':
			return lsSpace
		case ch == '#':
			return lsComment
		case ch == ',':
			return lsComma
		case ch == '.':
			return lsDot
		case ch == 'x' || ch == 'y' || ch == 'X' || ch == 'Y':
			return lsOrientation
		case ch == '[':
			return lsLBracket
		case ch == ']':
			return lsRBracket
		case ch == 'c':
			return lsC
		case ch == 'm':
			return lsM
		case ch == 's':
			return lsS
		case isDigit(ch):
			return lsNumber
		}
	case lsSpace:
		if ch == ' ' {
			return lsSpace
		}
	case lsComment:
		if ch != '\n' {
			return lsComment
		}
	case lsNumber:
		if isDigit(ch) {
			return lsNumber
		}
	default:
		if next, ok := keywordEdges[st][ch]; ok {
			return next
		}
	}
	return lsDead
}

func isDigit(ch byte) bool { return ch >= '0' && ch <= '9' }

// source is the character stream with a stack of pushed-back fragments.
// Fragments are read before the remaining input, most recent first.
type source struct {
	src     string
	pos     int
	pending [][]byte
}

func (s *source) next() (byte, bool) {
	for n := len(s.pending); n > 0; n = len(s.pending) {
		top := s.pending[n-1]
		if len(top) == 0 {
			s.pending = s.pending[:n-1]
			continue
		}
		s.pending[n-1] = top[1:]
		return top[0], true
	}
	if s.pos >= len(s.src) {
		return 0, false
	}
	ch := s.src[s.pos]
	s.pos++
	return ch, true
}

// offset is the position in src of the next character next will return.
// Pushed-back fragments are always characters read from src.
func (s *source) offset() int {
	n := s.pos
	for _, f := range s.pending {
		n -= len(f)
	}
	return n
}

// column returns the 1-based column of src offset at.
func (s *source) column(at int) int {
	return at - (strings.LastIndexByte(s.src[:at], '\n') + 1) + 1
}

func (s *source) unread(frag []byte) {
	if len(frag) > 0 {
		s.pending = append(s.pending, frag)
	}
}

func (s *source) empty() bool {
	for _, f := range s.pending {
		if len(f) > 0 {
			return false
		}
	}
	return s.pos >= len(s.src)
}

// Lexer turns program text into tokens, one Next call at a time.
type Lexer struct {
	in   source
	line int
	done bool
}

func NewLexer(src string) *Lexer {
	return &Lexer{in: source{src: src}, line: 1}
}

// Next returns the next token. Once the input is exhausted it returns an
// EOF token, and keeps returning it on every later call.
func (l *Lexer) Next() (Token, error) {
	for {
		if l.done {
			return Token{Type: EOF, Line: l.line}, nil
		}
		tok, ok, err := l.scan()
		if err != nil {
			return Token{}, err
		}
		if ok {
			logging.Logger().Debug("lexed token", "type", tok.Type, "lexeme", tok.Lexeme, "line", tok.Line)
			return tok, nil
		}
	}
}

// scan runs the automaton once from the current position and commits to the
// longest accepted prefix. Characters read past that prefix go back to the
// input. ok is false when the lexeme is discarded (spaces).
func (l *Lexer) scan() (tok Token, ok bool, err error) {
	var (
		st       = lsStart
		start    = l.in.offset()
		accepted []byte // longest accepted prefix
		overrun  []byte // characters read since it
		kind     TokenType
		matched  bool
		atEnd    bool
	)
	for st != lsDead {
		if t, acc := accepting[st]; acc {
			accepted = append(accepted, overrun...)
			overrun = nil
			kind, matched = t, true
		}
		ch, more := l.in.next()
		if !more {
			atEnd = true
			break
		}
		overrun = append(overrun, ch)
		st = transition(st, ch)
	}
	l.in.unread(overrun)

	if !matched {
		if l.in.empty() {
			l.done = true
			return Token{Type: EOF, Line: l.line}, true, nil
		}
		// The last character read is the one the automaton could not take.
		err := &LexError{Line: l.line, Text: string(overrun)}
		if !atEnd {
			err.Text = string(overrun[:len(overrun)-1])
			err.Char = string(overrun[len(overrun)-1:])
		}
		err.Column = l.in.column(start + len(err.Text))
		return Token{}, false, err
	}

	text := string(accepted)
	line := l.line
	switch kind {
	case skip:
		return Token{}, false, nil
	case NEWLINE:
		l.line++
	}
	tok = Token{Type: kind, Lexeme: text, Line: line}
	switch kind {
	case COMMENT:
		tok.Text = text[1:]
	case ORIENTATION:
		tok.Text = strings.ToLower(text)
	case NUMBER:
		n, err := strconv.Atoi(text)
		if err != nil {
			return Token{}, false, &LexError{Line: line, Column: l.in.column(start), Text: text, Reason: "number out of range"}
		}
		tok.Num = n
	}
	return tok, true, nil
}

// Lex scans the whole program. The result always ends with exactly one EOF.
func Lex(src string) ([]Token, error) {
	l := NewLexer(src)
	var tokens []Token
	for {
		tok, err := l.Next()
		if err != nil {
			return nil, err
		}
		tokens = append(tokens, tok)
		if tok.Type == EOF {
			return tokens, nil
		}
	}
}

// LexError reports input that no token can start with. Text is what the
// automaton accepted before it stopped and Char the character it could not
// take, empty at the end of input. Column points at Char.
type LexError struct {
	Line   int
	Column int
	Text   string
	Char   string
	Reason string
}

func (e *LexError) Error() string {
	switch {
	case e.Reason != "":
		return fmt.Sprintf("line %d:%d: %s: %q", e.Line, e.Column, e.Reason, e.Text)
	case e.Char == "":
		return fmt.Sprintf("line %d:%d: unexpected end of input after %q", e.Line, e.Column, e.Text)
	case e.Text == "":
		return fmt.Sprintf("line %d:%d: unexpected %q", e.Line, e.Column, e.Char)
	}
	return fmt.Sprintf("line %d:%d: unexpected %q after %q", e.Line, e.Column, e.Char, e.Text)
}
