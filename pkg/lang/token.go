package lang

import "fmt"

// TokenType identifies the category of a lexed token. The order is the
// column order of the parser's ACTION table.
type TokenType int

const (
	EOF         TokenType = iota // end of input
	NEWLINE                      // \n
	COMMENT                      // # ... up to end of line
	COMMA                        // ,
	DOT                          // .
	ORIENTATION                  // x, y, X or Y
	LBRACKET                     // [
	RBRACKET                     // ]
	NUMBER                       // unsigned decimal integer
	SWAP                         // "swap"
	MERGE                        // "merge"
	CUT                          // "cut"
	COLOR                        // "color"

	numTerminals = iota
)

// tokenNames are the grammar symbol names, also used in parse diagnostics.
var tokenNames = [...]string{
	EOF:         "%eof",
	NEWLINE:     "newline",
	COMMENT:     "comment",
	COMMA:       "comma",
	DOT:         "dot",
	ORIENTATION: "orientation",
	LBRACKET:    "lb",
	RBRACKET:    "rb",
	NUMBER:      "number",
	SWAP:        "swap",
	MERGE:       "merge",
	CUT:         "cut",
	COLOR:       "color",
}

func (tt TokenType) String() string {
	if int(tt) >= 0 && int(tt) < len(tokenNames) {
		return tokenNames[tt]
	}
	return fmt.Sprintf("TokenType(%d)", int(tt))
}

// Token is a single lexical unit produced by the Lexer.
type Token struct {
	Type   TokenType
	Lexeme string // the exact source text that was matched
	Line   int    // 1-based source line

	Num  int    // NUMBER value
	Text string // COMMENT text after '#', lower-cased ORIENTATION letter
}

func (t Token) String() string {
	return fmt.Sprintf("%-12s %-14q  line %d", t.Type, t.Lexeme, t.Line)
}
