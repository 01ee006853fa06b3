package token

import (
	"fmt"
	"strconv"
)

type TokenType int

const (
	ILLEGAL TokenType = iota
	EOF

	literal_beg
	BARE_ID    // module, i32, firrtl.uint
	PERCENT_ID // %0, %arg0, %x#1
	CARET_ID   // ^bb0
	AT_ID      // @main, @"quoted"
	BANG_ID    // !firrtl.uint
	HASH_ID    // #hw.param
	INT        // 42
	FLOAT      // 1.5, 2.0e-3
	STRING     // "abc"
	literal_end

	operator_beg
	LPAREN  // (
	RPAREN  // )
	LBRACE  // {
	RBRACE  // }
	LBRACK  // [
	RBRACK  // ]
	LESS    // <
	GREATER // >
	COMMA   // ,
	COLON   // :
	EQUAL   // =
	ARROW   // ->
	MINUS   // -
	PLUS    // +
	STAR    // *
	QUESTION
	operator_end
)

var tokens = [...]string{
	ILLEGAL: "ILLEGAL",
	EOF:     "EOF",

	BARE_ID:    "BARE_ID",
	PERCENT_ID: "PERCENT_ID",
	CARET_ID:   "CARET_ID",
	AT_ID:      "AT_ID",
	BANG_ID:    "BANG_ID",
	HASH_ID:    "HASH_ID",
	INT:        "INT",
	FLOAT:      "FLOAT",
	STRING:     "STRING",

	LPAREN:   "(",
	RPAREN:   ")",
	LBRACE:   "{",
	RBRACE:   "}",
	LBRACK:   "[",
	RBRACK:   "]",
	LESS:     "<",
	GREATER:  ">",
	COMMA:    ",",
	COLON:    ":",
	EQUAL:    "=",
	ARROW:    "->",
	MINUS:    "-",
	PLUS:     "+",
	STAR:     "*",
	QUESTION: "?",
}

// Token is a lexeme together with its position. Offset and End are byte
// offsets into the source, so the parser can slice out the exact text of a
// type or attribute.
type Token struct {
	FileName string
	Type     TokenType
	Literal  string
	Line     int
	Column   int
	Offset   int
	End      int
}

func (t Token) IsLiteral() bool {
	return literal_beg < t.Type && t.Type < literal_end
}

func (t Token) IsOperator() bool {
	return operator_beg < t.Type && t.Type < operator_end
}

func (t Token) Pos() string {
	return fmt.Sprintf("%s:%d:%d", t.FileName, t.Line, t.Column)
}

func (t Token) String() string {
	if t.IsLiteral() {
		return fmt.Sprintf("%s(%s)", t.Type, t.Literal)
	}
	return t.Type.String()
}

func (tokenType TokenType) String() string {
	s := ""
	if 0 <= tokenType && tokenType < TokenType(len(tokens)) {
		s = tokens[tokenType]
	}

	if s == "" {
		s = "token(" + strconv.Itoa(int(tokenType)) + ")"
	}

	return s
}

// Error is a diagnostic tied to a source position.
type Error struct {
	Token Token
	Msg   string
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: error: %s", e.Token.Pos(), e.Msg)
}
