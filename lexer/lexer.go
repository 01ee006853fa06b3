package lexer

import (
	"strconv"
	"strings"

	"github.com/thiremani/cirrus/token"
)

type Lexer struct {
	fileName     string
	input        string
	position     int  // current position in input (points to current byte)
	readPosition int  // current reading position in input (after current byte)
	curr         byte // current byte under examination
	line         int
	column       int
}

func New(fileName, input string) *Lexer {
	l := &Lexer{fileName: fileName, input: input, line: 1}
	l.readByte()
	return l
}

func (l *Lexer) NextToken() token.Token {
	l.skipWhitespaceAndComments()

	tok := token.Token{
		FileName: l.fileName,
		Line:     l.line,
		Column:   l.column,
		Offset:   l.position,
	}

	switch l.curr {
	case 0:
		tok.Type = token.EOF
		tok.End = l.position
		return tok
	case '(':
		tok.Type = token.LPAREN
	case ')':
		tok.Type = token.RPAREN
	case '{':
		tok.Type = token.LBRACE
	case '}':
		tok.Type = token.RBRACE
	case '[':
		tok.Type = token.LBRACK
	case ']':
		tok.Type = token.RBRACK
	case '<':
		tok.Type = token.LESS
	case '>':
		tok.Type = token.GREATER
	case ',':
		tok.Type = token.COMMA
	case ':':
		tok.Type = token.COLON
	case '=':
		tok.Type = token.EQUAL
	case '+':
		tok.Type = token.PLUS
	case '*':
		tok.Type = token.STAR
	case '?':
		tok.Type = token.QUESTION
	case '-':
		if l.peekByte() == '>' {
			l.readByte()
			tok.Type = token.ARROW
		} else {
			tok.Type = token.MINUS
		}
	case '%':
		return l.readPrefixed(tok, token.PERCENT_ID, true)
	case '^':
		return l.readPrefixed(tok, token.CARET_ID, false)
	case '!':
		return l.readPrefixed(tok, token.BANG_ID, false)
	case '#':
		return l.readPrefixed(tok, token.HASH_ID, false)
	case '@':
		if l.peekByte() == '"' {
			l.readByte()
			s, ok := l.readString()
			tok.Literal = "@" + s
			tok.Type = token.AT_ID
			if !ok {
				tok.Type = token.ILLEGAL
			}
			tok.End = l.position
			return tok
		}
		return l.readPrefixed(tok, token.AT_ID, false)
	case '"':
		s, ok := l.readString()
		tok.Literal = s
		tok.Type = token.STRING
		if !ok {
			tok.Type = token.ILLEGAL
		}
		tok.End = l.position
		return tok
	default:
		if isLetter(l.curr) {
			tok.Literal = l.readIdentifier()
			tok.Type = token.BARE_ID
			tok.End = l.position
			return tok
		}
		if isDigit(l.curr) {
			tok.Literal, tok.Type = l.readNumber()
			tok.End = l.position
			return tok
		}
		tok.Type = token.ILLEGAL
	}

	tok.Literal = l.input[tok.Offset : l.position+1]
	l.readByte()
	tok.End = l.position
	return tok
}

// readPrefixed reads a sigil followed by an identifier. SSA names may carry a
// result number suffix (%0#1).
func (l *Lexer) readPrefixed(tok token.Token, tt token.TokenType, resultNumber bool) token.Token {
	start := l.position
	l.readByte()
	if !isSuffixChar(l.curr) {
		tok.Type = token.ILLEGAL
		tok.Literal = l.input[start:l.position]
		tok.End = l.position
		return tok
	}
	for isSuffixChar(l.curr) && !(l.curr == '-' && l.peekByte() == '>') {
		l.readByte()
	}
	if resultNumber && l.curr == '#' && isDigit(l.peekByte()) {
		l.readByte()
		for isDigit(l.curr) {
			l.readByte()
		}
	}
	tok.Type = tt
	tok.Literal = l.input[start:l.position]
	tok.End = l.position
	return tok
}

// readString reads a quoted string starting at the opening quote and returns
// its decoded value.
func (l *Lexer) readString() (string, bool) {
	var b strings.Builder
	l.readByte() // opening quote
	for {
		switch l.curr {
		case 0, '\n':
			return b.String(), false
		case '"':
			l.readByte()
			return b.String(), true
		case '\\':
			l.readByte()
			switch l.curr {
			case 'n':
				b.WriteByte('\n')
			case 't':
				b.WriteByte('\t')
			case '"', '\\':
				b.WriteByte(l.curr)
			default:
				if isHex(l.curr) && isHex(l.peekByte()) {
					v, _ := strconv.ParseUint(l.input[l.position:l.position+2], 16, 8)
					b.WriteByte(byte(v))
					l.readByte()
				} else {
					return b.String(), false
				}
			}
			l.readByte()
		default:
			b.WriteByte(l.curr)
			l.readByte()
		}
	}
}

func (l *Lexer) skipWhitespaceAndComments() {
	for {
		switch {
		case l.curr == ' ' || l.curr == '\t' || l.curr == '\n' || l.curr == '\r':
			l.readByte()
		case l.curr == '/' && l.peekByte() == '/':
			for l.curr != '\n' && l.curr != 0 {
				l.readByte()
			}
		default:
			return
		}
	}
}

func (l *Lexer) readByte() {
	if l.curr == '\n' {
		l.line++
		l.column = 0
	}
	if l.readPosition >= len(l.input) {
		l.curr = 0
	} else {
		l.curr = l.input[l.readPosition]
	}
	l.position = l.readPosition
	l.readPosition++
	l.column++
}

func (l *Lexer) peekByte() byte {
	if l.readPosition >= len(l.input) {
		return 0
	}
	return l.input[l.readPosition]
}

func (l *Lexer) readIdentifier() string {
	position := l.position
	for isIdentChar(l.curr) {
		l.readByte()
	}
	return l.input[position:l.position]
}

func (l *Lexer) readNumber() (string, token.TokenType) {
	position := l.position
	tt := token.INT
	if l.curr == '0' && l.peekByte() == 'x' {
		l.readByte()
		l.readByte()
		for isHex(l.curr) {
			l.readByte()
		}
		return l.input[position:l.position], tt
	}
	for isDigit(l.curr) {
		l.readByte()
	}
	if l.curr == '.' && isDigit(l.peekByte()) {
		tt = token.FLOAT
		l.readByte()
		for isDigit(l.curr) {
			l.readByte()
		}
		if l.curr == 'e' || l.curr == 'E' {
			l.readByte()
			if l.curr == '+' || l.curr == '-' {
				l.readByte()
			}
			for isDigit(l.curr) {
				l.readByte()
			}
		}
	}
	return l.input[position:l.position], tt
}

func isLetter(ch byte) bool {
	return 'a' <= ch && ch <= 'z' || 'A' <= ch && ch <= 'Z' || ch == '_'
}

func isDigit(ch byte) bool {
	return '0' <= ch && ch <= '9'
}

func isHex(ch byte) bool {
	return isDigit(ch) || 'a' <= ch && ch <= 'f' || 'A' <= ch && ch <= 'F'
}

func isIdentChar(ch byte) bool {
	return isLetter(ch) || isDigit(ch) || ch == '$' || ch == '.'
}

// isSuffixChar also admits '-', which may appear after a sigil (%a-b) but
// not in a bare identifier.
func isSuffixChar(ch byte) bool {
	return isIdentChar(ch) || ch == '-'
}

// Input returns the source being tokenized.
func (l *Lexer) Input() string {
	return l.input
}
