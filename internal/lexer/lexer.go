package lexer

import (
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/funvibe/monitor/internal/token"
)

// Operator characters. A symbolic operator is one of these, optionally
// followed by a nomad, optionally followed by ":=" or "=:".
const (
	Monads = "+-!?%^&~"
	Nomads = "<>/=*"
)

const (
	ErrInvalidOperator     = "invalid operator symbol"
	ErrUnterminatedString  = "unterminated string"
	ErrInvalidDenotation   = "invalid denotation"
	ErrUnexpectedCharacter = "unexpected character"
)

// Lexer scans one line of monitor input.
type Lexer struct {
	input        string
	position     int  // current position in input (points to current char)
	readPosition int  // current reading position in input (after current char)
	ch           rune // current char under examination
	column       int
}

func New(input string) *Lexer {
	l := &Lexer{input: input}
	l.readChar()
	l.skipWhitespace()
	return l
}

func (l *Lexer) readChar() {
	if l.readPosition >= len(l.input) {
		l.ch = 0
		l.position = len(l.input)
		l.readPosition = len(l.input) + 1
		return
	}
	r, w := utf8.DecodeRuneInString(l.input[l.readPosition:])
	l.ch = r
	l.position = l.readPosition
	l.readPosition += w
	l.column++
}

func (l *Lexer) peekChar() rune {
	if l.readPosition >= len(l.input) {
		return 0
	}
	r, _ := utf8.DecodeRuneInString(l.input[l.readPosition:])
	return r
}

func (l *Lexer) skipWhitespace() {
	for l.ch == ' ' || l.ch == '\t' || l.ch == '\n' || l.ch == '\r' {
		l.readChar()
	}
}

// Pos is the byte offset of the cursor.
func (l *Lexer) Pos() int {
	if l.position > len(l.input) {
		return len(l.input)
	}
	return l.position
}

// Rest returns the unscanned remainder of the line.
func (l *Lexer) Rest() string {
	return l.input[l.Pos():]
}

// NextToken returns the next symbol and advances past trailing blanks.
func (l *Lexer) NextToken() token.Token {
	tok := l.scan()
	l.skipWhitespace()
	return tok
}

func (l *Lexer) scan() token.Token {
	col := l.column
	switch {
	case l.ch == 0:
		return token.Token{Type: token.EOF, Column: col}
	case isLower(l.ch):
		name := l.readIdentifier()
		return token.Token{Type: token.IDENT, Lexeme: name, Literal: name, Column: col}
	case isUpper(l.ch):
		word := l.readBold()
		return token.Token{Type: token.LookupBold(word), Lexeme: word, Literal: word, Column: col}
	case isDigit(l.ch):
		return l.readNumber(col)
	case l.ch == '.' && isDigit(l.peekChar()):
		return l.readNumber(col)
	case l.ch == '"':
		return l.readString(col)
	case l.ch == ':':
		return l.readColon(col)
	case strings.ContainsRune(Monads, l.ch) || strings.ContainsRune(Nomads, l.ch):
		return l.readOperator(col)
	}

	var tok token.Token
	switch l.ch {
	case '(':
		tok = token.Token{Type: token.LPAREN, Lexeme: "("}
	case ')':
		tok = token.Token{Type: token.RPAREN, Lexeme: ")"}
	case '[':
		tok = token.Token{Type: token.LBRACKET, Lexeme: "["}
	case ']':
		tok = token.Token{Type: token.RBRACKET, Lexeme: "]"}
	case ',':
		tok = token.Token{Type: token.COMMA, Lexeme: ","}
	default:
		tok = token.Token{Type: token.ILLEGAL, Lexeme: string(l.ch), Literal: ErrUnexpectedCharacter}
	}
	tok.Column = col
	l.readChar()
	return tok
}

// readIdentifier drops blanks embedded in a tag, so "max int" reads as
// "maxint".
func (l *Lexer) readIdentifier() string {
	var b strings.Builder
	for {
		switch {
		case isLower(l.ch) || isDigit(l.ch) || l.ch == '_':
			b.WriteRune(l.ch)
			l.readChar()
		case l.ch == ' ' || l.ch == '\t':
			// Only swallow the blank when the tag continues after it.
			save := *l
			l.skipWhitespace()
			if !(isLower(l.ch) || isDigit(l.ch) || l.ch == '_') {
				*l = save
				return b.String()
			}
		default:
			return b.String()
		}
	}
}

func (l *Lexer) readBold() string {
	start := l.position
	for isUpper(l.ch) || isDigit(l.ch) || l.ch == '_' {
		l.readChar()
	}
	return l.input[start:l.position]
}

func (l *Lexer) readNumber(col int) token.Token {
	start := l.position
	for isDigit(l.ch) {
		l.readChar()
	}

	if l.ch == 'r' {
		radix, err := strconv.Atoi(l.input[start:l.position])
		l.readChar()
		digitsStart := l.position
		for isDigit(l.ch) || (l.ch >= 'a' && l.ch <= 'f') {
			l.readChar()
		}
		lexeme := l.input[start:l.position]
		if err != nil || radix < 2 || radix > 16 {
			return token.Token{Type: token.ILLEGAL, Lexeme: lexeme, Literal: ErrInvalidDenotation, Column: col}
		}
		v, err := strconv.ParseUint(l.input[digitsStart:l.position], radix, 64)
		if err != nil {
			return token.Token{Type: token.ILLEGAL, Lexeme: lexeme, Literal: ErrInvalidDenotation, Column: col}
		}
		return token.Token{Type: token.BITS, Lexeme: lexeme, Literal: v, Column: col}
	}

	isReal := false
	if l.ch == '.' && isDigit(l.peekChar()) {
		isReal = true
		l.readChar()
		for isDigit(l.ch) {
			l.readChar()
		}
	}
	if l.ch == 'e' || l.ch == 'E' {
		next := l.peekChar()
		if isDigit(next) || next == '+' || next == '-' {
			isReal = true
			l.readChar()
			if l.ch == '+' || l.ch == '-' {
				l.readChar()
			}
			for isDigit(l.ch) {
				l.readChar()
			}
		}
	}

	lexeme := l.input[start:l.position]
	if isReal {
		v, err := strconv.ParseFloat(lexeme, 64)
		if err != nil {
			return token.Token{Type: token.ILLEGAL, Lexeme: lexeme, Literal: ErrInvalidDenotation, Column: col}
		}
		return token.Token{Type: token.REAL, Lexeme: lexeme, Literal: v, Column: col}
	}
	v, err := strconv.ParseInt(lexeme, 10, 64)
	if err != nil {
		return token.Token{Type: token.ILLEGAL, Lexeme: lexeme, Literal: ErrInvalidDenotation, Column: col}
	}
	return token.Token{Type: token.INT, Lexeme: lexeme, Literal: v, Column: col}
}

// readString reads a quoted denotation; a doubled quote stands for one
// quote character. One-character strings are CHAR denotations.
func (l *Lexer) readString(col int) token.Token {
	start := l.position
	var b strings.Builder
	l.readChar()
	for {
		if l.ch == 0 {
			return token.Token{Type: token.ILLEGAL, Lexeme: l.input[start:], Literal: ErrUnterminatedString, Column: col}
		}
		if l.ch == '"' {
			if l.peekChar() == '"' {
				b.WriteRune('"')
				l.readChar()
				l.readChar()
				continue
			}
			l.readChar()
			break
		}
		b.WriteRune(l.ch)
		l.readChar()
	}
	lexeme := l.input[start:l.position]
	s := b.String()
	if utf8.RuneCountInString(s) == 1 {
		r, _ := utf8.DecodeRuneInString(s)
		return token.Token{Type: token.CHAR, Lexeme: lexeme, Literal: r, Column: col}
	}
	return token.Token{Type: token.STRING, Lexeme: lexeme, Literal: s, Column: col}
}

// readColon handles ":=", ":=:" and ":/=:".
func (l *Lexer) readColon(col int) token.Token {
	start := l.position
	l.readChar()
	switch {
	case l.ch == '=':
		l.readChar()
		if l.ch == ':' {
			l.readChar()
			return token.Token{Type: token.IS, Lexeme: ":=:", Column: col}
		}
		return token.Token{Type: token.ASSIGN, Lexeme: ":=", Column: col}
	case l.ch == '/' && l.peekChar() == '=':
		l.readChar()
		l.readChar()
		if l.ch == ':' {
			l.readChar()
			return token.Token{Type: token.ISNT, Lexeme: ":/=:", Column: col}
		}
	}
	return token.Token{Type: token.ILLEGAL, Lexeme: l.input[start:l.Pos()], Literal: ErrInvalidOperator, Column: col}
}

func (l *Lexer) readOperator(col int) token.Token {
	start := l.position
	l.readChar()
	if strings.ContainsRune(Nomads, l.ch) {
		l.readChar()
	}
	switch l.ch {
	case ':':
		l.readChar()
		if l.ch != '=' {
			return token.Token{Type: token.ILLEGAL, Lexeme: l.input[start:l.Pos()], Literal: ErrInvalidOperator, Column: col}
		}
		l.readChar()
	case '=':
		l.readChar()
		if l.ch != ':' {
			return token.Token{Type: token.ILLEGAL, Lexeme: l.input[start:l.Pos()], Literal: ErrInvalidOperator, Column: col}
		}
		l.readChar()
	}
	sym := l.input[start:l.position]
	return token.Token{Type: token.OPERATOR, Lexeme: sym, Literal: sym, Column: col}
}

func isLower(ch rune) bool {
	return ch >= 'a' && ch <= 'z'
}

func isUpper(ch rune) bool {
	return ch >= 'A' && ch <= 'Z'
}

func isDigit(ch rune) bool {
	return ch >= '0' && ch <= '9'
}
