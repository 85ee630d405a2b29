package lexer

import (
	"testing"

	"github.com/funvibe/monitor/internal/token"
)

func TestNextToken(t *testing.T) {
	input := `max int + x[1, 2] :=: y OF z /= 16rff * 2.5e1 ; "a""b" "c" TRUE NIL INT +:= <= ISNT`
	// ';' is not part of the expression alphabet
	tests := []struct {
		expectedType   token.TokenType
		expectedLexeme string
	}{
		{token.IDENT, "maxint"},
		{token.OPERATOR, "+"},
		{token.IDENT, "x"},
		{token.LBRACKET, "["},
		{token.INT, "1"},
		{token.COMMA, ","},
		{token.INT, "2"},
		{token.RBRACKET, "]"},
		{token.IS, ":=:"},
		{token.IDENT, "y"},
		{token.OF, "OF"},
		{token.IDENT, "z"},
		{token.OPERATOR, "/="},
		{token.BITS, "16rff"},
		{token.OPERATOR, "*"},
		{token.REAL, "2.5e1"},
		{token.ILLEGAL, ";"},
		{token.STRING, `"a""b"`},
		{token.CHAR, `"c"`},
		{token.TRUE, "TRUE"},
		{token.NIL, "NIL"},
		{token.BOLD, "INT"},
		{token.OPERATOR, "+:="},
		{token.OPERATOR, "<="},
		{token.ISNT, "ISNT"},
		{token.EOF, ""},
	}

	l := New(input)
	for i, tt := range tests {
		tok := l.NextToken()
		if tok.Type != tt.expectedType {
			t.Fatalf("tests[%d] - tokentype wrong. expected=%q, got=%q (%q)", i, tt.expectedType, tok.Type, tok.Lexeme)
		}
		if tok.Lexeme != tt.expectedLexeme {
			t.Fatalf("tests[%d] - lexeme wrong. expected=%q, got=%q", i, tt.expectedLexeme, tok.Lexeme)
		}
	}
}

func TestLiterals(t *testing.T) {
	tests := []struct {
		input string
		want  interface{}
	}{
		{"42", int64(42)},
		{"1.5", 1.5},
		{"1e3", 1000.0},
		{"2r1010", uint64(10)},
		{`"say ""hi"""`, `say "hi"`},
		{`"x"`, 'x'},
		{"bits width", "bitswidth"},
	}
	for _, tt := range tests {
		tok := New(tt.input).NextToken()
		if tok.Literal != tt.want {
			t.Errorf("%q: literal = %#v, want %#v", tt.input, tok.Literal, tt.want)
		}
	}
}

func TestInvalidOperator(t *testing.T) {
	l := New("+: 3")
	tok := l.NextToken()
	if tok.Type != token.ILLEGAL || tok.Literal != ErrInvalidOperator {
		t.Fatalf("got %q %v", tok.Type, tok.Literal)
	}
	if next := l.NextToken(); next.Type != token.INT {
		t.Errorf("cursor should be past the malformed token, next = %q", next.Lexeme)
	}

	if tok := New(": x").NextToken(); tok.Type != token.ILLEGAL {
		t.Errorf("lone colon should be illegal, got %q", tok.Type)
	}
}

func TestUnterminatedString(t *testing.T) {
	tok := New(`"abc`).NextToken()
	if tok.Type != token.ILLEGAL || tok.Literal != ErrUnterminatedString {
		t.Errorf("got %q %v", tok.Type, tok.Literal)
	}
}

func TestIdentifierStopsBeforeBold(t *testing.T) {
	l := New("next OF node")
	want := []token.TokenType{token.IDENT, token.OF, token.IDENT, token.EOF}
	for i, w := range want {
		if tok := l.NextToken(); tok.Type != w {
			t.Fatalf("token %d = %q, want %q", i, tok.Type, w)
		}
	}
}

func TestRest(t *testing.T) {
	l := New("42 if x > 0")
	l.NextToken()
	if got := l.Rest(); got != "if x > 0" {
		t.Errorf("Rest() = %q", got)
	}
}
