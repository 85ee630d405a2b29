package token

type TokenType string

type Token struct {
	Type    TokenType
	Lexeme  string
	Literal interface{}
	Column  int
}

const (
	ILLEGAL = "ILLEGAL"
	EOF     = "EOF"

	IDENT    = "IDENT"
	OPERATOR = "OPERATOR" // symbolic or bold-word operator
	BOLD     = "BOLD"     // mode indicant or other bold word

	// Denotations
	INT    = "INT"
	REAL   = "REAL"
	BITS   = "BITS"
	STRING = "STRING"
	CHAR   = "CHAR"

	ASSIGN   = ":="
	LPAREN   = "("
	RPAREN   = ")"
	LBRACKET = "["
	RBRACKET = "]"
	COMMA    = ","

	// Keywords
	TRUE  = "TRUE"
	FALSE = "FALSE"
	NIL   = "NIL"
	REF   = "REF"
	OF    = "OF"
	IS    = "IS"
	ISNT  = "ISNT"
	IF    = "IF"
	FLEX  = "FLEX"
)

var keywords = map[string]TokenType{
	"TRUE":  TRUE,
	"FALSE": FALSE,
	"NIL":   NIL,
	"REF":   REF,
	"OF":    OF,
	"IS":    IS,
	"ISNT":  ISNT,
	"FLEX":  FLEX,
	"IF":    IF,

	// Bold-word operators of the standard environment
	"OR":     OPERATOR,
	"AND":    OPERATOR,
	"NOT":    OPERATOR,
	"OVER":   OPERATOR,
	"MOD":    OPERATOR,
	"ABS":    OPERATOR,
	"SIGN":   OPERATOR,
	"ODD":    OPERATOR,
	"ENTIER": OPERATOR,
	"ROUND":  OPERATOR,
	"REPR":   OPERATOR,
	"LWB":    OPERATOR,
	"UPB":    OPERATOR,
	"ELEMS":  OPERATOR,
	"SHL":    OPERATOR,
	"SHR":    OPERATOR,
	"UP":     OPERATOR,
	"DOWN":   OPERATOR,
}

// LookupBold classifies an upper-case word.
func LookupBold(word string) TokenType {
	if tok, ok := keywords[word]; ok {
		return tok
	}
	return BOLD
}
