package token

// Type identifies the kind of a lexical token.
type Type string

const (
	ILLEGAL Type = "ILLEGAL"
	EOF     Type = "EOF"

	// Identifiers and literals
	IDENT  Type = "IDENT"
	INT    Type = "INT"
	FLOAT  Type = "FLOAT"
	STRING Type = "STRING"

	// Operators
	PLUS    Type = "+"
	MINUS   Type = "-"
	STAR    Type = "*"
	SLASH   Type = "/"
	PERCENT Type = "%"
	BANG    Type = "!"

	EQ Type = "=="
	NE Type = "!="
	LT Type = "<"
	LE Type = "<="
	GT Type = ">"
	GE Type = ">="

	AND Type = "&&"
	OR  Type = "||"

	// Delimiters
	COMMA    Type = ","
	LPAREN   Type = "("
	RPAREN   Type = ")"
	LBRACKET Type = "["
	RBRACKET Type = "]"

	// Keywords
	FOR   Type = "FOR"
	IN    Type = "IN"
	IF    Type = "IF"
	ELSE  Type = "ELSE"
	TRUE  Type = "TRUE"
	FALSE Type = "FALSE"
	NIL   Type = "NIL"
)

// Token is a single lexical token with its source position.
// Lexeme is the raw source text; Literal is the processed value
// (e.g. a string literal without its quotes).
type Token struct {
	Type    Type
	Lexeme  string
	Literal string
	Line    int
	Column  int
}

var keywords = map[string]Type{
	"for":   FOR,
	"in":    IN,
	"if":    IF,
	"else":  ELSE,
	"true":  TRUE,
	"false": FALSE,
	"nil":   NIL,
}

// LookupIdent returns the keyword type for ident, or IDENT.
func LookupIdent(ident string) Type {
	if t, ok := keywords[ident]; ok {
		return t
	}
	return IDENT
}
