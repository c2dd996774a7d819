package compiler

import "fmt"

// TokenType identifies a keyword, punctuation mark or token class that the
// parser matches directly against the source text.
type TokenType int

const (
	EOF TokenType = iota // sentinel: end of input

	// Token classes
	IDENTIFIER // variable name
	INTEGER    // decimal integer literal

	// Keywords
	LET   // "let"
	IF    // "if"
	ELSE  // "else"
	WHILE // "while"
	I32   // "i32"

	// Paired delimiters
	LBRACE // {
	RBRACE // }
	LPAREN // (
	RPAREN // )

	// Punctuation
	COLON     // :
	SEMICOLON // ;
	ASSIGN    // =

	// Arithmetic operators
	PLUS  // +
	MINUS // -
	STAR  // *
	SLASH // /

	// Logical operators
	NOT         // !
	OR_LOGICAL  // ||
	AND_LOGICAL // &&

	// Relational operators (order matters: two-character forms are tried first)
	LESS_EQ    // <=
	GREATER_EQ // >=
	LESS       // <
	GREATER    // >
)

// tokenNames is indexed by TokenType.
var tokenNames = [...]string{
	EOF:         "EOF",
	IDENTIFIER:  "IDENTIFIER",
	INTEGER:     "INTEGER",
	LET:         "LET",
	IF:          "IF",
	ELSE:        "ELSE",
	WHILE:       "WHILE",
	I32:         "I32",
	LBRACE:      "LBRACE",
	RBRACE:      "RBRACE",
	LPAREN:      "LPAREN",
	RPAREN:      "RPAREN",
	COLON:       "COLON",
	SEMICOLON:   "SEMICOLON",
	ASSIGN:      "ASSIGN",
	PLUS:        "PLUS",
	MINUS:       "MINUS",
	STAR:        "STAR",
	SLASH:       "SLASH",
	NOT:         "NOT",
	OR_LOGICAL:  "OR_LOGICAL",
	AND_LOGICAL: "AND_LOGICAL",
	LESS_EQ:     "LESS_EQ",
	GREATER_EQ:  "GREATER_EQ",
	LESS:        "LESS",
	GREATER:     "GREATER",
}

// spellings holds the literal source text of every fixed token.
var spellings = map[TokenType]string{
	LET:         "let",
	IF:          "if",
	ELSE:        "else",
	WHILE:       "while",
	I32:         "i32",
	LBRACE:      "{",
	RBRACE:      "}",
	LPAREN:      "(",
	RPAREN:      ")",
	COLON:       ":",
	SEMICOLON:   ";",
	ASSIGN:      "=",
	PLUS:        "+",
	MINUS:       "-",
	STAR:        "*",
	SLASH:       "/",
	NOT:         "!",
	OR_LOGICAL:  "||",
	AND_LOGICAL: "&&",
	LESS_EQ:     "<=",
	GREATER_EQ:  ">=",
	LESS:        "<",
	GREATER:     ">",
}

// keywords maps reserved words to their TokenType. Reserved words are never
// accepted as identifiers.
var keywords = map[string]TokenType{
	"let":   LET,
	"if":    IF,
	"else":  ELSE,
	"while": WHILE,
	"i32":   I32,
}

func (tt TokenType) String() string {
	if int(tt) >= 0 && int(tt) < len(tokenNames) {
		return tokenNames[tt]
	}
	return fmt.Sprintf("TokenType(%d)", int(tt))
}

// Spelling returns the source text of a fixed token, or "" for token classes.
func (tt TokenType) Spelling() string {
	return spellings[tt]
}

// IsKeyword reports whether tt is a reserved word.
func (tt TokenType) IsKeyword() bool {
	_, ok := keywords[tt.Spelling()]
	return ok
}

// describe renders a token for error messages: 'let', ')', identifier, ...
func (tt TokenType) describe() string {
	switch tt {
	case EOF:
		return "end of input"
	case IDENTIFIER:
		return "identifier"
	case INTEGER:
		return "integer literal"
	}
	return fmt.Sprintf("'%s'", tt.Spelling())
}
