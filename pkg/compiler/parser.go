package compiler

import (
	"fmt"
	"strconv"
	"strings"
)

const endOfInput = "end of input"

// Parser reads the source through a Cursor and builds an AST. It does not
// tokenize ahead of time; every production trims leading whitespace and
// matches its tokens directly against the remaining text.
//
// Grammar:
//
//	instruction = declaration | block | if | while | assign | or [";"]
//	declaration = "let" IDENTIFIER ":" type ["=" or] ";"
//	assign      = IDENTIFIER "=" or ";"
//	block       = "{" instruction* "}"
//	if          = "if" or block ["else" block]
//	while       = "while" or block
//	or          = and ("||" and)*
//	and         = relation ("&&" relation)*
//	relation    = expression (("<" | ">" | "<=" | ">=") expression)*
//	expression  = term (("+" | "-") term)*
//	term        = not (("*" | "/") not)*
//	not         = "!" factor | factor
//	factor      = "(" instruction ")" | INTEGER | IDENTIFIER
//	type        = "i32"
type Parser struct {
	cur *Cursor
}

// NewParser returns a parser positioned at the start of src.
func NewParser(src string) *Parser {
	return &Parser{cur: NewCursor(src)}
}

// ParseError describes the first place where the input stopped matching
// the grammar.
type ParseError struct {
	Pos      Position
	Expected string // what the grammar required, e.g. "')'"; empty for non-token errors
	Found    string // what was there instead
	Msg      string
	Snippet  string // the source line containing Pos
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("line %d, column %d: %s\n  |> %s", e.Pos.Line, e.Pos.Col, e.Msg, strings.TrimSpace(e.Snippet))
}

// Incomplete reports whether the input ended while a token was still
// required, i.e. more text could make it parse.
func (e *ParseError) Incomplete() bool {
	return e.Expected != "" && e.Found == endOfInput
}

// Parse parses one instruction from text and returns it together with the
// unconsumed remainder, leading whitespace trimmed. On failure the remainder
// is text itself.
func Parse(text string) (Node, string, error) {
	p := NewParser(text)
	node, err := p.ParseInstruction()
	if err != nil {
		return nil, text, err
	}
	p.cur.TrimLeft()
	return node, p.Rest(), nil
}

// ParseExpression parses one "or" expression from text.
func ParseExpression(text string) (Node, string, error) {
	p := NewParser(text)
	node, err := p.parseOr()
	if err != nil {
		return nil, text, err
	}
	p.cur.TrimLeft()
	return node, p.Rest(), nil
}

// ParseAll parses instructions until the input is exhausted.
func ParseAll(text string) ([]Node, error) {
	p := NewParser(text)
	var nodes []Node
	for {
		p.cur.TrimLeft()
		if p.cur.AtEnd() {
			return nodes, nil
		}
		node, err := p.ParseInstruction()
		if err != nil {
			return nil, err
		}
		nodes = append(nodes, node)
	}
}

// AtEnd reports whether only whitespace and comments remain.
func (p *Parser) AtEnd() bool {
	p.cur.TrimLeft()
	return p.cur.AtEnd()
}

// Rest returns the unconsumed input.
func (p *Parser) Rest() string {
	return p.cur.Rest()
}

// fmtError builds a ParseError at pos, attaching the source line.
func (p *Parser) fmtError(pos Position, format string, args ...any) *ParseError {
	return &ParseError{
		Pos:     pos,
		Found:   p.found(),
		Msg:     fmt.Sprintf(format, args...),
		Snippet: p.cur.sourceLine(pos),
	}
}

// errExpected reports that tt was required at the cursor.
func (p *Parser) errExpected(tt TokenType) *ParseError {
	return p.errExpectedDesc(tt.describe())
}

func (p *Parser) errExpectedDesc(want string) *ParseError {
	err := p.fmtError(p.cur.Pos(), "expected %s, found %s", want, p.found())
	err.Expected = want
	return err
}

// found describes the next character for error messages.
func (p *Parser) found() string {
	r, ok := p.cur.Peek()
	if !ok {
		return endOfInput
	}
	return fmt.Sprintf("%q", r)
}

// match consumes the punctuation or operator tt if it is next.
func (p *Parser) match(tt TokenType) bool {
	p.cur.TrimLeft()
	return p.cur.consume(tt.Spelling())
}

// matchKeyword consumes the keyword tt if it is next as a whole word.
func (p *Parser) matchKeyword(tt TokenType) bool {
	p.cur.TrimLeft()
	if !p.cur.hasKeyword(tt.Spelling()) {
		return false
	}
	return p.cur.consume(tt.Spelling())
}

// expect consumes tt or fails naming it.
func (p *Parser) expect(tt TokenType) error {
	if tt.IsKeyword() {
		if !p.matchKeyword(tt) {
			return p.errExpected(tt)
		}
		return nil
	}
	if !p.match(tt) {
		return p.errExpected(tt)
	}
	return nil
}

// ParseInstruction parses the next instruction.
func (p *Parser) ParseInstruction() (Node, error) {
	p.cur.TrimLeft()
	switch {
	case p.cur.hasKeyword(LET.Spelling()):
		return p.parseDeclaration()
	case p.cur.HasPrefix(LBRACE.Spelling()):
		block, err := p.parseBlock()
		if err != nil {
			return nil, err
		}
		return block, nil
	case p.cur.hasKeyword(IF.Spelling()):
		return p.parseIf()
	case p.cur.hasKeyword(WHILE.Spelling()):
		return p.parseWhile()
	case p.atAssignment():
		return p.parseAssign()
	}

	expr, err := p.parseOr()
	if err != nil {
		return nil, err
	}
	p.match(SEMICOLON)
	return expr, nil
}

// atAssignment looks ahead, without consuming, for IDENTIFIER "=".
func (p *Parser) atAssignment() bool {
	r, ok := p.cur.Peek()
	if !ok || !isIdentStart(r) {
		return false
	}
	saved := *p.cur
	defer func() { *p.cur = saved }()

	p.cur.scanIdent()
	p.cur.TrimLeft()
	return p.cur.HasPrefix(ASSIGN.Spelling())
}

// parseDeclaration parses  let name: i32 [= value];
// A missing initializer stores 0.
func (p *Parser) parseDeclaration() (Node, error) {
	if err := p.expect(LET); err != nil {
		return nil, err
	}
	target, err := p.parseIdentifier()
	if err != nil {
		return nil, err
	}
	if err := p.expect(COLON); err != nil {
		return nil, err
	}
	if err := p.parseType(); err != nil {
		return nil, err
	}

	var value Node = &IntegerLiteral{Value: 0}
	if p.match(ASSIGN) {
		value, err = p.parseOr()
		if err != nil {
			return nil, err
		}
	}
	if err := p.expect(SEMICOLON); err != nil {
		return nil, err
	}
	return &Assignment{Target: target, Value: value, Declare: true}, nil
}

// parseType accepts the only supported type, i32.
func (p *Parser) parseType() error {
	p.cur.TrimLeft()
	if p.matchKeyword(I32) {
		return nil
	}
	if r, ok := p.cur.Peek(); ok && isIdentStart(r) {
		pos := p.cur.Pos()
		saved := *p.cur
		name := p.cur.scanIdent()
		*p.cur = saved
		err := p.fmtError(pos, "unknown type %q, expected type 'i32'", name)
		err.Expected = "type 'i32'"
		return err
	}
	return p.errExpectedDesc("type 'i32'")
}

// parseAssign parses  name = value;
func (p *Parser) parseAssign() (Node, error) {
	target, err := p.parseIdentifier()
	if err != nil {
		return nil, err
	}
	if err := p.expect(ASSIGN); err != nil {
		return nil, err
	}
	value, err := p.parseOr()
	if err != nil {
		return nil, err
	}
	if err := p.expect(SEMICOLON); err != nil {
		return nil, err
	}
	return &Assignment{Target: target, Value: value}, nil
}

// parseBlock parses { instruction* }
func (p *Parser) parseBlock() (*Block, error) {
	if err := p.expect(LBRACE); err != nil {
		return nil, err
	}
	block := &Block{}
	for {
		p.cur.TrimLeft()
		if p.cur.AtEnd() {
			return nil, p.errExpected(RBRACE)
		}
		if p.cur.HasPrefix(RBRACE.Spelling()) {
			break
		}
		node, err := p.ParseInstruction()
		if err != nil {
			return nil, err
		}
		block.Nodes = append(block.Nodes, node)
	}
	if err := p.expect(RBRACE); err != nil {
		return nil, err
	}
	return block, nil
}

// parseIf parses  if cond { ... } [else { ... }]
func (p *Parser) parseIf() (Node, error) {
	if err := p.expect(IF); err != nil {
		return nil, err
	}
	cond, err := p.parseOr()
	if err != nil {
		return nil, err
	}
	then, err := p.parseBlock()
	if err != nil {
		return nil, err
	}

	node := &If{Condition: cond, Then: then}
	if p.matchKeyword(ELSE) {
		otherwise, err := p.parseBlock()
		if err != nil {
			return nil, err
		}
		node.Else = otherwise
	}
	return node, nil
}

// parseWhile parses  while cond { ... }
func (p *Parser) parseWhile() (Node, error) {
	if err := p.expect(WHILE); err != nil {
		return nil, err
	}
	cond, err := p.parseOr()
	if err != nil {
		return nil, err
	}
	body, err := p.parseBlock()
	if err != nil {
		return nil, err
	}
	return &While{Condition: cond, Body: body}, nil
}

// parseOr handles ||
func (p *Parser) parseOr() (Node, error) {
	left, err := p.parseAnd()
	if err != nil {
		return nil, err
	}
	for p.match(OR_LOGICAL) {
		right, err := p.parseAnd()
		if err != nil {
			return nil, err
		}
		left = &LogicalOr{Left: left, Right: right}
	}
	return left, nil
}

// parseAnd handles &&
func (p *Parser) parseAnd() (Node, error) {
	left, err := p.parseRelation()
	if err != nil {
		return nil, err
	}
	for p.match(AND_LOGICAL) {
		right, err := p.parseRelation()
		if err != nil {
			return nil, err
		}
		left = &LogicalAnd{Left: left, Right: right}
	}
	return left, nil
}

// parseRelation handles <, >, <= and >=
func (p *Parser) parseRelation() (Node, error) {
	left, err := p.parseExpression()
	if err != nil {
		return nil, err
	}

	for {
		var op TokenType
		switch {
		case p.match(LESS_EQ):
			op = LESS_EQ
		case p.match(GREATER_EQ):
			op = GREATER_EQ
		case p.match(LESS):
			op = LESS
		case p.match(GREATER):
			op = GREATER
		default:
			return left, nil
		}

		right, err := p.parseExpression()
		if err != nil {
			return nil, err
		}
		switch op {
		case LESS_EQ:
			left = &LessEqual{Left: left, Right: right}
		case GREATER_EQ:
			left = &GreaterEqual{Left: left, Right: right}
		case LESS:
			left = &Less{Left: left, Right: right}
		case GREATER:
			left = &Greater{Left: left, Right: right}
		}
	}
}

// parseExpression handles + and -
func (p *Parser) parseExpression() (Node, error) {
	left, err := p.parseTerm()
	if err != nil {
		return nil, err
	}

	for {
		var isAdd bool
		switch {
		case p.match(PLUS):
			isAdd = true
		case p.match(MINUS):
			isAdd = false
		default:
			return left, nil
		}

		right, err := p.parseTerm()
		if err != nil {
			return nil, err
		}
		if isAdd {
			left = &Addition{Left: left, Right: right}
		} else {
			left = &Subtraction{Left: left, Right: right}
		}
	}
}

// parseTerm handles * and /
func (p *Parser) parseTerm() (Node, error) {
	left, err := p.parseNot()
	if err != nil {
		return nil, err
	}

	for {
		var isMul bool
		switch {
		case p.match(STAR):
			isMul = true
		case p.match(SLASH):
			isMul = false
		default:
			return left, nil
		}

		right, err := p.parseNot()
		if err != nil {
			return nil, err
		}
		if isMul {
			left = &Multiplication{Left: left, Right: right}
		} else {
			left = &Division{Left: left, Right: right}
		}
	}
}

// parseNot handles a single prefix !
func (p *Parser) parseNot() (Node, error) {
	if p.match(NOT) {
		operand, err := p.parseFactor()
		if err != nil {
			return nil, err
		}
		return &LogicalNot{Operand: operand}, nil
	}
	return p.parseFactor()
}

// parseFactor handles parenthesised instructions, literals and variables.
func (p *Parser) parseFactor() (Node, error) {
	p.cur.TrimLeft()
	r, ok := p.cur.Peek()
	switch {
	case !ok:
		return nil, p.errExpectedDesc("expression")

	case r == '(':
		p.cur.Advance()
		inner, err := p.ParseInstruction()
		if err != nil {
			return nil, err
		}
		if err := p.expect(RPAREN); err != nil {
			return nil, err
		}
		return inner, nil

	case isDigit(r):
		return p.parseInteger()

	case isIdentStart(r):
		ident, err := p.parseIdentifier()
		if err != nil {
			return nil, err
		}
		return ident, nil

	default:
		return nil, p.errExpectedDesc("'(', integer literal or identifier")
	}
}

// parseInteger parses a maximal run of decimal digits as an i32.
func (p *Parser) parseInteger() (Node, error) {
	p.cur.TrimLeft()
	pos := p.cur.Pos()
	digits := p.cur.scanDigits()
	if digits == "" {
		return nil, p.errExpected(INTEGER)
	}
	val, err := strconv.ParseInt(digits, 10, 32)
	if err != nil {
		return nil, p.fmtError(pos, "integer literal %q out of 32-bit range", digits)
	}
	return &IntegerLiteral{Value: int32(val)}, nil
}

// parseIdentifier parses [A-Za-z_][A-Za-z0-9_]* that is not a reserved word.
func (p *Parser) parseIdentifier() (*Identifier, error) {
	p.cur.TrimLeft()
	r, ok := p.cur.Peek()
	if !ok || !isIdentStart(r) {
		return nil, p.errExpected(IDENTIFIER)
	}
	pos := p.cur.Pos()
	name := p.cur.scanIdent()
	if _, reserved := keywords[name]; reserved {
		return nil, p.fmtError(pos, "reserved word %q cannot be used as an identifier", name)
	}
	return &Identifier{Name: name}, nil
}
