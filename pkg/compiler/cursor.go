package compiler

import (
	"fmt"
	"unicode"
)

// Position is a 1-based line/column location in the source.
type Position struct {
	Offset int // rune offset from the start of the source
	Line   int
	Col    int
}

func (p Position) String() string {
	return fmt.Sprintf("%d:%d", p.Line, p.Col)
}

// Cursor owns the source text and hands it to the parser one rune at a time.
type Cursor struct {
	src  []rune
	pos  int // index of the next rune to consume
	line int
	col  int
}

// NewCursor returns a cursor positioned at the first rune of src.
func NewCursor(src string) *Cursor {
	return &Cursor{src: []rune(src), line: 1, col: 1}
}

// Peek returns the next rune without consuming it.
func (c *Cursor) Peek() (rune, bool) {
	if c.pos >= len(c.src) {
		return 0, false
	}
	return c.src[c.pos], true
}

// peekAt returns the rune offset positions ahead of the cursor, or 0.
func (c *Cursor) peekAt(offset int) rune {
	if c.pos+offset >= len(c.src) {
		return 0
	}
	return c.src[c.pos+offset]
}

// Advance consumes one rune and returns it.
func (c *Cursor) Advance() rune {
	if c.pos >= len(c.src) {
		return 0
	}
	r := c.src[c.pos]
	c.pos++
	if r == '\n' {
		c.line++
		c.col = 1
	} else {
		c.col++
	}
	return r
}

// AtEnd reports whether every rune has been consumed.
func (c *Cursor) AtEnd() bool {
	return c.pos >= len(c.src)
}

// Pos returns the location of the next rune.
func (c *Cursor) Pos() Position {
	return Position{Offset: c.pos, Line: c.line, Col: c.col}
}

// Rest returns the unconsumed source text.
func (c *Cursor) Rest() string {
	return string(c.src[c.pos:])
}

// TrimLeft skips whitespace and comments. An unterminated block comment is
// left in place so the parser reports it at its opening "/*".
func (c *Cursor) TrimLeft() {
	for !c.AtEnd() {
		r := c.src[c.pos]
		switch {
		case unicode.IsSpace(r):
			c.Advance()
		case r == '/' && c.peekAt(1) == '/':
			c.skipLineComment()
		case r == '/' && c.peekAt(1) == '*':
			if !c.skipBlockComment() {
				return
			}
		default:
			return
		}
	}
}

// skipLineComment discards everything up to end-of-line.
func (c *Cursor) skipLineComment() {
	for !c.AtEnd() && c.src[c.pos] != '\n' {
		c.Advance()
	}
}

// skipBlockComment discards a "/* ... */" comment starting at the cursor.
// It reports false, consuming nothing, when the comment never closes.
func (c *Cursor) skipBlockComment() bool {
	end := -1
	for i := c.pos + 2; i+1 < len(c.src); i++ {
		if c.src[i] == '*' && c.src[i+1] == '/' {
			end = i + 2
			break
		}
	}
	if end < 0 {
		return false
	}
	for c.pos < end {
		c.Advance()
	}
	return true
}

// HasPrefix reports whether the unconsumed text starts with s.
func (c *Cursor) HasPrefix(s string) bool {
	i := c.pos
	for _, r := range s {
		if i >= len(c.src) || c.src[i] != r {
			return false
		}
		i++
	}
	return true
}

// consume advances past s if the unconsumed text starts with it.
func (c *Cursor) consume(s string) bool {
	if !c.HasPrefix(s) {
		return false
	}
	for range s {
		c.Advance()
	}
	return true
}

// hasKeyword reports whether the unconsumed text starts with the keyword kw
// as a whole word, so "iffy" does not match "if".
func (c *Cursor) hasKeyword(kw string) bool {
	if !c.HasPrefix(kw) {
		return false
	}
	return !isIdentPart(c.peekAt(len([]rune(kw))))
}

// scanIdent collects a maximal identifier. The first rune must already be
// known to satisfy isIdentStart.
func (c *Cursor) scanIdent() string {
	start := c.pos
	for !c.AtEnd() && isIdentPart(c.src[c.pos]) {
		c.Advance()
	}
	return string(c.src[start:c.pos])
}

// scanDigits collects a maximal run of decimal digits.
func (c *Cursor) scanDigits() string {
	start := c.pos
	for !c.AtEnd() && isDigit(c.src[c.pos]) {
		c.Advance()
	}
	return string(c.src[start:c.pos])
}

// sourceLine returns the full source line containing pos, for error snippets.
func (c *Cursor) sourceLine(pos Position) string {
	start := pos.Offset
	if start > len(c.src) {
		start = len(c.src)
	}
	for start > 0 && c.src[start-1] != '\n' {
		start--
	}
	end := pos.Offset
	for end < len(c.src) && c.src[end] != '\n' {
		end++
	}
	return string(c.src[start:end])
}

func isDigit(r rune) bool {
	return r >= '0' && r <= '9'
}

func isIdentStart(r rune) bool {
	return (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || r == '_'
}

func isIdentPart(r rune) bool {
	return isIdentStart(r) || isDigit(r)
}
