package compiler

import (
	"errors"
	"strings"
	"testing"
)

// TestParseExpressions checks precedence and associativity through the
// canonical rendering.
func TestParseExpressions(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{"Literal", "42", "42"},
		{"Identifier", "count", "count"},
		{"LeftAssociative", "3 * 4 + 2 * 5", "Addition(Multiplication(3, 4), Multiplication(2, 5))"},
		{"SubtractionChain", "10 - 3 - 2", "Subtraction(Subtraction(10, 3), 2)"},
		{"DivisionChain", "100 / 10 / 5", "Division(Division(100, 10), 5)"},
		{"Grouping", "(12 + 5) / 4", "Division(Addition(12, 5), 4)"},
		{"NestedGrouping", "((3 + 5) * 2) - 4 / 2", "Subtraction(Multiplication(Addition(3, 5), 2), Division(4, 2))"},
		{"BooleanPrecedence", "3 < 5 && 2 >= 1", "And(Less(3, 5), GreaterEqual(2, 1))"},
		{"NegatedGroup", "!(4 > 2 || 1 <= 0)", "Not(Or(Greater(4, 2), LessEqual(1, 0)))"},
		{"Mixed", "5 + 3 > 2 * 4 || 1 && !0", "Or(Greater(Addition(5, 3), Multiplication(2, 4)), And(1, Not(0)))"},
		{"RelationRightIsExpression", "1 < 2 + 3", "Less(1, Addition(2, 3))"},
		{"RelationChain", "1 < 2 < 3", "Less(Less(1, 2), 3)"},
		{"NotBindsTighterThanTerm", "!a * b", "Multiplication(Not(a), b)"},
		{"OrLowestPrecedence", "a && b || c && d", "Or(And(a, b), And(c, d))"},
		{"NoSpaces", "1+2*3", "Addition(1, Multiplication(2, 3))"},
		{"Comments", "1 /* one */ + // plus\n 2", "Addition(1, 2)"},
		{"MaxInt", "2147483647", "2147483647"},
		{"KeywordPrefixedIdentifiers", "iffy + letter + whiley", "Addition(Addition(iffy, letter), whiley)"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			node, rest, err := ParseExpression(tt.input)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if rest != "" {
				t.Errorf("expected all input consumed, %q left", rest)
			}
			if got := node.String(); got != tt.expected {
				t.Errorf("expected %s, got %s", tt.expected, got)
			}
		})
	}
}

// TestParseStable checks that parsing is deterministic and insensitive to
// layout: the same expression written differently renders the same.
func TestParseStable(t *testing.T) {
	tests := []struct {
		compact string
		spaced  string
	}{
		{"3*4+2*5", "  3 *\n4 +  2\t* 5 "},
		{"(12+5)/4", "( 12 + 5 ) / 4"},
		{"!(4>2||1<=0)", "! ( 4 > 2 || 1 <= 0 )"},
		{"5+3>2*4||1&&!0", "((5 + 3) > (2 * 4)) || (1 && !0)"},
	}

	for _, tt := range tests {
		first, _, err := ParseExpression(tt.compact)
		if err != nil {
			t.Fatalf("%q: %v", tt.compact, err)
		}
		again, _, err := ParseExpression(tt.compact)
		if err != nil {
			t.Fatalf("%q: %v", tt.compact, err)
		}
		spaced, _, err := ParseExpression(tt.spaced)
		if err != nil {
			t.Fatalf("%q: %v", tt.spaced, err)
		}
		if !Equal(first, again) {
			t.Errorf("reparse of %q changed: %s vs %s", tt.compact, first, again)
		}
		if !Equal(first, spaced) {
			t.Errorf("%q and %q differ: %s vs %s", tt.compact, tt.spaced, first, spaced)
		}
	}
}

func TestParseInstructions(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{"Declaration", "let x: i32 = 10;", "Assignment(x, 10)"},
		{"DeclarationDefaultsToZero", "let x: i32;", "Assignment(x, 0)"},
		{"DeclarationExpression", "let flag: i32 = a < b || c;", "Assignment(flag, Or(Less(a, b), c))"},
		{"Assign", "x = x + 1;", "Assignment(x, Addition(x, 1))"},
		{"EmptyBlock", "{}", "Block()"},
		{"Block", "{ let a: i32 = 1; a + 2 }", "Block(Assignment(a, 1), Addition(a, 2))"},
		{"NestedBlock", "{ { 1 } 2 }", "Block(Block(1), 2)"},
		{"ExpressionSemicolon", "1 + 2;", "Addition(1, 2)"},
		{"If", "if x > 0 { 1 }", "If(Greater(x, 0), Block(1))"},
		{"IfElse", "if x { 1 } else { 2 }", "If(x, Block(1), Block(2))"},
		{"While", "while i < 10 { i = i + 1; }", "While(Less(i, 10), Block(Assignment(i, Addition(i, 1))))"},
		{"ParenthesisedBlock", "({ 3 }) * 2", "Multiplication(Block(3), 2)"},
		{"IdentifierStartingWithIf", "iffy", "iffy"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			node, rest, err := Parse(tt.input)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if rest != "" {
				t.Errorf("expected all input consumed, %q left", rest)
			}
			if got := node.String(); got != tt.expected {
				t.Errorf("expected %s, got %s", tt.expected, got)
			}
		})
	}
}

func TestParseDeclareFlag(t *testing.T) {
	node, _, err := Parse("let x: i32 = 1;")
	if err != nil {
		t.Fatal(err)
	}
	a, ok := node.(*Assignment)
	if !ok || !a.Declare {
		t.Errorf("declaration should produce a declaring Assignment, got %#v", node)
	}

	node, _, err = Parse("x = 1;")
	if err != nil {
		t.Fatal(err)
	}
	if a, ok := node.(*Assignment); !ok || a.Declare {
		t.Errorf("plain assignment should not declare, got %#v", node)
	}
}

func TestParseRemainder(t *testing.T) {
	node, rest, err := Parse("let a: i32 = 1;\n  let b: i32 = 2;")
	if err != nil {
		t.Fatal(err)
	}
	if node.String() != "Assignment(a, 1)" {
		t.Errorf("unexpected first instruction %s", node)
	}
	if rest != "let b: i32 = 2;" {
		t.Errorf("unexpected remainder %q", rest)
	}

	node, rest, err = ParseExpression("1 + 2 ) tail")
	if err != nil {
		t.Fatal(err)
	}
	if node.String() != "Addition(1, 2)" || rest != ") tail" {
		t.Errorf("got %s with remainder %q", node, rest)
	}
}

func TestParseAll(t *testing.T) {
	nodes, err := ParseAll("let x: i32 = 2;\n// comment\nx * 3\n{ x }")
	if err != nil {
		t.Fatal(err)
	}
	want := []string{"Assignment(x, 2)", "Multiplication(x, 3)", "Block(x)"}
	if len(nodes) != len(want) {
		t.Fatalf("expected %d instructions, got %d", len(want), len(nodes))
	}
	for i, n := range nodes {
		if n.String() != want[i] {
			t.Errorf("instruction %d: expected %s, got %s", i, want[i], n)
		}
	}

	nodes, err = ParseAll("  /* nothing */ ")
	if err != nil || len(nodes) != 0 {
		t.Errorf("expected no instructions and no error, got %v, %v", nodes, err)
	}
}

func TestParseErrors(t *testing.T) {
	tests := []struct {
		name       string
		input      string
		msg        string
		incomplete bool
	}{
		{"MissingParen", "(12 + 5", "expected ')'", true},
		{"MissingSemicolon", "let x: i32 = 5", "expected ';'", true},
		{"MissingSemicolonBeforeNext", "let x: i32 = 5 let", "expected ';'", false},
		{"UnknownType", "let x: i64 = 5;", "unknown type \"i64\"", false},
		{"MissingType", "let x: = 5;", "expected type 'i32'", false},
		{"MissingColon", "let x i32;", "expected ':'", false},
		{"Overflow", "2147483648", "out of 32-bit range", false},
		{"ReservedWord", "let while: i32;", "reserved word \"while\"", false},
		{"ReservedWordInExpression", "1 + else", "reserved word \"else\"", false},
		{"UnclosedBlock", "{ 1 2", "expected '}'", true},
		{"MissingOperand", "1 +", "expected expression", true},
		{"BadFactor", "1 + )", "expected '(', integer literal or identifier", false},
		{"IfWithoutBlock", "if 1 2", "expected '{'", false},
		{"WhileWithoutCondition", "while { }", "expected '(', integer literal or identifier", false},
		{"AssignMissingSemicolon", "x = 1", "expected ';'", true},
		{"Empty", "", "expected expression", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			node, rest, err := Parse(tt.input)
			if err == nil {
				t.Fatalf("expected error, got %s", node)
			}
			if node != nil {
				t.Errorf("no node should escape a failed parse, got %s", node)
			}
			if rest != tt.input {
				t.Errorf("failed parse should leave the input untouched, got %q", rest)
			}
			if !strings.Contains(err.Error(), tt.msg) {
				t.Errorf("expected error containing %q, got %q", tt.msg, err.Error())
			}

			var pe *ParseError
			if !errors.As(err, &pe) {
				t.Fatalf("expected *ParseError, got %T", err)
			}
			if pe.Incomplete() != tt.incomplete {
				t.Errorf("Incomplete: expected %v, got %v", tt.incomplete, pe.Incomplete())
			}
		})
	}
}

func TestParseErrorPosition(t *testing.T) {
	_, _, err := Parse("{\n  let y: i32 = (1 + 2 ] ;\n}")
	var pe *ParseError
	if !errors.As(err, &pe) {
		t.Fatalf("expected *ParseError, got %v", err)
	}
	if pe.Pos.Line != 2 || pe.Pos.Col != 23 {
		t.Errorf("expected error at 2:23, got %s", pe.Pos)
	}
	if pe.Expected != "')'" {
		t.Errorf("expected ')' to be required, got %q", pe.Expected)
	}
	if pe.Found != "']'" {
		t.Errorf("unexpected Found %q", pe.Found)
	}
	if !strings.Contains(pe.Error(), "|> let y: i32 = (1 + 2 ] ;") {
		t.Errorf("error should quote the source line, got %q", pe.Error())
	}
}

func TestParseAllStopsAtFirstError(t *testing.T) {
	nodes, err := ParseAll("1;\n2 +;\n3;")
	if err == nil {
		t.Fatal("expected an error")
	}
	if nodes != nil {
		t.Errorf("no instructions should be returned on error, got %v", nodes)
	}
	var pe *ParseError
	if errors.As(err, &pe) && pe.Pos.Line != 2 {
		t.Errorf("expected error on line 2, got %s", pe.Pos)
	}
}
