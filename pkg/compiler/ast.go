package compiler

import (
	"fmt"
	"strings"
)

// Node is implemented by every AST node. Every node produces an i32 value
// when lowered, so statements and expressions share one interface.
type Node interface {
	// Accept calls the one Visitor method that matches the node's kind.
	Accept(v Visitor) error
	String() string
}

// Visitor has one method per node kind.
type Visitor interface {
	VisitIntegerLiteral(n *IntegerLiteral) error
	VisitIdentifier(n *Identifier) error
	VisitAddition(n *Addition) error
	VisitSubtraction(n *Subtraction) error
	VisitMultiplication(n *Multiplication) error
	VisitDivision(n *Division) error
	VisitLogicalNot(n *LogicalNot) error
	VisitLogicalOr(n *LogicalOr) error
	VisitLogicalAnd(n *LogicalAnd) error
	VisitLess(n *Less) error
	VisitGreater(n *Greater) error
	VisitLessEqual(n *LessEqual) error
	VisitGreaterEqual(n *GreaterEqual) error
	VisitAssignment(n *Assignment) error
	VisitBlock(n *Block) error
	VisitIf(n *If) error
	VisitWhile(n *While) error
}

// Equal reports whether two trees have the same canonical rendering.
func Equal(a, b Node) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return a.String() == b.String()
}

//  Leaves

// IntegerLiteral is a 32-bit signed constant.
//
//	let x: i32 = 10;
//	             ^^  IntegerLiteral{Value: 10}
type IntegerLiteral struct {
	Value int32
}

func (n *IntegerLiteral) Accept(v Visitor) error { return v.VisitIntegerLiteral(n) }
func (n *IntegerLiteral) String() string         { return fmt.Sprintf("%d", n.Value) }

// Identifier names a variable, either read or assigned.
type Identifier struct {
	Name string
}

func (n *Identifier) Accept(v Visitor) error { return v.VisitIdentifier(n) }
func (n *Identifier) String() string         { return n.Name }

//  Arithmetic

// Addition represents Left + Right.
type Addition struct {
	Left, Right Node
}

func (n *Addition) Accept(v Visitor) error { return v.VisitAddition(n) }
func (n *Addition) String() string         { return binaryString("Addition", n.Left, n.Right) }

// Subtraction represents Left - Right.
type Subtraction struct {
	Left, Right Node
}

func (n *Subtraction) Accept(v Visitor) error { return v.VisitSubtraction(n) }
func (n *Subtraction) String() string         { return binaryString("Subtraction", n.Left, n.Right) }

// Multiplication represents Left * Right.
type Multiplication struct {
	Left, Right Node
}

func (n *Multiplication) Accept(v Visitor) error { return v.VisitMultiplication(n) }
func (n *Multiplication) String() string {
	return binaryString("Multiplication", n.Left, n.Right)
}

// Division represents Left / Right, truncating toward zero.
type Division struct {
	Left, Right Node
}

func (n *Division) Accept(v Visitor) error { return v.VisitDivision(n) }
func (n *Division) String() string         { return binaryString("Division", n.Left, n.Right) }

//  Boolean logic. Operands are true when non-zero; results are 0 or 1.

// LogicalNot represents !Operand.
type LogicalNot struct {
	Operand Node
}

func (n *LogicalNot) Accept(v Visitor) error { return v.VisitLogicalNot(n) }
func (n *LogicalNot) String() string         { return fmt.Sprintf("Not(%s)", n.Operand) }

// LogicalOr represents Left || Right.
type LogicalOr struct {
	Left, Right Node
}

func (n *LogicalOr) Accept(v Visitor) error { return v.VisitLogicalOr(n) }
func (n *LogicalOr) String() string         { return binaryString("Or", n.Left, n.Right) }

// LogicalAnd represents Left && Right.
type LogicalAnd struct {
	Left, Right Node
}

func (n *LogicalAnd) Accept(v Visitor) error { return v.VisitLogicalAnd(n) }
func (n *LogicalAnd) String() string         { return binaryString("And", n.Left, n.Right) }

//  Relations (signed)

// Less represents Left < Right.
type Less struct {
	Left, Right Node
}

func (n *Less) Accept(v Visitor) error { return v.VisitLess(n) }
func (n *Less) String() string         { return binaryString("Less", n.Left, n.Right) }

// Greater represents Left > Right.
type Greater struct {
	Left, Right Node
}

func (n *Greater) Accept(v Visitor) error { return v.VisitGreater(n) }
func (n *Greater) String() string         { return binaryString("Greater", n.Left, n.Right) }

// LessEqual represents Left <= Right.
type LessEqual struct {
	Left, Right Node
}

func (n *LessEqual) Accept(v Visitor) error { return v.VisitLessEqual(n) }
func (n *LessEqual) String() string         { return binaryString("LessEqual", n.Left, n.Right) }

// GreaterEqual represents Left >= Right.
type GreaterEqual struct {
	Left, Right Node
}

func (n *GreaterEqual) Accept(v Visitor) error { return v.VisitGreaterEqual(n) }
func (n *GreaterEqual) String() string {
	return binaryString("GreaterEqual", n.Left, n.Right)
}

//  Statements

// Assignment stores Value into Target. Declarations produce an Assignment
// with Declare set; it does not appear in the rendering.
//
//	let x: i32 = 5;   Assignment{Target: x, Value: 5, Declare: true}
//	x = x + 1;        Assignment{Target: x, Value: Addition(x, 1)}
type Assignment struct {
	Target  *Identifier
	Value   Node
	Declare bool
}

func (n *Assignment) Accept(v Visitor) error { return v.VisitAssignment(n) }
func (n *Assignment) String() string         { return binaryString("Assignment", n.Target, n.Value) }

// Block is a braced sequence of instructions. It may be empty.
type Block struct {
	Nodes []Node
}

func (n *Block) Accept(v Visitor) error { return v.VisitBlock(n) }
func (n *Block) String() string {
	parts := make([]string, len(n.Nodes))
	for i, node := range n.Nodes {
		parts[i] = node.String()
	}
	return "Block(" + strings.Join(parts, ", ") + ")"
}

// If represents if Condition Then [else Else]. Else is nil when absent.
type If struct {
	Condition Node
	Then      Node
	Else      Node
}

func (n *If) Accept(v Visitor) error { return v.VisitIf(n) }
func (n *If) String() string {
	if n.Else != nil {
		return fmt.Sprintf("If(%s, %s, %s)", n.Condition, n.Then, n.Else)
	}
	return fmt.Sprintf("If(%s, %s)", n.Condition, n.Then)
}

// While represents while Condition Body.
type While struct {
	Condition Node
	Body      Node
}

func (n *While) Accept(v Visitor) error { return v.VisitWhile(n) }
func (n *While) String() string         { return binaryString("While", n.Condition, n.Body) }

func binaryString(name string, left, right Node) string {
	return fmt.Sprintf("%s(%s, %s)", name, left, right)
}
