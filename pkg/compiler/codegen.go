package compiler

import (
	"errors"
	"fmt"
	"math"

	"github.com/llir/llvm/ir"
	"github.com/llir/llvm/ir/constant"
	"github.com/llir/llvm/ir/enum"
	"github.com/llir/llvm/ir/types"
	"github.com/llir/llvm/ir/value"
)

var (
	// ErrOperandUnderflow means a node tried to consume a value that no child produced.
	ErrOperandUnderflow = errors.New("operand stack underflow")
	// ErrBlockUnderflow means there was no open block to emit into.
	ErrBlockUnderflow = errors.New("block stack underflow")
	// ErrSealed means Finalize has already been called.
	ErrSealed = errors.New("generator already finalized")
)

// Options controls code generation.
type Options struct {
	// TrapDivision guards every sdiv with a runtime check that calls
	// llvm.trap when the divisor is 0 or the quotient overflows.
	TrapDivision bool
}

// DefaultOptions returns the options the drivers use unless told otherwise.
func DefaultOptions() Options {
	return Options{TrapDivision: true}
}

// Generator walks an AST and emits LLVM IR into the body of
// "define i32 @main()".
//
// Every visited node leaves exactly one i32 value on the operand stack.
// The top of the block stack is where instructions are emitted; control
// flow pops the block it terminates and pushes the block it continues in.
type Generator struct {
	opts      Options
	module    *ir.Module
	fn        *ir.Func
	entry     *ir.Block
	syms      *SymbolTable
	operands  []value.Value
	blocks    []*ir.Block
	allocas   int // number of slots hoisted to the top of entry
	nextLabel int
	trap      *ir.Func
	sealed    bool
}

// NewGenerator creates a fresh module named name containing an empty main
// function whose entry block is the only open block.
func NewGenerator(name string, opts Options) *Generator {
	m := ir.NewModule()
	m.SourceFilename = name
	fn := m.NewFunc("main", types.I32)
	entry := fn.NewBlock("entry")
	return &Generator{
		opts:   opts,
		module: m,
		fn:     fn,
		entry:  entry,
		syms:   NewSymbolTable(),
		blocks: []*ir.Block{entry},
	}
}

// Module returns the module under construction.
func (cg *Generator) Module() *ir.Module { return cg.module }

// Symbols returns the generator's symbol table.
func (cg *Generator) Symbols() *SymbolTable { return cg.syms }

// OperandDepth returns the number of values on the operand stack.
func (cg *Generator) OperandDepth() int { return len(cg.operands) }

// BlockDepth returns the number of open blocks.
func (cg *Generator) BlockDepth() int { return len(cg.blocks) }

// Generate lowers one top-level instruction. Values of earlier instructions
// are dropped, so Finalize returns the value of the last one.
func (cg *Generator) Generate(node Node) error {
	if cg.sealed {
		return fmt.Errorf("codegen: %w", ErrSealed)
	}
	if err := node.Accept(cg); err != nil {
		return err
	}
	if n := len(cg.operands); n > 1 {
		cg.operands = append(cg.operands[:0], cg.operands[n-1])
	}
	return nil
}

// Finalize pops the current block, returns the most recent value from main
// and serializes the module. The generator cannot be used afterwards.
func (cg *Generator) Finalize() (string, error) {
	if cg.sealed {
		return "", fmt.Errorf("codegen: %w", ErrSealed)
	}
	b, err := cg.popBlock("return")
	if err != nil {
		return "", err
	}
	v, err := cg.pop("return")
	if err != nil {
		return "", err
	}
	b.NewRet(v)
	cg.sealed = true
	return cg.module.String(), nil
}

//  Stacks

func (cg *Generator) push(v value.Value) {
	cg.operands = append(cg.operands, v)
}

func (cg *Generator) pop(op string) (value.Value, error) {
	if len(cg.operands) == 0 {
		return nil, fmt.Errorf("codegen: operand not found for %s: %w", op, ErrOperandUnderflow)
	}
	v := cg.operands[len(cg.operands)-1]
	cg.operands = cg.operands[:len(cg.operands)-1]
	return v, nil
}

func (cg *Generator) pushBlock(b *ir.Block) {
	cg.blocks = append(cg.blocks, b)
}

func (cg *Generator) popBlock(op string) (*ir.Block, error) {
	if len(cg.blocks) == 0 {
		return nil, fmt.Errorf("codegen: insertion point not found for %s: %w", op, ErrBlockUnderflow)
	}
	b := cg.blocks[len(cg.blocks)-1]
	cg.blocks = cg.blocks[:len(cg.blocks)-1]
	return b, nil
}

// current returns the block instructions are emitted into.
func (cg *Generator) current(op string) (*ir.Block, error) {
	if len(cg.blocks) == 0 {
		return nil, fmt.Errorf("codegen: insertion point not found for %s: %w", op, ErrBlockUnderflow)
	}
	return cg.blocks[len(cg.blocks)-1], nil
}

//  Helpers

func (cg *Generator) newLabelID() int {
	id := cg.nextLabel
	cg.nextLabel++
	return id
}

func (cg *Generator) newBlock(prefix string, id int) *ir.Block {
	return cg.fn.NewBlock(fmt.Sprintf("%s.%d", prefix, id))
}

// newSlot creates an i32 stack slot for name at the top of the entry block,
// ahead of any other instruction, whatever block is currently open.
func (cg *Generator) newSlot(name string) *ir.InstAlloca {
	slot := cg.entry.NewAlloca(types.I32)
	slot.SetName(cg.syms.SlotName(name))
	insts := cg.entry.Insts
	copy(insts[cg.allocas+1:], insts[cg.allocas:len(insts)-1])
	insts[cg.allocas] = slot
	cg.allocas++
	return slot
}

func (cg *Generator) trapFunc() *ir.Func {
	if cg.trap == nil {
		cg.trap = cg.module.NewFunc("llvm.trap", types.Void)
	}
	return cg.trap
}

func zero() *constant.Int {
	return constant.NewInt(types.I32, 0)
}

// truthy emits v != 0.
func truthy(b *ir.Block, v value.Value) value.Value {
	return b.NewICmp(enum.IPredNE, v, zero())
}

// binaryOperands visits left then right and pops their values in reverse.
func (cg *Generator) binaryOperands(op string, left, right Node) (value.Value, value.Value, *ir.Block, error) {
	if err := left.Accept(cg); err != nil {
		return nil, nil, nil, err
	}
	if err := right.Accept(cg); err != nil {
		return nil, nil, nil, err
	}
	r, err := cg.pop(op)
	if err != nil {
		return nil, nil, nil, err
	}
	l, err := cg.pop(op)
	if err != nil {
		return nil, nil, nil, err
	}
	b, err := cg.current(op)
	if err != nil {
		return nil, nil, nil, err
	}
	return l, r, b, nil
}

// branch emits node into block and closes it with a jump to next. It returns
// the node's value and the block control actually leaves from, which differs
// from block when node contains control flow.
func (cg *Generator) branch(op string, block *ir.Block, node Node, next *ir.Block) (value.Value, *ir.Block, error) {
	cg.pushBlock(block)
	if err := node.Accept(cg); err != nil {
		return nil, nil, err
	}
	v, err := cg.pop(op)
	if err != nil {
		return nil, nil, err
	}
	last, err := cg.popBlock(op)
	if err != nil {
		return nil, nil, err
	}
	last.NewBr(next)
	return v, last, nil
}

//  Leaves

func (cg *Generator) VisitIntegerLiteral(n *IntegerLiteral) error {
	cg.push(constant.NewInt(types.I32, int64(n.Value)))
	return nil
}

func (cg *Generator) VisitIdentifier(n *Identifier) error {
	sym, ok := cg.syms.Lookup(n.Name)
	if !ok {
		return fmt.Errorf("codegen: undefined variable %q", n.Name)
	}
	b, err := cg.current("identifier")
	if err != nil {
		return err
	}
	cg.push(b.NewLoad(types.I32, sym.Slot))
	return nil
}

//  Arithmetic

func (cg *Generator) VisitAddition(n *Addition) error {
	l, r, b, err := cg.binaryOperands("addition", n.Left, n.Right)
	if err != nil {
		return err
	}
	cg.push(b.NewAdd(l, r))
	return nil
}

func (cg *Generator) VisitSubtraction(n *Subtraction) error {
	l, r, b, err := cg.binaryOperands("subtraction", n.Left, n.Right)
	if err != nil {
		return err
	}
	cg.push(b.NewSub(l, r))
	return nil
}

func (cg *Generator) VisitMultiplication(n *Multiplication) error {
	l, r, b, err := cg.binaryOperands("multiplication", n.Left, n.Right)
	if err != nil {
		return err
	}
	cg.push(b.NewMul(l, r))
	return nil
}

func (cg *Generator) VisitDivision(n *Division) error {
	l, r, b, err := cg.binaryOperands("division", n.Left, n.Right)
	if err != nil {
		return err
	}
	if cg.opts.TrapDivision {
		b, err = cg.guardDivision(b, l, r)
		if err != nil {
			return err
		}
	}
	cg.push(b.NewSDiv(l, r))
	return nil
}

// guardDivision ends b with a branch to a trap block when r == 0 or
// l == INT32_MIN && r == -1, and returns the block where division proceeds.
func (cg *Generator) guardDivision(b *ir.Block, l, r value.Value) (*ir.Block, error) {
	id := cg.newLabelID()
	trap := cg.newBlock("div.trap", id)
	ok := cg.newBlock("div.ok", id)

	isZero := b.NewICmp(enum.IPredEQ, r, zero())
	isMin := b.NewICmp(enum.IPredEQ, l, constant.NewInt(types.I32, math.MinInt32))
	isNegOne := b.NewICmp(enum.IPredEQ, r, constant.NewInt(types.I32, -1))
	overflow := b.NewAnd(isMin, isNegOne)
	b.NewCondBr(b.NewOr(isZero, overflow), trap, ok)

	trap.NewCall(cg.trapFunc())
	trap.NewUnreachable()

	if _, err := cg.popBlock("division"); err != nil {
		return nil, err
	}
	cg.pushBlock(ok)
	return ok, nil
}

//  Boolean logic

func (cg *Generator) VisitLogicalNot(n *LogicalNot) error {
	if err := n.Operand.Accept(cg); err != nil {
		return err
	}
	v, err := cg.pop("logical not")
	if err != nil {
		return err
	}
	b, err := cg.current("logical not")
	if err != nil {
		return err
	}
	isZero := b.NewICmp(enum.IPredEQ, v, zero())
	cg.push(b.NewZExt(isZero, types.I32))
	return nil
}

func (cg *Generator) VisitLogicalOr(n *LogicalOr) error {
	return cg.shortCircuit("logical or", n.Left, n.Right, false)
}

func (cg *Generator) VisitLogicalAnd(n *LogicalAnd) error {
	return cg.shortCircuit("logical and", n.Left, n.Right, true)
}

// shortCircuit evaluates right only when left does not decide the result:
// when left is true for &&, when left is false for ||.
func (cg *Generator) shortCircuit(op string, left, right Node, isAnd bool) error {
	if err := left.Accept(cg); err != nil {
		return err
	}
	lv, err := cg.pop(op)
	if err != nil {
		return err
	}
	start, err := cg.popBlock(op)
	if err != nil {
		return err
	}

	prefix, decided := "or", constant.True
	if isAnd {
		prefix, decided = "and", constant.False
	}
	id := cg.newLabelID()
	rhs := cg.newBlock(prefix+".rhs", id)
	end := cg.newBlock(prefix+".end", id)

	lt := truthy(start, lv)
	if isAnd {
		start.NewCondBr(lt, rhs, end)
	} else {
		start.NewCondBr(lt, end, rhs)
	}

	cg.pushBlock(rhs)
	if err := right.Accept(cg); err != nil {
		return err
	}
	rv, err := cg.pop(op)
	if err != nil {
		return err
	}
	rhsEnd, err := cg.popBlock(op)
	if err != nil {
		return err
	}
	rt := truthy(rhsEnd, rv)
	rhsEnd.NewBr(end)

	phi := end.NewPhi(ir.NewIncoming(decided, start), ir.NewIncoming(rt, rhsEnd))
	cg.pushBlock(end)
	cg.push(end.NewZExt(phi, types.I32))
	return nil
}

//  Relations

func (cg *Generator) compare(op string, pred enum.IPred, left, right Node) error {
	l, r, b, err := cg.binaryOperands(op, left, right)
	if err != nil {
		return err
	}
	cmp := b.NewICmp(pred, l, r)
	cg.push(b.NewZExt(cmp, types.I32))
	return nil
}

func (cg *Generator) VisitLess(n *Less) error {
	return cg.compare("less", enum.IPredSLT, n.Left, n.Right)
}

func (cg *Generator) VisitGreater(n *Greater) error {
	return cg.compare("greater", enum.IPredSGT, n.Left, n.Right)
}

func (cg *Generator) VisitLessEqual(n *LessEqual) error {
	return cg.compare("less-equal", enum.IPredSLE, n.Left, n.Right)
}

func (cg *Generator) VisitGreaterEqual(n *GreaterEqual) error {
	return cg.compare("greater-equal", enum.IPredSGE, n.Left, n.Right)
}

//  Statements

// VisitAssignment stores the value and leaves it on the stack, so
// (x = 3;) + 1 evaluates to 4.
func (cg *Generator) VisitAssignment(n *Assignment) error {
	if n.Target == nil {
		return fmt.Errorf("codegen: assignment without a target")
	}
	if err := n.Value.Accept(cg); err != nil {
		return err
	}
	v, err := cg.pop("assignment")
	if err != nil {
		return err
	}
	b, err := cg.current("assignment")
	if err != nil {
		return err
	}

	name := n.Target.Name
	var slot *ir.InstAlloca
	if n.Declare {
		slot = cg.newSlot(name)
		if _, exists := cg.syms.Allocate(name, slot); exists {
			return fmt.Errorf("codegen: redeclaration of %q", name)
		}
	} else {
		sym, ok := cg.syms.Lookup(name)
		if !ok {
			return fmt.Errorf("codegen: assignment to undeclared variable %q", name)
		}
		slot = sym.Slot
	}

	b.NewStore(v, slot)
	cg.push(v)
	return nil
}

// VisitBlock evaluates to its last instruction, or 0 when empty.
func (cg *Generator) VisitBlock(n *Block) error {
	cg.syms.EnterScope()
	defer cg.syms.ExitScope()

	for i, node := range n.Nodes {
		if err := node.Accept(cg); err != nil {
			return err
		}
		if i < len(n.Nodes)-1 {
			if _, err := cg.pop("block"); err != nil {
				return err
			}
		}
	}
	if len(n.Nodes) == 0 {
		cg.push(zero())
	}
	return nil
}

// VisitIf evaluates to the value of the branch taken; a missing else
// yields 0.
func (cg *Generator) VisitIf(n *If) error {
	if err := n.Condition.Accept(cg); err != nil {
		return err
	}
	cv, err := cg.pop("if")
	if err != nil {
		return err
	}
	start, err := cg.popBlock("if")
	if err != nil {
		return err
	}

	id := cg.newLabelID()
	then := cg.newBlock("if.then", id)
	var otherwise *ir.Block
	if n.Else != nil {
		otherwise = cg.newBlock("if.else", id)
	}
	end := cg.newBlock("if.end", id)

	cond := truthy(start, cv)
	if otherwise != nil {
		start.NewCondBr(cond, then, otherwise)
	} else {
		start.NewCondBr(cond, then, end)
	}

	tv, thenEnd, err := cg.branch("if", then, n.Then, end)
	if err != nil {
		return err
	}
	incoming := []*ir.Incoming{ir.NewIncoming(tv, thenEnd)}

	if otherwise != nil {
		ev, elseEnd, err := cg.branch("else", otherwise, n.Else, end)
		if err != nil {
			return err
		}
		incoming = append(incoming, ir.NewIncoming(ev, elseEnd))
	} else {
		incoming = append(incoming, ir.NewIncoming(zero(), start))
	}

	cg.pushBlock(end)
	cg.push(end.NewPhi(incoming...))
	return nil
}

// VisitWhile evaluates to 0.
func (cg *Generator) VisitWhile(n *While) error {
	start, err := cg.popBlock("while")
	if err != nil {
		return err
	}

	id := cg.newLabelID()
	cond := cg.newBlock("while.cond", id)
	body := cg.newBlock("while.body", id)
	end := cg.newBlock("while.end", id)
	start.NewBr(cond)

	cg.pushBlock(cond)
	if err := n.Condition.Accept(cg); err != nil {
		return err
	}
	cv, err := cg.pop("while")
	if err != nil {
		return err
	}
	condEnd, err := cg.popBlock("while")
	if err != nil {
		return err
	}
	condEnd.NewCondBr(truthy(condEnd, cv), body, end)

	if _, _, err := cg.branch("while", body, n.Body, cond); err != nil {
		return err
	}

	cg.pushBlock(end)
	cg.push(zero())
	return nil
}
