package compiler

import (
	"errors"
	"fmt"
)

// ErrEmptyProgram is returned when the source holds no instructions.
var ErrEmptyProgram = errors.New("no instructions in source")

// Unit is the result of compiling one top-level instruction on its own.
type Unit struct {
	Index int    // 0-based position of the instruction in the source
	Node  Node   // parsed instruction
	IR    string // complete module returning the instruction's value
}

// CompileStatements parses src one instruction at a time and compiles each
// into its own module, handing every result to emit as soon as it is ready.
// It stops at the first parse, codegen or emit error.
func CompileStatements(name, src string, opts Options, emit func(Unit) error) error {
	p := NewParser(src)
	for i := 0; !p.AtEnd(); i++ {
		node, err := p.ParseInstruction()
		if err != nil {
			return err
		}

		cg := NewGenerator(name, opts)
		if err := cg.Generate(node); err != nil {
			return fmt.Errorf("instruction %d: %w", i+1, err)
		}
		ir, err := cg.Finalize()
		if err != nil {
			return fmt.Errorf("instruction %d: %w", i+1, err)
		}

		if err := emit(Unit{Index: i, Node: node, IR: ir}); err != nil {
			return err
		}
	}
	return nil
}

// CompileProgram compiles every instruction of src into a single main
// function, so declarations stay visible to later instructions. main
// returns the value of the last instruction.
func CompileProgram(name, src string, opts Options) (string, error) {
	nodes, err := ParseAll(src)
	if err != nil {
		return "", err
	}
	return GenerateProgram(name, nodes, opts)
}

// GenerateProgram lowers already-parsed instructions the way CompileProgram does.
func GenerateProgram(name string, nodes []Node, opts Options) (string, error) {
	if len(nodes) == 0 {
		return "", ErrEmptyProgram
	}
	cg := NewGenerator(name, opts)
	for i, node := range nodes {
		if err := cg.Generate(node); err != nil {
			return "", fmt.Errorf("instruction %d: %w", i+1, err)
		}
	}
	return cg.Finalize()
}
