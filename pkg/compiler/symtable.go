package compiler

import (
	"fmt"
	"sort"
	"strings"

	"github.com/llir/llvm/ir"
)

// Symbol is a variable bound to a stack slot in the generated function.
type Symbol struct {
	Name string         // source name
	Slot *ir.InstAlloca // i32 slot holding the current value
}

// SymbolTable maps variable names to stack slots.
// Scopes nest with blocks; lookups search from the innermost scope outwards,
// so inner declarations shadow outer ones.
type SymbolTable struct {
	// Stack of scopes. Index 0 is the function body and is never popped.
	scopes []map[string]Symbol

	// Number of slots already named after each source name, used to keep
	// slot names unique within the function.
	slotNames map[string]int
}

func NewSymbolTable() *SymbolTable {
	return &SymbolTable{
		scopes:    []map[string]Symbol{make(map[string]Symbol)},
		slotNames: make(map[string]int),
	}
}

func (s *SymbolTable) EnterScope() {
	s.scopes = append(s.scopes, make(map[string]Symbol))
}

func (s *SymbolTable) ExitScope() {
	if len(s.scopes) > 1 {
		s.scopes = s.scopes[:len(s.scopes)-1]
	}
}

// SlotName returns a function-unique IR name for a new slot of name:
// "x.addr", then "x.addr.1", "x.addr.2", ...
func (s *SymbolTable) SlotName(name string) string {
	n := s.slotNames[name]
	s.slotNames[name] = n + 1
	if n == 0 {
		return name + ".addr"
	}
	return fmt.Sprintf("%s.addr.%d", name, n)
}

// Allocate binds name to slot in the CURRENT scope.
// If name is already in the current scope, the existing symbol is returned.
func (s *SymbolTable) Allocate(name string, slot *ir.InstAlloca) (Symbol, bool) {
	scope := s.scopes[len(s.scopes)-1]
	if sym, ok := scope[name]; ok {
		return sym, true
	}
	sym := Symbol{Name: name, Slot: slot}
	scope[name] = sym
	return sym, false
}

// Lookup returns the symbol and whether it was found.
func (s *SymbolTable) Lookup(name string) (Symbol, bool) {
	for i := len(s.scopes) - 1; i >= 0; i-- {
		if sym, ok := s.scopes[i][name]; ok {
			return sym, true
		}
	}
	return Symbol{}, false
}

// String returns a deterministically ordered dump of the table.
func (s *SymbolTable) String() string {
	var sb strings.Builder
	for i, scope := range s.scopes {
		fmt.Fprintf(&sb, "Scope %d:", i)
		if len(scope) == 0 {
			sb.WriteString(" (empty)\n")
			continue
		}
		sb.WriteString("\n")
		names := make([]string, 0, len(scope))
		for name := range scope {
			names = append(names, name)
		}
		sort.Strings(names)
		for _, name := range names {
			sym := scope[name]
			slot := "<nil>"
			if sym.Slot != nil {
				slot = sym.Slot.Ident()
			}
			fmt.Fprintf(&sb, "  %-20s  Slot: %s\n", name, slot)
		}
	}
	return sb.String()
}
