// Package compiler provides the front end and LLVM IR generator for the letc
// language: integer arithmetic, boolean logic, relations, let-declared i32
// variables, blocks, if/else and while.
//
// Pipeline: source → Parser (via Cursor) → AST → Generator → LLVM IR text
package compiler
