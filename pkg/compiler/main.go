// Package compiler lexes, parses, semantically analyzes, and generates
// stack-machine instructions for a small PL/0-family language.
//
// Pipeline: source → Lex → ParseProgram → Analyze → (OptimizeAST) →
// Generate → (Optimize) → WriteInstructions.
package compiler
