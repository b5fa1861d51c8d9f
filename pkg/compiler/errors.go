package compiler

import "fmt"

// SemanticError is raised for any violation of spec.md §4.2's static checks
// (redeclaration, void variables, assignment to const, use of an
// unassigned variable, pointer-discipline violations, missing return,
// break/continue outside a loop, unresolved goto target, wrong argument
// count/type, division by a literal zero, and so on). It is always raised
// by panic and recovered exactly once, at the top of Analyze.
type SemanticError struct {
	Line int
	Msg  string
}

func (e *SemanticError) Error() string {
	return fmt.Sprintf("Semantic error: %s error on line %d", e.Msg, e.Line)
}

func semErr(line int, format string, args ...interface{}) {
	panic(&SemanticError{Line: line, Msg: fmt.Sprintf(format, args...)})
}

// DeveloperError marks an internal invariant violation: a code path the
// analyzer should have made unreachable by the time code generation or
// optimization runs. Seeing one means the analyzer has a bug, not the
// input program.
type DeveloperError struct {
	Msg string
}

func (e *DeveloperError) Error() string {
	return "internal compiler error: " + e.Msg
}

func devErr(format string, args ...interface{}) {
	panic(&DeveloperError{Msg: fmt.Sprintf(format, args...)})
}
