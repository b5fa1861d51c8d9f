package compiler

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func analyze(t *testing.T, src string) (map[string]bool, error) {
	t.Helper()
	tokens, err := Lex(src)
	require.NoError(t, err)
	program, err := ParseProgram(tokens, src)
	require.NoError(t, err)
	return Analyze(program)
}

func TestAnalyzeAcceptsValidProgram(t *testing.T) {
	_, err := analyze(t, `int main() { return 0; }`)
	require.NoError(t, err)
}

// TestScenarioF_DuplicateLabel matches spec.md §8 scenario F: two labels of
// the same name in one function is a semantic error naming the label and
// the offending line, formatted per §7's contractual stderr shape.
func TestScenarioF_DuplicateLabel(t *testing.T) {
	src := `int main() {
L: int x = 1;
L: return x;
}`
	_, err := analyze(t, src)
	require.Error(t, err)
	require.Contains(t, err.Error(), `Semantic error: label "L" already declared error on line 3`)
}

func TestAnalyzeRequiresMain(t *testing.T) {
	_, err := analyze(t, `int notMain() { return 0; }`)
	require.Error(t, err)
	require.Contains(t, err.Error(), `missing required function "main"`)
}

func TestAnalyzeMainMustReturnInt(t *testing.T) {
	_, err := analyze(t, `void main() { return; }`)
	require.Error(t, err)
	require.Contains(t, err.Error(), `"main" must return int`)
}

func TestAnalyzeRejectsRedeclaration(t *testing.T) {
	_, err := analyze(t, `int main() { int x = 1; int x = 2; return x; }`)
	require.Error(t, err)
}

func TestAnalyzeRejectsUseBeforeAssignment(t *testing.T) {
	_, err := analyze(t, `int main() { int x; return x; }`)
	require.Error(t, err)
	require.Contains(t, err.Error(), "before it is assigned")
}

func TestAnalyzeRejectsFunctionNameAsValue(t *testing.T) {
	_, err := analyze(t, `int f() { return 1; }
int main() { int x = f; return x; }`)
	require.Error(t, err)
	require.Contains(t, err.Error(), "is a function, not a value")
}

func TestAnalyzeRejectsDivisionByLiteralZero(t *testing.T) {
	_, err := analyze(t, `int main() { return 1 / 0; }`)
	require.Error(t, err)
	require.Contains(t, err.Error(), "division by the literal constant 0")
}

func TestAnalyzeAllowsDivisionByComputedZero(t *testing.T) {
	// Only a syntactic literal 0 divisor is caught; a runtime-computed
	// zero divisor passes analysis (the original compiler only performs
	// the same syntactic check).
	_, err := analyze(t, `int main() { int z = 0; return 1 / z; }`)
	require.NoError(t, err)
}

func TestAnalyzeRejectsMultiLevelPointerParam(t *testing.T) {
	_, err := analyze(t, `int f(int **p) { return 0; }
int main() { return 0; }`)
	require.Error(t, err)
	require.Contains(t, err.Error(), "multi-level pointer")
}

func TestAnalyzeRejectsMultiLevelPointerLocal(t *testing.T) {
	_, err := analyze(t, `int main() { int **p; return 0; }`)
	require.Error(t, err)
	require.Contains(t, err.Error(), "multi-level pointer")
}

func TestAnalyzeRejectsFloatPointer(t *testing.T) {
	_, err := analyze(t, `int main() { float *p; return 0; }`)
	require.Error(t, err)
	require.Contains(t, err.Error(), "pointer to float")
}

func TestAnalyzeRejectsMissingReturnOnSomePath(t *testing.T) {
	_, err := analyze(t, `int f(bool c) { if (c) { return 1; } }
int main() { return f(true); }`)
	require.Error(t, err)
	require.Contains(t, err.Error(), "does not return a value on every path")
}

func TestAnalyzeAllowsVoidFallThrough(t *testing.T) {
	_, err := analyze(t, `void noop() { int x = 1; }
int main() { noop(); return 0; }`)
	require.NoError(t, err)
}

func TestAnalyzeRejectsBreakOutsideLoop(t *testing.T) {
	_, err := analyze(t, `int main() { break; return 0; }`)
	require.Error(t, err)
}

func TestAnalyzeAcceptsForwardReference(t *testing.T) {
	used, err := analyze(t, `int f(); int main() { return f(); } int f() { return 3; }`)
	require.NoError(t, err)
	require.NotNil(t, used)
}

func TestAnalyzeRejectsUnresolvedForwardCall(t *testing.T) {
	_, err := analyze(t, `int main() { return g(); }`)
	require.Error(t, err)
	require.Contains(t, err.Error(), `undeclared function "g"`)
}

func TestAnalyzeTracksReferencedBuiltins(t *testing.T) {
	used, err := analyze(t, `int main() { print_int(42); return 0; }`)
	require.NoError(t, err)
	require.True(t, used["print_int"])
	require.False(t, used["print_str"], "only referenced builtins should be reported")
}

func TestAnalyzeRejectsWrongArgCount(t *testing.T) {
	_, err := analyze(t, `int f(int a, int b) { return a + b; }
int main() { return f(1); }`)
	require.Error(t, err)
}

func TestAnalyzeRejectsArgTypeMismatch(t *testing.T) {
	_, err := analyze(t, `int f(int a) { return a; }
int main() { return f(true); }`)
	require.Error(t, err)
}

// TestAnalyzeRejectsIntArgToFloatParam locks in §4.2's strict call-argument
// rule: unlike a declaration or assignment, a call argument gets no
// int-to-float widening.
func TestAnalyzeRejectsIntArgToFloatParam(t *testing.T) {
	_, err := analyze(t, `int f(float a) { return 0; }
int main() { return f(1); }`)
	require.Error(t, err)
}

func TestAnalyzeAllowsIntToFloatWideningOnDeclaration(t *testing.T) {
	_, err := analyze(t, `int main() { float f = 1; return 0; }`)
	require.NoError(t, err)
}
