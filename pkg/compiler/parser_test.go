package compiler

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func parse(t *testing.T, src string) *Block {
	t.Helper()
	tokens, err := Lex(src)
	require.NoError(t, err)
	program, err := ParseProgram(tokens, src)
	require.NoError(t, err)
	return program
}

func TestParseFuncDeclWithParamsAndPointerReturn(t *testing.T) {
	program := parse(t, `int* makePtr(int n, float* f) { return n; }`)
	require.Len(t, program.Stmts, 1)

	fn, ok := program.Stmts[0].(*DeclFunc)
	require.True(t, ok)
	require.Equal(t, "makePtr", fn.Name)
	require.Equal(t, KindInt, fn.ReturnType.Kind)
	require.Equal(t, 1, fn.ReturnType.PointerLevel)
	require.Len(t, fn.Params, 2)
	require.Equal(t, "n", fn.Params[0].Name)
	require.Equal(t, 0, fn.Params[0].PointerLevel)
	require.Equal(t, "f", fn.Params[1].Name)
	require.Equal(t, 1, fn.Params[1].PointerLevel)
}

func TestParseForwardDeclarationHasNilBody(t *testing.T) {
	program := parse(t, `int f(); int main() { return f(); } int f() { return 1; }`)
	require.Len(t, program.Stmts, 3)
	header := program.Stmts[0].(*DeclFunc)
	require.Nil(t, header.Body)
}

func TestParseFloatLitStripsTrailingZeros(t *testing.T) {
	program := parse(t, `float main() { return 2.50; }`)
	fn := program.Stmts[0].(*DeclFunc)
	ret := fn.Body.Stmts[0].(*Return)
	lit, ok := ret.Expr.(*FloatLit)
	require.True(t, ok)
	require.EqualValues(t, 2, lit.Whole)
	require.EqualValues(t, 5, lit.Frac)
}

func TestParseFloatLitAllZeroFracIsZero(t *testing.T) {
	program := parse(t, `float main() { return 10.0; }`)
	fn := program.Stmts[0].(*DeclFunc)
	ret := fn.Body.Stmts[0].(*Return)
	lit, ok := ret.Expr.(*FloatLit)
	require.True(t, ok)
	require.EqualValues(t, 10, lit.Whole)
	require.EqualValues(t, 0, lit.Frac)
}

func TestParseTernary(t *testing.T) {
	program := parse(t, `int main() { return 1 ? 2 : 3; }`)
	fn := program.Stmts[0].(*DeclFunc)
	ret := fn.Body.Stmts[0].(*Return)
	_, ok := ret.Expr.(*Ternary)
	require.True(t, ok)
}

func TestParseForLoopAllPartsOptional(t *testing.T) {
	program := parse(t, `int main() { for (;;) { break; } return 0; }`)
	fn := program.Stmts[0].(*DeclFunc)
	forStmt, ok := fn.Body.Stmts[0].(*For)
	require.True(t, ok)
	require.Nil(t, forStmt.Init)
	require.Nil(t, forStmt.Cond)
	require.Nil(t, forStmt.Step)
}

func TestParseDoWhileAndRepeatUntilFlags(t *testing.T) {
	program := parse(t, `int main() {
do { int x = 1; } while (false);
repeat { int y = 2; } until (true);
return 0;
}`)
	fn := program.Stmts[0].(*DeclFunc)
	doWhile := fn.Body.Stmts[0].(*While)
	require.True(t, doWhile.IsDoWhile)
	require.False(t, doWhile.IsRepeatUntil)

	repeatUntil := fn.Body.Stmts[1].(*While)
	require.True(t, repeatUntil.IsDoWhile)
	require.True(t, repeatUntil.IsRepeatUntil)
}

func TestParseLabelAndGoto(t *testing.T) {
	program := parse(t, `int main() {
goto done;
done: return 0;
}`)
	fn := program.Stmts[0].(*DeclFunc)
	gotoStmt, ok := fn.Body.Stmts[0].(*Goto)
	require.True(t, ok)
	require.Equal(t, "done", gotoStmt.Target)
	require.Equal(t, "done", fn.Body.Stmts[1].SourceLabel())
}

func TestParseNewWithAndWithoutCount(t *testing.T) {
	program := parse(t, `int main() {
int *a = new int[5];
int *b = new int;
return 0;
}`)
	fn := program.Stmts[0].(*DeclFunc)
	declA := fn.Body.Stmts[0].(*DeclVar)
	newA := declA.Init.(*New)
	require.NotNil(t, newA.Count)

	declB := fn.Body.Stmts[1].(*DeclVar)
	newB := declB.Init.(*New)
	require.Nil(t, newB.Count)
}

func TestParseCastExpression(t *testing.T) {
	program := parse(t, `int main() { float f = (float)2; return 0; }`)
	fn := program.Stmts[0].(*DeclFunc)
	decl := fn.Body.Stmts[0].(*DeclVar)
	cast, ok := decl.Init.(*Cast)
	require.True(t, ok)
	require.Equal(t, KindFloat, cast.Target.Kind)
}

func TestParseRejectsMissingMainReturnType(t *testing.T) {
	src := `main() { return 0; }`
	tokens, err := Lex(src)
	require.NoError(t, err)
	_, err = ParseProgram(tokens, src)
	require.Error(t, err)
}

func TestParseConstDeclaration(t *testing.T) {
	program := parse(t, `int main() { const int x = 5; return x; }`)
	fn := program.Stmts[0].(*DeclFunc)
	decl := fn.Body.Stmts[0].(*DeclVar)
	require.True(t, decl.IsConst)
}
