package compiler

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestFoldBinOpAddZero(t *testing.T) {
	n := &BinOp{Op: PLUS, Left: &IntLit{Value: 0}, Right: &Identifier{Name: "x"}}
	got := foldBinOp(n)
	id, ok := got.(*Identifier)
	require.True(t, ok)
	require.Equal(t, "x", id.Name)
}

func TestFoldBinOpMulZeroEitherSide(t *testing.T) {
	left := foldBinOp(&BinOp{Op: STAR, Left: &IntLit{Value: 0}, Right: &Identifier{Name: "x"}})
	lit, ok := left.(*IntLit)
	require.True(t, ok)
	require.Equal(t, int64(0), lit.Value)

	right := foldBinOp(&BinOp{Op: STAR, Left: &Identifier{Name: "x"}, Right: &IntLit{Value: 0}})
	lit2, ok := right.(*IntLit)
	require.True(t, ok)
	require.Equal(t, int64(0), lit2.Value)
}

func TestFoldBinOpMulOneAndDivOne(t *testing.T) {
	mul := foldBinOp(&BinOp{Op: STAR, Left: &Identifier{Name: "x"}, Right: &IntLit{Value: 1}})
	id, ok := mul.(*Identifier)
	require.True(t, ok)
	require.Equal(t, "x", id.Name)

	div := foldBinOp(&BinOp{Op: SLASH, Left: &Identifier{Name: "x"}, Right: &IntLit{Value: 1}})
	id2, ok := div.(*Identifier)
	require.True(t, ok)
	require.Equal(t, "x", id2.Name)
}

func TestFoldBinOpLogicalShortCircuitIdentities(t *testing.T) {
	require.Equal(t, false, foldBinOp(&BinOp{Op: AND_LOGICAL, Left: &BoolLit{Value: false}, Right: &Identifier{Name: "x"}}).(*BoolLit).Value)
	got := foldBinOp(&BinOp{Op: AND_LOGICAL, Left: &BoolLit{Value: true}, Right: &Identifier{Name: "x"}})
	require.Equal(t, "x", got.(*Identifier).Name)
	require.Equal(t, true, foldBinOp(&BinOp{Op: OR_LOGICAL, Left: &BoolLit{Value: true}, Right: &Identifier{Name: "x"}}).(*BoolLit).Value)
	got2 := foldBinOp(&BinOp{Op: OR_LOGICAL, Left: &BoolLit{Value: false}, Right: &Identifier{Name: "x"}})
	require.Equal(t, "x", got2.(*Identifier).Name)
}

// TestFoldBinOpSkipsPointerOperand guards against erasing a pointer
// arithmetic scale factor: `p + 0` where the non-literal side is a pointer
// expression must not fold, since "0" here is a real operand to the
// pointer-arithmetic emission rule, not an algebraic identity.
func TestFoldBinOpSkipsPointerOperand(t *testing.T) {
	n := &BinOp{Op: PLUS, Left: &AddrOf{Name: "a"}, Right: &IntLit{Value: 0}}
	require.Nil(t, foldBinOp(n))
}

func TestOptimizeASTCascadesNestedFolds(t *testing.T) {
	// (x + 0) * 1 should fold all the way down to x.
	inner := &BinOp{Op: PLUS, Left: &Identifier{Name: "x"}, Right: &IntLit{Value: 0}}
	outer := &BinOp{Op: STAR, Left: inner, Right: &IntLit{Value: 1}}

	program := &Block{Stmts: []Stmt{
		&DeclFunc{Name: "main", ReturnType: IntType, Body: &Block{Stmts: []Stmt{
			&Return{Expr: outer},
		}}},
	}}
	OptimizeAST(program)

	fn := program.Stmts[0].(*DeclFunc)
	ret := fn.Body.Stmts[0].(*Return)
	id, ok := ret.Expr.(*Identifier)
	require.True(t, ok)
	require.Equal(t, "x", id.Name)
}
