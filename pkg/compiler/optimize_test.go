package compiler

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestOptimizeFoldsAddZeroIdentity(t *testing.T) {
	in := []Instruction{
		{Index: 0, Op: OpLIT, Parameter: 5},
		{Index: 1, Op: OpLIT, Parameter: 0},
		{Index: 2, Op: OpOPR, Parameter: OprADD},
		{Index: 3, Op: OpRET},
	}
	out := Optimize(in)
	require.Equal(t, []Instruction{
		{Index: 0, Op: OpLIT, Parameter: 5},
		{Index: 1, Op: OpRET},
	}, out)
}

func TestOptimizeFoldsMulOneIdentity(t *testing.T) {
	in := []Instruction{
		{Index: 0, Op: OpLIT, Parameter: 5},
		{Index: 1, Op: OpLIT, Parameter: 1},
		{Index: 2, Op: OpOPR, Parameter: OprMUL},
		{Index: 3, Op: OpRET},
	}
	out := Optimize(in)
	require.Equal(t, []Instruction{
		{Index: 0, Op: OpLIT, Parameter: 5},
		{Index: 1, Op: OpRET},
	}, out)
}

// TestOptimizeDoesNotDeleteAJumpTarget guards invariant 4/5's interaction:
// a LIT/OPR identity pair is left alone if something still jumps onto
// either of its two instructions.
func TestOptimizeDoesNotDeleteAJumpTarget(t *testing.T) {
	in := []Instruction{
		{Index: 0, Op: OpJMP, Parameter: 1}, // jumps onto the LIT 0 below
		{Index: 1, Op: OpLIT, Parameter: 0},
		{Index: 2, Op: OpOPR, Parameter: OprADD},
		{Index: 3, Op: OpRET},
	}
	out := Optimize(in)
	require.Len(t, out, 4, "the identity pair must survive because instruction 1 is a jump target")
}

func TestOptimizeCompressesJumpChains(t *testing.T) {
	in := []Instruction{
		{Index: 0, Op: OpJMP, Parameter: 1},
		{Index: 1, Op: OpJMP, Parameter: 2},
		{Index: 2, Op: OpRET},
	}
	out := Optimize(in)
	for _, ins := range out {
		if ins.Op == OpJMP {
			require.NotEqual(t, OpJMP, out[ins.Parameter].Op, "no surviving JMP may still target another JMP")
		}
	}
}

func TestOptimizeRenumbersDenselyAndRemapsParameters(t *testing.T) {
	in := []Instruction{
		{Index: 0, Op: OpLIT, Parameter: 5},
		{Index: 1, Op: OpLIT, Parameter: 0},
		{Index: 2, Op: OpOPR, Parameter: OprADD},
		{Index: 3, Op: OpJMP, Parameter: 0},
	}
	out := Optimize(in)
	for i, ins := range out {
		require.Equal(t, i, ins.Index)
	}
	require.Equal(t, 0, out[len(out)-1].Parameter, "the JMP back to index 0 must be remapped past the deleted pair")
}

// TestOptimizeIsIdempotent checks §8 invariant 5's corollary: running the
// optimizer a second time over its own output changes nothing further.
func TestOptimizeIsIdempotent(t *testing.T) {
	in := []Instruction{
		{Index: 0, Op: OpLIT, Parameter: 5},
		{Index: 1, Op: OpLIT, Parameter: 0},
		{Index: 2, Op: OpOPR, Parameter: OprADD},
		{Index: 3, Op: OpJMP, Parameter: 4},
		{Index: 4, Op: OpJMP, Parameter: 5},
		{Index: 5, Op: OpRET},
	}
	once := Optimize(in)
	twice := Optimize(once)
	require.Equal(t, once, twice)
}
