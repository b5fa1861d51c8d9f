package compiler

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSymbolTableGlobalAllocation(t *testing.T) {
	st := NewSymbolTable()
	a, err := st.Insert("a", VarRecord, IntType, false, nil)
	require.NoError(t, err)
	b, err := st.Insert("b", VarRecord, FloatType, false, nil)
	require.NoError(t, err)

	require.Equal(t, 0, a.Address)
	require.Equal(t, 1, b.Address, "b should sit right after a's single slot")
}

func TestSymbolTableRejectsRedeclaration(t *testing.T) {
	st := NewSymbolTable()
	_, err := st.Insert("x", VarRecord, IntType, false, nil)
	require.NoError(t, err)
	_, err = st.Insert("x", VarRecord, IntType, false, nil)
	require.Error(t, err)
}

func TestSymbolTableFunctionScopeStartsAtActivationRecordSize(t *testing.T) {
	st := NewSymbolTable()
	st.PushScope(true)
	rec, err := st.Insert("p", VarRecord, IntType, false, nil)
	require.NoError(t, err)
	require.Equal(t, ActivationRecordSize, rec.Address)
}

func TestSymbolTableNestedBlockScopeContinuesParentOffset(t *testing.T) {
	st := NewSymbolTable()
	st.PushScope(true)
	_, err := st.Insert("p", VarRecord, IntType, false, nil)
	require.NoError(t, err)

	st.PushScope(false)
	inner, err := st.Insert("local", VarRecord, IntType, false, nil)
	require.NoError(t, err)
	require.Equal(t, ActivationRecordSize+1, inner.Address)
}

func TestSymbolTableLookupLevelCountsOnlyFunctionBoundaries(t *testing.T) {
	st := NewSymbolTable()
	st.PushScope(true)
	_, err := st.Insert("outer", VarRecord, IntType, false, nil)
	require.NoError(t, err)

	st.PushScope(false) // plain block, should not bump the level
	st.PushScope(true)  // nested function scope

	rec, level, ok := st.Lookup("outer")
	require.True(t, ok)
	require.Equal(t, "outer", rec.Name)
	require.Equal(t, 1, level, "one function-scope boundary crossed, the intervening block scope doesn't count")
}

func TestSymbolTableLookupLocalDoesNotSeeOuterScopes(t *testing.T) {
	st := NewSymbolTable()
	_, err := st.Insert("g", VarRecord, IntType, false, nil)
	require.NoError(t, err)

	st.PushScope(true)
	_, ok := st.LookupLocal("g")
	require.False(t, ok)

	_, _, ok = st.Lookup("g")
	require.True(t, ok)
}

func TestSymbolTableTempReuse(t *testing.T) {
	st := NewSymbolTable()
	temps := st.AllocateTemps([]int{1})
	require.Len(t, temps, 1)

	st.ReleaseTemp(temps[0])
	rec, ok := st.TakeEmptyTemp(1)
	require.True(t, ok)
	require.Equal(t, temps[0].Address, rec.Address, "a released temp should be handed back out rather than growing the frame")

	_, ok = st.TakeEmptyTemp(1)
	require.False(t, ok, "the only idle temp of this size was just taken")
}

func TestSymbolTableBuiltinsSeeded(t *testing.T) {
	st := NewSymbolTable()
	rec, _, ok := st.Lookup("print_int")
	require.True(t, ok)
	require.Equal(t, FuncRecord, rec.Kind)
	require.True(t, rec.HasBody)
}
