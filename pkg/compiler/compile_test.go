package compiler

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestCompileWritesInstructionsFile(t *testing.T) {
	out := filepath.Join(t.TempDir(), "instructions.txt")
	instrs, err := Compile(`int main() { return 0; }`, Options{OutputPath: out})
	require.NoError(t, err)
	require.NotEmpty(t, instrs)

	data, err := os.ReadFile(out)
	require.NoError(t, err)
	require.NotEmpty(t, data)
}

func TestCompileDefaultsOutputPath(t *testing.T) {
	dir := t.TempDir()
	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	defer func() { require.NoError(t, os.Chdir(wd)) }()

	_, err = Compile(`int main() { return 0; }`, Options{})
	require.NoError(t, err)
	_, err = os.Stat(filepath.Join(dir, "instructions.txt"))
	require.NoError(t, err)
}

// TestCompileRoundTripIsDeterministic matches spec.md §8 invariant 6:
// compiling the same source twice yields byte-identical output.
func TestCompileRoundTripIsDeterministic(t *testing.T) {
	const src = `int fib(int n) {
  if (n <= 1) { return n; }
  return fib(n-1) + fib(n-2);
}
int main() { return fib(6); }`

	out1 := filepath.Join(t.TempDir(), "a.txt")
	out2 := filepath.Join(t.TempDir(), "b.txt")

	_, err := Compile(src, Options{OptimizeEnabled: true, OutputPath: out1})
	require.NoError(t, err)
	_, err = Compile(src, Options{OptimizeEnabled: true, OutputPath: out2})
	require.NoError(t, err)

	data1, err := os.ReadFile(out1)
	require.NoError(t, err)
	data2, err := os.ReadFile(out2)
	require.NoError(t, err)
	require.Equal(t, data1, data2)
}

func TestCompilePropagatesSemanticError(t *testing.T) {
	_, err := Compile(`int main() { return undeclaredThing; }`, Options{OutputPath: filepath.Join(t.TempDir(), "o.txt")})
	require.Error(t, err)
	require.Contains(t, err.Error(), "Semantic error")
}

func TestCompilePropagatesLexError(t *testing.T) {
	_, err := Compile("int main() { return 1 @ 2; }", Options{OutputPath: filepath.Join(t.TempDir(), "o.txt")})
	require.Error(t, err)
	require.Contains(t, err.Error(), "lex error")
}
