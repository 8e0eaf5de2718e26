package compiler_test

import (
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mna/glox/lang/compiler"
	"github.com/mna/glox/lang/value"
)

func TestCompileIsDeterministic(t *testing.T) {
	const src = `
		class Shape {
			init(name) { this.name = name; }
			describe() { return "a " + this.name; }
		}
		class Circle < Shape {}
		var c = Circle("circle");
		print c.describe();
	`

	h1 := value.NewHeap()
	fn1, errs1 := compiler.Compile(src, h1, compiler.Options{})
	require.Empty(t, errs1)

	h2 := value.NewHeap()
	fn2, errs2 := compiler.Compile(src, h2, compiler.Options{})
	require.Empty(t, errs2)

	assert.Equal(t, fn1.Chunk.Code, fn2.Chunk.Code)
	assert.Equal(t, fn1.Chunk.Lines, fn2.Chunk.Lines)
	assert.Equal(t, len(fn1.Chunk.Constants), len(fn2.Chunk.Constants))
}

func TestChunkLineArrayMatchesCodeLength(t *testing.T) {
	h := value.NewHeap()
	fn, errs := compiler.Compile(`
		fun fib(n) {
			if (n < 2) return n;
			return fib(n - 1) + fib(n - 2);
		}
		print fib(5);
	`, h, compiler.Options{})
	require.Empty(t, errs)
	assert.Equal(t, len(fn.Chunk.Code), len(fn.Chunk.Lines))
}

func TestDuplicateLocalDeclarationIsError(t *testing.T) {
	h := value.NewHeap()
	_, errs := compiler.Compile(`{ var a = 1; var a = 2; }`, h, compiler.Options{})
	require.NotEmpty(t, errs)
	assert.Contains(t, errs[0].Message, "already a variable with this name in this scope")
}

func TestInvalidAssignmentTargetIsError(t *testing.T) {
	h := value.NewHeap()
	_, errs := compiler.Compile(`var a; var b; a + b = 1;`, h, compiler.Options{})
	require.NotEmpty(t, errs)
	assert.Contains(t, errs[0].Message, "invalid assignment target")
}

func TestReturnOutsideFunctionIsError(t *testing.T) {
	h := value.NewHeap()
	_, errs := compiler.Compile(`return 1;`, h, compiler.Options{})
	require.NotEmpty(t, errs)
	assert.Contains(t, errs[0].Message, "can't return from top-level code")
}

func TestReturnValueFromInitializerIsError(t *testing.T) {
	h := value.NewHeap()
	_, errs := compiler.Compile(`
		class A { init() { return 1; } }
	`, h, compiler.Options{})
	require.NotEmpty(t, errs)
	assert.Contains(t, errs[0].Message, "can't return a value from an initializer")
}

func TestClassInheritingFromItselfIsError(t *testing.T) {
	h := value.NewHeap()
	_, errs := compiler.Compile(`class A < A {}`, h, compiler.Options{})
	require.NotEmpty(t, errs)
	assert.Contains(t, errs[0].Message, "a class can't inherit from itself")
}

func TestSuperOutsideClassIsError(t *testing.T) {
	h := value.NewHeap()
	_, errs := compiler.Compile(`fun f() { super.x(); }`, h, compiler.Options{})
	require.NotEmpty(t, errs)
	assert.Contains(t, errs[0].Message, "can't use 'super' outside of a class")
}

func TestSuperWithNoSuperclassIsError(t *testing.T) {
	h := value.NewHeap()
	_, errs := compiler.Compile(`class A { m() { super.m(); } }`, h, compiler.Options{})
	require.NotEmpty(t, errs)
	assert.Contains(t, errs[0].Message, "can't use 'super' in a class with no superclass")
}

func TestReadingLocalInOwnInitializerIsCompileErrorAtAnyNestingDepth(t *testing.T) {
	h := value.NewHeap()
	_, errs := compiler.Compile(`fun f() { var a = a; }`, h, compiler.Options{})
	require.NotEmpty(t, errs)
	assert.Contains(t, errs[0].Message, "can't read local variable in its own initializer")
}

// TestTooManyUpvaluesIsError spreads 100 locals across each of three nested
// enclosing functions (f0, f1, f2) and has the innermost function (f3)
// capture all 300 of them. Each capture of an outer local forces every
// intermediate function to also carry a forwarding upvalue entry for it
// (resolveUpvalue in locals.go), so f3 alone ends up with 300 upvalue slots
// — past the 256 limit (spec.md §4.2) — which must be reported as a
// compile error rather than silently dropped.
func TestTooManyUpvaluesIsError(t *testing.T) {
	const perLevel = 100

	var b strings.Builder
	b.WriteString("fun f0() {\n")
	for i := 0; i < perLevel; i++ {
		fmt.Fprintf(&b, "var a%d = %d;\n", i, i)
	}
	b.WriteString("fun f1() {\n")
	for i := 0; i < perLevel; i++ {
		fmt.Fprintf(&b, "var b%d = %d;\n", i, i)
	}
	b.WriteString("fun f2() {\n")
	for i := 0; i < perLevel; i++ {
		fmt.Fprintf(&b, "var c%d = %d;\n", i, i)
	}
	b.WriteString("fun f3() {\nvar sum = 0;\n")
	for _, prefix := range []string{"a", "b", "c"} {
		for i := 0; i < perLevel; i++ {
			fmt.Fprintf(&b, "sum = sum + %s%d;\n", prefix, i)
		}
	}
	b.WriteString("return sum;\n}\nreturn f3;\n}\nreturn f2;\n}\nreturn f1;\n}\nf0();\n")

	h := value.NewHeap()
	_, errs := compiler.Compile(b.String(), h, compiler.Options{})
	require.NotEmpty(t, errs)
	assert.Contains(t, errs[0].Message, "too many closure variables in function")
}

func TestSynchronizeRecoversAfterFirstError(t *testing.T) {
	h := value.NewHeap()
	// a malformed statement (missing semicolon) followed by a clean one:
	// synchronize should let compilation continue and report only the first
	// error, not a cascade from the second statement too.
	_, errs := compiler.Compile(`
		var a = 1
		var b = 2;
	`, h, compiler.Options{})
	require.Len(t, errs, 1)
}

func TestCompileErrorMessageFormat(t *testing.T) {
	h := value.NewHeap()
	_, errs := compiler.Compile(`print ;`, h, compiler.Options{})
	require.NotEmpty(t, errs)
	assert.Regexp(t, `^\[line \d+\] error at '.*': .+$`, errs[0].Error())
}

func TestDisassembleAdvancesByEncodedSize(t *testing.T) {
	h := value.NewHeap()
	fn, errs := compiler.Compile(`print 1 + 2;`, h, compiler.Options{})
	require.Empty(t, errs)

	offset := 0
	lines := 0
	for offset < len(fn.Chunk.Code) {
		_, next := compiler.DisassembleInstruction(&fn.Chunk, offset)
		require.Greater(t, next, offset, "disassembler must advance past offset %d", offset)
		offset = next
		lines++
	}
	assert.Equal(t, len(fn.Chunk.Code), offset)
	assert.Greater(t, lines, 0)
}
