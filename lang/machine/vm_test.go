package machine_test

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mna/glox/lang/compiler"
	"github.com/mna/glox/lang/machine"
	"github.com/mna/glox/lang/value"
)

// run compiles and executes src against a fresh heap and VM, returning
// stdout, and the error from Interpret (nil on success).
func run(t *testing.T, src string) (string, error) {
	t.Helper()
	heap := value.NewHeap()
	fn, errs := compiler.Compile(src, heap, compiler.Options{})
	require.Empty(t, errs, "compile errors: %v", errs)

	var out bytes.Buffer
	vm := machine.New(heap)
	vm.Stdout = &out
	vm.Stderr = &out
	err := vm.Interpret(fn)
	return out.String(), err
}

func TestEndToEndScenarios(t *testing.T) {
	cases := []struct {
		name string
		src  string
		want string
	}{
		{"arithmetic", `print 1 + 2;`, "3\n"},
		{"string interning equality", `var a = "hi"; var b = "hi"; print a == b;`, "true\n"},
		{"closures and upvalues", `
			fun make() {
				var x = 0;
				fun inc() { x = x + 1; return x; }
				return inc;
			}
			var c = make();
			print c();
			print c();
			print c();
		`, "1\n2\n3\n"},
		{"single inheritance", `
			class A { greet() { print "a"; } }
			class B < A {}
			B().greet();
		`, "a\n"},
		{"for loop", `for (var i = 0; i < 3; i = i + 1) print i;`, "0\n1\n2\n"},
		{"string concatenation", `print "a" + "b" + "c";`, "abc\n"},
	}

	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			out, err := run(t, c.src)
			require.NoError(t, err)
			assert.Equal(t, c.want, out)
		})
	}
}

func TestFunctionCallResultIsPrintedOnSuccess(t *testing.T) {
	heap := value.NewHeap()
	fn, errs := compiler.Compile(`
		fun add(a, b) { return a + b; }
		print add(1, 2);
	`, heap, compiler.Options{})
	require.Empty(t, errs)

	var out bytes.Buffer
	vm := machine.New(heap)
	vm.Stdout = &out
	require.NoError(t, vm.Interpret(fn))
	assert.Equal(t, "3\n", out.String())
}

func TestUndefinedGlobalIsRuntimeError(t *testing.T) {
	out, err := run(t, `print a;`)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "undefined variable")
	assert.Empty(t, out)
}

func TestAddingNumberAndStringIsRuntimeError(t *testing.T) {
	_, err := run(t, `1 + "x";`)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "operands must be two numbers or two strings")
}

func TestNegatingNonNumberIsRuntimeError(t *testing.T) {
	_, err := run(t, `-"x";`)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "operand must be a number")
}

func TestCallingNonCallableIsRuntimeError(t *testing.T) {
	_, err := run(t, `var x = 1; x();`)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "can only call functions and classes")
}

func TestArityMismatchIsRuntimeError(t *testing.T) {
	_, err := run(t, `fun f(a, b) { return a + b; } f(1);`)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "expected 2 arguments but got 1")
}

func TestRuntimeErrorIncludesStackTrace(t *testing.T) {
	_, err := run(t, `
		fun a() { return b(); }
		fun b() { return 1 + "x"; }
		a();
	`)
	require.Error(t, err)
	re, ok := err.(*machine.RuntimeError)
	require.True(t, ok)
	require.Len(t, re.Trace, 3)
	assert.Contains(t, re.Trace[0], "in b()")
	assert.Contains(t, re.Trace[1], "in a()")
	assert.Contains(t, re.Trace[2], "in script")
}

func TestThisOutsideClassIsCompileError(t *testing.T) {
	heap := value.NewHeap()
	_, errs := compiler.Compile(`print this;`, heap, compiler.Options{})
	require.NotEmpty(t, errs)
	assert.Contains(t, errs[0].Message, "can't use 'this' outside of a class")
}

func TestReadingLocalInOwnInitializerIsCompileError(t *testing.T) {
	heap := value.NewHeap()
	_, errs := compiler.Compile(`{ var a = a; }`, heap, compiler.Options{})
	require.NotEmpty(t, errs)
	assert.Contains(t, errs[0].Message, "can't read local variable in its own initializer")
}

func TestStackOverflowIsRuntimeError(t *testing.T) {
	_, err := run(t, `fun rec() { return rec(); } rec();`)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "stack overflow")
}

func TestClosuresShareMutableUpvalueAcrossInstances(t *testing.T) {
	out, err := run(t, `
		fun counter() {
			var n = 0;
			fun incr() { n = n + 1; return n; }
			fun get() { return n; }
			print incr();
			print get();
			print incr();
		}
		counter();
	`)
	require.NoError(t, err)
	assert.Equal(t, "1\n1\n2\n", out)
}

func TestFieldShadowsMethodOnInvoke(t *testing.T) {
	out, err := run(t, `
		fun replacement() { print "field"; }
		class A {
			method() { print "method"; }
		}
		var a = A();
		a.method = replacement;
		a.method();
	`)
	require.NoError(t, err)
	assert.Equal(t, "field\n", out)
}

func TestBoundMethodCanBeStoredAndCalledLater(t *testing.T) {
	out, err := run(t, `
		class Greeter {
			init(name) { this.name = name; }
			greet() { print this.name; }
		}
		var g = Greeter("ada");
		var m = g.greet;
		m();
	`)
	require.NoError(t, err)
	assert.Equal(t, "ada\n", out)
}

// TestStressGCSurvivesClosureAndClassAllocation runs a loop that allocates
// a fresh closure and a fresh class on every iteration under stress_gc
// (collect on every allocation), exercising the OP_CLOSURE/OP_CLASS
// collection checkpoints. A missing checkpoint there wouldn't crash this
// test, but collecting mid-construction, before the new object is rooted,
// would free it out from under itself and corrupt the result.
func TestStressGCSurvivesClosureAndClassAllocation(t *testing.T) {
	heap := value.NewHeap()
	heap.StressGC = true
	fn, errs := compiler.Compile(`
		var total = 0;
		for (var i = 0; i < 20; i = i + 1) {
			fun make() {
				class C { get() { return 1; } }
				return C().get();
			}
			total = total + make();
		}
		print total;
	`, heap, compiler.Options{})
	require.Empty(t, errs)

	var out bytes.Buffer
	vm := machine.New(heap)
	vm.Stdout = &out
	require.NoError(t, vm.Interpret(fn))
	assert.Equal(t, "20\n", out.String())
}

func TestSuperInvokeCallsParentMethod(t *testing.T) {
	out, err := run(t, `
		class A {
			greet() { print "A"; }
		}
		class B < A {
			greet() {
				super.greet();
				print "B";
			}
		}
		B().greet();
	`)
	require.NoError(t, err)
	assert.Equal(t, "A\nB\n", out)
}
