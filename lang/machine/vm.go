// Package machine implements the stack-based bytecode virtual machine that
// executes chunks produced by the compiler package: the call-frame stack,
// the operand stack, global and per-instance/per-class hash tables, open
// upvalue tracking, and the runtime side of the garbage collector.
package machine

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"golang.org/x/exp/slices"

	"github.com/mna/glox/lang/compiler"
	"github.com/mna/glox/lang/value"
)

const (
	defaultMaxFrames = 64
	stackPerFrame    = 256
	defaultStackSize = defaultMaxFrames * stackPerFrame
)

// VM executes compiled glox programs. Zero value is not usable; construct
// one with New.
type VM struct {
	heap    *value.Heap
	globals value.Table

	frames []frame
	stack  []value.Value

	openUpvalues *value.Upvalue

	// initStr caches the VM's interned "init" string so OP_CALL's class
	// branch never has to re-intern it.
	initStr *value.String

	// MaxFrames bounds call recursion depth; exceeding it is a runtime error
	// ("stack overflow") rather than a Go stack overflow. Defaults to 64.
	MaxFrames int

	// Stdout and Stderr back the `print` statement and runtime error
	// reporting, respectively. Default to os.Stdout / os.Stderr.
	Stdout io.Writer
	Stderr io.Writer

	// TraceExecution, if true, disassembles every instruction to Stdout
	// immediately before it executes, and dumps the operand stack alongside
	// it - the runtime half of the `trace` debug flag.
	TraceExecution bool
}

// New creates a VM sharing heap with whatever compiler produced the
// function it will run, and installs the native function library. The
// value stack is preallocated to its full fixed capacity up front and never
// reallocated afterward: open upvalues hold pointers directly into its
// backing array, and those pointers must stay valid for as long as the
// upvalue is open.
func New(heap *value.Heap) *VM {
	vm := &VM{
		heap:      heap,
		stack:     make([]value.Value, 0, defaultStackSize),
		frames:    make([]frame, 0, defaultMaxFrames),
		MaxFrames: defaultMaxFrames,
		Stdout:    os.Stdout,
		Stderr:    os.Stderr,
	}
	vm.defineNatives()
	return vm
}

func (vm *VM) push(v value.Value) { vm.stack = append(vm.stack, v) }

func (vm *VM) pop() value.Value {
	n := len(vm.stack) - 1
	v := vm.stack[n]
	vm.stack = vm.stack[:n]
	return v
}

func (vm *VM) peek(distance int) value.Value {
	return vm.stack[len(vm.stack)-1-distance]
}

func (vm *VM) resetStack() {
	vm.stack = vm.stack[:0]
	vm.frames = vm.frames[:0]
	vm.openUpvalues = nil
}

// Interpret runs a top-level script Function to completion.
func (vm *VM) Interpret(fn *value.Function) error {
	vm.resetStack()
	closure := vm.heap.NewClosure(fn)
	vm.push(closure)
	if err := vm.call(closure, 0); err != nil {
		return err
	}
	return vm.run()
}

func (vm *VM) defineNative(name string, fn value.NativeFn) {
	vm.globals.Set(vm.heap.NewString(name), vm.heap.NewNative(name, fn))
}

// processStart is the reference point the clock() native measures from.
var processStart = time.Now()

// defineNatives installs the small standard library available to every
// glox program, grounded on clox's single `clock()` native.
func (vm *VM) defineNatives() {
	vm.defineNative("clock", func(args []value.Value) (value.Value, error) {
		return value.Number(time.Since(processStart).Seconds()), nil
	})
}

func (vm *VM) runtimeError(format string, args ...any) *RuntimeError {
	err := &RuntimeError{Message: fmt.Sprintf(format, args...)}
	if len(vm.frames) > 0 {
		err.Line = vm.frames[len(vm.frames)-1].line()
	}
	for i := len(vm.frames) - 1; i >= 0; i-- {
		fr := &vm.frames[i]
		name := "script"
		if fr.closure.Fn.Name != nil {
			name = fr.closure.Fn.Name.Chars + "()"
		}
		err.Trace = append(err.Trace, fmt.Sprintf("[line %d] in %s", fr.line(), name))
	}
	vm.resetStack()
	return err
}

func (vm *VM) maybeCollect() {
	if vm.heap.ShouldCollect() {
		vm.logGlobals()
		vm.heap.Collect(vm.markRoots)
	}
}

// logGlobals writes a sorted, stable listing of live global names to the
// heap's log_gc output immediately before a collection, so golden tests
// exercising log_gc see the same ordering on every run regardless of the
// globals table's internal (hash-ordered) iteration.
func (vm *VM) logGlobals() {
	if !vm.heap.LogGC {
		return
	}
	names := make([]string, 0, vm.globals.Count())
	for _, k := range vm.globals.Keys() {
		names = append(names, k.Chars)
	}
	slices.Sort(names)
	fmt.Fprintf(vm.heap.LogOut, "   globals: %s\n", strings.Join(names, ","))
}

func (vm *VM) disassembleCurrent() {
	fr := &vm.frames[len(vm.frames)-1]
	line, _ := compiler.DisassembleInstruction(fr.chunk(), fr.ip)
	fmt.Fprint(vm.Stdout, "          ")
	for _, v := range vm.stack {
		fmt.Fprintf(vm.Stdout, "[ %s ]", v)
	}
	fmt.Fprintln(vm.Stdout)
	fmt.Fprintln(vm.Stdout, line)
}
