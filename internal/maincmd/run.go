package maincmd

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/mna/mainer"

	"github.com/mna/glox/internal/debugflags"
	"github.com/mna/glox/lang/compiler"
	"github.com/mna/glox/lang/machine"
	"github.com/mna/glox/lang/value"
)

// Run is glox's core CLI behavior (spec.md §6): no path starts an
// interactive prompt reading one line of source at a time; one path
// argument compiles and runs the whole file.
func (c *Cmd) Run(ctx context.Context, stdio mainer.Stdio, args []string) error {
	flags, err := debugflags.Load(c.Debug)
	if err != nil {
		fmt.Fprintln(stdio.Stderr, err)
		return compileFailure(err)
	}

	if len(args) == 0 {
		return runPrompt(ctx, stdio, flags)
	}
	return runFile(ctx, stdio, args[0], flags)
}

func runFile(_ context.Context, stdio mainer.Stdio, path string, flags debugflags.Set) error {
	src, err := os.ReadFile(path)
	if err != nil {
		fmt.Fprintf(stdio.Stderr, "can't read file %q: %s\n", path, err)
		return ioFailure(err)
	}
	return interpret(stdio, string(src), newHeap(flags), flags)
}

// runPrompt implements the REPL: one line at a time, sharing a single heap
// and VM across lines so that `var`/`fun`/`class` declarations from one
// line remain visible to the next, exactly like the original's persistent
// global VM instance. Unlike the original's fixed-size C input buffer, the
// Go REPL reads with bufio.Scanner, so there is no line-length limit; it
// still only reads one line at a time; the original has no multi-line
// continuation either, and neither does this one.
func runPrompt(ctx context.Context, stdio mainer.Stdio, flags debugflags.Set) error {
	heap := newHeap(flags)
	vm := newVM(stdio, flags, heap)

	scan := bufio.NewScanner(stdio.Stdin)
	scan.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	for {
		fmt.Fprint(stdio.Stdout, "> ")
		if !scan.Scan() {
			fmt.Fprintln(stdio.Stdout)
			if err := scan.Err(); err != nil && !errors.Is(err, io.EOF) {
				return ioFailure(err)
			}
			return nil
		}

		select {
		case <-ctx.Done():
			return nil
		default:
		}

		line := scan.Text()
		if line == "" {
			continue
		}
		// errors are already reported to stderr by interpretWith; the REPL
		// keeps going regardless, matching clox's repl() which never exits on
		// a compile or runtime error from a single line.
		_ = interpretWith(stdio, line, heap, vm, flags)
	}
}

func newHeap(flags debugflags.Set) *value.Heap {
	h := value.NewHeap()
	h.StressGC = flags.StressGC
	h.LogGC = flags.LogGC
	return h
}

func newVM(stdio mainer.Stdio, flags debugflags.Set, heap *value.Heap) *machine.VM {
	vm := machine.New(heap)
	vm.Stdout = stdio.Stdout
	vm.Stderr = stdio.Stderr
	vm.TraceExecution = flags.Trace
	return vm
}

// interpret compiles and runs source with a freshly constructed VM, the
// path used by `run <file>` where nothing is shared across calls.
func interpret(stdio mainer.Stdio, src string, heap *value.Heap, flags debugflags.Set) error {
	return interpretWith(stdio, src, heap, newVM(stdio, flags, heap), flags)
}

// interpretWith compiles source against heap and, if compilation succeeds,
// runs it on vm. Both the compile and runtime error paths print their own
// diagnostics to stderr per spec.md §7 before returning the exit-code-typed
// error Main uses to pick the process exit status.
func interpretWith(stdio mainer.Stdio, src string, heap *value.Heap, vm *machine.VM, flags debugflags.Set) error {
	if heap.LogGC {
		heap.LogOut = stdio.Stdout
	}

	fn, compileErrs := compiler.Compile(src, heap, compiler.Options{
		DebugCode: flags.Code,
		Stdout:    stdio.Stdout,
	})
	if len(compileErrs) > 0 {
		for _, e := range compileErrs {
			fmt.Fprintln(stdio.Stderr, e)
		}
		return compileFailure(compileErrs[0])
	}

	if flags.Scanning {
		printTokens(stdio.Stdout, src)
	}

	if err := vm.Interpret(fn); err != nil {
		re, ok := err.(*machine.RuntimeError)
		if !ok {
			fmt.Fprintln(stdio.Stderr, err)
			return runtimeFailure(err)
		}
		fmt.Fprintf(stdio.Stderr, "[line %d] RuntimeError: %s\n", re.Line, re.Message)
		for _, frame := range re.Trace {
			fmt.Fprintln(stdio.Stderr, frame)
		}
		return runtimeFailure(err)
	}
	return nil
}
