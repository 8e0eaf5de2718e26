package maincmd

import (
	"context"
	"fmt"
	"os"

	"github.com/mna/mainer"

	"github.com/mna/glox/lang/compiler"
	"github.com/mna/glox/lang/value"
)

// Disassemble compiles each file and prints the disassembly of every chunk
// it produces (the top-level script plus every nested function), without
// executing any of it. This is the standalone-command equivalent of the
// `code` debug flag (spec.md §6).
func (c *Cmd) Disassemble(_ context.Context, stdio mainer.Stdio, args []string) error {
	for _, path := range args {
		src, err := os.ReadFile(path)
		if err != nil {
			fmt.Fprintf(stdio.Stderr, "can't read file %q: %s\n", path, err)
			return ioFailure(err)
		}

		fmt.Fprintf(stdio.Stdout, "== %s ==\n", path)
		heap := value.NewHeap()
		_, compileErrs := compiler.Compile(string(src), heap, compiler.Options{
			DebugCode: true,
			Stdout:    stdio.Stdout,
		})
		if len(compileErrs) > 0 {
			for _, e := range compileErrs {
				fmt.Fprintln(stdio.Stderr, e)
			}
			return compileFailure(compileErrs[0])
		}
	}
	return nil
}
