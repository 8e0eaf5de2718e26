package maincmd

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/mna/mainer"

	"github.com/mna/glox/lang/scanner"
	"github.com/mna/glox/lang/token"
)

// Tokenize runs only the scanner over each file and prints its token
// stream, the standalone-command equivalent of the `scanning` debug flag
// (spec.md §6).
func (c *Cmd) Tokenize(_ context.Context, stdio mainer.Stdio, args []string) error {
	for _, path := range args {
		src, err := os.ReadFile(path)
		if err != nil {
			fmt.Fprintf(stdio.Stderr, "can't read file %q: %s\n", path, err)
			return ioFailure(err)
		}
		fmt.Fprintf(stdio.Stdout, "== %s ==\n", path)
		printTokens(stdio.Stdout, string(src))
	}
	return nil
}

// printTokens writes one line per token in src, matching the format clox's
// `scanning` debug flag uses: a right-aligned source line (repeated as `|`
// when unchanged from the previous token, so a run of tokens on one line is
// visually grouped), the token kind, and the lexeme when there is one.
func printTokens(w io.Writer, src string) {
	s := scanner.New(src)
	lastLine := -1
	for {
		tok := s.Scan()
		if tok.Line != lastLine {
			fmt.Fprintf(w, "%4d ", tok.Line)
			lastLine = tok.Line
		} else {
			fmt.Fprint(w, "   | ")
		}
		fmt.Fprintf(w, "%-14s '%s'\n", tok.Kind, tok.Lexeme)
		if tok.Kind == token.EOF {
			return
		}
	}
}
