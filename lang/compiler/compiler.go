// Package compiler implements glox's single-pass Pratt compiler: it scans
// and parses source text while directly emitting bytecode into a chunk
// owned by the function object currently being compiled, resolving locals
// and closure captures as it goes. There is no separate AST.
package compiler

import (
	"fmt"
	"io"
	"os"

	"github.com/mna/glox/lang/scanner"
	"github.com/mna/glox/lang/token"
	"github.com/mna/glox/lang/value"
)

// funcType distinguishes the four kinds of function body a funcState can
// compile, since each has a different implicit return and a different
// slot-zero binding.
type funcType int

const (
	typeFunction funcType = iota
	typeInitializer
	typeMethod
	typeScript
)

const maxLocals = 256
const maxUpvalues = 256

type local struct {
	name       string
	depth      int // -1 means "declared but not yet initialized"
	isCaptured bool
}

type upvalueRef struct {
	index   byte
	isLocal bool
}

// funcState holds the compiler state for one function body being compiled.
// Functions nest by pushing a new funcState whose enclosing field is the
// funcState that was current when compilation of the nested function
// began; endFunction pops back to it.
type funcState struct {
	enclosing *funcState

	fn        *value.Function
	fnType    funcType
	locals    []local
	upvalues  []upvalueRef
	scope     int
	strConsts *stringConstants
}

// classState tracks the class body currently being compiled, chained to an
// enclosing class so that a method of a nested class declaration (glox
// allows classes only at statement level, but the chain still matters for
// `this`/`super` scoping) resolves correctly.
type classState struct {
	enclosing     *classState
	hasSuperclass bool
}

// compiler drives the single pass over the token stream: advancing the
// scanner, applying Pratt parsing rules, and emitting bytecode into the
// funcState currently on top.
type compiler struct {
	scan *scanner.Scanner
	heap *value.Heap

	previous token.Token
	current  token.Token

	hadError  bool
	panicMode bool
	errs      []CompileError

	fn    *funcState
	class *classState

	debugCode bool
	stdout    io.Writer
}

// Options configures a single call to Compile.
type Options struct {
	// DebugCode, if true, disassembles every completed function's chunk to
	// Stdout (or os.Stdout if Stdout is nil) once compilation finishes.
	DebugCode bool
	Stdout    io.Writer
}

// Compile compiles source into a top-level script Function ready to be
// wrapped in a Closure and run. It returns the accumulated compile errors,
// if any; a non-empty error slice means the returned function must not be
// executed.
func Compile(source string, heap *value.Heap, opts Options) (*value.Function, []CompileError) {
	c := &compiler{
		scan:      scanner.New(source),
		heap:      heap,
		debugCode: opts.DebugCode,
		stdout:    opts.Stdout,
	}
	if c.stdout == nil {
		c.stdout = os.Stdout
	}

	c.fn = &funcState{fn: heap.NewFunction(), fnType: typeScript}
	// slot 0 is reserved for the callee/receiver; for a plain function (and
	// the top-level script) it is never named.
	c.fn.locals = append(c.fn.locals, local{name: "", depth: 0})

	c.advance()
	for !c.match(token.EOF) {
		c.declaration()
	}
	fn := c.endFunction()

	if c.hadError {
		return nil, c.errs
	}
	return fn, nil
}

func (c *compiler) advance() {
	c.previous = c.current
	for {
		c.current = c.scan.Scan()
		if c.current.Kind != token.ERROR {
			break
		}
		c.errorAtCurrent(c.current.Lexeme)
	}
}

func (c *compiler) check(k token.Kind) bool { return c.current.Kind == k }

func (c *compiler) match(k token.Kind) bool {
	if !c.check(k) {
		return false
	}
	c.advance()
	return true
}

func (c *compiler) consume(k token.Kind, msg string) {
	if c.current.Kind == k {
		c.advance()
		return
	}
	c.errorAtCurrent(msg)
}

func (c *compiler) errorAtCurrent(msg string) { c.errorAt(c.current, msg) }
func (c *compiler) error(msg string)          { c.errorAt(c.previous, msg) }

func (c *compiler) errorAt(tok token.Token, msg string) {
	if c.panicMode {
		return
	}
	c.panicMode = true
	c.hadError = true
	c.errs = append(c.errs, CompileError{
		Line:    tok.Line,
		Lexeme:  tok.Lexeme,
		AtEnd:   tok.Kind == token.EOF,
		Message: msg,
	})
}

func (c *compiler) errorf(format string, args ...any) {
	c.error(fmt.Sprintf(format, args...))
}
