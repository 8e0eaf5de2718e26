package compiler

import (
	"fmt"

	"github.com/mna/glox/lang/token"
	"github.com/mna/glox/lang/value"
)

// endFunction closes out the funcState currently on top, popping back to
// its enclosing funcState (nil at the top level), and returns the
// completed Function.
func (c *compiler) endFunction() *value.Function {
	c.emitReturn()
	fn := c.fn.fn

	if c.debugCode && !c.hadError {
		name := "<script>"
		if fn.Name != nil {
			name = fn.Name.Chars
		}
		fmt.Fprintln(c.stdout, Disassemble(&fn.Chunk, name))
	}

	c.fn = c.fn.enclosing
	return fn
}

// function compiles a function's parameter list and body, assuming the
// function keyword and name have already been consumed by the caller. The
// function's own name becomes a constant in the *enclosing* chunk; this
// only builds the nested Function object and emits OP_CLOSURE to wrap it.
func (c *compiler) function(name string, ftype funcType) {
	fs := &funcState{
		enclosing: c.fn,
		fn:        c.newFunction(),
		fnType:    ftype,
	}
	// push fs before allocating its name, so a collection triggered by that
	// allocation reaches fs.fn through markRoots.
	c.fn = fs
	fs.fn.Name = c.newString(name)
	// slot 0 holds the receiver for methods/initializers, and is otherwise
	// unnamed and unused.
	recv := ""
	if ftype == typeMethod || ftype == typeInitializer {
		recv = "this"
	}
	fs.locals = append(fs.locals, local{name: recv, depth: 0})

	c.beginScope()
	c.consume(token.LPAREN, "expect '(' after function name")
	if !c.check(token.RPAREN) {
		for {
			c.fn.fn.Arity++
			if c.fn.fn.Arity > 255 {
				c.errorAtCurrent("can't have more than 255 parameters")
			}
			c.consume(token.IDENTIFIER, "expect parameter name")
			c.declareVariable(c.previous.Lexeme)
			c.markInitialized()
			if !c.match(token.COMMA) {
				break
			}
		}
	}
	c.consume(token.RPAREN, "expect ')' after parameters")
	c.consume(token.LBRACE, "expect '{' before function body")
	c.block()

	fn := c.endFunction()
	c.emitBytes(byte(opClosure), c.makeConstant(fn))
	for _, uv := range fs.upvalues {
		c.emitByte(boolByte(uv.isLocal))
		c.emitByte(uv.index)
	}
}

func boolByte(b bool) byte {
	if b {
		return 1
	}
	return 0
}
