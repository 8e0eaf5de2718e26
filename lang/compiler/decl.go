package compiler

import "github.com/mna/glox/lang/token"

func (c *compiler) declaration() {
	switch {
	case c.match(token.CLASS):
		c.classDeclaration()
	case c.match(token.FUN):
		c.funDeclaration()
	case c.match(token.VAR):
		c.varDeclaration()
	default:
		c.statement()
	}

	if c.panicMode {
		c.synchronize()
	}
}

// synchronize skips tokens after a compile error until it reaches a point
// likely to be a statement boundary, so a single malformed statement
// produces one diagnostic instead of a cascade.
func (c *compiler) synchronize() {
	c.panicMode = false

	for c.current.Kind != token.EOF {
		if c.previous.Kind == token.SEMICOLON {
			return
		}
		switch c.current.Kind {
		case token.CLASS, token.FUN, token.VAR, token.FOR, token.IF, token.WHILE, token.PRINT, token.RETURN:
			return
		}
		c.advance()
	}
}

func (c *compiler) parseVariable(errMsg string) byte {
	c.consume(token.IDENTIFIER, errMsg)
	name := c.previous.Lexeme
	c.declareVariable(name)
	if c.fn.scope > 0 {
		return 0
	}
	return c.identifierConstant(name)
}

func (c *compiler) defineVariable(global byte) {
	if c.fn.scope > 0 {
		c.markInitialized()
		return
	}
	c.emitBytes(byte(opDefineGlobal), global)
}

func (c *compiler) varDeclaration() {
	global := c.parseVariable("expect variable name")
	if c.match(token.EQUAL) {
		c.expression()
	} else {
		c.emitByte(byte(opNil))
	}
	c.consume(token.SEMICOLON, "expect ';' after variable declaration")
	c.defineVariable(global)
}

func (c *compiler) funDeclaration() {
	global := c.parseVariable("expect function name")
	c.markInitialized()
	c.function(c.previous.Lexeme, typeFunction)
	c.defineVariable(global)
}

func (c *compiler) classDeclaration() {
	c.consume(token.IDENTIFIER, "expect class name")
	className := c.previous.Lexeme
	nameConst := c.identifierConstant(className)
	c.declareVariable(className)

	c.emitBytes(byte(opClass), nameConst)
	c.defineVariable(nameConst)

	cs := &classState{enclosing: c.class}
	c.class = cs

	if c.match(token.LESS) {
		c.consume(token.IDENTIFIER, "expect superclass name")
		c.namedVariable(c.previous.Lexeme, false)
		if c.previous.Lexeme == className {
			c.error("a class can't inherit from itself")
		}

		c.beginScope()
		c.addLocal("super")
		c.markInitialized()

		c.namedVariable(className, false)
		c.emitByte(byte(opInherit))
		cs.hasSuperclass = true
	}

	c.namedVariable(className, false)
	c.consume(token.LBRACE, "expect '{' before class body")
	for !c.check(token.RBRACE) && !c.check(token.EOF) {
		c.method()
	}
	c.consume(token.RBRACE, "expect '}' after class body")
	c.emitByte(byte(opPop)) // pop the class itself, pushed by namedVariable above

	if cs.hasSuperclass {
		c.endScope()
	}
	c.class = cs.enclosing
}

func (c *compiler) method() {
	c.consume(token.IDENTIFIER, "expect method name")
	name := c.previous.Lexeme
	nameConst := c.identifierConstant(name)

	ftype := typeMethod
	if name == "init" {
		ftype = typeInitializer
	}
	c.function(name, ftype)
	c.emitBytes(byte(opMethod), nameConst)
}

func (c *compiler) statement() {
	switch {
	case c.match(token.PRINT):
		c.printStatement()
	case c.match(token.IF):
		c.ifStatement()
	case c.match(token.RETURN):
		c.returnStatement()
	case c.match(token.WHILE):
		c.whileStatement()
	case c.match(token.FOR):
		c.forStatement()
	case c.match(token.LBRACE):
		c.beginScope()
		c.block()
		c.endScope()
	default:
		c.expressionStatement()
	}
}

func (c *compiler) block() {
	for !c.check(token.RBRACE) && !c.check(token.EOF) {
		c.declaration()
	}
	c.consume(token.RBRACE, "expect '}' after block")
}

func (c *compiler) printStatement() {
	c.expression()
	c.consume(token.SEMICOLON, "expect ';' after value")
	c.emitByte(byte(opPrint))
}

func (c *compiler) expressionStatement() {
	c.expression()
	c.consume(token.SEMICOLON, "expect ';' after expression")
	c.emitByte(byte(opPop))
}

func (c *compiler) returnStatement() {
	if c.fn.fnType == typeScript {
		c.error("can't return from top-level code")
	}
	if c.match(token.SEMICOLON) {
		c.emitReturn()
		return
	}
	if c.fn.fnType == typeInitializer {
		c.error("can't return a value from an initializer")
	}
	c.expression()
	c.consume(token.SEMICOLON, "expect ';' after return value")
	c.emitByte(byte(opReturn))
}

func (c *compiler) ifStatement() {
	c.consume(token.LPAREN, "expect '(' after 'if'")
	c.expression()
	c.consume(token.RPAREN, "expect ')' after condition")

	thenJump := c.emitJump(byte(opJumpIfFalse))
	c.emitByte(byte(opPop))
	c.statement()

	elseJump := c.emitJump(byte(opJump))
	c.patchJump(thenJump)
	c.emitByte(byte(opPop))

	if c.match(token.ELSE) {
		c.statement()
	}
	c.patchJump(elseJump)
}

func (c *compiler) whileStatement() {
	loopStart := len(c.currentChunk().Code)
	c.consume(token.LPAREN, "expect '(' after 'while'")
	c.expression()
	c.consume(token.RPAREN, "expect ')' after condition")

	exitJump := c.emitJump(byte(opJumpIfFalse))
	c.emitByte(byte(opPop))
	c.statement()
	c.emitLoop(loopStart)

	c.patchJump(exitJump)
	c.emitByte(byte(opPop))
}

// forStatement desugars the C-style for loop into the initializer,
// condition and increment clauses wired together with jumps and loops over
// a while-shaped skeleton, matching the textbook technique of running the
// increment via a jump over it that loops back to re-check the condition.
func (c *compiler) forStatement() {
	c.beginScope()
	c.consume(token.LPAREN, "expect '(' after 'for'")

	switch {
	case c.match(token.SEMICOLON):
		// no initializer
	case c.match(token.VAR):
		c.varDeclaration()
	default:
		c.expressionStatement()
	}

	loopStart := len(c.currentChunk().Code)
	exitJump := -1
	if !c.match(token.SEMICOLON) {
		c.expression()
		c.consume(token.SEMICOLON, "expect ';' after loop condition")
		exitJump = c.emitJump(byte(opJumpIfFalse))
		c.emitByte(byte(opPop))
	}

	if !c.match(token.RPAREN) {
		bodyJump := c.emitJump(byte(opJump))
		incrStart := len(c.currentChunk().Code)
		c.expression()
		c.emitByte(byte(opPop))
		c.consume(token.RPAREN, "expect ')' after for clauses")

		c.emitLoop(loopStart)
		loopStart = incrStart
		c.patchJump(bodyJump)
	}

	c.statement()
	c.emitLoop(loopStart)

	if exitJump != -1 {
		c.patchJump(exitJump)
		c.emitByte(byte(opPop))
	}
	c.endScope()
}
