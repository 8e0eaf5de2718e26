package compiler

import (
	"strconv"

	"github.com/mna/glox/lang/token"
	"github.com/mna/glox/lang/value"
)

type precedence int

const (
	precNone       precedence = iota
	precAssignment            // =
	precOr                    // or
	precAnd                   // and
	precEquality              // == !=
	precComparison            // < > <= >=
	precTerm                  // + -
	precFactor                // * /
	precUnary                 // ! -
	precCall                  // . () call
	precPrimary
)

type parseFn func(c *compiler, canAssign bool)

type parseRule struct {
	prefix     parseFn
	infix      parseFn
	precedence precedence
}

var rules map[token.Kind]parseRule

func init() {
	rules = map[token.Kind]parseRule{
		token.LPAREN:        {prefix: (*compiler).grouping, infix: (*compiler).call, precedence: precCall},
		token.DOT:           {infix: (*compiler).dot, precedence: precCall},
		token.MINUS:         {prefix: (*compiler).unary, infix: (*compiler).binary, precedence: precTerm},
		token.PLUS:          {infix: (*compiler).binary, precedence: precTerm},
		token.SLASH:         {infix: (*compiler).binary, precedence: precFactor},
		token.STAR:          {infix: (*compiler).binary, precedence: precFactor},
		token.BANG:          {prefix: (*compiler).unary},
		token.BANG_EQUAL:    {infix: (*compiler).binary, precedence: precEquality},
		token.EQUAL_EQUAL:   {infix: (*compiler).binary, precedence: precEquality},
		token.GREATER:       {infix: (*compiler).binary, precedence: precComparison},
		token.GREATER_EQUAL: {infix: (*compiler).binary, precedence: precComparison},
		token.LESS:          {infix: (*compiler).binary, precedence: precComparison},
		token.LESS_EQUAL:    {infix: (*compiler).binary, precedence: precComparison},
		token.IDENTIFIER:    {prefix: (*compiler).variable},
		token.STRING:        {prefix: (*compiler).string},
		token.NUMBER:        {prefix: (*compiler).number},
		token.AND:           {infix: (*compiler).and_, precedence: precAnd},
		token.OR:            {infix: (*compiler).or_, precedence: precOr},
		token.FALSE:         {prefix: (*compiler).literal},
		token.TRUE:          {prefix: (*compiler).literal},
		token.NIL:           {prefix: (*compiler).literal},
		token.THIS:          {prefix: (*compiler).this_},
		token.SUPER:         {prefix: (*compiler).super_},
	}
}

func ruleFor(k token.Kind) parseRule { return rules[k] }

func (c *compiler) expression() {
	c.parsePrecedence(precAssignment)
}

func (c *compiler) parsePrecedence(prec precedence) {
	c.advance()
	prefix := ruleFor(c.previous.Kind).prefix
	if prefix == nil {
		c.error("expect expression")
		return
	}

	canAssign := prec <= precAssignment
	prefix(c, canAssign)

	for prec <= ruleFor(c.current.Kind).precedence {
		c.advance()
		infix := ruleFor(c.previous.Kind).infix
		infix(c, canAssign)
	}

	if canAssign && c.match(token.EQUAL) {
		c.error("invalid assignment target")
	}
}

func (c *compiler) number(canAssign bool) {
	n, err := strconv.ParseFloat(c.previous.Lexeme, 64)
	if err != nil {
		c.error("invalid number literal")
		return
	}
	c.emitConstant(value.Number(n))
}

func (c *compiler) string(canAssign bool) {
	raw := c.previous.Lexeme
	// previous.Lexeme spans the full token including the surrounding quotes.
	contents := raw[1 : len(raw)-1]
	c.emitBytes(byte(opConstant), c.identifierConstant(contents))
}

func (c *compiler) literal(canAssign bool) {
	switch c.previous.Kind {
	case token.FALSE:
		c.emitByte(byte(opFalse))
	case token.TRUE:
		c.emitByte(byte(opTrue))
	case token.NIL:
		c.emitByte(byte(opNil))
	}
}

func (c *compiler) grouping(canAssign bool) {
	c.expression()
	c.consume(token.RPAREN, "expect ')' after expression")
}

func (c *compiler) unary(canAssign bool) {
	op := c.previous.Kind
	c.parsePrecedence(precUnary)
	switch op {
	case token.BANG:
		c.emitByte(byte(opNot))
	case token.MINUS:
		c.emitByte(byte(opNegate))
	}
}

func (c *compiler) binary(canAssign bool) {
	op := c.previous.Kind
	rule := ruleFor(op)
	c.parsePrecedence(rule.precedence + 1)

	switch op {
	case token.BANG_EQUAL:
		c.emitBytes(byte(opEqual), byte(opNot))
	case token.EQUAL_EQUAL:
		c.emitByte(byte(opEqual))
	case token.GREATER:
		c.emitByte(byte(opGreater))
	case token.GREATER_EQUAL:
		c.emitBytes(byte(opLess), byte(opNot))
	case token.LESS:
		c.emitByte(byte(opLess))
	case token.LESS_EQUAL:
		c.emitBytes(byte(opGreater), byte(opNot))
	case token.PLUS:
		c.emitByte(byte(opAdd))
	case token.MINUS:
		c.emitByte(byte(opSubtract))
	case token.STAR:
		c.emitByte(byte(opMultiply))
	case token.SLASH:
		c.emitByte(byte(opDivide))
	}
}

func (c *compiler) and_(canAssign bool) {
	endJump := c.emitJump(byte(opJumpIfFalse))
	c.emitByte(byte(opPop))
	c.parsePrecedence(precAnd)
	c.patchJump(endJump)
}

func (c *compiler) or_(canAssign bool) {
	elseJump := c.emitJump(byte(opJumpIfFalse))
	endJump := c.emitJump(byte(opJump))

	c.patchJump(elseJump)
	c.emitByte(byte(opPop))

	c.parsePrecedence(precOr)
	c.patchJump(endJump)
}

func (c *compiler) call(canAssign bool) {
	argCount := c.argumentList()
	c.emitBytes(byte(opCall), argCount)
}

func (c *compiler) argumentList() byte {
	var count int
	if !c.check(token.RPAREN) {
		for {
			c.expression()
			if count == 255 {
				c.error("can't have more than 255 arguments")
			}
			count++
			if !c.match(token.COMMA) {
				break
			}
		}
	}
	c.consume(token.RPAREN, "expect ')' after arguments")
	return byte(count)
}

func (c *compiler) dot(canAssign bool) {
	c.consume(token.IDENTIFIER, "expect property name after '.'")
	name := c.identifierConstant(c.previous.Lexeme)

	switch {
	case canAssign && c.match(token.EQUAL):
		c.expression()
		c.emitBytes(byte(opSetProperty), name)
	case c.match(token.LPAREN):
		argCount := c.argumentList()
		c.emitBytes(byte(opInvoke), name)
		c.emitByte(argCount)
	default:
		c.emitBytes(byte(opGetProperty), name)
	}
}

func (c *compiler) variable(canAssign bool) {
	c.namedVariable(c.previous.Lexeme, canAssign)
}

func (c *compiler) namedVariable(name string, canAssign bool) {
	var getOp, setOp value.Opcode
	slot := c.resolveLocal(c.fn, name)
	switch {
	case slot != -1:
		getOp, setOp = opGetLocal, opSetLocal
	default:
		if slot = c.resolveUpvalue(c.fn, name); slot != -1 {
			getOp, setOp = opGetUpvalue, opSetUpvalue
		} else {
			slot = int(c.identifierConstant(name))
			getOp, setOp = opGetGlobal, opSetGlobal
		}
	}

	if canAssign && c.match(token.EQUAL) {
		c.expression()
		c.emitBytes(byte(setOp), byte(slot))
	} else {
		c.emitBytes(byte(getOp), byte(slot))
	}
}

func (c *compiler) this_(canAssign bool) {
	if c.class == nil {
		c.error("can't use 'this' outside of a class")
		return
	}
	c.variable(false)
}

func (c *compiler) super_(canAssign bool) {
	if c.class == nil {
		c.error("can't use 'super' outside of a class")
	} else if !c.class.hasSuperclass {
		c.error("can't use 'super' in a class with no superclass")
	}

	c.consume(token.DOT, "expect '.' after 'super'")
	c.consume(token.IDENTIFIER, "expect superclass method name")
	name := c.identifierConstant(c.previous.Lexeme)

	c.namedVariable("this", false)
	if c.match(token.LPAREN) {
		argCount := c.argumentList()
		c.namedVariable("super", false)
		c.emitBytes(byte(opSuperInvoke), name)
		c.emitByte(argCount)
	} else {
		c.namedVariable("super", false)
		c.emitBytes(byte(opGetSuper), name)
	}
}
