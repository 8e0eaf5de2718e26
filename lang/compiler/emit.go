package compiler

import (
	"github.com/dolthub/swiss"

	"github.com/mna/glox/lang/value"
)

// opcode aliases keep this package's call sites short; they are exactly
// value.Opcode under the hood since Chunk (and its constant pool) must
// live alongside Value to avoid a compiler<->value import cycle.
const (
	opConstant     = value.OpConstant
	opNil          = value.OpNil
	opTrue         = value.OpTrue
	opFalse        = value.OpFalse
	opPop          = value.OpPop
	opGetLocal     = value.OpGetLocal
	opSetLocal     = value.OpSetLocal
	opGetGlobal    = value.OpGetGlobal
	opDefineGlobal = value.OpDefineGlobal
	opSetGlobal    = value.OpSetGlobal
	opGetUpvalue   = value.OpGetUpvalue
	opSetUpvalue   = value.OpSetUpvalue
	opGetProperty  = value.OpGetProperty
	opSetProperty  = value.OpSetProperty
	opGetSuper     = value.OpGetSuper
	opEqual        = value.OpEqual
	opGreater      = value.OpGreater
	opLess         = value.OpLess
	opAdd          = value.OpAdd
	opSubtract     = value.OpSubtract
	opMultiply     = value.OpMultiply
	opDivide       = value.OpDivide
	opNot          = value.OpNot
	opNegate       = value.OpNegate
	opPrint        = value.OpPrint
	opJump         = value.OpJump
	opJumpIfFalse  = value.OpJumpIfFalse
	opLoop         = value.OpLoop
	opCall         = value.OpCall
	opInvoke       = value.OpInvoke
	opSuperInvoke  = value.OpSuperInvoke
	opClosure      = value.OpClosure
	opCloseUpvalue = value.OpCloseUpvalue
	opReturn       = value.OpReturn
	opClass        = value.OpClass
	opInherit      = value.OpInherit
	opMethod       = value.OpMethod
)

func (c *compiler) currentChunk() *value.Chunk { return &c.fn.fn.Chunk }

func (c *compiler) emitByte(b byte) {
	c.currentChunk().Write(b, c.previous.Line)
}

func (c *compiler) emitBytes(b1, b2 byte) {
	c.emitByte(b1)
	c.emitByte(b2)
}

func (c *compiler) emitLoop(loopStart int) {
	c.emitByte(byte(opLoop))
	offset := len(c.currentChunk().Code) - loopStart + 2
	if offset > 0xffff {
		c.error("loop body too large")
	}
	c.emitByte(byte(offset >> 8 & 0xff))
	c.emitByte(byte(offset & 0xff))
}

// emitJump writes a two-byte placeholder operand after instruction op and
// returns its offset, to be filled in later by patchJump.
func (c *compiler) emitJump(op byte) int {
	c.emitByte(op)
	c.emitByte(0xff)
	c.emitByte(0xff)
	return len(c.currentChunk().Code) - 2
}

func (c *compiler) patchJump(offset int) {
	code := c.currentChunk().Code
	jump := len(code) - offset - 2
	if jump > 0xffff {
		c.error("too much code to jump over")
	}
	code[offset] = byte(jump >> 8 & 0xff)
	code[offset+1] = byte(jump & 0xff)
}

func (c *compiler) emitReturn() {
	if c.fn.fnType == typeInitializer {
		// an initializer implicitly returns the instance in slot 0, even on a
		// bare `return;`.
		c.emitBytes(byte(opGetLocal), 0)
	} else {
		c.emitByte(byte(opNil))
	}
	c.emitByte(byte(opReturn))
}

// makeConstant appends v to the current chunk's constant pool, reporting an
// error instead of overflowing the single-byte operand OP_CONSTANT uses.
func (c *compiler) makeConstant(v value.Value) byte {
	idx := c.currentChunk().AddConstant(v)
	if idx > 0xff {
		c.error("too many constants in one chunk")
		return 0
	}
	return byte(idx)
}

func (c *compiler) emitConstant(v value.Value) {
	c.emitBytes(byte(opConstant), c.makeConstant(v))
}

// stringConstants deduplicates string constants within a single chunk:
// referencing the same identifier name or string literal twice in one
// function would otherwise add a duplicate entry to the constant pool every
// time. Keyed on the raw string content, scoped per funcState since
// constant pools are per chunk.
type stringConstants struct {
	idx *swiss.Map[string, byte]
}

func newStringConstants() *stringConstants {
	return &stringConstants{idx: swiss.NewMap[string, byte](uint32(8))}
}

// identifierConstant interns name as a heap string and returns its
// constant-pool index, reusing a previous index for the same content within
// this function's chunk. String literals go through it as well.
func (c *compiler) identifierConstant(name string) byte {
	if c.fn.strConsts == nil {
		c.fn.strConsts = newStringConstants()
	}
	if idx, ok := c.fn.strConsts.idx.Get(name); ok {
		return idx
	}
	idx := c.makeConstant(c.newString(name))
	c.fn.strConsts.idx.Put(name, idx)
	return idx
}
