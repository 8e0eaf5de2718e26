package compiler

import (
	"fmt"
	"strings"

	"github.com/mna/glox/lang/value"
)

// Disassemble renders every instruction in chunk as human-readable text,
// one line per instruction, in the `%04d offset, line (or "|" if the same
// as the previous instruction), mnemonic, operands` layout used by the
// `disassemble` debug command and by trace-mode single-instruction dumps.
func Disassemble(chunk *value.Chunk, name string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "== %s ==\n", name)
	for offset := 0; offset < len(chunk.Code); {
		line, next := DisassembleInstruction(chunk, offset)
		b.WriteString(line)
		b.WriteByte('\n')
		offset = next
	}
	return b.String()
}

// DisassembleInstruction renders the single instruction at offset and
// returns the offset of the instruction following it.
func DisassembleInstruction(chunk *value.Chunk, offset int) (string, int) {
	var b strings.Builder
	fmt.Fprintf(&b, "%04d ", offset)

	if offset > 0 && chunk.Lines[offset] == chunk.Lines[offset-1] {
		b.WriteString("   | ")
	} else {
		fmt.Fprintf(&b, "%4d ", chunk.Lines[offset])
	}

	op := value.Opcode(chunk.Code[offset])
	switch op {
	case value.OpConstant, value.OpGetGlobal, value.OpDefineGlobal, value.OpSetGlobal,
		value.OpGetProperty, value.OpSetProperty, value.OpGetSuper, value.OpClass, value.OpMethod:
		return constantInstruction(b.String(), chunk, op, offset)
	case value.OpGetLocal, value.OpSetLocal, value.OpGetUpvalue, value.OpSetUpvalue, value.OpCall:
		return byteInstruction(b.String(), op, chunk, offset)
	case value.OpJump, value.OpJumpIfFalse:
		return jumpInstruction(b.String(), op, 1, chunk, offset)
	case value.OpLoop:
		return jumpInstruction(b.String(), op, -1, chunk, offset)
	case value.OpInvoke, value.OpSuperInvoke:
		return invokeInstruction(b.String(), chunk, offset)
	case value.OpClosure:
		return closureInstruction(b.String(), chunk, offset)
	default:
		fmt.Fprintf(&b, "%s", op)
		return b.String(), offset + 1
	}
}

func constantInstruction(prefix string, chunk *value.Chunk, op value.Opcode, offset int) (string, int) {
	idx := chunk.Code[offset+1]
	return fmt.Sprintf("%s%-16s %4d '%s'", prefix, op, idx, chunk.Constants[idx]), offset + 2
}

func byteInstruction(prefix string, op value.Opcode, chunk *value.Chunk, offset int) (string, int) {
	slot := chunk.Code[offset+1]
	return fmt.Sprintf("%s%-16s %4d", prefix, op, slot), offset + 2
}

func jumpInstruction(prefix string, op value.Opcode, sign int, chunk *value.Chunk, offset int) (string, int) {
	jump := int(chunk.Code[offset+1])<<8 | int(chunk.Code[offset+2])
	target := offset + 3 + sign*jump
	return fmt.Sprintf("%s%-16s %4d -> %d", prefix, op, offset, target), offset + 3
}

func invokeInstruction(prefix string, chunk *value.Chunk, offset int) (string, int) {
	idx := chunk.Code[offset+1]
	argc := chunk.Code[offset+2]
	name := chunk.Constants[idx]
	return fmt.Sprintf("%s%-16s (%d args) %4d '%s'", prefix, value.Opcode(chunk.Code[offset]), argc, idx, name), offset + 3
}

func closureInstruction(prefix string, chunk *value.Chunk, offset int) (string, int) {
	idx := chunk.Code[offset+1]
	fn := chunk.Constants[idx]
	var b strings.Builder
	fmt.Fprintf(&b, "%s%-16s %4d '%s'", prefix, value.OpClosure, idx, fn)
	offset += 2

	if f, ok := fn.(*value.Function); ok {
		for i := 0; i < f.UpvalueCount; i++ {
			isLocal := chunk.Code[offset]
			index := chunk.Code[offset+1]
			kind := "upvalue"
			if isLocal == 1 {
				kind = "local"
			}
			fmt.Fprintf(&b, "\n%04d      |                     %s %d", offset, kind, index)
			offset += 2
		}
	}
	return b.String(), offset
}
