package machine

import (
	"fmt"

	"github.com/mna/glox/lang/value"
)

// run drives the current top frame's instructions to completion: it returns
// nil once the outermost frame returns, or a *RuntimeError the moment any
// instruction fails. There is no separate "step" API; the whole call stack
// unwinds through ordinary Go returns once an error is produced, mirroring
// clox's `goto` to a shared error path with a flat switch in its place.
func (vm *VM) run() error {
	fr := vm.currentFrame()

	for {
		if vm.TraceExecution {
			vm.disassembleCurrent()
		}

		op := value.Opcode(vm.readByte(fr))
		switch op {
		case value.OpConstant:
			vm.push(vm.readConstant(fr))

		case value.OpNil:
			vm.push(value.NilValue)
		case value.OpTrue:
			vm.push(value.True)
		case value.OpFalse:
			vm.push(value.False)

		case value.OpPop:
			vm.pop()

		case value.OpGetLocal:
			slot := vm.readByte(fr)
			vm.push(vm.stack[fr.slots+int(slot)])

		case value.OpSetLocal:
			slot := vm.readByte(fr)
			vm.stack[fr.slots+int(slot)] = vm.peek(0)

		case value.OpGetGlobal:
			name := vm.readString(fr)
			v, ok := vm.globals.Get(name)
			if !ok {
				return vm.runtimeError("undefined variable '%s'", name.Chars)
			}
			vm.push(v)

		case value.OpDefineGlobal:
			name := vm.readString(fr)
			vm.globals.Set(name, vm.peek(0))
			vm.pop()

		case value.OpSetGlobal:
			name := vm.readString(fr)
			if vm.globals.Set(name, vm.peek(0)) {
				vm.globals.Delete(name)
				return vm.runtimeError("undefined variable '%s'", name.Chars)
			}

		case value.OpGetUpvalue:
			slot := vm.readByte(fr)
			vm.push(fr.closure.Upvalues[slot].Get())

		case value.OpSetUpvalue:
			slot := vm.readByte(fr)
			fr.closure.Upvalues[slot].Set(vm.peek(0))

		case value.OpGetProperty:
			if err := vm.getProperty(fr); err != nil {
				return err
			}

		case value.OpSetProperty:
			if err := vm.setProperty(fr); err != nil {
				return err
			}

		case value.OpGetSuper:
			name := vm.readString(fr)
			superclass := vm.pop().(*value.Class)
			receiver := vm.pop()
			bound, err := vm.bindMethod(superclass, name, receiver)
			if err != nil {
				return err
			}
			vm.push(bound)
			vm.maybeCollect()

		case value.OpEqual:
			b := vm.pop()
			a := vm.pop()
			vm.push(value.Bool(value.Equal(a, b)))

		case value.OpGreater:
			if err := vm.numericBinary(op); err != nil {
				return err
			}
		case value.OpLess:
			if err := vm.numericBinary(op); err != nil {
				return err
			}

		case value.OpAdd:
			if err := vm.add(); err != nil {
				return err
			}
		case value.OpSubtract, value.OpMultiply, value.OpDivide:
			if err := vm.numericBinary(op); err != nil {
				return err
			}

		case value.OpNot:
			vm.push(value.Bool(!value.Truth(vm.pop())))

		case value.OpNegate:
			n, ok := vm.peek(0).(value.Number)
			if !ok {
				return vm.runtimeError("operand must be a number")
			}
			vm.pop()
			vm.push(-n)

		case value.OpPrint:
			fmt.Fprintln(vm.Stdout, printed(vm.pop()))

		case value.OpJump:
			offset := vm.readShort(fr)
			fr.ip += int(offset)

		case value.OpJumpIfFalse:
			offset := vm.readShort(fr)
			if !value.Truth(vm.peek(0)) {
				fr.ip += int(offset)
			}

		case value.OpLoop:
			offset := vm.readShort(fr)
			fr.ip -= int(offset)

		case value.OpCall:
			argc := int(vm.readByte(fr))
			if err := vm.callValue(vm.peek(argc), argc); err != nil {
				return err
			}
			fr = vm.currentFrame()

		case value.OpInvoke:
			name := vm.readString(fr)
			argc := int(vm.readByte(fr))
			if err := vm.invoke(name, argc); err != nil {
				return err
			}
			fr = vm.currentFrame()

		case value.OpSuperInvoke:
			name := vm.readString(fr)
			argc := int(vm.readByte(fr))
			superclass := vm.pop().(*value.Class)
			if err := vm.invokeFromClass(superclass, name, argc); err != nil {
				return err
			}
			fr = vm.currentFrame()

		case value.OpClosure:
			fn := vm.readConstant(fr).(*value.Function)
			closure := vm.heap.NewClosure(fn)
			// Push before capturing: captureUpvalue may itself allocate and
			// trigger a collection, and closure must already be reachable from
			// the stack root at that point.
			vm.push(closure)
			vm.maybeCollect()
			for i := 0; i < fn.UpvalueCount; i++ {
				isLocal := vm.readByte(fr)
				index := vm.readByte(fr)
				if isLocal == 1 {
					closure.Upvalues[i] = vm.captureUpvalue(fr.slots + int(index))
				} else {
					closure.Upvalues[i] = fr.closure.Upvalues[index]
				}
			}

		case value.OpCloseUpvalue:
			vm.closeUpvalues(len(vm.stack) - 1)
			vm.pop()

		case value.OpReturn:
			result := vm.pop()
			vm.closeUpvalues(fr.slots)
			vm.frames = vm.frames[:len(vm.frames)-1]
			if len(vm.frames) == 0 {
				vm.pop() // the root script closure
				return nil
			}
			vm.stack = vm.stack[:fr.slots]
			vm.push(result)
			fr = vm.currentFrame()

		case value.OpClass:
			name := vm.readString(fr)
			vm.push(vm.heap.NewClass(name))
			vm.maybeCollect()

		case value.OpInherit:
			superclass, ok := vm.peek(1).(*value.Class)
			if !ok {
				return vm.runtimeError("superclass must be a class")
			}
			subclass := vm.peek(0).(*value.Class)
			superclass.Methods.AddAll(&subclass.Methods)
			vm.pop() // subclass

		case value.OpMethod:
			name := vm.readString(fr)
			vm.defineMethod(name)

		default:
			return vm.runtimeError("unknown opcode %d", byte(op))
		}

	}
}

func (vm *VM) currentFrame() *frame { return &vm.frames[len(vm.frames)-1] }

func (vm *VM) readByte(fr *frame) byte {
	b := fr.chunk().Code[fr.ip]
	fr.ip++
	return b
}

func (vm *VM) readShort(fr *frame) uint16 {
	hi := vm.readByte(fr)
	lo := vm.readByte(fr)
	return uint16(hi)<<8 | uint16(lo)
}

func (vm *VM) readConstant(fr *frame) value.Value {
	return fr.chunk().Constants[vm.readByte(fr)]
}

func (vm *VM) readString(fr *frame) *value.String {
	return vm.readConstant(fr).(*value.String)
}

// printed renders v the way `print` writes it: raw string contents rather
// than the quoted form String() uses for error messages and disassembly.
func printed(v value.Value) string {
	if s, ok := v.(*value.String); ok {
		return s.Display()
	}
	return v.String()
}

func (vm *VM) add() error {
	b := vm.peek(0)
	a := vm.peek(1)

	switch av := a.(type) {
	case value.Number:
		bv, ok := b.(value.Number)
		if !ok {
			return vm.runtimeError("operands must be two numbers or two strings")
		}
		vm.pop()
		vm.pop()
		vm.push(av + bv)
		return nil
	case *value.String:
		bv, ok := b.(*value.String)
		if !ok {
			return vm.runtimeError("operands must be two numbers or two strings")
		}
		// a and b stay reachable on the stack (peeked, not popped) until the
		// new string is fully allocated, since NewString may trigger a GC.
		result := vm.heap.NewString(av.Chars + bv.Chars)
		vm.pop()
		vm.pop()
		vm.push(result)
		vm.maybeCollect()
		return nil
	default:
		return vm.runtimeError("operands must be two numbers or two strings")
	}
}

func (vm *VM) numericBinary(op value.Opcode) error {
	bv, bok := vm.peek(0).(value.Number)
	av, aok := vm.peek(1).(value.Number)
	if !aok || !bok {
		return vm.runtimeError("operands must be numbers")
	}
	vm.pop()
	vm.pop()

	switch op {
	case value.OpGreater:
		vm.push(value.Bool(av > bv))
	case value.OpLess:
		vm.push(value.Bool(av < bv))
	case value.OpSubtract:
		vm.push(av - bv)
	case value.OpMultiply:
		vm.push(av * bv)
	case value.OpDivide:
		vm.push(av / bv)
	}
	return nil
}
