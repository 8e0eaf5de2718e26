package machine

import (
	"github.com/mna/glox/lang/value"
)

// callValue dispatches OP_CALL's runtime behavior by the kind of object
// sitting at stack[top-argc-1], matching clox's callValue switch: closures
// push a new frame, natives are invoked directly in place, classes become
// instances (running `init` if present), and bound methods rebind their
// receiver into slot 0 before falling through to the underlying closure.
func (vm *VM) callValue(callee value.Value, argc int) error {
	switch c := callee.(type) {
	case *value.Closure:
		return vm.call(c, argc)

	case *value.Native:
		args := append([]value.Value(nil), vm.stack[len(vm.stack)-argc:]...)
		result, err := c.Fn(args)
		if err != nil {
			return vm.runtimeError("%s", err)
		}
		vm.stack = vm.stack[:len(vm.stack)-argc-1]
		vm.push(result)
		return nil

	case *value.Class:
		instance := vm.heap.NewInstance(c)
		vm.stack[len(vm.stack)-argc-1] = instance
		vm.maybeCollect()
		if initializer, ok := c.Methods.Get(vm.initString()); ok {
			return vm.call(initializer.(*value.Closure), argc)
		}
		if argc != 0 {
			return vm.runtimeError("expected 0 arguments but got %d", argc)
		}
		return nil

	case *value.BoundMethod:
		vm.stack[len(vm.stack)-argc-1] = c.Receiver
		return vm.call(c.Method, argc)

	default:
		return vm.runtimeError("can only call functions and classes")
	}
}

// call pushes a new call frame for closure, base-pointed at the callee's own
// slot so slot 0 of the new frame is the callee (or receiver).
func (vm *VM) call(closure *value.Closure, argc int) error {
	if argc != closure.Fn.Arity {
		return vm.runtimeError("expected %d arguments but got %d", closure.Fn.Arity, argc)
	}
	if len(vm.frames) >= vm.MaxFrames {
		return vm.runtimeError("stack overflow")
	}

	vm.frames = append(vm.frames, frame{
		closure: closure,
		ip:      0,
		slots:   len(vm.stack) - argc - 1,
	})
	return nil
}

// getProperty implements OP_GET_PROPERTY: a field shadows a method of the
// same name, matching clox's table-then-bindMethod fallback order.
func (vm *VM) getProperty(fr *frame) error {
	name := vm.readString(fr)
	instance, ok := vm.peek(0).(*value.Instance)
	if !ok {
		return vm.runtimeError("only instances have properties")
	}

	if v, ok := instance.Fields.Get(name); ok {
		vm.pop()
		vm.push(v)
		return nil
	}

	bound, err := vm.bindMethod(instance.Class, name, instance)
	if err != nil {
		return err
	}
	vm.pop()
	vm.push(bound)
	vm.maybeCollect()
	return nil
}

func (vm *VM) setProperty(fr *frame) error {
	name := vm.readString(fr)
	instance, ok := vm.peek(1).(*value.Instance)
	if !ok {
		return vm.runtimeError("only instances have fields")
	}

	instance.Fields.Set(name, vm.peek(0))
	v := vm.pop()
	vm.pop()
	vm.push(v)
	return nil
}

// bindMethod allocates the bound method but does not trigger a collection
// check itself: the result isn't reachable from any root until the caller
// has pushed it, so the caller is responsible for calling maybeCollect after
// doing so.
func (vm *VM) bindMethod(class *value.Class, name *value.String, receiver value.Value) (*value.BoundMethod, error) {
	m, ok := class.Methods.Get(name)
	if !ok {
		return nil, vm.runtimeError("undefined property '%s'", name.Chars)
	}
	bound := vm.heap.NewBoundMethod(receiver, m.(*value.Closure))
	return bound, nil
}

// invoke fuses OP_GET_PROPERTY + OP_CALL: if the receiver has a field by
// that name, it is called like any other callable value rather than looked
// up as a method, so that a field holding a closure can shadow a method.
func (vm *VM) invoke(name *value.String, argc int) error {
	receiver, ok := vm.peek(argc).(*value.Instance)
	if !ok {
		return vm.runtimeError("only instances have methods")
	}

	if v, ok := receiver.Fields.Get(name); ok {
		vm.stack[len(vm.stack)-argc-1] = v
		return vm.callValue(v, argc)
	}

	return vm.invokeFromClass(receiver.Class, name, argc)
}

func (vm *VM) invokeFromClass(class *value.Class, name *value.String, argc int) error {
	m, ok := class.Methods.Get(name)
	if !ok {
		return vm.runtimeError("undefined property '%s'", name.Chars)
	}
	return vm.call(m.(*value.Closure), argc)
}

func (vm *VM) defineMethod(name *value.String) {
	method := vm.peek(0)
	class := vm.peek(1).(*value.Class)
	class.Methods.Set(name, method)
	vm.pop()
}

// initString returns the VM's interned "init" string, allocating and
// caching it on first use so every class-instantiation check compares
// against the same canonical *String rather than re-interning on every call.
func (vm *VM) initString() *value.String {
	if vm.initStr == nil {
		vm.initStr = vm.heap.NewString("init")
	}
	return vm.initStr
}
