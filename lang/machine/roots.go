package machine

import "github.com/mna/glox/lang/value"

// markRoots enumerates every GC root owned by the VM: the live portion of
// the value stack, every active call frame's closure, every open upvalue
// (closed ones are reached through their owning closure instead), the
// globals table's keys and values, and the cached "init" string.
func (vm *VM) markRoots(mark func(value.Value)) {
	for _, v := range vm.stack {
		mark(v)
	}
	for i := range vm.frames {
		mark(vm.frames[i].closure)
	}
	for uv := vm.openUpvalues; uv != nil; uv = uv.Next {
		mark(uv)
	}
	vm.globals.Each(func(k *value.String, v value.Value) {
		mark(k)
		mark(v)
	})
	if vm.initStr != nil {
		mark(vm.initStr)
	}
}
