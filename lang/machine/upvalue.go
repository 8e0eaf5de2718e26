package machine

import "github.com/mna/glox/lang/value"

// captureUpvalue returns the open upvalue for stack slot, reusing one
// already open at that exact slot if a nested closure captured it earlier,
// otherwise inserting a new open upvalue into the VM's intrusive list at the
// position that keeps the list sorted by strictly descending slot, per
// spec.md's upvalue invariant.
func (vm *VM) captureUpvalue(slot int) *value.Upvalue {
	var prev *value.Upvalue
	cur := vm.openUpvalues
	for cur != nil && cur.Slot > slot {
		prev = cur
		cur = cur.Next
	}
	if cur != nil && cur.Slot == slot {
		return cur
	}

	created := vm.heap.NewUpvalue(&vm.stack[slot], slot)
	created.Next = cur
	if prev == nil {
		vm.openUpvalues = created
	} else {
		prev.Next = created
	}
	vm.maybeCollect()
	return created
}

// closeUpvalues closes (moves off the stack into the upvalue's own Closed
// field) every open upvalue at or above stack index minSlot, and unlinks
// them from the VM's open list. Called both at block-scope exit (for a
// single slot) and on OP_RETURN (for the whole departing frame).
func (vm *VM) closeUpvalues(minSlot int) {
	for vm.openUpvalues != nil && vm.openUpvalues.Slot >= minSlot {
		uv := vm.openUpvalues
		uv.Close()
		vm.openUpvalues = uv.Next
		uv.Next = nil
	}
}
