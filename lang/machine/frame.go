package machine

import "github.com/mna/glox/lang/value"

// frame is one active call: the closure being executed, the instruction
// pointer into its chunk, and the base index into the VM's shared value
// stack where this call's locals begin: slot 0 holds the callee (or the
// receiver, for methods) and the parameters follow from slot 1.
type frame struct {
	closure *value.Closure
	ip      int
	slots   int
}

func (f *frame) chunk() *value.Chunk { return &f.closure.Fn.Chunk }

func (f *frame) line() int {
	if f.ip == 0 {
		return f.chunk().Lines[0]
	}
	return f.chunk().Lines[f.ip-1]
}
