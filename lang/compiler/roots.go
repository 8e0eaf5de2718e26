package compiler

import "github.com/mna/glox/lang/value"

// markRoots marks every Function currently mid-compilation as a GC root:
// the chunk of the innermost function being compiled plus every enclosing
// function up to the top-level script, none of which are reachable from the
// VM yet (compilation finishes before Interpret ever runs). This is the
// compiler-side half of spec.md's root enumeration; the VM-side half is
// machine.(*VM).markRoots.
func (c *compiler) markRoots(mark func(value.Value)) {
	for fs := c.fn; fs != nil; fs = fs.enclosing {
		mark(fs.fn)
	}
}

// newString interns s and gives the GC a chance to run first, since the
// function currently being compiled is reachable only via markRoots, not
// via any VM the heap may not even have yet.
func (c *compiler) newString(s string) *value.String {
	if c.heap.ShouldCollect() {
		c.heap.Collect(c.markRoots)
	}
	return c.heap.NewString(s)
}

func (c *compiler) newFunction() *value.Function {
	if c.heap.ShouldCollect() {
		c.heap.Collect(c.markRoots)
	}
	return c.heap.NewFunction()
}
