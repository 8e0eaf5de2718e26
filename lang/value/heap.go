package value

import (
	"fmt"
	"io"
)

const heapGrowFactor = 2

// Heap is the shared allocator used by both the compiler (while it builds
// function chunks) and the VM (while it executes them). Every heap object
// created anywhere in the program passes through one of its New* methods,
// which link the object into Heap.objects so Collect can find it again.
//
// Heap also runs the collector itself: a precise, tracing mark-sweep pass
// triggered by allocation pressure. Because the objects it manages are
// ordinary Go values that Go's own runtime already garbage collects, the
// collector here does not free memory in the C sense; it faithfully
// reproduces the mark/sweep bookkeeping (the object list, the weak intern
// table, the byte-accounting heuristic, and the log_gc trace) so that the
// invariants the rest of the system is built on - e.g. that an unreachable
// string is dropped from the intern table - hold exactly as specified.
type Heap struct {
	objects Obj
	strings Table // the string interner

	bytesAllocated int
	nextGC         int

	gray []Obj

	StressGC bool
	LogGC    bool
	LogOut   io.Writer
}

// NewHeap returns a Heap ready to allocate, with the first collection
// threshold set to 1 MiB, matching the original collector's startup value.
func NewHeap() *Heap {
	return &Heap{nextGC: 1024 * 1024, LogOut: io.Discard}
}

func (h *Heap) logf(format string, args ...any) {
	if h.LogGC {
		fmt.Fprintf(h.LogOut, format, args...)
	}
}

func (h *Heap) link(o Obj, kind Kind, size int) {
	header := o.header()
	header.kind = kind
	header.next = h.objects
	h.objects = o
	h.bytesAllocated += size
	h.logf("%p allocate %d for %s\n", o, size, kind)
}

// NewString interns chars, returning the canonical *String for that
// content. If an equal string was already interned, the existing object is
// returned and no allocation happens; this is what gives interned strings
// reference equality.
func (h *Heap) NewString(chars string) *String {
	hash := hashString(chars)
	if s := h.strings.FindString(chars, hash); s != nil {
		return s
	}

	s := &String{Chars: chars, Hash: hash}
	h.link(s, KindString, len(chars)+16)
	// the intern table's value is unused (a Table needs one to distinguish a
	// live entry from a tombstone); True is the conventional placeholder.
	h.strings.Set(s, True)
	return s
}

// NewFunction allocates an empty Function; callers fill in Arity,
// UpvalueCount, Name and Chunk as compilation of the function's body
// proceeds.
func (h *Heap) NewFunction() *Function {
	f := &Function{}
	h.link(f, KindFunction, 64)
	return f
}

// NewNative wraps fn as a callable native function named name.
func (h *Heap) NewNative(name string, fn NativeFn) *Native {
	n := &Native{Name: name, Fn: fn}
	h.link(n, KindNative, 32)
	return n
}

// NewClosure creates a closure over fn with upvalueCount empty upvalue
// slots, ready for the VM to populate when it executes OP_CLOSURE.
func (h *Heap) NewClosure(fn *Function) *Closure {
	c := &Closure{Fn: fn, Upvalues: make([]*Upvalue, fn.UpvalueCount)}
	h.link(c, KindClosure, 16+8*fn.UpvalueCount)
	return c
}

// NewUpvalue creates an open upvalue pointing at the given stack slot.
func (h *Heap) NewUpvalue(location *Value, slot int) *Upvalue {
	u := &Upvalue{Location: location, Slot: slot}
	h.link(u, KindUpvalue, 24)
	return u
}

// NewClass creates an empty class with the given name and no methods.
func (h *Heap) NewClass(name *String) *Class {
	c := &Class{Name: name}
	h.link(c, KindClass, 48)
	return c
}

// NewInstance creates a field-less instance of class.
func (h *Heap) NewInstance(class *Class) *Instance {
	i := &Instance{Class: class}
	h.link(i, KindInstance, 48)
	return i
}

// NewBoundMethod binds method to receiver.
func (h *Heap) NewBoundMethod(receiver Value, method *Closure) *BoundMethod {
	b := &BoundMethod{Receiver: receiver, Method: method}
	h.link(b, KindBoundMethod, 24)
	return b
}

// ShouldCollect reports whether allocation pressure (or stress mode)
// warrants a collection before the next allocation-heavy opcode runs. The
// VM and compiler call this, then Collect, around any point where they are
// about to allocate and can first establish their roots.
func (h *Heap) ShouldCollect() bool {
	return h.StressGC || h.bytesAllocated > h.nextGC
}

// Collect runs one full mark-sweep cycle. markRoots is called once, and
// must call the supplied mark function for every root value reachable from
// the caller's state (VM stack, call frames, open upvalues, globals, and
// any compiler currently mid-compile); Collect then traces from those roots
// through the object graph, sweeps the intern table of strings that did not
// survive, and finally frees (unlinks and un-accounts) every unmarked
// object.
func (h *Heap) Collect(markRoots func(mark func(Value))) {
	h.logf("-- gc begin\n")
	before := h.bytesAllocated

	markRoots(h.markValue)
	h.traceReferences()
	h.sweepStrings()
	h.sweep()

	h.nextGC = h.bytesAllocated * heapGrowFactor
	if h.nextGC < 1024*1024 {
		h.nextGC = 1024 * 1024
	}

	h.logf("-- gc end\n")
	h.logf("   collected %d bytes (from %d to %d) next at %d\n",
		before-h.bytesAllocated, before, h.bytesAllocated, h.nextGC)
}

func (h *Heap) markValue(v Value) {
	if v == nil {
		return
	}
	if o, ok := v.(Obj); ok {
		h.markObject(o)
	}
}

func (h *Heap) markObject(o Obj) {
	if o == nil {
		return
	}
	header := o.header()
	if header.marked {
		return
	}
	header.marked = true
	h.logf("%p mark %s\n", o, header.kind)
	h.gray = append(h.gray, o)
}

func (h *Heap) traceReferences() {
	for len(h.gray) > 0 {
		n := len(h.gray) - 1
		o := h.gray[n]
		h.gray = h.gray[:n]
		h.logf("%p blacken %s\n", o, o.header().kind)
		o.trace(h.markValue)
	}
}

// sweepStrings drops every interned string whose key did not survive the
// mark phase, so that a string with no remaining reference cannot be
// returned by a later FindString lookup only to be freed out from under it
// the moment sweep gets to its bucket.
func (h *Heap) sweepStrings() {
	var dead []*String
	h.strings.Each(func(key *String, _ Value) {
		if !key.Header.marked {
			dead = append(dead, key)
		}
	})
	for _, key := range dead {
		h.strings.Delete(key)
	}
}

func (h *Heap) sweep() {
	var prev Obj
	obj := h.objects
	for obj != nil {
		header := obj.header()
		if header.marked {
			header.marked = false
			prev = obj
			obj = header.next
			continue
		}

		unreached := obj
		obj = header.next
		if prev != nil {
			prev.header().next = obj
		} else {
			h.objects = obj
		}
		h.free(unreached)
	}
}

func (h *Heap) free(o Obj) {
	h.logf("%p free %s\n", o, o.header().kind)
	h.bytesAllocated -= objectSize(o)
	if h.bytesAllocated < 0 {
		h.bytesAllocated = 0
	}
}

func objectSize(o Obj) int {
	switch v := o.(type) {
	case *String:
		return len(v.Chars) + 16
	case *Function:
		return 64
	case *Native:
		return 32
	case *Closure:
		return 16 + 8*len(v.Upvalues)
	case *Upvalue:
		return 24
	case *Class:
		return 48
	case *Instance:
		return 48
	case *BoundMethod:
		return 24
	default:
		return 16
	}
}
