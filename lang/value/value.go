// Package value implements the glox value and object model: the tagged
// value union, the heap objects that back it (strings, functions, closures,
// classes, instances), the open-addressed hash table used for globals,
// methods and fields, the bytecode chunk, and the allocator/garbage
// collector that ties them together.
//
// A Value is represented as a Go interface: Nil, Bool and Number are small
// value types that implement it directly, and every heap-allocated kind is
// a pointer type implementing it. Go's interface equality (dynamic type +
// pointer identity for pointer types) gives exactly the identity semantics
// the language requires, since interning guarantees that two strings with
// equal content share one underlying *String.
package value

import "fmt"

// Value is any value a glox program can hold in a local, global, field, or
// on the operand stack.
type Value interface {
	// String returns the value's textual representation. `print` writes it
	// for every value except strings, which it writes unquoted via
	// (*String).Display.
	String() string
	// Type returns a short, human-readable type name ("number", "string",
	// "nil", ...).
	Type() string
}

// Nil is the type of the singleton nil value.
type Nil struct{}

func (Nil) String() string { return "nil" }
func (Nil) Type() string   { return "nil" }

// NilValue is the one and only nil value.
var NilValue = Nil{}

// Bool is a boolean value.
type Bool bool

func (b Bool) String() string {
	if b {
		return "true"
	}
	return "false"
}
func (Bool) Type() string { return "boolean" }

// True and False are the two Bool values, exported for convenience.
const (
	True  = Bool(true)
	False = Bool(false)
)

// Number is glox's only numeric type: an IEEE-754 double-precision float,
// matching the language's lack of a separate integer type.
type Number float64

func (n Number) String() string {
	return fmt.Sprintf("%g", float64(n))
}
func (Number) Type() string { return "number" }

// Truth reports whether v is truthy: everything except nil and boolean
// false is truthy.
func Truth(v Value) bool {
	switch vv := v.(type) {
	case Nil:
		return false
	case Bool:
		return bool(vv)
	default:
		return true
	}
}

// Equal implements glox's `==`: nil equals nil, booleans compare by
// content, numbers by IEEE-754 equality, and everything else (heap
// objects) by reference. Because strings are always interned, two strings
// with equal content are the same *String and so already compare equal by
// reference without any special case here.
func Equal(a, b Value) bool {
	switch av := a.(type) {
	case Nil:
		_, ok := b.(Nil)
		return ok
	case Bool:
		bv, ok := b.(Bool)
		return ok && av == bv
	case Number:
		bv, ok := b.(Number)
		return ok && av == bv
	default:
		return a == b
	}
}
