package value

// Kind identifies the concrete type of a heap object, mirroring the tag
// every heap object carries in its header.
type Kind uint8

const (
	KindString Kind = iota
	KindFunction
	KindNative
	KindClosure
	KindUpvalue
	KindClass
	KindInstance
	KindBoundMethod
)

func (k Kind) String() string {
	switch k {
	case KindString:
		return "string"
	case KindFunction:
		return "function"
	case KindNative:
		return "native function"
	case KindClosure:
		return "closure"
	case KindUpvalue:
		return "upvalue"
	case KindClass:
		return "class"
	case KindInstance:
		return "instance"
	case KindBoundMethod:
		return "bound method"
	default:
		return "unknown object"
	}
}

// Header is embedded by every heap-allocated object. It carries the mark
// bit the collector flips during the mark phase and the next-pointer that
// threads the object into the allocator's intrusive list of every live
// object, so sweep can walk and free them without a second container.
type Header struct {
	kind   Kind
	marked bool
	next   Obj
}

// Kind returns the object's kind tag.
func (h *Header) Kind() Kind { return h.kind }

// Obj is implemented by every heap-allocated Value: strings, functions,
// native functions, closures, upvalues, classes, instances, and bound
// methods. Only Obj values are linked into the allocator's object list and
// traced by the collector; Nil, Bool and Number are not heap objects.
type Obj interface {
	Value
	header() *Header
	// trace calls mark on every Value this object directly references, so
	// the collector can blacken it without type-switching on every Kind at
	// every call site.
	trace(mark func(Value))
}
