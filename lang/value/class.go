package value

import "fmt"

// Class is a glox class: a name and a method table mapping method name to
// the Closure implementing it. Classes have no fields of their own; state
// lives on Instances.
type Class struct {
	Header
	Name    *String
	Methods Table
}

func (c *Class) header() *Header { return &c.Header }
func (c *Class) trace(mark func(Value)) {
	mark(c.Name)
	c.Methods.Each(func(k *String, v Value) { mark(k); mark(v) })
}
func (c *Class) String() string { return c.Name.Chars }
func (c *Class) Type() string   { return "class" }

// Instance is an instance of a Class, carrying its own field table.
type Instance struct {
	Header
	Class  *Class
	Fields Table
}

func (i *Instance) header() *Header { return &i.Header }
func (i *Instance) trace(mark func(Value)) {
	mark(i.Class)
	i.Fields.Each(func(k *String, v Value) { mark(k); mark(v) })
}
func (i *Instance) String() string { return fmt.Sprintf("%s instance", i.Class.Name.Chars) }
func (i *Instance) Type() string   { return "instance" }

// BoundMethod pairs a receiver value with the Closure of one of its
// class's methods, produced when a method is read off an instance without
// immediately being called (`var m = obj.method; m();`).
type BoundMethod struct {
	Header
	Receiver Value
	Method   *Closure
}

func (b *BoundMethod) header() *Header { return &b.Header }
func (b *BoundMethod) trace(mark func(Value)) {
	mark(b.Receiver)
	mark(b.Method)
}
func (b *BoundMethod) String() string { return b.Method.String() }
func (b *BoundMethod) Type() string   { return "bound method" }
