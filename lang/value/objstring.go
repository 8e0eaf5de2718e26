package value

import "strconv"

// String is a heap-allocated, immutable byte string. Every String in a
// running program is interned: two strings with equal content are always
// represented by the same *String, which is what lets '==' compare strings
// by pointer identity (see Equal).
type String struct {
	Header
	Chars string
	Hash  uint32
}

func (s *String) header() *Header       { return &s.Header }
func (s *String) trace(mark func(Value)) {}
func (s *String) String() string        { return strconv.Quote(s.Chars) }
func (s *String) Type() string          { return "string" }

// Display returns the string's raw contents, as `print` writes it (unlike
// String, which quotes the way error messages and Go's %v do).
func (s *String) Display() string { return s.Chars }

// hashString computes the 32-bit FNV-1a hash of s, the same algorithm used
// to key every string in the intern table and in every Table that uses
// strings as keys.
func hashString(s string) uint32 {
	var h uint32 = 2166136261
	for i := 0; i < len(s); i++ {
		h ^= uint32(s[i])
		h *= 16777619
	}
	return h
}
