package machine

import "strings"

// RuntimeError is returned by Interpret when execution fails after
// compilation succeeded: a type error, an undefined variable or property,
// an arity mismatch, stack overflow, or any other condition the language
// defines as a runtime fault. Trace holds one line per active call frame, innermost
// first, in the `[line N] in name()` form clox prints to stderr. Line is the
// source line of the innermost frame, i.e. where the fault actually occurred.
type RuntimeError struct {
	Message string
	Line    int
	Trace   []string
}

func (e *RuntimeError) Error() string {
	var b strings.Builder
	b.WriteString(e.Message)
	for _, line := range e.Trace {
		b.WriteByte('\n')
		b.WriteString(line)
	}
	return b.String()
}
