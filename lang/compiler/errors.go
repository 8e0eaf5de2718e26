package compiler

import "fmt"

// CompileError describes a single compile-time diagnostic, reported as
// `[line N] error at '<lexeme>': <message>` on standard error. Multiple
// errors may accumulate from a single source (panic-mode recovery
// resynchronizes at statement boundaries instead of aborting immediately).
type CompileError struct {
	Line    int
	Lexeme  string
	AtEnd   bool
	Message string
}

func (e CompileError) Error() string {
	where := fmt.Sprintf("at '%s'", e.Lexeme)
	if e.AtEnd {
		where = "at end"
	}
	return fmt.Sprintf("[line %d] error %s: %s", e.Line, where, e.Message)
}
