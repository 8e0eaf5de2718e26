package compiler

// beginScope and endScope bracket a lexical block. Locals declared inside
// are popped (or, if captured, closed into upvalues) when the block ends.
func (c *compiler) beginScope() { c.fn.scope++ }

func (c *compiler) endScope() {
	c.fn.scope--
	fs := c.fn
	for len(fs.locals) > 0 && fs.locals[len(fs.locals)-1].depth > fs.scope {
		last := fs.locals[len(fs.locals)-1]
		if last.isCaptured {
			c.emitByte(byte(opCloseUpvalue))
		} else {
			c.emitByte(byte(opPop))
		}
		fs.locals = fs.locals[:len(fs.locals)-1]
	}
}

// declareVariable registers the identifier in c.previous as a new local in
// the current scope, or does nothing at global scope (globals are resolved
// by name at runtime, not by slot). It rejects redeclaration of the same
// name within the same block.
func (c *compiler) declareVariable(name string) {
	if c.fn.scope == 0 {
		return
	}

	fs := c.fn
	for i := len(fs.locals) - 1; i >= 0; i-- {
		l := fs.locals[i]
		if l.depth != -1 && l.depth < fs.scope {
			break
		}
		if l.name == name {
			c.error("already a variable with this name in this scope")
		}
	}
	c.addLocal(name)
}

func (c *compiler) addLocal(name string) {
	if len(c.fn.locals) >= maxLocals {
		c.error("too many local variables in function")
		return
	}
	c.fn.locals = append(c.fn.locals, local{name: name, depth: -1})
}

// markInitialized marks the most recently declared local as usable. It is
// a no-op at global scope, where there is no local slot to initialize. A
// function declaration calls it before compiling the body, so the function
// may refer to itself recursively; other declarations call it only after
// their initializer expression is compiled, so that reading the variable in
// its own initializer (`var a = a;`) is reported by resolveLocal as a
// compile error.
func (c *compiler) markInitialized() {
	if c.fn.scope == 0 {
		return
	}
	c.fn.locals[len(c.fn.locals)-1].depth = c.fn.scope
}

// resolveLocal returns the stack slot of the nearest local named name in
// fs, or -1 if none is declared there. Finding one still being initialized
// (depth == -1, i.e. its own initializer expression is still compiling) is a
// compile error rather than a miss, so the caller doesn't fall through to
// treating the name as an upvalue or global.
func (c *compiler) resolveLocal(fs *funcState, name string) int {
	for i := len(fs.locals) - 1; i >= 0; i-- {
		if fs.locals[i].name == name {
			if fs.locals[i].depth == -1 {
				c.error("can't read local variable in its own initializer")
				return -1
			}
			return i
		}
	}
	return -1
}

// resolveUpvalue searches enclosing functions for name, adding an upvalue
// entry to every funcState between the declaring function and fs so each
// intermediate closure forwards the capture, and returns the index of the
// (possibly newly added) upvalue in fs's own table, or -1 if name is not
// found in any enclosing scope (meaning it must be a global).
func (c *compiler) resolveUpvalue(fs *funcState, name string) int {
	if fs.enclosing == nil {
		return -1
	}
	if slot := c.resolveLocal(fs.enclosing, name); slot != -1 {
		fs.enclosing.locals[slot].isCaptured = true
		return c.addUpvalue(fs, byte(slot), true)
	}
	if idx := c.resolveUpvalue(fs.enclosing, name); idx != -1 {
		return c.addUpvalue(fs, byte(idx), false)
	}
	return -1
}

func (c *compiler) addUpvalue(fs *funcState, index byte, isLocal bool) int {
	for i, uv := range fs.upvalues {
		if uv.index == index && uv.isLocal == isLocal {
			return i
		}
	}
	if len(fs.upvalues) >= maxUpvalues {
		c.error("too many closure variables in function")
		return -1
	}
	fs.upvalues = append(fs.upvalues, upvalueRef{index: index, isLocal: isLocal})
	fs.fn.UpvalueCount = len(fs.upvalues)
	return len(fs.upvalues) - 1
}
