// Package maincmd wires glox's subcommands (run, tokenize, disassemble)
// into a mainer.Cmd, the same thin dispatch layer nenuphar's CLI uses:
// reflection discovers one method per subcommand, flag parsing reads CLI
// flags only (GLOX_DEBUG is read separately by debugflags.Load), and Main
// maps the result to a process exit code.
package maincmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"reflect"
	"strings"

	"github.com/mna/mainer"
)

const binName = "glox"

var (
	shortUsage = fmt.Sprintf(`
usage: %s [<option>...] <command> [<path>...]
Run '%[1]s --help' for details.
`, binName)

	longUsage = fmt.Sprintf(`usage: %s [<option>...] <command> [<path>...]
       %[1]s -h|--help
       %[1]s -v|--version

Compiler and virtual machine for the glox programming language, a small
dynamically-typed, class-based scripting language.

The <command> can be one of:
       run [path]                Compile and execute path; with no path,
                                 start an interactive prompt reading one
                                 line of source at a time.
       tokenize <path>...        Run only the scanner and print the
                                 resulting token stream for each file.
       disassemble <path>...     Compile each file and print the
                                 disassembled bytecode for every chunk,
                                 without executing it.

Valid flag options are:
       -h --help                 Show this help and exit.
       -v --version              Print version and exit.
       --debug <flags>           Comma-separated, case-insensitive subset
                                 of scanning,code,trace,stress_gc,log_gc.
                                 May also be set via the GLOX_DEBUG
                                 environment variable; flags named in
                                 either are enabled.

More information on the glox repository:
       https://github.com/mna/glox
`, binName)
)

// Cmd is glox's top-level command: flag/subcommand state populated by
// mainer.Parser, plus the two values baked in at build time.
type Cmd struct {
	BuildVersion string
	BuildDate    string

	Help    bool `flag:"h,help"`
	Version bool `flag:"v,version"`

	// Debug is the raw --debug flag value, combined with GLOX_DEBUG by
	// debugflags.Load (a flag named in either is enabled).
	Debug string `flag:"debug"`

	args  []string
	flags map[string]bool
	cmdFn func(context.Context, mainer.Stdio, []string) error
}

func (c *Cmd) SetArgs(args []string) {
	c.args = args
}

func (c *Cmd) SetFlags(flags map[string]bool) {
	c.flags = flags
}

func (c *Cmd) Validate() error {
	if c.Help || c.Version {
		return nil
	}

	if len(c.args) == 0 {
		return errors.New("no command specified")
	}

	cmdName := c.args[0]

	commands := buildCmds(c)
	c.cmdFn = commands[cmdName]
	if c.cmdFn == nil {
		return fmt.Errorf("unknown command: %s", cmdName)
	}

	switch cmdName {
	case "tokenize", "disassemble":
		if len(c.args[1:]) == 0 {
			return fmt.Errorf("%s: at least one file must be provided", cmdName)
		}
	case "run":
		if len(c.args[1:]) > 1 {
			return errors.New("run: at most one file must be provided")
		}
	}

	return nil
}

// exitError lets a subcommand report a specific process exit code (compile
// error 65, runtime error 70, I/O error 74) instead of the generic
// mainer.Failure every other error maps to.
type exitError struct {
	code mainer.ExitCode
	err  error
}

func (e *exitError) Error() string            { return e.err.Error() }
func (e *exitError) Unwrap() error            { return e.err }
func (e *exitError) ExitCode() mainer.ExitCode { return e.code }

func compileFailure(err error) error { return &exitError{code: 65, err: err} }
func runtimeFailure(err error) error { return &exitError{code: 70, err: err} }
func ioFailure(err error) error      { return &exitError{code: 74, err: err} }

func (c *Cmd) Main(args []string, stdio mainer.Stdio) mainer.ExitCode {
	p := mainer.Parser{
		EnvVars:   false, // GLOX_DEBUG is read directly by debugflags.Load instead
		EnvPrefix: strings.ToUpper(binName) + "_",
	}
	if err := p.Parse(args, c); err != nil {
		fmt.Fprintf(stdio.Stderr, "invalid arguments: %s\n%s", err, shortUsage)
		return mainer.InvalidArgs
	}

	switch {
	case c.Help:
		fmt.Fprint(stdio.Stdout, longUsage)
		return mainer.Success

	case c.Version:
		fmt.Fprintf(stdio.Stdout, "%s %s %s\n", binName, c.BuildVersion, c.BuildDate)
		return mainer.Success
	}

	ctx := mainer.CancelOnSignal(context.Background(), os.Interrupt)
	if err := c.cmdFn(ctx, stdio, c.args[1:]); err != nil {
		// each command takes care of printing its own diagnostics; this only
		// decides the process exit code.
		var ec *exitError
		if errors.As(err, &ec) {
			return ec.code
		}
		return mainer.Failure
	}
	return mainer.Success
}

// valid commands are those that take a mainer.Stdio and a slice of strings as
// input, and return an error as output.
func buildCmds(v interface{}) map[string]func(context.Context, mainer.Stdio, []string) error {
	cmds := make(map[string]func(context.Context, mainer.Stdio, []string) error)

	vv := reflect.ValueOf(v)
	vt := vv.Type()
	for i := 0; i < vt.NumMethod(); i++ {
		m := vt.Method(i)
		mt := m.Type

		// must take 4 parameters (including receiver) and return 1
		if mt.NumIn() != 4 || mt.NumOut() != 1 {
			continue
		}

		if rt := mt.Out(0); rt.Kind() != reflect.Interface || rt.Name() != "error" {
			continue
		}
		if p0 := mt.In(0); p0.Kind() != reflect.Ptr || p0.Elem().Name() != "Cmd" {
			continue
		}
		if p1 := mt.In(1); p1.Kind() != reflect.Interface || p1.Name() != "Context" {
			continue
		}
		if p2 := mt.In(2); p2.Kind() != reflect.Struct || p2.Name() != "Stdio" {
			continue
		}
		if p3 := mt.In(3); p3.Kind() != reflect.Slice || p3.Elem().Name() != "string" {
			continue
		}
		cmds[strings.ToLower(m.Name)] = vv.Method(i).Interface().(func(context.Context, mainer.Stdio, []string) error)
	}
	return cmds
}
