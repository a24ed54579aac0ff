package commands

import (
	"fmt"
	"io"
	"sort"

	"github.com/fatih/color"
	getopt "github.com/pborman/getopt/v2"
)

// Context is the part of the running shell a builtin can see and change.
// Builtins run inside the shell process, so their standard streams are the
// shell's descriptors with any redirects applied.
type Context interface {
	Args() []string
	Stdout() io.Writer
	Stderr() io.Writer
	// ReadLine reads one line from standard input without buffering past
	// it.
	ReadLine() (string, error)

	Getenv(key string) string
	LookupEnv(key string) (string, bool)
	Setenv(key, value string)
	Unsetenv(key string)
	// Export marks key to be passed to external commands.
	Export(key string)
	// Exported returns the variables passed to external commands.
	Exported() []string

	Getwd() string
	Chdir(dir string) error

	// Exit asks the shell to stop after the current command.
	Exit(status int)
	// Source runs the script at path in the current shell.
	Source(path string, args []string) int

	LogInvalidInvocation(err error)
}

// BuiltinFunc is a command run inside the shell process.
type BuiltinFunc func(ctx Context) int

// AllBuiltins holds a list of all registered builtins.
var AllBuiltins = make(map[string]BuiltinFunc)

func addBuiltin(name string, cmd BuiltinFunc) {
	if _, ok := AllBuiltins[name]; ok {
		panic(fmt.Sprintf("builtin %q registered twice", name))
	}
	AllBuiltins[name] = cmd
}

// LookupBuiltin returns the builtin called name.
func LookupBuiltin(name string) (BuiltinFunc, bool) {
	cmd, ok := AllBuiltins[name]
	return cmd, ok
}

// ListBuiltins returns the sorted names of every builtin.
func ListBuiltins() []string {
	var out []string
	for name := range AllBuiltins {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

type SimpleCommand struct {
	// Use holds a one line usage string
	Use string
	// Short holds a sone line description of the command.
	Short string
	// ShowHelp sets whether help is displayed or not.
	// If this is non-nil when Run() is called, then the default help flag isn't
	// added.
	ShowHelp *bool
	// NeverBail skips interacting with stdout/stderr on failure and
	// always runs the callback.
	NeverBail bool

	flags *getopt.Set
}

// Flags gets the command's flag set.
func (s *SimpleCommand) Flags() *getopt.Set {
	if s.flags == nil {
		s.flags = getopt.New()
	}

	return s.flags
}

// PrintHelp writes help for the command to the given writer.
func (s *SimpleCommand) PrintHelp(w io.Writer) {
	fmt.Fprint(w, "usage: ")
	fmt.Fprintln(w, s.Use)
	fmt.Fprintln(w, s.Short)
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Flags:")
	s.Flags().PrintOptions(w)
}

// Run the command, if flag parsing was succcessful call the callback.
func (s *SimpleCommand) Run(ctx Context, callback func() int) int {
	opts := s.Flags()

	// Add help flag if not overridden.
	if s.ShowHelp == nil {
		s.ShowHelp = opts.BoolLong("help", 'h', "show this help and exit")
	}

	err := opts.Getopt(ctx.Args(), nil)
	if err != nil {
		ctx.LogInvalidInvocation(err)
	}

	if err != nil && !s.NeverBail {
		fmt.Fprintf(ctx.Stderr(), "error: %s\n\n", err)

		s.PrintHelp(ctx.Stdout())
		return 2
	}

	if *s.ShowHelp {
		s.PrintHelp(ctx.Stdout())
		return 0
	}

	return callback()
}

var (
	ColorBoldBlue  = color.New(color.FgBlue, color.Bold)
	ColorBoldGreen = color.New(color.FgGreen, color.Bold)
	ColorBoldRed   = color.New(color.FgRed, color.Bold)
)

// ColorPrinter applies colors depending on the configured mode
// (always|auto|never). In auto mode IsTerminal decides.
type ColorPrinter struct {
	Mode       string
	IsTerminal func() bool
}

func (c *ColorPrinter) ShouldColor() bool {
	switch {
	case c == nil || c.Mode == "never":
		return false
	case c.Mode == "always":
		return true
	default:
		return c.IsTerminal != nil && c.IsTerminal()
	}
}

func (c *ColorPrinter) Sprintf(color *color.Color, format string, a ...interface{}) string {
	if c.ShouldColor() {
		// fatih/color disables itself when stdout isn't a terminal; the mode
		// has already made that decision here.
		color.EnableColor()
		return color.Sprintf(format, a...)
	}
	return fmt.Sprintf(format, a...)
}
