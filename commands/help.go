package commands

import (
	"fmt"
	"strings"
)

// Help lists the builtins.
func Help(ctx Context) int {
	w := ctx.Stdout()
	fmt.Fprintln(w, "These shell commands are defined internally.")
	fmt.Fprintln(w, "Run `NAME --help' to find out more about the command `NAME'.")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Builtins:")
	fmt.Fprintln(w)
	fmt.Fprintln(w, strings.Join(ListBuiltins(), "\n"))

	return 0
}

func init() {
	addBuiltin("help", Help)
}
