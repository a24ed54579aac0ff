package commands

import (
	"fmt"
)

// Source runs a script in the current shell.
func Source(ctx Context) int {
	cmd := &SimpleCommand{
		Use:   "source FILE [ARG] ...",
		Short: "Execute commands from a file in the current shell.",
	}
	opts := cmd.Flags()

	return cmd.Run(ctx, func() int {
		args := opts.Args()
		if len(args) == 0 {
			fmt.Fprintln(ctx.Stderr(), "source: filename argument required")
			return 2
		}
		return ctx.Source(args[0], args[1:])
	})
}

var _ BuiltinFunc = Source

func init() {
	addBuiltin("source", Source)
	addBuiltin(".", Source)
}
