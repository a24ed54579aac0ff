package commands

import (
	"fmt"
	"strconv"
)

// Exit quits the shell with the given status, or the last command's status.
func Exit(ctx Context) int {
	cmd := &SimpleCommand{
		Use:   "exit [N]",
		Short: "Exit the shell.",
	}
	opts := cmd.Flags()

	return cmd.Run(ctx, func() int {
		args := opts.Args()
		status, _ := strconv.Atoi(ctx.Getenv("?"))
		switch len(args) {
		case 0:
		case 1:
			n, err := strconv.Atoi(args[0])
			if err != nil {
				fmt.Fprintf(ctx.Stderr(), "exit: %s: numeric argument required\n", args[0])
				ctx.Exit(2)
				return 2
			}
			status = n & 0xff
		default:
			fmt.Fprintln(ctx.Stderr(), "exit: too many arguments")
			return 1
		}

		ctx.Exit(status)
		return status
	})
}

var _ BuiltinFunc = Exit

func init() {
	addBuiltin("exit", Exit)
}
