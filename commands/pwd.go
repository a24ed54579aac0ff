package commands

import (
	"fmt"
)

// Pwd prints the shell's working directory.
func Pwd(ctx Context) int {
	cmd := &SimpleCommand{
		Use:   "pwd",
		Short: "Print the name of the current working directory.",
	}

	return cmd.Run(ctx, func() int {
		fmt.Fprintln(ctx.Stdout(), ctx.Getwd())
		return 0
	})
}

var _ BuiltinFunc = Pwd

func init() {
	addBuiltin("pwd", Pwd)
}
