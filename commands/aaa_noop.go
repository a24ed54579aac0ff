package commands

import (
	"fmt"
)

// No-op commands.
type NoOpCommand struct {
	Name     string
	Use      string
	Short    string
	Stdout   string
	ExitCode int
}

// Convert the no-op command description to a functioning command.
func (c *NoOpCommand) ToCommand() BuiltinFunc {
	return func(ctx Context) int {
		cmd := &SimpleCommand{
			Use:   c.Use,
			Short: c.Short,
			// Never bail, even if args are bad.
			NeverBail: true,
		}

		return cmd.Run(ctx, func() int {
			if c.Stdout != "" {
				fmt.Fprintln(ctx.Stdout(), c.Stdout)
			}

			return c.ExitCode
		})
	}
}

var noOpBuiltins = []NoOpCommand{
	{
		Name:  "true",
		Use:   "true",
		Short: "Return a successful result.",
	},
	{
		Name:     "false",
		Use:      "false",
		Short:    "Return an unsuccessful result.",
		ExitCode: 1,
	},
	{
		Name:  ":",
		Use:   ": [ARG] ...",
		Short: "Expand arguments and do nothing else.",
	},
}

func init() {
	for _, cmd := range noOpBuiltins {
		cmd := cmd
		addBuiltin(cmd.Name, cmd.ToCommand())
	}
}
