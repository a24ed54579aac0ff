package commands

import (
	"fmt"

	"github.com/josephlewis42/forkshell/core/process"
)

// Type reports how each name would be run.
func Type(ctx Context) int {
	cmd := &SimpleCommand{
		Use:   "type [-p] NAME...",
		Short: "Display how each NAME would be interpreted as a command.",
	}
	pathOnly := cmd.Flags().Bool('p', "print only the path of external commands")

	return cmd.Run(ctx, func() int {
		status := 0
		for _, name := range cmd.Flags().Args() {
			if _, ok := LookupBuiltin(name); ok {
				if !*pathOnly {
					fmt.Fprintf(ctx.Stdout(), "%s is a shell builtin\n", name)
				}
				continue
			}

			path, err := process.LookPath(name, ctx.Getenv("PATH"))
			switch {
			case err != nil:
				fmt.Fprintf(ctx.Stderr(), "type: %s: not found\n", name)
				status = 1
			case *pathOnly:
				fmt.Fprintln(ctx.Stdout(), path)
			default:
				fmt.Fprintf(ctx.Stdout(), "%s is %s\n", name, path)
			}
		}
		return status
	})
}

var _ BuiltinFunc = Type

func init() {
	addBuiltin("type", Type)
}
