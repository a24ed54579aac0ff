package commands

import (
	"fmt"
)

const (
	EnvHome   = "HOME"
	EnvPWD    = "PWD"
	EnvOldPWD = "OLDPWD"
)

// Cd changes the shell's working directory.
func Cd(ctx Context) int {
	cmd := &SimpleCommand{
		Use:   "cd [DIR]",
		Short: "Change the shell working directory.",
	}
	opts := cmd.Flags()

	return cmd.Run(ctx, func() int {
		args := opts.Args()
		var dir string
		switch len(args) {
		case 0:
			dir = ctx.Getenv(EnvHome)
		case 1:
			dir = args[0]
		default:
			fmt.Fprintln(ctx.Stderr(), "cd: too many arguments")
			return 1
		}

		printDir := false
		if dir == "-" {
			var ok bool
			if dir, ok = ctx.LookupEnv(EnvOldPWD); !ok {
				fmt.Fprintln(ctx.Stderr(), "cd: OLDPWD not set")
				return 1
			}
			printDir = true
		}

		old := ctx.Getwd()
		if err := ctx.Chdir(dir); err != nil {
			fmt.Fprintf(ctx.Stderr(), "cd: %v\n", err)
			return 1
		}
		ctx.Setenv(EnvOldPWD, old)
		ctx.Setenv(EnvPWD, ctx.Getwd())
		if printDir {
			fmt.Fprintln(ctx.Stdout(), ctx.Getwd())
		}
		return 0
	})
}

var _ BuiltinFunc = Cd

func init() {
	addBuiltin("cd", Cd)
}
