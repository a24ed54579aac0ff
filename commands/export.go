package commands

import (
	"fmt"
	"sort"
	"strings"
)

// Export marks variables for the environment of external commands. With no
// arguments it prints every exported variable.
func Export(ctx Context) int {
	cmd := &SimpleCommand{
		Use:   "export [-p] [NAME[=VALUE]] ...",
		Short: "Set export attribute for shell variables.",
	}
	opts := cmd.Flags()
	opts.Bool('p', "display all exported variables")

	return cmd.Run(ctx, func() int {
		args := opts.Args()
		if len(args) == 0 {
			env := ctx.Exported()
			sort.Strings(env)
			for _, envDef := range env {
				name, value := splitAssignment(envDef)
				fmt.Fprintf(ctx.Stdout(), "export %s=%q\n", name, value)
			}
			return 0
		}

		status := 0
		for _, arg := range args {
			name, value := splitAssignment(arg)
			if !validName(name) {
				fmt.Fprintf(ctx.Stderr(), "export: %q: not a valid identifier\n", arg)
				status = 1
				continue
			}
			if strings.Contains(arg, "=") {
				ctx.Setenv(name, value)
			}
			ctx.Export(name)
		}
		return status
	})
}

// Unset removes shell variables.
func Unset(ctx Context) int {
	cmd := &SimpleCommand{
		Use:   "unset [-v] [NAME...]",
		Short: "Unset shell variables.",
	}
	opts := cmd.Flags()
	opts.Bool('v', "treat NAME as a variable")

	return cmd.Run(ctx, func() int {
		for _, name := range opts.Args() {
			ctx.Unsetenv(name)
		}
		return 0
	})
}

func splitAssignment(arg string) (name, value string) {
	split := strings.SplitN(arg, "=", 2)
	name = split[0]
	if len(split) > 1 {
		value = split[1]
	}
	return name, value
}

func validName(name string) bool {
	if name == "" {
		return false
	}
	for i, r := range name {
		switch {
		case r == '_', r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z':
		case i > 0 && r >= '0' && r <= '9':
		default:
			return false
		}
	}
	return true
}

var (
	_ BuiltinFunc = Export
	_ BuiltinFunc = Unset
)

func init() {
	addBuiltin("export", Export)
	addBuiltin("unset", Unset)
}
