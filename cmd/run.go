package cmd

import (
	"github.com/josephlewis42/forkshell/core/process"
	"github.com/spf13/cobra"
)

var runCommand string

var runCmd = &cobra.Command{
	Use:   "run [-c COMMAND | SCRIPT] [ARGS...]",
	Short: "Run a script or command string and exit with its status.",
	Long: `Run a program and exit with its status. The program is the -c string,
the SCRIPT file, or standard input if neither is given.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cmd.SilenceUsage = true

		sh, _, closeLog, err := newShell(cmd)
		if err != nil {
			return err
		}
		defer closeLog()

		var status int
		switch {
		case cmd.Flags().Changed("command"):
			sh.SetArgs(append([]string{"forkshell"}, args...))
			status, err = sh.RunString(runCommand)
		case len(args) > 0:
			status, err = sh.RunFile(args[0], args[1:])
		default:
			// The whole program is parsed before it runs, so commands in it
			// see standard input at EOF.
			sh.SetArgs([]string{"forkshell"})
			status, err = sh.Run(process.FdReader(0), "stdin")
		}

		if err != nil {
			cmd.PrintErrln("forkshell:", err)
		}
		exitStatus = status
		return nil
	},
}

func init() {
	rootCmd.AddCommand(runCmd)
	runCmd.Flags().StringVarP(&runCommand, "command", "c", "", "program text to run")
	runCmd.Flags().SetInterspersed(false)
}
