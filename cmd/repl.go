package cmd

import (
	"os"

	"github.com/abiosoft/readline"
	"github.com/spf13/cobra"
)

var replCmd = &cobra.Command{
	Use:     "repl",
	Aliases: []string{"interactive"},
	Short:   "Start an interactive shell.",
	Args:    cobra.ExactArgs(0),
	RunE: func(cmd *cobra.Command, args []string) error {
		cmd.SilenceUsage = true

		sh, cfg, closeLog, err := newShell(cmd)
		if err != nil {
			return err
		}
		defer closeLog()

		rlCfg := &readline.Config{
			Stdin:       readline.NewCancelableStdin(os.Stdin),
			Stdout:      os.Stdout,
			Stderr:      os.Stderr,
			HistoryFile: cfg.HistoryPath(),
		}
		if err := rlCfg.Init(); err != nil {
			return err
		}

		rl, err := readline.NewEx(rlCfg)
		if err != nil {
			return err
		}
		defer rl.Close()

		sh.SetArgs([]string{"forkshell"})
		exitStatus = sh.Interactive(rl, cfg.Shell.Prompt)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(replCmd)
}
