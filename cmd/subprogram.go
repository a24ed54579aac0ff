package cmd

import (
	"fmt"
	"io"

	"github.com/josephlewis42/forkshell/core/config"
	"github.com/josephlewis42/forkshell/core/logger"
	"github.com/josephlewis42/forkshell/core/shell"
	"github.com/spf13/cobra"
	"go.uber.org/zap/zapcore"
)

// runSubprogram is the entry point of a re-entered interpreter. The parent's
// options travel in the state snapshot so no configuration is read.
func runSubprogram(args []string, stderr io.Writer) int {
	parsed, err := shell.ParseReentryArgs(args)
	if err != nil {
		fmt.Fprintf(stderr, "%s: %v\n", shell.SubprogramCommand, err)
		return shell.StatusUsage
	}

	log, err := logger.NewWriter(config.Default().Log, zapcore.AddSync(stderr))
	if err != nil {
		fmt.Fprintf(stderr, "%s: %v\n", shell.SubprogramCommand, err)
		return shell.StatusUsage
	}
	defer log.Sync()

	return shell.RunReentry(parsed, shell.Options{Log: log})
}

// subprogramCmd is the entry point of interpreters re-executed for
// subshells and pipeline stages.
var subprogramCmd = &cobra.Command{
	Use:                shell.SubprogramCommand,
	Hidden:             true,
	DisableFlagParsing: true,
	Run: func(cmd *cobra.Command, args []string) {
		exitStatus = runSubprogram(args, cmd.ErrOrStderr())
	},
}

func init() {
	rootCmd.AddCommand(subprogramCmd)
}
