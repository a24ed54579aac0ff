package cmd

import (
	"github.com/josephlewis42/forkshell/core/config"
	"github.com/josephlewis42/forkshell/core/logger"
	"github.com/spf13/cobra"
	"go.uber.org/zap/zapcore"
)

// initCmd intializes the shell configuration
var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Write the default configuration to the --config directory.",
	Args:  cobra.ExactArgs(0),
	RunE: func(cmd *cobra.Command, args []string) error {
		cmd.SilenceUsage = true

		log, err := logger.NewWriter(config.Log{Level: "info", Format: logger.FormatConsole}, zapcore.AddSync(cmd.ErrOrStderr()))
		if err != nil {
			return err
		}
		defer log.Sync()

		_, err = config.Initialize(cfgPath, log)
		return err
	},
}

func init() {
	rootCmd.AddCommand(initCmd)
}
