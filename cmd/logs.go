package cmd

import (
	"errors"
	"fmt"

	"github.com/josephlewis42/forkshell/core/logger"
	"github.com/spf13/cobra"
	"sigs.k8s.io/yaml"
)

var logsCmd = &cobra.Command{
	Use:     "logs",
	Aliases: []string{"log"},
	Short:   "Explore the application log.",
}

var reportCommand = &cobra.Command{
	Use:   "report",
	Short: "Summarize a JSON formatted application log.",
	Args:  cobra.ExactArgs(0),
	RunE: func(cmd *cobra.Command, args []string) error {
		cmd.SilenceUsage = true

		cfg, err := requireConfig()
		if err != nil {
			return err
		}
		if cfg.Log.Path == "" {
			return errors.New("log.path isn't set, logs go to stderr")
		}
		if cfg.Log.Format != logger.FormatJSON {
			return fmt.Errorf("log.format is %q, reports need %q", cfg.Log.Format, logger.FormatJSON)
		}

		fd, err := cfg.ReadAppLog()
		if err != nil {
			return err
		}
		defer fd.Close()

		report := logger.NewReport()
		if err := logger.ReadJSONLinesLog(fd, report.Update); err != nil {
			return err
		}

		out, err := yaml.Marshal(report)
		if err != nil {
			return err
		}

		fmt.Fprint(cmd.OutOrStdout(), string(out))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(logsCmd)
	logsCmd.AddCommand(reportCommand)
}
