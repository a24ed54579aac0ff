package cmd

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/anmitsu/go-shlex"
	"github.com/josephlewis42/forkshell/core/logger"
	"github.com/josephlewis42/forkshell/core/process"
	"github.com/spf13/cobra"
)

// pipeCmd runs external programs connected by pipes without the interpreter
var pipeCmd = &cobra.Command{
	Use:   "pipe STAGE [STAGE...]",
	Short: "Run external commands as a pipeline and print each stage's status.",
	Long: `Each STAGE is split into words with shell quoting rules and run as an
external program, with the output of each stage connected to the input of
the next. No expansion or redirection is done.

The status of each stage is printed to stderr and the last stage's status
becomes the exit status.`,
	Example: `  forkshell pipe "printf 'b\na\n'" sort 'head -n 1'`,
	Args:    cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cmd.SilenceUsage = true

		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		log, closeLog, err := logger.New(cfg, cmd.ErrOrStderr())
		if err != nil {
			return err
		}
		defer closeLog()

		session := process.NewSession(log)
		session.External.HijackShebang = cfg.Shell.HijackShebang
		session.External.Env = cfg.Env
		session.External.Report = func(err *process.ExecError) {
			cmd.PrintErrln("forkshell:", err)
		}

		statuses, err := runPipe(session, args)
		if err != nil {
			return err
		}

		cmd.PrintErrln("PIPESTATUS:", formatStatuses(statuses))
		exitStatus = statuses[len(statuses)-1]
		return nil
	},
}

// runPipe splits each stage into argv and runs them as one pipeline.
func runPipe(session *process.Session, stages []string) ([]int, error) {
	pipeline := session.NewPipeline()
	for i, stage := range stages {
		argv, err := shlex.Split(stage, true)
		if err != nil {
			return nil, fmt.Errorf("stage %d: %w", i, err)
		}

		proc := session.ExternalProcess(argv, nil)
		if i == len(stages)-1 {
			pipeline.AddLast(proc)
		} else {
			pipeline.Add(proc)
		}
	}

	return pipeline.Run(session.Waiter, session.Fds)
}

func formatStatuses(statuses []int) string {
	var out []string
	for _, status := range statuses {
		out = append(out, strconv.Itoa(status))
	}
	return strings.Join(out, " ")
}

func init() {
	rootCmd.AddCommand(pipeCmd)
}
