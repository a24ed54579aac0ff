package cmd

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/josephlewis42/forkshell/core/config"
	"github.com/josephlewis42/forkshell/core/logger"
	"github.com/josephlewis42/forkshell/core/shell"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var cfgPath string

// exitStatus is what the process exits with once the command returns.
var exitStatus int

func loadConfig() (*config.Configuration, error) {
	dir, err := filepath.Abs(cfgPath)
	if err != nil {
		return nil, err
	}
	return config.LoadOrDefault(dir)
}

// requireConfig is loadConfig for commands that need an initialized
// configuration directory.
func requireConfig() (*config.Configuration, error) {
	configuration, err := config.Load(cfgPath)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("couldn't load config from %q: did you run init?", cfgPath)
	}
	return configuration, err
}

// newShell builds an interpreter from the configuration. The returned
// function flushes the log.
func newShell(cmd *cobra.Command) (*shell.Shell, *config.Configuration, func(), error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, nil, nil, err
	}

	log, closeLog, err := logger.New(cfg, cmd.ErrOrStderr())
	if err != nil {
		return nil, nil, nil, err
	}

	sh, err := shell.New(shellOptions(cfg, log))
	if err != nil {
		closeLog()
		return nil, nil, nil, err
	}
	return sh, cfg, func() { closeLog() }, nil
}

func shellOptions(cfg *config.Configuration, log *zap.SugaredLogger) shell.Options {
	return shell.Options{
		HijackShebang: cfg.Shell.HijackShebang,
		Env:           cfg.Env,
		Color:         cfg.Shell.Color,
		Log:           log,
	}
}

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "forkshell",
	Short: "A shell that forks",
	Long:  `A small POSIX-style shell built on fork, exec, pipes and waitpid.`,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
	os.Exit(exitStatus)
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgPath, "config", ".", "config path")
}
