package cmd

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/josephlewis42/forkshell/core/config"
	"github.com/josephlewis42/forkshell/core/process"
	"github.com/josephlewis42/forkshell/core/shell"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

// The test binary stands in for forkshell when a subshell re-enters it.
func TestMain(m *testing.M) {
	if len(os.Args) > 1 && os.Args[1] == shell.SubprogramCommand {
		os.Exit(runSubprogram(os.Args[2:], os.Stderr))
	}
	os.Exit(m.Run())
}

// executeRoot runs the root command with args, returning stdout, stderr and
// the status forkshell would exit with.
func executeRoot(t *testing.T, args ...string) (string, string, int) {
	t.Helper()
	t.Cleanup(func() {
		exitStatus = 0
		runCommand = ""
		runCmd.Flags().Lookup("command").Changed = false
	})

	stdout, stderr := &bytes.Buffer{}, &bytes.Buffer{}
	rootCmd.SetOut(stdout)
	rootCmd.SetErr(stderr)
	rootCmd.SetArgs(args)
	require.NoError(t, rootCmd.Execute())
	return stdout.String(), stderr.String(), exitStatus
}

func TestBuiltinsCmd(t *testing.T) {
	stdout, _, status := executeRoot(t, "builtins")
	assert.Equal(t, 0, status)
	assert.Contains(t, stdout, "cd\n")
	assert.Contains(t, stdout, "echo\n")
	assert.Contains(t, stdout, "exit\n")
}

func TestRunCmd(t *testing.T) {
	dir := t.TempDir()

	t.Run("command", func(t *testing.T) {
		_, _, status := executeRoot(t, "--config", dir, "run", "-c", "(exit 4) | true; exit ${PIPESTATUS[0]}")
		assert.Equal(t, 4, status)
	})

	t.Run("script", func(t *testing.T) {
		script := filepath.Join(dir, "script.sh")
		require.NoError(t, os.WriteFile(script, []byte("test \"$1\" = one && exit 6\nexit 1\n"), 0600))

		_, _, status := executeRoot(t, "--config", dir, "run", script, "one")
		assert.Equal(t, 6, status)
	})

	t.Run("missing script", func(t *testing.T) {
		_, stderr, status := executeRoot(t, "--config", dir, "run", filepath.Join(dir, "nope.sh"))
		assert.Equal(t, process.StatusNotFound, status)
		assert.Contains(t, stderr, "nope.sh")
	})
}

func TestInitCmd(t *testing.T) {
	dir := t.TempDir()
	executeRoot(t, "--config", dir, "init")

	cfg, err := config.Load(dir)
	require.NoError(t, err)
	assert.Equal(t, config.Default().Shell, cfg.Shell)
}

func TestLogsReport(t *testing.T) {
	dir := t.TempDir()
	configYaml := "shell:\n  prompt: '$ '\n  color: never\nlog:\n  level: info\n  format: json\n  path: app.log\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, config.ConfigurationName), []byte(configYaml), 0600))

	_, _, status := executeRoot(t, "--config", dir, "run", "-c", "read -z; definitely-not-a-command-xyz")
	assert.Equal(t, process.StatusNotFound, status)

	stdout, _, _ := executeRoot(t, "--config", dir, "logs", "report")
	assert.Contains(t, stdout, "log_entries:")
	assert.Contains(t, stdout, "command: read")
	assert.Contains(t, stdout, "command: definitely-not-a-command-xyz")
}

func TestRunPipe(t *testing.T) {
	dir := t.TempDir()
	out := filepath.Join(dir, "out")

	session := process.NewSession(zaptest.NewLogger(t).Sugar())
	statuses, err := runPipe(session, []string{"true", "definitely-not-a-command-xyz", "false"})
	require.NoError(t, err)
	assert.Equal(t, []int{0, process.StatusNotFound, 1}, statuses)
	assert.Equal(t, "0 127 1", formatStatuses(statuses))

	t.Run("data", func(t *testing.T) {
		guard, err := session.Fds.Scope([]process.Redirect{
			&process.PathRedirect{Op: process.PathWrite, Fd: 1, Path: out},
		})
		require.NoError(t, err)
		statuses, err := runPipe(session, []string{`printf 'b\na\n'`, "sort"})
		guard.Release()

		require.NoError(t, err)
		assert.Equal(t, []int{0, 0}, statuses)
		contents, err := os.ReadFile(out)
		require.NoError(t, err)
		assert.Equal(t, "a\nb\n", string(contents))
	})

	t.Run("bad quoting", func(t *testing.T) {
		_, err := runPipe(session, []string{`echo "unterminated`})
		assert.Error(t, err)
	})
}

func TestRunSubprogramErrors(t *testing.T) {
	stderr := &bytes.Buffer{}
	assert.Equal(t, shell.StatusUsage, runSubprogram([]string{"--bogus"}, stderr))
	assert.Contains(t, stderr.String(), shell.SubprogramCommand)
}

func TestSubprogramCmd(t *testing.T) {
	_, stderr, status := executeRoot(t, shell.SubprogramCommand, "--bogus")
	assert.Equal(t, shell.StatusUsage, status)
	assert.Contains(t, stderr, shell.SubprogramCommand)

	_, _, status = executeRoot(t, shell.SubprogramCommand, "--state", "name: forkshell\nstatus: 0\n", "-c", "exit 5")
	assert.Equal(t, 5, status)
}

func TestVersionCmd(t *testing.T) {
	stdout, _, _ := executeRoot(t, "version")
	assert.Equal(t, "forkshell dev\n", stdout)
}
