package process

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/josephlewis42/forkshell/core/env"
	"go.uber.org/zap"
	"golang.org/x/sys/unix"
)

// shebangLimit bounds how much of a script is read to find its interpreter.
const shebangLimit = 256

// shFamily lists interpreters whose scripts can be run by a hijack shell.
var shFamily = map[string]bool{
	"sh":   true,
	"bash": true,
	"dash": true,
	"osh":  true,
}

// ExternalProgram resolves and starts external executables.
type ExternalProgram struct {
	// HijackShebang, if set, runs scripts written for an sh-family
	// interpreter with this program instead.
	HijackShebang string

	// Env is applied over the inherited environment of every program.
	Env map[string]string

	// Report, if set, is told about every command that couldn't be started.
	Report func(*ExecError)

	// Environ supplies the inherited environment, os.Environ by default.
	Environ func() []string

	log *zap.SugaredLogger
}

// NewExternalProgram creates an ExternalProgram inheriting os.Environ.
func NewExternalProgram(log *zap.SugaredLogger) *ExternalProgram {
	return &ExternalProgram{
		Environ: os.Environ,
		log:     orNop(log),
	}
}

// MergeEnv returns the inherited environment overlaid by the program-wide
// Env and then overrides. Later layers win on key collisions.
func (e *ExternalProgram) MergeEnv(overrides map[string]string) []string {
	environ := os.Environ
	if e.Environ != nil {
		environ = e.Environ
	}

	merged := env.NewMapEnvFromEnvList(environ())
	merged.Merge(e.Env)
	merged.Merge(overrides)
	return merged.Environ()
}

// Resolve finds the executable for argv[0] using the PATH in environ and
// returns the path and argv to execute.
func (e *ExternalProgram) Resolve(argv []string, environ []string) (string, []string, error) {
	if len(argv) == 0 || argv[0] == "" {
		return "", nil, ErrNotFound
	}

	path, err := LookPath(argv[0], env.NewMapEnvFromEnvList(environ).Getenv("PATH"))
	if err != nil {
		return "", nil, err
	}

	if e.HijackShebang == "" || !isShScript(path) {
		return path, argv, nil
	}

	hijackPath, err := LookPath(e.HijackShebang, env.NewMapEnvFromEnvList(environ).Getenv("PATH"))
	if err != nil {
		e.log.Warnw("hijack shell unavailable", "hijack", e.HijackShebang, "error", err)
		return path, argv, nil
	}
	hijacked := append([]string{e.HijackShebang, path}, argv[1:]...)
	e.log.Debugw("hijacked shebang", "script", path, "argv", hijacked)
	return hijackPath, hijacked, nil
}

// Spawn starts argv as a child with the given stdin and stdout; stderr is
// inherited. Commands that can't be resolved or executed return an
// *ExecError carrying the status the child would have exited with.
func (e *ExternalProgram) Spawn(argv []string, overrides map[string]string, stdin, stdout int) (int, error) {
	name := ""
	if len(argv) > 0 {
		name = argv[0]
	}

	environ := e.MergeEnv(overrides)
	path, execArgv, err := e.Resolve(argv, environ)
	if err != nil {
		status := StatusNotFound
		if errors.Is(err, ErrPermission) {
			status = StatusNotExec
		}
		return 0, e.fail(name, status, err)
	}

	pid, err := forkExec(path, execArgv, environ, stdin, stdout)
	switch {
	case err == nil:
		e.log.Debugw("started program", "pid", pid, "path", path, "argv", execArgv)
		return pid, nil
	case errors.Is(err, unix.EAGAIN), errors.Is(err, unix.ENOMEM):
		// The fork itself failed; there is no child to blame.
		return 0, fmt.Errorf("fork %s: %w", name, err)
	default:
		return 0, e.fail(name, StatusNotExec, err)
	}
}

func (e *ExternalProgram) fail(name string, status int, err error) error {
	execErr := &ExecError{Name: name, Status: status, Err: err}
	e.log.Debugw("couldn't start program", "name", name, "status", status, "error", err)
	if e.Report != nil {
		e.Report(execErr)
	}
	return execErr
}

// forkExec starts path with descriptors 0, 1 and 2 taken from stdin, stdout
// and the current stderr. Every other descriptor this package opens is
// close-on-exec, so the child keeps only those three and any redirect
// targets.
func forkExec(path string, argv, environ []string, stdin, stdout int) (int, error) {
	attr := &syscall.ProcAttr{
		Env:   environ,
		Files: []uintptr{uintptr(stdin), uintptr(stdout), uintptr(unix.Stderr)},
	}
	return syscall.ForkExec(path, argv, attr)
}

// isShScript reports whether path starts with a shebang for an sh-family
// interpreter, either directly or through /usr/bin/env.
func isShScript(path string) bool {
	fd, err := openFd(path, unix.O_RDONLY)
	if err != nil {
		return false
	}
	defer unix.Close(fd)

	buf := make([]byte, shebangLimit)
	n, err := unix.Read(fd, buf)
	if err != nil || n < 2 || string(buf[:2]) != "#!" {
		return false
	}

	line := string(buf[2:n])
	if i := strings.IndexByte(line, '\n'); i >= 0 {
		line = line[:i]
	}
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return false
	}

	interp := filepath.Base(fields[0])
	if interp == "env" && len(fields) > 1 {
		interp = filepath.Base(fields[1])
	}
	return shFamily[interp]
}
