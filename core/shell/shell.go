package shell

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/josephlewis42/forkshell/commands"
	"github.com/josephlewis42/forkshell/core/env"
	"github.com/josephlewis42/forkshell/core/logger"
	"github.com/josephlewis42/forkshell/core/process"
	"go.uber.org/zap"
	"mvdan.cc/sh/v3/syntax"
)

const (
	EnvHome       = "HOME"
	EnvPWD        = "PWD"
	EnvPrompt     = "PS1"
	EnvHostname   = "HOSTNAME"
	EnvUser       = "USER"
	EnvPipeStatus = "PIPESTATUS"

	// StatusUsage is returned for syntax errors and unsupported constructs.
	StatusUsage = 2
)

// Options configure a Shell.
type Options struct {
	// Self is the executable started for subshells and pipeline stages that
	// need the interpreter. Defaults to os.Executable.
	Self string
	// SelfArgs are placed between Self and the subprogram arguments.
	SelfArgs []string

	HijackShebang string
	// Env is added to the environment of every external command.
	Env map[string]string
	// Color is always, auto or never.
	Color string
	// Name is used as $0 and to prefix diagnostics.
	Name string

	Log *zap.SugaredLogger
}

// Shell is an interpreter. It must only be used from one goroutine.
type Shell struct {
	session *process.Session
	opts    Options
	log     *zap.SugaredLogger
	color   *commands.ColorPrinter

	vars       *env.MapEnv
	exported   map[string]bool
	positional []string

	lastStatus int
	pipeStatus []int

	exitStatus *int
}

// New creates a shell whose variables start as a copy of the process
// environment, all exported.
func New(opts Options) (*Shell, error) {
	if opts.Log == nil {
		opts.Log = zap.NewNop().Sugar()
	}
	if opts.Name == "" {
		opts.Name = "forkshell"
	}
	if opts.Self == "" {
		self, err := os.Executable()
		if err != nil {
			return nil, fmt.Errorf("find interpreter executable: %w", err)
		}
		opts.Self = self
	}

	s := &Shell{
		session:  process.NewSession(opts.Log),
		opts:     opts,
		log:      opts.Log,
		vars:     env.NewMapEnvFromEnvList(os.Environ()),
		exported: make(map[string]bool),
		color: &commands.ColorPrinter{
			Mode:       opts.Color,
			IsTerminal: func() bool { return isTerminal(2) },
		},
	}
	for key := range s.vars.Map() {
		s.exported[key] = true
	}

	s.session.External.HijackShebang = opts.HijackShebang
	s.session.External.Env = opts.Env
	s.session.External.Environ = s.Exported
	s.session.External.Report = s.reportExecError

	if pwd, err := os.Getwd(); err == nil {
		s.vars.Setenv(EnvPWD, pwd)
	}
	return s, nil
}

// Session exposes the process state the shell runs commands with.
func (s *Shell) Session() *process.Session {
	return s.session
}

// SetArgs sets $0 and the positional parameters.
func (s *Shell) SetArgs(args []string) {
	s.positional = append([]string(nil), args...)
}

// Exited reports whether the exit builtin ran, and with what status.
func (s *Shell) Exited() (int, bool) {
	if s.exitStatus == nil {
		return 0, false
	}
	return *s.exitStatus, true
}

// LastStatus is the status of the most recent command, $?.
func (s *Shell) LastStatus() int {
	return s.lastStatus
}

// PipeStatus returns the statuses of the most recent pipeline's stages.
func (s *Shell) PipeStatus() []int {
	return append([]int(nil), s.pipeStatus...)
}

// Parse parses a complete program.
func Parse(r io.Reader, name string) (*syntax.File, error) {
	return syntax.NewParser(syntax.KeepComments(false)).Parse(r, name)
}

// Run parses r and executes every statement, stopping early if the exit
// builtin runs. A syntax error runs nothing and returns StatusUsage.
func (s *Shell) Run(r io.Reader, name string) (int, error) {
	prog, err := Parse(r, name)
	if err != nil {
		s.lastStatus = StatusUsage
		return StatusUsage, err
	}
	return s.runFile(prog), nil
}

// RunString runs src as a program.
func (s *Shell) RunString(src string) (int, error) {
	return s.Run(strings.NewReader(src), "")
}

// RunFile runs the script at path with args as $1 onward.
func (s *Shell) RunFile(path string, args []string) (int, error) {
	f, err := s.session.Fds.Open(path)
	if err != nil {
		return process.StatusNotFound, err
	}
	defer f.Close()

	s.SetArgs(append([]string{path}, args...))
	return s.Run(f, path)
}

func (s *Shell) runFile(prog *syntax.File) int {
	return s.runStmts(prog.Stmts)
}

func (s *Shell) runStmts(stmts []*syntax.Stmt) int {
	for _, stmt := range stmts {
		if _, exited := s.Exited(); exited {
			break
		}
		s.lastStatus = s.execStmt(stmt)
	}
	if status, exited := s.Exited(); exited {
		return status
	}
	return s.lastStatus
}

// Exported returns the exported variables as "key=value" pairs.
func (s *Shell) Exported() []string {
	var out []string
	for _, entry := range s.vars.Environ() {
		key, _ := env.Split(entry)
		if s.exported[key] {
			out = append(out, entry)
		}
	}
	return out
}

// Getenv looks up a variable, including the special parameters.
func (s *Shell) Getenv(key string) string {
	value, _ := s.LookupEnv(key)
	return value
}

// LookupEnv looks up a variable, including the special parameters.
func (s *Shell) LookupEnv(key string) (string, bool) {
	switch key {
	case "?":
		return strconv.Itoa(s.lastStatus), true
	case "$":
		return strconv.Itoa(os.Getpid()), true
	case "#":
		return strconv.Itoa(len(s.args())), true
	case "@", "*":
		return strings.Join(s.args(), " "), true
	case "0":
		if len(s.positional) > 0 {
			return s.positional[0], true
		}
		return s.opts.Name, true
	case EnvPipeStatus:
		// Like any array, the bare name is its first element.
		if len(s.pipeStatus) == 0 {
			return "", false
		}
		return strconv.Itoa(s.pipeStatus[0]), true
	}

	if n, err := strconv.Atoi(key); err == nil && n > 0 {
		args := s.args()
		if n > len(args) {
			return "", false
		}
		return args[n-1], true
	}

	return s.vars.LookupEnv(key)
}

// Setenv sets a shell variable. New variables aren't exported.
func (s *Shell) Setenv(key, value string) {
	s.vars.Setenv(key, value)
}

// Unsetenv removes a shell variable.
func (s *Shell) Unsetenv(key string) {
	s.vars.Unsetenv(key)
	delete(s.exported, key)
}

// Export marks a variable to be passed to external commands.
func (s *Shell) Export(key string) {
	s.exported[key] = true
}

// Getwd returns the working directory.
func (s *Shell) Getwd() string {
	if wd, err := os.Getwd(); err == nil {
		return wd
	}
	return s.vars.Getenv(EnvPWD)
}

// Chdir changes the working directory of the shell process, which children
// inherit.
func (s *Shell) Chdir(dir string) error {
	err := os.Chdir(dir)
	var pathErr *os.PathError
	if errors.As(err, &pathErr) {
		return fmt.Errorf("%s: %w", dir, pathErr.Err)
	}
	return err
}

// Exit requests the shell stop after the current statement.
func (s *Shell) Exit(status int) {
	s.exitStatus = &status
}

// Source runs a script in this shell.
func (s *Shell) Source(path string, args []string) int {
	f, err := s.session.Fds.Open(path)
	if err != nil {
		s.errorf("source: %v", err)
		return 1
	}
	defer f.Close()

	prog, err := Parse(f, path)
	if err != nil {
		s.errorf("%v", err)
		return StatusUsage
	}

	if len(args) > 0 {
		saved := s.positional
		s.positional = append([]string{s.Getenv("0")}, args...)
		defer func() { s.positional = saved }()
	}
	return s.runFile(prog)
}

// LogInvalidInvocation records a builtin called with bad arguments.
func (s *Shell) LogInvalidInvocation(err error) {
	s.log.Infow(logger.MsgInvalidInvocation, "error", err.Error())
}

func (s *Shell) args() []string {
	if len(s.positional) < 2 {
		return nil
	}
	return s.positional[1:]
}

func (s *Shell) stderr() io.Writer {
	return process.FdWriter(2)
}

// errorf prints a diagnostic prefixed by the shell name to stderr.
func (s *Shell) errorf(format string, a ...interface{}) {
	prefix := s.color.Sprintf(commands.ColorBoldRed, "%s:", s.opts.Name)
	fmt.Fprintf(s.stderr(), "%s %s\n", prefix, fmt.Sprintf(format, a...))
}

func (s *Shell) reportExecError(err *process.ExecError) {
	s.log.Infow(logger.MsgExecFailed, "command", err.Name, "status", err.Status, "error", err.Error())
	s.errorf("%v", err)
}
