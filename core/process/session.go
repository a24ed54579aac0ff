package process

import "go.uber.org/zap"

// Session bundles the per-interpreter process state. Each interpreter
// process, including every re-entered child, builds its own.
type Session struct {
	Fds      *FdState
	Waiter   *Waiter
	External *ExternalProgram
	Log      *zap.SugaredLogger
}

// NewSession creates a session with an empty redirect stack and no
// outstanding children.
func NewSession(log *zap.SugaredLogger) *Session {
	log = orNop(log)
	return &Session{
		Fds:      NewFdState(log.Named("fd")),
		Waiter:   NewWaiter(log.Named("wait")),
		External: NewExternalProgram(log.Named("exec")),
		Log:      log,
	}
}

// ExternalProcess creates a process running argv with env overrides.
func (s *Session) ExternalProcess(argv []string, env map[string]string) *Process {
	return NewProcess(&ExternalThunk{Program: s.External, Argv: argv, Env: env}, s.Log)
}

// SubProgramProcess creates a process evaluating node in a fresh
// interpreter.
func (s *Session) SubProgramProcess(ex Executor, node Node) *Process {
	return NewProcess(&SubProgramThunk{Executor: ex, Node: node}, s.Log)
}

// NewPipeline creates an empty pipeline logging to the session logger.
func (s *Session) NewPipeline() *Pipeline {
	return NewPipeline(s.Log)
}
