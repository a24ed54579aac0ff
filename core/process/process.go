package process

import (
	"errors"
	"fmt"

	"go.uber.org/zap"
	"golang.org/x/sys/unix"
)

// State is the lifecycle stage of a Process.
type State int

const (
	// Unstarted processes have not forked yet.
	Unstarted State = iota
	// Running processes have a child that hasn't been reaped.
	Running
	// Reaped processes have a final status.
	Reaped
)

func (s State) String() string {
	switch s {
	case Unstarted:
		return "unstarted"
	case Running:
		return "running"
	case Reaped:
		return "reaped"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// Process owns one child process built from a Thunk. A Process runs at most
// once; later calls to Run return the cached status.
type Process struct {
	thunk  Thunk
	state  State
	pid    int
	status int
	err    *ExecError
	log    *zap.SugaredLogger
}

// NewProcess creates an unstarted Process for thunk.
func NewProcess(thunk Thunk, log *zap.SugaredLogger) *Process {
	return &Process{thunk: thunk, log: orNop(log)}
}

// Thunk returns what the process runs.
func (p *Process) Thunk() Thunk {
	return p.thunk
}

// State returns the lifecycle stage.
func (p *Process) State() State {
	return p.state
}

// Pid returns the child's pid, or 0 if no child was started.
func (p *Process) Pid() int {
	return p.pid
}

// Status returns the exit status and whether it is known yet.
func (p *Process) Status() (int, bool) {
	return p.status, p.state == Reaped
}

// ExecError returns why the command couldn't be started, if it couldn't.
func (p *Process) ExecError() *ExecError {
	return p.err
}

// Run starts the child with the current standard input and output and
// blocks until waiter reports its status.
func (p *Process) Run(waiter *Waiter) (int, error) {
	if p.state == Unstarted {
		if err := p.start(waiter, unix.Stdin, unix.Stdout); err != nil {
			return 0, err
		}
	}
	if p.state == Reaped {
		return p.status, nil
	}

	status, err := waiter.WaitFor(p.pid)
	if err != nil {
		return 0, fmt.Errorf("wait for %s: %w", p.thunk, err)
	}
	p.finish(status)
	return status, nil
}

// start forks the child with the given standard input and output. Commands
// that can't be started go straight to Reaped with their conventional
// status.
func (p *Process) start(waiter *Waiter, stdin, stdout int) error {
	if p.state != Unstarted {
		panic("process: start called twice")
	}

	var pid int
	var err error
	switch t := p.thunk.(type) {
	case *ExternalThunk:
		pid, err = t.Program.Spawn(t.Argv, t.Env, stdin, stdout)
	case *SubProgramThunk:
		pid, err = spawnReentry(t, stdin, stdout)
	default:
		panic(fmt.Sprintf("process: unknown thunk %T", p.thunk))
	}

	var execErr *ExecError
	switch {
	case errors.As(err, &execErr):
		p.err = execErr
		p.finish(execErr.Status)
		return nil
	case err != nil:
		return err
	}

	waiter.Track(pid)
	p.pid = pid
	p.state = Running
	p.log.Debugw("process running", "pid", pid, "thunk", p.thunk.String())
	return nil
}

func (p *Process) finish(status int) {
	p.status = status
	p.state = Reaped
	p.log.Debugw("process finished", "pid", p.pid, "status", status)
}

func spawnReentry(t *SubProgramThunk, stdin, stdout int) (int, error) {
	re, err := t.Executor.Reentry(t.Node)
	if err != nil {
		return 0, fmt.Errorf("prepare subprogram: %w", err)
	}

	pid, err := forkExec(re.Path, re.Argv, re.Env, stdin, stdout)
	if err != nil {
		return 0, fmt.Errorf("start subprogram %s: %w", re.Path, err)
	}
	return pid, nil
}
