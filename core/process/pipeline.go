package process

import (
	"fmt"

	"go.uber.org/zap"
	"golang.org/x/sys/unix"
)

// LastStage is the final element of a Pipeline: either a *Process or an
// InPlace node.
type LastStage interface {
	isLastStage()
}

func (*Process) isLastStage() {}

// InPlace runs Node with Executor in the orchestrating process, reading
// from the pipeline, so it can change the shell's own state.
type InPlace struct {
	Executor Executor
	Node     Node
}

func (InPlace) isLastStage() {}

// Pipeline is a chain of stages, each stage's standard output feeding the
// next stage's standard input.
type Pipeline struct {
	procs []*Process
	last  LastStage
	ran   bool
	log   *zap.SugaredLogger
}

// NewPipeline creates an empty pipeline.
func NewPipeline(log *zap.SugaredLogger) *Pipeline {
	return &Pipeline{log: orNop(log)}
}

// Add appends a non-final stage.
func (p *Pipeline) Add(proc *Process) {
	p.procs = append(p.procs, proc)
}

// AddLast sets the final stage.
func (p *Pipeline) AddLast(stage LastStage) {
	p.last = stage
}

// Len returns the number of stages including the last one.
func (p *Pipeline) Len() int {
	if p.last == nil {
		return len(p.procs)
	}
	return len(p.procs) + 1
}

type pipeFds struct {
	r, w int
}

// Run starts every stage, then waits for all of them. The returned statuses
// are in the order stages were added, regardless of the order the children
// exit in. A stage exiting non-zero isn't an error.
func (p *Pipeline) Run(waiter *Waiter, fds *FdState) ([]int, error) {
	if p.last == nil {
		panic("process: pipeline run without a last stage")
	}
	if p.ran {
		panic("process: pipeline run twice")
	}
	p.ran = true

	n := len(p.procs)
	pipes := make([]pipeFds, 0, n)
	defer func() {
		closePipes(pipes)
	}()
	for i := 0; i < n; i++ {
		var ends [2]int
		if err := unix.Pipe2(ends[:], unix.O_CLOEXEC); err != nil {
			return nil, fmt.Errorf("create pipe %d: %w", i, err)
		}
		pipes = append(pipes, pipeFds{r: ends[0], w: ends[1]})
	}

	stages := p.procs[:n:n]
	if last, ok := p.last.(*Process); ok {
		stages = append(stages, last)
	}

	for i, proc := range stages {
		stdin, stdout := unix.Stdin, unix.Stdout
		if i > 0 {
			stdin = pipes[i-1].r
		}
		if i < n {
			stdout = pipes[i].w
		}
		if err := proc.start(waiter, stdin, stdout); err != nil {
			closePipes(pipes)
			p.collect(waiter, stages[:i])
			return nil, fmt.Errorf("start pipeline stage %d: %w", i, err)
		}
	}

	var lastStatus int
	var lastErr error
	inPlace, isInPlace := p.last.(InPlace)
	if isInPlace {
		stdin := -1
		if n > 0 {
			stdin = pipes[n-1].r
			pipes[n-1].r = -1
		}
		closePipes(pipes)
		lastStatus, lastErr = runInPlace(inPlace, stdin, fds)
	} else {
		closePipes(pipes)
	}

	statuses, err := p.collect(waiter, stages)
	if err != nil {
		return nil, err
	}
	if lastErr != nil {
		return nil, lastErr
	}
	if isInPlace {
		statuses = append(statuses, lastStatus)
	}

	p.log.Debugw("pipeline finished", "statuses", statuses)
	return statuses, nil
}

// collect waits for every running stage and returns all stage statuses in
// declaration order.
func (p *Pipeline) collect(waiter *Waiter, stages []*Process) ([]int, error) {
	statuses := make([]int, len(stages))
	running := make(map[int]int)
	for i, proc := range stages {
		switch proc.State() {
		case Running:
			running[proc.Pid()] = i
		case Reaped:
			statuses[i] = proc.status
		}
	}

	for len(running) > 0 {
		pid, status, err := waiter.waitForOneOf(func(pid int) bool {
			_, ok := running[pid]
			return ok
		})
		if err != nil {
			return nil, fmt.Errorf("wait for pipeline: %w", err)
		}
		i := running[pid]
		delete(running, pid)
		stages[i].finish(status)
		statuses[i] = status
	}
	return statuses, nil
}

// runInPlace evaluates the last stage with stdin, if any, on descriptor 0.
// stdin is consumed.
func runInPlace(stage InPlace, stdin int, fds *FdState) (int, error) {
	if stdin < 0 {
		return stage.Executor.Execute(stage.Node), nil
	}
	defer unix.Close(stdin)

	guard, err := fds.Scope([]Redirect{&DescRedirect{Fd: unix.Stdin, Source: stdin}})
	if err != nil {
		return 0, fmt.Errorf("connect last pipeline stage: %w", err)
	}
	defer guard.Release()

	return stage.Executor.Execute(stage.Node), nil
}

// closePipes closes every pipe end still open and marks it closed.
func closePipes(pipes []pipeFds) {
	for i := range pipes {
		if pipes[i].r >= 0 {
			unix.Close(pipes[i].r)
			pipes[i].r = -1
		}
		if pipes[i].w >= 0 {
			unix.Close(pipes[i].w)
			pipes[i].w = -1
		}
	}
}
