package process

import (
	"fmt"
	"sort"

	"go.uber.org/zap"
	"golang.org/x/sys/unix"
)

// Waiter reaps children and maps each pid to its exit status, whatever
// order the children finish in. It must be the only code reaping children
// in the process.
type Waiter struct {
	outstanding map[int]struct{}
	// reaped holds statuses collected while waiting for some other pid.
	reaped map[int]int
	log    *zap.SugaredLogger

	// wait4 is swapped out in tests.
	wait4 func(status *unix.WaitStatus) (int, error)
}

// NewWaiter creates a Waiter with no outstanding children.
func NewWaiter(log *zap.SugaredLogger) *Waiter {
	return &Waiter{
		outstanding: make(map[int]struct{}),
		reaped:      make(map[int]int),
		log:         orNop(log),
		wait4: func(status *unix.WaitStatus) (int, error) {
			return unix.Wait4(-1, status, 0, nil)
		},
	}
}

// Track registers a freshly started child.
func (w *Waiter) Track(pid int) {
	w.outstanding[pid] = struct{}{}
}

// Outstanding returns the number of children started but not yet returned
// to a caller.
func (w *Waiter) Outstanding() int {
	return len(w.outstanding)
}

// WaitForOne blocks until any tracked child has terminated and returns its
// pid and normalized status. Statuses already collected by WaitFor are
// handed out first, lowest pid first.
//
// Calling WaitForOne with nothing outstanding is a bookkeeping bug and
// panics.
func (w *Waiter) WaitForOne() (pid, status int, err error) {
	if len(w.outstanding) == 0 {
		panic("process: WaitForOne called with no outstanding children")
	}
	return w.waitForOneOf(func(int) bool { return true })
}

// WaitFor blocks until pid has terminated, stashing the statuses of any
// other children reaped in the meantime.
func (w *Waiter) WaitFor(pid int) (int, error) {
	if _, ok := w.outstanding[pid]; !ok {
		return 0, fmt.Errorf("pid %d: %w", pid, ErrNoChildren)
	}
	_, status, err := w.waitForOneOf(func(got int) bool { return got == pid })
	return status, err
}

// waitForOneOf returns the first terminated child accepted by want,
// stashing any others it reaps along the way.
func (w *Waiter) waitForOneOf(want func(pid int) bool) (int, int, error) {
	pids := make([]int, 0, len(w.reaped))
	for pid := range w.reaped {
		pids = append(pids, pid)
	}
	sort.Ints(pids)
	for _, pid := range pids {
		if want(pid) {
			return pid, w.claim(pid), nil
		}
	}

	for {
		pid, status, err := w.reapOne()
		if err != nil {
			return 0, 0, err
		}
		if want(pid) {
			delete(w.outstanding, pid)
			return pid, status, nil
		}
		w.reaped[pid] = status
	}
}

func (w *Waiter) claim(pid int) int {
	status := w.reaped[pid]
	delete(w.reaped, pid)
	delete(w.outstanding, pid)
	return status
}

// reapOne waits for the next tracked child to terminate.
func (w *Waiter) reapOne() (int, int, error) {
	for {
		var ws unix.WaitStatus
		pid, err := w.wait4(&ws)
		switch {
		case err == unix.EINTR:
			continue
		case err == unix.ECHILD:
			return 0, 0, ErrNoChildren
		case err != nil:
			return 0, 0, fmt.Errorf("wait4: %w", err)
		}

		if _, ok := w.outstanding[pid]; !ok {
			w.log.Warnw("reaped untracked child", "pid", pid)
			continue
		}

		status := ExitStatus(ws)
		w.log.Debugw("reaped child", "pid", pid, "status", status)
		return pid, status, nil
	}
}

// ExitStatus normalizes a raw wait status: signal deaths become 128+signo,
// normal exits keep their low-order exit code.
func ExitStatus(ws unix.WaitStatus) int {
	switch {
	case ws.Signaled():
		return StatusSignalBase + int(ws.Signal())
	case ws.Exited():
		return ws.ExitStatus() & statusExitMask
	default:
		// Only stopped or continued children land here, and we never ask
		// for those.
		return int(ws) & statusExitMask
	}
}
