package process

import (
	"errors"
	"os"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sys/unix"
)

// ReservedFdMin is the lowest descriptor FdState keeps saved copies in.
// Scripts may only name descriptors below it.
const ReservedFdMin = 100

type savedFd struct {
	target int
	// saved is -1 when target was closed before the redirect.
	saved int
}

type fdFrame struct {
	saved   []savedFd
	writers *errgroup.Group
}

// FdState is a stack of redirect frames applied to the process descriptor
// table. Frames are popped in the reverse order they were pushed.
type FdState struct {
	stack []*fdFrame
	log   *zap.SugaredLogger
}

// NewFdState creates an empty redirect stack.
func NewFdState(log *zap.SugaredLogger) *FdState {
	return &FdState{log: orNop(log)}
}

// Depth returns the number of frames currently pushed.
func (f *FdState) Depth() int {
	return len(f.stack)
}

// Open opens path for reading. Missing files, directories and every other
// failure all produce an *OpenError.
func (f *FdState) Open(path string) (*os.File, error) {
	fd, err := openFd(path, unix.O_RDONLY)
	if err != nil {
		return nil, err
	}
	return os.NewFile(uintptr(fd), path), nil
}

// Push applies redirects in order and records how to undo them as one
// frame. If any redirect fails the ones already applied are undone, nothing
// is pushed and the error is returned.
func (f *FdState) Push(redirects []Redirect) error {
	frame := &fdFrame{}
	for _, r := range redirects {
		if err := f.apply(frame, r); err != nil {
			f.restore(frame)
			f.log.Debugw("redirect failed", "redirect", r.String(), "error", err)
			return err
		}
	}

	f.stack = append(f.stack, frame)
	f.log.Debugw("pushed redirects", "depth", len(f.stack), "count", len(redirects))
	return nil
}

// Pop undoes the most recent frame. Popping an empty stack is a bug in the
// caller and panics.
func (f *FdState) Pop() {
	if len(f.stack) == 0 {
		panic("process: Pop called on an empty redirect stack")
	}

	frame := f.stack[len(f.stack)-1]
	f.stack = f.stack[:len(f.stack)-1]
	f.restore(frame)
	f.log.Debugw("popped redirects", "depth", len(f.stack), "count", len(frame.saved))
}

// Scope pushes redirects and returns a Guard that pops them.
func (f *FdState) Scope(redirects []Redirect) (*Guard, error) {
	if err := f.Push(redirects); err != nil {
		return nil, err
	}
	return &Guard{fds: f, depth: len(f.stack)}, nil
}

// Guard pops the frame pushed by FdState.Scope. Release is safe to call
// more than once and on a nil Guard.
type Guard struct {
	fds      *FdState
	depth    int
	released bool
}

// Release pops the guarded frame if it hasn't been popped yet.
func (g *Guard) Release() {
	if g == nil || g.released {
		return
	}
	if len(g.fds.stack) != g.depth {
		panic("process: redirect guards released out of order")
	}
	g.released = true
	g.fds.Pop()
}

func (f *FdState) apply(frame *fdFrame, r Redirect) error {
	target := r.TargetFd()
	saved, err := saveFd(target)
	if err != nil {
		return &RedirectError{Redirect: r, Err: err}
	}
	// Record the save first so a failure below still restores the target.
	frame.saved = append(frame.saved, savedFd{target: target, saved: saved})

	switch r := r.(type) {
	case *PathRedirect:
		fd, err := openFd(r.Path, r.Op.flags())
		if err != nil {
			return err
		}
		return moveFd(fd, target)

	case *DescRedirect:
		if r.Source == target {
			if saved < 0 {
				return &RedirectError{Redirect: r, Err: unix.EBADF}
			}
			return nil
		}
		if err := dup3(r.Source, target); err != nil {
			return &RedirectError{Redirect: r, Err: err}
		}
		return nil

	case *CloseRedirect:
		if saved >= 0 {
			unix.Close(target)
		}
		return nil

	case *HereRedirect:
		fd, err := f.hereDoc(frame, r.Body)
		if err != nil {
			return &RedirectError{Redirect: r, Err: err}
		}
		return moveFd(fd, target)

	default:
		panic("process: unknown redirect type")
	}
}

func (f *FdState) restore(frame *fdFrame) {
	for i := len(frame.saved) - 1; i >= 0; i-- {
		s := frame.saved[i]
		if s.saved < 0 {
			unix.Close(s.target)
			continue
		}
		if err := dup3(s.saved, s.target); err != nil {
			f.log.Errorw("couldn't restore descriptor", "fd", s.target, "saved", s.saved, "error", err)
		}
		unix.Close(s.saved)
	}

	if frame.writers != nil {
		if err := frame.writers.Wait(); err != nil {
			f.log.Warnw("here-doc writer failed", "error", err)
		}
	}
}

// hereDoc returns the read end of a pipe that yields body. Bodies that fit
// in the pipe buffer are written up front; larger ones are written by a
// goroutine joined when the frame is popped.
func (f *FdState) hereDoc(frame *fdFrame, body string) (int, error) {
	var p [2]int
	if err := unix.Pipe2(p[:], unix.O_CLOEXEC); err != nil {
		return -1, err
	}
	r, w := p[0], p[1]

	if len(body) <= heredocPipeBuffer {
		err := writeAll(w, []byte(body))
		unix.Close(w)
		if err != nil {
			unix.Close(r)
			return -1, err
		}
		return r, nil
	}

	if frame.writers == nil {
		frame.writers = &errgroup.Group{}
	}
	frame.writers.Go(func() error {
		defer unix.Close(w)
		// The reader may legitimately stop early.
		if err := writeAll(w, []byte(body)); err != nil && !errors.Is(err, unix.EPIPE) {
			return err
		}
		return nil
	})
	return r, nil
}

// openFd opens path close-on-exec. Directories are rejected even for
// reading so every caller sees the same *OpenError for unusable paths.
func openFd(path string, flags int) (int, error) {
	var fd int
	var err error
	for {
		fd, err = unix.Open(path, flags|unix.O_CLOEXEC, 0666)
		if err != unix.EINTR {
			break
		}
	}
	if err != nil {
		return -1, &OpenError{Path: path, Err: toErrno(err)}
	}

	var st unix.Stat_t
	if err := unix.Fstat(fd, &st); err != nil {
		unix.Close(fd)
		return -1, &OpenError{Path: path, Err: toErrno(err)}
	}
	if st.Mode&unix.S_IFMT == unix.S_IFDIR {
		unix.Close(fd)
		return -1, &OpenError{Path: path, Err: unix.EISDIR}
	}
	return fd, nil
}

// saveFd duplicates target out of the way. It returns -1 if target isn't
// open.
func saveFd(target int) (int, error) {
	saved, err := unix.FcntlInt(uintptr(target), unix.F_DUPFD_CLOEXEC, ReservedFdMin)
	if err == unix.EBADF {
		return -1, nil
	}
	return saved, err
}

// moveFd makes fd available as target, consuming fd.
func moveFd(fd, target int) error {
	if fd == target {
		// Opened straight into the slot; children must inherit it.
		_, err := unix.FcntlInt(uintptr(fd), unix.F_SETFD, 0)
		return err
	}
	err := dup3(fd, target)
	unix.Close(fd)
	return err
}

func dup3(from, to int) error {
	for {
		err := unix.Dup3(from, to, 0)
		if err != unix.EINTR && err != unix.EBUSY {
			return err
		}
	}
}

func orNop(log *zap.SugaredLogger) *zap.SugaredLogger {
	if log == nil {
		return zap.NewNop().Sugar()
	}
	return log
}
