package process

import (
	"errors"
	"fmt"
	"io/fs"
	"os/exec"

	"golang.org/x/sys/unix"
)

// Conventional shell exit statuses.
const (
	StatusOK          = 0
	StatusNotExec     = 126
	StatusNotFound    = 127
	StatusSignalBase  = 128
	statusExitMask    = 0xff
	heredocPipeBuffer = 4096
)

var (
	// ErrNotFound is the error resulting if a path search failed to find an
	// executable file.
	ErrNotFound = exec.ErrNotFound

	// ErrPermission is returned when a command resolves to something that
	// can't be executed.
	ErrPermission = fs.ErrPermission

	// ErrNoChildren is returned when the kernel reports no children while
	// the Waiter still believes some are outstanding.
	ErrNoChildren = errors.New("no child processes to wait for")
)

// OpenError is the single error kind for a failed open, whether the path
// was missing, a directory or otherwise unusable.
type OpenError struct {
	Path string
	Err  unix.Errno
}

func (e *OpenError) Error() string {
	return fmt.Sprintf("can't open %q: %s", e.Path, e.Err.Error())
}

// Unwrap allows errors.Is(err, fs.ErrNotExist) and friends.
func (e *OpenError) Unwrap() error {
	return e.Err
}

// RedirectError reports a redirect that referenced an unusable descriptor.
type RedirectError struct {
	Redirect Redirect
	Err      error
}

func (e *RedirectError) Error() string {
	return fmt.Sprintf("redirect %s: %v", e.Redirect, e.Err)
}

func (e *RedirectError) Unwrap() error {
	return e.Err
}

// ExecError describes a command that could not be started. Status holds the
// exit status the shell reports for it.
type ExecError struct {
	Name   string
	Status int
	Err    error
}

func (e *ExecError) Error() string {
	switch {
	case errors.Is(e.Err, ErrNotFound):
		return fmt.Sprintf("%s: command not found", e.Name)
	case errors.Is(e.Err, ErrPermission):
		return fmt.Sprintf("%s: permission denied", e.Name)
	default:
		return fmt.Sprintf("%s: %v", e.Name, e.Err)
	}
}

func (e *ExecError) Unwrap() error {
	return e.Err
}

// toErrno extracts an errno from err, defaulting to EIO.
func toErrno(err error) unix.Errno {
	var errno unix.Errno
	if errors.As(err, &errno) {
		return errno
	}
	return unix.EIO
}
