package process

import (
	"fmt"

	"golang.org/x/sys/unix"
)

// Redirect is a single descriptor redirection. Its concrete type is one of
// the *Redirect types below.
type Redirect interface {
	// TargetFd is the descriptor the redirect replaces.
	TargetFd() int
	fmt.Stringer

	// ensure only structs in this package can satisfy this interface
	isRedirect()
}

// PathOp selects how a PathRedirect opens its file.
type PathOp int

const (
	// PathRead is `n<path`.
	PathRead PathOp = iota
	// PathWrite is `n>path`.
	PathWrite
	// PathClobber is `n>|path`.
	PathClobber
	// PathAppend is `n>>path`.
	PathAppend
	// PathReadWrite is `n<>path`.
	PathReadWrite
)

var pathOpSymbols = map[PathOp]string{
	PathRead:      "<",
	PathWrite:     ">",
	PathClobber:   ">|",
	PathAppend:    ">>",
	PathReadWrite: "<>",
}

func (op PathOp) String() string {
	if s, ok := pathOpSymbols[op]; ok {
		return s
	}
	return fmt.Sprintf("PathOp(%d)", int(op))
}

// flags returns the open(2) flags for the operation.
func (op PathOp) flags() int {
	switch op {
	case PathWrite, PathClobber:
		return unix.O_WRONLY | unix.O_CREAT | unix.O_TRUNC
	case PathAppend:
		return unix.O_WRONLY | unix.O_CREAT | unix.O_APPEND
	case PathReadWrite:
		return unix.O_RDWR | unix.O_CREAT
	default:
		return unix.O_RDONLY
	}
}

// PathRedirect redirects Fd to a file, like `<in.txt` or `2>>err.log`.
type PathRedirect struct {
	Op   PathOp
	Fd   int
	Path string
}

// TargetFd implements Redirect.TargetFd.
func (r *PathRedirect) TargetFd() int { return r.Fd }

func (r *PathRedirect) String() string {
	return fmt.Sprintf("%d%s%s", r.Fd, r.Op, r.Path)
}

func (*PathRedirect) isRedirect() {}

// DescRedirect makes Fd a duplicate of Source, like `2>&1`.
type DescRedirect struct {
	Fd     int
	Source int
}

// TargetFd implements Redirect.TargetFd.
func (r *DescRedirect) TargetFd() int { return r.Fd }

func (r *DescRedirect) String() string {
	return fmt.Sprintf("%d>&%d", r.Fd, r.Source)
}

func (*DescRedirect) isRedirect() {}

// CloseRedirect closes Fd, like `2>&-`.
type CloseRedirect struct {
	Fd int
}

// TargetFd implements Redirect.TargetFd.
func (r *CloseRedirect) TargetFd() int { return r.Fd }

func (r *CloseRedirect) String() string {
	return fmt.Sprintf("%d>&-", r.Fd)
}

func (*CloseRedirect) isRedirect() {}

// HereRedirect feeds Body to Fd through a pipe, like `<<EOF` or `<<<word`.
type HereRedirect struct {
	Fd   int
	Body string
}

// TargetFd implements Redirect.TargetFd.
func (r *HereRedirect) TargetFd() int { return r.Fd }

func (r *HereRedirect) String() string {
	return fmt.Sprintf("%d<<(%d bytes)", r.Fd, len(r.Body))
}

func (*HereRedirect) isRedirect() {}

var (
	_ Redirect = (*PathRedirect)(nil)
	_ Redirect = (*DescRedirect)(nil)
	_ Redirect = (*CloseRedirect)(nil)
	_ Redirect = (*HereRedirect)(nil)
)
