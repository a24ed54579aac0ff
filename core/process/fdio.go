package process

import (
	"io"
	"strings"

	"golang.org/x/sys/unix"
)

// ReadLine reads one line, including its trailing newline, from fd.
//
// It reads a byte at a time and keeps nothing between calls so that a
// redirect swapped in under fd is seen by the very next read. At end of
// input the partial line is returned with io.EOF.
func ReadLine(fd int) (string, error) {
	var line strings.Builder
	var b [1]byte
	for {
		n, err := unix.Read(fd, b[:])
		switch {
		case err == unix.EINTR:
			continue
		case err != nil:
			return line.String(), err
		case n == 0:
			return line.String(), io.EOF
		}

		line.WriteByte(b[0])
		if b[0] == '\n' {
			return line.String(), nil
		}
	}
}

// FdWriter writes to whatever descriptor number it holds currently refers
// to, following redirects applied after it was created.
type FdWriter int

var _ io.Writer = FdWriter(1)

func (w FdWriter) Write(b []byte) (int, error) {
	if err := writeAll(int(w), b); err != nil {
		return 0, err
	}
	return len(b), nil
}

// FdReader is the reading counterpart of FdWriter. It does no buffering.
type FdReader int

var _ io.Reader = FdReader(0)

func (r FdReader) Read(b []byte) (int, error) {
	for {
		n, err := unix.Read(int(r), b)
		switch {
		case err == unix.EINTR:
			continue
		case err != nil:
			return 0, err
		case n == 0 && len(b) > 0:
			return 0, io.EOF
		}
		return n, nil
	}
}

func writeAll(fd int, b []byte) error {
	for len(b) > 0 {
		n, err := unix.Write(fd, b)
		if err == unix.EINTR {
			continue
		}
		if err != nil {
			return err
		}
		b = b[n:]
	}
	return nil
}
