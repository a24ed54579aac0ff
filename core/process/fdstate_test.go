package process

import (
	"errors"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sys/unix"
)

// fdIdentity returns the device and inode behind fd, or ok=false if fd is
// closed.
func fdIdentity(t *testing.T, fd int) (ident [2]uint64, ok bool) {
	t.Helper()
	var st unix.Stat_t
	if err := unix.Fstat(fd, &st); err != nil {
		require.ErrorIs(t, err, unix.EBADF)
		return ident, false
	}
	return [2]uint64{uint64(st.Dev), st.Ino}, true
}

func TestFdState_stdinRedirect(t *testing.T) {
	fds := newTestSession(t).Fds
	path := writeFile(t, "one-two.txt", "one\ntwo\n", 0600)
	r := &PathRedirect{Op: PathRead, Fd: 0, Path: path}

	// Both reads see the first line because Pop closes the file each time.
	require.NoError(t, fds.Push([]Redirect{r}))
	line1, err := ReadLine(0)
	fds.Pop()
	require.NoError(t, err)

	require.NoError(t, fds.Push([]Redirect{r}))
	line2, err := ReadLine(0)
	fds.Pop()
	require.NoError(t, err)

	assert.Equal(t, "one\n", line1)
	assert.Equal(t, "one\n", line2)
}

func TestFdState_roundTrip(t *testing.T) {
	fds := newTestSession(t).Fds
	dir := t.TempDir()
	in := writeFile(t, "in.txt", "input\n", 0600)

	openFdCount(t)
	before := openFdCount(t)
	var identities [3][2]uint64
	var opened [3]bool
	for fd := 0; fd < 3; fd++ {
		identities[fd], opened[fd] = fdIdentity(t, fd)
	}
	_, fiftyOpen := fdIdentity(t, 50)
	require.False(t, fiftyOpen, "fd 50 should start closed")

	frames := [][]Redirect{
		{&PathRedirect{Op: PathWrite, Fd: 1, Path: filepath.Join(dir, "out.txt")}},
		{&PathRedirect{Op: PathRead, Fd: 0, Path: in}, &DescRedirect{Fd: 2, Source: 1}},
		{&PathRedirect{Op: PathAppend, Fd: 50, Path: filepath.Join(dir, "fifty.txt")}},
		{&HereRedirect{Fd: 0, Body: "here\n"}, &CloseRedirect{Fd: 50}},
	}
	for _, frame := range frames {
		require.NoError(t, fds.Push(frame))
	}
	assert.Equal(t, len(frames), fds.Depth())

	line, err := ReadLine(0)
	require.NoError(t, err)
	assert.Equal(t, "here\n", line)
	_, fiftyOpen = fdIdentity(t, 50)
	assert.False(t, fiftyOpen, "fd 50 should be closed by the top frame")

	for range frames {
		fds.Pop()
	}
	assert.Equal(t, 0, fds.Depth())

	assert.Equal(t, before, openFdCount(t))
	for fd := 0; fd < 3; fd++ {
		ident, ok := fdIdentity(t, fd)
		assert.Equal(t, opened[fd], ok, "fd %d open state", fd)
		assert.Equal(t, identities[fd], ident, "fd %d identity", fd)
	}
	_, fiftyOpen = fdIdentity(t, 50)
	assert.False(t, fiftyOpen, "fd 50 should be closed again")

	appended, err := os.ReadFile(filepath.Join(dir, "fifty.txt"))
	require.NoError(t, err)
	assert.Empty(t, appended)
}

func TestFdState_Open(t *testing.T) {
	fds := newTestSession(t).Fds

	// Missing files and directories fail with the same error type.
	_, missingErr := fds.Open(filepath.Join(t.TempDir(), "_nonexistent_"))
	_, dirErr := fds.Open(t.TempDir())

	var openErr *OpenError
	require.True(t, errors.As(missingErr, &openErr), "missing: %v", missingErr)
	assert.Equal(t, unix.ENOENT, openErr.Err)
	assert.True(t, errors.Is(missingErr, fs.ErrNotExist))

	require.True(t, errors.As(dirErr, &openErr), "dir: %v", dirErr)
	assert.Equal(t, unix.EISDIR, openErr.Err)

	path := writeFile(t, "ok.txt", "contents", 0600)
	f, err := fds.Open(path)
	require.NoError(t, err)
	defer f.Close()
	data, err := io.ReadAll(f)
	require.NoError(t, err)
	assert.Equal(t, "contents", string(data))
}

func TestFdState_PopEmpty(t *testing.T) {
	fds := newTestSession(t).Fds
	assert.Panics(t, fds.Pop)
}

func TestFdState_pushFailureRollsBack(t *testing.T) {
	fds := newTestSession(t).Fds
	dir := t.TempDir()

	openFdCount(t)
	before := openFdCount(t)
	stdout, _ := fdIdentity(t, 1)

	err := fds.Push([]Redirect{
		&PathRedirect{Op: PathWrite, Fd: 1, Path: filepath.Join(dir, "out.txt")},
		&PathRedirect{Op: PathRead, Fd: 0, Path: filepath.Join(dir, "missing.txt")},
	})

	var openErr *OpenError
	require.True(t, errors.As(err, &openErr), "got %v", err)
	assert.Equal(t, filepath.Join(dir, "missing.txt"), openErr.Path)
	assert.Equal(t, 0, fds.Depth())
	assert.Equal(t, before, openFdCount(t))
	after, _ := fdIdentity(t, 1)
	assert.Equal(t, stdout, after)
}

func TestFdState_badDescriptor(t *testing.T) {
	fds := newTestSession(t).Fds

	err := fds.Push([]Redirect{&DescRedirect{Fd: 1, Source: 77}})

	var redirErr *RedirectError
	require.True(t, errors.As(err, &redirErr), "got %v", err)
	assert.True(t, errors.Is(err, unix.EBADF))
	assert.Equal(t, 0, fds.Depth())
}

func TestFdState_savedCopiesReserved(t *testing.T) {
	fds := newTestSession(t).Fds
	stdout, _ := fdIdentity(t, 1)

	require.NoError(t, fds.Push([]Redirect{&CloseRedirect{Fd: 1}}))
	saved := fds.stack[0].saved[0].saved
	fds.Pop()

	assert.GreaterOrEqual(t, saved, ReservedFdMin)
	after, _ := fdIdentity(t, 1)
	assert.Equal(t, stdout, after)
}

func TestFdState_hereDoc(t *testing.T) {
	cases := map[string]string{
		"empty": "",
		"small": "hello\nworld\n",
		"large": strings.Repeat("0123456789abcdef\n", 10000),
	}

	for tn, body := range cases {
		t.Run(tn, func(t *testing.T) {
			fds := newTestSession(t).Fds

			require.NoError(t, fds.Push([]Redirect{&HereRedirect{Fd: 0, Body: body}}))
			got, err := io.ReadAll(FdReader(0))
			fds.Pop()

			require.NoError(t, err)
			assert.Equal(t, body, string(got))
		})
	}
}

func TestFdState_hereDocUnread(t *testing.T) {
	fds := newTestSession(t).Fds
	openFdCount(t)
	before := openFdCount(t)

	// Nobody reads the body; popping must still finish.
	body := strings.Repeat("x", 1<<20)
	require.NoError(t, fds.Push([]Redirect{&HereRedirect{Fd: 0, Body: body}}))
	fds.Pop()

	assert.Equal(t, before, openFdCount(t))
}

func TestGuard_Release(t *testing.T) {
	fds := newTestSession(t).Fds
	dir := t.TempDir()

	outer, err := fds.Scope([]Redirect{&PathRedirect{Op: PathWrite, Fd: 1, Path: filepath.Join(dir, "a")}})
	require.NoError(t, err)
	inner, err := fds.Scope([]Redirect{&PathRedirect{Op: PathWrite, Fd: 1, Path: filepath.Join(dir, "b")}})
	require.NoError(t, err)

	assert.Panics(t, outer.Release, "releasing the outer guard first")

	inner.Release()
	inner.Release()
	assert.Equal(t, 1, fds.Depth())

	outer.Release()
	assert.Equal(t, 0, fds.Depth())

	var nilGuard *Guard
	assert.NotPanics(t, nilGuard.Release)
}

func TestReadLine(t *testing.T) {
	fds := newTestSession(t).Fds
	require.NoError(t, fds.Push([]Redirect{&HereRedirect{Fd: 0, Body: "a\nb"}}))
	defer fds.Pop()

	line, err := ReadLine(0)
	require.NoError(t, err)
	assert.Equal(t, "a\n", line)

	line, err = ReadLine(0)
	assert.Equal(t, io.EOF, err)
	assert.Equal(t, "b", line)
}
