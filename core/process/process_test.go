package process

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProcess_Run(t *testing.T) {
	cases := map[string]struct {
		argv []string
		want int
	}{
		"true":    {[]string{"true"}, 0},
		"false":   {[]string{"false"}, 1},
		"exit 42": {[]string{"sh", "-c", "exit 42"}, 42},
		"SIGTERM": {[]string{"sh", "-c", "kill -TERM $$"}, 143},
		"SIGKILL": {[]string{"sh", "-c", "kill -KILL $$"}, 137},
	}

	for tn, tc := range cases {
		t.Run(tn, func(t *testing.T) {
			s := newTestSession(t)
			p := s.ExternalProcess(tc.argv, nil)
			assert.Equal(t, Unstarted, p.State())

			status, err := p.Run(s.Waiter)
			require.NoError(t, err)
			assert.Equal(t, tc.want, status)
			assert.Equal(t, Reaped, p.State())
			assert.NotZero(t, p.Pid())
			assert.Nil(t, p.ExecError())
			assert.Equal(t, 0, s.Waiter.Outstanding())
		})
	}
}

func TestProcess_RunTwice(t *testing.T) {
	s := newTestSession(t)
	p := s.ExternalProcess([]string{"sh", "-c", "exit 5"}, nil)

	first, err := p.Run(s.Waiter)
	require.NoError(t, err)
	pid := p.Pid()

	second, err := p.Run(s.Waiter)
	require.NoError(t, err)

	assert.Equal(t, 5, first)
	assert.Equal(t, first, second)
	assert.Equal(t, pid, p.Pid())
	status, ok := p.Status()
	assert.True(t, ok)
	assert.Equal(t, 5, status)
}

func TestProcess_notFound(t *testing.T) {
	s := newTestSession(t)
	openFdCount(t)
	before := openFdCount(t)

	p := s.ExternalProcess([]string{"_nonexistent_command_"}, nil)
	status, err := p.Run(s.Waiter)

	require.NoError(t, err)
	assert.Equal(t, StatusNotFound, status)
	assert.Equal(t, Reaped, p.State())
	assert.Zero(t, p.Pid())
	require.NotNil(t, p.ExecError())
	assert.True(t, errors.Is(p.ExecError(), ErrNotFound))
	assert.Equal(t, before, openFdCount(t))
}

func TestProcess_notExecutable(t *testing.T) {
	s := newTestSession(t)
	path := writeFile(t, "data.txt", "not a program", 0644)

	status, err := s.ExternalProcess([]string{path}, nil).Run(s.Waiter)

	require.NoError(t, err)
	assert.Equal(t, StatusNotExec, status)
}

func TestProcess_env(t *testing.T) {
	s := newTestSession(t)
	s.External.Env = map[string]string{"FORKSHELL_A": "program", "FORKSHELL_B": "program"}

	var status int
	out := captureStdout(t, s.Fds, func() {
		p := s.ExternalProcess(
			[]string{"sh", "-c", `echo "$FORKSHELL_A $FORKSHELL_B"`},
			map[string]string{"FORKSHELL_B": "override"},
		)
		var err error
		status, err = p.Run(s.Waiter)
		require.NoError(t, err)
	})

	assert.Equal(t, 0, status)
	assert.Equal(t, "program override\n", out)
}

func TestProcess_stdoutRedirect(t *testing.T) {
	s := newTestSession(t)

	out := captureStdout(t, s.Fds, func() {
		status, err := s.ExternalProcess([]string{"echo", "hello", "world"}, nil).Run(s.Waiter)
		require.NoError(t, err)
		assert.Equal(t, 0, status)
	})

	assert.Equal(t, "hello world\n", out)
}

func TestProcess_SubProgram(t *testing.T) {
	s := newTestSession(t)
	ex := &helperExecutor{}

	var status int
	out := captureStdout(t, s.Fds, func() {
		var err error
		status, err = s.SubProgramProcess(ex, "echo from the child").Run(s.Waiter)
		require.NoError(t, err)
	})
	assert.Equal(t, 0, status)
	assert.Equal(t, "from the child\n", out)

	status, err := s.SubProgramProcess(ex, "exit 7").Run(s.Waiter)
	require.NoError(t, err)
	assert.Equal(t, 7, status)
}

func TestProcess_startTwicePanics(t *testing.T) {
	s := newTestSession(t)
	p := s.ExternalProcess([]string{"true"}, nil)
	_, err := p.Run(s.Waiter)
	require.NoError(t, err)

	assert.Panics(t, func() { p.start(s.Waiter, 0, 1) })
}

func TestState_String(t *testing.T) {
	assert.Equal(t, "unstarted", Unstarted.String())
	assert.Equal(t, "running", Running.String())
	assert.Equal(t, "reaped", Reaped.String())
	assert.Equal(t, "State(9)", State(9).String())
}
