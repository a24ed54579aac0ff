package logger

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/josephlewis42/forkshell/core/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"
)

func TestReport(t *testing.T) {
	buf := &bytes.Buffer{}
	log, err := NewWriter(config.Log{Level: "info", Format: FormatJSON}, zapcore.AddSync(buf))
	require.NoError(t, err)

	log.Infow(MsgInvalidInvocation, "command", "read", "error", "unknown option: -x")
	log.Infow(MsgInvalidInvocation, "command", "read", "error", "unknown option: -x")
	log.Infow(MsgExecFailed, "command", "nope", "status", 127, "error", "nope: command not found")
	log.Warnw("reaped untracked child", "pid", 12)

	report := NewReport()
	require.NoError(t, ReadJSONLinesLog(buf, report.Update))

	assert.Equal(t, 4, report.LogEntries)
	assert.Equal(t, 3, report.Levels.Count("info"))
	assert.Equal(t, 1, report.Levels.Count("warn"))
	assert.Equal(t, 2, report.InvalidInvocations.Count("read", "unknown option: -x"))
	assert.Equal(t, 1, report.FailedCommands.Count("nope", "127", "nope: command not found"))
}

func TestReadJSONLinesLogError(t *testing.T) {
	err := ReadJSONLinesLog(strings.NewReader("{\"msg\": \"ok\"}\nnot json\n"), func(LogEntry) {})
	assert.Error(t, err)
}

func TestPathCounterMarshal(t *testing.T) {
	ctr := NewPathCounter("command")
	ctr.Increment("b")
	ctr.Increment("a")
	ctr.Increment("a")

	out, err := json.Marshal(ctr)
	require.NoError(t, err)
	assert.JSONEq(t, `[{"count":2,"event":{"command":"a"}},{"count":1,"event":{"command":"b"}}]`, string(out))

	empty, err := json.Marshal(NewPathCounter("x"))
	require.NoError(t, err)
	assert.Equal(t, "[]", string(empty))

	assert.Panics(t, func() { ctr.Increment("a", "b") })
}
