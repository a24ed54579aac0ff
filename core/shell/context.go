package shell

import (
	"io"

	"github.com/josephlewis42/forkshell/commands"
	"github.com/josephlewis42/forkshell/core/logger"
	"github.com/josephlewis42/forkshell/core/process"
)

// builtinContext is the view of the shell given to one builtin call.
type builtinContext struct {
	*Shell
	argv []string
}

var _ commands.Context = (*builtinContext)(nil)

func (c *builtinContext) Args() []string {
	return c.argv
}

func (c *builtinContext) Stdout() io.Writer {
	return process.FdWriter(1)
}

func (c *builtinContext) Stderr() io.Writer {
	return process.FdWriter(2)
}

func (c *builtinContext) ReadLine() (string, error) {
	return process.ReadLine(0)
}

func (c *builtinContext) LogInvalidInvocation(err error) {
	c.log.Infow(logger.MsgInvalidInvocation, "command", c.argv[0], "error", err.Error())
}
