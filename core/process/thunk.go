package process

import (
	"fmt"
	"strings"
)

// Node is a parsed command. The process layer never looks inside it; it only
// hands it back to an Executor.
type Node interface{}

// Executor evaluates command nodes on behalf of the process layer.
type Executor interface {
	// Execute evaluates node in the calling process and returns its status.
	Execute(node Node) int

	// Reentry describes how to start a fresh interpreter process that
	// evaluates node and exits with its status.
	Reentry(node Node) (*Reentry, error)
}

// Reentry is the program a SubProgramThunk child executes.
type Reentry struct {
	Path string
	Argv []string
	Env  []string
}

// Thunk is what a child process becomes: either *ExternalThunk or
// *SubProgramThunk.
type Thunk interface {
	fmt.Stringer

	isThunk()
}

// ExternalThunk runs an external program.
type ExternalThunk struct {
	Program *ExternalProgram
	Argv    []string
	// Env overrides the inherited environment.
	Env map[string]string
}

func (t *ExternalThunk) String() string {
	return fmt.Sprintf("external %s", strings.Join(t.Argv, " "))
}

func (*ExternalThunk) isThunk() {}

// SubProgramThunk runs Node in a fresh interpreter process.
type SubProgramThunk struct {
	Executor Executor
	Node     Node
}

func (t *SubProgramThunk) String() string {
	return fmt.Sprintf("subprogram %T", t.Node)
}

func (*SubProgramThunk) isThunk() {}

var (
	_ Thunk = (*ExternalThunk)(nil)
	_ Thunk = (*SubProgramThunk)(nil)
)
