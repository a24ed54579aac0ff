package shell

import (
	"errors"
	"fmt"
	"os"

	"github.com/josephlewis42/forkshell/core/process"
	getopt "github.com/pborman/getopt/v2"
	"mvdan.cc/sh/v3/syntax"
	"sigs.k8s.io/yaml"
)

// SubprogramCommand is the first argument of a re-entered interpreter.
const SubprogramCommand = "__subprogram"

// snapshot is the shell state a re-entered child starts from. Exported
// variables travel in the child's environment instead.
type snapshot struct {
	Unexported map[string]string `json:"unexported,omitempty"`
	Positional []string          `json:"positional,omitempty"`
	Status     int               `json:"status"`
	PipeStatus []int             `json:"pipe_status,omitempty"`

	Name          string            `json:"name"`
	Color         string            `json:"color,omitempty"`
	HijackShebang string            `json:"hijack_shebang,omitempty"`
	Env           map[string]string `json:"env,omitempty"`
}

func (s *Shell) snapshot() *snapshot {
	snap := &snapshot{
		Positional:    s.positional,
		Status:        s.lastStatus,
		PipeStatus:    s.pipeStatus,
		Name:          s.opts.Name,
		Color:         s.opts.Color,
		HijackShebang: s.opts.HijackShebang,
		Env:           s.opts.Env,
	}
	for key, value := range s.vars.Map() {
		if s.exported[key] {
			continue
		}
		if snap.Unexported == nil {
			snap.Unexported = make(map[string]string)
		}
		snap.Unexported[key] = value
	}
	return snap
}

func (s *Shell) restore(snap *snapshot) {
	for key, value := range snap.Unexported {
		s.vars.Setenv(key, value)
	}
	s.positional = snap.Positional
	s.lastStatus = snap.Status
	s.pipeStatus = snap.PipeStatus
}

// Reentry describes a child running this program's subprogram command on
// node with a copy of the shell state.
func (s *Shell) Reentry(node process.Node) (*process.Reentry, error) {
	synNode, ok := node.(syntax.Node)
	if !ok {
		return nil, fmt.Errorf("can't re-enter with %T", node)
	}
	src := printNode(synNode)

	state, err := yaml.Marshal(s.snapshot())
	if err != nil {
		return nil, fmt.Errorf("snapshot shell state: %w", err)
	}

	argv := append([]string{s.opts.Self}, s.opts.SelfArgs...)
	argv = append(argv, SubprogramCommand, "--state", string(state), "-c", src)
	return &process.Reentry{
		Path: s.opts.Self,
		Argv: argv,
		Env:  s.Exported(),
	}, nil
}

// ReentryArgs are the arguments following SubprogramCommand.
type ReentryArgs struct {
	State  string
	Source string
}

// ParseReentryArgs parses the arguments following SubprogramCommand.
func ParseReentryArgs(args []string) (*ReentryArgs, error) {
	opts := getopt.New()
	state := opts.StringLong("state", 's', "", "YAML shell state")
	source := opts.StringLong("command", 'c', "", "program to run")

	if err := opts.Getopt(append([]string{SubprogramCommand}, args...), nil); err != nil {
		return nil, err
	}
	if !opts.IsSet("command") {
		return nil, errors.New("missing --command")
	}
	return &ReentryArgs{State: *state, Source: *source}, nil
}

// RunReentry restores the shell state in args and runs its program,
// returning the status the child should exit with.
func RunReentry(args *ReentryArgs, opts Options) int {
	var snap snapshot
	if err := yaml.UnmarshalStrict([]byte(args.State), &snap); err != nil {
		fmt.Fprintf(os.Stderr, "%s: bad subprogram state: %v\n", SubprogramCommand, err)
		return StatusUsage
	}

	opts.Name = snap.Name
	opts.Color = snap.Color
	opts.HijackShebang = snap.HijackShebang
	opts.Env = snap.Env

	s, err := New(opts)
	if err != nil {
		fmt.Fprintf(os.Stderr, "%s: %v\n", SubprogramCommand, err)
		return StatusUsage
	}
	s.restore(&snap)
	s.log.Debugw("re-entered", "source", args.Source)

	status, err := s.RunString(args.Source)
	if err != nil {
		s.errorf("%v", err)
	}
	return status
}
