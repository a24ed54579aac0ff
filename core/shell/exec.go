package shell

import (
	"strings"

	"github.com/josephlewis42/forkshell/commands"
	"github.com/josephlewis42/forkshell/core/process"
	"mvdan.cc/sh/v3/syntax"
)

var _ process.Executor = (*Shell)(nil)

// Execute runs a *syntax.Stmt or *syntax.File in this process and returns
// its status.
func (s *Shell) Execute(node process.Node) int {
	switch node := node.(type) {
	case *syntax.File:
		return s.runFile(node)
	case *syntax.Stmt:
		s.lastStatus = s.execStmt(node)
		return s.lastStatus
	default:
		s.errorf("can't execute %T", node)
		return StatusUsage
	}
}

func (s *Shell) execStmt(stmt *syntax.Stmt) int {
	if stmt.Background || stmt.Coprocess {
		s.errorf("background jobs aren't supported")
		return StatusUsage
	}

	status := s.execRedirected(stmt)
	if !setsPipeStatus(stmt) {
		// A lone command is a pipeline of one.
		s.pipeStatus = []int{status}
	}
	if stmt.Negated {
		if status == 0 {
			return 1
		}
		return 0
	}
	return status
}

// setsPipeStatus reports whether running stmt already left PIPESTATUS set:
// pipelines, and-or lists and blocks end with a statement that set it.
func setsPipeStatus(stmt *syntax.Stmt) bool {
	switch cmd := stmt.Cmd.(type) {
	case *syntax.BinaryCmd:
		return true
	case *syntax.Block:
		return len(cmd.Stmts) > 0
	}
	return false
}

// execRedirected runs the statement's command with its redirects applied
// to the shell's own descriptors.
func (s *Shell) execRedirected(stmt *syntax.Stmt) int {
	if len(stmt.Redirs) > 0 {
		redirs, err := s.redirects(stmt.Redirs)
		if err != nil {
			s.errorf("%v", err)
			return 1
		}
		guard, err := s.session.Fds.Scope(redirs)
		if err != nil {
			s.errorf("%v", err)
			return 1
		}
		defer guard.Release()
	}

	if stmt.Cmd == nil {
		return 0
	}
	return s.execCommand(stmt.Cmd)
}

func (s *Shell) execCommand(cmd syntax.Command) int {
	switch cmd := cmd.(type) {
	case *syntax.CallExpr:
		return s.execCall(cmd)

	case *syntax.BinaryCmd:
		switch cmd.Op {
		case syntax.AndStmt:
			if status := s.execStmt(cmd.X); status != 0 {
				return status
			}
			return s.execStmt(cmd.Y)
		case syntax.OrStmt:
			if status := s.execStmt(cmd.X); status == 0 {
				return status
			}
			return s.execStmt(cmd.Y)
		case syntax.Pipe, syntax.PipeAll:
			return s.execPipeline(&syntax.Stmt{Cmd: cmd})
		}

	case *syntax.DeclClause:
		return s.execDecl(cmd)

	case *syntax.Block:
		return s.runStmts(cmd.Stmts)

	case *syntax.Subshell:
		proc := s.session.SubProgramProcess(s, &syntax.File{Stmts: cmd.Stmts})
		status, err := proc.Run(s.session.Waiter)
		if err != nil {
			s.errorf("%v", err)
			return 1
		}
		return status
	}

	s.errorf("unsupported command: %s", printNode(cmd))
	return StatusUsage
}

func (s *Shell) execCall(call *syntax.CallExpr) int {
	argv, err := s.evalArgs(call.Args)
	if err != nil {
		s.errorf("%v", err)
		return 1
	}

	assigns, err := s.evalAssigns(call.Assigns)
	if err != nil {
		s.errorf("%v", err)
		return 1
	}

	if len(argv) == 0 {
		// A bare assignment sets shell variables; otherwise they only apply
		// to the command.
		for _, a := range assigns {
			s.Setenv(a.name, a.value)
		}
		return 0
	}

	if builtin, ok := commands.LookupBuiltin(argv[0]); ok {
		return s.runBuiltin(builtin, argv, assigns)
	}

	proc := s.session.ExternalProcess(argv, assigns.toMap())
	status, err := proc.Run(s.session.Waiter)
	if err != nil {
		s.errorf("%v", err)
		return 1
	}
	return status
}

// execDecl runs export and the other declaration commands as the builtin
// of the same name.
func (s *Shell) execDecl(decl *syntax.DeclClause) int {
	argv, err := s.evalDecl(decl)
	if err != nil {
		s.errorf("%v", err)
		return 1
	}

	builtin, ok := commands.LookupBuiltin(argv[0])
	if !ok {
		s.errorf("%s: not supported", argv[0])
		return StatusUsage
	}
	return s.runBuiltin(builtin, argv, nil)
}

// runBuiltin runs cmd with prefix assignments visible only for its duration.
func (s *Shell) runBuiltin(cmd commands.BuiltinFunc, argv []string, assigns assignments) int {
	type savedVar struct {
		value string
		set   bool
	}
	saved := make(map[string]savedVar)
	for _, a := range assigns {
		if _, ok := saved[a.name]; !ok {
			value, set := s.vars.LookupEnv(a.name)
			saved[a.name] = savedVar{value: value, set: set}
		}
		s.vars.Setenv(a.name, a.value)
	}
	defer func() {
		for name, v := range saved {
			if v.set {
				s.vars.Setenv(name, v.value)
			} else {
				s.vars.Unsetenv(name)
			}
		}
	}()

	return cmd(&builtinContext{Shell: s, argv: argv})
}

// execPipeline runs each stage in its own child except a final builtin or
// bare assignment, which runs in this process so it can change shell state.
func (s *Shell) execPipeline(stmt *syntax.Stmt) int {
	stages := flattenPipe(stmt)
	p := s.session.NewPipeline()

	for i, stage := range stages {
		last := i == len(stages)-1
		if last && s.runsInPlace(stage) {
			p.AddLast(process.InPlace{Executor: s, Node: stage})
			break
		}

		proc, err := s.stageProcess(stage)
		if err != nil {
			s.errorf("%v", err)
			return 1
		}
		if last {
			p.AddLast(proc)
		} else {
			p.Add(proc)
		}
	}

	statuses, err := p.Run(s.session.Waiter, s.session.Fds)
	if err != nil {
		s.errorf("%v", err)
		return 1
	}
	s.pipeStatus = statuses
	return statuses[len(statuses)-1]
}

// stageProcess builds the child for a pipeline stage. Plain external
// commands are started directly; anything else re-enters the interpreter.
func (s *Shell) stageProcess(stmt *syntax.Stmt) (*process.Process, error) {
	call, ok := stmt.Cmd.(*syntax.CallExpr)
	if !ok || len(stmt.Redirs) > 0 || stmt.Negated || len(call.Args) == 0 {
		return s.session.SubProgramProcess(s, stmt), nil
	}

	argv, err := s.evalArgs(call.Args)
	if err != nil {
		return nil, err
	}
	if _, builtin := commands.LookupBuiltin(argv[0]); builtin {
		return s.session.SubProgramProcess(s, stmt), nil
	}

	assigns, err := s.evalAssigns(call.Assigns)
	if err != nil {
		return nil, err
	}
	return s.session.ExternalProcess(argv, assigns.toMap()), nil
}

// runsInPlace reports whether a final pipeline stage is a builtin or a bare
// assignment.
func (s *Shell) runsInPlace(stmt *syntax.Stmt) bool {
	call, ok := stmt.Cmd.(*syntax.CallExpr)
	if !ok {
		return false
	}
	if len(call.Args) == 0 {
		return true
	}
	name, err := s.evalWord(call.Args[0])
	if err != nil {
		return false
	}
	_, builtin := commands.LookupBuiltin(name)
	return builtin
}

// flattenPipe turns nested pipe commands into their stages. Stages joined
// with |& get their stderr sent down the pipe too.
func flattenPipe(stmt *syntax.Stmt) []*syntax.Stmt {
	bin, ok := stmt.Cmd.(*syntax.BinaryCmd)
	if !ok || (bin.Op != syntax.Pipe && bin.Op != syntax.PipeAll) ||
		stmt.Negated || stmt.Background || len(stmt.Redirs) > 0 {
		return []*syntax.Stmt{stmt}
	}

	stages := flattenPipe(bin.X)
	if bin.Op == syntax.PipeAll {
		withStderr := *stages[len(stages)-1]
		withStderr.Redirs = append(append([]*syntax.Redirect(nil), withStderr.Redirs...), stderrToStdout())
		stages[len(stages)-1] = &withStderr
	}
	return append(stages, flattenPipe(bin.Y)...)
}

func stderrToStdout() *syntax.Redirect {
	return &syntax.Redirect{
		Op:   syntax.DplOut,
		N:    &syntax.Lit{Value: "2"},
		Word: &syntax.Word{Parts: []syntax.WordPart{&syntax.Lit{Value: "1"}}},
	}
}

func printNode(node syntax.Node) string {
	var out strings.Builder
	if err := syntax.NewPrinter().Print(&out, node); err != nil {
		return "?"
	}
	return strings.TrimSpace(out.String())
}
