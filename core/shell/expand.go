package shell

import (
	"fmt"
	"strconv"
	"strings"

	"mvdan.cc/sh/v3/expand"
	"mvdan.cc/sh/v3/syntax"
)

type assignment struct {
	name  string
	value string
}

type assignments []assignment

func (a assignments) toMap() map[string]string {
	if len(a) == 0 {
		return nil
	}
	out := make(map[string]string, len(a))
	for _, v := range a {
		out[v.name] = v.value
	}
	return out
}

// unsupportedError reports syntax the shell parses but can't evaluate.
type unsupportedError struct {
	node syntax.Node
}

func (e *unsupportedError) Error() string {
	return fmt.Sprintf("unsupported syntax: %s", printNode(e.node))
}

// shellEnviron exposes the shell's variables to the expand package.
// Prefix assignments being evaluated shadow the shell's own variables.
type shellEnviron struct {
	s       *Shell
	assigns map[string]string
}

var _ expand.WriteEnviron = shellEnviron{}

func (e shellEnviron) Get(name string) expand.Variable {
	if value, ok := e.assigns[name]; ok {
		return stringVar(value, e.s.exported[name])
	}

	switch name {
	case EnvPipeStatus:
		if len(e.s.pipeStatus) == 0 {
			return expand.Variable{}
		}
		list := make([]string, 0, len(e.s.pipeStatus))
		for _, status := range e.s.pipeStatus {
			list = append(list, strconv.Itoa(status))
		}
		return expand.Variable{Set: true, Kind: expand.Indexed, List: list}
	case "@", "*":
		return expand.Variable{Set: true, Kind: expand.Indexed, List: append([]string{}, e.s.args()...)}
	}

	value, ok := e.s.LookupEnv(name)
	if !ok {
		return expand.Variable{}
	}
	return stringVar(value, e.s.exported[name])
}

// Set handles ${NAME=word} and ${NAME:=word}.
func (e shellEnviron) Set(name string, vr expand.Variable) error {
	if vr.Kind != expand.String {
		return fmt.Errorf("%s: only string variables can be assigned", name)
	}
	if _, ok := e.assigns[name]; ok {
		e.assigns[name] = vr.Str
	}
	e.s.Setenv(name, vr.Str)
	return nil
}

func (e shellEnviron) Each(fn func(name string, vr expand.Variable) bool) {
	for name := range e.s.vars.Map() {
		if !fn(name, e.Get(name)) {
			return
		}
	}
}

func stringVar(value string, exported bool) expand.Variable {
	return expand.Variable{Set: true, Kind: expand.String, Str: value, Exported: exported}
}

func (s *Shell) expandConfig() *expand.Config {
	return &expand.Config{Env: shellEnviron{s: s}}
}

func (s *Shell) evalArgs(words []*syntax.Word) ([]string, error) {
	cfg := s.expandConfig()
	var out []string
	for _, word := range words {
		arg, err := expand.Literal(cfg, word)
		if err != nil {
			return nil, err
		}
		out = append(out, arg)
	}
	return out, nil
}

// evalAssigns expands prefix assignments in order; each value can see the
// assignments before it.
func (s *Shell) evalAssigns(assigns []*syntax.Assign) (assignments, error) {
	env := shellEnviron{s: s, assigns: make(map[string]string)}
	cfg := &expand.Config{Env: env}

	var out assignments
	for _, assign := range assigns {
		if assign.Name == nil || assign.Index != nil || assign.Array != nil || assign.Naked {
			return nil, &unsupportedError{node: assign}
		}
		name := assign.Name.Value
		value, err := expand.Literal(cfg, assign.Value)
		if err != nil {
			return nil, err
		}
		if assign.Append {
			value = env.Get(name).String() + value
		}
		env.assigns[name] = value
		out = append(out, assignment{name: name, value: value})
	}
	return out, nil
}

// evalDecl turns the arguments of export, readonly, local and declare into
// the argv their builtin expects: flags and bare names as they are, and
// assignments as NAME=value.
func (s *Shell) evalDecl(decl *syntax.DeclClause) ([]string, error) {
	cfg := s.expandConfig()
	argv := []string{decl.Variant.Value}
	for _, assign := range decl.Args {
		switch {
		case assign.Index != nil || assign.Array != nil:
			return nil, &unsupportedError{node: assign}

		case assign.Name == nil:
			arg, err := expand.Literal(cfg, assign.Value)
			if err != nil {
				return nil, err
			}
			argv = append(argv, arg)

		case assign.Naked:
			argv = append(argv, assign.Name.Value)

		default:
			name := assign.Name.Value
			value, err := expand.Literal(cfg, assign.Value)
			if err != nil {
				return nil, err
			}
			if assign.Append {
				value = s.Getenv(name) + value
			}
			argv = append(argv, name+"="+value)
		}
	}
	return argv, nil
}

func (s *Shell) evalWord(word *syntax.Word) (string, error) {
	return expand.Literal(s.expandConfig(), word)
}

// evalHeredoc expands the body of a here-document. A quoted delimiter keeps
// the body as written, and <<- strips leading tabs from every line.
func (s *Shell) evalHeredoc(r *syntax.Redirect) (string, error) {
	body := r.Hdoc
	if body == nil {
		return "", nil
	}
	if r.Op == syntax.DashHdoc {
		body = stripHeredocTabs(body)
	}

	if quotedDelimiter(r.Word) {
		var out strings.Builder
		for _, part := range body.Parts {
			lit, ok := part.(*syntax.Lit)
			if !ok {
				return "", &unsupportedError{node: part}
			}
			out.WriteString(lit.Value)
		}
		return out.String(), nil
	}
	return expand.Document(s.expandConfig(), body)
}

// quotedDelimiter reports whether any part of a here-document delimiter was
// quoted or escaped.
func quotedDelimiter(word *syntax.Word) bool {
	if word == nil {
		return false
	}
	for _, part := range word.Parts {
		switch part := part.(type) {
		case *syntax.SglQuoted, *syntax.DblQuoted:
			return true
		case *syntax.Lit:
			if strings.Contains(part.Value, `\`) {
				return true
			}
		}
	}
	return false
}

// stripHeredocTabs copies word with the tabs at the start of each line
// removed from its literal text. Text produced by expansions is left alone.
func stripHeredocTabs(word *syntax.Word) *syntax.Word {
	out := &syntax.Word{Parts: make([]syntax.WordPart, 0, len(word.Parts))}
	lineStart := true
	for _, part := range word.Parts {
		lit, ok := part.(*syntax.Lit)
		if !ok {
			out.Parts = append(out.Parts, part)
			lineStart = false
			continue
		}

		lines := strings.SplitAfter(lit.Value, "\n")
		for i, line := range lines {
			if i > 0 || lineStart {
				lines[i] = strings.TrimLeft(line, "\t")
			}
		}
		stripped := *lit
		stripped.Value = strings.Join(lines, "")
		out.Parts = append(out.Parts, &stripped)
		lineStart = strings.HasSuffix(lit.Value, "\n")
	}
	return out
}
