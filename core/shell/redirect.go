package shell

import (
	"fmt"
	"strconv"

	"github.com/josephlewis42/forkshell/core/process"
	"mvdan.cc/sh/v3/syntax"
)

var pathOps = map[syntax.RedirOperator]process.PathOp{
	syntax.RdrIn:    process.PathRead,
	syntax.RdrOut:   process.PathWrite,
	syntax.ClbOut:   process.PathClobber,
	syntax.AppOut:   process.PathAppend,
	syntax.RdrInOut: process.PathReadWrite,
}

func (s *Shell) redirects(redirs []*syntax.Redirect) ([]process.Redirect, error) {
	var out []process.Redirect
	for _, r := range redirs {
		converted, err := s.redirect(r)
		if err != nil {
			return nil, err
		}
		out = append(out, converted...)
	}
	return out, nil
}

// redirect expands one parsed redirect. &> and &>> become two redirects.
func (s *Shell) redirect(r *syntax.Redirect) ([]process.Redirect, error) {
	fd := defaultFd(r.Op)
	if r.N != nil {
		n, err := strconv.Atoi(r.N.Value)
		if err != nil || n >= process.ReservedFdMin {
			return nil, fmt.Errorf("%s: bad file descriptor", r.N.Value)
		}
		fd = n
	}

	switch r.Op {
	case syntax.Hdoc, syntax.DashHdoc:
		body, err := s.evalHeredoc(r)
		if err != nil {
			return nil, err
		}
		return []process.Redirect{&process.HereRedirect{Fd: fd, Body: body}}, nil
	}

	word, err := s.evalWord(r.Word)
	if err != nil {
		return nil, err
	}

	if op, ok := pathOps[r.Op]; ok {
		return []process.Redirect{&process.PathRedirect{Op: op, Fd: fd, Path: word}}, nil
	}

	switch r.Op {
	case syntax.WordHdoc:
		return []process.Redirect{&process.HereRedirect{Fd: fd, Body: word + "\n"}}, nil

	case syntax.DplIn, syntax.DplOut:
		if word == "-" {
			return []process.Redirect{&process.CloseRedirect{Fd: fd}}, nil
		}
		source, err := strconv.Atoi(word)
		if err != nil || source < 0 {
			return nil, fmt.Errorf("%s: ambiguous redirect", word)
		}
		if source >= process.ReservedFdMin {
			return nil, fmt.Errorf("%s: bad file descriptor", word)
		}
		return []process.Redirect{&process.DescRedirect{Fd: fd, Source: source}}, nil

	case syntax.RdrAll, syntax.AppAll:
		op := process.PathWrite
		if r.Op == syntax.AppAll {
			op = process.PathAppend
		}
		return []process.Redirect{
			&process.PathRedirect{Op: op, Fd: 1, Path: word},
			&process.DescRedirect{Fd: 2, Source: 1},
		}, nil
	}

	return nil, &unsupportedError{node: r}
}

func defaultFd(op syntax.RedirOperator) int {
	switch op {
	case syntax.RdrIn, syntax.RdrInOut, syntax.DplIn, syntax.Hdoc, syntax.DashHdoc, syntax.WordHdoc:
		return 0
	default:
		return 1
	}
}
