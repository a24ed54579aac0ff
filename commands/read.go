package commands

import (
	"fmt"
	"io"
	"strings"
)

const defaultReadVar = "REPLY"

// Read reads one line of standard input and splits it into variables.
// Without -r a backslash escapes the next character and a trailing
// backslash continues the line.
func Read(ctx Context) int {
	cmd := &SimpleCommand{
		Use:   "read [-r] [NAME ...]",
		Short: "Read a line from the standard input and split it into fields.",
	}
	opts := cmd.Flags()
	raw := opts.Bool('r', "do not allow backslashes to escape any characters")

	return cmd.Run(ctx, func() int {
		names := opts.Args()
		for _, name := range names {
			if !validName(name) {
				fmt.Fprintf(ctx.Stderr(), "read: %q: not a valid identifier\n", name)
				return 1
			}
		}
		if len(names) == 0 {
			names = []string{defaultReadVar}
		}

		line, eof, err := readLogicalLine(ctx, *raw)
		if err != nil {
			fmt.Fprintf(ctx.Stderr(), "read: %v\n", err)
			return 1
		}

		for i, value := range splitFields(line, len(names)) {
			ctx.Setenv(names[i], value)
		}

		if eof {
			return 1
		}
		return 0
	})
}

// readLogicalLine reads a line without its newline. eof reports that input
// ended before a newline was seen.
func readLogicalLine(ctx Context, raw bool) (line string, eof bool, err error) {
	var out strings.Builder
	for {
		physical, err := ctx.ReadLine()
		switch {
		case err == io.EOF:
			eof = true
		case err != nil:
			return "", false, err
		}

		physical = strings.TrimSuffix(physical, "\n")
		if raw {
			out.WriteString(physical)
			return out.String(), eof, nil
		}

		text, continued := unescapeRead(physical)
		out.WriteString(text)
		if !continued || eof {
			return out.String(), eof, nil
		}
	}
}

// unescapeRead removes backslash escapes. continued reports a trailing
// backslash.
func unescapeRead(s string) (text string, continued bool) {
	var out strings.Builder
	for i := 0; i < len(s); i++ {
		if s[i] != '\\' {
			out.WriteByte(s[i])
			continue
		}
		if i == len(s)-1 {
			return out.String(), true
		}
		i++
		out.WriteByte(s[i])
	}
	return out.String(), false
}

// splitFields splits line on whitespace into at most n fields; the last
// field keeps the rest of the line. Missing fields are empty.
func splitFields(line string, n int) []string {
	out := make([]string, n)
	rest := strings.TrimLeft(line, " \t")
	for i := 0; i < n; i++ {
		if i == n-1 {
			out[i] = strings.TrimRight(rest, " \t")
			break
		}
		end := strings.IndexAny(rest, " \t")
		if end < 0 {
			out[i] = rest
			rest = ""
			continue
		}
		out[i] = rest[:end]
		rest = strings.TrimLeft(rest[end:], " \t")
	}
	return out
}

var _ BuiltinFunc = Read

func init() {
	addBuiltin("read", Read)
}
