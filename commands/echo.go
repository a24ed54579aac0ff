package commands

import (
	"fmt"
	"io"
	"regexp"
	"strconv"
	"strings"
)

var (
	unescapeOctal   = regexp.MustCompile(`\\0[0-8][0-8]?[0-8]?`)
	unescapeHex     = regexp.MustCompile(`\\x[0-9a-fA-F][0-9a-fA-F]?`)
	unescapeReplace = strings.NewReplacer(
		`\n`, "\n", // newline
		`\r`, "\r", // carriage return
		`\t`, "\t", // horizontal tab
		`\\`, `\`, // backslash literal
		`\b`, "\b", // backspace
		`\a`, "\a", // alert
		`\f`, "\f", // form feed
		`\v`, "\v", // vertical tab
	)
)

func unescape(s string) string {
	s = unescapeReplace.Replace(s)
	s = unescapeOctal.ReplaceAllStringFunc(s, func(arg string) string {
		out, err := strconv.ParseInt(arg[2:], 8, 8)
		if err != nil {
			return arg
		}
		return string(rune(out))
	})
	s = unescapeHex.ReplaceAllStringFunc(s, func(arg string) string {
		out, err := strconv.ParseInt(arg[2:], 16, 8)
		if err != nil {
			return arg
		}
		return string(rune(out))
	})
	return s
}

// echoFlags splits leading option words like -n, -e or -neE off args. The
// first word that isn't made only of those letters ends the options, and
// "--" is printed like any other word.
func echoFlags(args []string) (noNewline, escaped bool, rest []string) {
	for i, arg := range args {
		if len(arg) < 2 || arg[0] != '-' || strings.Trim(arg[1:], "neE") != "" {
			return noNewline, escaped, args[i:]
		}
		for _, flag := range arg[1:] {
			switch flag {
			case 'n':
				noNewline = true
			case 'e':
				escaped = true
			case 'E':
				escaped = false
			}
		}
	}
	return noNewline, escaped, nil
}

// Echo implements echo with -n, -e and -E. Anything that isn't one of those
// options is printed as is.
func Echo(ctx Context) int {
	noNewline, escaped, args := echoFlags(ctx.Args()[1:])

	var out strings.Builder
	for i, arg := range args {
		if i > 0 {
			out.WriteString(" ")
		}

		if escaped {
			arg = unescape(arg)
		}

		out.WriteString(arg)
	}

	if !noNewline {
		out.WriteString("\n")
	}

	// One write so pipe readers see the line atomically.
	if _, err := io.WriteString(ctx.Stdout(), out.String()); err != nil {
		fmt.Fprintf(ctx.Stderr(), "echo: write error: %v\n", err)
		return 1
	}
	return 0
}

var _ BuiltinFunc = Echo

func init() {
	addBuiltin("echo", Echo)
}
