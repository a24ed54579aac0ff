package shell

import (
	"os"
	"strings"

	"github.com/abiosoft/readline"
	"github.com/josephlewis42/forkshell/commands"
)

const DefaultPrompt = `\u@\h:\w\$ `

func isTerminal(fd int) bool {
	return readline.IsTerminal(fd)
}

// Prompt expands a PS1-style template: \u user, \h host, \w working
// directory with $HOME shortened to ~, and \$ which is # for root.
func (s *Shell) Prompt(template string) string {
	if template == "" {
		template = DefaultPrompt
	}

	host, _ := os.Hostname()
	if short := s.Getenv(EnvHostname); short != "" {
		host = short
	}
	if i := strings.IndexByte(host, '.'); i > 0 {
		host = host[:i]
	}

	pwd := s.Getwd()
	home := s.Getenv(EnvHome)
	if home != "" && strings.HasPrefix(pwd, home) {
		pwd = "~" + strings.TrimPrefix(pwd, home)
	}

	dollar := "$"
	if os.Getuid() == 0 {
		dollar = "#"
	}

	prompt := strings.NewReplacer(
		`\u`, s.color.Sprintf(commands.ColorBoldGreen, "%s", s.Getenv(EnvUser)),
		`\h`, s.color.Sprintf(commands.ColorBoldGreen, "%s", host),
		`\w`, s.color.Sprintf(commands.ColorBoldBlue, "%s", pwd),
		`\$`, dollar,
	).Replace(template)

	return prompt
}
