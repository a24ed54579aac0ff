package shell

import (
	"io"
	"strings"

	"github.com/abiosoft/readline"
)

// Interactive reads and runs lines until end of input or exit.
func (s *Shell) Interactive(rl *readline.Instance, prompt string) int {
	for {
		if status, exited := s.Exited(); exited {
			return status
		}

		template := prompt
		if ps1, ok := s.LookupEnv(EnvPrompt); ok {
			template = ps1
		}
		rl.SetPrompt(s.Prompt(template))
		line, err := rl.Readline()

		switch {
		case err == io.EOF:
			return s.lastStatus // Input closed, quit.

		case err == readline.ErrInterrupt:
			// Interrupt clears line.
			continue
		case err != nil:
			s.log.Warnw("readline failed", "error", err)
			continue

		case strings.TrimSpace(line) == "":
			continue // empty line
		}

		if _, err := s.RunString(line); err != nil {
			s.errorf("%v", err)
		}
	}
}
