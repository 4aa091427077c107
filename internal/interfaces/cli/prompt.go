package cli

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/chzyer/readline"
	"golang.org/x/term"
)

// ErrNotConfirmed is returned when a destructive command is declined.
var ErrNotConfirmed = errors.New("aborted")

// Confirm asks a yes/no question; anything but y or yes is a no. On a
// terminal the line is read with readline so ^C cancels cleanly.
func Confirm(in io.Reader, out io.Writer, question string) (bool, error) {
	prompt := question + " [y/N] "

	if f, ok := in.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		rl, err := readline.NewEx(&readline.Config{
			Prompt:          prompt,
			Stdout:          out,
			InterruptPrompt: "^C",
			EOFPrompt:       "n",
		})
		if err != nil {
			return false, fmt.Errorf("readline init: %w", err)
		}
		defer rl.Close()

		line, err := rl.Readline()
		if errors.Is(err, readline.ErrInterrupt) || errors.Is(err, io.EOF) {
			return false, nil
		}
		if err != nil {
			return false, err
		}
		return yes(line), nil
	}

	fmt.Fprint(out, prompt)
	line, err := bufio.NewReader(in).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return false, err
	}
	fmt.Fprintln(out)
	return yes(line), nil
}

func yes(answer string) bool {
	switch strings.ToLower(strings.TrimSpace(answer)) {
	case "y", "yes":
		return true
	default:
		return false
	}
}

// TermWidth is the width of stdout, 80 when it is not a terminal.
func TermWidth() int {
	w, _, err := term.GetSize(int(os.Stdout.Fd()))
	if err != nil || w <= 0 {
		return 80
	}
	return w
}
