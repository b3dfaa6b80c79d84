// Package console is the terminal side of bake: coloured output, prompts
// and a file writer that asks before overwriting.
package console

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/fatih/color"
	"golang.org/x/term"
)

// Console writes messages to an output and an error stream and reads
// answers from an input stream.
type Console struct {
	out         io.Writer
	err         io.Writer
	in          *bufio.Reader
	interactive bool

	success *color.Color
	warning *color.Color
	failure *color.Color
	muted   *color.Color
}

// Option configures a Console.
type Option func(*Console)

// WithInput sets the stream answers are read from and whether prompting is allowed.
func WithInput(r io.Reader, interactive bool) Option {
	return func(c *Console) {
		c.in = bufio.NewReader(r)
		c.interactive = interactive
	}
}

// WithColor forces colours on or off.
func WithColor(enabled bool) Option {
	return func(c *Console) {
		for _, col := range []*color.Color{c.success, c.warning, c.failure, c.muted} {
			if enabled {
				col.EnableColor()
			} else {
				col.DisableColor()
			}
		}
	}
}

// New creates a Console. Prompting is enabled when stdin is a terminal.
func New(out, err io.Writer, opts ...Option) *Console {
	c := &Console{
		out:         out,
		err:         err,
		in:          bufio.NewReader(os.Stdin),
		interactive: IsTerminal(os.Stdin),
		success:     color.New(color.FgGreen),
		warning:     color.New(color.FgYellow),
		failure:     color.New(color.FgRed),
		muted:       color.New(color.FgHiBlack),
	}
	if !IsTerminal(out) || os.Getenv("NO_COLOR") != "" {
		WithColor(false)(c)
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// IsTerminal reports whether v is a file attached to a terminal.
func IsTerminal(v any) bool {
	f, ok := v.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

// Out writes a line to the output stream.
func (c *Console) Out(msg string) {
	fmt.Fprintln(c.out, msg)
}

// Err writes a line to the error stream.
func (c *Console) Err(msg string) {
	fmt.Fprintln(c.err, c.failure.Sprint(msg))
}

// Success reports a completed action.
func (c *Console) Success(msg string) {
	fmt.Fprintln(c.out, c.success.Sprint(msg))
}

// Warn reports a non-fatal problem.
func (c *Console) Warn(msg string) {
	fmt.Fprintln(c.out, c.warning.Sprint(msg))
}

// Diff prints a unified diff, colouring added and removed lines.
func (c *Console) Diff(diff string) {
	for _, line := range strings.Split(strings.TrimRight(diff, "\n"), "\n") {
		switch {
		case strings.HasPrefix(line, "+++"), strings.HasPrefix(line, "---"):
			fmt.Fprintln(c.out, c.muted.Sprint(line))
		case strings.HasPrefix(line, "+"):
			fmt.Fprintln(c.out, c.success.Sprint(line))
		case strings.HasPrefix(line, "-"):
			fmt.Fprintln(c.out, c.failure.Sprint(line))
		default:
			fmt.Fprintln(c.out, line)
		}
	}
}

// Interactive reports whether Ask can read an answer.
func (c *Console) Interactive() bool {
	return c.interactive
}

// Ask prints question with the allowed choices and returns the lower-cased
// answer. An empty answer, end of input or a non-interactive console yields def.
// Answers outside choices are asked again.
func (c *Console) Ask(question string, choices []string, def string) string {
	if !c.interactive {
		return def
	}
	prompt := fmt.Sprintf("%s (%s) [%s] ", question, strings.Join(choices, "/"), def)
	for {
		fmt.Fprint(c.out, c.warning.Sprint(prompt))
		line, err := c.in.ReadString('\n')
		answer := strings.ToLower(strings.TrimSpace(line))
		if answer == "" {
			return def
		}
		for _, choice := range choices {
			if answer == choice {
				return answer
			}
		}
		if err != nil {
			return def
		}
	}
}
