// Package console implements the interactive radio control loop.
package console

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"golang.org/x/term"
)

// Help is printed before each command when prompting.
const Help = "Input a command. f <hz> sets the fake ADC frequency, t <hz> sets the tune frequency, " +
	"s toggles streaming, m toggles mute, exit exits."

// Controller is what the console drives.
type Controller interface {
	SetADCFrequency(hz float64) error
	Tune(hz float64) error
	ToggleMute() (bool, error)
	ToggleStreaming() (bool, error)
}

// Console reads commands from In and reports to Out.
type Console struct {
	In     io.Reader
	Out    io.Writer
	Ctl    Controller
	Prompt bool
}

// New returns a console on stdin/stdout that prompts only on a terminal.
func New(ctl Controller) *Console {
	return &Console{
		In:     os.Stdin,
		Out:    os.Stdout,
		Ctl:    ctl,
		Prompt: term.IsTerminal(int(os.Stdin.Fd())),
	}
}

// Run processes commands until exit, end of input or ctx is done.
// Bad input is reported and skipped; controller errors end the loop.
func (c *Console) Run(ctx context.Context) error {
	sc := bufio.NewScanner(c.In)

	next := func(prompt string) (string, bool) {
		if c.Prompt && prompt != "" {
			fmt.Fprintln(c.Out, prompt)
		}
		if !sc.Scan() {
			return "", false
		}
		return strings.TrimSpace(sc.Text()), true
	}

	for {
		if err := ctx.Err(); err != nil {
			return nil
		}
		line, ok := next(Help)
		if !ok {
			return sc.Err()
		}
		fields := strings.Fields(line)
		if len(fields) == 0 {
			continue
		}

		switch cmd := fields[0]; cmd {
		case "f", "t":
			arg := ""
			if len(fields) > 1 {
				arg = fields[1]
			} else if arg, ok = next("Input desired frequency"); !ok {
				return sc.Err()
			}
			hz, err := strconv.ParseFloat(arg, 64)
			if err != nil || hz < 0 {
				fmt.Fprintf(c.Out, "bad frequency %q\n", arg)
				continue
			}
			if cmd == "f" {
				err = c.Ctl.SetADCFrequency(hz)
			} else {
				err = c.Ctl.Tune(hz)
			}
			if err != nil {
				return err
			}
		case "s":
			on, err := c.Ctl.ToggleStreaming()
			if err != nil {
				return err
			}
			fmt.Fprintf(c.Out, "Streaming %s\n", onOff(on))
		case "m":
			muted, err := c.Ctl.ToggleMute()
			if err != nil {
				return err
			}
			fmt.Fprintf(c.Out, "Mute %s\n", onOff(muted))
		case "exit", "q", "quit":
			fmt.Fprintln(c.Out, "Ending program")
			return nil
		default:
			fmt.Fprintf(c.Out, "unknown command %q\n", cmd)
		}
	}
}

func onOff(b bool) string {
	if b {
		return "on"
	}
	return "off"
}
