// Package prompt asks the operator yes/no questions before disruptive steps.
package prompt

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"golang.org/x/term"
)

// ErrNotInteractive is returned when a question is asked without a terminal.
var ErrNotInteractive = errors.New("confirmation required but stdin is not a terminal (use --yes)")

// Terminal asks on Out and reads the answer from In.
type Terminal struct {
	In         io.Reader
	Out        io.Writer
	IsTerminal func() bool
}

// NewTerminal returns a confirmer bound to the process's stdin and stderr.
func NewTerminal() *Terminal {
	return &Terminal{
		In:  os.Stdin,
		Out: os.Stderr,
		IsTerminal: func() bool {
			return term.IsTerminal(int(os.Stdin.Fd()))
		},
	}
}

// Confirm prints prompt and waits for y/yes or n/no. Anything else, including
// an empty line, counts as no.
func (t *Terminal) Confirm(ctx context.Context, prompt string) (bool, error) {
	if t.IsTerminal != nil && !t.IsTerminal() {
		return false, ErrNotInteractive
	}
	fmt.Fprintf(t.Out, "%s [y/N] ", prompt)

	type answer struct {
		line string
		err  error
	}
	ch := make(chan answer, 1)
	go func() {
		line, err := bufio.NewReader(t.In).ReadString('\n')
		ch <- answer{line, err}
	}()

	select {
	case <-ctx.Done():
		fmt.Fprintln(t.Out)
		return false, ctx.Err()
	case a := <-ch:
		if a.err != nil && !errors.Is(a.err, io.EOF) {
			return false, fmt.Errorf("read answer: %w", a.err)
		}
		return parseAnswer(a.line), nil
	}
}

func parseAnswer(s string) bool {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "y", "yes":
		return true
	default:
		return false
	}
}

// Auto answers every question without asking.
type Auto struct {
	Answer bool
	Out    io.Writer
}

// Confirm implements the confirmer interface, echoing the question when Out is set.
func (a Auto) Confirm(ctx context.Context, prompt string) (bool, error) {
	if a.Out != nil {
		reply := "no"
		if a.Answer {
			reply = "yes"
		}
		fmt.Fprintf(a.Out, "%s %s\n", prompt, reply)
	}
	return a.Answer, nil
}
