package console

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"favorites-reconciler/internal/reconcile/domain/repository"
	"favorites-reconciler/internal/shared/errors"

	"github.com/manifoldco/promptui"
	"golang.org/x/term"
)

// IsAffirmative reports whether answer is "y" or "yes", ignoring case and
// surrounding whitespace
func IsAffirmative(answer string) bool {
	switch strings.ToLower(strings.TrimSpace(answer)) {
	case "y", "yes":
		return true
	default:
		return false
	}
}

// NewConfirmer picks an interactive prompt when in is a terminal and a plain
// line reader otherwise
func NewConfirmer(in io.Reader, out io.Writer) repository.Confirmer {
	if f, ok := in.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		return NewPromptConfirmer(f, out)
	}
	return NewLineConfirmer(in, out)
}

// LineConfirmer reads one answer per prompt from a line-oriented reader.
// End of input counts as "no".
type LineConfirmer struct {
	in  *bufio.Reader
	out io.Writer
}

// NewLineConfirmer creates a confirmer reading from in and prompting on out
func NewLineConfirmer(in io.Reader, out io.Writer) *LineConfirmer {
	return &LineConfirmer{in: bufio.NewReader(in), out: out}
}

// Confirm implements repository.Confirmer
func (c *LineConfirmer) Confirm(ctx context.Context, prompt string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	fmt.Fprintf(c.out, "%s [y/N]: ", prompt)

	line, err := c.in.ReadString('\n')
	if err != nil && err != io.EOF {
		return false, fmt.Errorf("failed to read confirmation: %w", err)
	}
	if err == io.EOF && line == "" {
		fmt.Fprintln(c.out)
	}
	return IsAffirmative(line), nil
}

// PromptConfirmer asks through a promptui prompt on a terminal
type PromptConfirmer struct {
	stdin  io.ReadCloser
	stdout io.WriteCloser
}

// NewPromptConfirmer creates a terminal confirmer
func NewPromptConfirmer(stdin io.ReadCloser, out io.Writer) *PromptConfirmer {
	c := &PromptConfirmer{stdin: stdin}
	if wc, ok := out.(io.WriteCloser); ok {
		c.stdout = wc
	}
	return c
}

// Confirm implements repository.Confirmer. Ctrl+C aborts with
// ErrConfirmationAborted.
func (c *PromptConfirmer) Confirm(ctx context.Context, prompt string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}

	p := promptui.Prompt{
		Label:  fmt.Sprintf("%s [y/N]", prompt),
		Stdin:  c.stdin,
		Stdout: c.stdout,
	}

	result, err := p.Run()
	if err != nil {
		if err == promptui.ErrInterrupt {
			return false, errors.ErrConfirmationAborted
		}
		if err == promptui.ErrAbort || err == promptui.ErrEOF {
			return false, nil
		}
		return false, err
	}
	return IsAffirmative(result), nil
}
