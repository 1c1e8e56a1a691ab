package ui

import (
	"bufio"
	"fmt"
	"io"
	"strings"
)

// Prompter asks yes/no questions on an arbitrary reader/writer pair so
// commands can be driven from tests.
type Prompter struct {
	in  *bufio.Reader
	out io.Writer
}

// NewPrompter returns a Prompter reading answers from in.
func NewPrompter(in io.Reader, out io.Writer) *Prompter {
	return &Prompter{in: bufio.NewReader(in), out: out}
}

// Confirm prompts the user with a yes/no question. Returns true for yes.
func (p *Prompter) Confirm(prompt string) bool {
	fmt.Fprintf(p.out, "%s [y/N]: ", StyleWarning.Render(prompt))
	return p.answer()
}

// ConfirmDanger is like Confirm but styled with the error color. Used before
// anything that spends gas.
func (p *Prompter) ConfirmDanger(prompt string) bool {
	fmt.Fprintf(p.out, "%s [y/N]: ", StyleError.Render("⚠ "+prompt))
	return p.answer()
}

func (p *Prompter) answer() bool {
	line, _ := p.in.ReadString('\n')
	line = strings.TrimSpace(strings.ToLower(line))
	return line == "y" || line == "yes"
}
