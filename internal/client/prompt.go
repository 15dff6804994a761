package client

import (
	"bufio"
	"fmt"
	"io"
	"strings"
)

// Prompter reads answers line by line.
type Prompter struct {
	scanner *bufio.Scanner
	out     io.Writer
}

// NewPrompter creates a Prompter over in, printing questions to out.
func NewPrompter(in io.Reader, out io.Writer) *Prompter {
	return &Prompter{scanner: bufio.NewScanner(in), out: out}
}

// Ask prints question and returns the trimmed answer.
func (p *Prompter) Ask(question string) string {
	fmt.Fprint(p.out, question)
	if !p.scanner.Scan() {
		return ""
	}
	return strings.TrimSpace(p.scanner.Text())
}

// Line reads the next command line. ok is false at end of input.
func (p *Prompter) Line(prompt string) (line string, ok bool) {
	fmt.Fprint(p.out, prompt)
	if !p.scanner.Scan() {
		return "", false
	}
	return strings.TrimSpace(p.scanner.Text()), true
}

// Credentials asks for email and password, and a name when withName is set.
func (p *Prompter) Credentials(withName bool) Credentials {
	var c Credentials
	c.Email = p.Ask("Email: ")
	if withName {
		c.Name = p.Ask("Name: ")
	}
	c.Password = p.Ask("Password: ")
	return c
}
