// Copyright © 2018 The ELPS authors

package rdparser

import (
	"errors"
	"strings"

	"github.com/luthersystems/dan/parser/ast"
	"github.com/luthersystems/dan/parser/lexer"
)

// Incomplete returns true if src ends while a list, literal, string, or
// reader macro is still open.  A REPL uses Incomplete to decide between
// prompting for more input and reporting a syntax error.
func Incomplete(src string) bool {
	toks, err := lexer.Tokenize("stdin", []byte(src))
	if err != nil || Balance(toks) < 0 {
		return false
	}
	_, err = New(toks).ParseProgram("stdin")
	var rerr *ReadError
	return errors.As(err, &rerr) && rerr.Recoverable
}

// Interactive accumulates lines of input until they form complete
// expressions.
type Interactive struct {
	name       string
	prompt     string
	promptCont string
	buf        strings.Builder
}

// NewInteractive initializes and returns a new Interactive reader.  Name is
// used as the file name in source locations.
func NewInteractive(name string) *Interactive {
	return &Interactive{name: name}
}

// SetPrompts configures the string prompts returned by p.Prompt().  The cont
// string is used when the reader is in the middle of an expression.
func (p *Interactive) SetPrompts(prompt, cont string) {
	p.prompt = prompt
	p.promptCont = cont
}

// Prompt returns the prompt appropriate for the current reader state.
func (p *Interactive) Prompt() string {
	if p.IsParsing() {
		return p.promptCont
	}
	return p.prompt
}

// IsParsing returns true if p holds the beginning of an unfinished
// expression.
func (p *Interactive) IsParsing() bool {
	return p != nil && p.buf.Len() > 0
}

// Reset discards any buffered input.
func (p *Interactive) Reset() {
	p.buf.Reset()
}

// Feed adds a line of input.  When the buffered input forms complete
// expressions they are returned and the buffer is cleared.  When more input
// is required Feed returns a nil program and a nil error.
func (p *Interactive) Feed(line string) (*ast.Program, error) {
	p.buf.WriteString(line)
	p.buf.WriteByte('\n')
	src := p.buf.String()
	toks, err := lexer.Tokenize(p.name, []byte(src))
	if err != nil {
		p.Reset()
		return nil, err
	}
	prog, err := New(toks).ParseProgram(p.name)
	var rerr *ReadError
	if errors.As(err, &rerr) && rerr.Recoverable {
		return nil, nil
	}
	p.Reset()
	if err != nil {
		return nil, err
	}
	return prog, nil
}
