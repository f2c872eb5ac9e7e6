// Copyright © 2018 The ELPS authors

package rdparser

import (
	"github.com/luthersystems/dan/parser/token"
)

// TokenSource is a token.Source backed by a slice of significant tokens.
type TokenSource struct {
	toks []*token.Token
	pos  int
	eof  *token.Token
}

// NewTokenSource returns a TokenSource over toks.  Comment and whitespace
// tokens are dropped.  The final token of the stream is always EOF.
func NewTokenSource(toks []*token.Token) *TokenSource {
	src := &TokenSource{toks: make([]*token.Token, 0, len(toks))}
	for _, tok := range toks {
		if tok.Type.IsTrivia() {
			continue
		}
		if tok.Type == token.EOF {
			src.eof = tok
			break
		}
		src.toks = append(src.toks, tok)
	}
	if src.eof == nil {
		var loc *token.Location
		if n := len(src.toks); n > 0 {
			last := src.toks[n-1].Source
			loc = &token.Location{File: last.File, Path: last.Path, Pos: last.Pos + len(src.toks[n-1].Text), Line: last.Line, Col: last.Col}
		}
		src.eof = &token.Token{Type: token.EOF, Source: loc}
	}
	return src
}

// Peek returns the next token without consuming it.
func (src *TokenSource) Peek() *token.Token {
	if src.pos >= len(src.toks) {
		return src.eof
	}
	return src.toks[src.pos]
}

// Next consumes and returns the next token.
func (src *TokenSource) Next() *token.Token {
	tok := src.Peek()
	if src.pos < len(src.toks) {
		src.pos++
	}
	return tok
}

// IsEOF returns true when all tokens have been consumed.
func (src *TokenSource) IsEOF() bool {
	return src.pos >= len(src.toks)
}

// Balance returns the number of opening delimiters in toks minus the number of
// closing delimiters.
func Balance(toks []*token.Token) int {
	n := 0
	for _, tok := range toks {
		switch {
		case tok.Type.Closer() != token.INVALID:
			n++
		case tok.Type.IsCloser():
			n--
		}
	}
	return n
}
