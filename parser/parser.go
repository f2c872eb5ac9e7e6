// Copyright © 2018 The ELPS authors

package parser

import (
	"fmt"

	"github.com/luthersystems/dan/lisp"
	"github.com/luthersystems/dan/parser/rdparser"
	"github.com/luthersystems/dan/parser/regexparser"
)

// Reader kinds accepted by NewReaderKind.
const (
	ReaderRD     = "rd"
	ReaderParsec = "parsec"
)

// NewReader returns a new lisp.Reader
func NewReader() lisp.Reader {
	return rdparser.NewReader()
}

// NewReaderKind returns the reader named by kind.  An empty kind selects the
// default reader.
func NewReaderKind(kind string) (lisp.Reader, error) {
	switch kind {
	case "", ReaderRD:
		return rdparser.NewReader(), nil
	case ReaderParsec:
		return regexparser.NewReader(), nil
	}
	return nil, fmt.Errorf("unknown reader: %q", kind)
}
