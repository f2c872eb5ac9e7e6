// Copyright © 2024 The ELPS authors

package diagnostic

import (
	"errors"

	"github.com/luthersystems/dan/lisp"
	"github.com/luthersystems/dan/parser/lexer"
	"github.com/luthersystems/dan/parser/rdparser"
	"github.com/luthersystems/dan/parser/token"
)

// FromError converts err to an error diagnostic.  Lisp errors carry their
// condition, source span, and call stack.  Reader and lexer errors found
// anywhere in err's chain point at the offending token.
func FromError(err error) Diagnostic {
	var rerr *rdparser.ReadError
	if errors.As(err, &rerr) {
		d := Diagnostic{Severity: SeverityError, Message: lisp.CondReadError + ": " + rerr.Msg}
		if rerr.Source != nil {
			d.Spans = append(d.Spans, locationSpan(rerr.Source, "unexpected "+rerr.Text))
		}
		return d
	}
	var lexerr *lexer.LexError
	if errors.As(err, &lexerr) {
		d := Diagnostic{Severity: SeverityError, Message: lisp.CondLexError + ": invalid character " + string(lexerr.Char)}
		if lexerr.Source != nil {
			span := locationSpan(lexerr.Source, "")
			span.EndCol = span.Col
			d.Spans = append(d.Spans, span)
		}
		return d
	}
	var lerr *lisp.ErrorVal
	if errors.As(err, &lerr) {
		return FromLisp((*lisp.LVal)(lerr))
	}
	return Diagnostic{Severity: SeverityError, Message: err.Error()}
}

// FromLisp converts an LError value to a diagnostic.  The call stack is
// listed innermost first as notes.
func FromLisp(lerr *lisp.LVal) Diagnostic {
	ev := (*lisp.ErrorVal)(lerr)
	if cause := ev.Unwrap(); cause != nil {
		var rerr *rdparser.ReadError
		var lexerr *lexer.LexError
		if errors.As(cause, &rerr) || errors.As(cause, &lexerr) {
			return FromError(cause)
		}
	}
	d := Diagnostic{
		Severity: SeverityError,
		Message:  ev.ErrorMessage(),
	}
	if fname := ev.FunName(); fname != "" {
		d.Message = fname + ": " + d.Message
	}
	if lerr.Str != "" && lerr.Str != lisp.CondError {
		d.Message = lerr.Str + ": " + d.Message
	}
	if lerr.Source != nil && lerr.Source.Pos >= 0 {
		d.Spans = append(d.Spans, locationSpan(lerr.Source, ""))
	}
	if stack := lerr.CallStack(); stack != nil {
		for i := len(stack.Frames) - 1; i >= 0; i-- {
			frame := &stack.Frames[i]
			loc := "unknown"
			if frame.Source != nil {
				loc = frame.Source.String()
			}
			d.Notes = append(d.Notes, "in "+frame.QualifiedName()+" at "+loc)
		}
	}
	return d
}

// locationSpan returns a span at loc.  The physical path is preferred for
// reading source.
func locationSpan(loc *token.Location, label string) Span {
	span := Span{
		File:  loc.File,
		Line:  loc.Line,
		Col:   loc.Col,
		Label: label,
	}
	if loc.Path != "" {
		span.File = loc.Path
	}
	return span
}
