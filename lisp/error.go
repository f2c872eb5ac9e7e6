// Copyright © 2018 The ELPS authors

package lisp

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"io"

	"github.com/luthersystems/dan/parser/token"
)

// Error conditions raised by the interpreter.
const (
	CondError              = "error"
	CondLexError           = "lex-error"
	CondReadError          = "read-error"
	CondUnboundName        = "unbound-name"
	CondDuplicateBinding   = "duplicate-binding"
	CondTypeError          = "type-error"
	CondArityError         = "arity-error"
	CondOutOfRange         = "out-of-range"
	CondCircularDependency = "circular-dependency"
	CondUnresolvedModule   = "unresolved-module"
	CondStackOverflow      = "stack-overflow"
	CondRuntimeError       = "runtime-error"
)

// ErrorVal implements the error interface so that errors can be first class
// lisp objects.  The condition is stored in the Str field and the message in
// the Cells slice.
type ErrorVal LVal

// Error implements the error interface.
func (e *ErrorVal) Error() string {
	if e.Source != nil && e.Source.Pos >= 0 {
		return fmt.Sprintf("%s: %s", e.Source, e.baseMessage())
	}
	return e.baseMessage()
}

func (e *ErrorVal) baseMessage() string {
	msg := e.ErrorMessage()
	if e.Str != CondError {
		return fmt.Sprintf("%s: %s", e.Str, msg)
	}
	fname := e.FunName()
	if fname == "" {
		return msg
	}
	return fmt.Sprintf("%s: %s", fname, msg)
}

// Condition returns the error condition name (e.g. "type-error").
func (e *ErrorVal) Condition() string {
	return e.Str
}

// FunName returns the qualified name of function on the top of the call stack
// when the error occurred.
func (e *ErrorVal) FunName() string {
	return (*LVal)(e).CallStack().Top().QualifiedName()
}

// ErrorMessage returns the underlying message in the error.
func (e *ErrorVal) ErrorMessage() string {
	if len(e.Cells) > 0 {
		if err, ok := e.Cells[0].Native.(error); ok {
			return err.Error()
		}
	}
	var buf bytes.Buffer
	for i, cell := range e.Cells {
		if i > 0 {
			buf.WriteString(" ")
		}
		buf.WriteString(cell.Display())
	}
	return buf.String()
}

// Unwrap returns a Go error wrapped by the lisp error, if any.
func (e *ErrorVal) Unwrap() error {
	if len(e.Cells) > 0 {
		if err, ok := e.Cells[0].Native.(error); ok {
			return err
		}
	}
	return nil
}

// WriteTrace writes the error and a stack trace to w
func (e *ErrorVal) WriteTrace(w io.Writer) (int, error) {
	bw := bufio.NewWriter(w)
	var n int
	var err error
	wrote := func(_n int, _err error) bool {
		n += _n
		err = _err
		return err == nil
	}
	if !wrote(bw.WriteString(e.Error())) {
		return n, err
	}
	if !wrote(bw.WriteString("\n")) {
		return n, err
	}
	if stack := (*LVal)(e).CallStack(); stack != nil {
		if !wrote(stack.DebugPrint(bw)) {
			return n, err
		}
	}
	return n, bw.Flush()
}

// GoError returns an error that represents v.  If v is not LError then nil is
// returned.
func GoError(v *LVal) error {
	if v == nil || v.Type != LError {
		return nil
	}
	return (*ErrorVal)(v)
}

// Condition returns the condition of the error v or the empty string when v
// is not an error.
func Condition(v *LVal) string {
	if v == nil || v.Type != LError {
		return ""
	}
	return v.Str
}

// Errorf returns an LError with a formatted message and condition "error".
func Errorf(format string, v ...interface{}) *LVal {
	return ErrorConditionf(CondError, format, v...)
}

// ErrorConditionf returns an LError with the given condition and a formatted
// message.
func ErrorConditionf(condition string, format string, v ...interface{}) *LVal {
	return &LVal{
		Type:  LError,
		Str:   condition,
		Cells: []*LVal{String(fmt.Sprintf(format, v...))},
	}
}

// ErrorCondition returns an LError with the given condition whose message is
// the space separated display form of v.
func ErrorCondition(condition string, v ...*LVal) *LVal {
	return &LVal{
		Type:  LError,
		Str:   condition,
		Cells: v,
	}
}

// Error returns an LError representing err.  Errors produced by the reader
// keep their condition and location.
func Error(err error) *LVal {
	var lerr *ErrorVal
	if errors.As(err, &lerr) {
		return (*LVal)(lerr)
	}
	condition := CondError
	var cerr interface{ Condition() string }
	if errors.As(err, &cerr) {
		condition = cerr.Condition()
	}
	v := &LVal{
		Type:  LError,
		Str:   condition,
		Cells: []*LVal{Native(err)},
	}
	var lerrloc interface{ Location() *token.Location }
	if errors.As(err, &lerrloc) {
		v.Source = lerrloc.Location()
	}
	return v
}

// TypeError returns an LError reporting that v is not the expected type.
func TypeError(v *LVal, want string) *LVal {
	return ErrorConditionf(CondTypeError, "expected %s, got %s: %s", want, GetType(v), v)
}

// ArityError returns an LError reporting a wrong number of arguments.
func ArityError(name string, want string, got int) *LVal {
	if name == "" {
		name = "lambda"
	}
	return ErrorConditionf(CondArityError, "%s expects %s, got %d", name, want, got)
}

// StackOverflowError is returned by CallStack.Push when the stack would grow
// beyond its maximum height.
type StackOverflowError struct {
	Height int
}

func (e *StackOverflowError) Error() string {
	return fmt.Sprintf("stack overflow: %d frames", e.Height)
}

// Condition implements the condition interface checked by Error.
func (e *StackOverflowError) Condition() string {
	return CondStackOverflow
}
