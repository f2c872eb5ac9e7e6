// Copyright © 2018 The ELPS authors

package lisp

import (
	"fmt"
	"io"

	"github.com/luthersystems/dan/parser/token"
)

// DefaultMaxHeight is the call depth permitted by StandardRuntime.
const DefaultMaxHeight = 10000

// CallStack is a function call stack.
type CallStack struct {
	Frames    []CallFrame
	MaxHeight int
}

// CallFrame is one frame in the CallStack
type CallFrame struct {
	Source *token.Location
	Module string
	Name   string
}

// QualifiedName returns the function name qualified by its module.
func (f *CallFrame) QualifiedName() string {
	if f == nil {
		return ""
	}
	name := f.Name
	if name == "" {
		name = "lambda"
	}
	if f.Module == "" {
		return name
	}
	return f.Module + "." + name
}

func (f *CallFrame) String() string {
	if f.Source != nil {
		return fmt.Sprintf("%s: %s", f.Source, f.QualifiedName())
	}
	return f.QualifiedName()
}

// Copy creates a copy of the current stack so that it can be attached to a
// runtime error.
func (s *CallStack) Copy() *CallStack {
	frames := make([]CallFrame, len(s.Frames))
	copy(frames, s.Frames)
	return &CallStack{
		MaxHeight: s.MaxHeight,
		Frames:    frames,
	}
}

// Top returns the CallFrame at the top of the stack or nil if none exists.
func (s *CallStack) Top() *CallFrame {
	if s == nil || len(s.Frames) == 0 {
		return nil
	}
	return &s.Frames[len(s.Frames)-1]
}

// Height returns the number of frames on the stack.
func (s *CallStack) Height() int {
	return len(s.Frames)
}

// Push pushes a new stack frame onto s.  Push returns a *StackOverflowError
// when s is already at its maximum height.
func (s *CallStack) Push(src *token.Location, module string, name string) error {
	if s.MaxHeight > 0 && len(s.Frames) >= s.MaxHeight {
		return &StackOverflowError{Height: len(s.Frames) + 1}
	}
	s.Frames = append(s.Frames, CallFrame{
		Source: src,
		Module: module,
		Name:   name,
	})
	return nil
}

// Pop removes the top CallFrame from the stack and returns it.  If the stack
// is empty Pop returns nil.
func (s *CallStack) Pop() *CallFrame {
	top := s.Top()
	if top != nil {
		s.Frames = s.Frames[:len(s.Frames)-1]
	}
	return top
}

// Unwind truncates the stack to height.  Unwind is used to restore the stack
// after an error aborts evaluation part way through a call chain.
func (s *CallStack) Unwind(height int) {
	if height < len(s.Frames) {
		s.Frames = s.Frames[:height]
	}
}

// DebugPrint prints s to w, most recent call first.
func (s *CallStack) DebugPrint(w io.Writer) (int, error) {
	if s == nil {
		return 0, nil
	}
	var n int
	if len(s.Frames) > 0 {
		_n, err := fmt.Fprintln(w, "Stack Trace [most recent call first]:")
		n += _n
		if err != nil {
			return n, err
		}
	}
	for i := len(s.Frames) - 1; i >= 0; i-- {
		_n, err := fmt.Fprintf(w, "  %d: %s\n", i, &s.Frames[i])
		n += _n
		if err != nil {
			return n, err
		}
	}
	return n, nil
}
