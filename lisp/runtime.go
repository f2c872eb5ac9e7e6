// Copyright © 2018 The ELPS authors

package lisp

import (
	"context"
	"fmt"
	"io"
	"os"
	"sync/atomic"
)

// Runtime is an object underlying a family of tree of LEnv values.  It is
// responsible for holding shared environment state, generating identifiers,
// and writing debugging output to a stream (typically os.Stderr).
type Runtime struct {
	Stderr   io.Writer
	Stdout   io.Writer
	Stdin    io.Reader
	Stack    *CallStack
	Reader   Reader
	Loader   *Loader
	Classes  *ClassTable
	Profiler Profiler

	// TrackScopes records child scopes on their parents so that scope trees
	// can be inspected by tooling.
	TrackScopes bool

	// MaxSteps limits the number of evaluation steps when positive.
	MaxSteps int64

	ctx     context.Context
	steps   int64
	numenv  atomicCounter
	numinst atomicCounter
	numsym  atomicCounter
}

// StandardRuntime returns a new Runtime with an empty module loader and
// Stderr set to os.Stderr.
func StandardRuntime() *Runtime {
	return &Runtime{
		Stderr:  os.Stderr,
		Stdout:  os.Stdout,
		Stdin:   os.Stdin,
		Stack:   &CallStack{MaxHeight: DefaultMaxHeight},
		Loader:  NewLoader(nil),
		Classes: &ClassTable{},
	}
}

// Context returns the context evaluation observes for cancellation.
func (r *Runtime) Context() context.Context {
	if r.ctx == nil {
		return context.Background()
	}
	return r.ctx
}

// GenEnvID returns a new environment identifier.
func (r *Runtime) GenEnvID() uint {
	return r.numenv.Add(1)
}

// GenInstanceID returns a new object identifier.
func (r *Runtime) GenInstanceID() uint {
	return r.numinst.Add(1)
}

// GenSym returns a unique symbol name for use in macro expansions.
func (r *Runtime) GenSym() string {
	return fmt.Sprintf("gen%08d", r.numsym.Add(1))
}

// step counts an evaluation step and reports cancellation or an exhausted
// step budget.
func (r *Runtime) step() error {
	r.steps++
	if r.MaxSteps > 0 && r.steps > r.MaxSteps {
		return &StepLimitError{Limit: r.MaxSteps}
	}
	if r.ctx != nil && r.steps&0xff == 0 {
		if err := r.ctx.Err(); err != nil {
			return err
		}
	}
	return nil
}

// StepLimitError is returned when a Runtime exceeds MaxSteps.
type StepLimitError struct {
	Limit int64
}

func (e *StepLimitError) Error() string {
	return fmt.Sprintf("evaluation exceeded %d steps", e.Limit)
}

// Condition implements the condition interface checked by Error.
func (e *StepLimitError) Condition() string {
	return CondRuntimeError
}

type atomicCounter uint64

func (c *atomicCounter) Add(n uint) uint {
	return uint(atomic.AddUint64((*uint64)(c), uint64(n)))
}
