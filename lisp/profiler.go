// Copyright © 2018 The ELPS authors

package lisp

import (
	"io"

	"github.com/luthersystems/dan/parser/ast"
)

// Version is the dan language version.
const Version = "0.4"

// Profiler observes function calls made by a Runtime.
type Profiler interface {
	// Is the profiler enabled?
	IsEnabled() bool
	// Enable the profiler
	Enable() error
	// End the profiling session and flush output
	Complete() error
	// Marks the start of a call and returns a function that marks its end
	Start(function *LVal) func()
}

// Reader reads dan source into a syntax tree.
type Reader interface {
	Read(name string, r io.Reader) (*ast.Program, error)
}

// LocationReader is a Reader that also records the on-disk location of the
// source in node positions.
type LocationReader interface {
	Reader
	ReadLocation(name string, loc string, r io.Reader) (*ast.Program, error)
}
