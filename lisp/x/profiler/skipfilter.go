// Copyright © 2018 The ELPS authors

package profiler

import (
	"regexp"

	"github.com/luthersystems/dan/lisp"
)

// SkipFilter reports whether calls to fun should be left out of a trace.
type SkipFilter func(fun *lisp.LVal) bool

// Only functions are profiled.  Macro expansion is not a call.
func defaultSkipFilter(fun *lisp.LVal) bool {
	if fun.Type != lisp.LFun {
		return true
	}
	f := fun.Fun()
	return f == nil || f.Macro
}

// WithDocFilter filters to only include spans for functions whose
// docstring contains DocTrace.
func WithDocFilter() Option {
	return WithSkipFilter(docSkipFilter)
}

// WithSkipFilter sets the filter for tracing spans.
func WithSkipFilter(skipFilter SkipFilter) Option {
	return func(p *profiler) {
		p.skipFilter = skipFilter
	}
}

// DocTrace is a magic string used to enable tracing in a profiler
// configured WithDocFilter.
const DocTrace = "@trace"

var docTraceRegExp = regexp.MustCompile(DocTrace)

func docSkipFilter(fun *lisp.LVal) bool {
	f := fun.Fun()
	if f == nil || f.Doc == "" {
		return true
	}
	return !docTraceRegExp.MatchString(f.Doc)
}
