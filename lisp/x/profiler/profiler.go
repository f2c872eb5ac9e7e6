// Copyright © 2018 The ELPS authors

// Package profiler provides lisp.Profiler implementations which record the
// function calls made by a runtime.  Annotators attach spans or labels to an
// external tracing system while the callgrind profiler writes a profile
// that can be opened in KCacheGrind.
package profiler

import (
	"fmt"

	"github.com/luthersystems/dan/lisp"
	"github.com/luthersystems/dan/parser/token"
)

// profiler is a minimal lisp.Profiler
type profiler struct {
	runtime    *lisp.Runtime
	enabled    bool
	skipFilter SkipFilter
	funLabeler FunLabeler
}

var _ lisp.Profiler = &profiler{}

func (p *profiler) IsEnabled() bool {
	return p.enabled
}

// Option configures a profiler.
type Option func(*profiler)

func (p *profiler) applyConfigs(opts ...Option) {
	for _, opt := range opts {
		opt(p)
	}
}

func (p *profiler) Enable() error {
	if p.enabled {
		return fmt.Errorf("profiler already enabled")
	}
	p.enabled = true
	return nil
}

func (p *profiler) Complete() error {
	return nil
}

func (p *profiler) Start(fun *lisp.LVal) func() {
	return func() {}
}

// prettyFunName returns a display label and the qualified name of fun.  The
// label is the qualified name unless the profiler's labeler supplies one.
func (p *profiler) prettyFunName(fun *lisp.LVal) (string, string) {
	f := fun.Fun()
	if f == nil {
		return "", ""
	}
	name := f.QualifiedName()
	label := ""
	if p.funLabeler != nil {
		label = p.funLabeler(fun)
	}
	if label == "" {
		label = name
	}
	return label, name
}

// skipTrace is a helper function to decide whether to skip tracing.
func (p *profiler) skipTrace(v *lisp.LVal) bool {
	return !p.enabled || defaultSkipFilter(v) || p.skipFilter != nil && p.skipFilter(v)
}

// callSite returns the location of the call being profiled.  The runtime
// pushes the frame for a call before the profiler observes it.
func (p *profiler) callSite(fun *lisp.LVal) *token.Location {
	if p.runtime != nil {
		if top := p.runtime.Stack.Top(); top != nil && top.Source != nil {
			return top.Source
		}
	}
	return fun.Source
}

// funModule returns the module fun was defined in.
func funModule(fun *lisp.LVal) string {
	if f := fun.Fun(); f != nil {
		return f.Module
	}
	return ""
}
