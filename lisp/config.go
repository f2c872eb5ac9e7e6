// Copyright © 2018 The ELPS authors

package lisp

import (
	"context"
	"io"
)

// Config is a function that configures a root environment or its runtime.
type Config func(env *LEnv) *LVal

// WithMaximumStackHeight returns a Config that limits the depth of nested
// function calls.  Exceeding the limit raises a stack-overflow error.
func WithMaximumStackHeight(n int) Config {
	return func(env *LEnv) *LVal {
		env.Runtime.Stack.MaxHeight = n
		return Nil()
	}
}

// WithReader returns a Config that makes environments use r to parse source
// streams.
func WithReader(r Reader) Config {
	return func(env *LEnv) *LVal {
		env.Runtime.Reader = r
		return Nil()
	}
}

// WithResolver returns a Config that makes the module loader find
// in-language modules with r.
func WithResolver(r Resolver) Config {
	return func(env *LEnv) *LVal {
		env.Runtime.Loader.resolver = r
		return Nil()
	}
}

// WithStderr returns a Config that makes the runtime write diagnostics to w.
func WithStderr(w io.Writer) Config {
	return func(env *LEnv) *LVal {
		env.Runtime.Stderr = w
		return Nil()
	}
}

// WithStdout returns a Config that makes the runtime write program output to
// w.
func WithStdout(w io.Writer) Config {
	return func(env *LEnv) *LVal {
		env.Runtime.Stdout = w
		return Nil()
	}
}

// WithStdin returns a Config that makes the runtime read program input from
// r.
func WithStdin(r io.Reader) Config {
	return func(env *LEnv) *LVal {
		env.Runtime.Stdin = r
		return Nil()
	}
}

// WithProfiler returns a Config that attaches p to the runtime.
func WithProfiler(p Profiler) Config {
	return func(env *LEnv) *LVal {
		env.Runtime.Profiler = p
		return Nil()
	}
}

// WithScopeTracking returns a Config that records child scopes on their
// parents.
func WithScopeTracking() Config {
	return func(env *LEnv) *LVal {
		env.Runtime.TrackScopes = true
		return Nil()
	}
}

// WithContext returns a Config that sets the context.Context evaluation
// observes.  When ctx is cancelled evaluation stops with a runtime-error.
func WithContext(ctx context.Context) Config {
	return func(env *LEnv) *LVal {
		env.Runtime.ctx = ctx
		return Nil()
	}
}

// WithMaxSteps returns a Config that sets the maximum number of evaluation
// steps.  A value of 0 means unlimited (the default).
func WithMaxSteps(n int64) Config {
	return func(env *LEnv) *LVal {
		env.Runtime.MaxSteps = n
		return Nil()
	}
}
