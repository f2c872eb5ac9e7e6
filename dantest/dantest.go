// Copyright © 2018 The ELPS authors

// Package dantest runs dan programs as Go tests.  Files using the testing
// module become subtests, and TestSuite tables check the printed values of
// expressions evaluated in sequence.
package dantest

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/luthersystems/dan/lisp"
	"github.com/luthersystems/dan/lisp/lisplib"
	"github.com/luthersystems/dan/lisp/lisplib/libtesting"
	"github.com/luthersystems/dan/parser"
)

// BenchmarkParse returns a benchmark reading the file at path with readers
// created by r.
func BenchmarkParse(path string, r func() lisp.Reader) func(*testing.B) {
	return func(b *testing.B) {
		buf, err := os.ReadFile(path) //#nosec G304
		if err != nil {
			b.Fatalf("Unable to read source file %v: %v", path, err)
		}
		b.SetBytes(int64(len(buf)))
		for i := 0; i < b.N; i++ {
			_, err := r().Read("test", bytes.NewReader(buf))
			if err != nil {
				b.Fatalf("Parse failure: %v", err)
			}
		}
	}
}

// Runner is a test runner.
type Runner struct {
	// Config is applied to each test environment after the defaults.
	Config []lisp.Config

	// Teardown runs code to teardown an environment after each test declared
	// in the testing module has been run.  Any error returned by the teardown
	// function is reported as a test failure.
	Teardown func(*lisp.LEnv) *lisp.LVal
}

// NewEnv returns an environment with the library loaded whose stderr is
// logged to t.
func (r *Runner) NewEnv(t testing.TB) (*lisp.LEnv, error) {
	logger := NewLogger(t)
	config := append([]lisp.Config{
		lisp.WithStderr(logger),
		lisp.WithStdout(logger),
	}, r.Config...)
	env, err := lisplib.NewEnv(config...)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize environment: %w", err)
	}
	return env, nil
}

func flush(env *lisp.LEnv) {
	if logger, ok := env.Runtime.Stderr.(*Logger); ok {
		logger.Flush()
	}
}

// load evaluates source in a new environment and returns the environment and
// its test suite.
func (r *Runner) load(t testing.TB, path string, source io.Reader) (*lisp.LEnv, *libtesting.TestSuite, bool) {
	env, err := r.NewEnv(t)
	if err != nil {
		t.Error(err.Error())
		return nil, nil, false
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		abs = path
	}
	err = lisp.GoError(env.LoadLocation(filepath.Base(path), abs, source))
	if err != nil {
		flush(env)
		r.LispError(t, err)
		return nil, nil, false
	}
	suite := libtesting.EnvTestSuite(env)
	if suite == nil {
		flush(env)
		t.Error("unable to locate test suite")
		return nil, nil, false
	}
	return env, suite, true
}

// LoadTests returns the names of the tests defined by source.
func (r *Runner) LoadTests(t *testing.T, path string, source io.Reader) []string {
	env, suite, ok := r.load(t, path, source)
	if !ok {
		t.FailNow()
	}
	defer flush(env)
	return suite.Tests()
}

// RunTest runs the test at index i read from source.  Path is used for the
// file name reported in locations and to resolve modules relative to the
// test file.
func (r *Runner) RunTest(t *testing.T, i int, path string, source io.Reader) {
	env, suite, ok := r.load(t, path, source)
	if !ok {
		return
	}
	defer flush(env)
	if r.Teardown != nil {
		defer func() {
			if err := lisp.GoError(r.Teardown(env)); err != nil {
				r.LispError(t, err)
			}
		}()
	}
	err := lisp.GoError(suite.Run(env, i))
	if err != nil {
		r.LispError(t, err)
	}
}

// RunTestFile runs every test defined in the file at path as a subtest of t.
func (r *Runner) RunTestFile(t *testing.T, path string) {
	source, err := os.ReadFile(path) //#nosec G304
	if err != nil {
		t.Errorf("Unable to read test file: %v", err)
		return
	}

	var names []string
	ok := t.Run("$load", func(t *testing.T) {
		names = r.LoadTests(t, path, bytes.NewReader(source))
	})
	if !ok {
		return
	}

	for i := range names {
		// Failures are not checked so that every test in the file runs even
		// when an earlier one fails.
		t.Run(names[i], func(t *testing.T) {
			r.RunTest(t, i, path, bytes.NewReader(source))
		})
	}
}

// LispError reports err, with its stack trace when err is a lisp error.
func (r *Runner) LispError(t testing.TB, err error) {
	var lerr *lisp.ErrorVal
	if !errors.As(err, &lerr) {
		t.Error(err)
		return
	}
	var buf bytes.Buffer
	_, ioerr := lerr.WriteTrace(&buf)
	if ioerr != nil {
		t.Errorf("io error: %v", ioerr)
		t.Error(err)
		return
	}
	t.Error(buf.String())
}

// TestSequence is a sequence of expressions which are evaluated in order by
// one environment.
type TestSequence []struct {
	Expr   string // an expression
	Result string // the printed result, when no error is expected
	Error  string // the condition of the expected error, if any
	Output string // text written to the runtime's stdout
}

// TestSuite is a set of named TestSequences.
type TestSuite []struct {
	Name string
	TestSequence
}

// RunTestSuite runs each TestSequence in tests on an isolated environment
// with the library loaded.
func RunTestSuite(t *testing.T, tests TestSuite) {
	for i, test := range tests {
		var out bytes.Buffer
		env, err := lisplib.NewEnv(
			lisp.WithStdout(&out),
			lisp.WithStderr(&out),
			lisp.WithMaximumStackHeight(5000),
		)
		if err != nil {
			t.Errorf("test %d %q: %v", i, test.Name, err)
			continue
		}
		for j, expr := range test.TestSequence {
			out.Reset()
			prog, err := env.Runtime.Reader.Read("test", strings.NewReader(expr.Expr))
			if err != nil {
				t.Errorf("test %d %q: expr %d: parse error: %v", i, test.Name, j, err)
				continue
			}
			if len(prog.Forms) != 1 {
				t.Errorf("test %d %q: expr %d: expected one expression, parsed %d", i, test.Name, j, len(prog.Forms))
				continue
			}
			v := env.Eval(prog.Forms[0])
			switch {
			case expr.Error != "":
				if v.Type != lisp.LError {
					t.Errorf("test %d %q: expr %d: expected %s error (got %v)", i, test.Name, j, expr.Error, v)
				} else if lisp.Condition(v) != expr.Error {
					t.Errorf("test %d %q: expr %d: expected %s error (got %v)", i, test.Name, j, expr.Error, v)
				}
			case v.String() != expr.Result:
				t.Errorf("test %d %q: expr %d: expected result %s (got %s)", i, test.Name, j, expr.Result, v)
			}
			if out.String() != expr.Output {
				t.Errorf("test %d %q: expr %d: expected output %q (got %q)", i, test.Name, j, expr.Output, out.String())
			}
		}
	}
}

// RunBenchmark evaluates source in a new environment b.N times.
func RunBenchmark(b *testing.B, source string) {
	b.StopTimer()
	p := parser.NewReader()
	prog, err := p.Read("benchmark", strings.NewReader(source))
	if err != nil {
		b.Fatalf("parse error: %v", err)
	}
	for i := 0; i < b.N; i++ {
		env, err := lisplib.NewEnv(
			lisp.WithReader(p),
			lisp.WithStderr(io.Discard),
			lisp.WithStdout(io.Discard),
		)
		if err != nil {
			b.Fatal(err)
		}
		b.StartTimer()
		err = lisp.GoError(env.EvalProgram(prog))
		b.StopTimer()
		if err != nil {
			b.Fatal(err)
		}
	}
}
