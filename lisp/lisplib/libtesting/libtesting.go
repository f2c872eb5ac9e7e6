// Copyright © 2018 The ELPS authors

package libtesting

import (
	"fmt"

	"github.com/luthersystems/dan/lisp"
	"github.com/luthersystems/dan/lisp/lisplib/internal/libutil"
	"github.com/luthersystems/dan/parser/token"
)

// DefaultModuleName is the name of the module loaded as builtin:testing.
const DefaultModuleName = "testing"

// DefaultSuiteSymbol is the export holding the module's *TestSuite.
const DefaultSuiteSymbol = "test-suite"

// Module returns the native definition of the testing module.  Each load of
// the module creates a new, empty test suite.
func Module() *lisp.NativeModule {
	return &lisp.NativeModule{
		Name: DefaultModuleName,
		Doc:  "Test framework: define named tests and check them with assert and assert=.",
		Factory: func(env *lisp.LEnv, deps ...*lisp.Module) (*lisp.Module, *lisp.LVal) {
			suite := NewTestSuite()
			mod := lisp.NewModule(DefaultModuleName)
			mod.Doc = "Test framework: define named tests and check them with assert and assert=."
			mod.Provide(DefaultSuiteSymbol, lisp.Native(suite))
			for _, fn := range suite.Builtins() {
				mod.Provide(fn.Name(), fn.Value(DefaultModuleName))
			}
			return mod, nil
		},
	}
}

// Test is a named test registered by the test function.
type Test struct {
	Name   string
	Fun    *lisp.LVal
	Source *token.Location
}

// TestSuite is an ordered set of named tests.
type TestSuite struct {
	tests  map[string]*Test
	torder []string
}

func NewTestSuite() *TestSuite {
	return &TestSuite{
		tests: make(map[string]*Test),
	}
}

func (s *TestSuite) Add(t *Test) error {
	if s.tests[t.Name] != nil {
		return fmt.Errorf("test with the same name already defined: %v", t.Name)
	}
	s.torder = append(s.torder, t.Name)
	s.tests[t.Name] = t
	return nil
}

func (s *TestSuite) Len() int {
	return len(s.torder)
}

func (s *TestSuite) Tests() []string {
	names := make([]string, len(s.torder))
	copy(names, s.torder)
	return names
}

func (s *TestSuite) Test(i int) *Test {
	return s.tests[s.torder[i]]
}

// Run calls the test at index i in env and returns its result.
func (s *TestSuite) Run(env *lisp.LEnv, i int) *lisp.LVal {
	return env.Call(s.Test(i).Fun)
}

func (s *TestSuite) Builtins() []*libutil.Builtin {
	return []*libutil.Builtin{
		libutil.FunctionDoc("test", lisp.Formals("name", "fn"), s.BuiltinTest,
			`Defines a named test case.  name must be a string and fn a
			function of no arguments which is called when the test runs.
			Use assert and assert= inside fn to check conditions.`),
		libutil.FunctionDoc("assert", lisp.Formals("value", lisp.VarArgSymbol, "message"), builtinAssert,
			`Raises a runtime-error when value is false or nil.  Any message
			arguments are displayed in the error.`),
		libutil.FunctionDoc("assert=", lisp.Formals("expect", "actual"), builtinAssertEqual,
			`Raises a runtime-error unless expect and actual are structurally
			equal.  Reports the expected and actual values on failure.`),
	}
}

func (s *TestSuite) BuiltinTest(env *lisp.LEnv, args *lisp.LVal) *lisp.LVal {
	name, fn := args.Cells[0], args.Cells[1]
	if name.Type != lisp.LString {
		return env.ErrorAssociate(lisp.TypeError(name, "string"))
	}
	if !fn.IsCallable() {
		return env.ErrorAssociate(lisp.TypeError(fn, "function"))
	}
	err := s.Add(&Test{Name: name.Str, Fun: fn, Source: env.Loc})
	if err != nil {
		return env.ErrorConditionf(lisp.CondDuplicateBinding, "%v", err)
	}
	return lisp.Nil()
}

func builtinAssert(env *lisp.LEnv, args *lisp.LVal) *lisp.LVal {
	if args.Cells[0].IsTruthy() {
		return lisp.Nil()
	}
	msg := []*lisp.LVal{lisp.String("assertion failed")}
	if len(args.Cells) > 1 {
		msg[0] = lisp.String("assertion failed:")
		msg = append(msg, args.Cells[1:]...)
	}
	return env.ErrorCondition(lisp.CondRuntimeError, msg...)
}

func builtinAssertEqual(env *lisp.LEnv, args *lisp.LVal) *lisp.LVal {
	expect, actual := args.Cells[0], args.Cells[1]
	if lisp.Equal(expect, actual) {
		return lisp.Nil()
	}
	return env.ErrorConditionf(lisp.CondRuntimeError, "values are not equal\n\t  expected: %v\n\t    actual: %v", expect, actual)
}

// EnvTestSuite returns the suite of the testing module loaded in env's
// runtime, or nil when the module has not been loaded.
func EnvTestSuite(env *lisp.LEnv) *TestSuite {
	mod, ok := env.Runtime.Loader.Cached(lisp.NativePrefix + DefaultModuleName)
	if !ok {
		return nil
	}
	lsuite, ok := mod.Export(DefaultSuiteSymbol)
	if !ok || lsuite.Type != lisp.LNative {
		return nil
	}
	suite, _ := lsuite.Native.(*TestSuite)
	return suite
}
