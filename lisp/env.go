// Copyright © 2018 The ELPS authors

package lisp

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/luthersystems/dan/parser/ast"
	"github.com/luthersystems/dan/parser/token"
)

// InitializeUserEnv applies config to a root environment.  Special forms are
// recognized by the evaluator and need no bindings, so a bare initialized
// environment can evaluate the core language.  Native modules are installed
// by the lisplib package.
func InitializeUserEnv(env *LEnv, config ...Config) *LVal {
	for _, fn := range config {
		lerr := fn(env)
		if lerr.Type == LError {
			return lerr
		}
	}
	env.Runtime.Loader.root = env
	return Nil()
}

// LEnv is a lisp environment.
type LEnv struct {
	Loc      *token.Location
	Scope    map[ast.Name]*LVal
	Parent   *LEnv
	Children []*LEnv
	Runtime  *Runtime
	// Name describes the scope (e.g. a function name) for tooling.
	Name string
	// Module is the name of the module the scope belongs to.
	Module string
	ID     uint

	class  *ClassDef
	module *Module
}

// NewEnvRuntime initializes a new root LEnv.  When rt is nil
// StandardRuntime() is called to create a new Runtime for the returned LEnv.
// It is an error to use the same runtime object in multiple calls to
// NewEnvRuntime if the two envs are not in the same tree and doing so will
// have unspecified results.
func NewEnvRuntime(rt *Runtime) *LEnv {
	if rt == nil {
		rt = StandardRuntime()
	}
	return &LEnv{
		ID:      rt.GenEnvID(),
		Scope:   make(map[ast.Name]*LVal),
		Runtime: rt,
	}
}

// NewEnv returns initializes and returns a new LEnv.  When parent is nil a
// new root environment with a standard runtime is returned.
func NewEnv(parent *LEnv) *LEnv {
	if parent == nil {
		return NewEnvRuntime(nil)
	}
	return parent.Extend("")
}

// Extend returns a new child scope of env.
func (env *LEnv) Extend(name string) *LEnv {
	child := &LEnv{
		ID:      env.Runtime.GenEnvID(),
		Scope:   make(map[ast.Name]*LVal),
		Parent:  env,
		Runtime: env.Runtime,
		Name:    name,
		Module:  env.Module,
		Loc:     env.Loc,
		class:   env.class,
	}
	if env.Runtime.TrackScopes {
		env.Children = append(env.Children, child)
	}
	return child
}

// Root returns the root of the environment tree containing env.
func (env *LEnv) Root() *LEnv {
	for env.Parent != nil {
		env = env.Parent
	}
	return env
}

func (env *LEnv) String() string {
	var buf bytes.Buffer
	fmt.Fprintf(&buf, "env %d", env.ID)
	if env.Name != "" {
		fmt.Fprintf(&buf, " %s", env.Name)
	}
	if env.Module != "" {
		fmt.Fprintf(&buf, " [%s]", env.Module)
	}
	return buf.String()
}

// Define binds name to v in the env's own scope.  Define returns a
// duplicate-binding error when the scope already binds name.
func (env *LEnv) Define(name ast.Name, v *LVal) *LVal {
	if _, ok := env.Scope[name]; ok {
		return env.ErrorConditionf(CondDuplicateBinding, "name already defined in scope: %s", name.Value())
	}
	env.Scope[name] = v
	return Nil()
}

// Set binds name to v in the env's own scope, replacing any existing binding.
func (env *LEnv) Set(name ast.Name, v *LVal) {
	env.Scope[name] = v
}

// Put binds the named symbol in the env's own scope.
func (env *LEnv) Put(name string, v *LVal) {
	env.Set(ast.Intern(name), v)
}

// Lookup finds the scope binding name.  Lookup returns a nil env and an
// unbound-name error when no scope binds name.
func (env *LEnv) Lookup(name ast.Name) (*LEnv, *LVal) {
	for e := env; e != nil; e = e.Parent {
		if v, ok := e.Scope[name]; ok {
			return e, v
		}
	}
	return nil, env.ErrorConditionf(CondUnboundName, "unbound name: %s", name.Value())
}

// Get returns the value bound to name or an unbound-name error.
func (env *LEnv) Get(name ast.Name) *LVal {
	_, v := env.Lookup(name)
	return v
}

// GetName is Get for a name that is not yet interned.
func (env *LEnv) GetName(name string) *LVal {
	return env.Get(ast.Intern(name))
}

// Assign replaces the value of an existing binding in the nearest scope that
// binds name.  Assign never creates a binding.
func (env *LEnv) Assign(name ast.Name, v *LVal) *LVal {
	owner, lerr := env.Lookup(name)
	if owner == nil {
		return lerr
	}
	owner.Scope[name] = v
	return v
}

// Names returns every name visible from env.  Inner bindings shadow outer
// ones.
func (env *LEnv) Names() []string {
	seen := make(map[ast.Name]bool)
	var names []string
	for e := env; e != nil; e = e.Parent {
		for name := range e.Scope {
			if !seen[name] {
				seen[name] = true
				names = append(names, name.Value())
			}
		}
	}
	return names
}

// EvalString reads and evaluates every form in src, returning the last
// value.
func (env *LEnv) EvalString(name, src string) *LVal {
	return env.Load(name, strings.NewReader(src))
}

// LoadString is an alias for EvalString.
func (env *LEnv) LoadString(name, src string) *LVal {
	return env.EvalString(name, src)
}

// Load reads LVals from r and evaluates them as if in a progn.  The value
// returned by the last evaluated LVal will be returned.
func (env *LEnv) Load(name string, r io.Reader) *LVal {
	return env.LoadLocation(name, "", r)
}

// LoadLocation is like Load but records loc as the on-disk path of the
// source.
func (env *LEnv) LoadLocation(name string, loc string, r io.Reader) *LVal {
	prog, lerr := env.read(name, loc, r)
	if lerr != nil {
		return lerr
	}
	return env.EvalProgram(prog)
}

// LoadFile attempts to read the file at path and evaluate its contents.
func (env *LEnv) LoadFile(path string) *LVal {
	f, err := os.Open(path)
	if err != nil {
		return env.Error(err)
	}
	defer f.Close() //nolint:errcheck // read-only
	abs, err := filepath.Abs(path)
	if err != nil {
		abs = path
	}
	return env.LoadLocation(filepath.Base(path), abs, f)
}

// Read parses src without evaluating it.
func (env *LEnv) Read(name string, src string) (*ast.Program, *LVal) {
	return env.read(name, "", strings.NewReader(src))
}

func (env *LEnv) read(name string, loc string, r io.Reader) (*ast.Program, *LVal) {
	if env.Runtime.Reader == nil {
		return nil, env.Errorf("no reader for environment runtime")
	}
	var prog *ast.Program
	var err error
	if lr, ok := env.Runtime.Reader.(LocationReader); ok && loc != "" {
		prog, err = lr.ReadLocation(name, loc, r)
	} else {
		prog, err = env.Runtime.Reader.Read(name, r)
	}
	if err != nil {
		return nil, env.Error(err)
	}
	return prog, nil
}

// EvalProgram evaluates the forms of prog in env and returns the last value.
// An empty program evaluates to nil.
func (env *LEnv) EvalProgram(prog *ast.Program) *LVal {
	return env.evalBody(prog.Forms)
}

// EvalEnv evaluates src in env and returns the result along with the
// environment it was evaluated in.  When env is nil a new root environment
// is created, though it has no reader unless one is installed afterward, so
// callers normally pass an environment prepared by the lisplib package.
func EvalEnv(src string, env *LEnv) (*LVal, *LEnv) {
	if env == nil {
		env = NewEnv(nil)
		InitializeUserEnv(env)
	}
	return env.EvalString("eval", src), env
}

// Errorf returns an LError with a formatted message associated with the
// env's current location and call stack.
func (env *LEnv) Errorf(format string, v ...interface{}) *LVal {
	return env.ErrorAssociate(Errorf(format, v...))
}

// ErrorConditionf returns an LError with the given condition associated with
// the env's current location and call stack.
func (env *LEnv) ErrorConditionf(condition string, format string, v ...interface{}) *LVal {
	return env.ErrorAssociate(ErrorConditionf(condition, format, v...))
}

// ErrorCondition returns an LError with the given condition whose message is
// formed from v.
func (env *LEnv) ErrorCondition(condition string, v ...*LVal) *LVal {
	return env.ErrorAssociate(ErrorCondition(condition, v...))
}

// Error returns an LError representing err.
func (env *LEnv) Error(err error) *LVal {
	return env.ErrorAssociate(Error(err))
}

// ErrorAssociate sets the location and call stack of lerr when they are not
// already known.
func (env *LEnv) ErrorAssociate(lerr *LVal) *LVal {
	if lerr.Type != LError {
		return lerr
	}
	if lerr.Source == nil {
		lerr.Source = env.Loc
	}
	if lerr.CallStack() == nil {
		lerr.SetCallStack(env.Runtime.Stack.Copy())
	}
	return lerr
}
