// Copyright © 2018 The ELPS authors

// Package libregexp exposes RE2 regular expressions to dan programs.
package libregexp

import (
	"regexp"

	"github.com/luthersystems/dan/lisp"
	"github.com/luthersystems/dan/lisp/lisplib/internal/libutil"
)

// DefaultModuleName is the name of the module loaded as builtin:regexp.
const DefaultModuleName = "regexp"

// CondInvalidPattern is the condition of errors raised for patterns which
// do not compile.
const CondInvalidPattern = "invalid-regexp-pattern"

// Module returns the native definition of the regexp module.
func Module() *lisp.NativeModule {
	return libutil.NativeModule(DefaultModuleName,
		"Regular expressions using Go's RE2 syntax.  Functions taking a regexp accept a compiled regexp or a pattern string.",
		builtins)
}

var builtins = []*libutil.Builtin{
	libutil.FunctionDoc("regexp?", lisp.Formals("value"), builtinIsRegexp,
		`Returns true if value is a compiled regular expression.`),
	libutil.FunctionDoc("compile", lisp.Formals("pattern"), builtinCompile,
		`Compiles pattern and returns a regexp.  An invalid pattern raises
		an invalid-regexp-pattern error.`),
	libutil.FunctionDoc("pattern", lisp.Formals("re"), builtinPattern,
		`Returns the source text of re.`),
	libutil.FunctionDoc("match?", lisp.Formals("re", "text"), builtinIsMatch,
		`Returns true if re matches any part of text.`),
	libutil.FunctionDoc("find", lisp.Formals("re", "text"), builtinFind,
		`Returns the leftmost match of re in text and its submatches as a
		list, or nil when there is no match.`),
	libutil.FunctionDoc("find-all", lisp.Formals("re", "text"), builtinFindAll,
		`Returns a list of every match of re in text.`),
	libutil.FunctionDoc("replace", lisp.Formals("re", "text", "replacement"), builtinReplace,
		`Replaces every match of re in text.  The replacement may refer to
		submatches as $1 or ${name}.`),
	libutil.FunctionDoc("split", lisp.Formals("re", "text"), builtinSplit,
		`Returns the substrings of text between matches of re.`),
}

func builtinIsRegexp(env *lisp.LEnv, args *lisp.LVal) *lisp.LVal {
	v := args.Cells[0]
	if v.Type != lisp.LNative {
		return lisp.Bool(false)
	}
	_, ok := v.Native.(*regexp.Regexp)
	return lisp.Bool(ok)
}

func builtinCompile(env *lisp.LEnv, args *lisp.LVal) *lisp.LVal {
	patt, lerr := libutil.StringArg(env, args.Cells[0])
	if lerr != nil {
		return lerr
	}
	re, err := regexp.Compile(patt)
	if err != nil {
		return invalidPatternError(env, err)
	}
	return lisp.Native(re)
}

func builtinPattern(env *lisp.LEnv, args *lisp.LVal) *lisp.LVal {
	re, lerr := getRegexp(env, args.Cells[0])
	if lerr != nil {
		return lerr
	}
	return lisp.String(re.String())
}

func builtinIsMatch(env *lisp.LEnv, args *lisp.LVal) *lisp.LVal {
	re, text, lerr := regexpText(env, args)
	if lerr != nil {
		return lerr
	}
	return lisp.Bool(re.MatchString(text))
}

func builtinFind(env *lisp.LEnv, args *lisp.LVal) *lisp.LVal {
	re, text, lerr := regexpText(env, args)
	if lerr != nil {
		return lerr
	}
	m := re.FindStringSubmatch(text)
	if m == nil {
		return lisp.Nil()
	}
	return stringList(m)
}

func builtinFindAll(env *lisp.LEnv, args *lisp.LVal) *lisp.LVal {
	re, text, lerr := regexpText(env, args)
	if lerr != nil {
		return lerr
	}
	return stringList(re.FindAllString(text, -1))
}

func builtinReplace(env *lisp.LEnv, args *lisp.LVal) *lisp.LVal {
	re, text, lerr := regexpText(env, args)
	if lerr != nil {
		return lerr
	}
	repl, lerr := libutil.StringArg(env, args.Cells[2])
	if lerr != nil {
		return lerr
	}
	return lisp.String(re.ReplaceAllString(text, repl))
}

func builtinSplit(env *lisp.LEnv, args *lisp.LVal) *lisp.LVal {
	re, text, lerr := regexpText(env, args)
	if lerr != nil {
		return lerr
	}
	return stringList(re.Split(text, -1))
}

func stringList(strs []string) *lisp.LVal {
	cells := make([]*lisp.LVal, len(strs))
	for i, s := range strs {
		cells[i] = lisp.String(s)
	}
	return lisp.List(cells...)
}

// regexpText returns the regexp and string in the first two arguments.
func regexpText(env *lisp.LEnv, args *lisp.LVal) (*regexp.Regexp, string, *lisp.LVal) {
	re, lerr := getRegexp(env, args.Cells[0])
	if lerr != nil {
		return nil, "", lerr
	}
	text, lerr := libutil.StringArg(env, args.Cells[1])
	if lerr != nil {
		return nil, "", lerr
	}
	return re, text, nil
}

// getRegexp returns a regexp corresponding to v.  If v is a compiled regexp,
// the underlying regexp.Regexp is returned.  If v is a string it will be
// compiled to a regexp and the returned is returned.  Any error encountered is
// returned as an LVal.
func getRegexp(env *lisp.LEnv, v *lisp.LVal) (*regexp.Regexp, *lisp.LVal) {
	if v.Type == lisp.LString {
		re, err := regexp.Compile(v.Str)
		if err != nil {
			return nil, invalidPatternError(env, err)
		}
		return re, nil
	}
	if v.Type == lisp.LNative {
		if re, ok := v.Native.(*regexp.Regexp); ok {
			return re, nil
		}
	}
	return nil, env.ErrorAssociate(lisp.TypeError(v, "regexp"))
}

func invalidPatternError(env *lisp.LEnv, err error) *lisp.LVal {
	return env.ErrorConditionf(CondInvalidPattern, "%v", err)
}
