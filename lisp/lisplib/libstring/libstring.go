// Copyright © 2018 The ELPS authors

package libstring

import (
	"strings"
	"unicode/utf8"

	"github.com/luthersystems/dan/lisp"
	"github.com/luthersystems/dan/lisp/lisplib/internal/libutil"
)

// DefaultModuleName is the name of the module loaded as builtin:string.
const DefaultModuleName = "string"

// Module returns the native definition of the string module.
func Module() *lisp.NativeModule {
	return libutil.NativeModule(DefaultModuleName, "String conversion and manipulation.", builtins)
}

var builtins = []*libutil.Builtin{
	libutil.FunctionDoc("string", lisp.Formals("value"), builtinString,
		`Returns the display form of value.  Strings are returned
		unchanged.`),
	libutil.Function("string=?", lisp.Formals("a", "b"), builtinStringEq),
	libutil.Function("string-length", lisp.Formals("str"), builtinLength),
	libutil.FunctionDoc("concat", lisp.Formals(lisp.VarArgSymbol, "strs"), builtinConcat,
		`Returns the concatenation of its string arguments.`),
	libutil.FunctionDoc("split", lisp.Formals("sep", "str"), builtinSplit,
		`Returns the list of substrings of str separated by sep.`),
	libutil.FunctionDoc("join", lisp.Formals("sep", "list"), builtinJoin,
		`Returns the strings in list joined with sep.`),
	libutil.Function("upper", lisp.Formals("str"), builtinUpper),
	libutil.Function("lower", lisp.Formals("str"), builtinLower),
	libutil.Function("trim", lisp.Formals("str"), builtinTrim),
	libutil.FunctionDoc("substring", lisp.Formals("str", "start", "end"), builtinSubstring,
		`Returns the characters of str from start up to but not including
		end.`),
	libutil.FunctionDoc("contains?", lisp.Formals("sub", "str"), builtinContains,
		`Returns true when sub occurs in str.`),
}

func builtinString(env *lisp.LEnv, args *lisp.LVal) *lisp.LVal {
	return lisp.String(args.Cells[0].Display())
}

func builtinStringEq(env *lisp.LEnv, args *lisp.LVal) *lisp.LVal {
	a, lerr := libutil.StringArg(env, args.Cells[0])
	if lerr != nil {
		return lerr
	}
	b, lerr := libutil.StringArg(env, args.Cells[1])
	if lerr != nil {
		return lerr
	}
	return lisp.Bool(a == b)
}

func builtinLength(env *lisp.LEnv, args *lisp.LVal) *lisp.LVal {
	str, lerr := libutil.StringArg(env, args.Cells[0])
	if lerr != nil {
		return lerr
	}
	return lisp.Int(utf8.RuneCountInString(str))
}

func builtinConcat(env *lisp.LEnv, args *lisp.LVal) *lisp.LVal {
	var buf strings.Builder
	for _, v := range args.Cells {
		str, lerr := libutil.StringArg(env, v)
		if lerr != nil {
			return lerr
		}
		buf.WriteString(str)
	}
	return lisp.String(buf.String())
}

func builtinSplit(env *lisp.LEnv, args *lisp.LVal) *lisp.LVal {
	sep, lerr := libutil.StringArg(env, args.Cells[0])
	if lerr != nil {
		return lerr
	}
	str, lerr := libutil.StringArg(env, args.Cells[1])
	if lerr != nil {
		return lerr
	}
	slice := strings.Split(str, sep)
	cells := make([]*lisp.LVal, len(slice))
	for i, s := range slice {
		cells[i] = lisp.String(s)
	}
	return lisp.List(cells...)
}

func builtinJoin(env *lisp.LEnv, args *lisp.LVal) *lisp.LVal {
	sep, lerr := libutil.StringArg(env, args.Cells[0])
	if lerr != nil {
		return lerr
	}
	list := args.Cells[1]
	if list.Type != lisp.LList {
		return env.ErrorAssociate(lisp.TypeError(list, "list"))
	}
	strs := make([]string, len(list.Cells))
	for i, v := range list.Cells {
		str, lerr := libutil.StringArg(env, v)
		if lerr != nil {
			return lerr
		}
		strs[i] = str
	}
	return lisp.String(strings.Join(strs, sep))
}

func mapString(fn func(string) string) lisp.LBuiltin {
	return func(env *lisp.LEnv, args *lisp.LVal) *lisp.LVal {
		str, lerr := libutil.StringArg(env, args.Cells[0])
		if lerr != nil {
			return lerr
		}
		return lisp.String(fn(str))
	}
}

var (
	builtinUpper = mapString(strings.ToUpper)
	builtinLower = mapString(strings.ToLower)
	builtinTrim  = mapString(strings.TrimSpace)
)

func builtinSubstring(env *lisp.LEnv, args *lisp.LVal) *lisp.LVal {
	str, lerr := libutil.StringArg(env, args.Cells[0])
	if lerr != nil {
		return lerr
	}
	start, lerr := libutil.IntArg(env, args.Cells[1])
	if lerr != nil {
		return lerr
	}
	end, lerr := libutil.IntArg(env, args.Cells[2])
	if lerr != nil {
		return lerr
	}
	runes := []rune(str)
	if start < 0 || end > len(runes) || start > end {
		return env.ErrorConditionf(lisp.CondOutOfRange, "substring bounds out of range: [%d, %d) of %d", start, end, len(runes))
	}
	return lisp.String(string(runes[start:end]))
}

func builtinContains(env *lisp.LEnv, args *lisp.LVal) *lisp.LVal {
	sub, lerr := libutil.StringArg(env, args.Cells[0])
	if lerr != nil {
		return lerr
	}
	str, lerr := libutil.StringArg(env, args.Cells[1])
	if lerr != nil {
		return lerr
	}
	return lisp.Bool(strings.Contains(str, sub))
}
