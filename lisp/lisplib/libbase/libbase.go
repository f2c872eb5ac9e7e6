// Copyright © 2024 The ELPS authors

// Package libbase provides the core list, map, and predicate functions.
package libbase

import (
	"fmt"
	"hash/fnv"
	"strings"

	"github.com/luthersystems/dan/lisp"
	"github.com/luthersystems/dan/lisp/lisplib/internal/libutil"
)

// DefaultModuleName is the name of the module loaded as builtin:base.
const DefaultModuleName = "base"

// Module returns the native definition of the base module.
func Module() *lisp.NativeModule {
	return libutil.NativeModule(DefaultModuleName,
		"Core functions for lists, maps, and type predicates.", builtins)
}

var builtins = []*libutil.Builtin{
	libutil.FunctionDoc("type", lisp.Formals("value"), builtinType,
		`Returns the type name of value as a string.  Instances return the
		name of their class.`),
	libutil.FunctionDoc("cons", lisp.Formals("head", "tail"), builtinCons,
		`Returns a list with head prepended to tail.  When tail is not a
		list the result is the two element list (head tail).`),
	libutil.FunctionDoc("fst", lisp.Formals("list"), builtinFst,
		`Returns the first element of list.`),
	libutil.FunctionDoc("snd", lisp.Formals("list"), builtinSnd,
		`Returns the second element of list.`),
	libutil.FunctionDoc("last", lisp.Formals("list"), builtinLast,
		`Returns the last element of list.`),
	libutil.FunctionDoc("rest", lisp.Formals("list"), builtinRest,
		`Returns list without its first element.`),
	libutil.FunctionDoc("list", lisp.Formals(lisp.VarArgSymbol, "items"), builtinList,
		`Returns a list of its arguments.`),
	libutil.FunctionDoc("length", lisp.Formals("seq"), builtinLength,
		`Returns the number of elements in a list, range, map, or string.`),
	libutil.FunctionDoc("equal?", lisp.Formals("a", "b"), builtinEqual,
		`Returns true when a and b are structurally equal.`),
	libutil.FunctionDoc("eq?", lisp.Formals("a", "b"), builtinEq,
		`Returns true when a and b are the same object.`),
	libutil.FunctionDoc("get", lisp.Formals("key", "obj"), builtinGet,
		`Returns the element of obj at key.  Lists and ranges take an
		index, maps take a key, and instances and modules take a field or
		export name.  A missing key is an out-of-range error.`),
	libutil.FunctionDoc("nth", lisp.Formals("index", "list"), builtinGet,
		`Returns the element of list at index.`),
	libutil.FunctionDoc("has?", lisp.Formals("key", "obj"), builtinHas,
		`Returns true when get would find key in obj.`),
	libutil.FunctionDoc("set", lisp.Formals("key", "value", "obj"), builtinSet,
		`Stores value under key in the map obj, or at an existing index of
		the list obj.  Returns obj.`),
	libutil.FunctionDoc("keys", lisp.Formals("map"), builtinKeys,
		`Returns the keys of map in insertion order.`),
	libutil.FunctionDoc("values", lisp.Formals("map"), builtinValues,
		`Returns the values of map in insertion order.`),
	libutil.FunctionDoc("entries", lisp.Formals("map"), builtinEntries,
		`Returns a list of (key value) lists for map.`),
	libutil.FunctionDoc("range", lisp.Formals("stop", lisp.VarArgSymbol, "bounds"), builtinRange,
		`Returns a range.  (range stop) counts from 0, (range start stop)
		and (range start stop step) give the bounds explicitly.  The stop
		value is excluded and a zero step is an error.`),
	libutil.FunctionDoc("hash", lisp.Formals("value"), builtinHash,
		`Returns a hash string of the printed form of value.`),
	libutil.FunctionDoc("append", lisp.Formals("list", lisp.VarArgSymbol, "items"), builtinAppend,
		`Returns a new list with items added to the end of list.`),
	libutil.FunctionDoc("map", lisp.Formals("fn", "seq"), builtinMap,
		`Returns the list of results of calling fn on each element of seq.`),
	libutil.FunctionDoc("filter", lisp.Formals("pred", "seq"), builtinFilter,
		`Returns the elements of seq for which pred is truthy.`),
	libutil.FunctionDoc("reduce", lisp.Formals("fn", "init", "seq"), builtinReduce,
		`Folds seq from the left, calling (fn acc item) for each item.`),
	libutil.FunctionDoc("apply", lisp.Formals("fn", "args"), builtinApply,
		`Calls fn with the elements of the list args as arguments.`),
	libutil.FunctionDoc("eval", lisp.Formals("datum"), builtinEval,
		`Evaluates datum as code and returns the result.`),
	libutil.FunctionDoc("not", lisp.Formals("value"), builtinNot,
		`Returns true when value is false or nil.`),
	typePredicate("nil?", lisp.LNil),
	typePredicate("list?", lisp.LList),
	typePredicate("map?", lisp.LMap),
	typePredicate("string?", lisp.LString),
	typePredicate("number?", lisp.LNumber),
	typePredicate("symbol?", lisp.LSymbol),
	typePredicate("keyword?", lisp.LKeyword),
	libutil.FunctionDoc("function?", lisp.Formals("value"), builtinIsFunction,
		`Returns true when value can be called.`),
}

func typePredicate(name string, typ lisp.LType) *libutil.Builtin {
	return libutil.FunctionDoc(name, lisp.Formals("value"),
		func(env *lisp.LEnv, args *lisp.LVal) *lisp.LVal {
			return lisp.Bool(args.Cells[0].Type == typ)
		},
		fmt.Sprintf("Returns true when value is a %s.", typ))
}

func builtinType(env *lisp.LEnv, args *lisp.LVal) *lisp.LVal {
	return lisp.String(lisp.GetType(args.Cells[0]))
}

func builtinCons(env *lisp.LEnv, args *lisp.LVal) *lisp.LVal {
	head, tail := args.Cells[0], args.Cells[1]
	if tail.Type != lisp.LList {
		return lisp.List(head, tail)
	}
	cells := make([]*lisp.LVal, 0, len(tail.Cells)+1)
	cells = append(cells, head)
	cells = append(cells, tail.Cells...)
	return lisp.List(cells...)
}

func listArg(env *lisp.LEnv, v *lisp.LVal, fn string, min int) ([]*lisp.LVal, *lisp.LVal) {
	if v.Type != lisp.LList {
		return nil, env.ErrorAssociate(lisp.TypeError(v, "list"))
	}
	if len(v.Cells) < min {
		return nil, env.ErrorConditionf(lisp.CondOutOfRange, "argument to %s must have at least %d elements", fn, min)
	}
	return v.Cells, nil
}

func builtinFst(env *lisp.LEnv, args *lisp.LVal) *lisp.LVal {
	cells, lerr := listArg(env, args.Cells[0], "fst", 1)
	if lerr != nil {
		return lerr
	}
	return cells[0]
}

func builtinSnd(env *lisp.LEnv, args *lisp.LVal) *lisp.LVal {
	cells, lerr := listArg(env, args.Cells[0], "snd", 2)
	if lerr != nil {
		return lerr
	}
	return cells[1]
}

func builtinLast(env *lisp.LEnv, args *lisp.LVal) *lisp.LVal {
	cells, lerr := listArg(env, args.Cells[0], "last", 1)
	if lerr != nil {
		return lerr
	}
	return cells[len(cells)-1]
}

func builtinRest(env *lisp.LEnv, args *lisp.LVal) *lisp.LVal {
	cells, lerr := listArg(env, args.Cells[0], "rest", 0)
	if lerr != nil {
		return lerr
	}
	if len(cells) == 0 {
		return lisp.List()
	}
	rest := make([]*lisp.LVal, len(cells)-1)
	copy(rest, cells[1:])
	return lisp.List(rest...)
}

func builtinList(env *lisp.LEnv, args *lisp.LVal) *lisp.LVal {
	return lisp.List(args.Cells...)
}

func builtinLength(env *lisp.LEnv, args *lisp.LVal) *lisp.LVal {
	v := args.Cells[0]
	switch v.Type {
	case lisp.LList, lisp.LMap, lisp.LRange, lisp.LString:
		return lisp.Int(v.Len())
	}
	return env.ErrorAssociate(lisp.TypeError(v, "sequence"))
}

func builtinEqual(env *lisp.LEnv, args *lisp.LVal) *lisp.LVal {
	return lisp.Bool(lisp.Equal(args.Cells[0], args.Cells[1]))
}

func builtinEq(env *lisp.LEnv, args *lisp.LVal) *lisp.LVal {
	return lisp.Bool(lisp.Identical(args.Cells[0], args.Cells[1]))
}

// lookup implements get and has?.  A nil value with a nil error means the
// key is absent.
func lookup(env *lisp.LEnv, key, obj *lisp.LVal) (*lisp.LVal, *lisp.LVal) {
	switch obj.Type {
	case lisp.LList, lisp.LRange:
		i, lerr := libutil.IntArg(env, key)
		if lerr != nil {
			return nil, lerr
		}
		if obj.Type == lisp.LRange {
			x, ok := obj.Range().At(i)
			if !ok {
				return nil, nil
			}
			return lisp.Number(x), nil
		}
		if i < 0 || i >= len(obj.Cells) {
			return nil, nil
		}
		return obj.Cells[i], nil
	case lisp.LMap:
		v, ok := obj.Map.Get(key)
		if !ok {
			return nil, nil
		}
		return v, nil
	case lisp.LInstance:
		v, ok := obj.Instance().Field(fieldName(key))
		if !ok {
			return nil, nil
		}
		return v, nil
	case lisp.LModule:
		v, ok := obj.Module().Export(fieldName(key))
		if !ok {
			return nil, nil
		}
		return v, nil
	}
	return nil, env.ErrorConditionf(lisp.CondTypeError, "cannot get from %s: %s", lisp.GetType(obj), obj)
}

func fieldName(key *lisp.LVal) string {
	switch key.Type {
	case lisp.LKeyword:
		return strings.TrimPrefix(key.Str, ":")
	case lisp.LString, lisp.LSymbol:
		return key.Str
	}
	return key.String()
}

func builtinGet(env *lisp.LEnv, args *lisp.LVal) *lisp.LVal {
	key, obj := args.Cells[0], args.Cells[1]
	v, lerr := lookup(env, key, obj)
	if lerr != nil {
		return lerr
	}
	if v == nil {
		return env.ErrorConditionf(lisp.CondOutOfRange, "key not found in %s: %s", lisp.GetType(obj), key)
	}
	return v
}

func builtinHas(env *lisp.LEnv, args *lisp.LVal) *lisp.LVal {
	v, lerr := lookup(env, args.Cells[0], args.Cells[1])
	if lerr != nil {
		return lerr
	}
	return lisp.Bool(v != nil)
}

func builtinSet(env *lisp.LEnv, args *lisp.LVal) *lisp.LVal {
	key, val, obj := args.Cells[0], args.Cells[1], args.Cells[2]
	switch obj.Type {
	case lisp.LMap:
		if err := obj.Map.Set(key, val); err != nil {
			return env.ErrorConditionf(lisp.CondTypeError, "%v", err)
		}
		return obj
	case lisp.LList:
		i, lerr := libutil.IntArg(env, key)
		if lerr != nil {
			return lerr
		}
		if i < 0 || i >= len(obj.Cells) {
			return env.ErrorConditionf(lisp.CondOutOfRange, "index out of range: %d", i)
		}
		obj.Cells[i] = val
		return obj
	case lisp.LInstance:
		name := fieldName(key)
		fields := obj.Instance().Fields
		if _, ok := fields[name]; !ok {
			return env.ErrorConditionf(lisp.CondOutOfRange, "%s has no field %s", lisp.GetType(obj), name)
		}
		fields[name] = val
		return obj
	}
	return env.ErrorConditionf(lisp.CondTypeError, "cannot set in %s: %s", lisp.GetType(obj), obj)
}

func mapArg(env *lisp.LEnv, v *lisp.LVal) (*lisp.MapData, *lisp.LVal) {
	if v.Type != lisp.LMap {
		return nil, env.ErrorAssociate(lisp.TypeError(v, "map"))
	}
	return v.Map, nil
}

func builtinKeys(env *lisp.LEnv, args *lisp.LVal) *lisp.LVal {
	m, lerr := mapArg(env, args.Cells[0])
	if lerr != nil {
		return lerr
	}
	return lisp.List(m.Keys()...)
}

func builtinValues(env *lisp.LEnv, args *lisp.LVal) *lisp.LVal {
	m, lerr := mapArg(env, args.Cells[0])
	if lerr != nil {
		return lerr
	}
	vals := make([]*lisp.LVal, 0, m.Len())
	m.Each(func(_, val *lisp.LVal) bool {
		vals = append(vals, val)
		return true
	})
	return lisp.List(vals...)
}

func builtinEntries(env *lisp.LEnv, args *lisp.LVal) *lisp.LVal {
	m, lerr := mapArg(env, args.Cells[0])
	if lerr != nil {
		return lerr
	}
	entries := make([]*lisp.LVal, 0, m.Len())
	m.Each(func(key, val *lisp.LVal) bool {
		entries = append(entries, lisp.List(key, val))
		return true
	})
	return lisp.List(entries...)
}

func builtinRange(env *lisp.LEnv, args *lisp.LVal) *lisp.LVal {
	if len(args.Cells) > 3 {
		return env.ErrorAssociate(lisp.ArityError("base.range", "between 1 and 3 arguments", len(args.Cells)))
	}
	bounds := make([]float64, len(args.Cells))
	for i, v := range args.Cells {
		x, lerr := libutil.NumberArg(env, v)
		if lerr != nil {
			return lerr
		}
		bounds[i] = x
	}
	start, stop, step := 0.0, bounds[0], 1.0
	if len(bounds) > 1 {
		start, stop = bounds[0], bounds[1]
	}
	if len(bounds) > 2 {
		step = bounds[2]
	}
	r, err := lisp.NewRange(start, stop, step)
	if err != nil {
		return env.ErrorConditionf(lisp.CondRuntimeError, "%v", err)
	}
	return r
}

func builtinHash(env *lisp.LEnv, args *lisp.LVal) *lisp.LVal {
	h := fnv.New64a()
	h.Write([]byte(args.Cells[0].String())) //nolint:errcheck // never fails
	return lisp.String(fmt.Sprintf("%016x", h.Sum64()))
}

func builtinAppend(env *lisp.LEnv, args *lisp.LVal) *lisp.LVal {
	cells, lerr := listArg(env, args.Cells[0], "append", 0)
	if lerr != nil {
		return lerr
	}
	out := make([]*lisp.LVal, 0, len(cells)+len(args.Cells)-1)
	out = append(out, cells...)
	out = append(out, args.Cells[1:]...)
	return lisp.List(out...)
}

func builtinMap(env *lisp.LEnv, args *lisp.LVal) *lisp.LVal {
	fn, seq := args.Cells[0], args.Cells[1]
	var out []*lisp.LVal
	lerr := env.Iterate(seq, func(item *lisp.LVal) *lisp.LVal {
		v := env.Call(fn, item)
		if v.Type == lisp.LError {
			return v
		}
		out = append(out, v)
		return nil
	})
	if lerr != nil {
		return lerr
	}
	return lisp.List(out...)
}

func builtinFilter(env *lisp.LEnv, args *lisp.LVal) *lisp.LVal {
	pred, seq := args.Cells[0], args.Cells[1]
	var out []*lisp.LVal
	lerr := env.Iterate(seq, func(item *lisp.LVal) *lisp.LVal {
		v := env.Call(pred, item)
		if v.Type == lisp.LError {
			return v
		}
		if v.IsTruthy() {
			out = append(out, item)
		}
		return nil
	})
	if lerr != nil {
		return lerr
	}
	return lisp.List(out...)
}

func builtinReduce(env *lisp.LEnv, args *lisp.LVal) *lisp.LVal {
	fn, acc, seq := args.Cells[0], args.Cells[1], args.Cells[2]
	lerr := env.Iterate(seq, func(item *lisp.LVal) *lisp.LVal {
		acc = env.Call(fn, acc, item)
		if acc.Type == lisp.LError {
			return acc
		}
		return nil
	})
	if lerr != nil {
		return lerr
	}
	return acc
}

func builtinApply(env *lisp.LEnv, args *lisp.LVal) *lisp.LVal {
	fn := args.Cells[0]
	cells, lerr := env.Sequence(args.Cells[1])
	if lerr != nil {
		return lerr
	}
	return env.Call(fn, cells...)
}

func builtinEval(env *lisp.LEnv, args *lisp.LVal) *lisp.LVal {
	return env.EvalDatum(args.Cells[0])
}

func builtinNot(env *lisp.LEnv, args *lisp.LVal) *lisp.LVal {
	return lisp.Bool(!args.Cells[0].IsTruthy())
}

func builtinIsFunction(env *lisp.LEnv, args *lisp.LVal) *lisp.LVal {
	v := args.Cells[0]
	return lisp.Bool(v.Type == lisp.LFun || v.Type == lisp.LPartial)
}
