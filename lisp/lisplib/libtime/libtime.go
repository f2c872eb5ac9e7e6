// Copyright © 2018 The ELPS authors

package libtime

import (
	"math"
	"time"

	"github.com/luthersystems/dan/lisp"
	"github.com/luthersystems/dan/lisp/lisplib/internal/libutil"
)

// DefaultModuleName is the name of the module loaded as builtin:time.
const DefaultModuleName = "time"

// Module returns the native definition of the time module.
func Module() *lisp.NativeModule {
	return libutil.NativeModule(DefaultModuleName,
		"Wall clock timestamps.  Durations are numbers of seconds.", builtins)
}

// Time creates an LVal representing the time t.
func Time(t time.Time) *lisp.LVal {
	return lisp.Native(t)
}

// Get returns the time.Time held by v.
func Get(v *lisp.LVal) (time.Time, bool) {
	if v.Type != lisp.LNative {
		return time.Time{}, false
	}
	t, ok := v.Native.(time.Time)
	return t, ok
}

var builtins = []*libutil.Builtin{
	libutil.FunctionDoc("time?", lisp.Formals("value"), builtinIsTime,
		`Returns true if value is a timestamp.`),
	libutil.FunctionDoc("utc-now", lisp.Formals(), builtinUTCNow,
		`Returns the current time in UTC.`),
	libutil.FunctionDoc("parse-rfc3339", lisp.Formals("timestamp"), builtinParseRFC3339,
		`Parses an RFC3339 timestamp string, with optional fractional
		seconds.  Malformed input raises a runtime-error.`),
	libutil.FunctionDoc("format-rfc3339", lisp.Formals("time"), builtinFormatRFC3339,
		`Formats time as an RFC3339 string with nanosecond precision
		when the time has a fractional second.`),
	libutil.FunctionDoc("unix", lisp.Formals("time"), builtinUnix,
		`Returns time as seconds since the unix epoch.`),
	libutil.FunctionDoc("from-unix", lisp.Formals("seconds"), builtinFromUnix,
		`Returns the UTC time seconds after the unix epoch.`),
	libutil.FunctionDoc("add", lisp.Formals("time", "seconds"), builtinAdd,
		`Returns time offset by a number of seconds, which may be negative.`),
	libutil.FunctionDoc("diff", lisp.Formals("start", "end"), builtinDiff,
		`Returns the number of seconds from start to end.`),
	libutil.Function("before?", lisp.Formals("a", "b"), compare(time.Time.Before)),
	libutil.Function("after?", lisp.Formals("a", "b"), compare(time.Time.After)),
}

func timeArg(env *lisp.LEnv, v *lisp.LVal) (time.Time, *lisp.LVal) {
	t, ok := Get(v)
	if !ok {
		return time.Time{}, env.ErrorAssociate(lisp.TypeError(v, "time"))
	}
	return t, nil
}

func seconds(d time.Duration) *lisp.LVal {
	return lisp.Number(d.Seconds())
}

func duration(s float64) time.Duration {
	return time.Duration(math.Round(s * float64(time.Second)))
}

func builtinIsTime(env *lisp.LEnv, args *lisp.LVal) *lisp.LVal {
	_, ok := Get(args.Cells[0])
	return lisp.Bool(ok)
}

func builtinUTCNow(env *lisp.LEnv, args *lisp.LVal) *lisp.LVal {
	return Time(time.Now().UTC())
}

func builtinParseRFC3339(env *lisp.LEnv, args *lisp.LVal) *lisp.LVal {
	s, lerr := libutil.StringArg(env, args.Cells[0])
	if lerr != nil {
		return lerr
	}
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return env.ErrorConditionf(lisp.CondRuntimeError, "invalid timestamp: %v", err)
	}
	return Time(t)
}

func builtinFormatRFC3339(env *lisp.LEnv, args *lisp.LVal) *lisp.LVal {
	t, lerr := timeArg(env, args.Cells[0])
	if lerr != nil {
		return lerr
	}
	return lisp.String(t.Format(time.RFC3339Nano))
}

func builtinUnix(env *lisp.LEnv, args *lisp.LVal) *lisp.LVal {
	t, lerr := timeArg(env, args.Cells[0])
	if lerr != nil {
		return lerr
	}
	return lisp.Number(float64(t.Unix()) + float64(t.Nanosecond())/float64(time.Second))
}

func builtinFromUnix(env *lisp.LEnv, args *lisp.LVal) *lisp.LVal {
	s, lerr := libutil.NumberArg(env, args.Cells[0])
	if lerr != nil {
		return lerr
	}
	return Time(time.Unix(0, 0).UTC().Add(duration(s)))
}

func builtinAdd(env *lisp.LEnv, args *lisp.LVal) *lisp.LVal {
	t, lerr := timeArg(env, args.Cells[0])
	if lerr != nil {
		return lerr
	}
	s, lerr := libutil.NumberArg(env, args.Cells[1])
	if lerr != nil {
		return lerr
	}
	return Time(t.Add(duration(s)))
}

func builtinDiff(env *lisp.LEnv, args *lisp.LVal) *lisp.LVal {
	start, lerr := timeArg(env, args.Cells[0])
	if lerr != nil {
		return lerr
	}
	end, lerr := timeArg(env, args.Cells[1])
	if lerr != nil {
		return lerr
	}
	return seconds(end.Sub(start))
}

func compare(fn func(a, b time.Time) bool) lisp.LBuiltin {
	return func(env *lisp.LEnv, args *lisp.LVal) *lisp.LVal {
		a, lerr := timeArg(env, args.Cells[0])
		if lerr != nil {
			return lerr
		}
		b, lerr := timeArg(env, args.Cells[1])
		if lerr != nil {
			return lerr
		}
		return lisp.Bool(fn(a, b))
	}
}
