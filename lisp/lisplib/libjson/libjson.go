// Copyright © 2018 The ELPS authors

// Package libjson converts between dan values and JSON text.
//
// Objects load as maps with string keys in document order, arrays as lists
// and null as nil.  Dumping accepts maps whose keys are strings, keywords or
// symbols; keywords are written without their leading colon.
package libjson

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"

	"github.com/luthersystems/dan/lisp"
	"github.com/luthersystems/dan/lisp/lisplib/internal/libutil"
)

// DefaultModuleName is the name of the module loaded as builtin:json.
const DefaultModuleName = "json"

// Module returns the native definition of the json module.
func Module() *lisp.NativeModule {
	return libutil.NativeModule(DefaultModuleName, "JSON serialization of dan values.", builtins)
}

var builtins = []*libutil.Builtin{
	libutil.FunctionDoc("dump-string", lisp.Formals("value"), builtinDumpString,
		`Returns value serialized as compact JSON.  Values with no JSON
		form, such as functions, raise a type-error.`),
	libutil.FunctionDoc("dump-pretty", lisp.Formals("value"), builtinDumpPretty,
		`Like dump-string but indents nested values by two spaces.`),
	libutil.FunctionDoc("load-string", lisp.Formals("text"), builtinLoadString,
		`Parses JSON text and returns the equivalent value.  Malformed
		text raises a runtime-error.`),
	libutil.FunctionDoc("valid?", lisp.Formals("text"), builtinValid,
		`Returns true if text is a single well formed JSON value.`),
}

func builtinDumpString(env *lisp.LEnv, args *lisp.LVal) *lisp.LVal {
	b, err := Dump(args.Cells[0])
	if err != nil {
		return dumpError(env, err)
	}
	return lisp.String(string(b))
}

func builtinDumpPretty(env *lisp.LEnv, args *lisp.LVal) *lisp.LVal {
	b, err := Dump(args.Cells[0])
	if err != nil {
		return dumpError(env, err)
	}
	var buf bytes.Buffer
	if err := json.Indent(&buf, b, "", "  "); err != nil {
		return env.Error(err)
	}
	return lisp.String(buf.String())
}

func builtinLoadString(env *lisp.LEnv, args *lisp.LVal) *lisp.LVal {
	text, lerr := libutil.StringArg(env, args.Cells[0])
	if lerr != nil {
		return lerr
	}
	v, err := Load([]byte(text))
	if err != nil {
		return env.ErrorConditionf(lisp.CondRuntimeError, "invalid json: %v", err)
	}
	return v
}

func builtinValid(env *lisp.LEnv, args *lisp.LVal) *lisp.LVal {
	text, lerr := libutil.StringArg(env, args.Cells[0])
	if lerr != nil {
		return lerr
	}
	return lisp.Bool(json.Valid([]byte(text)))
}

// unsupportedError is returned by Dump for values with no JSON form.
type unsupportedError struct {
	v    *lisp.LVal
	want string
}

func (err *unsupportedError) Error() string {
	return fmt.Sprintf("cannot serialize %s as %s", lisp.GetType(err.v), err.want)
}

func dumpError(env *lisp.LEnv, err error) *lisp.LVal {
	var uerr *unsupportedError
	if errors.As(err, &uerr) {
		return env.ErrorAssociate(lisp.TypeError(uerr.v, uerr.want))
	}
	return env.ErrorConditionf(lisp.CondRuntimeError, "%v", err)
}

// Dump serializes v as compact JSON.
func Dump(v *lisp.LVal) ([]byte, error) {
	var buf bytes.Buffer
	if err := dump(&buf, v); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func dump(buf *bytes.Buffer, v *lisp.LVal) error {
	switch v.Type {
	case lisp.LNil:
		buf.WriteString("null")
	case lisp.LBool:
		buf.WriteString(strconv.FormatBool(v.Bool))
	case lisp.LNumber:
		if math.IsNaN(v.Num) || math.IsInf(v.Num, 0) {
			return fmt.Errorf("cannot serialize %v as json", v.Num)
		}
		buf.WriteString(strconv.FormatFloat(v.Num, 'f', -1, 64))
	case lisp.LString, lisp.LSymbol:
		return dumpString(buf, v.Str)
	case lisp.LKeyword:
		return dumpString(buf, strings.TrimPrefix(v.Str, ":"))
	case lisp.LList:
		buf.WriteByte('[')
		for i, c := range v.Cells {
			if i > 0 {
				buf.WriteByte(',')
			}
			if err := dump(buf, c); err != nil {
				return err
			}
		}
		buf.WriteByte(']')
	case lisp.LMap:
		return dumpMap(buf, v.Map)
	default:
		return &unsupportedError{v: v, want: "json value"}
	}
	return nil
}

func dumpMap(buf *bytes.Buffer, m *lisp.MapData) error {
	var err error
	first := true
	buf.WriteByte('{')
	m.Each(func(key, val *lisp.LVal) bool {
		var name string
		switch key.Type {
		case lisp.LString, lisp.LSymbol:
			name = key.Str
		case lisp.LKeyword:
			name = strings.TrimPrefix(key.Str, ":")
		default:
			err = &unsupportedError{v: key, want: "json object key"}
			return false
		}
		if !first {
			buf.WriteByte(',')
		}
		first = false
		if err = dumpString(buf, name); err != nil {
			return false
		}
		buf.WriteByte(':')
		err = dump(buf, val)
		return err == nil
	})
	if err != nil {
		return err
	}
	buf.WriteByte('}')
	return nil
}

func dumpString(buf *bytes.Buffer, s string) error {
	b, err := json.Marshal(s)
	if err != nil {
		return err
	}
	buf.Write(b)
	return nil
}

// Load parses b as a single JSON value.
func Load(b []byte) (*lisp.LVal, error) {
	dec := json.NewDecoder(bytes.NewReader(b))
	dec.UseNumber()
	v, err := load(dec)
	if err != nil {
		return nil, err
	}
	if _, err := dec.Token(); err != io.EOF {
		return nil, errors.New("unexpected data after top-level value")
	}
	return v, nil
}

func load(dec *json.Decoder) (*lisp.LVal, error) {
	tok, err := dec.Token()
	if err != nil {
		return nil, err
	}
	switch tok := tok.(type) {
	case nil:
		return lisp.Nil(), nil
	case bool:
		return lisp.Bool(tok), nil
	case json.Number:
		x, err := tok.Float64()
		if err != nil {
			return nil, err
		}
		return lisp.Number(x), nil
	case string:
		return lisp.String(tok), nil
	case json.Delim:
		switch tok {
		case '[':
			var cells []*lisp.LVal
			for dec.More() {
				c, err := load(dec)
				if err != nil {
					return nil, err
				}
				cells = append(cells, c)
			}
			if _, err := dec.Token(); err != nil {
				return nil, err
			}
			return lisp.List(cells...), nil
		case '{':
			m := lisp.NewMap(0)
			for dec.More() {
				key, err := dec.Token()
				if err != nil {
					return nil, err
				}
				val, err := load(dec)
				if err != nil {
					return nil, err
				}
				if err := m.Set(lisp.String(key.(string)), val); err != nil {
					return nil, err
				}
			}
			if _, err := dec.Token(); err != nil {
				return nil, err
			}
			return lisp.Map(m), nil
		}
	}
	return nil, fmt.Errorf("unexpected token %v", tok)
}
