// Copyright © 2018 The ELPS authors

package libbase64

import (
	"encoding/base64"

	"github.com/luthersystems/dan/lisp"
	"github.com/luthersystems/dan/lisp/lisplib/internal/libutil"
)

// DefaultModuleName is the name of the module loaded as builtin:base64.
const DefaultModuleName = "base64"

// Module returns the native definition of the base64 module.
func Module() *lisp.NativeModule {
	return libutil.NativeModule(DefaultModuleName, "Base64 encoding of strings.", builtins)
}

var builtins = []*libutil.Builtin{
	libutil.FunctionDoc("encode", lisp.Formals("str"), encoder(base64.StdEncoding),
		`Returns the standard base64 encoding of str.`),
	libutil.FunctionDoc("decode", lisp.Formals("str"), decoder(base64.StdEncoding),
		`Decodes standard base64 text.  Invalid input raises a
		runtime-error.`),
	libutil.FunctionDoc("url-encode", lisp.Formals("str"), encoder(base64.URLEncoding),
		`Returns the URL and file name safe base64 encoding of str.`),
	libutil.Function("url-decode", lisp.Formals("str"), decoder(base64.URLEncoding)),
}

func encoder(enc *base64.Encoding) lisp.LBuiltin {
	return func(env *lisp.LEnv, args *lisp.LVal) *lisp.LVal {
		str, lerr := libutil.StringArg(env, args.Cells[0])
		if lerr != nil {
			return lerr
		}
		return lisp.String(enc.EncodeToString([]byte(str)))
	}
}

func decoder(enc *base64.Encoding) lisp.LBuiltin {
	return func(env *lisp.LEnv, args *lisp.LVal) *lisp.LVal {
		str, lerr := libutil.StringArg(env, args.Cells[0])
		if lerr != nil {
			return lerr
		}
		b, err := enc.DecodeString(str)
		if err != nil {
			return env.ErrorConditionf(lisp.CondRuntimeError, "invalid base64: %v", err)
		}
		return lisp.String(string(b))
	}
}
