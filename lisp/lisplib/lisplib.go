// Copyright © 2018 The ELPS authors

// Package lisplib is used to conveniently load the native module library
// into a dan environment.
package lisplib

import (
	"bytes"
	"fmt"

	"github.com/luthersystems/dan/lisp"
	"github.com/luthersystems/dan/lisp/lisplib/libbase"
	"github.com/luthersystems/dan/lisp/lisplib/libbase64"
	"github.com/luthersystems/dan/lisp/lisplib/liberror"
	"github.com/luthersystems/dan/lisp/lisplib/libglobal"
	"github.com/luthersystems/dan/lisp/lisplib/libhelp"
	"github.com/luthersystems/dan/lisp/lisplib/libio"
	"github.com/luthersystems/dan/lisp/lisplib/libjson"
	"github.com/luthersystems/dan/lisp/lisplib/liblambda"
	"github.com/luthersystems/dan/lisp/lisplib/libmath"
	"github.com/luthersystems/dan/lisp/lisplib/libnumber"
	"github.com/luthersystems/dan/lisp/lisplib/libregexp"
	"github.com/luthersystems/dan/lisp/lisplib/libstring"
	"github.com/luthersystems/dan/lisp/lisplib/libtesting"
	"github.com/luthersystems/dan/lisp/lisplib/libtime"
	"github.com/luthersystems/dan/parser"
)

// GlobalModule is the module opened into every user environment.
const GlobalModule = lisp.NativePrefix + libglobal.DefaultModuleName

// Natives returns a new definition of every module in the library.
func Natives() []*lisp.NativeModule {
	return []*lisp.NativeModule{
		libbase.Module(),
		libbase64.Module(),
		liberror.Module(),
		libglobal.Module(),
		libhelp.Module(),
		libio.Module(),
		libjson.Module(),
		liblambda.Module(),
		libmath.Module(),
		libnumber.Module(),
		libregexp.Module(),
		libstring.Module(),
		libtesting.Module(),
		libtime.Module(),
	}
}

// RegisterNatives makes the library loadable by env's runtime without
// evaluating any module.
func RegisterNatives(env *lisp.LEnv) {
	for _, m := range Natives() {
		env.Runtime.Loader.RegisterNative(m)
	}
}

// LoadLibrary registers the library with env's runtime and opens the global
// module into env.
func LoadLibrary(env *lisp.LEnv) *lisp.LVal {
	RegisterNatives(env)
	mod, lerr := env.Runtime.Loader.Require(env, GlobalModule)
	if lerr != nil {
		return lerr
	}
	env.OpenModule(mod)
	return lisp.Nil()
}

// NewEnv creates a root environment using the default reader, applies
// config, and loads the library.  Later config values override earlier
// ones, so WithReader may replace the default reader.
func NewEnv(config ...lisp.Config) (*lisp.LEnv, error) {
	env := lisp.NewEnv(nil)
	config = append([]lisp.Config{lisp.WithReader(parser.NewReader())}, config...)
	rc := lisp.InitializeUserEnv(env, config...)
	if !rc.IsNil() {
		return nil, fmt.Errorf("initialize-user-env returned non-nil: %v", rc)
	}
	rc = LoadLibrary(env)
	if !rc.IsNil() {
		return nil, fmt.Errorf("load-library returned non-nil: %v", rc)
	}
	return env, nil
}

// NewDocEnv creates a standard environment with the library loaded and
// runtime output discarded, suitable for documentation queries.
func NewDocEnv() (*lisp.LEnv, error) {
	return NewEnv(lisp.WithStderr(&bytes.Buffer{}), lisp.WithStdout(&bytes.Buffer{}))
}
