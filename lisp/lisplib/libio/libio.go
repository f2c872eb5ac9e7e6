// Copyright © 2024 The ELPS authors

// Package libio provides console input and output through the runtime's
// standard streams.
package libio

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/luthersystems/dan/lisp"
	"github.com/luthersystems/dan/lisp/lisplib/internal/libutil"
)

// DefaultModuleName is the name of the module loaded as builtin:io.
const DefaultModuleName = "io"

// Module returns the native definition of the io module.
func Module() *lisp.NativeModule {
	return libutil.NativeModule(DefaultModuleName,
		"Console input and output.  Output is written to the runtime's Stdout.", builtins)
}

var builtins = []*libutil.Builtin{
	libutil.FunctionDoc("print", lisp.Formals(lisp.VarArgSymbol, "values"), builtinPrint,
		`Writes the display form of values separated by spaces.`),
	libutil.FunctionDoc("println", lisp.Formals(lisp.VarArgSymbol, "values"), builtinPrintln,
		`Like print but ends the output with a newline.`),
	libutil.FunctionDoc("readline", lisp.Formals(), builtinReadline,
		`Reads one line from standard input without its line terminator.
		Returns nil at end of input.`),
	libutil.FunctionDoc("input", lisp.Formals("prompt"), builtinInput,
		`Prints prompt and reads one line like readline.`),
}

func display(args *lisp.LVal) string {
	strs := make([]string, len(args.Cells))
	for i, v := range args.Cells {
		strs[i] = v.Display()
	}
	return strings.Join(strs, " ")
}

func builtinPrint(env *lisp.LEnv, args *lisp.LVal) *lisp.LVal {
	if _, err := io.WriteString(env.Runtime.Stdout, display(args)); err != nil {
		return env.Error(err)
	}
	return lisp.Nil()
}

func builtinPrintln(env *lisp.LEnv, args *lisp.LVal) *lisp.LVal {
	if _, err := fmt.Fprintln(env.Runtime.Stdout, display(args)); err != nil {
		return env.Error(err)
	}
	return lisp.Nil()
}

// readLine reads bytes one at a time so that no input beyond the line is
// consumed from the runtime's reader.
func readLine(r io.Reader) (string, bool, error) {
	var buf strings.Builder
	b := make([]byte, 1)
	for {
		n, err := r.Read(b)
		if n > 0 {
			if b[0] == '\n' {
				return strings.TrimSuffix(buf.String(), "\r"), true, nil
			}
			buf.WriteByte(b[0])
		}
		if errors.Is(err, io.EOF) {
			return buf.String(), buf.Len() > 0, nil
		}
		if err != nil {
			return "", false, err
		}
	}
}

func builtinReadline(env *lisp.LEnv, args *lisp.LVal) *lisp.LVal {
	line, ok, err := readLine(env.Runtime.Stdin)
	if err != nil {
		return env.Error(err)
	}
	if !ok {
		return lisp.Nil()
	}
	return lisp.String(line)
}

func builtinInput(env *lisp.LEnv, args *lisp.LVal) *lisp.LVal {
	if _, err := io.WriteString(env.Runtime.Stdout, args.Cells[0].Display()); err != nil {
		return env.Error(err)
	}
	return builtinReadline(env, lisp.List())
}
