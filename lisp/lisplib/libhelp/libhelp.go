// Copyright © 2021 The ELPS authors

package libhelp

import (
	"fmt"
	"io"
	"strings"

	"github.com/luthersystems/dan/lisp"
	"github.com/luthersystems/dan/lisp/lisplib/internal/libutil"
	"github.com/muesli/reflow/indent"
	"github.com/muesli/reflow/wordwrap"
)

// DefaultModuleName is the name of the module loaded as builtin:help.
const DefaultModuleName = "help"

// Module returns the native definition of the help module.
func Module() *lisp.NativeModule {
	return libutil.NativeModule(DefaultModuleName,
		"Interactive documentation: inspect functions, classes, and module exports.", builtins)
}

var builtins = []*libutil.Builtin{
	libutil.FunctionDoc("help", lisp.Formals("value"), builtinHelp,
		`
		Prints documentation for value.  Functions have their signature and
		any docstring rendered.  Modules list their exports.  Other values
		have their types and current values printed.
		`),
	libutil.FunctionDoc("doc", lisp.Formals("value"), builtinDoc,
		`
		Returns the docstring of a function or module, or the empty string.
		`),
}

func builtinHelp(env *lisp.LEnv, args *lisp.LVal) *lisp.LVal {
	v := args.Cells[0]
	var err error
	if v.Type == lisp.LModule {
		err = RenderModule(env.Runtime.Stderr, v.Module())
	} else {
		err = RenderValue(env.Runtime.Stderr, "", v)
	}
	if err != nil {
		return env.Error(err)
	}
	return lisp.Nil()
}

func builtinDoc(env *lisp.LEnv, args *lisp.LVal) *lisp.LVal {
	return lisp.String(strings.TrimSpace(dedentDoc(Docstring(args.Cells[0]))))
}

// Docstring returns the raw documentation attached to v.
func Docstring(v *lisp.LVal) string {
	switch v.Type {
	case lisp.LFun:
		return v.Fun().Doc
	case lisp.LPartial:
		return v.Partial().Fun.Fun().Doc
	case lisp.LModule:
		return v.Module().Doc
	}
	return ""
}

// RenderModule writes to w formatted documentation for every export of mod.
// The exact formatting of the rendered documentation is subject to change.
func RenderModule(w io.Writer, mod *lisp.Module) error {
	_, err := fmt.Fprintf(w, "module %s\n", mod.Name)
	if err != nil {
		return err
	}
	if mod.Doc != "" {
		if _, err := fmt.Fprintln(w, CleanDoc(mod.Doc)); err != nil {
			return err
		}
	}
	for _, name := range mod.Exports() {
		if _, err := fmt.Fprintln(w); err != nil {
			return err
		}
		v, _ := mod.Export(name)
		if err := RenderValue(w, name, v); err != nil {
			return fmt.Errorf("export %s: %w", name, err)
		}
	}
	return nil
}

// RenderNatives writes a summary of the native modules to w.  Each module
// is listed with its name and the first line of its doc string.
func RenderNatives(w io.Writer, natives []*lisp.NativeModule) error {
	for _, m := range natives {
		line := fmt.Sprintf("  %-12s", m.Name)
		if m.Doc != "" {
			first := strings.SplitN(strings.TrimSpace(m.Doc), "\n", 2)[0]
			line += "  " + strings.TrimSpace(first)
		}
		if _, err := fmt.Fprintln(w, line); err != nil {
			return err
		}
	}
	return nil
}

// RenderSpecialForms writes the usage and documentation of each special form
// to w.
func RenderSpecialForms(w io.Writer) error {
	for i, form := range lisp.SpecialForms() {
		if i > 0 {
			if _, err := fmt.Fprintln(w); err != nil {
				return err
			}
		}
		if err := RenderSpecialForm(w, form); err != nil {
			return err
		}
	}
	return nil
}

// RenderSpecialForm writes the usage and documentation of form to w.
func RenderSpecialForm(w io.Writer, form lisp.FormDoc) error {
	if _, err := fmt.Fprintf(w, "special form %s\n", form.Usage); err != nil {
		return err
	}
	if doc := CleanDoc(form.Doc); doc != "" {
		if _, err := fmt.Fprintln(w, doc); err != nil {
			return err
		}
	}
	return nil
}

// RenderValue writes to w formatted documentation for v.  When name is empty
// the name of a function value is used.
func RenderValue(w io.Writer, name string, v *lisp.LVal) error {
	switch v.Type {
	case lisp.LFun:
		return renderFun(w, name, v.Fun())
	case lisp.LPartial:
		p := v.Partial()
		_, err := fmt.Fprintf(w, "partial %v with %d more arguments\n", p.Fun, p.Remaining())
		if err != nil {
			return err
		}
		return renderFun(w, name, p.Fun.Fun())
	case lisp.LClass:
		return renderClass(w, v.Class())
	}
	if name == "" {
		_, err := fmt.Fprintf(w, "%s %v\n", lisp.GetType(v), v)
		return err
	}
	_, err := fmt.Fprintf(w, "%s %s %v\n", lisp.GetType(v), name, v)
	return err
}

func renderFun(w io.Writer, name string, f *lisp.LFunData) error {
	if name == "" {
		name = f.QualifiedName()
	}
	kind := "function"
	if f.Macro {
		kind = "macro"
	} else if f.Class != nil {
		kind = "method"
	}
	params := strings.Trim(f.Signature(), "[]")
	sig := "(" + name
	if params != "" {
		sig += " " + params
	}
	sig += ")"
	if _, err := fmt.Fprintf(w, "%s %s\n", kind, sig); err != nil {
		return fmt.Errorf("rendering signature: %w", err)
	}
	if doc := CleanDoc(f.Doc); doc != "" {
		_, err := fmt.Fprintln(w, doc)
		return err
	}
	return nil
}

func renderClass(w io.Writer, c *lisp.ClassDef) error {
	_, err := fmt.Fprintf(w, "class %s (%s)\n", c.Name, strings.Join(c.AllFields(), " "))
	return err
}

// CleanDoc dedents doc and reflows it to 72 columns indented by two spaces.
func CleanDoc(doc string) string {
	if doc == "" {
		return ""
	}
	if doc[0] == '\n' {
		doc = doc[1:]
	}
	doc = strings.TrimRight(dedentDoc(doc), " \n")
	doc = indent.String(wordwrap.String(doc, 72), 2)
	doc = strings.TrimSuffix(doc, "\n")
	return doc
}

// dedentDoc removes common leading whitespace from all non-empty lines.
// The first line of a raw string literal often has no indentation while
// continuation lines inherit the source's tab indentation, so the first
// line does not count toward the common prefix.  Tabs are normalized to
// spaces before processing.
func dedentDoc(s string) string {
	s = strings.ReplaceAll(s, "\t", "    ")
	lines := strings.Split(s, "\n")

	minWS := -1
	start := 0
	if len(lines) > 1 {
		start = 1
	}
	for _, line := range lines[start:] {
		trimmed := strings.TrimLeft(line, " ")
		if trimmed == "" {
			continue
		}
		ws := len(line) - len(trimmed)
		if minWS < 0 || ws < minWS {
			minWS = ws
		}
	}
	if minWS <= 0 {
		return strings.TrimLeft(lines[0], " ") + "\n" + strings.Join(lines[1:], "\n")
	}

	lines[0] = strings.TrimLeft(lines[0], " ")
	for i := 1; i < len(lines); i++ {
		if strings.TrimSpace(lines[i]) == "" {
			lines[i] = ""
		} else if len(lines[i]) >= minWS {
			lines[i] = lines[i][minWS:]
		}
	}
	return strings.Join(lines, "\n")
}
