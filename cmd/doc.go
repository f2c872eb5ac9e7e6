// Copyright © 2021 The ELPS authors

package cmd

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
	"strings"

	"github.com/luthersystems/dan/lisp"
	"github.com/luthersystems/dan/lisp/lisplib/libhelp"
	"github.com/spf13/cobra"
)

// DocCommand creates the "doc" cobra command with optional embedder
// configuration.  WithEnv makes queries run against the embedder's
// environment and WithNatives adds the embedder's native modules.
func DocCommand(opts ...Option) *cobra.Command {
	cfg := newCmdConfig(opts)
	var q docQuery
	cmd := &cobra.Command{
		Use:   "doc [flags] [NAME]",
		Short: "Show dan documentation for functions, modules, and special forms",
		Long: `Show built-in documentation for dan functions, special forms, and native
modules.

With no arguments, lists the native modules.  A NAME is looked up in the
global environment; NAME may also be a special form or MODULE.EXPORT.  Use
-m to document a module, or a single export of it.  Use -f to load a
source file first (useful for documenting your own code).

Examples:
  dan doc                       List native modules
  dan doc map                   Show docs for the map function
  dan doc define                Show docs for the define special form
  dan doc -m string             List every export of the string module
  dan doc -m string upper       Show docs for one export
  dan doc string.upper          Same as above
  dan doc --forms               List every special form
  dan doc -f shapes.dan area    Load a file, then show docs for area`,
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 1 {
				q.name = args[0]
			}
			return q.exec(cfg, cmd.OutOrStdout(), cmd.ErrOrStderr())
		},
	}
	cmd.Flags().StringVarP(&q.module, "module", "m", "",
		"Document the named module, or only NAME within it.")
	cmd.Flags().StringVarP(&q.sourceFile, "source-file", "f", "",
		"Evaluate a dan source file before querying documentation.")
	cmd.Flags().BoolVar(&q.forms, "forms", false,
		"List the special forms of the language.")
	return cmd
}

type docQuery struct {
	module     string
	name       string
	sourceFile string
	forms      bool
}

func (q *docQuery) exec(cfg *cmdConfig, stdout, stderr io.Writer) error {
	out := bufio.NewWriter(stdout)
	defer out.Flush() //nolint:errcheck // best-effort flush on exit

	if q.forms {
		return libhelp.RenderSpecialForms(out)
	}
	if q.module == "" && q.name == "" && q.sourceFile == "" {
		return libhelp.RenderNatives(out, cfg.allNatives())
	}

	// environment output is typically discarded but a buffer is maintained in
	// case of an error during initialization (important when loading user
	// source files).
	errbuf := &bytes.Buffer{}
	env, err := cfg.newEnv(errbuf, errbuf)
	if err != nil {
		_, _ = stderr.Write(errbuf.Bytes())
		return err
	}
	if q.sourceFile != "" {
		if v := env.LoadFile(q.sourceFile); v.Type == lisp.LError {
			_, _ = stderr.Write(errbuf.Bytes())
			return (*lisp.ErrorVal)(v)
		}
	}
	switch {
	case q.module != "":
		return renderModuleDoc(out, env, q.module, q.name)
	case q.name == "":
		return libhelp.RenderNatives(out, cfg.allNatives())
	}
	for _, form := range lisp.SpecialForms() {
		if form.Name == q.name {
			return libhelp.RenderSpecialForm(out, form)
		}
	}
	v := env.GetName(q.name)
	if v.Type != lisp.LError {
		return libhelp.RenderValue(out, q.name, v)
	}
	if module, export, ok := strings.Cut(q.name, "."); ok && module != "" && export != "" {
		return renderModuleDoc(out, env, module, export)
	}
	return (*lisp.ErrorVal)(v)
}

// renderModuleDoc documents module, or only its export name when name is
// not empty.
func renderModuleDoc(w io.Writer, env *lisp.LEnv, module, name string) error {
	mod, err := requireModule(env, module)
	if err != nil {
		return err
	}
	if name == "" {
		return libhelp.RenderModule(w, mod)
	}
	v, ok := mod.Export(name)
	if !ok {
		return fmt.Errorf("module %s does not export %s", mod.Name, name)
	}
	return libhelp.RenderValue(w, name, v)
}

// requireModule loads module, preferring a native module of that name over
// a source file.
func requireModule(env *lisp.LEnv, module string) (*lisp.Module, error) {
	id := module
	if !strings.HasPrefix(module, lisp.NativePrefix) {
		for _, m := range env.Runtime.Loader.Natives() {
			if m.Name == module {
				id = m.ID()
				break
			}
		}
	}
	mod, lerr := env.Runtime.Loader.Require(env, id)
	if lerr != nil {
		ev := (*lisp.ErrorVal)(lerr)
		if ev.Condition() == lisp.CondUnresolvedModule {
			return nil, fmt.Errorf("unknown module: %s", module)
		}
		return nil, ev
	}
	return mod, nil
}
