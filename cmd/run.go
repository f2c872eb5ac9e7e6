// Copyright © 2018 The ELPS authors

package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"runtime/pprof"

	"github.com/luthersystems/dan/diagnostic"
	"github.com/luthersystems/dan/lisp"
	"github.com/luthersystems/dan/lisp/x/profiler"
	"github.com/spf13/cobra"
)

// RunCommand creates the "run" cobra command.
func RunCommand(opts ...Option) *cobra.Command {
	cfg := newCmdConfig(opts)

	var r runner
	cmd := &cobra.Command{
		Use:   "run [flags] FILE...",
		Short: "Run dan code",
		Long: `Run dan code supplied in files or, with -e, on the command line.

Each argument is evaluated in order in one environment, so later files see
the definitions of earlier ones.  Errors are rendered with the source line
that caused them and the call stack, and the command exits with status 1.

Examples:
  dan run main.dan
  dan run -e '(define (sq x) (* x x))' -e '(sq 7)' -p
  dan run --callgrind=main.callgrind main.dan`,
		Args:          cobra.MinimumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			r.stdout = cmd.OutOrStdout()
			r.stderr = cmd.ErrOrStderr()
			return r.run(cfg, args)
		},
	}
	cmd.Flags().BoolVarP(&r.expression, "expression", "e", false,
		"Interpret arguments as dan expressions")
	cmd.Flags().BoolVarP(&r.print, "print", "p", false,
		"Print the value of each top-level form to stdout")
	cmd.Flags().StringVar(&r.callgrind, "callgrind", "",
		"Write a callgrind profile of the run to this file")
	cmd.Flags().StringVar(&r.cpuprofile, "cpuprofile", "",
		"Write a pprof CPU profile, labeled with dan functions, to this file")
	return cmd
}

type runner struct {
	expression bool
	print      bool
	callgrind  string
	cpuprofile string
	stdout     io.Writer
	stderr     io.Writer
}

// source is one unit of input to run.
type source struct {
	name string
	text string
	// file is true when name is a path on disk.
	file bool
}

func (r *runner) run(cfg *cmdConfig, args []string) error {
	renderer, err := newRenderer()
	if err != nil {
		return err
	}
	srcs, err := r.readSources(args)
	if err != nil {
		return err
	}
	renderer.SourceReader = sourceReader(srcs)

	env, err := cfg.newEnv(r.stdout, r.stderr)
	if err != nil {
		return err
	}
	stop, err := r.startProfiling(env.Runtime)
	if err != nil {
		return err
	}
	defer stop()

	for _, src := range srcs {
		if lerr := r.eval(env, src); lerr != nil {
			_ = renderer.Render(r.stderr, diagnostic.FromLisp(lerr))
			return errReported
		}
	}
	return nil
}

func (r *runner) readSources(args []string) ([]source, error) {
	srcs := make([]source, len(args))
	if r.expression {
		for i := range args {
			srcs[i] = source{name: fmt.Sprintf("<expr %d>", i+1), text: args[i]}
		}
		return srcs, nil
	}
	for i, path := range args {
		b, err := os.ReadFile(path) //#nosec G304
		if err != nil {
			return nil, err
		}
		srcs[i] = source{name: path, text: string(b), file: true}
	}
	return srcs, nil
}

// eval evaluates src in env and returns an error value on failure.
func (r *runner) eval(env *lisp.LEnv, src source) *lisp.LVal {
	if src.file && !r.print {
		if v := env.LoadFile(src.name); v.Type == lisp.LError {
			return v
		}
		return nil
	}
	prog, lerr := env.Read(src.name, src.text)
	if lerr != nil {
		return lerr
	}
	for _, form := range prog.Forms {
		v := env.Eval(form)
		if v.Type == lisp.LError {
			return v
		}
		if r.print {
			fmt.Fprintln(r.stdout, v) //nolint:errcheck // best-effort output
		}
	}
	return nil
}

// startProfiling attaches the requested profilers to rt.  The returned
// function completes them.
func (r *runner) startProfiling(rt *lisp.Runtime) (func(), error) {
	switch {
	case r.callgrind != "":
		p := profiler.NewCallgrindProfiler(rt)
		if err := p.SetFile(r.callgrind); err != nil {
			return nil, err
		}
		if err := p.Enable(); err != nil {
			return nil, err
		}
		return func() {
			if err := p.Complete(); err != nil {
				fmt.Fprintln(r.stderr, "callgrind:", err) //nolint:errcheck
			}
		}, nil
	case r.cpuprofile != "":
		f, err := os.Create(r.cpuprofile) //#nosec G304
		if err != nil {
			return nil, err
		}
		if err := pprof.StartCPUProfile(f); err != nil {
			f.Close() //nolint:errcheck
			return nil, err
		}
		p := profiler.NewPprofAnnotator(rt, context.Background())
		if err := p.Enable(); err != nil {
			pprof.StopCPUProfile()
			f.Close() //nolint:errcheck
			return nil, err
		}
		return func() {
			_ = p.Complete()
			pprof.StopCPUProfile()
			f.Close() //nolint:errcheck
		}, nil
	}
	return func() {}, nil
}

// sourceReader reads expression text from memory and files from disk.
func sourceReader(srcs []source) func(string) ([]byte, error) {
	mem := make(map[string]string)
	for _, src := range srcs {
		if !src.file {
			mem[src.name] = src.text
		}
	}
	return func(name string) ([]byte, error) {
		if text, ok := mem[name]; ok {
			return []byte(text), nil
		}
		return os.ReadFile(name) //#nosec G304
	}
}
