// Copyright © 2018 The ELPS authors

// Package repl implements an interactive read-eval-print loop for dan.
package repl

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/ergochat/readline"
	"github.com/luthersystems/dan/diagnostic"
	"github.com/luthersystems/dan/lisp"
	"github.com/luthersystems/dan/lisp/lisplib"
	"github.com/luthersystems/dan/parser/rdparser"
)

type config struct {
	stdin       io.ReadCloser
	stderr      io.WriteCloser
	historyFile string
	noHistory   bool
	paths       []string
	envConfig   []lisp.Config
	natives     []*lisp.NativeModule
	color       diagnostic.ColorMode
}

func newConfig(opts ...Option) *config {
	config := &config{}
	for _, opt := range opts {
		opt(config)
	}
	return config
}

// Option configures a REPL.
type Option func(*config)

// WithStdin allows overriding the input to the REPL.
func WithStdin(stdin io.ReadCloser) Option {
	return func(c *config) {
		c.stdin = stdin
	}
}

// WithStderr allows overriding the output to the REPL.
func WithStderr(stderr io.WriteCloser) Option {
	return func(c *config) {
		c.stderr = stderr
	}
}

// WithHistoryFile sets the file input history is saved to.  An empty path
// disables history.
func WithHistoryFile(path string) Option {
	return func(c *config) {
		c.historyFile = path
		c.noHistory = path == ""
	}
}

// WithModulePaths sets the directories searched for modules imported from
// the REPL.
func WithModulePaths(paths ...string) Option {
	return func(c *config) {
		c.paths = paths
	}
}

// WithConfig adds cfg to the environment created by RunRepl.
func WithConfig(cfg ...lisp.Config) Option {
	return func(c *config) {
		c.envConfig = append(c.envConfig, cfg...)
	}
}

// WithNatives registers additional native modules in the environment
// created by RunRepl.
func WithNatives(natives ...*lisp.NativeModule) Option {
	return func(c *config) {
		c.natives = append(c.natives, natives...)
	}
}

// WithColor sets the color mode used to render errors.
func WithColor(mode diagnostic.ColorMode) Option {
	return func(c *config) {
		c.color = mode
	}
}

// RunRepl runs a repl in a new environment with the native library loaded.
func RunRepl(prompt string, opts ...Option) error {
	cfg := newConfig(opts...)
	envOpts := []lisp.Config{
		lisp.WithResolver(&lisp.DirResolver{Paths: cfg.paths}),
	}
	if cfg.stderr != nil {
		envOpts = append(envOpts, lisp.WithStderr(cfg.stderr), lisp.WithStdout(cfg.stderr))
	}
	envOpts = append(envOpts, cfg.envConfig...)
	if len(cfg.natives) > 0 {
		envOpts = append(envOpts, func(env *lisp.LEnv) *lisp.LVal {
			for _, m := range cfg.natives {
				env.Runtime.Loader.RegisterNative(m)
			}
			return lisp.Nil()
		})
	}
	env, err := lisplib.NewEnv(envOpts...)
	if err != nil {
		return fmt.Errorf("language initialization failure: %w", err)
	}
	return RunEnv(env, prompt, strings.Repeat(" ", len(prompt)), opts...)
}

// RunEnv runs a repl with env as a root environment.  Lines starting with a
// period are REPL commands:
//
//	.load FILE   evaluate the file at FILE
//	.exit        quit
//	.help        list commands
//
// Input is buffered until it forms complete expressions.
func RunEnv(env *lisp.LEnv, prompt, cont string, opts ...Option) error {
	if env.Parent != nil {
		return errors.New("repl environment is not a root environment")
	}
	cfg := newConfig(opts...)
	if cfg.stderr != nil {
		env.Runtime.Stderr = cfg.stderr
	}

	p := rdparser.NewInteractive("stdin")
	p.SetPrompts(prompt, cont)

	rlCfg := &readline.Config{
		Stdout:            env.Runtime.Stderr,
		Stderr:            env.Runtime.Stderr,
		Prompt:            p.Prompt(),
		HistorySearchFold: true,
		AutoComplete:      &symbolCompleter{env: env},
	}
	if !cfg.noHistory {
		rlCfg.HistoryFile = cfg.historyFile
		if rlCfg.HistoryFile == "" {
			rlCfg.HistoryFile = historyPath()
		}
		ensureHistoryFilePermissions(rlCfg.HistoryFile)
	}
	if cfg.stdin != nil {
		rlCfg.Stdin = cfg.stdin
	}
	rl, err := readline.NewFromConfig(rlCfg)
	if err != nil {
		return fmt.Errorf("readline: %w", err)
	}
	defer rl.Close() //nolint:errcheck // best-effort cleanup

	r := &repl{
		env:      env,
		out:      env.Runtime.Stderr,
		p:        p,
		renderer: &diagnostic.Renderer{Color: cfg.color},
	}
	for {
		rl.SetPrompt(p.Prompt())
		line, err := rl.ReadLine()
		if errors.Is(err, readline.ErrInterrupt) {
			p.Reset()
			continue
		}
		if err != nil {
			if errors.Is(err, io.EOF) {
				return nil
			}
			return err
		}
		if !r.handle(line) {
			return nil
		}
	}
}

type repl struct {
	env      *lisp.LEnv
	out      io.Writer
	p        *rdparser.Interactive
	renderer *diagnostic.Renderer
}

// handle processes one line of input and reports whether the loop should
// continue.
func (r *repl) handle(line string) bool {
	trimmed := strings.TrimSpace(line)
	if !r.p.IsParsing() {
		if trimmed == "" {
			return true
		}
		if strings.HasPrefix(trimmed, ".") {
			return r.command(trimmed)
		}
	}
	prog, err := r.p.Feed(line)
	if err != nil {
		r.renderError(r.env.Error(err))
		return true
	}
	if prog == nil {
		return true
	}
	for _, form := range prog.Forms {
		v := r.env.Eval(form)
		if v.Type == lisp.LError {
			r.renderError(v)
			break
		}
		fmt.Fprintln(r.out, v) //nolint:errcheck // best-effort REPL output
	}
	return true
}

func (r *repl) command(line string) bool {
	cmd, arg, _ := strings.Cut(line, " ")
	arg = strings.TrimSpace(arg)
	switch cmd {
	case ".exit", ".quit":
		return false
	case ".load":
		if arg == "" {
			fmt.Fprintln(r.out, "usage: .load FILE") //nolint:errcheck
			return true
		}
		v := r.env.LoadFile(arg)
		if v.Type == lisp.LError {
			r.renderError(v)
			return true
		}
		fmt.Fprintln(r.out, v) //nolint:errcheck
	case ".help":
		fmt.Fprint(r.out, commandHelp) //nolint:errcheck
	default:
		fmt.Fprintf(r.out, "unknown command %s (try .help)\n", cmd) //nolint:errcheck
	}
	return true
}

const commandHelp = `.load FILE   evaluate FILE in the current environment
.exit        leave the repl
.help        show this message
`

func historyPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".dan_history")
}

// ensureHistoryFilePermissions creates path if needed and restricts it to
// the current user.
func ensureHistoryFilePermissions(path string) {
	if path == "" {
		return
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_RDONLY, 0600) //#nosec G304
	if err != nil {
		return
	}
	f.Close()            //nolint:errcheck,gosec
	os.Chmod(path, 0600) //nolint:errcheck,gosec
}
