// Copyright © 2024 The ELPS authors

package cmd

import (
	"fmt"
	"io"

	"github.com/luthersystems/dan/diagnostic"
	"github.com/luthersystems/dan/lisp"
	"github.com/luthersystems/dan/lisp/lisplib"
	"github.com/luthersystems/dan/parser"
	"github.com/spf13/viper"
)

// Option configures an exported command factory (DocCommand, RunCommand).
type Option func(*cmdConfig)

type cmdConfig struct {
	env     *lisp.LEnv
	natives []*lisp.NativeModule
}

// WithEnv injects a fully configured LEnv.  For the doc command this is the
// environment used for documentation queries.  For the run command programs
// are evaluated in it.
func WithEnv(env *lisp.LEnv) Option {
	return func(c *cmdConfig) { c.env = env }
}

// WithNatives registers additional native modules in every environment the
// command creates, so embedders can expose Go functions to dan programs.
func WithNatives(natives ...*lisp.NativeModule) Option {
	return func(c *cmdConfig) { c.natives = append(c.natives, natives...) }
}

func newCmdConfig(opts []Option) *cmdConfig {
	var cfg cmdConfig
	for _, o := range opts {
		o(&cfg)
	}
	return &cfg
}

// allNatives returns the library modules followed by the embedder's.
func (c *cmdConfig) allNatives() []*lisp.NativeModule {
	return append(lisplib.Natives(), c.natives...)
}

// newEnv returns the injected environment or a new one configured from
// viper.  Program output goes to stdout and diagnostics to stderr.
func (c *cmdConfig) newEnv(stdout, stderr io.Writer, extra ...lisp.Config) (*lisp.LEnv, error) {
	if c.env != nil {
		return c.env, nil
	}
	config, err := envConfig(stdout, stderr)
	if err != nil {
		return nil, err
	}
	config = append(config, extra...)
	config = append(config, func(env *lisp.LEnv) *lisp.LVal {
		for _, m := range c.natives {
			env.Runtime.Loader.RegisterNative(m)
		}
		return lisp.Nil()
	})
	return lisplib.NewEnv(config...)
}

// envConfig translates the configuration keys to environment options.
func envConfig(stdout, stderr io.Writer) ([]lisp.Config, error) {
	reader, err := parser.NewReaderKind(viper.GetString(keyReader))
	if err != nil {
		return nil, err
	}
	config := []lisp.Config{
		lisp.WithReader(reader),
		lisp.WithResolver(&lisp.DirResolver{Paths: viper.GetStringSlice(keyPath)}),
		lisp.WithStdout(stdout),
		lisp.WithStderr(stderr),
	}
	if n := viper.GetInt(keyStackHeight); n > 0 {
		config = append(config, lisp.WithMaximumStackHeight(n))
	} else if n < 0 {
		return nil, fmt.Errorf("invalid %s: %d", keyStackHeight, n)
	}
	return config, nil
}

func newRenderer() (*diagnostic.Renderer, error) {
	mode, err := diagnostic.ParseColorMode(viper.GetString(keyColor))
	if err != nil {
		return nil, err
	}
	return &diagnostic.Renderer{Color: mode}, nil
}
