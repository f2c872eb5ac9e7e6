// Copyright © 2018 The ELPS authors

// Package cmd implements the dan command line interface.
package cmd

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// Configuration keys.  Each key may be set by a persistent flag, by the
// config file, or by a DAN_ environment variable (DAN_STACK_HEIGHT for
// stack-height).
const (
	keyPath        = "path"
	keyStackHeight = "stack-height"
	keyColor       = "color"
	keyReader      = "reader"
	keyHistory     = "history"
)

var cfgFile string

// errReported is returned by commands that have already written their
// failure to stderr.
var errReported = errors.New("errors reported")

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "dan",
	Short: "dan is a small Lisp with modules",
	Long: `dan is a small Lisp implemented in Go.  Programs are made of modules
which open or import each other; the loader evaluates every module once, in
dependency order.

Getting started:
  dan run file.dan              Run a source file
  dan run -e '(+ 1 2)' -p       Evaluate an expression and print its value
  dan repl                      Start an interactive REPL
  dan check ./...               Check the syntax of every .dan file
  dan doc concat                Show documentation for a function
  dan doc -m string             List the exports of a native module

Native modules are loaded with (open "builtin:NAME") or
(import "builtin:NAME" :as alias).  The global module (error, io, number,
base, string and lambda) is opened in every program.`,
	SilenceErrors: true,
	SilenceUsage:  true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		if !errors.Is(err, errReported) {
			fmt.Fprintln(os.Stderr, err)
		}
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)

	flags := rootCmd.PersistentFlags()
	flags.StringVar(&cfgFile, "config", "", "config file (default is $HOME/.dan.yaml)")
	flags.String(keyColor, "auto",
		`Control colored output: "auto", "always", or "never".`)
	flags.String(keyReader, "rd",
		`Source reader: "rd" (recursive descent) or "parsec" (combinator).`)
	flags.StringSlice(keyPath, nil,
		"Directories searched for imported modules (default: current directory).")
	flags.Int(keyStackHeight, 0,
		"Maximum call stack height (0 for the runtime default).")
	for _, key := range []string{keyColor, keyReader, keyPath, keyStackHeight} {
		_ = viper.BindPFlag(key, flags.Lookup(key))
	}
	viper.SetDefault(keyHistory, "")

	rootCmd.AddCommand(
		RunCommand(),
		ReplCommand(),
		CheckCommand(),
		DocCommand(),
		LSPCommand(),
	)
}

// initConfig reads in config file and ENV variables if set.
func initConfig() {
	if cfgFile != "" {
		// Use config file from the flag.
		viper.SetConfigFile(cfgFile)
	} else {
		home, err := os.UserHomeDir()
		if err == nil {
			// Search config in home directory with name ".dan" (without extension).
			viper.AddConfigPath(home)
			viper.SetConfigName(".dan")
		}
	}

	viper.SetEnvPrefix("DAN")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv() // read in environment variables that match

	// If a config file is found, read it in.
	if err := viper.ReadInConfig(); err == nil {
		fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
	} else if cfgFile != "" {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
