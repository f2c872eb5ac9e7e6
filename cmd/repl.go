// Copyright © 2018 The ELPS authors

package cmd

import (
	"os"
	"path/filepath"

	"github.com/luthersystems/dan/repl"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// ReplCommand creates the "repl" cobra command.
func ReplCommand(opts ...Option) *cobra.Command {
	cfg := newCmdConfig(opts)
	var noHistory bool
	cmd := &cobra.Command{
		Use:   "repl",
		Short: "Start an interactive dan REPL",
		Long: `Start an interactive read-eval-print loop for dan.

The global module is opened automatically.  Input spanning several lines is
collected until its parentheses balance.  Line editing, tab completion and
command history (saved to ~/.dan_history unless the history key names
another file) are supported via readline.  Use Ctrl-D or .exit to quit.

REPL commands:
  .load FILE   evaluate FILE in the current environment
  .exit        leave the repl
  .help        list the commands

Example REPL session:
  dan> (define (sq x) (* x x))
  nil
  dan> (sq 5)
  25
  dan> (import "builtin:string" :as s)
  nil
  dan> (s.upper "hi")
  "HI"`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			config, err := envConfig(cmd.ErrOrStderr(), cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			renderer, err := newRenderer()
			if err != nil {
				return err
			}
			replOpts := []repl.Option{
				repl.WithModulePaths(viper.GetStringSlice(keyPath)...),
				repl.WithConfig(config...),
				repl.WithNatives(cfg.natives...),
				repl.WithColor(renderer.Color),
			}
			if noHistory {
				replOpts = append(replOpts, repl.WithHistoryFile(""))
			} else if path := viper.GetString(keyHistory); path != "" {
				replOpts = append(replOpts, repl.WithHistoryFile(path))
			}
			return repl.RunRepl(filepath.Base(os.Args[0])+"> ", replOpts...)
		},
	}
	cmd.Flags().BoolVar(&noHistory, "no-history", false,
		"Do not read or write the history file")
	return cmd
}
