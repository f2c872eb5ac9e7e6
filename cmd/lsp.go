// Copyright © 2024 The ELPS authors

package cmd

import (
	"fmt"

	"github.com/luthersystems/dan/lsp"
	"github.com/luthersystems/dan/parser"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"github.com/tliron/commonlog"
)

// LSPCommand creates the "lsp" cobra command.
func LSPCommand() *cobra.Command {
	var (
		stdio     bool
		port      int
		verbosity int
		logFile   string
	)
	cmd := &cobra.Command{
		Use:   "lsp [flags]",
		Short: "Start the dan Language Server Protocol server",
		Long: `Start an LSP server for dan source files.

The server reports read errors and module-form problems (the checks of
"dan check") as diagnostics while you edit, and lists the definitions of
each file as document symbols.

Transport modes:
  --stdio      Use stdin/stdout for LSP communication (default)
  --port N     Listen for an LSP client on TCP port N

Examples:
  dan lsp                           Start with stdio transport
  dan lsp --port 7998               Start with TCP on port 7998
  dan lsp -v 2 --log /tmp/dan.log   Log requests to a file`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(_ *cobra.Command, _ []string) error {
			var path *string
			if logFile != "" {
				path = &logFile
			}
			commonlog.Configure(verbosity, path)

			reader, err := parser.NewReaderKind(viper.GetString(keyReader))
			if err != nil {
				return err
			}
			srv := lsp.New(lsp.WithReader(reader), lsp.WithDebug(verbosity > 1))
			if !stdio && port > 0 {
				return srv.RunTCP(fmt.Sprintf("localhost:%d", port))
			}
			return srv.RunStdio()
		},
	}
	cmd.Flags().BoolVar(&stdio, "stdio", false,
		"Use stdin/stdout for LSP communication (default behavior)")
	cmd.Flags().IntVar(&port, "port", 0,
		"TCP port for LSP server (use instead of --stdio)")
	cmd.Flags().IntVarP(&verbosity, "verbose", "v", 0,
		"Log verbosity (0 logs nothing)")
	cmd.Flags().StringVar(&logFile, "log", "",
		"Write the log to this file instead of stderr")
	return cmd
}
