// Copyright © 2024 The ELPS authors

package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"runtime"
	"strings"

	"github.com/luthersystems/dan/diagnostic"
	"github.com/luthersystems/dan/lint"
	"github.com/luthersystems/dan/parser"
	"github.com/luthersystems/dan/parser/lexer"
	"github.com/luthersystems/dan/parser/rdparser"
	"github.com/luthersystems/dan/parser/token"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"golang.org/x/sync/errgroup"
)

// CheckCommand creates the "check" cobra command.
func CheckCommand() *cobra.Command {
	var (
		jsonOut  bool
		checks   string
		list     bool
		excludes []string
	)
	cmd := &cobra.Command{
		Use:   "check [flags] [files...]",
		Short: "Check dan source files without running them",
		Long: `Check that dan source files lex and read, and that their module forms
(begin-module, provide, open and import) are well formed.  No code is
evaluated.  Files are checked in parallel.

With no files, reads from stdin.  An argument ending in "/..." expands to
every .dan file below that directory.

The command exits with status 1 when a file cannot be read or any check
reports an error.  Warnings are printed but do not fail the check.

Examples:
  dan check main.dan
  dan check ./...
  dan check --exclude=vendor ./...
  dan check --json lib/...
  dan check --checks=module-form,provide main.dan
  dan check --list`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if list {
				for _, a := range lint.DefaultAnalyzers() {
					summary, _, _ := strings.Cut(a.Doc, "\n")
					fmt.Fprintf(cmd.OutOrStdout(), "%-18s %s\n", a.Name, summary) //nolint:errcheck
				}
				return nil
			}
			analyzers, err := selectAnalyzers(checks)
			if err != nil {
				return err
			}
			reader, err := parser.NewReaderKind(viper.GetString(keyReader))
			if err != nil {
				return err
			}
			l := &lint.Linter{Analyzers: analyzers, Reader: reader}

			var results []checkResult
			if len(args) == 0 {
				src, err := io.ReadAll(cmd.InOrStdin())
				if err != nil {
					return fmt.Errorf("reading stdin: %w", err)
				}
				res, err := checkSource(l, "<stdin>", src)
				if err != nil {
					return err
				}
				results = []checkResult{res}
			} else {
				paths, err := expandArgs(args, excludes)
				if err != nil {
					return err
				}
				results, err = checkFiles(cmd.Context(), l, paths)
				if err != nil {
					return err
				}
			}

			if jsonOut {
				if err := lint.FormatJSON(cmd.OutOrStdout(), flatten(results)); err != nil {
					return err
				}
			} else if err := renderResults(cmd.ErrOrStderr(), results); err != nil {
				return err
			}
			for _, res := range results {
				if res.syntax != nil || lint.HasErrors(res.diags) {
					return errReported
				}
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&jsonOut, "json", false,
		"Output diagnostics as JSON.")
	cmd.Flags().StringVar(&checks, "checks", "",
		"Comma-separated list of checks to run (default: all).")
	cmd.Flags().BoolVar(&list, "list", false,
		"List available checks and exit.")
	cmd.Flags().StringArrayVar(&excludes, "exclude", nil,
		"Glob pattern for files to exclude (may be repeated).")
	return cmd
}

// checkResult holds the outcome of checking one file.  When the file could
// not be lexed or read syntax is set and diags is empty.
type checkResult struct {
	path   string
	diags  []lint.Diagnostic
	syntax error
}

func selectAnalyzers(checks string) ([]*lint.Analyzer, error) {
	analyzers := lint.DefaultAnalyzers()
	if checks == "" {
		return analyzers, nil
	}
	selected := make(map[string]bool)
	for _, name := range strings.Split(checks, ",") {
		selected[strings.TrimSpace(name)] = true
	}
	var filtered []*lint.Analyzer
	for _, a := range analyzers {
		if selected[a.Name] {
			filtered = append(filtered, a)
			delete(selected, a.Name)
		}
	}
	for name := range selected {
		return nil, fmt.Errorf("unknown check: %s", name)
	}
	return filtered, nil
}

// checkFiles checks every path concurrently.  Results are returned in the
// order of paths.  An unreadable file stops the check.
func checkFiles(ctx context.Context, l *lint.Linter, paths []string) ([]checkResult, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	results := make([]checkResult, len(paths))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(runtime.GOMAXPROCS(0))
	for i, path := range paths {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			src, err := os.ReadFile(path) //#nosec G304
			if err != nil {
				return fmt.Errorf("%s: %w", path, err)
			}
			results[i], err = checkSource(l, path, src)
			return err
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

func checkSource(l *lint.Linter, path string, src []byte) (checkResult, error) {
	diags, err := l.LintFile(src, path)
	if err != nil {
		if isSyntaxError(err) {
			return checkResult{path: path, syntax: err}, nil
		}
		return checkResult{}, err
	}
	return checkResult{path: path, diags: diags}, nil
}

func isSyntaxError(err error) bool {
	var rerr *rdparser.ReadError
	var lexerr *lexer.LexError
	return errors.As(err, &rerr) || errors.As(err, &lexerr)
}

func renderResults(w io.Writer, results []checkResult) error {
	renderer, err := newRenderer()
	if err != nil {
		return err
	}
	var ds []diagnostic.Diagnostic
	for _, res := range results {
		if res.syntax != nil {
			ds = append(ds, diagnostic.FromError(res.syntax))
			continue
		}
		for _, d := range res.diags {
			ds = append(ds, lintDiagToDiagnostic(d))
		}
	}
	return renderer.RenderAll(w, ds)
}

// flatten returns every diagnostic in results.  Syntax errors become
// diagnostics named after their condition.
func flatten(results []checkResult) []lint.Diagnostic {
	all := []lint.Diagnostic{}
	for _, res := range results {
		if res.syntax != nil {
			all = append(all, syntaxDiagnostic(res.path, res.syntax))
			continue
		}
		all = append(all, res.diags...)
	}
	return all
}

func syntaxDiagnostic(path string, err error) lint.Diagnostic {
	d := lint.Diagnostic{
		Pos:      lint.Position{File: path},
		Message:  err.Error(),
		Severity: lint.SeverityError,
	}
	var located interface {
		Condition() string
		Location() *token.Location
	}
	if errors.As(err, &located) {
		d.Analyzer = located.Condition()
		if loc := located.Location(); loc != nil {
			d.Pos.Line = loc.Line
			d.Pos.Col = loc.Col
		}
	}
	return d
}

// lintDiagToDiagnostic converts a lint.Diagnostic to a diagnostic.Diagnostic.
func lintDiagToDiagnostic(ld lint.Diagnostic) diagnostic.Diagnostic {
	d := diagnostic.Diagnostic{
		Severity: diagnostic.SeverityError,
		Message:  ld.Message + " (" + ld.Analyzer + ")",
	}
	if ld.Severity == lint.SeverityWarning {
		d.Severity = diagnostic.SeverityWarning
	}
	if ld.Pos.Line > 0 {
		d.Spans = append(d.Spans, diagnostic.Span{
			File: ld.Pos.File,
			Line: ld.Pos.Line,
			Col:  ld.Pos.Col,
		})
	}
	d.Notes = append(d.Notes, ld.Notes...)
	return d
}
