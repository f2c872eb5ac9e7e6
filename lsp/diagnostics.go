// Copyright © 2024 The ELPS authors

package lsp

import (
	"errors"
	"time"

	"github.com/luthersystems/dan/lint"
	"github.com/luthersystems/dan/parser/token"
	"github.com/tliron/glsp"
	protocol "github.com/tliron/glsp/protocol_3_16"
)

const debounceDelay = 300 * time.Millisecond

func (s *Server) textDocumentDidOpen(ctx *glsp.Context, params *protocol.DidOpenTextDocumentParams) error {
	s.captureNotify(ctx)
	doc := s.docs.Open(
		params.TextDocument.URI,
		int32(params.TextDocument.Version), // #nosec G115
		params.TextDocument.Text,
	)
	s.analyzeAndPublish(doc)
	return nil
}

func (s *Server) textDocumentDidChange(ctx *glsp.Context, params *protocol.DidChangeTextDocumentParams) error {
	s.captureNotify(ctx)
	// With full sync the last change holds the whole document.
	var content string
	for _, change := range params.ContentChanges {
		switch c := change.(type) {
		case protocol.TextDocumentContentChangeEventWhole:
			content = c.Text
		case protocol.TextDocumentContentChangeEvent:
			content = c.Text
		}
	}
	doc := s.docs.Change(
		params.TextDocument.URI,
		int32(params.TextDocument.Version), // #nosec G115
		content,
	)

	s.debounceMu.Lock()
	if t, ok := s.debounce[doc.URI]; ok {
		t.Stop()
	}
	s.debounce[doc.URI] = time.AfterFunc(debounceDelay, func() {
		defer func() {
			if r := recover(); r != nil {
				log.Errorf("analyzing %s: %v", doc.URI, r)
			}
		}()
		if d := s.docs.Get(doc.URI); d != nil {
			s.analyzeAndPublish(d)
		}
	})
	s.debounceMu.Unlock()
	return nil
}

func (s *Server) textDocumentDidSave(ctx *glsp.Context, params *protocol.DidSaveTextDocumentParams) error {
	s.captureNotify(ctx)
	s.cancelDebounce(params.TextDocument.URI)
	if doc := s.docs.Get(params.TextDocument.URI); doc != nil {
		s.analyzeAndPublish(doc)
	}
	return nil
}

func (s *Server) textDocumentDidClose(ctx *glsp.Context, params *protocol.DidCloseTextDocumentParams) error {
	s.captureNotify(ctx)
	s.cancelDebounce(params.TextDocument.URI)
	s.sendNotification(protocol.ServerTextDocumentPublishDiagnostics, &protocol.PublishDiagnosticsParams{
		URI:         params.TextDocument.URI,
		Diagnostics: []protocol.Diagnostic{},
	})
	s.docs.Close(params.TextDocument.URI)
	return nil
}

func (s *Server) cancelDebounce(uri string) {
	s.debounceMu.Lock()
	if t, ok := s.debounce[uri]; ok {
		t.Stop()
		delete(s.debounce, uri)
	}
	s.debounceMu.Unlock()
}

func (s *Server) analyzeAndPublish(doc *Document) {
	s.sendNotification(protocol.ServerTextDocumentPublishDiagnostics, &protocol.PublishDiagnosticsParams{
		URI:         doc.URI,
		Diagnostics: s.diagnostics(doc),
	})
}

// diagnostics returns the diagnostics of doc.  A document that does not read
// has a single diagnostic for the reader error; module checks need a
// complete program and are skipped.
func (s *Server) diagnostics(doc *Document) []protocol.Diagnostic {
	content, prog, parseErr := doc.snapshot()
	diags := []protocol.Diagnostic{}
	if parseErr != nil {
		return append(diags, protocol.Diagnostic{
			Range:    parseErrorRange(parseErr),
			Severity: severity(protocol.DiagnosticSeverityError),
			Source:   strPtr("dan"),
			Message:  parseErr.Error(),
		})
	}
	lintDiags, err := s.linter.LintProgram(prog)
	if err != nil {
		log.Errorf("%s: %v", doc.URI, err)
		return diags
	}
	for _, d := range lintDiags {
		diags = append(diags, convertLintDiagnostic(content, d))
	}
	return diags
}

// convertLintDiagnostic converts d to an LSP diagnostic spanning the token
// at its position.
func convertLintDiagnostic(content string, d lint.Diagnostic) protocol.Diagnostic {
	loc := &token.Location{Line: d.Pos.Line, Col: d.Pos.Col}
	sev := mapLintSeverity(d.Severity)
	diag := protocol.Diagnostic{
		Range:    danToLSPRange(loc, tokenLen(content, loc)),
		Severity: &sev,
		Source:   strPtr("dan-check"),
		Code:     &protocol.IntegerOrString{Value: d.Analyzer},
		Message:  d.Message,
	}
	for _, note := range d.Notes {
		diag.Message += "\n" + note
	}
	return diag
}

func mapLintSeverity(sev lint.Severity) protocol.DiagnosticSeverity {
	switch sev {
	case lint.SeverityError:
		return protocol.DiagnosticSeverityError
	default:
		return protocol.DiagnosticSeverityWarning
	}
}

func severity(s protocol.DiagnosticSeverity) *protocol.DiagnosticSeverity {
	return &s
}

// parseErrorRange returns the range of the character or token that failed
// to read, or the empty range at the top of the document.
func parseErrorRange(err error) protocol.Range {
	var located interface {
		Location() *token.Location
	}
	if errors.As(err, &located) {
		if loc := located.Location(); loc != nil && loc.Line > 0 {
			return danToLSPRange(loc, 1)
		}
	}
	return protocol.Range{}
}
