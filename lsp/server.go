// Copyright © 2024 The ELPS authors

// Package lsp implements a Language Server Protocol server for dan.  It
// publishes reader and module-form diagnostics and lists the top-level
// definitions of open documents.
package lsp

import (
	"os"
	"sync"
	"time"

	"github.com/luthersystems/dan/lint"
	"github.com/luthersystems/dan/lisp"
	"github.com/luthersystems/dan/parser"
	"github.com/tliron/commonlog"
	"github.com/tliron/glsp"
	protocol "github.com/tliron/glsp/protocol_3_16"
	glspserver "github.com/tliron/glsp/server"

	_ "github.com/tliron/commonlog/simple" // log backend
)

const serverName = "dan-lsp"

var log = commonlog.GetLogger("dan.lsp")

// Server is the dan language server.
type Server struct {
	handler protocol.Handler
	glspSrv *glspserver.Server
	docs    *DocumentStore
	linter  *lint.Linter
	debug   bool

	debounceMu sync.Mutex
	debounce   map[string]*time.Timer

	// notify is captured from the most recent client message.
	notifyMu sync.Mutex
	notify   glsp.NotifyFunc

	// exitFn is called on the exit notification.  Defaults to os.Exit.
	exitFn func(int)
}

// Option configures the server.
type Option func(*Server)

// WithAnalyzers replaces the default set of module checks.
func WithAnalyzers(analyzers ...*lint.Analyzer) Option {
	return func(s *Server) { s.linter.Analyzers = analyzers }
}

// WithReader sets the reader used to parse documents.
func WithReader(r lisp.Reader) Option {
	return func(s *Server) { s.linter.Reader = r }
}

// WithDebug makes the server log every protocol message.
func WithDebug(debug bool) Option {
	return func(s *Server) { s.debug = debug }
}

// New creates a new server.
func New(opts ...Option) *Server {
	s := &Server{
		linter: &lint.Linter{
			Analyzers: lint.DefaultAnalyzers(),
			Reader:    parser.NewReader(),
		},
		debounce: make(map[string]*time.Timer),
		exitFn:   os.Exit,
	}
	for _, o := range opts {
		o(s)
	}
	s.docs = NewDocumentStore(s.linter.Reader)

	s.handler = protocol.Handler{
		Initialize:  s.initialize,
		Initialized: s.initialized,
		Shutdown:    s.shutdown,
		Exit:        s.exit,
		SetTrace:    s.setTrace,

		TextDocumentDidOpen:   s.textDocumentDidOpen,
		TextDocumentDidChange: s.textDocumentDidChange,
		TextDocumentDidSave:   s.textDocumentDidSave,
		TextDocumentDidClose:  s.textDocumentDidClose,

		TextDocumentDocumentSymbol: s.textDocumentDocumentSymbol,
	}
	s.glspSrv = glspserver.NewServer(&s.handler, serverName, s.debug)
	return s
}

// RunStdio serves a single client over stdin and stdout.
func (s *Server) RunStdio() error {
	log.Infof("serving on stdio")
	return s.glspSrv.RunStdio()
}

// RunTCP serves clients connecting to addr.
func (s *Server) RunTCP(addr string) error {
	log.Infof("serving on %s", addr)
	return s.glspSrv.RunTCP(addr)
}

func (s *Server) initialize(ctx *glsp.Context, params *protocol.InitializeParams) (any, error) {
	s.captureNotify(ctx)
	if params.ClientInfo != nil {
		log.Infof("client: %s", params.ClientInfo.Name)
	}

	capabilities := s.handler.CreateServerCapabilities()
	syncKind := protocol.TextDocumentSyncKindFull
	capabilities.TextDocumentSync = &protocol.TextDocumentSyncOptions{
		OpenClose: boolPtr(true),
		Change:    &syncKind,
		Save:      &protocol.SaveOptions{IncludeText: boolPtr(false)},
	}

	version := "0.1.0"
	return protocol.InitializeResult{
		Capabilities: capabilities,
		ServerInfo: &protocol.InitializeResultServerInfo{
			Name:    serverName,
			Version: &version,
		},
	}, nil
}

func (s *Server) initialized(ctx *glsp.Context, _ *protocol.InitializedParams) error {
	s.captureNotify(ctx)
	return nil
}

func (s *Server) shutdown(_ *glsp.Context) error {
	s.debounceMu.Lock()
	for _, t := range s.debounce {
		t.Stop()
	}
	s.debounce = make(map[string]*time.Timer)
	s.debounceMu.Unlock()
	log.Infof("shutdown")
	return nil
}

func (s *Server) exit(_ *glsp.Context) error {
	s.exitFn(0)
	return nil
}

func (s *Server) setTrace(_ *glsp.Context, params *protocol.SetTraceParams) error {
	log.Debugf("trace: %s", params.Value)
	return nil
}

func (s *Server) captureNotify(ctx *glsp.Context) {
	if ctx == nil || ctx.Notify == nil {
		return
	}
	s.notifyMu.Lock()
	s.notify = ctx.Notify
	s.notifyMu.Unlock()
}

func (s *Server) sendNotification(method string, params any) {
	s.notifyMu.Lock()
	fn := s.notify
	s.notifyMu.Unlock()
	if fn == nil {
		log.Warningf("dropped %s: no client connection", method)
		return
	}
	fn(method, params)
}

func boolPtr(b bool) *bool {
	return &b
}

func strPtr(s string) *string {
	return &s
}
