// Copyright © 2024 The ELPS authors

package lsp

import (
	"sync"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/luthersystems/dan/lint"
	"github.com/luthersystems/dan/parser/ast"
	"github.com/luthersystems/dan/parser/rdparser"
	"github.com/luthersystems/dan/parser/token"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tliron/glsp"
	protocol "github.com/tliron/glsp/protocol_3_16"
)

const testURI = "file:///work/test.dan"

func mockContext() *glsp.Context {
	return &glsp.Context{
		Notify: func(method string, params any) {},
	}
}

// publications collects published diagnostics.  Debounced analysis
// publishes from a timer goroutine so access is locked.
type publications struct {
	mu   sync.Mutex
	pubs []*protocol.PublishDiagnosticsParams
}

func (p *publications) all() []*protocol.PublishDiagnosticsParams {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]*protocol.PublishDiagnosticsParams(nil), p.pubs...)
}

func capturingContext() (*glsp.Context, *publications) {
	p := &publications{}
	ctx := &glsp.Context{
		Notify: func(method string, params any) {
			if method == protocol.ServerTextDocumentPublishDiagnostics {
				p.mu.Lock()
				p.pubs = append(p.pubs, params.(*protocol.PublishDiagnosticsParams))
				p.mu.Unlock()
			}
		},
	}
	return ctx, p
}

func openParams(text string) *protocol.DidOpenTextDocumentParams {
	return &protocol.DidOpenTextDocumentParams{
		TextDocument: protocol.TextDocumentItem{
			URI:        testURI,
			LanguageID: "dan",
			Version:    1,
			Text:       text,
		},
	}
}

func TestDocumentStore(t *testing.T) {
	store := NewDocumentStore(rdparser.NewReader())
	doc := store.Open(testURI, 1, "(define x 1)")
	require.NotNil(t, doc.program)
	assert.NoError(t, doc.parseErr)
	assert.Same(t, doc, store.Get(testURI))

	store.Change(testURI, 2, "(define x")
	assert.Equal(t, int32(2), doc.Version)
	assert.Error(t, doc.parseErr)
	require.NotNil(t, doc.program, "last good program is kept")
	assert.Len(t, doc.program.Forms, 1)

	store.Close(testURI)
	assert.Nil(t, store.Get(testURI))

	// A change to an unknown document opens it.
	doc = store.Change("file:///other.dan", 1, "(define y 2)")
	assert.Same(t, doc, store.Get("file:///other.dan"))
}

func TestDiagnosticsValid(t *testing.T) {
	s := New()
	ctx, pubs := capturingContext()
	require.NoError(t, s.textDocumentDidOpen(ctx, openParams("(define (add x y) (+ x y))")))
	got := pubs.all()
	require.Len(t, got, 1)
	assert.Equal(t, testURI, got[0].URI)
	assert.NotNil(t, got[0].Diagnostics)
	assert.Empty(t, got[0].Diagnostics)
}

func TestDiagnosticsReadError(t *testing.T) {
	s := New()
	ctx, pubs := capturingContext()
	require.NoError(t, s.textDocumentDidOpen(ctx, openParams("(define (broken x")))
	got := pubs.all()
	require.Len(t, got, 1)
	require.Len(t, got[0].Diagnostics, 1)
	d := got[0].Diagnostics[0]
	assert.Equal(t, protocol.DiagnosticSeverityError, *d.Severity)
	assert.Equal(t, "dan", *d.Source)
}

func TestDiagnosticsLexErrorPosition(t *testing.T) {
	s := New()
	ctx, pubs := capturingContext()
	require.NoError(t, s.textDocumentDidOpen(ctx, openParams("(define a 1)\n(define x #)")))
	got := pubs.all()
	require.Len(t, got, 1)
	require.Len(t, got[0].Diagnostics, 1)
	d := got[0].Diagnostics[0]
	assert.Equal(t, protocol.UInteger(1), d.Range.Start.Line)
	assert.Equal(t, d.Range.Start.Character+1, d.Range.End.Character)
}

func TestDiagnosticsModuleChecks(t *testing.T) {
	s := New()
	ctx, pubs := capturingContext()
	src := "(begin-module \"m\"\n  (define a 1)\n  (provide \"a\"))"
	require.NoError(t, s.textDocumentDidOpen(ctx, openParams(src)))
	got := pubs.all()
	require.Len(t, got, 1)

	var found *protocol.Diagnostic
	for i, d := range got[0].Diagnostics {
		if d.Code != nil && d.Code.Value == "provide" {
			found = &got[0].Diagnostics[i]
		}
	}
	require.NotNil(t, found, "%v", got[0].Diagnostics)
	assert.Equal(t, `exported names must be symbols, got "a"`, found.Message)
	assert.Equal(t, protocol.DiagnosticSeverityError, *found.Severity)
	assert.Equal(t, "dan-check", *found.Source)
	want := protocol.Range{
		Start: protocol.Position{Line: 2, Character: 11},
		End:   protocol.Position{Line: 2, Character: 14},
	}
	assert.Equal(t, want, found.Range)
}

func TestDiagnosticsSelectedAnalyzers(t *testing.T) {
	s := New(WithAnalyzers(lint.AnalyzerModuleForm))
	ctx, pubs := capturingContext()
	require.NoError(t, s.textDocumentDidOpen(ctx, openParams(`(open 1 2) (begin-module "m")`)))
	got := pubs.all()
	require.Len(t, got, 1)
	require.Len(t, got[0].Diagnostics, 1)
	assert.Equal(t, "begin-module m requires a body", got[0].Diagnostics[0].Message)
	assert.Equal(t, protocol.DiagnosticSeverityError, *got[0].Diagnostics[0].Severity)
}

func TestDiagnosticsOnCloseCleared(t *testing.T) {
	s := New()
	ctx, pubs := capturingContext()
	require.NoError(t, s.textDocumentDidOpen(ctx, openParams("(define x")))
	require.NoError(t, s.textDocumentDidClose(ctx, &protocol.DidCloseTextDocumentParams{
		TextDocument: protocol.TextDocumentIdentifier{URI: testURI},
	}))
	got := pubs.all()
	require.Len(t, got, 2)
	assert.NotNil(t, got[1].Diagnostics)
	assert.Empty(t, got[1].Diagnostics)
	assert.Nil(t, s.docs.Get(testURI))
}

func TestDiagnosticsOnChangeDebounced(t *testing.T) {
	s := New()
	ctx, pubs := capturingContext()
	require.NoError(t, s.textDocumentDidOpen(ctx, openParams("(define x 1)")))
	for i, text := range []string{"(define x", "(define x 2"} {
		require.NoError(t, s.textDocumentDidChange(ctx, &protocol.DidChangeTextDocumentParams{
			TextDocument: protocol.VersionedTextDocumentIdentifier{
				TextDocumentIdentifier: protocol.TextDocumentIdentifier{URI: testURI},
				Version:                protocol.Integer(i + 2),
			},
			ContentChanges: []any{protocol.TextDocumentContentChangeEventWhole{Text: text}},
		}))
	}
	assert.Len(t, pubs.all(), 1, "change analysis is delayed")
	require.Eventually(t, func() bool { return len(pubs.all()) == 2 },
		5*time.Second, 20*time.Millisecond)
	time.Sleep(2 * debounceDelay)
	got := pubs.all()
	require.Len(t, got, 2, "rapid changes publish once")
	assert.Len(t, got[1].Diagnostics, 1)
}

func TestDiagnosticsOnSaveImmediate(t *testing.T) {
	s := New()
	ctx, pubs := capturingContext()
	require.NoError(t, s.textDocumentDidOpen(ctx, openParams("(define x 1)")))
	require.NoError(t, s.textDocumentDidChange(ctx, &protocol.DidChangeTextDocumentParams{
		TextDocument: protocol.VersionedTextDocumentIdentifier{
			TextDocumentIdentifier: protocol.TextDocumentIdentifier{URI: testURI},
			Version:                2,
		},
		ContentChanges: []any{protocol.TextDocumentContentChangeEventWhole{Text: "(define x"}},
	}))
	require.NoError(t, s.textDocumentDidSave(ctx, &protocol.DidSaveTextDocumentParams{
		TextDocument: protocol.TextDocumentIdentifier{URI: testURI},
	}))
	got := pubs.all()
	require.Len(t, got, 2)
	assert.Len(t, got[1].Diagnostics, 1)

	time.Sleep(2 * debounceDelay)
	assert.Len(t, pubs.all(), 2, "save cancels the pending analysis")
}

const symbolSource = `; shapes
(define pi 3.14)
(define (area r)
  (* pi r r))
(defmacro (twice & body) ` + "`" + `(begin ~@body ~@body))
(class Circle :extends Shape
  (define count 0)
  (new :r)
  (radius (self) (get self :r)))
(begin-module "geometry"
  (define (perimeter r) (* 2 pi r))
  (provide perimeter))
(begin
  (define e 2.71))
(print "not a definition")
`

func TestDocumentSymbols(t *testing.T) {
	s := New()
	require.NoError(t, s.textDocumentDidOpen(mockContext(), openParams(symbolSource)))
	result, err := s.textDocumentDocumentSymbol(mockContext(), &protocol.DocumentSymbolParams{
		TextDocument: protocol.TextDocumentIdentifier{URI: testURI},
	})
	require.NoError(t, err)
	syms, ok := result.([]protocol.DocumentSymbol)
	require.True(t, ok, "%T", result)

	type sym struct {
		Name     string
		Kind     protocol.SymbolKind
		Detail   string
		Children []sym
	}
	var simplify func([]protocol.DocumentSymbol) []sym
	simplify = func(ds []protocol.DocumentSymbol) []sym {
		var out []sym
		for _, d := range ds {
			s := sym{Name: d.Name, Kind: d.Kind, Children: simplify(d.Children)}
			if d.Detail != nil {
				s.Detail = *d.Detail
			}
			out = append(out, s)
		}
		return out
	}
	want := []sym{
		{Name: "pi", Kind: protocol.SymbolKindVariable},
		{Name: "area", Kind: protocol.SymbolKindFunction, Detail: "(area r)"},
		{Name: "twice", Kind: protocol.SymbolKindFunction, Detail: "macro (twice & body)"},
		{Name: "Circle", Kind: protocol.SymbolKindClass, Detail: "extends Shape", Children: []sym{
			{Name: "count", Kind: protocol.SymbolKindField},
			{Name: "new", Kind: protocol.SymbolKindConstructor},
			{Name: "radius", Kind: protocol.SymbolKindMethod, Detail: "(self)"},
		}},
		{Name: "geometry", Kind: protocol.SymbolKindModule, Detail: "module", Children: []sym{
			{Name: "perimeter", Kind: protocol.SymbolKindFunction, Detail: "(perimeter r)"},
		}},
		{Name: "e", Kind: protocol.SymbolKindVariable},
	}
	if diff := cmp.Diff(want, simplify(syms)); diff != "" {
		t.Errorf("symbols (-want +got):\n%s", diff)
	}

	area := syms[1]
	assert.Equal(t, protocol.Range{
		Start: protocol.Position{Line: 2, Character: 0},
		End:   protocol.Position{Line: 3, Character: 13},
	}, area.Range)
	assert.Equal(t, protocol.Range{
		Start: protocol.Position{Line: 2, Character: 9},
		End:   protocol.Position{Line: 2, Character: 13},
	}, area.SelectionRange)
}

func TestDocumentSymbolsUnknownDocument(t *testing.T) {
	s := New()
	result, err := s.textDocumentDocumentSymbol(mockContext(), &protocol.DocumentSymbolParams{
		TextDocument: protocol.TextDocumentIdentifier{URI: "file:///missing.dan"},
	})
	require.NoError(t, err)
	assert.Nil(t, result)
}

func TestDocumentSymbolsUnreadable(t *testing.T) {
	s := New()
	require.NoError(t, s.textDocumentDidOpen(mockContext(), openParams("(define x")))
	result, err := s.textDocumentDocumentSymbol(mockContext(), &protocol.DocumentSymbolParams{
		TextDocument: protocol.TextDocumentIdentifier{URI: testURI},
	})
	require.NoError(t, err)
	assert.Equal(t, []protocol.DocumentSymbol{}, result)
}

func TestMethodDetail(t *testing.T) {
	loc := &token.Location{Line: 1, Col: 1}
	method := &ast.List{Nodes: []ast.Node{
		ast.NewSymbol("make", loc),
		ast.NewKeyword(":static", loc),
		&ast.List{Nodes: []ast.Node{ast.NewSymbol("x", loc)}, Loc: loc},
	}, Loc: loc}
	assert.Equal(t, ":static (x)", methodDetail(method))

	bare := &ast.List{Nodes: []ast.Node{ast.NewSymbol("m", loc)}, Loc: loc}
	assert.Equal(t, "()", methodDetail(bare))
}

func TestPositionConversion(t *testing.T) {
	pos := danToLSPPosition(&token.Location{Line: 3, Col: 5})
	assert.Equal(t, protocol.Position{Line: 2, Character: 4}, pos)
	assert.Equal(t, protocol.Position{}, danToLSPPosition(&token.Location{}))
	assert.Equal(t, protocol.UInteger(0), safeUint(-4))
	assert.Equal(t, protocol.Range{}, danToLSPRange(nil, 3))
}

func TestFormRange(t *testing.T) {
	content := "(a \"(\" ; )\n  [b {c}])\n(d"
	r := formRange(content, &token.Location{Line: 1, Col: 1})
	assert.Equal(t, protocol.Position{Line: 0, Character: 0}, r.Start)
	assert.Equal(t, protocol.Position{Line: 1, Character: 10}, r.End)

	r = formRange(content, &token.Location{Line: 3, Col: 1})
	assert.Equal(t, protocol.Position{Line: 2, Character: 2}, r.End, "unterminated")
}

func TestTokenLen(t *testing.T) {
	content := "(define x \"a\\\"b\")"
	tests := []struct {
		col  int
		want int
	}{
		{1, 7},
		{2, 6},
		{9, 1},
		{11, 6},
		{40, 1},
	}
	for _, test := range tests {
		assert.Equal(t, test.want, tokenLen(content, &token.Location{Line: 1, Col: test.col}), "col %d", test.col)
	}
}

func TestURIToPath(t *testing.T) {
	assert.Equal(t, "/work/test.dan", uriToPath(testURI))
	assert.Equal(t, "untitled:1", uriToPath("untitled:1"))
}

func TestInitialize(t *testing.T) {
	s := New()
	result, err := s.initialize(mockContext(), &protocol.InitializeParams{
		ClientInfo: &struct {
			Name    string  `json:"name"`
			Version *string `json:"version,omitempty"`
		}{Name: "test"},
	})
	require.NoError(t, err)
	res, ok := result.(protocol.InitializeResult)
	require.True(t, ok)
	require.NotNil(t, res.ServerInfo)
	assert.Equal(t, serverName, res.ServerInfo.Name)
	assert.NotNil(t, res.Capabilities.DocumentSymbolProvider)
	syncOpts, ok := res.Capabilities.TextDocumentSync.(*protocol.TextDocumentSyncOptions)
	require.True(t, ok)
	assert.Equal(t, protocol.TextDocumentSyncKindFull, *syncOpts.Change)
	assert.NoError(t, s.shutdown(mockContext()))
}

func TestExitHandler(t *testing.T) {
	s := New()
	code := -1
	s.exitFn = func(c int) { code = c }
	require.NoError(t, s.exit(mockContext()))
	assert.Equal(t, 0, code)
}
