// Copyright © 2024 The ELPS authors

package lsp

import (
	"strings"
	"sync"

	"github.com/luthersystems/dan/lisp"
	"github.com/luthersystems/dan/parser/ast"
)

// Document is an open text document.
type Document struct {
	mu      sync.Mutex
	URI     string
	Version int32
	Content string

	// program is the last successfully read version of Content.  When
	// Content does not read, parseErr is set and program is left as it was
	// so that symbols remain available while the user types.
	program  *ast.Program
	parseErr error
}

func (d *Document) parse(r lisp.Reader) {
	prog, err := r.Read(uriToPath(d.URI), strings.NewReader(d.Content))
	d.parseErr = err
	if err == nil {
		d.program = prog
	}
}

// snapshot returns the document state under its lock.
func (d *Document) snapshot() (content string, prog *ast.Program, parseErr error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.Content, d.program, d.parseErr
}

// DocumentStore holds the open documents.
type DocumentStore struct {
	reader lisp.Reader
	mu     sync.RWMutex
	docs   map[string]*Document
}

// NewDocumentStore creates an empty store which reads documents with r.
func NewDocumentStore(r lisp.Reader) *DocumentStore {
	return &DocumentStore{reader: r, docs: make(map[string]*Document)}
}

// Open adds a document to the store and reads it.
func (s *DocumentStore) Open(uri string, version int32, content string) *Document {
	doc := &Document{
		URI:     uri,
		Version: version,
		Content: content,
	}
	doc.parse(s.reader)
	s.mu.Lock()
	s.docs[uri] = doc
	s.mu.Unlock()
	return doc
}

// Change replaces the content of a document and reads it again.
func (s *DocumentStore) Change(uri string, version int32, content string) *Document {
	s.mu.Lock()
	doc, ok := s.docs[uri]
	if !ok {
		doc = &Document{URI: uri}
		s.docs[uri] = doc
	}
	s.mu.Unlock()

	doc.mu.Lock()
	doc.Version = version
	doc.Content = content
	doc.parse(s.reader)
	doc.mu.Unlock()
	return doc
}

// Close removes a document from the store.
func (s *DocumentStore) Close(uri string) {
	s.mu.Lock()
	delete(s.docs, uri)
	s.mu.Unlock()
}

// Get returns the document for uri, or nil.
func (s *DocumentStore) Get(uri string) *Document {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.docs[uri]
}
