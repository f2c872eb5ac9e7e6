// Copyright © 2024 The ELPS authors

package lsp

import (
	"strings"

	"github.com/luthersystems/dan/parser/token"
	protocol "github.com/tliron/glsp/protocol_3_16"
)

// danToLSPPosition converts a 1-based source location to a 0-based LSP
// position.
func danToLSPPosition(loc *token.Location) protocol.Position {
	line := loc.Line
	col := loc.Col
	if line > 0 {
		line--
	}
	if col > 0 {
		col--
	}
	return protocol.Position{
		Line:      safeUint(line),
		Character: safeUint(col),
	}
}

// safeUint converts n to protocol.UInteger, clamping negative values to
// zero.
func safeUint(n int) protocol.UInteger {
	if n < 0 {
		return 0
	}
	return protocol.UInteger(n) // #nosec G115
}

// danToLSPRange returns the range of width characters starting at loc.
func danToLSPRange(loc *token.Location, width int) protocol.Range {
	if loc == nil {
		return protocol.Range{}
	}
	start := danToLSPPosition(loc)
	end := start
	end.Character += safeUint(width)
	return protocol.Range{Start: start, End: end}
}

// offsetOf returns the byte offset of a 1-based line and column in content,
// or -1.
func offsetOf(content string, line, col int) int {
	if line < 1 || col < 1 {
		return -1
	}
	off := 0
	for i := 1; i < line; i++ {
		nl := strings.IndexByte(content[off:], '\n')
		if nl < 0 {
			return -1
		}
		off += nl + 1
	}
	off += col - 1
	if off > len(content) {
		return -1
	}
	return off
}

// positionOf converts a byte offset in content to an LSP position.
func positionOf(content string, off int) protocol.Position {
	before := content[:off]
	line := strings.Count(before, "\n")
	col := off - (strings.LastIndexByte(before, '\n') + 1)
	return protocol.Position{Line: safeUint(line), Character: safeUint(col)}
}

// formRange returns the range of the bracketed form starting at loc.  The
// end is found by matching brackets, ignoring those in strings and
// comments.  An unterminated form extends to the end of content.
func formRange(content string, loc *token.Location) protocol.Range {
	if loc == nil {
		return protocol.Range{}
	}
	start := offsetOf(content, loc.Line, loc.Col)
	if start < 0 {
		return danToLSPRange(loc, 1)
	}
	return protocol.Range{
		Start: positionOf(content, start),
		End:   positionOf(content, formEnd(content, start)),
	}
}

func formEnd(content string, start int) int {
	depth := 0
	for i := start; i < len(content); i++ {
		switch content[i] {
		case '"':
			for i++; i < len(content) && content[i] != '"'; i++ {
				if content[i] == '\\' {
					i++
				}
			}
			if i >= len(content) {
				return len(content)
			}
		case ';':
			nl := strings.IndexByte(content[i:], '\n')
			if nl < 0 {
				return len(content)
			}
			i += nl
		case '(', '[', '{':
			depth++
		case ')', ']', '}':
			depth--
			if depth <= 0 {
				return i + 1
			}
		}
	}
	return len(content)
}

// tokenLen returns the length of the token at loc, at least 1.
func tokenLen(content string, loc *token.Location) int {
	start := offsetOf(content, loc.Line, loc.Col)
	if start < 0 || start >= len(content) {
		return 1
	}
	switch content[start] {
	case '(', '[', '{':
		// A form is marked by its head.
		if n := symbolLen(content[start+1:]); n > 0 {
			return n + 1
		}
		return 1
	case '"':
		end := start + 1
		for end < len(content) && content[end] != '"' && content[end] != '\n' {
			if content[end] == '\\' {
				end++
			}
			end++
		}
		return min(end+1, len(content)) - start
	}
	return max(symbolLen(content[start:]), 1)
}

func symbolLen(s string) int {
	n := 0
	for n < len(s) && isSymbolChar(s[n]) {
		n++
	}
	return n
}

func isSymbolChar(c byte) bool {
	switch {
	case c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z', c >= '0' && c <= '9':
		return true
	}
	switch c {
	case '-', '_', '!', '?', '+', '*', '/', '<', '>', '=', ':', '.', '%', '&':
		return true
	}
	return false
}

// uriToPath converts a file:// URI to a filesystem path.
func uriToPath(uri string) string {
	if path, ok := strings.CutPrefix(uri, "file://"); ok {
		return path
	}
	return uri
}
