// Copyright © 2024 The ELPS authors

package repl

import (
	"github.com/luthersystems/dan/diagnostic"
	"github.com/luthersystems/dan/lisp"
)

// renderError renders a lisp error with source annotations when the source
// is a readable file.  Input typed at the prompt has no file so only the
// location is shown.
func (r *repl) renderError(lerr *lisp.LVal) {
	d := diagnostic.FromLisp(lerr)
	d.Notes = append(d.Notes, "use (help f) after (open \"builtin:help\") to see documentation")
	_ = r.renderer.Render(r.out, d)
}
