// Copyright © 2018 The ELPS authors

package repl

import (
	"testing"

	"github.com/luthersystems/dan/lisp"
	"github.com/luthersystems/dan/lisp/lisplib"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSymbolCompleter(t *testing.T) {
	env, err := lisplib.NewDocEnv()
	require.NoError(t, err)
	v := env.EvalString("test", `(import "builtin:string" :as s) (define string-thing 1)`)
	require.NoError(t, lisp.GoError(v))
	c := &symbolCompleter{env: env}

	candidates, offset := c.Do([]rune("(str"), 4)
	assert.Equal(t, 3, offset)
	var names []string
	for _, r := range candidates {
		names = append(names, "str"+string(r))
	}
	assert.Contains(t, names, "string")
	assert.Contains(t, names, "string-length")
	assert.Contains(t, names, "string-thing")

	candidates, offset = c.Do([]rune("(de"), 3)
	assert.Equal(t, 2, offset)
	assert.Contains(t, candidates, []rune("fine"), "special forms complete")

	candidates, offset = c.Do([]rune("(s.up"), 5)
	assert.Equal(t, 4, offset)
	assert.Equal(t, [][]rune{[]rune("per")}, candidates)

	candidates, _ = c.Do([]rune("(zzz-nonexistent"), 16)
	assert.Empty(t, candidates)

	candidates, offset = c.Do([]rune("("), 1)
	assert.Empty(t, candidates)
	assert.Equal(t, 0, offset)
}
