// Copyright © 2018 The ELPS authors

package repl

import (
	"sort"
	"strings"

	"github.com/luthersystems/dan/lisp"
)

// symbolCompleter implements readline.AutoCompleter by enumerating the names
// bound in a dan environment, the special forms, and the exports of modules
// bound to names.
type symbolCompleter struct {
	env *lisp.LEnv
}

func (c *symbolCompleter) Do(line []rune, pos int) ([][]rune, int) {
	start := pos
	for start > 0 && !strings.ContainsRune(" \t\n()[]{}'`~", line[start-1]) {
		start--
	}
	prefix := string(line[start:pos])
	if prefix == "" {
		return nil, 0
	}
	candidates := c.collectSymbols(prefix)
	if len(candidates) == 0 {
		return nil, 0
	}
	n := len([]rune(prefix))
	result := make([][]rune, 0, len(candidates))
	for _, sym := range candidates {
		result = append(result, []rune(sym)[n:])
	}
	return result, n
}

func (c *symbolCompleter) collectSymbols(prefix string) []string {
	seen := make(map[string]bool)
	var result []string
	add := func(name string) {
		if strings.HasPrefix(name, prefix) && !seen[name] {
			seen[name] = true
			result = append(result, name)
		}
	}

	// mod.export for modules bound under a name, e.g. by (import "m" :as m).
	if alias, sub, ok := strings.Cut(prefix, "."); ok && alias != "" {
		if v := c.env.GetName(alias); v.Type == lisp.LModule {
			for _, name := range v.Module().Exports() {
				if strings.HasPrefix(name, sub) {
					add(alias + "." + name)
				}
			}
		}
	}
	for _, name := range c.env.Names() {
		add(name)
	}
	for _, form := range lisp.SpecialForms() {
		add(form.Name)
	}
	sort.Strings(result)
	return result
}
