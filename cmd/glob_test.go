// Copyright © 2024 The ELPS authors

package cmd

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFilterExcludes_ByName(t *testing.T) {
	paths := []string{
		"src/main.dan",
		"src/generated.dan",
		"lib/utils.dan",
	}
	result := filterExcludes(paths, []string{"generated.dan"})
	assert.Equal(t, []string{"src/main.dan", "lib/utils.dan"}, result)
}

func TestFilterExcludes_ByDirectory(t *testing.T) {
	paths := []string{
		"src/main.dan",
		"build/output.dan",
		"build/sub/deep.dan",
		"lib/utils.dan",
	}
	result := filterExcludes(paths, []string{"build"})
	assert.Equal(t, []string{"src/main.dan", "lib/utils.dan"}, result)
}

func TestFilterExcludes_GlobPattern(t *testing.T) {
	paths := []string{
		"src/main.dan",
		"src/gen_foo.dan",
		"src/gen_bar.dan",
		"lib/utils.dan",
	}
	result := filterExcludes(paths, []string{"gen_*"})
	assert.Equal(t, []string{"src/main.dan", "lib/utils.dan"}, result)
}

func TestFilterExcludes_NoneOrNoMatch(t *testing.T) {
	paths := []string{"src/main.dan", "lib/utils.dan"}
	assert.Equal(t, paths, filterExcludes(paths, nil))
	assert.Equal(t, paths, filterExcludes(paths, []string{"nonexistent"}))
}

func TestMatchesAny(t *testing.T) {
	assert.True(t, matchesAny("src/main.dan", []string{"src/*.dan"}))
	assert.False(t, matchesAny("lib/main.dan", []string{"src/*.dan"}))
	assert.True(t, matchesAny("deep/nested/core.dan", []string{"core.dan"}))
	assert.True(t, matchesAny("project/build/output.dan", []string{"build"}))
	assert.False(t, matchesAny("project/src/output.dan", []string{"build"}))
}

func TestSplitPath(t *testing.T) {
	assert.Equal(t, []string{"c.dan", "b", "a"}, splitPath("a/b/c.dan"))
	assert.Equal(t, []string{"c.dan", "b"}, splitPath("/b/c.dan"))
}

func TestExpandArgs(t *testing.T) {
	dir := writeFiles(t, map[string]string{
		"main.dan":         "",
		"README.md":        "",
		"lib/shapes.dan":   "",
		"vendor/other.dan": "",
	})
	got, err := expandArgs([]string{dir + "/...", "extra.dan"}, []string{"vendor"})
	require.NoError(t, err)
	assert.Equal(t, []string{
		filepath.Join(dir, "lib", "shapes.dan"),
		filepath.Join(dir, "main.dan"),
		"extra.dan",
	}, got)

	_, err = expandArgs([]string{filepath.Join(dir, "missing") + "/..."}, nil)
	assert.Error(t, err)
}
