// Copyright © 2018 The ELPS authors

package lisp

import (
	"bytes"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"

	"github.com/luthersystems/dan/parser/ast"
)

// NativePrefix marks module ids which name native modules.
const NativePrefix = "builtin:"

// SourceExt is the file extension of dan source files.
const SourceExt = ".dan"

// ErrModuleNotFound is returned by resolvers that cannot find a module.
var ErrModuleNotFound = errors.New("module not found")

// Source is a resolved module.  Exactly one of Native and Text is set.
type Source struct {
	ID     string
	Name   string
	Path   string
	Native *NativeModule
	Text   []byte
}

// Resolver maps the module name used in an open or import form to its
// source.  From is the path of the file containing the form, or empty.
type Resolver interface {
	Resolve(from, name string) (*Source, error)
}

// NativeModule is a module implemented in Go.
type NativeModule struct {
	Name     string
	Doc      string
	Requires []string
	Factory  func(env *LEnv, deps ...*Module) (*Module, *LVal)
}

// ID returns the id the module is loaded under.
func (m *NativeModule) ID() string {
	return NativePrefix + m.Name
}

// moduleNode is a vertex in the dependency graph of a load.
type moduleNode struct {
	ID      string
	Name    string
	Deps    []string
	Factory func(env *LEnv, deps ...*Module) (*Module, *LVal)
}

// Loader loads modules in dependency order and caches them by id.  Each
// module is evaluated at most once per Loader.
type Loader struct {
	resolver Resolver
	root     *LEnv
	natives  map[string]*NativeModule
	named    map[string]*Module
	cache    map[string]*Module
}

// NewLoader returns a loader which finds in-language modules using r.  A nil
// resolver restricts the loader to native and begin-module modules.
func NewLoader(r Resolver) *Loader {
	return &Loader{
		resolver: r,
		natives:  make(map[string]*NativeModule),
		named:    make(map[string]*Module),
		cache:    make(map[string]*Module),
	}
}

// SetResolver replaces the loader's resolver.
func (l *Loader) SetResolver(r Resolver) {
	l.resolver = r
}

// RegisterNative makes m loadable as builtin:<name>.
func (l *Loader) RegisterNative(m *NativeModule) {
	l.natives[m.ID()] = m
}

// Natives returns the registered native modules sorted by name.
func (l *Loader) Natives() []*NativeModule {
	mods := make([]*NativeModule, 0, len(l.natives))
	for _, m := range l.natives {
		mods = append(mods, m)
	}
	sort.Slice(mods, func(i, j int) bool { return mods[i].Name < mods[j].Name })
	return mods
}

// Register records a module created by begin-module so that later imports
// of its name find it without resolution.
func (l *Loader) Register(mod *Module) {
	l.named[mod.Name] = mod
}

// Cached returns the module loaded under id, if any.
func (l *Loader) Cached(id string) (*Module, bool) {
	mod, ok := l.cache[id]
	return mod, ok
}

// Require loads the module name and its dependencies and returns the module.
func (l *Loader) Require(env *LEnv, name string) (*Module, *LVal) {
	id, mods, lerr := l.load(env, name)
	if lerr != nil {
		return nil, lerr
	}
	return mods[id], nil
}

// Load loads the module name and every module it depends on.  The returned
// map holds each module of the dependency closure by id.
func (l *Loader) Load(env *LEnv, name string) (map[string]*Module, *LVal) {
	_, mods, lerr := l.load(env, name)
	return mods, lerr
}

func (l *Loader) load(env *LEnv, name string) (string, map[string]*Module, *LVal) {
	nodes := make(map[string]*moduleNode)
	from := ""
	if env.Loc != nil {
		from = env.Loc.Path
	}
	id, lerr := l.trace(env, from, name, nodes)
	if lerr != nil {
		return "", nil, lerr
	}
	order, lerr := l.order(env, id, nodes)
	if lerr != nil {
		return "", nil, lerr
	}
	root := l.root
	if root == nil {
		root = env.Root()
	}
	for _, modID := range order {
		node := nodes[modID]
		deps := make([]*Module, len(node.Deps))
		for i, dep := range node.Deps {
			deps[i] = l.cache[dep]
		}
		mod, lerr := node.Factory(root, deps...)
		if lerr != nil {
			return "", nil, lerr
		}
		mod.ID = modID
		l.cache[modID] = mod
	}
	mods := make(map[string]*Module)
	l.collect(id, nodes, mods)
	return id, mods, nil
}

func (l *Loader) collect(id string, nodes map[string]*moduleNode, mods map[string]*Module) {
	if _, ok := mods[id]; ok {
		return
	}
	mods[id] = l.cache[id]
	if node, ok := nodes[id]; ok {
		for _, dep := range node.Deps {
			l.collect(dep, nodes, mods)
		}
	}
}

// trace resolves name and records the graph node of every module reachable
// from it which is not already cached.  Nodes are memoized by id.
func (l *Loader) trace(env *LEnv, from, name string, nodes map[string]*moduleNode) (string, *LVal) {
	if mod, ok := l.named[name]; ok {
		id := "module:" + name
		l.cache[id] = mod
		return id, nil
	}
	if strings.HasPrefix(name, NativePrefix) {
		native, ok := l.natives[name]
		if !ok {
			return "", env.ErrorConditionf(CondUnresolvedModule, "unknown native module: %s", name)
		}
		return l.traceNative(env, native, nodes)
	}
	if l.resolver == nil {
		return "", env.ErrorConditionf(CondUnresolvedModule, "cannot resolve module %s: no resolver", name)
	}
	src, err := l.resolver.Resolve(from, name)
	if err != nil {
		return "", env.ErrorConditionf(CondUnresolvedModule, "cannot resolve module %s: %v", name, err)
	}
	if src.Native != nil {
		return l.traceNative(env, src.Native, nodes)
	}
	if _, ok := l.cache[src.ID]; ok {
		return src.ID, nil
	}
	if _, ok := nodes[src.ID]; ok {
		return src.ID, nil
	}
	prog, lerr := env.read(src.Name, src.Path, bytes.NewReader(src.Text))
	if lerr != nil {
		return "", lerr
	}
	node := &moduleNode{
		ID:   src.ID,
		Name: src.Name,
		Factory: func(root *LEnv, deps ...*Module) (*Module, *LVal) {
			return evalSourceModule(root, src, prog)
		},
	}
	nodes[src.ID] = node
	for _, dep := range Requires(prog) {
		depID, lerr := l.trace(env, src.Path, dep, nodes)
		if lerr != nil {
			return "", lerr
		}
		node.Deps = append(node.Deps, depID)
	}
	return src.ID, nil
}

func (l *Loader) traceNative(env *LEnv, native *NativeModule, nodes map[string]*moduleNode) (string, *LVal) {
	id := native.ID()
	if _, ok := l.cache[id]; ok {
		return id, nil
	}
	if _, ok := nodes[id]; ok {
		return id, nil
	}
	node := &moduleNode{ID: id, Name: native.Name, Factory: native.Factory}
	nodes[id] = node
	for _, dep := range native.Requires {
		depID, lerr := l.trace(env, "", dep, nodes)
		if lerr != nil {
			return "", lerr
		}
		node.Deps = append(node.Deps, depID)
	}
	return id, nil
}

// order returns the uncached modules reachable from id in dependency order
// (a depth-first post-order).  A module reached again while its own
// dependencies are being visited is a circular dependency.  The walk keeps
// an explicit stack so deep import chains do not grow the Go stack.
func (l *Loader) order(env *LEnv, id string, nodes map[string]*moduleNode) ([]string, *LVal) {
	const (
		visiting = 1
		done     = 2
	)
	type frame struct {
		id   string
		next int
	}
	if _, ok := l.cache[id]; ok {
		return nil, nil
	}
	state := map[string]int{id: visiting}
	stack := []frame{{id: id}}
	var order []string
	for len(stack) > 0 {
		top := &stack[len(stack)-1]
		deps := nodes[top.id].Deps
		if top.next == len(deps) {
			state[top.id] = done
			order = append(order, top.id)
			stack = stack[:len(stack)-1]
			continue
		}
		dep := deps[top.next]
		top.next++
		if _, ok := l.cache[dep]; ok {
			continue
		}
		switch state[dep] {
		case visiting:
			path := make([]string, len(stack))
			for i, f := range stack {
				path[i] = f.id
			}
			return nil, env.ErrorConditionf(CondCircularDependency, "circular dependency: %s", joinCyclePath(path, dep, nodes))
		case done:
			continue
		}
		state[dep] = visiting
		stack = append(stack, frame{id: dep})
	}
	return order, nil
}

// joinCyclePath renders the cycle closed by again as "a -> b -> a".
func joinCyclePath(stack []string, again string, nodes map[string]*moduleNode) string {
	i := 0
	for idx, s := range stack {
		if s == again {
			i = idx
			break
		}
	}
	chain := append(stack[i:len(stack):len(stack)], again)
	names := make([]string, len(chain))
	for k, id := range chain {
		names[k] = nodes[id].Name
	}
	return strings.Join(names, " -> ")
}

// Requires returns the names of the modules opened or imported by the top
// level forms of prog, including forms inside begin-module bodies.  Names
// defined by begin-module forms in prog itself are not included.
func Requires(prog *ast.Program) []string {
	local := make(map[string]bool)
	var names []string
	seen := make(map[string]bool)
	ast.TopLevel(prog.Forms, func(node ast.Node, module string) {
		if mod, ok := node.(*ast.Module); ok {
			local[mod.Name] = true
			return
		}
		l, ok := node.(*ast.List)
		if !ok || len(l.Nodes) < 2 {
			return
		}
		switch ast.HeadSymbol(l) {
		case "open", "import":
			name, ok := moduleArg(l.Nodes[1])
			if ok && !seen[name] {
				seen[name] = true
				names = append(names, name)
			}
		}
	})
	deps := names[:0]
	for _, name := range names {
		if !local[name] {
			deps = append(deps, name)
		}
	}
	return deps
}

func evalSourceModule(root *LEnv, src *Source, prog *ast.Program) (*Module, *LVal) {
	mod := NewModule(src.Name)
	modEnv := root.Extend(src.Name)
	modEnv.Module = src.Name
	modEnv.module = mod
	v := modEnv.EvalProgram(prog)
	if v.Type == LError {
		return nil, v
	}
	if len(mod.exports) == 0 && v.Type == LModule {
		return v.Module(), nil
	}
	return mod, nil
}

// ModuleName returns the default binding name for a module path: the base
// name without its extension.
func ModuleName(name string) string {
	name = strings.TrimPrefix(name, NativePrefix)
	base := path.Base(filepath.ToSlash(name))
	return strings.TrimSuffix(base, path.Ext(base))
}

func sourceFile(name string) string {
	if path.Ext(name) == SourceExt {
		return name
	}
	return name + SourceExt
}

// FSResolver finds modules as .dan files in a file system.  Names are
// resolved relative to the importing file first and then relative to each
// of Roots.
type FSResolver struct {
	FS    fs.FS
	Roots []string
}

// Resolve implements Resolver.
func (r *FSResolver) Resolve(from, name string) (*Source, error) {
	file := sourceFile(filepath.ToSlash(name))
	var candidates []string
	if from != "" {
		candidates = append(candidates, path.Join(path.Dir(filepath.ToSlash(from)), file))
	}
	roots := r.Roots
	if len(roots) == 0 {
		roots = []string{"."}
	}
	for _, root := range roots {
		candidates = append(candidates, path.Join(root, file))
	}
	for _, p := range candidates {
		if !fs.ValidPath(p) {
			continue
		}
		b, err := fs.ReadFile(r.FS, p)
		if errors.Is(err, fs.ErrNotExist) {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("reading module %s: %w", name, err)
		}
		return &Source{ID: p, Name: ModuleName(name), Path: p, Text: b}, nil
	}
	return nil, fmt.Errorf("%w: %s", ErrModuleNotFound, name)
}

// DirResolver finds modules as .dan files on the host file system.  Names
// are resolved relative to the importing file first and then relative to
// each of Paths.  When RootDir is not empty files outside of it are never
// resolved.
type DirResolver struct {
	RootDir string
	Paths   []string
}

// Resolve implements Resolver.
func (r *DirResolver) Resolve(from, name string) (*Source, error) {
	file := sourceFile(name)
	var candidates []string
	if filepath.IsAbs(file) {
		candidates = append(candidates, file)
	} else {
		if from != "" {
			candidates = append(candidates, filepath.Join(filepath.Dir(from), file))
		}
		paths := r.Paths
		if len(paths) == 0 {
			paths = []string{"."}
		}
		for _, dir := range paths {
			candidates = append(candidates, filepath.Join(dir, file))
		}
	}
	for _, p := range candidates {
		abs, err := filepath.Abs(p)
		if err != nil {
			continue
		}
		if !r.allowed(abs) {
			continue
		}
		b, err := os.ReadFile(abs)
		if errors.Is(err, fs.ErrNotExist) {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("reading module %s: %w", name, err)
		}
		return &Source{ID: abs, Name: ModuleName(name), Path: abs, Text: b}, nil
	}
	return nil, fmt.Errorf("%w: %s", ErrModuleNotFound, name)
}

func (r *DirResolver) allowed(abs string) bool {
	if r.RootDir == "" {
		return true
	}
	root, err := filepath.Abs(r.RootDir)
	if err != nil {
		return false
	}
	rel, err := filepath.Rel(root, abs)
	if err != nil {
		return false
	}
	return rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator))
}
