// Package resolver implements the ThinkLang module resolver of spec
// §4.4: topological loading of imported files, circular-import
// detection, and merging of imported types/functions/tools into the
// importing file's tables without re-exporting transitive imports.
package resolver

import (
	"fmt"
	"path"
	"strings"

	"github.com/thinklang/thinklang/pkg/ast"
	"github.com/thinklang/thinklang/pkg/parser"
	"github.com/thinklang/thinklang/pkg/symtab"
)

// Loader reads ThinkLang source by resolved path. The CLI wires an
// os.ReadFile-backed loader; tests use MapLoader.
type Loader interface {
	Load(path string) (string, error)
}

// MapLoader is an in-memory Loader keyed by resolved path, for tests
// and the LSP adapter's unsaved-buffer overlay.
type MapLoader map[string]string

func (m MapLoader) Load(path string) (string, error) {
	src, ok := m[path]
	if !ok {
		return "", fmt.Errorf("no such module: %s", path)
	}
	return src, nil
}

// Error is a resolver failure: circular-import or not-exported (spec §4.4).
type Error struct {
	Kind string // "circular-import" | "not-exported" | "parse-error"
	Path string
	Name string // set for not-exported
	Err  error  // wrapped cause, set for parse-error
}

func (e *Error) Error() string {
	switch e.Kind {
	case "circular-import":
		return fmt.Sprintf("circular-import: %s re-enters a currently-resolving module", e.Path)
	case "not-exported":
		return fmt.Sprintf("not-exported: %q is not a top-level declaration of %s", e.Name, e.Path)
	case "parse-error":
		return fmt.Sprintf("%s: %v", e.Path, e.Err)
	}
	return e.Kind
}

func (e *Error) Unwrap() error { return e.Err }

// Resolved is one file's fully merged module state: its own program
// plus every type/function/tool reachable through its import list.
type Resolved struct {
	Path    string
	Program *ast.Program
	Types   *symtab.TypeTable
	Funcs   map[string]*ast.FuncDecl
	Tools   map[string]*ast.ToolDecl
}

// Resolver loads and merges ThinkLang modules. A Resolver memoizes
// fully-resolved files across calls — resolve the same entry point
// twice and the second call is free.
type Resolver struct {
	loader Loader
	cache  map[string]*Resolved
}

func New(loader Loader) *Resolver {
	return &Resolver{loader: loader, cache: map[string]*Resolved{}}
}

// Resolve loads path and every module it transitively imports,
// returning the merged module state for path itself.
func (r *Resolver) Resolve(entry string) (*Resolved, error) {
	return r.resolve(normalize(entry), map[string]bool{})
}

func (r *Resolver) resolve(p string, resolving map[string]bool) (*Resolved, error) {
	if resolving[p] {
		return nil, &Error{Kind: "circular-import", Path: p}
	}
	if cached, ok := r.cache[p]; ok {
		return cached, nil
	}

	resolving[p] = true
	defer delete(resolving, p)

	src, err := r.loader.Load(p)
	if err != nil {
		return nil, err
	}
	prog, err := parser.Parse(p, src)
	if err != nil {
		return nil, &Error{Kind: "parse-error", Path: p, Err: err}
	}

	result := &Resolved{
		Path:    p,
		Program: prog,
		Types:   symtab.NewTypeTable(),
		Funcs:   map[string]*ast.FuncDecl{},
		Tools:   map[string]*ast.ToolDecl{},
	}
	for _, stmt := range prog.Statements {
		switch d := stmt.(type) {
		case *ast.TypeDecl:
			result.Types.Define(d)
		case *ast.FuncDecl:
			result.Funcs[d.Name] = d
		case *ast.ToolDecl:
			result.Tools[d.Name] = d
		}
	}

	for _, imp := range prog.Imports {
		importPath := normalize(joinRelative(p, imp.Path))
		// Resolved for consistency of the imported file's own imports,
		// but its transitive imports are NOT re-exported to result (spec §4.4).
		imported, err := r.resolve(importPath, resolving)
		if err != nil {
			return nil, err
		}
		for _, name := range imp.Names {
			if err := mergeImportedName(result, imported, name); err != nil {
				return nil, err
			}
		}
	}

	r.cache[p] = result
	return result, nil
}

func mergeImportedName(into, from *Resolved, name string) error {
	if td, ok := from.Types.Lookup(name); ok {
		into.Types.Define(td)
		return nil
	}
	if fd, ok := from.Funcs[name]; ok {
		into.Funcs[name] = fd
		return nil
	}
	if td, ok := from.Tools[name]; ok {
		into.Tools[name] = td
		return nil
	}
	return &Error{Kind: "not-exported", Path: from.Path, Name: name}
}

// normalize appends the .tl extension when absent.
func normalize(p string) string {
	if strings.HasSuffix(p, ".tl") {
		return p
	}
	return p + ".tl"
}

// joinRelative resolves importPath relative to the directory of importer.
func joinRelative(importer, importPath string) string {
	if strings.HasPrefix(importPath, "/") {
		return importPath
	}
	return path.Join(path.Dir(importer), importPath)
}
