// Package symtab implements the symbol tables of spec §3: a flat type
// table, a tree of lexical scopes, and a flat top-level symbol index.
// The checker, module resolver, code generator, and LSP adapter all
// share these shapes rather than each rolling their own.
package symtab

import "github.com/thinklang/thinklang/pkg/ast"

// TypeTable maps a declared type name to its declaration.
type TypeTable struct {
	decls map[string]*ast.TypeDecl
}

func NewTypeTable() *TypeTable {
	return &TypeTable{decls: make(map[string]*ast.TypeDecl)}
}

func (t *TypeTable) Define(decl *ast.TypeDecl) {
	t.decls[decl.Name] = decl
}

func (t *TypeTable) Lookup(name string) (*ast.TypeDecl, bool) {
	decl, ok := t.decls[name]
	return decl, ok
}

func (t *TypeTable) Names() []string {
	names := make([]string, 0, len(t.decls))
	for name := range t.decls {
		names = append(names, name)
	}
	return names
}

// Binding is a scope entry: a name's static type (as rendered by the
// checker — see pkg/checker.ValueType) plus the location it was
// introduced at, used by hover and go-to-definition.
type Binding struct {
	Name      string
	TypeDesc  string // human-readable type, e.g. "Confident<Review>"
	Uncertain bool
	Location  ast.Location
}

// Scope is one node of the lexical scope tree; a new Scope is pushed
// for function, tool, try, catch, if, and else bodies (spec §3).
type Scope struct {
	parent   *Scope
	bindings map[string]*Binding
}

func NewScope(parent *Scope) *Scope {
	return &Scope{parent: parent, bindings: make(map[string]*Binding)}
}

func (s *Scope) Parent() *Scope { return s.parent }

func (s *Scope) Define(b *Binding) {
	s.bindings[b.Name] = b
}

// Lookup resolves a name in this scope or an enclosing one (shadowing
// is permitted — the nearest binding wins).
func (s *Scope) Lookup(name string) (*Binding, bool) {
	for scope := s; scope != nil; scope = scope.parent {
		if b, ok := scope.bindings[name]; ok {
			return b, true
		}
	}
	return nil, false
}

// Local returns bindings introduced directly in this scope (not
// ancestors) — used by completion to list "scope-local variables".
func (s *Scope) Local() []*Binding {
	out := make([]*Binding, 0, len(s.bindings))
	for _, b := range s.bindings {
		out = append(out, b)
	}
	return out
}

// SymbolKind classifies a top-level symbol-index entry.
type SymbolKind string

const (
	SymbolType     SymbolKind = "type"
	SymbolFunction SymbolKind = "function"
	SymbolVariable SymbolKind = "variable"
	SymbolTool     SymbolKind = "tool"
)

// Symbol is one entry of the flat top-level symbol index.
type Symbol struct {
	Name     string
	Kind     SymbolKind
	Location ast.Location
}

// Index is the flat top-level symbol index (spec §3): top-level names
// to kind, used by the LSP adapter's go-to-definition fallback and by
// the module resolver to check re-exported names.
type Index struct {
	symbols map[string]*Symbol
}

func NewIndex() *Index {
	return &Index{symbols: make(map[string]*Symbol)}
}

func (i *Index) Define(sym *Symbol) {
	i.symbols[sym.Name] = sym
}

func (i *Index) Lookup(name string) (*Symbol, bool) {
	sym, ok := i.symbols[name]
	return sym, ok
}

func (i *Index) All() []*Symbol {
	out := make([]*Symbol, 0, len(i.symbols))
	for _, sym := range i.symbols {
		out = append(out, sym)
	}
	return out
}
