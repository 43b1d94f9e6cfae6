package lsp

import (
	"sort"
	"sync"

	"github.com/thinklang/thinklang/pkg/ast"
	"github.com/thinklang/thinklang/pkg/checker"
	"github.com/thinklang/thinklang/pkg/parser"
	"github.com/thinklang/thinklang/pkg/symtab"
)

// Document is one open file's cached analysis: parsed, type-checked,
// and re-walked for position-addressable scopes (checker.Result.Scope
// only exposes the top-level scope, per checker.go's own comment, so
// hover/completion/go-to-definition need their own scope tree).
type Document struct {
	URI     string
	Source  string
	Program *ast.Program
	Check   *checker.Result
	scopes  []scopeSpan
	symbols []*symtab.Symbol
	err     error
}

// scopeSpan pairs a lexical scope with the source range its binding
// set is visible over; Spans nest (a function body's span sits inside
// the top-level span), so position lookup picks the narrowest match.
type scopeSpan struct {
	loc   ast.Location
	scope *symtab.Scope
}

func analyze(uri, src string) *Document {
	doc := &Document{URI: uri, Source: src}
	prog, err := parser.Parse(uri, src)
	if err != nil {
		doc.err = err
		return doc
	}
	doc.Program = prog

	types := symtab.NewTypeTable()
	doc.Check = checker.Check(prog, types)

	top := symtab.NewScope(nil)
	doc.scopes = append(doc.scopes, scopeSpan{loc: fileSpan(prog), scope: top})
	w := &scopeWalker{doc: doc}
	w.walkStmts(prog.Statements, top)
	doc.symbols = doc.Check.Index.All()

	sort.Slice(doc.scopes, func(i, j int) bool { return spanWidth(doc.scopes[i].loc) < spanWidth(doc.scopes[j].loc) })
	return doc
}

func fileSpan(prog *ast.Program) ast.Location {
	loc := ast.Location{File: prog.File}
	for _, s := range prog.Statements {
		l := s.Loc()
		if loc.Start == (ast.Position{}) || before(l.Start, loc.Start) {
			loc.Start = l.Start
		}
		if after(l.End, loc.End) {
			loc.End = l.End
		}
	}
	return loc
}

func spanWidth(loc ast.Location) int {
	return (loc.End.Line-loc.Start.Line)*100000 + (loc.End.Column - loc.Start.Column)
}

func before(a, b ast.Position) bool {
	if a.Line != b.Line {
		return a.Line < b.Line
	}
	return a.Column < b.Column
}

func after(a, b ast.Position) bool {
	if a.Line != b.Line {
		return a.Line > b.Line
	}
	return a.Column > b.Column
}

func contains(loc ast.Location, pos ast.Position) bool {
	if before(pos, loc.Start) {
		return false
	}
	if after(pos, loc.End) {
		return false
	}
	return true
}

// scopeWalker mirrors checker.go's checkStmt scope-push points exactly
// (FuncDecl/ToolDecl bodies with params predefined, TryStmt body, each
// catch body with its binding, IfStmt's Then/Else, TestBlock bodies)
// so hover/completion see the same lexical structure the checker does.
type scopeWalker struct {
	doc *Document
}

func (w *scopeWalker) walkStmts(stmts []ast.Stmt, scope *symtab.Scope) {
	for _, stmt := range stmts {
		w.walkStmt(stmt, scope)
	}
}

func (w *scopeWalker) walkStmt(stmt ast.Stmt, scope *symtab.Scope) {
	switch s := stmt.(type) {
	case *ast.FuncDecl:
		inner := symtab.NewScope(scope)
		for _, p := range s.Params {
			inner.Define(&symtab.Binding{Name: p.Name, TypeDesc: typeDesc(p.Type), Location: p.Location})
		}
		w.doc.scopes = append(w.doc.scopes, scopeSpan{loc: s.Location, scope: inner})
		w.walkStmts(s.Body, inner)

	case *ast.ToolDecl:
		inner := symtab.NewScope(scope)
		for _, p := range s.Params {
			inner.Define(&symtab.Binding{Name: p.Name, TypeDesc: typeDesc(p.Type), Location: p.Location})
		}
		w.doc.scopes = append(w.doc.scopes, scopeSpan{loc: s.Location, scope: inner})
		w.walkStmts(s.Body, inner)

	case *ast.LetStmt:
		typ := typeDesc(s.Annotation)
		scope.Define(&symtab.Binding{Name: s.Name, TypeDesc: typ, Uncertain: s.Uncertain, Location: s.Location})

	case *ast.TryStmt:
		inner := symtab.NewScope(scope)
		w.doc.scopes = append(w.doc.scopes, scopeSpan{loc: s.Location, scope: inner})
		w.walkStmts(s.Body, inner)
		for _, cc := range s.Catches {
			catchEnv := symtab.NewScope(scope)
			if cc.Binding != "" {
				catchEnv.Define(&symtab.Binding{Name: cc.Binding, TypeDesc: cc.ErrorKind, Location: cc.Location})
			}
			w.doc.scopes = append(w.doc.scopes, scopeSpan{loc: cc.Location, scope: catchEnv})
			w.walkStmts(cc.Body, catchEnv)
		}

	case *ast.IfStmt:
		thenEnv := symtab.NewScope(scope)
		w.doc.scopes = append(w.doc.scopes, scopeSpan{loc: s.Location, scope: thenEnv})
		w.walkStmts(s.Then, thenEnv)
		if len(s.Else) > 0 {
			elseEnv := symtab.NewScope(scope)
			w.doc.scopes = append(w.doc.scopes, scopeSpan{loc: s.Location, scope: elseEnv})
			w.walkStmts(s.Else, elseEnv)
		}

	case *ast.TestBlock:
		inner := symtab.NewScope(scope)
		w.doc.scopes = append(w.doc.scopes, scopeSpan{loc: s.Location, scope: inner})
		w.walkStmts(s.Body, inner)
	}
}

// scopeAt returns the narrowest scope whose span contains pos, falling
// back to the file's top-level scope.
func (d *Document) scopeAt(pos ast.Position) *symtab.Scope {
	for _, sp := range d.scopes {
		if contains(sp.loc, pos) {
			return sp.scope
		}
	}
	if len(d.scopes) > 0 {
		return d.scopes[len(d.scopes)-1].scope
	}
	return nil
}

// typeDesc renders a TypeExpr the way checker.go's unexported typeDesc
// does, reimplemented locally since it isn't exported and this is the
// adapter's only caller.
func typeDesc(t ast.TypeExpr) string {
	if t == nil {
		return "unknown"
	}
	switch t := t.(type) {
	case *ast.PrimitiveType:
		return string(t.Kind)
	case *ast.NamedType:
		return t.Name
	case *ast.ArrayType:
		return typeDesc(t.Elem) + "[]"
	case *ast.OptionalType:
		return typeDesc(t.Inner) + "?"
	case *ast.UnionType:
		s := typeDesc(t.Options[0])
		for _, o := range t.Options[1:] {
			s += " | " + typeDesc(o)
		}
		return s
	case *ast.ConfidentType:
		return "Confident<" + typeDesc(t.Inner) + ">"
	}
	return "unknown"
}

// Store holds every open document, keyed by URI.
type Store struct {
	mu   sync.Mutex
	docs map[string]*Document
}

func NewStore() *Store {
	return &Store{docs: map[string]*Document{}}
}

func (s *Store) Open(uri, text string) *Document {
	doc := analyze(uri, text)
	s.mu.Lock()
	s.docs[uri] = doc
	s.mu.Unlock()
	return doc
}

func (s *Store) Update(uri, text string) *Document {
	return s.Open(uri, text)
}

func (s *Store) Close(uri string) {
	s.mu.Lock()
	delete(s.docs, uri)
	s.mu.Unlock()
}

func (s *Store) Get(uri string) (*Document, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	doc, ok := s.docs[uri]
	return doc, ok
}
