package lsp

import "github.com/thinklang/thinklang/pkg/ast"

// Definition resolves the declaration location of the identifier at
// pos: scope-local bindings first (let/param/catch bindings), falling
// back to the top-level symbol index for types/functions/tools.
func Definition(doc *Document, pos ast.Position) (ast.Location, bool) {
	if doc.Program == nil {
		return ast.Location{}, false
	}
	node := stmtsAt(doc.Program.Statements, pos)
	id, ok := node.(*ast.Identifier)
	if !ok {
		if m, ok := node.(*ast.MemberExpr); ok {
			if objID, ok := m.Object.(*ast.Identifier); ok {
				id = objID
			} else {
				return ast.Location{}, false
			}
		} else {
			return ast.Location{}, false
		}
	}

	if scope := doc.scopeAt(pos); scope != nil {
		if b, ok := scope.Lookup(id.Name); ok {
			return b.Location, true
		}
	}
	if sym, ok := doc.Check.Index.Lookup(id.Name); ok {
		return sym.Location, true
	}
	return ast.Location{}, false
}
