package lsp

import "github.com/thinklang/thinklang/pkg/ast"

// DocumentSymbols builds the outline tree of spec §4.12: top-level
// types (with child fields), functions, and tools (renamed "tool"
// functions for outline purposes since LSP has no Tool symbol kind).
func DocumentSymbols(doc *Document) []DocumentSymbolResult {
	if doc.Program == nil {
		return nil
	}
	var out []DocumentSymbolResult
	for _, stmt := range doc.Program.Statements {
		switch s := stmt.(type) {
		case *ast.TypeDecl:
			sym := DocumentSymbolResult{Name: s.Name, Kind: SymbolKindStruct, Loc: s.Location}
			for _, f := range s.Fields {
				sym.Children = append(sym.Children, DocumentSymbolResult{Name: f.Name, Kind: SymbolKindField, Loc: f.Location})
			}
			out = append(out, sym)
		case *ast.FuncDecl:
			out = append(out, DocumentSymbolResult{Name: s.Name, Kind: SymbolKindFunction, Loc: s.Location})
		case *ast.ToolDecl:
			out = append(out, DocumentSymbolResult{Name: s.Name, Kind: SymbolKindFunction, Loc: s.Location})
		case *ast.LetStmt:
			out = append(out, DocumentSymbolResult{Name: s.Name, Kind: SymbolKindVariable, Loc: s.Location})
		}
	}
	return out
}

// DocumentSymbolResult is this package's outline node, converted to
// the wire DocumentSymbol shape at the LSP boundary.
type DocumentSymbolResult struct {
	Name     string
	Kind     SymbolKind
	Loc      ast.Location
	Children []DocumentSymbolResult
}
