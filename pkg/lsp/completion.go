package lsp

import (
	"strings"

	"github.com/thinklang/thinklang/pkg/ast"
)

var keywordCompletions = []string{
	"let", "uncertain", "type", "func", "tool", "try", "catch", "if", "else",
	"test", "assert", "print", "import", "guard", "on_fail", "match",
}

var primitiveCompletions = []string{"string", "int", "float", "bool", "null"}

var aiCallCompletions = []string{"think", "infer", "reason", "agent"}

// Completion returns completion items for the cursor at pos.
func Completion(doc *Document, pos ast.Position) []CompletionItem {
	if doc.Program == nil {
		return nil
	}
	if before, ok := precedingDot(doc.Source, pos); ok {
		return memberCompletions(doc, before, pos)
	}

	var items []CompletionItem
	for _, kw := range keywordCompletions {
		items = append(items, CompletionItem{Label: kw, Kind: KindKeyword})
	}
	for _, kw := range aiCallCompletions {
		items = append(items, CompletionItem{Label: kw, Kind: KindKeyword, Detail: "AI call"})
	}
	for _, p := range primitiveCompletions {
		items = append(items, CompletionItem{Label: p, Kind: KindKeyword, Detail: "primitive type"})
	}
	for _, name := range doc.Check.Types.Names() {
		items = append(items, CompletionItem{Label: name, Kind: KindClass, Detail: "type"})
	}
	for _, sym := range doc.symbols {
		kind := KindVariable
		if sym.Kind == "function" || sym.Kind == "tool" {
			kind = KindFunction
		}
		items = append(items, CompletionItem{Label: sym.Name, Kind: kind, Detail: string(sym.Kind)})
	}
	if scope := doc.scopeAt(pos); scope != nil {
		for s := scope; s != nil; s = s.Parent() {
			for _, b := range s.Local() {
				items = append(items, CompletionItem{Label: b.Name, Kind: KindVariable, Detail: b.TypeDesc})
			}
		}
	}
	return items
}

// precedingDot reports whether the character immediately before pos is
// `.`, and returns the position just before the dot (for resolving the
// object expression it follows).
func precedingDot(src string, pos ast.Position) (ast.Position, bool) {
	lines := strings.Split(src, "\n")
	if pos.Line-1 < 0 || pos.Line-1 >= len(lines) {
		return ast.Position{}, false
	}
	line := lines[pos.Line-1]
	col := pos.Column - 1
	if col <= 0 || col > len(line) {
		return ast.Position{}, false
	}
	if line[col-1] != '.' {
		return ast.Position{}, false
	}
	return ast.Position{Line: pos.Line, Column: col - 1}, true
}

func memberCompletions(doc *Document, before ast.Position, pos ast.Position) []CompletionItem {
	node := stmtsAt(doc.Program.Statements, before)
	id, ok := node.(*ast.Identifier)
	if !ok {
		return nil
	}
	scope := doc.scopeAt(pos)
	if scope == nil {
		return nil
	}
	b, ok := scope.Lookup(id.Name)
	if !ok {
		return nil
	}
	if b.Uncertain {
		var items []CompletionItem
		for name, docs := range capabilityDocs {
			items = append(items, CompletionItem{Label: name, Kind: KindFunction, Documentation: docs})
		}
		return items
	}
	typeName := strings.TrimSuffix(b.TypeDesc, "?")
	if decl, ok := lookupTypeDecl(doc.Program, typeName); ok && decl.IsObject() {
		items := make([]CompletionItem, 0, len(decl.Fields))
		for _, f := range decl.Fields {
			items = append(items, CompletionItem{Label: f.Name, Kind: KindVariable, Detail: typeDesc(f.Type)})
		}
		return items
	}
	return nil
}
