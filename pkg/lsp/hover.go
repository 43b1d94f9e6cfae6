package lsp

import (
	"fmt"
	"strings"

	"github.com/thinklang/thinklang/pkg/ast"
)

// capabilityDocs documents the fixed capability surface of an
// uncertain value (spec §4.3.1), shown on hover over `.foo` when foo
// is one of these rather than a struct field.
var capabilityDocs = map[string]string{
	"unwrap":      "unwrap(): T — throws if not confident",
	"expect":      "expect(message: string): T — throws with message if not confident",
	"or":          "or(fallback: T): T — fallback if not confident",
	"map":         "map(fn: T -> U): Confident<U> — transforms the inner value, confidence unchanged",
	"value":       "value: T — the raw inner value, regardless of confidence",
	"confidence":  "confidence: float — the model's confidence score",
	"reasoning":   "reasoning: string — the model's stated reasoning",
	"isConfident": "isConfident: bool — whether confidence cleared the configured threshold",
}

// Hover resolves hover text for the node at pos, or nil if there is
// nothing to show.
func Hover(doc *Document, pos ast.Position) *HoverResult {
	if doc.Program == nil {
		return nil
	}
	node := stmtsAt(doc.Program.Statements, pos)
	switch n := node.(type) {
	case *ast.Identifier:
		return hoverIdentifier(doc, n)
	case *ast.MemberExpr:
		return hoverMember(doc, n)
	}
	for _, s := range doc.Program.Statements {
		if d, ok := s.(*ast.TypeDecl); ok && contains(d.Location, pos) {
			return &HoverResult{Markdown: renderTypeDecl(d), Range: d.Location}
		}
	}
	return nil
}

// HoverResult is this package's hover result, converted to the wire
// WireHover type at the LSP boundary.
type HoverResult struct {
	Markdown string
	Range    ast.Location
}

func hoverIdentifier(doc *Document, id *ast.Identifier) *HoverResult {
	if scope := doc.scopeAt(id.Location.Start); scope != nil {
		if b, ok := scope.Lookup(id.Name); ok {
			text := fmt.Sprintf("```\n%s: %s\n```", id.Name, b.TypeDesc)
			if b.Uncertain {
				text += "\n\nuncertain — restricted to the capability set until narrowed"
			}
			return &HoverResult{Markdown: text, Range: id.Location}
		}
	}
	if decl, ok := lookupTypeDecl(doc.Program, id.Name); ok {
		return &HoverResult{Markdown: renderTypeDecl(decl), Range: id.Location}
	}
	if fn, ok := lookupFuncDecl(doc.Program, id.Name); ok {
		return &HoverResult{Markdown: renderFuncDecl(fn), Range: id.Location}
	}
	if tool, ok := lookupToolDecl(doc.Program, id.Name); ok {
		return &HoverResult{Markdown: renderToolDecl(tool), Range: id.Location}
	}
	return nil
}

func hoverMember(doc *Document, m *ast.MemberExpr) *HoverResult {
	if docs, ok := capabilityDocs[m.Property]; ok {
		return &HoverResult{Markdown: fmt.Sprintf("```\n%s\n```", docs), Range: m.Location}
	}
	if objID, ok := m.Object.(*ast.Identifier); ok {
		if scope := doc.scopeAt(m.Location.Start); scope != nil {
			if b, ok := scope.Lookup(objID.Name); ok {
				if decl, ok := lookupTypeDecl(doc.Program, strings.TrimSuffix(b.TypeDesc, "?")); ok {
					for _, f := range decl.Fields {
						if f.Name == m.Property {
							return &HoverResult{Markdown: fmt.Sprintf("```\n%s.%s: %s\n```", objID.Name, f.Name, typeDesc(f.Type)), Range: m.Location}
						}
					}
				}
			}
		}
	}
	return nil
}

func lookupTypeDecl(prog *ast.Program, name string) (*ast.TypeDecl, bool) {
	for _, s := range prog.Statements {
		if d, ok := s.(*ast.TypeDecl); ok && d.Name == name {
			return d, true
		}
	}
	return nil, false
}

func lookupFuncDecl(prog *ast.Program, name string) (*ast.FuncDecl, bool) {
	for _, s := range prog.Statements {
		if d, ok := s.(*ast.FuncDecl); ok && d.Name == name {
			return d, true
		}
	}
	return nil, false
}

func lookupToolDecl(prog *ast.Program, name string) (*ast.ToolDecl, bool) {
	for _, s := range prog.Statements {
		if d, ok := s.(*ast.ToolDecl); ok && d.Name == name {
			return d, true
		}
	}
	return nil, false
}

func renderTypeDecl(d *ast.TypeDecl) string {
	if !d.IsObject() {
		return fmt.Sprintf("```\ntype %s = %s\n```", d.Name, typeDesc(d.Alias))
	}
	var b strings.Builder
	fmt.Fprintf(&b, "```\ntype %s {\n", d.Name)
	for _, f := range d.Fields {
		opt := ""
		if f.Optional {
			opt = "?"
		}
		fmt.Fprintf(&b, "  %s%s: %s\n", f.Name, opt, typeDesc(f.Type))
	}
	b.WriteString("}\n```")
	return b.String()
}

func renderFuncDecl(d *ast.FuncDecl) string {
	return fmt.Sprintf("```\nfunc %s(%s): %s\n```", d.Name, renderParams(d.Params), typeDesc(d.ReturnType))
}

func renderToolDecl(d *ast.ToolDecl) string {
	return fmt.Sprintf("```\ntool %s(%s): %s\n```\n%s", d.Name, renderParams(d.Params), typeDesc(d.ReturnType), d.Description)
}

func renderParams(params []ast.Param) string {
	parts := make([]string, len(params))
	for i, p := range params {
		parts[i] = fmt.Sprintf("%s: %s", p.Name, typeDesc(p.Type))
	}
	return strings.Join(parts, ", ")
}
