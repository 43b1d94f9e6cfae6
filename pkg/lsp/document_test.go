package lsp

import (
	"strings"
	"testing"

	"github.com/thinklang/thinklang/pkg/ast"
)

// posOf returns the 1-indexed line/column of the first occurrence of
// marker in src, pointing at its first character.
func posOf(t *testing.T, src, marker string) ast.Position {
	t.Helper()
	idx := strings.Index(src, marker)
	if idx < 0 {
		t.Fatalf("marker %q not found in source", marker)
	}
	line := 1 + strings.Count(src[:idx], "\n")
	col := idx - strings.LastIndex(src[:idx], "\n")
	return ast.Position{Line: line, Column: col}
}

func TestAnalyze_ReportsCheckerErrors(t *testing.T) {
	src := `
type Review { score: int }
let r = think<Review>("rate this")
print r.score
`
	doc := analyze("t.tl", src)
	if doc.err != nil {
		t.Fatalf("unexpected parse error: %v", doc.err)
	}
	if len(doc.Check.Errors) != 1 {
		t.Fatalf("expected 1 checker error, got %d", len(doc.Check.Errors))
	}
}

func TestHover_ResolvesLocalBindingType(t *testing.T) {
	src := "let x: int = 1\nprint x\n"
	doc := analyze("t.tl", src)
	res := Hover(doc, posOf(t, src, "x\n"))
	if res == nil {
		t.Fatalf("expected hover result")
	}
	if !strings.Contains(res.Markdown, "x: int") {
		t.Errorf("expected hover to show x: int, got %q", res.Markdown)
	}
}

func TestHover_ResolvesTypeDeclaration(t *testing.T) {
	src := "type Review { score: int }\n"
	doc := analyze("t.tl", src)
	res := Hover(doc, posOf(t, src, "Review"))
	if res == nil {
		t.Fatalf("expected hover result")
	}
	if !strings.Contains(res.Markdown, "type Review") {
		t.Errorf("expected hover to describe type Review, got %q", res.Markdown)
	}
}

func TestDefinition_ResolvesLetBindingLocation(t *testing.T) {
	src := "let x: int = 1\nprint x\n"
	doc := analyze("t.tl", src)
	loc, ok := Definition(doc, posOf(t, src, "x\n"))
	if !ok {
		t.Fatalf("expected definition to resolve")
	}
	if loc.Start.Line != 1 {
		t.Errorf("expected definition on line 1, got line %d", loc.Start.Line)
	}
}

func TestDefinition_ResolvesTopLevelFunction(t *testing.T) {
	src := "func double(n: int): int {\n  print n\n}\ndouble(2)\n"
	doc := analyze("t.tl", src)
	loc, ok := Definition(doc, posOf(t, src, "double(2)"))
	if !ok {
		t.Fatalf("expected definition to resolve")
	}
	if loc.Start.Line != 1 {
		t.Errorf("expected definition on line 1, got line %d", loc.Start.Line)
	}
}

func TestCompletion_IncludesScopeVariableInsideFunction(t *testing.T) {
	src := "func f(n: int): int {\n  let total = n\n  print total\n}\n"
	doc := analyze("t.tl", src)
	items := Completion(doc, posOf(t, src, "total\n}"))
	found := false
	for _, item := range items {
		if item.Label == "total" {
			found = true
		}
	}
	if !found {
		t.Errorf("expected completion to include scope-local variable %q, got %+v", "total", items)
	}
}

func TestCompletion_AfterDotOffersCapabilitiesForUncertainValue(t *testing.T) {
	src := "type Review { score: int }\nlet r = think<Review>(\"rate this\")\nprint r.\n"
	doc := analyze("t.tl", src)
	dotPos := posOf(t, src, ".\n")
	items := Completion(doc, ast.Position{Line: dotPos.Line, Column: dotPos.Column + 1})
	found := false
	for _, item := range items {
		if item.Label == "unwrap" {
			found = true
		}
	}
	if !found {
		t.Errorf("expected capability completions, got %+v", items)
	}
}

func TestDocumentSymbols_ListsTopLevelDeclarations(t *testing.T) {
	src := "type Review { score: int }\nfunc rate(x: int): int {\n  print x\n}\n"
	doc := analyze("t.tl", src)
	syms := DocumentSymbols(doc)
	if len(syms) != 2 {
		t.Fatalf("expected 2 top-level symbols, got %d: %+v", len(syms), syms)
	}
	if syms[0].Name != "Review" || len(syms[0].Children) != 1 {
		t.Errorf("expected Review with 1 field, got %+v", syms[0])
	}
}

func TestSignatureHelpAt_ResolvesUserFunctionParams(t *testing.T) {
	src := "func add(a: int, b: int): int {\n  print a\n}\nadd(1, 2)\n"
	doc := analyze("t.tl", src)
	help := SignatureHelpAt(doc, posOf(t, src, "1, 2)"))
	if help == nil {
		t.Fatalf("expected signature help")
	}
	if !strings.Contains(help.Label, "add(") {
		t.Errorf("expected signature label to name add, got %q", help.Label)
	}
}
