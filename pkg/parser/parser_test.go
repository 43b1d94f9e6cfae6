package parser

import (
	"testing"

	"github.com/thinklang/thinklang/pkg/ast"
)

func mustParse(t *testing.T, src string) *ast.Program {
	t.Helper()
	prog, err := Parse("t.tl", src)
	if err != nil {
		t.Fatalf("unexpected parse error: %v", err)
	}
	return prog
}

func TestParse_TypeDeclObject(t *testing.T) {
	prog := mustParse(t, `type Review { score: int (range 0..10), summary: string (maxLength: 280) }`)
	if len(prog.Statements) != 1 {
		t.Fatalf("expected 1 statement, got %d", len(prog.Statements))
	}
	td, ok := prog.Statements[0].(*ast.TypeDecl)
	if !ok {
		t.Fatalf("expected *ast.TypeDecl, got %T", prog.Statements[0])
	}
	if !td.IsObject() || len(td.Fields) != 2 {
		t.Fatalf("expected object type with 2 fields, got %+v", td)
	}
	if *td.Fields[0].Annotations.RangeMin != 0 || *td.Fields[0].Annotations.RangeMax != 10 {
		t.Errorf("range annotation not parsed: %+v", td.Fields[0].Annotations)
	}
	if *td.Fields[1].Annotations.MaxLength != 280 {
		t.Errorf("maxLength annotation not parsed: %+v", td.Fields[1].Annotations)
	}
}

func TestParse_TypeAlias(t *testing.T) {
	prog := mustParse(t, `type Status = string | int`)
	td := prog.Statements[0].(*ast.TypeDecl)
	if td.IsObject() {
		t.Fatalf("expected alias decl, got object")
	}
	if _, ok := td.Alias.(*ast.UnionType); !ok {
		t.Fatalf("expected union alias, got %T", td.Alias)
	}
}

func TestParse_ThinkCall(t *testing.T) {
	prog := mustParse(t, `let r: Confident<Review> = think<Review>("rate this product") with context: { product } guard { len: 1..500 } on_fail: retry(2) then fallback("n/a")`)
	let := prog.Statements[0].(*ast.LetStmt)
	call, ok := let.Value.(*ast.AICallExpr)
	if !ok {
		t.Fatalf("expected AICallExpr, got %T", let.Value)
	}
	if call.Kind != ast.CallThink {
		t.Errorf("expected think, got %v", call.Kind)
	}
	if call.WithContext == nil {
		t.Errorf("expected withContext to be set")
	}
	if len(call.Guards) != 1 {
		t.Fatalf("expected 1 guard, got %d", len(call.Guards))
	}
	if call.OnFail == nil || call.OnFail.RetryCount != 2 || call.OnFail.Fallback == nil {
		t.Errorf("expected onFail retry(2) then fallback, got %+v", call.OnFail)
	}
}

func TestParse_ReasonCall(t *testing.T) {
	prog := mustParse(t, `let r = reason<string> { goal: "pick a winner"; steps: 1. "consider price" 2. "consider quality" }`)
	let := prog.Statements[0].(*ast.LetStmt)
	call := let.Value.(*ast.AICallExpr)
	if call.Kind != ast.CallReason {
		t.Fatalf("expected reason, got %v", call.Kind)
	}
	if len(call.Steps) != 2 {
		t.Fatalf("expected 2 steps, got %d", len(call.Steps))
	}
	if call.Goal == nil {
		t.Errorf("expected goal to be set")
	}
}

func TestParse_AgentCall(t *testing.T) {
	prog := mustParse(t, `let r = agent<string>("find the weather") { tools: [searchTool, weatherTool]; maxTurns: 5 }`)
	let := prog.Statements[0].(*ast.LetStmt)
	call := let.Value.(*ast.AICallExpr)
	if call.Kind != ast.CallAgent {
		t.Fatalf("expected agent, got %v", call.Kind)
	}
	if len(call.Tools) != 2 {
		t.Fatalf("expected 2 tools, got %d", len(call.Tools))
	}
	if call.MaxTurns == nil {
		t.Errorf("expected maxTurns to be set")
	}
}

func TestParse_MatchExpr(t *testing.T) {
	prog := mustParse(t, `let y = match x { { score: >= 8 } => "great", { score: >= 5 } => "ok", _ => "poor" }`)
	let := prog.Statements[0].(*ast.LetStmt)
	m := let.Value.(*ast.MatchExpr)
	if len(m.Arms) != 3 {
		t.Fatalf("expected 3 arms, got %d", len(m.Arms))
	}
	if !m.HasWildcard() {
		t.Errorf("expected wildcard arm detected")
	}
	first := m.Arms[0].Pattern
	if first.Kind != ast.PatternObject || first.Constraints[0].Op != ast.ConstraintGe {
		t.Errorf("unexpected first pattern: %+v", first)
	}
}

func TestParse_FuncAndToolDecl(t *testing.T) {
	prog := mustParse(t, `
func double(x: int): int {
  print x
}
tool search(query: string): string {
  description: "searches the web"
  print query
}
`)
	if len(prog.Statements) != 2 {
		t.Fatalf("expected 2 declarations, got %d", len(prog.Statements))
	}
	fn := prog.Statements[0].(*ast.FuncDecl)
	if fn.Name != "double" || len(fn.Params) != 1 {
		t.Fatalf("unexpected func decl: %+v", fn)
	}
	tool := prog.Statements[1].(*ast.ToolDecl)
	if tool.Description != "searches the web" {
		t.Fatalf("expected tool description, got %q", tool.Description)
	}
}

func TestParse_TryCatch(t *testing.T) {
	prog := mustParse(t, `
try {
  let x = think<string>("go")
} catch (ConfidenceTooLow e) {
  print e
} catch (GuardFailed) {
  print "guard failed"
}
`)
	ts := prog.Statements[0].(*ast.TryStmt)
	if len(ts.Catches) != 2 {
		t.Fatalf("expected 2 catch clauses, got %d", len(ts.Catches))
	}
	if ts.Catches[0].ErrorKind != "ConfidenceTooLow" || ts.Catches[0].Binding != "e" {
		t.Errorf("unexpected catch clause: %+v", ts.Catches[0])
	}
}

func TestParse_TestBlockReplay(t *testing.T) {
	prog := mustParse(t, `
test "reviews positive text" {
  mode: replay("snapshots/review.json")
  let r = think<string>("rate")
  assert.semantic(r, "is a rating")
}
`)
	tb := prog.Statements[0].(*ast.TestBlock)
	if tb.Mode == nil || !tb.Mode.Replay || tb.Mode.SnapshotPath != "snapshots/review.json" {
		t.Fatalf("unexpected test mode: %+v", tb.Mode)
	}
	assertStmt := tb.Body[1].(*ast.AssertStmt)
	if !assertStmt.Semantic {
		t.Errorf("expected semantic assertion")
	}
}

func TestParse_Import(t *testing.T) {
	prog := mustParse(t, `import { Review, summarize } from "./reviews.tl"
let x = 1`)
	if len(prog.Imports) != 1 {
		t.Fatalf("expected 1 import, got %d", len(prog.Imports))
	}
	imp := prog.Imports[0]
	if imp.Path != "./reviews.tl" || len(imp.Names) != 2 {
		t.Fatalf("unexpected import: %+v", imp)
	}
}

func TestParse_MalformedInputReturnsParseError(t *testing.T) {
	_, err := Parse("t.tl", `let x = `)
	if err == nil {
		t.Fatal("expected a parse error")
	}
	if _, ok := err.(*ParseError); !ok {
		t.Fatalf("expected *ParseError, got %T", err)
	}
}

func TestParse_IfElseIfElse(t *testing.T) {
	prog := mustParse(t, `
if (x > 1) {
  print "big"
} else if (x > 0) {
  print "small"
} else {
  print "zero"
}
`)
	ifs := prog.Statements[0].(*ast.IfStmt)
	if len(ifs.Else) != 1 {
		t.Fatalf("expected else-if chain of 1, got %d", len(ifs.Else))
	}
	if _, ok := ifs.Else[0].(*ast.IfStmt); !ok {
		t.Fatalf("expected nested IfStmt in else, got %T", ifs.Else[0])
	}
}

func TestParse_TypeExprVariants(t *testing.T) {
	prog := mustParse(t, `type T { a: string[], b: int?, c: Confident<bool>, d: string | int }`)
	td := prog.Statements[0].(*ast.TypeDecl)
	if _, ok := td.Fields[0].Type.(*ast.ArrayType); !ok {
		t.Errorf("expected array type for field a")
	}
	if _, ok := td.Fields[1].Type.(*ast.OptionalType); !ok {
		t.Errorf("expected optional type for field b")
	}
	if _, ok := td.Fields[2].Type.(*ast.ConfidentType); !ok {
		t.Errorf("expected Confident type for field c")
	}
	if u, ok := td.Fields[3].Type.(*ast.UnionType); !ok || len(u.Options) != 2 {
		t.Errorf("expected union type for field d, got %+v", td.Fields[3].Type)
	}
}
