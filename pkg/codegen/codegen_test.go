package codegen

import (
	"context"
	"testing"

	"github.com/thinklang/thinklang/pkg/ast"
	"github.com/thinklang/thinklang/pkg/parser"
	"github.com/thinklang/thinklang/pkg/symtab"
)

// stubExecutor is a minimal Executor for exercising compiled programs
// without a real provider.
type stubExecutor struct {
	lastThinkOpts AIOptions
	thinkResult   any
}

func (s *stubExecutor) Think(ctx context.Context, opts AIOptions) (any, error) {
	s.lastThinkOpts = opts
	if s.thinkResult != nil {
		return s.thinkResult, nil
	}
	return map[string]any{"score": 9.0}, nil
}
func (s *stubExecutor) Infer(ctx context.Context, opts AIOptions) (any, error)  { return s.Think(ctx, opts) }
func (s *stubExecutor) Reason(ctx context.Context, opts AIOptions) (any, error) { return s.Think(ctx, opts) }
func (s *stubExecutor) Agent(ctx context.Context, opts AIOptions) (any, error)  { return s.Think(ctx, opts) }
func (s *stubExecutor) DefineTool(cfg ToolConfig)                              {}
func (s *stubExecutor) CallTool(ctx context.Context, name string, args map[string]any) (any, error) {
	return nil, nil
}
func (s *stubExecutor) Batch(ctx context.Context, items []any, processor func(item any, index int) (any, error), opts BatchOpts) (BatchResult, error) {
	return BatchResult{}, nil
}
func (s *stubExecutor) MapThink(ctx context.Context, items []any, template func(item any, index int) AIOptions, opts BatchOpts) (BatchResult, error) {
	return BatchResult{}, nil
}
func (s *stubExecutor) ReduceThink(ctx context.Context, items []any, batchSize int, reduce func(group []any) AIOptions) (any, error) {
	return nil, nil
}
func (s *stubExecutor) ChunkText(text string, opts ChunkTextOpts) []string { return []string{text} }
func (s *stubExecutor) ChunkArray(items []any, chunkSize int) ([][]any, error) {
	return [][]any{items}, nil
}
func (s *stubExecutor) StreamThink(ctx context.Context, opts AIOptions, chunkOpts ChunkTextOpts) ([]StreamEvent, error) {
	return nil, nil
}
func (s *stubExecutor) StreamInfer(ctx context.Context, items []any, template func(item any, index int) AIOptions) ([]StreamEvent, error) {
	return nil, nil
}

func compileOrFatal(t *testing.T, src string) *Program {
	t.Helper()
	prog, err := parser.Parse("t.tl", src)
	if err != nil {
		t.Fatalf("parse error: %v", err)
	}
	types := symtab.NewTypeTable()
	for _, stmt := range prog.Statements {
		if td, ok := stmt.(*ast.TypeDecl); ok {
			types.Define(td)
		}
	}
	out, err := Compile(prog, types)
	if err != nil {
		t.Fatalf("compile error: %v", err)
	}
	return out
}

func runBody(t *testing.T, ex *stubExecutor, prog *Program) {
	t.Helper()
	ctx := context.Background()
	for _, stmt := range prog.Body {
		if _, err := stmt(ctx, ex, prog.TopEnv); err != nil {
			t.Fatalf("execution error: %v", err)
		}
	}
}

func TestCompile_LetAndFunctionCall(t *testing.T) {
	prog := compileOrFatal(t, `
func double(n: int): int {
  n * 2
}
let x = double(21)
print x
`)
	ex := &stubExecutor{}
	runBody(t, ex, prog)
	v, ok := prog.TopEnv.Get("x")
	if !ok {
		t.Fatal("expected x defined in top env after run")
	}
	if v.(float64) != 42 {
		t.Errorf("expected 42, got %v", v)
	}
}

func TestCompile_PipelineCallsStagesInOrder(t *testing.T) {
	prog := compileOrFatal(t, `
func inc(n: int): int {
  n + 1
}
func double(n: int): int {
  n * 2
}
let x = 1 |> inc |> double
`)
	ex := &stubExecutor{}
	runBody(t, ex, prog)
	v, _ := prog.TopEnv.Get("x")
	if v.(float64) != 4 {
		t.Errorf("expected (1+1)*2=4, got %v", v)
	}
}

func TestCompile_MatchWildcardFallsThrough(t *testing.T) {
	prog := compileOrFatal(t, `
let x = match 5 { 1 => "one", _ => "other" }
print x
`)
	ex := &stubExecutor{}
	runBody(t, ex, prog)
	v, _ := prog.TopEnv.Get("x")
	if v.(string) != "other" {
		t.Errorf("expected other, got %v", v)
	}
}

func TestCompile_TryCatchDispatchesOnErrorKind(t *testing.T) {
	prog := compileOrFatal(t, `
try {
  assert false
} catch (ThinkError e) {
  print "caught"
}
`)
	ex := &stubExecutor{}
	ctx := context.Background()
	for _, stmt := range prog.Body {
		if _, err := stmt(ctx, ex, prog.TopEnv); err != nil {
			t.Fatalf("expected catch to absorb the error, got %v", err)
		}
	}
}

func TestCompile_ThinkCallReachesExecutorWithSchema(t *testing.T) {
	prog := compileOrFatal(t, `
type Review { score: int }
let r = think<Review>("rate this")
`)
	ex := &stubExecutor{}
	runBody(t, ex, prog)
	if ex.lastThinkOpts.Schema == nil {
		t.Fatal("expected compiled AIOptions to carry a non-nil schema")
	}
	if ex.lastThinkOpts.Prompt != "rate this" {
		t.Errorf("expected prompt %q, got %q", "rate this", ex.lastThinkOpts.Prompt)
	}
}

func TestCompile_WithContextFlattensMemberKey(t *testing.T) {
	prog := compileOrFatal(t, `
let base = { score: 1 }
let r = think<string>("x") with context: { base.score }
`)
	ex := &stubExecutor{}
	runBody(t, ex, prog)
	if _, ok := ex.lastThinkOpts.Context["base_score"]; !ok {
		t.Errorf("expected context key 'base_score', got %+v", ex.lastThinkOpts.Context)
	}
}
