package codegen

import (
	"context"

	"github.com/thinklang/thinklang/pkg/ast"
	"github.com/thinklang/thinklang/pkg/schema"
)

// AIOptions is the lowered options record every think/infer/reason/agent
// expression compiles to (spec §4.5): "{jsonSchema, prompt|value|goal+steps,
// context?, withoutKeys?, guards?, retryCount?, fallback?, schemaName?, uncertain?}".
type AIOptions struct {
	Kind       ast.AICallKind
	Schema     *schema.Schema
	SchemaName string

	Prompt string // think, agent
	Value  any    // infer
	Hint   string // infer, optional

	Goal  string // reason
	Steps []ast.ReasonStep

	Context        map[string]any
	WithoutKeys    []string
	Guards         []GuardSpec
	RetryCount     int
	Fallback       func(ctx context.Context, ex Executor, env *Env) (any, error)
	Uncertain      bool

	ToolNames []string // agent
	MaxTurns  int      // agent, 0 uses the runtime default
}

// GuardSpec is one lowered `guard { name: constraint[..rangeEnd] }` entry
// (spec §4.5, §4.7.2).
type GuardSpec struct {
	Name       string
	Constraint any
	RangeEnd   any // non-nil for range-shaped guards
	HasRange   bool
}

// ToolConfig is what `R.defineTool(cfg)` receives: a named, described,
// schema-checked callable built from a `tool` declaration.
type ToolConfig struct {
	Name        string
	Description string
	ParamNames  []string
	ParamSchema *schema.Schema
	Fn          func(ctx context.Context, ex Executor, args map[string]any) (any, error)
}

// ToolDef pairs a compiled tool body with its declaration metadata for
// agent-loop registration.
type ToolDef struct {
	Config ToolConfig
	Func   *Func
}

// AgentResult is `agent`'s return shape (spec §4.8): final data plus the
// turn/usage/tool-call bookkeeping callers may inspect.
type AgentResult struct {
	Data            any
	Turns           int
	TotalUsage      Usage
	ToolCallHistory []ToolCallRecord
}

type Usage struct {
	InputTokens  int
	OutputTokens int
}

type ToolCallRecord struct {
	ToolCallID string
	ToolName   string
	Args       map[string]any
	Output     any
	IsError    bool
	Message    string
}

// Executor is the injected runtime symbol `R` of spec §4.5: the sole
// dependency a compiled program has on the outside world.
type Executor interface {
	Think(ctx context.Context, opts AIOptions) (any, error)
	Infer(ctx context.Context, opts AIOptions) (any, error)
	Reason(ctx context.Context, opts AIOptions) (any, error)
	Agent(ctx context.Context, opts AIOptions) (any, error)

	DefineTool(cfg ToolConfig)
	CallTool(ctx context.Context, name string, args map[string]any) (any, error)

	Batch(ctx context.Context, items []any, processor func(item any, index int) (any, error), opts BatchOpts) (BatchResult, error)
	MapThink(ctx context.Context, items []any, template func(item any, index int) AIOptions, opts BatchOpts) (BatchResult, error)
	ReduceThink(ctx context.Context, items []any, batchSize int, reduce func(group []any) AIOptions) (any, error)

	ChunkText(text string, opts ChunkTextOpts) []string
	ChunkArray(items []any, chunkSize int) ([][]any, error)
	StreamThink(ctx context.Context, opts AIOptions, chunkOpts ChunkTextOpts) ([]StreamEvent, error)
	StreamInfer(ctx context.Context, items []any, template func(item any, index int) AIOptions) ([]StreamEvent, error)
}

// ChunkTextOpts configures chunkText/streamThink's chunking (spec
// §4.9.2). Defined here rather than in pkg/bulk so the Executor
// interface above can reference it without an import cycle (pkg/bulk
// already depends on pkg/codegen for Executor/AIOptions); pkg/bulk's
// ChunkTextOpts is a type alias to this one.
type ChunkTextOpts struct {
	MaxChars  int
	MaxTokens int
	Strategy  string
	Overlap   int
	Model     string
}

// StreamEvent is one element of streamThink/streamInfer's collected
// result (spec §4.9.4), aliased by pkg/bulk for the same reason as
// ChunkTextOpts above.
type StreamEvent struct {
	Index       int
	Data        any
	TotalChunks int
	Err         error
}

// BatchOpts mirrors spec §4.9.1's batch() option bag.
type BatchOpts struct {
	MaxConcurrency int
	CostBudget     float64
	HasCostBudget  bool
	OnErrorFailFast bool
	RateLimitMs    int
}

type BatchResult struct {
	Results          []any
	Errors           []error
	TotalItems       int
	SuccessCount     int
	ErrorCount       int
	TotalCostUsd     float64
	TotalDurationMs  int64
}
