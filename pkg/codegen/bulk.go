package codegen

import (
	"context"

	"github.com/thinklang/thinklang/pkg/ast"
)

// bulkBuiltinCompilers dispatches the spec §4.9 bulk-processing
// builtins to the Executor method each one lowers to, the same way
// compileCallExpr special-cases unwrap/expect/or/map for MemberExpr
// callees. Keyed by method expression so each compiler can stay a
// regular *Compiler method. Filled in init because those methods reach
// compileCallExpr, which reads this map.
var bulkBuiltinCompilers map[string]func(*Compiler, *ast.CallExpr) Expr

func init() {
	bulkBuiltinCompilers = map[string]func(*Compiler, *ast.CallExpr) Expr{
		"batch":       (*Compiler).compileBatchCall,
		"chunkText":   (*Compiler).compileChunkTextCall,
		"chunkArray":  (*Compiler).compileChunkArrayCall,
		"mapThink":    (*Compiler).compileMapThinkCall,
		"reduceThink": (*Compiler).compileReduceThinkCall,
		"streamThink": (*Compiler).compileStreamThinkCall,
		"streamInfer": (*Compiler).compileStreamInferCall,
	}
}

func optionalArg(args []ast.Expr, idx int) ast.Expr {
	if idx < len(args) {
		return args[idx]
	}
	return nil
}

// compileObjectArg compiles an options-bag argument; a missing argument
// compiles to an empty map rather than needing a nil check at every call site.
func (c *Compiler) compileObjectArg(e ast.Expr) Expr {
	if e == nil {
		return func(ctx context.Context, ex Executor, env *Env) (any, error) { return map[string]any{}, nil }
	}
	return c.compileExpr(e)
}

func asObject(v any) map[string]any {
	if m, ok := v.(map[string]any); ok {
		return m
	}
	return map[string]any{}
}

func asArray(v any) []any {
	if a, ok := v.([]any); ok {
		return a
	}
	return nil
}

func numberField(m map[string]any, key string) (float64, bool) {
	f, ok := m[key].(float64)
	return f, ok
}

func stringField(m map[string]any, key string) (string, bool) {
	s, ok := m[key].(string)
	return s, ok
}

func toBatchOpts(m map[string]any) BatchOpts {
	var opts BatchOpts
	if v, ok := numberField(m, "maxConcurrency"); ok {
		opts.MaxConcurrency = int(v)
	}
	if v, ok := numberField(m, "costBudget"); ok {
		opts.CostBudget = v
		opts.HasCostBudget = true
	}
	if v, ok := stringField(m, "onError"); ok && v == "fail-fast" {
		opts.OnErrorFailFast = true
	}
	if v, ok := numberField(m, "rateLimit"); ok {
		opts.RateLimitMs = int(v)
	}
	return opts
}

func toChunkTextOpts(m map[string]any) ChunkTextOpts {
	var opts ChunkTextOpts
	if v, ok := numberField(m, "maxChars"); ok {
		opts.MaxChars = int(v)
	}
	if v, ok := numberField(m, "maxTokens"); ok {
		opts.MaxTokens = int(v)
	}
	if v, ok := stringField(m, "strategy"); ok {
		opts.Strategy = v
	}
	if v, ok := numberField(m, "overlap"); ok {
		opts.Overlap = int(v)
	}
	if v, ok := stringField(m, "model"); ok {
		opts.Model = v
	}
	return opts
}

func batchResultToValue(r BatchResult) map[string]any {
	errs := make([]any, len(r.Errors))
	for i, e := range r.Errors {
		errs[i] = e.Error()
	}
	results := r.Results
	if results == nil {
		results = []any{}
	}
	return map[string]any{
		"results":         results,
		"errors":          errs,
		"totalItems":      float64(r.TotalItems),
		"successCount":    float64(r.SuccessCount),
		"errorCount":      float64(r.ErrorCount),
		"totalCostUsd":    r.TotalCostUsd,
		"totalDurationMs": float64(r.TotalDurationMs),
	}
}

func streamEventsToValue(events []StreamEvent) []any {
	out := make([]any, len(events))
	for i, ev := range events {
		out[i] = map[string]any{
			"index":       float64(ev.Index),
			"data":        ev.Data,
			"totalChunks": float64(ev.TotalChunks),
		}
	}
	return out
}

// compileBatchCall lowers batch(items, processor, opts?) (spec
// §4.9.1): processor is a ThinkLang function value, invoked through
// callValue the same way an ordinary call would.
func (c *Compiler) compileBatchCall(e *ast.CallExpr) Expr {
	items := c.compileExpr(optionalArg(e.Args, 0))
	processor := c.compileExpr(optionalArg(e.Args, 1))
	opts := c.compileObjectArg(optionalArg(e.Args, 2))

	return func(ctx context.Context, ex Executor, env *Env) (any, error) {
		itemsV, err := items(ctx, ex, env)
		if err != nil {
			return nil, err
		}
		procV, err := processor(ctx, ex, env)
		if err != nil {
			return nil, err
		}
		optsV, err := opts(ctx, ex, env)
		if err != nil {
			return nil, err
		}

		var callErr error
		proc := func(item any, index int) (any, error) {
			v, err := callValue(ctx, ex, procV, []any{item, float64(index)})
			if err != nil {
				callErr = err
				return nil, err
			}
			return v, nil
		}
		result, err := ex.Batch(ctx, asArray(itemsV), proc, toBatchOpts(asObject(optsV)))
		if err != nil {
			if callErr != nil {
				return nil, callErr
			}
			return nil, err
		}
		return batchResultToValue(result), nil
	}
}

// compileChunkTextCall lowers chunkText(text, opts?) (spec §4.9.2).
func (c *Compiler) compileChunkTextCall(e *ast.CallExpr) Expr {
	text := c.compileExpr(optionalArg(e.Args, 0))
	opts := c.compileObjectArg(optionalArg(e.Args, 1))

	return func(ctx context.Context, ex Executor, env *Env) (any, error) {
		textV, err := text(ctx, ex, env)
		if err != nil {
			return nil, err
		}
		optsV, err := opts(ctx, ex, env)
		if err != nil {
			return nil, err
		}
		s, _ := textV.(string)
		chunks := ex.ChunkText(s, toChunkTextOpts(asObject(optsV)))
		out := make([]any, len(chunks))
		for i, ch := range chunks {
			out[i] = ch
		}
		return out, nil
	}
}

// compileChunkArrayCall lowers chunkArray(items, chunkSize) (spec §4.9.3).
func (c *Compiler) compileChunkArrayCall(e *ast.CallExpr) Expr {
	items := c.compileExpr(optionalArg(e.Args, 0))
	chunkSize := c.compileExpr(optionalArg(e.Args, 1))

	return func(ctx context.Context, ex Executor, env *Env) (any, error) {
		itemsV, err := items(ctx, ex, env)
		if err != nil {
			return nil, err
		}
		sizeV, err := chunkSize(ctx, ex, env)
		if err != nil {
			return nil, err
		}
		size, _ := sizeV.(float64)
		chunks, err := ex.ChunkArray(asArray(itemsV), int(size))
		if err != nil {
			return nil, err
		}
		out := make([]any, len(chunks))
		for i, group := range chunks {
			out[i] = group
		}
		return out, nil
	}
}

// compileMapThinkCall lowers mapThink<T>(items, processor, opts?)
// (spec §4.9.5): processor(item, index) builds the per-item prompt;
// each think's jsonSchema is compiled from the type argument T, the same
// way compileAICall derives it.
func (c *Compiler) compileMapThinkCall(e *ast.CallExpr) Expr {
	sch := c.schema.Compile(e.TypeArg)
	schemaName := c.schema.HostTypeString(e.TypeArg)

	items := c.compileExpr(optionalArg(e.Args, 0))
	processor := c.compileExpr(optionalArg(e.Args, 1))
	opts := c.compileObjectArg(optionalArg(e.Args, 2))

	return func(ctx context.Context, ex Executor, env *Env) (any, error) {
		itemsV, err := items(ctx, ex, env)
		if err != nil {
			return nil, err
		}
		procV, err := processor(ctx, ex, env)
		if err != nil {
			return nil, err
		}
		optsV, err := opts(ctx, ex, env)
		if err != nil {
			return nil, err
		}

		var templateErr error
		template := func(item any, index int) AIOptions {
			v, err := callValue(ctx, ex, procV, []any{item, float64(index)})
			if err != nil {
				templateErr = err
				return AIOptions{}
			}
			prompt, _ := v.(string)
			return AIOptions{Kind: ast.CallThink, Schema: sch, SchemaName: schemaName, Prompt: prompt}
		}
		result, err := ex.MapThink(ctx, asArray(itemsV), template, toBatchOpts(asObject(optsV)))
		if templateErr != nil {
			return nil, templateErr
		}
		if err != nil {
			return nil, err
		}
		return batchResultToValue(result), nil
	}
}

// compileReduceThinkCall lowers reduceThink<T>(items, batchSize, reduce)
// (spec §4.9.5): reduce(group) builds the per-group prompt.
func (c *Compiler) compileReduceThinkCall(e *ast.CallExpr) Expr {
	sch := c.schema.Compile(e.TypeArg)
	schemaName := c.schema.HostTypeString(e.TypeArg)

	items := c.compileExpr(optionalArg(e.Args, 0))
	batchSize := c.compileExpr(optionalArg(e.Args, 1))
	reduceFn := c.compileExpr(optionalArg(e.Args, 2))

	return func(ctx context.Context, ex Executor, env *Env) (any, error) {
		itemsV, err := items(ctx, ex, env)
		if err != nil {
			return nil, err
		}
		sizeV, err := batchSize(ctx, ex, env)
		if err != nil {
			return nil, err
		}
		size, _ := sizeV.(float64)
		fnV, err := reduceFn(ctx, ex, env)
		if err != nil {
			return nil, err
		}

		var reduceErr error
		reduce := func(group []any) AIOptions {
			v, err := callValue(ctx, ex, fnV, []any{group})
			if err != nil {
				reduceErr = err
				return AIOptions{}
			}
			prompt, _ := v.(string)
			return AIOptions{Kind: ast.CallThink, Schema: sch, SchemaName: schemaName, Prompt: prompt}
		}
		result, err := ex.ReduceThink(ctx, asArray(itemsV), int(size), reduce)
		if reduceErr != nil {
			return nil, reduceErr
		}
		if err != nil {
			return nil, err
		}
		return result, nil
	}
}

// compileStreamThinkCall lowers streamThink<T>(prompt, opts?) (spec
// §4.9.4), draining the lazy sequence eagerly since ThinkLang has no
// lazy-consumption syntax (see Executor.StreamThink's doc comment).
func (c *Compiler) compileStreamThinkCall(e *ast.CallExpr) Expr {
	sch := c.schema.Compile(e.TypeArg)
	schemaName := c.schema.HostTypeString(e.TypeArg)

	prompt := c.compileExpr(optionalArg(e.Args, 0))
	opts := c.compileObjectArg(optionalArg(e.Args, 1))

	return func(ctx context.Context, ex Executor, env *Env) (any, error) {
		promptV, err := prompt(ctx, ex, env)
		if err != nil {
			return nil, err
		}
		optsV, err := opts(ctx, ex, env)
		if err != nil {
			return nil, err
		}
		s, _ := promptV.(string)
		aiOpts := AIOptions{Kind: ast.CallThink, Schema: sch, SchemaName: schemaName, Prompt: s}
		events, err := ex.StreamThink(ctx, aiOpts, toChunkTextOpts(asObject(optsV)))
		if err != nil {
			return nil, err
		}
		return streamEventsToValue(events), nil
	}
}

// compileStreamInferCall lowers streamInfer<T>(items, processor) (spec
// §4.9.4): processor(item, index) builds the per-item infer value.
func (c *Compiler) compileStreamInferCall(e *ast.CallExpr) Expr {
	sch := c.schema.Compile(e.TypeArg)
	schemaName := c.schema.HostTypeString(e.TypeArg)

	items := c.compileExpr(optionalArg(e.Args, 0))
	processor := c.compileExpr(optionalArg(e.Args, 1))

	return func(ctx context.Context, ex Executor, env *Env) (any, error) {
		itemsV, err := items(ctx, ex, env)
		if err != nil {
			return nil, err
		}
		procV, err := processor(ctx, ex, env)
		if err != nil {
			return nil, err
		}

		var templateErr error
		template := func(item any, index int) AIOptions {
			v, err := callValue(ctx, ex, procV, []any{item, float64(index)})
			if err != nil {
				templateErr = err
				return AIOptions{}
			}
			return AIOptions{Kind: ast.CallInfer, Schema: sch, SchemaName: schemaName, Value: v}
		}
		events, err := ex.StreamInfer(ctx, asArray(itemsV), template)
		if templateErr != nil {
			return nil, templateErr
		}
		if err != nil {
			return nil, err
		}
		return streamEventsToValue(events), nil
	}
}
