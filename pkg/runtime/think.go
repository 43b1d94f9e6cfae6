package runtime

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"github.com/thinklang/thinklang/pkg/codegen"
	"github.com/thinklang/thinklang/pkg/llms"
	"github.com/thinklang/thinklang/pkg/rterrors"
	"github.com/thinklang/thinklang/pkg/schema"
)

const systemPromptStructuredOutput = "You are a helpful assistant. Respond ONLY with JSON conforming exactly to the provided schema; no prose, no markdown fences."

func (e *Executor) Think(ctx context.Context, opts codegen.AIOptions) (any, error) {
	return e.run(ctx, "think", opts, opts.Prompt)
}

func (e *Executor) Infer(ctx context.Context, opts codegen.AIOptions) (any, error) {
	msg := fmt.Sprintf("Analyze this value: %s", prettyJSON(opts.Value))
	if opts.Hint != "" {
		msg += fmt.Sprintf("\n\nHint: %s?", opts.Hint)
	}
	return e.run(ctx, "infer", opts, msg)
}

func (e *Executor) Reason(ctx context.Context, opts codegen.AIOptions) (any, error) {
	var steps strings.Builder
	for _, s := range opts.Steps {
		fmt.Fprintf(&steps, "%d. %s\n", s.Number, s.Text)
	}
	msg := fmt.Sprintf("Goal: %s\n\nReasoning steps:\n%s\nWork through each step carefully, then produce your final structured answer.", opts.Goal, steps.String())
	return e.run(ctx, "reason", opts, msg)
}

// run implements the shared pipeline of spec §4.7 steps 1-7 for
// think/infer/reason; only the user-message shaping differs per kind,
// already folded into userMessage by the caller.
func (e *Executor) run(ctx context.Context, operation string, opts codegen.AIOptions, userMessage string) (any, error) {
	execute := func() (any, error) {
		return e.executeOnce(ctx, operation, opts, userMessage)
	}
	var fallback func(context.Context) (any, error)
	if opts.Fallback != nil {
		fallback = func(ctx context.Context) (any, error) {
			return opts.Fallback(ctx, e, codegen.NewEnv(nil))
		}
	}
	return withRetry(ctx, operation, e.handle.Provider.Name(), opts.RetryCount, fallback, execute)
}

func (e *Executor) executeOnce(ctx context.Context, operation string, opts codegen.AIOptions, userMessage string) (any, error) {
	// Step 1: schema transform (Confident projection happens at compile
	// time via schema.ConfidentShape detection on the already-built
	// schema; opts.Schema is expected to already carry it when Uncertain).
	effectiveSchema := opts.Schema

	// Step 2: context shaping.
	shapedContext := shapeContext(opts.Context, opts.WithoutKeys, e.handle.ContextBudgetTokens, e.handle.Provider.Name())

	schemaMap := map[string]any(nil)
	if effectiveSchema != nil {
		schemaMap = effectiveSchema.ToMap()
	}

	// Step 3: cache probe.
	cacheKey := CacheKey(userMessage, shapedContext, schemaMap)
	model := e.handle.Provider.Name()
	if e.handle.Cache != nil {
		slog.Debug("cache probe", "operation", operation, "model", model)
		if cached, ok := e.handle.Cache.Get(cacheKey); ok {
			return cached, nil
		}
	}

	// Step 4: prompt compose.
	fullMessage := userMessage
	if len(shapedContext) > 0 {
		fullMessage += "\n\nContext: " + prettyJSON(shapedContext)
	}

	// Step 5: call provider.
	slog.Debug("provider call", "operation", operation, "model", model)
	result, err := e.handle.Provider.Complete(ctx, llms.CompleteOptions{
		SystemPrompt: systemPromptStructuredOutput,
		UserMessage:  fullMessage,
		JSONSchema:   schemaMap,
		SchemaName:   opts.SchemaName,
	})
	if err != nil {
		slog.Warn("provider call failed", "operation", operation, "model", model, "error", err)
		return nil, err
	}

	value, err := decodeStructured(result.Data, effectiveSchema)
	if err != nil {
		return nil, err
	}

	// Step 6: post-process.
	e.handle.Cost.Record(operation, result.Model, userMessage, result.Usage.InputTokens, result.Usage.OutputTokens)
	if err := evaluateGuards(opts.Guards, value); err != nil {
		return nil, err
	}
	if e.handle.Cache != nil {
		e.handle.Cache.Set(cacheKey, value)
	}
	if schema.ConfidentShape(effectiveSchema) {
		value = asConfident(value)
	}
	return value, nil
}

// decodeStructured parses a provider's JSON response against the
// requested schema into a plain Go value.
func decodeStructured(raw string, s *schema.Schema) (any, error) {
	var v any
	if err := json.Unmarshal([]byte(raw), &v); err != nil {
		return nil, &rterrors.SchemaViolation{Message: err.Error(), Raw: raw}
	}
	return v, nil
}

// asConfident normalizes a decoded value into the map[string]any shape
// {value, confidence, reasoning} this implementation uses at runtime
// to represent Confident<T> (spec §4.7.1).
func asConfident(v any) any {
	m, ok := v.(map[string]any)
	if !ok {
		return v
	}
	return m
}
