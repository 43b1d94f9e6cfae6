package runtime

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/thinklang/thinklang/pkg/codegen"
	"github.com/thinklang/thinklang/pkg/llms"
	"github.com/thinklang/thinklang/pkg/rterrors"
)

const defaultMaxTurns = 10

// Agent implements the bounded multi-turn conversation of spec §4.8.
func (e *Executor) Agent(ctx context.Context, opts codegen.AIOptions) (any, error) {
	run := func() (any, error) {
		return e.runAgentLoop(ctx, opts)
	}
	var fallback func(context.Context) (any, error)
	if opts.Fallback != nil {
		fallback = func(ctx context.Context) (any, error) {
			return opts.Fallback(ctx, e, codegen.NewEnv(nil))
		}
	}
	return withRetry(ctx, "agent", e.handle.Provider.Name(), opts.RetryCount, fallback, run)
}

func (e *Executor) runAgentLoop(ctx context.Context, opts codegen.AIOptions) (any, error) {
	maxTurns := opts.MaxTurns
	if maxTurns <= 0 {
		maxTurns = defaultMaxTurns
	}

	tools := e.lookupTools(opts.ToolNames)

	systemPrompt := "You are a helpful assistant with tools; respond directly when done."
	shapedContext := shapeContext(opts.Context, opts.WithoutKeys, e.handle.ContextBudgetTokens, e.handle.Provider.Name())
	if len(shapedContext) > 0 {
		systemPrompt += "\n\nContext: " + prettyJSON(shapedContext)
	}

	messages := []llms.Message{{Role: "user", Content: opts.Prompt}}

	var total codegen.Usage
	var history []codegen.ToolCallRecord

	model := e.handle.Provider.Name()
	turn := 0
	for {
		turn++
		lastChance := turn == maxTurns
		slog.Debug("agent turn", "operation", "agent", "model", model, "attempt", turn)

		completeOpts := llms.CompleteOptions{
			SystemPrompt: systemPrompt,
			Messages:     messages,
		}
		if !lastChance {
			completeOpts.Tools = toLLMTools(tools)
		} else if opts.Schema != nil {
			completeOpts.JSONSchema = opts.Schema.ToMap()
			completeOpts.SchemaName = opts.SchemaName
		}

		result, err := e.handle.Provider.Complete(ctx, completeOpts)
		if err != nil {
			return nil, err
		}
		total.InputTokens += result.Usage.InputTokens
		total.OutputTokens += result.Usage.OutputTokens
		e.handle.Cost.Record("agent", result.Model, opts.Prompt, result.Usage.InputTokens, result.Usage.OutputTokens)

		if result.StopReason == llms.StopToolUse && len(result.ToolCalls) > 0 {
			messages = append(messages, llms.Message{Role: "assistant", ToolCalls: result.ToolCalls})
			for _, call := range result.ToolCalls {
				record := e.invokeAgentTool(ctx, call)
				history = append(history, record)
				messages = append(messages, llms.Message{
					Role:       "tool",
					ToolCallID: call.ID,
					Content:    toolResultContent(record),
				})
			}
			if turn >= maxTurns {
				slog.Warn("agent exhausted max turns", "operation", "agent", "model", model, "attempt", turn)
				return nil, &rterrors.AgentMaxTurnsError{MaxTurns: maxTurns, Turns: turn}
			}
			continue
		}

		// Final answer.
		value, err := decodeAgentData(result, opts.Schema != nil)
		if err != nil {
			return nil, err
		}
		if err := evaluateGuards(opts.Guards, value); err != nil {
			return nil, err
		}
		return codegen.AgentResult{Data: value, Turns: turn, TotalUsage: total, ToolCallHistory: history}, nil
	}
}

func (e *Executor) invokeAgentTool(ctx context.Context, call llms.ToolCall) codegen.ToolCallRecord {
	output, err := e.CallTool(ctx, call.Name, call.Arguments)
	if err != nil {
		return codegen.ToolCallRecord{
			ToolCallID: call.ID, ToolName: call.Name, Args: call.Arguments,
			IsError: true, Message: err.Error(),
		}
	}
	return codegen.ToolCallRecord{ToolCallID: call.ID, ToolName: call.Name, Args: call.Arguments, Output: output}
}

func toolResultContent(r codegen.ToolCallRecord) string {
	if r.IsError {
		return fmt.Sprintf("error: %s", r.Message)
	}
	return stringify(r.Output)
}

// decodeAgentData parses the final turn's response as JSON when a
// schema was requested; the under-specified schema-less last-chance
// turn (spec §9 open question) returns whatever text the provider
// emitted, unparsed.
func decodeAgentData(result llms.CompleteResult, hasSchema bool) (any, error) {
	if !hasSchema || result.Data == "" {
		return result.Data, nil
	}
	var v any
	if err := json.Unmarshal([]byte(result.Data), &v); err != nil {
		return result.Data, nil
	}
	return v, nil
}
