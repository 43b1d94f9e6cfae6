package runtime

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/thinklang/thinklang/pkg/codegen"
	"github.com/thinklang/thinklang/pkg/llms"
	"github.com/thinklang/thinklang/pkg/rterrors"
	"github.com/thinklang/thinklang/pkg/schema"
)

// scriptedProvider returns one CompleteResult per call, in order, and
// counts how many times Complete was invoked (for cache-hit assertions).
type scriptedProvider struct {
	results []llms.CompleteResult
	next    int
	calls   int
}

func (p *scriptedProvider) Name() string { return "scripted" }
func (p *scriptedProvider) Complete(ctx context.Context, opts llms.CompleteOptions) (llms.CompleteResult, error) {
	p.calls++
	if p.next >= len(p.results) {
		return llms.CompleteResult{}, &rterrors.ModelUnavailable{Model: "scripted", Cause: assert.AnError}
	}
	r := p.results[p.next]
	p.next++
	return r, nil
}

func newTestExecutor(provider llms.Provider) *Executor {
	return NewExecutor(NewHandle(provider))
}

func TestThink_CacheHitReturnsSameValueWithoutSecondCall(t *testing.T) {
	provider := &scriptedProvider{results: []llms.CompleteResult{
		{Data: `"a"`}, {Data: `"b"`},
	}}
	ex := newTestExecutor(provider)
	opts := codegen.AIOptions{Prompt: "hi", Schema: schema.Prim(schema.TypeString)}

	v1, err := ex.Think(context.Background(), opts)
	require.NoError(t, err)
	assert.Equal(t, "a", v1)

	v2, err := ex.Think(context.Background(), opts)
	require.NoError(t, err)
	assert.Equal(t, v1, v2)
	assert.Equal(t, 1, provider.calls)
}

func TestThink_ConfidentShapeWraps(t *testing.T) {
	provider := &scriptedProvider{results: []llms.CompleteResult{
		{Data: `{"value":"pos","confidence":0.9,"reasoning":"r"}`},
	}}
	ex := newTestExecutor(provider)

	confidentSchema := schema.Obj(map[string]*schema.Schema{
		"value":      schema.Prim(schema.TypeString),
		"confidence": schema.Prim(schema.TypeNumber),
		"reasoning":  schema.Prim(schema.TypeString),
	}, []string{"value", "confidence", "reasoning"})

	v, err := ex.Think(context.Background(), codegen.AIOptions{Prompt: "p", Schema: confidentSchema})
	require.NoError(t, err)
	m, ok := v.(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "pos", m["value"])
	assert.Equal(t, 0.9, m["confidence"])
}

func TestThink_GuardFailureThrowsGuardFailed(t *testing.T) {
	provider := &scriptedProvider{results: []llms.CompleteResult{{Data: `"toolong"`}}}
	ex := newTestExecutor(provider)

	_, err := ex.Think(context.Background(), codegen.AIOptions{
		Prompt: "p",
		Schema: schema.Prim(schema.TypeString),
		Guards: []codegen.GuardSpec{{Name: "length", Constraint: 1.0, RangeEnd: 3.0, HasRange: true}},
	})
	require.Error(t, err)
	var gf *rterrors.GuardFailed
	require.ErrorAs(t, err, &gf)
	assert.Equal(t, "length", gf.GuardName)
}

func TestAgent_TwoTurnToolUseThenFinalAnswer(t *testing.T) {
	provider := &scriptedProvider{results: []llms.CompleteResult{
		{StopReason: llms.StopToolUse, ToolCalls: []llms.ToolCall{{ID: "c1", Name: "search", Arguments: map[string]any{"q": "x"}}}},
		{StopReason: llms.StopEndTurn, Data: `{"answer":"ok"}`},
	}}
	ex := newTestExecutor(provider)
	ex.DefineTool(codegen.ToolConfig{
		Name: "search",
		Fn: func(ctx context.Context, ex codegen.Executor, args map[string]any) (any, error) {
			return "result", nil
		},
	})

	resultSchema := schema.Obj(map[string]*schema.Schema{"answer": schema.Prim(schema.TypeString)}, []string{"answer"})
	result, err := ex.Agent(context.Background(), codegen.AIOptions{
		Kind: "agent", Prompt: "go find x", ToolNames: []string{"search"}, MaxTurns: 5, Schema: resultSchema,
	})
	require.NoError(t, err)

	agentResult, ok := result.(codegen.AgentResult)
	require.True(t, ok)
	assert.Equal(t, 2, agentResult.Turns)
	require.Len(t, agentResult.ToolCallHistory, 1)
	assert.Equal(t, "c1", agentResult.ToolCallHistory[0].ToolCallID)
}

func TestAgent_ExhaustionThrowsAgentMaxTurnsError(t *testing.T) {
	toolCall := llms.ToolCall{ID: "c1", Name: "search", Arguments: map[string]any{}}
	provider := &scriptedProvider{results: []llms.CompleteResult{
		{StopReason: llms.StopToolUse, ToolCalls: []llms.ToolCall{toolCall}},
		{StopReason: llms.StopToolUse, ToolCalls: []llms.ToolCall{toolCall}},
	}}
	ex := newTestExecutor(provider)
	ex.DefineTool(codegen.ToolConfig{
		Name: "search",
		Fn:   func(ctx context.Context, ex codegen.Executor, args map[string]any) (any, error) { return "r", nil },
	})

	_, err := ex.Agent(context.Background(), codegen.AIOptions{Prompt: "p", ToolNames: []string{"search"}, MaxTurns: 2})
	require.Error(t, err)
	var maxTurnsErr *rterrors.AgentMaxTurnsError
	require.ErrorAs(t, err, &maxTurnsErr)
	assert.Equal(t, 2, maxTurnsErr.MaxTurns)
	assert.Equal(t, 2, maxTurnsErr.Turns)
}

func TestBatch_RespectsMaxConcurrencyAndOrdersByIndex(t *testing.T) {
	ex := newTestExecutor(&scriptedProvider{})

	items := make([]any, 6)
	for i := range items {
		items[i] = i
	}
	result, err := ex.Batch(context.Background(), items, func(item any, index int) (any, error) {
		return item.(int) * 2, nil
	}, codegen.BatchOpts{MaxConcurrency: 3})
	require.NoError(t, err)

	require.Len(t, result.Results, 6)
	for i, v := range result.Results {
		assert.Equal(t, i*2, v)
	}
	assert.Equal(t, 6, result.SuccessCount)
}

func TestReduceThink_EmptyInputFailsFast(t *testing.T) {
	ex := newTestExecutor(&scriptedProvider{})
	_, err := ex.ReduceThink(context.Background(), nil, 2, func(group []any) codegen.AIOptions { return codegen.AIOptions{} })
	require.Error(t, err)
}

func TestCache_ExpiredEntryDeletedOnProbe(t *testing.T) {
	c := NewCache(0) // immediately expired
	c.Set("k", "v")
	_, ok := c.Get("k")
	assert.False(t, ok)
}

func TestShapeContext_DropsWithoutKeys(t *testing.T) {
	shaped := shapeContext(map[string]any{"a": 1, "b": 2}, []string{"b"}, 100_000, "fake-model")
	assert.Equal(t, map[string]any{"a": 1}, shaped)
}
