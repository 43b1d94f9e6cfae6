// Package llms implements the ThinkLang provider abstraction of spec
// §4.6: a single Provider interface with one operation, concrete
// adapters over real SDKs, and a process-wide current-provider plus a
// name→factory registry for indirect construction.
package llms

import "context"

// StopReason is the provider-agnostic reason generation ended.
type StopReason string

const (
	StopEndTurn      StopReason = "end_turn"
	StopToolUse      StopReason = "tool_use"
	StopMaxTokens    StopReason = "max_tokens"
	StopStopSequence StopReason = "stop_sequence"
)

// Message is one turn of a transcript; Role is "system", "user",
// "assistant", or "tool".
type Message struct {
	Role       string
	Content    string
	ToolCallID string // set on role "tool": which call this answers
	ToolCalls  []ToolCall
}

// Tool is the provider-agnostic function-calling signature a Provider
// may expose to the model.
type Tool struct {
	Name        string
	Description string
	Parameters  map[string]any // JSON Schema, object-typed
}

// ToolCall is one function call the model asked to make.
type ToolCall struct {
	ID        string
	Name      string
	Arguments map[string]any
}

// CompleteOptions is `opts` of spec §4.6: "systemPrompt, userMessage,
// jsonSchema?, schemaName?, model?, maxTokens?, messages?, tools?,
// toolChoice?, stopSequences?".
type CompleteOptions struct {
	SystemPrompt  string
	UserMessage   string
	JSONSchema    map[string]any
	SchemaName    string
	Model         string
	MaxTokens     int
	Messages      []Message // if set, used verbatim instead of synthesizing one user turn
	Tools         []Tool
	ToolChoice    string
	StopSequences []string
}

// CompleteResult is `complete`'s return shape.
type CompleteResult struct {
	Data       string // raw text, or raw JSON when JSONSchema was set
	Usage      Usage
	Model      string
	ToolCalls  []ToolCall
	StopReason StopReason
}

type Usage struct {
	InputTokens  int
	OutputTokens int
}

// Provider is the sole abstraction the ThinkLang runtime depends on
// (spec §4.6): "a Provider exposes one operation: complete(opts)".
type Provider interface {
	Complete(ctx context.Context, opts CompleteOptions) (CompleteResult, error)
	Name() string
}
