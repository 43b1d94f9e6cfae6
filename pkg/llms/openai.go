package llms

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	openai "github.com/sashabaranov/go-openai"

	"github.com/thinklang/thinklang/pkg/config"
	"github.com/thinklang/thinklang/pkg/rterrors"
)

const defaultOpenAIModel = openai.GPT4o

// rawSchema adapts a plain JSON-Schema map to the json.Marshaler the
// go-openai JSONSchema field expects, without depending on that
// library's own jsonschema struct builder.
type rawSchema map[string]any

func (s rawSchema) MarshalJSON() ([]byte, error) { return json.Marshal(map[string]any(s)) }

// OpenAIProvider adapts github.com/sashabaranov/go-openai. Structured
// output uses the native response_format: json_schema mode rather than
// Anthropic's forced-tool-call workaround.
type OpenAIProvider struct {
	client *openai.Client
	model  string
}

func NewOpenAIProvider(model string) (*OpenAIProvider, error) {
	apiKey := config.ProviderAPIKey("openai")
	if apiKey == "" {
		return nil, fmt.Errorf("OPENAI_API_KEY is not set")
	}
	if model == "" {
		model = defaultOpenAIModel
	}
	return &OpenAIProvider{client: openai.NewClient(apiKey), model: model}, nil
}

func (p *OpenAIProvider) Name() string { return "openai" }

func (p *OpenAIProvider) Complete(ctx context.Context, opts CompleteOptions) (CompleteResult, error) {
	model := p.model
	if opts.Model != "" {
		model = opts.Model
	}

	req := openai.ChatCompletionRequest{
		Model:    model,
		Messages: openaiMessages(opts),
	}
	if opts.MaxTokens > 0 {
		req.MaxTokens = opts.MaxTokens
	}
	if len(opts.StopSequences) > 0 {
		req.Stop = opts.StopSequences
	}
	for _, t := range opts.Tools {
		req.Tools = append(req.Tools, openai.Tool{
			Type: openai.ToolTypeFunction,
			Function: &openai.FunctionDefinition{
				Name:        t.Name,
				Description: t.Description,
				Parameters:  t.Parameters,
			},
		})
	}
	if opts.JSONSchema != nil {
		name := opts.SchemaName
		if name == "" {
			name = "result"
		}
		req.ResponseFormat = &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONSchema,
			JSONSchema: &openai.ChatCompletionResponseFormatJSONSchema{
				Name:   name,
				Schema: rawSchema(opts.JSONSchema),
				Strict: true,
			},
		}
	}

	slog.Debug("provider call", "operation", "complete", "model", model)
	resp, err := p.client.CreateChatCompletion(ctx, req)
	if err != nil {
		slog.Warn("provider call failed", "operation", "complete", "model", model, "error", err)
		return CompleteResult{}, &rterrors.ModelUnavailable{Model: model, Cause: err}
	}
	if len(resp.Choices) == 0 {
		return CompleteResult{}, &rterrors.ModelUnavailable{Model: model, Cause: fmt.Errorf("empty choices")}
	}
	choice := resp.Choices[0]

	result := CompleteResult{
		Data:       choice.Message.Content,
		Model:      resp.Model,
		StopReason: mapOpenAIFinishReason(choice.FinishReason),
		Usage:      Usage{InputTokens: resp.Usage.PromptTokens, OutputTokens: resp.Usage.CompletionTokens},
	}
	for _, tc := range choice.Message.ToolCalls {
		args := map[string]any{}
		_ = json.Unmarshal([]byte(tc.Function.Arguments), &args)
		result.ToolCalls = append(result.ToolCalls, ToolCall{ID: tc.ID, Name: tc.Function.Name, Arguments: args})
	}
	return result, nil
}

func mapOpenAIFinishReason(reason openai.FinishReason) StopReason {
	switch reason {
	case openai.FinishReasonToolCalls, openai.FinishReasonFunctionCall:
		return StopToolUse
	case openai.FinishReasonLength:
		return StopMaxTokens
	default:
		return StopEndTurn
	}
}

func openaiMessages(opts CompleteOptions) []openai.ChatCompletionMessage {
	var out []openai.ChatCompletionMessage
	if opts.SystemPrompt != "" {
		out = append(out, openai.ChatCompletionMessage{Role: openai.ChatMessageRoleSystem, Content: opts.SystemPrompt})
	}
	if len(opts.Messages) == 0 {
		out = append(out, openai.ChatCompletionMessage{Role: openai.ChatMessageRoleUser, Content: opts.UserMessage})
		return out
	}
	for _, m := range opts.Messages {
		role := openai.ChatMessageRoleUser
		switch m.Role {
		case "assistant":
			role = openai.ChatMessageRoleAssistant
		case "tool":
			role = openai.ChatMessageRoleTool
		}
		out = append(out, openai.ChatCompletionMessage{Role: role, Content: m.Content, ToolCallID: m.ToolCallID})
	}
	return out
}
