package llms

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	"github.com/thinklang/thinklang/pkg/config"
	"github.com/thinklang/thinklang/pkg/rterrors"
)

const defaultAnthropicModel = "claude-sonnet-4-5"

// AnthropicProvider adapts github.com/anthropics/anthropic-sdk-go to
// the Provider interface. Anthropic has no native "response_format";
// structured output is obtained by forcing a single synthetic tool
// call whose input schema is the caller's JSONSchema and reading its
// arguments back as Data — the standard tool-forced-JSON pattern.
type AnthropicProvider struct {
	client anthropic.Client
	model  string
}

func NewAnthropicProvider(model string) (*AnthropicProvider, error) {
	apiKey := config.ProviderAPIKey("anthropic")
	if apiKey == "" {
		return nil, fmt.Errorf("ANTHROPIC_API_KEY is not set")
	}
	if model == "" {
		model = defaultAnthropicModel
	}
	return &AnthropicProvider{
		client: anthropic.NewClient(option.WithAPIKey(apiKey)),
		model:  model,
	}, nil
}

func (p *AnthropicProvider) Name() string { return "anthropic" }

func (p *AnthropicProvider) Complete(ctx context.Context, opts CompleteOptions) (CompleteResult, error) {
	model := p.model
	if opts.Model != "" {
		model = opts.Model
	}
	maxTokens := int64(opts.MaxTokens)
	if maxTokens == 0 {
		maxTokens = 4096
	}

	params := anthropic.MessageNewParams{
		Model:     anthropic.Model(model),
		MaxTokens: maxTokens,
		Messages:  anthropicMessages(opts),
	}
	if opts.SystemPrompt != "" {
		params.System = []anthropic.TextBlockParam{{Text: opts.SystemPrompt}}
	}
	if len(opts.StopSequences) > 0 {
		params.StopSequences = opts.StopSequences
	}

	var tools []anthropic.ToolUnionParam
	for _, t := range opts.Tools {
		toolParam := anthropic.ToolUnionParamOfTool(anthropicInputSchema(t.Parameters), t.Name)
		toolParam.OfTool.Description = anthropic.String(t.Description)
		tools = append(tools, toolParam)
	}
	if opts.JSONSchema != nil {
		name := respondToolName(opts.SchemaName)
		toolParam := anthropic.ToolUnionParamOfTool(anthropicInputSchema(opts.JSONSchema), name)
		toolParam.OfTool.Description = anthropic.String("Return the final structured answer.")
		tools = append(tools, toolParam)
		params.ToolChoice = anthropic.ToolChoiceUnionParam{
			OfTool: &anthropic.ToolChoiceToolParam{Name: name},
		}
	}
	if len(tools) > 0 {
		params.Tools = tools
	}

	slog.Debug("provider call", "operation", "complete", "model", model)
	msg, err := p.client.Messages.New(ctx, params)
	if err != nil {
		slog.Warn("provider call failed", "operation", "complete", "model", model, "error", err)
		return CompleteResult{}, &rterrors.ModelUnavailable{Model: model, Cause: err}
	}

	result := CompleteResult{
		Model: string(msg.Model),
		Usage: Usage{InputTokens: int(msg.Usage.InputTokens), OutputTokens: int(msg.Usage.OutputTokens)},
	}
	for _, block := range msg.Content {
		switch variant := block.AsAny().(type) {
		case anthropic.TextBlock:
			result.Data += variant.Text
		case anthropic.ToolUseBlock:
			if variant.Name == respondToolName(opts.SchemaName) {
				raw, _ := json.Marshal(variant.Input)
				result.Data = string(raw)
			} else {
				args := map[string]any{}
				_ = json.Unmarshal(variant.Input, &args)
				result.ToolCalls = append(result.ToolCalls, ToolCall{ID: variant.ID, Name: variant.Name, Arguments: args})
			}
		}
	}
	result.StopReason = mapAnthropicStopReason(string(msg.StopReason), len(result.ToolCalls) > 0)
	return result, nil
}

// anthropicInputSchema re-marshals a plain JSON-Schema map into the
// SDK's own ToolInputSchemaParam, mirroring convertTools in the
// example pack (json.Unmarshal the raw schema bytes into the typed
// param rather than building it field by field).
func anthropicInputSchema(m map[string]any) anthropic.ToolInputSchemaParam {
	var schema anthropic.ToolInputSchemaParam
	raw, err := json.Marshal(m)
	if err != nil {
		return schema
	}
	_ = json.Unmarshal(raw, &schema)
	return schema
}

func respondToolName(schemaName string) string {
	if schemaName == "" {
		return "respond_with_result"
	}
	return "respond_with_" + schemaName
}

func mapAnthropicStopReason(reason string, hasUserTools bool) StopReason {
	switch reason {
	case "tool_use":
		if hasUserTools {
			return StopToolUse
		}
		return StopEndTurn
	case "max_tokens":
		return StopMaxTokens
	case "stop_sequence":
		return StopStopSequence
	default:
		return StopEndTurn
	}
}

func anthropicMessages(opts CompleteOptions) []anthropic.MessageParam {
	if len(opts.Messages) == 0 {
		return []anthropic.MessageParam{anthropic.NewUserMessage(anthropic.NewTextBlock(opts.UserMessage))}
	}
	out := make([]anthropic.MessageParam, 0, len(opts.Messages))
	for _, m := range opts.Messages {
		switch m.Role {
		case "assistant":
			out = append(out, anthropic.NewAssistantMessage(anthropic.NewTextBlock(m.Content)))
		default:
			out = append(out, anthropic.NewUserMessage(anthropic.NewTextBlock(m.Content)))
		}
	}
	return out
}
