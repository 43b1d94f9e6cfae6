package llms

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"google.golang.org/genai"

	"github.com/thinklang/thinklang/pkg/config"
	"github.com/thinklang/thinklang/pkg/rterrors"
)

const defaultGeminiModel = "gemini-2.5-flash"

// GeminiProvider adapts google.golang.org/genai. Structured output
// uses the native ResponseSchema/ResponseMIMEType config, Gemini's
// closest equivalent to OpenAI's json_schema response format.
type GeminiProvider struct {
	client *genai.Client
	model  string
}

func NewGeminiProvider(model string) (*GeminiProvider, error) {
	apiKey := config.ProviderAPIKey("gemini")
	if apiKey == "" {
		return nil, fmt.Errorf("GEMINI_API_KEY is not set")
	}
	if model == "" {
		model = defaultGeminiModel
	}
	client, err := genai.NewClient(context.Background(), &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("gemini client: %w", err)
	}
	return &GeminiProvider{client: client, model: model}, nil
}

func (p *GeminiProvider) Name() string { return "gemini" }

func (p *GeminiProvider) Complete(ctx context.Context, opts CompleteOptions) (CompleteResult, error) {
	model := p.model
	if opts.Model != "" {
		model = opts.Model
	}

	cfg := &genai.GenerateContentConfig{}
	if opts.SystemPrompt != "" {
		cfg.SystemInstruction = genai.NewContentFromText(opts.SystemPrompt, genai.RoleUser)
	}
	if opts.MaxTokens > 0 {
		cfg.MaxOutputTokens = int32(opts.MaxTokens)
	}
	if len(opts.StopSequences) > 0 {
		cfg.StopSequences = opts.StopSequences
	}
	if opts.JSONSchema != nil {
		cfg.ResponseMIMEType = "application/json"
		cfg.ResponseSchema = geminiSchema(opts.JSONSchema)
	}
	for _, t := range opts.Tools {
		cfg.Tools = append(cfg.Tools, &genai.Tool{
			FunctionDeclarations: []*genai.FunctionDeclaration{{
				Name:        t.Name,
				Description: t.Description,
				Parameters:  geminiSchema(t.Parameters),
			}},
		})
	}

	contents := geminiContents(opts)
	slog.Debug("provider call", "operation", "complete", "model", model)
	resp, err := p.client.Models.GenerateContent(ctx, model, contents, cfg)
	if err != nil {
		slog.Warn("provider call failed", "operation", "complete", "model", model, "error", err)
		return CompleteResult{}, &rterrors.ModelUnavailable{Model: model, Cause: err}
	}

	result := CompleteResult{Model: model, StopReason: StopEndTurn}
	if resp.UsageMetadata != nil {
		result.Usage = Usage{
			InputTokens:  int(resp.UsageMetadata.PromptTokenCount),
			OutputTokens: int(resp.UsageMetadata.CandidatesTokenCount),
		}
	}
	for _, cand := range resp.Candidates {
		if cand.Content == nil {
			continue
		}
		for _, part := range cand.Content.Parts {
			if part.Text != "" {
				result.Data += part.Text
			}
			if part.FunctionCall != nil {
				result.ToolCalls = append(result.ToolCalls, ToolCall{
					Name:      part.FunctionCall.Name,
					Arguments: part.FunctionCall.Args,
				})
			}
		}
		if len(cand.Content.Parts) > 0 && cand.Content.Parts[0].FunctionCall != nil {
			result.StopReason = StopToolUse
		}
	}
	return result, nil
}

func geminiContents(opts CompleteOptions) []*genai.Content {
	if len(opts.Messages) == 0 {
		return []*genai.Content{genai.NewContentFromText(opts.UserMessage, genai.RoleUser)}
	}
	var out []*genai.Content
	for _, m := range opts.Messages {
		role := genai.RoleUser
		if m.Role == "assistant" {
			role = genai.RoleModel
		}
		out = append(out, genai.NewContentFromText(m.Content, role))
	}
	return out
}

// geminiSchema re-marshals a plain JSON-Schema map into genai.Schema,
// since the package has no constructor accepting a raw map directly.
func geminiSchema(m map[string]any) *genai.Schema {
	raw, err := json.Marshal(m)
	if err != nil {
		return nil
	}
	var s genai.Schema
	if err := json.Unmarshal(raw, &s); err != nil {
		return nil
	}
	return &s
}
