package llms

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/thinklang/thinklang/pkg/config"
	"github.com/thinklang/thinklang/pkg/rterrors"
)

const defaultOllamaModel = "llama3.1"

// OllamaProvider talks to a local Ollama daemon's /api/chat over plain
// net/http — the pack carries no Ollama SDK, so this is the one
// adapter in the package without a third-party client library behind
// it (see DESIGN.md).
type OllamaProvider struct {
	baseURL string
	model   string
	http    *http.Client
}

func NewOllamaProvider(model string) *OllamaProvider {
	if model == "" {
		model = defaultOllamaModel
	}
	return &OllamaProvider{
		baseURL: config.OllamaBaseURL(),
		model:   model,
		http:    &http.Client{Timeout: 120 * time.Second},
	}
}

func (p *OllamaProvider) Name() string { return "ollama" }

type ollamaChatRequest struct {
	Model    string              `json:"model"`
	Messages []ollamaChatMessage `json:"messages"`
	Stream   bool                `json:"stream"`
	Format   json.RawMessage     `json:"format,omitempty"`
}

type ollamaChatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type ollamaChatResponse struct {
	Message struct {
		Role    string `json:"role"`
		Content string `json:"content"`
	} `json:"message"`
	PromptEvalCount int  `json:"prompt_eval_count"`
	EvalCount       int  `json:"eval_count"`
	Done            bool `json:"done"`
}

func (p *OllamaProvider) Complete(ctx context.Context, opts CompleteOptions) (CompleteResult, error) {
	model := p.model
	if opts.Model != "" {
		model = opts.Model
	}

	req := ollamaChatRequest{Model: model, Stream: false}
	if opts.SystemPrompt != "" {
		req.Messages = append(req.Messages, ollamaChatMessage{Role: "system", Content: opts.SystemPrompt})
	}
	if len(opts.Messages) == 0 {
		req.Messages = append(req.Messages, ollamaChatMessage{Role: "user", Content: opts.UserMessage})
	} else {
		for _, m := range opts.Messages {
			req.Messages = append(req.Messages, ollamaChatMessage{Role: m.Role, Content: m.Content})
		}
	}
	if opts.JSONSchema != nil {
		raw, err := json.Marshal(opts.JSONSchema)
		if err == nil {
			req.Format = raw
		}
	}

	body, err := json.Marshal(req)
	if err != nil {
		return CompleteResult{}, fmt.Errorf("encode ollama request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, p.baseURL+"/api/chat", bytes.NewReader(body))
	if err != nil {
		return CompleteResult{}, fmt.Errorf("build ollama request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	slog.Debug("provider call", "operation", "complete", "model", model)
	resp, err := p.http.Do(httpReq)
	if err != nil {
		slog.Warn("provider call failed", "operation", "complete", "model", model, "error", err)
		return CompleteResult{}, &rterrors.ModelUnavailable{Model: model, Cause: err}
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return CompleteResult{}, fmt.Errorf("read ollama response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		slog.Warn("provider call failed", "operation", "complete", "model", model, "status", resp.StatusCode)
		return CompleteResult{}, &rterrors.ModelUnavailable{Model: model, Cause: fmt.Errorf("ollama status %d: %s", resp.StatusCode, raw)}
	}

	var decoded ollamaChatResponse
	if err := json.Unmarshal(raw, &decoded); err != nil {
		return CompleteResult{}, fmt.Errorf("decode ollama response: %w", err)
	}

	return CompleteResult{
		Data:       decoded.Message.Content,
		Model:      model,
		StopReason: StopEndTurn,
		Usage:      Usage{InputTokens: decoded.PromptEvalCount, OutputTokens: decoded.EvalCount},
	}, nil
}
