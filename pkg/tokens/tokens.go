// Package tokens counts tokens the way a model actually would, instead
// of the 4-chars/token rule of thumb context budgeting and chunking
// otherwise fall back to.
package tokens

import (
	"fmt"
	"sync"

	"github.com/pkoukk/tiktoken-go"
)

// TokenCounter wraps a cached tiktoken encoding for one model.
type TokenCounter struct {
	encoding *tiktoken.Tiktoken
	model    string
}

// Message is one chat turn, for CountMessages' per-message overhead.
type Message struct {
	Role    string
	Content string
}

var (
	encodingCache = map[string]*tiktoken.Tiktoken{}
	cacheMu       sync.RWMutex
)

// NewTokenCounter resolves model's tiktoken encoding, falling back to
// cl100k_base when the model is unknown to tiktoken (e.g. a Claude or
// local Ollama model name) — callers never need to special-case that,
// since cl100k_base is still far closer to a real token count than a
// character heuristic.
func NewTokenCounter(model string) (*TokenCounter, error) {
	cacheMu.RLock()
	cached, ok := encodingCache[model]
	cacheMu.RUnlock()
	if ok {
		return &TokenCounter{encoding: cached, model: model}, nil
	}

	encoding, err := tiktoken.EncodingForModel(model)
	if err != nil {
		encoding, err = tiktoken.GetEncoding("cl100k_base")
		if err != nil {
			return nil, fmt.Errorf("tokens: no encoding available for %q: %w", model, err)
		}
	}

	cacheMu.Lock()
	encodingCache[model] = encoding
	cacheMu.Unlock()
	return &TokenCounter{encoding: encoding, model: model}, nil
}

// Count returns the encoded token count for text.
func (tc *TokenCounter) Count(text string) int {
	if tc == nil || tc.encoding == nil {
		return EstimateTokens(text)
	}
	return len(tc.encoding.Encode(text, nil, nil))
}

// CountMessages adds the per-message role/turn overhead tiktoken-go's
// own examples document for chat-formatted prompts.
func (tc *TokenCounter) CountMessages(messages []Message) int {
	const perMessageOverhead = 3
	total := perMessageOverhead // reply priming
	for _, m := range messages {
		total += perMessageOverhead
		total += tc.Count(m.Role)
		total += tc.Count(m.Content)
	}
	return total
}

// FitWithinLimit keeps as many of the most recent messages as fit
// within maxTokens, dropping from the front of the conversation first.
func (tc *TokenCounter) FitWithinLimit(messages []Message, maxTokens int) []Message {
	if len(messages) == 0 {
		return messages
	}
	const replyPriming = 3
	budget := maxTokens - replyPriming

	var fitted []Message
	used := 0
	for i := len(messages) - 1; i >= 0; i-- {
		cost := tc.CountMessages([]Message{messages[i]})
		if used+cost > budget {
			break
		}
		fitted = append([]Message{messages[i]}, fitted...)
		used += cost
	}
	return fitted
}

// GetModel returns the model name this counter was built for.
func (tc *TokenCounter) GetModel() string { return tc.model }

// EstimateTokens is the plain 4-chars/token heuristic, kept as the
// documented fallback for callers that have no model name to resolve
// an encoding from at all.
func EstimateTokens(text string) int {
	return len(text) / 4
}

// GetEncodingForModel reports which tiktoken encoding a model name
// would resolve to, for callers that want to display or log it
// without constructing a full TokenCounter.
func GetEncodingForModel(model string) string {
	knownModels := map[string]string{
		"gpt-4":             "cl100k_base",
		"gpt-4-turbo":       "cl100k_base",
		"gpt-4o":            "o200k_base",
		"gpt-4o-mini":       "o200k_base",
		"gpt-3.5-turbo":     "cl100k_base",
		"claude":            "cl100k_base",
		"claude-3":          "cl100k_base",
		"claude-3-5-sonnet": "cl100k_base",
		"claude-sonnet-4-5": "cl100k_base",
		"gemini":            "cl100k_base",
		"gemini-2.5-flash":  "cl100k_base",
	}
	if enc, ok := knownModels[model]; ok {
		return enc
	}
	for prefix, enc := range knownModels {
		if len(model) >= len(prefix) && model[:len(prefix)] == prefix {
			return enc
		}
	}
	return "cl100k_base"
}
