package runtime

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"sort"

	"github.com/thinklang/thinklang/pkg/tokens"
)

// shapeContext implements spec §4.7 step 2: drop withoutKeys, then if
// the serialized context exceeds the token budget, warn and drop the
// largest entries (truncating oversized string values) until it fits.
// Token counts come from pkg/tokens' tiktoken encoding for model
// (cl100k_base for models without a known encoding), falling back to
// the 4-chars/token estimate when no encoding can be loaded.
func shapeContext(context map[string]any, withoutKeys []string, budgetTokens int, model string) map[string]any {
	if context == nil {
		return nil
	}
	shaped := map[string]any{}
	drop := map[string]bool{}
	for _, k := range withoutKeys {
		drop[k] = true
	}
	for k, v := range context {
		if !drop[k] {
			shaped[k] = v
		}
	}
	if budgetTokens <= 0 {
		return shaped
	}

	warned := false
	truncated := map[string]bool{}
	for estimateTokens(shaped, model) > budgetTokens && len(shaped) > 0 {
		if !warned {
			slog.Debug("shaping context against token budget", "operation", "context", "model", model, "budgetTokens", budgetTokens)
			warned = true
		}
		largestKey := largestEntry(shaped, model)
		if s, ok := shaped[largestKey].(string); ok && len(s) > 200 && !truncated[largestKey] {
			shaped[largestKey] = truncateString(s, 200)
			truncated[largestKey] = true
		} else {
			delete(shaped, largestKey)
		}
	}
	if warned {
		slog.Warn("context exceeded token budget, dropped largest entries", "operation", "context", "model", model, "budgetTokens", budgetTokens, "remainingKeys", len(shaped))
	}
	return shaped
}

// estimateTokens counts v's serialized token size with the tiktoken
// encoding for model, falling back to the 4-chars/token heuristic when
// no encoding can be loaded; it returns 0 when marshaling fails.
func estimateTokens(v any, model string) int {
	raw, err := json.Marshal(v)
	if err != nil {
		return 0
	}
	tc, err := tokens.NewTokenCounter(model)
	if err != nil {
		return len(raw) / 4
	}
	return tc.Count(string(raw))
}

func largestEntry(m map[string]any, model string) string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys) // deterministic tie-break
	best, bestSize := "", -1
	for _, k := range keys {
		size := estimateTokens(m[k], model)
		if size > bestSize {
			best, bestSize = k, size
		}
	}
	return best
}

func truncateString(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "...[truncated]"
}

// prettyJSON renders v as indented JSON for the "Context: <pretty JSON>"
// prompt section (spec §4.7 step 4).
func prettyJSON(v any) string {
	raw, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Sprintf("%v", v)
	}
	return string(raw)
}
