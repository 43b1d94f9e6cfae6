// Package runtime implements the AI-call runtime of spec §4.7 (think/
// infer/reason) and the agent loop of §4.8: the concrete codegen.Executor
// a compiled program runs against. Provider, cache, and cost tracker are
// bundled into a Handle rather than left as bare package globals (spec
// §9 "process-wide singletons... implement them as explicit objects
// threaded through a runtime handle with a default handle for
// convenience").
package runtime

import (
	"time"

	"github.com/thinklang/thinklang/pkg/llms"
)

// Handle bundles everything an Executor needs: the current provider,
// the exact-match cache, and the cost tracker. DefaultHandle is the
// convenience singleton the CLI wires by default; tests construct
// their own Handle with a replay provider instead.
type Handle struct {
	Provider     llms.Provider
	Cache        *Cache
	Cost         *CostTracker
	ContextBudgetTokens int // default ~100000, spec §4.7 step 2
}

// NewHandle builds a Handle around an explicit provider.
func NewHandle(provider llms.Provider) *Handle {
	return &Handle{
		Provider:            provider,
		Cache:               NewCache(time.Hour),
		Cost:                NewCostTracker(),
		ContextBudgetTokens: 100_000,
	}
}

// DefaultHandle lazily resolves the process-wide current provider via
// pkg/llms.CurrentProvider (env auto-init) on first use.
var defaultHandle *Handle

func DefaultHandle() (*Handle, error) {
	if defaultHandle != nil {
		return defaultHandle, nil
	}
	p, err := llms.CurrentProvider()
	if err != nil {
		return nil, err
	}
	defaultHandle = NewHandle(p)
	return defaultHandle, nil
}

// SetDefaultHandle overrides the process-wide default, e.g. so the
// test framework (C11) can install a replay-provider-backed handle.
func SetDefaultHandle(h *Handle) { defaultHandle = h }
