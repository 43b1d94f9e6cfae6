package runtime

import (
	"context"
	"fmt"
	"sync"

	"github.com/thinklang/thinklang/pkg/codegen"
	"github.com/thinklang/thinklang/pkg/llms"
)

// Executor is the concrete codegen.Executor a compiled ThinkLang
// program runs against: the Go expression of spec §4.5's injected
// runtime symbol `R`, implemented over a Handle (provider + cache +
// cost tracker).
type Executor struct {
	handle *Handle

	toolsMu sync.RWMutex
	tools   map[string]codegen.ToolConfig
}

func NewExecutor(handle *Handle) *Executor {
	return &Executor{handle: handle, tools: map[string]codegen.ToolConfig{}}
}

func (e *Executor) DefineTool(cfg codegen.ToolConfig) {
	e.toolsMu.Lock()
	defer e.toolsMu.Unlock()
	e.tools[cfg.Name] = cfg
}

func (e *Executor) CallTool(ctx context.Context, name string, args map[string]any) (any, error) {
	e.toolsMu.RLock()
	cfg, ok := e.tools[name]
	e.toolsMu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("unknown tool: %s", name)
	}
	return cfg.Fn(ctx, e, args)
}

func (e *Executor) lookupTools(names []string) []codegen.ToolConfig {
	e.toolsMu.RLock()
	defer e.toolsMu.RUnlock()
	out := make([]codegen.ToolConfig, 0, len(names))
	for _, n := range names {
		if cfg, ok := e.tools[n]; ok {
			out = append(out, cfg)
		}
	}
	return out
}

func toLLMTools(cfgs []codegen.ToolConfig) []llms.Tool {
	out := make([]llms.Tool, len(cfgs))
	for i, c := range cfgs {
		out[i] = llms.Tool{Name: c.Name, Description: c.Description, Parameters: c.ParamSchema.ToMap()}
	}
	return out
}
