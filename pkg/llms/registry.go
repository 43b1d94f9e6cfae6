package llms

import (
	"fmt"
	"sync"

	"github.com/thinklang/thinklang/pkg/config"
	"github.com/thinklang/thinklang/pkg/registry"
)

// Factory builds a Provider given a model override (empty uses the
// provider's own default).
type Factory func(model string) (Provider, error)

// Registry maps provider-type names ("anthropic", "openai", "gemini",
// "ollama") to construction factories, mirroring the teacher's
// LLMRegistry.CreateLLMFromConfig dispatch (pkg/llms/registry.go).
// ReplayProvider/RecordingProvider are built directly by the test
// framework (they need a snapshot path, not a model name) and so are
// not registered here.
type Registry struct {
	*registry.BaseRegistry[Factory]
}

func NewRegistry() *Registry {
	return &Registry{BaseRegistry: registry.NewBaseRegistry[Factory]()}
}

func (r *Registry) Build(name, model string) (Provider, error) {
	factory, ok := r.Get(name)
	if !ok {
		return nil, fmt.Errorf("unsupported provider type: %s (supported: %v)", name, r.namesLocked())
	}
	return factory(model)
}

func (r *Registry) namesLocked() []string {
	return nil // BaseRegistry has no name-listing method; kept simple since callers name the provider explicitly.
}

// DefaultRegistry is populated at init with every concrete provider in
// this package, so the CLI/runtime can build by name without importing
// each adapter directly.
var DefaultRegistry = func() *Registry {
	r := NewRegistry()
	r.Register("anthropic", func(model string) (Provider, error) { return NewAnthropicProvider(model) })
	r.Register("openai", func(model string) (Provider, error) { return NewOpenAIProvider(model) })
	r.Register("gemini", func(model string) (Provider, error) { return NewGeminiProvider(model) })
	r.Register("ollama", func(model string) (Provider, error) { return NewOllamaProvider(model), nil })
	return r
}()

var (
	currentMu       sync.RWMutex
	currentProvider Provider
)

// SetProvider sets the process-wide current provider (spec §4.6:
// "Ownership: a single process-wide current provider is set by the
// application (setProvider) or auto-initialised from environment").
func SetProvider(p Provider) {
	currentMu.Lock()
	defer currentMu.Unlock()
	currentProvider = p
}

// CurrentProvider returns the process-wide current provider, auto-
// initializing from THINKLANG_PROVIDER (default "anthropic") and
// THINKLANG_MODEL on first use if none was set explicitly.
func CurrentProvider() (Provider, error) {
	currentMu.RLock()
	p := currentProvider
	currentMu.RUnlock()
	if p != nil {
		return p, nil
	}
	p, err := AutoInit()
	if err != nil {
		return nil, err
	}
	SetProvider(p)
	return p, nil
}

// AutoInit builds a provider from THINKLANG_PROVIDER/THINKLANG_MODEL
// (defaulting to anthropic), the path CurrentProvider falls back to
// when no one has called SetProvider yet.
func AutoInit() (Provider, error) {
	providerType := config.DefaultProviderType()
	p, err := DefaultRegistry.Build(providerType, config.DefaultModel())
	if err != nil {
		return nil, fmt.Errorf("auto-init provider %q: %w", providerType, err)
	}
	return p, nil
}
