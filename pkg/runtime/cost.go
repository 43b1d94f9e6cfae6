package runtime

import (
	"sync"
	"time"
)

// UsageRecord is one provider call's cost/usage entry (spec §4.7.3):
// "one record per provider call (including each agent turn)... per-call
// records hold only the first 100 chars of the prompt."
type UsageRecord struct {
	Operation    string // "think", "infer", "reason", "agent"
	Model        string
	InputTokens  int
	OutputTokens int
	CostUsd      float64
	PromptSample string
	Timestamp    time.Time
}

// modelPrice is per-million-token pricing; prices are USD per 1e6 tokens.
type modelPrice struct {
	In  float64
	Out float64
}

var defaultPrice = modelPrice{In: 3.0, Out: 15.0} // Claude Sonnet-class default

var pricingTable = map[string]modelPrice{
	"claude-sonnet-4-5":   {In: 3.0, Out: 15.0},
	"claude-opus-4-1":     {In: 15.0, Out: 75.0},
	"claude-haiku-4-5":    {In: 0.8, Out: 4.0},
	"gpt-4o":              {In: 2.5, Out: 10.0},
	"gpt-4o-mini":         {In: 0.15, Out: 0.6},
	"gemini-2.5-flash":    {In: 0.3, Out: 2.5},
	"gemini-2.5-pro":      {In: 1.25, Out: 10.0},
}

func priceFor(model string) modelPrice {
	if p, ok := pricingTable[model]; ok {
		return p
	}
	return defaultPrice
}

// CostUsd computes (input*price_in + output*price_out)/1e6, spec §4.7.3.
func CostUsd(model string, inputTokens, outputTokens int) float64 {
	p := priceFor(model)
	return (float64(inputTokens)*p.In + float64(outputTokens)*p.Out) / 1e6
}

// OperationSummary/ModelSummary are the per-key aggregates of GetSummary.
type OperationSummary struct {
	Calls        int
	CostUsd      float64
	InputTokens  int
	OutputTokens int
}

// Summary is the cost tracker's aggregate view (invariant I4/P11).
type Summary struct {
	TotalCalls        int
	TotalCostUsd      float64
	TotalInputTokens  int
	TotalOutputTokens int
	ByOperation       map[string]*OperationSummary
	ByModel           map[string]*OperationSummary
}

// CostTracker accumulates UsageRecords and reports aggregate summaries.
type CostTracker struct {
	mu      sync.Mutex
	records []UsageRecord
}

func NewCostTracker() *CostTracker { return &CostTracker{} }

// Record stores a usage record, truncating the prompt sample to 100
// chars and computing its cost from the pricing table.
func (t *CostTracker) Record(operation, model, prompt string, inputTokens, outputTokens int) UsageRecord {
	sample := prompt
	if len(sample) > 100 {
		sample = sample[:100]
	}
	rec := UsageRecord{
		Operation:    operation,
		Model:        model,
		InputTokens:  inputTokens,
		OutputTokens: outputTokens,
		CostUsd:      CostUsd(model, inputTokens, outputTokens),
		PromptSample: sample,
		Timestamp:    time.Now(),
	}
	t.mu.Lock()
	t.records = append(t.records, rec)
	t.mu.Unlock()
	return rec
}

func (t *CostTracker) GetRecords() []UsageRecord {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make([]UsageRecord, len(t.records))
	copy(out, t.records)
	return out
}

func (t *CostTracker) GetSummary() Summary {
	t.mu.Lock()
	defer t.mu.Unlock()

	s := Summary{
		ByOperation: map[string]*OperationSummary{},
		ByModel:     map[string]*OperationSummary{},
	}
	for _, r := range t.records {
		s.TotalCalls++
		s.TotalCostUsd += r.CostUsd
		s.TotalInputTokens += r.InputTokens
		s.TotalOutputTokens += r.OutputTokens

		opSum := s.ByOperation[r.Operation]
		if opSum == nil {
			opSum = &OperationSummary{}
			s.ByOperation[r.Operation] = opSum
		}
		opSum.Calls++
		opSum.CostUsd += r.CostUsd
		opSum.InputTokens += r.InputTokens
		opSum.OutputTokens += r.OutputTokens

		modelSum := s.ByModel[r.Model]
		if modelSum == nil {
			modelSum = &OperationSummary{}
			s.ByModel[r.Model] = modelSum
		}
		modelSum.Calls++
		modelSum.CostUsd += r.CostUsd
		modelSum.InputTokens += r.InputTokens
		modelSum.OutputTokens += r.OutputTokens
	}
	return s
}

// CurrentCost is the running total, used by batch()'s cost-budget check
// (spec §4.9.1: "currentCost - costBefore >= costBudget").
func (t *CostTracker) CurrentCost() float64 {
	t.mu.Lock()
	defer t.mu.Unlock()
	var total float64
	for _, r := range t.records {
		total += r.CostUsd
	}
	return total
}

func (t *CostTracker) Reset() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.records = nil
}
