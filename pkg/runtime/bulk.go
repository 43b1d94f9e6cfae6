package runtime

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/semaphore"
	"golang.org/x/time/rate"

	"github.com/thinklang/thinklang/pkg/codegen"
	"github.com/thinklang/thinklang/pkg/rterrors"
)

// batchSlot holds one item's outcome at its original index, so results
// can be reassembled in order once every goroutine has settled.
type batchSlot struct {
	value any
	err   error
	has   bool
}

// Batch implements spec §4.9.1: a pool of at most maxConcurrency
// in-flight processor invocations, FIFO by index, an optional global
// rate limit between item starts, an optional cost budget, and
// cooperative abort. Results/errors are returned sorted by index.
func (e *Executor) Batch(ctx context.Context, items []any, processor func(item any, index int) (any, error), opts codegen.BatchOpts) (codegen.BatchResult, error) {
	maxConcurrency := opts.MaxConcurrency
	if maxConcurrency <= 0 {
		maxConcurrency = 5
	}
	sem := semaphore.NewWeighted(int64(maxConcurrency))

	var limiter *rate.Limiter
	if opts.RateLimitMs > 0 {
		limiter = rate.NewLimiter(rate.Every(time.Duration(opts.RateLimitMs)*time.Millisecond), 1)
	}

	costBefore := e.handle.Cost.CurrentCost()

	results := make([]batchSlot, len(items))

	var (
		mu       sync.Mutex
		stop     bool
		firstErr error
		wg       sync.WaitGroup
	)
	start := time.Now()

	for i, item := range items {
		mu.Lock()
		stopped := stop
		mu.Unlock()
		if stopped {
			break
		}
		if limiter != nil {
			if err := limiter.Wait(ctx); err != nil {
				break
			}
		}
		if err := sem.Acquire(ctx, 1); err != nil {
			break
		}

		if opts.HasCostBudget && e.handle.Cost.CurrentCost()-costBefore >= opts.CostBudget {
			sem.Release(1)
			budgetErr := &rterrors.BatchCostBudgetExceeded{Budget: opts.CostBudget, Spent: e.handle.Cost.CurrentCost() - costBefore}
			mu.Lock()
			stop = true
			if opts.OnErrorFailFast {
				firstErr = budgetErr
			} else {
				results[i] = batchSlot{err: budgetErr, has: true}
			}
			mu.Unlock()
			break
		}

		wg.Add(1)
		go func(item any, idx int) {
			defer wg.Done()
			defer sem.Release(1)

			slog.Debug("batch item", "operation", "batch", "attempt", idx)
			val, err := processor(item, idx)
			if err != nil {
				slog.Warn("batch item failed", "operation", "batch", "attempt", idx, "error", err)
			}

			mu.Lock()
			defer mu.Unlock()
			results[idx] = batchSlot{value: val, err: err, has: true}
			if err != nil && opts.OnErrorFailFast && firstErr == nil {
				firstErr = err
				stop = true
			}
		}(item, i)
	}
	wg.Wait()

	out := codegen.BatchResult{TotalItems: len(items)}
	// results is already in index order (one slot per original item),
	// so a single forward pass yields index-sorted Results/Errors (P6).
	for _, s := range results {
		if !s.has {
			continue
		}
		if s.err != nil {
			out.Errors = append(out.Errors, s.err)
			out.ErrorCount++
		} else {
			out.Results = append(out.Results, s.value)
			out.SuccessCount++
		}
	}
	out.TotalCostUsd = e.handle.Cost.CurrentCost() - costBefore
	out.TotalDurationMs = time.Since(start).Milliseconds()

	if firstErr != nil {
		return out, firstErr
	}
	return out, nil
}

// MapThink is batch() whose processor invokes think per item (spec
// §4.9.5): template builds the per-item AIOptions, sharing context
// plus __item_index/__total_items.
func (e *Executor) MapThink(ctx context.Context, items []any, template func(item any, index int) codegen.AIOptions, opts codegen.BatchOpts) (codegen.BatchResult, error) {
	total := len(items)
	processor := func(item any, index int) (any, error) {
		aiOpts := template(item, index)
		if aiOpts.Context == nil {
			aiOpts.Context = map[string]any{}
		}
		aiOpts.Context["__item_index"] = index
		aiOpts.Context["__total_items"] = total
		return e.Think(ctx, aiOpts)
	}
	return e.Batch(ctx, items, processor, opts)
}

// ReduceThink tree-reduces items by repeatedly batching groups of
// batchSize through think until one value remains (spec §4.9.5).
// Fails fast on empty input.
func (e *Executor) ReduceThink(ctx context.Context, items []any, batchSize int, reduce func(group []any) codegen.AIOptions) (any, error) {
	if len(items) == 0 {
		return nil, &rterrors.ThinkError{Message: "reduceThink: items must be non-empty"}
	}
	if batchSize <= 0 {
		batchSize = 2
	}

	current := items
	for len(current) > 1 {
		var groups [][]any
		for i := 0; i < len(current); i += batchSize {
			end := i + batchSize
			if end > len(current) {
				end = len(current)
			}
			groups = append(groups, current[i:end])
		}

		groupItems := make([]any, len(groups))
		for i, g := range groups {
			groupItems[i] = g
		}
		result, err := e.Batch(ctx, groupItems, func(item any, index int) (any, error) {
			group := item.([]any)
			return e.Think(ctx, reduce(group))
		}, codegen.BatchOpts{MaxConcurrency: 5})
		if err != nil {
			return nil, err
		}
		current = result.Results
	}
	return current[0], nil
}
