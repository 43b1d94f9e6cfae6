package bulk

import (
	"context"

	"github.com/thinklang/thinklang/pkg/codegen"
)

type stageKind int

const (
	stageMap stageKind = iota
	stageFilter
	stageFlatMap
	stageBatch
)

type stage struct {
	kind      stageKind
	mapFn     func(item any, index int) (any, error)
	filterFn  func(item any, index int) (bool, error)
	flatMapFn func(item any, index int) ([]any, error)
	batchSize int
}

// Dataset is the lazy chainable collection of spec §4.9.6: map,
// filter, flatMap, and batch(size) queue operators without running
// them; execute/reduce replay the queue sequentially, materialising
// each AI-bearing stage through Executor.Batch so concurrency, cost
// budget, and index-ordering apply uniformly.
type Dataset struct {
	items []any
	ops   []stage
}

func NewDataset(items []any) *Dataset {
	return &Dataset{items: items}
}

func (d *Dataset) clone() *Dataset {
	ops := make([]stage, len(d.ops))
	copy(ops, d.ops)
	return &Dataset{items: d.items, ops: ops}
}

func (d *Dataset) Map(fn func(item any, index int) (any, error)) *Dataset {
	next := d.clone()
	next.ops = append(next.ops, stage{kind: stageMap, mapFn: fn})
	return next
}

func (d *Dataset) Filter(fn func(item any, index int) (bool, error)) *Dataset {
	next := d.clone()
	next.ops = append(next.ops, stage{kind: stageFilter, filterFn: fn})
	return next
}

func (d *Dataset) FlatMap(fn func(item any, index int) ([]any, error)) *Dataset {
	next := d.clone()
	next.ops = append(next.ops, stage{kind: stageFlatMap, flatMapFn: fn})
	return next
}

func (d *Dataset) Batch(size int) *Dataset {
	next := d.clone()
	next.ops = append(next.ops, stage{kind: stageBatch, batchSize: size})
	return next
}

type filterMarker struct {
	value any
	keep  bool
}

// Execute replays the queued operators sequentially, returning the
// final batch result (Results sorted by index per spec's batch
// stability invariant, which each stage inherits from Executor.Batch).
func (d *Dataset) Execute(ctx context.Context, ex codegen.Executor, opts codegen.BatchOpts) (codegen.BatchResult, error) {
	current := d.items
	last := codegen.BatchResult{TotalItems: len(current), SuccessCount: len(current)}

	for _, op := range d.ops {
		switch op.kind {
		case stageMap:
			result, err := ex.Batch(ctx, current, op.mapFn, opts)
			if err != nil {
				return result, err
			}
			current, last = result.Results, result

		case stageFilter:
			result, err := ex.Batch(ctx, current, func(item any, index int) (any, error) {
				keep, err := op.filterFn(item, index)
				if err != nil {
					return nil, err
				}
				return filterMarker{value: item, keep: keep}, nil
			}, opts)
			if err != nil {
				return result, err
			}
			filtered := make([]any, 0, len(result.Results))
			for _, r := range result.Results {
				if fm, ok := r.(filterMarker); ok && fm.keep {
					filtered = append(filtered, fm.value)
				}
			}
			current, last = filtered, result

		case stageFlatMap:
			result, err := ex.Batch(ctx, current, func(item any, index int) (any, error) {
				return op.flatMapFn(item, index)
			}, opts)
			if err != nil {
				return result, err
			}
			var flat []any
			for _, r := range result.Results {
				if items, ok := r.([]any); ok {
					flat = append(flat, items...)
				}
			}
			current, last = flat, result

		case stageBatch:
			groups, err := ChunkArray(current, op.batchSize)
			if err != nil {
				return last, err
			}
			grouped := make([]any, len(groups))
			for i, g := range groups {
				grouped[i] = g
			}
			current = grouped
			last = codegen.BatchResult{TotalItems: len(grouped), SuccessCount: len(grouped)}
		}
	}

	last.Results = current
	return last, nil
}

// Reduce executes the queued pipeline then folds the materialised
// results left to right.
func (d *Dataset) Reduce(ctx context.Context, ex codegen.Executor, init any, fn func(acc, item any, index int) (any, error), opts codegen.BatchOpts) (any, error) {
	result, err := d.Execute(ctx, ex, opts)
	if err != nil {
		return nil, err
	}
	acc := init
	for i, item := range result.Results {
		acc, err = fn(acc, item, i)
		if err != nil {
			return nil, err
		}
	}
	return acc, nil
}
