package bulk

import (
	"context"
	"iter"

	"github.com/thinklang/thinklang/pkg/codegen"
)

// StreamEvent is one element of the lazy sequence streamThink/
// streamInfer produce (spec §4.9.4), aliased to codegen.StreamEvent
// (see ChunkTextOpts in chunk.go for why).
type StreamEvent = codegen.StreamEvent

// StreamThink chunks opts.Prompt, then invokes think sequentially per
// chunk, augmenting context with __chunk_index/__total_chunks. The
// sequence is lazy: a consumer that stops early (a `break` in a
// `for range`) leaves later chunks uncalled.
func StreamThink(ctx context.Context, ex codegen.Executor, opts codegen.AIOptions, chunkOpts ChunkTextOpts) iter.Seq[StreamEvent] {
	chunks := ChunkText(opts.Prompt, chunkOpts)
	total := len(chunks)
	return func(yield func(StreamEvent) bool) {
		for i, chunk := range chunks {
			itemOpts := opts
			itemOpts.Prompt = chunk
			itemOpts.Context = withChunkContext(opts.Context, i, total)

			data, err := ex.Think(ctx, itemOpts)
			if !yield(StreamEvent{Index: i, Data: data, TotalChunks: total, Err: err}) {
				return
			}
			if err != nil {
				return
			}
		}
	}
}

// StreamInfer iterates values, invoking infer sequentially per value
// (spec §4.9.4).
func StreamInfer(ctx context.Context, ex codegen.Executor, values []any, optsTemplate func(value any, index int) codegen.AIOptions) iter.Seq[StreamEvent] {
	total := len(values)
	return func(yield func(StreamEvent) bool) {
		for i, v := range values {
			itemOpts := optsTemplate(v, i)
			itemOpts.Context = withChunkContext(itemOpts.Context, i, total)

			data, err := ex.Infer(ctx, itemOpts)
			if !yield(StreamEvent{Index: i, Data: data, TotalChunks: total, Err: err}) {
				return
			}
			if err != nil {
				return
			}
		}
	}
}

func withChunkContext(base map[string]any, index, total int) map[string]any {
	ctx := map[string]any{}
	for k, v := range base {
		ctx[k] = v
	}
	ctx["__chunk_index"] = index
	ctx["__total_chunks"] = total
	return ctx
}

// CollectStream drains a lazy stream into a slice, stopping at the
// first event carrying an error (which is returned alongside whatever
// was collected so far).
func CollectStream(seq iter.Seq[StreamEvent]) ([]StreamEvent, error) {
	var events []StreamEvent
	for ev := range seq {
		events = append(events, ev)
		if ev.Err != nil {
			return events, ev.Err
		}
	}
	return events, nil
}
