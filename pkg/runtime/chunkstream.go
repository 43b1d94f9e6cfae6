package runtime

import (
	"context"

	"github.com/thinklang/thinklang/pkg/bulk"
	"github.com/thinklang/thinklang/pkg/codegen"
)

// ChunkText implements spec §4.9.2's chunkText as an Executor method so
// the language surface can reach it the same way it reaches Batch.
func (e *Executor) ChunkText(text string, opts codegen.ChunkTextOpts) []string {
	return bulk.ChunkText(text, opts)
}

// ChunkArray implements spec §4.9.3's chunkArray.
func (e *Executor) ChunkArray(items []any, chunkSize int) ([][]any, error) {
	return bulk.ChunkArray(items, chunkSize)
}

// StreamThink drains spec §4.9.4's lazy think stream eagerly: ThinkLang
// has no lazy-sequence consumption syntax, so the language-level
// builtin collects every chunk's result up front, the same default
// collectStream's pseudocode describes.
func (e *Executor) StreamThink(ctx context.Context, opts codegen.AIOptions, chunkOpts codegen.ChunkTextOpts) ([]codegen.StreamEvent, error) {
	return bulk.CollectStream(bulk.StreamThink(ctx, e, opts, chunkOpts))
}

// StreamInfer drains spec §4.9.4's lazy infer stream eagerly, for the
// same reason as StreamThink.
func (e *Executor) StreamInfer(ctx context.Context, items []any, template func(item any, index int) codegen.AIOptions) ([]codegen.StreamEvent, error) {
	return bulk.CollectStream(bulk.StreamInfer(ctx, e, items, template))
}
