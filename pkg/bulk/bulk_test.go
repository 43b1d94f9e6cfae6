package bulk

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/thinklang/thinklang/pkg/codegen"
	"github.com/thinklang/thinklang/pkg/rterrors"
)

func TestChunkText_FitsReturnsOneChunk(t *testing.T) {
	chunks := ChunkText("short text", ChunkTextOpts{MaxChars: 100})
	assert.Equal(t, []string{"short text"}, chunks)
}

func TestChunkText_FixedRecoversOriginalWithoutOverlap(t *testing.T) {
	text := strings.Repeat("a", 25)
	chunks := ChunkText(text, ChunkTextOpts{MaxChars: 10, Strategy: "fixed"})
	assert.Equal(t, strings.Join(chunks, ""), text)
	for _, c := range chunks {
		assert.LessOrEqual(t, len(c), 10)
	}
}

func TestChunkText_FixedWithOverlapSharesPrefix(t *testing.T) {
	text := strings.Repeat("0123456789", 4) // 40 chars, divides evenly with the step below
	chunks := ChunkText(text, ChunkTextOpts{MaxChars: 10, Strategy: "fixed", Overlap: 2})
	require.Greater(t, len(chunks), 1)
	for i := 1; i < len(chunks); i++ {
		assert.Equal(t, chunks[i-1][len(chunks[i-1])-2:], chunks[i][:2])
	}
}

func TestChunkText_ParagraphSplitsOnBlankLines(t *testing.T) {
	text := strings.Repeat("word ", 10) + "\n\n" + strings.Repeat("other ", 10)
	chunks := ChunkText(text, ChunkTextOpts{MaxChars: 40, Strategy: "paragraph"})
	require.Greater(t, len(chunks), 1)
}

func TestChunkArray_PartitionsInOrder(t *testing.T) {
	items := []any{0, 1, 2, 3, 4, 5, 6}
	chunks, err := ChunkArray(items, 3)
	require.NoError(t, err)
	require.Len(t, chunks, 3)
	assert.Equal(t, []any{0, 1, 2}, chunks[0])
	assert.Equal(t, []any{3, 4, 5}, chunks[1])
	assert.Equal(t, []any{6}, chunks[2])
}

func TestChunkArray_NonPositiveSizeErrors(t *testing.T) {
	_, err := ChunkArray([]any{1, 2}, 0)
	require.Error(t, err)
	var invalid *rterrors.InvalidArgument
	require.ErrorAs(t, err, &invalid)
}

// fakeExecutor implements codegen.Executor with scripted behavior for
// the operators Dataset/stream rely on (Think, Infer, Batch); the rest
// panic if called, since these tests never exercise them.
type fakeExecutor struct{}

func (fakeExecutor) Think(ctx context.Context, opts codegen.AIOptions) (any, error) {
	return strings.ToUpper(opts.Prompt), nil
}
func (fakeExecutor) Infer(ctx context.Context, opts codegen.AIOptions) (any, error) {
	return opts.Value, nil
}
func (fakeExecutor) Reason(ctx context.Context, opts codegen.AIOptions) (any, error) {
	panic("not used")
}
func (fakeExecutor) Agent(ctx context.Context, opts codegen.AIOptions) (any, error) {
	panic("not used")
}
func (fakeExecutor) DefineTool(cfg codegen.ToolConfig) {}
func (fakeExecutor) CallTool(ctx context.Context, name string, args map[string]any) (any, error) {
	panic("not used")
}
func (fakeExecutor) Batch(ctx context.Context, items []any, processor func(item any, index int) (any, error), opts codegen.BatchOpts) (codegen.BatchResult, error) {
	out := codegen.BatchResult{TotalItems: len(items)}
	for i, item := range items {
		v, err := processor(item, i)
		if err != nil {
			out.Errors = append(out.Errors, err)
			out.ErrorCount++
			continue
		}
		out.Results = append(out.Results, v)
		out.SuccessCount++
	}
	return out, nil
}
func (fakeExecutor) MapThink(ctx context.Context, items []any, template func(item any, index int) codegen.AIOptions, opts codegen.BatchOpts) (codegen.BatchResult, error) {
	panic("not used")
}
func (fakeExecutor) ReduceThink(ctx context.Context, items []any, batchSize int, reduce func(group []any) codegen.AIOptions) (any, error) {
	panic("not used")
}
func (fakeExecutor) ChunkText(text string, opts codegen.ChunkTextOpts) []string {
	panic("not used")
}
func (fakeExecutor) ChunkArray(items []any, chunkSize int) ([][]any, error) {
	panic("not used")
}
func (fakeExecutor) StreamThink(ctx context.Context, opts codegen.AIOptions, chunkOpts codegen.ChunkTextOpts) ([]codegen.StreamEvent, error) {
	panic("not used")
}
func (fakeExecutor) StreamInfer(ctx context.Context, items []any, template func(item any, index int) codegen.AIOptions) ([]codegen.StreamEvent, error) {
	panic("not used")
}

func TestDataset_MapFilterPreservesOrder(t *testing.T) {
	ds := NewDataset([]any{1, 2, 3, 4, 5, 6}).
		Filter(func(item any, index int) (bool, error) { return item.(int)%2 == 0, nil }).
		Map(func(item any, index int) (any, error) { return item.(int) * 10, nil })

	result, err := ds.Execute(context.Background(), fakeExecutor{}, codegen.BatchOpts{})
	require.NoError(t, err)
	assert.Equal(t, []any{20, 40, 60}, result.Results)
}

func TestDataset_FlatMapExpands(t *testing.T) {
	ds := NewDataset([]any{1, 2}).
		FlatMap(func(item any, index int) ([]any, error) { return []any{item, item}, nil })

	result, err := ds.Execute(context.Background(), fakeExecutor{}, codegen.BatchOpts{})
	require.NoError(t, err)
	assert.Equal(t, []any{1, 1, 2, 2}, result.Results)
}

func TestDataset_BatchGroupsIntoSublists(t *testing.T) {
	ds := NewDataset([]any{1, 2, 3, 4, 5}).Batch(2)
	result, err := ds.Execute(context.Background(), fakeExecutor{}, codegen.BatchOpts{})
	require.NoError(t, err)
	require.Len(t, result.Results, 3)
	assert.Equal(t, []any{1, 2}, result.Results[0])
	assert.Equal(t, []any{5}, result.Results[2])
}

func TestDataset_Reduce(t *testing.T) {
	ds := NewDataset([]any{1, 2, 3})
	total, err := ds.Reduce(context.Background(), fakeExecutor{}, 0, func(acc, item any, index int) (any, error) {
		return acc.(int) + item.(int), nil
	}, codegen.BatchOpts{})
	require.NoError(t, err)
	assert.Equal(t, 6, total)
}

func TestStreamThink_ChunksPromptSequentially(t *testing.T) {
	opts := codegen.AIOptions{Prompt: strings.Repeat("a", 25)}
	seq := StreamThink(context.Background(), fakeExecutor{}, opts, ChunkTextOpts{MaxChars: 10, Strategy: "fixed"})

	events, err := CollectStream(seq)
	require.NoError(t, err)
	require.Greater(t, len(events), 1)
	for i, ev := range events {
		assert.Equal(t, i, ev.Index)
		assert.Equal(t, len(events), ev.TotalChunks)
	}
}

func TestStreamThink_StopsEarlyWhenConsumerBreaks(t *testing.T) {
	opts := codegen.AIOptions{Prompt: strings.Repeat("a", 100)}
	seq := StreamThink(context.Background(), fakeExecutor{}, opts, ChunkTextOpts{MaxChars: 10, Strategy: "fixed"})

	count := 0
	for range seq {
		count++
		if count == 2 {
			break
		}
	}
	assert.Equal(t, 2, count)
}
