// Package bulk implements the text/array chunkers, lazy streaming
// helpers, and Dataset pipeline of spec §4.9 that sit outside the
// codegen.Executor contract (batch/mapThink/reduceThink live in
// pkg/runtime, since the interface requires them as methods).
package bulk

import (
	"regexp"
	"strings"

	"github.com/thinklang/thinklang/pkg/codegen"
	"github.com/thinklang/thinklang/pkg/rterrors"
	"github.com/thinklang/thinklang/pkg/tokens"
)

// ChunkTextOpts configures chunkText (spec §4.9.2); Model, when set,
// is the tiktoken model name used to translate MaxTokens into a
// character limit from the text's actual token/char ratio rather than
// the flat 4-chars/token estimate. Aliased to codegen.ChunkTextOpts so
// the Executor interface there and the chunking implementation here
// share one type without an import cycle.
type ChunkTextOpts = codegen.ChunkTextOpts

// chunkLimit converts opts into a character limit. MaxTokens is
// translated via the text's own tiktoken ratio (total encoded tokens
// vs. total chars) rather than a flat 4 chars/token guess, so the
// limit reflects how this model actually tokenizes this text.
func chunkLimit(text string, opts ChunkTextOpts) int {
	switch {
	case opts.MaxChars > 0:
		return opts.MaxChars
	case opts.MaxTokens > 0:
		return charLimitForTokenBudget(text, opts.MaxTokens, opts.Model)
	default:
		return 4000
	}
}

func charLimitForTokenBudget(text string, maxTokens int, model string) int {
	if len(text) == 0 {
		return maxTokens * 4
	}
	tc, err := tokens.NewTokenCounter(model)
	if err != nil {
		return maxTokens * 4
	}
	total := tc.Count(text)
	if total == 0 {
		return maxTokens * 4
	}
	charsPerToken := float64(len(text)) / float64(total)
	limit := int(charsPerToken * float64(maxTokens))
	if limit <= 0 {
		return maxTokens * 4
	}
	return limit
}

// ChunkText splits text into chunks under the configured limit. If the
// whole text already fits, it returns a single chunk.
func ChunkText(text string, opts ChunkTextOpts) []string {
	limit := chunkLimit(text, opts)
	if len(text) <= limit {
		return []string{text}
	}
	switch opts.Strategy {
	case "fixed":
		return chunkFixed(text, limit, opts.Overlap)
	case "sentence":
		return applyOverlap(accumulateSegments(splitSentences(text), limit, " ", opts.Overlap), opts.Overlap)
	default:
		return applyOverlap(accumulateSegments(splitParagraphs(text), limit, "\n\n", opts.Overlap), opts.Overlap)
	}
}

var paragraphSplitter = regexp.MustCompile(`\n\s*\n`)

func splitParagraphs(text string) []string {
	parts := paragraphSplitter.Split(text, -1)
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if strings.TrimSpace(p) != "" {
			out = append(out, p)
		}
	}
	return out
}

var sentenceSplitter = regexp.MustCompile(`[^.!?]+[.!?]+\s*`)

func splitSentences(text string) []string {
	matches := sentenceSplitter.FindAllString(text, -1)
	if len(matches) == 0 {
		return []string{text}
	}
	return matches
}

// accumulateSegments greedily joins segments with joiner until the next
// one would exceed limit, emitting a chunk and starting over. A segment
// that alone exceeds limit is flushed then split with chunkFixed.
func accumulateSegments(segments []string, limit int, joiner string, overlap int) []string {
	var chunks []string
	var current string
	flush := func() {
		if current != "" {
			chunks = append(chunks, current)
			current = ""
		}
	}
	for _, seg := range segments {
		if len(seg) > limit {
			flush()
			chunks = append(chunks, chunkFixed(seg, limit, overlap)...)
			continue
		}
		candidate := seg
		if current != "" {
			candidate = current + joiner + seg
		}
		if len(candidate) > limit {
			flush()
			current = seg
		} else {
			current = candidate
		}
	}
	flush()
	return chunks
}

// chunkFixed slides a window of size limit, stepping by limit-overlap,
// so each window's overlap with its predecessor is baked directly into
// the slice boundaries rather than needing a separate prepend pass.
func chunkFixed(text string, limit, overlap int) []string {
	if limit <= 0 {
		return []string{text}
	}
	step := limit - overlap
	if step <= 0 {
		step = limit
	}
	var chunks []string
	for start := 0; start < len(text); start += step {
		end := start + limit
		if end > len(text) {
			end = len(text)
		}
		chunks = append(chunks, text[start:end])
		if end == len(text) {
			break
		}
	}
	return chunks
}

// applyOverlap prepends the last `overlap` characters of each chunk to
// its successor, for the paragraph/sentence strategies whose segments
// are non-overlapping by construction (fixed bakes overlap into its own
// windowing and must not go through this a second time).
func applyOverlap(chunks []string, overlap int) []string {
	if overlap <= 0 || len(chunks) < 2 {
		return chunks
	}
	out := make([]string, len(chunks))
	out[0] = chunks[0]
	for i := 1; i < len(chunks); i++ {
		prev := chunks[i-1]
		prefix := prev
		if len(prefix) > overlap {
			prefix = prefix[len(prefix)-overlap:]
		}
		out[i] = prefix + chunks[i]
	}
	return out
}

// ChunkArray partitions items into fixed-size groups (spec §4.9.3),
// preserving order; every group has size <= chunkSize and all but
// possibly the last have size exactly chunkSize.
func ChunkArray(items []any, chunkSize int) ([][]any, error) {
	if chunkSize <= 0 {
		return nil, &rterrors.InvalidArgument{Message: "chunkArray: chunkSize must be positive"}
	}
	var chunks [][]any
	for i := 0; i < len(items); i += chunkSize {
		end := i + chunkSize
		if end > len(items) {
			end = len(items)
		}
		chunks = append(chunks, items[i:end])
	}
	return chunks, nil
}
