package runtime

import (
	"context"
	"log/slog"
	"time"
)

// withRetry wraps fn in the retry driver of spec §4.7 step 7: up to
// retryCount extra attempts with exponential backoff (base 500ms,
// doubled per attempt); on exhaustion, call fallback if supplied,
// otherwise re-throw the last error. retryCount==0 runs fn exactly
// once with no retry wrapping. operation/model are carried through
// only for the retry-attempt log line.
func withRetry(ctx context.Context, operation, model string, retryCount int, fallback func(ctx context.Context) (any, error), fn func() (any, error)) (any, error) {
	var lastErr error
	attempts := retryCount + 1
	for attempt := 0; attempt < attempts; attempt++ {
		if attempt > 0 {
			delay := baseRetryDelay * time.Duration(1<<uint(attempt-1))
			slog.Debug("retrying after failure", "operation", operation, "model", model, "attempt", attempt, "delay", delay)
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(delay):
			}
		}
		result, err := fn()
		if err == nil {
			return result, nil
		}
		lastErr = err
	}
	if retryCount > 0 {
		slog.Warn("retry attempts exhausted", "operation", operation, "model", model, "attempt", attempts, "error", lastErr)
	}
	if fallback != nil {
		return fallback(ctx)
	}
	return nil, lastErr
}

const baseRetryDelay = 500 * time.Millisecond
