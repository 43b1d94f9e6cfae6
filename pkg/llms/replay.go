package llms

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"sync"

	"github.com/thinklang/thinklang/pkg/rterrors"
)

// SnapshotEntry is one recorded call, matched against live calls in
// declaration order during replay — the `mode: replay("path")` test
// mechanism of spec §4.10.
type SnapshotEntry struct {
	Request  CompleteOptions `json:"request"`
	Response CompleteResult  `json:"response"`
}

// ReplayProvider serves a fixed snapshot of prior calls in order and
// throws ModelUnavailable once exhausted (P9: replay never reaches a
// live model, and a test that makes more calls than it recorded must
// fail loudly rather than silently falling through to the network).
type ReplayProvider struct {
	mu      sync.Mutex
	entries []SnapshotEntry
	next    int
}

// LoadSnapshot reads a JSON array of SnapshotEntry from path.
func LoadSnapshot(path string) (*ReplayProvider, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("load snapshot %s: %w", path, err)
	}
	var entries []SnapshotEntry
	if err := json.Unmarshal(raw, &entries); err != nil {
		return nil, fmt.Errorf("parse snapshot %s: %w", path, err)
	}
	return &ReplayProvider{entries: entries}, nil
}

func (p *ReplayProvider) Name() string { return "replay" }

func (p *ReplayProvider) Complete(ctx context.Context, opts CompleteOptions) (CompleteResult, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.next >= len(p.entries) {
		return CompleteResult{}, &rterrors.ModelUnavailable{
			Model: "replay",
			Cause: fmt.Errorf("snapshot exhausted after %d recorded calls", len(p.entries)),
		}
	}
	entry := p.entries[p.next]
	p.next++
	return entry.Response, nil
}

// RecordingProvider wraps a live Provider, appending every call/result
// pair to an in-memory log that SaveSnapshot later persists — the
// `mode: record` counterpart to ReplayProvider.
type RecordingProvider struct {
	mu      sync.Mutex
	inner   Provider
	entries []SnapshotEntry
}

func NewRecordingProvider(inner Provider) *RecordingProvider {
	return &RecordingProvider{inner: inner}
}

func (p *RecordingProvider) Name() string { return p.inner.Name() }

func (p *RecordingProvider) Complete(ctx context.Context, opts CompleteOptions) (CompleteResult, error) {
	result, err := p.inner.Complete(ctx, opts)
	if err != nil {
		return result, err
	}
	p.mu.Lock()
	p.entries = append(p.entries, SnapshotEntry{Request: opts, Response: result})
	p.mu.Unlock()
	return result, nil
}

// SaveSnapshot writes every call recorded so far to path as a JSON
// array of SnapshotEntry, for a later replay run to load.
func (p *RecordingProvider) SaveSnapshot(path string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	raw, err := json.MarshalIndent(p.entries, "", "  ")
	if err != nil {
		return fmt.Errorf("encode snapshot: %w", err)
	}
	if err := os.WriteFile(path, raw, 0o644); err != nil {
		return fmt.Errorf("write snapshot %s: %w", path, err)
	}
	return nil
}
