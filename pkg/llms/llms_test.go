package llms

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReplayProvider_ServesEntriesInOrder(t *testing.T) {
	p := &ReplayProvider{entries: []SnapshotEntry{
		{Response: CompleteResult{Data: "first"}},
		{Response: CompleteResult{Data: "second"}},
	}}

	r1, err := p.Complete(context.Background(), CompleteOptions{UserMessage: "a"})
	require.NoError(t, err)
	assert.Equal(t, "first", r1.Data)

	r2, err := p.Complete(context.Background(), CompleteOptions{UserMessage: "b"})
	require.NoError(t, err)
	assert.Equal(t, "second", r2.Data)
}

func TestReplayProvider_ExhaustedThrows(t *testing.T) {
	p := &ReplayProvider{entries: []SnapshotEntry{{Response: CompleteResult{Data: "only"}}}}
	ctx := context.Background()

	_, err := p.Complete(ctx, CompleteOptions{})
	require.NoError(t, err)

	_, err = p.Complete(ctx, CompleteOptions{})
	require.Error(t, err)
}

type fakeInner struct{ calls int }

func (f *fakeInner) Name() string { return "fake" }
func (f *fakeInner) Complete(ctx context.Context, opts CompleteOptions) (CompleteResult, error) {
	f.calls++
	return CompleteResult{Data: opts.UserMessage}, nil
}

func TestRecordingProvider_RoundTripsThroughSnapshot(t *testing.T) {
	inner := &fakeInner{}
	rec := NewRecordingProvider(inner)

	_, err := rec.Complete(context.Background(), CompleteOptions{UserMessage: "hello"})
	require.NoError(t, err)

	dir := t.TempDir()
	path := filepath.Join(dir, "snap.json")
	require.NoError(t, rec.SaveSnapshot(path))

	replay, err := LoadSnapshot(path)
	require.NoError(t, err)

	out, err := replay.Complete(context.Background(), CompleteOptions{UserMessage: "hello"})
	require.NoError(t, err)
	assert.Equal(t, "hello", out.Data)
}

func TestRegistry_BuildUnknownProviderErrors(t *testing.T) {
	r := NewRegistry()
	_, err := r.Build("nonexistent", "")
	require.Error(t, err)
}

func TestSetProvider_CurrentProviderReturnsWhatWasSet(t *testing.T) {
	old := currentProvider
	defer func() { currentProvider = old }()

	p := &fakeInner{}
	SetProvider(p)

	got, err := CurrentProvider()
	require.NoError(t, err)
	assert.Equal(t, "fake", got.Name())
}

func TestAutoInit_UnsetAPIKeyErrors(t *testing.T) {
	old := os.Getenv("ANTHROPIC_API_KEY")
	os.Unsetenv("ANTHROPIC_API_KEY")
	os.Unsetenv("THINKLANG_PROVIDER")
	defer os.Setenv("ANTHROPIC_API_KEY", old)

	_, err := AutoInit()
	require.Error(t, err)
}
