package testrunner

import (
	"context"
	"path/filepath"
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/thinklang/thinklang/pkg/llms"
	"github.com/thinklang/thinklang/pkg/runtime"
)

type fakeProvider struct{ data string }

func (p *fakeProvider) Name() string { return "fake" }
func (p *fakeProvider) Complete(ctx context.Context, opts llms.CompleteOptions) (llms.CompleteResult, error) {
	return llms.CompleteResult{Data: p.data, Model: "fake-model"}, nil
}

func TestRunFile_PlainAssertPassesAndFails(t *testing.T) {
	src := `
test "one equals one" {
  assert 1 == 1
}

test "one equals two" {
  assert 1 == 2
}
`
	base := runtime.NewHandle(&fakeProvider{})
	report, err := RunFile(context.Background(), "sample.test.tl", src, base, Options{})
	require.NoError(t, err)
	require.Len(t, report.Results, 2)
	assert.Equal(t, StatusPassed, report.Results[0].Status)
	assert.Equal(t, StatusFailed, report.Results[1].Status)
	assert.Equal(t, 1, report.Passed)
	assert.Equal(t, 1, report.Failed)
	assert.NotEmpty(t, report.Results[1].Error)
}

func TestRunFile_PatternFiltersBlocks(t *testing.T) {
	src := `
test "alpha case" {
  assert true
}

test "beta case" {
  assert true
}
`
	base := runtime.NewHandle(&fakeProvider{})
	report, err := RunFile(context.Background(), "sample.test.tl", src, base, Options{Pattern: regexp.MustCompile("alpha")})
	require.NoError(t, err)
	require.Len(t, report.Results, 1)
	assert.Equal(t, "alpha case", report.Results[0].Name)
}

func TestRunFile_ReplayModeServesSnapshot(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "snap.json")
	recorder := llms.NewRecordingProvider(&fakeProvider{data: `"42"`})
	_, err := recorder.Complete(context.Background(), llms.CompleteOptions{UserMessage: "warm the snapshot"})
	require.NoError(t, err)
	require.NoError(t, recorder.SaveSnapshot(path))

	src := `
test "replayed call" {
  mode: replay("` + filepath.ToSlash(path) + `")
  let r = think<string>("rate")
  assert r == "42"
}
`
	base := runtime.NewHandle(&fakeProvider{data: `"not used"`})
	report, err := RunFile(context.Background(), "sample.test.tl", src, base, Options{})
	require.NoError(t, err)
	require.Len(t, report.Results, 1)
	assert.Equal(t, StatusPassed, report.Results[0].Status)
}

func TestRunFile_CheckerErrorSurfacesAsRunError(t *testing.T) {
	src := `
type Review { score: int }

test "uncertain access without narrowing" {
  let r = think<Review>("rate this")
  print r.score
}
`
	base := runtime.NewHandle(&fakeProvider{})
	_, err := RunFile(context.Background(), "bad.test.tl", src, base, Options{})
	require.Error(t, err)
}
