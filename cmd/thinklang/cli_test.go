package main

import (
	"bufio"
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"
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

func writeTempFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

// captureStdout redirects os.Stdout for the duration of fn and returns
// everything written to it, for asserting against a CLI command's
// printed diagnostics.
func captureStdout(t *testing.T, fn func()) string {
	t.Helper()
	old := os.Stdout
	r, w, err := os.Pipe()
	require.NoError(t, err)
	os.Stdout = w

	fn()

	require.NoError(t, w.Close())
	os.Stdout = old

	var buf strings.Builder
	_, err = io.Copy(&buf, r)
	require.NoError(t, err)
	return buf.String()
}

func TestExecuteFile_RunsPrintStatements(t *testing.T) {
	path := writeTempFile(t, "prog.tl", "let x: int = 1\nlet y: int = 2\nprint x + y\n")

	runtime.SetDefaultHandle(runtime.NewHandle(&fakeProvider{}))
	defer runtime.SetDefaultHandle(nil)

	cli := &CLI{}
	handle, err := executeFile(cli, path)
	require.NoError(t, err)
	require.NotNil(t, handle)
}

func TestExecuteFile_ReportsCheckerErrors(t *testing.T) {
	path := writeTempFile(t, "bad.tl", "let x: int = \"nope\"\n")
	cli := &CLI{}
	_, err := executeFile(cli, path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "type error")
}

func TestExecuteFile_PrintsWarningsEvenWhenProgramAlsoErrors(t *testing.T) {
	src := "type Review { score: int }\n" +
		"let r: Review = { score: 5 }\n" +
		"let label = match r { { score: >= 1 } => \"h\" }\n" +
		"let bad: int = \"nope\"\n"
	path := writeTempFile(t, "mixed.tl", src)
	cli := &CLI{}

	stdout := captureStdout(t, func() {
		_, err := executeFile(cli, path)
		require.Error(t, err)
	})
	assert.Contains(t, stdout, "non-exhaustive-match")
}

func TestExecuteFile_RecordsCostForThinkCalls(t *testing.T) {
	path := writeTempFile(t, "ai.tl", "type Review { score: int }\nlet r = think<Review>(\"rate this\")\nprint r.unwrap().score\n")

	handle := runtime.NewHandle(&fakeProvider{data: `{"score": 5}`})
	runtime.SetDefaultHandle(handle)
	defer runtime.SetDefaultHandle(nil)

	cli := &CLI{}
	got, err := executeFile(cli, path)
	require.NoError(t, err)
	summary := got.Cost.GetSummary()
	assert.Equal(t, 1, summary.TotalCalls)
}

func TestEvalReplBlock_ExecutesAgainstSharedHandle(t *testing.T) {
	handle := runtime.NewHandle(&fakeProvider{})
	err := evalReplBlock(handle, "print 1 + 1\n")
	require.NoError(t, err)
}

func TestEvalReplBlock_ReturnsCheckerErrorMessage(t *testing.T) {
	handle := runtime.NewHandle(&fakeProvider{})
	err := evalReplBlock(handle, "print undefined_name\n")
	require.Error(t, err)
}

func TestReadReplBlock_CollectsUntilBracesBalance(t *testing.T) {
	input := "func f(n: int): int {\n  print n\n}\n"
	r := bufio.NewReader(strings.NewReader(input))
	block, eof := readReplBlock(r)
	assert.False(t, eof)
	assert.Equal(t, input, block)
}

func TestReadReplBlock_SingleLineReturnsImmediately(t *testing.T) {
	r := bufio.NewReader(strings.NewReader("print 1\n"))
	block, eof := readReplBlock(r)
	assert.False(t, eof)
	assert.Equal(t, "print 1\n", block)
}

func TestReadReplBlock_ReturnsTrailingContentOnEOFWithoutNewline(t *testing.T) {
	r := bufio.NewReader(strings.NewReader("print 1 + 1"))
	block, eof := readReplBlock(r)
	assert.True(t, eof)
	assert.Equal(t, "print 1 + 1", block)
}

func TestHandleReplCommand_ExitReturnsTrue(t *testing.T) {
	assert.True(t, handleReplCommand(".exit"))
	assert.False(t, handleReplCommand(".help"))
	assert.False(t, handleReplCommand(".unknown"))
}

func TestPrintCostSummaryText_HandlesEmptySummary(t *testing.T) {
	printCostSummaryText(runtime.Summary{})
}
