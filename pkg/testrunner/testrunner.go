// Package testrunner implements the `.test.tl` test framework of spec
// §4.11: split a parsed file into a preamble plus a sequence of test
// blocks, run each block under its declared provider mode (live,
// replay, or record), and report pass/fail/duration/cost per block.
package testrunner

import (
	"context"
	"fmt"
	"regexp"
	"time"

	"github.com/thinklang/thinklang/pkg/ast"
	"github.com/thinklang/thinklang/pkg/checker"
	"github.com/thinklang/thinklang/pkg/codegen"
	"github.com/thinklang/thinklang/pkg/llms"
	"github.com/thinklang/thinklang/pkg/parser"
	"github.com/thinklang/thinklang/pkg/runtime"
	"github.com/thinklang/thinklang/pkg/symtab"
)

// Status is a single test block's outcome.
type Status string

const (
	StatusPassed Status = "passed"
	StatusFailed Status = "failed"
)

// Result is one test block's report (spec §4.11: "passed/failed,
// duration, incurred cost, an error message on failure").
type Result struct {
	Name       string
	Status     Status
	DurationMs int64
	CostUsd    float64
	Error      string
}

// Report aggregates every test block's Result for one run.
type Report struct {
	File    string
	Results []Result
	Passed  int
	Failed  int
}

// Options configures a run; Pattern, when set, restricts execution to
// test blocks whose name matches (the CLI's `--pattern`); ForceReplay
// forces every block into replay mode from its declared snapshot path
// regardless of its declared mode, failing blocks that declare none
// (the CLI's `--replay`); UpdateSnapshots forces
// record mode instead, overwriting existing snapshot files.
type Options struct {
	Pattern         *regexp.Regexp
	ForceReplay     bool
	UpdateSnapshots bool
}

// RunFile parses, checks, and runs every test block in a .test.tl
// source file against the given base handle (used for blocks that
// declare no mode, and as the delegate a record-mode block wraps).
func RunFile(ctx context.Context, path, src string, base *runtime.Handle, opts Options) (Report, error) {
	prog, err := parser.Parse(path, src)
	if err != nil {
		return Report{}, fmt.Errorf("parse %s: %w", path, err)
	}
	types := symtab.NewTypeTable()
	checked := checker.Check(prog, types)
	if len(checked.Errors) > 0 {
		return Report{}, fmt.Errorf("%s: %d type error(s), first: %s", path, len(checked.Errors), checked.Errors[0].Message)
	}

	preamble, blocks := splitPreambleAndTests(prog)
	report := Report{File: path}

	for _, tb := range blocks {
		if opts.Pattern != nil && !opts.Pattern.MatchString(tb.Name) {
			continue
		}
		result := runBlock(ctx, tb, preamble, types, base, opts)
		report.Results = append(report.Results, result)
		if result.Status == StatusPassed {
			report.Passed++
		} else {
			report.Failed++
		}
	}
	return report, nil
}

func splitPreambleAndTests(prog *ast.Program) ([]ast.Stmt, []*ast.TestBlock) {
	var preamble []ast.Stmt
	var blocks []*ast.TestBlock
	for _, s := range prog.Statements {
		if tb, ok := s.(*ast.TestBlock); ok {
			blocks = append(blocks, tb)
			continue
		}
		preamble = append(preamble, s)
	}
	return preamble, blocks
}

func runBlock(ctx context.Context, tb *ast.TestBlock, preamble []ast.Stmt, types *symtab.TypeTable, base *runtime.Handle, opts Options) Result {
	handle, finish, err := blockHandle(tb, base, opts)
	if err != nil {
		return Result{Name: tb.Name, Status: StatusFailed, Error: err.Error()}
	}

	body := append(append([]ast.Stmt{}, preamble...), tb.Body...)
	program, err := codegen.Compile(&ast.Program{Statements: body}, types)
	if err != nil {
		return Result{Name: tb.Name, Status: StatusFailed, Error: err.Error()}
	}

	ex := runtime.NewExecutor(handle)
	for _, t := range program.Tools {
		ex.DefineTool(t.Config)
	}
	costBefore := handle.Cost.CurrentCost()
	start := time.Now()

	var runErr error
	env := program.TopEnv
	for _, stmt := range program.Body {
		if _, err := stmt(ctx, ex, env); err != nil {
			runErr = err
			break
		}
	}

	duration := time.Since(start).Milliseconds()
	cost := handle.Cost.CurrentCost() - costBefore

	if finish != nil {
		if finishErr := finish(); finishErr != nil && runErr == nil {
			runErr = finishErr
		}
	}

	if runErr != nil {
		return Result{Name: tb.Name, Status: StatusFailed, DurationMs: duration, CostUsd: cost, Error: runErr.Error()}
	}
	return Result{Name: tb.Name, Status: StatusPassed, DurationMs: duration, CostUsd: cost}
}

// blockHandle builds the *runtime.Handle a test block runs against,
// honoring its declared mode (or the CLI overrides in opts). finish,
// when non-nil, must run after the block executes (record mode's
// snapshot flush).
func blockHandle(tb *ast.TestBlock, base *runtime.Handle, opts Options) (*runtime.Handle, func() error, error) {
	snapshotPath := ""
	if tb.Mode != nil {
		snapshotPath = tb.Mode.SnapshotPath
	}

	switch {
	case opts.ForceReplay || (tb.Mode != nil && tb.Mode.Replay && !opts.UpdateSnapshots):
		if snapshotPath == "" {
			return nil, nil, fmt.Errorf("test %q: replay mode requires a snapshot path", tb.Name)
		}
		provider, err := llms.LoadSnapshot(snapshotPath)
		if err != nil {
			return nil, nil, fmt.Errorf("test %q: %w", tb.Name, err)
		}
		return runtime.NewHandle(provider), nil, nil

	case opts.UpdateSnapshots || (tb.Mode != nil && tb.Mode.Record):
		if snapshotPath == "" {
			return nil, nil, fmt.Errorf("test %q: record mode requires a snapshot path", tb.Name)
		}
		recorder := llms.NewRecordingProvider(base.Provider)
		handle := runtime.NewHandle(recorder)
		finish := func() error { return recorder.SaveSnapshot(snapshotPath) }
		return handle, finish, nil

	default:
		return base, nil, nil
	}
}
