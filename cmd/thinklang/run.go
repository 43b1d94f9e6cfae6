package main

import (
	"context"
	"fmt"

	"github.com/thinklang/thinklang/pkg/checker"
	"github.com/thinklang/thinklang/pkg/codegen"
	"github.com/thinklang/thinklang/pkg/parser"
	"github.com/thinklang/thinklang/pkg/runtime"
	"github.com/thinklang/thinklang/pkg/symtab"
)

// RunCmd parses, checks, compiles, and executes a .tl file top to
// bottom, the same pipeline pkg/testrunner.RunFile uses for a single
// implicit test block but without any snapshot mode.
type RunCmd struct {
	File string `arg:"" help:"Path to the .tl program to run." type:"path"`
}

func (c *RunCmd) Run(cli *CLI) error {
	_, err := executeFile(cli, c.File)
	return err
}

// executeFile runs the parse/check/compile/execute pipeline for path
// and returns the handle it ran against, so callers like CostReportCmd
// can inspect the cost tracker afterward.
func executeFile(cli *CLI, path string) (*runtime.Handle, error) {
	src, err := readSource(path)
	if err != nil {
		return nil, err
	}

	prog, err := parser.Parse(path, src)
	if err != nil {
		return nil, fmt.Errorf("parse error: %w", err)
	}

	types := symtab.NewTypeTable()
	checked := checker.Check(prog, types)
	for _, w := range checked.Warnings {
		fmt.Printf("%s:%d:%d: warning: %s\n", path, w.Location.Start.Line, w.Location.Start.Column, w.Message)
	}
	if len(checked.Errors) > 0 {
		return nil, reportDiagnostics(path, "error", checked.Errors)
	}

	compiled, err := codegen.Compile(prog, types)
	if err != nil {
		return nil, fmt.Errorf("compile error: %w", err)
	}

	handle, err := defaultHandle(cli)
	if err != nil {
		return nil, err
	}

	ex := runtime.NewExecutor(handle)
	for _, t := range compiled.Tools {
		ex.DefineTool(t.Config)
	}

	ctx := context.Background()
	for _, stmt := range compiled.Body {
		if _, err := stmt(ctx, ex, compiled.TopEnv); err != nil {
			return handle, fmt.Errorf("runtime error: %w", err)
		}
	}
	return handle, nil
}

func reportDiagnostics(file, kind string, diags []checker.Diagnostic) error {
	for _, d := range diags {
		fmt.Printf("%s:%d:%d: %s: %s\n", file, d.Location.Start.Line, d.Location.Start.Column, kind, d.Message)
	}
	return fmt.Errorf("%d type %s(s)", len(diags), kind)
}
