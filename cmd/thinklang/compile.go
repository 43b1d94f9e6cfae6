package main

import (
	"encoding/json"
	"fmt"

	"github.com/thinklang/thinklang/pkg/ast"
	"github.com/thinklang/thinklang/pkg/checker"
	"github.com/thinklang/thinklang/pkg/parser"
	"github.com/thinklang/thinklang/pkg/schema"
	"github.com/thinklang/thinklang/pkg/symtab"
)

// CompileCmd parses and checks a .tl file without executing it,
// printing diagnostics and, on success, the JSON Schema each top-level
// object type declaration compiles to (spec §4.2); alias declarations
// are not printed — useful for inspecting exactly
// what a `think<T>`/`infer<T>` call would send a provider.
type CompileCmd struct {
	File   string `arg:"" help:"Path to the .tl program to check." type:"path"`
	Schema bool   `help:"Print the compiled JSON Schema for every object type declaration." default:"true" negatable:""`
}

func (c *CompileCmd) Run(cli *CLI) error {
	src, err := readSource(c.File)
	if err != nil {
		return err
	}

	prog, err := parser.Parse(c.File, src)
	if err != nil {
		return fmt.Errorf("parse error: %w", err)
	}

	types := symtab.NewTypeTable()
	checked := checker.Check(prog, types)
	for _, w := range checked.Warnings {
		fmt.Printf("%s:%d:%d: warning: %s\n", c.File, w.Location.Start.Line, w.Location.Start.Column, w.Message)
	}
	if len(checked.Errors) > 0 {
		return reportDiagnostics(c.File, "error", checked.Errors)
	}

	fmt.Printf("%s: ok\n", c.File)
	if !c.Schema {
		return nil
	}

	compiler := schema.NewCompiler(types)
	for _, stmt := range prog.Statements {
		decl, ok := stmt.(*ast.TypeDecl)
		if !ok || !decl.IsObject() {
			continue
		}
		s := compiler.Compile(&ast.NamedType{Name: decl.Name, Location: decl.Location})
		out, err := json.MarshalIndent(s, "", "  ")
		if err != nil {
			return fmt.Errorf("marshaling schema for %s: %w", decl.Name, err)
		}
		fmt.Printf("\n%s:\n%s\n", decl.Name, out)
	}
	return nil
}
