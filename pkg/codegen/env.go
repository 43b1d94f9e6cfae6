// Package codegen lowers a checked ThinkLang AST to a tree of Go
// closures that execute directly against an injected Executor — the
// runtime symbol `R` of spec §4.5 — rather than compiling to a
// separate host-language source file and re-invoking a build. A
// secondary textual Render exists only for the `compile` CLI command's
// human-readable output (spec §6).
package codegen

import (
	"context"

	"github.com/thinklang/thinklang/pkg/ast"
)

// Env is a lexical value scope at runtime, mirroring symtab.Scope's
// parent-chain shape but holding live values instead of static types.
type Env struct {
	parent *Env
	vars   map[string]any
}

func NewEnv(parent *Env) *Env {
	return &Env{parent: parent, vars: map[string]any{}}
}

func (e *Env) Define(name string, v any) {
	e.vars[name] = v
}

func (e *Env) Get(name string) (any, bool) {
	for cur := e; cur != nil; cur = cur.parent {
		if v, ok := cur.vars[name]; ok {
			return v, true
		}
	}
	return nil, false
}

// Expr is one compiled expression: evaluate it against an executor and
// scope to produce a runtime value.
type Expr func(ctx context.Context, ex Executor, env *Env) (any, error)

// Stmt is one compiled statement. Its return value is the value of its
// last expression, if any — ThinkLang functions have no explicit
// return keyword; a function/tool body's value is its final
// expression statement's value (nil for bodies ending in print/let).
type Stmt func(ctx context.Context, ex Executor, env *Env) (any, error)

// BoundFunc is a callable value: a compiled function/tool paired with
// the lexical scope it closes over (its defining top-level env).
type BoundFunc struct {
	Fn      *Func
	Closure *Env
}

// Func is a compiled function or tool body, callable with already-evaluated
// argument values bound under param names.
type Func struct {
	Name       string
	ParamNames []string
	Body       []Stmt
}

func (f *Func) Call(ctx context.Context, ex Executor, parent *Env, args []any) (any, error) {
	env := NewEnv(parent)
	for i, name := range f.ParamNames {
		if i < len(args) {
			env.Define(name, args[i])
		}
	}
	var last any
	for _, s := range f.Body {
		v, err := s(ctx, ex, env)
		if err != nil {
			return nil, err
		}
		last = v
	}
	return last, nil
}

// Program is the fully lowered output of Compile: top-level
// declarations (functions/tools remain at top scope, per spec §4.5)
// plus the non-declaration statements that ran wrapped — in a
// JS-flavored host this would be an async main; here it's simply the
// tail executed after declarations are bound, since Go has no
// top-level-statement restriction to route around.
type Program struct {
	Funcs     map[string]*Func
	Tools     map[string]*ToolDef
	Types     map[string]*ast.TypeDecl // for reference by name (schema re-derivation, LSP)
	Body      []Stmt
	TopEnv    *Env
}
