package codegen

import (
	"context"
	"fmt"

	"github.com/thinklang/thinklang/pkg/ast"
	"github.com/thinklang/thinklang/pkg/rterrors"
)

func (c *Compiler) compileBlock(stmts []ast.Stmt) []Stmt {
	out := make([]Stmt, 0, len(stmts))
	for _, s := range stmts {
		out = append(out, c.compileStmt(s))
	}
	return out
}

func (c *Compiler) compileStmt(stmt ast.Stmt) Stmt {
	switch s := stmt.(type) {
	case *ast.TypeDecl:
		return func(ctx context.Context, ex Executor, env *Env) (any, error) { return nil, nil }

	case *ast.FuncDecl:
		fn := &Func{Name: s.Name, ParamNames: paramNames(s.Params), Body: c.compileBlock(s.Body)}
		return func(ctx context.Context, ex Executor, env *Env) (any, error) {
			env.Define(s.Name, &BoundFunc{Fn: fn, Closure: env})
			return nil, nil
		}

	case *ast.ToolDecl:
		fn := &Func{Name: s.Name, ParamNames: paramNames(s.Params), Body: c.compileBlock(s.Body)}
		return func(ctx context.Context, ex Executor, env *Env) (any, error) {
			env.Define(s.Name, &BoundFunc{Fn: fn, Closure: env})
			return nil, nil
		}

	case *ast.LetStmt:
		value := c.compileExpr(s.Value)
		name := s.Name
		return func(ctx context.Context, ex Executor, env *Env) (any, error) {
			v, err := value(ctx, ex, env)
			if err != nil {
				return nil, err
			}
			env.Define(name, v)
			return nil, nil
		}

	case *ast.PrintStmt:
		value := c.compileExpr(s.Value)
		return func(ctx context.Context, ex Executor, env *Env) (any, error) {
			v, err := value(ctx, ex, env)
			if err != nil {
				return nil, err
			}
			fmt.Println(formatValue(v))
			return nil, nil
		}

	case *ast.ExprStmt:
		value := c.compileExpr(s.Value)
		return func(ctx context.Context, ex Executor, env *Env) (any, error) {
			return value(ctx, ex, env)
		}

	case *ast.TryStmt:
		return c.compileTryStmt(s)

	case *ast.IfStmt:
		return c.compileIfStmt(s)

	case *ast.TestBlock:
		body := c.compileBlock(s.Body)
		return func(ctx context.Context, ex Executor, env *Env) (any, error) {
			inner := NewEnv(env)
			var last any
			for _, st := range body {
				v, err := st(ctx, ex, inner)
				if err != nil {
					return nil, err
				}
				last = v
			}
			return last, nil
		}

	case *ast.AssertStmt:
		return c.compileAssertStmt(s)
	}
	return func(ctx context.Context, ex Executor, env *Env) (any, error) { return nil, nil }
}

func (c *Compiler) compileTryStmt(s *ast.TryStmt) Stmt {
	body := c.compileBlock(s.Body)
	type catch struct {
		kind    string
		binding string
		body    []Stmt
	}
	catches := make([]catch, len(s.Catches))
	for i, cc := range s.Catches {
		catches[i] = catch{kind: cc.ErrorKind, binding: cc.Binding, body: c.compileBlock(cc.Body)}
	}
	return func(ctx context.Context, ex Executor, env *Env) (any, error) {
		inner := NewEnv(env)
		var last any
		var runErr error
		for _, st := range body {
			v, err := st(ctx, ex, inner)
			if err != nil {
				runErr = err
				break
			}
			last = v
		}
		if runErr == nil {
			return last, nil
		}
		kind := rterrors.KindOf(runErr)
		for _, cc := range catches {
			if cc.kind != kind {
				continue
			}
			catchEnv := NewEnv(env)
			if cc.binding != "" {
				catchEnv.Define(cc.binding, runErr)
			}
			var catchLast any
			for _, st := range cc.body {
				v, err := st(ctx, ex, catchEnv)
				if err != nil {
					return nil, err
				}
				catchLast = v
			}
			return catchLast, nil
		}
		return nil, runErr
	}
}

func (c *Compiler) compileIfStmt(s *ast.IfStmt) Stmt {
	cond := c.compileExpr(s.Cond)
	then := c.compileBlock(s.Then)
	els := c.compileBlock(s.Else)
	return func(ctx context.Context, ex Executor, env *Env) (any, error) {
		cv, err := cond(ctx, ex, env)
		if err != nil {
			return nil, err
		}
		branch := then
		if !truthy(cv) {
			branch = els
		}
		inner := NewEnv(env)
		var last any
		for _, st := range branch {
			v, err := st(ctx, ex, inner)
			if err != nil {
				return nil, err
			}
			last = v
		}
		return last, nil
	}
}

func (c *Compiler) compileAssertStmt(s *ast.AssertStmt) Stmt {
	if s.Semantic {
		subject := c.compileExpr(s.Subject)
		criteria := c.compileExpr(s.Criteria)
		schemaForAssert := assertSemanticSchema()
		return func(ctx context.Context, ex Executor, env *Env) (any, error) {
			subj, err := subject(ctx, ex, env)
			if err != nil {
				return nil, err
			}
			crit, err := criteria(ctx, ex, env)
			if err != nil {
				return nil, err
			}
			prompt := fmt.Sprintf("Does this value satisfy the following criteria?\nValue: %s\nCriteria: %s", formatValue(subj), formatValue(crit))
			result, err := ex.Think(ctx, AIOptions{Kind: ast.CallThink, Prompt: prompt, Schema: schemaForAssert})
			if err != nil {
				return nil, err
			}
			m, _ := result.(map[string]any)
			if passes, _ := m["passes"].(bool); !passes {
				explanation, _ := m["explanation"].(string)
				return nil, &rterrors.ThinkError{Message: fmt.Sprintf("assert.semantic failed: %s", explanation)}
			}
			return true, nil
		}
	}
	expr := c.compileExpr(s.Expr)
	return func(ctx context.Context, ex Executor, env *Env) (any, error) {
		v, err := expr(ctx, ex, env)
		if err != nil {
			return nil, err
		}
		if !truthy(v) {
			return nil, &rterrors.ThinkError{Message: "assertion failed"}
		}
		return true, nil
	}
}

func truthy(v any) bool {
	switch v := v.(type) {
	case nil:
		return false
	case bool:
		return v
	case float64:
		return v != 0
	case string:
		return v != ""
	case []any:
		return len(v) > 0
	}
	return true
}

func formatValue(v any) string {
	return fmt.Sprintf("%v", v)
}
