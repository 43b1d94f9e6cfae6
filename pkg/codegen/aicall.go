package codegen

import (
	"context"
	"fmt"

	"github.com/thinklang/thinklang/pkg/ast"
	"github.com/thinklang/thinklang/pkg/schema"
)

func assertSemanticSchema() *schema.Schema {
	return schema.Obj(map[string]*schema.Schema{
		"passes":      schema.Prim(schema.TypeBoolean),
		"explanation": schema.Prim(schema.TypeString),
	}, []string{"passes", "explanation"})
}

// compileAICall lowers think/infer/reason/agent to an AIOptions builder
// plus the matching Executor call (spec §4.5, §4.7, §4.8).
func (c *Compiler) compileAICall(e *ast.AICallExpr) Expr {
	var sch *schema.Schema
	var schemaName string
	if e.TypeArg != nil {
		sch = c.schema.Compile(e.TypeArg)
		schemaName = c.schema.HostTypeString(e.TypeArg)
	}

	var prompt, hint, goal Expr
	var value Expr
	if e.Prompt != nil {
		prompt = c.compileExpr(e.Prompt)
	}
	if e.Value != nil {
		value = c.compileExpr(e.Value)
	}
	if e.Hint != nil {
		hint = c.compileExpr(e.Hint)
	}
	if e.Goal != nil {
		goal = c.compileExpr(e.Goal)
	}

	withContext := c.compileWithContext(e.WithContext)
	guards := c.compileGuards(e.Guards)
	fallback := c.compileOnFailFallback(e.OnFail)
	retryCount := 0
	if e.OnFail != nil {
		retryCount = e.OnFail.RetryCount
	}

	toolNames := make([]string, 0, len(e.Tools))
	for _, t := range e.Tools {
		if id, ok := t.(*ast.Identifier); ok {
			toolNames = append(toolNames, id.Name)
		}
	}
	var maxTurns Expr
	if e.MaxTurns != nil {
		maxTurns = c.compileExpr(e.MaxTurns)
	}

	kind := e.Kind
	steps := e.Steps
	withoutKeys := e.WithoutContext
	uncertain := e.Uncertain

	return func(ctx context.Context, ex Executor, env *Env) (any, error) {
		opts := AIOptions{
			Kind:        kind,
			Schema:      sch,
			SchemaName:  schemaName,
			WithoutKeys: withoutKeys,
			Guards:      nil,
			RetryCount:  retryCount,
			Uncertain:   uncertain,
			ToolNames:   toolNames,
		}

		if prompt != nil {
			v, err := prompt(ctx, ex, env)
			if err != nil {
				return nil, err
			}
			if s, ok := v.(string); ok {
				opts.Prompt = s
			}
		}
		if value != nil {
			v, err := value(ctx, ex, env)
			if err != nil {
				return nil, err
			}
			opts.Value = v
		}
		if hint != nil {
			v, err := hint(ctx, ex, env)
			if err != nil {
				return nil, err
			}
			if s, ok := v.(string); ok {
				opts.Hint = s
			}
		}
		if goal != nil {
			v, err := goal(ctx, ex, env)
			if err != nil {
				return nil, err
			}
			if s, ok := v.(string); ok {
				opts.Goal = s
			}
		}
		opts.Steps = steps

		if withContext != nil {
			ctxMap, err := withContext(ctx, ex, env)
			if err != nil {
				return nil, err
			}
			opts.Context = ctxMap
		}

		for _, g := range guards {
			gv, err := g(ctx, ex, env)
			if err != nil {
				return nil, err
			}
			opts.Guards = append(opts.Guards, gv)
		}

		if fallback != nil {
			opts.Fallback = fallback
		}

		if maxTurns != nil {
			v, err := maxTurns(ctx, ex, env)
			if err != nil {
				return nil, err
			}
			if f, ok := v.(float64); ok {
				opts.MaxTurns = int(f)
			}
		}

		switch kind {
		case ast.CallThink:
			return ex.Think(ctx, opts)
		case ast.CallInfer:
			return ex.Infer(ctx, opts)
		case ast.CallReason:
			return ex.Reason(ctx, opts)
		case ast.CallAgent:
			return ex.Agent(ctx, opts)
		}
		return nil, fmt.Errorf("unknown AI-call kind %q", kind)
	}
}

// compileWithContext lowers spec §4.5's withContext rule: a bare
// identifier/member expression becomes {key: expr} (flat); an object
// literal block `{a, b.c}` becomes `{a, b_c: b.c}`.
func (c *Compiler) compileWithContext(e ast.Expr) func(ctx context.Context, ex Executor, env *Env) (map[string]any, error) {
	if e == nil {
		return nil
	}
	if obj, ok := e.(*ast.ObjectLit); ok {
		keys := make([]string, len(obj.Fields))
		vals := make([]Expr, len(obj.Fields))
		for i, f := range obj.Fields {
			keys[i] = flattenContextKey(f.Key, f.Value)
			vals[i] = c.compileExpr(f.Value)
		}
		return func(ctx context.Context, ex Executor, env *Env) (map[string]any, error) {
			out := map[string]any{}
			for i, k := range keys {
				v, err := vals[i](ctx, ex, env)
				if err != nil {
					return nil, err
				}
				out[k] = v
			}
			return out, nil
		}
	}
	key := flattenContextKey("", e)
	value := c.compileExpr(e)
	return func(ctx context.Context, ex Executor, env *Env) (map[string]any, error) {
		v, err := value(ctx, ex, env)
		if err != nil {
			return nil, err
		}
		return map[string]any{key: v}, nil
	}
}

// flattenContextKey derives the context map key for one withContext
// entry: an identifier keeps its name; a member expression `b.c`
// flattens to "b_c"; anything else falls back to the declared key.
func flattenContextKey(declaredKey string, value ast.Expr) string {
	switch v := value.(type) {
	case *ast.Identifier:
		return v.Name
	case *ast.MemberExpr:
		base := flattenContextKey("", v.Object)
		return base + "_" + v.Property
	}
	return declaredKey
}

func (c *Compiler) compileGuards(guards []ast.GuardClause) []func(ctx context.Context, ex Executor, env *Env) (GuardSpec, error) {
	out := make([]func(ctx context.Context, ex Executor, env *Env) (GuardSpec, error), len(guards))
	for i, g := range guards {
		g := g
		constraint := c.compileExpr(g.Constraint)
		var rangeEnd Expr
		if g.RangeEnd != nil {
			rangeEnd = c.compileExpr(g.RangeEnd)
		}
		out[i] = func(ctx context.Context, ex Executor, env *Env) (GuardSpec, error) {
			cv, err := constraint(ctx, ex, env)
			if err != nil {
				return GuardSpec{}, err
			}
			spec := GuardSpec{Name: g.Name, Constraint: cv}
			if rangeEnd != nil {
				rv, err := rangeEnd(ctx, ex, env)
				if err != nil {
					return GuardSpec{}, err
				}
				spec.RangeEnd = rv
				spec.HasRange = true
			}
			return spec, nil
		}
	}
	return out
}

func (c *Compiler) compileOnFailFallback(onFail *ast.OnFailClause) func(ctx context.Context, ex Executor, env *Env) (any, error) {
	if onFail == nil || onFail.Fallback == nil {
		return nil
	}
	fallback := c.compileExpr(onFail.Fallback)
	return func(ctx context.Context, ex Executor, env *Env) (any, error) {
		return fallback(ctx, ex, env)
	}
}
