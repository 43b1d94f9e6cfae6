package codegen

import (
	"context"
	"fmt"

	"github.com/thinklang/thinklang/pkg/ast"
	"github.com/thinklang/thinklang/pkg/rterrors"
)

func lit(v any) Expr {
	return func(ctx context.Context, ex Executor, env *Env) (any, error) { return v, nil }
}

func (c *Compiler) compileExpr(e ast.Expr) Expr {
	switch e := e.(type) {
	case *ast.StringLit:
		return lit(e.Value)
	case *ast.NumberLit:
		return lit(e.Value)
	case *ast.BoolLit:
		return lit(e.Value)
	case *ast.NullLit:
		return lit(nil)
	case *ast.ArrayLit:
		elems := make([]Expr, len(e.Elements))
		for i, el := range e.Elements {
			elems[i] = c.compileExpr(el)
		}
		return func(ctx context.Context, ex Executor, env *Env) (any, error) {
			out := make([]any, len(elems))
			for i, el := range elems {
				v, err := el(ctx, ex, env)
				if err != nil {
					return nil, err
				}
				out[i] = v
			}
			return out, nil
		}
	case *ast.ObjectLit:
		keys := make([]string, len(e.Fields))
		vals := make([]Expr, len(e.Fields))
		for i, f := range e.Fields {
			keys[i] = f.Key
			vals[i] = c.compileExpr(f.Value)
		}
		return func(ctx context.Context, ex Executor, env *Env) (any, error) {
			out := map[string]any{}
			for i, key := range keys {
				v, err := vals[i](ctx, ex, env)
				if err != nil {
					return nil, err
				}
				out[key] = v
			}
			return out, nil
		}
	case *ast.Identifier:
		name := e.Name
		return func(ctx context.Context, ex Executor, env *Env) (any, error) {
			v, ok := env.Get(name)
			if !ok {
				return nil, fmt.Errorf("undefined name %q", name)
			}
			return v, nil
		}
	case *ast.MemberExpr:
		return c.compileMemberExpr(e)
	case *ast.CallExpr:
		return c.compileCallExpr(e)
	case *ast.PipelineExpr:
		return c.compilePipelineExpr(e)
	case *ast.BinaryExpr:
		return c.compileBinaryExpr(e)
	case *ast.UnaryExpr:
		return c.compileUnaryExpr(e)
	case *ast.RangeExpr:
		return c.compileRangeExpr(e)
	case *ast.MatchExpr:
		return c.compileMatchExpr(e)
	case *ast.AICallExpr:
		return c.compileAICall(e)
	}
	return lit(nil)
}

func memberGet(ov any, prop string) (any, error) {
	m, ok := ov.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("cannot access property %q of non-object value", prop)
	}
	if prop == "isConfident" {
		_, hasVal := m["value"]
		_, hasConf := m["confidence"]
		return hasVal && hasConf, nil
	}
	return m[prop], nil
}

func (c *Compiler) compileMemberExpr(e *ast.MemberExpr) Expr {
	obj := c.compileExpr(e.Object)
	prop := e.Property
	return func(ctx context.Context, ex Executor, env *Env) (any, error) {
		ov, err := obj(ctx, ex, env)
		if err != nil {
			return nil, err
		}
		return memberGet(ov, prop)
	}
}

// callValue invokes a callable runtime value with already-evaluated
// arguments. The only callables are *BoundFunc — functions and tools
// compile to the same shape (spec §4.1 treats tool bodies like func bodies).
func callValue(ctx context.Context, ex Executor, fnv any, args []any) (any, error) {
	bf, ok := fnv.(*BoundFunc)
	if !ok {
		return nil, fmt.Errorf("value is not callable")
	}
	return bf.Fn.Call(ctx, ex, bf.Closure, args)
}

// compileCallExpr special-cases the four uncertain-value capability
// methods (unwrap/expect/or/map) and the bulk-processing builtins
// (batch/chunkText/chunkArray/mapThink/reduceThink/streamThink/
// streamInfer, see bulk.go); every other call lowers generically to
// callValue (spec §4.3.1, §4.5, §4.9).
func (c *Compiler) compileCallExpr(e *ast.CallExpr) Expr {
	if member, ok := e.Callee.(*ast.MemberExpr); ok {
		switch member.Property {
		case "unwrap":
			obj := c.compileExpr(member.Object)
			return func(ctx context.Context, ex Executor, env *Env) (any, error) {
				ov, err := obj(ctx, ex, env)
				if err != nil {
					return nil, err
				}
				m, ok := ov.(map[string]any)
				if !ok {
					return ov, nil
				}
				v, has := m["value"]
				if !has {
					return nil, &rterrors.ThinkError{Message: "unwrap called on a non-Confident value"}
				}
				return v, nil
			}
		case "expect":
			obj := c.compileExpr(member.Object)
			var msgExpr Expr
			if len(e.Args) > 0 {
				msgExpr = c.compileExpr(e.Args[0])
			}
			return func(ctx context.Context, ex Executor, env *Env) (any, error) {
				ov, err := obj(ctx, ex, env)
				if err != nil {
					return nil, err
				}
				if m, ok := ov.(map[string]any); ok {
					if v, has := m["value"]; has {
						return v, nil
					}
				}
				msg := "expectation failed"
				if msgExpr != nil {
					mv, err := msgExpr(ctx, ex, env)
					if err != nil {
						return nil, err
					}
					if s, ok := mv.(string); ok {
						msg = s
					}
				}
				return nil, &rterrors.ThinkError{Message: msg}
			}
		case "or":
			obj := c.compileExpr(member.Object)
			var fallback Expr
			if len(e.Args) > 0 {
				fallback = c.compileExpr(e.Args[0])
			}
			return func(ctx context.Context, ex Executor, env *Env) (any, error) {
				ov, err := obj(ctx, ex, env)
				if err != nil {
					return nil, err
				}
				if m, ok := ov.(map[string]any); ok {
					if v, has := m["value"]; has {
						return v, nil
					}
				}
				if fallback != nil {
					return fallback(ctx, ex, env)
				}
				return nil, nil
			}
		case "map":
			obj := c.compileExpr(member.Object)
			var fnExpr Expr
			if len(e.Args) > 0 {
				fnExpr = c.compileExpr(e.Args[0])
			}
			return func(ctx context.Context, ex Executor, env *Env) (any, error) {
				ov, err := obj(ctx, ex, env)
				if err != nil {
					return nil, err
				}
				inner := ov
				if m, ok := ov.(map[string]any); ok {
					if v, has := m["value"]; has {
						inner = v
					}
				}
				if fnExpr == nil {
					return inner, nil
				}
				fnv, err := fnExpr(ctx, ex, env)
				if err != nil {
					return nil, err
				}
				return callValue(ctx, ex, fnv, []any{inner})
			}
		}
	}
	if ident, ok := e.Callee.(*ast.Identifier); ok {
		if _, userDefined := c.funcs[ident.Name]; !userDefined {
			if fn, ok := bulkBuiltinCompilers[ident.Name]; ok {
				return fn(c, e)
			}
		}
	}
	callee := c.compileExpr(e.Callee)
	args := make([]Expr, len(e.Args))
	for i, a := range e.Args {
		args[i] = c.compileExpr(a)
	}
	return func(ctx context.Context, ex Executor, env *Env) (any, error) {
		fnv, err := callee(ctx, ex, env)
		if err != nil {
			return nil, err
		}
		argVals := make([]any, len(args))
		for i, a := range args {
			v, err := a(ctx, ex, env)
			if err != nil {
				return nil, err
			}
			argVals[i] = v
		}
		return callValue(ctx, ex, fnv, argVals)
	}
}

// compilePipelineExpr implements `x |> f(a) |> g` — each stage after
// the first is a call expression whose implicit first argument is the
// previous stage's value; a bare identifier stage is called with the
// previous value as its sole argument.
func (c *Compiler) compilePipelineExpr(e *ast.PipelineExpr) Expr {
	if len(e.Stages) == 0 {
		return lit(nil)
	}
	first := c.compileExpr(e.Stages[0])
	type stage struct {
		callee Expr
		args   []Expr
	}
	stages := make([]stage, 0, len(e.Stages)-1)
	for _, s := range e.Stages[1:] {
		if call, ok := s.(*ast.CallExpr); ok {
			args := make([]Expr, len(call.Args))
			for i, a := range call.Args {
				args[i] = c.compileExpr(a)
			}
			stages = append(stages, stage{callee: c.compileExpr(call.Callee), args: args})
			continue
		}
		stages = append(stages, stage{callee: c.compileExpr(s)})
	}
	return func(ctx context.Context, ex Executor, env *Env) (any, error) {
		v, err := first(ctx, ex, env)
		if err != nil {
			return nil, err
		}
		for _, st := range stages {
			fnv, err := st.callee(ctx, ex, env)
			if err != nil {
				return nil, err
			}
			argVals := make([]any, 0, len(st.args)+1)
			argVals = append(argVals, v)
			for _, a := range st.args {
				av, err := a(ctx, ex, env)
				if err != nil {
					return nil, err
				}
				argVals = append(argVals, av)
			}
			v, err = callValue(ctx, ex, fnv, argVals)
			if err != nil {
				return nil, err
			}
		}
		return v, nil
	}
}

func (c *Compiler) compileBinaryExpr(e *ast.BinaryExpr) Expr {
	left := c.compileExpr(e.Left)
	right := c.compileExpr(e.Right)
	op := e.Op
	return func(ctx context.Context, ex Executor, env *Env) (any, error) {
		if op == "&&" {
			lv, err := left(ctx, ex, env)
			if err != nil {
				return nil, err
			}
			if !truthy(lv) {
				return false, nil
			}
			rv, err := right(ctx, ex, env)
			if err != nil {
				return nil, err
			}
			return truthy(rv), nil
		}
		if op == "||" {
			lv, err := left(ctx, ex, env)
			if err != nil {
				return nil, err
			}
			if truthy(lv) {
				return true, nil
			}
			rv, err := right(ctx, ex, env)
			if err != nil {
				return nil, err
			}
			return truthy(rv), nil
		}
		lv, err := left(ctx, ex, env)
		if err != nil {
			return nil, err
		}
		rv, err := right(ctx, ex, env)
		if err != nil {
			return nil, err
		}
		return applyBinaryOp(op, lv, rv)
	}
}

func applyBinaryOp(op string, lv, rv any) (any, error) {
	switch op {
	case "+":
		if ls, ok := lv.(string); ok {
			return ls + fmt.Sprint(rv), nil
		}
		lf, lok := lv.(float64)
		rf, rok := rv.(float64)
		if lok && rok {
			return lf + rf, nil
		}
		return fmt.Sprint(lv) + fmt.Sprint(rv), nil
	case "-", "*", "/", "%":
		lf, lok := lv.(float64)
		rf, rok := rv.(float64)
		if !lok || !rok {
			return nil, fmt.Errorf("operator %q requires numeric operands", op)
		}
		switch op {
		case "-":
			return lf - rf, nil
		case "*":
			return lf * rf, nil
		case "/":
			return lf / rf, nil
		case "%":
			return float64(int64(lf) % int64(rf)), nil
		}
	case "==":
		return valuesEqual(lv, rv), nil
	case "!=":
		return !valuesEqual(lv, rv), nil
	case "<", ">", "<=", ">=":
		lf, lok := lv.(float64)
		rf, rok := rv.(float64)
		if lok && rok {
			switch op {
			case "<":
				return lf < rf, nil
			case ">":
				return lf > rf, nil
			case "<=":
				return lf <= rf, nil
			case ">=":
				return lf >= rf, nil
			}
		}
		ls, lsok := lv.(string)
		rs, rsok := rv.(string)
		if lsok && rsok {
			switch op {
			case "<":
				return ls < rs, nil
			case ">":
				return ls > rs, nil
			case "<=":
				return ls <= rs, nil
			case ">=":
				return ls >= rs, nil
			}
		}
		return nil, fmt.Errorf("operator %q requires comparable operands", op)
	}
	return nil, fmt.Errorf("unknown operator %q", op)
}

func valuesEqual(a, b any) bool {
	return fmt.Sprint(a) == fmt.Sprint(b)
}

func (c *Compiler) compileUnaryExpr(e *ast.UnaryExpr) Expr {
	operand := c.compileExpr(e.Operand)
	op := e.Op
	return func(ctx context.Context, ex Executor, env *Env) (any, error) {
		v, err := operand(ctx, ex, env)
		if err != nil {
			return nil, err
		}
		switch op {
		case "!":
			return !truthy(v), nil
		case "-":
			f, ok := v.(float64)
			if !ok {
				return nil, fmt.Errorf("unary - requires a numeric operand")
			}
			return -f, nil
		}
		return v, nil
	}
}

func (c *Compiler) compileRangeExpr(e *ast.RangeExpr) Expr {
	start := c.compileExpr(e.Start)
	end := c.compileExpr(e.End)
	return func(ctx context.Context, ex Executor, env *Env) (any, error) {
		sv, err := start(ctx, ex, env)
		if err != nil {
			return nil, err
		}
		ev, err := end(ctx, ex, env)
		if err != nil {
			return nil, err
		}
		sf, _ := sv.(float64)
		ef, _ := ev.(float64)
		var out []any
		for v := sf; v <= ef; v++ {
			out = append(out, v)
		}
		return out, nil
	}
}

func (c *Compiler) compileMatchExpr(e *ast.MatchExpr) Expr {
	subject := c.compileExpr(e.Subject)
	type arm struct {
		kind        ast.PatternKind
		literal     Expr
		constraints []compiledConstraint
		body        Expr
	}
	arms := make([]arm, len(e.Arms))
	for i, a := range e.Arms {
		ca := arm{kind: a.Pattern.Kind, body: c.compileExpr(a.Body)}
		if a.Pattern.Kind == ast.PatternLiteral {
			ca.literal = c.compileExpr(a.Pattern.Literal)
		}
		for _, fc := range a.Pattern.Constraints {
			ca.constraints = append(ca.constraints, compiledConstraint{name: fc.Name, op: fc.Op, value: c.compileExpr(fc.Value)})
		}
		arms[i] = ca
	}
	return func(ctx context.Context, ex Executor, env *Env) (any, error) {
		sv, err := subject(ctx, ex, env)
		if err != nil {
			return nil, err
		}
		for _, a := range arms {
			switch a.kind {
			case ast.PatternWildcard:
				return a.body(ctx, ex, env)
			case ast.PatternLiteral:
				lv, err := a.literal(ctx, ex, env)
				if err != nil {
					return nil, err
				}
				if valuesEqual(sv, lv) {
					return a.body(ctx, ex, env)
				}
			case ast.PatternObject:
				ok, err := matchesConstraints(ctx, ex, env, sv, a.constraints)
				if err != nil {
					return nil, err
				}
				if ok {
					return a.body(ctx, ex, env)
				}
			}
		}
		return nil, &rterrors.ThinkError{Message: "no match arm matched the subject"}
	}
}

type compiledConstraint struct {
	name  string
	op    ast.FieldConstraintOp
	value Expr
}

func matchesConstraints(ctx context.Context, ex Executor, env *Env, subject any, cs []compiledConstraint) (bool, error) {
	m, ok := subject.(map[string]any)
	if !ok {
		return false, nil
	}
	for _, c := range cs {
		target, err := c.value(ctx, ex, env)
		if err != nil {
			return false, err
		}
		field := m[c.name]
		if !compareConstraint(field, c.op, target) {
			return false, nil
		}
	}
	return true, nil
}

func compareConstraint(field any, op ast.FieldConstraintOp, target any) bool {
	switch op {
	case ast.ConstraintEq:
		return valuesEqual(field, target)
	case ast.ConstraintNe:
		return !valuesEqual(field, target)
	}
	ff, fok := field.(float64)
	tf, tok := target.(float64)
	if fok && tok {
		switch op {
		case ast.ConstraintGe:
			return ff >= tf
		case ast.ConstraintLe:
			return ff <= tf
		}
	}
	return false
}
