package checker

import (
	"github.com/thinklang/thinklang/pkg/ast"
)

func (c *Checker) checkExpr(e ast.Expr, env *env) valType {
	switch e := e.(type) {
	case *ast.StringLit:
		return valType{typ: stringT()}
	case *ast.NumberLit:
		return valType{typ: floatT()}
	case *ast.BoolLit:
		return valType{typ: boolT()}
	case *ast.NullLit:
		return valType{typ: &ast.PrimitiveType{Kind: ast.PrimitiveNull}}
	case *ast.ArrayLit:
		var elem ast.TypeExpr
		for _, el := range e.Elements {
			vt := c.checkExpr(el, env)
			if elem == nil {
				elem = vt.typ
			}
		}
		return valType{typ: &ast.ArrayType{Elem: elem}}
	case *ast.ObjectLit:
		for _, f := range e.Fields {
			c.checkExpr(f.Value, env)
		}
		return unknownType
	case *ast.Identifier:
		if vt, ok := env.lookup(e.Name); ok {
			return vt
		}
		if _, ok := c.funcs[e.Name]; ok {
			return unknownType
		}
		c.errorf(e.Location, "undefined name %q", e.Name)
		return unknownType
	case *ast.MemberExpr:
		obj := c.checkExpr(e.Object, env)
		return c.memberAccessType(obj, e.Property, e.Location)
	case *ast.CallExpr:
		return c.checkCallExpr(e, env)
	case *ast.PipelineExpr:
		var last valType
		for _, stage := range e.Stages {
			last = c.checkExpr(stage, env)
		}
		return last
	case *ast.BinaryExpr:
		c.checkExpr(e.Left, env)
		c.checkExpr(e.Right, env)
		switch e.Op {
		case "==", "!=", "<", ">", "<=", ">=", "&&", "||":
			return valType{typ: boolT()}
		default:
			return unknownType
		}
	case *ast.UnaryExpr:
		c.checkExpr(e.Operand, env)
		if e.Op == "!" {
			return valType{typ: boolT()}
		}
		return unknownType
	case *ast.RangeExpr:
		c.checkExpr(e.Start, env)
		c.checkExpr(e.End, env)
		return valType{typ: &ast.ArrayType{Elem: floatT()}}
	case *ast.MatchExpr:
		return c.checkMatchExpr(e, env)
	case *ast.AICallExpr:
		return c.checkAICall(e, env)
	}
	return unknownType
}

// memberAccessType implements the capability-set enforcement of spec
// §4.3.1: a member access on an uncertain value outside
// {unwrap,expect,or,map,value,confidence,reasoning,isConfident} is
// error *uncertain-member-access*; after unwrap/expect/or/map the
// expression's type becomes the wrapped T.
func (c *Checker) memberAccessType(obj valType, property string, loc ast.Location) valType {
	if obj.uncertain {
		if !capabilitySet[property] {
			c.errorf(loc, "uncertain-member-access: %q is not a member of an uncertain value; use one of unwrap, expect, or, map, value, confidence, reasoning, isConfident", property)
			return unknownType
		}
		switch property {
		case "value", "unwrap", "expect", "or", "map":
			return valType{typ: innerOf(obj.typ)}
		case "confidence":
			return valType{typ: floatT()}
		case "reasoning":
			return valType{typ: stringT()}
		case "isConfident":
			return valType{typ: boolT()}
		}
	}
	if named, ok := obj.typ.(*ast.NamedType); ok {
		if decl, ok := c.types.Lookup(named.Name); ok && decl.IsObject() {
			for _, f := range decl.Fields {
				if f.Name == property {
					return c.wrapFieldType(f.Type)
				}
			}
			c.errorf(loc, "type %q has no field %q", named.Name, property)
		}
	}
	return unknownType
}

func (c *Checker) wrapFieldType(t ast.TypeExpr) valType {
	if ct, ok := t.(*ast.ConfidentType); ok {
		return valType{typ: ct, uncertain: true}
	}
	return valType{typ: t}
}

func innerOf(t ast.TypeExpr) ast.TypeExpr {
	if ct, ok := t.(*ast.ConfidentType); ok {
		return ct.Inner
	}
	return nil
}

// bulkBuiltins are the spec §4.9 bulk-processing functions: they have
// no user-facing FuncDecl, so the checker recognizes them by name here
// the same way it recognizes unwrap/expect/or/map by capability name.
// The bool marks whether the builtin requires a <T> type argument.
var bulkBuiltins = map[string]bool{
	"batch":       false,
	"chunkText":   false,
	"chunkArray":  false,
	"mapThink":    true,
	"reduceThink": true,
	"streamThink": true,
	"streamInfer": true,
}

// checkBulkBuiltinCall type-checks a call to one of bulkBuiltins,
// returning its result type. Argument expressions are always walked so
// undefined names inside them are still caught, even when the builtin
// itself can't resolve a precise return type.
func (c *Checker) checkBulkBuiltinCall(name string, e *ast.CallExpr, env *env) valType {
	for _, arg := range e.Args {
		c.checkExpr(arg, env)
	}
	requiresType := bulkBuiltins[name]
	if requiresType && e.TypeArg == nil {
		c.errorf(e.Location, "%s requires a type argument, e.g. %s<T>(...)", name, name)
		return unknownType
	}
	if e.TypeArg != nil {
		c.checkTypeArgValidity(e.TypeArg, e.Location)
	}
	switch name {
	case "batch":
		return valType{typ: &ast.ArrayType{}}
	case "chunkText":
		return valType{typ: &ast.ArrayType{Elem: stringT()}}
	case "chunkArray":
		return valType{typ: &ast.ArrayType{Elem: &ast.ArrayType{}}}
	case "mapThink":
		return valType{typ: &ast.ArrayType{}}
	case "reduceThink":
		return valType{typ: e.TypeArg}
	case "streamThink", "streamInfer":
		return valType{typ: &ast.ArrayType{}}
	}
	return unknownType
}

func (c *Checker) checkCallExpr(e *ast.CallExpr, env *env) valType {
	if member, ok := e.Callee.(*ast.MemberExpr); ok {
		obj := c.checkExpr(member.Object, env)
		result := c.memberAccessType(obj, member.Property, member.Location)
		for _, arg := range e.Args {
			c.checkExpr(arg, env)
		}
		return result
	}
	if ident, ok := e.Callee.(*ast.Identifier); ok {
		if _, isBulk := bulkBuiltins[ident.Name]; isBulk {
			if _, userDefined := c.funcs[ident.Name]; !userDefined {
				return c.checkBulkBuiltinCall(ident.Name, e, env)
			}
		}
		sig, ok := c.funcs[ident.Name]
		for _, arg := range e.Args {
			c.checkExpr(arg, env)
		}
		if !ok {
			if _, defined := env.lookup(ident.Name); !defined {
				c.errorf(ident.Location, "call to undefined function %q", ident.Name)
			}
			return unknownType
		}
		if len(e.Args) != len(sig.Params) {
			c.errorf(e.Location, "function %q expects %d argument(s), got %d", ident.Name, len(sig.Params), len(e.Args))
		}
		return valType{typ: sig.Return}
	}
	c.checkExpr(e.Callee, env)
	for _, arg := range e.Args {
		c.checkExpr(arg, env)
	}
	return unknownType
}

// checkMatchExpr implements spec §4.3.2: warn *non-exhaustive-match*
// when there is no wildcard arm and no statically-provable covering
// partition (we do not attempt partition-coverage proof beyond the
// wildcard check — exact per the spec's P4/scenario 8).
func (c *Checker) checkMatchExpr(e *ast.MatchExpr, env *env) valType {
	subj := c.checkExpr(e.Subject, env)
	var bodies []valType
	for _, arm := range e.Arms {
		for _, constraint := range arm.Pattern.Constraints {
			c.checkExpr(constraint.Value, env)
			c.checkFieldConstraintType(subj, constraint)
		}
		if arm.Pattern.Kind == ast.PatternLiteral {
			c.checkExpr(arm.Pattern.Literal, env)
		}
		bodies = append(bodies, c.checkExpr(arm.Body, env))
	}
	if !e.HasWildcard() {
		c.warnf(e.Location, "non-exhaustive-match: match has no wildcard arm and no statically-provable covering partition")
	}
	if len(bodies) > 0 {
		return bodies[0]
	}
	return unknownType
}

// checkFieldConstraintType checks that an object pattern's field
// comparison agrees in type with the subject's annotated field type,
// when the subject's named type resolves (spec §4.3.2).
func (c *Checker) checkFieldConstraintType(subj valType, fc ast.FieldConstraint) {
	named, ok := subj.typ.(*ast.NamedType)
	if !ok {
		return
	}
	decl, ok := c.types.Lookup(named.Name)
	if !ok || !decl.IsObject() {
		return
	}
	for _, f := range decl.Fields {
		if f.Name != fc.Name {
			continue
		}
		prim, ok := f.Type.(*ast.PrimitiveType)
		if !ok {
			return
		}
		switch fc.Value.(type) {
		case *ast.NumberLit:
			if prim.Kind != ast.PrimitiveInt && prim.Kind != ast.PrimitiveFloat {
				c.errorf(fc.Location, "match pattern field %q compares a number against declared type %s", fc.Name, prim.Kind)
			}
		case *ast.StringLit:
			if prim.Kind != ast.PrimitiveString {
				c.errorf(fc.Location, "match pattern field %q compares a string against declared type %s", fc.Name, prim.Kind)
			}
		case *ast.BoolLit:
			if prim.Kind != ast.PrimitiveBool {
				c.errorf(fc.Location, "match pattern field %q compares a bool against declared type %s", fc.Name, prim.Kind)
			}
		}
	}
}

// checkAICall implements spec §4.3.4 (type-argument validity) plus
// walking all trailing-clause sub-expressions so undefined names
// inside them are still caught.
func (c *Checker) checkAICall(e *ast.AICallExpr, env *env) valType {
	if e.TypeArg != nil {
		c.checkTypeArgValidity(e.TypeArg, e.Location)
	}
	for _, expr := range []ast.Expr{e.Prompt, e.Value, e.Hint, e.Goal, e.WithContext} {
		if expr != nil {
			c.checkExpr(expr, env)
		}
	}
	for _, tool := range e.Tools {
		c.checkExpr(tool, env)
	}
	if e.MaxTurns != nil {
		c.checkExpr(e.MaxTurns, env)
	}
	for _, g := range e.Guards {
		if g.Constraint != nil {
			c.checkExpr(g.Constraint, env)
		}
		if g.RangeEnd != nil {
			c.checkExpr(g.RangeEnd, env)
		}
	}
	if e.OnFail != nil && e.OnFail.Fallback != nil {
		c.checkExpr(e.OnFail.Fallback, env)
	}
	uncertain := !isConfidentTypeArg(e.TypeArg)
	return valType{typ: e.TypeArg, uncertain: uncertain}
}

func isConfidentTypeArg(t ast.TypeExpr) bool {
	_, ok := t.(*ast.ConfidentType)
	return ok
}

// checkTypeArgValidity recursively resolves every named type reachable
// from an AI-call's type argument (spec §4.3.4): think<T>, infer<T>,
// reason<T>, agent<T>'s T must resolve in the type table.
func (c *Checker) checkTypeArgValidity(t ast.TypeExpr, loc ast.Location) {
	switch t := t.(type) {
	case *ast.NamedType:
		if _, ok := c.types.Lookup(t.Name); !ok {
			c.errorf(loc, "type argument %q does not resolve in the type table", t.Name)
		}
	case *ast.ArrayType:
		c.checkTypeArgValidity(t.Elem, loc)
	case *ast.OptionalType:
		c.checkTypeArgValidity(t.Inner, loc)
	case *ast.ConfidentType:
		c.checkTypeArgValidity(t.Inner, loc)
	case *ast.UnionType:
		for _, o := range t.Options {
			c.checkTypeArgValidity(o, loc)
		}
	}
}
