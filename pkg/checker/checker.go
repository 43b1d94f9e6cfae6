// Package checker implements the ThinkLang type checker of spec §4.3:
// uncertain propagation and capability-set enforcement, match
// exhaustiveness, try/catch error-kind validation, AI-call
// type-argument resolution, scope-based name resolution, and
// function/tool signature checking. It never throws — diagnostics
// accumulate into a Result (errors and warnings).
package checker

import (
	"fmt"

	"github.com/thinklang/thinklang/pkg/ast"
	"github.com/thinklang/thinklang/pkg/symtab"
)

// Diagnostic is one checker finding.
type Diagnostic struct {
	Message  string
	Location ast.Location
}

// Result is the checker's full output for one program (spec §4.3: "no
// throwing; diagnostics accumulate").
type Result struct {
	Errors   []Diagnostic
	Warnings []Diagnostic
	Types    *symtab.TypeTable
	Index    *symtab.Index
	Scope    *symtab.Scope // top-level scope, reused by the LSP adapter
}

// recognizedErrorKinds is the runtime error taxonomy of spec §7; a
// catch clause may also name a user-declared type (checked separately).
var recognizedErrorKinds = map[string]bool{
	"ThinkError": true, "SchemaViolation": true, "ConfidenceTooLow": true,
	"GuardFailed": true, "TokenBudgetExceeded": true, "ModelUnavailable": true,
	"Timeout": true, "AgentMaxTurnsError": true, "ToolExecutionError": true,
	"BatchCostBudgetExceeded": true, "BatchAbortedError": true,
}

// FuncSig is a function or tool's checked signature: (τ1,...,τn) → ρ.
type FuncSig struct {
	Params []ast.TypeExpr
	Return ast.TypeExpr
}

// valType is the checker's internal view of an expression's static
// type: the declared TypeExpr (nil if unresolved) plus whether the
// value is capability-restricted (spec §4.3.1).
type valType struct {
	typ       ast.TypeExpr
	uncertain bool
}

var unknownType = valType{}

func stringT() ast.TypeExpr { return &ast.PrimitiveType{Kind: ast.PrimitiveString} }
func floatT() ast.TypeExpr  { return &ast.PrimitiveType{Kind: ast.PrimitiveFloat} }
func boolT() ast.TypeExpr   { return &ast.PrimitiveType{Kind: ast.PrimitiveBool} }

// capabilitySet is the fixed method/property surface of an uncertain
// value (spec §4.3.1, §8 P3).
var capabilitySet = map[string]bool{
	"unwrap": true, "expect": true, "or": true, "map": true,
	"value": true, "confidence": true, "reasoning": true, "isConfident": true,
}

// env is a checker-local lexical scope: it mirrors a symtab.Scope (kept
// for the LSP adapter's hover/completion use) alongside a richer
// valType per binding that the checker needs for capability and
// field-type resolution but that symtab.Binding's cosmetic TypeDesc
// string cannot carry.
type env struct {
	parent *env
	scope  *symtab.Scope
	vars   map[string]valType
}

func newEnv(parent *env) *env {
	var parentScope *symtab.Scope
	if parent != nil {
		parentScope = parent.scope
	}
	return &env{parent: parent, scope: symtab.NewScope(parentScope), vars: map[string]valType{}}
}

func (e *env) define(name string, vt valType, loc ast.Location) {
	e.vars[name] = vt
	e.scope.Define(&symtab.Binding{Name: name, TypeDesc: typeDesc(vt.typ), Uncertain: vt.uncertain, Location: loc})
}

func (e *env) lookup(name string) (valType, bool) {
	for cur := e; cur != nil; cur = cur.parent {
		if vt, ok := cur.vars[name]; ok {
			return vt, true
		}
	}
	return valType{}, false
}

// Checker walks a program accumulating diagnostics against a shared
// type table and a user-declared function/tool signature table.
type Checker struct {
	types  *symtab.TypeTable
	funcs  map[string]FuncSig
	index  *symtab.Index
	result Result
}

func New(types *symtab.TypeTable) *Checker {
	return &Checker{
		types: types,
		funcs: map[string]FuncSig{},
		index: symtab.NewIndex(),
	}
}

// Check type-checks a full program and returns the accumulated diagnostics.
func Check(prog *ast.Program, types *symtab.TypeTable) *Result {
	c := New(types)
	c.collectDecls(prog)
	top := newEnv(nil)
	for _, stmt := range prog.Statements {
		c.checkStmt(stmt, top)
	}
	c.result.Types = c.types
	c.result.Index = c.index
	c.result.Scope = top.scope
	return &c.result
}

// collectDecls performs a pre-pass registering every top-level type,
// function, and tool so forward references within the same file and
// mutual recursion between functions resolve (spec §4.3.6).
func (c *Checker) collectDecls(prog *ast.Program) {
	for _, stmt := range prog.Statements {
		switch d := stmt.(type) {
		case *ast.TypeDecl:
			c.types.Define(d)
			c.index.Define(&symtab.Symbol{Name: d.Name, Kind: symtab.SymbolType, Location: d.Location})
		case *ast.FuncDecl:
			c.funcs[d.Name] = funcSigOf(d.Params, d.ReturnType)
			c.index.Define(&symtab.Symbol{Name: d.Name, Kind: symtab.SymbolFunction, Location: d.Location})
		case *ast.ToolDecl:
			c.funcs[d.Name] = funcSigOf(d.Params, d.ReturnType)
			c.index.Define(&symtab.Symbol{Name: d.Name, Kind: symtab.SymbolTool, Location: d.Location})
		}
	}
}

func funcSigOf(params []ast.Param, ret ast.TypeExpr) FuncSig {
	sig := FuncSig{Return: ret}
	for _, p := range params {
		sig.Params = append(sig.Params, p.Type)
	}
	return sig
}

func (c *Checker) errorf(loc ast.Location, format string, args ...interface{}) {
	c.result.Errors = append(c.result.Errors, Diagnostic{Message: fmt.Sprintf(format, args...), Location: loc})
}

func (c *Checker) warnf(loc ast.Location, format string, args ...interface{}) {
	c.result.Warnings = append(c.result.Warnings, Diagnostic{Message: fmt.Sprintf(format, args...), Location: loc})
}

// ---- Statements ----

func (c *Checker) checkStmt(stmt ast.Stmt, e *env) {
	switch s := stmt.(type) {
	case *ast.TypeDecl:
		c.types.Define(s)
	case *ast.FuncDecl:
		c.funcs[s.Name] = funcSigOf(s.Params, s.ReturnType)
		inner := newEnv(e)
		for _, param := range s.Params {
			inner.define(param.Name, valType{typ: param.Type}, param.Location)
		}
		for _, body := range s.Body {
			c.checkStmt(body, inner)
		}
	case *ast.ToolDecl:
		c.funcs[s.Name] = funcSigOf(s.Params, s.ReturnType)
		inner := newEnv(e)
		for _, param := range s.Params {
			inner.define(param.Name, valType{typ: param.Type}, param.Location)
		}
		for _, body := range s.Body {
			c.checkStmt(body, inner)
		}
	case *ast.LetStmt:
		vt := c.checkExpr(s.Value, e)
		uncertain := s.Uncertain || (isAICall(s.Value) && !isConfidentAnnotated(s.Annotation, s.Value))
		typ := vt.typ
		if s.Annotation != nil {
			typ = s.Annotation
		}
		if _, ok := typ.(*ast.ConfidentType); ok {
			uncertain = true
		}
		e.define(s.Name, valType{typ: typ, uncertain: uncertain}, s.Location)
		c.index.Define(&symtab.Symbol{Name: s.Name, Kind: symtab.SymbolVariable, Location: s.Location})
	case *ast.PrintStmt:
		c.checkExpr(s.Value, e)
	case *ast.ExprStmt:
		c.checkExpr(s.Value, e)
	case *ast.TryStmt:
		inner := newEnv(e)
		for _, body := range s.Body {
			c.checkStmt(body, inner)
		}
		for _, cc := range s.Catches {
			if !recognizedErrorKinds[cc.ErrorKind] {
				if _, ok := c.types.Lookup(cc.ErrorKind); !ok {
					c.errorf(cc.Location, "catch clause names unrecognized error kind %q", cc.ErrorKind)
				}
			}
			catchEnv := newEnv(e)
			if cc.Binding != "" {
				catchEnv.define(cc.Binding, valType{typ: &ast.NamedType{Name: cc.ErrorKind}}, cc.Location)
			}
			for _, body := range cc.Body {
				c.checkStmt(body, catchEnv)
			}
		}
	case *ast.IfStmt:
		c.checkExpr(s.Cond, e)
		thenEnv := newEnv(e)
		for _, body := range s.Then {
			c.checkStmt(body, thenEnv)
		}
		elseEnv := newEnv(e)
		for _, body := range s.Else {
			c.checkStmt(body, elseEnv)
		}
	case *ast.TestBlock:
		inner := newEnv(e)
		for _, body := range s.Body {
			c.checkStmt(body, inner)
		}
	case *ast.AssertStmt:
		if s.Semantic {
			c.checkExpr(s.Subject, e)
			c.checkExpr(s.Criteria, e)
		} else {
			c.checkExpr(s.Expr, e)
		}
	}
}

func isAICall(e ast.Expr) bool {
	_, ok := e.(*ast.AICallExpr)
	return ok
}

func isConfidentAnnotated(annotation ast.TypeExpr, value ast.Expr) bool {
	if annotation != nil {
		if _, ok := annotation.(*ast.ConfidentType); ok {
			return true
		}
	}
	if call, ok := value.(*ast.AICallExpr); ok && call.TypeArg != nil {
		if _, ok := call.TypeArg.(*ast.ConfidentType); ok {
			return true
		}
	}
	return false
}

func typeDesc(t ast.TypeExpr) string {
	if t == nil {
		return "unknown"
	}
	switch t := t.(type) {
	case *ast.PrimitiveType:
		return string(t.Kind)
	case *ast.NamedType:
		return t.Name
	case *ast.ArrayType:
		return typeDesc(t.Elem) + "[]"
	case *ast.OptionalType:
		return typeDesc(t.Inner) + "?"
	case *ast.UnionType:
		s := typeDesc(t.Options[0])
		for _, o := range t.Options[1:] {
			s += " | " + typeDesc(o)
		}
		return s
	case *ast.ConfidentType:
		return "Confident<" + typeDesc(t.Inner) + ">"
	}
	return "unknown"
}
