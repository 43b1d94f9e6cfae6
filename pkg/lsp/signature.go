package lsp

import "github.com/thinklang/thinklang/pkg/ast"

// builtinAICallSignatures documents the four AI-call forms (spec
// §4.7/§4.8); these have no user-declared signature to look up.
var builtinAICallSignatures = map[ast.AICallKind]string{
	ast.CallThink:  "think<T>(prompt: string)",
	ast.CallInfer:  "infer<T>(value: any, hint?: string)",
	ast.CallReason: "reason<T>(goal: string, steps: ...)",
	ast.CallAgent:  "agent<T>(prompt: string, tools: [...], maxTurns?: int)",
}

// SignatureHelpAt resolves signature help for the call expression
// enclosing pos, or nil if pos isn't inside a call's argument list.
func SignatureHelpAt(doc *Document, pos ast.Position) *SignatureHelpResult {
	if doc.Program == nil {
		return nil
	}
	call := findEnclosingCall(doc.Program.Statements, pos)
	if call == nil {
		return nil
	}
	switch c := call.(type) {
	case *ast.AICallExpr:
		label, ok := builtinAICallSignatures[c.Kind]
		if !ok {
			return nil
		}
		return &SignatureHelpResult{Label: label}
	case *ast.CallExpr:
		id, ok := c.Callee.(*ast.Identifier)
		if !ok {
			return nil
		}
		var params []ast.Param
		var name string
		if fn, ok := lookupFuncDecl(doc.Program, id.Name); ok {
			name, params = fn.Name, fn.Params
		} else if tool, ok := lookupToolDecl(doc.Program, id.Name); ok {
			name, params = tool.Name, tool.Params
		} else {
			return nil
		}
		active := 0
		for i, arg := range c.Args {
			if before(arg.Loc().Start, pos) || arg.Loc().Start == pos {
				active = i
			}
		}
		return &SignatureHelpResult{Label: name + "(" + renderParams(params) + ")", Params: paramLabels(params), Active: active}
	}
	return nil
}

func paramLabels(params []ast.Param) []string {
	out := make([]string, len(params))
	for i, p := range params {
		out[i] = p.Name + ": " + typeDesc(p.Type)
	}
	return out
}

// SignatureHelpResult is this package's signature-help result.
type SignatureHelpResult struct {
	Label  string
	Params []string
	Active int
}

func findEnclosingCall(stmts []ast.Stmt, pos ast.Position) ast.Expr {
	var found ast.Expr
	var visitExpr func(e ast.Expr)
	visitExpr = func(e ast.Expr) {
		if e == nil || !contains(e.Loc(), pos) {
			return
		}
		switch n := e.(type) {
		case *ast.CallExpr:
			found = n
			for _, a := range n.Args {
				visitExpr(a)
			}
		case *ast.AICallExpr:
			found = n
		case *ast.MemberExpr:
			visitExpr(n.Object)
		case *ast.BinaryExpr:
			visitExpr(n.Left)
			visitExpr(n.Right)
		case *ast.UnaryExpr:
			visitExpr(n.Operand)
		case *ast.PipelineExpr:
			for _, s := range n.Stages {
				visitExpr(s)
			}
		case *ast.ArrayLit:
			for _, el := range n.Elements {
				visitExpr(el)
			}
		case *ast.ObjectLit:
			for _, f := range n.Fields {
				visitExpr(f.Value)
			}
		}
	}
	var visitStmts func(stmts []ast.Stmt)
	visitStmts = func(stmts []ast.Stmt) {
		for _, stmt := range stmts {
			if !contains(stmt.Loc(), pos) {
				continue
			}
			switch s := stmt.(type) {
			case *ast.FuncDecl:
				visitStmts(s.Body)
			case *ast.ToolDecl:
				visitStmts(s.Body)
			case *ast.LetStmt:
				visitExpr(s.Value)
			case *ast.PrintStmt:
				visitExpr(s.Value)
			case *ast.ExprStmt:
				visitExpr(s.Value)
			case *ast.TryStmt:
				visitStmts(s.Body)
				for _, cc := range s.Catches {
					visitStmts(cc.Body)
				}
			case *ast.IfStmt:
				visitExpr(s.Cond)
				visitStmts(s.Then)
				visitStmts(s.Else)
			case *ast.TestBlock:
				visitStmts(s.Body)
			}
		}
	}
	visitStmts(stmts)
	return found
}
