package lsp

import "github.com/thinklang/thinklang/pkg/ast"

// exprAt returns the innermost expression node containing pos, or nil.
func exprAt(e ast.Expr, pos ast.Position) ast.Expr {
	if e == nil || !contains(e.Loc(), pos) {
		return nil
	}
	switch n := e.(type) {
	case *ast.MemberExpr:
		if inner := exprAt(n.Object, pos); inner != nil {
			return inner
		}
		return n
	case *ast.CallExpr:
		if inner := exprAt(n.Callee, pos); inner != nil {
			return inner
		}
		for _, a := range n.Args {
			if inner := exprAt(a, pos); inner != nil {
				return inner
			}
		}
		return n
	case *ast.PipelineExpr:
		for _, s := range n.Stages {
			if inner := exprAt(s, pos); inner != nil {
				return inner
			}
		}
		return n
	case *ast.BinaryExpr:
		if inner := exprAt(n.Left, pos); inner != nil {
			return inner
		}
		if inner := exprAt(n.Right, pos); inner != nil {
			return inner
		}
		return n
	case *ast.UnaryExpr:
		if inner := exprAt(n.Operand, pos); inner != nil {
			return inner
		}
		return n
	case *ast.RangeExpr:
		if inner := exprAt(n.Start, pos); inner != nil {
			return inner
		}
		if inner := exprAt(n.End, pos); inner != nil {
			return inner
		}
		return n
	case *ast.ArrayLit:
		for _, el := range n.Elements {
			if inner := exprAt(el, pos); inner != nil {
				return inner
			}
		}
		return n
	case *ast.ObjectLit:
		for _, f := range n.Fields {
			if inner := exprAt(f.Value, pos); inner != nil {
				return inner
			}
		}
		return n
	case *ast.MatchExpr:
		if inner := exprAt(n.Subject, pos); inner != nil {
			return inner
		}
		for _, arm := range n.Arms {
			if inner := exprAt(arm.Body, pos); inner != nil {
				return inner
			}
		}
		return n
	case *ast.AICallExpr:
		for _, sub := range []ast.Expr{n.Prompt, n.Value, n.Hint, n.Goal, n.WithContext, n.MaxTurns} {
			if inner := exprAt(sub, pos); inner != nil {
				return inner
			}
		}
		for _, t := range n.Tools {
			if inner := exprAt(t, pos); inner != nil {
				return inner
			}
		}
		return n
	case *ast.Identifier:
		return n
	default:
		return n
	}
}

// stmtsAt walks a statement list (recursing into nested bodies) to
// find the innermost expression containing pos.
func stmtsAt(stmts []ast.Stmt, pos ast.Position) ast.Expr {
	for _, stmt := range stmts {
		if !contains(stmt.Loc(), pos) {
			continue
		}
		switch s := stmt.(type) {
		case *ast.FuncDecl:
			return stmtsAt(s.Body, pos)
		case *ast.ToolDecl:
			return stmtsAt(s.Body, pos)
		case *ast.LetStmt:
			return exprAt(s.Value, pos)
		case *ast.PrintStmt:
			return exprAt(s.Value, pos)
		case *ast.ExprStmt:
			return exprAt(s.Value, pos)
		case *ast.TryStmt:
			if e := stmtsAt(s.Body, pos); e != nil {
				return e
			}
			for _, cc := range s.Catches {
				if contains(cc.Location, pos) {
					return stmtsAt(cc.Body, pos)
				}
			}
		case *ast.IfStmt:
			if e := exprAt(s.Cond, pos); e != nil {
				return e
			}
			if e := stmtsAt(s.Then, pos); e != nil {
				return e
			}
			return stmtsAt(s.Else, pos)
		case *ast.TestBlock:
			return stmtsAt(s.Body, pos)
		case *ast.AssertStmt:
			if s.Semantic {
				if e := exprAt(s.Subject, pos); e != nil {
					return e
				}
				return exprAt(s.Criteria, pos)
			}
			return exprAt(s.Expr, pos)
		}
	}
	return nil
}
