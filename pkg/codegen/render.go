package codegen

import (
	"fmt"
	"strings"

	"github.com/thinklang/thinklang/pkg/ast"
)

// Render projects a program to readable host-language source for the
// `compile` CLI command (spec §6). It mirrors the same lowering rules
// Compile applies, but as text rather than executable closures — the
// two must stay in lockstep; Render is never fed back into Compile.
func Render(prog *ast.Program) string {
	var b strings.Builder
	for _, imp := range prog.Imports {
		fmt.Fprintf(&b, "// import {%s} from %q\n", strings.Join(imp.Names, ", "), imp.Path)
	}
	b.WriteString("func main(R *Runtime) {\n")
	for _, stmt := range prog.Statements {
		renderStmt(&b, stmt, 1)
	}
	b.WriteString("}\n")
	return b.String()
}

func indent(b *strings.Builder, depth int) {
	b.WriteString(strings.Repeat("  ", depth))
}

func renderStmt(b *strings.Builder, stmt ast.Stmt, depth int) {
	indent(b, depth)
	switch s := stmt.(type) {
	case *ast.TypeDecl:
		fmt.Fprintf(b, "// type %s\n", s.Name)
	case *ast.FuncDecl:
		fmt.Fprintf(b, "func %s(%s) {\n", s.Name, renderParams(s.Params))
		for _, st := range s.Body {
			renderStmt(b, st, depth+1)
		}
		indent(b, depth)
		b.WriteString("}\n")
	case *ast.ToolDecl:
		fmt.Fprintf(b, "R.defineTool(%q, func(%s) {\n", s.Name, renderParams(s.Params))
		for _, st := range s.Body {
			renderStmt(b, st, depth+1)
		}
		indent(b, depth)
		b.WriteString("})\n")
	case *ast.LetStmt:
		kw := "let"
		if s.Uncertain {
			kw = "let uncertain"
		}
		fmt.Fprintf(b, "%s %s = %s\n", kw, s.Name, renderExpr(s.Value))
	case *ast.PrintStmt:
		fmt.Fprintf(b, "print(%s)\n", renderExpr(s.Value))
	case *ast.ExprStmt:
		fmt.Fprintf(b, "%s\n", renderExpr(s.Value))
	case *ast.TryStmt:
		b.WriteString("try {\n")
		for _, st := range s.Body {
			renderStmt(b, st, depth+1)
		}
		indent(b, depth)
		for _, cc := range s.Catches {
			fmt.Fprintf(b, "} catch (%s.%s %s) {\n", "R", cc.ErrorKind, cc.Binding)
			for _, st := range cc.Body {
				renderStmt(b, st, depth+1)
			}
			indent(b, depth)
		}
		b.WriteString("}\n")
	case *ast.IfStmt:
		fmt.Fprintf(b, "if %s {\n", renderExpr(s.Cond))
		for _, st := range s.Then {
			renderStmt(b, st, depth+1)
		}
		indent(b, depth)
		b.WriteString("} else {\n")
		for _, st := range s.Else {
			renderStmt(b, st, depth+1)
		}
		indent(b, depth)
		b.WriteString("}\n")
	case *ast.TestBlock:
		fmt.Fprintf(b, "test %q {\n", s.Name)
		for _, st := range s.Body {
			renderStmt(b, st, depth+1)
		}
		indent(b, depth)
		b.WriteString("}\n")
	case *ast.AssertStmt:
		if s.Semantic {
			fmt.Fprintf(b, "assert.semantic(%s, %s)\n", renderExpr(s.Subject), renderExpr(s.Criteria))
		} else {
			fmt.Fprintf(b, "assert %s\n", renderExpr(s.Expr))
		}
	default:
		b.WriteString("// <unrendered statement>\n")
	}
}

func renderParams(params []ast.Param) string {
	parts := make([]string, len(params))
	for i, p := range params {
		parts[i] = p.Name
	}
	return strings.Join(parts, ", ")
}

func renderExpr(e ast.Expr) string {
	switch e := e.(type) {
	case *ast.StringLit:
		return fmt.Sprintf("%q", e.Value)
	case *ast.NumberLit:
		return fmt.Sprintf("%g", e.Value)
	case *ast.BoolLit:
		return fmt.Sprintf("%t", e.Value)
	case *ast.NullLit:
		return "null"
	case *ast.Identifier:
		return e.Name
	case *ast.MemberExpr:
		return renderExpr(e.Object) + "." + e.Property
	case *ast.CallExpr:
		args := make([]string, len(e.Args))
		for i, a := range e.Args {
			args[i] = renderExpr(a)
		}
		return fmt.Sprintf("%s(%s)", renderExpr(e.Callee), strings.Join(args, ", "))
	case *ast.BinaryExpr:
		return fmt.Sprintf("(%s %s %s)", renderExpr(e.Left), e.Op, renderExpr(e.Right))
	case *ast.UnaryExpr:
		return fmt.Sprintf("%s%s", e.Op, renderExpr(e.Operand))
	case *ast.AICallExpr:
		return fmt.Sprintf("R.%s({...})", e.Kind)
	case *ast.MatchExpr:
		return fmt.Sprintf("match %s { ... }", renderExpr(e.Subject))
	case *ast.ArrayLit:
		parts := make([]string, len(e.Elements))
		for i, el := range e.Elements {
			parts[i] = renderExpr(el)
		}
		return "[" + strings.Join(parts, ", ") + "]"
	case *ast.ObjectLit:
		parts := make([]string, len(e.Fields))
		for i, f := range e.Fields {
			parts[i] = f.Key + ": " + renderExpr(f.Value)
		}
		return "{" + strings.Join(parts, ", ") + "}"
	}
	return "<expr>"
}
