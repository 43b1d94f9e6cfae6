package codegen

import (
	"github.com/thinklang/thinklang/pkg/ast"
	"github.com/thinklang/thinklang/pkg/schema"
	"github.com/thinklang/thinklang/pkg/symtab"
)

// Compiler lowers a checked *ast.Program into a *Program of Go
// closures (spec §4.5). It assumes the checker has already run and
// found no errors — codegen does not re-validate, it only lowers.
type Compiler struct {
	types    *symtab.TypeTable
	schema   *schema.Compiler
	funcs    map[string]*Func
	tools    map[string]*ToolDef
}

func NewCompiler(types *symtab.TypeTable) *Compiler {
	return &Compiler{
		types:  types,
		schema: schema.NewCompiler(types),
		funcs:  map[string]*Func{},
		tools:  map[string]*ToolDef{},
	}
}

// Compile lowers a whole program. Declarations are bound once at top
// scope; the remaining (non-declaration) statements become Program.Body,
// run after every declaration is bound — the Go equivalent of spec
// §4.5's "top-level statements wrapped in an async main and invoked,
// declarations remain at top scope" (Go has no such restriction to
// route around, so Body is simply the ordered tail of statements).
func Compile(prog *ast.Program, types *symtab.TypeTable) (*Program, error) {
	c := NewCompiler(types)
	top := NewEnv(nil)

	// Pre-pass: bind every function/tool name before compiling any body,
	// so forward references and mutual recursion resolve.
	for _, stmt := range prog.Statements {
		switch d := stmt.(type) {
		case *ast.FuncDecl:
			c.funcs[d.Name] = &Func{Name: d.Name}
		case *ast.ToolDecl:
			c.tools[d.Name] = &ToolDef{}
			c.funcs[d.Name] = &Func{Name: d.Name}
		}
	}

	var body []Stmt
	for _, stmt := range prog.Statements {
		switch d := stmt.(type) {
		case *ast.TypeDecl:
			// Types carry no runtime behavior; they're consumed by pkg/schema.
			c.types.Define(d)
		case *ast.FuncDecl:
			fn := c.funcs[d.Name]
			fn.ParamNames = paramNames(d.Params)
			fn.Body = c.compileBlock(d.Body)
			top.Define(d.Name, &BoundFunc{Fn: fn, Closure: top})
		case *ast.ToolDecl:
			fn := c.funcs[d.Name]
			fn.ParamNames = paramNames(d.Params)
			fn.Body = c.compileBlock(d.Body)
			top.Define(d.Name, &BoundFunc{Fn: fn, Closure: top})
			c.tools[d.Name].Func = fn
			c.tools[d.Name].Config = ToolConfig{
				Name:        d.Name,
				Description: d.Description,
				ParamNames:  fn.ParamNames,
				ParamSchema: c.toolParamSchema(d.Params),
			}
		default:
			body = append(body, c.compileStmt(stmt))
		}
	}

	return &Program{
		Funcs:  c.funcs,
		Tools:  c.tools,
		Types:  typesMap(types),
		Body:   body,
		TopEnv: top,
	}, nil
}

func typesMap(t *symtab.TypeTable) map[string]*ast.TypeDecl {
	m := map[string]*ast.TypeDecl{}
	for _, name := range t.Names() {
		if decl, ok := t.Lookup(name); ok {
			m[name] = decl
		}
	}
	return m
}

func paramNames(params []ast.Param) []string {
	names := make([]string, len(params))
	for i, p := range params {
		names[i] = p.Name
	}
	return names
}

// toolParamSchema projects a tool's parameter list to an object schema
// so an agent loop can hand it to a provider as a tool-call signature.
func (c *Compiler) toolParamSchema(params []ast.Param) *schema.Schema {
	properties := map[string]*schema.Schema{}
	order := make([]string, len(params))
	for i, p := range params {
		properties[p.Name] = c.schema.Compile(p.Type)
		order[i] = p.Name
	}
	return schema.Obj(properties, order)
}
