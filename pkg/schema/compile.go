package schema

import (
	"fmt"

	"github.com/thinklang/thinklang/pkg/ast"
	"github.com/thinklang/thinklang/pkg/symtab"
)

// Compiler projects type-AST into JSON Schema and into a cosmetic
// host-type string, both per spec §4.2. It dereferences named types
// through a symtab.TypeTable; a missing named type degrades to a bare
// object schema rather than erroring — the checker catches that case.
type Compiler struct {
	types *symtab.TypeTable

	// visiting guards against infinite recursion on mutually
	// referential object types (A has a field of type B which has a
	// field of type A); a type visited twice in one chain compiles to
	// a $ref instead of re-expanding.
	visiting map[string]bool
}

func NewCompiler(types *symtab.TypeTable) *Compiler {
	return &Compiler{types: types, visiting: map[string]bool{}}
}

// Compile projects a type expression to its JSON Schema.
func (c *Compiler) Compile(t ast.TypeExpr) *Schema {
	switch t := t.(type) {
	case *ast.PrimitiveType:
		return Prim(primitiveSchemaType(t.Kind))
	case *ast.NamedType:
		return c.compileNamed(t.Name)
	case *ast.ArrayType:
		return Arr(c.Compile(t.Elem))
	case *ast.OptionalType:
		return AnyOf(c.Compile(t.Inner), Prim(TypeNull))
	case *ast.UnionType:
		opts := make([]*Schema, len(t.Options))
		for i, o := range t.Options {
			opts[i] = c.Compile(o)
		}
		return AnyOf(opts...)
	case *ast.ConfidentType:
		return c.compileConfident(t.Inner)
	default:
		return &Schema{Kind: KindObject, AdditionalProperties: false}
	}
}

func primitiveSchemaType(k ast.PrimitiveKind) PrimitiveType {
	switch k {
	case ast.PrimitiveString:
		return TypeString
	case ast.PrimitiveInt:
		return TypeInteger
	case ast.PrimitiveFloat:
		return TypeNumber
	case ast.PrimitiveBool:
		return TypeBoolean
	case ast.PrimitiveNull:
		return TypeNull
	}
	return TypeString
}

func (c *Compiler) compileNamed(name string) *Schema {
	decl, ok := c.types.Lookup(name)
	if !ok {
		// Missing named type: not an error here (spec §4.2); the
		// checker's type-argument-validity obligation (§4.3.4) reports it.
		return &Schema{Kind: KindObject, AdditionalProperties: false}
	}
	if !decl.IsObject() {
		return c.Compile(decl.Alias)
	}
	if c.visiting[name] {
		return &Schema{Kind: KindRef, RefName: name}
	}
	c.visiting[name] = true
	defer delete(c.visiting, name)

	props := map[string]*Schema{}
	order := make([]string, 0, len(decl.Fields))
	required := make([]string, 0, len(decl.Fields))
	for _, f := range decl.Fields {
		fieldSchema := c.Compile(f.Type)
		applyAnnotations(fieldSchema, f.Annotations)
		if f.Optional {
			fieldSchema = AnyOf(fieldSchema, Prim(TypeNull))
		} else {
			required = append(required, f.Name)
		}
		props[f.Name] = fieldSchema
		order = append(order, f.Name)
	}
	return &Schema{
		Kind:                 KindObject,
		Properties:           props,
		PropertyOrder:        order,
		Required:             required,
		AdditionalProperties: false,
	}
}

// compileConfident expands Confident<T> to the fixed three-property
// shape of spec §4.2.
func (c *Compiler) compileConfident(inner ast.TypeExpr) *Schema {
	zero := 0.0
	one := 1.0
	return Obj(map[string]*Schema{
		"value":      c.Compile(inner),
		"confidence": &Schema{Kind: KindPrimitive, Primitive: TypeNumber, Minimum: &zero, Maximum: &one},
		"reasoning":  Prim(TypeString),
	}, []string{"value", "confidence", "reasoning"})
}

// applyAnnotations merges a field's declared annotations onto its
// compiled schema (spec §4.2: description, range→minimum/maximum,
// length/item bounds, pattern).
func applyAnnotations(s *Schema, ann ast.FieldAnnotations) {
	if ann.Description != nil {
		s.Description = ann.Description
	}
	if ann.RangeMin != nil {
		s.Minimum = ann.RangeMin
	}
	if ann.RangeMax != nil {
		s.Maximum = ann.RangeMax
	}
	if ann.MinLength != nil {
		s.MinLength = ann.MinLength
	}
	if ann.MaxLength != nil {
		s.MaxLength = ann.MaxLength
	}
	if ann.MinItems != nil {
		s.MinItems = ann.MinItems
	}
	if ann.MaxItems != nil {
		s.MaxItems = ann.MaxItems
	}
	if ann.Pattern != nil {
		s.Pattern = ann.Pattern
	}
}

// HostTypeString renders the cosmetic host-language type string used
// by the code generator's compile-command output (spec §4.2: "pure
// cosmetic metadata, not semantically load-bearing").
func (c *Compiler) HostTypeString(t ast.TypeExpr) string {
	switch t := t.(type) {
	case *ast.PrimitiveType:
		switch t.Kind {
		case ast.PrimitiveString:
			return "string"
		case ast.PrimitiveInt, ast.PrimitiveFloat:
			return "number"
		case ast.PrimitiveBool:
			return "boolean"
		case ast.PrimitiveNull:
			return "null"
		}
	case *ast.NamedType:
		return t.Name
	case *ast.ArrayType:
		return c.HostTypeString(t.Elem) + "[]"
	case *ast.OptionalType:
		return c.HostTypeString(t.Inner) + " | null"
	case *ast.UnionType:
		s := c.HostTypeString(t.Options[0])
		for _, o := range t.Options[1:] {
			s += " | " + c.HostTypeString(o)
		}
		return s
	case *ast.ConfidentType:
		return fmt.Sprintf("Confident<%s>", c.HostTypeString(t.Inner))
	}
	return "unknown"
}
