package schema

import (
	"encoding/json"
	"testing"

	"github.com/thinklang/thinklang/pkg/ast"
	"github.com/thinklang/thinklang/pkg/symtab"
)

func TestCompile_Primitives(t *testing.T) {
	c := NewCompiler(symtab.NewTypeTable())
	cases := map[ast.PrimitiveKind]PrimitiveType{
		ast.PrimitiveString: TypeString,
		ast.PrimitiveInt:    TypeInteger,
		ast.PrimitiveFloat:  TypeNumber,
		ast.PrimitiveBool:   TypeBoolean,
		ast.PrimitiveNull:   TypeNull,
	}
	for kind, want := range cases {
		s := c.Compile(&ast.PrimitiveType{Kind: kind})
		if s.Primitive != want {
			t.Errorf("%v: got %v want %v", kind, s.Primitive, want)
		}
	}
}

func TestCompile_ConfidentExpansion(t *testing.T) {
	c := NewCompiler(symtab.NewTypeTable())
	s := c.Compile(&ast.ConfidentType{Inner: &ast.PrimitiveType{Kind: ast.PrimitiveString}})
	if s.Kind != KindObject {
		t.Fatalf("expected object schema, got %v", s.Kind)
	}
	if len(s.Required) != 3 {
		t.Fatalf("expected 3 required fields, got %v", s.Required)
	}
	if s.AdditionalProperties {
		t.Errorf("expected additionalProperties:false")
	}
	if !ConfidentShape(s) {
		t.Errorf("expected ConfidentShape to detect this schema")
	}
}

func TestCompile_NamedObjectType(t *testing.T) {
	types := symtab.NewTypeTable()
	desc := "a product review"
	types.Define(&ast.TypeDecl{
		Name: "Review",
		Fields: []*ast.FieldDecl{
			{Name: "score", Type: &ast.PrimitiveType{Kind: ast.PrimitiveInt}, Annotations: ast.FieldAnnotations{Description: &desc}},
			{Name: "summary", Type: &ast.PrimitiveType{Kind: ast.PrimitiveString}, Optional: true},
		},
	})
	c := NewCompiler(types)
	s := c.Compile(&ast.NamedType{Name: "Review"})
	if s.Kind != KindObject {
		t.Fatalf("expected object schema")
	}
	if len(s.Required) != 1 || s.Required[0] != "score" {
		t.Errorf("expected only score required, got %v", s.Required)
	}
	if s.Properties["score"].Description == nil {
		t.Errorf("expected description to merge onto score field")
	}
	if s.Properties["summary"].Kind != KindAnyOf {
		t.Errorf("expected optional field to become anyOf[T,null], got %v", s.Properties["summary"].Kind)
	}
}

func TestCompile_MissingNamedTypeDegradesToObject(t *testing.T) {
	c := NewCompiler(symtab.NewTypeTable())
	s := c.Compile(&ast.NamedType{Name: "DoesNotExist"})
	if s.Kind != KindObject {
		t.Fatalf("expected degraded object schema, got %v", s.Kind)
	}
}

func TestCompile_ArrayOptionalUnion(t *testing.T) {
	c := NewCompiler(symtab.NewTypeTable())
	arr := c.Compile(&ast.ArrayType{Elem: &ast.PrimitiveType{Kind: ast.PrimitiveString}})
	if arr.Kind != KindArray || arr.Items.Primitive != TypeString {
		t.Errorf("unexpected array schema: %+v", arr)
	}
	opt := c.Compile(&ast.OptionalType{Inner: &ast.PrimitiveType{Kind: ast.PrimitiveInt}})
	if opt.Kind != KindAnyOf || len(opt.AnyOf) != 2 {
		t.Errorf("unexpected optional schema: %+v", opt)
	}
	union := c.Compile(&ast.UnionType{Options: []ast.TypeExpr{
		&ast.PrimitiveType{Kind: ast.PrimitiveString},
		&ast.PrimitiveType{Kind: ast.PrimitiveInt},
	}})
	if union.Kind != KindAnyOf || len(union.AnyOf) != 2 {
		t.Errorf("unexpected union schema: %+v", union)
	}
}

func TestCompile_MarshalJSON_AdditionalPropertiesFalse(t *testing.T) {
	c := NewCompiler(symtab.NewTypeTable())
	s := c.Compile(&ast.ConfidentType{Inner: &ast.PrimitiveType{Kind: ast.PrimitiveString}})
	raw, err := json.Marshal(s)
	if err != nil {
		t.Fatalf("marshal failed: %v", err)
	}
	var m map[string]interface{}
	if err := json.Unmarshal(raw, &m); err != nil {
		t.Fatalf("unmarshal failed: %v", err)
	}
	if m["additionalProperties"] != false {
		t.Errorf("expected additionalProperties:false in wire JSON, got %v", m["additionalProperties"])
	}
	req, ok := m["required"].([]interface{})
	if !ok || len(req) != 3 {
		t.Errorf("expected required array of length 3, got %v", m["required"])
	}
}

func TestHostTypeString(t *testing.T) {
	c := NewCompiler(symtab.NewTypeTable())
	got := c.HostTypeString(&ast.ConfidentType{Inner: &ast.ArrayType{Elem: &ast.NamedType{Name: "Review"}}})
	want := "Confident<Review[]>"
	if got != want {
		t.Errorf("got %q want %q", got, want)
	}
}
