package ast

// TypeExpr is the closed variant set of type expressions (spec §3):
// primitives, named-type references, array, optional, union, and
// Confident<T>. Every case implements Node for diagnostics.
type TypeExpr interface {
	Node
	typeExprNode()
}

// PrimitiveKind enumerates the primitive type names.
type PrimitiveKind string

const (
	PrimitiveString PrimitiveKind = "string"
	PrimitiveInt    PrimitiveKind = "int"
	PrimitiveFloat  PrimitiveKind = "float"
	PrimitiveBool   PrimitiveKind = "bool"
	PrimitiveNull   PrimitiveKind = "null"
)

// PrimitiveType is one of string|int|float|bool|null.
type PrimitiveType struct {
	Kind     PrimitiveKind
	Location Location
}

func (t *PrimitiveType) Loc() Location { return t.Location }
func (*PrimitiveType) typeExprNode()   {}

// NamedType references a user-declared type by name.
type NamedType struct {
	Name     string
	Location Location
}

func (t *NamedType) Loc() Location { return t.Location }
func (*NamedType) typeExprNode()   {}

// ArrayType is T[].
type ArrayType struct {
	Elem     TypeExpr
	Location Location
}

func (t *ArrayType) Loc() Location { return t.Location }
func (*ArrayType) typeExprNode()   {}

// OptionalType is T? — lowers to anyOf:[T, null] in JSON Schema.
type OptionalType struct {
	Inner    TypeExpr
	Location Location
}

func (t *OptionalType) Loc() Location { return t.Location }
func (*OptionalType) typeExprNode()   {}

// UnionType is T1 | T2 | ... | Tn.
type UnionType struct {
	Options  []TypeExpr
	Location Location
}

func (t *UnionType) Loc() Location { return t.Location }
func (*UnionType) typeExprNode()   {}

// ConfidentType is Confident<T> — value paired with a confidence and a
// reasoning string (spec §3 Confident<T> invariant).
type ConfidentType struct {
	Inner    TypeExpr
	Location Location
}

func (t *ConfidentType) Loc() Location { return t.Location }
func (*ConfidentType) typeExprNode()   {}

// FieldAnnotations carries the optional per-field constraints that flow
// into emitted JSON Schema (spec §3, §4.2).
type FieldAnnotations struct {
	Description *string
	RangeMin    *float64
	RangeMax    *float64
	MinLength   *int
	MaxLength   *int
	MinItems    *int
	MaxItems    *int
	Pattern     *string
}

// FieldDecl is one field of an object type declaration.
type FieldDecl struct {
	Name        string
	Type        TypeExpr
	Optional    bool
	Annotations FieldAnnotations
	Location    Location
}

func (f *FieldDecl) Loc() Location { return f.Location }

// TypeDecl declares a named type: either an object shape (the common
// case — these are the types passed as AI-call type arguments) or an
// alias to another type expression (e.g. a union of literal types).
type TypeDecl struct {
	Name     string
	Fields   []*FieldDecl // non-nil for object declarations
	Alias    TypeExpr     // non-nil for alias declarations
	Location Location
}

func (t *TypeDecl) Loc() Location   { return t.Location }
func (*TypeDecl) declNode()         {}
func (*TypeDecl) stmtNode()         {}
func (t *TypeDecl) IsObject() bool  { return t.Fields != nil }
