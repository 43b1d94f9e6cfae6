// Package schema projects ThinkLang type expressions into JSON Schema
// (spec §4.2, §9 Dynamic schema values). JSON Schema is modeled as a
// tagged variant — Primitive | Object | Array | AnyOf | Ref — rather
// than the host `map[string]any` directly, so the checker and codegen
// can inspect shape (e.g. detect the Confident wrapping shape of
// §4.7.1) before it is flattened to wire JSON.
package schema

import "encoding/json"

// Kind tags which JSON Schema shape a Schema node carries.
type Kind int

const (
	KindPrimitive Kind = iota
	KindObject
	KindArray
	KindAnyOf
	KindRef
)

// PrimitiveType is one of the JSON Schema primitive type names.
type PrimitiveType string

const (
	TypeString  PrimitiveType = "string"
	TypeInteger PrimitiveType = "integer"
	TypeNumber  PrimitiveType = "number"
	TypeBoolean PrimitiveType = "boolean"
	TypeNull    PrimitiveType = "null"
	TypeObject  PrimitiveType = "object"
)

// Schema is the tagged-variant JSON Schema node of spec §9. Only the
// fields relevant to Kind are populated.
type Schema struct {
	Kind Kind

	// KindPrimitive
	Primitive PrimitiveType

	// KindObject
	Properties           map[string]*Schema
	PropertyOrder        []string // preserves declaration order for deterministic wire JSON
	Required             []string
	AdditionalProperties bool // always false for AI-call schemas (I2); exposed for completeness

	// KindArray
	Items *Schema

	// KindAnyOf
	AnyOf []*Schema

	// KindRef
	RefName string

	// Common field annotations (spec §3, §4.2)
	Description *string
	Minimum     *float64
	Maximum     *float64
	MinLength   *int
	MaxLength   *int
	MinItems    *int
	MaxItems    *int
	Pattern     *string
}

// Prim constructs a primitive schema node.
func Prim(t PrimitiveType) *Schema { return &Schema{Kind: KindPrimitive, Primitive: t} }

// Obj constructs a closed object schema: additionalProperties:false and
// required enumerating every key, per invariant I2.
func Obj(properties map[string]*Schema, order []string) *Schema {
	return &Schema{
		Kind:                 KindObject,
		Properties:           properties,
		PropertyOrder:        order,
		Required:             append([]string(nil), order...),
		AdditionalProperties: false,
	}
}

func Arr(items *Schema) *Schema { return &Schema{Kind: KindArray, Items: items} }

func AnyOf(options ...*Schema) *Schema { return &Schema{Kind: KindAnyOf, AnyOf: options} }

// MarshalJSON renders the tagged variant as wire JSON Schema. This is
// the only point raw `map[string]any`-shaped JSON is produced — the
// tagged variant is the model everywhere else (spec §9).
func (s *Schema) MarshalJSON() ([]byte, error) {
	m := s.toMap()
	return json.Marshal(m)
}

// ToMap exposes the wire JSON Schema as a plain map, for callers (e.g.
// pkg/llms provider adapters) that need a raw map[string]any rather
// than a json.Marshaler.
func (s *Schema) ToMap() map[string]any { return s.toMap() }

func (s *Schema) toMap() map[string]interface{} {
	m := map[string]interface{}{}
	switch s.Kind {
	case KindPrimitive:
		m["type"] = string(s.Primitive)
	case KindObject:
		m["type"] = "object"
		props := map[string]interface{}{}
		for _, name := range s.PropertyOrder {
			props[name] = s.Properties[name].toMap()
		}
		m["properties"] = props
		m["required"] = s.Required
		m["additionalProperties"] = s.AdditionalProperties
	case KindArray:
		m["type"] = "array"
		m["items"] = s.Items.toMap()
	case KindAnyOf:
		opts := make([]interface{}, len(s.AnyOf))
		for i, o := range s.AnyOf {
			opts[i] = o.toMap()
		}
		m["anyOf"] = opts
	case KindRef:
		m["$ref"] = "#/$defs/" + s.RefName
	}
	if s.Description != nil {
		m["description"] = *s.Description
	}
	if s.Minimum != nil {
		m["minimum"] = *s.Minimum
	}
	if s.Maximum != nil {
		m["maximum"] = *s.Maximum
	}
	if s.MinLength != nil {
		m["minLength"] = *s.MinLength
	}
	if s.MaxLength != nil {
		m["maxLength"] = *s.MaxLength
	}
	if s.MinItems != nil {
		m["minItems"] = *s.MinItems
	}
	if s.MaxItems != nil {
		m["maxItems"] = *s.MaxItems
	}
	if s.Pattern != nil {
		m["pattern"] = *s.Pattern
	}
	return m
}

// ConfidentShape reports whether an object schema structurally matches
// the Confident<T> wrapping shape: properties {value, confidence,
// reasoning} with confidence a number (spec §4.7.1 detection rule).
func ConfidentShape(s *Schema) bool {
	if s == nil || s.Kind != KindObject {
		return false
	}
	valueSchema, hasValue := s.Properties["value"]
	confSchema, hasConf := s.Properties["confidence"]
	_, hasReasoning := s.Properties["reasoning"]
	if !hasValue || !hasConf || !hasReasoning {
		return false
	}
	_ = valueSchema
	return confSchema.Kind == KindPrimitive && confSchema.Primitive == TypeNumber
}
