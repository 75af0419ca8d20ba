// Package jsonschema parses the subset of JSON Schema used by the Atlassian
// Document Format into a small closed set of node types, normalizes it and
// validates JSON values against it.
package jsonschema

// Kind identifies a schema node variant.
type Kind int

const (
	KindObject Kind = iota
	KindNamedObject
	KindArray
	KindString
	KindNumber
	KindInteger
	KindBoolean
	KindNull
	KindAllOf
	KindAnyOf
	KindOneOf
	KindRef
	KindEnum
	KindAny
)

var kindNames = [...]string{
	KindObject:      "object",
	KindNamedObject: "named object",
	KindArray:       "array",
	KindString:      "string",
	KindNumber:      "number",
	KindInteger:     "integer",
	KindBoolean:     "boolean",
	KindNull:        "null",
	KindAllOf:       "allOf",
	KindAnyOf:       "anyOf",
	KindOneOf:       "oneOf",
	KindRef:         "$ref",
	KindEnum:        "enum",
	KindAny:         "any",
}

func (k Kind) String() string {
	if k < 0 || int(k) >= len(kindNames) {
		return "unknown"
	}
	return kindNames[k]
}

// Node is a parsed schema. The set of implementations is closed; callers
// switch on the concrete type or on Kind.
type Node interface {
	Kind() Kind
	schemaNode()
}

// Attribute is a declared object property.
type Attribute struct {
	Schema   Node
	Required bool
}

// Object is a `type: object` schema without a discriminant.
// A nil AdditionalProperties means the keyword was absent, which is treated
// as false.
type Object struct {
	Attributes           map[string]Attribute
	AdditionalProperties *bool
}

// NamedObject is an object whose `type` property is a single-valued enum.
// Name holds that value; the `type` attribute itself stays in Attributes.
type NamedObject struct {
	Name                 string
	Attributes           map[string]Attribute
	AdditionalProperties *bool
}

// Array keeps its keywords as written. Values are a Node, a []Node or a
// JSON literal.
type Array struct {
	Constraints map[string]any
}

type String struct{ Constraints map[string]any }
type Number struct{ Constraints map[string]any }
type Integer struct{ Constraints map[string]any }
type Boolean struct{ Constraints map[string]any }
type Null struct{ Constraints map[string]any }

type AllOf struct{ Branches []Node }
type AnyOf struct{ Branches []Node }
type OneOf struct{ Branches []Node }

// Ref points into Document.Definitions by its `#/definitions/<key>` name.
type Ref struct{ Ref string }

type Enum struct{ Values []any }

// Any is the empty schema `{}`.
type Any struct{}

func (*Object) Kind() Kind      { return KindObject }
func (*NamedObject) Kind() Kind { return KindNamedObject }
func (*Array) Kind() Kind       { return KindArray }
func (*String) Kind() Kind      { return KindString }
func (*Number) Kind() Kind      { return KindNumber }
func (*Integer) Kind() Kind     { return KindInteger }
func (*Boolean) Kind() Kind     { return KindBoolean }
func (*Null) Kind() Kind        { return KindNull }
func (*AllOf) Kind() Kind       { return KindAllOf }
func (*AnyOf) Kind() Kind       { return KindAnyOf }
func (*OneOf) Kind() Kind       { return KindOneOf }
func (*Ref) Kind() Kind         { return KindRef }
func (*Enum) Kind() Kind        { return KindEnum }
func (*Any) Kind() Kind         { return KindAny }

func (*Object) schemaNode()      {}
func (*NamedObject) schemaNode() {}
func (*Array) schemaNode()       {}
func (*String) schemaNode()      {}
func (*Number) schemaNode()      {}
func (*Integer) schemaNode()     {}
func (*Boolean) schemaNode()     {}
func (*Null) schemaNode()        {}
func (*AllOf) schemaNode()       {}
func (*AnyOf) schemaNode()       {}
func (*OneOf) schemaNode()       {}
func (*Ref) schemaNode()         {}
func (*Enum) schemaNode()        {}
func (*Any) schemaNode()         {}

// attributesOf returns the property table of an object-like node.
func attributesOf(n Node) (map[string]Attribute, *bool, bool) {
	switch o := n.(type) {
	case *Object:
		return o.Attributes, o.AdditionalProperties, true
	case *NamedObject:
		return o.Attributes, o.AdditionalProperties, true
	}
	return nil, nil, false
}

// leafConstraints returns the constraint map of a scalar node.
func leafConstraints(n Node) (map[string]any, bool) {
	switch l := n.(type) {
	case *String:
		return l.Constraints, true
	case *Number:
		return l.Constraints, true
	case *Integer:
		return l.Constraints, true
	case *Boolean:
		return l.Constraints, true
	case *Null:
		return l.Constraints, true
	}
	return nil, false
}

// branchesOf returns the sub-schemas of a composition node.
func branchesOf(n Node) ([]Node, bool) {
	switch c := n.(type) {
	case *AllOf:
		return c.Branches, true
	case *AnyOf:
		return c.Branches, true
	case *OneOf:
		return c.Branches, true
	}
	return nil, false
}
