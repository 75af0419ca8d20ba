package jsonschema

import (
	"fmt"
	"sort"
)

// annotationKeys are accepted anywhere and never interpreted.
var annotationKeys = map[string]bool{
	"$id":         true,
	"$schema":     true,
	"description": true,
	"title":       true,
}

// leafKeywords lists the keywords each scalar type understands.
var leafKeywords = map[string]map[string]bool{
	"string":  {"minLength": true, "maxLength": true, "pattern": true},
	"number":  {"minimum": true, "maximum": true},
	"integer": {"minimum": true, "maximum": true},
	"boolean": {},
	"null":    {},
}

var objectKeywords = map[string]bool{
	"type":                 true,
	"properties":           true,
	"required":             true,
	"additionalProperties": true,
}

// Parse reads a whole schema document: its metadata, its definitions and,
// when the document carries a `type`, its root schema.
// Any unsupported keyword fails the whole parse.
func Parse(raw map[string]any) (*Document, error) {
	doc := &Document{Definitions: make(map[string]Node)}

	var err error
	if doc.SchemaURI, err = optionalString("#", raw, "$schema"); err != nil {
		return nil, err
	}
	if doc.ID, err = optionalString("#", raw, "$id"); err != nil {
		return nil, err
	}
	if doc.Description, err = optionalString("#", raw, "description"); err != nil {
		return nil, err
	}
	if doc.TopRef, err = optionalString("#", raw, "$ref"); err != nil {
		return nil, err
	}

	if defs, ok := raw["definitions"]; ok {
		m, ok := defs.(map[string]any)
		if !ok {
			return nil, &ParseError{Path: "#", Keyword: "definitions", Msg: "expected an object"}
		}
		for _, key := range sortedKeys(m) {
			name := DefinitionPrefix + key
			n, err := parseAt(name, m[key])
			if err != nil {
				return nil, err
			}
			doc.Definitions[name] = n
		}
	}

	if _, ok := raw["type"]; ok {
		rest := make(map[string]any, len(raw))
		for k, v := range raw {
			switch k {
			case "$schema", "$id", "description", "$ref", "definitions":
				continue
			}
			rest[k] = v
		}
		root, err := parseAt("#", rest)
		if err != nil {
			return nil, err
		}
		doc.Root = root
	}

	doc.parsed = doc.Definitions
	return doc, nil
}

// ParseNode parses a single schema value.
func ParseNode(raw any) (Node, error) {
	return parseAt("#", raw)
}

func parseAt(path string, raw any) (Node, error) {
	m, ok := raw.(map[string]any)
	if !ok {
		return nil, &ParseError{Path: path, Msg: fmt.Sprintf("expected a schema object, got %s", jsonKind(raw))}
	}

	if t, ok := m["type"]; ok {
		return parseTyped(path, m, t)
	}

	for _, kw := range []string{"allOf", "anyOf", "oneOf"} {
		v, ok := m[kw]
		if !ok {
			continue
		}
		if err := soleKey(path, m, kw); err != nil {
			return nil, err
		}
		return parseComposition(path, kw, v)
	}

	if len(withoutAnnotations(m)) == 0 {
		return &Any{}, nil
	}

	if v, ok := m["enum"]; ok {
		if err := soleKey(path, m, "enum"); err != nil {
			return nil, err
		}
		values, ok := v.([]any)
		if !ok {
			return nil, &ParseError{Path: path, Keyword: "enum", Msg: "expected an array"}
		}
		return &Enum{Values: values}, nil
	}

	if v, ok := m["$ref"]; ok {
		if err := soleKey(path, m, "$ref"); err != nil {
			return nil, err
		}
		ref, ok := v.(string)
		if !ok {
			return nil, &ParseError{Path: path, Keyword: "$ref", Msg: "expected a string"}
		}
		return &Ref{Ref: ref}, nil
	}

	keys := sortedKeys(withoutAnnotations(m))
	return nil, &ParseError{Path: path, Keyword: keys[0], Msg: "unsupported schema keyword"}
}

func parseTyped(path string, m map[string]any, t any) (Node, error) {
	typ, ok := t.(string)
	if !ok {
		return nil, &ParseError{Path: path, Keyword: "type", Msg: fmt.Sprintf("expected a string, got %s", jsonKind(t))}
	}
	switch typ {
	case "object":
		return parseObject(path, m)
	case "array":
		return parseArray(path, m)
	case "string", "number", "integer", "boolean", "null":
		return parseLeaf(path, typ, m)
	}
	return nil, &ParseError{Path: path, Keyword: "type", Msg: fmt.Sprintf("unsupported type %q", typ)}
}

func parseObject(path string, m map[string]any) (Node, error) {
	required, err := stringList(path, m, "required")
	if err != nil {
		return nil, err
	}
	isRequired := make(map[string]bool, len(required))
	for _, r := range required {
		isRequired[r] = true
	}

	var additional *bool
	if v, ok := m["additionalProperties"]; ok {
		b, ok := v.(bool)
		if !ok {
			return nil, &ParseError{Path: path, Keyword: "additionalProperties", Msg: "only boolean values are supported"}
		}
		additional = &b
	}

	attrs := make(map[string]Attribute)
	if props, ok := m["properties"]; ok {
		for _, k := range sortedKeys(m) {
			if !objectKeywords[k] && !annotationKeys[k] {
				return nil, &ParseError{Path: path, Keyword: k, Msg: "not handled for object"}
			}
		}
		pm, ok := props.(map[string]any)
		if !ok {
			return nil, &ParseError{Path: path, Keyword: "properties", Msg: "expected an object"}
		}
		for _, name := range sortedKeys(pm) {
			n, err := parseAt(path+"/properties/"+name, pm[name])
			if err != nil {
				return nil, err
			}
			attrs[name] = Attribute{Schema: n, Required: isRequired[name]}
		}
	} else {
		// Untyped container: the remaining keys are the fields.
		for _, k := range sortedKeys(m) {
			if objectKeywords[k] || annotationKeys[k] {
				continue
			}
			sub, ok := m[k].(map[string]any)
			if !ok {
				return nil, &ParseError{Path: path, Keyword: k, Msg: "not handled for object"}
			}
			n, err := parseAt(path+"/"+k, sub)
			if err != nil {
				return nil, err
			}
			attrs[k] = Attribute{Schema: n, Required: isRequired[k]}
		}
	}

	if name, ok := discriminant(attrs); ok {
		return &NamedObject{Name: name, Attributes: attrs, AdditionalProperties: additional}, nil
	}
	return &Object{Attributes: attrs, AdditionalProperties: additional}, nil
}

// discriminant reports the sole enum value of a `type` property.
func discriminant(attrs map[string]Attribute) (string, bool) {
	a, ok := attrs["type"]
	if !ok {
		return "", false
	}
	e, ok := a.Schema.(*Enum)
	if !ok || len(e.Values) != 1 {
		return "", false
	}
	name, ok := e.Values[0].(string)
	return name, ok
}

func parseArray(path string, m map[string]any) (Node, error) {
	c := make(map[string]any)
	for _, k := range sortedKeys(m) {
		if k == "type" || annotationKeys[k] {
			continue
		}
		switch v := m[k].(type) {
		case map[string]any:
			n, err := parseAt(path+"/"+k, v)
			if err != nil {
				return nil, err
			}
			c[k] = n
		case []any:
			if !allObjects(v) {
				c[k] = v
				continue
			}
			nodes := make([]Node, len(v))
			for i, el := range v {
				n, err := parseAt(fmt.Sprintf("%s/%s/%d", path, k, i), el)
				if err != nil {
					return nil, err
				}
				nodes[i] = n
			}
			c[k] = nodes
		default:
			c[k] = v
		}
	}
	return &Array{Constraints: c}, nil
}

func parseLeaf(path, typ string, m map[string]any) (Node, error) {
	allowed := leafKeywords[typ]
	c := make(map[string]any)
	for _, k := range sortedKeys(m) {
		if k == "type" || annotationKeys[k] {
			continue
		}
		if !allowed[k] {
			return nil, &ParseError{Path: path, Keyword: k, Msg: "not handled for " + typ}
		}
		if sub, ok := m[k].(map[string]any); ok {
			n, err := parseAt(path+"/"+k, sub)
			if err != nil {
				return nil, err
			}
			c[k] = n
			continue
		}
		c[k] = m[k]
	}

	switch typ {
	case "string":
		return &String{Constraints: c}, nil
	case "number":
		return &Number{Constraints: c}, nil
	case "integer":
		return &Integer{Constraints: c}, nil
	case "boolean":
		return &Boolean{Constraints: c}, nil
	default:
		return &Null{Constraints: c}, nil
	}
}

func parseComposition(path, kw string, v any) (Node, error) {
	list, ok := v.([]any)
	if !ok {
		return nil, &ParseError{Path: path, Keyword: kw, Msg: "expected an array"}
	}
	branches := make([]Node, len(list))
	for i, el := range list {
		n, err := parseAt(fmt.Sprintf("%s/%s/%d", path, kw, i), el)
		if err != nil {
			return nil, err
		}
		branches[i] = n
	}
	switch kw {
	case "allOf":
		return &AllOf{Branches: branches}, nil
	case "anyOf":
		return &AnyOf{Branches: branches}, nil
	default:
		return &OneOf{Branches: branches}, nil
	}
}

func soleKey(path string, m map[string]any, kw string) error {
	for _, k := range sortedKeys(m) {
		if k == kw || annotationKeys[k] {
			continue
		}
		return &ParseError{Path: path, Keyword: k, Msg: "cannot be combined with " + kw}
	}
	return nil
}

func optionalString(path string, m map[string]any, key string) (string, error) {
	v, ok := m[key]
	if !ok {
		return "", nil
	}
	s, ok := v.(string)
	if !ok {
		return "", &ParseError{Path: path, Keyword: key, Msg: "expected a string"}
	}
	return s, nil
}

func stringList(path string, m map[string]any, key string) ([]string, error) {
	v, ok := m[key]
	if !ok {
		return nil, nil
	}
	list, ok := v.([]any)
	if !ok {
		return nil, &ParseError{Path: path, Keyword: key, Msg: "expected an array of strings"}
	}
	out := make([]string, 0, len(list))
	for _, el := range list {
		s, ok := el.(string)
		if !ok {
			return nil, &ParseError{Path: path, Keyword: key, Msg: "expected an array of strings"}
		}
		out = append(out, s)
	}
	return out, nil
}

func withoutAnnotations(m map[string]any) map[string]any {
	out := make(map[string]any, len(m))
	for k, v := range m {
		if !annotationKeys[k] {
			out[k] = v
		}
	}
	return out
}

func allObjects(list []any) bool {
	for _, el := range list {
		if _, ok := el.(map[string]any); !ok {
			return false
		}
	}
	return true
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func jsonKind(v any) string {
	switch v.(type) {
	case nil:
		return "null"
	case bool:
		return "boolean"
	case string:
		return "string"
	case []any:
		return "array"
	case map[string]any:
		return "object"
	}
	if _, ok := toFloat(v); ok {
		return "number"
	}
	return fmt.Sprintf("%T", v)
}
