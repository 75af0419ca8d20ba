package jsonschema

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"math"
	"strconv"
)

// maxDepth bounds schema recursion that does not consume input, such as an
// array schema applied to an object.
const maxDepth = 512

// Validator checks JSON values against the nodes of one document.
// A Validator is safe for concurrent use.
type Validator struct {
	doc    *Document
	logger *slog.Logger
}

// Option configures a Validator.
type Option func(*Validator)

// WithLogger sets the logger that receives rejection traces.
func WithLogger(l *slog.Logger) Option {
	return func(v *Validator) {
		if l != nil {
			v.logger = l
		}
	}
}

// NewValidator returns a validator resolving references through doc.
func NewValidator(doc *Document, opts ...Option) *Validator {
	v := &Validator{doc: doc, logger: slog.Default()}
	for _, opt := range opts {
		opt(v)
	}
	return v
}

// Validate reports whether value matches node.
// A rejection is (false, nil); errors mean the schema itself is broken,
// such as a $ref to a missing definition.
func Validate(doc *Document, node Node, value any) (bool, error) {
	return NewValidator(doc).Validate(node, value)
}

// Validate reports whether value matches node.
func (v *Validator) Validate(node Node, value any) (bool, error) {
	return v.check(node, value, "$", 0)
}

// ValidateRef validates value against a named definition.
func (v *Validator) ValidateRef(ref string, value any) (bool, error) {
	return v.Validate(&Ref{Ref: RefName(ref)}, value)
}

// ValidateTop validates value against the document's top-level schema.
func (v *Validator) ValidateTop(value any) (bool, error) {
	top, err := v.doc.Top()
	if err != nil {
		return false, err
	}
	return v.Validate(top, value)
}

func (v *Validator) reject(path string, node Node, format string, args ...any) (bool, error) {
	v.logger.Debug("value rejected",
		"path", path,
		"schema", node.Kind().String(),
		"reason", fmt.Sprintf(format, args...))
	return false, nil
}

func (v *Validator) check(node Node, value any, path string, depth int) (bool, error) {
	if depth > maxDepth {
		return false, fmt.Errorf("%w at %s", ErrTooDeep, path)
	}
	depth++

	switch n := node.(type) {
	case *Object:
		return v.object(n, n.Attributes, n.AdditionalProperties, value, path, depth)
	case *NamedObject:
		return v.object(n, n.Attributes, n.AdditionalProperties, value, path, depth)

	case *Array:
		list, isList := value.([]any)
		if !isList {
			if _, ok := value.(map[string]any); !ok {
				return v.reject(path, n, "%s is not an array or object", jsonKind(value))
			}
			return v.keywords(n, value, path, depth)
		}
		for i, el := range list {
			elPath := fmt.Sprintf("%s[%d]", path, i)
			var ok bool
			var err error
			switch el.(type) {
			case []any, map[string]any:
				ok, err = v.check(n, el, elPath, depth)
			default:
				// Scalar elements only meet the item schemas.
				ok, err = v.keywords(n, el, elPath, depth)
			}
			if err != nil || !ok {
				return ok, err
			}
		}
		return true, nil

	case *AnyOf:
		return v.anyOf(n, n.Branches, value, path, depth)
	case *OneOf:
		return v.anyOf(n, n.Branches, value, path, depth)

	case *AllOf:
		for i, b := range n.Branches {
			ok, err := v.check(b, value, path, depth)
			if err != nil {
				return false, err
			}
			if !ok {
				return v.reject(path, n, "branch %d rejected the value", i)
			}
		}
		return true, nil

	case *Enum:
		for _, want := range n.Values {
			if jsonEqual(want, value) {
				return true, nil
			}
		}
		return v.reject(path, n, "%v is not one of %v", value, n.Values)

	case *Ref:
		target, ok := v.doc.Lookup(n.Ref)
		if !ok {
			return false, &RefError{Ref: n.Ref}
		}
		return v.check(target, value, path, depth)

	case *String:
		if _, ok := value.(string); !ok {
			return v.reject(path, n, "expected string, got %s", jsonKind(value))
		}
		return v.chain(n, n.Constraints, value, path, depth)
	case *Number:
		if _, ok := toFloat(value); !ok {
			return v.reject(path, n, "expected number, got %s", jsonKind(value))
		}
		return v.chain(n, n.Constraints, value, path, depth)
	case *Integer:
		if !isIntegral(value) {
			return v.reject(path, n, "expected integer, got %v", value)
		}
		return v.chain(n, n.Constraints, value, path, depth)
	case *Boolean:
		if _, ok := value.(bool); !ok {
			return v.reject(path, n, "expected boolean, got %s", jsonKind(value))
		}
		return v.chain(n, n.Constraints, value, path, depth)
	case *Null:
		if value != nil {
			return v.reject(path, n, "expected null, got %s", jsonKind(value))
		}
		return v.chain(n, n.Constraints, value, path, depth)

	case *Any:
		return true, nil
	}
	return false, fmt.Errorf("validate %s: unsupported schema node %T", path, node)
}

// keywords matches a single value against every schema-valued keyword of
// an array schema.
func (v *Validator) keywords(n *Array, value any, path string, depth int) (bool, error) {
	for _, k := range sortedKeys(n.Constraints) {
		for _, sub := range schemaValues(n.Constraints[k]) {
			ok, err := v.check(sub, value, path, depth)
			if err != nil {
				return false, err
			}
			if !ok {
				return v.reject(path, n, "keyword %s rejected the value", k)
			}
		}
	}
	return true, nil
}

func (v *Validator) object(node Node, attrs map[string]Attribute, additional *bool, value any, path string, depth int) (bool, error) {
	obj, ok := value.(map[string]any)
	if !ok {
		return v.reject(path, node, "expected object, got %s", jsonKind(value))
	}
	if key, reason, ok := matchKeys(attrs, additional, obj); !ok {
		return v.reject(path, node, "key %q %s", key, reason)
	}
	for _, k := range sortedKeys(attrs) {
		val, present := obj[k]
		if !present {
			continue
		}
		ok, err := v.check(attrs[k].Schema, val, path+"."+k, depth)
		if err != nil || !ok {
			return ok, err
		}
	}
	return true, nil
}

// matchKeys checks that every key of obj is declared or tolerated and that
// every required attribute is present.
func matchKeys(attrs map[string]Attribute, additional *bool, obj map[string]any) (string, string, bool) {
	allowExtra := additional != nil && *additional
	for _, k := range sortedKeys(obj) {
		if _, ok := attrs[k]; !ok && !allowExtra {
			return k, "is not allowed", false
		}
	}
	for _, k := range sortedKeys(attrs) {
		if !attrs[k].Required {
			continue
		}
		if _, ok := obj[k]; !ok {
			return k, "is required", false
		}
	}
	return "", "", true
}

func (v *Validator) anyOf(node Node, branches []Node, value any, path string, depth int) (bool, error) {
	for _, b := range branches {
		ok, err := v.check(b, value, path, depth)
		if err != nil {
			return false, err
		}
		if ok {
			return true, nil
		}
	}
	return v.reject(path, node, "no branch accepted the value")
}

// chain validates value against the schema-valued constraints of a leaf.
// Literal constraints such as minLength are kept but not enforced.
func (v *Validator) chain(node Node, constraints map[string]any, value any, path string, depth int) (bool, error) {
	for _, k := range sortedKeys(constraints) {
		for _, sub := range schemaValues(constraints[k]) {
			ok, err := v.check(sub, value, path, depth)
			if err != nil {
				return false, err
			}
			if !ok {
				return v.reject(path, node, "constraint %s rejected the value", k)
			}
		}
	}
	return true, nil
}

func schemaValues(c any) []Node {
	switch s := c.(type) {
	case Node:
		return []Node{s}
	case []Node:
		return s
	}
	return nil
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case json.Number:
		f, err := n.Float64()
		return f, err == nil
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case int32:
		return float64(n), true
	case uint64:
		return float64(n), true
	case uint32:
		return float64(n), true
	}
	return 0, false
}

func isIntegral(v any) bool {
	if n, ok := v.(json.Number); ok {
		if _, err := strconv.ParseInt(string(n), 10, 64); err == nil {
			return true
		}
	}
	f, ok := toFloat(v)
	return ok && !math.IsInf(f, 0) && f == math.Trunc(f)
}

// jsonEqual compares two decoded JSON values, treating numbers by value.
func jsonEqual(a, b any) bool {
	if af, ok := toFloat(a); ok {
		bf, ok := toFloat(b)
		return ok && af == bf
	}
	switch x := a.(type) {
	case nil:
		return b == nil
	case bool:
		y, ok := b.(bool)
		return ok && x == y
	case string:
		y, ok := b.(string)
		return ok && x == y
	case []any:
		y, ok := b.([]any)
		if !ok || len(x) != len(y) {
			return false
		}
		for i := range x {
			if !jsonEqual(x[i], y[i]) {
				return false
			}
		}
		return true
	case map[string]any:
		y, ok := b.(map[string]any)
		if !ok || len(x) != len(y) {
			return false
		}
		for k, xv := range x {
			yv, ok := y[k]
			if !ok || !jsonEqual(xv, yv) {
				return false
			}
		}
		return true
	}
	return false
}
