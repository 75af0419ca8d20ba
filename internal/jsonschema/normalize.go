package jsonschema

import (
	"fmt"
	"reflect"
)

// Normalize inlines references and collapses allOf compositions.
//
// A $ref is replaced by the referenced definition exactly as Parse produced
// it; the substituted node is not normalized again, so recursive schemas
// terminate. `allOf: [$ref, {type: object}]` becomes the referenced schema,
// and an allOf whose branches are all objects becomes one merged object.
//
// The result always derives from the parsed definitions, so normalizing a
// normalized document gives the same document again.
func Normalize(doc *Document) (*Document, error) {
	parsed := doc.parsed
	if parsed == nil {
		parsed = doc.Definitions
	}
	n := &normalizer{defs: parsed}

	out := &Document{
		SchemaURI:   doc.SchemaURI,
		ID:          doc.ID,
		Description: doc.Description,
		TopRef:      doc.TopRef,
		Definitions: make(map[string]Node, len(parsed)),
		parsed:      parsed,
	}
	for _, name := range sortedKeys(parsed) {
		node, err := n.node(parsed[name])
		if err != nil {
			return nil, fmt.Errorf("normalize %s: %w", name, err)
		}
		out.Definitions[name] = node
	}
	if doc.Root != nil {
		root, err := n.node(doc.Root)
		if err != nil {
			return nil, fmt.Errorf("normalize root: %w", err)
		}
		out.Root = root
	}
	return out, nil
}

// NormalizeNode normalizes a single node against doc's definitions.
func NormalizeNode(doc *Document, node Node) (Node, error) {
	parsed := doc.parsed
	if parsed == nil {
		parsed = doc.Definitions
	}
	return (&normalizer{defs: parsed}).node(node)
}

type normalizer struct {
	defs map[string]Node
}

func (n *normalizer) resolve(ref string) (Node, error) {
	target, ok := n.defs[ref]
	if !ok {
		return nil, &RefError{Ref: ref}
	}
	return target, nil
}

func (n *normalizer) node(node Node) (Node, error) {
	switch x := node.(type) {
	case *Ref:
		return n.resolve(x.Ref)

	case *AllOf:
		if len(x.Branches) == 2 {
			ref, isRef := x.Branches[0].(*Ref)
			obj, isObj := x.Branches[1].(*Object)
			if isRef && isObj && len(obj.Attributes) == 0 {
				return n.resolve(ref.Ref)
			}
		}
		branches, err := n.nodes(x.Branches)
		if err != nil {
			return nil, err
		}
		if len(branches) > 0 && allObjectLike(branches) {
			return mergeObjects(branches)
		}
		return &AllOf{Branches: branches}, nil

	case *AnyOf:
		branches, err := n.nodes(x.Branches)
		if err != nil {
			return nil, err
		}
		return &AnyOf{Branches: branches}, nil

	case *OneOf:
		branches, err := n.nodes(x.Branches)
		if err != nil {
			return nil, err
		}
		return &OneOf{Branches: branches}, nil

	case *Array:
		c, err := n.constraints(x.Constraints)
		if err != nil {
			return nil, err
		}
		return &Array{Constraints: c}, nil

	case *Object:
		attrs, err := n.attributes(x.Attributes)
		if err != nil {
			return nil, err
		}
		return &Object{Attributes: attrs, AdditionalProperties: x.AdditionalProperties}, nil

	case *NamedObject:
		attrs, err := n.attributes(x.Attributes)
		if err != nil {
			return nil, err
		}
		return &NamedObject{Name: x.Name, Attributes: attrs, AdditionalProperties: x.AdditionalProperties}, nil

	case *String, *Number, *Integer, *Boolean, *Null, *Enum, *Any:
		return node, nil
	}
	return nil, fmt.Errorf("normalize: unsupported node %T", node)
}

func (n *normalizer) nodes(in []Node) ([]Node, error) {
	out := make([]Node, len(in))
	for i, b := range in {
		nb, err := n.node(b)
		if err != nil {
			return nil, err
		}
		out[i] = nb
	}
	return out, nil
}

func (n *normalizer) attributes(in map[string]Attribute) (map[string]Attribute, error) {
	out := make(map[string]Attribute, len(in))
	for _, name := range sortedKeys(in) {
		a := in[name]
		s, err := n.node(a.Schema)
		if err != nil {
			return nil, fmt.Errorf("property %s: %w", name, err)
		}
		out[name] = Attribute{Schema: s, Required: a.Required}
	}
	return out, nil
}

func (n *normalizer) constraints(in map[string]any) (map[string]any, error) {
	out := make(map[string]any, len(in))
	for k, v := range in {
		switch c := v.(type) {
		case Node:
			nc, err := n.node(c)
			if err != nil {
				return nil, fmt.Errorf("%s: %w", k, err)
			}
			out[k] = nc
		case []Node:
			nc, err := n.nodes(c)
			if err != nil {
				return nil, fmt.Errorf("%s: %w", k, err)
			}
			out[k] = nc
		default:
			out[k] = v
		}
	}
	return out, nil
}

func allObjectLike(nodes []Node) bool {
	for _, n := range nodes {
		if _, _, ok := attributesOf(n); !ok {
			return false
		}
	}
	return true
}

// mergeObjects unions the property sets of allOf branches. A property
// declared twice must either be identical or be an array on both sides, in
// which case the array constraints are unioned with the left side winning.
func mergeObjects(branches []Node) (Node, error) {
	var (
		name       string
		named      bool
		additional *bool
	)
	attrs := make(map[string]Attribute)

	for _, b := range branches {
		battrs, badd, _ := attributesOf(b)
		if no, ok := b.(*NamedObject); ok {
			if named && no.Name != name {
				return nil, fmt.Errorf("%w: names %q and %q", ErrMergeConflict, name, no.Name)
			}
			name, named = no.Name, true
		}
		if badd != nil {
			v := *badd
			if additional != nil {
				v = *additional && v
			}
			additional = &v
		}
		for _, k := range sortedKeys(battrs) {
			a := battrs[k]
			prev, ok := attrs[k]
			if !ok {
				attrs[k] = a
				continue
			}
			merged, err := mergeAttribute(k, prev, a)
			if err != nil {
				return nil, err
			}
			attrs[k] = merged
		}
	}

	if named {
		return &NamedObject{Name: name, Attributes: attrs, AdditionalProperties: additional}, nil
	}
	return &Object{Attributes: attrs, AdditionalProperties: additional}, nil
}

func mergeAttribute(key string, left, right Attribute) (Attribute, error) {
	req := left.Required || right.Required
	if reflect.DeepEqual(left.Schema, right.Schema) {
		return Attribute{Schema: left.Schema, Required: req}, nil
	}
	la, lok := left.Schema.(*Array)
	ra, rok := right.Schema.(*Array)
	if !lok || !rok {
		return Attribute{}, fmt.Errorf("%w: property %q declared as %s and %s",
			ErrMergeConflict, key, left.Schema.Kind(), right.Schema.Kind())
	}
	return Attribute{Schema: mergeArrays(la, ra), Required: req}, nil
}

func mergeArrays(left, right *Array) *Array {
	c := make(map[string]any, len(left.Constraints)+len(right.Constraints))
	for k, v := range left.Constraints {
		c[k] = v
	}
	for k, rv := range right.Constraints {
		lv, ok := c[k]
		if !ok {
			c[k] = rv
			continue
		}
		c[k] = unionConstraint(lv, rv)
	}
	return &Array{Constraints: c}
}

// unionConstraint combines two values of the same array keyword. Two
// schemas become an anyOf of their distinct branches, two schema lists are
// unioned, and anything else keeps the left value.
func unionConstraint(left, right any) any {
	if reflect.DeepEqual(left, right) {
		return left
	}
	switch l := left.(type) {
	case Node:
		r, ok := right.(Node)
		if !ok {
			return left
		}
		return &AnyOf{Branches: unionNodes(flattenAnyOf(l), flattenAnyOf(r))}
	case []Node:
		r, ok := right.([]Node)
		if !ok {
			return left
		}
		return unionNodes(l, r)
	}
	return left
}

func flattenAnyOf(n Node) []Node {
	if a, ok := n.(*AnyOf); ok {
		return a.Branches
	}
	return []Node{n}
}

func unionNodes(left, right []Node) []Node {
	out := append([]Node(nil), left...)
	for _, r := range right {
		dup := false
		for _, l := range out {
			if reflect.DeepEqual(l, r) {
				dup = true
				break
			}
		}
		if !dup {
			out = append(out, r)
		}
	}
	return out
}
