package jsonschema

import (
	"fmt"
)

// WalkFunc is called for each definition of a document.
type WalkFunc func(name string, node Node) error

// Walk visits every definition in name order, then the root schema if any.
func Walk(doc *Document, fn WalkFunc) error {
	for _, name := range doc.Names() {
		if err := fn(name, doc.Definitions[name]); err != nil {
			return err
		}
	}
	if doc.Root != nil {
		return fn("#", doc.Root)
	}
	return nil
}

// ContentNode is a node type a document's top-level content may hold.
type ContentNode struct {
	Ref    string
	Name   string
	Schema Node
}

// ContentNodes lists the node types allowed in the `content` array of the
// top-level definition, each paired with its normalized schema.
func ContentNodes(doc *Document) ([]ContentNode, error) {
	if doc.TopRef == "" {
		return nil, fmt.Errorf("schema has no top-level $ref")
	}
	raw := doc.parsed
	if raw == nil {
		raw = doc.Definitions
	}
	top, ok := raw[doc.TopRef]
	if !ok {
		return nil, &RefError{Ref: doc.TopRef}
	}
	attrs, _, ok := attributesOf(top)
	if !ok {
		return nil, fmt.Errorf("%s is a %s, not an object", doc.TopRef, top.Kind())
	}
	content, ok := attrs["content"]
	if !ok {
		return nil, fmt.Errorf("%s has no content property", doc.TopRef)
	}
	arr, ok := content.Schema.(*Array)
	if !ok {
		return nil, fmt.Errorf("%s content is a %s, not an array", doc.TopRef, content.Schema.Kind())
	}

	var refs []*Ref
	for _, item := range schemaValues(arr.Constraints["items"]) {
		refs = append(refs, collectRefs(item)...)
	}

	out := make([]ContentNode, 0, len(refs))
	seen := make(map[string]bool, len(refs))
	for _, r := range refs {
		if seen[r.Ref] {
			continue
		}
		seen[r.Ref] = true
		def, ok := raw[r.Ref]
		if !ok {
			return nil, &RefError{Ref: r.Ref}
		}
		norm, err := NormalizeNode(doc, def)
		if err != nil {
			return nil, fmt.Errorf("normalize %s: %w", r.Ref, err)
		}
		cn := ContentNode{Ref: r.Ref, Schema: norm}
		if named, ok := norm.(*NamedObject); ok {
			cn.Name = named.Name
		}
		out = append(out, cn)
	}
	return out, nil
}

func collectRefs(n Node) []*Ref {
	if r, ok := n.(*Ref); ok {
		return []*Ref{r}
	}
	branches, ok := branchesOf(n)
	if !ok {
		return nil
	}
	var out []*Ref
	for _, b := range branches {
		out = append(out, collectRefs(b)...)
	}
	return out
}
