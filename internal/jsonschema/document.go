package jsonschema

import (
	"sort"
	"strings"
)

// DefinitionPrefix is prepended to every key of a schema's `definitions`.
const DefinitionPrefix = "#/definitions/"

// Document is a parsed schema document. It is not modified after Parse or
// Normalize return, so it can be shared between goroutines.
type Document struct {
	SchemaURI   string
	ID          string
	Description string
	TopRef      string

	// Definitions is keyed by `#/definitions/<key>`.
	Definitions map[string]Node

	// Root is set when the document itself carries a `type`.
	Root Node

	// parsed holds the definitions as Parse produced them. Normalize always
	// starts from here.
	parsed map[string]Node
}

// Lookup resolves a definition name.
func (d *Document) Lookup(ref string) (Node, bool) {
	n, ok := d.Definitions[ref]
	return n, ok
}

// Top returns the node TopRef points at, falling back to Root.
func (d *Document) Top() (Node, error) {
	if d.TopRef == "" {
		if d.Root == nil {
			return nil, &RefError{Ref: "(top)"}
		}
		return d.Root, nil
	}
	n, ok := d.Definitions[d.TopRef]
	if !ok {
		return nil, &RefError{Ref: d.TopRef}
	}
	return n, nil
}

// Names returns the definition names in sorted order.
func (d *Document) Names() []string {
	names := make([]string, 0, len(d.Definitions))
	for k := range d.Definitions {
		names = append(names, k)
	}
	sort.Strings(names)
	return names
}

// RefName turns a bare definition key into its reference form.
func RefName(key string) string {
	if strings.HasPrefix(key, "#/") {
		return key
	}
	return DefinitionPrefix + key
}
