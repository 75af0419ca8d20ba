package jsonschema

import (
	"bytes"
	"fmt"

	"github.com/goccy/go-json"
	refschema "github.com/santhosh-tekuri/jsonschema/v5"
)

const referenceURL = "wroll:///schema.json"

// Reference wraps a full JSON Schema implementation. It is used to explain
// rejections and to cross-check the subset validator; it never decides
// whether a value is accepted.
type Reference struct {
	compiler *refschema.Compiler
}

// NewReference loads a schema document into the reference compiler. The
// document's `$schema` is dropped and draft-04 semantics are applied, which
// is what the ADF schema is written against.
func NewReference(schemaDoc []byte) (*Reference, error) {
	var raw map[string]any
	dec := json.NewDecoder(bytes.NewReader(schemaDoc))
	dec.UseNumber()
	if err := dec.Decode(&raw); err != nil {
		return nil, fmt.Errorf("decode schema: %w", err)
	}
	delete(raw, "$schema")
	cleaned, err := json.Marshal(raw)
	if err != nil {
		return nil, fmt.Errorf("encode schema: %w", err)
	}

	c := refschema.NewCompiler()
	c.Draft = refschema.Draft4
	if err := c.AddResource(referenceURL, bytes.NewReader(cleaned)); err != nil {
		return nil, fmt.Errorf("load schema: %w", err)
	}
	return &Reference{compiler: c}, nil
}

// Check validates value against the definition named by ref, or against
// the document root when ref is empty. A nil error means the value is
// valid; a *refschema.ValidationError carries the detailed causes.
func (r *Reference) Check(ref string, value any) error {
	url := referenceURL
	if ref != "" {
		url += RefName(ref)
	}
	s, err := r.compiler.Compile(url)
	if err != nil {
		return fmt.Errorf("compile %s: %w", url, err)
	}
	return s.Validate(value)
}

// Explain renders a reference validation error as an indented cause tree.
func Explain(err error) string {
	if ve, ok := err.(*refschema.ValidationError); ok {
		return fmt.Sprintf("%#v", ve)
	}
	return err.Error()
}
