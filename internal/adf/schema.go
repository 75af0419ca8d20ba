package adf

import (
	_ "embed"
	"errors"
	"fmt"
	"sync"

	"github.com/goccy/go-json"

	"github.com/aidanlsb/wikiroll/internal/jsonschema"
)

//go:embed schema/adf.json
var schemaJSON []byte

// ErrInvalid is returned by Validate when a value is rejected.
var ErrInvalid = errors.New("adf: document does not match the schema")

var (
	schemaOnce sync.Once
	schemaDoc  *jsonschema.Document
	schemaErr  error
)

// SchemaJSON returns the bundled schema source.
func SchemaJSON() []byte { return schemaJSON }

// Schema returns the bundled ADF schema, parsed and normalized once.
func Schema() (*jsonschema.Document, error) {
	schemaOnce.Do(func() {
		v, err := jsonschema.Decode(schemaJSON, jsonschema.FormatJSON)
		if err != nil {
			schemaErr = err
			return
		}
		doc, err := jsonschema.ParseValue(v)
		if err != nil {
			schemaErr = err
			return
		}
		schemaDoc, schemaErr = jsonschema.Normalize(doc)
	})
	return schemaDoc, schemaErr
}

// Validate checks n against the definition ref, or the document root when
// ref is empty.
func Validate(ref string, n any) error {
	doc, err := Schema()
	if err != nil {
		return fmt.Errorf("load adf schema: %w", err)
	}
	v := jsonschema.NewValidator(doc)
	var ok bool
	if ref == "" {
		ok, err = v.ValidateTop(n)
	} else {
		ok, err = v.ValidateRef(ref, n)
	}
	if err != nil {
		return err
	}
	if !ok {
		return ErrInvalid
	}
	return nil
}

// Marshal validates a document and encodes it.
func Marshal(doc Node) ([]byte, error) {
	if err := Validate("", doc); err != nil {
		return nil, err
	}
	return json.Marshal(doc)
}
