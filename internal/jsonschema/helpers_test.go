package jsonschema

import (
	"encoding/json"
	"testing"
)

func jsonNumber(s string) json.Number { return json.Number(s) }

func decodeJSON(t *testing.T, s string) any {
	t.Helper()
	v, err := Decode([]byte(s), FormatJSON)
	if err != nil {
		t.Fatalf("decode %s: %v", s, err)
	}
	return v
}

func mustParse(t *testing.T, s string) *Document {
	t.Helper()
	doc, err := ParseValue(decodeJSON(t, s))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	return doc
}

func boolPtr(b bool) *bool { return &b }
