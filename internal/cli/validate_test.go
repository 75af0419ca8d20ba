package cli

import (
	"path/filepath"
	"strings"
	"testing"
)

const validDoc = `{"version": 1, "type": "doc", "content": [
  {"type": "heading", "attrs": {"level": 1}, "content": [{"type": "text", "text": "2024-W02"}]},
  {"type": "paragraph", "content": [{"type": "text", "text": "notes"}]}
]}`

const itemSchema = `
$schema: http://json-schema.org/draft-04/schema#
$ref: "#/definitions/item"
definitions:
  item:
    type: object
    properties:
      name: {type: string}
      count: {type: number}
    required: [name]
    additionalProperties: false
`

func TestValidateCommand(t *testing.T) {
	tests := []struct {
		name      string
		schema    string
		value     string
		valueExt  string
		ref       string
		explain   bool
		wantValid bool
		wantCode  string
	}{
		{name: "adf document", value: validDoc, valueExt: ".json", wantValid: true},
		{name: "adf missing content", value: `{"version": 1, "type": "doc"}`, valueExt: ".json", wantCode: ErrValidationFailed},
		{name: "adf explained", value: `{"version": 1, "type": "doc"}`, valueExt: ".json", explain: true, wantCode: ErrValidationFailed},
		{name: "adf definition", value: "type: rule\n", valueExt: ".yaml", ref: "rule_node", wantValid: true},
		{name: "unknown definition", value: "{}", valueExt: ".json", ref: "no_such_node", wantCode: ErrRefNotFound},
		{name: "yaml schema accepts", schema: itemSchema, value: `{"name": "x", "count": 2}`, valueExt: ".json", wantValid: true},
		{name: "yaml schema rejects", schema: itemSchema, value: `{"count": 2}`, valueExt: ".json", wantCode: ErrValidationFailed},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := setupGlobals(t, nil)
			schemaPath := ""
			if tt.schema != "" {
				schemaPath = filepath.Join(dir, "schema.yaml")
				writeTestFile(t, schemaPath, tt.schema)
			}
			valuePath := filepath.Join(dir, "value"+tt.valueExt)
			writeTestFile(t, valuePath, tt.value)

			setVar(t, &validateSchemaPath, schemaPath)
			setVar(t, &validateValuePath, valuePath)
			setVar(t, &validateRef, tt.ref)
			setVar(t, &validateExplain, tt.explain)

			out := captureStdout(t, func() {
				if err := validateCmd.RunE(validateCmd, nil); err != nil {
					t.Errorf("RunE: %v", err)
				}
			})
			var res validateResult
			resp := decodeResponse(t, out, &res)
			if tt.wantCode != "" {
				if resp.OK || resp.Error == nil || resp.Error.Code != tt.wantCode {
					t.Fatalf("response = %s, want code %s", out, tt.wantCode)
				}
				if tt.explain && !strings.Contains(out, "explanation") {
					t.Fatalf("explanation missing: %s", out)
				}
				return
			}
			if !resp.OK || res.Valid != tt.wantValid {
				t.Fatalf("response = %s", out)
			}
		})
	}
}

func TestValidateTextModeFailsOnInvalid(t *testing.T) {
	dir := setupGlobals(t, nil)
	jsonOutput = false
	valuePath := filepath.Join(dir, "doc.json")
	writeTestFile(t, valuePath, `{"type": "doc"}`)
	setVar(t, &validateValuePath, valuePath)
	setVar(t, &validateSchemaPath, "")
	setVar(t, &validateRef, "")

	var err error
	captureStdout(t, func() { err = validateCmd.RunE(validateCmd, nil) })
	if err == nil {
		t.Fatal("invalid value did not fail the command")
	}
}
