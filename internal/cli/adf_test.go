package cli

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/goccy/go-json"

	"github.com/aidanlsb/wikiroll/internal/adf"
	"github.com/aidanlsb/wikiroll/internal/jsonschema"
)

func TestADFCommandWritesValidDocument(t *testing.T) {
	dir := setupGlobals(t, nil)
	in := filepath.Join(dir, "notes.md")
	out := filepath.Join(dir, "notes.json")
	writeTestFile(t, in, "# Week 2\n\nSome *notes*.\n\n| a | b |\n|---|---|\n| 1 | 2 |\n")
	setVar(t, &adfIn, in)
	setVar(t, &adfOut, out)

	stdout := captureStdout(t, func() {
		if err := adfCmd.RunE(adfCmd, nil); err != nil {
			t.Errorf("RunE: %v", err)
		}
	})
	if resp := decodeResponse(t, stdout, nil); !resp.OK {
		t.Fatalf("response = %s", stdout)
	}

	data, err := os.ReadFile(out)
	if err != nil {
		t.Fatal(err)
	}
	v, err := jsonschema.Decode(data, jsonschema.FormatJSON)
	if err != nil {
		t.Fatal(err)
	}
	if err := adf.Validate("", v); err != nil {
		t.Fatalf("written document invalid: %v", err)
	}
	var doc struct {
		Content []struct {
			Type string `json:"type"`
		} `json:"content"`
	}
	if err := json.Unmarshal(data, &doc); err != nil {
		t.Fatal(err)
	}
	if len(doc.Content) != 3 || doc.Content[0].Type != "heading" || doc.Content[2].Type != "table" {
		t.Fatalf("content = %+v", doc.Content)
	}
}
