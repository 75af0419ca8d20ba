package cli

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/aidanlsb/wikiroll/internal/rollover"
)

const weekMarkdown = "# 2024-W02\n\n- [ ] ship it\n\n# 2024-W01\n\nold notes\n"

func TestRolloverWritesFile(t *testing.T) {
	dir := setupGlobals(t, nil)
	in := filepath.Join(dir, "week.md")
	out := filepath.Join(dir, "next", "week.md")
	writeTestFile(t, in, weekMarkdown)

	setVar(t, &rolloverIn, in)
	setVar(t, &rolloverOut, out)
	setVar(t, &rolloverFormat, "")
	setVar(t, &rolloverPreview, false)

	stdout := captureStdout(t, func() {
		if err := rolloverCmd.RunE(rolloverCmd, nil); err != nil {
			t.Errorf("RunE: %v", err)
		}
	})
	var res rolloverResult
	resp := decodeResponse(t, stdout, &res)
	if !resp.OK || res.Format != rollover.FormatMarkdown || !res.Summary.Duplicated {
		t.Fatalf("response = %s", stdout)
	}

	want, _, err := rollover.TransformMarkdown([]byte(weekMarkdown))
	if err != nil {
		t.Fatal(err)
	}
	got, err := os.ReadFile(out)
	if err != nil {
		t.Fatalf("read output: %v", err)
	}
	if string(got) != string(want) {
		t.Fatalf("output = %q, want %q", got, want)
	}
}

func TestRolloverStorageToStdout(t *testing.T) {
	dir := setupGlobals(t, nil)
	in := filepath.Join(dir, "page.xml")
	body := `<h1>Tue</h1><p>b</p><h1>Mon</h1><p>a</p>`
	writeTestFile(t, in, body)

	setVar(t, &rolloverIn, in)
	setVar(t, &rolloverOut, "")
	setVar(t, &rolloverFormat, "xml")
	setVar(t, &rolloverPreview, false)

	stdout := captureStdout(t, func() {
		if err := rolloverCmd.RunE(rolloverCmd, nil); err != nil {
			t.Errorf("RunE: %v", err)
		}
	})
	var res rolloverResult
	decodeResponse(t, stdout, &res)
	want, _, err := rollover.TransformStorage(body)
	if err != nil {
		t.Fatal(err)
	}
	if res.Body != want {
		t.Fatalf("body = %q, want %q", res.Body, want)
	}
}

func TestRolloverWarnsWhenNothingCarried(t *testing.T) {
	dir := setupGlobals(t, nil)
	in := filepath.Join(dir, "page.xml")
	writeTestFile(t, in, `<p>no headings</p>`)
	setVar(t, &rolloverIn, in)
	setVar(t, &rolloverOut, "")
	setVar(t, &rolloverFormat, "")
	setVar(t, &rolloverPreview, true)

	stdout := captureStdout(t, func() {
		if err := rolloverCmd.RunE(rolloverCmd, nil); err != nil {
			t.Errorf("RunE: %v", err)
		}
	})
	resp := decodeResponse(t, stdout, nil)
	if len(resp.Warnings) != 1 || resp.Warnings[0].Code != WarnNothingCarried {
		t.Fatalf("response = %s", stdout)
	}
}

func TestRolloverErrors(t *testing.T) {
	tests := []struct {
		name   string
		body   string
		format string
		want   string
	}{
		{"bad format", "<p/>", "docx", ErrInvalidInput},
		{"syntax error", "<h1>x</p>", "xml", ErrParseError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := setupGlobals(t, nil)
			in := filepath.Join(dir, "page.xml")
			writeTestFile(t, in, tt.body)
			setVar(t, &rolloverIn, in)
			setVar(t, &rolloverOut, "")
			setVar(t, &rolloverFormat, tt.format)
			setVar(t, &rolloverPreview, false)

			stdout := captureStdout(t, func() {
				_ = rolloverCmd.RunE(rolloverCmd, nil)
			})
			resp := decodeResponse(t, stdout, nil)
			if resp.OK || resp.Error.Code != tt.want {
				t.Fatalf("response = %s, want %s", stdout, tt.want)
			}
		})
	}
}
