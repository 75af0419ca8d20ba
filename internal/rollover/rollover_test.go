package rollover

import (
	"reflect"
	"testing"

	"github.com/aidanlsb/wikiroll/internal/outline"
)

func TestTransformStorageWeekly(t *testing.T) {
	t.Parallel()

	in := "<h1>2023-W1</h1><p>a</p><h1>2023-W2</h1><p>b</p>"
	out, sum, err := TransformStorage(in)
	if err != nil {
		t.Fatal(err)
	}
	want := "<h1>2023-W1</h1><p>a</p><h1>2023-W1</h1><p>b</p><h1>2023-W2</h1><p>b</p>"
	if out != want {
		t.Fatalf("out = %q, want %q", out, want)
	}
	wantSum := Summary{
		GroupsIn:   2,
		GroupsOut:  3,
		Carried:    "2023-W1",
		Leaders:    []string{"2023-W1", "2023-W2"},
		Duplicated: true,
	}
	if !reflect.DeepEqual(sum, wantSum) {
		t.Fatalf("summary = %+v, want %+v", sum, wantSum)
	}
}

func TestTransformStorageKeepsMacros(t *testing.T) {
	t.Parallel()

	in := `<ac:structured-macro ac:name="toc"/>` + "\n" +
		"<h1>Mon</h1>\n<p>x</p>\n" +
		"<h1>Tue</h1>\n<ac:task-list><ac:task><ac:task-body>y</ac:task-body></ac:task></ac:task-list>\n"
	out, sum, err := TransformStorage(in)
	if err != nil {
		t.Fatal(err)
	}
	want := `<ac:structured-macro ac:name="toc"/>` + "\n" +
		"<h1>Mon</h1>\n<p>x</p>\n" +
		"<h1>Mon</h1>\n<ac:task-list><ac:task><ac:task-body>y</ac:task-body></ac:task></ac:task-list>\n" +
		"<h1>Tue</h1>\n<ac:task-list><ac:task><ac:task-body>y</ac:task-body></ac:task></ac:task-list>\n"
	if out != want {
		t.Fatalf("out =\n%s\nwant\n%s", out, want)
	}
	if sum.GroupsIn != 3 || sum.GroupsOut != 4 {
		t.Fatalf("summary = %+v", sum)
	}
}

func TestTransformSingleHeading(t *testing.T) {
	t.Parallel()

	in := "<h1>Only</h1><p>a</p>"
	out, sum, err := TransformStorage(in)
	if err != nil {
		t.Fatal(err)
	}
	if out != in || sum.Duplicated || sum.GroupsOut != 1 {
		t.Fatalf("out = %q, summary = %+v", out, sum)
	}
}

func TestTransformStorageSyntaxError(t *testing.T) {
	t.Parallel()

	if _, _, err := TransformStorage("<h1>x</p>"); err == nil {
		t.Fatal("expected a parse error")
	}
}

func TestTransformMarkdown(t *testing.T) {
	t.Parallel()

	in := "# 2023-W1\n\na\n\n# 2023-W2\n\nb\n"
	out, sum, err := TransformMarkdown([]byte(in))
	if err != nil {
		t.Fatal(err)
	}
	want := "# 2023-W1\n\na\n\n# 2023-W1\n\nb\n# 2023-W2\n\nb\n"
	if string(out) != want {
		t.Fatalf("out = %q, want %q", out, want)
	}
	if sum.Carried != "2023-W1" {
		t.Fatalf("carried = %q", sum.Carried)
	}
}

func TestTransformWithTable(t *testing.T) {
	t.Parallel()

	table := outline.Table{"h2": outline.Independent{}}
	tr := New(WithTable(table))
	out, _, err := tr.Transform(FormatStorage, []byte("<h1>T</h1><h2>A</h2><p>a</p><h2>B</h2>"))
	if err != nil {
		t.Fatal(err)
	}
	want := "<h1>T</h1><h2>A</h2><p>a</p><h2>A</h2><h2>B</h2>"
	if string(out) != want {
		t.Fatalf("out = %q, want %q", out, want)
	}
}

func TestParseFormat(t *testing.T) {
	t.Parallel()

	for in, want := range map[string]Format{"": FormatStorage, "xml": FormatStorage, "markdown": FormatMarkdown, "md": FormatMarkdown} {
		got, err := ParseFormat(in)
		if err != nil || got != want {
			t.Errorf("ParseFormat(%q) = %q, %v", in, got, err)
		}
	}
	if _, err := ParseFormat("html"); err == nil {
		t.Error("ParseFormat(html) should fail")
	}
}
