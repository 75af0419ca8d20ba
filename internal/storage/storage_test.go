package storage

import (
	"errors"
	"strings"
	"testing"

	"github.com/beevik/etree"

	"github.com/aidanlsb/wikiroll/internal/outline"
)

func mustParse(t *testing.T, value string) *Body {
	t.Helper()
	b, err := Parse(value)
	if err != nil {
		t.Fatalf("Parse(%q): %v", value, err)
	}
	return b
}

func TestRoundTrip(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		value string
	}{
		{"empty", ""},
		{"paragraph", "<p>hello</p>"},
		{"blocks with whitespace", "<h1>W1</h1>\n<p>a</p>\n<h1>W2</h1>\n"},
		{"undeclared prefixes", `<ac:structured-macro ac:name="toc"><ac:parameter ac:name="maxLevel">2</ac:parameter></ac:structured-macro>`},
		{"resource identifier", `<ac:link><ri:page ri:content-title="Home"/></ac:link>`},
		{"cdata", `<ac:plain-text-body><![CDATA[if a < b { }]]></ac:plain-text-body>`},
		{"comment", "<p>x</p><!-- keep --><p>y</p>"},
		{"quotes in text", `<p>it's "quoted"</p>`},
		{"leading text", "lead <p>x</p>"},
		{"empty element", "<p>a<br/>b</p>"},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			b := mustParse(t, tt.value)
			if got := b.String(); got != tt.value {
				t.Fatalf("String() = %q, want %q", got, tt.value)
			}
		})
	}
}

func TestEntities(t *testing.T) {
	t.Parallel()

	b := mustParse(t, "<p>a&nbsp;b &amp; c</p>")
	if got, want := b.Blocks()[0].Text(), "a\u00a0b & c"; got != want {
		t.Fatalf("Text() = %q, want %q", got, want)
	}
	if got, want := b.String(), "<p>a\u00a0b &amp; c</p>"; got != want {
		t.Fatalf("String() = %q, want %q", got, want)
	}
}

func TestBlocks(t *testing.T) {
	t.Parallel()

	b := mustParse(t, "intro<h1>W1</h1>\n<ac:layout>x</ac:layout><!-- c -->\n")
	blocks := b.Blocks()
	if len(blocks) != 2 {
		t.Fatalf("got %d blocks", len(blocks))
	}
	if blocks[0].Tag() != "h1" || blocks[1].Tag() != "ac:layout" {
		t.Fatalf("tags = %s, %s", blocks[0].Tag(), blocks[1].Tag())
	}
	if len(blocks[1].trailing) != 2 {
		t.Fatalf("trailing tokens = %d, want 2", len(blocks[1].trailing))
	}
	if b.Lead() != "intro" {
		t.Fatalf("Lead() = %q", b.Lead())
	}
}

func TestSetNodesAfterRollover(t *testing.T) {
	t.Parallel()

	b := mustParse(t, "<h1>2023-W1</h1>\n<p>a</p>\n<h1>2023-W2</h1>\n<p>b</p>\n")
	groups, err := outline.Rollover(outline.Group(b.Nodes()))
	if err != nil {
		t.Fatal(err)
	}
	if err := b.SetNodes(outline.Flatten(groups)); err != nil {
		t.Fatal(err)
	}
	want := "<h1>2023-W1</h1>\n<p>a</p>\n" +
		"<h1>2023-W1</h1>\n<p>b</p>\n" +
		"<h1>2023-W2</h1>\n<p>b</p>\n"
	if got := b.String(); got != want {
		t.Fatalf("String() =\n%s\nwant\n%s", got, want)
	}
}

type foreignNode struct{}

func (foreignNode) Tag() string         { return "p" }
func (foreignNode) Text() string        { return "" }
func (foreignNode) SetText(string)      {}
func (foreignNode) Clone() outline.Node { return foreignNode{} }

func TestSetNodesRejectsForeignNodes(t *testing.T) {
	t.Parallel()

	b := mustParse(t, "<p>x</p>")
	if err := b.SetNodes([]outline.Node{foreignNode{}}); err == nil {
		t.Fatal("expected an error")
	}
	if b.String() != "<p>x</p>" {
		t.Fatalf("body changed: %q", b.String())
	}
}

func TestBlockClone(t *testing.T) {
	t.Parallel()

	b := mustParse(t, `<h1>Title<span>x</span></h1><!-- after -->`)
	orig := b.Blocks()[0]
	c := orig.Clone().(*Block)
	c.SetText("Other")
	c.Element().SelectElement("span").SetText("y")

	if orig.Text() != "Title" {
		t.Errorf("original text = %q", orig.Text())
	}
	if orig.Element().SelectElement("span").Text() != "x" {
		t.Error("child shared with the clone")
	}
	if len(c.trailing) != 1 || c.trailing[0] == orig.trailing[0] {
		t.Error("trailing tokens should be copied")
	}
}

func TestSyntaxError(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		value    string
		line     int
		contains string
	}{
		{"mismatched on line 2", "<p>ok</p>\n<p><b>x</p></b>", 2, "closed by"},
		{"unclosed", "<p>x\n<p>y</p>", 2, "unclosed element <p>"},
		{"stray end", "<p>x</p>\n\n</div>", 3, "unexpected end element"},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			_, err := Parse(tt.value)
			var se *SyntaxError
			if !errors.As(err, &se) {
				t.Fatalf("err = %v, want *SyntaxError", err)
			}
			if se.Line != tt.line {
				t.Errorf("Line = %d, want %d (%v)", se.Line, tt.line, se)
			}
			if !strings.Contains(se.Msg, tt.contains) {
				t.Errorf("Msg = %q, want it to contain %q", se.Msg, tt.contains)
			}
		})
	}
}

func TestProgram(t *testing.T) {
	t.Parallel()

	t.Run("duplicate a heading", func(t *testing.T) {
		b := mustParse(t, "<h1>A</h1><p>x</p>")
		p := Program{Find{Path: "h1"}, Copy{}, Insert{Index: 0}}
		stack, err := b.Run(p)
		if err != nil {
			t.Fatal(err)
		}
		if len(stack) != 1 || stack[0] != b.Root() {
			t.Fatalf("stack = %v", stack)
		}
		if got, want := b.String(), "<h1>A</h1><h1>A</h1><p>x</p>"; got != want {
			t.Fatalf("String() = %q, want %q", got, want)
		}
	})

	t.Run("remove", func(t *testing.T) {
		b := mustParse(t, "<h1>A</h1><p>x</p>")
		if _, err := b.Run(Program{Find{Path: "p"}, Remove{}}); err != nil {
			t.Fatal(err)
		}
		if got := b.String(); got != "<h1>A</h1>" {
			t.Fatalf("String() = %q", got)
		}
	})

	t.Run("prefixed path", func(t *testing.T) {
		b := mustParse(t, `<ac:layout><ac:layout-section>s</ac:layout-section></ac:layout>`)
		stack, err := b.Run(Program{Find{Path: "ac:layout/ac:layout-section"}})
		if err != nil {
			t.Fatal(err)
		}
		if stack[0] == nil || stack[0].Text() != "s" {
			t.Fatalf("top = %v", stack[0])
		}
	})

	t.Run("missing element then insert", func(t *testing.T) {
		b := mustParse(t, "<p>x</p>")
		_, err := b.Run(Program{Find{Path: "h1"}, Insert{Index: 0}})
		if !errors.Is(err, ErrNoElement) {
			t.Fatalf("err = %v, want ErrNoElement", err)
		}
	})

	t.Run("underflow", func(t *testing.T) {
		b := mustParse(t, "<p>x</p>")
		_, err := b.Run(Program{Pop{}, Pop{}})
		if !errors.Is(err, ErrStackUnderflow) {
			t.Fatalf("err = %v, want ErrStackUnderflow", err)
		}
	})

	t.Run("call", func(t *testing.T) {
		b := mustParse(t, "<p>x</p>")
		mk := Call{Name: "rule", Fn: func() (*etree.Element, error) { return etree.NewElement("hr"), nil }}
		if _, err := b.Run(Program{mk, Insert{Index: 99}}); err != nil {
			t.Fatal(err)
		}
		if got := b.String(); got != "<p>x</p><hr/>" {
			t.Fatalf("String() = %q", got)
		}
	})
}

func TestParseProgram(t *testing.T) {
	t.Parallel()

	p, err := ParseProgram([]string{"find:h1", "copy", "pop", "dup", "pop", "push:<p>new</p>", "insert:0"})
	if err != nil {
		t.Fatal(err)
	}
	var names []string
	for _, op := range p {
		names = append(names, op.String())
	}
	if got, want := strings.Join(names, " "), "find:h1 copy pop dup pop push:p insert:0"; got != want {
		t.Fatalf("ops = %q, want %q", got, want)
	}

	b := mustParse(t, "<h1>A</h1>")
	if _, err := b.Run(p); err != nil {
		t.Fatal(err)
	}
	if got, want := b.String(), "<p>new</p><h1>A</h1>"; got != want {
		t.Fatalf("String() = %q, want %q", got, want)
	}

	for _, bad := range []string{"jump", "insert:x", "find:", "push:<p>a</p><p>b</p>", "push:<p>"} {
		if _, err := ParseOp(bad); err == nil {
			t.Errorf("ParseOp(%q) should fail", bad)
		}
	}
}
