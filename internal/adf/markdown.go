package adf

import (
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/extension"
	east "github.com/yuin/goldmark/extension/ast"
	"github.com/yuin/goldmark/text"
)

// FromMarkdown converts Markdown into an ADF document. Headings,
// paragraphs, bullet and ordered lists, code, rules and pipe tables are
// kept; block quotes are flattened into their paragraphs and raw HTML is
// dropped.
func FromMarkdown(src []byte) Node {
	md := goldmark.New(goldmark.WithExtensions(extension.Table))
	root := md.Parser().Parse(text.NewReader(src))
	c := converter{src: src}
	return Doc(c.blocks(root)...)
}

type converter struct {
	src []byte
}

func (c converter) blocks(parent ast.Node) []Node {
	var out []Node
	for n := parent.FirstChild(); n != nil; n = n.NextSibling() {
		out = append(out, c.block(n)...)
	}
	return out
}

func (c converter) block(n ast.Node) []Node {
	switch x := n.(type) {
	case *ast.Heading:
		return []Node{Heading(x.Level, c.inlines(x, nil)...)}
	case *ast.Paragraph, *ast.TextBlock:
		return []Node{Paragraph(c.inlines(x, nil)...)}
	case *ast.List:
		var items [][]Node
		for it := x.FirstChild(); it != nil; it = it.NextSibling() {
			item := c.blocks(it)
			if len(item) == 0 {
				item = []Node{Paragraph()}
			}
			items = append(items, listContent(item))
		}
		if len(items) == 0 {
			return nil
		}
		return []Node{BulletList(items...)}
	case *ast.FencedCodeBlock:
		return []Node{CodeBlock(string(x.Language(c.src)), c.lines(x))}
	case *ast.CodeBlock:
		return []Node{CodeBlock("", c.lines(x))}
	case *ast.ThematicBreak:
		return []Node{Rule()}
	case *ast.Blockquote:
		return c.blocks(x)
	case *east.Table:
		return []Node{c.table(x)}
	}
	return nil
}

// listContent keeps what a list item may hold: paragraphs and nested lists.
func listContent(nodes []Node) []Node {
	out := nodes[:0:0]
	for _, n := range nodes {
		switch n["type"] {
		case "paragraph", "bulletList":
			out = append(out, n)
		case "heading":
			out = append(out, Paragraph(contentOf(n)...))
		}
	}
	if len(out) == 0 {
		out = append(out, Paragraph())
	}
	return out
}

func contentOf(n Node) []Node {
	items, _ := n["content"].([]any)
	out := make([]Node, 0, len(items))
	for _, it := range items {
		if m, ok := it.(Node); ok {
			out = append(out, m)
		}
	}
	return out
}

func (c converter) lines(n ast.Node) string {
	return strings.TrimRight(string(n.Lines().Value(c.src)), "\n")
}

func (c converter) table(t *east.Table) Node {
	var tbl Table
	for r := t.FirstChild(); r != nil; r = r.NextSibling() {
		var cells []string
		for cell := r.FirstChild(); cell != nil; cell = cell.NextSibling() {
			cells = append(cells, c.plain(cell))
		}
		if _, ok := r.(*east.TableHeader); ok {
			tbl.Header = cells
			continue
		}
		tbl.Rows = append(tbl.Rows, cells)
	}
	return tbl.Node()
}

func (c converter) plain(n ast.Node) string {
	var sb strings.Builder
	for _, in := range c.inlines(n, nil) {
		if s, ok := in["text"].(string); ok {
			sb.WriteString(s)
		}
	}
	return strings.TrimSpace(sb.String())
}

// inlines flattens inline children into text nodes, accumulating marks
// from enclosing emphasis, code spans and links.
func (c converter) inlines(parent ast.Node, marks []any) []Node {
	var out []Node
	emit := func(s string) {
		if s == "" {
			return
		}
		n := Node{"type": "text", "text": s}
		if len(marks) > 0 {
			n["marks"] = append([]any(nil), marks...)
		}
		out = append(out, n)
	}
	for n := parent.FirstChild(); n != nil; n = n.NextSibling() {
		switch x := n.(type) {
		case *ast.Text:
			s := string(x.Segment.Value(c.src))
			if x.SoftLineBreak() {
				s += " "
			}
			emit(s)
			if x.HardLineBreak() {
				out = append(out, HardBreak())
			}
		case *ast.String:
			emit(string(x.Value))
		case *ast.CodeSpan:
			var sb strings.Builder
			for t := x.FirstChild(); t != nil; t = t.NextSibling() {
				if tx, ok := t.(*ast.Text); ok {
					sb.Write(tx.Segment.Value(c.src))
				}
			}
			out = append(out, c.withMark(sb.String(), marks, Node{"type": "code"})...)
		case *ast.Emphasis:
			m := "em"
			if x.Level >= 2 {
				m = "strong"
			}
			out = append(out, c.inlines(x, appendMark(marks, Node{"type": m}))...)
		case *ast.Link:
			link := Node{"type": "link", "attrs": map[string]any{"href": string(x.Destination)}}
			out = append(out, c.inlines(x, appendMark(marks, link))...)
		case *ast.AutoLink:
			url := string(x.URL(c.src))
			link := Node{"type": "link", "attrs": map[string]any{"href": url}}
			out = append(out, c.withMark(string(x.Label(c.src)), marks, link)...)
		case *ast.Image:
			out = append(out, c.inlines(x, marks)...)
		}
	}
	return out
}

func (c converter) withMark(s string, marks []any, m Node) []Node {
	if s == "" {
		return nil
	}
	return []Node{{"type": "text", "text": s, "marks": appendMark(marks, m)}}
}

func appendMark(marks []any, m Node) []any {
	out := make([]any, 0, len(marks)+1)
	out = append(out, marks...)
	return append(out, m)
}
