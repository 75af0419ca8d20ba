// Package adf builds Atlassian Document Format values.
//
// Nodes are plain JSON-shaped maps so they can be validated by the schema
// package and marshaled without intermediate types.
package adf

import (
	"github.com/google/uuid"
)

// Node is one ADF node or mark.
type Node = map[string]any

// NewLocalID generates the localId attribute of tables.
var NewLocalID = uuid.NewString

// Doc wraps top-level nodes in a version 1 document.
func Doc(content ...Node) Node {
	return Node{
		"type":    "doc",
		"version": 1,
		"content": list(content),
	}
}

// Heading builds a heading of the given level (1-6).
func Heading(level int, inline ...Node) Node {
	return Node{
		"type":    "heading",
		"attrs":   map[string]any{"level": level},
		"content": list(inline),
	}
}

// Paragraph builds a paragraph.
func Paragraph(inline ...Node) Node {
	return Node{
		"type":    "paragraph",
		"content": list(inline),
	}
}

// Text builds a text node with optional simple marks (strong, em, code).
// Empty text is not a valid ADF text node; callers should skip it.
func Text(s string, marks ...string) Node {
	n := Node{"type": "text", "text": s}
	if len(marks) > 0 {
		ms := make([]any, len(marks))
		for i, m := range marks {
			ms[i] = Node{"type": m}
		}
		n["marks"] = ms
	}
	return n
}

// Link builds a text node carrying a link mark.
func Link(s, href string) Node {
	return Node{
		"type": "text",
		"text": s,
		"marks": []any{Node{
			"type":  "link",
			"attrs": map[string]any{"href": href},
		}},
	}
}

// HardBreak is a line break inside a paragraph.
func HardBreak() Node { return Node{"type": "hardBreak"} }

// Rule is a horizontal rule.
func Rule() Node { return Node{"type": "rule"} }

// CodeBlock holds preformatted text.
func CodeBlock(language, code string) Node {
	n := Node{"type": "codeBlock"}
	if language != "" {
		n["attrs"] = map[string]any{"language": language}
	}
	if code != "" {
		n["content"] = []any{Text(code)}
	}
	return n
}

// BulletList builds a list; each item is a list of paragraphs or nested
// lists.
func BulletList(items ...[]Node) Node {
	content := make([]any, len(items))
	for i, it := range items {
		content[i] = Node{"type": "listItem", "content": list(it)}
	}
	return Node{"type": "bulletList", "content": content}
}

// Table is a simple text table. Header, when present, becomes a row of
// header cells above Rows.
type Table struct {
	Header []string
	Rows   [][]string
}

// Node renders the table.
func (t Table) Node() Node {
	var rows []any
	if len(t.Header) > 0 {
		rows = append(rows, row("tableHeader", t.Header))
	}
	for _, r := range t.Rows {
		rows = append(rows, row("tableCell", r))
	}
	return Node{
		"type": "table",
		"attrs": map[string]any{
			"isNumberColumnEnabled": true,
			"layout":                "default",
			"localId":               NewLocalID(),
		},
		"content": rows,
	}
}

func row(cellType string, cells []string) Node {
	content := make([]any, len(cells))
	for i, c := range cells {
		p := Paragraph()
		if c != "" {
			p = Paragraph(Text(c))
		}
		content[i] = Node{
			"type":    cellType,
			"attrs":   map[string]any{},
			"content": []any{p},
		}
	}
	return Node{"type": "tableRow", "content": content}
}

func list(nodes []Node) []any {
	out := make([]any, len(nodes))
	for i, n := range nodes {
		out[i] = n
	}
	return out
}
