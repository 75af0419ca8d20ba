// Package markdown splits a Markdown journal into top-level blocks that the
// outline grouper can reorder, and writes it back byte for byte.
package markdown

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"

	"github.com/aidanlsb/wikiroll/internal/outline"
)

// Document is a parsed Markdown source.
type Document struct {
	// Preamble is everything before the first block, front matter included.
	Preamble []byte
	Blocks   []*Block
}

// Block is one top-level Markdown block: its own lines plus the blank lines
// that follow it.
type Block struct {
	tag     string
	level   int
	text    string
	content []byte
	tail    []byte
}

// Parse splits src into blocks.
func Parse(src []byte) (*Document, error) {
	idx := newLineIndex(src)
	fm := idx.frontmatterLines()

	// Front matter is blanked in place so goldmark sees the same offsets
	// without mistaking the fences for thematic breaks.
	scan := src
	if fm > 0 {
		scan = bytes.Clone(src)
		for i := 0; i < idx.start(fm); i++ {
			if scan[i] != '\n' && scan[i] != '\r' {
				scan[i] = ' '
			}
		}
	}
	root := goldmark.New().Parser().Parse(text.NewReader(scan))

	type span struct {
		node        ast.Node
		first, last int
	}
	var spans []span
	prevLast := fm - 1
	for n := root.FirstChild(); n != nil; n = n.NextSibling() {
		first, last, located := idx.lineSpan(n)
		if !located {
			first = idx.nextNonBlank(prevLast + 1)
			if first < 0 {
				return nil, fmt.Errorf("markdown: cannot locate %s block after line %d", n.Kind(), prevLast+1)
			}
			last = first
		}
		first, last = idx.adjust(n, first, last, located)
		first = max(first, prevLast+1)
		last = max(last, first)
		spans = append(spans, span{node: n, first: first, last: last})
		prevLast = last
	}

	doc := &Document{}
	if len(spans) == 0 {
		doc.Preamble = bytes.Clone(src)
		return doc, nil
	}
	doc.Preamble = bytes.Clone(src[:idx.start(spans[0].first)])
	for i, sp := range spans {
		end := len(src)
		if i+1 < len(spans) {
			end = idx.start(spans[i+1].first)
		}
		contentEnd := min(idx.start(sp.last+1), end)
		b := &Block{
			content: bytes.Clone(src[idx.start(sp.first):contentEnd]),
			tail:    bytes.Clone(src[contentEnd:end]),
		}
		b.tag, b.level = tagOf(sp.node)
		b.text = plainText(sp.node, src)
		doc.Blocks = append(doc.Blocks, b)
	}
	return doc, nil
}

// Bytes reassembles the document.
func (d *Document) Bytes() []byte {
	var buf bytes.Buffer
	buf.Write(d.Preamble)
	for i, b := range d.Blocks {
		buf.Write(b.content)
		buf.Write(b.tail)
		if i < len(d.Blocks)-1 && !bytes.HasSuffix(buf.Bytes(), []byte("\n")) {
			buf.WriteByte('\n')
		}
	}
	return buf.Bytes()
}

// Nodes returns the blocks as outline nodes.
func (d *Document) Nodes() []outline.Node {
	out := make([]outline.Node, len(d.Blocks))
	for i, b := range d.Blocks {
		out[i] = b
	}
	return out
}

// SetNodes replaces the blocks with nodes obtained from Nodes.
func (d *Document) SetNodes(nodes []outline.Node) error {
	blocks := make([]*Block, len(nodes))
	for i, n := range nodes {
		b, ok := n.(*Block)
		if !ok {
			return fmt.Errorf("markdown: node %d is %T, not a markdown block", i, n)
		}
		blocks[i] = b
	}
	d.Blocks = blocks
	return nil
}

// Tag names the block the way HTML would: h1..h6, p, ul, ol, pre,
// blockquote, hr or html.
func (b *Block) Tag() string { return b.tag }

// Text is the block's plain text.
func (b *Block) Text() string { return b.text }

// Source returns the block's own lines.
func (b *Block) Source() []byte { return b.content }

// SetText rewrites a heading as an ATX heading at the same level. Any other
// block becomes a single paragraph line.
func (b *Block) SetText(s string) {
	b.text = s
	if b.level > 0 {
		b.content = []byte(strings.Repeat("#", b.level) + " " + s + "\n")
		return
	}
	b.tag = "p"
	b.content = []byte(s + "\n")
}

// Clone copies the block.
func (b *Block) Clone() outline.Node {
	c := *b
	c.content = bytes.Clone(b.content)
	c.tail = bytes.Clone(b.tail)
	return &c
}

func tagOf(n ast.Node) (string, int) {
	switch x := n.(type) {
	case *ast.Heading:
		return fmt.Sprintf("h%d", x.Level), x.Level
	case *ast.Paragraph, *ast.TextBlock:
		return "p", 0
	case *ast.List:
		if x.IsOrdered() {
			return "ol", 0
		}
		return "ul", 0
	case *ast.FencedCodeBlock, *ast.CodeBlock:
		return "pre", 0
	case *ast.Blockquote:
		return "blockquote", 0
	case *ast.ThematicBreak:
		return "hr", 0
	case *ast.HTMLBlock:
		return "html", 0
	}
	return strings.ToLower(n.Kind().String()), 0
}

func plainText(n ast.Node, src []byte) string {
	switch x := n.(type) {
	case *ast.FencedCodeBlock, *ast.CodeBlock, *ast.HTMLBlock:
		return strings.TrimRight(string(x.Lines().Value(src)), "\n")
	}
	var sb strings.Builder
	_ = ast.Walk(n, func(c ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		switch t := c.(type) {
		case *ast.Text:
			sb.Write(t.Segment.Value(src))
			if t.SoftLineBreak() || t.HardLineBreak() {
				sb.WriteByte(' ')
			}
		case *ast.String:
			sb.Write(t.Value)
		}
		return ast.WalkContinue, nil
	})
	return strings.TrimSpace(sb.String())
}
