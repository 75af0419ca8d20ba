// Package storage reads and writes Confluence storage-format page bodies.
//
// A body is an XHTML fragment with undeclared `ac:` and `ri:` prefixes, so
// it is parsed leniently inside a synthetic wrapper element and written
// back without it.
package storage

import (
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/beevik/etree"

	"github.com/aidanlsb/wikiroll/internal/outline"
)

const wrapperTag = "wroll-body"

// Body is a parsed storage-format fragment.
type Body struct {
	doc  *etree.Document
	root *etree.Element
}

func readSettings() etree.ReadSettings {
	return etree.ReadSettings{
		Permissive:    true,
		PreserveCData: true,
		Entity:        xml.HTMLEntity,
	}
}

// Parse reads a storage-format value.
func Parse(value string) (*Body, error) {
	wrapped := "<" + wrapperTag + ">" + value + "</" + wrapperTag + ">"
	doc := etree.NewDocument()
	doc.ReadSettings = readSettings()
	doc.WriteSettings = etree.WriteSettings{CanonicalText: true, CanonicalAttrVal: true}
	if err := doc.ReadFromString(wrapped); err != nil {
		return nil, syntaxError(value, wrapped, err)
	}
	root := doc.Root()
	if root == nil || root.Tag != wrapperTag {
		return nil, &SyntaxError{Msg: "fragment escapes its wrapper"}
	}
	return &Body{doc: doc, root: root}, nil
}

// String serializes the body without the wrapper element.
func (b *Body) String() string {
	s, err := b.doc.WriteToString()
	if err != nil {
		// In-memory writes only fail on a broken tree.
		panic(err)
	}
	open := "<" + wrapperTag + ">"
	if !strings.HasPrefix(s, open) {
		return ""
	}
	return strings.TrimSuffix(strings.TrimPrefix(s, open), "</"+wrapperTag+">")
}

// Root exposes the wrapper element for tree edits.
func (b *Body) Root() *etree.Element { return b.root }

// Lead returns character data that precedes the first element.
func (b *Body) Lead() string {
	var sb strings.Builder
	for _, t := range b.root.Child {
		if _, ok := t.(*etree.Element); ok {
			break
		}
		if cd, ok := t.(*etree.CharData); ok {
			sb.WriteString(cd.Data)
		}
	}
	return sb.String()
}

// Blocks returns the top-level elements. Tokens between elements, such as
// whitespace and comments, travel with the element they follow.
func (b *Body) Blocks() []*Block {
	var (
		blocks []*Block
		cur    *Block
	)
	for _, t := range b.root.Child {
		if el, ok := t.(*etree.Element); ok {
			cur = &Block{el: el}
			blocks = append(blocks, cur)
			continue
		}
		if cur != nil {
			cur.trailing = append(cur.trailing, t)
		}
	}
	return blocks
}

// Nodes returns Blocks as outline nodes.
func (b *Body) Nodes() []outline.Node {
	blocks := b.Blocks()
	out := make([]outline.Node, len(blocks))
	for i, bl := range blocks {
		out[i] = bl
	}
	return out
}

// SetBlocks replaces the top-level content, keeping the leading text.
func (b *Body) SetBlocks(blocks []*Block) {
	var lead []etree.Token
	for _, t := range b.root.Child {
		if _, ok := t.(*etree.Element); ok {
			break
		}
		lead = append(lead, t)
	}
	for len(b.root.Child) > 0 {
		b.root.RemoveChildAt(len(b.root.Child) - 1)
	}
	for _, t := range lead {
		b.root.AddChild(t)
	}
	for _, bl := range blocks {
		b.root.AddChild(bl.el)
		for _, t := range bl.trailing {
			b.root.AddChild(t)
		}
	}
}

// SetNodes is SetBlocks for outline nodes produced by Nodes.
func (b *Body) SetNodes(nodes []outline.Node) error {
	blocks := make([]*Block, len(nodes))
	for i, n := range nodes {
		bl, ok := n.(*Block)
		if !ok {
			return fmt.Errorf("storage: node %d is %T, not a storage block", i, n)
		}
		blocks[i] = bl
	}
	b.SetBlocks(blocks)
	return nil
}

// Block is one top-level element and the tokens that follow it.
type Block struct {
	el       *etree.Element
	trailing []etree.Token
}

// NewBlock wraps an element built elsewhere.
func NewBlock(el *etree.Element) *Block { return &Block{el: el} }

// Element returns the underlying element.
func (b *Block) Element() *etree.Element { return b.el }

// Tag is the element name, prefixed as written (`ac:layout`).
func (b *Block) Tag() string {
	if b.el.Space != "" {
		return b.el.Space + ":" + b.el.Tag
	}
	return b.el.Tag
}

// Text is the character data before the element's first child.
func (b *Block) Text() string { return b.el.Text() }

// SetText replaces that leading character data.
func (b *Block) SetText(s string) { b.el.SetText(s) }

// Clone deep-copies the element and its trailing tokens.
func (b *Block) Clone() outline.Node {
	c := &Block{el: b.el.Copy()}
	for _, t := range b.trailing {
		if dup := copyToken(t); dup != nil {
			c.trailing = append(c.trailing, dup)
		}
	}
	return c
}

func copyToken(t etree.Token) etree.Token {
	switch x := t.(type) {
	case *etree.Element:
		return x.Copy()
	case *etree.CharData:
		if x.IsCData() {
			return etree.NewCData(x.Data)
		}
		return etree.NewText(x.Data)
	case *etree.Comment:
		return etree.NewComment(x.Data)
	case *etree.Directive:
		return etree.NewDirective(x.Data)
	case *etree.ProcInst:
		return etree.NewProcInst(x.Target, x.Inst)
	}
	return nil
}

// SyntaxError locates a parse failure in the original value.
type SyntaxError struct {
	Line    int
	Column  int
	Msg     string
	Excerpt string
}

func (e *SyntaxError) Error() string {
	if e.Line == 0 {
		return "storage: " + e.Msg
	}
	return fmt.Sprintf("storage: line %d, column %d: %s\n\t%s", e.Line, e.Column, e.Msg, e.Excerpt)
}

// syntaxError rescans the wrapped input with encoding/xml, which exposes
// the decoder position that etree does not. Tag matching follows etree: raw
// tokens, prefixes compared as written.
func syntaxError(value, wrapped string, cause error) error {
	dec := xml.NewDecoder(strings.NewReader(wrapped))
	s := readSettings()
	dec.Strict = !s.Permissive
	dec.Entity = s.Entity

	fail := func(msg string) error {
		line, col := dec.InputPos()
		if line == 1 {
			col -= len(wrapperTag) + 2
		}
		return &SyntaxError{Line: line, Column: col, Msg: msg, Excerpt: excerpt(value, line)}
	}

	var open []xml.Name
	for {
		tok, err := dec.RawToken()
		if errors.Is(err, io.EOF) {
			if len(open) > 0 {
				return fail("unexpected end of input")
			}
			break
		}
		if err != nil {
			var se *xml.SyntaxError
			if errors.As(err, &se) {
				return fail(se.Msg)
			}
			return fail(err.Error())
		}
		switch t := tok.(type) {
		case xml.StartElement:
			open = append(open, t.Name)
		case xml.EndElement:
			if len(open) == 0 {
				return fail("unexpected end element </" + qname(t.Name) + ">")
			}
			want := open[len(open)-1]
			if t.Name == (xml.Name{Local: wrapperTag}) && want != t.Name {
				return fail("unclosed element <" + qname(want) + ">")
			}
			if want == (xml.Name{Local: wrapperTag}) && want != t.Name {
				return fail("unexpected end element </" + qname(t.Name) + ">")
			}
			if want != t.Name {
				return fail("element <" + qname(want) + "> closed by </" + qname(t.Name) + ">")
			}
			open = open[:len(open)-1]
		}
	}
	return &SyntaxError{Msg: cause.Error()}
}

func qname(n xml.Name) string {
	if n.Space == "" {
		return n.Local
	}
	return n.Space + ":" + n.Local
}

func excerpt(value string, line int) string {
	lines := strings.Split(value, "\n")
	if line < 1 || line > len(lines) {
		return ""
	}
	s := lines[line-1]
	if len(s) > 120 {
		s = s[:120] + "..."
	}
	return s
}
