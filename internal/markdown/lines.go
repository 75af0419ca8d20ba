package markdown

import (
	"bytes"
	"strings"

	"github.com/yuin/goldmark/ast"
)

// lineIndex maps byte offsets to 0-indexed lines.
type lineIndex struct {
	src    []byte
	starts []int
}

func newLineIndex(src []byte) lineIndex {
	starts := []int{0}
	for i, c := range src {
		if c == '\n' && i+1 < len(src) {
			starts = append(starts, i+1)
		}
	}
	if len(src) == 0 {
		starts = nil
	}
	return lineIndex{src: src, starts: starts}
}

func (x lineIndex) count() int { return len(x.starts) }

// start is the offset of line i, or len(src) past the last line.
func (x lineIndex) start(i int) int {
	if i < 0 {
		return 0
	}
	if i >= len(x.starts) {
		return len(x.src)
	}
	return x.starts[i]
}

func (x lineIndex) line(i int) string {
	if i < 0 || i >= len(x.starts) {
		return ""
	}
	s := x.src[x.start(i):x.start(i+1)]
	return string(bytes.TrimRight(s, "\r\n"))
}

func (x lineIndex) blank(i int) bool { return strings.TrimSpace(x.line(i)) == "" }

func (x lineIndex) of(offset int) int {
	for i := len(x.starts) - 1; i >= 0; i-- {
		if x.starts[i] <= offset {
			return i
		}
	}
	return 0
}

func (x lineIndex) nextNonBlank(from int) int {
	for i := max(from, 0); i < x.count(); i++ {
		if !x.blank(i) {
			return i
		}
	}
	return -1
}

// frontmatterLines returns how many lines a leading `---` fenced block
// occupies, or 0 when the source has none or it is never closed.
func (x lineIndex) frontmatterLines() int {
	if x.count() == 0 || strings.TrimSpace(x.line(0)) != "---" {
		return 0
	}
	for i := 1; i < x.count(); i++ {
		if strings.TrimSpace(x.line(i)) == "---" {
			return i + 1
		}
	}
	return 0
}

func isFence(s string) bool {
	s = strings.TrimLeft(s, " ")
	return strings.HasPrefix(s, "```") || strings.HasPrefix(s, "~~~")
}

func isSetextUnderline(s string) bool {
	s = strings.TrimSpace(s)
	return s != "" && (strings.Trim(s, "=") == "" || strings.Trim(s, "-") == "")
}

// lineSpan finds the first and last source lines a block touches through
// the segments of it and its descendants.
func (x lineIndex) lineSpan(n ast.Node) (first, last int, ok bool) {
	lo, hi := -1, -1
	note := func(start, stop int) {
		if start < 0 {
			return
		}
		end := max(start, stop-1)
		if lo < 0 || start < lo {
			lo = start
		}
		if end > hi {
			hi = end
		}
	}
	_ = ast.Walk(n, func(c ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		if c.Type() == ast.TypeBlock {
			segs := c.Lines()
			for i := 0; i < segs.Len(); i++ {
				s := segs.At(i)
				note(s.Start, s.Stop)
			}
		}
		switch t := c.(type) {
		case *ast.Text:
			note(t.Segment.Start, t.Segment.Stop)
		case *ast.FencedCodeBlock:
			if t.Info != nil {
				note(t.Info.Segment.Start, t.Info.Segment.Stop)
			}
		case *ast.HTMLBlock:
			if t.HasClosure() {
				note(t.ClosureLine.Start, t.ClosureLine.Stop)
			}
		}
		return ast.WalkContinue, nil
	})
	if lo < 0 {
		return 0, 0, false
	}
	return x.of(lo), x.of(hi), true
}

// adjust widens a located span to the block's markup lines that carry no
// segments: code fences and setext underlines.
func (x lineIndex) adjust(n ast.Node, first, last int, located bool) (int, int) {
	switch t := n.(type) {
	case *ast.FencedCodeBlock:
		if located && t.Info == nil && t.Lines().Len() > 0 {
			first--
		}
		if last+1 < x.count() && isFence(x.line(last+1)) {
			last++
		}
	case *ast.Heading:
		if located && !strings.HasPrefix(strings.TrimSpace(x.line(first)), "#") &&
			last+1 < x.count() && isSetextUnderline(x.line(last+1)) {
			last++
		}
	}
	return first, last
}
