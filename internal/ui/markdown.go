package ui

import (
	"strings"

	"github.com/alecthomas/chroma/v2/styles"
	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/glamour/ansi"
)

// MarkdownRenderMargin is the left margin used for terminal markdown rendering.
const MarkdownRenderMargin = 2

const defaultCodeTheme = "monokai"

var markdownCodeTheme = defaultCodeTheme

// ConfigureMarkdownCodeTheme selects the chroma theme for code blocks.
// Unknown names fall back to the default theme.
func ConfigureMarkdownCodeTheme(name string) {
	name = strings.ToLower(strings.TrimSpace(name))
	for _, known := range styles.Names() {
		if strings.ToLower(known) == name {
			markdownCodeTheme = known
			return
		}
	}
	markdownCodeTheme = defaultCodeTheme
}

// RenderMarkdown renders markdown for terminal display, used to preview
// rolled-over journal pages.
func RenderMarkdown(content string, width int) (string, error) {
	if width <= 0 {
		width = DefaultTermWidth
	}

	r, err := glamour.NewTermRenderer(
		glamour.WithStyles(previewStyle()),
		glamour.WithWordWrap(width-MarkdownRenderMargin),
	)
	if err != nil {
		return "", err
	}

	rendered, err := r.Render(content)
	if err != nil {
		return "", err
	}

	// glamour adds trailing newlines; normalize to a single trailing newline.
	return strings.TrimRight(rendered, "\n") + "\n", nil
}

func previewStyle() ansi.StyleConfig {
	muted := strPtr("8")
	var accent *string
	if color, ok := AccentColor(); ok {
		accent = strPtr(color)
	}
	heading := func(prefix string) ansi.StyleBlock {
		return ansi.StyleBlock{StylePrimitive: ansi.StylePrimitive{Prefix: prefix}}
	}

	return ansi.StyleConfig{
		Document: ansi.StyleBlock{
			StylePrimitive: ansi.StylePrimitive{BlockPrefix: "\n", BlockSuffix: "\n"},
			Margin:         uintPtr(MarkdownRenderMargin),
		},
		BlockQuote: ansi.StyleBlock{
			StylePrimitive: ansi.StylePrimitive{Color: muted},
			Indent:         uintPtr(1),
			IndentToken:    strPtr("│ "),
		},
		List: ansi.StyleList{LevelIndent: 2},
		Heading: ansi.StyleBlock{
			StylePrimitive: ansi.StylePrimitive{
				BlockSuffix: "\n",
				Color:       accent,
				Bold:        boolPtr(true),
			},
		},
		H1: ansi.StyleBlock{
			StylePrimitive: ansi.StylePrimitive{Prefix: "# ", Underline: boolPtr(true)},
		},
		H2: ansi.StyleBlock{
			StylePrimitive: ansi.StylePrimitive{Prefix: "## ", Underline: boolPtr(true)},
		},
		H3:             heading("### "),
		H4:             heading("#### "),
		H5:             heading("##### "),
		H6:             heading("###### "),
		Strikethrough:  ansi.StylePrimitive{CrossedOut: boolPtr(true)},
		Emph:           ansi.StylePrimitive{Italic: boolPtr(true)},
		Strong:         ansi.StylePrimitive{Bold: boolPtr(true)},
		HorizontalRule: ansi.StylePrimitive{Color: muted, Format: "\n--------\n"},
		Item:           ansi.StylePrimitive{BlockPrefix: "• "},
		Enumeration:    ansi.StylePrimitive{BlockPrefix: ". "},
		Task:           ansi.StyleTask{Ticked: "[x] ", Unticked: "[ ] "},
		Link:           ansi.StylePrimitive{Color: muted, Underline: boolPtr(true)},
		LinkText:       ansi.StylePrimitive{Color: muted, Bold: boolPtr(true)},
		Code: ansi.StyleBlock{
			StylePrimitive: ansi.StylePrimitive{Prefix: "`", Suffix: "`", Color: strPtr("203")},
		},
		CodeBlock: ansi.StyleCodeBlock{
			StyleBlock: ansi.StyleBlock{StylePrimitive: ansi.StylePrimitive{Color: strPtr("244")}},
			Theme:      markdownCodeTheme,
		},
		Table: ansi.StyleTable{
			CenterSeparator: strPtr("│"),
			ColumnSeparator: strPtr("│"),
			RowSeparator:    strPtr("─"),
		},
	}
}

func boolPtr(v bool) *bool { return &v }

func strPtr(v string) *string { return &v }

func uintPtr(v uint) *uint { return &v }
