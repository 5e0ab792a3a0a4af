package ui

import (
	"bytes"
	"strings"

	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/glamour/ansi"
	"github.com/yuin/goldmark"
	gast "github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"
)

// MarkdownRenderMargin is the left margin used for terminal markdown rendering.
const MarkdownRenderMargin = 2

var markdownCodeTheme = "monokai"

// ConfigureMarkdownCodeTheme sets the chroma theme for fenced code in task
// bodies. Blank keeps the current theme.
func ConfigureMarkdownCodeTheme(theme string) {
	if t := strings.TrimSpace(theme); t != "" {
		markdownCodeTheme = t
	}
}

// RenderMarkdown renders a task body for terminal display.
func RenderMarkdown(content string, width int) (string, error) {
	if width <= 0 {
		width = DefaultTermWidth
	}

	r, err := glamour.NewTermRenderer(
		glamour.WithStyles(markdownStyle()),
		glamour.WithWordWrap(width),
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

func markdownStyle() ansi.StyleConfig {
	muted := mdStringPtr("8")
	var accent *string
	if color, ok := AccentColor(); ok {
		accent = mdStringPtr(color)
	}

	return ansi.StyleConfig{
		Document: ansi.StyleBlock{
			StylePrimitive: ansi.StylePrimitive{
				BlockPrefix: "\n",
				BlockSuffix: "\n",
			},
			Margin: mdUintPtr(MarkdownRenderMargin),
		},
		BlockQuote: ansi.StyleBlock{
			StylePrimitive: ansi.StylePrimitive{Color: muted},
			Indent:         mdUintPtr(1),
			IndentToken:    mdStringPtr("│ "),
		},
		List: ansi.StyleList{LevelIndent: 2},
		Heading: ansi.StyleBlock{
			StylePrimitive: ansi.StylePrimitive{
				BlockSuffix: "\n",
				Color:       accent,
				Bold:        mdBoolPtr(true),
			},
		},
		H1:            ansi.StyleBlock{StylePrimitive: ansi.StylePrimitive{Prefix: "# "}},
		H2:            ansi.StyleBlock{StylePrimitive: ansi.StylePrimitive{Prefix: "## "}},
		H3:            ansi.StyleBlock{StylePrimitive: ansi.StylePrimitive{Prefix: "### "}},
		Strikethrough: ansi.StylePrimitive{CrossedOut: mdBoolPtr(true)},
		Emph:          ansi.StylePrimitive{Italic: mdBoolPtr(true)},
		Strong:        ansi.StylePrimitive{Bold: mdBoolPtr(true)},
		HorizontalRule: ansi.StylePrimitive{
			Color:  muted,
			Format: "\n--------\n",
		},
		Item:        ansi.StylePrimitive{BlockPrefix: "• "},
		Enumeration: ansi.StylePrimitive{BlockPrefix: ". "},
		Task: ansi.StyleTask{
			Ticked:   "[x] ",
			Unticked: "[ ] ",
		},
		Link:     ansi.StylePrimitive{Color: muted, Underline: mdBoolPtr(true)},
		LinkText: ansi.StylePrimitive{Color: muted, Bold: mdBoolPtr(true)},
		Code: ansi.StyleBlock{
			StylePrimitive: ansi.StylePrimitive{Prefix: "`", Suffix: "`"},
		},
		CodeBlock: ansi.StyleCodeBlock{
			Theme: markdownCodeTheme,
		},
	}
}

func mdBoolPtr(v bool) *bool { return &v }

func mdStringPtr(v string) *string { return &v }

func mdUintPtr(v uint) *uint { return &v }

// PlainPreview flattens markdown to a single line of plain text and cuts it
// to at most maxLen runes, for one-line task list previews.
func PlainPreview(markdown string, maxLen int) string {
	source := []byte(markdown)
	doc := goldmark.New().Parser().Parse(text.NewReader(source))

	var buf bytes.Buffer
	_ = gast.Walk(doc, func(n gast.Node, entering bool) (gast.WalkStatus, error) {
		if !entering {
			return gast.WalkContinue, nil
		}
		switch node := n.(type) {
		case *gast.Text:
			buf.Write(node.Segment.Value(source))
			if node.SoftLineBreak() || node.HardLineBreak() {
				buf.WriteByte(' ')
			}
		case *gast.String:
			buf.Write(node.Value)
		case *gast.CodeBlock, *gast.FencedCodeBlock:
			return gast.WalkSkipChildren, nil
		default:
			if n.Type() == gast.TypeBlock && buf.Len() > 0 {
				buf.WriteByte(' ')
			}
		}
		return gast.WalkContinue, nil
	})

	preview := strings.Join(strings.Fields(buf.String()), " ")
	return TruncateWithEllipsis(preview, maxLen)
}

// TruncateWithEllipsis truncates a string to maxLen runes, adding ellipsis
// if needed. It tries to break at word boundaries.
func TruncateWithEllipsis(s string, maxLen int) string {
	runes := []rune(s)
	if maxLen <= 0 || len(runes) <= maxLen {
		return s
	}
	if maxLen <= 3 {
		return string(runes[:maxLen])
	}

	truncated := string(runes[:maxLen-3])
	if lastSpace := strings.LastIndex(truncated, " "); lastSpace > len(truncated)/2 {
		truncated = truncated[:lastSpace]
	}
	return truncated + "..."
}
