// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package mdpreview

import (
	"fmt"
	"io"
	"regexp"
	"strings"
	"sync"

	"github.com/alecthomas/chroma/v2/quick"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"
	"github.com/muesli/termenv"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/text"
)

// Options control rendering.
type Options struct {
	// Width is the terminal width to wrap at. Values under 20 are
	// raised to 20.
	Width int

	// Profile selects the color output. The zero value is
	// termenv.TrueColor; termenv.Ascii disables color and syntax
	// highlighting.
	Profile termenv.Profile

	// Theme defaults to DefaultTheme when zero.
	Theme Theme
}

// wrapBreakpoints are the characters ansi.Wrap may break a line after,
// in addition to spaces. "/" lets long store paths wrap.
const wrapBreakpoints = " ,.;-+|/"

var (
	markdownParserInstance goldmark.Markdown
	markdownParserOnce     sync.Once
)

func getMarkdownParser() goldmark.Markdown {
	markdownParserOnce.Do(func() {
		markdownParserInstance = goldmark.New(goldmark.WithExtensions(extension.GFM))
	})
	return markdownParserInstance
}

// emoji maps the shortcodes used in job summaries to their emoji.
var emoji = map[string]string{
	":boom:":                   "💥",
	":hourglass_flowing_sand:": "⏳",
	":white_check_mark:":       "✅",
	":x:":                      "❌",
	":warning:":                "⚠️",
}

var shortcodePattern = regexp.MustCompile(`:[a-z0-9_+-]+:`)

func replaceShortcodes(input string) string {
	return shortcodePattern.ReplaceAllStringFunc(input, func(code string) string {
		if replacement, ok := emoji[code]; ok {
			return replacement
		}
		return code
	})
}

// alertPattern matches the marker that opens a GitHub alert blockquote.
var alertPattern = regexp.MustCompile(`^\[!(NOTE|TIP|IMPORTANT|WARNING|CAUTION)\]\s*`)

// Render renders markdown as terminal text. Output has no trailing
// newline.
func Render(markdown string, options Options) string {
	if markdown == "" {
		return ""
	}
	if options.Width < 20 {
		options.Width = 20
	}
	if options.Theme == (Theme{}) {
		options.Theme = DefaultTheme
	}

	source := []byte(markdown)
	document := getMarkdownParser().Parser().Parse(text.NewReader(source))

	lipRenderer := lipgloss.NewRenderer(io.Discard, termenv.WithProfile(options.Profile))
	lipRenderer.SetColorProfile(options.Profile)

	renderer := &markdownRenderer{
		source:      source,
		theme:       options.Theme,
		width:       options.Width,
		highlight:   options.Profile != termenv.Ascii,
		lipRenderer: lipRenderer,
	}
	ast.Walk(document, renderer.walk)

	return strings.TrimRight(renderer.output.String(), "\n")
}

// markdownRenderer walks a goldmark AST and produces styled terminal
// text. Inline content collects in a buffer and is word-wrapped as a
// unit when its block closes.
type markdownRenderer struct {
	source    []byte
	theme     Theme
	width     int
	highlight bool

	output strings.Builder
	inline strings.Builder

	prefixStack     []prefixLevel
	linePrefix      string
	linePrefixWidth int

	// pendingBullet replaces linePrefix for the next emitted line.
	pendingBullet string

	boldCount   int
	italicCount int

	listStack []listState

	lipRenderer *lipgloss.Renderer

	trailingNewlines int
}

type prefixLevel struct {
	text  string
	width int
}

type listState struct {
	ordered bool
	counter int
	tight   bool
}

func (renderer *markdownRenderer) newStyle() lipgloss.Style {
	return renderer.lipRenderer.NewStyle()
}

// renderLines styles each line separately; lipgloss pads multi-line
// input to a common width otherwise.
func renderLines(style lipgloss.Style, content string) string {
	lines := strings.Split(content, "\n")
	for index, line := range lines {
		lines[index] = style.Render(line)
	}
	return strings.Join(lines, "\n")
}

func (renderer *markdownRenderer) currentWidth() int {
	width := renderer.width - renderer.linePrefixWidth
	if width < 10 {
		width = 10
	}
	return width
}

func (renderer *markdownRenderer) pushPrefix(prefixText string, visibleWidth int) {
	renderer.prefixStack = append(renderer.prefixStack, prefixLevel{text: prefixText, width: visibleWidth})
	renderer.linePrefix += prefixText
	renderer.linePrefixWidth += visibleWidth
}

func (renderer *markdownRenderer) popPrefix() {
	if len(renderer.prefixStack) == 0 {
		return
	}
	top := renderer.prefixStack[len(renderer.prefixStack)-1]
	renderer.prefixStack = renderer.prefixStack[:len(renderer.prefixStack)-1]
	renderer.linePrefix = renderer.linePrefix[:len(renderer.linePrefix)-len(top.text)]
	renderer.linePrefixWidth -= top.width
}

func (renderer *markdownRenderer) inTightList() bool {
	if len(renderer.listStack) == 0 {
		return false
	}
	return renderer.listStack[len(renderer.listStack)-1].tight
}

// writeOutput appends s, tracking trailing newlines for blank line
// management.
func (renderer *markdownRenderer) writeOutput(s string) {
	if s == "" {
		return
	}
	renderer.output.WriteString(s)

	trailing := len(s) - len(strings.TrimRight(s, "\n"))
	if trailing == len(s) {
		renderer.trailingNewlines += trailing
	} else {
		renderer.trailingNewlines = trailing
	}
}

func (renderer *markdownRenderer) ensureNewline() {
	if renderer.output.Len() > 0 && renderer.trailingNewlines < 1 {
		renderer.writeOutput("\n")
	}
}

func (renderer *markdownRenderer) ensureBlankLine() {
	if renderer.output.Len() == 0 {
		return
	}
	for renderer.trailingNewlines < 2 {
		renderer.writeOutput("\n")
	}
}

func (renderer *markdownRenderer) consumeLinePrefix() string {
	if renderer.pendingBullet != "" {
		bullet := renderer.pendingBullet
		renderer.pendingBullet = ""
		return bullet
	}
	return renderer.linePrefix
}

// applyPrefixes prepends the line prefix to each line of content, the
// pending bullet (if any) to the first.
func (renderer *markdownRenderer) applyPrefixes(content string) string {
	lines := strings.Split(content, "\n")
	for index, line := range lines {
		if index == 0 {
			lines[index] = renderer.consumeLinePrefix() + line
		} else {
			lines[index] = renderer.linePrefix + line
		}
	}
	return strings.Join(lines, "\n")
}

func (renderer *markdownRenderer) flushInline() string {
	content := renderer.inline.String()
	renderer.inline.Reset()
	if strings.TrimSpace(ansi.Strip(content)) == "" {
		return ""
	}
	return renderer.applyPrefixes(ansi.Wrap(content, renderer.currentWidth(), wrapBreakpoints))
}

func (renderer *markdownRenderer) styledText(content string) string {
	style := renderer.newStyle().Foreground(renderer.theme.Text)
	if renderer.boldCount > 0 {
		style = style.Bold(true)
	}
	if renderer.italicCount > 0 {
		style = style.Italic(true)
	}
	return style.Render(replaceShortcodes(content))
}

// renderInlineContent collects the inline content of node's children
// without disturbing the caller's inline buffer.
func (renderer *markdownRenderer) renderInlineContent(node ast.Node) string {
	saved := renderer.inline.String()
	renderer.inline.Reset()
	for child := node.FirstChild(); child != nil; child = child.NextSibling() {
		ast.Walk(child, renderer.walk)
	}
	result := renderer.inline.String()
	renderer.inline.Reset()
	renderer.inline.WriteString(saved)
	return result
}

func (renderer *markdownRenderer) highlightCode(code, language string) string {
	faint := renderer.newStyle().Foreground(renderer.theme.Faint)
	if language == "" || !renderer.highlight {
		return renderLines(faint, code)
	}
	var buffer strings.Builder
	if err := quick.Highlight(&buffer, code, language, "terminal256", "monokai"); err != nil {
		return renderLines(faint, code)
	}
	return buffer.String()
}

func (renderer *markdownRenderer) walk(node ast.Node, entering bool) (ast.WalkStatus, error) {
	switch node.Kind() {
	case ast.KindParagraph, ast.KindTextBlock:
		if entering {
			renderer.inline.Reset()
		} else {
			renderer.leaveParagraph(node)
		}

	case ast.KindHeading:
		if entering {
			renderer.inline.Reset()
		} else {
			renderer.leaveHeading(node.(*ast.Heading))
		}

	case ast.KindFencedCodeBlock:
		if entering {
			renderer.renderFencedCodeBlock(node.(*ast.FencedCodeBlock))
			return ast.WalkSkipChildren, nil
		}

	case ast.KindCodeBlock:
		if entering {
			renderer.renderCodeBlock(node.(*ast.CodeBlock))
			return ast.WalkSkipChildren, nil
		}

	case ast.KindBlockquote:
		if entering {
			renderer.ensureBlankLine()
			renderer.pushPrefix("│ ", 2)
		} else {
			renderer.popPrefix()
			renderer.ensureBlankLine()
		}

	case ast.KindList:
		if entering {
			list := node.(*ast.List)
			start := 0
			if list.IsOrdered() {
				start = list.Start
			}
			renderer.listStack = append(renderer.listStack, listState{ordered: list.IsOrdered(), counter: start, tight: list.IsTight})
		} else {
			renderer.listStack = renderer.listStack[:len(renderer.listStack)-1]
			if !renderer.inTightList() {
				renderer.ensureBlankLine()
			}
		}

	case ast.KindListItem:
		if entering {
			renderer.enterListItem()
		} else {
			renderer.popPrefix()
			if renderer.inTightList() {
				renderer.ensureNewline()
			} else {
				renderer.ensureBlankLine()
			}
		}

	case ast.KindThematicBreak:
		if entering {
			rule := renderLines(renderer.newStyle().Foreground(renderer.theme.Border), strings.Repeat("─", renderer.currentWidth()))
			renderer.ensureBlankLine()
			renderer.writeOutput(renderer.applyPrefixes(rule))
			renderer.ensureNewline()
			renderer.ensureBlankLine()
		}

	case ast.KindHTMLBlock:
		if entering {
			renderer.renderHTMLBlock(node.(*ast.HTMLBlock))
			return ast.WalkSkipChildren, nil
		}

	case ast.KindText:
		if entering {
			textNode := node.(*ast.Text)
			renderer.inline.WriteString(renderer.styledText(string(textNode.Segment.Value(renderer.source))))
			if textNode.SoftLineBreak() {
				renderer.inline.WriteString(" ")
			}
			if textNode.HardLineBreak() {
				renderer.inline.WriteString("\n")
			}
		}

	case ast.KindString:
		if entering {
			renderer.inline.WriteString(renderer.styledText(string(node.(*ast.String).Value)))
		}

	case ast.KindEmphasis:
		emphasis := node.(*ast.Emphasis)
		counter := &renderer.italicCount
		if emphasis.Level >= 2 {
			counter = &renderer.boldCount
		}
		if entering {
			*counter++
		} else {
			*counter--
		}

	case ast.KindCodeSpan:
		if entering {
			var code strings.Builder
			for child := node.FirstChild(); child != nil; child = child.NextSibling() {
				if textNode, ok := child.(*ast.Text); ok {
					code.Write(textNode.Segment.Value(renderer.source))
				}
			}
			renderer.inline.WriteString(renderer.newStyle().Foreground(renderer.theme.Faint).Render(code.String()))
			return ast.WalkSkipChildren, nil
		}

	case ast.KindLink:
		if entering {
			link := node.(*ast.Link)
			renderer.inline.WriteString(renderer.renderInlineContent(link))
			if destination := string(link.Destination); destination != "" {
				renderer.inline.WriteString(" " + renderer.newStyle().Foreground(renderer.theme.Faint).Render("("+destination+")"))
			}
			return ast.WalkSkipChildren, nil
		}

	case ast.KindAutoLink:
		if entering {
			url := string(node.(*ast.AutoLink).URL(renderer.source))
			renderer.inline.WriteString(renderer.newStyle().Foreground(renderer.theme.Faint).Render(url))
		}

	case ast.KindImage:
		// Images (the summary's logo) have no terminal rendering; the
		// alt text stands in when there is one.
		if entering {
			if alt := renderer.renderInlineContent(node); alt != "" {
				renderer.inline.WriteString(renderer.newStyle().Foreground(renderer.theme.Faint).Render("[" + ansi.Strip(alt) + "]"))
			}
			return ast.WalkSkipChildren, nil
		}

	case ast.KindRawHTML:
		if entering {
			rawHTML := node.(*ast.RawHTML)
			var html strings.Builder
			for index := 0; index < rawHTML.Segments.Len(); index++ {
				segment := rawHTML.Segments.At(index)
				html.Write(segment.Value(renderer.source))
			}
			if stripped := stripHTMLTags(html.String()); stripped != "" {
				renderer.inline.WriteString(renderer.styledText(stripped))
			}
		}
	}

	return ast.WalkContinue, nil
}

// leaveParagraph flushes a paragraph. A paragraph opening with a
// GitHub alert marker gets the alert label on its own line.
func (renderer *markdownRenderer) leaveParagraph(node ast.Node) {
	if _, inQuote := node.Parent().(*ast.Blockquote); inQuote && node.PreviousSibling() == nil {
		plain := ansi.Strip(renderer.inline.String())
		if match := alertPattern.FindStringSubmatch(plain); match != nil {
			if color, ok := renderer.theme.alertColor(match[1]); ok {
				renderer.inline.Reset()
				label := renderer.newStyle().Foreground(color).Bold(true).
					Render(strings.ToUpper(match[1][:1]) + strings.ToLower(match[1][1:]))
				renderer.writeOutput(renderer.applyPrefixes(label))
				renderer.ensureNewline()
				renderer.inline.WriteString(renderer.styledText(plain[len(match[0]):]))
			}
		}
	}

	if flushed := renderer.flushInline(); flushed != "" {
		renderer.writeOutput(flushed)
		renderer.ensureNewline()
		if !renderer.inTightList() {
			renderer.ensureBlankLine()
		}
	}
}

func (renderer *markdownRenderer) leaveHeading(heading *ast.Heading) {
	content := strings.TrimSpace(ansi.Strip(renderer.inline.String()))
	renderer.inline.Reset()
	if content == "" {
		return
	}

	style := renderer.newStyle().Bold(true)
	if heading.Level <= 2 {
		style = style.Foreground(renderer.theme.Heading)
	} else {
		style = style.Foreground(renderer.theme.Text)
	}

	wrapped := ansi.Wrap(style.Render(content), renderer.currentWidth(), wrapBreakpoints)
	renderer.ensureBlankLine()
	renderer.writeOutput(renderer.applyPrefixes(wrapped))
	renderer.ensureNewline()
	renderer.ensureBlankLine()
}

func (renderer *markdownRenderer) blockText(lines *text.Segments) string {
	var content strings.Builder
	for index := 0; index < lines.Len(); index++ {
		segment := lines.At(index)
		content.Write(segment.Value(renderer.source))
	}
	return content.String()
}

func (renderer *markdownRenderer) renderFencedCodeBlock(node *ast.FencedCodeBlock) {
	language := string(node.Language(renderer.source))
	highlighted := renderer.highlightCode(strings.TrimRight(renderer.blockText(node.Lines()), "\n"), language)
	renderer.writeCodeLines(highlighted)
}

// renderCodeBlock renders an indented code block, which is how build
// logs appear in the summary.
func (renderer *markdownRenderer) renderCodeBlock(node *ast.CodeBlock) {
	faint := renderer.newStyle().Foreground(renderer.theme.Faint)
	renderer.writeCodeLines(renderLines(faint, strings.TrimRight(renderer.blockText(node.Lines()), "\n")))
}

func (renderer *markdownRenderer) writeCodeLines(code string) {
	renderer.ensureBlankLine()
	for _, line := range strings.Split(strings.TrimRight(code, "\n"), "\n") {
		renderer.writeOutput(renderer.consumeLinePrefix() + "  " + line)
		renderer.ensureNewline()
	}
	renderer.ensureBlankLine()
}

func (renderer *markdownRenderer) enterListItem() {
	if len(renderer.listStack) == 0 {
		return
	}
	top := &renderer.listStack[len(renderer.listStack)-1]

	bullet := "• "
	bulletWidth := 2
	if top.ordered {
		bullet = fmt.Sprintf("%d. ", top.counter)
		bulletWidth = len(bullet)
		top.counter++
	}

	renderer.pendingBullet = renderer.linePrefix + bullet
	renderer.pushPrefix(strings.Repeat(" ", bulletWidth), bulletWidth)
}

// renderHTMLBlock keeps the text of an HTML block. <summary> lines of
// the summary's <details> blocks are the only HTML blocks with text.
func (renderer *markdownRenderer) renderHTMLBlock(node *ast.HTMLBlock) {
	stripped := strings.TrimSpace(stripHTMLTags(renderer.blockText(node.Lines())))
	if stripped == "" {
		return
	}
	style := renderer.newStyle().Foreground(renderer.theme.Text).Bold(true)
	renderer.ensureBlankLine()
	renderer.writeOutput(renderer.applyPrefixes(renderLines(style, replaceShortcodes(stripped))))
	renderer.ensureNewline()
	renderer.ensureBlankLine()
}

// stripHTMLTags removes HTML tags from a string, returning only the
// text content.
func stripHTMLTags(html string) string {
	var result strings.Builder
	inTag := false
	for _, character := range html {
		switch {
		case character == '<':
			inTag = true
		case character == '>':
			inTag = false
		case !inTag:
			result.WriteRune(character)
		}
	}
	return result.String()
}
