package tui

import (
	"bytes"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/alecthomas/chroma"
	"github.com/alecthomas/chroma/formatters"
	"github.com/alecthomas/chroma/lexers"
	"github.com/alecthomas/chroma/styles"
	"github.com/charmbracelet/lipgloss"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/renderer/html"
)

var (
	reCodeBlock  = regexp.MustCompile(`(?s)<pre><code(?: class="language-([a-zA-Z0-9+-]+)")?>(.*?)</code></pre>`)
	reHeading    = regexp.MustCompile(`<h([1-6])[^>]*>(.*?)</h[1-6]>`)
	reStrong     = regexp.MustCompile(`<strong>(.*?)</strong>`)
	reEm         = regexp.MustCompile(`<em>(.*?)</em>`)
	reLink       = regexp.MustCompile(`<a href="([^"]*)"[^>]*>(.*?)</a>`)
	reInlineCode = regexp.MustCompile(`<code>([^<]*)</code>`)
	reBlockquote = regexp.MustCompile(`(?s)<blockquote>(.*?)</blockquote>`)
	reList       = regexp.MustCompile(`(?s)<(ul|ol)>(.*?)</(?:ul|ol)>`)
	reItem       = regexp.MustCompile(`(?s)<li>(.*?)</li>`)
	reTag        = regexp.MustCompile(`<[^>]+>`)
	reBlankRuns  = regexp.MustCompile(`\n{3,}`)
)

// htmlEntities undoes the escaping goldmark applies on the way to HTML.
// A single-pass Replacer keeps literal sequences like &amp;lt; intact.
var htmlEntities = strings.NewReplacer(
	"&amp;", "&",
	"&lt;", "<",
	"&gt;", ">",
	"&quot;", `"`,
	"&#34;", `"`,
	"&#39;", "'",
	"&#x27;", "'",
	"&nbsp;", " ",
	"&hellip;", "...",
)

// MarkdownRenderer turns markdown answers into styled terminal text, with
// fenced code blocks highlighted through chroma.
type MarkdownRenderer struct {
	md        goldmark.Markdown
	formatter chroma.Formatter
	style     *chroma.Style
}

func NewMarkdownRenderer() *MarkdownRenderer {
	return &MarkdownRenderer{
		md: goldmark.New(
			goldmark.WithExtensions(extension.GFM),
			goldmark.WithRendererOptions(
				html.WithHardWraps(),
				html.WithXHTML(),
			),
		),
		formatter: formatters.Get("terminal256"),
		style:     styles.Get("monokai"),
	}
}

// Render converts markdown to terminal output fitted to width. On any
// conversion error the raw content is returned unstyled.
func (r *MarkdownRenderer) Render(content string, width int) string {
	var buf bytes.Buffer
	if err := r.md.Convert([]byte(content), &buf); err != nil {
		return content
	}
	return r.terminalize(buf.String(), width)
}

func (r *MarkdownRenderer) terminalize(doc string, width int) string {
	if width < 24 {
		width = 24
	}

	// Code blocks come out first so later passes never touch their
	// contents; they are swapped back in at the end.
	var blocks []string
	out := reCodeBlock.ReplaceAllStringFunc(doc, func(m string) string {
		parts := reCodeBlock.FindStringSubmatch(m)
		code := htmlEntities.Replace(parts[2])
		block := codeBlockStyle.Width(width - 4).Render(r.highlight(code, parts[1]))
		blocks = append(blocks, block)
		return "\n\x00" + strconv.Itoa(len(blocks)-1) + "\x00\n"
	})

	out = reHeading.ReplaceAllStringFunc(out, func(m string) string {
		parts := reHeading.FindStringSubmatch(m)
		level, _ := strconv.Atoi(parts[1])
		return renderHeading(level, parts[2], width) + "\n"
	})

	out = reInlineCode.ReplaceAllStringFunc(out, func(m string) string {
		parts := reInlineCode.FindStringSubmatch(m)
		return inlineCodeStyle.Render(htmlEntities.Replace(parts[1]))
	})

	out = reStrong.ReplaceAllStringFunc(out, func(m string) string {
		return boldStyle.Render(reStrong.FindStringSubmatch(m)[1])
	})

	out = reEm.ReplaceAllStringFunc(out, func(m string) string {
		return italicStyle.Render(reEm.FindStringSubmatch(m)[1])
	})

	out = reLink.ReplaceAllStringFunc(out, func(m string) string {
		parts := reLink.FindStringSubmatch(m)
		if parts[2] == parts[1] {
			return linkStyle.Render(parts[1])
		}
		return fmt.Sprintf("%s %s", parts[2], linkStyle.Render("("+parts[1]+")"))
	})

	out = reBlockquote.ReplaceAllStringFunc(out, func(m string) string {
		parts := reBlockquote.FindStringSubmatch(m)
		quote := strings.TrimSpace(reTag.ReplaceAllString(parts[1], ""))
		return quoteStyle.Width(width - 4).Render(quote) + "\n"
	})

	out = reList.ReplaceAllStringFunc(out, func(m string) string {
		parts := reList.FindStringSubmatch(m)
		ordered := parts[1] == "ol"
		var b strings.Builder
		for i, item := range reItem.FindAllStringSubmatch(parts[2], -1) {
			marker := "•"
			if ordered {
				marker = strconv.Itoa(i+1) + "."
			}
			b.WriteString("  " + bulletStyle.Render(marker) + " ")
			b.WriteString(strings.TrimSpace(reTag.ReplaceAllString(item[1], "")))
			b.WriteString("\n")
		}
		return b.String()
	})

	out = strings.NewReplacer(
		"<p>", "",
		"</p>", "\n",
		"<br>", "\n",
		"<br/>", "\n",
		"<br />", "\n",
	).Replace(out)

	out = reTag.ReplaceAllString(out, "")
	out = htmlEntities.Replace(out)
	out = reBlankRuns.ReplaceAllString(out, "\n\n")

	for i, block := range blocks {
		out = strings.Replace(out, "\x00"+strconv.Itoa(i)+"\x00", block, 1)
	}

	return strings.TrimSpace(out)
}

func renderHeading(level int, text string, width int) string {
	switch level {
	case 1:
		return h1Style.Width(width - 4).Render(text)
	case 2:
		return h2Style.Render(text)
	default:
		return h3Style.Render(text)
	}
}

// highlight runs code through chroma. Unknown languages fall back to
// content analysis, then to the plain lexer.
func (r *MarkdownRenderer) highlight(code, lang string) string {
	lexer := lexers.Get(lang)
	if lexer == nil {
		lexer = lexers.Analyse(code)
	}
	if lexer == nil {
		lexer = lexers.Fallback
	}

	it, err := chroma.Coalesce(lexer).Tokenise(nil, code)
	if err != nil {
		return code
	}

	var buf bytes.Buffer
	if err := r.formatter.Format(&buf, r.style, it); err != nil {
		return code
	}
	return strings.TrimRight(buf.String(), "\n")
}

var (
	h1Style = lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color(colorAccent)).
		BorderStyle(lipgloss.NormalBorder()).
		BorderBottom(true).
		BorderForeground(lipgloss.Color(colorBorder))

	h2Style = lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color(colorAnswer))

	h3Style = lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color(colorLink))

	boldStyle = lipgloss.NewStyle().
			Bold(true)

	italicStyle = lipgloss.NewStyle().
			Italic(true)

	linkStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color(colorLink)).
			Underline(true)

	inlineCodeStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color(colorWarn)).
			Background(lipgloss.Color(colorSurface)).
			Padding(0, 1)

	codeBlockStyle = lipgloss.NewStyle().
			Background(lipgloss.Color(colorSurface)).
			Padding(1, 2).
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color(colorBorder))

	quoteStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color(colorFgMuted)).
			BorderStyle(lipgloss.NormalBorder()).
			BorderLeft(true).
			BorderForeground(lipgloss.Color(colorAccent)).
			PaddingLeft(1)

	bulletStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color(colorAnswer))
)
