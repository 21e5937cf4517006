package reader

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/gomarkdown/markdown"
	"github.com/gomarkdown/markdown/html"
	"github.com/gomarkdown/markdown/parser"
	"github.com/microcosm-cc/bluemonday"
)

// blockElements end a line of extracted text.
const blockElements = "p, div, section, article, h1, h2, h3, h4, h5, h6, li, pre, blockquote, tr, dt, dd"

var sanitizer = bluemonday.UGCPolicy()

// MarkdownToHTML renders markdown with the common extensions.
func MarkdownToHTML(src []byte) []byte {
	p := parser.NewWithExtensions(parser.CommonExtensions | parser.AutoHeadingIDs)
	doc := p.Parse(src)
	renderer := html.NewRenderer(html.RendererOptions{Flags: html.CommonFlags})
	return markdown.Render(doc, renderer)
}

// HTMLToText returns the page title and the visible body text, one line per block
// element. Head content, scripts and styles are dropped and the body is sanitized
// before extraction.
func HTMLToText(src []byte) (title, text string, err error) {
	page, err := goquery.NewDocumentFromReader(bytes.NewReader(src))
	if err != nil {
		return "", "", fmt.Errorf("parse html: %w", err)
	}
	title = strings.TrimSpace(page.Find("title").First().Text())
	page.Find("head, script, style, noscript, template").Remove()
	body, err := page.Find("body").Html()
	if err != nil {
		return "", "", fmt.Errorf("render html body: %w", err)
	}

	clean, err := goquery.NewDocumentFromReader(strings.NewReader(sanitizer.Sanitize(body)))
	if err != nil {
		return "", "", fmt.Errorf("parse sanitized html: %w", err)
	}
	clean.Find(blockElements).AppendHtml("\n")
	clean.Find("br").AfterHtml("\n")
	if title == "" {
		title = strings.TrimSpace(clean.Find("h1").First().Text())
	}
	return title, normalize(clean.Text()), nil
}

// normalize collapses runs of whitespace inside lines and drops empty lines.
func normalize(s string) string {
	var lines []string
	for _, line := range strings.Split(s, "\n") {
		if fields := strings.Fields(line); len(fields) > 0 {
			lines = append(lines, strings.Join(fields, " "))
		}
	}
	return strings.Join(lines, "\n")
}
