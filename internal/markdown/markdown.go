package markdown

import (
	"bytes"
	"fmt"
	stdhtml "html"

	"github.com/gomarkdown/markdown"
	"github.com/gomarkdown/markdown/html"
	"github.com/gomarkdown/markdown/parser"
)

func ToHTML(md []byte) string {
	opts := html.RendererOptions{
		Flags: html.CommonFlags | html.HrefTargetBlank,
	}
	renderer := html.NewRenderer(opts)
	ext := parser.CommonExtensions | parser.Attributes
	p := parser.NewWithExtensions(ext)
	doc := p.Parse(md)
	return string(markdown.Render(doc, renderer))
}

// Page renders md as a standalone HTML document.
func Page(title string, md []byte) string {
	var b bytes.Buffer
	b.WriteString("<!DOCTYPE html>\n<html>\n<head>\n<meta charset=\"utf-8\">\n")
	fmt.Fprintf(&b, "<title>%s</title>\n", stdhtml.EscapeString(title))
	b.WriteString("</head>\n<body>\n")
	b.WriteString(ToHTML(md))
	b.WriteString("</body>\n</html>\n")
	return b.String()
}

// ToPlainText drops markdown syntax, keeping the text and its paragraph breaks.
func ToPlainText(md []byte) string {
	htmlContent := ToHTML(md)
	return stdhtml.UnescapeString(StripHTMLTags(htmlContent))
}

func StripHTMLTags(htmlContent string) string {
	var result bytes.Buffer
	inTag := false

	for _, ch := range htmlContent {
		switch ch {
		case '<':
			inTag = true
		case '>':
			inTag = false
		default:
			if !inTag {
				result.WriteRune(ch)
			}
		}
	}

	return result.String()
}
