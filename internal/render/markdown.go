// Package render turns stored achievement text into presentation formats:
// Markdown descriptions into HTML and reports into XLSX workbooks.
package render

import (
	"bytes"
	"html"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
)

// GitHub flavoured Markdown. Raw HTML in the source is dropped and
// dangerous link schemes are not rendered.
var markdown = goldmark.New(
	goldmark.WithExtensions(
		extension.GFM,
	),
)

// Markdown renders src as HTML. If conversion fails the escaped source is
// returned inside a paragraph.
func Markdown(src string) string {
	if src == "" {
		return ""
	}
	var buf bytes.Buffer
	if err := markdown.Convert([]byte(src), &buf); err != nil {
		return "<p>" + html.EscapeString(src) + "</p>"
	}
	return buf.String()
}
