package application

import (
	"bytes"
	"html"

	"github.com/yuin/goldmark"
	goldmarkHTML "github.com/yuin/goldmark/renderer/html"
)

// descriptionRenderer converts schedule descriptions written in Markdown to
// HTML. Raw HTML in the input is escaped because WithUnsafe is not set.
var descriptionRenderer = goldmark.New(
	goldmark.WithRendererOptions(
		goldmarkHTML.WithHardWraps(),
	),
)

func renderDescription(description *string) string {
	if description == nil || *description == "" {
		return ""
	}
	var buf bytes.Buffer
	if err := descriptionRenderer.Convert([]byte(*description), &buf); err != nil {
		return "<p>" + html.EscapeString(*description) + "</p>"
	}
	return buf.String()
}
