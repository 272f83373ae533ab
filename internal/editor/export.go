package editor

import (
	"html"
	"strings"

	"github.com/goliatone/go-jumpgate/internal/richtext"
)

func viewHTML(v View, sanitizer *richtext.Sanitizer) string {
	var b strings.Builder
	switch v.Status {
	case StatusReady:
		b.WriteString("<h1>" + html.EscapeString(v.Title) + "</h1>")
		if v.Description != "" {
			b.WriteString("<p><em>" + html.EscapeString(v.Description) + "</em></p>")
		}
		if v.PreviewImage != nil {
			b.WriteString(`<p><img src="` + html.EscapeString(v.PreviewImage.URL) + `" alt="` + html.EscapeString(v.PreviewImage.Title) + `"/></p>`)
		}
		b.WriteString(v.BodyHTML)
		if v.PreviewURL != "" {
			b.WriteString(`<p><a href="` + html.EscapeString(v.PreviewURL) + `">` + html.EscapeString(v.PreviewURL) + "</a></p>")
		}
	case StatusUnavailable:
		b.WriteString("<h1>" + html.EscapeString(v.Heading) + "</h1>")
		b.WriteString("<p>" + html.EscapeString(v.Message) + "</p>")
	}
	return sanitizer.Sanitize(b.String())
}
