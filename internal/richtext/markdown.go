package richtext

import (
	"fmt"
	"strings"

	"github.com/JohannesKaufmann/html-to-markdown/v2/converter"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/base"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/commonmark"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/table"
)

// MarkdownExporter converts rendered HTML into Markdown.
type MarkdownExporter struct {
	conv *converter.Converter
}

// NewMarkdownExporter builds an exporter with commonmark and table support.
func NewMarkdownExporter() *MarkdownExporter {
	return &MarkdownExporter{
		conv: converter.NewConverter(
			converter.WithPlugins(
				base.NewBasePlugin(),
				commonmark.NewCommonmarkPlugin(),
				table.NewTablePlugin(),
			),
		),
	}
}

// Convert returns Markdown for the HTML fragment.
func (e *MarkdownExporter) Convert(html string) (string, error) {
	out, err := e.conv.ConvertString(html)
	if err != nil {
		return "", fmt.Errorf("richtext: markdown export: %w", err)
	}
	return strings.TrimSpace(out), nil
}
