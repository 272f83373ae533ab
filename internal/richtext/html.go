package richtext

import (
	"html"
	"strings"
)

// Embedder renders embedded references. Implementations return an empty
// string while a reference is unresolved or when it failed to resolve.
type Embedder interface {
	EmbeddedAsset(id string) string
	EmbeddedEntry(id string) string
}

// NoEmbeds renders every embed as nothing.
type NoEmbeds struct{}

func (NoEmbeds) EmbeddedAsset(string) string { return "" }
func (NoEmbeds) EmbeddedEntry(string) string { return "" }

// HTMLRenderer turns a document tree into HTML.
type HTMLRenderer struct {
	embeds Embedder
}

// NewHTMLRenderer returns a renderer delegating embeds to e.
func NewHTMLRenderer(e Embedder) *HTMLRenderer {
	if e == nil {
		e = NoEmbeds{}
	}
	return &HTMLRenderer{embeds: e}
}

// Render returns the HTML for doc. A nil document renders as "".
func (r *HTMLRenderer) Render(doc *Node) string {
	if doc == nil {
		return ""
	}
	var b strings.Builder
	r.render(&b, doc)
	return b.String()
}

var blockTags = map[string]string{
	NodeParagraph:       "p",
	NodeHeading1:        "h1",
	NodeHeading2:        "h2",
	NodeHeading3:        "h3",
	NodeHeading4:        "h4",
	NodeHeading5:        "h5",
	NodeHeading6:        "h6",
	NodeOrderedList:     "ol",
	NodeUnorderedList:   "ul",
	NodeListItem:        "li",
	NodeQuote:           "blockquote",
	NodeTable:           "table",
	NodeTableRow:        "tr",
	NodeTableCell:       "td",
	NodeTableHeaderCell: "th",
}

var markTags = []struct {
	mark string
	tag  string
}{
	{MarkCode, "code"},
	{MarkBold, "strong"},
	{MarkItalic, "em"},
	{MarkUnderline, "u"},
	{MarkSuperscript, "sup"},
	{MarkSubscript, "sub"},
}

func (r *HTMLRenderer) render(b *strings.Builder, node *Node) {
	switch node.NodeType {
	case NodeDocument:
		r.children(b, node)
	case NodeText:
		r.text(b, node)
	case NodeHR:
		b.WriteString("<hr/>")
	case NodeHyperlink:
		b.WriteString(`<a href="`)
		b.WriteString(html.EscapeString(node.Data.URI))
		b.WriteString(`">`)
		r.children(b, node)
		b.WriteString("</a>")
	case NodeEntryHyperlink, NodeAssetHyperlink:
		b.WriteString(`<span data-link-type="`)
		b.WriteString(html.EscapeString(node.NodeType))
		b.WriteString(`" data-target="`)
		b.WriteString(html.EscapeString(node.TargetID()))
		b.WriteString(`">`)
		r.children(b, node)
		b.WriteString("</span>")
	case NodeEmbeddedAssetBlock:
		b.WriteString(r.embeds.EmbeddedAsset(node.TargetID()))
	case NodeEmbeddedEntryBlock, NodeEmbeddedEntry:
		b.WriteString(r.embeds.EmbeddedEntry(node.TargetID()))
	default:
		tag, ok := blockTags[node.NodeType]
		if !ok {
			r.children(b, node)
			return
		}
		b.WriteString("<" + tag + ">")
		r.children(b, node)
		b.WriteString("</" + tag + ">")
	}
}

func (r *HTMLRenderer) children(b *strings.Builder, node *Node) {
	for _, child := range node.Content {
		if child != nil {
			r.render(b, child)
		}
	}
}

func (r *HTMLRenderer) text(b *strings.Builder, node *Node) {
	var closing []string
	for _, m := range markTags {
		if node.HasMark(m.mark) {
			b.WriteString("<" + m.tag + ">")
			closing = append(closing, "</"+m.tag+">")
		}
	}
	b.WriteString(strings.ReplaceAll(html.EscapeString(node.Value), "\n", "<br/>"))
	for i := len(closing) - 1; i >= 0; i-- {
		b.WriteString(closing[i])
	}
}
