package markdown

import (
	"bytes"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/extension"
	east "github.com/yuin/goldmark/extension/ast"
	"github.com/yuin/goldmark/text"

	"github.com/goliatone/go-jumpgate/internal/richtext"
)

// Converter parses Markdown with goldmark and maps the syntax tree onto
// rich text nodes. A Converter is stateless and safe for concurrent use.
type Converter struct {
	engine goldmark.Markdown
}

// NewConverter builds a converter with the named goldmark extensions.
// Unknown names are ignored; no names selects tables and linkify.
func NewConverter(extensions ...string) *Converter {
	return &Converter{
		engine: goldmark.New(goldmark.WithExtensions(collectExtensions(extensions)...)),
	}
}

// Convert returns the rich text document for a Markdown body.
func (c *Converter) Convert(source []byte) *richtext.Node {
	root := c.engine.Parser().Parse(text.NewReader(source))
	b := builder{source: source}
	return richtext.Document(b.blocks(root)...)
}

var extensionRegistry = map[string]goldmark.Extender{
	"table":         extension.Table,
	"tables":        extension.Table,
	"strikethrough": extension.Strikethrough,
	"linkify":       extension.Linkify,
	"autolink":      extension.Linkify,
}

func collectExtensions(names []string) []goldmark.Extender {
	if len(names) == 0 {
		return []goldmark.Extender{extension.Table, extension.Linkify}
	}
	var extenders []goldmark.Extender
	seen := map[string]struct{}{}
	for _, name := range names {
		key := strings.ToLower(strings.TrimSpace(name))
		if _, ok := seen[key]; ok {
			continue
		}
		if ext, ok := extensionRegistry[key]; ok {
			extenders = append(extenders, ext)
			seen[key] = struct{}{}
		}
	}
	return extenders
}

type builder struct {
	source []byte
}

func (b builder) blocks(parent ast.Node) []*richtext.Node {
	var out []*richtext.Node
	for n := parent.FirstChild(); n != nil; n = n.NextSibling() {
		if node := b.block(n); node != nil {
			out = append(out, node)
		}
	}
	return out
}

func (b builder) block(n ast.Node) *richtext.Node {
	switch n := n.(type) {
	case *ast.Heading:
		level := min(max(n.Level, 1), 6)
		return richtext.Block("heading-"+string(rune('0'+level)), b.inlines(n, nil)...)
	case *ast.Paragraph, *ast.TextBlock:
		return paragraph(b.inlines(n, nil))
	case *ast.List:
		nodeType := richtext.NodeUnorderedList
		if n.IsOrdered() {
			nodeType = richtext.NodeOrderedList
		}
		return richtext.Block(nodeType, b.blocks(n)...)
	case *ast.ListItem:
		return richtext.Block(richtext.NodeListItem, b.nonEmpty(n)...)
	case *ast.Blockquote:
		return richtext.Block(richtext.NodeQuote, b.nonEmpty(n)...)
	case *ast.ThematicBreak:
		return &richtext.Node{NodeType: richtext.NodeHR}
	case *ast.FencedCodeBlock, *ast.CodeBlock:
		code := strings.TrimRight(string(b.lines(n)), "\n")
		return paragraph([]*richtext.Node{richtext.Text(code, richtext.MarkCode)})
	case *east.Table:
		return richtext.Block(richtext.NodeTable, b.blocks(n)...)
	case *east.TableHeader:
		return richtext.Block(richtext.NodeTableRow, b.cells(n, richtext.NodeTableHeaderCell)...)
	case *east.TableRow:
		return richtext.Block(richtext.NodeTableRow, b.cells(n, richtext.NodeTableCell)...)
	default:
		return nil
	}
}

// nonEmpty returns the child blocks of n, or an empty paragraph when it has
// none.
func (b builder) nonEmpty(n ast.Node) []*richtext.Node {
	children := b.blocks(n)
	if len(children) == 0 {
		children = []*richtext.Node{paragraph(nil)}
	}
	return children
}

func (b builder) cells(row ast.Node, nodeType string) []*richtext.Node {
	var out []*richtext.Node
	for c := row.FirstChild(); c != nil; c = c.NextSibling() {
		out = append(out, richtext.Block(nodeType, paragraph(b.inlines(c, nil))))
	}
	return out
}

func (b builder) inlines(parent ast.Node, marks []string) []*richtext.Node {
	var out []*richtext.Node
	for n := parent.FirstChild(); n != nil; n = n.NextSibling() {
		out = append(out, b.inline(n, marks)...)
	}
	return out
}

func (b builder) inline(n ast.Node, marks []string) []*richtext.Node {
	switch n := n.(type) {
	case *ast.Text:
		value := string(n.Segment.Value(b.source))
		switch {
		case n.HardLineBreak():
			value += "\n"
		case n.SoftLineBreak():
			value += " "
		}
		return []*richtext.Node{richtext.Text(value, marks...)}
	case *ast.String:
		return []*richtext.Node{richtext.Text(string(n.Value), marks...)}
	case *ast.CodeSpan:
		return []*richtext.Node{richtext.Text(b.plain(n), withMark(marks, richtext.MarkCode)...)}
	case *ast.Emphasis:
		mark := richtext.MarkItalic
		if n.Level >= 2 {
			mark = richtext.MarkBold
		}
		return b.inlines(n, withMark(marks, mark))
	case *ast.Link:
		return []*richtext.Node{hyperlink(string(n.Destination), b.inlines(n, marks))}
	case *ast.AutoLink:
		url := string(n.URL(b.source))
		return []*richtext.Node{hyperlink(url, []*richtext.Node{richtext.Text(string(n.Label(b.source)), marks...)})}
	case *ast.Image:
		return []*richtext.Node{hyperlink(string(n.Destination), []*richtext.Node{richtext.Text(b.plain(n), marks...)})}
	case *east.Strikethrough:
		return b.inlines(n, marks)
	default:
		return nil
	}
}

func (b builder) plain(n ast.Node) string {
	var buf bytes.Buffer
	for c := n.FirstChild(); c != nil; c = c.NextSibling() {
		switch c := c.(type) {
		case *ast.Text:
			buf.Write(c.Segment.Value(b.source))
		case *ast.String:
			buf.Write(c.Value)
		default:
			buf.WriteString(b.plain(c))
		}
	}
	return buf.String()
}

func (b builder) lines(n ast.Node) []byte {
	var buf bytes.Buffer
	lines := n.Lines()
	for i := 0; i < lines.Len(); i++ {
		segment := lines.At(i)
		buf.Write(segment.Value(b.source))
	}
	return buf.Bytes()
}

// paragraph always holds at least one text node.
func paragraph(children []*richtext.Node) *richtext.Node {
	if len(children) == 0 {
		children = []*richtext.Node{richtext.Text("")}
	}
	return richtext.Block(richtext.NodeParagraph, children...)
}

func hyperlink(uri string, children []*richtext.Node) *richtext.Node {
	if len(children) == 0 {
		children = []*richtext.Node{richtext.Text(uri)}
	}
	node := richtext.Block(richtext.NodeHyperlink, children...)
	node.Data.URI = uri
	return node
}

func withMark(marks []string, mark string) []string {
	out := make([]string, 0, len(marks)+1)
	out = append(out, marks...)
	return append(out, mark)
}
