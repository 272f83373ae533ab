package richtext

import (
	"encoding/json"
	"strings"
	"testing"
)

type stubEmbeds struct {
	assets  map[string]string
	entries map[string]string
	asked   []string
}

func (s *stubEmbeds) EmbeddedAsset(id string) string {
	s.asked = append(s.asked, "asset:"+id)
	return s.assets[id]
}

func (s *stubEmbeds) EmbeddedEntry(id string) string {
	s.asked = append(s.asked, "entry:"+id)
	return s.entries[id]
}

func sampleDocument() *Node {
	return Document(
		Block(NodeHeading2, Text("Usage")),
		Block(NodeParagraph,
			Text("Use "),
			Text("sparingly", MarkBold, MarkItalic),
			Text(" & wisely."),
		),
		Embedded(NodeEmbeddedAssetBlock, LinkTypeAsset, "asset-1"),
		Block(NodeUnorderedList,
			Block(NodeListItem, Block(NodeParagraph, Text("one"))),
		),
		Embedded(NodeEmbeddedEntryBlock, LinkTypeEntry, "entry-1"),
		Embedded(NodeEmbeddedAssetBlock, LinkTypeAsset, "asset-1"),
		&Node{NodeType: NodeHR},
	)
}

func TestHTMLRendererRendersBlocksAndMarks(t *testing.T) {
	embeds := &stubEmbeds{
		assets:  map[string]string{"asset-1": "<figure>img</figure>"},
		entries: map[string]string{},
	}
	got := NewHTMLRenderer(embeds).Render(sampleDocument())

	want := "<h2>Usage</h2><p>Use <strong><em>sparingly</em></strong> &amp; wisely.</p><figure>img</figure><ul><li><p>one</p></li></ul><figure>img</figure><hr/>"
	if got != want {
		t.Fatalf("unexpected html\nwant: %s\ngot:  %s", want, got)
	}
	if len(embeds.asked) != 3 {
		t.Fatalf("expected 3 embed lookups, got %v", embeds.asked)
	}
}

func TestHTMLRendererHandlesNil(t *testing.T) {
	if got := NewHTMLRenderer(nil).Render(nil); got != "" {
		t.Fatalf("expected empty output, got %q", got)
	}
}

func TestHyperlinkEscapesURI(t *testing.T) {
	doc := Document(Block(NodeParagraph, &Node{
		NodeType: NodeHyperlink,
		Data:     Data{URI: `https://example.com/?a=1&b="2"`},
		Content:  []*Node{Text("docs")},
	}))
	got := NewHTMLRenderer(nil).Render(doc)
	if !strings.Contains(got, `href="https://example.com/?a=1&amp;b=&#34;2&#34;"`) {
		t.Fatalf("expected escaped href, got %s", got)
	}
}

func TestReferencesAreDistinctAndOrdered(t *testing.T) {
	refs := References(sampleDocument())
	if len(refs) != 2 {
		t.Fatalf("expected 2 references, got %v", refs)
	}
	if refs[0].Key() != "asset:asset-1" || refs[1].Key() != "entry:entry-1" {
		t.Fatalf("unexpected references %v", refs)
	}
}

func TestMarshalEmitsPlatformShape(t *testing.T) {
	data, err := json.Marshal(Document(Block(NodeParagraph, Text("hi"))))
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	want := `{"nodeType":"document","data":{},"content":[{"nodeType":"paragraph","data":{},"content":[{"nodeType":"text","value":"hi","marks":[],"data":{}}]}]}`
	if string(data) != want {
		t.Fatalf("unexpected json\nwant: %s\ngot:  %s", want, data)
	}

	parsed, err := Parse(data)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if PlainText(parsed) != "hi" {
		t.Fatalf("expected plain text hi, got %q", PlainText(parsed))
	}
}

func TestParseEmpty(t *testing.T) {
	doc, err := Parse(nil)
	if err != nil || doc != nil {
		t.Fatalf("expected nil document, got %v (err=%v)", doc, err)
	}
}

func TestSanitizerStripsScripts(t *testing.T) {
	out := NewSanitizer().Sanitize(`<p onclick="x()">ok</p><script>alert(1)</script><figure data-ref="a"><img src="https://img/a.png" alt="a"></figure>`)
	if strings.Contains(out, "<script") || strings.Contains(out, "onclick") {
		t.Fatalf("expected scripts removed, got %s", out)
	}
	if !strings.Contains(out, "<p>ok</p>") || !strings.Contains(out, "<figure") {
		t.Fatalf("expected safe markup kept, got %s", out)
	}
}

func TestMarkdownExporter(t *testing.T) {
	out, err := NewMarkdownExporter().Convert("<h1>Button</h1><p>Use <strong>primary</strong> buttons.</p>")
	if err != nil {
		t.Fatalf("convert: %v", err)
	}
	if !strings.Contains(out, "# Button") || !strings.Contains(out, "**primary**") {
		t.Fatalf("unexpected markdown %q", out)
	}
}
