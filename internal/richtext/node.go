// Package richtext holds the platform's rich text document tree and the
// walkers that render it.
package richtext

import (
	"encoding/json"
)

// Node types understood by the renderer.
const (
	NodeDocument           = "document"
	NodeParagraph          = "paragraph"
	NodeHeading1           = "heading-1"
	NodeHeading2           = "heading-2"
	NodeHeading3           = "heading-3"
	NodeHeading4           = "heading-4"
	NodeHeading5           = "heading-5"
	NodeHeading6           = "heading-6"
	NodeOrderedList        = "ordered-list"
	NodeUnorderedList      = "unordered-list"
	NodeListItem           = "list-item"
	NodeHR                 = "hr"
	NodeQuote              = "blockquote"
	NodeTable              = "table"
	NodeTableRow           = "table-row"
	NodeTableCell          = "table-cell"
	NodeTableHeaderCell    = "table-header-cell"
	NodeHyperlink          = "hyperlink"
	NodeEntryHyperlink     = "entry-hyperlink"
	NodeAssetHyperlink     = "asset-hyperlink"
	NodeEmbeddedEntryBlock = "embedded-entry-block"
	NodeEmbeddedEntry      = "embedded-entry-inline"
	NodeEmbeddedAssetBlock = "embedded-asset-block"
	NodeText               = "text"
)

// Mark types applied to text nodes.
const (
	MarkBold        = "bold"
	MarkItalic      = "italic"
	MarkUnderline   = "underline"
	MarkCode        = "code"
	MarkSuperscript = "superscript"
	MarkSubscript   = "subscript"
)

// Node is one element of a rich text tree. The document root is a Node with
// NodeType "document".
type Node struct {
	NodeType string  `json:"nodeType"`
	Value    string  `json:"value,omitempty"`
	Marks    []Mark  `json:"marks,omitempty"`
	Data     Data    `json:"data"`
	Content  []*Node `json:"content,omitempty"`
}

// Mark decorates a text node.
type Mark struct {
	Type string `json:"type"`
}

// Data carries node specific attributes: hyperlink URIs and embed targets.
type Data struct {
	URI    string `json:"uri,omitempty"`
	Target *Link  `json:"target,omitempty"`
}

// Link points at another entry or asset.
type Link struct {
	Sys LinkSys `json:"sys"`
}

// LinkSys identifies the link target.
type LinkSys struct {
	ID       string `json:"id"`
	Type     string `json:"type"`
	LinkType string `json:"linkType"`
}

// Link types.
const (
	LinkTypeEntry = "Entry"
	LinkTypeAsset = "Asset"
)

// NewLink builds a Link of the given type.
func NewLink(linkType, id string) *Link {
	return &Link{Sys: LinkSys{ID: id, Type: "Link", LinkType: linkType}}
}

// Document wraps blocks in a document root.
func Document(blocks ...*Node) *Node {
	return &Node{NodeType: NodeDocument, Content: blocks}
}

// Block builds a container node.
func Block(nodeType string, children ...*Node) *Node {
	return &Node{NodeType: nodeType, Content: children}
}

// Text builds a text node with optional marks.
func Text(value string, marks ...string) *Node {
	node := &Node{NodeType: NodeText, Value: value}
	for _, mark := range marks {
		node.Marks = append(node.Marks, Mark{Type: mark})
	}
	return node
}

// Embedded builds an embed node pointing at id.
func Embedded(nodeType, linkType, id string) *Node {
	return &Node{NodeType: nodeType, Data: Data{Target: NewLink(linkType, id)}}
}

// TargetID returns the id of the node's embed or link target.
func (n *Node) TargetID() string {
	if n == nil || n.Data.Target == nil {
		return ""
	}
	return n.Data.Target.Sys.ID
}

// HasMark reports whether a text node carries mark.
func (n *Node) HasMark(mark string) bool {
	for _, m := range n.Marks {
		if m.Type == mark {
			return true
		}
	}
	return false
}

// MarshalJSON emits the shape the platform validates: text nodes always carry
// marks and data, container nodes always carry data and content.
func (n *Node) MarshalJSON() ([]byte, error) {
	if n.NodeType == NodeText {
		marks := n.Marks
		if marks == nil {
			marks = []Mark{}
		}
		return json.Marshal(struct {
			NodeType string `json:"nodeType"`
			Value    string `json:"value"`
			Marks    []Mark `json:"marks"`
			Data     Data   `json:"data"`
		}{n.NodeType, n.Value, marks, n.Data})
	}
	content := n.Content
	if content == nil {
		content = []*Node{}
	}
	return json.Marshal(struct {
		NodeType string  `json:"nodeType"`
		Data     Data    `json:"data"`
		Content  []*Node `json:"content"`
	}{n.NodeType, n.Data, content})
}

// Parse decodes a rich text document. Empty or null input yields nil.
func Parse(raw []byte) (*Node, error) {
	if len(raw) == 0 || string(raw) == "null" {
		return nil, nil
	}
	var doc Node
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, err
	}
	return &doc, nil
}
