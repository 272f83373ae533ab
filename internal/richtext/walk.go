package richtext

// Visitor is called for every node in depth-first order. Returning false
// skips the node's children.
type Visitor func(node *Node, depth int) bool

// Walk traverses the tree rooted at node.
func Walk(node *Node, visit Visitor) {
	walk(node, 0, visit)
}

func walk(node *Node, depth int, visit Visitor) {
	if node == nil {
		return
	}
	if !visit(node, depth) {
		return
	}
	for _, child := range node.Content {
		walk(child, depth+1, visit)
	}
}

// ReferenceKind distinguishes embedded entries from embedded assets.
type ReferenceKind string

const (
	ReferenceEntry ReferenceKind = "entry"
	ReferenceAsset ReferenceKind = "asset"
)

// Reference is an embedded target discovered in a document.
type Reference struct {
	Kind ReferenceKind
	ID   string
}

// Key returns a stable identifier such as "asset:abc".
func (r Reference) Key() string {
	return string(r.Kind) + ":" + r.ID
}

// References lists the distinct embedded entries and assets in document
// order.
func References(doc *Node) []Reference {
	var out []Reference
	seen := map[string]struct{}{}
	Walk(doc, func(node *Node, _ int) bool {
		var kind ReferenceKind
		switch node.NodeType {
		case NodeEmbeddedAssetBlock:
			kind = ReferenceAsset
		case NodeEmbeddedEntryBlock, NodeEmbeddedEntry:
			kind = ReferenceEntry
		default:
			return true
		}
		id := node.TargetID()
		if id == "" {
			return true
		}
		ref := Reference{Kind: kind, ID: id}
		if _, ok := seen[ref.Key()]; !ok {
			seen[ref.Key()] = struct{}{}
			out = append(out, ref)
		}
		return true
	})
	return out
}

// PlainText concatenates the text values in the tree.
func PlainText(doc *Node) string {
	var out []byte
	Walk(doc, func(node *Node, _ int) bool {
		if node.NodeType == NodeText {
			out = append(out, node.Value...)
		}
		return true
	})
	return string(out)
}
