package doctree

import "strings"

// Kind is a node type tag. The set is open: parsers may emit any kind, but
// root, heading and section carry meaning for sectioning.
type Kind string

const (
	KindRoot    Kind = "root"
	KindHeading Kind = "heading"
	KindSection Kind = "section"

	// Content kinds emitted by the bundled parsers.
	KindParagraph     Kind = "paragraph"
	KindBlockquote    Kind = "blockquote"
	KindCode          Kind = "code"
	KindList          Kind = "list"
	KindListItem      Kind = "listItem"
	KindThematicBreak Kind = "thematicBreak"
	KindHTML          Kind = "html"
	KindTable         Kind = "table"
	KindTableRow      Kind = "tableRow"
	KindTableCell     Kind = "tableCell"

	// Inline kinds.
	KindText       Kind = "text"
	KindEmphasis   Kind = "emphasis"
	KindStrong     Kind = "strong"
	KindDelete     Kind = "delete"
	KindInlineCode Kind = "inlineCode"
	KindLink       Kind = "link"
	KindImage      Kind = "image"
	KindBreak      Kind = "break"

	// MDX module statements.
	KindImport Kind = "import"
	KindExport Kind = "export"
)

// HintKey is the Data key holding the element name a renderer should emit.
const HintKey = "hName"

// DocTree is the root of a parsed document.
type DocTree struct {
	Title string `json:"title"` // Document title (from metadata or filename)
	Root  *Node  `json:"root"`  // Root node, Type == KindRoot
}

// Node is a single syntax tree node. A node owns its children exclusively.
type Node struct {
	Type     Kind           `json:"type"`
	Depth    int            `json:"depth,omitempty"` // headings and sections only
	Value    string         `json:"value,omitempty"` // text payload of leaves
	Children []*Node        `json:"children,omitempty"`
	Data     map[string]any `json:"data,omitempty"`
}

// Chunk is a sized text segment with structural context, ready for indexing.
type Chunk struct {
	Text       string   `json:"text"`
	Index      int      `json:"index"`
	Breadcrumb []string `json:"breadcrumb,omitempty"` // Heading hierarchy, e.g. ["Financial Results", "Revenue", "Q4"]
	PageStart  int      `json:"page_start,omitempty"`
	PageEnd    int      `json:"page_end,omitempty"`
}

// NewRoot returns an empty root node with the given children.
func NewRoot(children ...*Node) *Node {
	return &Node{Type: KindRoot, Children: children}
}

// NewHeading returns a heading of the given depth holding a single text node.
func NewHeading(depth int, title string) *Node {
	return &Node{Type: KindHeading, Depth: depth, Children: []*Node{NewText(title)}}
}

// NewText returns a text leaf.
func NewText(value string) *Node {
	return &Node{Type: KindText, Value: value}
}

// NewParagraph returns a paragraph holding a single text node.
func NewParagraph(text string) *Node {
	return &Node{Type: KindParagraph, Children: []*Node{NewText(text)}}
}

// NewSection returns a section node wrapping children, marked with the
// section rendering hint.
func NewSection(depth int, children []*Node) *Node {
	return &Node{
		Type:     KindSection,
		Depth:    depth,
		Children: children,
		Data:     map[string]any{HintKey: "section"},
	}
}

func (n *Node) IsHeading() bool { return n != nil && n.Type == KindHeading }

func (n *Node) IsSection() bool { return n != nil && n.Type == KindSection }

// Hint returns the rendering hint stored in Data, or "".
func (n *Node) Hint() string {
	if n == nil || n.Data == nil {
		return ""
	}
	s, _ := n.Data[HintKey].(string)
	return s
}

// IndexOf returns the position of child among n's children, compared by
// identity, or -1.
func (n *Node) IndexOf(child *Node) int {
	for i, c := range n.Children {
		if c == child {
			return i
		}
	}
	return -1
}

// Text returns the concatenated text values of n and its descendants.
func (n *Node) Text() string {
	var sb strings.Builder
	n.appendText(&sb)
	return sb.String()
}

func (n *Node) appendText(sb *strings.Builder) {
	if n == nil {
		return
	}
	sb.WriteString(n.Value)
	for _, c := range n.Children {
		c.appendText(sb)
	}
}

// Clone returns a deep copy of n. Data maps are copied one level deep.
func (n *Node) Clone() *Node {
	if n == nil {
		return nil
	}
	out := &Node{Type: n.Type, Depth: n.Depth, Value: n.Value}
	if n.Data != nil {
		out.Data = make(map[string]any, len(n.Data))
		for k, v := range n.Data {
			out.Data[k] = v
		}
	}
	if n.Children != nil {
		out.Children = make([]*Node, len(n.Children))
		for i, c := range n.Children {
			out.Children[i] = c.Clone()
		}
	}
	return out
}
