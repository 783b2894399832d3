package render

import (
	"fmt"
	"io"
	"strconv"

	"github.com/dgallion1/docsection/internal/doctree"
	"golang.org/x/net/html"
)

// HTML writes the root's children as an HTML fragment. Nodes carrying an
// element hint (sections) become that element with a data-depth attribute.
func HTML(w io.Writer, tree *doctree.DocTree) error {
	for _, c := range tree.Root.Children {
		n := htmlNode(c)
		if n == nil {
			continue
		}
		if err := html.Render(w, n); err != nil {
			return fmt.Errorf("render html: %w", err)
		}
		if _, err := io.WriteString(w, "\n"); err != nil {
			return err
		}
	}
	return nil
}

func htmlNode(n *doctree.Node) *html.Node {
	switch n.Type {
	case doctree.KindText:
		return &html.Node{Type: html.TextNode, Data: n.Value}
	case doctree.KindHTML:
		return &html.Node{Type: html.RawNode, Data: n.Value}
	case doctree.KindImport, doctree.KindExport:
		return &html.Node{Type: html.CommentNode, Data: " " + n.Value + " "}
	case doctree.KindCode:
		code := element("code")
		if lang, _ := n.Data["lang"].(string); lang != "" {
			setAttr(code, "class", "language-"+lang)
		}
		code.AppendChild(&html.Node{Type: html.TextNode, Data: n.Value})
		pre := element("pre")
		pre.AppendChild(code)
		return pre
	case doctree.KindInlineCode:
		code := element("code")
		code.AppendChild(&html.Node{Type: html.TextNode, Data: n.Value})
		return code
	}

	el := element(tagFor(n))
	if n.IsSection() {
		setAttr(el, "data-depth", strconv.Itoa(n.Depth))
	}
	switch n.Type {
	case doctree.KindLink:
		setAttr(el, "href", stringData(n, "url"))
		if title := stringData(n, "title"); title != "" {
			setAttr(el, "title", title)
		}
	case doctree.KindImage:
		setAttr(el, "src", stringData(n, "url"))
		setAttr(el, "alt", stringData(n, "alt"))
		return el
	case doctree.KindList:
		if start, ok := n.Data["start"].(int); ok && start > 1 {
			setAttr(el, "start", strconv.Itoa(start))
		}
	case doctree.KindTableRow:
		if n.Data["header"] == true {
			for _, cell := range n.Children {
				c := element("th")
				for _, inl := range cell.Children {
					appendHTML(c, inl)
				}
				el.AppendChild(c)
			}
			return el
		}
	}
	for _, c := range n.Children {
		appendHTML(el, c)
	}
	return el
}

func appendHTML(parent *html.Node, n *doctree.Node) {
	if c := htmlNode(n); c != nil {
		parent.AppendChild(c)
	}
}

// tagFor picks the element name for a node. An explicit hint wins.
func tagFor(n *doctree.Node) string {
	if hint := n.Hint(); hint != "" {
		return hint
	}
	switch n.Type {
	case doctree.KindHeading:
		return "h" + strconv.Itoa(min(max(n.Depth, 1), 6))
	case doctree.KindParagraph:
		return "p"
	case doctree.KindBlockquote:
		return "blockquote"
	case doctree.KindList:
		if n.Data["ordered"] == true {
			return "ol"
		}
		return "ul"
	case doctree.KindListItem:
		return "li"
	case doctree.KindThematicBreak:
		return "hr"
	case doctree.KindTable:
		return "table"
	case doctree.KindTableRow:
		return "tr"
	case doctree.KindTableCell:
		return "td"
	case doctree.KindEmphasis:
		return "em"
	case doctree.KindStrong:
		return "strong"
	case doctree.KindDelete:
		return "del"
	case doctree.KindLink:
		return "a"
	case doctree.KindImage:
		return "img"
	case doctree.KindBreak:
		return "br"
	}
	return "div"
}

func element(tag string) *html.Node {
	return &html.Node{Type: html.ElementNode, Data: tag}
}

func setAttr(n *html.Node, key, val string) {
	n.Attr = append(n.Attr, html.Attribute{Key: key, Val: val})
}

func stringData(n *doctree.Node, key string) string {
	s, _ := n.Data[key].(string)
	return s
}
