package parser

import (
	"fmt"
	"io"
	"strings"

	"github.com/dgallion1/docsection/internal/doctree"
	"golang.org/x/net/html"
)

// HTMLParser handles HTML files. Existing sectioning elements are flattened
// so the document's structure comes from its headings alone.
type HTMLParser struct{}

func (p *HTMLParser) Parse(r io.Reader, filename string) (*doctree.DocTree, error) {
	doc, err := html.Parse(r)
	if err != nil {
		return nil, fmt.Errorf("parse html: %w", err)
	}

	tree := &doctree.DocTree{Title: titleFromFilename(filename)}

	// Extract title from <title> tag if present.
	if title := findTitle(doc); title != "" {
		tree.Title = title
	}

	// Find <body> or use whole document.
	body := findBody(doc)
	if body == nil {
		body = doc
	}
	tree.Root = doctree.NewRoot(htmlBlocks(body)...)
	return tree, nil
}

// htmlBlocks converts the children of n into block nodes.
func htmlBlocks(n *html.Node) []*doctree.Node {
	var out []*doctree.Node
	var loose []*doctree.Node // inline content not yet inside a block

	flush := func() {
		if len(loose) > 0 && strings.TrimSpace(nodesText(loose)) != "" {
			out = append(out, &doctree.Node{Type: doctree.KindParagraph, Children: trimInlines(loose)})
		}
		loose = nil
	}

	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == html.ElementNode && isBlockElement(c.Data) {
			flush()
			out = append(out, htmlBlock(c)...)
			continue
		}
		loose = append(loose, htmlInlines(c)...)
	}
	flush()
	return out
}

func htmlBlock(n *html.Node) []*doctree.Node {
	if level := headingLevel(n.Data); level > 0 {
		return []*doctree.Node{{
			Type:     doctree.KindHeading,
			Depth:    level,
			Children: trimInlines(htmlChildInlines(n)),
		}}
	}

	switch n.Data {
	case "script", "style", "nav", "footer", "header", "template", "noscript":
		return nil
	case "p":
		inl := trimInlines(htmlChildInlines(n))
		if len(inl) == 0 {
			return nil
		}
		return []*doctree.Node{{Type: doctree.KindParagraph, Children: inl}}
	case "blockquote":
		return []*doctree.Node{{Type: doctree.KindBlockquote, Children: htmlBlocks(n)}}
	case "pre":
		code := &doctree.Node{Type: doctree.KindCode, Value: strings.TrimRight(textContentRaw(n), "\n")}
		if lang := codeLanguage(n); lang != "" {
			code.Data = map[string]any{"lang": lang}
		}
		return []*doctree.Node{code}
	case "ul", "ol":
		list := &doctree.Node{Type: doctree.KindList, Data: map[string]any{"ordered": n.Data == "ol"}}
		for li := n.FirstChild; li != nil; li = li.NextSibling {
			if li.Type == html.ElementNode && li.Data == "li" {
				list.Children = append(list.Children, &doctree.Node{Type: doctree.KindListItem, Children: htmlBlocks(li)})
			}
		}
		return []*doctree.Node{list}
	case "table":
		return []*doctree.Node{htmlTable(n)}
	case "hr":
		return []*doctree.Node{{Type: doctree.KindThematicBreak}}
	}

	// Containers (section, article, div, main, ...) are flattened.
	return htmlBlocks(n)
}

func htmlTable(n *html.Node) *doctree.Node {
	table := &doctree.Node{Type: doctree.KindTable}
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			if c.Type != html.ElementNode {
				continue
			}
			if c.Data != "tr" {
				walk(c) // thead, tbody, tfoot
				continue
			}
			row := &doctree.Node{Type: doctree.KindTableRow}
			for cell := c.FirstChild; cell != nil; cell = cell.NextSibling {
				if cell.Type != html.ElementNode || (cell.Data != "td" && cell.Data != "th") {
					continue
				}
				if cell.Data == "th" {
					row.Data = map[string]any{"header": true}
				}
				row.Children = append(row.Children, &doctree.Node{
					Type:     doctree.KindTableCell,
					Children: trimInlines(htmlChildInlines(cell)),
				})
			}
			table.Children = append(table.Children, row)
		}
	}
	walk(n)
	return table
}

func htmlChildInlines(n *html.Node) []*doctree.Node {
	var out []*doctree.Node
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		out = append(out, htmlInlines(c)...)
	}
	return out
}

// htmlInlines converts an inline HTML node.
func htmlInlines(n *html.Node) []*doctree.Node {
	switch n.Type {
	case html.TextNode:
		v := collapseSpace(n.Data)
		if v == "" {
			return nil
		}
		return []*doctree.Node{doctree.NewText(v)}
	case html.ElementNode:
	default:
		return nil
	}

	wrap := func(k doctree.Kind) []*doctree.Node {
		return []*doctree.Node{{Type: k, Children: htmlChildInlines(n)}}
	}
	switch n.Data {
	case "em", "i":
		return wrap(doctree.KindEmphasis)
	case "strong", "b":
		return wrap(doctree.KindStrong)
	case "del", "s", "strike":
		return wrap(doctree.KindDelete)
	case "code":
		return []*doctree.Node{{Type: doctree.KindInlineCode, Value: textContentRaw(n)}}
	case "br":
		return []*doctree.Node{{Type: doctree.KindBreak}}
	case "a":
		link := wrap(doctree.KindLink)
		link[0].Data = map[string]any{"url": attr(n, "href")}
		return link
	case "img":
		return []*doctree.Node{{Type: doctree.KindImage, Data: map[string]any{
			"url": attr(n, "src"),
			"alt": attr(n, "alt"),
		}}}
	case "script", "style":
		return nil
	}
	return htmlChildInlines(n)
}

func isBlockElement(tag string) bool {
	if headingLevel(tag) > 0 {
		return true
	}
	switch tag {
	case "p", "blockquote", "pre", "ul", "ol", "table", "hr",
		"div", "section", "article", "main", "aside", "figure", "dl", "form",
		"script", "style", "nav", "footer", "header", "template", "noscript":
		return true
	}
	return false
}

func headingLevel(tag string) int {
	switch tag {
	case "h1":
		return 1
	case "h2":
		return 2
	case "h3":
		return 3
	case "h4":
		return 4
	case "h5":
		return 5
	case "h6":
		return 6
	}
	return 0
}

func codeLanguage(pre *html.Node) string {
	for c := pre.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == html.ElementNode && c.Data == "code" {
			for _, cls := range strings.Fields(attr(c, "class")) {
				if lang, ok := strings.CutPrefix(cls, "language-"); ok {
					return lang
				}
			}
		}
	}
	return ""
}

func attr(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val
		}
	}
	return ""
}

// collapseSpace folds whitespace runs into single spaces, keeping one
// leading or trailing space if the original had any.
func collapseSpace(s string) string {
	fields := strings.Fields(s)
	if len(fields) == 0 {
		if s != "" {
			return " "
		}
		return ""
	}
	out := strings.Join(fields, " ")
	if strings.TrimLeft(s, " \t\n\r\f") != s {
		out = " " + out
	}
	if strings.TrimRight(s, " \t\n\r\f") != s {
		out += " "
	}
	return out
}

// trimInlines drops whitespace-only edges of an inline run.
func trimInlines(nodes []*doctree.Node) []*doctree.Node {
	for len(nodes) > 0 && nodes[0].Type == doctree.KindText && strings.TrimSpace(nodes[0].Value) == "" {
		nodes = nodes[1:]
	}
	for len(nodes) > 0 && nodes[len(nodes)-1].Type == doctree.KindText && strings.TrimSpace(nodes[len(nodes)-1].Value) == "" {
		nodes = nodes[:len(nodes)-1]
	}
	if len(nodes) == 0 {
		return nil
	}
	if first := nodes[0]; first.Type == doctree.KindText {
		first.Value = strings.TrimLeft(first.Value, " ")
	}
	if last := nodes[len(nodes)-1]; last.Type == doctree.KindText {
		last.Value = strings.TrimRight(last.Value, " ")
	}
	return nodes
}

func nodesText(nodes []*doctree.Node) string {
	var sb strings.Builder
	for _, n := range nodes {
		sb.WriteString(n.Text())
	}
	return sb.String()
}

func textContentRaw(n *html.Node) string {
	var buf strings.Builder
	var extract func(*html.Node)
	extract = func(n *html.Node) {
		if n.Type == html.TextNode {
			buf.WriteString(n.Data)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			extract(c)
		}
	}
	extract(n)
	return buf.String()
}

func findTitle(n *html.Node) string {
	if n.Type == html.ElementNode && n.Data == "title" {
		return strings.TrimSpace(textContentRaw(n))
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if t := findTitle(c); t != "" {
			return t
		}
	}
	return ""
}

func findBody(n *html.Node) *html.Node {
	if n.Type == html.ElementNode && n.Data == "body" {
		return n
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if b := findBody(c); b != nil {
			return b
		}
	}
	return nil
}
