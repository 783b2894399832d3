package parser

import (
	"bytes"
	"io"
	"strings"

	"github.com/dgallion1/docsection/internal/doctree"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/extension"
	extast "github.com/yuin/goldmark/extension/ast"
	"github.com/yuin/goldmark/text"
)

// MarkdownParser handles Markdown files using goldmark. With ESM set,
// top-level paragraphs that start with an import or export statement become
// import/export nodes, as in MDX.
type MarkdownParser struct {
	ESM bool
}

func (p *MarkdownParser) Parse(r io.Reader, filename string) (*doctree.DocTree, error) {
	src, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}

	md := goldmark.New(goldmark.WithExtensions(extension.Table, extension.Strikethrough))
	doc := md.Parser().Parse(text.NewReader(src))

	root := doctree.NewRoot()
	for n := doc.FirstChild(); n != nil; n = n.NextSibling() {
		if p.ESM {
			if esm := esmNode(n, src); esm != nil {
				root.Children = append(root.Children, esm)
				continue
			}
		}
		root.Children = append(root.Children, convertMarkdown(n, src))
	}

	return &doctree.DocTree{Title: titleFromFilename(filename), Root: root}, nil
}

// convertMarkdown maps a goldmark node and its subtree onto doctree nodes.
func convertMarkdown(n ast.Node, src []byte) *doctree.Node {
	out := &doctree.Node{}

	switch node := n.(type) {
	case *ast.Heading:
		out.Type = doctree.KindHeading
		out.Depth = node.Level
	case *ast.Paragraph, *ast.TextBlock:
		out.Type = doctree.KindParagraph
	case *ast.Blockquote:
		out.Type = doctree.KindBlockquote
	case *ast.FencedCodeBlock:
		out.Type = doctree.KindCode
		out.Value = blockLines(n, src)
		if lang := node.Language(src); len(lang) > 0 {
			out.Data = map[string]any{"lang": string(lang)}
		}
		return out
	case *ast.CodeBlock:
		out.Type = doctree.KindCode
		out.Value = blockLines(n, src)
		return out
	case *ast.HTMLBlock:
		out.Type = doctree.KindHTML
		v := blockLines(n, src)
		if node.HasClosure() {
			v += string(node.ClosureLine.Value(src))
		}
		out.Value = strings.TrimRight(v, "\n")
		return out
	case *ast.List:
		out.Type = doctree.KindList
		out.Data = map[string]any{"ordered": node.IsOrdered()}
		if node.IsOrdered() {
			out.Data["start"] = node.Start
		}
	case *ast.ListItem:
		out.Type = doctree.KindListItem
	case *ast.ThematicBreak:
		out.Type = doctree.KindThematicBreak
		return out
	case *ast.Text:
		out.Type = doctree.KindText
		out.Value = string(node.Segment.Value(src))
		if node.SoftLineBreak() {
			out.Value += "\n"
		}
		return out
	case *ast.String:
		out.Type = doctree.KindText
		out.Value = string(node.Value)
		return out
	case *ast.Emphasis:
		out.Type = doctree.KindEmphasis
		if node.Level > 1 {
			out.Type = doctree.KindStrong
		}
	case *ast.CodeSpan:
		out.Type = doctree.KindInlineCode
		out.Value = inlineText(n, src)
		return out
	case *ast.Link:
		out.Type = doctree.KindLink
		out.Data = linkData(node.Destination, node.Title)
	case *ast.Image:
		out.Type = doctree.KindImage
		out.Data = linkData(node.Destination, node.Title)
		out.Data["alt"] = inlineText(n, src)
		return out
	case *ast.AutoLink:
		out.Type = doctree.KindLink
		out.Data = map[string]any{"url": string(node.URL(src))}
		out.Children = []*doctree.Node{doctree.NewText(string(node.Label(src)))}
		return out
	case *ast.RawHTML:
		out.Type = doctree.KindHTML
		var buf bytes.Buffer
		for i := 0; i < node.Segments.Len(); i++ {
			seg := node.Segments.At(i)
			buf.Write(seg.Value(src))
		}
		out.Value = buf.String()
		return out
	case *extast.Table:
		out.Type = doctree.KindTable
	case *extast.TableHeader:
		out.Type = doctree.KindTableRow
		out.Data = map[string]any{"header": true}
	case *extast.TableRow:
		out.Type = doctree.KindTableRow
	case *extast.TableCell:
		out.Type = doctree.KindTableCell
	case *extast.Strikethrough:
		out.Type = doctree.KindDelete
	default:
		out.Type = kindFromGoldmark(n.Kind())
	}

	for c := n.FirstChild(); c != nil; c = c.NextSibling() {
		out.Children = append(out.Children, convertMarkdown(c, src))
		if t, ok := c.(*ast.Text); ok && t.HardLineBreak() {
			out.Children = append(out.Children, &doctree.Node{Type: doctree.KindBreak})
		}
	}
	return out
}

// esmNode recognizes a top-level MDX import or export statement.
func esmNode(n ast.Node, src []byte) *doctree.Node {
	if _, ok := n.(*ast.Paragraph); !ok {
		return nil
	}
	raw := strings.TrimSpace(blockLines(n, src))
	switch {
	case strings.HasPrefix(raw, "import "):
		return &doctree.Node{Type: doctree.KindImport, Value: raw}
	case strings.HasPrefix(raw, "export "):
		return &doctree.Node{Type: doctree.KindExport, Value: raw}
	}
	return nil
}

// blockLines joins the raw source lines of a block node.
func blockLines(n ast.Node, src []byte) string {
	var buf bytes.Buffer
	lines := n.Lines()
	for i := 0; i < lines.Len(); i++ {
		line := lines.At(i)
		buf.Write(line.Value(src))
	}
	return buf.String()
}

// inlineText collects the text beneath an inline node.
func inlineText(n ast.Node, src []byte) string {
	var buf bytes.Buffer
	for c := n.FirstChild(); c != nil; c = c.NextSibling() {
		switch t := c.(type) {
		case *ast.Text:
			buf.Write(t.Segment.Value(src))
		case *ast.String:
			buf.Write(t.Value)
		default:
			buf.WriteString(inlineText(c, src))
		}
	}
	return buf.String()
}

func linkData(dest, title []byte) map[string]any {
	data := map[string]any{"url": string(dest)}
	if len(title) > 0 {
		data["title"] = string(title)
	}
	return data
}

// kindFromGoldmark lower-cases the first letter of a goldmark kind name,
// e.g. "FootnoteList" becomes "footnoteList".
func kindFromGoldmark(k ast.NodeKind) doctree.Kind {
	name := k.String()
	if name == "" {
		return "unknown"
	}
	return doctree.Kind(strings.ToLower(name[:1]) + name[1:])
}
