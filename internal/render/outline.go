package render

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/dgallion1/docsection/internal/doctree"
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("160"))

	sectionStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("81")).
			Bold(true)

	headingStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("220"))

	dimStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("240"))
)

const outlinePreview = 48

// Outline writes an indented, styled summary of the tree: one line per
// section (with its heading title), stray heading and block node.
func Outline(w io.Writer, tree *doctree.DocTree) error {
	var sb strings.Builder
	if tree.Title != "" {
		sb.WriteString(titleStyle.Render(tree.Title))
		sb.WriteString("\n")
	}
	for _, c := range tree.Root.Children {
		outlineNode(&sb, c, 0)
	}
	_, err := io.WriteString(w, sb.String())
	return err
}

func outlineNode(sb *strings.Builder, n *doctree.Node, indent int) {
	pad := strings.Repeat("  ", indent)
	switch {
	case n.IsSection():
		children := n.Children
		label := fmt.Sprintf("§%d", n.Depth)
		if len(children) > 0 && children[0].IsHeading() {
			label += " " + children[0].Text()
			children = children[1:]
		}
		sb.WriteString(pad + sectionStyle.Render(label) + "\n")
		for _, c := range children {
			outlineNode(sb, c, indent+1)
		}
	case n.IsHeading():
		sb.WriteString(pad + headingStyle.Render(fmt.Sprintf("h%d %s", n.Depth, n.Text())) + "\n")
	default:
		line := string(n.Type)
		if preview := previewText(n); preview != "" {
			line += " " + dimStyle.Render(preview)
		}
		sb.WriteString(pad + line + "\n")
	}
}

func previewText(n *doctree.Node) string {
	text := strings.Join(strings.Fields(n.Text()), " ")
	if r := []rune(text); len(r) > outlinePreview {
		return string(r[:outlinePreview-1]) + "…"
	}
	return text
}
