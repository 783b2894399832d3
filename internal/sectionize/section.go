package sectionize

import "github.com/dgallion1/docsection/internal/doctree"

// findBoundary returns the first sibling after start that ends a section of
// the given depth: a heading no deeper than depth, a marker, or an existing
// section. A nil result means the section runs to the end of the list.
func findBoundary(parent, start *doctree.Node, depth int, markers kindSet) *doctree.Node {
	i := parent.IndexOf(start)
	if i < 0 {
		return nil
	}
	for _, n := range parent.Children[i+1:] {
		if isEnd(n, depth, markers) {
			return n
		}
	}
	return nil
}

// isEnd ignores headings without a usable depth (< 1).
func isEnd(n *doctree.Node, depth int, markers kindSet) bool {
	return (n.Type == doctree.KindHeading && n.Depth >= 1 && n.Depth <= depth) ||
		markers.has(n.Type) ||
		n.Type == doctree.KindSection
}

// materialize replaces parent's children from start up to (not including)
// boundary with a single section of the given depth and returns it. A nil
// boundary extends the section to the end of the list. Positions are looked
// up by identity against the current children.
func materialize(parent, start, boundary *doctree.Node, depth int) *doctree.Node {
	from := parent.IndexOf(start)
	if from < 0 {
		return nil
	}
	to := len(parent.Children)
	if boundary != nil {
		if j := parent.IndexOf(boundary); j > from {
			to = j
		}
	}

	between := make([]*doctree.Node, to-from)
	copy(between, parent.Children[from:to])
	section := doctree.NewSection(depth, between)

	children := make([]*doctree.Node, 0, len(parent.Children)-len(between)+1)
	children = append(children, parent.Children[:from]...)
	children = append(children, section)
	children = append(children, parent.Children[to:]...)
	parent.Children = children

	return section
}
