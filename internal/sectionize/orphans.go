package sectionize

import "github.com/dgallion1/docsection/internal/doctree"

// wrapOrphans wraps the run of root-level content that no heading claimed.
// The run starts at the first child whose kind is a content type and ends
// before the next section. Only the root's own children are considered.
func (s *Sectionizer) wrapOrphans(root *doctree.Node) *doctree.Node {
	var start *doctree.Node
	for _, n := range root.Children {
		if s.content.has(n.Type) {
			start = n
			break
		}
	}
	if start == nil {
		return nil
	}

	var end *doctree.Node
	for _, n := range root.Children[root.IndexOf(start)+1:] {
		if n.Type == doctree.KindSection {
			end = n
			break
		}
	}
	return materialize(root, start, end, 1)
}

// wrapIntro treats the leading content of the document as if it followed an
// implicit heading. At the root the synthetic depth is 1; when the document
// opens with a depth-1 section, the content inside it that precedes its
// first subsection is wrapped at depth 2 instead. A leading heading is left
// in place and only what follows it is wrapped.
func (s *Sectionizer) wrapIntro(root *doctree.Node) *doctree.Node {
	parent, depth := root, 1
	if len(parent.Children) == 0 {
		return nil
	}
	start := parent.Children[0]

	if start.Type == doctree.KindSection {
		if start.Depth != 1 || len(start.Children) == 0 {
			return nil
		}
		parent, depth = start, 2
		start = parent.Children[0]
		if start.Type == doctree.KindSection {
			return nil
		}
	}

	if start.Type == doctree.KindHeading {
		i := parent.IndexOf(start)
		if i+1 >= len(parent.Children) {
			return nil
		}
		start = parent.Children[i+1]
	}

	// Nothing orphaned: the heading is directly followed by a boundary
	// that already has its own handling.
	if start.Type == doctree.KindSection || s.markers.has(start.Type) {
		return nil
	}
	return s.sectionize(start, parent, depth)
}
