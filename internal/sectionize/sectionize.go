// Package sectionize groups headings and the content that follows them into
// nested section nodes.
//
// Depths are processed shallowest first, so by the time headings of depth
// d+1 are handled they already sit inside the section opened by their
// enclosing depth-d heading. Nesting falls out of the pass order; no stack
// is kept. The tree is mutated in place.
package sectionize

import (
	"github.com/dgallion1/docsection/internal/doctree"
)

// Sectionizer applies a validated Options value to document trees. It holds
// no per-tree state and may be reused, but a single tree must not be
// transformed concurrently.
type Sectionizer struct {
	opts    Options
	content kindSet
	markers kindSet
}

// Result summarizes what a transform created.
type Result struct {
	Sections map[int]int `json:"sections"` // sections created per heading depth
	Orphans  int         `json:"orphans"`  // sections created by the orphan pass
}

// Total returns the number of sections created.
func (r Result) Total() int {
	n := r.Orphans
	for _, c := range r.Sections {
		n += c
	}
	return n
}

// New validates opts and returns a Sectionizer.
func New(opts Options) (*Sectionizer, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	// Validate accepted it, so this only normalizes case and blanks.
	opts.OrphanPolicy, _ = ParseOrphanPolicy(string(opts.OrphanPolicy))
	return &Sectionizer{
		opts:    opts,
		content: newKindSet(opts.ContentNodeTypes),
		markers: newKindSet(opts.MarkerTypes),
	}, nil
}

// Options returns the configuration in use.
func (s *Sectionizer) Options() Options { return s.opts }

// Transform sectionizes the tree rooted at root in place.
func Transform(root *doctree.Node, opts Options) error {
	s, err := New(opts)
	if err != nil {
		return err
	}
	return s.Transform(root)
}

// Transform sectionizes the tree rooted at root in place.
func (s *Sectionizer) Transform(root *doctree.Node) error {
	_, err := s.Apply(root)
	return err
}

// Apply sectionizes the tree rooted at root in place and reports what it
// created.
func (s *Sectionizer) Apply(root *doctree.Node) (Result, error) {
	res := Result{Sections: make(map[int]int)}
	if root == nil {
		return res, ErrNilTree
	}

	for depth := 1; depth <= s.opts.MaxHeadingDepth; depth++ {
		for _, m := range collectHeadings(root, depth) {
			if s.sectionize(m.node, m.parent, depth) != nil {
				res.Sections[depth]++
			}
		}
	}

	var orphan *doctree.Node
	switch s.opts.OrphanPolicy {
	case WrapOrphans:
		orphan = s.wrapOrphans(root)
	case WrapIntro:
		orphan = s.wrapIntro(root)
	}
	if orphan != nil {
		res.Orphans++
	}
	return res, nil
}

type match struct {
	node   *doctree.Node
	parent *doctree.Node
}

// collectHeadings returns every heading of exactly depth in document order,
// paired with its parent. Sections from earlier passes are descended into.
func collectHeadings(root *doctree.Node, depth int) []match {
	var matches []match
	doctree.Walk(root, func(n *doctree.Node, ancestors []*doctree.Node) doctree.WalkStatus {
		if n.Type == doctree.KindHeading && n.Depth == depth && len(ancestors) > 0 {
			matches = append(matches, match{node: n, parent: ancestors[len(ancestors)-1]})
			// Heading content cannot hold sibling headings.
			return doctree.WalkSkipChildren
		}
		return doctree.WalkContinue
	})
	return matches
}

// sectionize wraps start and its following siblings, up to the next
// boundary, in a section of the given depth.
func (s *Sectionizer) sectionize(start, parent *doctree.Node, depth int) *doctree.Node {
	end := findBoundary(parent, start, depth, s.markers)
	return materialize(parent, start, end, depth)
}
