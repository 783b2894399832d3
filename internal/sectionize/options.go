package sectionize

import (
	"errors"
	"fmt"
	"strings"

	"github.com/dgallion1/docsection/internal/doctree"
)

var (
	// ErrInvalidOptions wraps every configuration error returned by Validate.
	ErrInvalidOptions = errors.New("invalid sectionize options")
	// ErrNilTree is returned when Transform is handed a nil root.
	ErrNilTree = errors.New("nil document tree")
)

// OrphanPolicy selects what happens to content that precedes the first
// heading at the root.
type OrphanPolicy string

const (
	OrphanNone  OrphanPolicy = "none"
	WrapOrphans OrphanPolicy = "wrap-orphans"
	WrapIntro   OrphanPolicy = "wrap-intro"
)

// ParseOrphanPolicy accepts the policy names used in config and flags.
// The empty string maps to OrphanNone.
func ParseOrphanPolicy(s string) (OrphanPolicy, error) {
	switch p := OrphanPolicy(strings.ToLower(strings.TrimSpace(s))); p {
	case "", OrphanNone:
		return OrphanNone, nil
	case WrapOrphans, WrapIntro:
		return p, nil
	default:
		return "", fmt.Errorf("%w: unknown orphan policy %q", ErrInvalidOptions, s)
	}
}

// Options controls a transform.
type Options struct {
	MaxHeadingDepth  int            // Deepest heading level that opens a section.
	ContentNodeTypes []doctree.Kind // Kinds wrap-orphans may start a section at.
	MarkerTypes      []doctree.Kind // Kinds that always end a section.
	OrphanPolicy     OrphanPolicy
}

// DefaultOptions returns the stock configuration.
func DefaultOptions() Options {
	return Options{
		MaxHeadingDepth: 6,
		ContentNodeTypes: []doctree.Kind{
			doctree.KindParagraph,
			doctree.KindCode,
			doctree.KindBlockquote,
		},
		MarkerTypes:  []doctree.Kind{doctree.KindExport},
		OrphanPolicy: OrphanNone,
	}
}

// Validate reports configuration errors. All errors wrap ErrInvalidOptions.
func (o Options) Validate() error {
	if o.MaxHeadingDepth < 1 {
		return fmt.Errorf("%w: max heading depth must be at least 1, got %d", ErrInvalidOptions, o.MaxHeadingDepth)
	}
	if _, err := ParseOrphanPolicy(string(o.OrphanPolicy)); err != nil {
		return err
	}
	for _, k := range o.ContentNodeTypes {
		switch k {
		case doctree.KindHeading, doctree.KindSection, doctree.KindRoot:
			return fmt.Errorf("%w: %q cannot be a content node type", ErrInvalidOptions, k)
		}
	}
	for _, k := range o.MarkerTypes {
		switch k {
		case doctree.KindHeading, doctree.KindSection:
			return fmt.Errorf("%w: %q cannot be a marker type", ErrInvalidOptions, k)
		}
	}
	return nil
}

// ParseKinds splits a comma separated list of kinds, dropping blanks.
func ParseKinds(s string) []doctree.Kind {
	var kinds []doctree.Kind
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			kinds = append(kinds, doctree.Kind(part))
		}
	}
	return kinds
}

type kindSet map[doctree.Kind]struct{}

func newKindSet(kinds []doctree.Kind) kindSet {
	s := make(kindSet, len(kinds))
	for _, k := range kinds {
		s[k] = struct{}{}
	}
	return s
}

func (s kindSet) has(k doctree.Kind) bool {
	_, ok := s[k]
	return ok
}
