package sectionize

import (
	"errors"
	"testing"

	"github.com/dgallion1/docsection/internal/doctree"
)

func TestFindBoundary(t *testing.T) {
	start := h(2, "Start")
	deeper := h(3, "Deeper")
	same := h(2, "Same")
	marker := &doctree.Node{Type: doctree.KindExport}
	existing := sec(4, nodes(h(4, "Existing")))
	up := h(1, "Up")
	noDepth := &doctree.Node{Type: doctree.KindHeading}

	tests := []struct {
		name     string
		siblings []*doctree.Node
		want     *doctree.Node
	}{
		{"runs to end of list", nodes(start, p("a"), deeper), nil},
		{"heading of same depth", nodes(start, deeper, same), same},
		{"shallower heading", nodes(start, p("a"), up), up},
		{"marker", nodes(start, marker, same), marker},
		{"existing section", nodes(start, p("a"), existing, same), existing},
		{"heading without depth is skipped", nodes(start, noDepth, p("a"), same), same},
	}
	markers := newKindSet([]doctree.Kind{doctree.KindExport})
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			parent := doctree.NewRoot(tt.siblings...)
			if got := findBoundary(parent, start, 2, markers); got != tt.want {
				t.Errorf("expected boundary %v, got %v", tt.want, got)
			}
		})
	}
}

func TestFindBoundary_IgnoresContentBeforeStart(t *testing.T) {
	before := h(1, "Before")
	start := h(2, "Start")
	parent := doctree.NewRoot(before, start, p("x"))
	if got := findBoundary(parent, start, 2, nil); got != nil {
		t.Errorf("expected end of list, got %v", got)
	}
}

func TestMaterialize_SplicesRange(t *testing.T) {
	a, start, body, end := p("a"), h(1, "Start"), p("body"), h(1, "End")
	parent := doctree.NewRoot(a, start, body, end)

	section := materialize(parent, start, end, 1)

	if len(parent.Children) != 3 {
		t.Fatalf("expected 3 children after splice, got %d", len(parent.Children))
	}
	if parent.Children[0] != a || parent.Children[1] != section || parent.Children[2] != end {
		t.Fatalf("unexpected sibling order: %s", outline(parent))
	}
	if section.Type != doctree.KindSection || section.Depth != 1 || section.Hint() != "section" {
		t.Errorf("unexpected section node: %+v", section)
	}
	if len(section.Children) != 2 || section.Children[0] != start || section.Children[1] != body {
		t.Errorf("section does not hold the original nodes: %s", outline(section))
	}
}

func TestMaterialize_AdjacentBoundaryKeepsStart(t *testing.T) {
	start, next := h(1, "A"), h(1, "B")
	parent := doctree.NewRoot(start, next)

	section := materialize(parent, start, next, 1)
	if len(section.Children) != 1 || section.Children[0] != start {
		t.Errorf("expected section to hold only its heading, got %s", outline(section))
	}
}

func TestMaterialize_NilBoundaryRunsToEnd(t *testing.T) {
	start := h(1, "A")
	parent := doctree.NewRoot(p("lead"), start, p("x"), p("y"))

	section := materialize(parent, start, nil, 1)
	if len(parent.Children) != 2 {
		t.Fatalf("expected 2 children after splice, got %d", len(parent.Children))
	}
	if len(section.Children) != 3 {
		t.Errorf("expected section to absorb 3 nodes, got %d", len(section.Children))
	}
}

func TestMaterialize_StartNotInParent(t *testing.T) {
	parent := doctree.NewRoot(p("x"))
	if got := materialize(parent, h(1, "stray"), nil, 1); got != nil {
		t.Errorf("expected nil for a start node outside parent, got %v", got)
	}
	if len(parent.Children) != 1 {
		t.Errorf("parent was modified")
	}
}

func TestParseOrphanPolicy(t *testing.T) {
	tests := []struct {
		in      string
		want    OrphanPolicy
		wantErr bool
	}{
		{"", OrphanNone, false},
		{"none", OrphanNone, false},
		{"wrap-orphans", WrapOrphans, false},
		{" Wrap-Intro ", WrapIntro, false},
		{"wrap", "", true},
	}
	for _, tt := range tests {
		got, err := ParseOrphanPolicy(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParseOrphanPolicy(%q): unexpected error state: %v", tt.in, err)
			continue
		}
		if err != nil && !errors.Is(err, ErrInvalidOptions) {
			t.Errorf("ParseOrphanPolicy(%q): expected ErrInvalidOptions, got %v", tt.in, err)
		}
		if got != tt.want {
			t.Errorf("ParseOrphanPolicy(%q): expected %q, got %q", tt.in, tt.want, got)
		}
	}
}

func TestOptions_Validate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Options)
		wantErr bool
	}{
		{"defaults", nil, false},
		{"depth zero", func(o *Options) { o.MaxHeadingDepth = 0 }, true},
		{"negative depth", func(o *Options) { o.MaxHeadingDepth = -2 }, true},
		{"deep limit is allowed", func(o *Options) { o.MaxHeadingDepth = 12 }, false},
		{"unknown policy", func(o *Options) { o.OrphanPolicy = "sometimes" }, true},
		{"heading as content", func(o *Options) { o.ContentNodeTypes = []doctree.Kind{doctree.KindHeading} }, true},
		{"section as marker", func(o *Options) { o.MarkerTypes = []doctree.Kind{doctree.KindSection} }, true},
		{"no markers", func(o *Options) { o.MarkerTypes = nil }, false},
	}
	for _, tt := range tests {
		err := withOpts(tt.mutate).Validate()
		if (err != nil) != tt.wantErr {
			t.Errorf("%s: expected error=%v, got %v", tt.name, tt.wantErr, err)
		}
		if err != nil && !errors.Is(err, ErrInvalidOptions) {
			t.Errorf("%s: expected ErrInvalidOptions, got %v", tt.name, err)
		}
	}
}

func TestParseKinds(t *testing.T) {
	got := ParseKinds(" paragraph, code ,,blockquote")
	want := []doctree.Kind{doctree.KindParagraph, doctree.KindCode, doctree.KindBlockquote}
	if len(got) != len(want) {
		t.Fatalf("expected %v, got %v", want, got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("kind %d: expected %q, got %q", i, want[i], got[i])
		}
	}
}
