package render

import (
	"bytes"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/dgallion1/docsection/internal/doctree"
)

func sectionedTree() *doctree.DocTree {
	code := &doctree.Node{Type: doctree.KindCode, Value: "x < y", Data: map[string]any{"lang": "go"}}
	link := &doctree.Node{
		Type:     doctree.KindLink,
		Data:     map[string]any{"url": "https://example.com"},
		Children: []*doctree.Node{doctree.NewText("site")},
	}
	return &doctree.DocTree{
		Title: "Guide",
		Root: doctree.NewRoot(
			doctree.NewParagraph("Preface."),
			doctree.NewSection(1, []*doctree.Node{
				doctree.NewHeading(1, "Intro"),
				{Type: doctree.KindParagraph, Children: []*doctree.Node{doctree.NewText("See "), link}},
				doctree.NewSection(2, []*doctree.Node{
					doctree.NewHeading(2, "Setup"),
					code,
				}),
			}),
		),
	}
}

func TestHTML_SectionsBecomeElements(t *testing.T) {
	var buf bytes.Buffer
	if err := Render(&buf, sectionedTree(), FormatHTML); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	want := `<p>Preface.</p>
<section data-depth="1"><h1>Intro</h1><p>See <a href="https://example.com">site</a></p><section data-depth="2"><h2>Setup</h2><pre><code class="language-go">x &lt; y</code></pre></section></section>
`
	if got := buf.String(); got != want {
		t.Errorf("unexpected html\n got: %s\nwant: %s", got, want)
	}
}

func TestHTML_TableHeaderAndComments(t *testing.T) {
	header := &doctree.Node{Type: doctree.KindTableRow, Data: map[string]any{"header": true}, Children: []*doctree.Node{
		{Type: doctree.KindTableCell, Children: []*doctree.Node{doctree.NewText("a")}},
	}}
	row := &doctree.Node{Type: doctree.KindTableRow, Children: []*doctree.Node{
		{Type: doctree.KindTableCell, Children: []*doctree.Node{doctree.NewText("1")}},
	}}
	tree := &doctree.DocTree{Root: doctree.NewRoot(
		&doctree.Node{Type: doctree.KindExport, Value: "export const a = 1"},
		&doctree.Node{Type: doctree.KindTable, Children: []*doctree.Node{header, row}},
	)}

	var buf bytes.Buffer
	if err := HTML(&buf, tree); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := "<!-- export const a = 1 -->\n<table><tr><th>a</th></tr><tr><td>1</td></tr></table>\n"
	if got := buf.String(); got != want {
		t.Errorf("unexpected html\n got: %q\nwant: %q", got, want)
	}
}

func TestJSON_RoundTripsStructure(t *testing.T) {
	var buf bytes.Buffer
	if err := Render(&buf, sectionedTree(), FormatJSON); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	var decoded doctree.DocTree
	if err := json.Unmarshal(buf.Bytes(), &decoded); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if decoded.Title != "Guide" {
		t.Errorf("expected title Guide, got %q", decoded.Title)
	}
	sec := decoded.Root.Children[1]
	if !sec.IsSection() || sec.Depth != 1 || sec.Hint() != "section" {
		t.Errorf("expected depth-1 section with hint, got %+v", sec)
	}
	if !strings.Contains(buf.String(), `"hName": "section"`) {
		t.Error("expected rendering hint in json output")
	}
}

func TestOutline(t *testing.T) {
	var buf bytes.Buffer
	if err := Render(&buf, sectionedTree(), FormatOutline); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := "Guide\nparagraph Preface.\n§1 Intro\n  paragraph See site\n  §2 Setup\n    code x < y\n"
	if got := buf.String(); got != want {
		t.Errorf("unexpected outline\n got: %q\nwant: %q", got, want)
	}
}

func TestPreviewText_Truncates(t *testing.T) {
	n := doctree.NewParagraph(strings.Repeat("word ", 30))
	got := []rune(previewText(n))
	if len(got) != outlinePreview || got[len(got)-1] != '…' {
		t.Errorf("expected %d runes ending in ellipsis, got %q", outlinePreview, string(got))
	}
}

func TestParseFormat(t *testing.T) {
	tests := []struct {
		in   string
		want Format
		err  bool
	}{
		{"", FormatJSON, false},
		{"HTML", FormatHTML, false},
		{" outline ", FormatOutline, false},
		{"yaml", "", true},
	}
	for _, tt := range tests {
		got, err := ParseFormat(tt.in)
		if (err != nil) != tt.err {
			t.Errorf("ParseFormat(%q): unexpected error state %v", tt.in, err)
			continue
		}
		if err != nil && !errors.Is(err, ErrUnknownFormat) {
			t.Errorf("ParseFormat(%q): expected ErrUnknownFormat, got %v", tt.in, err)
		}
		if got != tt.want {
			t.Errorf("ParseFormat(%q): expected %q, got %q", tt.in, tt.want, got)
		}
	}
}

func TestRender_Errors(t *testing.T) {
	var buf bytes.Buffer
	if err := Render(&buf, nil, FormatJSON); err == nil {
		t.Error("expected error for nil tree")
	}
	if err := Render(&buf, sectionedTree(), Format("yaml")); !errors.Is(err, ErrUnknownFormat) {
		t.Errorf("expected ErrUnknownFormat, got %v", err)
	}
}
