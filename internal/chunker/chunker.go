// Package chunker splits sectioned document trees into sized text chunks.
// Every chunk carries the titles of the sections enclosing it.
package chunker

import (
	"strings"

	"github.com/dgallion1/docsection/internal/doctree"
)

// Config controls chunking behavior.
type Config struct {
	ChunkSize    int // Target chunk size in tokens.
	ChunkOverlap int // Overlap between consecutive chunks in tokens.
	MinChunk     int // Minimum chunk size to emit.
}

// DefaultConfig returns sensible defaults.
func DefaultConfig() Config {
	return Config{
		ChunkSize:    1500,
		ChunkOverlap: 200,
		MinChunk:     100,
	}
}

// ChunkTree walks a sectioned tree and produces structure-aware chunks.
// Content directly inside a section is chunked under that section's
// breadcrumb. Trees that were never sectioned chunk with an empty breadcrumb.
func ChunkTree(tree *doctree.DocTree, cfg Config) []doctree.Chunk {
	if cfg.ChunkSize <= 0 {
		cfg.ChunkSize = 1500
	}
	if cfg.ChunkOverlap <= 0 {
		cfg.ChunkOverlap = 200
	}
	if cfg.MinChunk <= 0 {
		cfg.MinChunk = 100
	}
	if tree == nil || tree.Root == nil {
		return nil
	}

	c := &collector{cfg: cfg}
	c.walk(tree.Root, nil)
	return c.chunks
}

type collector struct {
	cfg    Config
	chunks []doctree.Chunk
}

// run is a stretch of consecutive non-section content.
type run struct {
	parts     []string
	pageStart int
	pageEnd   int
}

func (r *run) add(n *doctree.Node) {
	text := strings.TrimSpace(blockText(n))
	if text == "" {
		return
	}
	r.parts = append(r.parts, text)
	if page := pageOf(n); page > 0 {
		if r.pageStart == 0 || page < r.pageStart {
			r.pageStart = page
		}
		if page > r.pageEnd {
			r.pageEnd = page
		}
	}
}

// walk visits a root or section node. Its leading heading, if any, names the
// breadcrumb level; nested sections recurse with the extended breadcrumb.
func (c *collector) walk(n *doctree.Node, breadcrumb []string) {
	children := n.Children
	bc := breadcrumb
	if n.IsSection() && len(children) > 0 && children[0].IsHeading() {
		bc = append(copyBreadcrumb(breadcrumb), strings.TrimSpace(children[0].Text()))
		children = children[1:]
	}

	var current run
	for _, child := range children {
		if child.IsSection() {
			c.flush(&current, bc)
			current = run{}
			c.walk(child, bc)
			continue
		}
		current.add(child)
	}
	c.flush(&current, bc)
}

func (c *collector) flush(r *run, breadcrumb []string) {
	if len(r.parts) == 0 {
		return
	}
	text := strings.Join(r.parts, "\n\n")

	parts := []string{text}
	if EstimateTokens(text) > c.cfg.ChunkSize {
		parts = splitText(text, c.cfg.ChunkSize, c.cfg.ChunkOverlap)
	}
	for _, part := range parts {
		if EstimateTokens(part) < c.cfg.MinChunk {
			continue
		}
		c.chunks = append(c.chunks, doctree.Chunk{
			Text:       part,
			Index:      len(c.chunks),
			Breadcrumb: copyBreadcrumb(breadcrumb),
			PageStart:  r.pageStart,
			PageEnd:    r.pageEnd,
		})
	}
}

// blockText flattens a block node to text. List items and table rows go on
// separate lines so sentence splitting keeps working.
func blockText(n *doctree.Node) string {
	switch n.Type {
	case doctree.KindList, doctree.KindTable:
		lines := make([]string, 0, len(n.Children))
		for _, c := range n.Children {
			lines = append(lines, strings.TrimSpace(rowText(c)))
		}
		return strings.Join(lines, "\n")
	case doctree.KindBlockquote:
		parts := make([]string, 0, len(n.Children))
		for _, c := range n.Children {
			parts = append(parts, blockText(c))
		}
		return strings.Join(parts, "\n\n")
	case doctree.KindImport, doctree.KindExport, doctree.KindThematicBreak, doctree.KindHTML:
		return ""
	}
	return n.Text()
}

func rowText(n *doctree.Node) string {
	if n.Type != doctree.KindTableRow {
		return n.Text()
	}
	cells := make([]string, 0, len(n.Children))
	for _, c := range n.Children {
		cells = append(cells, strings.TrimSpace(c.Text()))
	}
	return strings.Join(cells, " | ")
}

// pageOf reads the source page recorded by the PDF parser. Trees decoded
// from JSON carry it as float64.
func pageOf(n *doctree.Node) int {
	switch v := n.Data["page"].(type) {
	case int:
		return v
	case float64:
		return int(v)
	}
	return 0
}

// splitText breaks text into chunks of approximately targetTokens, with overlap.
func splitText(text string, targetTokens, overlapTokens int) []string {
	paragraphs := splitByParagraphs(text)

	var result []string
	var current strings.Builder
	currentTokens := 0

	for _, para := range paragraphs {
		paraTokens := EstimateTokens(para)

		// An oversized paragraph is split on sentences instead.
		if paraTokens > targetTokens {
			if currentTokens > 0 {
				result = append(result, current.String())
				current.Reset()
				currentTokens = 0
			}
			result = append(result, splitBySentences(para, targetTokens, overlapTokens)...)
			continue
		}

		if currentTokens+paraTokens > targetTokens && currentTokens > 0 {
			result = append(result, current.String())

			// Start next chunk with overlap from end of current.
			overlap := getOverlapText(current.String(), overlapTokens)
			current.Reset()
			currentTokens = 0
			if overlap != "" {
				current.WriteString(overlap)
				currentTokens = EstimateTokens(overlap)
			}
		}

		if current.Len() > 0 {
			current.WriteString("\n\n")
		}
		current.WriteString(para)
		currentTokens += paraTokens
	}

	if currentTokens > 0 {
		result = append(result, current.String())
	}

	return result
}

// splitByParagraphs splits on double-newlines.
func splitByParagraphs(text string) []string {
	var result []string
	for _, p := range strings.Split(text, "\n\n") {
		if p = strings.TrimSpace(p); p != "" {
			result = append(result, p)
		}
	}
	return result
}

// splitBySentences breaks a large paragraph into sentence-based chunks.
func splitBySentences(text string, targetTokens, overlapTokens int) []string {
	var result []string
	var current strings.Builder
	currentTokens := 0

	for _, sent := range splitSentences(text) {
		sentTokens := EstimateTokens(sent)

		if currentTokens+sentTokens > targetTokens && currentTokens > 0 {
			result = append(result, current.String())
			overlap := getOverlapText(current.String(), overlapTokens)
			current.Reset()
			currentTokens = 0
			if overlap != "" {
				current.WriteString(overlap)
				currentTokens = EstimateTokens(overlap)
			}
		}

		if current.Len() > 0 {
			current.WriteString(" ")
		}
		current.WriteString(sent)
		currentTokens += sentTokens
	}

	if currentTokens > 0 {
		result = append(result, current.String())
	}

	return result
}

// splitSentences does basic sentence splitting.
func splitSentences(text string) []string {
	var sentences []string
	var current strings.Builder

	for i, r := range text {
		current.WriteRune(r)
		if (r == '.' || r == '!' || r == '?') && i+1 < len(text) && text[i+1] == ' ' {
			sentences = append(sentences, strings.TrimSpace(current.String()))
			current.Reset()
		}
	}
	if current.Len() > 0 {
		sentences = append(sentences, strings.TrimSpace(current.String()))
	}

	return sentences
}

// getOverlapText extracts the last N tokens worth of text for overlap.
func getOverlapText(text string, targetTokens int) string {
	words := strings.Fields(text)
	targetWords := int(float64(targetTokens) / tokensPerWord)
	if targetWords <= 0 || len(words) <= targetWords {
		return ""
	}
	return strings.Join(words[len(words)-targetWords:], " ")
}

func copyBreadcrumb(bc []string) []string {
	if len(bc) == 0 {
		return nil
	}
	out := make([]string, len(bc))
	copy(out, bc)
	return out
}
