package parser

import (
	"bufio"
	"io"
	"strings"

	"github.com/dgallion1/docsection/internal/doctree"
)

// TextParser handles plain text files. Plain text has no headings, so the
// result is a flat run of paragraphs.
type TextParser struct{}

func (p *TextParser) Parse(r io.Reader, filename string) (*doctree.DocTree, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	root := doctree.NewRoot()
	var current strings.Builder
	flush := func() {
		if current.Len() > 0 {
			root.Children = append(root.Children, doctree.NewParagraph(current.String()))
			current.Reset()
		}
	}

	for scanner.Scan() {
		line := scanner.Text()
		if strings.TrimSpace(line) == "" {
			flush()
			continue
		}
		if current.Len() > 0 {
			current.WriteString("\n")
		}
		current.WriteString(line)
	}
	flush()

	if err := scanner.Err(); err != nil {
		return nil, err
	}

	return &doctree.DocTree{Title: titleFromFilename(filename), Root: root}, nil
}
