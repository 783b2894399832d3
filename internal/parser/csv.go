package parser

import (
	"encoding/csv"
	"fmt"
	"io"

	"github.com/dgallion1/docsection/internal/doctree"
)

// CSVParser handles CSV files. Rows are grouped into batches, each
// introduced by a depth-1 "Rows a-b" heading and held in a table whose first
// row repeats the header.
type CSVParser struct{}

const csvBatchSize = 20

func (p *CSVParser) Parse(r io.Reader, filename string) (*doctree.DocTree, error) {
	reader := csv.NewReader(r)
	reader.LazyQuotes = true
	reader.TrimLeadingSpace = true
	reader.FieldsPerRecord = -1

	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("parse csv: %w", err)
	}

	tree := &doctree.DocTree{Title: titleFromFilename(filename), Root: doctree.NewRoot()}
	if len(records) == 0 {
		return tree, nil
	}

	// First row is headers.
	headers := records[0]
	dataRows := records[1:]

	for i := 0; i < len(dataRows); i += csvBatchSize {
		end := min(i+csvBatchSize, len(dataRows))

		table := &doctree.Node{Type: doctree.KindTable}
		header := csvRow(headers)
		header.Data = map[string]any{"header": true}
		table.Children = append(table.Children, header)
		for _, row := range dataRows[i:end] {
			table.Children = append(table.Children, csvRow(row))
		}

		tree.Root.Children = append(tree.Root.Children,
			doctree.NewHeading(1, fmt.Sprintf("Rows %d-%d", i+2, end+1)), // 1-indexed, skip header
			table,
		)
	}

	return tree, nil
}

func csvRow(cells []string) *doctree.Node {
	row := &doctree.Node{Type: doctree.KindTableRow}
	for _, cell := range cells {
		row.Children = append(row.Children, &doctree.Node{
			Type:     doctree.KindTableCell,
			Children: []*doctree.Node{doctree.NewText(cell)},
		})
	}
	return row
}
