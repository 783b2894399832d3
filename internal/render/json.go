package render

import (
	"encoding/json"
	"io"

	"github.com/dgallion1/docsection/internal/doctree"
)

// JSON writes the tree as indented JSON.
func JSON(w io.Writer, tree *doctree.DocTree) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(tree)
}
