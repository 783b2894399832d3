// Package render writes document trees as HTML, JSON or a terminal outline.
package render

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/dgallion1/docsection/internal/doctree"
)

// Format names an output format.
type Format string

const (
	FormatHTML    Format = "html"
	FormatJSON    Format = "json"
	FormatOutline Format = "outline"
)

var ErrUnknownFormat = errors.New("unknown render format")

// ParseFormat maps a user-supplied name to a Format. Empty selects JSON.
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(s))); f {
	case "":
		return FormatJSON, nil
	case FormatHTML, FormatJSON, FormatOutline:
		return f, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownFormat, s)
	}
}

// ContentType returns the MIME type of a rendered format.
func (f Format) ContentType() string {
	switch f {
	case FormatHTML:
		return "text/html; charset=utf-8"
	case FormatJSON:
		return "application/json"
	default:
		return "text/plain; charset=utf-8"
	}
}

// Render writes tree to w in the given format.
func Render(w io.Writer, tree *doctree.DocTree, format Format) error {
	if tree == nil || tree.Root == nil {
		return errors.New("render: nil tree")
	}
	switch format {
	case FormatHTML:
		return HTML(w, tree)
	case FormatJSON:
		return JSON(w, tree)
	case FormatOutline:
		return Outline(w, tree)
	default:
		return fmt.Errorf("%w: %q", ErrUnknownFormat, format)
	}
}
