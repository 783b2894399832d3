package api

import (
	"bytes"
	"errors"
	"net/http"
	"strconv"

	"github.com/dgallion1/docsection/internal/render"
	"github.com/dgallion1/docsection/internal/sectionize"
)

// handleSectionize parses, sectionizes and renders an upload in the request
// goroutine. Nothing is chunked or published.
func (s *Server) handleSectionize(w http.ResponseWriter, r *http.Request) {
	filename, data, ok := s.readUpload(w, r)
	if !ok {
		return
	}

	format, err := render.ParseFormat(r.FormValue("format"))
	if err != nil {
		jsonError(w, err.Error(), http.StatusBadRequest)
		return
	}
	opts, err := s.sectionizeOptions(r)
	if err != nil {
		jsonError(w, err.Error(), http.StatusBadRequest)
		return
	}

	tree, res, err := s.orchestrator.Sectionize(filename, r.FormValue("title"), data, opts)
	if err != nil {
		code := http.StatusUnprocessableEntity
		if errors.Is(err, sectionize.ErrInvalidOptions) {
			code = http.StatusBadRequest
		}
		jsonError(w, err.Error(), code)
		return
	}

	var buf bytes.Buffer
	if err := render.Render(&buf, tree, format); err != nil {
		s.log.Error("render failed", "filename", filename, "format", format, "error", err)
		jsonError(w, "render failed", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", format.ContentType())
	w.Header().Set("X-Sections", strconv.Itoa(res.Total()))
	w.Header().Set("X-Orphan-Sections", strconv.Itoa(res.Orphans))
	w.Write(buf.Bytes())
}
