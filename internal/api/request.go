package api

import (
	"fmt"
	"io"
	"net/http"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/dgallion1/docsection/internal/chunker"
	"github.com/dgallion1/docsection/internal/parser"
	"github.com/dgallion1/docsection/internal/sectionize"
)

// readUpload parses the multipart form and returns the "file" part. On
// failure it has already written the error response.
func (s *Server) readUpload(w http.ResponseWriter, r *http.Request) (string, []byte, bool) {
	// Limit total request size.
	r.Body = http.MaxBytesReader(w, r.Body, s.cfg.MaxUploadBytes+1024*1024) // extra 1MB for form overhead

	if err := r.ParseMultipartForm(32 << 20); err != nil {
		jsonError(w, "invalid multipart form: "+err.Error(), http.StatusBadRequest)
		return "", nil, false
	}
	defer r.MultipartForm.RemoveAll()

	file, header, err := r.FormFile("file")
	if err != nil {
		jsonError(w, "file is required: "+err.Error(), http.StatusBadRequest)
		return "", nil, false
	}
	defer file.Close()

	filename := sanitizeFilename(header.Filename)
	if !parser.IsSupportedExtension(filename) {
		jsonError(w, fmt.Sprintf("unsupported file type: %s", filepath.Ext(filename)), http.StatusBadRequest)
		return "", nil, false
	}

	data, err := io.ReadAll(io.LimitReader(file, s.cfg.MaxUploadBytes+1))
	if err != nil {
		jsonError(w, "failed to read file", http.StatusInternalServerError)
		return "", nil, false
	}
	if int64(len(data)) > s.cfg.MaxUploadBytes {
		jsonError(w, fmt.Sprintf("file exceeds max size (%d bytes)", s.cfg.MaxUploadBytes), http.StatusRequestEntityTooLarge)
		return "", nil, false
	}
	return filename, data, true
}

// sectionizeOptions overlays the request's form and query overrides on the
// server defaults. A present but empty list parameter clears that list.
func (s *Server) sectionizeOptions(r *http.Request) (sectionize.Options, error) {
	opts := s.defaults
	if v := r.FormValue("max_depth"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return opts, fmt.Errorf("max_depth: %q is not a number", v)
		}
		opts.MaxHeadingDepth = n
	}
	if v := r.FormValue("orphans"); v != "" {
		p, err := sectionize.ParseOrphanPolicy(v)
		if err != nil {
			return opts, err
		}
		opts.OrphanPolicy = p
	}
	if v, ok := r.Form["content_types"]; ok {
		opts.ContentNodeTypes = sectionize.ParseKinds(v[0])
	}
	if v, ok := r.Form["markers"]; ok {
		opts.MarkerTypes = sectionize.ParseKinds(v[0])
	}
	return opts, opts.Validate()
}

func (s *Server) chunkConfig(r *http.Request) (chunker.Config, error) {
	cfg := chunker.DefaultConfig()
	cfg.ChunkSize = s.cfg.DefaultChunkSize
	cfg.ChunkOverlap = s.cfg.DefaultChunkOverlap
	if v := r.FormValue("chunk_size"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			return cfg, fmt.Errorf("chunk_size: %q is not a positive number", v)
		}
		cfg.ChunkSize = n
	}
	if v := r.FormValue("overlap"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 || n >= cfg.ChunkSize {
			return cfg, fmt.Errorf("overlap: %q must be between 0 and chunk_size", v)
		}
		cfg.ChunkOverlap = n
	}
	if v := r.FormValue("min_chunk"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			return cfg, fmt.Errorf("min_chunk: %q is not a positive number", v)
		}
		cfg.MinChunk = n
	}
	return cfg, nil
}

func sanitizeFilename(name string) string {
	// Strip path components, keep only the base name.
	name = filepath.Base(name)
	// Remove any path separators that might have survived.
	name = strings.ReplaceAll(name, "/", "_")
	name = strings.ReplaceAll(name, "\\", "_")
	name = strings.ReplaceAll(name, "..", "_")
	if name == "" || name == "." {
		name = "unnamed"
	}
	return name
}
