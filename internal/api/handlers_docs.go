package api

import (
	"errors"
	"net/http"

	"github.com/dgallion1/docsection/internal/pathstore"
	"github.com/go-chi/chi/v5"
)

// publisher returns the pathstore client, writing a 503 when publishing is
// disabled.
func (s *Server) publisher(w http.ResponseWriter) *pathstore.Client {
	ps := s.orchestrator.PathstoreClient()
	if ps == nil {
		jsonError(w, "publishing is disabled", http.StatusServiceUnavailable)
	}
	return ps
}

// handleListDocuments lists the meta of every published document.
func (s *Server) handleListDocuments(w http.ResponseWriter, r *http.Request) {
	ps := s.publisher(w)
	if ps == nil {
		return
	}
	metas, err := ps.ListDocuments(r.Context(), 200)
	if err != nil {
		jsonError(w, "failed to list documents: "+err.Error(), http.StatusBadGateway)
		return
	}

	docs := make([]any, 0, len(metas))
	for _, m := range metas {
		docs = append(docs, m.Value)
	}
	writeJSON(w, http.StatusOK, map[string]any{"documents": docs})
}

// handleDeleteDocument removes a published document with its tree, chunks
// and hash index entry.
func (s *Server) handleDeleteDocument(w http.ResponseWriter, r *http.Request) {
	ps := s.publisher(w)
	if ps == nil {
		return
	}
	docID := chi.URLParam(r, "docID")
	if err := ps.DeleteDocument(r.Context(), docID); err != nil {
		if errors.Is(err, pathstore.ErrDocumentNotFound) {
			jsonError(w, "document not found", http.StatusNotFound)
			return
		}
		jsonError(w, "failed to delete document: "+err.Error(), http.StatusBadGateway)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"doc_id": docID, "deleted": true})
}
