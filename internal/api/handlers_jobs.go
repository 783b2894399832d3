package api

import (
	"bytes"
	"errors"
	"fmt"
	"net/http"

	"github.com/dgallion1/docsection/internal/pathstore"
	"github.com/dgallion1/docsection/internal/pipeline"
	"github.com/dgallion1/docsection/internal/render"
	"github.com/go-chi/chi/v5"
)

func (s *Server) handleSubmitJob(w http.ResponseWriter, r *http.Request) {
	filename, data, ok := s.readUpload(w, r)
	if !ok {
		return
	}

	opts, err := s.sectionizeOptions(r)
	if err != nil {
		jsonError(w, err.Error(), http.StatusBadRequest)
		return
	}
	chunking, err := s.chunkConfig(r)
	if err != nil {
		jsonError(w, err.Error(), http.StatusBadRequest)
		return
	}

	docID := pathstore.Slugify(r.FormValue("doc_id"))
	if docID == "" {
		docID = pipeline.ContentHashHex(data)[:16]
	}

	job := pipeline.NewJob(docID, filename, r.FormValue("title"), data)
	job.Options = opts
	job.Chunking = chunking

	if err := s.orchestrator.Submit(job); err != nil {
		code := http.StatusInternalServerError
		if errors.Is(err, pipeline.ErrQueueFull) {
			code = http.StatusServiceUnavailable
		}
		jsonError(w, err.Error(), code)
		return
	}

	writeJSON(w, http.StatusAccepted, map[string]any{
		"job_id":   job.ID,
		"doc_id":   job.DocID,
		"status":   pipeline.StatusQueued,
		"poll_url": fmt.Sprintf("/api/jobs/%s", job.ID),
	})
}

func (s *Server) handleJobStatus(w http.ResponseWriter, r *http.Request) {
	job := s.orchestrator.GetJob(chi.URLParam(r, "jobID"))
	if job == nil {
		jsonError(w, "job not found", http.StatusNotFound)
		return
	}
	writeJSON(w, http.StatusOK, job.Snapshot())
}

// handleJobResult returns the sectioned tree of a finished job in the
// requested format, or its chunks when format=chunks.
func (s *Server) handleJobResult(w http.ResponseWriter, r *http.Request) {
	job := s.orchestrator.GetJob(chi.URLParam(r, "jobID"))
	if job == nil {
		jsonError(w, "job not found", http.StatusNotFound)
		return
	}
	snap := job.Snapshot()
	if !snap.Status.Done() {
		jsonError(w, fmt.Sprintf("job is still %s", snap.Status), http.StatusConflict)
		return
	}
	tree, chunks := job.Result()
	if tree == nil {
		jsonError(w, fmt.Sprintf("job %s without a result", snap.Status), http.StatusConflict)
		return
	}

	if r.URL.Query().Get("format") == "chunks" {
		writeJSON(w, http.StatusOK, map[string]any{
			"job_id": snap.ID,
			"doc_id": snap.DocID,
			"chunks": chunks,
		})
		return
	}

	format, err := render.ParseFormat(r.URL.Query().Get("format"))
	if err != nil {
		jsonError(w, err.Error(), http.StatusBadRequest)
		return
	}
	var buf bytes.Buffer
	if err := render.Render(&buf, tree, format); err != nil {
		s.log.Error("render failed", "job_id", snap.ID, "format", format, "error", err)
		jsonError(w, "render failed", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", format.ContentType())
	w.Write(buf.Bytes())
}
