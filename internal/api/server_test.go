package api

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/dgallion1/docsection/internal/config"
	"github.com/dgallion1/docsection/internal/doctree"
	"github.com/dgallion1/docsection/internal/pathstore"
	"github.com/dgallion1/docsection/internal/pipeline"
	"github.com/dgallion1/docsection/internal/sectionize"
)

const testKey = "secret"

const guide = `Welcome text before any heading.

# Install

Run the installer.

## Linux

Use the package manager.

# Usage

Start the service.
`

func testConfig() config.Config {
	defaults := sectionize.DefaultOptions()
	return config.Config{
		APIKey:              testKey,
		WorkerCount:         1,
		MaxQueueSize:        4,
		MaxConcurrentStore:  2,
		MaxUploadBytes:      1 << 20,
		DefaultChunkSize:    500,
		DefaultChunkOverlap: 50,
		JobTTL:              time.Hour,
		MaxHeadingDepth:     defaults.MaxHeadingDepth,
		OrphanPolicy:        string(defaults.OrphanPolicy),
		ContentNodeTypes:    defaults.ContentNodeTypes,
		MarkerTypes:         defaults.MarkerTypes,
	}
}

func newTestServer(t *testing.T, ps *pathstore.Client) *Server {
	t.Helper()
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	orch := pipeline.NewOrchestrator(testConfig(), ps, log)
	orch.Start(context.Background())
	t.Cleanup(orch.Stop)
	return NewServer(orch, log, testConfig())
}

// upload builds an authenticated multipart request carrying one file and
// the given form fields.
func upload(t *testing.T, target, filename, content string, fields map[string]string) *http.Request {
	t.Helper()
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	for k, v := range fields {
		if err := mw.WriteField(k, v); err != nil {
			t.Fatal(err)
		}
	}
	fw, err := mw.CreateFormFile("file", filename)
	if err != nil {
		t.Fatal(err)
	}
	fw.Write([]byte(content))
	mw.Close()

	req := httptest.NewRequest(http.MethodPost, target, &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.Header.Set("Authorization", "Bearer "+testKey)
	return req
}

func authed(method, target string) *http.Request {
	req := httptest.NewRequest(method, target, nil)
	req.Header.Set("Authorization", "Bearer "+testKey)
	return req
}

func serve(s *Server, req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	s.ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	if err := json.NewDecoder(rec.Body).Decode(&out); err != nil {
		t.Fatalf("decode response: %v (%s)", err, rec.Body.String())
	}
	return out
}

func TestHealth(t *testing.T) {
	s := newTestServer(t, nil)
	rec := serve(s, httptest.NewRequest(http.MethodGet, "/health", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if out := decode(t, rec); out["status"] != "ok" || out["publishing"] != false {
		t.Errorf("unexpected health body %v", out)
	}
}

func TestAuth(t *testing.T) {
	s := newTestServer(t, nil)

	rec := serve(s, httptest.NewRequest(http.MethodGet, "/api/stats", nil))
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("expected 401 without token, got %d", rec.Code)
	}

	req := httptest.NewRequest(http.MethodGet, "/api/stats", nil)
	req.Header.Set("Authorization", "Bearer wrong")
	if rec := serve(s, req); rec.Code != http.StatusUnauthorized {
		t.Errorf("expected 401 with wrong token, got %d", rec.Code)
	}

	if rec := serve(s, authed(http.MethodGet, "/api/stats")); rec.Code != http.StatusOK {
		t.Errorf("expected 200 with token, got %d", rec.Code)
	}
}

func TestSectionize_Outline(t *testing.T) {
	s := newTestServer(t, nil)
	rec := serve(s, upload(t, "/api/sectionize", "guide.md", guide, map[string]string{"format": "outline"}))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if got := rec.Header().Get("X-Sections"); got != "3" {
		t.Errorf("expected 3 sections, got %q", got)
	}
	if got := rec.Header().Get("Content-Type"); !strings.HasPrefix(got, "text/plain") {
		t.Errorf("unexpected content type %q", got)
	}
	body := rec.Body.String()
	for _, want := range []string{"§1 Install", "  §2 Linux", "§1 Usage"} {
		if !strings.Contains(body, want) {
			t.Errorf("expected %q in outline:\n%s", want, body)
		}
	}
}

func TestSectionize_JSONWithOverrides(t *testing.T) {
	s := newTestServer(t, nil)
	req := upload(t, "/api/sectionize?max_depth=1&orphans=wrap-intro", "guide.md", guide, map[string]string{"title": "Guide"})
	rec := serve(s, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if rec.Header().Get("X-Sections") != "3" || rec.Header().Get("X-Orphan-Sections") != "1" {
		t.Errorf("expected 2 heading sections and 1 orphan section, got %s/%s",
			rec.Header().Get("X-Sections"), rec.Header().Get("X-Orphan-Sections"))
	}

	var tree doctree.DocTree
	if err := json.NewDecoder(rec.Body).Decode(&tree); err != nil {
		t.Fatal(err)
	}
	if tree.Title != "Guide" || len(tree.Root.Children) != 3 {
		t.Fatalf("unexpected tree %q with %d children", tree.Title, len(tree.Root.Children))
	}
	install := tree.Root.Children[1]
	for _, c := range install.Children {
		if c.IsSection() {
			t.Error("expected no nested sections at max_depth=1")
		}
	}
}

func TestSectionize_BadRequests(t *testing.T) {
	s := newTestServer(t, nil)
	tests := []struct {
		name     string
		target   string
		filename string
		fields   map[string]string
		code     int
	}{
		{"unsupported extension", "/api/sectionize", "guide.exe", nil, http.StatusBadRequest},
		{"unknown policy", "/api/sectionize?orphans=sideways", "guide.md", nil, http.StatusBadRequest},
		{"bad depth", "/api/sectionize", "guide.md", map[string]string{"max_depth": "0"}, http.StatusBadRequest},
		{"depth not a number", "/api/sectionize?max_depth=deep", "guide.md", nil, http.StatusBadRequest},
		{"heading marker", "/api/sectionize?markers=heading", "guide.md", nil, http.StatusBadRequest},
		{"unknown format", "/api/sectionize?format=yaml", "guide.md", nil, http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := serve(s, upload(t, tt.target, tt.filename, guide, tt.fields))
			if rec.Code != tt.code {
				t.Errorf("expected %d, got %d: %s", tt.code, rec.Code, rec.Body.String())
			}
		})
	}
}

func TestSectionize_MissingFile(t *testing.T) {
	s := newTestServer(t, nil)
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	mw.WriteField("format", "json")
	mw.Close()
	req := httptest.NewRequest(http.MethodPost, "/api/sectionize", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.Header.Set("Authorization", "Bearer "+testKey)

	if rec := serve(s, req); rec.Code != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", rec.Code)
	}
}

func waitForJob(t *testing.T, s *Server, id string) map[string]any {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for {
		rec := serve(s, authed(http.MethodGet, "/api/jobs/"+id))
		if rec.Code != http.StatusOK {
			t.Fatalf("status: expected 200, got %d", rec.Code)
		}
		out := decode(t, rec)
		if pipeline.JobStatus(out["status"].(string)).Done() {
			return out
		}
		if time.Now().After(deadline) {
			t.Fatalf("job %s did not finish: %v", id, out)
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func TestJobs_SubmitPollResult(t *testing.T) {
	s := newTestServer(t, nil)
	rec := serve(s, upload(t, "/api/jobs", "guide.md", guide, map[string]string{"doc_id": "My Guide", "min_chunk": "1"}))
	if rec.Code != http.StatusAccepted {
		t.Fatalf("expected 202, got %d: %s", rec.Code, rec.Body.String())
	}
	accepted := decode(t, rec)
	if accepted["doc_id"] != "my-guide" {
		t.Errorf("expected slugified doc id, got %v", accepted["doc_id"])
	}
	id := accepted["job_id"].(string)
	if accepted["poll_url"] != "/api/jobs/"+id {
		t.Errorf("unexpected poll url %v", accepted["poll_url"])
	}

	status := waitForJob(t, s, id)
	if status["status"] != string(pipeline.StatusCompleted) {
		t.Fatalf("expected completed, got %v", status)
	}
	progress := status["progress"].(map[string]any)
	if progress["sections"] != float64(3) {
		t.Errorf("expected 3 sections, got %v", progress["sections"])
	}

	rec = serve(s, authed(http.MethodGet, "/api/jobs/"+id+"/result?format=html"))
	if rec.Code != http.StatusOK {
		t.Fatalf("result: expected 200, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), `<section data-depth="1">`) {
		t.Errorf("expected section elements in html:\n%s", rec.Body.String())
	}

	rec = serve(s, authed(http.MethodGet, "/api/jobs/"+id+"/result?format=chunks"))
	if rec.Code != http.StatusOK {
		t.Fatalf("chunks: expected 200, got %d", rec.Code)
	}
	chunks := decode(t, rec)["chunks"].([]any)
	if len(chunks) != 4 {
		t.Errorf("expected 4 chunks, got %d", len(chunks))
	}
}

func TestJobs_DefaultDocIDFromContent(t *testing.T) {
	s := newTestServer(t, nil)
	rec := serve(s, upload(t, "/api/jobs", "guide.md", guide, nil))
	if rec.Code != http.StatusAccepted {
		t.Fatalf("expected 202, got %d", rec.Code)
	}
	want := pipeline.ContentHashHex([]byte(guide))[:16]
	if got := decode(t, rec)["doc_id"]; got != want {
		t.Errorf("expected doc id %s, got %v", want, got)
	}
}

func TestJobs_BadChunkConfig(t *testing.T) {
	s := newTestServer(t, nil)
	for _, fields := range []map[string]string{
		{"chunk_size": "-1"},
		{"chunk_size": "100", "overlap": "100"},
	} {
		if rec := serve(s, upload(t, "/api/jobs", "guide.md", guide, fields)); rec.Code != http.StatusBadRequest {
			t.Errorf("%v: expected 400, got %d", fields, rec.Code)
		}
	}
}

func TestJobs_NotFound(t *testing.T) {
	s := newTestServer(t, nil)
	for _, target := range []string{"/api/jobs/nope", "/api/jobs/nope/result"} {
		if rec := serve(s, authed(http.MethodGet, target)); rec.Code != http.StatusNotFound {
			t.Errorf("%s: expected 404, got %d", target, rec.Code)
		}
	}
}

func TestJobs_FailedJobHasNoResult(t *testing.T) {
	s := newTestServer(t, nil)
	rec := serve(s, upload(t, "/api/jobs", "broken.docx", "not a zip", nil))
	if rec.Code != http.StatusAccepted {
		t.Fatalf("expected 202, got %d", rec.Code)
	}
	id := decode(t, rec)["job_id"].(string)
	if status := waitForJob(t, s, id); status["status"] != string(pipeline.StatusFailed) {
		t.Fatalf("expected failed, got %v", status)
	}
	if rec := serve(s, authed(http.MethodGet, "/api/jobs/"+id+"/result")); rec.Code != http.StatusConflict {
		t.Errorf("expected 409, got %d", rec.Code)
	}
}

func TestDocuments_PublishingDisabled(t *testing.T) {
	s := newTestServer(t, nil)
	for _, req := range []*http.Request{
		authed(http.MethodGet, "/api/documents"),
		authed(http.MethodDelete, "/api/documents/guide"),
	} {
		if rec := serve(s, req); rec.Code != http.StatusServiceUnavailable {
			t.Errorf("%s %s: expected 503, got %d", req.Method, req.URL.Path, rec.Code)
		}
	}
}

func TestDocuments_ListAndDelete(t *testing.T) {
	meta := map[string]any{"doc_id": "guide", "content_hash": "abc"}
	var deleted []string
	store := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		key := strings.TrimPrefix(r.URL.Path, "/kv/")
		switch {
		case r.Method == http.MethodGet && key == "docsection/documents/*":
			json.NewEncoder(w).Encode(map[string]any{"nodes": []map[string]any{
				{"key_path": "docsection.documents.guide.meta", "value": meta},
				{"key_path": "docsection.documents.guide.tree", "value": map[string]any{}},
			}})
		case r.Method == http.MethodGet && key == "docsection/documents/guide/meta":
			json.NewEncoder(w).Encode(map[string]any{"key_path": key, "value": meta})
		case r.Method == http.MethodDelete:
			deleted = append(deleted, key)
			w.WriteHeader(http.StatusOK)
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer store.Close()

	s := newTestServer(t, pathstore.NewClient(store.URL, "k"))

	rec := serve(s, authed(http.MethodGet, "/api/documents"))
	if rec.Code != http.StatusOK {
		t.Fatalf("list: expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	docs := decode(t, rec)["documents"].([]any)
	if len(docs) != 1 || docs[0].(map[string]any)["doc_id"] != "guide" {
		t.Errorf("expected only the meta node, got %v", docs)
	}

	if rec := serve(s, authed(http.MethodDelete, "/api/documents/guide")); rec.Code != http.StatusOK {
		t.Fatalf("delete: expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if len(deleted) != 2 || deleted[1] != "docsection/by_hash/abc/guide" {
		t.Errorf("expected subtree and hash index deletes, got %v", deleted)
	}

	if rec := serve(s, authed(http.MethodDelete, "/api/documents/missing")); rec.Code != http.StatusNotFound {
		t.Errorf("expected 404 for unknown document, got %d", rec.Code)
	}
}

func TestStats(t *testing.T) {
	s := newTestServer(t, nil)
	serve(s, upload(t, "/api/sectionize", "guide.md", guide, nil))

	rec := serve(s, authed(http.MethodGet, "/api/stats"))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	out := decode(t, rec)
	if _, ok := out["queue_depth"]; !ok {
		t.Error("expected queue_depth")
	}
	sectionizeStats := out["latency"].(map[string]any)["sectionize"].(map[string]any)
	if sectionizeStats["count"] != float64(1) {
		t.Errorf("expected one sectionize sample, got %v", sectionizeStats)
	}
}

func TestSanitizeFilename(t *testing.T) {
	tests := []struct{ in, want string }{
		{"guide.md", "guide.md"},
		{"../../etc/passwd", "passwd"},
		{`C:\docs\a.md`, `C:_docs_a.md`},
		{"", "unnamed"},
	}
	for _, tt := range tests {
		if got := sanitizeFilename(tt.in); got != tt.want {
			t.Errorf("sanitizeFilename(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
