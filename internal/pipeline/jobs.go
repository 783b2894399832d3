package pipeline

import (
	"crypto/sha256"
	"fmt"
	"sync"
	"time"

	"github.com/dgallion1/docsection/internal/chunker"
	"github.com/dgallion1/docsection/internal/doctree"
	"github.com/dgallion1/docsection/internal/sectionize"
)

// JobStatus represents the state of a sectioning job.
type JobStatus string

const (
	StatusQueued       JobStatus = "queued"
	StatusParsing      JobStatus = "parsing"
	StatusSectionizing JobStatus = "sectionizing"
	StatusChunking     JobStatus = "chunking"
	StatusStoring      JobStatus = "storing"
	StatusCompleted    JobStatus = "completed"
	StatusFailed       JobStatus = "failed"
	StatusPartial      JobStatus = "partial"
	StatusDupSkipped   JobStatus = "duplicate_skipped"
)

// Done reports whether the status is terminal.
func (s JobStatus) Done() bool {
	switch s {
	case StatusCompleted, StatusFailed, StatusPartial, StatusDupSkipped:
		return true
	}
	return false
}

// Job tracks the state of a single document run.
type Job struct {
	mu sync.Mutex

	ID    string `json:"job_id"`
	DocID string `json:"doc_id"`

	Status   JobStatus `json:"status"`
	Phase    string    `json:"phase"`
	Filename string    `json:"filename"`
	Title    string    `json:"title"`

	Progress Progress `json:"progress"`

	ContentHash string    `json:"content_hash,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`

	// Per-job settings, fixed before Submit.
	Options  sectionize.Options `json:"-"`
	Chunking chunker.Config     `json:"-"`

	// Internal: not serialized.
	fileData []byte
	tree     *doctree.DocTree
	chunks   []doctree.Chunk
	errors   []string
}

// Progress tracks processing progress.
type Progress struct {
	Sections     int      `json:"sections"`
	Orphans      int      `json:"orphans"`
	TotalChunks  int      `json:"total_chunks"`
	ChunksStored int      `json:"chunks_stored"`
	Errors       []string `json:"errors"`
}

// NewJob builds a queued job with a fresh ULID.
func NewJob(docID, filename, title string, data []byte) *Job {
	now := time.Now()
	return &Job{
		ID:        generateULID(),
		DocID:     docID,
		Status:    StatusQueued,
		Phase:     "queued",
		Filename:  filename,
		Title:     title,
		CreatedAt: now,
		UpdatedAt: now,
		Options:   sectionize.DefaultOptions(),
		Chunking:  chunker.DefaultConfig(),
		fileData:  data,
	}
}

// JobStore is a thread-safe in-memory job registry with TTL eviction.
type JobStore struct {
	mu   sync.Mutex
	jobs map[string]*Job
	ttl  time.Duration
}

func NewJobStore(ttl time.Duration) *JobStore {
	return &JobStore{
		jobs: make(map[string]*Job),
		ttl:  ttl,
	}
}

func (s *JobStore) Put(job *Job) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.jobs[job.ID] = job
}

func (s *JobStore) Get(id string) *Job {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.jobs[id]
}

// Len returns the number of tracked jobs.
func (s *JobStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.jobs)
}

// Cleanup removes expired jobs.
func (s *JobStore) Cleanup() {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := time.Now()
	for id, job := range s.jobs {
		job.mu.Lock()
		updated := job.UpdatedAt
		job.mu.Unlock()
		if now.Sub(updated) > s.ttl {
			delete(s.jobs, id)
		}
	}
}

// SetStatus updates job status atomically.
func (j *Job) SetStatus(status JobStatus, phase string) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.Status = status
	j.Phase = phase
	j.UpdatedAt = time.Now()
}

// AddError records an error.
func (j *Job) AddError(err string) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.errors = append(j.errors, err)
	j.Progress.Errors = j.errors
	j.UpdatedAt = time.Now()
}

// SetSectioned records the transform outcome.
func (j *Job) SetSectioned(tree *doctree.DocTree, res sectionize.Result) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.tree = tree
	j.Progress.Sections = res.Total()
	j.Progress.Orphans = res.Orphans
	j.UpdatedAt = time.Now()
}

// SetChunks records the chunker output.
func (j *Job) SetChunks(chunks []doctree.Chunk) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.chunks = chunks
	j.Progress.TotalChunks = len(chunks)
	j.UpdatedAt = time.Now()
}

// IncrChunksStored atomically increments stored chunks.
func (j *Job) IncrChunksStored() {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.Progress.ChunksStored++
	j.UpdatedAt = time.Now()
}

// FileData returns the raw file bytes.
func (j *Job) FileData() []byte {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.fileData
}

// releaseFileData drops the upload once it has been parsed.
func (j *Job) releaseFileData() {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.fileData = nil
}

// Result returns the sectioned tree and chunks once available.
func (j *Job) Result() (*doctree.DocTree, []doctree.Chunk) {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.tree, j.chunks
}

// JobSnapshot is a read-only, JSON-safe copy of job state.
type JobSnapshot struct {
	ID        string    `json:"job_id"`
	DocID     string    `json:"doc_id"`
	Status    JobStatus `json:"status"`
	Phase     string    `json:"phase"`
	Filename  string    `json:"filename"`
	Title     string    `json:"title"`
	Progress  Progress  `json:"progress"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Snapshot returns a JSON-safe copy of the job state.
func (j *Job) Snapshot() JobSnapshot {
	j.mu.Lock()
	defer j.mu.Unlock()
	errs := make([]string, len(j.Progress.Errors))
	copy(errs, j.Progress.Errors)
	progress := j.Progress
	progress.Errors = errs
	return JobSnapshot{
		ID:        j.ID,
		DocID:     j.DocID,
		Status:    j.Status,
		Phase:     j.Phase,
		Filename:  j.Filename,
		Title:     j.Title,
		Progress:  progress,
		CreatedAt: j.CreatedAt,
		UpdatedAt: j.UpdatedAt,
	}
}

// ContentHashHex computes SHA-256 of content and returns hex string.
func ContentHashHex(data []byte) string {
	h := sha256.Sum256(data)
	return fmt.Sprintf("%x", h[:])
}
