package pipeline

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/dgallion1/docsection/internal/chunker"
	"github.com/dgallion1/docsection/internal/doctree"
	"github.com/dgallion1/docsection/internal/parser"
	"github.com/dgallion1/docsection/internal/pathstore"
	"github.com/dgallion1/docsection/internal/sectionize"
)

// Worker processes a single document job.
type Worker struct {
	pathstore *pathstore.Client // nil disables publishing
	log       *slog.Logger
	stats     *Stats
	parseOpts parser.Options

	maxConcurrentStore int
}

func NewWorker(ps *pathstore.Client, log *slog.Logger, stats *Stats, parseOpts parser.Options, maxStore int) *Worker {
	if maxStore <= 0 {
		maxStore = 1
	}
	return &Worker{
		pathstore:          ps,
		log:                log,
		stats:              stats,
		parseOpts:          parseOpts,
		maxConcurrentStore: maxStore,
	}
}

// Process runs parse, sectionize, chunk and publish for a job.
func (w *Worker) Process(ctx context.Context, job *Job) {
	log := w.log.With("job_id", job.ID, "doc_id", job.DocID)

	// Phase 1: Parse
	job.SetStatus(StatusParsing, "parsing")
	start := time.Now()
	p, err := parser.ForFile(job.Filename, w.parseOpts)
	if err != nil {
		log.Error("unsupported format", "error", err)
		job.AddError(err.Error())
		job.SetStatus(StatusFailed, "parsing")
		return
	}

	tree, err := p.Parse(bytes.NewReader(job.FileData()), job.Filename)
	if err != nil {
		log.Error("parse failed", "error", err)
		job.AddError(fmt.Sprintf("parse: %s", err))
		job.SetStatus(StatusFailed, "parsing")
		return
	}
	job.releaseFileData()
	w.stats.Parse.Record(time.Since(start))
	if job.Title != "" {
		tree.Title = job.Title
	}
	job.ContentHash = ContentHashHex([]byte(tree.Root.Text()))

	// Phase 2: Sectionize
	job.SetStatus(StatusSectionizing, "sectionizing")
	start = time.Now()
	s, err := sectionize.New(job.Options)
	if err != nil {
		log.Error("invalid sectionize options", "error", err)
		job.AddError(err.Error())
		job.SetStatus(StatusFailed, "sectionizing")
		return
	}
	res, err := s.Apply(tree.Root)
	if err != nil {
		log.Error("sectionize failed", "error", err)
		job.AddError(fmt.Sprintf("sectionize: %s", err))
		job.SetStatus(StatusFailed, "sectionizing")
		return
	}
	w.stats.Sectionize.Record(time.Since(start))
	job.SetSectioned(tree, res)
	log.Info("sectioned document", "sections", res.Total(), "orphans", res.Orphans)

	// Phase 3: Chunk
	job.SetStatus(StatusChunking, "chunking")
	chunks := chunker.ChunkTree(tree, job.Chunking)
	job.SetChunks(chunks)
	log.Info("chunked document", "chunks", len(chunks))

	if w.pathstore == nil {
		job.SetStatus(StatusCompleted, "done")
		return
	}

	// Phase 3.5: Dedup check
	existing, found, err := w.pathstore.FindByHash(ctx, job.ContentHash)
	if err != nil {
		log.Warn("dedup check failed, proceeding", "error", err)
	} else if found && existing != job.DocID {
		log.Info("duplicate document, skipping publish", "existing_doc_id", existing)
		job.SetStatus(StatusDupSkipped, "dedup")
		return
	}

	// Phase 4: Publish
	job.SetStatus(StatusStoring, "storing")
	start = time.Now()
	stored, hadErrors := w.publish(ctx, log, job, tree, chunks, res)
	w.stats.Publish.Record(time.Since(start))

	switch {
	case stored < 0:
		job.SetStatus(StatusFailed, "storing")
	case !hadErrors:
		job.SetStatus(StatusCompleted, "done")
	case stored > 0 || len(chunks) == 0:
		job.SetStatus(StatusPartial, "done")
	default:
		job.SetStatus(StatusFailed, "storing")
	}
}

// publish writes tree, chunks and meta. It returns the number of chunks
// stored, or -1 when the tree itself could not be written.
func (w *Worker) publish(ctx context.Context, log *slog.Logger, job *Job, tree *doctree.DocTree, chunks []doctree.Chunk, res sectionize.Result) (int, bool) {
	if err := w.pathstore.PutTree(ctx, job.DocID, tree); err != nil {
		log.Error("tree write failed", "error", err)
		job.AddError(fmt.Sprintf("tree: %s", err))
		return -1, true
	}

	sem := make(chan struct{}, w.maxConcurrentStore)
	type storeResult struct {
		index int
		err   error
	}
	results := make(chan storeResult, len(chunks))

	for _, chunk := range chunks {
		sem <- struct{}{}
		go func(c doctree.Chunk) {
			defer func() { <-sem }()
			results <- storeResult{index: c.Index, err: w.pathstore.PutChunk(ctx, job.DocID, c)}
		}(chunk)
	}

	stored := 0
	hadErrors := false
	for range chunks {
		r := <-results
		if r.err != nil {
			log.Error("chunk store failed", "chunk", r.index, "error", r.err)
			job.AddError(fmt.Sprintf("chunk %d: %s", r.index, r.err))
			hadErrors = true
			continue
		}
		stored++
		job.IncrChunksStored()
	}
	log.Info("storage complete", "stored", stored, "total", len(chunks))

	err := w.pathstore.PutMeta(ctx, pathstore.DocumentMeta{
		DocID:        job.DocID,
		Filename:     job.Filename,
		Title:        tree.Title,
		ContentHash:  job.ContentHash,
		Sections:     res.Total(),
		Orphans:      res.Orphans,
		TotalChunks:  len(chunks),
		ChunksStored: stored,
		CreatedAt:    job.CreatedAt,
	})
	if err != nil {
		log.Error("meta write failed", "error", err)
		job.AddError(err.Error())
		hadErrors = true
	}
	return stored, hadErrors
}
