package pipeline

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/dgallion1/docsection/internal/config"
	"github.com/dgallion1/docsection/internal/doctree"
	"github.com/dgallion1/docsection/internal/parser"
	"github.com/dgallion1/docsection/internal/pathstore"
	"github.com/dgallion1/docsection/internal/sectionize"
)

// ErrQueueFull is returned by Submit when no queue slot is free.
var ErrQueueFull = errors.New("job queue is full")

// Orchestrator manages the document sectioning pipeline.
type Orchestrator struct {
	jobs  *JobStore
	queue chan *Job
	ps    *pathstore.Client
	log   *slog.Logger
	cfg   config.Config
	stats *Stats

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewOrchestrator creates the pipeline. ps may be nil to disable publishing.
func NewOrchestrator(cfg config.Config, ps *pathstore.Client, log *slog.Logger) *Orchestrator {
	return &Orchestrator{
		jobs:  NewJobStore(cfg.JobTTL),
		queue: make(chan *Job, cfg.MaxQueueSize),
		ps:    ps,
		log:   log,
		cfg:   cfg,
		stats: NewStats(cfg.JobTTL),
	}
}

// Start launches worker goroutines.
func (o *Orchestrator) Start(ctx context.Context) {
	workerCtx, cancel := context.WithCancel(ctx)
	o.cancel = cancel

	parseOpts := o.parseOptions()
	for range o.cfg.WorkerCount {
		o.wg.Add(1)
		go func() {
			defer o.wg.Done()
			w := NewWorker(o.ps, o.log, o.stats, parseOpts, o.cfg.MaxConcurrentStore)
			for {
				select {
				case <-workerCtx.Done():
					return
				case job, ok := <-o.queue:
					if !ok {
						return
					}
					w.Process(workerCtx, job)
				}
			}
		}()
	}

	// Start job store cleanup.
	o.wg.Add(1)
	go func() {
		defer o.wg.Done()
		ticker := time.NewTicker(5 * time.Minute)
		defer ticker.Stop()
		for {
			select {
			case <-workerCtx.Done():
				return
			case <-ticker.C:
				o.jobs.Cleanup()
			}
		}
	}()
}

// Stop gracefully shuts down the pipeline.
func (o *Orchestrator) Stop() {
	if o.cancel != nil {
		o.cancel()
	}
	close(o.queue)
	o.wg.Wait()
}

// Submit queues a new job for processing.
func (o *Orchestrator) Submit(job *Job) error {
	o.jobs.Put(job)
	select {
	case o.queue <- job:
		return nil
	default:
		job.SetStatus(StatusFailed, "queue_full")
		return fmt.Errorf("%w (%d)", ErrQueueFull, o.cfg.MaxQueueSize)
	}
}

// GetJob returns a job by ID.
func (o *Orchestrator) GetJob(id string) *Job {
	return o.jobs.Get(id)
}

// QueueDepth returns current queue depth.
func (o *Orchestrator) QueueDepth() int {
	return len(o.queue)
}

// Stats returns the pipeline latency trackers.
func (o *Orchestrator) Stats() *Stats {
	return o.stats
}

// PathstoreClient returns the pathstore client, or nil when publishing is off.
func (o *Orchestrator) PathstoreClient() *pathstore.Client {
	return o.ps
}

func (o *Orchestrator) parseOptions() parser.Options {
	return parser.Options{PDFFallbackPdftotext: o.cfg.PDFFallbackPdftotext}
}

// Sectionize parses and sectionizes a document on the caller's goroutine,
// bypassing the queue. Nothing is chunked or published.
func (o *Orchestrator) Sectionize(filename, title string, data []byte, opts sectionize.Options) (*doctree.DocTree, sectionize.Result, error) {
	s, err := sectionize.New(opts)
	if err != nil {
		return nil, sectionize.Result{}, err
	}
	p, err := parser.ForFile(filename, o.parseOptions())
	if err != nil {
		return nil, sectionize.Result{}, err
	}

	start := time.Now()
	tree, err := p.Parse(bytes.NewReader(data), filename)
	if err != nil {
		return nil, sectionize.Result{}, fmt.Errorf("parse: %w", err)
	}
	o.stats.Parse.Record(time.Since(start))
	if title != "" {
		tree.Title = title
	}

	start = time.Now()
	res, err := s.Apply(tree.Root)
	if err != nil {
		return nil, sectionize.Result{}, err
	}
	o.stats.Sectionize.Record(time.Since(start))
	return tree, res, nil
}
