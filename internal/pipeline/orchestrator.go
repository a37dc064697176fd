package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/dgallion1/sefreader/internal/config"
	"github.com/dgallion1/sefreader/internal/pathstore"
	"github.com/dgallion1/sefreader/internal/sef"
)

// Orchestrator manages the analysis and publishing pipeline.
type Orchestrator struct {
	jobs  *JobStore
	queue chan *Job
	ps    *pathstore.Client
	stats *AnalysisStats
	log   *slog.Logger
	cfg   config.Config

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewOrchestrator creates the pipeline. ps may be nil, in which case jobs
// are analyzed but not published.
func NewOrchestrator(cfg config.Config, ps *pathstore.Client, log *slog.Logger) *Orchestrator {
	return &Orchestrator{
		jobs:  NewJobStore(cfg.JobTTL),
		queue: make(chan *Job, cfg.MaxQueueSize),
		ps:    ps,
		stats: NewAnalysisStats(time.Hour),
		log:   log,
		cfg:   cfg,
	}
}

// Start launches worker goroutines.
func (o *Orchestrator) Start(ctx context.Context) {
	workerCtx, cancel := context.WithCancel(ctx)
	o.cancel = cancel

	// A nil *pathstore.Client must not become a non-nil Store.
	var store Store
	if o.ps != nil {
		store = o.ps
	}

	for range o.cfg.WorkerCount {
		o.wg.Add(1)
		go func() {
			defer o.wg.Done()
			w := NewWorker(store, o.stats, o.log, o.cfg.ChunkConfig(), o.cfg.AnalyzeOptions(), o.cfg.MaxConcurrentStore)
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
		job.Fail("queue_full", fmt.Errorf("job queue is full (%d)", o.cfg.MaxQueueSize))
		return fmt.Errorf("job queue is full (%d)", o.cfg.MaxQueueSize)
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

// Stats returns the analysis latency tracker shared by all workers.
func (o *Orchestrator) Stats() *AnalysisStats {
	return o.stats
}

// AnalyzeOptions returns the analysis options every job runs with.
func (o *Orchestrator) AnalyzeOptions() []sef.Option {
	return o.cfg.AnalyzeOptions()
}

// Config returns the configuration the pipeline was built with.
func (o *Orchestrator) Config() config.Config {
	return o.cfg
}

// PathstoreClient returns the pathstore client for direct use by API
// handlers. It is nil when publishing is disabled.
func (o *Orchestrator) PathstoreClient() *pathstore.Client {
	return o.ps
}
