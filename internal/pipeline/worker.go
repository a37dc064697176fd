package pipeline

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"slices"
	"sync"
	"time"

	"github.com/dgallion1/sefreader/internal/chunker"
	"github.com/dgallion1/sefreader/internal/doctree"
	"github.com/dgallion1/sefreader/internal/parser"
	"github.com/dgallion1/sefreader/internal/pathstore"
	"github.com/dgallion1/sefreader/internal/sef"
)

// Store is the subset of the pathstore client the worker publishes through.
type Store interface {
	PutNode(ctx context.Context, key string, req pathstore.NodeRequest) error
	PutLink(ctx context.Context, req pathstore.LinkRequest) error
	ListChildren(ctx context.Context, key string, limit int) ([]pathstore.ListChildrenResponse, error)
}

// Worker processes a single upload job.
type Worker struct {
	store       Store // nil: analyze only
	stats       *AnalysisStats
	log         *slog.Logger
	chunkCfg    chunker.Config
	analyzeOpts []sef.Option

	maxConcurrentStore int
}

func NewWorker(store Store, stats *AnalysisStats, log *slog.Logger, chunkCfg chunker.Config, analyzeOpts []sef.Option, maxStore int) *Worker {
	if maxStore < 1 {
		maxStore = 1
	}
	return &Worker{
		store:              store,
		stats:              stats,
		log:                log,
		chunkCfg:           chunkCfg,
		analyzeOpts:        analyzeOpts,
		maxConcurrentStore: maxStore,
	}
}

// Process runs analysis and, when a store is configured, publishing.
func (w *Worker) Process(ctx context.Context, job *Job) {
	log := w.log.With("job_id", job.ID, "doc_id", job.DocID, "filename", job.Filename)

	// Phase 1: Analyze
	job.SetStatus(StatusAnalyzing, "analyzing")
	opts := append(slices.Clone(w.analyzeOpts), sef.WithLogger(log))
	p, err := parser.ForFile(job.Filename, opts...)
	if err != nil {
		log.Error("unsupported format", "error", err)
		job.Fail("analyzing", err)
		return
	}

	data := job.FileData()
	start := time.Now()
	res, err := p.Parse(bytes.NewReader(data), job.Filename)
	if w.stats != nil {
		w.stats.Record(time.Since(start).Milliseconds())
	}
	if err != nil {
		log.Error("analysis failed", "error", err)
		job.Fail("analyzing", err)
		return
	}
	job.SetResult(res, ContentHashHex(data))
	log.Info("analyzed",
		"hierarchy", len(res.Hierarchy),
		"documents", len(res.Documents),
		"chapters", len(res.Chapters),
		"quality", res.Quality.PrintableRatio,
	)

	if w.store == nil {
		job.SetStatus(StatusCompleted, "done")
		return
	}

	// Phase 1.5: Dedup check
	exists, existingDocID, err := w.checkDuplicate(ctx, job.ContentHash)
	if err != nil {
		log.Warn("dedup check failed, proceeding", "error", err)
	} else if exists {
		log.Info("duplicate document, skipping", "existing_doc_id", existingDocID)
		job.SetDuplicateOf(existingDocID)
		job.SetStatus(StatusDupSkipped, "dedup")
		return
	}

	// Phase 2: Publish
	job.SetStatus(StatusPublishing, "publishing")
	title := job.Title
	if title == "" {
		title = parser.Title(job.Filename)
	}
	tree := doctree.Build(title, res.Chapters)
	pages := chunker.ChunkTree(tree, w.chunkCfg)
	job.SetTotals(len(res.Chapters), len(pages))
	log.Info("paged document", "pages", len(pages))

	chaptersStored, pagesStored, hadErrors := w.publishNodes(ctx, job, res.Chapters, pages, log)
	if w.publishLinks(ctx, job, tree, log) {
		hadErrors = true
	}
	log.Info("publishing complete", "chapters", chaptersStored, "pages", pagesStored, "errors", hadErrors)

	// Write document metadata.
	metaErr := w.put(ctx, pathstore.MetaKey(job.DocID), pathstore.NodeRequest{
		Value: map[string]any{
			"filename":          job.Filename,
			"title":             title,
			"content_hash":      job.ContentHash,
			"file_size":         res.FileSize,
			"decompressed_size": res.DecompressedSize,
			"chapters":          len(res.Chapters),
			"chapters_stored":   chaptersStored,
			"pages_stored":      pagesStored,
			"created_at":        job.CreatedAt.Format(time.RFC3339),
		},
		MemoryType: "metacognitive",
		Salience:   0.5,
		Source:     source(job.DocID),
	}, log)
	if metaErr != nil {
		log.Error("meta write failed", "error", metaErr)
		job.AddError(fmt.Sprintf("meta: %s", metaErr))
		hadErrors = true
	}

	// Write hash index for dedup.
	hashErr := w.put(ctx, pathstore.HashKey(job.ContentHash, job.DocID), pathstore.NodeRequest{
		Value: map[string]any{
			"filename":   job.Filename,
			"created_at": job.CreatedAt.Format(time.RFC3339),
		},
		MemoryType: "metacognitive",
		Salience:   0.1,
		Source:     source(job.DocID),
	}, log)
	if hashErr != nil {
		log.Error("hash index write failed", "error", hashErr)
	}

	stored := chaptersStored + pagesStored
	if hadErrors && stored > 0 {
		job.SetStatus(StatusPartial, "done")
	} else if hadErrors {
		job.SetStatus(StatusFailed, "publishing")
	} else {
		job.SetStatus(StatusCompleted, "done")
	}
}

type nodeWrite struct {
	key  string
	req  pathstore.NodeRequest
	page bool
}

// publishNodes writes every chapter and page node with bounded concurrency.
func (w *Worker) publishNodes(ctx context.Context, job *Job, chapters []sef.Chapter, pages []doctree.Chunk, log *slog.Logger) (chaptersStored, pagesStored int, hadErrors bool) {
	pageCount := make([]int, len(chapters))
	for _, pg := range pages {
		pageCount[pg.Chapter]++
	}

	writes := make([]nodeWrite, 0, len(chapters)+len(pages))
	for i, ch := range chapters {
		writes = append(writes, nodeWrite{
			key: pathstore.ChapterKey(job.DocID, i),
			req: pathstore.NodeRequest{
				Value: map[string]any{
					"index":        i,
					"title":        ch.Title,
					"level":        ch.Level,
					"size":         ch.Size,
					"start_pos":    ch.Start,
					"end_pos":      ch.End,
					"source_index": ch.SourceIndex,
					"placeholder":  ch.IsPlaceholder(),
					"pages":        pageCount[i],
				},
				MemoryType: "semantic",
				Salience:   0.3,
				Source:     source(job.DocID),
			},
		})
	}
	for _, pg := range pages {
		writes = append(writes, nodeWrite{
			key: pathstore.PageKey(job.DocID, pg.Chapter, pg.Page),
			req: pathstore.NodeRequest{
				Value: map[string]any{
					"chapter":    pg.Chapter,
					"page":       pg.Page,
					"text":       pg.Text,
					"breadcrumb": pg.Breadcrumb,
				},
				MemoryType: "episodic",
				Salience:   0.2,
				Source:     source(job.DocID),
			},
			page: true,
		})
	}

	type storeResult struct {
		write nodeWrite
		err   error
	}
	results := make(chan storeResult, len(writes))
	sem := make(chan struct{}, w.maxConcurrentStore)
	var wg sync.WaitGroup
	for _, wr := range writes {
		sem <- struct{}{}
		wg.Add(1)
		go func(wr nodeWrite) {
			defer wg.Done()
			defer func() { <-sem }()
			results <- storeResult{write: wr, err: w.put(ctx, wr.key, wr.req, log)}
		}(wr)
	}
	wg.Wait()
	close(results)

	for r := range results {
		if r.err != nil {
			log.Error("store failed", "key", r.write.key, "error", r.err)
			job.AddError(fmt.Sprintf("store %s: %s", r.write.key, r.err))
			hadErrors = true
			continue
		}
		if r.write.page {
			pagesStored++
			job.AddPublished(0, 1)
		} else {
			chaptersStored++
			job.AddPublished(1, 0)
		}
	}
	return chaptersStored, pagesStored, hadErrors
}

// publishLinks links each nested chapter to its parent.
func (w *Worker) publishLinks(ctx context.Context, job *Job, tree *doctree.DocTree, log *slog.Logger) (hadErrors bool) {
	var parents []*doctree.DocNode
	tree.Walk(func(n *doctree.DocNode, depth int, _ []string) {
		parents = append(parents[:depth], n)
		if depth == 0 {
			return
		}
		parent := parents[depth-1]
		req := pathstore.LinkRequest{
			From:    pathstore.ChapterKey(job.DocID, n.Chapter),
			To:      pathstore.ChapterKey(job.DocID, parent.Chapter),
			Weight:  1,
			Summary: "parent",
		}
		err := Retry(ctx, func() error { return w.store.PutLink(ctx, req) }, func(attempt int, err error) {
			log.Warn("retryable link error", "from", req.From, "attempt", attempt, "error", err)
		})
		if err != nil {
			log.Error("link failed", "from", req.From, "to", req.To, "error", err)
			job.AddError(fmt.Sprintf("link %s: %s", req.From, err))
			hadErrors = true
		}
	})
	return hadErrors
}

func (w *Worker) put(ctx context.Context, key string, req pathstore.NodeRequest, log *slog.Logger) error {
	return Retry(ctx, func() error { return w.store.PutNode(ctx, key, req) }, func(attempt int, err error) {
		log.Warn("retryable store error", "key", key, "attempt", attempt, "error", err)
	})
}

// checkDuplicate checks if this content hash was already published.
func (w *Worker) checkDuplicate(ctx context.Context, hash string) (bool, string, error) {
	children, err := w.store.ListChildren(ctx, pathstore.HashPrefix(hash), 1)
	if err != nil {
		return false, "", err
	}
	if len(children) > 0 {
		return true, pathstore.LastSegment(children[0].Key), nil
	}
	return false, "", nil
}

func source(docID string) string {
	return "sefreader:" + docID
}
