package api

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/dgallion1/sefreader/internal/chunker"
	"github.com/dgallion1/sefreader/internal/export"
	"github.com/dgallion1/sefreader/internal/parser"
	"github.com/dgallion1/sefreader/internal/pipeline"
	"github.com/dgallion1/sefreader/internal/sef"
	"github.com/go-chi/chi/v5"
)

func (s *Server) handleSubmitJob(w http.ResponseWriter, r *http.Request) {
	filename, data, ok := s.readUpload(w, r)
	if !ok {
		return
	}

	job := pipeline.NewJob(filename, r.FormValue("title"), data)
	if err := s.orchestrator.Submit(job); err != nil {
		jsonError(w, err.Error(), http.StatusServiceUnavailable)
		return
	}

	writeJSON(w, http.StatusAccepted, map[string]any{
		"job_id":   job.ID,
		"doc_id":   job.DocID,
		"status":   pipeline.StatusQueued,
		"poll_url": fmt.Sprintf("/api/jobs/%s/status", job.ID),
	})
}

func (s *Server) handleJobStatus(w http.ResponseWriter, r *http.Request) {
	job := s.jobFromRequest(w, r)
	if job == nil {
		return
	}
	snap := job.Snapshot()
	body := map[string]any{
		"job_id":   snap.ID,
		"doc_id":   snap.DocID,
		"status":   snap.Status,
		"phase":    snap.Phase,
		"progress": snap.Progress,
	}
	if snap.DuplicateOf != "" {
		body["duplicate_of"] = snap.DuplicateOf
	}
	if msg := job.Failure(); msg != "" {
		body["error"] = msg
	}
	writeJSON(w, http.StatusOK, body)
}

func (s *Server) handleJobResult(w http.ResponseWriter, r *http.Request) {
	job := s.jobFromRequest(w, r)
	if job == nil {
		return
	}
	res, ok := s.resultOrError(w, job)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// handleJobChapter returns one chapter. With ?page=N it returns that page of
// the chapter instead, paged the way publishing pages it.
func (s *Server) handleJobChapter(w http.ResponseWriter, r *http.Request) {
	job := s.jobFromRequest(w, r)
	if job == nil {
		return
	}
	res, ok := s.resultOrError(w, job)
	if !ok {
		return
	}

	n, err := strconv.Atoi(chi.URLParam(r, "n"))
	if err != nil || n < 0 || n >= len(res.Chapters) {
		jsonError(w, fmt.Sprintf("chapter out of range (0-%d)", len(res.Chapters)-1), http.StatusNotFound)
		return
	}
	ch := res.Chapters[n]
	pages := chunker.SplitText(ch.Content, s.cfg.ChunkConfig())

	pageParam := r.URL.Query().Get("page")
	if pageParam == "" {
		writeJSON(w, http.StatusOK, map[string]any{
			"index":       n,
			"chapter":     ch,
			"placeholder": ch.IsPlaceholder(),
			"pages":       len(pages),
		})
		return
	}

	page, err := strconv.Atoi(pageParam)
	if err != nil || page < 0 || page >= len(pages) {
		jsonError(w, fmt.Sprintf("page out of range (chapter has %d)", len(pages)), http.StatusNotFound)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"index": n,
		"title": ch.Title,
		"page":  page,
		"pages": len(pages),
		"text":  pages[page],
	})
}

func (s *Server) handleJobExport(w http.ResponseWriter, r *http.Request) {
	job := s.jobFromRequest(w, r)
	if job == nil {
		return
	}
	res, ok := s.resultOrError(w, job)
	if !ok {
		return
	}

	exp, err := export.ForFormat(r.URL.Query().Get("format"))
	if err != nil {
		jsonError(w, fmt.Sprintf("%s (supported: %s)", err, strings.Join(export.Formats, ", ")), http.StatusBadRequest)
		return
	}

	title := job.Title
	if title == "" {
		title = parser.Title(job.Filename)
	}
	w.Header().Set("Content-Type", exp.ContentType())
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", parser.Title(job.Filename)+exp.Extension()))
	if err := exp.Export(w, export.NewDocument(title, res.Chapters)); err != nil {
		s.log.Error("export failed", "job_id", job.ID, "error", err)
	}
}

func (s *Server) jobFromRequest(w http.ResponseWriter, r *http.Request) *pipeline.Job {
	job := s.orchestrator.GetJob(chi.URLParam(r, "jobID"))
	if job == nil {
		jsonError(w, "job not found", http.StatusNotFound)
	}
	return job
}

// resultOrError returns the job's analysis, or writes 409 while analysis is
// pending and 422 when it failed.
func (s *Server) resultOrError(w http.ResponseWriter, job *pipeline.Job) (*sef.Result, bool) {
	if res := job.Result(); res != nil {
		return res, true
	}
	if msg := job.Failure(); msg != "" {
		writeJSON(w, http.StatusUnprocessableEntity, sef.AnalysisResult{Error: msg})
		return nil, false
	}
	jsonError(w, "analysis not finished", http.StatusConflict)
	return nil, false
}
