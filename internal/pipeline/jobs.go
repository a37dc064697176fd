package pipeline

import (
	"crypto/sha256"
	"fmt"
	"sync"
	"time"

	"github.com/dgallion1/sefreader/internal/sef"
	"github.com/google/uuid"
)

// JobStatus represents the state of an analysis job.
type JobStatus string

const (
	StatusQueued     JobStatus = "queued"
	StatusAnalyzing  JobStatus = "analyzing"
	StatusPublishing JobStatus = "publishing"
	StatusCompleted  JobStatus = "completed"
	StatusFailed     JobStatus = "failed"
	StatusPartial    JobStatus = "partial"
	StatusDupSkipped JobStatus = "duplicate_skipped"
)

// Done reports whether no further transitions will happen.
func (s JobStatus) Done() bool {
	switch s {
	case StatusCompleted, StatusFailed, StatusPartial, StatusDupSkipped:
		return true
	}
	return false
}

// Job tracks the state of a single uploaded file.
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
	DuplicateOf string    `json:"duplicate_of,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`

	// Internal: not serialized.
	fileData []byte
	result   *sef.Result
	failure  string
	errors   []string
}

// Progress tracks publishing progress.
type Progress struct {
	TotalChapters     int      `json:"total_chapters"`
	ChaptersPublished int      `json:"chapters_published"`
	TotalPages        int      `json:"total_pages"`
	PagesPublished    int      `json:"pages_published"`
	Errors            []string `json:"errors"`
}

// NewJob creates a queued job for an uploaded file.
func NewJob(filename, title string, data []byte) *Job {
	now := time.Now()
	return &Job{
		ID:        uuid.NewString(),
		DocID:     uuid.NewString(),
		Status:    StatusQueued,
		Phase:     "queued",
		Filename:  filename,
		Title:     title,
		CreatedAt: now,
		UpdatedAt: now,
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

// Fail records the analysis failure message and marks the job failed.
func (j *Job) Fail(phase string, err error) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.failure = err.Error()
	j.errors = append(j.errors, fmt.Sprintf("%s: %s", phase, err))
	j.Progress.Errors = j.errors
	j.Status = StatusFailed
	j.Phase = phase
	j.UpdatedAt = time.Now()
}

// Failure returns the analysis failure message, if any.
func (j *Job) Failure() string {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.failure
}

// SetTotals records how many chapters and pages will be published.
func (j *Job) SetTotals(chapters, pages int) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.Progress.TotalChapters = chapters
	j.Progress.TotalPages = pages
	j.UpdatedAt = time.Now()
}

// AddPublished records published chapter and page counts.
func (j *Job) AddPublished(chapters, pages int) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.Progress.ChaptersPublished += chapters
	j.Progress.PagesPublished += pages
	j.UpdatedAt = time.Now()
}

// SetFileData sets the raw file bytes for processing.
func (j *Job) SetFileData(data []byte) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.fileData = data
}

// FileData returns the raw file bytes.
func (j *Job) FileData() []byte {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.fileData
}

// SetResult stores the analysis result and its content hash, and drops the
// raw upload.
func (j *Job) SetResult(res *sef.Result, hash string) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.result = res
	j.ContentHash = hash
	j.fileData = nil
	j.UpdatedAt = time.Now()
}

// Result returns the analysis result, or nil before analysis succeeds.
func (j *Job) Result() *sef.Result {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.result
}

// SetDuplicateOf records the document an identical upload was published as.
func (j *Job) SetDuplicateOf(docID string) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.DuplicateOf = docID
	j.UpdatedAt = time.Now()
}

// JobSnapshot is a read-only, JSON-safe copy of job state.
type JobSnapshot struct {
	ID          string    `json:"job_id"`
	DocID       string    `json:"doc_id"`
	Status      JobStatus `json:"status"`
	Phase       string    `json:"phase"`
	Filename    string    `json:"filename"`
	Title       string    `json:"title"`
	ContentHash string    `json:"content_hash,omitempty"`
	DuplicateOf string    `json:"duplicate_of,omitempty"`
	Progress    Progress  `json:"progress"`
}

// Snapshot returns a JSON-safe copy of the job state.
func (j *Job) Snapshot() JobSnapshot {
	j.mu.Lock()
	defer j.mu.Unlock()
	errs := j.Progress.Errors
	if errs == nil {
		errs = []string{}
	}
	return JobSnapshot{
		ID:          j.ID,
		DocID:       j.DocID,
		Status:      j.Status,
		Phase:       j.Phase,
		Filename:    j.Filename,
		Title:       j.Title,
		ContentHash: j.ContentHash,
		DuplicateOf: j.DuplicateOf,
		Progress: Progress{
			TotalChapters:     j.Progress.TotalChapters,
			ChaptersPublished: j.Progress.ChaptersPublished,
			TotalPages:        j.Progress.TotalPages,
			PagesPublished:    j.Progress.PagesPublished,
			Errors:            append([]string{}, errs...),
		},
	}
}

// ContentHashHex computes SHA-256 of content and returns hex string.
func ContentHashHex(data []byte) string {
	h := sha256.Sum256(data)
	return fmt.Sprintf("%x", h[:])
}
