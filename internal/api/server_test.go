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
	"os"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/dgallion1/sefreader/internal/config"
	"github.com/dgallion1/sefreader/internal/pathstore"
	"github.com/dgallion1/sefreader/internal/pipeline"
	"github.com/dgallion1/sefreader/internal/sef"
)

const (
	testKey   = "test-key"
	storyText = "Outline\n\tSection A\n\tSection B\n{\\rtf1 A content}{\\rtf1 B content}"
)

func newTestServer(t *testing.T, ps *pathstore.Client) *Server {
	t.Helper()
	cfg := config.Defaults()
	cfg.APIKey = testKey
	cfg.WorkerCount = 1
	log := slog.New(slog.DiscardHandler)

	orch := pipeline.NewOrchestrator(cfg, ps, log)
	orch.Start(context.Background())
	t.Cleanup(orch.Stop)
	return NewServer(orch, log, cfg)
}

func storyFile(t *testing.T) []byte {
	t.Helper()
	data, err := sef.Encode(storyText, sef.Header{})
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	return data
}

func uploadRequest(t *testing.T, path, filename string, data []byte, fields map[string]string) *http.Request {
	t.Helper()
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	for k, v := range fields {
		mw.WriteField(k, v)
	}
	fw, err := mw.CreateFormFile("file", filename)
	if err != nil {
		t.Fatalf("create form file: %v", err)
	}
	fw.Write(data)
	mw.Close()

	req := httptest.NewRequest(http.MethodPost, path, &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.Header.Set("Authorization", "Bearer "+testKey)
	return req
}

func authed(method, path string) *http.Request {
	req := httptest.NewRequest(method, path, nil)
	req.Header.Set("Authorization", "Bearer "+testKey)
	return req
}

func serve(s *Server, req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	s.ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder, v any) {
	t.Helper()
	if err := json.Unmarshal(rec.Body.Bytes(), v); err != nil {
		t.Fatalf("decode %q: %v", rec.Body.String(), err)
	}
}

func TestHealth(t *testing.T) {
	s := newTestServer(t, nil)
	rec := serve(s, httptest.NewRequest(http.MethodGet, "/health", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var body map[string]any
	decode(t, rec, &body)
	if body["status"] != "ok" {
		t.Errorf("expected status ok, got %v", body["status"])
	}
	if body["publishing"] != false {
		t.Errorf("expected publishing=false, got %v", body["publishing"])
	}
}

func TestAuth(t *testing.T) {
	s := newTestServer(t, nil)

	rec := serve(s, httptest.NewRequest(http.MethodGet, "/api/stats/analysis", nil))
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("expected 401 without token, got %d", rec.Code)
	}

	req := httptest.NewRequest(http.MethodGet, "/api/stats/analysis", nil)
	req.Header.Set("Authorization", "Bearer wrong")
	if rec := serve(s, req); rec.Code != http.StatusUnauthorized {
		t.Errorf("expected 401 with wrong token, got %d", rec.Code)
	}

	if rec := serve(s, authed(http.MethodGet, "/api/stats/analysis")); rec.Code != http.StatusOK {
		t.Errorf("expected 200 with token, got %d", rec.Code)
	}
}

func TestAnalyze(t *testing.T) {
	s := newTestServer(t, nil)
	rec := serve(s, uploadRequest(t, "/api/analyze", "story.sef", storyFile(t), nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	var res sef.AnalysisResult
	decode(t, rec, &res)
	if !res.Success {
		t.Fatalf("expected success, got error %q", res.Error)
	}
	if len(res.Hierarchy) != 3 {
		t.Errorf("expected 3 outline entries, got %d", len(res.Hierarchy))
	}
	if len(res.Chapters) != 3 || res.Chapters[0].Content != "A content" {
		t.Errorf("unexpected chapters %+v", res.Chapters)
	}
	if res.FileSize != len(storyFile(t)) {
		t.Errorf("expected file size %d, got %d", len(storyFile(t)), res.FileSize)
	}
}

func TestAnalyze_FormatError(t *testing.T) {
	s := newTestServer(t, nil)
	bad := append([]byte{0x01, 0x02}, make([]byte, 30)...)
	rec := serve(s, uploadRequest(t, "/api/analyze", "bad.sef", bad, nil))
	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422, got %d", rec.Code)
	}
	var res sef.AnalysisResult
	decode(t, rec, &res)
	if res.Success || !strings.Contains(res.Error, "magic") {
		t.Errorf("expected bad magic failure, got %+v", res)
	}
}

func TestAnalyze_RTF(t *testing.T) {
	s := newTestServer(t, nil)
	rtf := []byte("Chapter\n{\\rtf1 body text}")
	rec := serve(s, uploadRequest(t, "/api/analyze", "story.rtf", rtf, nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	var res sef.AnalysisResult
	decode(t, rec, &res)
	if len(res.Chapters) != 1 || res.Chapters[0].Content != "body text" {
		t.Errorf("unexpected chapters %+v", res.Chapters)
	}
}

func TestAnalyze_UnsupportedExtension(t *testing.T) {
	s := newTestServer(t, nil)
	rec := serve(s, uploadRequest(t, "/api/analyze", "notes.pdf", []byte("%PDF"), nil))
	if rec.Code != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", rec.Code)
	}
}

func TestAnalyze_TooLarge(t *testing.T) {
	s := newTestServer(t, nil)
	s.cfg.MaxUploadBytes = 8
	rec := serve(s, uploadRequest(t, "/api/analyze", "story.sef", storyFile(t), nil))
	if rec.Code != http.StatusRequestEntityTooLarge {
		t.Errorf("expected 413, got %d", rec.Code)
	}
}

func submitAndWait(t *testing.T, s *Server, filename string, data []byte) string {
	t.Helper()
	rec := serve(s, uploadRequest(t, "/api/jobs", filename, data, nil))
	if rec.Code != http.StatusAccepted {
		t.Fatalf("expected 202, got %d: %s", rec.Code, rec.Body.String())
	}
	var body map[string]any
	decode(t, rec, &body)
	jobID, _ := body["job_id"].(string)
	if jobID == "" {
		t.Fatal("expected job id")
	}
	if body["poll_url"] != "/api/jobs/"+jobID+"/status" {
		t.Errorf("unexpected poll url %v", body["poll_url"])
	}

	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		if s.orchestrator.GetJob(jobID).Snapshot().Status.Done() {
			return jobID
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("job %s did not finish", jobID)
	return ""
}

func TestJobs_Lifecycle(t *testing.T) {
	s := newTestServer(t, nil)
	jobID := submitAndWait(t, s, "story.sef", storyFile(t))
	base := "/api/jobs/" + jobID

	rec := serve(s, authed(http.MethodGet, base+"/status"))
	var status map[string]any
	decode(t, rec, &status)
	if status["status"] != string(pipeline.StatusCompleted) {
		t.Errorf("expected completed, got %v", status["status"])
	}

	rec = serve(s, authed(http.MethodGet, base+"/result"))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var res sef.Result
	decode(t, rec, &res)
	if len(res.Chapters) != 3 || res.PayloadOffset != 18 {
		t.Errorf("unexpected result: %d chapters, offset %d", len(res.Chapters), res.PayloadOffset)
	}

	rec = serve(s, authed(http.MethodGet, base+"/chapters/2"))
	var ch map[string]any
	decode(t, rec, &ch)
	if ch["placeholder"] != true {
		t.Errorf("expected chapter 2 to be a placeholder, got %v", ch)
	}

	rec = serve(s, authed(http.MethodGet, base+"/chapters/1?page=0"))
	var page map[string]any
	decode(t, rec, &page)
	if page["text"] != "B content" || page["title"] != "Section A" {
		t.Errorf("unexpected page %v", page)
	}

	if rec := serve(s, authed(http.MethodGet, base+"/chapters/9")); rec.Code != http.StatusNotFound {
		t.Errorf("expected 404 for missing chapter, got %d", rec.Code)
	}
	if rec := serve(s, authed(http.MethodGet, base+"/chapters/0?page=5")); rec.Code != http.StatusNotFound {
		t.Errorf("expected 404 for missing page, got %d", rec.Code)
	}
}

func TestJobs_Export(t *testing.T) {
	s := newTestServer(t, nil)
	jobID := submitAndWait(t, s, "story.sef", storyFile(t))

	rec := serve(s, authed(http.MethodGet, "/api/jobs/"+jobID+"/export?format=md"))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); !strings.HasPrefix(ct, "text/markdown") {
		t.Errorf("unexpected content type %q", ct)
	}
	if cd := rec.Header().Get("Content-Disposition"); !strings.Contains(cd, "story.md") {
		t.Errorf("unexpected content disposition %q", cd)
	}
	body, _ := io.ReadAll(rec.Body)
	if !strings.HasPrefix(string(body), "# story") {
		t.Errorf("expected markdown title, got %q", body)
	}

	rec = serve(s, authed(http.MethodGet, "/api/jobs/"+jobID+"/export?format=pdf"))
	if rec.Code != http.StatusBadRequest {
		t.Errorf("expected 400 for unknown format, got %d", rec.Code)
	}
}

func TestJobs_FailedAnalysis(t *testing.T) {
	s := newTestServer(t, nil)
	jobID := submitAndWait(t, s, "bad.sef", []byte("tiny"))

	rec := serve(s, authed(http.MethodGet, "/api/jobs/"+jobID+"/result"))
	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422, got %d", rec.Code)
	}
	var res sef.AnalysisResult
	decode(t, rec, &res)
	if res.Success || res.Error == "" {
		t.Errorf("expected failure message, got %+v", res)
	}

	var status map[string]any
	decode(t, serve(s, authed(http.MethodGet, "/api/jobs/"+jobID+"/status")), &status)
	if status["status"] != string(pipeline.StatusFailed) || status["error"] == nil {
		t.Errorf("expected failed status with error, got %v", status)
	}
}

func TestJobs_NotFound(t *testing.T) {
	s := newTestServer(t, nil)
	for _, path := range []string{"/status", "/result", "/chapters/0", "/export"} {
		rec := serve(s, authed(http.MethodGet, "/api/jobs/missing"+path))
		if rec.Code != http.StatusNotFound {
			t.Errorf("%s: expected 404, got %d", path, rec.Code)
		}
	}
}

func TestDocuments_PublishingDisabled(t *testing.T) {
	s := newTestServer(t, nil)
	if rec := serve(s, authed(http.MethodGet, "/api/documents")); rec.Code != http.StatusServiceUnavailable {
		t.Errorf("expected 503, got %d", rec.Code)
	}
	if rec := serve(s, authed(http.MethodDelete, "/api/documents/x")); rec.Code != http.StatusServiceUnavailable {
		t.Errorf("expected 503, got %d", rec.Code)
	}
}

// fakePathstore serves the few pathstore routes the document handlers use.
type fakePathstore struct {
	mu      sync.Mutex
	deleted []string
}

func (f *fakePathstore) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	switch {
	case r.Method == http.MethodGet && r.URL.Path == "/kv/sef/documents/*":
		json.NewEncoder(w).Encode(map[string]any{"nodes": []map[string]any{
			{"key_path": "sef/documents/doc-1/meta", "value": map[string]any{"title": "銀河"}},
			{"key_path": "sef/documents/doc-1/chapters/0", "value": map[string]any{}},
		}})
	case r.Method == http.MethodGet && r.URL.Path == "/kv/sef/documents/doc-1/meta":
		json.NewEncoder(w).Encode(map[string]any{
			"key_path": "sef/documents/doc-1/meta",
			"value":    map[string]any{"content_hash": "abc"},
		})
	case r.Method == http.MethodGet:
		http.NotFound(w, r)
	case r.Method == http.MethodDelete:
		f.mu.Lock()
		f.deleted = append(f.deleted, r.URL.Path+"?"+r.URL.RawQuery)
		f.mu.Unlock()
		w.WriteHeader(http.StatusNoContent)
	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

func TestDocuments_List(t *testing.T) {
	fake := &fakePathstore{}
	srv := httptest.NewServer(fake)
	defer srv.Close()
	s := newTestServer(t, pathstore.NewClient(srv.URL, "ps-key"))

	rec := serve(s, authed(http.MethodGet, "/api/documents"))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	var body struct {
		Documents []struct {
			DocID string         `json:"doc_id"`
			Meta  map[string]any `json:"meta"`
		} `json:"documents"`
	}
	decode(t, rec, &body)
	if len(body.Documents) != 1 {
		t.Fatalf("expected 1 document, got %d", len(body.Documents))
	}
	if body.Documents[0].DocID != "doc-1" || body.Documents[0].Meta["title"] != "銀河" {
		t.Errorf("unexpected document %+v", body.Documents[0])
	}
}

func TestDocuments_Delete(t *testing.T) {
	fake := &fakePathstore{}
	srv := httptest.NewServer(fake)
	defer srv.Close()
	s := newTestServer(t, pathstore.NewClient(srv.URL, "ps-key"))

	rec := serve(s, authed(http.MethodDelete, "/api/documents/doc-1"))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	var body map[string]any
	decode(t, rec, &body)
	if body["hash_deleted"] != true {
		t.Errorf("expected hash index to be deleted, got %v", body)
	}

	fake.mu.Lock()
	defer fake.mu.Unlock()
	want := []string{
		"/kv/sef/documents/doc-1?children=true",
		"/kv/sef/by_hash/abc/doc-1?",
	}
	if len(fake.deleted) != len(want) {
		t.Fatalf("expected deletes %v, got %v", want, fake.deleted)
	}
	for i := range want {
		if fake.deleted[i] != want[i] {
			t.Errorf("delete %d: expected %q, got %q", i, want[i], fake.deleted[i])
		}
	}

	if rec := serve(s, authed(http.MethodDelete, "/api/documents/other")); rec.Code != http.StatusNotFound {
		t.Errorf("expected 404 for unknown document, got %d", rec.Code)
	}
}

func TestSanitizeFilename(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"story.sef", "story.sef"},
		{"../../etc/passwd", "passwd"},
		{`C:\Users\me\物語.sef`, "物語.sef"},
		{"", "unnamed"},
		{"a..b.sef", "a_b.sef"},
	}
	for _, tt := range tests {
		if got := sanitizeFilename(tt.in); got != tt.want {
			t.Errorf("sanitizeFilename(%q): expected %q, got %q", tt.in, tt.want, got)
		}
	}
}

func TestUpload_RemovesTempFiles(t *testing.T) {
	old := multipartMemory
	multipartMemory = 0
	t.Cleanup(func() { multipartMemory = old })
	tmp := t.TempDir()
	t.Setenv("TMPDIR", tmp)

	s := newTestServer(t, nil)
	big := storyFile(t)
	tests := []struct {
		name     string
		filename string
		data     []byte
		maxBytes int64
		want     int
	}{
		{"unsupported extension", "notes.pdf", []byte("%PDF-1.4"), 1 << 20, http.StatusBadRequest},
		{"too large", "story.sef", big, int64(len(big) - 1), http.StatusRequestEntityTooLarge},
		{"accepted", "story.sef", big, 1 << 20, http.StatusOK},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s.cfg.MaxUploadBytes = tt.maxBytes
			rec := serve(s, uploadRequest(t, "/api/analyze", tt.filename, tt.data, nil))
			if rec.Code != tt.want {
				t.Fatalf("expected %d, got %d", tt.want, rec.Code)
			}
			entries, err := os.ReadDir(tmp)
			if err != nil {
				t.Fatalf("read temp dir: %v", err)
			}
			if len(entries) != 0 {
				t.Errorf("expected temp files to be removed, found %d", len(entries))
			}
		})
	}
}
