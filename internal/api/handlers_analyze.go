package api

import (
	"bytes"
	"net/http"
	"path/filepath"
	"strings"
	"time"

	"github.com/dgallion1/sefreader/internal/parser"
	"github.com/dgallion1/sefreader/internal/sef"
)

// handleAnalyze analyzes an upload synchronously and returns the tagged
// result. Format errors are reported as 422 with success=false.
func (s *Server) handleAnalyze(w http.ResponseWriter, r *http.Request) {
	filename, data, ok := s.readUpload(w, r)
	if !ok {
		return
	}

	opts := s.orchestrator.AnalyzeOptions()
	start := time.Now()
	var result sef.AnalysisResult
	if strings.EqualFold(filepath.Ext(filename), ".sef") {
		result = <-sef.AnalyzeAsync(r.Context(), data, opts...)
	} else {
		p, err := parser.ForFile(filename, opts...)
		if err != nil {
			jsonError(w, err.Error(), http.StatusBadRequest)
			return
		}
		result = sef.NewAnalysisResult(p.Parse(bytes.NewReader(data), filename))
	}
	s.orchestrator.Stats().Record(time.Since(start).Milliseconds())

	if !result.Success {
		s.log.Info("analysis rejected", "filename", filename, "error", result.Error)
		writeJSON(w, http.StatusUnprocessableEntity, result)
		return
	}
	writeJSON(w, http.StatusOK, result)
}
