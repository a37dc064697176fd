package api

import (
	"encoding/json"
	"net/http"

	"github.com/dgallion1/sefreader/internal/pathstore"
	"github.com/go-chi/chi/v5"
)

// handleListDocuments lists published documents by their meta nodes.
func (s *Server) handleListDocuments(w http.ResponseWriter, r *http.Request) {
	ps := s.orchestrator.PathstoreClient()
	if ps == nil {
		jsonError(w, "publishing is disabled", http.StatusServiceUnavailable)
		return
	}

	children, err := ps.ListChildren(r.Context(), pathstore.DocumentsRoot, 1000)
	if err != nil {
		jsonError(w, "failed to list documents: "+err.Error(), http.StatusInternalServerError)
		return
	}

	docs := []map[string]any{}
	for _, child := range children {
		docID := pathstore.MetaDocumentID(child.Key)
		if docID == "" {
			continue
		}
		docs = append(docs, map[string]any{
			"doc_id": docID,
			"meta":   child.Value,
		})
	}
	writeJSON(w, http.StatusOK, map[string]any{"documents": docs})
}

// handleDeleteDocument deletes a document subtree and its hash index entry.
func (s *Server) handleDeleteDocument(w http.ResponseWriter, r *http.Request) {
	ps := s.orchestrator.PathstoreClient()
	if ps == nil {
		jsonError(w, "publishing is disabled", http.StatusServiceUnavailable)
		return
	}
	ctx := r.Context()
	docID := chi.URLParam(r, "docID")

	meta, err := ps.GetNode(ctx, pathstore.MetaKey(docID))
	if err != nil {
		jsonError(w, "failed to read document: "+err.Error(), http.StatusInternalServerError)
		return
	}
	if meta == nil {
		jsonError(w, "document not found", http.StatusNotFound)
		return
	}

	if err := ps.DeleteNode(ctx, pathstore.DocumentKey(docID), true); err != nil {
		jsonError(w, "failed to delete document: "+err.Error(), http.StatusInternalServerError)
		return
	}

	hashDeleted := false
	var fields struct {
		ContentHash string `json:"content_hash"`
	}
	if json.Unmarshal(meta.Value, &fields) == nil && fields.ContentHash != "" {
		if err := ps.DeleteNode(ctx, pathstore.HashKey(fields.ContentHash, docID), false); err != nil {
			s.log.Warn("hash index delete failed", "doc_id", docID, "error", err)
		} else {
			hashDeleted = true
		}
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"doc_id":       docID,
		"deleted":      true,
		"hash_deleted": hashDeleted,
	})
}
