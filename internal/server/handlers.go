package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/ziadkadry99/docrag/internal/audit"
	"github.com/ziadkadry99/docrag/internal/index"
	"github.com/ziadkadry99/docrag/internal/settings"
)

type handler struct {
	deps   Deps
	logger *zap.Logger
}

type documentRequest struct {
	ID         string `json:"id"`
	Content    string `json:"content"`
	FolderPath string `json:"folder_path"`
}

type documentResponse struct {
	ID            string `json:"id"`
	Content       string `json:"content"`
	FolderPath    string `json:"folder_path"`
	FolderCreated bool   `json:"folder_created"`
}

type questionRequest struct {
	Question   string `json:"question"`
	NumResults int    `json:"num_results,omitempty"`
}

type messageResponse struct {
	Message string `json:"message"`
}

func (h *handler) addDocument(w http.ResponseWriter, r *http.Request) {
	var req documentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.ID == "" {
		writeError(w, http.StatusBadRequest, "id is required")
		return
	}

	ctx := audit.WithActor(r.Context(), audit.ActorAPI)
	res, err := h.deps.Library.Put(ctx, index.Record{ID: req.ID, Content: req.Content, FolderPath: req.FolderPath})
	if err != nil {
		h.fail(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, documentResponse{
		ID:            req.ID,
		Content:       req.Content,
		FolderPath:    req.FolderPath,
		FolderCreated: res.FolderCreated,
	})
}

func (h *handler) listDocuments(w http.ResponseWriter, r *http.Request) {
	recs, err := h.deps.Library.List(r.Context())
	if err != nil {
		h.fail(w, r, err)
		return
	}
	if recs == nil {
		recs = []index.Record{}
	}
	writeJSON(w, http.StatusOK, recs)
}

func (h *handler) deleteDocument(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	folderPath := r.URL.Query().Get("folder_path")

	ctx := audit.WithActor(r.Context(), audit.ActorAPI)
	deleted, err := h.deps.Library.Delete(ctx, id, folderPath)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	if !deleted {
		writeError(w, http.StatusNotFound, fmt.Sprintf("Document %s not found", id))
		return
	}
	writeJSON(w, http.StatusOK, messageResponse{Message: fmt.Sprintf("Document %s deleted successfully", id)})
}

func (h *handler) decodeQuestion(w http.ResponseWriter, r *http.Request) (questionRequest, bool) {
	var req questionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return req, false
	}
	if req.NumResults < 0 {
		writeError(w, http.StatusBadRequest, settings.ErrInvalidNumResults.Error())
		return req, false
	}
	return req, true
}

func (h *handler) query(w http.ResponseWriter, r *http.Request) {
	req, ok := h.decodeQuestion(w, r)
	if !ok {
		return
	}
	ans, err := h.deps.Engine.Query(r.Context(), req.Question, req.NumResults)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, ans)
}

func (h *handler) search(w http.ResponseWriter, r *http.Request) {
	req, ok := h.decodeQuestion(w, r)
	if !ok {
		return
	}
	hits, err := h.deps.Engine.Search(r.Context(), req.Question, req.NumResults)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	if hits == nil {
		hits = []index.Hit{}
	}
	writeJSON(w, http.StatusOK, hits)
}

func (h *handler) stats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.deps.Lifecycle.Stats(r.Context())
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

func (h *handler) reindex(w http.ResponseWriter, r *http.Request) {
	ctx := audit.WithActor(r.Context(), audit.ActorAPI)
	if _, err := h.deps.Lifecycle.Reindex(ctx, nil); err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, messageResponse{Message: "Index rebuilt successfully"})
}

func (h *handler) model(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"model": h.deps.Engine.Model()})
}

type searchConfig struct {
	NumResults int `json:"num_results"`
}

func (h *handler) getSearchConfig(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, searchConfig{NumResults: h.deps.Settings.NumResults()})
}

func (h *handler) updateSearchConfig(w http.ResponseWriter, r *http.Request) {
	var req searchConfig
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	ctx := r.Context()
	if err := h.deps.Settings.SetNumResults(ctx, req.NumResults); err != nil {
		if errors.Is(err, settings.ErrInvalidNumResults) {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		h.fail(w, r, err)
		return
	}
	h.record(r, audit.Entry{
		Action:  audit.ActionSearchConfigUpdated,
		Summary: fmt.Sprintf("num_results set to %d", req.NumResults),
	})
	writeJSON(w, http.StatusOK, messageResponse{Message: "Search configuration updated successfully"})
}

func (h *handler) getLLMConfig(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.deps.Settings.LLM())
}

func (h *handler) updateLLMConfig(w http.ResponseWriter, r *http.Request) {
	var req settings.LLMOptions
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := h.deps.Settings.SetLLM(r.Context(), req); err != nil {
		h.fail(w, r, err)
		return
	}
	h.record(r, audit.Entry{
		Action: audit.ActionLLMConfigUpdated,
		Summary: fmt.Sprintf("temperature=%g num_ctx=%d repeat_penalty=%g",
			req.Temperature, req.NumCtx, req.RepeatPenalty),
	})
	writeJSON(w, http.StatusOK, messageResponse{Message: "LLM configuration updated successfully"})
}

// fail logs err and answers 500.
func (h *handler) fail(w http.ResponseWriter, r *http.Request, err error) {
	h.logger.Error("request failed",
		zap.String("method", r.Method),
		zap.String("path", r.URL.Path),
		zap.Error(err))
	writeError(w, http.StatusInternalServerError, err.Error())
}

func (h *handler) record(r *http.Request, entry audit.Entry) {
	if h.deps.Audit == nil {
		return
	}
	entry.Actor = audit.ActorAPI
	if err := h.deps.Audit.Log(r.Context(), entry); err != nil {
		h.logger.Warn("audit log failed", zap.String("action", string(entry.Action)), zap.Error(err))
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
