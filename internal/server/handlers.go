package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/hireloop/talentsearch/internal/models"
	"github.com/hireloop/talentsearch/internal/storage"
)

func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	var req models.SearchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	req.UserID = userID(r)

	s.logger.Debug("search request",
		zap.String("user_id", req.UserID),
		zap.String("query", req.Query))
	response, err := s.orchestrator.Search(r.Context(), &req)
	if err != nil {
		s.respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	s.respondJSON(w, http.StatusOK, response)
}

// handleSearchStream streams stage events as server-sent events. GET carries
// the query in parameters; POST carries a JSON body.
func (s *Server) handleSearchStream(w http.ResponseWriter, r *http.Request) {
	var req models.SearchRequest
	if r.Method == http.MethodPost {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			s.respondError(w, http.StatusBadRequest, "invalid request body")
			return
		}
	} else {
		req.Query = r.URL.Query().Get("q")
		if limit := r.URL.Query().Get("limit"); limit != "" {
			req.Limit, _ = strconv.Atoi(limit)
		}
		req.Enhance = r.URL.Query().Get("enhance") == "true"
	}
	req.UserID = userID(r)

	flusher, ok := w.(http.Flusher)
	if !ok {
		s.respondError(w, http.StatusInternalServerError, "streaming unsupported")
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)

	_ = s.orchestrator.Stream(r.Context(), &req, func(event *models.StageEvent) {
		payload, err := json.Marshal(event)
		if err != nil {
			s.logger.Error("stage event marshal failed", zap.Error(err))
			return
		}
		_, _ = w.Write([]byte("event: " + string(event.Stage) + "\n"))
		_, _ = w.Write([]byte("data: "))
		_, _ = w.Write(payload)
		_, _ = w.Write([]byte("\n\n"))
		flusher.Flush()
	})
}

func (s *Server) handleCreateResume(w http.ResponseWriter, r *http.Request) {
	var input models.ResumeInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	input.UserID = userID(r)

	resume, err := s.indexer.IndexResume(r.Context(), &input)
	if err != nil {
		s.logger.Error("indexing failed", zap.Error(err))
		s.respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	s.respondJSON(w, http.StatusCreated, resume)
}

func (s *Server) handleListResumes(w http.ResponseWriter, r *http.Request) {
	offset, _ := strconv.Atoi(r.URL.Query().Get("offset"))
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	if limit <= 0 || limit > 100 {
		limit = 20
	}

	resumes, err := s.store.ListResumes(r.Context(), userID(r), offset, limit)
	if err != nil {
		s.logger.Error("list resumes failed", zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, "failed to list resumes")
		return
	}
	if resumes == nil {
		resumes = []*models.Resume{}
	}
	s.respondJSON(w, http.StatusOK, map[string]any{
		"resumes": resumes,
		"offset":  offset,
		"limit":   limit,
	})
}

func (s *Server) handleGetResume(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	resume, err := s.store.GetResume(r.Context(), id, userID(r))
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			s.respondError(w, http.StatusNotFound, "resume not found")
			return
		}
		s.logger.Error("get resume failed", zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, "failed to load resume")
		return
	}
	s.respondJSON(w, http.StatusOK, resume)
}

func (s *Server) handleUpdateResume(w http.ResponseWriter, r *http.Request) {
	var input models.ResumeInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	input.ID = chi.URLParam(r, "id")
	input.UserID = userID(r)

	resume, err := s.indexer.UpdateResume(r.Context(), &input)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			s.respondError(w, http.StatusNotFound, "resume not found")
			return
		}
		s.logger.Error("update failed", zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, "failed to update resume")
		return
	}
	s.respondJSON(w, http.StatusOK, resume)
}

func (s *Server) handleDeleteResume(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := s.indexer.DeleteResume(r.Context(), id, userID(r)); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			s.respondError(w, http.StatusNotFound, "resume not found")
			return
		}
		s.logger.Error("deletion failed", zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, "failed to delete resume")
		return
	}
	s.respondJSON(w, http.StatusOK, map[string]string{"id": id, "status": "deleted"})
}

func (s *Server) handleReindex(w http.ResponseWriter, r *http.Request) {
	count, err := s.indexer.ReindexUser(r.Context(), userID(r))
	if err != nil {
		s.logger.Error("reindex failed", zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, "reindex failed")
		return
	}
	s.respondJSON(w, http.StatusOK, map[string]any{"reindexed": count})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	count, err := s.store.CountResumes(r.Context(), userID(r))
	if err != nil {
		s.logger.Error("status: count resumes failed", zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, "status unavailable")
		return
	}

	resp := map[string]any{
		"resumes":           count,
		"vector_index_size": s.index.Size(),
		"llm_enabled":       s.config.LLM.Enabled(),
	}
	if s.emitter != nil {
		resp["analytics_dropped"] = s.emitter.Dropped()
	}
	resp["config"] = map[string]any{
		"embedding_dimensions": s.config.Embedding.Dimensions,
		"default_limit":        s.config.Search.DefaultLimit,
		"max_limit":            s.config.Search.MaxLimit,
		"top_k_candidates":     s.config.Search.TopKCandidates,
	}
	s.respondJSON(w, http.StatusOK, resp)
}

func (s *Server) respondJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func (s *Server) respondError(w http.ResponseWriter, status int, message string) {
	s.respondJSON(w, status, map[string]string{"error": message})
}
