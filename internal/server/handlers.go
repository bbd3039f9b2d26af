package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/hyperjump/passagesearch/internal/errs"
	"github.com/hyperjump/passagesearch/internal/models"
	"github.com/hyperjump/passagesearch/internal/storage"
)

const maxRunsLimit = 200

func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	var req models.SearchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	s.runSearch(r.Context(), w, req)
}

func (s *Server) handleSearchGet(w http.ResponseWriter, r *http.Request) {
	s.runSearch(r.Context(), w, models.SearchRequest{Query: r.URL.Query().Get("q")})
}

func (s *Server) runSearch(ctx context.Context, w http.ResponseWriter, req models.SearchRequest) {
	req.Normalize()
	s.logger.Debug("search request", zap.String("query", req.Query))
	response, err := s.search.Search(ctx, req.Query)
	if err != nil {
		status := errs.HTTPStatus(err)
		if status >= http.StatusInternalServerError {
			s.logger.Error("search failed", zap.String("query", req.Query), zap.Error(err))
		}
		s.respondError(w, status, err.Error())
		return
	}
	s.respondJSON(w, http.StatusOK, response)
}

func (s *Server) handleListRuns(w http.ResponseWriter, r *http.Request) {
	if s.runs == nil {
		s.respondError(w, http.StatusNotImplemented, "run ledger not enabled")
		return
	}
	limit := 20
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			s.respondError(w, http.StatusBadRequest, "limit must be a positive integer")
			return
		}
		limit = min(n, maxRunsLimit)
	}
	index := r.URL.Query().Get("index")
	runs, err := s.runs.ListRuns(r.Context(), index, limit)
	if err != nil {
		s.logger.Error("list runs failed", zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if runs == nil {
		runs = []*models.IngestionRun{}
	}
	s.respondJSON(w, http.StatusOK, map[string]interface{}{"runs": runs})
}

func (s *Server) handleGetRun(w http.ResponseWriter, r *http.Request) {
	if s.runs == nil {
		s.respondError(w, http.StatusNotImplemented, "run ledger not enabled")
		return
	}
	id := chi.URLParam(r, "id")
	run, err := s.runs.GetRun(r.Context(), id)
	if errors.Is(err, storage.ErrRunNotFound) {
		s.respondError(w, http.StatusNotFound, "run not found")
		return
	}
	if err != nil {
		s.logger.Error("get run failed", zap.String("id", id), zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.respondJSON(w, http.StatusOK, run)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if err := s.engine.Ping(r.Context()); err != nil {
		s.respondJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable", "error": err.Error()})
		return
	}
	s.respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	index := s.search.Index()
	resp := map[string]interface{}{
		"index":   index,
		"backend": s.config.Engine.Backend,
	}

	if err := s.engine.Ping(ctx); err != nil {
		resp["engine"] = "unavailable"
	} else {
		resp["engine"] = "ok"
		count, err := s.engine.Count(ctx, index)
		if err != nil {
			s.logger.Warn("status: count documents failed", zap.Error(err))
		} else {
			resp["documents"] = count
		}
	}

	if s.runs != nil {
		last, err := s.runs.LastRun(ctx, index)
		if err != nil {
			s.logger.Error("status: last run failed", zap.Error(err))
			s.respondError(w, http.StatusInternalServerError, err.Error())
			return
		}
		if last != nil {
			resp["last_run"] = last
		}
	}

	resp["config"] = map[string]interface{}{
		"batch_size":    s.config.Ingest.BatchSize,
		"max_documents": s.config.Ingest.MaxDocuments,
		"cap_policy":    s.config.Ingest.CapPolicy,
		"search_size":   s.config.Search.Size,
		"augment_top":   s.config.Search.AugmentTop,
		"model":         s.config.Augment.Model,
		"database_path": s.config.Storage.DatabasePath,
	}
	if diskBytes, err := storage.DiskUsageBytes(s.config.Storage.DatabasePath, s.config.Engine.BlevePath); err == nil {
		resp["disk_usage_bytes"] = diskBytes
	}
	s.respondJSON(w, http.StatusOK, resp)
}

func (s *Server) respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func (s *Server) respondError(w http.ResponseWriter, status int, message string) {
	s.respondJSON(w, status, map[string]string{"error": message})
}
