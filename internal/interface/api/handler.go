package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"portcall-service/internal/domain/entity"
	"portcall-service/internal/domain/repository"
	"portcall-service/internal/usecase"
	"portcall-service/pkg/logger"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// maxBodyBytes bounds request bodies
const maxBodyBytes = 1 << 20

// RequestService tracks asynchronous checklist requests
type RequestService interface {
	Submit(ctx context.Context, userID string, q entity.Query) (*entity.ChecklistRequest, error)
	Status(ctx context.Context, id string) (*entity.ChecklistRequest, error)
	Checklist(ctx context.Context, id string) (*entity.AggregatedDocument, error)
}

// CacheService exposes cache administration
type CacheService interface {
	Stats(ctx context.Context) (*usecase.CacheStats, error)
	PurgeExpired(ctx context.Context) (int, error)
	Invalidate(ctx context.Context, q entity.Query) error
}

// Handler serves the checklist HTTP API
type Handler struct {
	runner   usecase.Runner
	requests RequestService
	cache    CacheService
	version  string
	logger   logger.Logger
}

// NewHandler creates a new API handler
func NewHandler(runner usecase.Runner, requests RequestService, cache CacheService, version string, logger logger.Logger) *Handler {
	return &Handler{
		runner:   runner,
		requests: requests,
		cache:    cache,
		version:  version,
		logger:   logger,
	}
}

// Routes builds the router. metricsHandler is mounted on /metrics when non-nil.
func (h *Handler) Routes(metricsHandler http.Handler) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(h.requestLogger)

	r.Get("/", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("PortCall backend is running"))
	})
	r.Get("/health", h.health)
	if metricsHandler != nil {
		r.Handle("/metrics", metricsHandler)
	}

	r.Route("/api", func(r chi.Router) {
		r.Route("/checklist", func(r chi.Router) {
			r.Post("/", h.submitChecklist)
			r.Post("/sync", h.runChecklist)
			r.Get("/{id}/status", h.checklistStatus)
			r.Get("/{id}", h.getChecklist)
		})
		r.Route("/cache", func(r chi.Router) {
			r.Get("/stats", h.cacheStats)
			r.Post("/purge", h.purgeCache)
			r.Delete("/", h.invalidateCache)
		})
	})

	return r
}

func (h *Handler) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		h.logger.Debug("HTTP request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"requestID", middleware.GetReqID(r.Context()),
			"durationMs", time.Since(start).Milliseconds())
	})
}

func (h *Handler) health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok", "version": h.version})
}

func (h *Handler) submitChecklist(w http.ResponseWriter, r *http.Request) {
	q, ok := h.decodeQuery(w, r)
	if !ok {
		return
	}

	req, err := h.requests.Submit(r.Context(), r.Header.Get("X-User-ID"), q)
	if err != nil {
		h.logger.Error("Failed to submit checklist request", "error", err)
		writeError(w, http.StatusInternalServerError, "Failed to create request.")
		return
	}

	writeJSON(w, http.StatusAccepted, map[string]string{"requestId": req.ID})
}

func (h *Handler) runChecklist(w http.ResponseWriter, r *http.Request) {
	q, ok := h.decodeQuery(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, h.runner.Run(r.Context(), q))
}

func (h *Handler) checklistStatus(w http.ResponseWriter, r *http.Request) {
	req, err := h.requests.Status(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.notFoundOrError(w, err, "Request not found.")
		return
	}

	body := map[string]string{"status": req.Status}
	if req.ErrorDetail != "" {
		body["error"] = req.ErrorDetail
	}
	writeJSON(w, http.StatusOK, body)
}

func (h *Handler) getChecklist(w http.ResponseWriter, r *http.Request) {
	doc, err := h.requests.Checklist(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.notFoundOrError(w, err, "Checklist not found or not ready.")
		return
	}
	writeJSON(w, http.StatusOK, doc)
}

func (h *Handler) cacheStats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.cache.Stats(r.Context())
	if err != nil {
		h.logger.Error("Failed to read cache stats", "error", err)
		writeError(w, http.StatusInternalServerError, "Failed to read cache stats.")
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

func (h *Handler) purgeCache(w http.ResponseWriter, r *http.Request) {
	removed, err := h.cache.PurgeExpired(r.Context())
	if err != nil {
		h.logger.Error("Failed to purge cache", "error", err)
		writeError(w, http.StatusInternalServerError, "Failed to purge cache.")
		return
	}
	writeJSON(w, http.StatusOK, map[string]int{"removed": removed})
}

func (h *Handler) invalidateCache(w http.ResponseWriter, r *http.Request) {
	var q entity.Query
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&q); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON body.")
		return
	}
	if strings.TrimSpace(q.Port) == "" || strings.TrimSpace(q.ActivityType) == "" || strings.TrimSpace(q.YachtFlag) == "" {
		writeError(w, http.StatusBadRequest, "port_name, activity_type and yacht_flag are required.")
		return
	}

	if err := h.cache.Invalidate(r.Context(), q); err != nil {
		h.logger.Error("Failed to invalidate cache entry", "error", err)
		writeError(w, http.StatusInternalServerError, "Failed to invalidate cache entry.")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"invalidated": q.CacheKey()})
}

func (h *Handler) decodeQuery(w http.ResponseWriter, r *http.Request) (entity.Query, bool) {
	var q entity.Query
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&q); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON body.")
		return q, false
	}
	if err := q.Validate(); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return q, false
	}
	return q, true
}

func (h *Handler) notFoundOrError(w http.ResponseWriter, err error, notFound string) {
	if errors.Is(err, repository.ErrNotFound) {
		writeError(w, http.StatusNotFound, notFound)
		return
	}
	h.logger.Error("Request lookup failed", "error", err)
	writeError(w, http.StatusInternalServerError, "Internal error.")
}

func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}
