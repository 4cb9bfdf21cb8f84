package api

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"io/fs"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"clipexport/internal/annotation"
	"clipexport/internal/exporter"
	"clipexport/internal/history"
	"clipexport/internal/logging"
	"clipexport/internal/mapping"
)

const maxRequestBody = 1 << 20

// NewRouter builds the chi router for cfg.
func NewRouter(cfg ServerConfig) *chi.Mux {
	logger := logging.NewComponentLogger(cfg.Logger, "api")
	r := chi.NewRouter()
	r.Use(requestIDMiddleware)
	r.Use(recoveryMiddleware(logger))
	r.Use(loggingMiddleware(logger))

	r.Get("/api/health", healthHandler(cfg))

	r.Group(func(r chi.Router) {
		r.Use(authMiddleware(cfg.Token))
		r.Post("/api/runs", createRunHandler(cfg))
		r.Get("/api/runs", listRunsHandler(cfg))
		r.Get("/api/runs/{id}", getRunHandler(cfg))
		r.Get("/api/mapping", mappingHandler(cfg))
	})
	return r
}

func healthHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		resp := HealthResponse{
			Status:  "ok",
			Version: cfg.Version,
			UptimeS: int64(time.Since(cfg.StartTime).Seconds()),
		}
		if last, ok := cfg.Service.Last(); ok {
			resp.LastRun = &last
		}
		WriteJSON(w, http.StatusOK, resp)
	}
}

func createRunHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req RunRequest
		body := http.MaxBytesReader(w, r.Body, maxRequestBody)
		if err := json.NewDecoder(body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
			WriteError(w, http.StatusBadRequest, "invalid request body: "+err.Error(), "BAD_REQUEST")
			return
		}

		// Encodes outlive the request, so the pass must not inherit its cancellation.
		res, err := cfg.Service.Run(context.WithoutCancel(r.Context()), req.Options())
		switch {
		case exporter.IsLocked(err):
			WriteError(w, http.StatusConflict, err.Error(), "RUN_IN_PROGRESS")
		case errors.Is(err, exporter.ErrInvalidSelection):
			WriteError(w, http.StatusBadRequest, err.Error(), "BAD_REQUEST")
		case err != nil:
			resp := RunResponse{Result: res}
			var contErr *annotation.ContinuityError
			if errors.As(err, &contErr) {
				resp.Gaps = contErr.Gaps
			}
			WriteJSON(w, http.StatusUnprocessableEntity, resp)
		case !res.Success:
			WriteJSON(w, http.StatusUnprocessableEntity, RunResponse{Result: res})
		default:
			WriteJSON(w, http.StatusOK, RunResponse{Result: res})
		}
	}
}

func listRunsHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		store := cfg.Service.History()
		if store == nil {
			WriteJSON(w, http.StatusOK, RunListResponse{Runs: []history.Entry{}})
			return
		}
		limit := 20
		if raw := r.URL.Query().Get("limit"); raw != "" {
			n, err := strconv.Atoi(raw)
			if err != nil || n < 0 {
				WriteError(w, http.StatusBadRequest, "limit must be a non-negative integer", "BAD_REQUEST")
				return
			}
			limit = n
		}
		runs, err := store.List(r.Context(), limit)
		if err != nil {
			WriteError(w, http.StatusInternalServerError, err.Error(), "INTERNAL_ERROR")
			return
		}
		if runs == nil {
			runs = []history.Entry{}
		}
		WriteJSON(w, http.StatusOK, RunListResponse{Runs: runs})
	}
}

func getRunHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		store := cfg.Service.History()
		if store == nil {
			WriteError(w, http.StatusNotFound, "run history is disabled", "NOT_FOUND")
			return
		}
		entry, err := store.Get(r.Context(), chi.URLParam(r, "id"))
		if errors.Is(err, history.ErrNotFound) {
			WriteError(w, http.StatusNotFound, err.Error(), "NOT_FOUND")
			return
		}
		if err != nil {
			WriteError(w, http.StatusInternalServerError, err.Error(), "INTERNAL_ERROR")
			return
		}
		WriteJSON(w, http.StatusOK, entry)
	}
}

func mappingHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		path, err := cfg.Service.Config().MappingPath()
		if err != nil {
			WriteError(w, http.StatusInternalServerError, err.Error(), "CONFIG_ERROR")
			return
		}
		artifact, err := mapping.Load(path)
		if errors.Is(err, fs.ErrNotExist) {
			WriteError(w, http.StatusNotFound, "mapping has not been generated yet", "NOT_FOUND")
			return
		}
		if err != nil {
			WriteError(w, http.StatusInternalServerError, err.Error(), "INTERNAL_ERROR")
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write(artifact.MarshalIndent())
	}
}
