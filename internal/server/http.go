package server

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"
)

// ActorHeader names the caller for the audit trail. It is informational only.
const ActorHeader = "X-Fundrazor-Actor"

// NewHTTPHandler returns an http.Handler with all routes registered.
// When authToken is non-empty, requests (except GET /api/health) must include
// a valid Authorization: Bearer <token> header.
func (s *CanvasServer) NewHTTPHandler(authToken string) http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/organization-canvases", s.handleListCanvases)
	mux.HandleFunc("POST /api/organization-canvases", s.handleCreateCanvas)
	mux.HandleFunc("GET /api/organization-canvases/{id}", s.handleGetCanvas)
	mux.HandleFunc("PUT /api/organization-canvases/{id}", s.handleUpdateCanvas)
	mux.HandleFunc("PATCH /api/organization-canvases/{id}", s.handleRenameCanvas)
	mux.HandleFunc("DELETE /api/organization-canvases/{id}", s.handleDeleteCanvas)
	mux.HandleFunc("GET /api/organization-canvases/{id}/events", s.handleGetEvents)
	mux.HandleFunc("GET /api/organization-canvases/{id}/diagram", s.handleGetDiagram)
	mux.HandleFunc("GET /api/organization-canvases/{id}/presence", s.handleGetPresence)
	mux.HandleFunc("POST /api/organization-canvases/{id}/presence", s.handleHeartbeat)
	mux.HandleFunc("DELETE /api/organization-canvases/{id}/presence/{session}", s.handleLeave)
	mux.HandleFunc("GET /api/artifacts", s.handleListArtifacts)
	mux.HandleFunc("GET /api/artifacts/software-categories", s.handleSoftwareCategories)
	mux.HandleFunc("GET /api/artifacts/{id}", s.handleGetArtifact)
	mux.HandleFunc("GET /api/events/stream", s.handleEventStream)
	mux.HandleFunc("GET /api/health", s.handleHealth)
	return RequestLogger(RecoveryMiddleware(AuthMiddleware(authToken, mux)))
}

// pinger is implemented by stores that can check their backing database.
type pinger interface {
	Ping(ctx context.Context) error
}

// handleHealth handles GET /api/health.
func (s *CanvasServer) handleHealth(w http.ResponseWriter, r *http.Request) {
	if err := s.health(r.Context()); err != nil {
		writeError(w, http.StatusServiceUnavailable, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *CanvasServer) health(ctx context.Context) error {
	p, ok := s.store.(pinger)
	if !ok {
		return nil
	}
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	return p.Ping(ctx)
}

// actorFrom returns the caller named by ActorHeader, if any.
func actorFrom(r *http.Request) string {
	return r.Header.Get(ActorHeader)
}

// decodeBody decodes a JSON request body into v, writing a 400 on failure.
func decodeBody(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return false
	}
	return true
}

// writeJSON writes a JSON response with the given status code.
func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

// writeError writes a JSON error response.
func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}

// statusRecorder captures the status code written by a handler.
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

// Unwrap lets http.ResponseController reach the underlying writer, which the
// event stream needs for flushing and clearing the write deadline.
func (r *statusRecorder) Unwrap() http.ResponseWriter {
	return r.ResponseWriter
}

// RequestLogger logs the method, path, status and duration of every request.
func RequestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		level := slog.LevelInfo
		if rec.status >= http.StatusInternalServerError {
			level = slog.LevelError
		}
		slog.Log(r.Context(), level, "http request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", rec.status,
			"duration", time.Since(start),
		)
	})
}
