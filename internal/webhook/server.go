// Package webhook provides the HTTP surface that receives completion
// events from the external task service and hands them to the router.
package webhook

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/fernhill/todosync/internal/router"
	"github.com/fernhill/todosync/internal/types"
)

// Server handles HTTP requests for inbound task events.
type Server struct {
	router     *router.Router
	logger     *slog.Logger
	mux        *http.ServeMux
	httpServer *http.Server
}

// ServerConfig holds configuration for the webhook server.
type ServerConfig struct {
	Router *router.Router
	Logger *slog.Logger
}

// NewServer creates a new webhook server.
func NewServer(cfg ServerConfig) *Server {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	s := &Server{
		router: cfg.Router,
		logger: logger,
		mux:    http.NewServeMux(),
	}

	s.mux.HandleFunc("/api/events", s.handleEvent)
	s.mux.HandleFunc("/health", s.handleHealth)

	return s
}

// Start starts the HTTP server on the given address.
func (s *Server) Start(addr string) error {
	s.httpServer = &http.Server{
		Addr:         addr,
		Handler:      s.mux,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
	return s.httpServer.ListenAndServe()
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.httpServer != nil {
		return s.httpServer.Shutdown(ctx)
	}
	return nil
}

// Handler returns the HTTP handler for use with custom servers.
func (s *Server) Handler() http.Handler {
	return s.mux
}

// EventResponse is the JSON response body.
type EventResponse struct {
	Success bool   `json:"success"`
	Outcome string `json:"outcome,omitempty"`
	Error   string `json:"error,omitempty"`
}

// handleEvent handles POST /api/events.
func (s *Server) handleEvent(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	if r.Method != http.MethodPost {
		s.writeError(w, http.StatusMethodNotAllowed, "method not allowed: use POST")
		return
	}

	body, err := io.ReadAll(io.LimitReader(r.Body, 1<<20)) // 1MB limit
	if err != nil {
		s.writeError(w, http.StatusBadRequest, "failed to read request body")
		return
	}
	defer func() { _ = r.Body.Close() }()

	var ev types.CompletionEvent
	if err := json.Unmarshal(body, &ev); err != nil {
		s.writeError(w, http.StatusBadRequest, fmt.Sprintf("invalid JSON: %v", err))
		return
	}
	if ev.Event == types.EventItemCompleted && ev.TaskID == "" {
		s.writeError(w, http.StatusBadRequest, "missing task_id")
		return
	}

	outcome, err := s.router.Handle(r.Context(), ev)
	if err != nil {
		s.logger.Error("event handling failed", "task_id", ev.TaskID, "error", err)
		s.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	w.WriteHeader(http.StatusOK)
	_ = json.NewEncoder(w).Encode(EventResponse{
		Success: true,
		Outcome: outcome.String(),
	})
}

// handleHealth handles GET /health for load balancer checks.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_ = json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}

// writeError writes a JSON error response.
func (s *Server) writeError(w http.ResponseWriter, status int, message string) {
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(EventResponse{
		Success: false,
		Error:   message,
	})
}
