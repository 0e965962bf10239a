// Package debugserver exposes the reconciled realtime state and recent logs
// over HTTP for local debugging.
package debugserver

import (
	"context"
	"encoding/json"
	"errors"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/kindredapp/kindred/internal/realtime"
	"github.com/kindredapp/kindred/pkg/logger"
)

const shutdownTimeout = 5 * time.Second

// StateSource reports the current reconciled state.
type StateSource interface {
	State() realtime.State
}

// Config configures a Server.
type Config struct {
	// Addr is the listen address.
	Addr string
	// State is served on /state. Required.
	State StateSource
	// AppState, when set, receives transitions posted to /app-state/{state}.
	AppState func(realtime.AppState)
	// Logs returns recent log lines. Defaults to logger.Tail.
	Logs func() []string
}

// Server is a local HTTP endpoint for inspecting a running client.
type Server struct {
	config Config
	server *http.Server
}

// New returns a Server for config. Logs defaults to the logger's tail buffer.
// Nothing listens until Run.
func New(config Config) *Server {
	if config.Logs == nil {
		config.Logs = logger.Tail
	}
	return &Server{config: config}
}

// Handler returns the router.
func (s *Server) Handler() http.Handler {
	router := chi.NewRouter()
	router.Get("/healthz", s.healthz)
	router.Get("/state", s.state)
	router.Get("/logs", s.logs)
	if s.config.AppState != nil {
		router.Post("/app-state/{state}", s.appState)
	}
	return router
}

// Run serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.config.Addr)
	if err != nil {
		return err
	}
	s.server = &http.Server{
		Handler:           s.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}
	logger.Infof("debug server listening on %s", ln.Addr())

	errc := make(chan error, 1)
	go func() { errc <- s.server.Serve(ln) }()

	select {
	case err := <-errc:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := s.server.Shutdown(shutdownCtx); err != nil {
		logger.Errorf("debug server shutdown: %v", err)
		return err
	}
	return nil
}

func (s *Server) healthz(w http.ResponseWriter, _ *http.Request) {
	_, _ = w.Write([]byte("ok"))
}

func (s *Server) state(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.config.State.State())
}

// logs serves the log tail as plain text; ?n= limits it to the last n lines.
func (s *Server) logs(w http.ResponseWriter, r *http.Request) {
	lines := s.config.Logs()
	if raw := r.URL.Query().Get("n"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			http.Error(w, "invalid n", http.StatusBadRequest)
			return
		}
		if n < len(lines) {
			lines = lines[len(lines)-n:]
		}
	}
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	for _, line := range lines {
		_, _ = w.Write([]byte(strings.TrimRight(line, "\n") + "\n"))
	}
}

func (s *Server) appState(w http.ResponseWriter, r *http.Request) {
	next, err := realtime.ParseAppState(chi.URLParam(r, "state"))
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	s.config.AppState(next)
	w.WriteHeader(http.StatusNoContent)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.Warnf("debug server: failed to encode response: %v", err)
	}
}
