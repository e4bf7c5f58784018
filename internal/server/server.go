package server

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/jpalmerr/netwait/internal/store"
)

const shutdownTimeout = 5 * time.Second

// Status is the JSON document served at /api/status.
type Status struct {
	SessionID string `json:"session_id"`
	Target    string `json:"target"`
	State     string `json:"state"`
	Attempts  int    `json:"attempts"`

	// LatencyMs is the latency of the successful probe; null until then.
	LatencyMs *int64 `json:"latency_ms"`

	// Recent lists the latest attempts, newest first.
	Recent []store.Record `json:"recent"`
}

// Source supplies the current [Status].
type Source interface {
	Status(ctx context.Context) (Status, error)
}

// Server handles HTTP requests for the status endpoint.
//
// The server is designed for graceful shutdown via context cancellation.
type Server struct {
	source     Source
	addr       string
	httpServer *http.Server
	listener   net.Listener
	logger     *slog.Logger
}

// NewServer creates a new HTTP [Server] listening on addr (e.g. ":8080" or
// "127.0.0.1:0"). The server is not started until [Server.Start] is called.
func NewServer(src Source, addr string, logger *slog.Logger) *Server {
	return &Server{
		source: src,
		addr:   addr,
		logger: logger,
	}
}

// Handler returns the HTTP handler serving the API routes.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/status", s.handleStatus)
	return mux
}

// Start begins serving HTTP requests in a background goroutine.
//
// Start is non-blocking and returns immediately after confirming the server
// is listening. The server runs until ctx is cancelled, then shuts down
// gracefully with a 5-second timeout.
//
// Returns an error if the server fails to bind to the configured address.
func (s *Server) Start(ctx context.Context) error {
	// create listener first to verify the address synchronously
	ln, err := net.Listen("tcp", s.addr)
	if err != nil {
		return fmt.Errorf("failed to bind to %s: %w", s.addr, err)
	}
	s.listener = ln

	s.httpServer = &http.Server{
		Handler:           s.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
		BaseContext: func(_ net.Listener) context.Context {
			return ctx
		},
	}

	go func() {
		if err := s.httpServer.Serve(ln); err != nil && err != http.ErrServerClosed {
			s.logger.Error("http server error", "error", err)
		}
	}()

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
			s.logger.Error("http server shutdown error", "error", err)
		}
	}()

	s.logger.Info("status endpoint listening", "addr", ln.Addr().String())
	return nil
}

// Addr returns the bound listener address, or the configured address before
// Start.
func (s *Server) Addr() string {
	if s.listener != nil {
		return s.listener.Addr().String()
	}
	return s.addr
}

// handleStatus returns the current poller status as JSON.
func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.Header().Set("Allow", http.MethodGet)
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	status, err := s.source.Status(r.Context())
	if err != nil {
		s.logger.Warn("status lookup failed", "error", err)
		http.Error(w, "status unavailable", http.StatusInternalServerError)
		return
	}
	if status.Recent == nil {
		status.Recent = []store.Record{}
	}

	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "no-cache")
	if err := json.NewEncoder(w).Encode(status); err != nil {
		s.logger.Error("failed to encode status", "error", err)
	}
}
