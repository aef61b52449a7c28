package web

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"github.com/chimed/chimed/internal/api/rpc"
	"github.com/chimed/chimed/internal/logger"
)

// shutdownTimeout bounds the graceful drain on daemon stop.
const shutdownTimeout = 5 * time.Second

var (
	// errNoStatusProvider is returned when the server is built without a
	// status source.
	errNoStatusProvider = errors.New("status provider is required")
	// errNoAddr is returned when no listen address is configured.
	errNoAddr = errors.New("listen address is required")
)

// StatusProvider produces the document served at /api/v1/status.
type StatusProvider interface {
	Status(ctx context.Context) *rpc.StatusResult
}

// Options configures the ops HTTP server.
type Options struct {
	// Addr is the listen address, e.g. "127.0.0.1:9321".
	Addr string
	// Status produces the status document. Required.
	Status StatusProvider
	// MetricsHandler serves GET /metrics. Optional.
	MetricsHandler http.Handler
}

// Server is the ops HTTP listener.
type Server struct {
	httpServer *http.Server
	status     StatusProvider
}

// New builds the ops HTTP server with its routes registered.
func New(opts *Options) (*Server, error) {
	if opts == nil || opts.Status == nil {
		return nil, errNoStatusProvider
	}

	if opts.Addr == "" {
		return nil, errNoAddr
	}

	s := &Server{status: opts.Status}

	router := mux.NewRouter()
	router.HandleFunc("/healthz", s.handleHealthz).Methods("GET")
	router.HandleFunc("/api/v1/status", s.handleStatus).Methods("GET")

	if opts.MetricsHandler != nil {
		router.Handle("/metrics", opts.MetricsHandler).Methods("GET")
	}

	s.httpServer = &http.Server{
		Addr:              opts.Addr,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       time.Minute,
	}

	return s, nil
}

// Handler exposes the route table, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.httpServer.Handler
}

// Serve listens until the context is canceled, then drains gracefully.
func (s *Server) Serve(ctx context.Context) error {
	logger.InfoKV(ctx, "Ops HTTP listening", "addr", s.httpServer.Addr)

	go func() {
		<-ctx.Done()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()

		if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
			logger.Errorf(ctx, "Shut down ops HTTP server: %v", err)
		}
	}()

	if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("serve ops HTTP: %w", err)
	}

	return nil
}

// handleHealthz reports liveness.
func (s *Server) handleHealthz(w http.ResponseWriter, _ *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// handleStatus serves the same document as the daemon.status RPC.
func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, s.status.Status(r.Context()))
}

// writeJSON writes a JSON response with the given status code.
func (s *Server) writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		logger.Errorf(context.Background(), "Encode ops response: %v", err)
	}
}
