package rpc

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"os"
	"sync"
	"time"

	"github.com/creachadair/jrpc2"
	"github.com/creachadair/jrpc2/channel"

	"github.com/chimed/chimed/internal/logger"
	"github.com/chimed/chimed/internal/metrics"
)

// SocketPermissions keeps the control socket private to the owning user:
// anyone who can write to it can replace the whole schedule.
const SocketPermissions = 0o600

var (
	// errNoEngine is returned when the server is built without an engine.
	errNoEngine = errors.New("engine is required")
	// errNoSocketPath is returned when no socket path is configured.
	errNoSocketPath = errors.New("control socket path is required")
)

// Options configures the control API server.
type Options struct {
	// SocketPath is the unix socket to listen on.
	SocketPath string
	// Engine is the running engine driven by this API. Required.
	Engine Engine
	// History lists journal rows; nil when the journal is disabled.
	History HistoryLister
	// TickInterval and Cooldown are reported by daemon.status.
	TickInterval time.Duration
	Cooldown     time.Duration
	// StartedAt is the daemon start instant. Zero means "now".
	StartedAt time.Time
	// Metrics publishes the connected-watcher gauge. Optional.
	Metrics *metrics.Metrics
	// Pool carries the push sessions. Passing one lets callers wire the
	// push presenter before the server exists; nil creates a fresh pool.
	Pool *Pool
}

// Server accepts control connections and serves the JSON-RPC method set on
// each of them.
type Server struct {
	socketPath   string
	engine       Engine
	history      HistoryLister
	tickInterval time.Duration
	cooldown     time.Duration
	startedAt    time.Time
	pool         *Pool

	mu       sync.Mutex
	listener net.Listener
}

// New builds a control API server around a running engine.
func New(opts *Options) (*Server, error) {
	if opts == nil || opts.Engine == nil {
		return nil, errNoEngine
	}

	if opts.SocketPath == "" {
		return nil, errNoSocketPath
	}

	startedAt := opts.StartedAt
	if startedAt.IsZero() {
		startedAt = time.Now()
	}

	pool := opts.Pool
	if pool == nil {
		pool = NewPool(opts.Metrics)
	}

	return &Server{
		socketPath:   opts.SocketPath,
		engine:       opts.Engine,
		history:      opts.History,
		tickInterval: opts.TickInterval,
		cooldown:     opts.Cooldown,
		startedAt:    startedAt,
		pool:         pool,
	}, nil
}

// Pool exposes the session pool, for wiring the push presenter.
func (s *Server) Pool() *Pool {
	return s.pool
}

// Serve binds the unix socket and accepts connections until the context is
// canceled. A stale socket file left by a previous run is removed first.
func (s *Server) Serve(ctx context.Context) error {
	_ = os.Remove(s.socketPath)

	listener, err := net.ListenUnix("unix", &net.UnixAddr{
		Name: s.socketPath,
		Net:  "unix",
	})
	if err != nil {
		return fmt.Errorf("listen on control socket: %w", err)
	}

	if err = os.Chmod(s.socketPath, SocketPermissions); err != nil {
		_ = listener.Close()

		return fmt.Errorf("restrict control socket: %w", err)
	}

	s.mu.Lock()
	s.listener = listener
	s.mu.Unlock()

	logger.InfoKV(ctx, "Control API listening", "socket", s.socketPath)

	// Watch for context cancellation to trigger shutdown.
	go func() {
		<-ctx.Done()
		s.Shutdown(ctx)
	}()

	for {
		conn, err := listener.Accept()
		if err != nil {
			// Check if we're shutting down.
			if errors.Is(err, net.ErrClosed) || ctx.Err() != nil {
				return nil
			}

			logger.Errorf(ctx, "Accept control connection: %v", err)

			continue
		}

		// Handle connections in a new goroutine.
		go s.handleConnection(ctx, conn)
	}
}

// Shutdown closes the listener, stops every session and removes the socket
// file. It is safe to call more than once.
func (s *Server) Shutdown(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.listener != nil {
		if err := s.listener.Close(); err != nil {
			logger.Errorf(ctx, "Close control listener: %v", err)
		}

		s.listener = nil
	}

	s.pool.StopAll()

	if err := os.Remove(s.socketPath); err != nil && !os.IsNotExist(err) {
		logger.Errorf(ctx, "Remove control socket: %v", err)
	}
}

// handleConnection runs one jrpc2 session over the accepted connection and
// keeps it registered for pushes until the client goes away.
func (s *Server) handleConnection(ctx context.Context, conn net.Conn) {
	srv := jrpc2.NewServer(s.mux(), &jrpc2.ServerOptions{
		AllowPush:  true,
		NewContext: func() context.Context { return ctx },
		Logger:     func(text string) { logger.Debug(ctx, text) },
	})

	srv.Start(channel.Line(conn, conn))

	s.pool.Register(srv)
	defer s.pool.Unregister(srv)

	if err := srv.Wait(); err != nil && !errors.Is(err, io.EOF) {
		logger.Debugf(ctx, "Control session ended: %v", err)
	}
}
