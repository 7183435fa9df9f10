package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"

	"github.com/felicia-viz/viz-relay/internal/bridge"
	"github.com/felicia-viz/viz-relay/internal/connection"
	"github.com/felicia-viz/viz-relay/internal/metrics"
	"github.com/felicia-viz/viz-relay/internal/router"
	"github.com/felicia-viz/viz-relay/internal/topic"
)

// BridgeStatus reports producer bridge state.
type BridgeStatus interface {
	Status() bridge.Status
}

// SessionRecorder is told about every accepted browser connection.
type SessionRecorder interface {
	SessionStarted(connID, remoteAddr string, at time.Time)
}

// Pinger checks a backing store.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Config configures the Server.
type Config struct {
	Addr            string
	AllowedOrigins  []string // Empty = any origin
	ReadBufferSize  int
	WriteBufferSize int
	ShutdownTimeout time.Duration
	MetricsPath     string
	Conn            connection.Config
}

// Deps are the components the server exposes. Bridge, Sessions, Database
// and Metrics may be nil.
type Deps struct {
	Registry *connection.Registry
	Router   router.Router
	Topics   *topic.Map
	Bridge   BridgeStatus
	Sessions SessionRecorder
	Database Pinger
	Metrics  *metrics.Metrics
}

// Server is the relay HTTP server.
type Server struct {
	cfg      Config
	deps     Deps
	logger   *slog.Logger
	upgrader websocket.Upgrader
	started  time.Time
}

// New creates a Server.
func New(cfg Config, deps Deps, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.MetricsPath == "" {
		cfg.MetricsPath = "/metrics"
	}

	s := &Server{
		cfg:     cfg,
		deps:    deps,
		logger:  logger,
		started: time.Now(),
	}
	s.upgrader = websocket.Upgrader{
		ReadBufferSize:  cfg.ReadBufferSize,
		WriteBufferSize: cfg.WriteBufferSize,
		CheckOrigin:     s.checkOrigin,
	}
	return s
}

// Handler returns the route table.
func (s *Server) Handler() http.Handler {
	r := mux.NewRouter()

	r.HandleFunc("/ws", s.handleWS).Methods(http.MethodGet)
	r.HandleFunc("/health", s.handleHealth).Methods(http.MethodGet)
	r.Handle(s.cfg.MetricsPath, s.deps.Metrics.Handler()).Methods(http.MethodGet)

	debug := r.PathPrefix("/debug").Subrouter()
	debug.HandleFunc("/topics", s.handleTopics).Methods(http.MethodGet)
	debug.HandleFunc("/topics/{topic:.+}", s.handleTopic).Methods(http.MethodGet)
	debug.HandleFunc("/connections", s.handleConnections).Methods(http.MethodGet)

	return r
}

// Run serves on cfg.Addr until ctx is done, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.cfg.Addr)
	if err != nil {
		return fmt.Errorf("listen %s: %w", s.cfg.Addr, err)
	}
	return s.Serve(ctx, ln)
}

// Serve is Run on an existing listener.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	srv := &http.Server{
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("http server listening", "addr", ln.Addr().String())
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	timeout := s.cfg.ShutdownTimeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown http server: %w", err)
	}
	s.logger.Info("http server stopped")
	return nil
}

// handleWS upgrades a browser, registers it and starts its loops.
func (s *Server) handleWS(w http.ResponseWriter, r *http.Request) {
	ws, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade has already written the HTTP error.
		s.logger.Debug("websocket upgrade failed", "remote_addr", r.RemoteAddr, "error", err)
		return
	}

	c := connection.NewConn(ws, s.cfg.Conn, s.logger)
	if err := s.deps.Registry.Register(c); err != nil {
		s.logger.Error("failed to register connection", "error", err)
		c.Close()
		return
	}
	if s.deps.Sessions != nil {
		s.deps.Sessions.SessionStarted(c.ID(), c.RemoteAddr(), c.ConnectedAt())
	}

	c.Start(func(conn connection.Conn, data []byte) {
		s.deps.Router.Route(conn, data)
	})
}

func (s *Server) checkOrigin(r *http.Request) bool {
	if len(s.cfg.AllowedOrigins) == 0 {
		return true
	}
	origin := r.Header.Get("Origin")
	if origin == "" {
		return true // Non-browser client
	}
	for _, allowed := range s.cfg.AllowedOrigins {
		if allowed == "*" || allowed == origin {
			return true
		}
	}
	s.logger.Warn("rejected websocket origin", "origin", origin, "remote_addr", r.RemoteAddr)
	return false
}
