package connection

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/felicia-viz/viz-relay/internal/metrics"
)

// RegistryConfig configures the Registry.
type RegistryConfig struct {
	SweepInterval time.Duration // Heartbeat interval between sweeps
	OnRemove      func(Conn)    // Called outside the lock for every removed conn (optional)
}

// Registry tracks every live browser connection.
type Registry struct {
	cfg     RegistryConfig
	metrics *metrics.Metrics
	logger  *slog.Logger

	mu    sync.RWMutex
	conns map[string]Conn

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewRegistry creates an empty Registry. m may be nil.
func NewRegistry(cfg RegistryConfig, m *metrics.Metrics, logger *slog.Logger) *Registry {
	if logger == nil {
		logger = slog.Default()
	}
	return &Registry{
		cfg:     cfg,
		metrics: m,
		logger:  logger,
		conns:   make(map[string]Conn),
	}
}

// Register adds a connection.
func (r *Registry) Register(c Conn) error {
	if c == nil {
		return ErrNilConn
	}

	r.mu.Lock()
	if _, exists := r.conns[c.ID()]; exists {
		r.mu.Unlock()
		return ErrDuplicateID
	}
	r.conns[c.ID()] = c
	total := len(r.conns)
	r.mu.Unlock()

	r.metrics.ConnectionRegistered()
	r.logger.Info("client connected",
		"conn_id", c.ID(),
		"remote_addr", c.RemoteAddr(),
		"connections", total,
	)
	return nil
}

// Remove drops a connection by ID. Reports whether it was present.
func (r *Registry) Remove(id string) bool {
	r.mu.Lock()
	c, ok := r.conns[id]
	if ok {
		delete(r.conns, id)
	}
	r.mu.Unlock()

	if ok {
		r.removed(c)
	}
	return ok
}

// Get returns a connection by ID.
func (r *Registry) Get(id string) (Conn, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	c, ok := r.conns[id]
	return c, ok
}

// Snapshot returns the registered connections at this instant, closed or not.
func (r *Registry) Snapshot() []Conn {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make([]Conn, 0, len(r.conns))
	for _, c := range r.conns {
		result = append(result, c)
	}
	return result
}

// Len returns the number of registered connections.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.conns)
}

// Sweep removes every connection whose transport has closed and returns how
// many were removed.
func (r *Registry) Sweep() int {
	var dead []Conn

	r.mu.Lock()
	for id, c := range r.conns {
		if c.Closed() {
			delete(r.conns, id)
			dead = append(dead, c)
		}
	}
	remaining := len(r.conns)
	r.mu.Unlock()

	for _, c := range dead {
		r.removed(c)
	}
	r.metrics.SweepCompleted(len(dead))

	if len(dead) > 0 {
		r.logger.Debug("sweep removed closed connections",
			"removed", len(dead),
			"connections", remaining,
		)
	}
	return len(dead)
}

// CloseAll closes every registered connection and sweeps them out.
func (r *Registry) CloseAll() int {
	for _, c := range r.Snapshot() {
		c.Close()
	}
	return r.Sweep()
}

// Start begins the background sweeper.
func (r *Registry) Start(ctx context.Context) error {
	r.ctx, r.cancel = context.WithCancel(ctx)

	interval := r.cfg.SweepInterval
	if interval <= 0 {
		interval = 5 * time.Second
	}

	r.wg.Add(1)
	go func() {
		defer r.wg.Done()
		r.sweepLoop(r.ctx, interval)
	}()

	r.logger.Info("registry sweeper started", "interval", interval)
	return nil
}

// Stop halts the sweeper.
func (r *Registry) Stop(ctx context.Context) error {
	if r.cancel != nil {
		r.cancel()
	}

	done := make(chan struct{})
	go func() {
		r.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		r.logger.Info("registry sweeper stopped")
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (r *Registry) sweepLoop(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			r.Sweep()
		}
	}
}

func (r *Registry) removed(c Conn) {
	r.metrics.ConnectionRemoved()
	r.logger.Info("client disconnected",
		"conn_id", c.ID(),
		"remote_addr", c.RemoteAddr(),
		"duration", time.Since(c.ConnectedAt()).Round(time.Millisecond),
	)
	if r.cfg.OnRemove != nil {
		r.cfg.OnRemove(c)
	}
}
