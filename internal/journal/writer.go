package journal

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/felicia-viz/viz-relay/internal/model"
	"github.com/felicia-viz/viz-relay/internal/queue"
)

// Batcher sends a pgx batch. *pgxpool.Pool satisfies it.
type Batcher interface {
	SendBatch(ctx context.Context, b *pgx.Batch) pgx.BatchResults
}

// Config configures the Writer.
type Config struct {
	BatchSize     int
	FlushInterval time.Duration
}

// Stats contains runtime statistics.
type Stats struct {
	Recorded int64
	Inserted int64
	Errors   int64
	Flushes  int64
}

// flushTimeout bounds one background flush.
const flushTimeout = 10 * time.Second

const (
	insertTopicEvent = `
		INSERT INTO topic_events (topic, type_name, status, event, observed_at)
		VALUES ($1, $2, $3, $4, $5)`

	upsertSessionStart = `
		INSERT INTO client_sessions (connection_id, remote_addr, connected_at)
		VALUES ($1, $2, $3)
		ON CONFLICT (connection_id) DO NOTHING`

	upsertSessionEnd = `
		INSERT INTO client_sessions (connection_id, remote_addr, connected_at, disconnected_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (connection_id) DO UPDATE SET disconnected_at = EXCLUDED.disconnected_at`
)

// entry is one queued row. Exactly one of topic or session is set.
type entry struct {
	topic   *topicEventRow
	session *sessionRow
}

type topicEventRow struct {
	Topic      string
	TypeName   string
	Status     string
	Event      string
	ObservedAt time.Time
}

type sessionRow struct {
	ConnectionID   string
	RemoteAddr     string
	ConnectedAt    time.Time
	DisconnectedAt *time.Time // nil while the session is open
}

// Writer is the journal batch writer.
type Writer struct {
	cfg    Config
	db     Batcher
	logger *slog.Logger

	input   *queue.Queue[entry]
	flushCh chan struct{}

	// Lifecycle
	cancel context.CancelFunc
	wg     sync.WaitGroup

	mu    sync.Mutex
	stats Stats
}

// NewWriter creates a Writer over db.
func NewWriter(cfg Config, db Batcher, logger *slog.Logger) *Writer {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.BatchSize < 1 {
		cfg.BatchSize = 500
	}
	if cfg.FlushInterval <= 0 {
		cfg.FlushInterval = time.Second
	}
	return &Writer{
		cfg:     cfg,
		db:      db,
		logger:  logger,
		input:   queue.New[entry](cfg.BatchSize),
		flushCh: make(chan struct{}, 1),
	}
}

// RecordTopicEvent queues a discovery update.
func (w *Writer) RecordTopicEvent(info model.TopicInfo, eventType string, at time.Time) {
	w.record(entry{topic: transformTopicEvent(info, eventType, at)})
}

// SessionStarted queues the start of a browser session.
func (w *Writer) SessionStarted(connID, remoteAddr string, at time.Time) {
	w.record(entry{session: &sessionRow{
		ConnectionID: connID,
		RemoteAddr:   remoteAddr,
		ConnectedAt:  at.UTC(),
	}})
}

// SessionEnded queues the end of a browser session.
func (w *Writer) SessionEnded(connID, remoteAddr string, connectedAt, at time.Time) {
	ended := at.UTC()
	w.record(entry{session: &sessionRow{
		ConnectionID:   connID,
		RemoteAddr:     remoteAddr,
		ConnectedAt:    connectedAt.UTC(),
		DisconnectedAt: &ended,
	}})
}

// Start begins the flush loop.
func (w *Writer) Start(ctx context.Context) error {
	ctx, w.cancel = context.WithCancel(ctx)

	w.wg.Add(1)
	go func() {
		defer w.wg.Done()
		w.flushLoop(ctx)
	}()

	w.logger.Info("journal writer started",
		"batch_size", w.cfg.BatchSize,
		"flush_interval", w.cfg.FlushInterval,
	)
	return nil
}

// Stop halts the loop and flushes what is left using ctx.
func (w *Writer) Stop(ctx context.Context) error {
	if w.cancel != nil {
		w.cancel()
	}

	done := make(chan struct{})
	go func() {
		w.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
	case <-ctx.Done():
		w.logger.Warn("journal writer stop timed out")
		return ctx.Err()
	}

	w.input.Close()
	w.flush(ctx)
	w.logger.Info("journal writer stopped", "stats", w.Stats())
	return nil
}

// Stats returns current statistics.
func (w *Writer) Stats() Stats {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.stats
}

func (w *Writer) record(e entry) {
	if !w.input.Push(e) {
		return
	}
	w.mu.Lock()
	w.stats.Recorded++
	w.mu.Unlock()

	if w.input.Len() >= w.cfg.BatchSize {
		select {
		case w.flushCh <- struct{}{}:
		default:
		}
	}
}

func (w *Writer) flushLoop(ctx context.Context) {
	ticker := time.NewTicker(w.cfg.FlushInterval)
	defer ticker.Stop()

	// A flush in progress is not cut short by Stop; Stop waits for it.
	flushCtx := context.WithoutCancel(ctx)

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			w.flushWithTimeout(flushCtx)
		case <-w.flushCh:
			w.flushWithTimeout(flushCtx)
		}
	}
}

func (w *Writer) flushWithTimeout(parent context.Context) {
	ctx, cancel := context.WithTimeout(parent, flushTimeout)
	defer cancel()
	w.flush(ctx)
}

// flush writes every queued entry in BatchSize chunks.
func (w *Writer) flush(ctx context.Context) {
	for {
		entries := w.input.Drain(w.cfg.BatchSize)
		if len(entries) == 0 {
			return
		}

		start := time.Now()
		inserted, err := w.send(ctx, entries)

		w.mu.Lock()
		w.stats.Inserted += int64(inserted)
		w.stats.Flushes++
		if err != nil {
			w.stats.Errors++
		}
		w.mu.Unlock()

		if err != nil {
			w.logger.Error("journal batch failed", "error", err, "count", len(entries))
			return
		}
		w.logger.Debug("flushed journal",
			"count", len(entries),
			"duration", time.Since(start),
		)
	}
}

func (w *Writer) send(ctx context.Context, entries []entry) (int, error) {
	batch := buildBatch(entries)

	results := w.db.SendBatch(ctx, batch)
	defer results.Close()

	inserted := 0
	for range entries {
		ct, err := results.Exec()
		if err != nil {
			return inserted, err
		}
		inserted += int(ct.RowsAffected())
	}
	return inserted, nil
}

func buildBatch(entries []entry) *pgx.Batch {
	batch := &pgx.Batch{}
	for _, e := range entries {
		switch {
		case e.topic != nil:
			r := e.topic
			batch.Queue(insertTopicEvent, r.Topic, r.TypeName, r.Status, r.Event, r.ObservedAt)
		case e.session != nil && e.session.DisconnectedAt == nil:
			r := e.session
			batch.Queue(upsertSessionStart, r.ConnectionID, r.RemoteAddr, r.ConnectedAt)
		case e.session != nil:
			r := e.session
			batch.Queue(upsertSessionEnd, r.ConnectionID, r.RemoteAddr, r.ConnectedAt, *r.DisconnectedAt)
		}
	}
	return batch
}

// transformTopicEvent converts a discovery update to a topic_events row.
func transformTopicEvent(info model.TopicInfo, eventType string, at time.Time) *topicEventRow {
	status := string(info.Status)
	if status == "" {
		status = string(model.TopicUnregistered)
	}
	return &topicEventRow{
		Topic:      info.Topic,
		TypeName:   info.TypeName,
		Status:     status,
		Event:      eventType,
		ObservedAt: at.UTC(),
	}
}
