package journal

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// Schema creates the journal table.
const Schema = `
CREATE TABLE IF NOT EXISTS connection_events (
	event_id    UUID PRIMARY KEY,
	instance_id TEXT NOT NULL,
	kind        TEXT NOT NULL,
	attempt     INTEGER NOT NULL DEFAULT 0,
	delay_ms    BIGINT NOT NULL DEFAULT 0,
	detail      TEXT NOT NULL DEFAULT '',
	occurred_at TIMESTAMPTZ NOT NULL
);
CREATE INDEX IF NOT EXISTS connection_events_instance_time
	ON connection_events (instance_id, occurred_at);
`

const insertEvent = `
	INSERT INTO connection_events (event_id, instance_id, kind, attempt, delay_ms, detail, occurred_at)
	VALUES ($1, $2, $3, $4, $5, $6, $7)
	ON CONFLICT (event_id) DO NOTHING
`

// DB is the part of *pgxpool.Pool the writer uses.
type DB interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	SendBatch(ctx context.Context, b *pgx.Batch) pgx.BatchResults
}

// EnsureSchema creates the journal table if it does not exist.
func EnsureSchema(ctx context.Context, db DB) error {
	if _, err := db.Exec(ctx, Schema); err != nil {
		return fmt.Errorf("create connection_events: %w", err)
	}
	return nil
}

// WriterConfig holds batch settings.
type WriterConfig struct {
	BatchSize     int
	FlushInterval time.Duration
}

// DefaultWriterConfig returns sensible defaults.
func DefaultWriterConfig() WriterConfig {
	return WriterConfig{
		BatchSize:     100,
		FlushInterval: time.Second,
	}
}

// WriterStats contains writer counters.
type WriterStats struct {
	Inserts   int64
	Conflicts int64
	Flushes   int64
	Errors    int64
}

// Writer drains the journal queue into connection_events.
type Writer struct {
	cfg    WriterConfig
	logger *slog.Logger

	input *Queue[Event]
	db    DB

	batch   []Event
	batchMu sync.Mutex

	cancel context.CancelFunc
	wg     sync.WaitGroup

	stats WriterStats
}

// NewWriter creates a Writer.
func NewWriter(cfg WriterConfig, input *Queue[Event], db DB, logger *slog.Logger) *Writer {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.BatchSize < 1 {
		cfg.BatchSize = DefaultWriterConfig().BatchSize
	}
	if cfg.FlushInterval <= 0 {
		cfg.FlushInterval = DefaultWriterConfig().FlushInterval
	}
	return &Writer{
		cfg:    cfg,
		input:  input,
		db:     db,
		logger: logger,
		batch:  make([]Event, 0, cfg.BatchSize),
	}
}

// Start begins draining the queue.
func (w *Writer) Start(ctx context.Context) {
	ctx, w.cancel = context.WithCancel(ctx)

	w.wg.Add(1)
	go w.run(ctx)

	w.logger.Info("journal writer started",
		"batch_size", w.cfg.BatchSize,
		"flush_interval", w.cfg.FlushInterval,
	)
}

// Stop halts the loop and writes whatever is still queued using ctx.
func (w *Writer) Stop(ctx context.Context) error {
	w.logger.Info("stopping journal writer")

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
	w.collect(ctx)
	w.flush(ctx)

	w.logger.Info("journal writer stopped", "inserts", w.Stats().Inserts)
	return nil
}

// Stats returns current counters.
func (w *Writer) Stats() WriterStats {
	w.batchMu.Lock()
	defer w.batchMu.Unlock()
	return w.stats
}

func (w *Writer) run(ctx context.Context) {
	defer w.wg.Done()

	ticker := time.NewTicker(w.cfg.FlushInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-w.input.Ready():
			w.collect(ctx)
		case <-ticker.C:
			w.flush(ctx)
		}
	}
}

// collect moves queued events into the batch, flushing each time it fills.
func (w *Writer) collect(ctx context.Context) {
	for {
		w.batchMu.Lock()
		room := w.cfg.BatchSize - len(w.batch)
		w.batchMu.Unlock()

		if room <= 0 {
			w.flush(ctx)
			continue
		}

		events := w.input.Drain(room)
		if len(events) == 0 {
			return
		}

		w.batchMu.Lock()
		w.batch = append(w.batch, events...)
		full := len(w.batch) >= w.cfg.BatchSize
		w.batchMu.Unlock()

		if !full {
			return
		}
		w.flush(ctx)
	}
}

// flush writes the current batch. A failed batch is dropped and counted.
func (w *Writer) flush(ctx context.Context) {
	w.batchMu.Lock()
	if len(w.batch) == 0 {
		w.batchMu.Unlock()
		return
	}

	// Take ownership of current batch
	batch := w.batch
	w.batch = make([]Event, 0, w.cfg.BatchSize)
	w.batchMu.Unlock()

	start := time.Now()

	conflicts, err := w.batchInsert(ctx, batch)
	if err != nil {
		w.logger.Error("journal batch insert failed", "error", err, "count", len(batch))
		w.batchMu.Lock()
		w.stats.Errors++
		w.batchMu.Unlock()
		return
	}

	w.batchMu.Lock()
	w.stats.Inserts += int64(len(batch) - conflicts)
	w.stats.Conflicts += int64(conflicts)
	w.stats.Flushes++
	w.batchMu.Unlock()

	w.logger.Debug("flushed journal events",
		"count", len(batch),
		"conflicts", conflicts,
		"duration", time.Since(start),
	)
}

// batchInsert inserts rows using pgx.Batch with ON CONFLICT DO NOTHING.
func (w *Writer) batchInsert(ctx context.Context, events []Event) (conflicts int, err error) {
	batch := &pgx.Batch{}
	for _, e := range events {
		batch.Queue(insertEvent,
			e.ID, e.Instance, string(e.Kind), e.Attempt, e.Delay.Milliseconds(), e.Detail, e.OccurredAt,
		)
	}

	results := w.db.SendBatch(ctx, batch)
	defer results.Close()

	for range events {
		ct, err := results.Exec()
		if err != nil {
			return 0, err
		}
		if ct.RowsAffected() == 0 {
			conflicts++
		}
	}

	return conflicts, nil
}
