package journal

import (
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/potatochat/streamclient/internal/connection"
	"github.com/potatochat/streamclient/internal/envelope"
	"github.com/potatochat/streamclient/internal/listener"
)

// Kind classifies a journal event.
type Kind string

const (
	KindConnected          Kind = "connected"
	KindDisconnected       Kind = "disconnected"
	KindError              Kind = "error"
	KindReconnectScheduled Kind = "reconnect_scheduled"
	KindReconnectExhausted Kind = "reconnect_exhausted"
	KindFrameRejected      Kind = "frame_rejected"
)

// Event is one row of connection_events.
type Event struct {
	ID         uuid.UUID
	Instance   string
	Kind       Kind
	Attempt    int
	Delay      time.Duration
	Detail     string
	OccurredAt time.Time
}

var (
	_ listener.Listener   = (*Journal)(nil)
	_ connection.Recorder = (*Journal)(nil)
)

// Journal turns listener and recorder callbacks into queued Events.
type Journal struct {
	instance string
	queue    *Queue[Event]
	logger   *slog.Logger
	now      func() time.Time

	dropped atomic.Int64
}

// New creates a Journal that enqueues onto queue.
func New(instance string, queue *Queue[Event], logger *slog.Logger) *Journal {
	if logger == nil {
		logger = slog.Default()
	}
	return &Journal{
		instance: instance,
		queue:    queue,
		logger:   logger,
		now:      time.Now,
	}
}

// Dropped returns how many events were lost to a full or closed queue.
func (j *Journal) Dropped() int64 {
	return j.dropped.Load()
}

func (j *Journal) OnConnected() {
	j.record(Event{Kind: KindConnected})
}

func (j *Journal) OnDisconnected() {
	j.record(Event{Kind: KindDisconnected})
}

// OnMessage is a no-op; payloads are not journaled.
func (j *Journal) OnMessage(envelope.Envelope) {}

func (j *Journal) OnError(msg string) {
	j.record(Event{Kind: KindError, Detail: msg})
}

func (j *Journal) Sent(string)        {}
func (j *Journal) SendDropped(string) {}

func (j *Journal) FrameRejected(err error) {
	j.record(Event{Kind: KindFrameRejected, Detail: err.Error()})
}

func (j *Journal) ReconnectScheduled(attempt int, delay time.Duration) {
	j.record(Event{Kind: KindReconnectScheduled, Attempt: attempt, Delay: delay})
}

func (j *Journal) ReconnectExhausted(attempts int) {
	j.record(Event{Kind: KindReconnectExhausted, Attempt: attempts})
}

func (j *Journal) record(e Event) {
	e.ID = uuid.New()
	e.Instance = j.instance
	e.OccurredAt = j.now()

	if !j.queue.Push(e) {
		j.dropped.Add(1)
		j.logger.Debug("journal queue full, event dropped", "kind", e.Kind)
	}
}
