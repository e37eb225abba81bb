package connection

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/potatochat/streamclient/internal/version"
)

// Close codes reported to EventHandler.HandleClose.
const (
	CloseNormal   = websocket.CloseNormalClosure
	CloseAbnormal = websocket.CloseAbnormalClosure
)

// wsDialer creates gorilla/websocket transports.
type wsDialer struct {
	cfg    ClientConfig
	logger *slog.Logger
}

// NewDialer creates a Dialer backed by gorilla/websocket.
func NewDialer(cfg ClientConfig, logger *slog.Logger) Dialer {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.SendBufferSize <= 0 {
		cfg.SendBufferSize = DefaultClientConfig().SendBufferSize
	}
	return &wsDialer{cfg: cfg, logger: logger}
}

// NewTransport creates an unopened transport for url.
func (d *wsDialer) NewTransport(url string) Transport {
	id := uuid.NewString()
	ctx, cancel := context.WithCancel(context.Background())

	return &wsTransport{
		id:     id,
		url:    url,
		cfg:    d.cfg,
		logger: d.logger.With("session", id),
		ctx:    ctx,
		cancel: cancel,
		send:   make(chan []byte, d.cfg.SendBufferSize),
	}
}

// wsTransport is one WebSocket session. All events are emitted from the
// goroutine started by Open.
type wsTransport struct {
	id     string
	url    string
	cfg    ClientConfig
	logger *slog.Logger

	ctx    context.Context
	cancel context.CancelFunc

	// Outbound frames, drained by writeLoop
	send chan []byte

	mu     sync.Mutex
	conn   *websocket.Conn
	opened bool
	closed bool
}

func (t *wsTransport) ID() string {
	return t.id
}

// Open dials in the background. Calling Open twice, or after Close, does nothing.
func (t *wsTransport) Open(h EventHandler) {
	t.mu.Lock()
	if t.opened || t.closed {
		t.mu.Unlock()
		return
	}
	t.opened = true
	t.mu.Unlock()

	go t.run(h)
}

// Send queues data for the write loop.
func (t *wsTransport) Send(data []byte) error {
	t.mu.Lock()
	conn, closed := t.conn, t.closed
	t.mu.Unlock()

	if closed {
		return ErrAlreadyClosed
	}
	if conn == nil {
		return ErrNotConnected
	}

	select {
	case <-t.ctx.Done():
		return ErrNotConnected
	default:
	}

	select {
	case t.send <- data:
		return nil
	default:
		return ErrSendBufferFull
	}
}

// Close sends a normal close frame and tears the connection down.
func (t *wsTransport) Close() error {
	t.mu.Lock()
	if t.closed {
		t.mu.Unlock()
		return nil
	}
	t.closed = true
	conn := t.conn
	t.mu.Unlock()

	t.cancel()

	if conn == nil {
		return nil
	}

	conn.WriteControl(
		websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
		time.Now().Add(time.Second),
	)
	return conn.Close()
}

func (t *wsTransport) isClosed() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.closed
}

// run dials, reads until the connection ends and emits exactly one close.
func (t *wsTransport) run(h EventHandler) {
	defer t.cancel()

	header := http.Header{}
	header.Set("Accept", "application/json")
	header.Set("User-Agent", version.UserAgent())

	dialer := websocket.Dialer{
		Proxy:            http.ProxyFromEnvironment,
		HandshakeTimeout: t.cfg.HandshakeTimeout,
	}

	conn, _, err := dialer.DialContext(t.ctx, t.url, header)
	if err != nil {
		if t.isClosed() {
			h.HandleClose(t, CloseNormal, "closed before open")
			return
		}
		t.logger.Debug("websocket dial failed", "error", err)
		h.HandleError(t, fmt.Errorf("dial: %w", err))
		h.HandleClose(t, CloseAbnormal, err.Error())
		return
	}

	t.mu.Lock()
	if t.closed {
		t.mu.Unlock()
		conn.Close()
		h.HandleClose(t, CloseNormal, "closed before open")
		return
	}
	t.conn = conn
	t.mu.Unlock()

	if t.cfg.ReadLimit > 0 {
		conn.SetReadLimit(t.cfg.ReadLimit)
	}

	t.logger.Debug("websocket connected")
	h.HandleOpen(t)

	go t.writeLoop(conn)

	code, reason := t.readLoop(conn, h)

	t.mu.Lock()
	t.closed = true
	t.mu.Unlock()
	conn.Close()

	h.HandleClose(t, code, reason)
}

// readLoop delivers frames until the connection fails or is closed.
func (t *wsTransport) readLoop(conn *websocket.Conn, h EventHandler) (int, string) {
	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			if t.isClosed() {
				return CloseNormal, "closed by client"
			}

			var closeErr *websocket.CloseError
			if errors.As(err, &closeErr) {
				return closeErr.Code, closeErr.Text
			}

			h.HandleError(t, err)
			return CloseAbnormal, err.Error()
		}

		h.HandleMessage(t, data)
	}
}

// writeLoop serializes all data frames onto the connection.
func (t *wsTransport) writeLoop(conn *websocket.Conn) {
	for {
		select {
		case <-t.ctx.Done():
			return
		case data := <-t.send:
			if t.cfg.WriteTimeout > 0 {
				conn.SetWriteDeadline(time.Now().Add(t.cfg.WriteTimeout))
			}
			if err := conn.WriteMessage(websocket.TextMessage, data); err != nil {
				// Closing unblocks readLoop, which reports the failure.
				t.logger.Warn("websocket write failed", "error", err)
				conn.Close()
				return
			}
		}
	}
}
