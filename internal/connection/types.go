package connection

import (
	"errors"
	"time"

	"github.com/potatochat/streamclient/internal/router"
)

// Errors
var (
	ErrNotConnected   = errors.New("not connected")
	ErrAlreadyClosed  = errors.New("already closed")
	ErrSendBufferFull = errors.New("send buffer full")
	ErrNoToken        = errors.New("no auth token available")
)

// DefaultURL is the production streaming endpoint.
const DefaultURL = "wss://ws.potatochat.com/v1"

// State is the connection state owned by the Manager.
type State int

const (
	StateDisconnected State = iota
	StateConnecting
	StateConnected
)

func (s State) String() string {
	switch s {
	case StateDisconnected:
		return "disconnected"
	case StateConnecting:
		return "connecting"
	case StateConnected:
		return "connected"
	default:
		return "unknown"
	}
}

// EventHandler receives transport events. Events for one transport are
// delivered sequentially on that transport's goroutine: open precedes
// any message, and close is delivered exactly once and last.
type EventHandler interface {
	HandleOpen(t Transport)
	HandleMessage(t Transport, data []byte)
	HandleError(t Transport, err error)
	HandleClose(t Transport, code int, reason string)
}

// Transport is a single bidirectional streaming connection attempt.
// A Transport is never reused after it closes.
type Transport interface {
	// ID identifies the session in logs.
	ID() string

	// Open starts connecting in the background and returns immediately.
	Open(h EventHandler)

	// Send queues a text frame. It does not wait for the network.
	Send(data []byte) error

	// Close tears the connection down. Safe to call more than once.
	Close() error
}

// Dialer creates transports for an endpoint.
type Dialer interface {
	NewTransport(url string) Transport
}

// TokenSource supplies the bearer token at connect time.
type TokenSource interface {
	Token() (string, bool)
}

// ClientConfig configures the WebSocket transport.
type ClientConfig struct {
	HandshakeTimeout time.Duration // Dial + upgrade deadline
	WriteTimeout     time.Duration // Write deadline per frame
	SendBufferSize   int           // Outbound frames queued per transport
	ReadLimit        int64         // Max inbound frame size in bytes (0 = unlimited)
}

// DefaultClientConfig returns sensible defaults.
func DefaultClientConfig() ClientConfig {
	return ClientConfig{
		HandshakeTimeout: 10 * time.Second,
		WriteTimeout:     5 * time.Second,
		SendBufferSize:   256,
		ReadLimit:        1 << 20,
	}
}

// ManagerConfig configures the connection Manager.
type ManagerConfig struct {
	URL                  string        // Streaming endpoint; the token is appended as ?token=
	MaxReconnectAttempts int           // Automatic attempts before giving up
	ReconnectBaseDelay   time.Duration // Delay is ReconnectBaseDelay * attempt
	HeartbeatInterval    time.Duration // Ping interval while connected (0 disables)
	Client               ClientConfig
}

// DefaultManagerConfig returns sensible defaults.
func DefaultManagerConfig() ManagerConfig {
	return ManagerConfig{
		URL:                  DefaultURL,
		MaxReconnectAttempts: 5,
		ReconnectBaseDelay:   3 * time.Second,
		HeartbeatInterval:    30 * time.Second,
		Client:               DefaultClientConfig(),
	}
}

// Stats is a point-in-time view of the Manager.
type Stats struct {
	State                State
	SessionID            string // Current transport, empty when disconnected
	ReconnectAttempts    int
	MaxReconnectAttempts int
	ShouldReconnect      bool
	ReconnectPending     bool
	HeartbeatActive      bool
	Listeners            int
	Router               router.Stats
}
