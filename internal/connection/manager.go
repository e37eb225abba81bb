package connection

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/url"
	"sync"
	"time"

	"github.com/potatochat/streamclient/internal/envelope"
	"github.com/potatochat/streamclient/internal/listener"
	"github.com/potatochat/streamclient/internal/router"
)

// Manager owns one logical streaming session: it dials, keeps the session
// alive with heartbeats, reconnects with linear backoff after unexpected
// closes, and fans inbound messages out to listeners.
//
// Every public method returns without waiting on the network. Transport
// callbacks arrive on transport goroutines; all state transitions happen
// under mu, and listeners are always notified after mu is released.
type Manager struct {
	cfg       ManagerConfig
	dialer    Dialer
	listeners *listener.Registry
	router    *router.Router
	recorder  Recorder
	logger    *slog.Logger
	now       func() time.Time

	routerOpts []router.Option
	events     *transportEvents

	mu              sync.Mutex
	state           State
	shouldReconnect bool
	attempts        int
	token           string
	transport       Transport // Current handle; events from any other transport are stale
	heartbeat       *heartbeat
	reconnect       reconnectScheduler
}

// Option configures a Manager.
type Option func(*Manager)

// WithDialer replaces the gorilla/websocket dialer.
func WithDialer(d Dialer) Option {
	return func(m *Manager) {
		m.dialer = d
	}
}

// WithRecorder installs an activity recorder.
func WithRecorder(r Recorder) Option {
	return func(m *Manager) {
		if r != nil {
			m.recorder = r
		}
	}
}

// WithRouterOptions passes options through to the inbound router.
func WithRouterOptions(opts ...router.Option) Option {
	return func(m *Manager) {
		m.routerOpts = append(m.routerOpts, opts...)
	}
}

// withAfterFunc replaces time.AfterFunc for reconnect timers.
func withAfterFunc(fn afterFunc) Option {
	return func(m *Manager) {
		m.reconnect.after = fn
	}
}

// withClock replaces time.Now for outbound timestamps.
func withClock(now func() time.Time) Option {
	return func(m *Manager) {
		m.now = now
	}
}

// NewManager creates a disconnected Manager.
func NewManager(cfg ManagerConfig, logger *slog.Logger, opts ...Option) *Manager {
	if logger == nil {
		logger = slog.Default()
	}

	m := &Manager{
		cfg:             cfg,
		logger:          logger,
		recorder:        NopRecorder{},
		now:             time.Now,
		state:           StateDisconnected,
		shouldReconnect: true,
		reconnect:       reconnectScheduler{after: realAfterFunc},
	}
	for _, opt := range opts {
		opt(m)
	}

	if m.dialer == nil {
		m.dialer = NewDialer(cfg.Client, logger)
	}
	m.listeners = listener.NewRegistry(logger)
	m.router = router.New(m.listeners, logger, m.routerOpts...)
	m.events = &transportEvents{m: m}

	return m
}

// Connect starts a session authenticated with token. It does nothing
// unless the Manager is disconnected.
func (m *Manager) Connect(token string) {
	m.mu.Lock()
	if m.state != StateDisconnected {
		state := m.state
		m.mu.Unlock()
		m.logger.Debug("connect ignored", "state", state)
		return
	}

	m.shouldReconnect = true
	m.token = token
	m.reconnect.cancel()
	t := m.dialLocked()
	m.mu.Unlock()

	t.Open(m.events)
}

// ConnectWith resolves a token from src and connects. When no token is
// available listeners receive an error and nothing is dialed.
func (m *Manager) ConnectWith(src TokenSource) {
	token, ok := src.Token()
	if !ok || token == "" {
		m.logger.Warn("connect skipped", "error", ErrNoToken)
		m.listeners.NotifyError(ErrNoToken.Error())
		return
	}
	m.Connect(token)
}

// Disconnect closes the session and disables automatic reconnection until
// the next Connect.
func (m *Manager) Disconnect() {
	m.mu.Lock()
	m.shouldReconnect = false
	m.attempts = 0
	m.reconnect.cancel()
	m.stopHeartbeatLocked()

	t := m.transport
	m.transport = nil
	prev := m.state
	m.state = StateDisconnected
	m.mu.Unlock()

	if t != nil {
		go m.closeTransport(t)
	}

	if prev != StateDisconnected {
		m.logger.Info("disconnected", "previous_state", prev)
		m.listeners.NotifyDisconnected()
	}
}

// Close disconnects and drops every listener.
func (m *Manager) Close() {
	m.Disconnect()
	m.listeners.Clear()
}

// Send writes env to the session. When not connected the message is
// dropped and logged; it is never queued.
func (m *Manager) Send(env envelope.Envelope) {
	m.mu.Lock()
	t := m.transport
	connected := m.state == StateConnected && t != nil
	m.mu.Unlock()

	if !connected {
		m.logger.Warn("not connected, message dropped", "type", env.Type)
		m.recorder.SendDropped(env.Type)
		return
	}

	m.write(t, env)
}

// SendChatMessage sends a chat_message to roomID. An empty messageType
// defaults to "text".
func (m *Manager) SendChatMessage(roomID, content, messageType string) {
	env, err := envelope.NewChatMessage(roomID, content, messageType, m.now())
	if err != nil {
		m.reject(envelope.TypeChatMessage, err)
		return
	}
	m.Send(env)
}

// SendTradingOrder sends a trading_order.
func (m *Manager) SendTradingOrder(symbol, orderType string, amount, price float64) {
	env, err := envelope.NewTradingOrder(symbol, orderType, amount, price, m.now())
	if err != nil {
		m.reject(envelope.TypeTradingOrder, err)
		return
	}
	m.Send(env)
}

// SubscribePrices asks the server to stream prices for symbols.
func (m *Manager) SubscribePrices(symbols []string) {
	env, err := envelope.NewSubscribePrices(symbols)
	if err != nil {
		m.reject(envelope.TypeSubscribePrices, err)
		return
	}
	m.Send(env)
}

// AddListener registers l. Registering the same listener twice is a no-op.
func (m *Manager) AddListener(l listener.Listener) {
	m.listeners.Add(l)
}

// RemoveListener unregisters l.
func (m *Manager) RemoveListener(l listener.Listener) {
	m.listeners.Remove(l)
}

// State returns the current connection state.
func (m *Manager) State() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// Stats returns a snapshot of the Manager.
func (m *Manager) Stats() Stats {
	m.mu.Lock()
	stats := Stats{
		State:                m.state,
		ReconnectAttempts:    m.attempts,
		MaxReconnectAttempts: m.cfg.MaxReconnectAttempts,
		ShouldReconnect:      m.shouldReconnect,
		ReconnectPending:     m.reconnect.pending(),
		HeartbeatActive:      m.heartbeat != nil && m.heartbeat.running(),
	}
	if m.transport != nil {
		stats.SessionID = m.transport.ID()
	}
	m.mu.Unlock()

	stats.Listeners = m.listeners.Len()
	stats.Router = m.router.Stats()
	return stats
}

// dialLocked creates the next transport and enters Connecting. The caller
// opens it after releasing mu.
func (m *Manager) dialLocked() Transport {
	t := m.dialer.NewTransport(endpointURL(m.cfg.URL, m.token))
	m.transport = t
	m.state = StateConnecting

	m.logger.Info("connecting",
		"session", t.ID(),
		"attempt", m.attempts,
	)
	return t
}

// endpointURL appends the token as the token query parameter.
func endpointURL(base, token string) string {
	u, err := url.Parse(base)
	if err != nil {
		return base + "?token=" + url.QueryEscape(token)
	}
	q := u.Query()
	q.Set("token", token)
	u.RawQuery = q.Encode()
	return u.String()
}

func (m *Manager) write(t Transport, env envelope.Envelope) error {
	data, err := json.Marshal(env)
	if err != nil {
		m.logger.Error("failed to encode message", "type", env.Type, "error", err)
		m.recorder.SendDropped(env.Type)
		return fmt.Errorf("encode %s: %w", env.Type, err)
	}

	if err := t.Send(data); err != nil {
		m.logger.Warn("send failed",
			"type", env.Type,
			"session", t.ID(),
			"error", err,
		)
		m.recorder.SendDropped(env.Type)
		return fmt.Errorf("send %s: %w", env.Type, err)
	}

	m.logger.Debug("message sent", "type", env.Type, "session", t.ID())
	m.recorder.Sent(env.Type)
	return nil
}

func (m *Manager) reject(msgType string, err error) {
	m.logger.Warn("invalid outbound message", "type", msgType, "error", err)
	m.recorder.SendDropped(msgType)
}

func (m *Manager) closeTransport(t Transport) {
	if err := t.Close(); err != nil {
		m.logger.Debug("transport close failed", "session", t.ID(), "error", err)
	}
}

func (m *Manager) startHeartbeatLocked(t Transport) {
	m.stopHeartbeatLocked()
	if m.cfg.HeartbeatInterval <= 0 {
		return
	}
	m.heartbeat = startHeartbeat(
		m.cfg.HeartbeatInterval,
		func() error { return m.write(t, envelope.NewPing(m.now())) },
		m.logger.With("session", t.ID()),
	)
}

func (m *Manager) stopHeartbeatLocked() {
	if m.heartbeat != nil {
		m.heartbeat.stop()
		m.heartbeat = nil
	}
}

// reconnectDue runs when a reconnect timer fires.
func (m *Manager) reconnectDue(gen uint64) {
	m.mu.Lock()
	if !m.reconnect.claim(gen) {
		m.mu.Unlock()
		return
	}
	if !m.shouldReconnect || m.state != StateDisconnected {
		m.mu.Unlock()
		return
	}
	if m.attempts >= m.cfg.MaxReconnectAttempts {
		attempts := m.attempts
		m.mu.Unlock()

		m.logger.Warn("reconnect attempts exhausted", "attempts", attempts)
		m.recorder.ReconnectExhausted(attempts)
		return
	}

	t := m.dialLocked()
	m.mu.Unlock()

	t.Open(m.events)
}

func (m *Manager) handleOpen(t Transport) {
	m.mu.Lock()
	if t != m.transport || m.state != StateConnecting {
		m.mu.Unlock()
		m.logger.Debug("closing stale transport", "session", t.ID())
		go m.closeTransport(t)
		return
	}

	m.state = StateConnected
	m.attempts = 0
	m.startHeartbeatLocked(t)
	m.mu.Unlock()

	m.logger.Info("connected", "session", t.ID())
	m.listeners.NotifyConnected()
}

func (m *Manager) handleMessage(t Transport, data []byte) {
	m.mu.Lock()
	current := t == m.transport && m.state == StateConnected
	m.mu.Unlock()

	if !current {
		m.logger.Debug("dropping frame from stale transport", "session", t.ID())
		return
	}

	env, err := envelope.Parse(data)
	if err != nil {
		m.logger.Warn("dropping malformed frame",
			"session", t.ID(),
			"size", len(data),
			"error", err,
		)
		m.recorder.FrameRejected(err)
		return
	}

	m.router.Route(env)
}

func (m *Manager) handleError(t Transport, err error) {
	m.mu.Lock()
	current := t == m.transport
	m.mu.Unlock()

	if !current {
		return
	}

	m.logger.Warn("transport error", "session", t.ID(), "error", err)
	m.listeners.NotifyError(err.Error())
}

func (m *Manager) handleClose(t Transport, code int, reason string) {
	m.mu.Lock()
	if t != m.transport {
		m.mu.Unlock()
		return
	}

	m.transport = nil
	m.state = StateDisconnected
	m.stopHeartbeatLocked()

	var (
		delay     time.Duration
		scheduled bool
		exhausted bool
	)
	if m.shouldReconnect {
		if m.attempts < m.cfg.MaxReconnectAttempts {
			m.attempts++
			delay = backoffDelay(m.cfg.ReconnectBaseDelay, m.attempts)
			m.reconnect.arm(delay, m.reconnectDue)
			scheduled = true
		} else {
			exhausted = true
		}
	}
	attempts := m.attempts
	m.mu.Unlock()

	m.logger.Info("connection closed",
		"session", t.ID(),
		"code", code,
		"reason", reason,
	)
	m.listeners.NotifyDisconnected()

	switch {
	case scheduled:
		m.logger.Info("reconnect scheduled", "attempt", attempts, "delay", delay)
		m.recorder.ReconnectScheduled(attempts, delay)
	case exhausted:
		m.logger.Warn("reconnect attempts exhausted", "attempts", attempts)
		m.recorder.ReconnectExhausted(attempts)
	}
}

// transportEvents adapts Manager to EventHandler without exporting the
// handler methods on Manager itself.
type transportEvents struct {
	m *Manager
}

func (e *transportEvents) HandleOpen(t Transport)              { e.m.handleOpen(t) }
func (e *transportEvents) HandleMessage(t Transport, b []byte) { e.m.handleMessage(t, b) }
func (e *transportEvents) HandleError(t Transport, err error)  { e.m.handleError(t, err) }
func (e *transportEvents) HandleClose(t Transport, code int, reason string) {
	e.m.handleClose(t, code, reason)
}
