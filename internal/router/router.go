package router

import (
	"log/slog"
	"sync"

	"github.com/potatochat/streamclient/internal/envelope"
)

// Router classifies inbound envelopes by type and hands them to the
// broadcaster.
type Router struct {
	target     Broadcaster
	logger     *slog.Logger
	transforms map[string]Transform

	mu    sync.RWMutex
	stats Stats
}

// New creates a Router that delivers to target.
func New(target Broadcaster, logger *slog.Logger, opts ...Option) *Router {
	if logger == nil {
		logger = slog.Default()
	}

	r := &Router{
		target:     target,
		logger:     logger,
		transforms: make(map[string]Transform),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// WithTransform installs a per-type hook that runs before broadcast.
func WithTransform(msgType string, fn Transform) Option {
	return func(r *Router) {
		if fn != nil {
			r.transforms[msgType] = fn
		}
	}
}

// Route dispatches a parsed envelope.
func (r *Router) Route(env envelope.Envelope) {
	r.mu.Lock()
	r.stats.Received++
	r.mu.Unlock()

	switch env.Type {
	case envelope.TypeChatMessage:
		r.handleChatMessage(env)
	case envelope.TypeTradingUpdate:
		r.handleTradingUpdate(env)
	case envelope.TypeUserStatus:
		r.handleUserStatus(env)
	case envelope.TypeSystemNotification:
		r.handleSystemNotification(env)
	default:
		r.handleUnrecognized(env)
	}
}

// Stats returns current routing counters.
func (r *Router) Stats() Stats {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.stats
}

func (r *Router) handleChatMessage(env envelope.Envelope) {
	r.logger.Debug("routing chat message", "room", env.StringField("roomId"))
	r.count(func(s *Stats) { s.ChatMessages++ })
	r.broadcast(env)
}

func (r *Router) handleTradingUpdate(env envelope.Envelope) {
	r.logger.Debug("routing trading update", "symbol", env.StringField("symbol"))
	r.count(func(s *Stats) { s.TradingUpdates++ })
	r.broadcast(env)
}

func (r *Router) handleUserStatus(env envelope.Envelope) {
	r.logger.Debug("routing user status")
	r.count(func(s *Stats) { s.UserStatuses++ })
	r.broadcast(env)
}

func (r *Router) handleSystemNotification(env envelope.Envelope) {
	r.logger.Debug("routing system notification")
	r.count(func(s *Stats) { s.SystemNotifications++ })
	r.broadcast(env)
}

func (r *Router) handleUnrecognized(env envelope.Envelope) {
	r.logger.Debug("routing unrecognized message", "type", env.Type)
	r.count(func(s *Stats) { s.Unrecognized++ })
	r.broadcast(env)
}

func (r *Router) count(fn func(*Stats)) {
	r.mu.Lock()
	fn(&r.stats)
	r.mu.Unlock()
}

func (r *Router) broadcast(env envelope.Envelope) {
	if fn, ok := r.transforms[env.Type]; ok {
		env = fn(env)
	}
	if r.target != nil {
		r.target.NotifyMessage(env)
	}
}
