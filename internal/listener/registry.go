package listener

import (
	"log/slog"
	"sync"

	"github.com/potatochat/streamclient/internal/envelope"
)

// Registry is a thread-safe, ordered set of listeners.
//
// The member slice is copy-on-write: Add and Remove publish a new slice,
// and notifications iterate whichever slice was current when they began.
// A callback that mutates the registry therefore never affects the
// broadcast it is running in.
type Registry struct {
	logger *slog.Logger

	mu        sync.Mutex
	listeners []Listener // Never mutated in place
}

// NewRegistry creates an empty registry.
func NewRegistry(logger *slog.Logger) *Registry {
	if logger == nil {
		logger = slog.Default()
	}
	return &Registry{logger: logger}
}

// Add registers l. Returns false if l was already registered.
func (r *Registry) Add(l Listener) bool {
	if l == nil {
		return false
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	for _, existing := range r.listeners {
		if existing == l {
			return false
		}
	}

	next := make([]Listener, len(r.listeners), len(r.listeners)+1)
	copy(next, r.listeners)
	r.listeners = append(next, l)
	return true
}

// Remove unregisters l. Returns false if l was not registered.
func (r *Registry) Remove(l Listener) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	for i, existing := range r.listeners {
		if existing != l {
			continue
		}
		next := make([]Listener, 0, len(r.listeners)-1)
		next = append(next, r.listeners[:i]...)
		next = append(next, r.listeners[i+1:]...)
		r.listeners = next
		return true
	}
	return false
}

// Clear removes all listeners.
func (r *Registry) Clear() {
	r.mu.Lock()
	r.listeners = nil
	r.mu.Unlock()
}

// Len returns the number of registered listeners.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.listeners)
}

// Snapshot returns the current members in registration order.
func (r *Registry) Snapshot() []Listener {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.listeners
}

// NotifyConnected delivers OnConnected to every listener.
func (r *Registry) NotifyConnected() {
	r.each("connected", func(l Listener) { l.OnConnected() })
}

// NotifyDisconnected delivers OnDisconnected to every listener.
func (r *Registry) NotifyDisconnected() {
	r.each("disconnected", func(l Listener) { l.OnDisconnected() })
}

// NotifyMessage delivers env to every listener.
func (r *Registry) NotifyMessage(env envelope.Envelope) {
	r.each("message", func(l Listener) { l.OnMessage(env) })
}

// NotifyError delivers msg to every listener.
func (r *Registry) NotifyError(msg string) {
	r.each("error", func(l Listener) { l.OnError(msg) })
}

func (r *Registry) each(event string, fn func(Listener)) {
	for _, l := range r.Snapshot() {
		r.deliver(event, l, fn)
	}
}

// deliver isolates one listener so a panic does not starve the rest.
func (r *Registry) deliver(event string, l Listener, fn func(Listener)) {
	defer func() {
		if p := recover(); p != nil {
			r.logger.Error("listener panicked",
				"event", event,
				"panic", p,
			)
		}
	}()
	fn(l)
}
