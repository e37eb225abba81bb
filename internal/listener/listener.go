// Package listener implements the observer set that connection events
// and inbound envelopes are fanned out to.
package listener

import "github.com/potatochat/streamclient/internal/envelope"

// Listener observes connection lifecycle events and inbound envelopes.
//
// Callbacks run on the connection's event goroutine and must not block
// for long. Implementations are identified by value equality, so use
// pointer types.
type Listener interface {
	OnConnected()
	OnDisconnected()
	OnMessage(env envelope.Envelope)
	OnError(msg string)
}

// Funcs adapts optional callbacks to the Listener interface. Use it by
// pointer; nil fields are skipped.
type Funcs struct {
	Connected    func()
	Disconnected func()
	Message      func(env envelope.Envelope)
	Error        func(msg string)
}

func (f *Funcs) OnConnected() {
	if f.Connected != nil {
		f.Connected()
	}
}

func (f *Funcs) OnDisconnected() {
	if f.Disconnected != nil {
		f.Disconnected()
	}
}

func (f *Funcs) OnMessage(env envelope.Envelope) {
	if f.Message != nil {
		f.Message(env)
	}
}

func (f *Funcs) OnError(msg string) {
	if f.Error != nil {
		f.Error(msg)
	}
}
