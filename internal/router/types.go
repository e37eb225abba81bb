package router

import "github.com/potatochat/streamclient/internal/envelope"

// Broadcaster fans an envelope out to every interested listener.
type Broadcaster interface {
	NotifyMessage(env envelope.Envelope)
}

// Transform rewrites an envelope of one type before it is broadcast.
// It must return an envelope; routing never drops a valid one.
type Transform func(env envelope.Envelope) envelope.Envelope

// Option configures a Router.
type Option func(*Router)

// Stats contains routing counters.
type Stats struct {
	Received            int64
	ChatMessages        int64
	TradingUpdates      int64
	UserStatuses        int64
	SystemNotifications int64
	Unrecognized        int64 // Missing or unknown type, delivered generically
}
