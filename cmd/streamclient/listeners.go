package main

import "github.com/potatochat/streamclient/internal/listener"

type priceSubscriber interface {
	SubscribePrices(symbols []string)
}

// resubscriber restores price subscriptions on every connect, since the
// server forgets them when a session ends.
func resubscriber(sub priceSubscriber, symbols []string) *listener.Funcs {
	return &listener.Funcs{
		Connected: func() {
			if len(symbols) > 0 {
				sub.SubscribePrices(symbols)
			}
		},
	}
}
