package envelope

import (
	"fmt"
	"time"
)

// NewChatMessage builds a chat_message envelope for a room.
func NewChatMessage(roomID, content, messageType string, now time.Time) (Envelope, error) {
	if roomID == "" {
		return Envelope{}, fmt.Errorf("%w: chat_message requires roomId", ErrInvalidEnvelope)
	}
	if messageType == "" {
		messageType = "text"
	}
	return Envelope{
		Type: TypeChatMessage,
		Fields: map[string]any{
			"roomId":      roomID,
			"content":     content,
			"messageType": messageType,
		},
		Timestamp: now.UnixMilli(),
	}, nil
}

// NewTradingOrder builds a trading_order envelope. A zero price is
// allowed for market orders.
func NewTradingOrder(symbol, orderType string, amount, price float64, now time.Time) (Envelope, error) {
	if symbol == "" {
		return Envelope{}, fmt.Errorf("%w: trading_order requires symbol", ErrInvalidEnvelope)
	}
	if orderType == "" {
		return Envelope{}, fmt.Errorf("%w: trading_order requires orderType", ErrInvalidEnvelope)
	}
	if amount <= 0 {
		return Envelope{}, fmt.Errorf("%w: trading_order amount must be positive, got %v", ErrInvalidEnvelope, amount)
	}
	if price < 0 {
		return Envelope{}, fmt.Errorf("%w: trading_order price must not be negative, got %v", ErrInvalidEnvelope, price)
	}
	return Envelope{
		Type: TypeTradingOrder,
		Fields: map[string]any{
			"symbol":    symbol,
			"orderType": orderType,
			"amount":    amount,
			"price":     price,
		},
		Timestamp: now.UnixMilli(),
	}, nil
}

// NewSubscribePrices builds a subscribe_prices envelope. Symbol order is
// preserved.
func NewSubscribePrices(symbols []string) (Envelope, error) {
	if len(symbols) == 0 {
		return Envelope{}, fmt.Errorf("%w: subscribe_prices requires at least one symbol", ErrInvalidEnvelope)
	}
	list := make([]string, len(symbols))
	for i, s := range symbols {
		if s == "" {
			return Envelope{}, fmt.Errorf("%w: subscribe_prices symbol %d is empty", ErrInvalidEnvelope, i)
		}
		list[i] = s
	}
	return Envelope{
		Type:   TypeSubscribePrices,
		Fields: map[string]any{"symbols": list},
	}, nil
}

// NewPing builds a heartbeat envelope.
func NewPing(now time.Time) Envelope {
	return Envelope{
		Type:      TypePing,
		Timestamp: now.UnixMilli(),
	}
}
