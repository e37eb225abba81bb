package envelope

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
)

// Outbound message types.
const (
	TypeChatMessage     = "chat_message"
	TypeTradingOrder    = "trading_order"
	TypeSubscribePrices = "subscribe_prices"
	TypePing            = "ping"
)

// Inbound message types. TypeChatMessage is shared by both directions.
const (
	TypeTradingUpdate      = "trading_update"
	TypeUserStatus         = "user_status"
	TypeSystemNotification = "system_notification"
)

// Reserved keys lifted out of Fields.
const (
	keyType      = "type"
	keyTimestamp = "timestamp"
)

// Errors
var (
	ErrMalformedFrame  = errors.New("malformed frame")
	ErrInvalidEnvelope = errors.New("invalid envelope")
)

// Envelope is a typed, tagged message unit.
type Envelope struct {
	Type      string         // Message type; empty if the frame carried none
	Fields    map[string]any // Type-specific payload, excluding type and timestamp
	Timestamp int64          // Milliseconds since epoch, 0 if absent
}

// IsRecognizedInbound reports whether msgType is one of the inbound types
// with a dedicated routing case.
func IsRecognizedInbound(msgType string) bool {
	switch msgType {
	case TypeChatMessage, TypeTradingUpdate, TypeUserStatus, TypeSystemNotification:
		return true
	}
	return false
}

// Field returns the named payload field.
func (e Envelope) Field(name string) (any, bool) {
	v, ok := e.Fields[name]
	return v, ok
}

// StringField returns the named payload field if it is a string.
func (e Envelope) StringField(name string) string {
	s, _ := e.Fields[name].(string)
	return s
}

// MarshalJSON flattens the envelope into a single JSON object.
func (e Envelope) MarshalJSON() ([]byte, error) {
	obj := make(map[string]any, len(e.Fields)+2)
	for k, v := range e.Fields {
		obj[k] = v
	}
	obj[keyType] = e.Type
	if e.Timestamp != 0 {
		obj[keyTimestamp] = e.Timestamp
	}
	return json.Marshal(obj)
}

// Parse decodes a raw inbound frame. The frame must be a JSON object;
// a missing or non-string type yields an envelope with an empty Type.
func Parse(data []byte) (Envelope, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	var obj map[string]any
	if err := dec.Decode(&obj); err != nil {
		return Envelope{}, fmt.Errorf("%w: %v", ErrMalformedFrame, err)
	}
	if obj == nil {
		return Envelope{}, fmt.Errorf("%w: not an object", ErrMalformedFrame)
	}
	if dec.More() {
		return Envelope{}, fmt.Errorf("%w: trailing data", ErrMalformedFrame)
	}

	env := Envelope{Fields: obj}
	if t, ok := obj[keyType].(string); ok {
		env.Type = t
	}
	delete(obj, keyType)

	if raw, ok := obj[keyTimestamp]; ok {
		if ts, ok := parseTimestamp(raw); ok {
			env.Timestamp = ts
			delete(obj, keyTimestamp)
		}
	}

	return env, nil
}

// parseTimestamp accepts integral JSON numbers only; anything else stays
// in Fields untouched.
func parseTimestamp(v any) (int64, bool) {
	n, ok := v.(json.Number)
	if !ok {
		return 0, false
	}
	ts, err := strconv.ParseInt(n.String(), 10, 64)
	if err != nil {
		return 0, false
	}
	return ts, true
}
