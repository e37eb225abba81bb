// Package envelope defines the typed message unit exchanged over the
// streaming connection.
//
// Wire format (both directions) is a flat JSON object:
//
//	{"type": "<type>", <type-specific fields...>, "timestamp": <millis>}
//
// The timestamp is always present on outbound chat, order and ping
// messages and optional on inbound frames.
package envelope
