// Package router implements the Message Router component.
//
// The Message Router:
//   - Classifies inbound envelopes by their type field
//   - Has one dispatch case per recognized inbound type
//     (chat_message, trading_update, user_status, system_notification)
//   - Delivers unrecognized or untyped envelopes generically; nothing is dropped
//   - Applies optional per-type transforms before broadcast
package router
