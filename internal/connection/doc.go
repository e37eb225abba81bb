// Package connection implements the streaming Connection Manager.
//
// The Connection Manager:
//   - Owns a single WebSocket session authenticated with ?token=
//   - Moves between disconnected, connecting and connected
//   - Sends an application ping every heartbeat interval while connected
//   - Reconnects after unexpected closes with linear backoff (base * attempt)
//   - Parses inbound frames and hands them to the Message Router
//   - Drops outbound messages while not connected
package connection
