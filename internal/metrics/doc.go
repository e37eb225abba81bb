// Package metrics exposes connection health as Prometheus metrics.
//
// A Collector is both a listener.Listener and a connection.Recorder, so
// one value registered on the Manager sees the whole lifecycle:
//   - connection state and connect/disconnect/error counts
//   - inbound messages by type and rejected frames
//   - outbound sends and drops by type
//   - reconnect scheduling and exhaustion
//
// Metrics live on a private registry. Serve them with Handler.
package metrics
