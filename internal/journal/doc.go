// Package journal records connection lifecycle events to PostgreSQL.
//
// A Journal is registered both as a listener and as the connection
// recorder. Its callbacks only enqueue; a Writer drains the queue in
// batches and inserts into connection_events with ON CONFLICT (event_id)
// DO NOTHING. Message payloads are never stored.
package journal
