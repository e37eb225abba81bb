package main

import (
	"encoding/json"
	"net/http"

	"github.com/potatochat/streamclient/internal/connection"
	"github.com/potatochat/streamclient/internal/journal"
)

type statsSource interface {
	Stats() connection.Stats
}

type healthResponse struct {
	Status     string          `json:"status"`
	Instance   string          `json:"instance"`
	Connection connectionState `json:"connection"`
	Journal    *journalState   `json:"journal,omitempty"`
}

type connectionState struct {
	State             string `json:"state"`
	SessionID         string `json:"session_id,omitempty"`
	ReconnectAttempts int    `json:"reconnect_attempts"`
	MaxAttempts       int    `json:"max_reconnect_attempts"`
	ReconnectPending  bool   `json:"reconnect_pending"`
	HeartbeatActive   bool   `json:"heartbeat_active"`
	Listeners         int    `json:"listeners"`
	MessagesReceived  int64  `json:"messages_received"`
	Unrecognized      int64  `json:"messages_unrecognized"`
}

type journalState struct {
	Inserts   int64 `json:"inserts"`
	Conflicts int64 `json:"conflicts"`
	Flushes   int64 `json:"flushes"`
	Errors    int64 `json:"errors"`
}

// healthHandler reports "healthy" while connected, "degraded" while a
// connect or reconnect is in flight and "unhealthy" (503) otherwise.
// writer may be nil when the journal is disabled.
func healthHandler(instance string, src statsSource, writer *journal.Writer) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		stats := src.Stats()

		resp := healthResponse{
			Instance: instance,
			Connection: connectionState{
				State:             stats.State.String(),
				SessionID:         stats.SessionID,
				ReconnectAttempts: stats.ReconnectAttempts,
				MaxAttempts:       stats.MaxReconnectAttempts,
				ReconnectPending:  stats.ReconnectPending,
				HeartbeatActive:   stats.HeartbeatActive,
				Listeners:         stats.Listeners,
				MessagesReceived:  stats.Router.Received,
				Unrecognized:      stats.Router.Unrecognized,
			},
		}

		switch {
		case stats.State == connection.StateConnected:
			resp.Status = "healthy"
		case stats.State == connection.StateConnecting || stats.ReconnectPending:
			resp.Status = "degraded"
		default:
			resp.Status = "unhealthy"
		}

		if writer != nil {
			ws := writer.Stats()
			resp.Journal = &journalState{
				Inserts:   ws.Inserts,
				Conflicts: ws.Conflicts,
				Flushes:   ws.Flushes,
				Errors:    ws.Errors,
			}
		}

		w.Header().Set("Content-Type", "application/json")
		if resp.Status == "unhealthy" {
			w.WriteHeader(http.StatusServiceUnavailable)
		}
		json.NewEncoder(w).Encode(resp)
	})
}
