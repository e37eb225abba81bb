package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/potatochat/streamclient/internal/auth"
	"github.com/potatochat/streamclient/internal/config"
	"github.com/potatochat/streamclient/internal/connection"
	"github.com/potatochat/streamclient/internal/envelope"
	"github.com/potatochat/streamclient/internal/journal"
	"github.com/potatochat/streamclient/internal/router"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type fakeLogin struct {
	token string
	err   error
	calls int
}

func (f *fakeLogin) Login(_ context.Context, _, _ string) (string, error) {
	f.calls++
	return f.token, f.err
}

func TestResolveToken(t *testing.T) {
	ctx := context.Background()

	t.Run("configured token wins", func(t *testing.T) {
		client := &fakeLogin{token: "from-login"}
		p, err := resolveToken(ctx, config.AuthConfig{Token: "from-config", Username: "alice"}, nil, client, discardLogger())
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if tok, _ := p.Token(); tok != "from-config" {
			t.Errorf("token = %q, want from-config", tok)
		}
		if client.calls != 0 {
			t.Errorf("Login called %d times", client.calls)
		}
	})

	t.Run("stored token", func(t *testing.T) {
		store, err := auth.OpenFileStore(filepath.Join(t.TempDir(), "creds.yaml"))
		if err != nil {
			t.Fatal(err)
		}
		store.SaveToken("from-file")

		client := &fakeLogin{}
		p, err := resolveToken(ctx, config.AuthConfig{Username: "alice"}, store, client, discardLogger())
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if tok, _ := p.Token(); tok != "from-file" {
			t.Errorf("token = %q, want from-file", tok)
		}
		if client.calls != 0 {
			t.Errorf("Login called %d times", client.calls)
		}
	})

	t.Run("login saves token", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "creds.yaml")
		store, err := auth.OpenFileStore(path)
		if err != nil {
			t.Fatal(err)
		}

		client := &fakeLogin{token: "from-login"}
		p, err := resolveToken(ctx, config.AuthConfig{Username: "alice", Password: "pw"}, store, client, discardLogger())
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if tok, _ := p.Token(); tok != "from-login" {
			t.Errorf("token = %q, want from-login", tok)
		}

		reopened, err := auth.OpenFileStore(path)
		if err != nil {
			t.Fatal(err)
		}
		if tok, _ := reopened.Token(); tok != "from-login" {
			t.Errorf("persisted token = %q, want from-login", tok)
		}
	})

	t.Run("login without store", func(t *testing.T) {
		p, err := resolveToken(ctx, config.AuthConfig{Username: "alice", Password: "pw"}, nil, &fakeLogin{token: "tok"}, discardLogger())
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if tok, _ := p.Token(); tok != "tok" {
			t.Errorf("token = %q, want tok", tok)
		}
	})

	t.Run("login failure", func(t *testing.T) {
		_, err := resolveToken(ctx, config.AuthConfig{Username: "alice", Password: "pw"}, nil, &fakeLogin{err: errors.New("401")}, discardLogger())
		if err == nil || !strings.Contains(err.Error(), "resolve token") {
			t.Errorf("err = %v, want resolve token error", err)
		}
	})

	t.Run("nothing configured", func(t *testing.T) {
		p, err := resolveToken(ctx, config.AuthConfig{}, nil, &fakeLogin{}, discardLogger())
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if p.LoggedIn() {
			t.Error("provider should not be logged in")
		}
	})
}

type fakeSubscriber struct {
	calls [][]string
}

func (f *fakeSubscriber) SubscribePrices(symbols []string) {
	f.calls = append(f.calls, symbols)
}

func TestResubscriber(t *testing.T) {
	sub := &fakeSubscriber{}
	l := resubscriber(sub, []string{"BTCUSD", "ETHUSD"})

	l.OnConnected()
	l.OnDisconnected()
	l.OnConnected()

	if len(sub.calls) != 2 {
		t.Fatalf("SubscribePrices called %d times, want 2", len(sub.calls))
	}
	if got := strings.Join(sub.calls[1], ","); got != "BTCUSD,ETHUSD" {
		t.Errorf("symbols = %s", got)
	}

	empty := &fakeSubscriber{}
	resubscriber(empty, nil).OnConnected()
	if len(empty.calls) != 0 {
		t.Error("subscribed with no symbols")
	}
}

type fixedStats connection.Stats

func (f fixedStats) Stats() connection.Stats { return connection.Stats(f) }

func TestHealthHandler(t *testing.T) {
	tests := []struct {
		name       string
		stats      connection.Stats
		wantStatus string
		wantCode   int
	}{
		{
			name:       "connected",
			stats:      connection.Stats{State: connection.StateConnected, SessionID: "s1", Router: router.Stats{Received: 7}},
			wantStatus: "healthy",
			wantCode:   http.StatusOK,
		},
		{
			name:       "reconnect pending",
			stats:      connection.Stats{State: connection.StateDisconnected, ReconnectPending: true, ReconnectAttempts: 2},
			wantStatus: "degraded",
			wantCode:   http.StatusOK,
		},
		{
			name:       "connecting",
			stats:      connection.Stats{State: connection.StateConnecting},
			wantStatus: "degraded",
			wantCode:   http.StatusOK,
		},
		{
			name:       "gave up",
			stats:      connection.Stats{State: connection.StateDisconnected, ReconnectAttempts: 5, MaxReconnectAttempts: 5},
			wantStatus: "unhealthy",
			wantCode:   http.StatusServiceUnavailable,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			healthHandler("desk-01", fixedStats(tt.stats), nil).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

			if rec.Code != tt.wantCode {
				t.Errorf("code = %d, want %d", rec.Code, tt.wantCode)
			}
			var resp healthResponse
			if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
				t.Fatalf("decode: %v", err)
			}
			if resp.Status != tt.wantStatus {
				t.Errorf("status = %q, want %q", resp.Status, tt.wantStatus)
			}
			if resp.Instance != "desk-01" {
				t.Errorf("instance = %q", resp.Instance)
			}
			if resp.Connection.State != tt.stats.State.String() {
				t.Errorf("state = %q", resp.Connection.State)
			}
			if resp.Journal != nil {
				t.Error("journal section present without a writer")
			}
		})
	}
}

func TestHealthHandler_Journal(t *testing.T) {
	writer := journal.NewWriter(journal.DefaultWriterConfig(), journal.NewQueue[journal.Event](1, 1), nil, discardLogger())

	rec := httptest.NewRecorder()
	healthHandler("desk-01", fixedStats{State: connection.StateConnected}, writer).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

	if !strings.Contains(rec.Body.String(), `"journal":{"inserts":0`) {
		t.Errorf("body = %s", rec.Body.String())
	}
}

func TestNewLogger(t *testing.T) {
	var buf bytes.Buffer
	newLogger(config.LogConfig{Level: "warn", Format: "json"}, &buf).Info("hidden")
	newLogger(config.LogConfig{Level: "warn", Format: "json"}, &buf).Warn("shown")

	out := buf.String()
	if strings.Contains(out, "hidden") {
		t.Error("info line written at warn level")
	}
	if !strings.HasPrefix(out, "{") || !strings.Contains(out, `"msg":"shown"`) {
		t.Errorf("output = %q, want JSON", out)
	}

	buf.Reset()
	newLogger(config.LogConfig{Level: "info", Format: "text"}, &buf).Info("plain")
	if !strings.Contains(buf.String(), "msg=plain") {
		t.Errorf("output = %q, want text", buf.String())
	}
}

func TestLogListener(t *testing.T) {
	var buf bytes.Buffer
	l := newLogListener(newLogger(config.LogConfig{Level: "info"}, &buf))

	l.OnConnected()
	l.OnMessage(envelope.Envelope{Type: envelope.TypeSystemNotification, Fields: map[string]any{"message": "maintenance at noon"}})
	l.OnMessage(envelope.Envelope{Type: envelope.TypeTradingUpdate})
	l.OnError("connection reset")
	l.OnDisconnected()

	out := buf.String()
	for _, want := range []string{"stream connected", "maintenance at noon", "connection reset", "stream disconnected", "component=events"} {
		if !strings.Contains(out, want) {
			t.Errorf("log missing %q:\n%s", want, out)
		}
	}
	if strings.Contains(out, "trading_update") {
		t.Error("trading update logged at info")
	}
}

func TestManagerConfig(t *testing.T) {
	cfg := &config.Config{}
	cfg.API.WSURL = "wss://ws.example.test/v1"
	cfg.Connection = config.ConnectionConfig{
		MaxReconnectAttempts: 5,
		ReconnectBaseDelay:   3 * time.Second,
		HeartbeatInterval:    30 * time.Second,
		HandshakeTimeout:     10 * time.Second,
		WriteTimeout:         5 * time.Second,
		SendBufferSize:       64,
		ReadLimit:            4096,
	}

	got := managerConfig(cfg)
	if got.URL != "wss://ws.example.test/v1" || got.MaxReconnectAttempts != 5 || got.ReconnectBaseDelay != 3*time.Second {
		t.Errorf("manager config = %+v", got)
	}
	if got.Client.SendBufferSize != 64 || got.Client.ReadLimit != 4096 || got.Client.HandshakeTimeout != 10*time.Second {
		t.Errorf("client config = %+v", got.Client)
	}
}
