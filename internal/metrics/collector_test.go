package metrics

import (
	"errors"
	"io"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/potatochat/streamclient/internal/envelope"
)

// value returns the sample for name with the given type label ("" for
// unlabelled metrics), or -1 when absent.
func value(t *testing.T, c *Collector, name, label string) float64 {
	t.Helper()
	families, err := c.Registry().Gather()
	if err != nil {
		t.Fatalf("Gather failed: %v", err)
	}
	for _, mf := range families {
		if mf.GetName() != name {
			continue
		}
		for _, m := range mf.GetMetric() {
			matched := label == ""
			for _, lp := range m.GetLabel() {
				if lp.GetName() == "type" && lp.GetValue() == label {
					matched = true
				}
			}
			if !matched {
				continue
			}
			if m.GetCounter() != nil {
				return m.GetCounter().GetValue()
			}
			return m.GetGauge().GetValue()
		}
	}
	return -1
}

func TestCollector_Lifecycle(t *testing.T) {
	c := New()

	c.OnConnected()
	if got := value(t, c, "streamclient_connected", ""); got != 1 {
		t.Errorf("connected = %v, want 1", got)
	}

	c.OnDisconnected()
	c.OnConnected()
	c.OnDisconnected()
	c.OnError("boom")

	tests := []struct {
		name string
		want float64
	}{
		{"streamclient_connected", 0},
		{"streamclient_connects_total", 2},
		{"streamclient_disconnects_total", 2},
		{"streamclient_errors_total", 1},
	}
	for _, tt := range tests {
		if got := value(t, c, tt.name, ""); got != tt.want {
			t.Errorf("%s = %v, want %v", tt.name, got, tt.want)
		}
	}
}

func TestCollector_MessageLabels(t *testing.T) {
	c := New()

	c.OnMessage(envelope.Envelope{Type: envelope.TypeTradingUpdate})
	c.OnMessage(envelope.Envelope{Type: envelope.TypeTradingUpdate})
	c.OnMessage(envelope.Envelope{Type: "weird_thing"})
	c.OnMessage(envelope.Envelope{})

	if got := value(t, c, "streamclient_messages_received_total", "trading_update"); got != 2 {
		t.Errorf("trading_update = %v, want 2", got)
	}
	if got := value(t, c, "streamclient_messages_received_total", "other"); got != 2 {
		t.Errorf("other = %v, want 2", got)
	}
	if got := value(t, c, "streamclient_messages_received_total", "weird_thing"); got != -1 {
		t.Errorf("unknown type got its own series")
	}
}

func TestCollector_Recorder(t *testing.T) {
	c := New()

	c.Sent(envelope.TypeChatMessage)
	c.Sent(envelope.TypePing)
	c.Sent("custom")
	c.SendDropped(envelope.TypeTradingOrder)
	c.FrameRejected(errors.New("bad frame"))
	c.ReconnectScheduled(1, 3*time.Second)
	c.ReconnectScheduled(2, 6*time.Second)
	c.ReconnectExhausted(5)

	checks := []struct {
		name  string
		label string
		want  float64
	}{
		{"streamclient_messages_sent_total", "chat_message", 1},
		{"streamclient_messages_sent_total", "ping", 1},
		{"streamclient_messages_sent_total", "other", 1},
		{"streamclient_sends_dropped_total", "trading_order", 1},
		{"streamclient_frames_rejected_total", "", 1},
		{"streamclient_reconnects_scheduled_total", "", 2},
		{"streamclient_reconnect_delay_seconds", "", 6},
		{"streamclient_reconnect_exhausted_total", "", 1},
	}
	for _, tt := range checks {
		if got := value(t, c, tt.name, tt.label); got != tt.want {
			t.Errorf("%s{type=%q} = %v, want %v", tt.name, tt.label, got, tt.want)
		}
	}
}

func TestCollector_Handler(t *testing.T) {
	c := New()
	c.OnConnected()

	server := httptest.NewServer(c.Handler())
	defer server.Close()

	resp, err := server.Client().Get(server.URL)
	if err != nil {
		t.Fatalf("GET failed: %v", err)
	}
	defer resp.Body.Close()
	body, _ := io.ReadAll(resp.Body)

	for _, want := range []string{
		"streamclient_connected 1",
		"streamclient_connects_total 1",
		"go_goroutines",
	} {
		if !strings.Contains(string(body), want) {
			t.Errorf("exposition missing %q", want)
		}
	}
}

func TestNew_IndependentRegistries(t *testing.T) {
	// Each Collector owns its registry, so two can coexist.
	a, b := New(), New()
	a.OnConnected()
	if got := value(t, b, "streamclient_connects_total", ""); got != 0 {
		t.Errorf("second collector saw %v connects", got)
	}
}
