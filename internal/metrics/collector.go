package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/potatochat/streamclient/internal/connection"
	"github.com/potatochat/streamclient/internal/envelope"
	"github.com/potatochat/streamclient/internal/listener"
)

const namespace = "streamclient"

// otherType replaces message types outside the known set so a
// misbehaving server cannot grow label cardinality.
const otherType = "other"

var (
	_ listener.Listener   = (*Collector)(nil)
	_ connection.Recorder = (*Collector)(nil)
)

// Collector holds the client's Prometheus metrics.
type Collector struct {
	registry *prometheus.Registry

	Connected         prometheus.Gauge
	Connects          prometheus.Counter
	Disconnects       prometheus.Counter
	Errors            prometheus.Counter
	MessagesReceived  *prometheus.CounterVec
	MessagesSent      *prometheus.CounterVec
	SendsDropped      *prometheus.CounterVec
	FramesRejected    prometheus.Counter
	ReconnectsPlanned prometheus.Counter
	ReconnectDelay    prometheus.Gauge
	ReconnectsGivenUp prometheus.Counter
}

// New creates a Collector on its own registry, with Go runtime and
// process collectors included.
func New() *Collector {
	c := &Collector{
		registry: prometheus.NewRegistry(),

		Connected: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "connected",
			Help:      "1 while the websocket session is connected, 0 otherwise",
		}),
		Connects: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "connects_total",
			Help:      "Sessions that reached the connected state",
		}),
		Disconnects: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "disconnects_total",
			Help:      "Sessions that left the connected state",
		}),
		Errors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "errors_total",
			Help:      "Transport errors reported to listeners",
		}),
		MessagesReceived: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "messages_received_total",
			Help:      "Inbound envelopes delivered to listeners by type",
		}, []string{"type"}),
		MessagesSent: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "messages_sent_total",
			Help:      "Outbound envelopes handed to the transport by type",
		}, []string{"type"}),
		SendsDropped: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "sends_dropped_total",
			Help:      "Outbound envelopes dropped because the session was not connected",
		}, []string{"type"}),
		FramesRejected: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "frames_rejected_total",
			Help:      "Inbound or outbound frames that failed to encode or decode",
		}),
		ReconnectsPlanned: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "reconnects_scheduled_total",
			Help:      "Reconnect attempts scheduled after an unexpected close",
		}),
		ReconnectDelay: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "reconnect_delay_seconds",
			Help:      "Delay of the most recently scheduled reconnect",
		}),
		ReconnectsGivenUp: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "reconnect_exhausted_total",
			Help:      "Times the client gave up reconnecting",
		}),
	}

	c.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		c.Connected,
		c.Connects,
		c.Disconnects,
		c.Errors,
		c.MessagesReceived,
		c.MessagesSent,
		c.SendsDropped,
		c.FramesRejected,
		c.ReconnectsPlanned,
		c.ReconnectDelay,
		c.ReconnectsGivenUp,
	)

	return c
}

// Registry returns the underlying registry.
func (c *Collector) Registry() *prometheus.Registry {
	return c.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{})
}

func (c *Collector) OnConnected() {
	c.Connected.Set(1)
	c.Connects.Inc()
}

func (c *Collector) OnDisconnected() {
	c.Connected.Set(0)
	c.Disconnects.Inc()
}

func (c *Collector) OnMessage(env envelope.Envelope) {
	c.MessagesReceived.WithLabelValues(inboundLabel(env.Type)).Inc()
}

func (c *Collector) OnError(string) {
	c.Errors.Inc()
}

func (c *Collector) Sent(msgType string) {
	c.MessagesSent.WithLabelValues(outboundLabel(msgType)).Inc()
}

func (c *Collector) SendDropped(msgType string) {
	c.SendsDropped.WithLabelValues(outboundLabel(msgType)).Inc()
}

func (c *Collector) FrameRejected(error) {
	c.FramesRejected.Inc()
}

func (c *Collector) ReconnectScheduled(_ int, delay time.Duration) {
	c.ReconnectsPlanned.Inc()
	c.ReconnectDelay.Set(delay.Seconds())
}

func (c *Collector) ReconnectExhausted(int) {
	c.ReconnectsGivenUp.Inc()
}

func inboundLabel(msgType string) string {
	if envelope.IsRecognizedInbound(msgType) {
		return msgType
	}
	return otherType
}

func outboundLabel(msgType string) string {
	switch msgType {
	case envelope.TypeChatMessage, envelope.TypeTradingOrder, envelope.TypeSubscribePrices, envelope.TypePing:
		return msgType
	}
	return otherType
}
