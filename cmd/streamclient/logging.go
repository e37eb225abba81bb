package main

import (
	"io"
	"log/slog"
	"strings"

	"github.com/potatochat/streamclient/internal/config"
	"github.com/potatochat/streamclient/internal/envelope"
)

// newLogger builds the process logger from the log section.
func newLogger(cfg config.LogConfig, w io.Writer) *slog.Logger {
	opts := &slog.HandlerOptions{Level: cfg.SlogLevel()}
	if strings.EqualFold(cfg.Format, "json") {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}

// logListener writes connection events to the log.
type logListener struct {
	logger *slog.Logger
}

func newLogListener(logger *slog.Logger) *logListener {
	return &logListener{logger: logger.With("component", "events")}
}

func (l *logListener) OnConnected() {
	l.logger.Info("stream connected")
}

func (l *logListener) OnDisconnected() {
	l.logger.Info("stream disconnected")
}

func (l *logListener) OnMessage(env envelope.Envelope) {
	switch env.Type {
	case envelope.TypeSystemNotification:
		l.logger.Info("system notification", "message", env.StringField("message"))
	default:
		l.logger.Debug("message received", "type", env.Type, "timestamp", env.Timestamp)
	}
}

func (l *logListener) OnError(msg string) {
	l.logger.Warn("stream error", "error", msg)
}
