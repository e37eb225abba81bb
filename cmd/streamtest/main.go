// streamtest connects to the streaming endpoint and prints every inbound
// envelope to the console.
// Usage: go run ./cmd/streamtest --config configs/streamclient.yaml --token $TOKEN
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/potatochat/streamclient/internal/auth"
	"github.com/potatochat/streamclient/internal/config"
	"github.com/potatochat/streamclient/internal/connection"
	"github.com/potatochat/streamclient/internal/envelope"
	"github.com/potatochat/streamclient/internal/listener"
)

func main() {
	configPath := flag.String("config", "configs/streamclient.yaml", "path to config file")
	token := flag.String("token", os.Getenv("STREAMCLIENT_TOKEN"), "access token (overrides config and token file)")
	symbols := flag.String("symbols", "", "comma-separated symbols to subscribe (overrides config)")
	verbose := flag.Bool("verbose", false, "print full message JSON")
	flag.Parse()

	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelDebug,
	}))

	cfg, err := config.LoadWithDefaults(*configPath)
	if err != nil {
		logger.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	tokens := auth.Chain{auth.StaticProvider(*token), auth.StaticProvider(cfg.Auth.Token)}
	if cfg.Auth.TokenFile != "" {
		store, err := auth.OpenFileStore(cfg.Auth.TokenFile)
		if err != nil {
			logger.Error("failed to open token file", "error", err)
			os.Exit(1)
		}
		tokens = append(tokens, store)
	}
	if !tokens.LoggedIn() {
		logger.Error("access token required", "hint", "pass --token or set auth.token / auth.token_file")
		os.Exit(1)
	}

	subs := cfg.Subscriptions.Symbols
	if *symbols != "" {
		subs = strings.Split(*symbols, ",")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	connCfg := connection.DefaultManagerConfig()
	connCfg.URL = cfg.API.WSURL
	connCfg.MaxReconnectAttempts = cfg.Connection.MaxReconnectAttempts
	connCfg.ReconnectBaseDelay = cfg.Connection.ReconnectBaseDelay
	connCfg.HeartbeatInterval = cfg.Connection.HeartbeatInterval

	mgr := connection.NewManager(connCfg, logger)
	mgr.AddListener(&listener.Funcs{
		Connected: func() {
			logger.Info("connected", "symbols", subs)
			if len(subs) > 0 {
				mgr.SubscribePrices(subs)
			}
		},
		Disconnected: func() { logger.Info("disconnected") },
		Error:        func(msg string) { logger.Warn("stream error", "error", msg) },
		Message:      func(env envelope.Envelope) { printEnvelope(os.Stdout, env, *verbose) },
	})

	// Stats printer
	go func() {
		ticker := time.NewTicker(10 * time.Second)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				s := mgr.Stats()
				logger.Info("stats",
					"state", s.State,
					"session", s.SessionID,
					"reconnect_attempts", s.ReconnectAttempts,
					"received", s.Router.Received,
					"trading_updates", s.Router.TradingUpdates,
					"chat_messages", s.Router.ChatMessages,
					"unrecognized", s.Router.Unrecognized,
				)
			}
		}
	}()

	mgr.ConnectWith(tokens)
	logger.Info("streaming started - press Ctrl+C to stop")

	<-ctx.Done()

	logger.Info("shutting down...")
	mgr.Close()
	logger.Info("shutdown complete")
}

func printEnvelope(w io.Writer, env envelope.Envelope, verbose bool) {
	if verbose {
		data, _ := json.MarshalIndent(env, "", "  ")
		fmt.Fprintf(w, "[%s] %s\n", strings.ToUpper(env.Type), data)
		return
	}

	switch env.Type {
	case envelope.TypeTradingUpdate:
		price, _ := env.Field("price")
		fmt.Fprintf(w, "[TRADING] symbol=%s price=%v\n", env.StringField("symbol"), price)
	case envelope.TypeChatMessage:
		fmt.Fprintf(w, "[CHAT] room=%s content=%s\n", env.StringField("roomId"), env.StringField("content"))
	case envelope.TypeUserStatus:
		fmt.Fprintf(w, "[STATUS] user=%s status=%s\n", env.StringField("userId"), env.StringField("status"))
	case envelope.TypeSystemNotification:
		fmt.Fprintf(w, "[SYSTEM] %s\n", env.StringField("message"))
	default:
		fmt.Fprintf(w, "[OTHER] type=%q fields=%d\n", env.Type, len(env.Fields))
	}
}
