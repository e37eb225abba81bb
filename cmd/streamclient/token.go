package main

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/potatochat/streamclient/internal/auth"
	"github.com/potatochat/streamclient/internal/config"
)

type loginClient interface {
	Login(ctx context.Context, username, password string) (string, error)
}

// tokenChain consults the configured token before the token file.
func tokenChain(cfg config.AuthConfig, store *auth.FileStore) auth.Chain {
	chain := auth.Chain{auth.StaticProvider(cfg.Token)}
	if store != nil {
		chain = append(chain, store)
	}
	return chain
}

// resolveToken returns the provider the Manager connects with. When no
// token is configured or stored and credentials are present it logs in
// and saves the token to store.
func resolveToken(ctx context.Context, cfg config.AuthConfig, store *auth.FileStore, client loginClient, logger *slog.Logger) (auth.Provider, error) {
	chain := tokenChain(cfg, store)
	if chain.LoggedIn() {
		return chain, nil
	}

	if cfg.Username == "" {
		logger.Warn("no access token configured; the stream will not connect")
		return chain, nil
	}

	token, err := client.Login(ctx, cfg.Username, cfg.Password)
	if err != nil {
		return nil, fmt.Errorf("resolve token: %w", err)
	}

	if store == nil {
		return auth.StaticProvider(token), nil
	}
	if err := store.SaveToken(token); err != nil {
		logger.Warn("failed to persist access token", "path", store.Path(), "error", err)
		return auth.StaticProvider(token), nil
	}
	logger.Info("access token saved", "path", store.Path())
	return chain, nil
}
