// Package api is the REST client for account operations that happen
// outside the websocket session.
//
// The base URL is https://api.potatochat.com/v1. Requests carry
// "Authorization: Bearer <token>" whenever the configured auth.Provider
// holds a token. Non-2xx responses are returned as *APIError with the
// server's "message" field when present.
package api
