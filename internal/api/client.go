package api

import (
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/potatochat/streamclient/internal/auth"
	"github.com/potatochat/streamclient/internal/version"
)

// DefaultBaseURL is the production REST endpoint.
const DefaultBaseURL = "https://api.potatochat.com/v1"

// Client provides access to the REST API.
type Client struct {
	baseURL    string
	tokens     auth.Provider
	httpClient *http.Client
	logger     *slog.Logger
	userAgent  string
}

// ClientOption configures a Client.
type ClientOption func(*Client)

// NewClient creates a REST client. tokens may be nil for anonymous calls.
func NewClient(baseURL string, tokens auth.Provider, opts ...ClientOption) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		tokens:  tokens,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		logger:    slog.Default(),
		userAgent: version.UserAgent(),
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// WithTimeout sets the HTTP client timeout.
func WithTimeout(d time.Duration) ClientOption {
	return func(c *Client) {
		c.httpClient.Timeout = d
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) ClientOption {
	return func(c *Client) {
		c.logger = logger
	}
}

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(hc *http.Client) ClientOption {
	return func(c *Client) {
		c.httpClient = hc
	}
}
