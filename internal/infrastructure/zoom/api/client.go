// Copyright The Linux Foundation and each contributor to LFX.
// SPDX-License-Identifier: MIT

package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/clientcredentials"

	"github.com/linuxfoundation/lfx-v2-zoom-presence-bot/internal/logging"
)

// ClientAPI defines the interface for Zoom API operations
// This allows for easy mocking and testing of the Zoom client
type ClientAPI interface {
	GetMeeting(ctx context.Context, meetingID string) (*Meeting, error)
}

const (
	// BaseURL is the base URL for Zoom API
	BaseURL = "https://api.zoom.us/v2"
	// AuthURL is the OAuth token endpoint
	AuthURL = "https://zoom.us/oauth/token"
	// DefaultClientTimeout bounds every Zoom API call, including a hung connection.
	DefaultClientTimeout = 10 * time.Second
	// DefaultTokenTTL is the lifetime of the JWT minted for each request.
	DefaultTokenTTL = 30 * time.Second

	userAgent = "lfx-zoom-presence-bot"
)

// Client represents a Zoom API client. Requests are never retried; retry policy
// belongs to the caller.
type Client struct {
	httpClient *http.Client
	config     Config
}

// Config holds the configuration for the Zoom client. Either the JWT app key and
// secret or the Server-to-Server OAuth triple must be set; OAuth wins when both are.
type Config struct {
	APIKey    string
	APISecret string

	AccountID    string
	ClientID     string
	ClientSecret string

	// Optional: override base URL for testing
	BaseURL string
	// Optional: override auth URL for testing
	AuthURL string
	// Optional: override timeout for HTTP requests
	Timeout time.Duration
	// Optional: override the lifetime of minted JWTs
	TokenTTL time.Duration
	// Optional: base transport, defaults to http.DefaultTransport
	Transport http.RoundTripper
}

// UsesOAuth reports whether Server-to-Server OAuth credentials are configured.
func (c Config) UsesOAuth() bool {
	return c.AccountID != "" && c.ClientID != "" && c.ClientSecret != ""
}

// Validate checks that one complete set of credentials is present.
func (c Config) Validate() error {
	if c.UsesOAuth() || (c.APIKey != "" && c.APISecret != "") {
		return nil
	}
	return errors.New("zoom credentials missing: set ZOOM_API_KEY and ZOOM_API_SECRET, or ZOOM_ACCOUNT_ID, ZOOM_CLIENT_ID and ZOOM_CLIENT_SECRET")
}

// Ensure that Client implements ClientAPI
var _ ClientAPI = (*Client)(nil)

// NewClient creates a new Zoom API client
func NewClient(config Config) *Client {
	// Set defaults if not provided
	if config.BaseURL == "" {
		config.BaseURL = BaseURL
	}
	if config.AuthURL == "" {
		config.AuthURL = AuthURL
	}
	if config.Timeout == 0 {
		config.Timeout = DefaultClientTimeout
	}
	if config.TokenTTL == 0 {
		config.TokenTTL = DefaultTokenTTL
	}
	if config.Transport == nil {
		config.Transport = http.DefaultTransport
	}

	return &Client{
		httpClient: &http.Client{
			Timeout: config.Timeout,
			Transport: otelhttp.NewTransport(&oauth2.Transport{
				Base:   config.Transport,
				Source: newTokenSource(config),
			}),
		},
		config: config,
	}
}

// newTokenSource returns the credential source for every request: a fresh JWT
// per call, or a cached Server-to-Server OAuth token.
func newTokenSource(config Config) oauth2.TokenSource {
	if !config.UsesOAuth() {
		return NewJWTTokenSource(config.APIKey, config.APISecret, config.TokenTTL, time.Now)
	}

	// Zoom Server-to-Server OAuth requires specific grant_type and account_id
	oauthConfig := &clientcredentials.Config{
		ClientID:     config.ClientID,
		ClientSecret: config.ClientSecret,
		TokenURL:     config.AuthURL,
		EndpointParams: url.Values{
			"grant_type": []string{"account_credentials"},
			"account_id": []string{config.AccountID},
		},
		AuthStyle: oauth2.AuthStyleInParams,
	}
	tokenCtx := context.WithValue(context.Background(), oauth2.HTTPClient, &http.Client{
		Timeout:   config.Timeout,
		Transport: config.Transport,
	})
	return oauthConfig.TokenSource(tokenCtx)
}

// StatusError is returned for a non-2xx answer from the Zoom API.
type StatusError struct {
	StatusCode int
	Err        error
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("status %d: %v", e.StatusCode, e.Err)
}

func (e *StatusError) Unwrap() error {
	return e.Err
}

// doRequest performs one authenticated GET request and returns the response body
// of a 2xx answer.
func (c *Client) doRequest(ctx context.Context, path string) ([]byte, error) {
	req, err := c.createRequest(ctx, http.MethodGet, c.config.BaseURL+path)
	if err != nil {
		return nil, err
	}

	slog.DebugContext(ctx, "making Zoom API request", "method", req.Method, "path", path)

	resp, duration, err := c.executeRequestWithTiming(req)
	if err != nil {
		slog.ErrorContext(ctx, "Zoom API request failed",
			"method", req.Method,
			"path", path,
			"duration", duration.String(),
			logging.ErrKey, err)
		return nil, fmt.Errorf("zoom API request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read zoom API response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		statusErr := &StatusError{StatusCode: resp.StatusCode, Err: parseErrorResponse(body)}
		slog.ErrorContext(ctx, "Zoom API error response",
			"method", req.Method,
			"path", path,
			"status", resp.StatusCode,
			"duration", duration.String(),
			"body", string(body),
			logging.ErrKey, statusErr)
		return nil, statusErr
	}

	slog.DebugContext(ctx, "Zoom API request completed",
		"method", req.Method,
		"path", path,
		"status", resp.StatusCode,
		"duration", duration.String(),
	)
	return body, nil
}

// createRequest creates a new HTTP request with the given parameters
func (c *Client) createRequest(ctx context.Context, method, url string) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, method, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", userAgent)
	return req, nil
}

// executeRequestWithTiming executes the request and returns the response, duration, and error
func (c *Client) executeRequestWithTiming(req *http.Request) (*http.Response, time.Duration, error) {
	startTime := time.Now()
	resp, err := c.httpClient.Do(req)
	return resp, time.Since(startTime), err
}

// parseErrorResponse attempts to parse a Zoom API error response
func parseErrorResponse(body []byte) error {
	var errResp struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
	}
	if err := json.Unmarshal(body, &errResp); err == nil && errResp.Message != "" {
		return fmt.Errorf("zoom API error (code %d): %s", errResp.Code, errResp.Message)
	}
	return fmt.Errorf("zoom API error: %s", string(body))
}
