// Copyright The Linux Foundation and each contributor to LFX.
// SPDX-License-Identifier: MIT

package api

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

func TestNewClient(t *testing.T) {
	tests := []struct {
		name            string
		config          Config
		expectedBaseURL string
		expectedAuthURL string
		expectedTimeout time.Duration
		expectedTTL     time.Duration
	}{
		{
			name: "with all config provided",
			config: Config{
				AccountID:    "test-account",
				ClientID:     "test-client-id",
				ClientSecret: "test-secret",
				BaseURL:      "https://custom.api.zoom.us/v2",
				AuthURL:      "https://custom.zoom.us/oauth/token",
				Timeout:      45 * time.Second,
				TokenTTL:     time.Minute,
			},
			expectedBaseURL: "https://custom.api.zoom.us/v2",
			expectedAuthURL: "https://custom.zoom.us/oauth/token",
			expectedTimeout: 45 * time.Second,
			expectedTTL:     time.Minute,
		},
		{
			name:            "with jwt credentials - uses defaults",
			config:          Config{APIKey: "key", APISecret: "secret"},
			expectedBaseURL: BaseURL,
			expectedAuthURL: AuthURL,
			expectedTimeout: DefaultClientTimeout,
			expectedTTL:     DefaultTokenTTL,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := NewClient(tt.config)

			if client == nil {
				t.Fatal("NewClient returned nil")
			}
			if client.config.BaseURL != tt.expectedBaseURL {
				t.Errorf("expected BaseURL %s, got %s", tt.expectedBaseURL, client.config.BaseURL)
			}
			if client.config.AuthURL != tt.expectedAuthURL {
				t.Errorf("expected AuthURL %s, got %s", tt.expectedAuthURL, client.config.AuthURL)
			}
			if client.config.Timeout != tt.expectedTimeout {
				t.Errorf("expected Timeout %v, got %v", tt.expectedTimeout, client.config.Timeout)
			}
			if client.config.TokenTTL != tt.expectedTTL {
				t.Errorf("expected TokenTTL %v, got %v", tt.expectedTTL, client.config.TokenTTL)
			}
			if client.httpClient.Timeout != tt.expectedTimeout {
				t.Errorf("expected http client timeout %v, got %v", tt.expectedTimeout, client.httpClient.Timeout)
			}
		})
	}
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		config  Config
		wantErr bool
	}{
		{name: "jwt", config: Config{APIKey: "k", APISecret: "s"}},
		{name: "oauth", config: Config{AccountID: "a", ClientID: "c", ClientSecret: "s"}},
		{name: "key without secret", config: Config{APIKey: "k"}, wantErr: true},
		{name: "partial oauth", config: Config{AccountID: "a", ClientID: "c"}, wantErr: true},
		{name: "empty", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.config.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestMintToken(t *testing.T) {
	now := time.Unix(1_700_000_000, 0)

	signed, err := MintToken("my-key", "my-secret", now, 30*time.Second)
	if err != nil {
		t.Fatalf("MintToken() error = %v", err)
	}

	claims := &jwt.RegisteredClaims{}
	_, err = jwt.ParseWithClaims(signed, claims, func(token *jwt.Token) (any, error) {
		if token.Method != jwt.SigningMethodHS256 {
			t.Errorf("unexpected signing method %v", token.Method.Alg())
		}
		return []byte("my-secret"), nil
	}, jwt.WithTimeFunc(func() time.Time { return now }))
	if err != nil {
		t.Fatalf("failed to verify minted token: %v", err)
	}

	if claims.Issuer != "my-key" {
		t.Errorf("expected issuer my-key, got %s", claims.Issuer)
	}
	if got := claims.ExpiresAt.Unix(); got != now.Unix()+30 {
		t.Errorf("expected exp %d seconds, got %d", now.Unix()+30, got)
	}

	if _, err := MintToken("", "secret", now, time.Second); err == nil {
		t.Error("expected error for missing key")
	}
}

func TestJWTTokenSource_FreshTokenPerCall(t *testing.T) {
	clock := time.Unix(1_700_000_000, 0)
	source := NewJWTTokenSource("k", "s", 30*time.Second, func() time.Time { return clock })

	first, err := source.Token()
	if err != nil {
		t.Fatalf("Token() error = %v", err)
	}
	clock = clock.Add(time.Second)
	second, err := source.Token()
	if err != nil {
		t.Fatalf("Token() error = %v", err)
	}

	if first.AccessToken == second.AccessToken {
		t.Error("expected a new token for each call")
	}
	if second.TokenType != "Bearer" {
		t.Errorf("expected Bearer token type, got %s", second.TokenType)
	}
	if !second.Expiry.Equal(clock.Add(30 * time.Second)) {
		t.Errorf("unexpected expiry %v", second.Expiry)
	}
}

func TestParseErrorResponse(t *testing.T) {
	tests := []struct {
		name     string
		body     string
		expected string
	}{
		{
			name:     "zoom error json",
			body:     `{"code":3001,"message":"Meeting does not exist"}`,
			expected: "zoom API error (code 3001): Meeting does not exist",
		},
		{
			name:     "plain text",
			body:     "Bad Gateway",
			expected: "zoom API error: Bad Gateway",
		},
		{
			name:     "json without message",
			body:     `{"code":1}`,
			expected: `zoom API error: {"code":1}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := parseErrorResponse([]byte(tt.body))
			if err.Error() != tt.expected {
				t.Errorf("expected %q, got %q", tt.expected, err.Error())
			}
		})
	}
}

func TestGetMeeting(t *testing.T) {
	tests := []struct {
		name           string
		status         int
		body           string
		expectedStatus string
		expectedCode   int
		wantErr        bool
	}{
		{
			name:           "started meeting",
			status:         http.StatusOK,
			body:           `{"id":123456789,"uuid":"abc==","topic":"Standup","status":"started","join_url":"https://zoom.us/j/123456789"}`,
			expectedStatus: MeetingStatusStarted,
		},
		{
			name:           "waiting meeting",
			status:         http.StatusOK,
			body:           `{"id":123456789,"status":"waiting"}`,
			expectedStatus: MeetingStatusWaiting,
		},
		{
			name:         "not found",
			status:       http.StatusNotFound,
			body:         `{"code":3001,"message":"Meeting does not exist"}`,
			expectedCode: http.StatusNotFound,
			wantErr:      true,
		},
		{
			name:    "missing status",
			status:  http.StatusOK,
			body:    `{"id":123456789}`,
			wantErr: true,
		},
		{
			name:    "malformed body",
			status:  http.StatusOK,
			body:    `{"id":`,
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var calls int32
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				atomic.AddInt32(&calls, 1)
				if r.URL.Path != "/meetings/123456789" {
					t.Errorf("unexpected path %s", r.URL.Path)
				}
				if !strings.HasPrefix(r.Header.Get("Authorization"), "Bearer ") {
					t.Errorf("missing bearer token, got %q", r.Header.Get("Authorization"))
				}
				if r.Header.Get("User-Agent") != userAgent {
					t.Errorf("unexpected user agent %q", r.Header.Get("User-Agent"))
				}
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			}))
			defer server.Close()

			client := NewClient(Config{APIKey: "k", APISecret: "s", BaseURL: server.URL})
			meeting, err := client.GetMeeting(context.Background(), "123456789")

			if atomic.LoadInt32(&calls) != 1 {
				t.Errorf("expected exactly one request, got %d", calls)
			}
			if tt.wantErr {
				if err == nil {
					t.Fatal("expected error")
				}
				if tt.expectedCode != 0 {
					var statusErr *StatusError
					if !errors.As(err, &statusErr) || statusErr.StatusCode != tt.expectedCode {
						t.Errorf("expected status error %d, got %v", tt.expectedCode, err)
					}
				}
				return
			}
			if err != nil {
				t.Fatalf("GetMeeting() error = %v", err)
			}
			if meeting.Status != tt.expectedStatus {
				t.Errorf("expected status %s, got %s", tt.expectedStatus, meeting.Status)
			}
		})
	}
}

func TestGetMeeting_OAuthToken(t *testing.T) {
	var tokenCalls int32
	mux := http.NewServeMux()
	mux.HandleFunc("/oauth/token", func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&tokenCalls, 1)
		if err := r.ParseForm(); err != nil {
			t.Errorf("ParseForm() error = %v", err)
		}
		if r.PostForm.Get("grant_type") != "account_credentials" {
			t.Errorf("unexpected grant_type %q", r.PostForm.Get("grant_type"))
		}
		if r.PostForm.Get("account_id") != "acct" {
			t.Errorf("unexpected account_id %q", r.PostForm.Get("account_id"))
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"access_token":"oauth-token","token_type":"bearer","expires_in":3600}`))
	})
	mux.HandleFunc("/meetings/42", func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer oauth-token" {
			t.Errorf("unexpected authorization %q", r.Header.Get("Authorization"))
		}
		_, _ = w.Write([]byte(`{"id":42,"status":"started"}`))
	})
	server := httptest.NewServer(mux)
	defer server.Close()

	client := NewClient(Config{
		AccountID:    "acct",
		ClientID:     "client",
		ClientSecret: "secret",
		BaseURL:      server.URL,
		AuthURL:      server.URL + "/oauth/token",
	})

	for range 2 {
		meeting, err := client.GetMeeting(context.Background(), "42")
		if err != nil {
			t.Fatalf("GetMeeting() error = %v", err)
		}
		if meeting.ID != 42 {
			t.Errorf("expected id 42, got %d", meeting.ID)
		}
	}
	if atomic.LoadInt32(&tokenCalls) != 1 {
		t.Errorf("expected the oauth token to be cached, got %d token calls", tokenCalls)
	}
}

func TestGetMeeting_Timeout(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(time.Second):
		}
	}))
	defer server.Close()

	client := NewClient(Config{APIKey: "k", APISecret: "s", BaseURL: server.URL, Timeout: 50 * time.Millisecond})
	if _, err := client.GetMeeting(context.Background(), "1"); err == nil {
		t.Fatal("expected timeout error")
	}
}

func TestGetMeeting_EmptyID(t *testing.T) {
	client := NewClient(Config{APIKey: "k", APISecret: "s"})
	if _, err := client.GetMeeting(context.Background(), ""); err == nil {
		t.Fatal("expected error for empty meeting id")
	}
}
