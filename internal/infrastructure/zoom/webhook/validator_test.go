// Copyright The Linux Foundation and each contributor to LFX.
// SPDX-License-Identifier: MIT

package webhook

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/linuxfoundation/lfx-v2-zoom-presence-bot/internal/domain"
)

func signBody(secret, timestamp string, body []byte) string {
	h := hmac.New(sha256.New, []byte(secret))
	h.Write([]byte("v0:" + timestamp + ":" + string(body)))
	return "v0=" + hex.EncodeToString(h.Sum(nil))
}

func TestValidateRequest(t *testing.T) {
	now := time.Unix(1_700_000_000, 0)
	ts := strconv.FormatInt(now.Unix(), 10)
	staleTS := strconv.FormatInt(now.Add(-10*time.Minute).Unix(), 10)
	body := []byte(`{"event":"meeting.started","payload":{"object":{"id":"1"}}}`)

	tests := []struct {
		name              string
		verificationToken string
		secretToken       string
		headers           domain.WebhookHeaders
		wantErr           bool
	}{
		{
			name:    "nothing configured accepts everything",
			headers: domain.WebhookHeaders{},
		},
		{
			name:              "matching verification token",
			verificationToken: "tok",
			headers:           domain.WebhookHeaders{Authorization: "tok"},
		},
		{
			name:              "verification token is compared exactly",
			verificationToken: "tok",
			headers:           domain.WebhookHeaders{Authorization: "Bearer tok"},
			wantErr:           true,
		},
		{
			name:              "missing authorization",
			verificationToken: "tok",
			wantErr:           true,
		},
		{
			name:        "valid signature",
			secretToken: "secret",
			headers:     domain.WebhookHeaders{Signature: signBody("secret", ts, body), Timestamp: ts},
		},
		{
			name:        "signature with wrong secret",
			secretToken: "secret",
			headers:     domain.WebhookHeaders{Signature: signBody("other", ts, body), Timestamp: ts},
			wantErr:     true,
		},
		{
			name:        "stale timestamp",
			secretToken: "secret",
			headers:     domain.WebhookHeaders{Signature: signBody("secret", staleTS, body), Timestamp: staleTS},
			wantErr:     true,
		},
		{
			name:        "missing signature",
			secretToken: "secret",
			headers:     domain.WebhookHeaders{Timestamp: ts},
			wantErr:     true,
		},
		{
			name:        "non numeric timestamp",
			secretToken: "secret",
			headers:     domain.WebhookHeaders{Signature: signBody("secret", "abc", body), Timestamp: "abc"},
			wantErr:     true,
		},
		{
			name:              "both checks pass",
			verificationToken: "tok",
			secretToken:       "secret",
			headers:           domain.WebhookHeaders{Authorization: "tok", Signature: signBody("secret", ts, body), Timestamp: ts},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := NewZoomWebhookValidator(tt.verificationToken, tt.secretToken)
			v.now = func() time.Time { return now }

			err := v.ValidateRequest(body, tt.headers)
			if tt.wantErr {
				require.Error(t, err)
				assert.Equal(t, domain.ErrorTypeUnauthorized, domain.GetErrorType(err))
				assert.ErrorIs(t, err, domain.ErrUnauthorized)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestValidateSignature_TamperedBody(t *testing.T) {
	now := time.Unix(1_700_000_000, 0)
	ts := strconv.FormatInt(now.Unix(), 10)
	v := NewZoomWebhookValidator("", "secret")
	v.now = func() time.Time { return now }

	sig := signBody("secret", ts, []byte(`{"a":1}`))
	assert.NoError(t, v.ValidateSignature([]byte(`{"a":1}`), sig, ts))
	assert.Error(t, v.ValidateSignature([]byte(`{"a":2}`), sig, ts))
}

func TestURLValidationResponse(t *testing.T) {
	v := NewZoomWebhookValidator("", "secret")
	got, ok := v.URLValidationResponse("plain")
	require.True(t, ok)

	h := hmac.New(sha256.New, []byte("secret"))
	h.Write([]byte("plain"))
	assert.Equal(t, hex.EncodeToString(h.Sum(nil)), got)

	_, ok = NewZoomWebhookValidator("tok", "").URLValidationResponse("plain")
	assert.False(t, ok)
}
