// Copyright The Linux Foundation and each contributor to LFX.
// SPDX-License-Identifier: MIT

package api

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/oauth2"
)

// MintToken signs a Zoom JWT app credential: issuer apiKey, expiring ttl after now,
// HS256 with apiSecret.
func MintToken(apiKey, apiSecret string, now time.Time, ttl time.Duration) (string, error) {
	if apiKey == "" || apiSecret == "" {
		return "", fmt.Errorf("zoom API key and secret are required")
	}
	claims := jwt.RegisteredClaims{
		Issuer:    apiKey,
		ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(apiSecret))
	if err != nil {
		return "", fmt.Errorf("failed to sign zoom token: %w", err)
	}
	return signed, nil
}

// JWTTokenSource mints a new token every time it is asked for one.
type JWTTokenSource struct {
	apiKey    string
	apiSecret string
	ttl       time.Duration
	now       func() time.Time
}

// NewJWTTokenSource creates a token source for the Zoom JWT app credentials.
func NewJWTTokenSource(apiKey, apiSecret string, ttl time.Duration, now func() time.Time) *JWTTokenSource {
	return &JWTTokenSource{apiKey: apiKey, apiSecret: apiSecret, ttl: ttl, now: now}
}

// Token implements oauth2.TokenSource.
func (s *JWTTokenSource) Token() (*oauth2.Token, error) {
	now := s.now()
	signed, err := MintToken(s.apiKey, s.apiSecret, now, s.ttl)
	if err != nil {
		return nil, err
	}
	return &oauth2.Token{
		AccessToken: signed,
		TokenType:   "Bearer",
		Expiry:      now.Add(s.ttl),
	}, nil
}
