// Copyright The Linux Foundation and each contributor to LFX.
// SPDX-License-Identifier: MIT

package webhook

import (
	"crypto/hmac"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"fmt"
	"strconv"
	"time"

	"github.com/linuxfoundation/lfx-v2-zoom-presence-bot/internal/domain"
)

// DefaultMaxSkew is how far a signed request timestamp may drift from the local clock.
const DefaultMaxSkew = 5 * time.Minute

const signatureVersion = "v0"

// ZoomWebhookValidator handles validation of Zoom webhook calls. Each configured
// secret adds one check; with neither set every call is accepted.
type ZoomWebhookValidator struct {
	// VerificationToken must equal the Authorization header byte-for-byte.
	VerificationToken string
	// SecretToken signs the request body (x-zm-signature) and URL validation challenges.
	SecretToken string
	MaxSkew     time.Duration

	now func() time.Time
}

// Ensure ZoomWebhookValidator implements domain.WebhookValidator
var _ domain.WebhookValidator = (*ZoomWebhookValidator)(nil)

// NewZoomWebhookValidator creates a new Zoom webhook validator
func NewZoomWebhookValidator(verificationToken, secretToken string) *ZoomWebhookValidator {
	return &ZoomWebhookValidator{
		VerificationToken: verificationToken,
		SecretToken:       secretToken,
		MaxSkew:           DefaultMaxSkew,
		now:               time.Now,
	}
}

// ValidateRequest authenticates one webhook call.
func (v *ZoomWebhookValidator) ValidateRequest(body []byte, headers domain.WebhookHeaders) error {
	if v.VerificationToken != "" {
		if subtle.ConstantTimeCompare([]byte(headers.Authorization), []byte(v.VerificationToken)) != 1 {
			return domain.NewUnauthorizedError("webhook verification token does not match")
		}
	}
	if v.SecretToken != "" {
		if err := v.ValidateSignature(body, headers.Signature, headers.Timestamp); err != nil {
			return domain.NewUnauthorizedError("webhook signature rejected", err)
		}
	}
	return nil
}

// ValidateSignature validates the Zoom webhook signature
func (v *ZoomWebhookValidator) ValidateSignature(body []byte, signature, timestamp string) error {
	if signature == "" {
		return fmt.Errorf("missing webhook signature")
	}
	if timestamp == "" {
		return fmt.Errorf("missing webhook timestamp")
	}

	seconds, err := strconv.ParseInt(timestamp, 10, 64)
	if err != nil {
		return fmt.Errorf("invalid webhook timestamp %q: %w", timestamp, err)
	}
	skew := v.now().Sub(time.Unix(seconds, 0)).Abs()
	if v.MaxSkew > 0 && skew > v.MaxSkew {
		return fmt.Errorf("webhook timestamp outside allowed window (%s)", skew.Round(time.Second))
	}

	// Create the message to sign: v0:timestamp:body
	message := fmt.Sprintf("%s:%s:%s", signatureVersion, timestamp, body)
	expected := signatureVersion + "=" + v.sign([]byte(message))

	if !hmac.Equal([]byte(signature), []byte(expected)) {
		return fmt.Errorf("zoom webhook signature does not match expected signature")
	}
	return nil
}

// URLValidationResponse answers an endpoint.url_validation challenge with the
// hex HMAC-SHA256 of the plain token.
func (v *ZoomWebhookValidator) URLValidationResponse(plainToken string) (string, bool) {
	if v.SecretToken == "" {
		return "", false
	}
	return v.sign([]byte(plainToken)), true
}

func (v *ZoomWebhookValidator) sign(message []byte) string {
	h := hmac.New(sha256.New, []byte(v.SecretToken))
	h.Write(message)
	return hex.EncodeToString(h.Sum(nil))
}
