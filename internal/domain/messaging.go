// Copyright The Linux Foundation and each contributor to LFX.
// SPDX-License-Identifier: MIT

package domain

import (
	"context"

	"github.com/linuxfoundation/lfx-v2-zoom-presence-bot/internal/domain/models"
)

// PresenceEventSender publishes presence changes to other services.
type PresenceEventSender interface {
	SendRosterUpdated(ctx context.Context, msg models.PresenceChangedMessage) error
	SendCallStatus(ctx context.Context, msg models.PresenceChangedMessage) error
}

// WebhookValidator authenticates inbound meeting-platform webhooks.
type WebhookValidator interface {
	// ValidateRequest checks the authentication headers of a webhook call against its raw body.
	ValidateRequest(body []byte, headers WebhookHeaders) error
	// URLValidationResponse answers a platform endpoint challenge. ok is false when the
	// validator has no secret to sign the challenge with.
	URLValidationResponse(plainToken string) (encryptedToken string, ok bool)
}

// WebhookHeaders are the authentication headers of a webhook call.
type WebhookHeaders struct {
	Authorization string
	Signature     string
	Timestamp     string
}
