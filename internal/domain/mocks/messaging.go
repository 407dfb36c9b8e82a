// Copyright The Linux Foundation and each contributor to LFX.
// SPDX-License-Identifier: MIT

package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/linuxfoundation/lfx-v2-zoom-presence-bot/internal/domain"
	"github.com/linuxfoundation/lfx-v2-zoom-presence-bot/internal/domain/models"
)

// MockPresenceEventSender implements PresenceEventSender for testing
type MockPresenceEventSender struct {
	mock.Mock
}

func (m *MockPresenceEventSender) SendRosterUpdated(ctx context.Context, msg models.PresenceChangedMessage) error {
	args := m.Called(ctx, msg)
	return args.Error(0)
}

func (m *MockPresenceEventSender) SendCallStatus(ctx context.Context, msg models.PresenceChangedMessage) error {
	args := m.Called(ctx, msg)
	return args.Error(0)
}

// MockWebhookValidator implements WebhookValidator for testing
type MockWebhookValidator struct {
	mock.Mock
}

func (m *MockWebhookValidator) ValidateRequest(body []byte, headers domain.WebhookHeaders) error {
	args := m.Called(body, headers)
	return args.Error(0)
}

func (m *MockWebhookValidator) URLValidationResponse(plainToken string) (string, bool) {
	args := m.Called(plainToken)
	return args.String(0), args.Bool(1)
}
