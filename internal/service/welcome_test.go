// Copyright The Linux Foundation and each contributor to LFX.
// SPDX-License-Identifier: MIT

package service

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/linuxfoundation/lfx-v2-zoom-presence-bot/internal/domain/mocks"
)

func TestWelcomeMemberJoined(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name      string
		config    ServiceConfig
		setupMock func(*mocks.MockChatPlatform)
		wantErr   bool
	}{
		{
			name:   "role and message",
			config: ServiceConfig{AdmittedRoleName: "Admitted", WelcomeChannel: "welcome"},
			setupMock: func(m *mocks.MockChatPlatform) {
				m.On("FindRole", mock.Anything, "g1", "Admitted").Return("r1", nil)
				m.On("AddMemberRole", mock.Anything, "g1", "u1", "r1").Return(nil)
				m.On("SendChannelMessage", mock.Anything, "g1", "welcome", WelcomeText("<@u1>")).Return(true, nil)
			},
		},
		{
			name:      "nothing configured",
			config:    ServiceConfig{},
			setupMock: func(*mocks.MockChatPlatform) {},
		},
		{
			name:   "missing role is not an error",
			config: ServiceConfig{AdmittedRoleName: "Admitted"},
			setupMock: func(m *mocks.MockChatPlatform) {
				m.On("FindRole", mock.Anything, "g1", "Admitted").Return("", nil)
			},
		},
		{
			name:   "role failure still sends the message",
			config: ServiceConfig{AdmittedRoleName: "Admitted", WelcomeChannel: "welcome"},
			setupMock: func(m *mocks.MockChatPlatform) {
				m.On("FindRole", mock.Anything, "g1", "Admitted").Return("r1", nil)
				m.On("AddMemberRole", mock.Anything, "g1", "u1", "r1").Return(errors.New("missing permissions"))
				m.On("SendChannelMessage", mock.Anything, "g1", "welcome", mock.Anything).Return(true, nil)
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			chat := &mocks.MockChatPlatform{}
			tt.setupMock(chat)

			err := NewWelcomeService(chat, tt.config).MemberJoined(ctx, "g1", "u1", "<@u1>")
			if tt.wantErr {
				require.Error(t, err)
			} else {
				require.NoError(t, err)
			}
			chat.AssertExpectations(t)
		})
	}
}

func TestWelcomeText(t *testing.T) {
	assert.Contains(t, WelcomeText("<@u1>"), "<@u1>")
}
