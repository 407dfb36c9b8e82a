// Copyright The Linux Foundation and each contributor to LFX.
// SPDX-License-Identifier: MIT

package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/linuxfoundation/lfx-v2-zoom-presence-bot/internal/domain/models"
)

// MockSnapshotFetcher implements SnapshotFetcher for testing
type MockSnapshotFetcher struct {
	mock.Mock
}

func (m *MockSnapshotFetcher) Fetch(ctx context.Context) (models.MeetingSnapshot, error) {
	args := m.Called(ctx)
	return args.Get(0).(models.MeetingSnapshot), args.Error(1)
}

// MockChatPlatform implements ChatPlatform for testing
type MockChatPlatform struct {
	mock.Mock
}

func (m *MockChatPlatform) GuildIDs(ctx context.Context) ([]string, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]string), args.Error(1)
}

func (m *MockChatPlatform) GuildMembers(ctx context.Context, guildID string) ([]models.ChatMember, error) {
	args := m.Called(ctx, guildID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.ChatMember), args.Error(1)
}

func (m *MockChatPlatform) FindRole(ctx context.Context, guildID, roleName string) (string, error) {
	args := m.Called(ctx, guildID, roleName)
	return args.String(0), args.Error(1)
}

func (m *MockChatPlatform) AddMemberRole(ctx context.Context, guildID, userID, roleID string) error {
	args := m.Called(ctx, guildID, userID, roleID)
	return args.Error(0)
}

func (m *MockChatPlatform) RemoveMemberRole(ctx context.Context, guildID, userID, roleID string) error {
	args := m.Called(ctx, guildID, userID, roleID)
	return args.Error(0)
}

func (m *MockChatPlatform) SendChannelMessage(ctx context.Context, guildID, channelName, text string) (bool, error) {
	args := m.Called(ctx, guildID, channelName, text)
	return args.Bool(0), args.Error(1)
}

func (m *MockChatPlatform) SetActivity(ctx context.Context, text string) error {
	args := m.Called(ctx, text)
	return args.Error(0)
}
