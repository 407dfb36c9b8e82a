// Copyright The Linux Foundation and each contributor to LFX.
// SPDX-License-Identifier: MIT

package domain

import (
	"context"

	"github.com/linuxfoundation/lfx-v2-zoom-presence-bot/internal/domain/models"
)

// SnapshotFetcher reads the current state of the monitored meeting from the meeting platform.
type SnapshotFetcher interface {
	// Fetch returns a fresh snapshot. Failures are reported as upstream domain errors
	// and are never retried by the implementation.
	Fetch(ctx context.Context) (models.MeetingSnapshot, error)
}

// ChatPlatform is the side-effecting surface of the chat server the bot lives on.
type ChatPlatform interface {
	// GuildIDs returns every chat server the bot is connected to.
	GuildIDs(ctx context.Context) ([]string, error)
	// GuildMembers enumerates the members of a chat server.
	GuildMembers(ctx context.Context, guildID string) ([]models.ChatMember, error)
	// FindRole returns the id of the named role, or "" if the server has no such role.
	FindRole(ctx context.Context, guildID, roleName string) (string, error)
	// AddMemberRole grants a role to a member.
	AddMemberRole(ctx context.Context, guildID, userID, roleID string) error
	// RemoveMemberRole takes a role away from a member.
	RemoveMemberRole(ctx context.Context, guildID, userID, roleID string) error
	// SendChannelMessage posts text to the channel with the given name (case-insensitive).
	// It returns false if the server has no such channel.
	SendChannelMessage(ctx context.Context, guildID, channelName, text string) (bool, error)
	// SetActivity sets the bot's visible activity text; "" clears it.
	SetActivity(ctx context.Context, text string) error
}
