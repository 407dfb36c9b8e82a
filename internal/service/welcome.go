// Copyright The Linux Foundation and each contributor to LFX.
// SPDX-License-Identifier: MIT

package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/linuxfoundation/lfx-v2-zoom-presence-bot/internal/domain"
)

// WelcomeService greets new chat server members.
type WelcomeService struct {
	chat           domain.ChatPlatform
	admittedRole   string
	welcomeChannel string
}

// NewWelcomeService creates a new WelcomeService
func NewWelcomeService(chat domain.ChatPlatform, config ServiceConfig) *WelcomeService {
	return &WelcomeService{
		chat:           chat,
		admittedRole:   config.AdmittedRoleName,
		welcomeChannel: config.WelcomeChannel,
	}
}

// ServiceReady checks if the service is ready to process requests
func (w *WelcomeService) ServiceReady() bool {
	return w.chat != nil
}

// MemberJoined grants the admitted role and posts the welcome message, each
// only when configured. mention is how the message addresses the member.
func (w *WelcomeService) MemberJoined(ctx context.Context, guildID, userID, mention string) error {
	var errs []error

	if w.admittedRole != "" {
		if err := w.admit(ctx, guildID, userID); err != nil {
			errs = append(errs, err)
		}
	}

	if w.welcomeChannel != "" {
		sent, err := w.chat.SendChannelMessage(ctx, guildID, w.welcomeChannel, WelcomeText(mention))
		switch {
		case err != nil:
			errs = append(errs, fmt.Errorf("sending welcome message: %w", err))
		case !sent:
			slog.WarnContext(ctx, "welcome channel not found", "guild_id", guildID, "channel", w.welcomeChannel)
		}
	}

	return errors.Join(errs...)
}

func (w *WelcomeService) admit(ctx context.Context, guildID, userID string) error {
	roleID, err := w.chat.FindRole(ctx, guildID, w.admittedRole)
	if err != nil {
		return fmt.Errorf("finding admitted role: %w", err)
	}
	if roleID == "" {
		slog.WarnContext(ctx, "admitted role not found", "guild_id", guildID, "role", w.admittedRole)
		return nil
	}
	if err := w.chat.AddMemberRole(ctx, guildID, userID, roleID); err != nil {
		return fmt.Errorf("granting admitted role: %w", err)
	}
	slog.InfoContext(ctx, "admitted new member", "guild_id", guildID, "user_id", userID)
	return nil
}

// WelcomeText is the message posted for a new member.
func WelcomeText(mention string) string {
	return fmt.Sprintf("Welcome to the server, %s!\n\n"+
		"Most evenings we hang out on Zoom. Use `!zoom` to get the link and see who is on right now, "+
		"and `!link <your Zoom name>` so everyone can see when you join.", mention)
}
