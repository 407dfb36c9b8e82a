// Copyright The Linux Foundation and each contributor to LFX.
// SPDX-License-Identifier: MIT

package service

import (
	"context"
	"log/slog"

	"github.com/linuxfoundation/lfx-v2-zoom-presence-bot/internal/domain"
	"github.com/linuxfoundation/lfx-v2-zoom-presence-bot/internal/logging"
	"github.com/linuxfoundation/lfx-v2-zoom-presence-bot/internal/presence"
)

// StatusSynchronizer mirrors the call status in the bot's visible activity text.
type StatusSynchronizer struct {
	chat domain.ChatPlatform
}

// NewStatusSynchronizer creates a new StatusSynchronizer
func NewStatusSynchronizer(chat domain.ChatPlatform) *StatusSynchronizer {
	return &StatusSynchronizer{chat: chat}
}

// ServiceReady checks if the service is ready to process requests
func (s *StatusSynchronizer) ServiceReady() bool {
	return s.chat != nil
}

// Register subscribes the synchronizer to the store and sets the current text right away.
func (s *StatusSynchronizer) Register(ctx context.Context, store *presence.Store) func() {
	return presence.Subscribe(ctx, store, StatusViewOf,
		func(a, b StatusView) bool { return a == b },
		func(ctx context.Context, current, _ StatusView) {
			text := StatusText(current)
			if text == "" {
				slog.InfoContext(ctx, "clearing bot activity")
			} else {
				slog.InfoContext(ctx, "setting bot activity", "activity", text)
			}
			if err := s.chat.SetActivity(ctx, text); err != nil {
				slog.ErrorContext(ctx, "failed to set bot activity", logging.ErrKey, err)
			}
		},
		presence.FireImmediately(),
	)
}
