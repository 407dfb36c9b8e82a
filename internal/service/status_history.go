// Copyright The Linux Foundation and each contributor to LFX.
// SPDX-License-Identifier: MIT

package service

import (
	"context"
	"slices"
	"strings"
	"time"

	"github.com/linuxfoundation/lfx-v2-zoom-presence-bot/internal/domain/models"
	"github.com/linuxfoundation/lfx-v2-zoom-presence-bot/internal/presence"
)

// StatusHistoryService records the custom status history of chat users who opted in.
type StatusHistoryService struct {
	store *presence.Store
	now   func() time.Time
}

// NewStatusHistoryService creates a new StatusHistoryService
func NewStatusHistoryService(store *presence.Store) *StatusHistoryService {
	return &StatusHistoryService{store: store, now: time.Now}
}

// ServiceReady checks if the service is ready to process requests
func (s *StatusHistoryService) ServiceReady() bool {
	return s.store != nil
}

// OptIn starts tracking chatID and records currentStatus when it is set.
// Opting in twice is a conflict.
func (s *StatusHistoryService) OptIn(ctx context.Context, chatID, currentStatus string) error {
	if err := s.store.Dispatch(ctx, presence.StatusOptIn{ChatID: chatID}); err != nil {
		return err
	}
	return s.Record(ctx, chatID, currentStatus)
}

// OptOut stops tracking chatID and erases its history.
func (s *StatusHistoryService) OptOut(ctx context.Context, chatID string) error {
	return s.store.Dispatch(ctx, presence.StatusOptOut{ChatID: chatID})
}

// Record stores a new custom status. Blank statuses and users who did not opt in are ignored.
func (s *StatusHistoryService) Record(ctx context.Context, chatID, status string) error {
	if strings.TrimSpace(status) == "" || !s.IsOptedIn(chatID) {
		return nil
	}
	return s.store.Dispatch(ctx, presence.StatusMessageUpdated{
		ChatID:    chatID,
		Timestamp: s.now().UnixMilli(),
		Message:   status,
	})
}

// IsOptedIn reports whether chatID opted in to tracking.
func (s *StatusHistoryService) IsOptedIn(chatID string) bool {
	return slices.Contains(s.store.State().StatusHistory.OptedInIDs, chatID)
}

// History returns the recorded statuses of chatID, oldest first.
func (s *StatusHistoryService) History(chatID string) []models.StatusMessageEntry {
	return s.store.State().StatusHistory.ByChatID[chatID]
}
