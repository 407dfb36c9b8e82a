// Copyright The Linux Foundation and each contributor to LFX.
// SPDX-License-Identifier: MIT

package service

import (
	"context"
	"log/slog"
	"slices"
	"time"

	"github.com/linuxfoundation/lfx-v2-zoom-presence-bot/internal/domain"
	"github.com/linuxfoundation/lfx-v2-zoom-presence-bot/internal/domain/models"
	"github.com/linuxfoundation/lfx-v2-zoom-presence-bot/internal/logging"
	"github.com/linuxfoundation/lfx-v2-zoom-presence-bot/internal/presence"
)

// PresencePublisher shares roster and call status changes with other services.
type PresencePublisher struct {
	sender    domain.PresenceEventSender
	meetingID string
	now       func() time.Time
}

// NewPresencePublisher creates a new PresencePublisher
func NewPresencePublisher(sender domain.PresenceEventSender, config ServiceConfig) *PresencePublisher {
	return &PresencePublisher{
		sender:    sender,
		meetingID: config.MeetingID,
		now:       time.Now,
	}
}

// ServiceReady checks if the service is ready to process requests
func (p *PresencePublisher) ServiceReady() bool {
	return p.sender != nil
}

// Register subscribes the publisher to the store.
func (p *PresencePublisher) Register(ctx context.Context, store *presence.Store) func() {
	return presence.Subscribe(ctx, store, RosterViewOf, equalRosterViews, p.onChange)
}

func (p *PresencePublisher) onChange(ctx context.Context, current, previous RosterView) {
	msg := models.PresenceChangedMessage{
		ZoomMeetingID:    p.meetingID,
		Active:           current.Active,
		HasSeenCallStart: current.HasSeenCallStart,
		Participants:     make([]models.PresenceParticipant, 0, len(current.Participants)),
		PreviousCount:    len(previous.Participants),
		Timestamp:        p.now().UTC(),
	}
	for _, rec := range current.Participants {
		msg.Participants = append(msg.Participants, models.PresenceParticipant{
			MeetingID:    rec.MeetingID,
			DisplayName:  rec.DisplayName,
			LinkedChatID: rec.LinkedChatID,
			Provisional:  rec.IsProvisional,
		})
	}

	if current.Active != previous.Active || current.HasSeenCallStart != previous.HasSeenCallStart {
		if err := p.sender.SendCallStatus(ctx, msg); err != nil {
			slog.ErrorContext(ctx, "failed to publish call status", logging.ErrKey, err)
		}
	}
	if !slices.Equal(current.Participants, previous.Participants) {
		if err := p.sender.SendRosterUpdated(ctx, msg); err != nil {
			slog.ErrorContext(ctx, "failed to publish roster update", logging.ErrKey, err)
		}
	}
}
