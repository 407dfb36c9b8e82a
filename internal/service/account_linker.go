// Copyright The Linux Foundation and each contributor to LFX.
// SPDX-License-Identifier: MIT

package service

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"

	"github.com/linuxfoundation/lfx-v2-zoom-presence-bot/internal/domain"
	"github.com/linuxfoundation/lfx-v2-zoom-presence-bot/internal/domain/models"
	"github.com/linuxfoundation/lfx-v2-zoom-presence-bot/internal/presence"
)

// AccountLinker links chat users to the meeting identities they use on the call.
type AccountLinker struct {
	store *presence.Store
}

// NewAccountLinker creates a new AccountLinker
func NewAccountLinker(store *presence.Store) *AccountLinker {
	return &AccountLinker{store: store}
}

// ServiceReady checks if the service is ready to process requests
func (l *AccountLinker) ServiceReady() bool {
	return l.store != nil
}

// FindByName returns every attendee whose latest display name matches name,
// ignoring case and surrounding whitespace.
func FindByName(s models.RootState, name string) []models.AttendeeRecord {
	name = strings.TrimSpace(name)
	var matches []models.AttendeeRecord
	for _, rec := range s.Presence.ByID {
		if strings.EqualFold(strings.TrimSpace(rec.DisplayName), name) {
			matches = append(matches, rec)
		}
	}
	sort.Slice(matches, func(i, j int) bool { return matches[i].MeetingID < matches[j].MeetingID })
	return matches
}

// Link associates chatID with the one attendee called query. Zero matches is a
// not found error, several matches an ambiguous match error, and a provisional
// match an unstable identity error.
func (l *AccountLinker) Link(ctx context.Context, query, chatID string) (*models.AttendeeRecord, error) {
	name := strings.TrimSpace(query)
	if name == "" {
		return nil, domain.NewValidationError("a display name is required")
	}
	if chatID == "" {
		return nil, domain.NewValidationError("a chat id is required")
	}

	matches := FindByName(l.store.State(), name)
	switch {
	case len(matches) == 0:
		return nil, domain.NewNotFoundError(fmt.Sprintf("no attendee named %q has been seen", name))
	case len(matches) > 1:
		return nil, domain.NewAmbiguousMatchError(fmt.Sprintf("%d attendees are named %q", len(matches), name))
	case matches[0].IsProvisional:
		return nil, domain.NewUnstableIdentityError(fmt.Sprintf("attendee %q is not signed in", name))
	}

	match := matches[0]
	if err := l.store.Dispatch(ctx, presence.AccountLinked{MeetingID: match.MeetingID, ChatID: chatID}); err != nil {
		return nil, err
	}

	slog.InfoContext(ctx, "linked chat account",
		"meeting_user_id", match.MeetingID,
		"chat_user_id", chatID,
	)

	match.LinkedChatID = chatID
	return &match, nil
}
