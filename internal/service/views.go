// Copyright The Linux Foundation and each contributor to LFX.
// SPDX-License-Identifier: MIT

package service

import (
	"fmt"
	"slices"
	"strings"

	"github.com/linuxfoundation/lfx-v2-zoom-presence-bot/internal/domain/models"
)

// Selectors over the presence state. They are pure and never modify their input.

// ActiveChatIDs returns the sorted, distinct chat ids linked to online attendees.
func ActiveChatIDs(s models.RootState) []string {
	ids := make([]string, 0, len(s.Presence.OnlineIDs))
	for _, id := range s.Presence.OnlineIDs {
		chatID := s.Presence.ByID[id].LinkedChatID
		if chatID == "" {
			chatID = s.LinkedAccounts.ByMeetingID[id]
		}
		if chatID != "" {
			ids = append(ids, chatID)
		}
	}
	slices.Sort(ids)
	return slices.Compact(ids)
}

// StatusView is the input of the bot's visible status text.
type StatusView struct {
	Active           bool
	HasSeenCallStart bool
	OnlineCount      int
}

// StatusViewOf selects the StatusView of s.
func StatusViewOf(s models.RootState) StatusView {
	return StatusView{
		Active:           s.Presence.Active,
		HasSeenCallStart: s.Presence.HasSeenCallStart,
		OnlineCount:      len(s.Presence.OnlineIDs),
	}
}

// StatusText returns the activity text for v. An empty string clears the activity.
// Until a call end has been observed the roster may be incomplete, so no count is shown.
func StatusText(v StatusView) string {
	switch {
	case !v.Active:
		return ""
	case !v.HasSeenCallStart:
		return "on Zoom"
	case v.OnlineCount == 1:
		return "with 1 person on Zoom"
	default:
		return fmt.Sprintf("with %d people on Zoom", v.OnlineCount)
	}
}

// AnnouncementView is the input of the threshold announcer.
type AnnouncementView struct {
	OnlineIDs        []string
	Names            []string
	LastAnnouncement int64
}

// AnnouncementViewOf selects the AnnouncementView of s.
func AnnouncementViewOf(s models.RootState) AnnouncementView {
	names := make([]string, 0, len(s.Presence.OnlineIDs))
	for _, rec := range s.Presence.Participants() {
		names = append(names, rec.DisplayName)
	}
	return AnnouncementView{
		OnlineIDs:        slices.Clone(s.Presence.OnlineIDs),
		Names:            names,
		LastAnnouncement: s.Presence.LastAnnouncementTimestamp,
	}
}

func equalAnnouncementViews(a, b AnnouncementView) bool {
	return a.LastAnnouncement == b.LastAnnouncement && slices.Equal(a.OnlineIDs, b.OnlineIDs)
}

// RosterView is what the presence publisher shares with other services.
type RosterView struct {
	Active           bool
	HasSeenCallStart bool
	Participants     []models.AttendeeRecord
}

// RosterViewOf selects the RosterView of s.
func RosterViewOf(s models.RootState) RosterView {
	return RosterView{
		Active:           s.Presence.Active,
		HasSeenCallStart: s.Presence.HasSeenCallStart,
		Participants:     s.Presence.Participants(),
	}
}

func equalRosterViews(a, b RosterView) bool {
	return a.Active == b.Active &&
		a.HasSeenCallStart == b.HasSeenCallStart &&
		slices.Equal(a.Participants, b.Participants)
}

// OnlineAttendees returns the records of everyone currently on the call with
// their linked chat id filled in from the linked accounts.
func OnlineAttendees(s models.RootState) []models.AttendeeRecord {
	out := s.Presence.Participants()
	for i := range out {
		if out[i].LinkedChatID == "" {
			out[i].LinkedChatID = s.LinkedAccounts.ByMeetingID[out[i].MeetingID]
		}
	}
	return out
}

// JoinNames renders names as "A", "A and B" or "A, B, and C".
func JoinNames(names []string) string {
	switch len(names) {
	case 0:
		return ""
	case 1:
		return names[0]
	case 2:
		return names[0] + " and " + names[1]
	}
	return strings.Join(names[:len(names)-1], ", ") + ", and " + names[len(names)-1]
}
