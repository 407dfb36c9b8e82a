// Copyright The Linux Foundation and each contributor to LFX.
// SPDX-License-Identifier: MIT

package models

import (
	"encoding/json"
	"maps"
	"slices"
)

// NeverAnnounced is the LastAnnouncementTimestamp value before the first announcement.
const NeverAnnounced int64 = -1

// MeetingSnapshot is a point-in-time read of the monitored meeting from the meeting service.
type MeetingSnapshot struct {
	Active  bool   `json:"active"`
	JoinURL string `json:"join_url"`
}

// AttendeeRecord is one distinct meeting identity ever observed.
type AttendeeRecord struct {
	MeetingID     string `json:"meeting_id"`
	DisplayName   string `json:"display_name"`
	LinkedChatID  string `json:"linked_chat_id,omitempty"`
	IsProvisional bool   `json:"is_provisional"`
}

// PresenceState is the authoritative model of the monitored call.
type PresenceState struct {
	ByID map[string]AttendeeRecord `json:"by_id"`
	// OnlineIDs is ordered by join time and never holds duplicates.
	OnlineIDs []string `json:"online_ids"`
	// ProvisionalIDs is kept sorted.
	ProvisionalIDs            []string `json:"provisional_ids"`
	Active                    bool     `json:"active"`
	HasSeenCallStart          bool     `json:"has_seen_call_start"`
	LastAnnouncementTimestamp int64    `json:"last_announcement_timestamp"`
}

// LinkedAccountsState maps meeting identities to chat identities.
type LinkedAccountsState struct {
	ByMeetingID map[string]string `json:"by_meeting_id"`
}

// StatusMessageEntry is one recorded custom status of a chat user.
type StatusMessageEntry struct {
	Timestamp int64  `json:"timestamp"`
	Message   string `json:"message"`
}

// StatusHistoryState tracks custom status history for users who opted in.
type StatusHistoryState struct {
	ByChatID   map[string][]StatusMessageEntry `json:"by_chat_id"`
	OptedInIDs []string                        `json:"opted_in_ids"`
}

// RootState is everything the bot persists.
type RootState struct {
	Presence       PresenceState       `json:"zoom_users"`
	LinkedAccounts LinkedAccountsState `json:"linked_accounts"`
	StatusHistory  StatusHistoryState  `json:"status_message_tracker"`
}

// PersistedState is the on-disk envelope.
type PersistedState struct {
	State   RootState `json:"state"`
	Version string    `json:"version"`
}

// UnmarshalJSON decodes over the defaults of NewRootState, so fields missing
// from an older envelope keep their default values.
func (p *PersistedState) UnmarshalJSON(data []byte) error {
	type envelope PersistedState
	decoded := envelope{State: NewRootState()}
	if err := json.Unmarshal(data, &decoded); err != nil {
		return err
	}
	*p = PersistedState(decoded)
	p.State.Normalize()
	return nil
}

// NewRootState returns the empty default state.
func NewRootState() RootState {
	return RootState{
		Presence: PresenceState{
			ByID:                      map[string]AttendeeRecord{},
			OnlineIDs:                 []string{},
			ProvisionalIDs:            []string{},
			LastAnnouncementTimestamp: NeverAnnounced,
		},
		LinkedAccounts: LinkedAccountsState{
			ByMeetingID: map[string]string{},
		},
		StatusHistory: StatusHistoryState{
			ByChatID:   map[string][]StatusMessageEntry{},
			OptedInIDs: []string{},
		},
	}
}

// Normalize fills nil collections left by decoding a partial or older envelope.
func (s *RootState) Normalize() {
	if s.Presence.ByID == nil {
		s.Presence.ByID = map[string]AttendeeRecord{}
	}
	if s.Presence.OnlineIDs == nil {
		s.Presence.OnlineIDs = []string{}
	}
	if s.Presence.ProvisionalIDs == nil {
		s.Presence.ProvisionalIDs = []string{}
	}
	if s.LinkedAccounts.ByMeetingID == nil {
		s.LinkedAccounts.ByMeetingID = map[string]string{}
	}
	if s.StatusHistory.ByChatID == nil {
		s.StatusHistory.ByChatID = map[string][]StatusMessageEntry{}
	}
	if s.StatusHistory.OptedInIDs == nil {
		s.StatusHistory.OptedInIDs = []string{}
	}
}

// Clone returns a deep copy that shares no memory with s.
func (s RootState) Clone() RootState {
	history := make(map[string][]StatusMessageEntry, len(s.StatusHistory.ByChatID))
	for id, entries := range s.StatusHistory.ByChatID {
		history[id] = slices.Clone(entries)
	}

	out := RootState{
		Presence: PresenceState{
			ByID:                      maps.Clone(s.Presence.ByID),
			OnlineIDs:                 slices.Clone(s.Presence.OnlineIDs),
			ProvisionalIDs:            slices.Clone(s.Presence.ProvisionalIDs),
			Active:                    s.Presence.Active,
			HasSeenCallStart:          s.Presence.HasSeenCallStart,
			LastAnnouncementTimestamp: s.Presence.LastAnnouncementTimestamp,
		},
		LinkedAccounts: LinkedAccountsState{
			ByMeetingID: maps.Clone(s.LinkedAccounts.ByMeetingID),
		},
		StatusHistory: StatusHistoryState{
			ByChatID:   history,
			OptedInIDs: slices.Clone(s.StatusHistory.OptedInIDs),
		},
	}
	out.Normalize()
	return out
}

// Participants returns the records of everyone online, in join order.
func (p PresenceState) Participants() []AttendeeRecord {
	out := make([]AttendeeRecord, 0, len(p.OnlineIDs))
	for _, id := range p.OnlineIDs {
		if rec, ok := p.ByID[id]; ok {
			out = append(out, rec)
		}
	}
	return out
}

// IsOnline reports whether id is in the current roster.
func (p PresenceState) IsOnline(id string) bool {
	return slices.Contains(p.OnlineIDs, id)
}

// IsProvisional reports whether id is a provisional identity.
func (p PresenceState) IsProvisional(id string) bool {
	_, found := slices.BinarySearch(p.ProvisionalIDs, id)
	return found
}

// ChatMember is a member of a chat server as seen by the bot.
type ChatMember struct {
	ID       string
	Username string
	RoleIDs  []string
}

// HasRole reports whether the member holds roleID.
func (m ChatMember) HasRole(roleID string) bool {
	return slices.Contains(m.RoleIDs, roleID)
}

// ChatMessage is one text message received by the bot.
type ChatMessage struct {
	GuildID       string
	ChannelID     string
	AuthorID      string
	AuthorName    string
	AuthorMention string
	// MentionedIDs lists the users the message mentions, in order.
	MentionedIDs []string
	Content      string
}
