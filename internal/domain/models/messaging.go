// Copyright The Linux Foundation and each contributor to LFX.
// SPDX-License-Identifier: MIT

package models

import "time"

// NATS subjects that the presence bot sends messages about.
const (
	// PresenceRosterUpdatedSubject is the subject for roster changes of the monitored call.
	// The subject is of the form: lfx.zoom-presence.roster_updated
	PresenceRosterUpdatedSubject = "lfx.zoom-presence.roster_updated"

	// PresenceCallStatusSubject is the subject for call active/inactive changes.
	// The subject is of the form: lfx.zoom-presence.call_status
	PresenceCallStatusSubject = "lfx.zoom-presence.call_status"
)

// PresenceParticipant is a participant entry in a published presence message.
type PresenceParticipant struct {
	MeetingID    string `json:"meeting_id"`
	DisplayName  string `json:"display_name"`
	LinkedChatID string `json:"linked_chat_id,omitempty"`
	Provisional  bool   `json:"provisional"`
}

// PresenceChangedMessage is published whenever the roster or call status changes.
type PresenceChangedMessage struct {
	ZoomMeetingID    string                `json:"zoom_meeting_id"`
	Active           bool                  `json:"active"`
	HasSeenCallStart bool                  `json:"has_seen_call_start"`
	Participants     []PresenceParticipant `json:"participants"`
	PreviousCount    int                   `json:"previous_count"`
	Timestamp        time.Time             `json:"timestamp"`
}
