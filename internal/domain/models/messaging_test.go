// Copyright The Linux Foundation and each contributor to LFX.
// SPDX-License-Identifier: MIT

package models

import (
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPresenceSubjects(t *testing.T) {
	subjects := []string{PresenceRosterUpdatedSubject, PresenceCallStatusSubject}
	for _, subject := range subjects {
		assert.True(t, strings.HasPrefix(subject, "lfx.zoom-presence."), subject)
	}
	assert.NotEqual(t, PresenceRosterUpdatedSubject, PresenceCallStatusSubject)
}

func TestPresenceChangedMessage_JSON(t *testing.T) {
	at := time.Date(2024, 3, 1, 20, 0, 0, 0, time.UTC)
	msg := PresenceChangedMessage{
		ZoomMeetingID:    "1234",
		Active:           true,
		HasSeenCallStart: true,
		Participants: []PresenceParticipant{
			{MeetingID: "z1", DisplayName: "Ada", LinkedChatID: "u1"},
			{MeetingID: "s1::9", DisplayName: "Guest", Provisional: true},
		},
		PreviousCount: 1,
		Timestamp:     at,
	}

	data, err := json.Marshal(msg)
	require.NoError(t, err)

	var raw map[string]any
	require.NoError(t, json.Unmarshal(data, &raw))
	assert.Equal(t, "1234", raw["zoom_meeting_id"])
	assert.Equal(t, true, raw["has_seen_call_start"])
	assert.Equal(t, float64(1), raw["previous_count"])
	assert.Equal(t, "2024-03-01T20:00:00Z", raw["timestamp"])

	participants, ok := raw["participants"].([]any)
	require.True(t, ok)
	require.Len(t, participants, 2)
	guest := participants[1].(map[string]any)
	assert.Equal(t, true, guest["provisional"])
	_, hasLink := guest["linked_chat_id"]
	assert.False(t, hasLink, "unlinked participants omit linked_chat_id")
}
