// Copyright The Linux Foundation and each contributor to LFX.
// SPDX-License-Identifier: MIT

package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
)

// Meeting status values reported by the Zoom API
const (
	MeetingStatusWaiting = "waiting"
	MeetingStatusStarted = "started"
)

// Meeting represents the fields of a Zoom meeting the bot reads
type Meeting struct {
	ID        int64  `json:"id"`
	UUID      string `json:"uuid"`
	Topic     string `json:"topic"`
	Type      int    `json:"type"`
	Status    string `json:"status"`
	JoinURL   string `json:"join_url"`
	StartTime string `json:"start_time,omitempty"`
	Timezone  string `json:"timezone,omitempty"`
}

// GetMeeting retrieves a meeting by id
func (c *Client) GetMeeting(ctx context.Context, meetingID string) (*Meeting, error) {
	if meetingID == "" {
		return nil, fmt.Errorf("meeting id is required")
	}

	body, err := c.doRequest(ctx, "/meetings/"+url.PathEscape(meetingID))
	if err != nil {
		return nil, fmt.Errorf("failed to get meeting: %w", err)
	}

	var meeting Meeting
	if err := json.Unmarshal(body, &meeting); err != nil {
		return nil, fmt.Errorf("failed to decode meeting response: %w", err)
	}
	if meeting.Status == "" {
		return nil, fmt.Errorf("meeting response has no status")
	}
	return &meeting, nil
}
