// Copyright The Linux Foundation and each contributor to LFX.
// SPDX-License-Identifier: MIT

package zoom

import (
	"context"
	"fmt"

	"github.com/linuxfoundation/lfx-v2-zoom-presence-bot/internal/domain"
	"github.com/linuxfoundation/lfx-v2-zoom-presence-bot/internal/domain/models"
	"github.com/linuxfoundation/lfx-v2-zoom-presence-bot/internal/infrastructure/zoom/api"
)

// SnapshotFetcher reads the monitored meeting through the Zoom API
type SnapshotFetcher struct {
	client    api.ClientAPI
	meetingID string
}

// Ensure SnapshotFetcher implements domain.SnapshotFetcher
var _ domain.SnapshotFetcher = (*SnapshotFetcher)(nil)

// NewSnapshotFetcher creates a fetcher for one meeting
func NewSnapshotFetcher(client api.ClientAPI, meetingID string) *SnapshotFetcher {
	return &SnapshotFetcher{
		client:    client,
		meetingID: meetingID,
	}
}

// Fetch returns the current meeting snapshot. A meeting is active only while Zoom
// reports it as started.
func (f *SnapshotFetcher) Fetch(ctx context.Context) (models.MeetingSnapshot, error) {
	meeting, err := f.client.GetMeeting(ctx, f.meetingID)
	if err != nil {
		return models.MeetingSnapshot{}, domain.NewUpstreamError(
			fmt.Sprintf("failed to fetch meeting %s", f.meetingID), err)
	}
	if meeting == nil {
		return models.MeetingSnapshot{}, domain.NewUpstreamError(
			fmt.Sprintf("empty response for meeting %s", f.meetingID))
	}

	return models.MeetingSnapshot{
		Active:  meeting.Status == api.MeetingStatusStarted,
		JoinURL: meeting.JoinURL,
	}, nil
}
